package middleware

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dstanley/maplecart/internal/domain"
)

// RequestLogger logs one line per request: method, route, status,
// duration, and the request ID when present. Server errors log at error
// level so they stand out in aggregation.
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			attrs := []any{
				slog.String("method", c.Request().Method),
				slog.String("path", c.Request().URL.Path),
				slog.Int("status", status),
				slog.Duration("duration", time.Since(start)),
			}
			if requestID := domain.RequestIDFromContext(c.Request().Context()); requestID != "" {
				attrs = append(attrs, slog.String("request_id", requestID))
			}
			if user := domain.UserFromContext(c.Request().Context()); user != nil {
				attrs = append(attrs, slog.Int64("user_id", user.ID))
			}
			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
			}

			if status >= 500 {
				logger.Error("request", attrs...)
			} else {
				logger.Info("request", attrs...)
			}
			return nil
		}
	}
}
