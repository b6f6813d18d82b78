package middleware

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/dstanley/maplecart/internal/domain"
	"github.com/dstanley/maplecart/internal/repository"
)

// UserIDHeader carries the authenticated user id, set by the upstream
// gateway after it has verified credentials. This service trusts it.
const UserIDHeader = "X-User-ID"

// ResolveUser resolves the gateway-supplied user id to a full user
// record and stores it in the request context. Requests without the
// header pass through anonymous; RequireUser gates the routes that need
// an identity.
func ResolveUser(store repository.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(UserIDHeader)
			if header == "" {
				return next(c)
			}

			userID, err := strconv.ParseInt(header, 10, 64)
			if err != nil {
				return echo.NewHTTPError(401, "invalid user identity")
			}

			ctx := c.Request().Context()
			user, err := store.Users().FindByID(ctx, userID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return echo.NewHTTPError(401, "unknown user")
				}
				return err
			}

			c.SetRequest(c.Request().WithContext(domain.NewContextWithUser(ctx, &user)))
			return next(c)
		}
	}
}

// RequireUser rejects requests that reached an authenticated route
// without a resolved user.
func RequireUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if domain.UserFromContext(c.Request().Context()) == nil {
				return echo.NewHTTPError(401, "authentication required")
			}
			return next(c)
		}
	}
}
