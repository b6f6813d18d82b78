package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/dstanley/maplecart/internal/domain"
)

// ErrorResponse is the JSON body for every error.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// statusForCode maps domain error codes to HTTP status.
func statusForCode(code string) int {
	switch code {
	case domain.ENOTFOUND:
		return http.StatusNotFound
	case domain.EINVALID:
		return http.StatusBadRequest
	case domain.ECONFLICT:
		return http.StatusConflict
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized
	case domain.EFORBIDDEN:
		return http.StatusForbidden
	case domain.EPAYMENT:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

// writeError translates a service error into an HTTP response. Internal
// details never leak: domain.ErrorMessage already hides them for
// EINTERNAL.
func writeError(c echo.Context, err error) error {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}

	status := statusForCode(domain.ErrorCode(err))
	return c.JSON(status, ErrorResponse{
		Error:     domain.ErrorMessage(err),
		RequestID: domain.RequestIDFromContext(c.Request().Context()),
	})
}

func parseInt64(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
