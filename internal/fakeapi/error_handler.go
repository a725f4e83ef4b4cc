package fakeapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/railfleet/fleet-state/internal/core/domain"
)

// errorResponse is the fleet API error envelope.
type errorResponse struct {
	Message string `json:"message"`
}

// newHTTPErrorHandler renders every failure as {"message": "..."}. Business
// rule rejections keep their status; unexpected errors are logged and hidden.
func newHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Message: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	var re *ruleError
	if errors.As(err, &re) {
		return re.status, re.msg
	}

	switch {
	case errors.Is(err, domain.ErrInvalidEntity):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, errNotFound):
		return http.StatusNotFound, "Not found"
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "Internal server error"
}
