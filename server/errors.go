package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/existflow/sitetask/internal/logger"
	"github.com/existflow/sitetask/internal/model"
)

// statusOf maps the error taxonomy onto HTTP status codes
func statusOf(err error) int {
	switch {
	case errors.Is(err, model.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"error": "..."}. Upstream failures are logged
// in full and answered with a generic message.
func respondError(c echo.Context, err error) error {
	status := statusOf(err)

	var msg string
	var ve *model.ValidationError
	var fe *model.ForbiddenError
	switch {
	case status == http.StatusInternalServerError:
		logger.Error("request failed",
			logger.F("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			logger.F("uri", c.Request().RequestURI),
			logger.Err(err))
		msg = "internal error"
	case errors.As(err, &ve):
		msg = ve.Error()
	case errors.As(err, &fe):
		msg = fe.Message
	case status == http.StatusUnauthorized:
		msg = "authentication required"
	case status == http.StatusNotFound:
		msg = "not found"
	default:
		msg = err.Error()
	}

	return c.JSON(status, map[string]string{"error": msg})
}

// badRequest reports malformed input
func badRequest(c echo.Context, msg string) error {
	return respondError(c, model.Invalid("", msg))
}
