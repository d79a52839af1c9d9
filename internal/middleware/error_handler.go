package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/NextWave-98/installment-service/internal/services"
)

// HTTPErrorHandler translates service errors into structured JSON responses.
// Business-rule violations carry their kind; infrastructure failures are
// reported as retryable so clients can distinguish them.
func HTTPErrorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	kind := "internal_error"
	retryable := true
	message := "Something went wrong. Please try again later."

	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		code = he.Code
		kind = "http_error"
		retryable = false
		if msg, ok := he.Message.(string); ok && msg != "" {
			message = msg
		} else {
			message = http.StatusText(code)
		}
	case errors.Is(err, services.ErrValidation):
		code = http.StatusBadRequest
		kind = "validation_error"
		retryable = false
		message = err.Error()
	case errors.Is(err, services.ErrNotFound):
		code = http.StatusNotFound
		kind = "not_found"
		retryable = false
		message = err.Error()
	case errors.Is(err, services.ErrInvalidState):
		code = http.StatusUnprocessableEntity
		kind = "invalid_state"
		retryable = false
		message = err.Error()
	case errors.Is(err, services.ErrConflict):
		code = http.StatusConflict
		kind = "conflict"
		// Retrying the whole operation is the documented recovery.
		message = err.Error()
	}

	c.Logger().Error(err)

	if c.Response().Committed {
		return
	}
	_ = c.JSON(code, map[string]interface{}{
		"error":     kind,
		"message":   message,
		"retryable": retryable,
	})
}
