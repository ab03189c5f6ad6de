package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/taskmaster/kanban/internal/domain/entities"
	"github.com/taskmaster/kanban/internal/infrastructure/logger"
	"github.com/taskmaster/kanban/internal/ports"
)

// StatusFor maps a service error to its HTTP status.
func StatusFor(err error) int {
	var verr *entities.ValidationError
	var vErrs validator.ValidationErrors
	var herr *echo.HTTPError

	switch {
	case errors.As(err, &herr):
		return herr.Code
	case errors.As(err, &verr), errors.As(err, &vErrs):
		return http.StatusBadRequest
	case errors.Is(err, entities.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, entities.ErrInvalidCredentials), errors.Is(err, entities.ErrInactiveAccount):
		return http.StatusUnauthorized
	case errors.Is(err, entities.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, entities.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler renders every error as {"message": ..., "field": ...}.
// Internal errors are logged and their text is not exposed.
func ErrorHandler(log *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		code := StatusFor(err)
		body := ports.ErrorResponse{Message: http.StatusText(code)}

		var verr *entities.ValidationError
		var vErrs validator.ValidationErrors
		var herr *echo.HTTPError

		switch {
		case errors.As(err, &herr):
			body.Message = fmt.Sprint(herr.Message)
			if herr.Internal != nil {
				err = fmt.Errorf("%v, %v", err, herr.Internal)
			}
		case errors.As(err, &verr):
			body.Message = verr.Error()
			body.Field = verr.Field
		case errors.As(err, &vErrs) && len(vErrs) > 0:
			body.Field = vErrs[0].Field()
			body.Message = fmt.Sprintf("%s: failed on the '%s' rule", vErrs[0].Field(), vErrs[0].Tag())
		case code != http.StatusInternalServerError:
			body.Message = err.Error()
		}

		if code >= http.StatusInternalServerError {
			log.Errorw("Internal server error", "error", err, "path", c.Request().URL.Path)
		}

		if c.Response().Committed {
			return
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, body)
		}
		if err != nil {
			log.Errorw("Error sending response", "error", err)
		}
	}
}
