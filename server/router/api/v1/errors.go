package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "github.com/hrygo/confagenda/server/internal/errors"
	"github.com/hrygo/confagenda/server/internal/observability"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func httpStatus(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeInvalidArgument:
		return http.StatusBadRequest
	case apperrors.ErrCodeVersionConflict:
		return http.StatusConflict
	case apperrors.ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes a coded error. Internal details of unexpected failures
// are logged, not returned.
func respondError(c echo.Context, err error) error {
	code := apperrors.GetCodeFromError(err, apperrors.ErrCodeInternal)
	status := httpStatus(code)
	message := err.Error()
	var agendaErr *apperrors.AgendaError
	if errors.As(err, &agendaErr) {
		message = agendaErr.Message
	}
	if status >= http.StatusInternalServerError {
		observability.LoggerFromContext(c.Request().Context()).Error("request error", "error", err)
		if code == apperrors.ErrCodeInternal {
			message = "internal error"
		}
	}
	return c.JSON(status, ErrorResponse{Code: string(code), Message: message})
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Code: string(apperrors.ErrCodeInvalidArgument), Message: message})
}
