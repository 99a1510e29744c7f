package v1

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/confagenda/server/internal/observability"
)

// requestContext attaches a RequestContext to the request and logs its outcome.
func (s *APIV1Service) requestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		operation := req.Method + " " + c.Path()
		var reqCtx *observability.RequestContext
		if requestID := req.Header.Get(echo.HeaderXRequestID); requestID != "" {
			reqCtx = observability.NewRequestContextWithID(slog.Default(), requestID, operation, req.Header.Get(UserIDHeader))
		} else {
			reqCtx = observability.NewRequestContext(slog.Default(), operation, req.Header.Get(UserIDHeader))
		}
		c.SetRequest(req.WithContext(observability.WithRequestContext(req.Context(), reqCtx)))
		c.Response().Header().Set(echo.HeaderXRequestID, reqCtx.RequestID)

		err := next(c)

		status := c.Response().Status
		if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
		}
		attrs := []slog.Attr{
			slog.Int("status", status),
			slog.Int64(observability.LogFieldDuration, reqCtx.DurationMs()),
		}
		switch {
		case err != nil:
			reqCtx.Error("request failed", err, attrs...)
		case status >= http.StatusInternalServerError:
			reqCtx.Warn("request failed", attrs...)
		default:
			reqCtx.Debug("request finished", attrs...)
		}
		return err
	}
}

// requireUser rejects requests without a user id header.
func requireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Request().Header.Get(UserIDHeader) == "" {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "INVALID_ARGUMENT", Message: UserIDHeader + " header is required"})
		}
		return next(c)
	}
}

func userID(c echo.Context) string {
	return c.Request().Header.Get(UserIDHeader)
}
