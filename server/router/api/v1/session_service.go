package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "github.com/hrygo/confagenda/server/internal/errors"
	"github.com/hrygo/confagenda/server/service/catalog"
	"github.com/hrygo/confagenda/store"
)

// ListSessions lists catalog sessions.
// GET /api/v1/sessions?filter=<cel>&track=<track>
func (s *APIV1Service) ListSessions(c echo.Context) error {
	ctx := c.Request().Context()
	var (
		sessions []*store.Session
		err      error
	)
	switch {
	case c.QueryParam("filter") != "":
		sessions, err = s.CatalogService.Filter(ctx, c.QueryParam("filter"))
	case c.QueryParam("track") != "":
		track := c.QueryParam("track")
		sessions, err = s.CatalogService.ListSessions(ctx, &store.FindSession{Track: &track})
	default:
		sessions, err = s.CatalogService.ListAll(ctx)
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, convertSessions(s.CatalogService.Conference(), sessions))
}

// GetSession returns one catalog session.
// GET /api/v1/sessions/:id
func (s *APIV1Service) GetSession(c echo.Context) error {
	session, err := s.CatalogService.GetSession(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	if session == nil {
		return respondError(c, apperrors.NotFound("session %s not found", c.Param("id")))
	}
	return c.JSON(http.StatusOK, convertSession(s.CatalogService.Conference(), session))
}

// ImportSessions loads a conference JSON export into the catalog.
// POST /api/v1/sessions/import
func (s *APIV1Service) ImportSessions(c echo.Context) error {
	result, err := s.CatalogService.Import(c.Request().Context(), c.Request().Body)
	if err != nil {
		var validationErr *catalog.ValidationError
		if errors.As(err, &validationErr) {
			return badRequest(c, validationErr.Error())
		}
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}
