package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "github.com/hrygo/confagenda/server/internal/errors"
	"github.com/hrygo/confagenda/server/service/agenda"
	"github.com/hrygo/confagenda/store"
)

type SaveAgendaRequest struct {
	Snapshot    *store.SmartAgenda `json:"snapshot"`
	GeneratedBy store.GeneratedBy  `json:"generatedBy"`
}

type UpdateAgendaRequest struct {
	Snapshot          *store.SmartAgenda `json:"snapshot"`
	CreateVersion     bool               `json:"createVersion"`
	ChangeDescription string             `json:"changeDescription"`
	// ExpectedVersion makes the update fail with 409 when the agenda moved on.
	ExpectedVersion *int32 `json:"expectedVersion"`
}

type CheckConflictsRequest struct {
	SessionID string `json:"sessionId"`
	// Snapshot defaults to the caller's active agenda.
	Snapshot *store.SmartAgenda `json:"snapshot"`
}

type UserConflictResponse struct {
	Session         *SessionResponse            `json:"session"`
	HasActiveAgenda bool                        `json:"hasActiveAgenda"`
	Result          *agenda.ConflictCheckResult `json:"result"`
	Alternatives    []*SessionResponse          `json:"alternatives"`
}

// ownedAgenda loads an agenda and hides agendas of other users.
func (s *APIV1Service) ownedAgenda(c echo.Context) (*store.Agenda, error) {
	id := c.Param("id")
	found, err := s.AgendaService.Get(c.Request().Context(), id)
	if err != nil {
		return nil, err
	}
	if found.UserID != userID(c) {
		return nil, apperrors.NotFound("agenda %s not found", id)
	}
	return found, nil
}

// SaveAgenda stores a finished snapshot as the caller's new active agenda.
// POST /api/v1/agendas
func (s *APIV1Service) SaveAgenda(c echo.Context) error {
	request := &SaveAgendaRequest{}
	if err := c.Bind(request); err != nil {
		return badRequest(c, "invalid request body")
	}
	saved, err := s.AgendaService.Save(c.Request().Context(), userID(c), request.Snapshot, &agenda.SaveMeta{GeneratedBy: request.GeneratedBy})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, convertAgenda(saved))
}

// GetActiveAgenda returns the caller's active agenda.
// GET /api/v1/agendas/active
func (s *APIV1Service) GetActiveAgenda(c echo.Context) error {
	active, err := s.AgendaService.GetActive(c.Request().Context(), userID(c))
	if err != nil {
		return respondError(c, err)
	}
	if active == nil {
		return respondError(c, apperrors.NotFound(agenda.MessageNoActiveAgenda))
	}
	return c.JSON(http.StatusOK, convertAgenda(active))
}

// GetAgenda returns one of the caller's agendas.
// GET /api/v1/agendas/:id
func (s *APIV1Service) GetAgenda(c echo.Context) error {
	found, err := s.ownedAgenda(c)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, convertAgenda(found))
}

// UpdateAgenda replaces the snapshot of one of the caller's agendas.
// PUT /api/v1/agendas/:id
func (s *APIV1Service) UpdateAgenda(c echo.Context) error {
	request := &UpdateAgendaRequest{}
	if err := c.Bind(request); err != nil {
		return badRequest(c, "invalid request body")
	}
	found, err := s.ownedAgenda(c)
	if err != nil {
		return respondError(c, err)
	}
	updated, err := s.AgendaService.Update(c.Request().Context(), found.ID, request.Snapshot, &agenda.UpdateOptions{
		CreateVersion:     request.CreateVersion,
		ChangeDescription: request.ChangeDescription,
		ChangedBy:         userID(c),
		ExpectedVersion:   request.ExpectedVersion,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, convertAgenda(updated))
}

// DeleteAgenda soft-deletes one of the caller's agendas.
// DELETE /api/v1/agendas/:id
func (s *APIV1Service) DeleteAgenda(c echo.Context) error {
	if err := s.AgendaService.Delete(c.Request().Context(), c.Param("id"), userID(c)); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListAgendaVersions lists version summaries, newest first.
// GET /api/v1/agendas/:id/versions
func (s *APIV1Service) ListAgendaVersions(c echo.Context) error {
	found, err := s.ownedAgenda(c)
	if err != nil {
		return respondError(c, err)
	}
	versions, err := s.AgendaService.GetVersions(c.Request().Context(), found.ID)
	if err != nil {
		return respondError(c, err)
	}
	list := make([]*AgendaVersionResponse, 0, len(versions))
	for _, version := range versions {
		list = append(list, convertAgendaVersion(version))
	}
	return c.JSON(http.StatusOK, list)
}

// GetAgendaVersion returns one version with its snapshot.
// GET /api/v1/agendas/:id/versions/:versionId
func (s *APIV1Service) GetAgendaVersion(c echo.Context) error {
	found, err := s.ownedAgenda(c)
	if err != nil {
		return respondError(c, err)
	}
	version, err := s.AgendaService.GetVersion(c.Request().Context(), found.ID, c.Param("versionId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, convertAgendaVersion(version))
}

// RollbackAgenda restores a version as a new forward version.
// POST /api/v1/agendas/:id/versions/:versionId/rollback
func (s *APIV1Service) RollbackAgenda(c echo.Context) error {
	found, err := s.ownedAgenda(c)
	if err != nil {
		return respondError(c, err)
	}
	rolled, err := s.AgendaService.Rollback(c.Request().Context(), found.ID, c.Param("versionId"), userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, convertAgenda(rolled))
}

// ListAgendaSessions returns the per-session index of an agenda.
// GET /api/v1/agendas/:id/sessions
func (s *APIV1Service) ListAgendaSessions(c echo.Context) error {
	found, err := s.ownedAgenda(c)
	if err != nil {
		return respondError(c, err)
	}
	rows, err := s.AgendaService.ListAgendaSessions(c.Request().Context(), found.ID)
	if err != nil {
		return respondError(c, err)
	}
	list := make([]*AgendaSessionResponse, 0, len(rows))
	for _, row := range rows {
		list = append(list, &AgendaSessionResponse{
			SessionID:  row.SessionID,
			DayNumber:  row.DayNumber,
			Source:     row.Source,
			IsFavorite: row.IsFavorite,
			IsLocked:   row.IsLocked,
		})
	}
	return c.JSON(http.StatusOK, list)
}

// ReindexAgenda regenerates the per-session index from the agenda document.
// POST /api/v1/agendas/:id/reindex
func (s *APIV1Service) ReindexAgenda(c echo.Context) error {
	found, err := s.ownedAgenda(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := s.AgendaService.Reindex(c.Request().Context(), found.ID); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// CheckActiveConflicts checks a catalog session against the caller's active agenda.
// GET /api/v1/agendas/active/conflicts?sessionId=
func (s *APIV1Service) CheckActiveConflicts(c echo.Context) error {
	sessionID := c.QueryParam("sessionId")
	if sessionID == "" {
		return badRequest(c, "sessionId is required")
	}
	check, err := s.AgendaService.CheckSessionConflictsForUser(c.Request().Context(), userID(c), sessionID)
	if err != nil {
		return respondError(c, err)
	}
	conf := s.CatalogService.Conference()
	return c.JSON(http.StatusOK, &UserConflictResponse{
		Session:         convertSession(conf, check.Session),
		HasActiveAgenda: check.HasActiveAgenda,
		Result:          check.Result,
		Alternatives:    convertSessions(conf, check.Alternatives),
	})
}

// CheckConflicts checks a catalog session against a supplied snapshot.
// POST /api/v1/agendas/conflicts
func (s *APIV1Service) CheckConflicts(c echo.Context) error {
	request := &CheckConflictsRequest{}
	if err := c.Bind(request); err != nil || request.SessionID == "" {
		return badRequest(c, "sessionId is required")
	}
	ctx := c.Request().Context()
	session, err := s.CatalogService.GetSession(ctx, request.SessionID)
	if err != nil {
		return respondError(c, apperrors.Unavailable("failed to load session from catalog", err))
	}
	if session == nil {
		return respondError(c, apperrors.NotFound("session %s not found", request.SessionID))
	}
	snapshot := request.Snapshot
	if snapshot == nil {
		active, err := s.AgendaService.GetActive(ctx, userID(c))
		if err != nil {
			return respondError(c, err)
		}
		if active == nil {
			return respondError(c, apperrors.NotFound(agenda.MessageNoActiveAgenda))
		}
		snapshot = active.Snapshot
	}
	result, err := s.AgendaService.CheckSessionConflicts(ctx, session, snapshot)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// SyncFavorites reconciles all favorites of the caller with the active agenda.
// POST /api/v1/agendas/active/sync
func (s *APIV1Service) SyncFavorites(c echo.Context) error {
	result, err := s.AgendaService.SyncFavoritesWithAgenda(c.Request().Context(), userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// ExportAgendaICS renders the caller's active agenda as iCalendar.
// GET /api/v1/agendas/active/calendar.ics
func (s *APIV1Service) ExportAgendaICS(c echo.Context) error {
	ics, err := s.AgendaService.ExportICS(c.Request().Context(), userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Blob(http.StatusOK, "text/calendar; charset=utf-8", []byte(ics))
}

// ExportAgendaFeed renders the caller's active agenda as an Atom feed.
// GET /api/v1/agendas/active/feed.atom
func (s *APIV1Service) ExportAgendaFeed(c echo.Context) error {
	atom, err := s.AgendaService.ExportFeed(c.Request().Context(), userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Blob(http.StatusOK, "application/atom+xml; charset=utf-8", []byte(atom))
}
