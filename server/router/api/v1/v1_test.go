package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/confagenda/internal/conference"
	"github.com/hrygo/confagenda/store"
	teststore "github.com/hrygo/confagenda/store/test"
)

type testingServer struct {
	t    *testing.T
	echo *echo.Echo
}

func newTestingServer(t *testing.T) *testingServer {
	t.Helper()
	ctx := context.Background()
	ts := teststore.NewTestingStore(ctx, t)
	conf := conference.Default()

	loc := conf.Location()
	sessions := []struct {
		id, title, track, date string
		hour                   int
	}{
		{"ses-101", "Opening Keynote", "AI", "2025-10-15", 9},
		{"ses-102", "GenAI Underwriting", "AI", "2025-10-15", 9},
		{"ses-201", "Agents in Production", "AI", "2025-10-16", 14},
		{"ses-203", "Lakehouse", "Data", "2025-10-16", 11},
	}
	for _, s := range sessions {
		day, err := time.ParseInLocation("2006-01-02", s.date, loc)
		require.NoError(t, err)
		start := day.Add(time.Duration(s.hour) * time.Hour)
		_, err = ts.UpsertSession(ctx, &store.Session{
			ID:      s.id,
			Title:   s.title,
			Track:   s.track,
			StartTs: start.Unix(),
			EndTs:   start.Add(time.Hour).Unix(),
		})
		require.NoError(t, err)
	}

	e := echo.New()
	NewAPIV1Service(nil, ts, conf).RegisterRoutes(e)
	return &testingServer{t: t, echo: e}
}

func (s *testingServer) do(method, path, user string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *strings.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = strings.NewReader(string(data))
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if user != "" {
		req.Header.Set(UserIDHeader, user)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func testingSnapshot() *store.SmartAgenda {
	return &store.SmartAgenda{
		Days: map[string]*store.DaySchedule{
			store.DayKey(1): {
				DayNumber: 1,
				Date:      "2025-10-15",
				Schedule: []*store.ScheduleItem{{
					ID:     "ses-101",
					Kind:   store.ItemKindSession,
					Time:   "9:00 AM",
					Item:   &store.ItemSnapshot{ID: "ses-101", Title: "Opening Keynote", Track: "AI"},
					Source: store.SourceAISuggested,
				}},
				Stats: store.DayStats{TotalSessions: 1},
			},
		},
		Metadata: store.AgendaMetadata{TotalSessions: 1, DaysIncluded: []int{1}, Tracks: []string{"AI"}},
	}
}

func TestAgendaLifecycle(t *testing.T) {
	s := newTestingServer(t)

	rec := s.do(http.MethodGet, "/api/v1/agendas/active", "u1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decode[ErrorResponse](t, rec).Code)

	rec = s.do(http.MethodPost, "/api/v1/agendas", "u1", &SaveAgendaRequest{Snapshot: testingSnapshot(), GeneratedBy: store.GeneratedByAIAgent})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	saved := decode[AgendaResponse](t, rec)
	assert.Equal(t, int32(1), saved.Version)
	assert.True(t, saved.IsActive)

	rec = s.do(http.MethodGet, "/api/v1/agendas/"+saved.ID, "u2", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "other users cannot see the agenda")

	rec = s.do(http.MethodPut, "/api/v1/favorites/ses-201", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	change := decode[FavoriteChangeResponse](t, rec)
	assert.True(t, change.Sync.Success)
	assert.Equal(t, "Added to Smart Agenda", change.Sync.Message)

	rec = s.do(http.MethodGet, "/api/v1/agendas/active", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	active := decode[AgendaResponse](t, rec)
	assert.Equal(t, int32(2), active.Version)
	assert.Equal(t, int32(1), active.FavoritesCount)
	require.NotNil(t, active.Snapshot.Day(2))
	assert.Equal(t, "2:00 PM", active.Snapshot.Day(2).Schedule[0].Time)

	stale := int32(1)
	rec = s.do(http.MethodPut, "/api/v1/agendas/"+saved.ID, "u1", &UpdateAgendaRequest{Snapshot: testingSnapshot(), ExpectedVersion: &stale})
	assert.Equal(t, http.StatusConflict, rec.Code)

	duplicated := testingSnapshot()
	day1 := duplicated.Day(1)
	copied := *day1.Schedule[0]
	day1.Schedule = append(day1.Schedule, &copied)
	rec = s.do(http.MethodPut, "/api/v1/agendas/"+saved.ID, "u1", &UpdateAgendaRequest{Snapshot: duplicated})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_ARGUMENT", decode[ErrorResponse](t, rec).Code)
	assert.Equal(t, "VERSION_CONFLICT", decode[ErrorResponse](t, rec).Code)

	rec = s.do(http.MethodPut, "/api/v1/agendas/"+saved.ID, "u1", &UpdateAgendaRequest{Snapshot: testingSnapshot(), CreateVersion: true, ChangeDescription: "reset"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/v1/agendas/"+saved.ID+"/versions", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	versions := decode[[]AgendaVersionResponse](t, rec)
	require.Len(t, versions, 2)
	assert.Equal(t, "reset", versions[0].ChangeDescription)

	rec = s.do(http.MethodPost, "/api/v1/agendas/"+saved.ID+"/versions/"+versions[1].ID+"/rollback", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int32(4), decode[AgendaResponse](t, rec).Version)

	rec = s.do(http.MethodGet, "/api/v1/agendas/active/conflicts?sessionId=ses-102", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	conflicts := decode[UserConflictResponse](t, rec)
	assert.True(t, conflicts.Result.HasConflicts)
	assert.Equal(t, "high", conflicts.Result.Conflicts[0].Severity)

	rec = s.do(http.MethodGet, "/api/v1/agendas/active/calendar.ics", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), "text/calendar"))
	assert.Contains(t, rec.Body.String(), "SUMMARY:Opening Keynote")

	rec = s.do(http.MethodDelete, "/api/v1/agendas/"+saved.ID, "u1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(http.MethodGet, "/api/v1/agendas/active", "u1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFavoritesWithoutAgenda(t *testing.T) {
	s := newTestingServer(t)

	rec := s.do(http.MethodPut, "/api/v1/favorites/ses-101", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	change := decode[FavoriteChangeResponse](t, rec)
	assert.False(t, change.Sync.Success)
	assert.Equal(t, "No active Smart Agenda", change.Sync.Message)
	assert.Equal(t, "ses-101", change.Favorite.SessionID)

	rec = s.do(http.MethodGet, "/api/v1/favorites", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]FavoriteResponse](t, rec), 1)

	rec = s.do(http.MethodDelete, "/api/v1/favorites/ses-101", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(http.MethodGet, "/api/v1/favorites", "u1", nil)
	assert.Empty(t, decode[[]FavoriteResponse](t, rec))
}

func TestSessions(t *testing.T) {
	s := newTestingServer(t)

	rec := s.do(http.MethodGet, "/api/v1/sessions?filter="+`track%20%3D%3D%20%22Data%22`, "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	list := decode[[]SessionResponse](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "ses-203", list[0].ID)
	assert.Equal(t, 2, list[0].Day)
	assert.Equal(t, "11:00 AM", list[0].DisplayTime)

	rec = s.do(http.MethodGet, "/api/v1/sessions?filter=track", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/sessions/ses-101", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Opening Keynote", decode[SessionResponse](t, rec).Title)

	rec = s.do(http.MethodGet, "/api/v1/sessions/ses-nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/sessions/import", "", map[string]any{"data": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequiresUserHeader(t *testing.T) {
	s := newTestingServer(t)

	rec := s.do(http.MethodGet, "/api/v1/agendas/active", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_ARGUMENT", decode[ErrorResponse](t, rec).Code)

	rec = s.do(http.MethodGet, "/api/v1/favorites", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsOverview(t *testing.T) {
	s := newTestingServer(t)
	s.do(http.MethodPost, "/api/v1/agendas", "u1", &SaveAgendaRequest{Snapshot: testingSnapshot()})

	rec := s.do(http.MethodGet, "/api/v1/system/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"agenda.save"`)
	assert.Contains(t, rec.Body.String(), `"successRate"`)
}
