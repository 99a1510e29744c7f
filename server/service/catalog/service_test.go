package catalog

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/hrygo/confagenda/server/internal/errors"
	"github.com/hrygo/confagenda/store"
)

// MockStoreForCatalog is an in-memory implementation of the Store interface for testing.
type MockStoreForCatalog struct {
	mu        sync.Mutex
	sessions  map[string]*store.Session
	speakers  map[string]*store.Speaker
	listCalls atomic.Int32
}

func newMockStore(sessions ...*store.Session) *MockStoreForCatalog {
	m := &MockStoreForCatalog{sessions: map[string]*store.Session{}, speakers: map[string]*store.Speaker{}}
	for _, s := range sessions {
		m.sessions[s.ID] = s
	}
	return m
}

func (m *MockStoreForCatalog) UpsertSession(ctx context.Context, upsert *store.Session) (*store.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[upsert.ID] = upsert
	return upsert, nil
}

func (m *MockStoreForCatalog) ListSessions(ctx context.Context, find *store.FindSession) ([]*store.Session, error) {
	m.listCalls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()

	wanted := map[string]bool{}
	for _, id := range find.IDs {
		wanted[id] = true
	}
	result := []*store.Session{}
	for _, s := range m.sessions {
		if find.ID != nil && s.ID != *find.ID {
			continue
		}
		if find.IDs != nil && !wanted[s.ID] {
			continue
		}
		if find.Track != nil && s.Track != *find.Track {
			continue
		}
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].StartTs != result[j].StartTs {
			return result[i].StartTs < result[j].StartTs
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *MockStoreForCatalog) UpsertSpeaker(ctx context.Context, upsert *store.Speaker) (*store.Speaker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.speakers[upsert.ID] = upsert
	return upsert, nil
}

func (m *MockStoreForCatalog) ListSpeakers(ctx context.Context, find *store.FindSpeaker) ([]*store.Speaker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := []*store.Speaker{}
	for _, s := range m.speakers {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Times are 2025-10-15 (day 1) and 2025-10-16 (day 2) in America/Los_Angeles.
func testingSessions() []*store.Session {
	return []*store.Session{
		{ID: "ses-101", Title: "Opening Keynote", StartTs: 1760544000, EndTs: 1760547600, Track: "Keynote", Format: "keynote", Tags: []string{"strategy"},
			Speakers: []store.SpeakerRef{{ID: "spk-cho", Name: "Cho Park"}}},
		{ID: "ses-102", Title: "Claims Automation in Practice", StartTs: 1760549400, EndTs: 1760553000, Track: "Claims", Format: "panel", Tags: []string{"claims", "automation"}},
		{ID: "ses-202", Title: "Fraud Signals Workshop", StartTs: 1760648400, EndTs: 1760652000, Track: "Claims", Format: "workshop", Tags: []string{"fraud", "claims"}},
		{ID: "ses-999", Title: "Untimed Meetup", Track: "Community"},
	}
}

func TestGetSessionUsesCache(t *testing.T) {
	ctx := context.Background()
	mockStore := newMockStore(testingSessions()...)
	svc := NewService(mockStore, nil)

	session, err := svc.GetSession(ctx, "ses-101")
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "Opening Keynote", session.Title)

	_, err = svc.GetSession(ctx, "ses-101")
	require.NoError(t, err)
	assert.Equal(t, int32(1), mockStore.listCalls.Load())

	missing, err := svc.GetSession(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	svc.Invalidate()
	_, err = svc.GetSession(ctx, "ses-101")
	require.NoError(t, err)
	assert.Equal(t, int32(3), mockStore.listCalls.Load())
}

func TestListSessionsByIDs(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMockStore(testingSessions()...), nil)

	// Warm one entry so the call mixes cache hits and misses.
	_, err := svc.GetSession(ctx, "ses-202")
	require.NoError(t, err)

	list, err := svc.ListSessionsByIDs(ctx, []string{"ses-202", "missing", "ses-101", "ses-202"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "ses-202", list[0].ID)
	assert.Equal(t, "ses-101", list[1].ID)

	list, err = svc.ListSessionsByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestListAll(t *testing.T) {
	ctx := context.Background()
	mockStore := newMockStore(testingSessions()...)
	svc := NewService(mockStore, nil)

	list, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 4)

	_, err = svc.ListAll(ctx)
	require.NoError(t, err)
	// Individual lookups are served from the warmed cache as well.
	_, err = svc.GetSession(ctx, "ses-102")
	require.NoError(t, err)
	assert.Equal(t, int32(1), mockStore.listCalls.Load())
}

func TestFilter(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMockStore(testingSessions()...), nil)

	tests := []struct {
		name string
		expr string
		want []string
	}{
		{"by track", `track == "Claims"`, []string{"ses-102", "ses-202"}},
		{"by tag and day", `"claims" in tags && day == 2`, []string{"ses-202"}},
		{"by speaker", `"Cho Park" in speakers`, []string{"ses-101"}},
		{"untimed sessions have day zero", `day == 0`, []string{"ses-999"}},
		{"title match", `title.contains("Keynote")`, []string{"ses-101"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := svc.Filter(ctx, tt.expr)
			require.NoError(t, err)
			ids := []string{}
			for _, s := range list {
				ids = append(ids, s.ID)
			}
			assert.ElementsMatch(t, tt.want, ids)
		})
	}

	_, err := svc.Filter(ctx, `track ==`)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidArgument))
	_, err = svc.Filter(ctx, `track`)
	assert.Error(t, err)
	_, err = svc.Filter(ctx, `unknown == "x"`)
	assert.Error(t, err)
}
