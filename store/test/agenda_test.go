package test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/confagenda/store"
)

func newTestingSnapshot(sessionIDs ...string) *store.SmartAgenda {
	agenda := &store.SmartAgenda{
		Days:     map[string]*store.DaySchedule{},
		Metadata: store.AgendaMetadata{DaysIncluded: []int{1}, Tracks: []string{"Claims"}},
	}
	day := agenda.EnsureDay(1, "2025-10-15")
	for i, id := range sessionIDs {
		day.Schedule = append(day.Schedule, &store.ScheduleItem{
			ID:      id,
			Kind:    store.ItemKindSession,
			Time:    []string{"9:00 AM", "10:30 AM", "1:00 PM", "3:00 PM"}[i%4],
			EndTime: []string{"10:00 AM", "11:30 AM", "2:00 PM", "4:00 PM"}[i%4],
			Source:  store.SourceAISuggested,
			Item: &store.ItemSnapshot{
				ID:       id,
				Title:    "Session " + id,
				Location: "Room 201",
				Track:    "Claims",
				Speakers: []store.SpeakerRef{{ID: "spk-1", Name: "Ada Reyes"}},
			},
		})
	}
	day.Stats = store.DayStats{TotalSessions: len(sessionIDs)}
	agenda.Metadata.TotalSessions = len(sessionIDs)
	return agenda
}

func createTestingAgenda(ctx context.Context, t *testing.T, ts *store.Store, userID string, sessionIDs ...string) *store.Agenda {
	t.Helper()
	agenda, err := ts.CreateAgenda(ctx, &store.CreateAgenda{
		UserID:            userID,
		GeneratedBy:       store.GeneratedByAIAgent,
		Snapshot:          newTestingSnapshot(sessionIDs...),
		ChangeDescription: "Initial agenda creation",
		ChangedBy:         userID,
	})
	require.NoError(t, err)
	return agenda
}

func TestAgendaStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	snapshot := newTestingSnapshot("ses-101", "ses-102")
	created, err := ts.CreateAgenda(ctx, &store.CreateAgenda{
		UserID:            "user-1",
		GeneratedBy:       store.GeneratedByAIAgent,
		Snapshot:          snapshot,
		ChangeDescription: "Initial agenda creation",
		ChangedBy:         "user-1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, int32(1), created.Version)
	require.True(t, created.IsActive)
	require.Equal(t, int32(2), created.TotalSessions)

	active := true
	userID := "user-1"
	found, err := ts.GetAgenda(ctx, &store.FindAgenda{UserID: &userID, IsActive: &active})
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, created.ID, found.ID)
	require.Equal(t, int32(1), found.Version)
	require.Equal(t, store.GeneratedByAIAgent, found.GeneratedBy)
	require.Equal(t, snapshot, found.Snapshot)

	versions, err := ts.ListAgendaVersions(ctx, &store.FindAgendaVersion{AgendaID: &created.ID})
	require.NoError(t, err)
	require.Len(t, versions, 1)
	require.Equal(t, int32(1), versions[0].Version)
	require.Equal(t, "Initial agenda creation", versions[0].ChangeDescription)
	require.Equal(t, snapshot, versions[0].Snapshot)

	rows, err := ts.ListAgendaSessions(ctx, &store.FindAgendaSession{AgendaID: &created.ID})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "ses-101", rows[0].SessionID)
	require.Equal(t, int32(1), rows[0].DayNumber)
}

func TestAgendaStoreSingleActive(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	first := createTestingAgenda(ctx, t, ts, "user-1", "ses-101")
	second := createTestingAgenda(ctx, t, ts, "user-1", "ses-102")
	other := createTestingAgenda(ctx, t, ts, "user-2", "ses-101")

	userID := "user-1"
	list, err := ts.ListAgendas(ctx, &store.FindAgenda{UserID: &userID})
	require.NoError(t, err)
	require.Len(t, list, 2)
	activeCount := 0
	for _, agenda := range list {
		if agenda.IsActive {
			activeCount++
			require.Equal(t, second.ID, agenda.ID)
		} else {
			require.Equal(t, first.ID, agenda.ID)
		}
	}
	require.Equal(t, 1, activeCount)

	// Another user's agenda is untouched.
	found, err := ts.GetAgenda(ctx, &store.FindAgenda{ID: &other.ID})
	require.NoError(t, err)
	require.True(t, found.IsActive)
}

func TestAgendaStoreConcurrentCreate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ts.CreateAgenda(ctx, &store.CreateAgenda{
				UserID:      "user-1",
				GeneratedBy: store.GeneratedByManual,
				Snapshot:    newTestingSnapshot("ses-101"),
			})
			if err != nil {
				assert.ErrorIs(t, err, store.ErrActiveAgendaConflict)
			}
		}()
	}
	wg.Wait()

	userID := "user-1"
	active := true
	list, err := ts.ListAgendas(ctx, &store.FindAgenda{UserID: &userID, IsActive: &active})
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestAgendaStoreUpdate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	created := createTestingAgenda(ctx, t, ts, "user-1", "ses-101")

	next := newTestingSnapshot("ses-101", "ses-102", "ses-103")
	updated, err := ts.UpdateAgenda(ctx, &store.UpdateAgenda{
		ID:                created.ID,
		Snapshot:          next,
		CreateVersion:     true,
		ChangeDescription: "Added two sessions",
		ChangedBy:         "user-1",
	})
	require.NoError(t, err)
	require.Equal(t, int32(2), updated.Version)
	require.Equal(t, int32(3), updated.TotalSessions)
	require.Equal(t, created.CreatedTs, updated.CreatedTs)

	// Without a version record the counter still moves.
	updated, err = ts.UpdateAgenda(ctx, &store.UpdateAgenda{ID: created.ID, Snapshot: newTestingSnapshot("ses-104")})
	require.NoError(t, err)
	require.Equal(t, int32(3), updated.Version)

	versions, err := ts.ListAgendaVersions(ctx, &store.FindAgendaVersion{AgendaID: &created.ID, ExcludeSnapshot: true})
	require.NoError(t, err)
	require.Len(t, versions, 2)
	require.Equal(t, int32(2), versions[0].Version)
	require.Nil(t, versions[0].Snapshot)
	require.Equal(t, int32(1), versions[1].Version)

	rows, err := ts.ListAgendaSessions(ctx, &store.FindAgendaSession{AgendaID: &created.ID})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "ses-104", rows[0].SessionID)
}

func TestAgendaStoreUpdateCompareAndSwap(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	created := createTestingAgenda(ctx, t, ts, "user-1", "ses-101")

	expected := int32(1)
	updated, err := ts.UpdateAgenda(ctx, &store.UpdateAgenda{ID: created.ID, Snapshot: newTestingSnapshot("ses-102"), ExpectedVersion: &expected})
	require.NoError(t, err)
	require.Equal(t, int32(2), updated.Version)

	// A writer that read version 1 loses.
	_, err = ts.UpdateAgenda(ctx, &store.UpdateAgenda{ID: created.ID, Snapshot: newTestingSnapshot("ses-103"), ExpectedVersion: &expected})
	require.ErrorIs(t, err, store.ErrVersionConflict)

	_, err = ts.UpdateAgenda(ctx, &store.UpdateAgenda{ID: "missing", Snapshot: newTestingSnapshot("ses-103")})
	require.ErrorIs(t, err, store.ErrNotFound)

	found, err := ts.GetAgenda(ctx, &store.FindAgenda{ID: &created.ID})
	require.NoError(t, err)
	require.Equal(t, int32(2), found.Version)
	_, index := found.Snapshot.FindSession("ses-102")
	require.Equal(t, 0, index)
}

func TestAgendaStoreDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	created := createTestingAgenda(ctx, t, ts, "user-1", "ses-101")

	// Wrong owner is a no-op.
	require.NoError(t, ts.DeleteAgenda(ctx, &store.DeleteAgenda{ID: created.ID, UserID: "user-2"}))
	found, err := ts.GetAgenda(ctx, &store.FindAgenda{ID: &created.ID})
	require.NoError(t, err)
	require.True(t, found.IsActive)

	require.NoError(t, ts.DeleteAgenda(ctx, &store.DeleteAgenda{ID: created.ID, UserID: "user-1"}))
	found, err = ts.GetAgenda(ctx, &store.FindAgenda{ID: &created.ID})
	require.NoError(t, err)
	require.False(t, found.IsActive)

	// History survives the soft delete.
	versions, err := ts.ListAgendaVersions(ctx, &store.FindAgendaVersion{AgendaID: &created.ID})
	require.NoError(t, err)
	require.Len(t, versions, 1)

	require.NoError(t, ts.DeleteAgenda(ctx, &store.DeleteAgenda{ID: "missing", UserID: "user-1"}))
}

func TestAgendaStoreReplaceSessions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	created := createTestingAgenda(ctx, t, ts, "user-1", "ses-101", "ses-102")

	require.NoError(t, ts.ReplaceAgendaSessions(ctx, created.ID, nil))
	rows, err := ts.ListAgendaSessions(ctx, &store.FindAgendaSession{AgendaID: &created.ID})
	require.NoError(t, err)
	require.Empty(t, rows)

	require.NoError(t, ts.ReplaceAgendaSessions(ctx, created.ID, created.Snapshot.SessionIndex(created.ID)))
	sessionID := "ses-102"
	rows, err = ts.ListAgendaSessions(ctx, &store.FindAgendaSession{SessionID: &sessionID})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, created.ID, rows[0].AgendaID)
	require.Equal(t, store.SourceAISuggested, rows[0].Source)
}
