package agenda

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/hrygo/confagenda/server/internal/errors"
	"github.com/hrygo/confagenda/store"
)

func catalogByID() map[string]*store.Session {
	byID := map[string]*store.Session{}
	for _, s := range testingCatalog() {
		byID[s.ID] = s
	}
	return byID
}

func interval(day, hour, minute, durationMinutes int) Interval {
	start := at(day, hour, minute)
	return Interval{Start: start, End: start.Add(time.Duration(durationMinutes) * time.Minute)}
}

func TestCheckTimeOverlap(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"partial", interval(1, 9, 0, 60), interval(1, 9, 30, 60), true},
		{"contained", interval(1, 9, 0, 120), interval(1, 9, 30, 15), true},
		{"identical", interval(1, 9, 0, 60), interval(1, 9, 0, 60), true},
		{"touching", interval(1, 9, 0, 60), interval(1, 10, 0, 60), false},
		{"disjoint", interval(1, 9, 0, 30), interval(1, 11, 0, 30), false},
		{"other day", interval(1, 9, 0, 60), interval(2, 9, 0, 60), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckTimeOverlap(tt.a, tt.b))
			assert.Equal(t, tt.want, CheckTimeOverlap(tt.b, tt.a), "overlap must be symmetric")
		})
	}
}

func TestCalculateOverlapMinutes(t *testing.T) {
	assert.Equal(t, 30, CalculateOverlapMinutes(interval(1, 9, 0, 60), interval(1, 9, 30, 60)))
	assert.Equal(t, 60, CalculateOverlapMinutes(interval(1, 9, 0, 60), interval(1, 9, 0, 60)))
	assert.Equal(t, 15, CalculateOverlapMinutes(interval(1, 9, 0, 120), interval(1, 9, 30, 15)))
	assert.Equal(t, 0, CalculateOverlapMinutes(interval(1, 9, 0, 60), interval(1, 10, 0, 60)))

	short := Interval{Start: at(1, 9, 0), End: at(1, 9, 0).Add(90 * time.Second)}
	assert.Equal(t, 1, CalculateOverlapMinutes(short, interval(1, 9, 0, 10)), "partial minutes are floored")
}

func TestDetectConflictsWithAgenda(t *testing.T) {
	byID := catalogByID()
	scheduled := func(ids ...string) []*ScheduledItem {
		snapshot := newTestingSnapshot(testingCatalog(), ids...)
		return FlattenSmartAgenda(snapshot, byID)
	}

	tests := []struct {
		name      string
		candidate string
		agenda    []string
		severity  string
		action    string
		overlaps  []int
	}{
		{"medium", "ses-102", []string{"ses-101"}, SeverityMedium, ActionMedium, []int{30}},
		{"high", "ses-104", []string{"ses-101"}, SeverityHigh, ActionHigh, []int{60}},
		{"low", "ses-105", []string{"ses-101"}, SeverityLow, ActionLow, []int{10}},
		{"self conflict", "ses-101", []string{"ses-101"}, SeverityHigh, ActionHigh, []int{60}},
		{"accumulated", "ses-102", []string{"ses-101", "ses-103"}, SeverityMedium, ActionMedium, []int{30, 30}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DetectConflictsWithAgenda(byID[tt.candidate], scheduled(tt.agenda...))
			require.True(t, result.HasConflicts)
			require.Len(t, result.Conflicts, 1)

			detail := result.Conflicts[0]
			assert.Equal(t, tt.candidate, detail.SessionID)
			assert.Equal(t, tt.severity, detail.Severity)
			assert.Equal(t, tt.action, detail.SuggestedAction)
			overlaps := []int{}
			for _, item := range detail.ConflictingItems {
				overlaps = append(overlaps, item.OverlapMinutes)
			}
			assert.Equal(t, tt.overlaps, overlaps)
		})
	}

	t.Run("touching is free", func(t *testing.T) {
		result := DetectConflictsWithAgenda(byID["ses-103"], scheduled("ses-101"))
		assert.False(t, result.HasConflicts)
		assert.Empty(t, result.Conflicts)
	})

	t.Run("untimed candidate is free", func(t *testing.T) {
		result := DetectConflictsWithAgenda(byID["ses-999"], scheduled("ses-101"))
		assert.False(t, result.HasConflicts)
	})

	t.Run("non-session items ignored", func(t *testing.T) {
		lunch := &ScheduledItem{ID: "lunch", Kind: store.ItemKindMeal, Title: "Lunch", Interval: interval(1, 9, 0, 60)}
		result := DetectConflictsWithAgenda(byID["ses-101"], []*ScheduledItem{lunch})
		assert.False(t, result.HasConflicts)
	})
}

func TestFlattenSmartAgenda(t *testing.T) {
	byID := catalogByID()
	snapshot := newTestingSnapshot(testingCatalog(), "ses-101", "ses-202")
	ds := snapshot.Day(1)
	// A stale display time must not influence timing.
	ds.Schedule[0].Time = "11:00 PM"
	ds.Schedule = append(ds.Schedule,
		&store.ScheduleItem{ID: "ghost", Kind: store.ItemKindSession, Item: &store.ItemSnapshot{ID: "ses-gone"}},
		&store.ScheduleItem{ID: "ses-999", Kind: store.ItemKindSession, Item: &store.ItemSnapshot{ID: "ses-999"}},
		&store.ScheduleItem{ID: "coffee", Kind: store.ItemKindBreak, Time: "10:00 AM"},
	)

	items := FlattenSmartAgenda(snapshot, byID)
	require.Len(t, items, 2)
	assert.Equal(t, "ses-101", items[0].ID)
	assert.Equal(t, byID["ses-101"].StartTime(), items[0].Start)
	assert.Equal(t, "ses-202", items[1].ID)
}

func TestSuggestAlternatives(t *testing.T) {
	catalog := testingCatalog()
	byID := catalogByID()
	items := FlattenSmartAgenda(newTestingSnapshot(catalog, "ses-101"), byID)

	// sort like the catalog does
	all, err := newMockCatalog(catalog...).ListAll(context.Background())
	require.NoError(t, err)

	alternatives := SuggestAlternatives(byID["ses-102"], all, items)
	ids := []string{}
	for _, s := range alternatives {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"ses-103", "ses-202", "ses-201"}, ids)
}

func TestCheckSessionConflictsForUser(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestingService()

	check, err := svc.CheckSessionConflictsForUser(ctx, "u1", "ses-102")
	require.NoError(t, err)
	assert.False(t, check.HasActiveAgenda)
	assert.False(t, check.Result.HasConflicts)

	_, err = svc.Save(ctx, "u1", newTestingSnapshot(testingCatalog(), "ses-101"), nil)
	require.NoError(t, err)

	check, err = svc.CheckSessionConflictsForUser(ctx, "u1", "ses-102")
	require.NoError(t, err)
	assert.True(t, check.HasActiveAgenda)
	require.True(t, check.Result.HasConflicts)
	assert.Equal(t, SeverityMedium, check.Result.Conflicts[0].Severity)
	assert.Len(t, check.Alternatives, MaxAlternatives)

	_, err = svc.CheckSessionConflictsForUser(ctx, "u1", "ses-nope")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
}

func TestCheckSessionConflictsUsesCatalogTiming(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestingService()
	byID := catalogByID()

	snapshot := newTestingSnapshot(testingCatalog(), "ses-101")
	snapshot.Day(1).Schedule[0].Time = "6:00 PM"

	result, err := svc.CheckSessionConflicts(ctx, byID["ses-104"], snapshot)
	require.NoError(t, err)
	require.True(t, result.HasConflicts)
	assert.Equal(t, SeverityHigh, result.Conflicts[0].Severity)

	_, err = svc.CheckSessionConflicts(ctx, nil, snapshot)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidArgument))
}
