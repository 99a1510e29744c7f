package agenda

import (
	"context"
	"time"

	apperrors "github.com/hrygo/confagenda/server/internal/errors"
	"github.com/hrygo/confagenda/store"
)

// CheckTimeOverlap reports whether two half-open intervals intersect.
// Touching endpoints do not overlap.
func CheckTimeOverlap(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// CalculateOverlapMinutes returns the floor of the intersection length in minutes.
func CalculateOverlapMinutes(a, b Interval) int {
	if !CheckTimeOverlap(a, b) {
		return 0
	}
	start := a.Start
	if b.Start.After(start) {
		start = b.Start
	}
	end := a.End
	if b.End.Before(end) {
		end = b.End
	}
	return int(end.Sub(start) / time.Minute)
}

// severityFor maps the largest overlap of a candidate to a severity and action.
func severityFor(maxOverlap int) (string, string) {
	switch {
	case maxOverlap >= HighSeverityMinutes:
		return SeverityHigh, ActionHigh
	case maxOverlap >= MediumSeverityMinutes:
		return SeverityMedium, ActionMedium
	default:
		return SeverityLow, ActionLow
	}
}

// sessionInterval returns the interval of a catalog session, invalid when untimed.
func sessionInterval(session *store.Session) Interval {
	if session == nil {
		return Interval{}
	}
	return Interval{Start: session.StartTime(), End: session.EndTime()}
}

// DetectConflictsWithAgenda checks a candidate against hydrated schedule items.
//
// Every overlapping session-kind item is collected into one ConflictDetail whose
// severity follows the largest overlap. A candidate without a valid time range is
// conflict-free. A candidate already on the schedule conflicts with itself.
func DetectConflictsWithAgenda(candidate *store.Session, items []*ScheduledItem) *ConflictCheckResult {
	result := &ConflictCheckResult{Conflicts: []*ConflictDetail{}}
	candidateInterval := sessionInterval(candidate)
	if !candidateInterval.Valid() {
		return result
	}

	detail := &ConflictDetail{
		SessionID:        candidate.ID,
		SessionTitle:     candidate.Title,
		ConflictingItems: []*ConflictingItem{},
	}
	maxOverlap := 0
	for _, item := range items {
		if item == nil || item.Kind != store.ItemKindSession || !item.Valid() {
			continue
		}
		if !CheckTimeOverlap(candidateInterval, item.Interval) {
			continue
		}
		overlap := CalculateOverlapMinutes(candidateInterval, item.Interval)
		detail.ConflictingItems = append(detail.ConflictingItems, &ConflictingItem{
			ID:             item.ID,
			Title:          item.Title,
			OverlapMinutes: overlap,
		})
		if overlap > maxOverlap {
			maxOverlap = overlap
		}
	}
	if len(detail.ConflictingItems) == 0 {
		return result
	}

	detail.Severity, detail.SuggestedAction = severityFor(maxOverlap)
	result.HasConflicts = true
	result.Conflicts = append(result.Conflicts, detail)
	return result
}

// FlattenSmartAgenda re-hydrates the session items of a snapshot from the live
// catalog. Items the catalog does not know, and items without a valid time
// range, are dropped. The embedded display snapshot is never used for timing.
func FlattenSmartAgenda(snapshot *store.SmartAgenda, catalog map[string]*store.Session) []*ScheduledItem {
	items := []*ScheduledItem{}
	for _, ds := range snapshot.SortedDays() {
		for _, item := range ds.Schedule {
			if item == nil || item.Kind != store.ItemKindSession {
				continue
			}
			session, ok := catalog[item.SessionID()]
			if !ok || session == nil {
				continue
			}
			interval := sessionInterval(session)
			if !interval.Valid() {
				continue
			}
			items = append(items, &ScheduledItem{
				ID:       session.ID,
				Kind:     store.ItemKindSession,
				Title:    session.Title,
				Interval: interval,
			})
		}
	}
	return items
}

// SuggestAlternatives returns up to MaxAlternatives catalog sessions that share
// the candidate's track, format or a tag and do not conflict with items.
// The candidate itself and untimed sessions are never suggested.
func SuggestAlternatives(candidate *store.Session, catalog []*store.Session, items []*ScheduledItem) []*store.Session {
	alternatives := []*store.Session{}
	if candidate == nil {
		return alternatives
	}
	for _, session := range catalog {
		if len(alternatives) >= MaxAlternatives {
			break
		}
		if session == nil || session.ID == candidate.ID || !session.HasValidTiming() {
			continue
		}
		if !isRelated(candidate, session) {
			continue
		}
		if DetectConflictsWithAgenda(session, items).HasConflicts {
			continue
		}
		alternatives = append(alternatives, session)
	}
	return alternatives
}

func isRelated(a, b *store.Session) bool {
	if a.Track != "" && a.Track == b.Track {
		return true
	}
	if a.Format != "" && a.Format == b.Format {
		return true
	}
	tags := make(map[string]bool, len(a.Tags))
	for _, tag := range a.Tags {
		tags[tag] = true
	}
	for _, tag := range b.Tags {
		if tags[tag] {
			return true
		}
	}
	return false
}

// hydrate flattens a snapshot against the current catalog.
func (s *service) hydrate(ctx context.Context, snapshot *store.SmartAgenda) ([]*ScheduledItem, map[string]*store.Session, error) {
	ids := []string{}
	for _, ds := range snapshot.SortedDays() {
		for _, item := range ds.Schedule {
			if item != nil && item.Kind == store.ItemKindSession && item.SessionID() != "" {
				ids = append(ids, item.SessionID())
			}
		}
	}
	sessions, err := s.catalog.ListSessionsByIDs(ctx, ids)
	if err != nil {
		return nil, nil, apperrors.Unavailable("failed to load sessions from catalog", err)
	}
	byID := make(map[string]*store.Session, len(sessions))
	for _, session := range sessions {
		byID[session.ID] = session
	}
	return FlattenSmartAgenda(snapshot, byID), byID, nil
}

func (s *service) CheckSessionConflicts(ctx context.Context, session *store.Session, snapshot *store.SmartAgenda) (*ConflictCheckResult, error) {
	if session == nil {
		return nil, apperrors.InvalidArgument("session is required")
	}
	items, _, err := s.hydrate(ctx, snapshot)
	if err != nil {
		return nil, err
	}
	return DetectConflictsWithAgenda(session, items), nil
}

func (s *service) CheckSessionConflictsForUser(ctx context.Context, userID, sessionID string) (*UserConflictCheck, error) {
	session, err := s.catalog.GetSession(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Unavailable("failed to load session from catalog", err)
	}
	if session == nil {
		return nil, apperrors.NotFound("session %s not found", sessionID)
	}

	check := &UserConflictCheck{
		Session:      session,
		Result:       &ConflictCheckResult{Conflicts: []*ConflictDetail{}},
		Alternatives: []*store.Session{},
	}
	active, err := s.GetActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return check, nil
	}
	check.HasActiveAgenda = true

	items, _, err := s.hydrate(ctx, active.Snapshot)
	if err != nil {
		return nil, err
	}
	check.Result = DetectConflictsWithAgenda(session, items)
	if check.Result.HasConflicts {
		all, err := s.catalog.ListAll(ctx)
		if err != nil {
			return nil, apperrors.Unavailable("failed to load catalog", err)
		}
		check.Alternatives = SuggestAlternatives(session, all, items)
	}
	return check, nil
}
