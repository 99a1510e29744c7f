package agenda

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/hrygo/confagenda/server/internal/errors"
	"github.com/hrygo/confagenda/server/internal/observability"
	"github.com/hrygo/confagenda/server/timezone"
	"github.com/hrygo/confagenda/store"
)

// mutation edits a private copy of the active snapshot in place and reports
// whether anything changed.
type mutation func(ctx context.Context, snapshot *store.SmartAgenda) (*SyncResult, bool, error)

// mutateActive runs a read-modify-write against the user's active agenda.
// The write is a compare-and-swap on the version read; a concurrent writer
// causes the mutation to be re-applied on a fresh read.
func (s *service) mutateActive(ctx context.Context, userID string, apply mutation) (*SyncResult, error) {
	if userID == "" {
		return nil, apperrors.InvalidArgument("user id is required")
	}
	logger := observability.LoggerFromContext(ctx)

	var lastErr error
	for attempt := 1; attempt <= MaxWriteRetries; attempt++ {
		active, err := s.GetActive(ctx, userID)
		if err != nil {
			return nil, err
		}
		if active == nil {
			return &SyncResult{Success: false, Message: MessageNoActiveAgenda}, nil
		}

		snapshot, err := active.Snapshot.Clone()
		if err != nil {
			return nil, apperrors.Internal("failed to copy agenda snapshot", err)
		}
		if snapshot == nil {
			snapshot = &store.SmartAgenda{}
		}

		result, changed, err := apply(ctx, snapshot)
		if err != nil {
			return nil, err
		}
		if !changed {
			return result, nil
		}
		refreshMetadata(snapshot)

		expected := active.Version
		_, err = s.Update(ctx, active.ID, snapshot, &UpdateOptions{
			ChangedBy:       userID,
			ExpectedVersion: &expected,
		})
		if err == nil {
			return result, nil
		}
		if !apperrors.IsCode(err, apperrors.ErrCodeVersionConflict) {
			return nil, err
		}
		lastErr = err
		logger.Warn("agenda changed concurrently, retrying",
			slog.String(observability.LogFieldAgendaID, active.ID),
			slog.Int("attempt", attempt),
		)
	}
	return nil, apperrors.VersionConflict("agenda kept changing during favorites sync", lastErr)
}

func (s *service) AddFavoriteToAgenda(ctx context.Context, userID, sessionID string) (result *SyncResult, err error) {
	defer func(start time.Time) { s.observe("agenda.favorite.add", start, err) }(time.Now())

	return s.mutateActive(ctx, userID, func(ctx context.Context, snapshot *store.SmartAgenda) (*SyncResult, bool, error) {
		if ds, idx := snapshot.FindSession(sessionID); ds != nil {
			if markFavorite(ds, ds.Schedule[idx]) {
				return &SyncResult{Success: true, Message: MessageMarkedFavorite}, true, nil
			}
			return &SyncResult{Success: true, Message: MessageAlreadyFavorite}, false, nil
		}

		session, err := s.catalog.GetSession(ctx, sessionID)
		if err != nil {
			return nil, false, apperrors.Unavailable("failed to load session from catalog", err)
		}
		if session == nil {
			return &SyncResult{Success: false, Message: MessageSessionNotFound}, false, nil
		}
		if !session.HasValidTiming() {
			return &SyncResult{Success: false, Message: MessageSessionNotSchedule}, false, nil
		}
		s.insertFavorite(snapshot, session)
		return &SyncResult{Success: true, Message: MessageAddedToAgenda}, true, nil
	})
}

func (s *service) RemoveFavoriteFromAgenda(ctx context.Context, userID, sessionID string) (result *SyncResult, err error) {
	defer func(start time.Time) { s.observe("agenda.favorite.remove", start, err) }(time.Now())

	return s.mutateActive(ctx, userID, func(_ context.Context, snapshot *store.SmartAgenda) (*SyncResult, bool, error) {
		ds, idx := snapshot.FindSession(sessionID)
		if ds == nil {
			return &SyncResult{Success: true, Message: MessageNotInAgenda}, false, nil
		}
		removed := ds.Schedule[idx]
		ds.Schedule = append(ds.Schedule[:idx], ds.Schedule[idx+1:]...)
		if removed.Source == store.SourceUserFavorite {
			ds.Stats.TotalSessions = max(ds.Stats.TotalSessions-1, 0)
			ds.Stats.FavoritesCount = max(ds.Stats.FavoritesCount-1, 0)
		}
		return &SyncResult{Success: true, Message: MessageRemovedFromAgenda}, true, nil
	})
}

func (s *service) SyncFavoritesWithAgenda(ctx context.Context, userID string) (result *SyncResult, err error) {
	defer func(start time.Time) { s.observe("agenda.favorite.sync", start, err) }(time.Now())

	favoriteType := store.FavoriteTypeSession
	favorites, err := s.store.ListFavorites(ctx, &store.FindFavorite{UserID: &userID, Type: &favoriteType})
	if err != nil {
		return nil, apperrors.FromStore(err, "failed to list favorites")
	}

	return s.mutateActive(ctx, userID, func(ctx context.Context, snapshot *store.SmartAgenda) (*SyncResult, bool, error) {
		marked, missing := 0, []string{}
		for _, favorite := range favorites {
			ds, idx := snapshot.FindSession(favorite.SessionID)
			if ds == nil {
				missing = append(missing, favorite.SessionID)
				continue
			}
			if markFavorite(ds, ds.Schedule[idx]) {
				marked++
			}
		}

		added := 0
		if len(missing) > 0 {
			sessions, err := s.catalog.ListSessionsByIDs(ctx, missing)
			if err != nil {
				return nil, false, apperrors.Unavailable("failed to load sessions from catalog", err)
			}
			for _, session := range sessions {
				if !session.HasValidTiming() {
					slog.Debug("skipping untimed favorite", slog.String("sessionId", session.ID))
					continue
				}
				s.insertFavorite(snapshot, session)
				added++
			}
		}

		result := &SyncResult{
			Success: true,
			Message: fmt.Sprintf("Synced %d favorites: %d added, %d marked", len(favorites), added, marked),
		}
		return result, added+marked > 0, nil
	})
}

// markFavorite relabels a scheduled item as a user favorite. It reports false
// when the item already was one.
func markFavorite(ds *store.DaySchedule, item *store.ScheduleItem) bool {
	if item.IsFavorite && item.Source == store.SourceUserFavorite {
		return false
	}
	if !item.IsFavorite {
		ds.Stats.FavoritesCount++
	}
	item.IsFavorite = true
	item.Source = store.SourceUserFavorite
	return true
}

// insertFavorite places a catalog session on its conference day in time order.
func (s *service) insertFavorite(snapshot *store.SmartAgenda, session *store.Session) {
	day := s.conference.DayNumber(session.StartTime())
	ds := snapshot.EnsureDay(day, s.conference.DateOf(day))
	insertOrdered(ds, s.newFavoriteItem(session))
	ds.Stats.TotalSessions++
	ds.Stats.FavoritesCount++
}

func (s *service) newFavoriteItem(session *store.Session) *store.ScheduleItem {
	speakers := session.Speakers
	if speakers == nil {
		speakers = []store.SpeakerRef{}
	}
	return &store.ScheduleItem{
		ID:      session.ID,
		Kind:    store.ItemKindSession,
		Time:    s.conference.DisplayTime(session.StartTime()),
		EndTime: s.conference.DisplayTime(session.EndTime()),
		Item: &store.ItemSnapshot{
			ID:       session.ID,
			Title:    session.Title,
			Location: session.Location,
			Track:    session.Track,
			Speakers: speakers,
		},
		Source:     store.SourceUserFavorite,
		IsFavorite: true,
	}
}

// insertOrdered inserts item before the first scheduled item that starts
// strictly later, or appends it. Items whose time cannot be parsed never
// count as later.
func insertOrdered(ds *store.DaySchedule, item *store.ScheduleItem) {
	minutes, ok := timezone.ParseDisplayMinutes(item.Time)
	position := len(ds.Schedule)
	if ok {
		for i, existing := range ds.Schedule {
			if existing == nil {
				continue
			}
			if m, ok := timezone.ParseDisplayMinutes(existing.Time); ok && m > minutes {
				position = i
				break
			}
		}
	}
	ds.Schedule = append(ds.Schedule, nil)
	copy(ds.Schedule[position+1:], ds.Schedule[position:])
	ds.Schedule[position] = item
}

// refreshMetadata recomputes the agenda metadata from its days.
func refreshMetadata(snapshot *store.SmartAgenda) {
	totals := snapshot.Totals()
	snapshot.Metadata.TotalSessions = totals.TotalSessions
	snapshot.Metadata.Tracks = totals.Tracks
	snapshot.Metadata.DaysIncluded = totals.DaysIncluded
}
