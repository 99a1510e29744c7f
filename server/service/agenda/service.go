// Package agenda provides the personalized agenda engine: storage of a single
// active agenda per user with append-only version history, interval conflict
// detection against the live session catalog, and the synchronizer that mirrors
// favorites into the active agenda.
//
// Key features:
//   - Atomic single-active invariant (transaction plus partial unique index)
//   - Optimistic locking on the agenda version for read-modify-write callers
//   - Conflict checks always re-hydrate timing from the catalog
package agenda

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hrygo/confagenda/internal/conference"
	"github.com/hrygo/confagenda/internal/util"
	apperrors "github.com/hrygo/confagenda/server/internal/errors"
	"github.com/hrygo/confagenda/server/internal/observability"
	"github.com/hrygo/confagenda/server/timezone"
	"github.com/hrygo/confagenda/store"
)

type service struct {
	store      Store
	catalog    Catalog
	conference *conference.Conference
	metrics    *observability.Metrics
}

// NewService creates the agenda service. A nil conference uses the default edition.
func NewService(s Store, catalog Catalog, conf *conference.Conference) Service {
	if conf == nil {
		conf = conference.Default()
	}
	return &service{
		store:      s,
		catalog:    catalog,
		conference: conf,
		metrics:    observability.GlobalMetrics(),
	}
}

// observe records the outcome of an operation.
func (s *service) observe(operation string, start time.Time, err error) {
	s.metrics.Record(operation, time.Since(start), err)
}

func (s *service) Save(ctx context.Context, userID string, snapshot *store.SmartAgenda, meta *SaveMeta) (agenda *store.Agenda, err error) {
	defer func(start time.Time) { s.observe("agenda.save", start, err) }(time.Now())

	if userID == "" {
		return nil, apperrors.InvalidArgument("user id is required")
	}
	if snapshot == nil {
		return nil, apperrors.InvalidArgument("agenda snapshot is required")
	}
	if meta == nil {
		meta = &SaveMeta{}
	}
	generatedBy := meta.GeneratedBy
	if generatedBy == "" {
		generatedBy = store.GeneratedByManual
	}
	if !generatedBy.IsValid() {
		return nil, apperrors.InvalidArgument(fmt.Sprintf("invalid generatedBy %q", generatedBy))
	}
	changedBy := meta.ChangedBy
	if changedBy == "" {
		changedBy = userID
	}
	if err := validateSnapshot(snapshot); err != nil {
		return nil, err
	}
	snapshot, err = snapshot.Clone()
	if err != nil {
		return nil, apperrors.Internal("failed to copy agenda snapshot", err)
	}
	assignItemIDs(snapshot)

	for attempt := 1; attempt <= MaxWriteRetries; attempt++ {
		agenda, err = s.store.CreateAgenda(ctx, &store.CreateAgenda{
			UserID:            userID,
			GeneratedBy:       generatedBy,
			Snapshot:          snapshot,
			ChangeDescription: ChangeDescriptionInitial,
			ChangedBy:         changedBy,
		})
		if err == nil {
			slog.Info("agenda saved",
				slog.String(observability.LogFieldAgendaID, agenda.ID),
				slog.String(observability.LogFieldUserID, userID),
				slog.Int("totalSessions", int(agenda.TotalSessions)),
			)
			return agenda, nil
		}
		if !errors.Is(err, store.ErrActiveAgendaConflict) {
			return nil, apperrors.FromStore(err, "failed to save agenda")
		}
		s.metrics.RecordVersionConflict()
		slog.Warn("concurrent agenda save, retrying",
			slog.String(observability.LogFieldUserID, userID),
			slog.Int("attempt", attempt),
		)
	}
	return nil, apperrors.FromStore(err, "failed to save agenda")
}

// validateSnapshot checks that no session is scheduled twice and that each
// day's items are in ascending time order. Items whose display time does not
// parse are not ordered against their neighbours.
func validateSnapshot(snapshot *store.SmartAgenda) error {
	if err := snapshot.Validate(); err != nil {
		return apperrors.InvalidArgument(err.Error())
	}
	for _, ds := range snapshot.SortedDays() {
		last, lastTime := -1, ""
		for _, item := range ds.Schedule {
			if item == nil {
				continue
			}
			minutes, ok := timezone.ParseDisplayMinutes(item.Time)
			if !ok {
				continue
			}
			if minutes < last {
				return apperrors.InvalidArgument(fmt.Sprintf("day %d schedule is out of order: %s after %s", ds.DayNumber, item.Time, lastTime))
			}
			last, lastTime = minutes, item.Time
		}
	}
	return nil
}

// assignItemIDs fills in missing item ids. Session items are keyed by their
// catalog session; meals and breaks get a generated id.
func assignItemIDs(snapshot *store.SmartAgenda) {
	for _, ds := range snapshot.SortedDays() {
		for _, item := range ds.Schedule {
			if item == nil || item.ID != "" {
				continue
			}
			if item.Kind == store.ItemKindSession && item.Item != nil && item.Item.ID != "" {
				item.ID = item.Item.ID
				continue
			}
			item.ID = util.GenShortUID()
		}
	}
}

func (s *service) GetActive(ctx context.Context, userID string) (*store.Agenda, error) {
	if userID == "" {
		return nil, apperrors.InvalidArgument("user id is required")
	}
	active := true
	agenda, err := s.store.GetAgenda(ctx, &store.FindAgenda{UserID: &userID, IsActive: &active})
	if err != nil {
		return nil, apperrors.FromStore(err, "failed to get active agenda")
	}
	return agenda, nil
}

func (s *service) Get(ctx context.Context, agendaID string) (*store.Agenda, error) {
	agenda, err := s.store.GetAgenda(ctx, &store.FindAgenda{ID: &agendaID})
	if err != nil {
		return nil, apperrors.FromStore(err, "failed to get agenda")
	}
	if agenda == nil {
		return nil, apperrors.NotFound("agenda %s not found", agendaID)
	}
	return agenda, nil
}

func (s *service) Update(ctx context.Context, agendaID string, snapshot *store.SmartAgenda, opts *UpdateOptions) (agenda *store.Agenda, err error) {
	defer func(start time.Time) { s.observe("agenda.update", start, err) }(time.Now())

	if snapshot == nil {
		return nil, apperrors.InvalidArgument("agenda snapshot is required")
	}
	if err := validateSnapshot(snapshot); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &UpdateOptions{}
	}
	changedBy := opts.ChangedBy
	if changedBy == "" {
		changedBy = ChangedBySystem
	}

	agenda, err = s.store.UpdateAgenda(ctx, &store.UpdateAgenda{
		ID:                agendaID,
		Snapshot:          snapshot,
		ExpectedVersion:   opts.ExpectedVersion,
		CreateVersion:     opts.CreateVersion,
		ChangeDescription: opts.ChangeDescription,
		ChangedBy:         changedBy,
	})
	if err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			s.metrics.RecordVersionConflict()
		}
		return nil, apperrors.FromStore(err, fmt.Sprintf("failed to update agenda %s", agendaID))
	}
	slog.Debug("agenda updated",
		slog.String(observability.LogFieldAgendaID, agenda.ID),
		slog.Int("version", int(agenda.Version)),
		slog.Bool("createVersion", opts.CreateVersion),
	)
	return agenda, nil
}

func (s *service) GetVersions(ctx context.Context, agendaID string) ([]*store.AgendaVersion, error) {
	if _, err := s.Get(ctx, agendaID); err != nil {
		return nil, err
	}
	versions, err := s.store.ListAgendaVersions(ctx, &store.FindAgendaVersion{AgendaID: &agendaID, ExcludeSnapshot: true})
	if err != nil {
		return nil, apperrors.FromStore(err, "failed to list agenda versions")
	}
	return versions, nil
}

func (s *service) GetVersion(ctx context.Context, agendaID, versionID string) (*store.AgendaVersion, error) {
	version, err := s.store.GetAgendaVersion(ctx, &store.FindAgendaVersion{ID: &versionID})
	if err != nil {
		return nil, apperrors.FromStore(err, "failed to get agenda version")
	}
	// A version of another agenda is reported exactly like a missing one.
	if version == nil || version.AgendaID != agendaID {
		return nil, apperrors.NotFound("version %s not found for agenda %s", versionID, agendaID)
	}
	return version, nil
}

func (s *service) Rollback(ctx context.Context, agendaID, versionID, changedBy string) (agenda *store.Agenda, err error) {
	defer func(start time.Time) { s.observe("agenda.rollback", start, err) }(time.Now())

	version, err := s.GetVersion(ctx, agendaID, versionID)
	if err != nil {
		return nil, err
	}
	if version.Snapshot == nil {
		return nil, apperrors.Internal(fmt.Sprintf("version %s has no snapshot", versionID), nil)
	}

	for attempt := 1; attempt <= MaxWriteRetries; attempt++ {
		current, err := s.Get(ctx, agendaID)
		if err != nil {
			return nil, err
		}
		expected := current.Version
		agenda, err = s.Update(ctx, agendaID, version.Snapshot, &UpdateOptions{
			CreateVersion:     true,
			ChangeDescription: fmt.Sprintf(ChangeDescriptionRollback, version.Version),
			ChangedBy:         changedBy,
			ExpectedVersion:   &expected,
		})
		if err == nil {
			slog.Info("agenda rolled back",
				slog.String(observability.LogFieldAgendaID, agendaID),
				slog.Int("restoredVersion", int(version.Version)),
				slog.Int("version", int(agenda.Version)),
			)
			return agenda, nil
		}
		if !apperrors.IsCode(err, apperrors.ErrCodeVersionConflict) {
			return nil, err
		}
	}
	return nil, apperrors.VersionConflict(fmt.Sprintf("agenda %s kept changing during rollback", agendaID), err)
}

func (s *service) Delete(ctx context.Context, agendaID, userID string) (err error) {
	defer func(start time.Time) { s.observe("agenda.delete", start, err) }(time.Now())

	if err := s.store.DeleteAgenda(ctx, &store.DeleteAgenda{ID: agendaID, UserID: userID}); err != nil {
		return apperrors.FromStore(err, "failed to delete agenda")
	}
	return nil
}

func (s *service) Reindex(ctx context.Context, agendaID string) error {
	agenda, err := s.Get(ctx, agendaID)
	if err != nil {
		return err
	}
	if err := s.store.ReplaceAgendaSessions(ctx, agenda.ID, agenda.Snapshot.SessionIndex(agenda.ID)); err != nil {
		return apperrors.FromStore(err, "failed to reindex agenda")
	}
	return nil
}

func (s *service) ListAgendaSessions(ctx context.Context, agendaID string) ([]*store.AgendaSession, error) {
	rows, err := s.store.ListAgendaSessions(ctx, &store.FindAgendaSession{AgendaID: &agendaID})
	if err != nil {
		return nil, apperrors.FromStore(err, "failed to list agenda sessions")
	}
	return rows, nil
}
