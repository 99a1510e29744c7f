package store

import (
	"context"

	"github.com/hrygo/confagenda/internal/util"
)

// Agenda is the persisted wrapper of a user's SmartAgenda.
// At most one agenda per user has IsActive set.
type Agenda struct {
	ID          string
	UserID      string
	IsActive    bool
	GeneratedBy GeneratedBy
	Version     int32
	Snapshot    *SmartAgenda

	// Derived totals, recomputed on every write.
	TotalSessions  int32
	FavoritesCount int32

	CreatedTs int64
	UpdatedTs int64
}

// AgendaVersion is an immutable history record holding a full snapshot.
type AgendaVersion struct {
	ID                string
	AgendaID          string
	Version           int32
	Snapshot          *SmartAgenda
	ChangeDescription string
	ChangedBy         string
	CreatedTs         int64
}

// AgendaSession is one row of the per-session secondary index.
// The agenda document stays authoritative; rows are regenerated from it.
type AgendaSession struct {
	AgendaID   string
	SessionID  string
	DayNumber  int32
	Source     ItemSource
	IsFavorite bool
	IsLocked   bool
}

// CreateAgenda deactivates the user's active agenda and inserts a new one at
// version 1 together with its first version record and session index.
type CreateAgenda struct {
	ID          string
	UserID      string
	GeneratedBy GeneratedBy
	Snapshot    *SmartAgenda

	VersionID         string
	ChangeDescription string
	ChangedBy         string
}

// FindAgenda is the find condition for agendas.
type FindAgenda struct {
	ID       *string
	UserID   *string
	IsActive *bool

	Limit *int
}

// UpdateAgenda replaces the whole snapshot of an agenda and bumps its version.
type UpdateAgenda struct {
	ID       string
	Snapshot *SmartAgenda

	// ExpectedVersion, when set, makes the write a compare-and-swap.
	ExpectedVersion *int32

	// CreateVersion appends an AgendaVersion for the new version.
	CreateVersion     bool
	VersionID         string
	ChangeDescription string
	ChangedBy         string
}

// DeleteAgenda soft-deletes an agenda owned by UserID.
type DeleteAgenda struct {
	ID     string
	UserID string
}

// FindAgendaVersion is the find condition for agenda versions.
type FindAgendaVersion struct {
	ID       *string
	AgendaID *string
	Version  *int32

	// ExcludeSnapshot skips decoding the snapshot column for summary listings.
	ExcludeSnapshot bool
}

// FindAgendaSession is the find condition for the session index.
type FindAgendaSession struct {
	AgendaID  *string
	SessionID *string
}

// CreateAgenda creates a new active agenda for a user.
func (s *Store) CreateAgenda(ctx context.Context, create *CreateAgenda) (*Agenda, error) {
	if create.ID == "" {
		create.ID = util.GenUUID()
	}
	if create.VersionID == "" {
		create.VersionID = util.GenUUID()
	}
	return s.driver.CreateAgenda(ctx, create)
}

// ListAgendas lists agendas matching the filter.
func (s *Store) ListAgendas(ctx context.Context, find *FindAgenda) ([]*Agenda, error) {
	return s.driver.ListAgendas(ctx, find)
}

// GetAgenda returns the first agenda matching the filter, or nil.
func (s *Store) GetAgenda(ctx context.Context, find *FindAgenda) (*Agenda, error) {
	list, err := s.driver.ListAgendas(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// UpdateAgenda replaces an agenda's snapshot.
func (s *Store) UpdateAgenda(ctx context.Context, update *UpdateAgenda) (*Agenda, error) {
	if update.CreateVersion && update.VersionID == "" {
		update.VersionID = util.GenUUID()
	}
	return s.driver.UpdateAgenda(ctx, update)
}

// DeleteAgenda soft-deletes an agenda.
func (s *Store) DeleteAgenda(ctx context.Context, delete *DeleteAgenda) error {
	return s.driver.DeleteAgenda(ctx, delete)
}

// ListAgendaVersions lists versions, newest first.
func (s *Store) ListAgendaVersions(ctx context.Context, find *FindAgendaVersion) ([]*AgendaVersion, error) {
	return s.driver.ListAgendaVersions(ctx, find)
}

// GetAgendaVersion returns the first version matching the filter, or nil.
func (s *Store) GetAgendaVersion(ctx context.Context, find *FindAgendaVersion) (*AgendaVersion, error) {
	list, err := s.driver.ListAgendaVersions(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// ListAgendaSessions lists rows of the per-session index.
func (s *Store) ListAgendaSessions(ctx context.Context, find *FindAgendaSession) ([]*AgendaSession, error) {
	return s.driver.ListAgendaSessions(ctx, find)
}

// ReplaceAgendaSessions regenerates the per-session index of an agenda.
func (s *Store) ReplaceAgendaSessions(ctx context.Context, agendaID string, rows []*AgendaSession) error {
	return s.driver.ReplaceAgendaSessions(ctx, agendaID, rows)
}
