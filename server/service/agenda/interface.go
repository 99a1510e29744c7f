package agenda

import (
	"context"
	"time"

	"github.com/hrygo/confagenda/store"
)

// Service defines the agenda engine: the agenda store operations, the conflict
// checks against a user's agenda and the favorites synchronizer.
type Service interface {
	// Save deactivates the user's active agenda and stores snapshot as a new
	// active agenda at version 1.
	Save(ctx context.Context, userID string, snapshot *store.SmartAgenda, meta *SaveMeta) (*store.Agenda, error)

	// GetActive returns the user's active agenda, or nil when there is none.
	GetActive(ctx context.Context, userID string) (*store.Agenda, error)

	// Get returns an agenda by id.
	Get(ctx context.Context, agendaID string) (*store.Agenda, error)

	// Update replaces the whole snapshot and increments the version.
	Update(ctx context.Context, agendaID string, snapshot *store.SmartAgenda, opts *UpdateOptions) (*store.Agenda, error)

	// GetVersions returns version summaries, newest first. Snapshots are omitted.
	GetVersions(ctx context.Context, agendaID string) ([]*store.AgendaVersion, error)

	// GetVersion returns one version with its snapshot.
	GetVersion(ctx context.Context, agendaID, versionID string) (*store.AgendaVersion, error)

	// Rollback restores the snapshot of versionID as a new forward version.
	Rollback(ctx context.Context, agendaID, versionID, changedBy string) (*store.Agenda, error)

	// Delete soft-deletes an agenda owned by userID. No match is not an error.
	Delete(ctx context.Context, agendaID, userID string) error

	// Reindex regenerates the per-session index from the agenda document.
	Reindex(ctx context.Context, agendaID string) error

	// ListAgendaSessions returns the per-session index of an agenda.
	ListAgendaSessions(ctx context.Context, agendaID string) ([]*store.AgendaSession, error)

	// CheckSessionConflicts checks a candidate against a snapshot hydrated from the catalog.
	CheckSessionConflicts(ctx context.Context, session *store.Session, snapshot *store.SmartAgenda) (*ConflictCheckResult, error)

	// CheckSessionConflictsForUser checks a catalog session against the user's active
	// agenda and suggests alternatives when it conflicts.
	CheckSessionConflictsForUser(ctx context.Context, userID, sessionID string) (*UserConflictCheck, error)

	// AddFavoriteToAgenda mirrors a new favorite into the active agenda.
	AddFavoriteToAgenda(ctx context.Context, userID, sessionID string) (*SyncResult, error)

	// RemoveFavoriteFromAgenda removes a session from the active agenda.
	RemoveFavoriteFromAgenda(ctx context.Context, userID, sessionID string) (*SyncResult, error)

	// SyncFavoritesWithAgenda reconciles all favorites of a user in one pass.
	SyncFavoritesWithAgenda(ctx context.Context, userID string) (*SyncResult, error)

	// ExportICS renders the active agenda as an iCalendar document.
	ExportICS(ctx context.Context, userID string) (string, error)

	// ExportFeed renders the active agenda as an Atom feed.
	ExportFeed(ctx context.Context, userID string) (string, error)
}

// Store is the interface for store operations needed by the agenda service.
type Store interface {
	CreateAgenda(ctx context.Context, create *store.CreateAgenda) (*store.Agenda, error)
	GetAgenda(ctx context.Context, find *store.FindAgenda) (*store.Agenda, error)
	UpdateAgenda(ctx context.Context, update *store.UpdateAgenda) (*store.Agenda, error)
	DeleteAgenda(ctx context.Context, delete *store.DeleteAgenda) error
	ListAgendaVersions(ctx context.Context, find *store.FindAgendaVersion) ([]*store.AgendaVersion, error)
	GetAgendaVersion(ctx context.Context, find *store.FindAgendaVersion) (*store.AgendaVersion, error)
	ListAgendaSessions(ctx context.Context, find *store.FindAgendaSession) ([]*store.AgendaSession, error)
	ReplaceAgendaSessions(ctx context.Context, agendaID string, rows []*store.AgendaSession) error
	ListFavorites(ctx context.Context, find *store.FindFavorite) ([]*store.Favorite, error)
}

// Catalog is the read-only session catalog consumed by the engine.
type Catalog interface {
	GetSession(ctx context.Context, id string) (*store.Session, error)
	ListSessionsByIDs(ctx context.Context, ids []string) ([]*store.Session, error)
	ListAll(ctx context.Context) ([]*store.Session, error)
}

// SaveMeta describes who produced a new agenda.
type SaveMeta struct {
	GeneratedBy store.GeneratedBy
	ChangedBy   string
}

// UpdateOptions controls versioning of an update.
type UpdateOptions struct {
	CreateVersion     bool
	ChangeDescription string
	ChangedBy         string
	// ExpectedVersion turns the update into a compare-and-swap. Nil means last write wins.
	ExpectedVersion *int32
}

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether both ends are set and Start precedes End.
func (i Interval) Valid() bool {
	return !i.Start.IsZero() && !i.End.IsZero() && i.Start.Before(i.End)
}

// ScheduledItem is an agenda item re-hydrated from the live catalog.
type ScheduledItem struct {
	ID    string
	Kind  store.ItemKind
	Title string
	Interval
}

// ConflictingItem is one scheduled item overlapping a candidate.
type ConflictingItem struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	OverlapMinutes int    `json:"overlapMinutes"`
}

// ConflictDetail groups every overlap of a single candidate session.
type ConflictDetail struct {
	SessionID        string             `json:"sessionId"`
	SessionTitle     string             `json:"sessionTitle"`
	ConflictingItems []*ConflictingItem `json:"conflictingItems"`
	Severity         string             `json:"severity"`
	SuggestedAction  string             `json:"suggestedAction"`
}

// ConflictCheckResult is the outcome of a conflict check.
type ConflictCheckResult struct {
	HasConflicts bool              `json:"hasConflicts"`
	Conflicts    []*ConflictDetail `json:"conflicts"`
}

// UserConflictCheck is a conflict check against a user's active agenda.
type UserConflictCheck struct {
	Session         *store.Session       `json:"-"`
	HasActiveAgenda bool                 `json:"hasActiveAgenda"`
	Result          *ConflictCheckResult `json:"result"`
	Alternatives    []*store.Session     `json:"-"`
}

// SyncResult is the best-effort outcome of a favorites sync.
type SyncResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
