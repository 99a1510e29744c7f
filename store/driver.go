package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// Agenda model related methods.
	// CreateAgenda and UpdateAgenda are atomic: the document, its session
	// index and its version record are written in one transaction.
	CreateAgenda(ctx context.Context, create *CreateAgenda) (*Agenda, error)
	ListAgendas(ctx context.Context, find *FindAgenda) ([]*Agenda, error)
	UpdateAgenda(ctx context.Context, update *UpdateAgenda) (*Agenda, error)
	DeleteAgenda(ctx context.Context, delete *DeleteAgenda) error

	// AgendaVersion model related methods. Versions are append-only.
	ListAgendaVersions(ctx context.Context, find *FindAgendaVersion) ([]*AgendaVersion, error)

	// AgendaSession index related methods.
	ListAgendaSessions(ctx context.Context, find *FindAgendaSession) ([]*AgendaSession, error)
	ReplaceAgendaSessions(ctx context.Context, agendaID string, rows []*AgendaSession) error

	// Session catalog related methods.
	UpsertSession(ctx context.Context, upsert *Session) (*Session, error)
	ListSessions(ctx context.Context, find *FindSession) ([]*Session, error)
	UpsertSpeaker(ctx context.Context, upsert *Speaker) (*Speaker, error)
	ListSpeakers(ctx context.Context, find *FindSpeaker) ([]*Speaker, error)

	// Favorite model related methods.
	UpsertFavorite(ctx context.Context, upsert *Favorite) (*Favorite, error)
	ListFavorites(ctx context.Context, find *FindFavorite) ([]*Favorite, error)
	DeleteFavorite(ctx context.Context, delete *DeleteFavorite) error

	// SystemSetting model related methods.
	UpsertSystemSetting(ctx context.Context, upsert *SystemSetting) (*SystemSetting, error)
	ListSystemSettings(ctx context.Context, find *FindSystemSetting) ([]*SystemSetting, error)
}
