// Package favorite manages the lightweight favorites list and mirrors every
// change into the user's active agenda on a best-effort basis.
package favorite

import (
	"context"
	"log/slog"

	apperrors "github.com/hrygo/confagenda/server/internal/errors"
	"github.com/hrygo/confagenda/server/internal/observability"
	"github.com/hrygo/confagenda/server/service/agenda"
	"github.com/hrygo/confagenda/store"
)

// Store is the interface for store operations needed by the favorite service.
type Store interface {
	UpsertFavorite(ctx context.Context, upsert *store.Favorite) (*store.Favorite, error)
	ListFavorites(ctx context.Context, find *store.FindFavorite) ([]*store.Favorite, error)
	DeleteFavorite(ctx context.Context, delete *store.DeleteFavorite) error
}

// Synchronizer is the part of the agenda service that follows favorites.
type Synchronizer interface {
	AddFavoriteToAgenda(ctx context.Context, userID, sessionID string) (*agenda.SyncResult, error)
	RemoveFavoriteFromAgenda(ctx context.Context, userID, sessionID string) (*agenda.SyncResult, error)
}

// Result is a favorite change together with the outcome of mirroring it.
type Result struct {
	Favorite *store.Favorite    `json:"favorite,omitempty"`
	Sync     *agenda.SyncResult `json:"sync"`
}

// Service manages favorites.
type Service struct {
	store Store
	sync  Synchronizer
}

// NewService creates a favorite service.
func NewService(s Store, sync Synchronizer) *Service {
	return &Service{store: s, sync: sync}
}

// Add records a session favorite and mirrors it into the active agenda.
// A failed mirror never fails the favorite itself.
func (s *Service) Add(ctx context.Context, userID, sessionID string) (*Result, error) {
	if userID == "" || sessionID == "" {
		return nil, apperrors.InvalidArgument("user id and session id are required")
	}
	favorite, err := s.store.UpsertFavorite(ctx, &store.Favorite{
		UserID:    userID,
		SessionID: sessionID,
		Type:      store.FavoriteTypeSession,
	})
	if err != nil {
		return nil, apperrors.FromStore(err, "failed to add favorite")
	}

	result, err := s.sync.AddFavoriteToAgenda(ctx, userID, sessionID)
	return &Result{Favorite: favorite, Sync: mirrorResult(ctx, "add", sessionID, result, err)}, nil
}

// Remove deletes a session favorite and removes the session from the active agenda.
func (s *Service) Remove(ctx context.Context, userID, sessionID string) (*Result, error) {
	if userID == "" || sessionID == "" {
		return nil, apperrors.InvalidArgument("user id and session id are required")
	}
	if err := s.store.DeleteFavorite(ctx, &store.DeleteFavorite{
		UserID:    userID,
		SessionID: sessionID,
		Type:      store.FavoriteTypeSession,
	}); err != nil {
		return nil, apperrors.FromStore(err, "failed to remove favorite")
	}

	result, err := s.sync.RemoveFavoriteFromAgenda(ctx, userID, sessionID)
	return &Result{Sync: mirrorResult(ctx, "remove", sessionID, result, err)}, nil
}

// List returns the session favorites of a user, oldest first.
func (s *Service) List(ctx context.Context, userID string) ([]*store.Favorite, error) {
	if userID == "" {
		return nil, apperrors.InvalidArgument("user id is required")
	}
	favoriteType := store.FavoriteTypeSession
	favorites, err := s.store.ListFavorites(ctx, &store.FindFavorite{UserID: &userID, Type: &favoriteType})
	if err != nil {
		return nil, apperrors.FromStore(err, "failed to list favorites")
	}
	return favorites, nil
}

func mirrorResult(ctx context.Context, action, sessionID string, result *agenda.SyncResult, err error) *agenda.SyncResult {
	if err == nil {
		return result
	}
	observability.LoggerFromContext(ctx).Warn("failed to mirror favorite into agenda",
		slog.String("action", action),
		slog.String("sessionId", sessionID),
		slog.String(observability.LogFieldErrorCode, string(apperrors.GetCodeFromError(err, apperrors.ErrCodeInternal))),
		slog.Any("error", err),
	)
	return &agenda.SyncResult{Success: false, Message: err.Error()}
}
