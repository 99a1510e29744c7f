package store

import "context"

// Favorite is a lightweight "save for later" marker on a catalog item.
type Favorite struct {
	ID        int32
	UserID    string
	SessionID string
	Type      string
	CreatedTs int64
}

// FindFavorite is the find condition for favorites.
type FindFavorite struct {
	UserID    *string
	SessionID *string
	Type      *string
}

// DeleteFavorite removes a favorite.
type DeleteFavorite struct {
	UserID    string
	SessionID string
	Type      string
}

// UpsertFavorite records a favorite; repeated calls are idempotent.
func (s *Store) UpsertFavorite(ctx context.Context, upsert *Favorite) (*Favorite, error) {
	return s.driver.UpsertFavorite(ctx, upsert)
}

// ListFavorites lists favorites ordered by creation time.
func (s *Store) ListFavorites(ctx context.Context, find *FindFavorite) ([]*Favorite, error) {
	return s.driver.ListFavorites(ctx, find)
}

// DeleteFavorite removes a favorite. Missing rows are not an error.
func (s *Store) DeleteFavorite(ctx context.Context, delete *DeleteFavorite) error {
	return s.driver.DeleteFavorite(ctx, delete)
}
