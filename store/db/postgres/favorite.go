package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/confagenda/store"
)

func (d *DB) UpsertFavorite(ctx context.Context, upsert *store.Favorite) (*store.Favorite, error) {
	if upsert.Type == "" {
		upsert.Type = store.FavoriteTypeSession
	}
	stmt := `INSERT INTO favorite (user_id, session_id, type, created_ts)
		VALUES (` + placeholders(4) + `)
		ON CONFLICT (user_id, session_id, type) DO UPDATE SET created_ts = favorite.created_ts
		RETURNING id, created_ts`
	if err := d.db.QueryRowContext(ctx, stmt, upsert.UserID, upsert.SessionID, upsert.Type, time.Now().Unix()).Scan(
		&upsert.ID,
		&upsert.CreatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to upsert favorite: %w", err)
	}
	return upsert, nil
}

func (d *DB) ListFavorites(ctx context.Context, find *store.FindFavorite) ([]*store.Favorite, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.UserID; v != nil {
		where, args = append(where, "favorite.user_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.SessionID; v != nil {
		where, args = append(where, "favorite.session_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Type; v != nil {
		where, args = append(where, "favorite.type = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `SELECT id, user_id, session_id, type, created_ts FROM favorite WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY favorite.created_ts ASC, favorite.id ASC`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Favorite, 0)
	for rows.Next() {
		var favorite store.Favorite
		if err := rows.Scan(
			&favorite.ID,
			&favorite.UserID,
			&favorite.SessionID,
			&favorite.Type,
			&favorite.CreatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		list = append(list, &favorite)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate favorites: %w", err)
	}
	return list, nil
}

func (d *DB) DeleteFavorite(ctx context.Context, delete *store.DeleteFavorite) error {
	favoriteType := delete.Type
	if favoriteType == "" {
		favoriteType = store.FavoriteTypeSession
	}
	stmt := `DELETE FROM favorite WHERE user_id = ` + placeholder(1) + ` AND session_id = ` + placeholder(2) + ` AND type = ` + placeholder(3)
	if _, err := d.db.ExecContext(ctx, stmt, delete.UserID, delete.SessionID, favoriteType); err != nil {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}
	return nil
}
