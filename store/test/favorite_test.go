package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/confagenda/store"
)

func TestFavoriteStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	first, err := ts.UpsertFavorite(ctx, &store.Favorite{UserID: "user-1", SessionID: "ses-101"})
	require.NoError(t, err)
	require.Equal(t, store.FavoriteTypeSession, first.Type)
	require.NotZero(t, first.ID)

	// Favoriting twice keeps a single row.
	again, err := ts.UpsertFavorite(ctx, &store.Favorite{UserID: "user-1", SessionID: "ses-101", Type: store.FavoriteTypeSession})
	require.NoError(t, err)
	require.Equal(t, first.ID, again.ID)

	_, err = ts.UpsertFavorite(ctx, &store.Favorite{UserID: "user-1", SessionID: "ses-202"})
	require.NoError(t, err)
	_, err = ts.UpsertFavorite(ctx, &store.Favorite{UserID: "user-2", SessionID: "ses-101"})
	require.NoError(t, err)

	userID := "user-1"
	list, err := ts.ListFavorites(ctx, &store.FindFavorite{UserID: &userID})
	require.NoError(t, err)
	require.Len(t, list, 2)

	require.NoError(t, ts.DeleteFavorite(ctx, &store.DeleteFavorite{UserID: "user-1", SessionID: "ses-101"}))
	require.NoError(t, ts.DeleteFavorite(ctx, &store.DeleteFavorite{UserID: "user-1", SessionID: "ses-101"}))
	list, err = ts.ListFavorites(ctx, &store.FindFavorite{UserID: &userID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "ses-202", list[0].SessionID)
}
