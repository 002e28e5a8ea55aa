package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/splitdeck/internal/collection"
)

func newTestStore(t *testing.T) *CollectionStore {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "library.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := NewCollectionStore(db)
	require.NoError(t, SeedDemoLibrary(context.Background(), store))
	return store
}

func fetchIDs(t *testing.T, store *CollectionStore, collectionID string) []string {
	t.Helper()
	page, err := store.FetchPage(context.Background(), collectionID, "")
	require.NoError(t, err)
	ids := make([]string, len(page.Items))
	for i, item := range page.Items {
		ids[i] = item.ID
	}
	return ids
}

func TestCollectionStore_SeedIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, SeedDemoLibrary(context.Background(), store))

	infos, err := store.ListCollections(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 2)
	require.Equal(t, 4, infos[0].Total)
}

func TestCollectionStore_FetchPagePaginates(t *testing.T) {
	store := newTestStore(t)
	store.pageSize = 3
	ctx := context.Background()

	page, err := store.FetchPage(ctx, "crate-a", "")
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	require.Equal(t, 4, page.Total)
	require.Equal(t, "3", page.NextCursor)
	require.Equal(t, "So What", page.Items[0].Title)

	page, err = store.FetchPage(ctx, "crate-a", page.NextCursor)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Empty(t, page.NextCursor)
	require.Equal(t, "naima", page.Items[0].ID)
}

func TestCollectionStore_UnknownPlaylist(t *testing.T) {
	store := newTestStore(t)
	_, err := store.FetchPage(context.Background(), "ghost", "")
	require.ErrorIs(t, err, collection.ErrNotFound)

	_, err = store.CheckEditable(context.Background(), "ghost")
	require.ErrorIs(t, err, collection.ErrNotFound)
}

func TestCollectionStore_AddItemsBumpsVersion(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	before, err := store.FetchPage(ctx, "crate-a", "")
	require.NoError(t, err)

	tok, err := store.AddItems(ctx, "crate-a", []string{"take-five"}, 1)
	require.NoError(t, err)
	require.NotEqual(t, before.VersionToken, tok)

	require.Equal(t, []string{"so-what", "take-five", "blue-in-green", "giant-steps", "naima"},
		fetchIDs(t, store, "crate-a"))
}

func TestCollectionStore_AddUnknownTrackFails(t *testing.T) {
	store := newTestStore(t)
	_, err := store.AddItems(context.Background(), "crate-a", []string{"nope"}, 0)
	require.ErrorIs(t, err, collection.ErrNotFound)

	require.Len(t, fetchIDs(t, store, "crate-a"), 4, "failed add must not change the playlist")
}

func TestCollectionStore_RemoveByPositionSparesDuplicates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Duplicate so-what at the end, then remove only the duplicate.
	_, err := store.AddItems(ctx, "crate-a", []string{"so-what"}, collection.AppendPosition)
	require.NoError(t, err)
	_, err = store.RemoveItems(ctx, "crate-a", []collection.ItemRef{{ID: "so-what", Positions: []int{4}}})
	require.NoError(t, err)

	require.Equal(t, []string{"so-what", "blue-in-green", "giant-steps", "naima"},
		fetchIDs(t, store, "crate-a"))
}

func TestCollectionStore_ReorderChecksVersionToken(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	page, err := store.FetchPage(ctx, "crate-a", "")
	require.NoError(t, err)

	_, err = store.Reorder(ctx, "crate-a", 3, 0, 1, "v999")
	require.ErrorIs(t, err, collection.ErrVersionConflict)

	tok, err := store.Reorder(ctx, "crate-a", 3, 0, 1, page.VersionToken)
	require.NoError(t, err)
	require.NotEqual(t, page.VersionToken, tok)

	require.Equal(t, []string{"naima", "so-what", "blue-in-green", "giant-steps"},
		fetchIDs(t, store, "crate-a"))
}

func TestCollectionStore_ReorderRange(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Reorder(ctx, "crate-b", 0, 4, 2, "")
	require.NoError(t, err)
	require.Equal(t, []string{"maiden-voyage", "footprints", "take-five", "moanin"},
		fetchIDs(t, store, "crate-b"))
}

func TestLayoutRepository_RoundTrip(t *testing.T) {
	db, err := NewDB(filepath.Join(t.TempDir(), "library.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewLayoutRepository(db)

	tree, err := repo.Load()
	require.NoError(t, err)
	require.Nil(t, tree, "fresh library has no saved layout")

	require.NoError(t, repo.Save([]byte(`{"kind":"panel"}`)))
	require.NoError(t, repo.Save([]byte(`{"kind":"group"}`)))

	tree, err = repo.Load()
	require.NoError(t, err)
	require.Equal(t, `{"kind":"group"}`, string(tree), "save overwrites the previous layout")
}
