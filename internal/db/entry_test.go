package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/notemark/pkg/api"
)

func setupTestDB(t *testing.T) (*Store, context.Context, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	store, err := Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "notes.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		cancel()
		_ = store.Close()
	})
	return store, ctx, cancel
}

func groceryNote(at time.Time) api.Entry {
	return api.Entry{
		ID:        "groceries",
		Version:   1,
		Title:     "Groceries",
		Body:      "- [ ] milk #home\n- [ ] coffee",
		Tags:      []string{"home"},
		Namespace: "default",
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func tagNames(stats []api.TagStat) []string {
	out := make([]string, 0, len(stats))
	for _, s := range stats {
		out = append(out, s.Tag)
	}
	return out
}

func TestEntryLifecycle(t *testing.T) {
	store, ctx, _ := setupTestDB(t)
	repo := store.Entries
	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	created, err := repo.CreateEntry(ctx, groceryNote(at))
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.Version)

	t.Run("matching version writes and reindexes tags", func(t *testing.T) {
		cur, err := repo.GetEntry(ctx, "groceries")
		require.NoError(t, err)
		cur.Body = "- [x] milk #shopping\n- [ ] coffee"
		cur.Tags = []string{"Shopping", "#shopping"}
		cur.Version = 2
		cur.UpdatedAt = at.Add(time.Hour)

		got, err := repo.UpdateEntryCAS(ctx, cur, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.Version)
		assert.Equal(t, []string{"shopping"}, got.Tags)

		stats, err := repo.ListTags(ctx, api.TagsQuery{Namespace: "default"})
		require.NoError(t, err)
		assert.Equal(t, []string{"shopping"}, tagNames(stats), "old tag rows are dropped")

		hits, _, err := repo.Search(ctx, api.SearchQuery{Namespace: "default", Query: "coffee"})
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Contains(t, hits[0].Body, "[x] milk")
	})

	t.Run("stale version is rejected", func(t *testing.T) {
		cur, err := repo.GetEntry(ctx, "groceries")
		require.NoError(t, err)
		cur.Title = "Lost write"
		cur.Version = 3

		_, err = repo.UpdateEntryCAS(ctx, cur, 1)
		assert.ErrorIs(t, err, ErrConflict)

		again, err := repo.GetEntry(ctx, "groceries")
		require.NoError(t, err)
		assert.Equal(t, "Groceries", again.Title)
		assert.Equal(t, int64(2), again.Version)
	})

	t.Run("delete removes note and its index rows", func(t *testing.T) {
		require.NoError(t, repo.DeleteEntry(ctx, "groceries"))

		_, err := repo.GetEntry(ctx, "groceries")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, repo.DeleteEntry(ctx, "groceries"), ErrNotFound)

		hits, _, err := repo.Search(ctx, api.SearchQuery{Namespace: "default", Query: "coffee"})
		require.NoError(t, err)
		assert.Empty(t, hits)

		stats, err := repo.ListTags(ctx, api.TagsQuery{})
		require.NoError(t, err)
		assert.Empty(t, stats)
	})
}
