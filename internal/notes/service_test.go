package notes

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/notemark/internal/db"
	"github.com/mithrel/notemark/internal/logger"
	"github.com/mithrel/notemark/pkg/api"
)

func newService(t *testing.T) *Service {
	t.Helper()
	store, err := db.Open(context.Background(), filepath.Join(t.TempDir(), "notes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return New(store, logger.Discard(), "default")
}

func strp(s string) *string { return &s }

func TestCreateMergesBodyTags(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	e, err := s.Create(ctx, Draft{Body: "# Plan\n\nship #Work and #home today", Tags: []string{"#Inbox", "work"}})
	require.NoError(t, err)
	assert.Equal(t, "Plan", e.Title)
	assert.Equal(t, []string{"inbox", "work", "home"}, e.Tags)
	assert.Equal(t, int64(1), e.Version)
	assert.Equal(t, "default", e.Namespace)
	assert.Len(t, e.ID, 36)

	got, err := s.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.Body, got.Body)
}

func TestCreateEmpty(t *testing.T) {
	s := newService(t)
	_, err := s.Create(context.Background(), Draft{Body: "  \n"})
	require.ErrorIs(t, err, ErrEmptyNote)
}

func TestCreateKeepsImportedTimestamp(t *testing.T) {
	s := newService(t)
	at := time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)
	e, err := s.Create(context.Background(), Draft{Title: "old", Body: "x", CreatedAt: at})
	require.NoError(t, err)
	assert.True(t, e.CreatedAt.Equal(at))
}

func TestGetOtherNamespace(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	e, err := s.Create(ctx, Draft{Title: "elsewhere", Body: "x", Namespace: "work"})
	require.NoError(t, err)

	_, err = s.Get(ctx, e.ID)
	require.ErrorIs(t, err, db.ErrNotFound)
	require.ErrorIs(t, s.Delete(ctx, e.ID), db.ErrNotFound)
}

func TestUpdate(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	e, err := s.Create(ctx, Draft{Title: "t", Body: "about #old", Tags: []string{"keep"}})
	require.NoError(t, err)
	require.Equal(t, []string{"keep", "old"}, e.Tags)

	up, err := s.Update(ctx, e.ID, Patch{Body: strp("about #new")})
	require.NoError(t, err)
	assert.Equal(t, int64(2), up.Version)
	assert.Equal(t, "t", up.Title)
	assert.Equal(t, []string{"keep", "new"}, up.Tags)

	up, err = s.Update(ctx, e.ID, Patch{Title: strp("renamed"), Tags: []string{"only"}})
	require.NoError(t, err)
	assert.Equal(t, "renamed", up.Title)
	assert.Equal(t, []string{"only", "new"}, up.Tags)

	_, err = s.Update(ctx, e.ID, Patch{Title: strp("stale"), IfVersion: 1})
	require.ErrorIs(t, err, db.ErrConflict)
}

func TestUpdateWithoutChangeKeepsVersion(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	e, err := s.Create(ctx, Draft{Title: "same", Body: "text #a", Tags: []string{"b"}})
	require.NoError(t, err)

	up, err := s.Update(ctx, e.ID, Patch{Title: strp("same"), Body: strp("text #a"), Tags: []string{"B", "a"}, IfVersion: e.Version})
	require.NoError(t, err)
	assert.Equal(t, e.Version, up.Version)
}

func TestDelete(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	e, err := s.Create(ctx, Draft{Body: "bye"})
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, e.ID))
	_, err = s.Get(ctx, e.ID)
	require.ErrorIs(t, err, db.ErrNotFound)
}

func TestToggleTask(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	e, err := s.Create(ctx, Draft{Title: "todo", Body: "- [ ] milk\n- [ ] eggs\n"})
	require.NoError(t, err)

	up, err := s.ToggleTask(ctx, e.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "- [ ] milk\n- [x] eggs\n", up.Body)
	assert.Equal(t, int64(2), up.Version)

	_, err = s.ToggleTask(ctx, e.ID, 5)
	require.Error(t, err)
	got, err := s.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
}

func TestSearchText(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	for _, body := range []string{
		"groceries #home milk",
		"quarterly report #work",
		"report card #home",
	} {
		_, err := s.Create(ctx, Draft{Body: body})
		require.NoError(t, err)
	}

	byTag, err := s.SearchText(ctx, "#home", 0)
	require.NoError(t, err)
	assert.Len(t, byTag, 2)

	both, err := s.SearchText(ctx, "#home report", 0)
	require.NoError(t, err)
	require.Len(t, both, 1)
	assert.True(t, strings.HasPrefix(both[0].Body, "report card"))

	words, err := s.SearchText(ctx, "report", 0)
	require.NoError(t, err)
	assert.Len(t, words, 2)

	all, err := s.SearchText(ctx, "   ", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestParseQuery(t *testing.T) {
	q := ParseQuery("#Work  draft # #work notes")
	assert.Equal(t, []string{"work"}, q.Tags)
	assert.Equal(t, []string{"draft", "#", "notes"}, q.Words)
	assert.True(t, ParseQuery(" ").Empty())
}

func TestSuggestTags(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	_, err := s.Create(ctx, Draft{Body: "#golang #gardening #recipes"})
	require.NoError(t, err)
	_, err = s.Create(ctx, Draft{Body: "#golang again"})
	require.NoError(t, err)

	got, err := s.SuggestTags(ctx, "#gol", 5)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "golang", got[0])

	got, err = s.SuggestTags(ctx, "recipse", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"recipes"}, got)

	got, err = s.SuggestTags(ctx, "", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"golang"}, got)
}

func TestTags(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	_, err := s.Create(ctx, Draft{Body: "#a #b"})
	require.NoError(t, err)
	_, err = s.Create(ctx, Draft{Body: "#a"})
	require.NoError(t, err)

	stats, err := s.Tags(ctx, "", 0)
	require.NoError(t, err)
	assert.Equal(t, []api.TagStat{{Tag: "a", Count: 2}, {Tag: "b", Count: 1}}, stats)
}
