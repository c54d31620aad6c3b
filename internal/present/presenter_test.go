package present

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/notemark/pkg/api"
)

func sampleEntries() []api.Entry {
	ts := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	return []api.Entry{
		{ID: "a1", Title: "Groceries", Body: "- [ ] milk #home", Tags: []string{"home"}, CreatedAt: ts, UpdatedAt: ts},
		{ID: "b2", Title: "Tabs\tand\nlines", Tags: []string{"work", "go"}, CreatedAt: ts, UpdatedAt: ts},
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"plain": ModePlain, "": ModePlain, "PRETTY": ModePretty, "json": ModeJSON, "ndjson": ModeNDJSON} {
		got, ok := ParseMode(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseMode("tui")
	assert.False(t, ok)
	assert.Contains(t, ModeError("tui").Error(), "plain, pretty, json, ndjson")
}

func TestRenderEntriesPlain(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderEntries(&buf, sampleEntries(), Options{Mode: ModePlain, Headers: true}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "Groceries")
	assert.Contains(t, lines[2], `Tabs\tand\nlines`)
	assert.Contains(t, lines[2], "work,go")
}

func TestRenderEntriesJSONStream(t *testing.T) {
	var buf bytes.Buffer
	sw := NewStreamWriter(&buf, Options{Mode: ModeJSON})
	es := sampleEntries()
	require.NoError(t, sw.WriteEntries(es[:1]))
	require.NoError(t, sw.WriteEntries(es[1:]))
	require.NoError(t, sw.Close())

	var got []api.Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "b2", got[1].ID)
}

func TestRenderEntriesJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderEntries(&buf, nil, Options{Mode: ModeJSON, JSONIndent: true}))
	assert.Equal(t, "[]\n", buf.String())
}

func TestRenderEntriesNDJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderEntries(&buf, sampleEntries(), Options{Mode: ModeNDJSON}))
	assert.Len(t, strings.Split(strings.TrimSpace(buf.String()), "\n"), 2)
}

func TestRenderEntryPlainIncludesBody(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderEntry(&buf, sampleEntries()[0], Options{Mode: ModePlain}))
	assert.Contains(t, buf.String(), "a1")
	assert.Contains(t, buf.String(), "- [ ] milk #home")
}

func TestRenderEntryPretty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderEntry(&buf, sampleEntries()[0], Options{Mode: ModePretty, Theme: "dark"}))
	assert.Contains(t, buf.String(), "Groceries")
	assert.Contains(t, buf.String(), "milk")
}

func TestRenderTags(t *testing.T) {
	stats := []api.TagStat{{Tag: "go", Count: 4}, {Tag: "home", Count: 1}}

	var plain bytes.Buffer
	require.NoError(t, RenderTags(&plain, stats, Options{Mode: ModePlain}))
	assert.Equal(t, "go    4\nhome  1\n", plain.String())

	var pretty bytes.Buffer
	require.NoError(t, RenderTags(&pretty, stats, Options{Mode: ModePretty}))
	assert.Contains(t, pretty.String(), "#go")
	assert.Contains(t, pretty.String(), "#home")

	var js bytes.Buffer
	require.NoError(t, RenderTags(&js, nil, Options{Mode: ModeJSON}))
	assert.Equal(t, "[]\n", js.String())
}
