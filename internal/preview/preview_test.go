package preview

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/notemark/internal/db"
)

const page = `<!doctype html>
<html><head>
<title>  Plain   Title </title>
<meta property="og:title" content="OG Title">
<meta name="description" content="A page about things">
<meta property="og:image" content="/img/card.png">
<meta property="og:site_name" content="Example">
<link rel="icon" href="/static/icon.svg">
</head><body><h1>Heading</h1></body></html>`

func TestParse(t *testing.T) {
	base, _ := url.Parse("https://example.com/posts/1")
	p, err := Parse(base, strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, "OG Title", p.Title)
	assert.Equal(t, "A page about things", p.Description)
	assert.Equal(t, "https://example.com/img/card.png", p.Image)
	assert.Equal(t, "Example", p.SiteName)
	assert.Equal(t, "https://example.com/static/icon.svg", p.Favicon)
}

func TestParseFallbacks(t *testing.T) {
	base, _ := url.Parse("http://example.com/")
	p, err := Parse(base, strings.NewReader(`<html><head><title> Plain
	Title </title></head><body></body></html>`))
	require.NoError(t, err)
	assert.Equal(t, "Plain Title", p.Title)
	assert.Empty(t, p.Image)
	assert.Equal(t, "http://example.com/favicon.ico", p.Favicon)

	p, err = Parse(base, strings.NewReader(`<body><h1>Only H1</h1><img src="javascript:x"></body>`))
	require.NoError(t, err)
	assert.Equal(t, "Only H1", p.Title)
}

func newServer(t *testing.T, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, page)
	})
	mux.HandleFunc("/json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{}`)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchCachesInMemory(t *testing.T) {
	var hits atomic.Int64
	srv := newServer(t, &hits)
	s := New(WithClient(srv.Client()))
	ctx := context.Background()

	_, ok := s.Lookup(ctx, srv.URL+"/page")
	assert.False(t, ok)

	p, err := s.Fetch(ctx, srv.URL+"/page")
	require.NoError(t, err)
	assert.Equal(t, "OG Title", p.Title)
	assert.Equal(t, srv.URL+"/page", p.URL)
	assert.Equal(t, srv.URL+"/img/card.png", p.Image)

	_, err = s.Fetch(ctx, srv.URL+"/page")
	require.NoError(t, err)
	assert.Equal(t, int64(1), hits.Load())

	cached, ok := s.Lookup(ctx, srv.URL+"/page")
	require.True(t, ok)
	assert.Equal(t, p, cached)
}

func TestFetchErrors(t *testing.T) {
	var hits atomic.Int64
	srv := newServer(t, &hits)
	s := New(WithClient(srv.Client()))
	ctx := context.Background()

	_, err := s.Fetch(ctx, "ftp://example.com/file")
	assert.ErrorIs(t, err, ErrUnsupportedURL)
	_, err = s.Fetch(ctx, "not a url")
	assert.ErrorIs(t, err, ErrUnsupportedURL)
	_, err = s.Fetch(ctx, srv.URL+"/json")
	assert.ErrorIs(t, err, ErrNotHTML)
	_, err = s.Fetch(ctx, srv.URL+"/missing")
	assert.ErrorContains(t, err, "status code 404")
}

func TestTTLExpiry(t *testing.T) {
	var hits atomic.Int64
	srv := newServer(t, &hits)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := New(WithClient(srv.Client()), WithTTL(time.Hour), withClock(func() time.Time { return now }))
	ctx := context.Background()

	_, err := s.Fetch(ctx, srv.URL+"/page")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, ok := s.Lookup(ctx, srv.URL+"/page")
	assert.False(t, ok)

	_, err = s.Fetch(ctx, srv.URL+"/page")
	require.NoError(t, err)
	assert.Equal(t, int64(2), hits.Load())
}

func TestRepoBackedLookup(t *testing.T) {
	var hits atomic.Int64
	srv := newServer(t, &hits)
	ctx := context.Background()
	store, err := db.Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "previews.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	first := New(WithClient(srv.Client()), WithRepo(store.Previews))
	_, err = first.Fetch(ctx, srv.URL+"/page")
	require.NoError(t, err)

	// A fresh service sees the persisted preview without fetching.
	second := New(WithClient(srv.Client()), WithRepo(store.Previews))
	p, ok := second.Lookup(ctx, srv.URL+"/page")
	require.True(t, ok)
	assert.Equal(t, "OG Title", p.Title)
	assert.Equal(t, int64(1), hits.Load())
}

func TestPrefetch(t *testing.T) {
	var hits atomic.Int64
	srv := newServer(t, &hits)
	s := New(WithClient(srv.Client()), WithConcurrency(2))

	urls := []string{srv.URL + "/page", srv.URL + "/page", srv.URL + "/missing", "mailto:x@example.com"}
	n := s.Prefetch(context.Background(), urls)
	assert.Equal(t, 1, n)
	assert.Equal(t, int64(1), hits.Load())

	assert.Equal(t, 1, s.Prefetch(context.Background(), urls[:1]))
	assert.Equal(t, int64(1), hits.Load())
}
