// Package preview fetches and caches link preview metadata. Rendering only
// ever reads the cache; network fetches happen through Fetch and Prefetch.
package preview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mithrel/notemark/internal/db"
	"github.com/mithrel/notemark/internal/logger"
	"github.com/mithrel/notemark/pkg/api"
)

var (
	ErrUnsupportedURL = errors.New("unsupported url")
	ErrNotHTML        = errors.New("not an html page")
)

const (
	DefaultTTL         = 7 * 24 * time.Hour
	DefaultTimeout     = 5 * time.Second
	DefaultMaxBytes    = 1 << 20
	DefaultConcurrency = 4
	defaultUserAgent   = "notemark-preview/1.0"
)

type Service struct {
	repo        db.PreviewRepo
	client      *http.Client
	log         *logger.Logger
	ttl         time.Duration
	maxBytes    int64
	concurrency int
	userAgent   string
	now         func() time.Time

	mu    sync.RWMutex
	cache map[string]api.LinkPreview
}

type Option func(*Service)

// WithRepo persists previews; without one they live in memory only.
func WithRepo(r db.PreviewRepo) Option      { return func(s *Service) { s.repo = r } }
func WithClient(c *http.Client) Option      { return func(s *Service) { s.client = c } }
func WithLogger(l *logger.Logger) Option    { return func(s *Service) { s.log = l } }
func WithTTL(d time.Duration) Option        { return func(s *Service) { s.ttl = d } }
func WithMaxBytes(n int64) Option           { return func(s *Service) { s.maxBytes = n } }
func WithConcurrency(n int) Option          { return func(s *Service) { s.concurrency = n } }
func WithUserAgent(ua string) Option        { return func(s *Service) { s.userAgent = ua } }
func withClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func New(opts ...Option) *Service {
	s := &Service{
		client:      &http.Client{Timeout: DefaultTimeout},
		log:         logger.Discard(),
		ttl:         DefaultTTL,
		maxBytes:    DefaultMaxBytes,
		concurrency: DefaultConcurrency,
		userAgent:   defaultUserAgent,
		now:         time.Now,
		cache:       make(map[string]api.LinkPreview),
	}
	for _, o := range opts {
		o(s)
	}
	if s.concurrency < 1 {
		s.concurrency = 1
	}
	return s
}

func (s *Service) fresh(p api.LinkPreview) bool {
	return s.ttl <= 0 || s.now().Sub(p.FetchedAt) < s.ttl
}

// Lookup returns cached metadata for rawURL without touching the network.
func (s *Service) Lookup(ctx context.Context, rawURL string) (api.LinkPreview, bool) {
	s.mu.RLock()
	p, ok := s.cache[rawURL]
	s.mu.RUnlock()
	if ok && s.fresh(p) {
		return p, true
	}
	if s.repo == nil {
		return api.LinkPreview{}, false
	}
	p, err := s.repo.GetPreview(ctx, rawURL)
	if err != nil || !s.fresh(p) {
		return api.LinkPreview{}, false
	}
	s.remember(p)
	return p, true
}

func (s *Service) remember(p api.LinkPreview) {
	s.mu.Lock()
	s.cache[p.URL] = p
	s.mu.Unlock()
}

// Fetch returns fresh cached metadata or downloads the page. Only http and
// https URLs are fetched, and at most maxBytes of the body is read.
func (s *Service) Fetch(ctx context.Context, rawURL string) (api.LinkPreview, error) {
	if p, ok := s.Lookup(ctx, rawURL); ok {
		return p, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return api.LinkPreview{}, fmt.Errorf("%w: %q", ErrUnsupportedURL, rawURL)
	}

	start := s.now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return api.LinkPreview{}, err
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	resp, err := s.client.Do(req)
	if err != nil {
		return api.LinkPreview{}, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return api.LinkPreview{}, fmt.Errorf("fetch %s: status code %d", rawURL, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		mt, _, _ := mime.ParseMediaType(ct)
		if mt != "text/html" && mt != "application/xhtml+xml" {
			return api.LinkPreview{}, fmt.Errorf("fetch %s: %w (%s)", rawURL, ErrNotHTML, mt)
		}
	}

	p, err := Parse(resp.Request.URL, io.LimitReader(resp.Body, s.maxBytes))
	if err != nil {
		return api.LinkPreview{}, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	p.URL = rawURL
	p.FetchedAt = s.now().UTC()

	s.remember(p)
	if s.repo != nil {
		if err := s.repo.PutPreview(ctx, p); err != nil {
			s.log.Warn("preview not cached", "url", rawURL, "error", err)
		}
	}
	s.log.PreviewFetched(rawURL, s.now().Sub(start))
	return p, nil
}

// Prefetch warms the cache for urls, a few at a time. Failures are logged
// and skipped. It returns how many previews are available afterwards.
func (s *Service) Prefetch(ctx context.Context, urls []string) int {
	var ready atomic.Int64
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	seen := make(map[string]bool, len(urls))
	for _, u := range urls {
		if seen[u] {
			continue
		}
		seen[u] = true
		if _, ok := s.Lookup(ctx, u); ok {
			ready.Add(1)
			continue
		}
		g.Go(func() error {
			if _, err := s.Fetch(ctx, u); err != nil {
				s.log.PreviewError(u, err)
				return nil
			}
			ready.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	return int(ready.Load())
}
