// Package server is the HTTP surface: rendered note pages, the hashtag
// search view and a small JSON API around the renderer.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/mithrel/notemark/internal/db"
	"github.com/mithrel/notemark/internal/markdown"
	"github.com/mithrel/notemark/internal/notes"
	"github.com/mithrel/notemark/internal/preview"
	"github.com/mithrel/notemark/internal/wire"
	"github.com/mithrel/notemark/pkg/api"
)

// maxBodyBytes caps request bodies sent to the render endpoints.
const maxBodyBytes = 4 << 20

type Server struct {
	app   *wire.App
	pages *pageTemplates
}

func New(app *wire.App) *Server {
	return &Server{app: app, pages: loadPages(app.Renderer.Options().SearchPath)}
}

// Router returns an http.Handler with registered routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /notes/{id}", s.handleNotePage)
	mux.HandleFunc("GET /all", s.handleSearchPage)
	mux.HandleFunc("POST /notes/{id}/tasks/{index}/toggle", s.auth(s.handleToggle))
	mux.HandleFunc("GET /assets/markdown.css", s.handleCSS)

	mux.HandleFunc("POST /api/render", s.handleRender)
	mux.HandleFunc("POST /api/render/stream", s.handleRenderStream)
	mux.HandleFunc("GET /api/link-preview", s.auth(s.handleLinkPreview))
	mux.HandleFunc("GET /api/tags/suggest", s.handleSuggestTags)
	mux.HandleFunc("GET /api/force-query", s.handleForceQuery)
	mux.HandleFunc("GET /api/force-query/events", s.handleForceQueryEvents)

	mux.HandleFunc("POST /api/notes", s.auth(s.handleCreateNote))
	mux.HandleFunc("GET /api/notes/{id}", s.handleGetNote)
	mux.HandleFunc("DELETE /api/notes/{id}", s.auth(s.handleDeleteNote))

	if p := s.app.Renderer.Options().SearchPath; p != markdown.DefaultSearchPath && strings.HasPrefix(p, "/") {
		mux.HandleFunc("GET "+p, s.handleSearchPage)
	}
	return s.logRequests(mux)
}

// auth enforces the bearer token when auth.token is configured.
func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok := strings.TrimSpace(s.app.Cfg.GetString("auth.token"))
		if tok == "" {
			next.ServeHTTP(w, r)
			return
		}
		got := r.Header.Get("Authorization")
		if !strings.HasPrefix(got, "Bearer ") || strings.TrimSpace(strings.TrimPrefix(got, "Bearer ")) != tok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.app.Log.Debug("http",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).Round(time.Microsecond))
	})
}

// fail maps service errors to status codes and logs server-side failures.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, db.ErrNotFound), errors.Is(err, markdown.ErrTaskNotFound):
		status = http.StatusNotFound
	case errors.Is(err, db.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, notes.ErrEmptyNote), errors.Is(err, preview.ErrUnsupportedURL):
		status = http.StatusBadRequest
	case errors.Is(err, preview.ErrNotHTML):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	if status >= http.StatusInternalServerError {
		s.app.Log.RequestError(r.Method, r.URL.Path, status, err)
		http.Error(w, http.StatusText(status), status)
		return
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeTagged writes body with a content ETag and answers a matching
// If-None-Match with 304.
func writeTagged(w http.ResponseWriter, r *http.Request, contentType string, body []byte) {
	etag := `"` + api.ContentKey(body) + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if match := r.Header.Get("If-None-Match"); match != "" && strings.Contains(match, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write(body)
}

// Run serves on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

// Serve serves on l until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.app.Cfg.GetDuration("server.read_timeout"),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	s.app.Log.Info("listening", "addr", l.Addr().String())
	if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
