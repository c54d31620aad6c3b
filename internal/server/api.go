package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/mithrel/notemark/internal/markdown"
	"github.com/mithrel/notemark/internal/notes"
)

type renderRequest struct {
	Content string `json:"content"`
	Theme   string `json:"theme,omitempty"`
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	theme := s.app.Renderer.Options().Theme
	if req.Theme != "" {
		theme = markdown.ParseTheme(req.Theme)
	}
	res, err := s.app.Renderer.Render(r.Context(), req.Content,
		markdown.ForTheme(theme),
		markdown.ForLocale(s.app.Catalog.Localizer(s.locale(r))),
	)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if res.Assets == nil {
		res.Assets = []markdown.Asset{}
	}
	if res.Tags == nil {
		res.Tags = []string{}
	}
	writeJSON(w, http.StatusOK, res)
}

// handleRenderStream takes raw, possibly partial, Markdown and answers with
// an HTML fragment from the reduced render path.
func (s *Server) handleRenderStream(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "body too large", http.StatusRequestEntityTooLarge)
		return
	}
	out, err := s.app.Renderer.RenderStreaming(string(body))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, out)
}

func (s *Server) handleLinkPreview(w http.ResponseWriter, r *http.Request) {
	u := strings.TrimSpace(r.URL.Query().Get("url"))
	if u == "" {
		http.Error(w, "missing url", http.StatusBadRequest)
		return
	}
	p, err := s.app.Previews.Fetch(r.Context(), u)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleSuggestTags(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 10
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		limit = n
	}
	tags, err := s.app.Notes.SuggestTags(r.Context(), q.Get("q"), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if tags == nil {
		tags = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": tags})
}

func (s *Server) handleForceQuery(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int64{"force_query": s.app.State.ForceQuery()})
}

// handleForceQueryEvents streams counter changes as server-sent events until
// the client goes away.
func (s *Server) handleForceQueryEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-store")
	updates := s.app.State.Subscribe(r.Context())
	_, _ = fmt.Fprintf(w, "data: %d\n\n", s.app.State.ForceQuery())
	flusher.Flush()
	for v := range updates {
		if _, err := fmt.Fprintf(w, "data: %d\n\n", v); err != nil {
			return
		}
		flusher.Flush()
	}
}

type createNoteRequest struct {
	Title string   `json:"title"`
	Body  string   `json:"body"`
	Tags  []string `json:"tags"`
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var req createNoteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	tags := req.Tags
	if len(tags) == 0 {
		tags = s.app.Cfg.GetStringSlice("default_tags")
	}
	e, err := s.app.Notes.Create(r.Context(), notes.Draft{Title: req.Title, Body: req.Body, Tags: tags})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/notes/"+e.ID)
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
	e, err := s.app.Notes.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Notes.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
