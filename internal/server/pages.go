package server

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/text/language"

	"github.com/mithrel/notemark/internal/i18n"
	"github.com/mithrel/notemark/internal/markdown"
	"github.com/mithrel/notemark/pkg/api"
)

//go:embed templates/page.html
var templateFS embed.FS

// searchLimit caps the rows on the search page.
const searchLimit = 200

type pageTemplates struct {
	tmpl *template.Template
}

func loadPages(searchPath string) *pageTemplates {
	funcs := template.FuncMap{
		"formatDate": func(t time.Time) string { return t.Local().Format("2006-01-02 15:04") },
		"isoDate":    func(t time.Time) string { return t.UTC().Format(time.RFC3339) },
		"tagHref":    func(tag string) string { return markdown.SearchHref(searchPath, "#"+tag) },
	}
	return &pageTemplates{
		tmpl: template.Must(template.New("page").Funcs(funcs).ParseFS(templateFS, "templates/page.html")),
	}
}

func (p *pageTemplates) execute(w *bytes.Buffer, name string, data pageData) error {
	return p.tmpl.ExecuteTemplate(w, name, data)
}

type pageData struct {
	Lang       string
	Theme      markdown.Theme
	Title      string
	SearchPath string
	Query      string
	Assets     []markdown.Asset
	Labels     map[string]string

	Note    *api.Entry
	Body    template.HTML
	Updated string

	Results []api.Entry
	Summary string
}

func (s *Server) basePage(tag language.Tag, theme markdown.Theme) pageData {
	c := s.app.Catalog
	return pageData{
		Lang:       tag.String(),
		Theme:      theme,
		SearchPath: s.app.Renderer.Options().SearchPath,
		Labels: map[string]string{
			"search": c.Sprintf(tag, i18n.MsgSearchTitle),
			"back":   c.Sprintf(tag, i18n.MsgBack),
		},
	}
}

// theme honours a ?theme= override, else the configured theme.
func (s *Server) theme(r *http.Request) markdown.Theme {
	if t := r.URL.Query().Get("theme"); t != "" {
		return markdown.ParseTheme(t)
	}
	return s.app.Renderer.Options().Theme
}

func (s *Server) locale(r *http.Request) language.Tag {
	return s.app.Catalog.Match(r.Header.Get("Accept-Language"))
}

func toggleURL(id string) func(int) string {
	base := "/notes/" + url.PathEscape(id) + "/tasks/"
	return func(i int) string { return base + strconv.Itoa(i) + "/toggle" }
}

func assetNames(as []markdown.Asset) []string {
	out := make([]string, 0, len(as))
	for _, a := range as {
		out = append(out, a.Name)
	}
	return out
}

func (s *Server) handleNotePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	e, err := s.app.Notes.Get(ctx, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	tag, theme := s.locale(r), s.theme(r)

	start := time.Now()
	res, err := s.app.Renderer.Render(ctx, e.Body,
		markdown.ForTheme(theme),
		markdown.ForLocale(s.app.Catalog.Localizer(tag)),
		markdown.WithToggleURL(toggleURL(e.ID)),
	)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.app.Log.Rendered(e.ID, len(res.HTML), assetNames(res.Assets), time.Since(start))

	data := s.basePage(tag, theme)
	data.Title = e.Title
	data.Note = &e
	data.Body = template.HTML(res.HTML)
	data.Assets = res.Assets
	data.Updated = s.app.Catalog.Sprintf(tag, i18n.MsgUpdated, e.UpdatedAt.Local().Format("2006-01-02 15:04"))

	var buf bytes.Buffer
	if err := s.pages.execute(&buf, "note", data); err != nil {
		s.fail(w, r, err)
		return
	}
	writeTagged(w, r, "text/html; charset=utf-8", buf.Bytes())
}

// handleSearchPage is where hashtag links land. Every request bumps the
// force-query counter once so open views refetch.
func (s *Server) handleSearchPage(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("searchText")
	fq := s.app.State.BumpForceQuery()

	entries, err := s.app.Notes.SearchText(r.Context(), query, searchLimit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.app.Log.Searched(query, len(entries), fq)

	tag := s.locale(r)
	data := s.basePage(tag, s.theme(r))
	data.Title = s.app.Catalog.Sprintf(tag, i18n.MsgSearchTitle)
	data.Query = query
	data.Results = entries
	if len(entries) == 0 {
		data.Summary = s.app.Catalog.Sprintf(tag, i18n.MsgNoResults)
	} else {
		data.Summary = s.app.Catalog.Sprintf(tag, i18n.MsgResults, len(entries))
	}

	var buf bytes.Buffer
	if err := s.pages.execute(&buf, "search", data); err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	idx, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || idx < 0 {
		http.Error(w, "bad task index", http.StatusBadRequest)
		return
	}
	e, err := s.app.Notes.ToggleTask(r.Context(), id, idx)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if r.Header.Get("Accept") == "application/json" {
		writeJSON(w, http.StatusOK, e)
		return
	}
	http.Redirect(w, r, "/notes/"+url.PathEscape(e.ID), http.StatusSeeOther)
}

func (s *Server) handleCSS(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.app.Renderer.CSS(&buf, s.theme(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	writeTagged(w, r, "text/css; charset=utf-8", buf.Bytes())
}
