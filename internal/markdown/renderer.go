// Package markdown renders note bodies to HTML: goldmark with GFM, math,
// emoji shortcodes and hashtag links, plus widget dispatch for diagram,
// mind-map and chart fences.
package markdown

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2/styles"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/mithrel/notemark/pkg/api"
)

// DefaultSearchPath is where tag links point when no search path is set.
const DefaultSearchPath = "/all"

// Theme selects the light or dark presentation.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme maps a config value to a Theme, defaulting to light.
func ParseTheme(s string) Theme {
	if strings.EqualFold(strings.TrimSpace(s), string(ThemeDark)) {
		return ThemeDark
	}
	return ThemeLight
}

// CodeStyle is the chroma style used for the theme.
func (t Theme) CodeStyle() string {
	if t == ThemeDark {
		return "github-dark"
	}
	return "github"
}

// PreviewSource answers link preview lookups during a render. Lookups must
// not block on the network.
type PreviewSource interface {
	Lookup(ctx context.Context, url string) (api.LinkPreview, bool)
}

type Options struct {
	Theme      Theme
	SearchPath string
	HardWraps  bool
	Sanitize   bool
	Emoji      bool

	// CodeStyle overrides the chroma style picked from Theme.
	CodeStyle string
	Assets    map[string]Asset
	Previews  PreviewSource
	Localizer Localizer
}

type Option func(*Options)

func WithTheme(t Theme) Option             { return func(o *Options) { o.Theme = t } }
func WithSearchPath(p string) Option       { return func(o *Options) { o.SearchPath = p } }
func WithHardWraps(on bool) Option         { return func(o *Options) { o.HardWraps = on } }
func WithSanitize(on bool) Option          { return func(o *Options) { o.Sanitize = on } }
func WithEmoji(on bool) Option             { return func(o *Options) { o.Emoji = on } }
func WithCodeStyle(name string) Option     { return func(o *Options) { o.CodeStyle = name } }
func WithPreviews(p PreviewSource) Option  { return func(o *Options) { o.Previews = p } }
func WithLocalizer(l Localizer) Option     { return func(o *Options) { o.Localizer = l } }
func WithAssets(a map[string]Asset) Option { return func(o *Options) { o.Assets = a } }

// Renderer holds two configured goldmark instances: the full path used for
// stored notes and a reduced one for streamed, possibly partial, Markdown.
// It is safe for concurrent use.
type Renderer struct {
	opts    Options
	full    goldmark.Markdown
	stream  goldmark.Markdown
	widgets *widgetRegistry
	policy  *bluemonday.Policy
}

func New(opts ...Option) *Renderer {
	o := Options{Theme: ThemeLight, SearchPath: DefaultSearchPath, Emoji: true}
	for _, fn := range opts {
		fn(&o)
	}
	if o.Assets == nil {
		o.Assets = DefaultAssets()
	}
	if o.CodeStyle == "" {
		o.CodeStyle = o.Theme.CodeStyle()
	}
	if o.SearchPath == "" {
		o.SearchPath = DefaultSearchPath
	}

	r := &Renderer{opts: o, widgets: newWidgetRegistry()}

	htmlOpts := []renderer.Option{html.WithUnsafe()}
	if o.HardWraps {
		htmlOpts = append(htmlOpts, html.WithHardWraps())
	}

	exts := []goldmark.Extender{extension.GFM, &mathExtension{}, &hashtagExtension{searchPath: o.SearchPath}}
	if o.Emoji {
		exts = append(exts, emoji.Emoji)
	}
	r.full = goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithRendererOptions(append(htmlOpts,
			renderer.WithNodeRenderers(
				util.Prioritized(newCodeBlockRenderer(r.widgets, o.CodeStyle), 100),
				util.Prioritized(&linkRenderer{Config: html.NewConfig()}, 100),
				util.Prioritized(&imageRenderer{Config: html.NewConfig()}, 100),
				util.Prioritized(&listItemRenderer{}, 100),
			),
		)...),
	)

	r.stream = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(append(htmlOpts,
			renderer.WithNodeRenderers(
				util.Prioritized(newCodeBlockRenderer(nil, o.CodeStyle), 100),
			),
		)...),
	)

	if o.Sanitize {
		r.policy = sanitizePolicy()
	}
	return r
}

// Options returns the effective options.
func (r *Renderer) Options() Options { return r.opts }

// Result is a rendered document.
type Result struct {
	HTML   string   `json:"html"`
	Assets []Asset  `json:"assets"`
	Tags   []string `json:"tags"`
	Tasks  int      `json:"tasks"`
}

type renderConfig struct {
	theme     Theme
	localizer Localizer
	toggleURL func(index int) string
}

// RenderOption adjusts a single Render call.
type RenderOption func(*renderConfig)

// ForTheme overrides the renderer theme for one document.
func ForTheme(t Theme) RenderOption { return func(c *renderConfig) { c.theme = t } }

// ForLocale localizes the chrome of one document.
func ForLocale(l Localizer) RenderOption { return func(c *renderConfig) { c.localizer = l } }

// WithToggleURL makes task checkboxes interactive; fn builds the endpoint
// that toggles the task at index.
func WithToggleURL(fn func(index int) string) RenderOption {
	return func(c *renderConfig) { c.toggleURL = fn }
}

// Render runs the full path over content.
func (r *Renderer) Render(ctx context.Context, content string, opts ...RenderOption) (Result, error) {
	cfg := renderConfig{theme: r.opts.Theme, localizer: r.opts.Localizer}
	for _, fn := range opts {
		fn(&cfg)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	src := []byte(content)
	doc := r.full.Parser().Parse(text.NewReader(src))
	st := &renderState{
		ctx:       ctx,
		localizer: cfg.localizer,
		previews:  r.opts.Previews,
		toggleURL: cfg.toggleURL,
	}
	if d, ok := doc.(*ast.Document); ok {
		d.Meta()[stateKey] = st
	}

	var body bytes.Buffer
	if err := r.full.Renderer().Render(&body, src, doc); err != nil {
		return Result{}, fmt.Errorf("render markdown: %w", err)
	}
	inner := body.String()
	if r.policy != nil {
		inner = r.policy.Sanitize(inner)
	}

	res := Result{
		HTML:  wrapDocument(inner, cfg.theme),
		Tags:  collectTags(doc),
		Tasks: st.tasks,
	}
	for _, name := range st.assets {
		if a, ok := r.opts.Assets[name]; ok {
			res.Assets = append(res.Assets, a)
		}
	}
	return res, nil
}

// RenderStreaming renders Markdown that may still be arriving: GFM and plain
// code blocks only.
func (r *Renderer) RenderStreaming(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := r.stream.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render streaming markdown: %w", err)
	}
	if r.policy != nil {
		return r.policy.Sanitize(buf.String()), nil
	}
	return buf.String(), nil
}

// ToggleTask flips task index in content and hands the result to onChange.
func (r *Renderer) ToggleTask(content string, index int, onChange func(string)) (string, error) {
	ed := &TaskEditor{Content: content, OnChange: onChange}
	if err := ed.Toggle(index); err != nil {
		return content, err
	}
	return ed.Content, nil
}

// CSS writes the highlight stylesheet for theme.
func (r *Renderer) CSS(w io.Writer, theme Theme) error {
	name := r.opts.CodeStyle
	if theme != r.opts.Theme {
		name = theme.CodeStyle()
	}
	return highlightFormatter().WriteCSS(w, styles.Get(name))
}

// WidgetsLoaded reports how many widget definitions have been built.
func (r *Renderer) WidgetsLoaded() int { return r.widgets.loaded() }

func wrapDocument(inner string, theme Theme) string {
	var b strings.Builder
	b.Grow(len(inner) + 96)
	b.WriteString(`<div class="markdown-body"><div class="markdown-body content" data-markdown-theme="`)
	b.WriteString(string(theme))
	b.WriteString(`">`)
	b.WriteString(inner)
	b.WriteString(`</div></div>`)
	return b.String()
}

func sanitizePolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowDataAttributes()
	p.AllowAttrs("class", "role", "aria-label", "hidden").Globally()
	p.AllowAttrs("target").OnElements("a")
	p.AllowAttrs("loading", "decoding").OnElements("img")
	p.AllowElements("input", "button")
	p.AllowAttrs("type", "checked", "disabled").OnElements("input", "button")
	return p
}

const stateKey = "notemark.render"

// renderState is the per-document state shared by the node renderers. It
// lives in the document meta so concurrent renders never share it.
type renderState struct {
	ctx       context.Context
	localizer Localizer
	previews  PreviewSource
	toggleURL func(int) string
	assets    []string
	tasks     int
}

func stateOf(n ast.Node) *renderState {
	for p := n; p != nil; p = p.Parent() {
		if doc, ok := p.(*ast.Document); ok {
			if st, ok := doc.Meta()[stateKey].(*renderState); ok {
				return st
			}
			break
		}
	}
	return &renderState{ctx: context.Background()}
}

func useAsset(n ast.Node, name string) {
	stateOf(n).use(name)
}

func (s *renderState) use(name string) {
	for _, a := range s.assets {
		if a == name {
			return
		}
	}
	s.assets = append(s.assets, name)
}

func (s *renderState) t(key string) string { return s.localizer.t(key) }

func (s *renderState) nextTask() int {
	i := s.tasks
	s.tasks++
	return i
}

func (s *renderState) preview(url string) (api.LinkPreview, bool) {
	if s.previews == nil {
		return api.LinkPreview{}, false
	}
	return s.previews.Lookup(s.ctx, url)
}
