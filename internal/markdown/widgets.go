package markdown

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"sync"
)

// Asset is a client-side module a rendered document depends on.
type Asset struct {
	Name   string `json:"name"`
	Script string `json:"script,omitempty"`
	Style  string `json:"style,omitempty"`
}

const (
	AssetMermaid = "mermaid"
	AssetMarkmap = "markmap"
	AssetECharts = "echarts"
	AssetKaTeX   = "katex"
)

// DefaultAssets points at public CDN builds. Override them with
// WithAssets to self-host.
func DefaultAssets() map[string]Asset {
	return map[string]Asset{
		AssetMermaid: {Name: AssetMermaid, Script: "https://cdn.jsdelivr.net/npm/mermaid@11/dist/mermaid.min.js"},
		AssetMarkmap: {Name: AssetMarkmap, Script: "https://cdn.jsdelivr.net/npm/markmap-autoloader@0.17"},
		AssetECharts: {Name: AssetECharts, Script: "https://cdn.jsdelivr.net/npm/echarts@5/dist/echarts.min.js"},
		AssetKaTeX: {
			Name:   AssetKaTeX,
			Script: "https://cdn.jsdelivr.net/npm/katex@0.16/dist/katex.min.js",
			Style:  "https://cdn.jsdelivr.net/npm/katex@0.16/dist/katex.min.css",
		},
	}
}

// widgetView is what a widget template receives.
type widgetView struct {
	Name    string
	Source  string
	Loading string
}

// widget is a loaded code-fence widget.
type widget struct {
	name  string
	asset string
	trim  bool
	tmpl  *template.Template
}

func (w *widget) render(buf *bytes.Buffer, source, loading string) error {
	if w.trim {
		source = strings.TrimSpace(source)
	}
	return w.tmpl.Execute(buf, widgetView{Name: w.name, Source: source, Loading: loading})
}

// lazyWidget defers building a widget until a document first needs it.
type lazyWidget struct {
	once sync.Once
	load func() (*widget, error)
	w    *widget
	err  error
}

func (l *lazyWidget) get() (*widget, error) {
	l.once.Do(func() { l.w, l.err = l.load() })
	return l.w, l.err
}

const widgetShell = `<div class="widget widget-{{.Name}}" data-widget="{{.Name}}" data-state="loading">` +
	`<div class="skeleton w-full h-[40px]" role="status" aria-label="{{.Loading}}"></div>` +
	`<pre class="widget-source" hidden>{{.Source}}</pre></div>`

// widgetRegistry maps fence languages to lazily loaded widgets.
type widgetRegistry struct {
	mu      sync.Mutex
	widgets map[string]*lazyWidget
	loads   int
}

func newWidgetRegistry() *widgetRegistry {
	r := &widgetRegistry{widgets: make(map[string]*lazyWidget)}
	r.register(AssetMermaid, AssetMermaid, false)
	r.register("mindmap", AssetMarkmap, false)
	r.register(AssetECharts, AssetECharts, true)
	return r
}

func (r *widgetRegistry) register(lang, asset string, trim bool) {
	r.widgets[lang] = &lazyWidget{load: func() (*widget, error) {
		r.mu.Lock()
		r.loads++
		r.mu.Unlock()
		t, err := template.New(lang).Parse(widgetShell)
		if err != nil {
			return nil, fmt.Errorf("widget %s: %w", lang, err)
		}
		return &widget{name: lang, asset: asset, trim: trim, tmpl: t}, nil
	}}
}

// lookup returns the widget for lang, loading it on first use. ok is false
// for languages that are not widgets.
func (r *widgetRegistry) lookup(lang string) (w *widget, ok bool, err error) {
	lw, ok := r.widgets[lang]
	if !ok {
		return nil, false, nil
	}
	w, err = lw.get()
	return w, true, err
}

// loaded reports how many widgets have been built so far.
func (r *widgetRegistry) loaded() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loads
}
