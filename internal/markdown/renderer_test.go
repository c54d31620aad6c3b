package markdown

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/notemark/pkg/api"
)

const emptyDoc = `<div class="markdown-body"><div class="markdown-body content" data-markdown-theme="light"></div></div>`

func render(t *testing.T, r *Renderer, content string, opts ...RenderOption) Result {
	t.Helper()
	res, err := r.Render(context.Background(), content, opts...)
	require.NoError(t, err)
	return res
}

func TestRenderEmpty(t *testing.T) {
	res := render(t, New(), "")
	assert.Equal(t, emptyDoc, res.HTML)
	assert.Empty(t, res.Assets)
	assert.Empty(t, res.Tags)
	assert.Zero(t, res.Tasks)
}

func TestRenderThemeWrapper(t *testing.T) {
	r := New(WithTheme(ThemeDark))
	res := render(t, r, "hi")
	assert.True(t, strings.HasPrefix(res.HTML, `<div class="markdown-body"><div class="markdown-body content" data-markdown-theme="dark">`))

	res = render(t, r, "hi", ForTheme(ThemeLight))
	assert.Contains(t, res.HTML, `data-markdown-theme="light"`)
}

func TestRenderHashtags(t *testing.T) {
	res := render(t, New(), "todo #work today\n\n# heading #nope\n\n[#inlink](https://example.com)")
	assert.Contains(t, res.HTML, `<a class="tag-link" href="/all?searchText=%23work" data-tag="work">#work</a>`)
	assert.Contains(t, res.HTML, "todo ")
	assert.Contains(t, res.HTML, " today")
	assert.NotContains(t, res.HTML, `data-tag="nope"`)
	assert.NotContains(t, res.HTML, `data-tag="inlink"`)
	assert.Equal(t, []string{"work"}, res.Tags)
}

func TestRenderLoneHash(t *testing.T) {
	res := render(t, New(), "a # b")
	assert.NotContains(t, res.HTML, "tag-link")
	assert.Contains(t, res.HTML, "<p>a # b</p>")
}

func TestRenderTextWithoutHash(t *testing.T) {
	res := render(t, New(), "just words")
	assert.Contains(t, res.HTML, "<p>just words</p>")
}

func TestRenderSearchPath(t *testing.T) {
	res := render(t, New(WithSearchPath("/search")), "#go")
	assert.Contains(t, res.HTML, `href="/search?searchText=%23go"`)
}

func TestRenderMermaidWidget(t *testing.T) {
	r := New()
	assert.Zero(t, r.WidgetsLoaded())

	res := render(t, r, "```mermaid\ngraph TD; A-->B\n```\n")
	assert.Contains(t, res.HTML, `data-widget="mermaid"`)
	assert.Contains(t, res.HTML, `graph TD; A--&gt;B`)
	assert.NotContains(t, res.HTML, "code-block")
	require.Len(t, res.Assets, 1)
	assert.Equal(t, AssetMermaid, res.Assets[0].Name)
	assert.Equal(t, 1, r.WidgetsLoaded())

	// Same widget again does not rebuild it.
	render(t, r, "```mermaid\ngraph LR; X-->Y\n```\n")
	assert.Equal(t, 1, r.WidgetsLoaded())
}

func TestRenderWidgetDispatch(t *testing.T) {
	r := New()
	res := render(t, r, "```mindmap\n# root\n## child\n```\n\n```echarts\n\n  {\"series\": []}  \n\n```\n")
	assert.Contains(t, res.HTML, `data-widget="mindmap"`)
	assert.Contains(t, res.HTML, `data-widget="echarts"`)
	assert.Contains(t, res.HTML, `<pre class="widget-source" hidden>{&#34;series&#34;: []}</pre>`)

	names := make([]string, 0, len(res.Assets))
	for _, a := range res.Assets {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{AssetMarkmap, AssetECharts}, names)
	assert.Equal(t, 2, r.WidgetsLoaded())
}

func TestRenderCodeBlock(t *testing.T) {
	r := New()
	res := render(t, r, "```go\npackage main\n```\n\n```nosuchlang\n<x>\n```\n")
	assert.Contains(t, res.HTML, `<div class="code-block" data-language="go">`)
	assert.Contains(t, res.HTML, `class="chroma"`)
	assert.Contains(t, res.HTML, `<pre><code class="language-nosuchlang">&lt;x&gt;`)
	assert.Contains(t, res.HTML, `<button type="button" class="code-copy">Copy</button>`)
	assert.Empty(t, res.Assets)
	assert.Zero(t, r.WidgetsLoaded())
}

func TestRenderMath(t *testing.T) {
	res := render(t, New(), "inline $a<b$ costs $5 and $6\n\n$$\nx^2\n$$\n")
	assert.Contains(t, res.HTML, `<span class="math math-inline">a&lt;b</span>`)
	assert.Contains(t, res.HTML, "costs $5 and $6")
	assert.Contains(t, res.HTML, `<div class="math math-display">x^2`)
	require.Len(t, res.Assets, 1)
	assert.Equal(t, AssetKaTeX, res.Assets[0].Name)
}

func TestRenderUnterminatedMath(t *testing.T) {
	res := render(t, New(), "price $x")
	assert.Contains(t, res.HTML, "price $x")
	assert.Empty(t, res.Assets)
}

type stubPreviews map[string]api.LinkPreview

func (s stubPreviews) Lookup(_ context.Context, url string) (api.LinkPreview, bool) {
	p, ok := s[url]
	return p, ok
}

func TestRenderLinkPreview(t *testing.T) {
	r := New(WithPreviews(stubPreviews{
		"https://go.dev": {URL: "https://go.dev", Title: "The Go Programming Language", SiteName: "go.dev"},
	}))
	res := render(t, r, "[go](https://go.dev) and https://other.example")
	assert.Contains(t, res.HTML, `<a class="link-preview" href="https://go.dev" data-link-preview="https://go.dev" target="_blank" rel="noopener noreferrer">go</a>`)
	assert.Contains(t, res.HTML, `<span class="link-preview-title">The Go Programming Language</span>`)
	assert.Contains(t, res.HTML, `data-link-preview="https://other.example"`)
	assert.Equal(t, 1, strings.Count(res.HTML, "link-preview-card"))
}

func TestRenderDangerousLink(t *testing.T) {
	res := render(t, New(), "[x](javascript:alert(1))")
	assert.NotContains(t, res.HTML, "javascript:")
}

func TestRenderImage(t *testing.T) {
	res := render(t, New(), `![a *cat*](https://img.example/cat.png "Cat")`)
	assert.Contains(t, res.HTML, `<span class="image-wrapper"><a class="image-preview" href="https://img.example/cat.png"`)
	assert.Contains(t, res.HTML, `alt="a cat" title="Cat" loading="lazy" decoding="async">`)
}

func TestRenderTaskList(t *testing.T) {
	content := "- [ ] one\n- plain\n- [x] two\n"
	res := render(t, New(), content, WithToggleURL(func(i int) string {
		return "/notes/n1/tasks/" + strconv.Itoa(i) + "/toggle"
	}))
	assert.Equal(t, 2, res.Tasks)
	assert.Contains(t, res.HTML, `<li class="list-item task-item" data-task-index="0">`)
	assert.Contains(t, res.HTML, `<li class="list-item">plain</li>`)
	assert.Contains(t, res.HTML, `data-task-index="1" data-toggle-url="/notes/n1/tasks/1/toggle" checked=""`)
	assert.NotContains(t, res.HTML, `disabled=""`)

	res = render(t, New(), content)
	assert.Equal(t, 2, strings.Count(res.HTML, `disabled=""`))
}

func TestRenderLocalizer(t *testing.T) {
	l := Localizer(func(key string) string {
		if key == MsgCopy {
			return "Kopieren"
		}
		return ""
	})
	res := render(t, New(), "```go\nx\n```\n```mermaid\ny\n```", ForLocale(l))
	assert.Contains(t, res.HTML, ">Kopieren</button>")
	assert.Contains(t, res.HTML, `aria-label="Loading..."`)
}

func TestRenderRawHTMLAndSanitize(t *testing.T) {
	content := "<b>bold</b>\n\n<script>alert(1)</script>\n"
	res := render(t, New(), content)
	assert.Contains(t, res.HTML, "<script>")

	res = render(t, New(WithSanitize(true)), content+"\n#tag")
	assert.NotContains(t, res.HTML, "<script>")
	assert.Contains(t, res.HTML, "<b>bold</b>")
	assert.Contains(t, res.HTML, `class="tag-link"`)
}

func TestRenderEmoji(t *testing.T) {
	res := render(t, New(), "ship it :rocket:")
	assert.NotContains(t, res.HTML, ":rocket:")

	res = render(t, New(WithEmoji(false)), "ship it :rocket:")
	assert.Contains(t, res.HTML, ":rocket:")
}

func TestRenderStreaming(t *testing.T) {
	r := New()
	out, err := r.RenderStreaming("partial #tag $x$\n\n```mermaid\ngraph\n")
	require.NoError(t, err)
	assert.NotContains(t, out, "tag-link")
	assert.NotContains(t, out, "data-widget")
	assert.NotContains(t, out, "math-inline")
	assert.Contains(t, out, `<div class="code-block" data-language="mermaid">`)
	assert.Zero(t, r.WidgetsLoaded())

	out, err = r.RenderStreaming("")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRenderConcurrent(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := r.Render(context.Background(), "- [ ] a\n- [ ] b\n\n```mermaid\nx\n```")
			assert.NoError(t, err)
			assert.Equal(t, 2, res.Tasks)
			assert.Len(t, res.Assets, 1)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, r.WidgetsLoaded())
}

func TestCSS(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New().CSS(&buf, ThemeDark))
	assert.Contains(t, buf.String(), ".chroma")
}

func TestRendererToggleTask(t *testing.T) {
	var got string
	out, err := New().ToggleTask("- [ ] a\n", 0, func(s string) { got = s })
	require.NoError(t, err)
	assert.Equal(t, "- [x] a\n", out)
	assert.Equal(t, out, got)
}

func TestRenderHashtagInTightList(t *testing.T) {
	res := render(t, New(), "- [ ] milk #home\n- eggs\n")
	assert.Contains(t, res.HTML, `data-tag="home"`)
	assert.Equal(t, []string{"home"}, res.Tags)
}

func TestRenderDropsScriptURLs(t *testing.T) {
	res := render(t, New(), "![pic](javascript:alert(1)) [y](vbscript:msgbox) [ok](https://go.dev)")
	assert.NotContains(t, res.HTML, "javascript:")
	assert.NotContains(t, res.HTML, "vbscript:")
	assert.Contains(t, res.HTML, `href="https://go.dev" data-link-preview="https://go.dev"`)
}

func TestRenderHashtagNeedsWholeToken(t *testing.T) {
	tests := []struct {
		in   string
		tags []string
	}{
		{"foo_#bar", nil},
		{"a*#b", nil},
		{"[#x] #y", []string{"y"}},
		{"emphasis *#inner* stays", nil},
		{"#snake_case and #kebab-case", []string{"snake_case", "kebab-case"}},
		{"line one #first\n#second line", []string{"first", "second"}},
	}
	for _, tc := range tests {
		res := render(t, New(), tc.in)
		if tc.tags == nil {
			assert.Empty(t, res.Tags, tc.in)
			assert.NotContains(t, res.HTML, "tag-link", tc.in)
			continue
		}
		assert.Equal(t, tc.tags, res.Tags, tc.in)
	}

	res := render(t, New(), "[#x] #y")
	assert.Contains(t, res.HTML, "[#x] ")
	assert.NotContains(t, res.HTML, "%5D")
}

func TestRenderInlineCode(t *testing.T) {
	res := render(t, New(), "run `go <test>` now")
	assert.Contains(t, res.HTML, `<p>run <code class="code-inline">go &lt;test&gt;</code> now</p>`)

	out, err := New().RenderStreaming("`x`")
	require.NoError(t, err)
	assert.Contains(t, out, `<code class="code-inline">x</code>`)
}
