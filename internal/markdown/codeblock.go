package markdown

import (
	"bytes"
	"io"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// codeBlockRenderer dispatches fenced code: widget languages go to their
// widget, everything else to a highlighted code block. With widgets == nil
// every fence is a plain code block.
type codeBlockRenderer struct {
	html.Config
	widgets   *widgetRegistry
	formatter *chromahtml.Formatter
	style     *chroma.Style
}

func newCodeBlockRenderer(widgets *widgetRegistry, styleName string) *codeBlockRenderer {
	return &codeBlockRenderer{
		Config:    html.NewConfig(),
		widgets:   widgets,
		formatter: highlightFormatter(),
		style:     styles.Get(styleName),
	}
}

func highlightFormatter() *chromahtml.Formatter {
	return chromahtml.New(
		chromahtml.WithClasses(true),
		chromahtml.TabWidth(4),
	)
}

func (r *codeBlockRenderer) SetOption(name renderer.OptionName, value any) {
	r.Config.SetOption(name, value)
}

func (r *codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFenced)
	reg.Register(ast.KindCodeBlock, r.renderIndented)
	reg.Register(ast.KindCodeSpan, r.renderInline)
}

func (r *codeBlockRenderer) renderFenced(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	fb := n.(*ast.FencedCodeBlock)
	lang := string(fb.Language(source))
	code := codeText(n, source)

	if r.widgets != nil {
		wd, ok, err := r.widgets.lookup(lang)
		if ok && err == nil {
			var buf bytes.Buffer
			if err := wd.render(&buf, code, stateOf(n).t(MsgLoading)); err == nil {
				useAsset(n, wd.asset)
				_, _ = w.Write(buf.Bytes())
				_ = w.WriteByte('\n')
				return ast.WalkSkipChildren, nil
			}
		}
	}
	r.writeCode(w, n, lang, code)
	return ast.WalkSkipChildren, nil
}

func (r *codeBlockRenderer) renderIndented(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		r.writeCode(w, n, "", codeText(n, source))
	}
	return ast.WalkSkipChildren, nil
}

// renderInline writes a code span with the inline code class. Line endings
// inside the span become spaces.
func (r *codeBlockRenderer) renderInline(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	_, _ = w.WriteString(`<code class="code-inline">`)
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		var value []byte
		switch t := c.(type) {
		case *ast.Text:
			value = t.Segment.Value(source)
		case *ast.String:
			value = t.Value
		default:
			continue
		}
		value = bytes.ReplaceAll(value, []byte("\n"), []byte(" "))
		_, _ = w.Write(util.EscapeHTML(value))
	}
	_, _ = w.WriteString(`</code>`)
	return ast.WalkSkipChildren, nil
}

func (r *codeBlockRenderer) writeCode(w util.BufWriter, n ast.Node, lang, code string) {
	_, _ = w.WriteString(`<div class="code-block"`)
	if lang != "" {
		_, _ = w.WriteString(` data-language="`)
		_, _ = w.Write(util.EscapeHTML([]byte(lang)))
		_ = w.WriteByte('"')
	}
	_, _ = w.WriteString(`><button type="button" class="code-copy">`)
	_, _ = w.Write(util.EscapeHTML([]byte(stateOf(n).t(MsgCopy))))
	_, _ = w.WriteString(`</button>`)
	if !r.highlight(w, lang, code) {
		_, _ = w.WriteString(`<pre><code`)
		if lang != "" {
			_, _ = w.WriteString(` class="language-`)
			_, _ = w.Write(util.EscapeHTML([]byte(lang)))
			_ = w.WriteByte('"')
		}
		_ = w.WriteByte('>')
		_, _ = w.Write(util.EscapeHTML([]byte(code)))
		_, _ = w.WriteString(`</code></pre>`)
	}
	_, _ = w.WriteString("</div>\n")
}

// highlight writes chroma markup for a known language. It reports false
// when the language is unknown or tokenising fails.
func (r *codeBlockRenderer) highlight(w io.Writer, lang, code string) bool {
	if lang == "" {
		return false
	}
	lexer := lexers.Get(lang)
	if lexer == nil {
		return false
	}
	it, err := chroma.Coalesce(lexer).Tokenise(nil, code)
	if err != nil {
		return false
	}
	var buf bytes.Buffer
	if err := r.formatter.Format(&buf, r.style, it); err != nil {
		return false
	}
	_, _ = w.Write(buf.Bytes())
	return true
}

func codeText(n ast.Node, source []byte) string {
	var b bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		b.Write(line.Value(source))
	}
	return b.String()
}
