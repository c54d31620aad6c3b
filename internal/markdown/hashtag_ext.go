package markdown

import (
	"net/url"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// KindTagLink is the node kind of a hashtag link.
var KindTagLink = ast.NewNodeKind("TagLink")

// TagLink is an inline hashtag such as "#work". Segment covers the whole
// token including the "#".
type TagLink struct {
	ast.BaseInline
	Segment text.Segment
	Name    string
}

// NewTagLink returns a TagLink for the token at seg.
func NewTagLink(seg text.Segment, name string) *TagLink {
	return &TagLink{Segment: seg, Name: name}
}

func (n *TagLink) Kind() ast.NodeKind { return KindTagLink }

func (n *TagLink) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Name": n.Name}, nil)
}

// SearchHref builds the search view URL filtering by the given hashtag token.
func SearchHref(searchPath, token string) string {
	if searchPath == "" {
		searchPath = DefaultSearchPath
	}
	return searchPath + "?searchText=" + url.QueryEscape(token)
}

type hashtagExtension struct {
	searchPath string
}

func (e *hashtagExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(&hashtagTransformer{}, 500),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&tagLinkRenderer{searchPath: e.searchPath}, 500),
	))
}

type hashtagTransformer struct{}

// Transform replaces the text nodes of paragraphs with plain text and
// TagLink runs. Text inside links, images, code spans and math is left alone.
func (t *hashtagTransformer) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	source := reader.Source()
	var targets []*ast.Text
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindHeading, ast.KindFencedCodeBlock, ast.KindCodeBlock, ast.KindHTMLBlock,
			ast.KindLink, ast.KindAutoLink, ast.KindImage, ast.KindCodeSpan, ast.KindRawHTML,
			KindInlineMath, KindMathBlock:
			return ast.WalkSkipChildren, nil
		case ast.KindText:
			if tn := n.(*ast.Text); !tn.IsRaw() && inParagraph(tn) {
				targets = append(targets, tn)
			}
		}
		return ast.WalkContinue, nil
	})
	for _, tn := range targets {
		if tn.Parent() == nil {
			continue // absorbed by a preceding node
		}
		absorbAdjacent(tn)
		splitTags(tn, source)
	}
}

// absorbAdjacent merges the plain text siblings that continue tn in the
// source. The inline parser cuts text at delimiter characters such as '_',
// '*' and '[' even when they end up literal, and a token must be judged
// whole.
func absorbAdjacent(tn *ast.Text) {
	for !tn.SoftLineBreak() && !tn.HardLineBreak() {
		next, ok := tn.NextSibling().(*ast.Text)
		if !ok || next.IsRaw() || next.Segment.Padding != 0 || next.Segment.Start != tn.Segment.Stop {
			return
		}
		tn.Segment = tn.Segment.WithStop(next.Segment.Stop)
		tn.SetSoftLineBreak(next.SoftLineBreak())
		tn.SetHardLineBreak(next.HardLineBreak())
		tn.Parent().RemoveChild(tn.Parent(), next)
	}
}

// tokenBounded reports whether source[start:stop] is a whole
// whitespace-separated token of its block: the bytes around it are
// whitespace, a line edge, or the edge of the source.
func tokenBounded(source []byte, start, stop int, lineStarts map[int]bool, atBreak bool) bool {
	before := start == 0 || lineStarts[start] || isSpace(source[start-1])
	after := stop >= len(source) || atBreak || isSpace(source[stop])
	return before && after
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == '\v'
}

func blockLineStarts(n ast.Node) map[int]bool {
	starts := map[int]bool{}
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Kind() != ast.KindParagraph && p.Kind() != ast.KindTextBlock {
			continue
		}
		lines := p.Lines()
		for i := 0; i < lines.Len(); i++ {
			starts[lines.At(i).Start] = true
		}
		break
	}
	return starts
}

// inParagraph also accepts the text block of a tight list item.
func inParagraph(n ast.Node) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		switch p.Kind() {
		case ast.KindParagraph, ast.KindTextBlock:
			return true
		case ast.KindDocument:
			return false
		}
	}
	return false
}

func splitTags(tn *ast.Text, source []byte) {
	value := string(tn.Segment.Value(source))
	if !strings.Contains(value, "#") {
		return
	}
	base := tn.Segment.Start
	segs := Highlight(value)
	lineStarts := blockLineStarts(tn)
	tagged := false
	for i, s := range segs {
		if !s.Tag {
			continue
		}
		stop := base + s.Stop
		atBreak := stop == tn.Segment.Stop && (tn.SoftLineBreak() || tn.HardLineBreak())
		if !tokenBounded(source, base+s.Start, stop, lineStarts, atBreak) {
			segs[i].Tag = false
			continue
		}
		tagged = true
	}
	if !tagged {
		return
	}

	parent := tn.Parent()
	var last ast.Node
	for _, s := range segs {
		seg := text.NewSegment(base+s.Start, base+s.Stop)
		var node ast.Node
		if s.Tag {
			node = NewTagLink(seg, TagName(s.Text))
		} else {
			node = ast.NewTextSegment(seg)
		}
		parent.InsertBefore(parent, tn, node)
		last = node
	}

	soft, hard := tn.SoftLineBreak(), tn.HardLineBreak()
	if soft || hard {
		lt, ok := last.(*ast.Text)
		if !ok {
			lt = ast.NewTextSegment(text.NewSegment(tn.Segment.Stop, tn.Segment.Stop))
			parent.InsertBefore(parent, tn, lt)
		}
		lt.SetSoftLineBreak(soft)
		lt.SetHardLineBreak(hard)
	}
	parent.RemoveChild(parent, tn)
}

type tagLinkRenderer struct {
	searchPath string
}

func (r *tagLinkRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindTagLink, r.render)
}

func (r *tagLinkRenderer) render(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	tl := n.(*TagLink)
	token := tl.Segment.Value(source)
	_, _ = w.WriteString(`<a class="tag-link" href="`)
	_, _ = w.Write(util.EscapeHTML([]byte(SearchHref(r.searchPath, string(token)))))
	_, _ = w.WriteString(`" data-tag="`)
	_, _ = w.Write(util.EscapeHTML([]byte(tl.Name)))
	_, _ = w.WriteString(`">`)
	_, _ = w.Write(util.EscapeHTML(token))
	_, _ = w.WriteString(`</a>`)
	return ast.WalkSkipChildren, nil
}
