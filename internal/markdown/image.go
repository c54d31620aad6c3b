package markdown

import (
	"bytes"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// imageRenderer wraps every image in a preview anchor and defers loading.
type imageRenderer struct {
	html.Config
}

func (r *imageRenderer) SetOption(name renderer.OptionName, value any) {
	r.Config.SetOption(name, value)
}

func (r *imageRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindImage, r.renderImage)
}

func (r *imageRenderer) renderImage(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.Image)
	var src []byte
	if !html.IsDangerousURL(n.Destination) {
		src = util.EscapeHTML(util.URLEscape(n.Destination, true))
	}

	_, _ = w.WriteString(`<span class="image-wrapper"><a class="image-preview" href="`)
	_, _ = w.Write(src)
	_, _ = w.WriteString(`" target="_blank" rel="noopener" aria-label="`)
	_, _ = w.Write(util.EscapeHTML([]byte(stateOf(n).t(MsgPreviewImage))))
	_, _ = w.WriteString(`"><img src="`)
	_, _ = w.Write(src)
	_, _ = w.WriteString(`" alt="`)
	_, _ = w.Write(util.EscapeHTML(altText(n, source)))
	_ = w.WriteByte('"')
	if n.Title != nil {
		_, _ = w.WriteString(` title="`)
		_, _ = w.Write(util.EscapeHTML(n.Title))
		_ = w.WriteByte('"')
	}
	_, _ = w.WriteString(` loading="lazy" decoding="async"></a></span>`)
	return ast.WalkSkipChildren, nil
}

// altText flattens the inline children of an image into plain text.
func altText(n ast.Node, source []byte) []byte {
	var b bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(source))
		case *ast.String:
			b.Write(t.Value)
		default:
			b.Write(altText(c, source))
		}
	}
	return b.Bytes()
}
