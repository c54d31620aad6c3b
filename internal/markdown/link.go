package markdown

import (
	"net/url"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	"github.com/mithrel/notemark/pkg/api"
)

// linkRenderer turns links and autolinks into link-preview widgets: the
// anchor is tagged for client-side hydration and, when metadata for the
// target is cached, followed by a preview card.
type linkRenderer struct {
	html.Config
}

func (r *linkRenderer) SetOption(name renderer.OptionName, value any) {
	r.Config.SetOption(name, value)
}

func (r *linkRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindLink, r.renderLink)
	reg.Register(ast.KindAutoLink, r.renderAutoLink)
}

// safeURL escapes dest, or drops it for script-capable schemes. Raw HTML
// passthrough does not extend to Markdown link targets.
func (r *linkRenderer) safeURL(dest []byte) []byte {
	if !html.IsDangerousURL(dest) {
		return util.EscapeHTML(util.URLEscape(dest, true))
	}
	return nil
}

func (r *linkRenderer) openAnchor(w util.BufWriter, href, title []byte, preview bool) {
	_, _ = w.WriteString(`<a class="link-preview" href="`)
	_, _ = w.Write(href)
	_ = w.WriteByte('"')
	if len(title) > 0 {
		_, _ = w.WriteString(` title="`)
		_, _ = w.Write(util.EscapeHTML(title))
		_ = w.WriteByte('"')
	}
	if preview && len(href) > 0 {
		_, _ = w.WriteString(` data-link-preview="`)
		_, _ = w.Write(href)
		_ = w.WriteByte('"')
	}
	_, _ = w.WriteString(` target="_blank" rel="noopener noreferrer">`)
}

func (r *linkRenderer) renderLink(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*ast.Link)
	if entering {
		r.openAnchor(w, r.safeURL(n.Destination), n.Title, true)
		return ast.WalkContinue, nil
	}
	_, _ = w.WriteString(`</a>`)
	writePreviewCard(w, stateOf(n), string(n.Destination))
	return ast.WalkContinue, nil
}

func (r *linkRenderer) renderAutoLink(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.AutoLink)
	dest := n.URL(source)
	email := n.AutoLinkType == ast.AutoLinkEmail
	if email && !hasMailto(dest) {
		dest = append([]byte("mailto:"), dest...)
	}
	r.openAnchor(w, r.safeURL(dest), nil, !email)
	_, _ = w.Write(util.EscapeHTML(n.Label(source)))
	_, _ = w.WriteString(`</a>`)
	if !email {
		writePreviewCard(w, stateOf(n), string(dest))
	}
	return ast.WalkContinue, nil
}

func hasMailto(b []byte) bool {
	return len(b) >= 7 && string(b[:7]) == "mailto:"
}

func writePreviewCard(w util.BufWriter, st *renderState, dest string) {
	p, ok := st.preview(dest)
	if !ok || p.Empty() {
		return
	}
	_, _ = w.WriteString(`<span class="link-preview-card" role="note" aria-label="`)
	_, _ = w.Write(util.EscapeHTML([]byte(st.t(MsgOpenLink))))
	_, _ = w.WriteString(`">`)
	if p.Image != "" && !html.IsDangerousURL([]byte(p.Image)) {
		_, _ = w.WriteString(`<img class="link-preview-image" src="`)
		_, _ = w.Write(util.EscapeHTML(util.URLEscape([]byte(p.Image), true)))
		_, _ = w.WriteString(`" alt="" loading="lazy">`)
	}
	_, _ = w.WriteString(`<span class="link-preview-body">`)
	writeSpan(w, "link-preview-title", p.Title)
	writeSpan(w, "link-preview-desc", p.Description)
	writeSpan(w, "link-preview-site", siteLabel(p))
	_, _ = w.WriteString(`</span></span>`)
}

func siteLabel(p api.LinkPreview) string {
	if p.SiteName != "" {
		return p.SiteName
	}
	if u, err := url.Parse(p.URL); err == nil {
		return u.Hostname()
	}
	return ""
}

func writeSpan(w util.BufWriter, class, s string) {
	if s == "" {
		return
	}
	_, _ = w.WriteString(`<span class="` + class + `">`)
	_, _ = w.Write(util.EscapeHTML([]byte(s)))
	_, _ = w.WriteString(`</span>`)
}
