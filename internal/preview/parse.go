package preview

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mithrel/notemark/pkg/api"
)

// Parse extracts preview metadata from an HTML page served at base.
// Open Graph properties win over plain HTML fallbacks.
func Parse(base *url.URL, r io.Reader) (api.LinkPreview, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return api.LinkPreview{}, fmt.Errorf("parse html: %w", err)
	}
	p := api.LinkPreview{URL: base.String()}

	p.Title = first(
		metaContent(doc, "meta[property='og:title']"),
		metaContent(doc, "meta[name='twitter:title']"),
		doc.Find("head title").First().Text(),
		doc.Find("h1").First().Text(),
	)
	p.Description = first(
		metaContent(doc, "meta[property='og:description']"),
		metaContent(doc, "meta[name='description']"),
		metaContent(doc, "meta[name='twitter:description']"),
	)
	p.SiteName = first(metaContent(doc, "meta[property='og:site_name']"))
	p.Image = resolve(base, first(
		metaContent(doc, "meta[property='og:image']"),
		metaContent(doc, "meta[name='twitter:image']"),
	))

	icon := ""
	doc.Find("link[rel]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		rel := strings.ToLower(s.AttrOr("rel", ""))
		if rel == "icon" || rel == "shortcut icon" || rel == "apple-touch-icon" {
			icon = s.AttrOr("href", "")
			return icon == ""
		}
		return true
	})
	if icon == "" {
		icon = "/favicon.ico"
	}
	p.Favicon = resolve(base, icon)
	return p, nil
}

func metaContent(doc *goquery.Document, selector string) string {
	v, _ := doc.Find(selector).First().Attr("content")
	return v
}

// first returns the first candidate that is not blank, with whitespace
// collapsed.
func first(candidates ...string) string {
	for _, c := range candidates {
		if c = strings.Join(strings.Fields(c), " "); c != "" {
			return c
		}
	}
	return ""
}

func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(u)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	return abs.String()
}
