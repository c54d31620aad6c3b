package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// scanner parses without rendering; it sees the same tags and links the
// full renderer does.
var scanner = goldmark.New(goldmark.WithExtensions(
	extension.GFM, &mathExtension{}, &hashtagExtension{},
))

// ExtractTags returns the hashtags of content without their "#", in order
// of first appearance. Duplicates differing only in case are dropped.
func ExtractTags(content string) []string {
	if !strings.Contains(content, "#") {
		return nil
	}
	doc := scanner.Parser().Parse(text.NewReader([]byte(content)))
	return collectTags(doc)
}

// ExtractLinks returns the distinct http(s) link targets of content.
func ExtractLinks(content string) []string {
	src := []byte(content)
	doc := scanner.Parser().Parse(text.NewReader(src))
	var out []string
	seen := map[string]bool{}
	add := func(u string) {
		lu := strings.ToLower(u)
		if !strings.HasPrefix(lu, "http://") && !strings.HasPrefix(lu, "https://") {
			return
		}
		if !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Link:
			add(string(v.Destination))
		case *ast.AutoLink:
			if v.AutoLinkType == ast.AutoLinkURL {
				add(string(v.URL(src)))
			}
		}
		return ast.WalkContinue, nil
	})
	return out
}

func collectTags(doc ast.Node) []string {
	var tags []string
	seen := map[string]bool{}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if tl, ok := n.(*TagLink); ok {
			key := strings.ToLower(tl.Name)
			if !seen[key] {
				seen[key] = true
				tags = append(tags, tl.Name)
			}
		}
		return ast.WalkContinue, nil
	})
	return tags
}
