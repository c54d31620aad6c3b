package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func joinSegments(segs []Segment) string {
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.Text)
	}
	return b.String()
}

func TestIsHashTag(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"#work", true},
		{"#项目", true},
		{"#v1.2", true},
		{"#", false},
		{"##", false},
		{"#a#b", false},
		{"work", false},
		{"", false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, IsHashTag(tc.in), tc.in)
	}
}

func TestHighlightWithoutHashIsUnchanged(t *testing.T) {
	in := "plain text\n  with  spacing\tand tabs\n\nand lines"
	segs := Highlight(in)
	require.Len(t, segs, 1)
	assert.False(t, segs[0].Tag)
	assert.Equal(t, in, joinSegments(segs))
}

func TestHighlightTags(t *testing.T) {
	in := "plan #work and #home\nnext #"
	segs := Highlight(in)
	assert.Equal(t, in, joinSegments(segs))

	var tags []string
	for _, s := range segs {
		if s.Tag {
			tags = append(tags, s.Text)
			assert.Equal(t, s.Text, in[s.Start:s.Stop])
		}
	}
	assert.Equal(t, []string{"#work", "#home"}, tags)
}

func TestHighlightLoneHashStaysPlain(t *testing.T) {
	segs := Highlight("# not a tag")
	require.Len(t, segs, 1)
	assert.False(t, segs[0].Tag)
}

func TestHighlightRecoversFromPanic(t *testing.T) {
	h := &Highlighter{match: func(string) bool { panic("boom") }}
	in := "a #tag b"
	var segs []Segment
	require.NotPanics(t, func() { segs = h.Highlight(in) })
	require.Len(t, segs, 1)
	assert.Equal(t, in, segs[0].Text)
	assert.False(t, segs[0].Tag)
}

func TestHighlightEmpty(t *testing.T) {
	assert.Empty(t, Highlight(""))
}

func TestSearchHref(t *testing.T) {
	assert.Equal(t, "/all?searchText=%23work", SearchHref("", "#work"))
	assert.Equal(t, "/search?searchText=%23a%26b", SearchHref("/search", "#a&b"))
}

func TestExtractTags(t *testing.T) {
	content := "# Heading #skip\n\nSome #Work and #work and #home.\n\n`#code` [#link](http://x) $#math$\n\n```\n#fenced\n```\n"
	assert.Equal(t, []string{"Work", "home."}, ExtractTags(content))
	assert.Nil(t, ExtractTags("no tags here"))
}

func TestExtractLinks(t *testing.T) {
	content := "see [a](https://a.example) and https://b.example/x and [rel](/local) and [a again](https://a.example)"
	assert.Equal(t, []string{"https://a.example", "https://b.example/x"}, ExtractLinks(content))
}

func TestExtractTagsIgnoresGluedTokens(t *testing.T) {
	assert.Empty(t, ExtractTags("foo_#bar a*#b [#x]"))
	assert.Equal(t, []string{"y"}, ExtractTags("[#x] #y"))
}
