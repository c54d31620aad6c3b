package markdown

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// hashTagPattern accepts "#" followed by anything that is neither
// whitespace nor another "#". "#work", "#项目" and "#v1.2" match;
// "#" and "##" do not.
var hashTagPattern = regexp.MustCompile(`^#[^\s#]+$`)

// IsHashTag reports whether token is a clickable hashtag.
func IsHashTag(token string) bool {
	return strings.HasPrefix(token, "#") && len(token) > 1 && hashTagPattern.MatchString(token)
}

// Segment is one run of highlighted text. Start and Stop are byte offsets
// into the highlighted input.
type Segment struct {
	Text  string
	Tag   bool
	Start int
	Stop  int
}

// Highlighter splits text into plain runs and hashtag tokens.
type Highlighter struct {
	match func(token string) bool
}

var defaultHighlighter = &Highlighter{match: IsHashTag}

// Highlight runs the default highlighter over text.
func Highlight(text string) []Segment {
	return defaultHighlighter.Highlight(text)
}

// Highlight walks text line by line and token by token. Whitespace between
// tokens is kept verbatim, so joining the Text of every segment gives back
// the input. A panic during processing yields the input as one plain segment.
func (h *Highlighter) Highlight(text string) (segs []Segment) {
	if text == "" {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			segs = []Segment{{Text: text, Start: 0, Stop: len(text)}}
		}
	}()

	var out []Segment
	plainStart := 0
	flush := func(stop int) {
		if stop > plainStart {
			out = append(out, Segment{Text: text[plainStart:stop], Start: plainStart, Stop: stop})
		}
	}

	lineStart := 0
	for lineStart <= len(text) {
		lineEnd := strings.IndexByte(text[lineStart:], '\n')
		if lineEnd < 0 {
			lineEnd = len(text)
		} else {
			lineEnd += lineStart
		}
		for _, tok := range tokenize(text, lineStart, lineEnd) {
			word := text[tok[0]:tok[1]]
			if !h.match(word) {
				continue
			}
			flush(tok[0])
			out = append(out, Segment{Text: word, Tag: true, Start: tok[0], Stop: tok[1]})
			plainStart = tok[1]
		}
		lineStart = lineEnd + 1
	}
	flush(len(text))
	return out
}

// tokenize returns [start, stop) offsets of the whitespace separated
// tokens found in text[from:to].
func tokenize(text string, from, to int) [][2]int {
	var toks [][2]int
	start := -1
	for i := from; i < to; {
		r, size := utf8.DecodeRuneInString(text[i:])
		if unicode.IsSpace(r) {
			if start >= 0 {
				toks = append(toks, [2]int{start, i})
				start = -1
			}
		} else if start < 0 {
			start = i
		}
		i += size
	}
	if start >= 0 {
		toks = append(toks, [2]int{start, to})
	}
	return toks
}

// TagName strips the leading "#" from a hashtag token.
func TagName(token string) string {
	return strings.TrimPrefix(token, "#")
}
