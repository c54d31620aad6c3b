package notes

import (
	"context"
	"strings"

	"github.com/mithrel/notemark/internal/markdown"
	"github.com/mithrel/notemark/internal/util"
	"github.com/mithrel/notemark/pkg/api"
)

// Query is a parsed search box input.
type Query struct {
	Tags  []string
	Words []string
}

// ParseQuery splits text into #tag tokens and plain words.
func ParseQuery(text string) Query {
	var q Query
	for _, tok := range strings.Fields(text) {
		if markdown.IsHashTag(tok) {
			q.Tags = append(q.Tags, tok)
			continue
		}
		q.Words = append(q.Words, tok)
	}
	q.Tags = normalizeTags(q.Tags)
	return q
}

func (q Query) Empty() bool { return len(q.Tags) == 0 && len(q.Words) == 0 }

// SearchText answers the search box. Every #tag narrows the result to
// notes carrying it; the remaining words run as a full-text query. Blank
// input lists everything.
func (s *Service) SearchText(ctx context.Context, text string, limit int) ([]api.Entry, error) {
	q := ParseQuery(text)
	if len(q.Words) == 0 {
		out, _, err := s.List(ctx, api.ListQuery{All: q.Tags, Limit: limit})
		return out, err
	}
	out, _, err := s.store.Entries.Search(ctx, api.SearchQuery{
		Namespace: s.namespace,
		Query:     strings.Join(q.Words, " "),
		All:       q.Tags,
		Limit:     limit,
	})
	return out, err
}

// SuggestTags ranks known tags against input with fuzzy matching. When
// nothing matches fuzzily the single closest tag by edit distance is
// returned, so a typo still gets an answer.
func (s *Service) SuggestTags(ctx context.Context, input string, n int) ([]string, error) {
	stats, err := s.Tags(ctx, "", 0)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(stats))
	for _, t := range stats {
		names = append(names, t.Tag)
	}
	input = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(input), "#"))
	if out := util.ScoreCompletions(input, names, n); len(out) > 0 {
		return out, nil
	}
	if best, _, ok := util.Closest(input, names); ok {
		return []string{best}, nil
	}
	return nil, nil
}
