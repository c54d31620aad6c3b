package util

import (
	"github.com/agnivade/levenshtein"
	"github.com/sahilm/fuzzy"
)

// ScoreCompletions returns the top n fuzzy matches for input, best first.
// An empty input returns the candidates unchanged.
func ScoreCompletions(input string, candidates []string, n int) []string {
	if input == "" {
		if n > 0 && len(candidates) > n {
			return candidates[:n]
		}
		return candidates
	}
	matches := fuzzy.Find(input, candidates)
	if len(matches) == 0 {
		return nil
	}

	limit := n
	if n <= 0 || len(matches) < limit {
		limit = len(matches)
	}

	out := make([]string, limit)
	for i := 0; i < limit; i++ {
		out[i] = matches[i].Str
	}
	return out
}

// Closest returns the candidate with the smallest edit distance to input.
// Ties go to the earlier candidate. ok is false when candidates is empty.
func Closest(input string, candidates []string) (best string, dist int, ok bool) {
	for i, c := range candidates {
		d := levenshtein.ComputeDistance(input, c)
		if i == 0 || d < dist {
			best, dist = c, d
		}
	}
	return best, dist, len(candidates) > 0
}
