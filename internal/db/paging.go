package db

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/mithrel/notemark/pkg/api"
)

// cursor is the keyset position of an entry: creation time, then id.
type cursor struct {
	at time.Time
	id string
}

func cursorOf(e api.Entry) string {
	return e.CreatedAt.UTC().Format(time.RFC3339Nano) + "|" + e.ID
}

// decodeCursor reports false for empty or malformed tokens, which then
// start from the first page.
func decodeCursor(s string) (cursor, bool) {
	ts, id, ok := strings.Cut(strings.TrimSpace(s), "|")
	if !ok {
		return cursor{}, false
	}
	at, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return cursor{}, false
	}
	if id = strings.TrimSpace(id); id == "" {
		return cursor{}, false
	}
	return cursor{at: at, id: id}, true
}

// beyond selects rows past c in walking direction.
func (c cursor) beyond(reverse bool) (string, []any) {
	op := "<"
	if reverse {
		op = ">"
	}
	at := c.at.UTC()
	return fmt.Sprintf("(f.c_at %[1]s ? OR (f.c_at = ? AND e.id %[1]s ?))", op), []any{at, at, c.id}
}

func keysetOrder(reverse bool) string {
	if reverse {
		return "ORDER BY f.c_at ASC, e.id ASC"
	}
	return "ORDER BY f.c_at DESC, e.id DESC"
}

// pageOf builds navigation tokens for a page already in display order.
func pageOf(entries []api.Entry, more, reverse, hadCursor bool) api.Page {
	if len(entries) == 0 {
		return api.Page{}
	}
	head, tail := cursorOf(entries[0]), cursorOf(entries[len(entries)-1])
	var p api.Page
	switch {
	case reverse:
		p.Next = tail
		if more {
			p.Prev = head
		}
	default:
		if more {
			p.Next = tail
		}
		if hadCursor {
			p.Prev = head
		}
	}
	return p
}

// ftsQuery turns free text into an FTS5 expression: each letter/digit run
// becomes a quoted term, and the last term matches as a prefix. Operators
// typed by the user are never interpreted.
func ftsQuery(s string) string {
	var terms []string
	start := -1
	runes := []rune(strings.ToLower(s))
	for i := 0; i <= len(runes); i++ {
		word := i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]))
		switch {
		case word && start < 0:
			start = i
		case !word && start >= 0:
			terms = append(terms, `"`+string(runes[start:i])+`"`)
			start = -1
		}
	}
	if len(terms) == 0 {
		return ""
	}
	terms[len(terms)-1] += "*"
	return strings.Join(terms, " ")
}
