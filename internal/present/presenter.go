// Package present turns entries and tag stats into terminal output in one
// of several modes.
package present

import (
	"fmt"
	"io"
	"strings"

	"github.com/mithrel/notemark/internal/present/format"
	"github.com/mithrel/notemark/pkg/api"
)

type Mode int

const (
	ModePlain Mode = iota
	ModePretty
	ModeJSON
	ModeNDJSON
)

// ModeNames lists the accepted --output values.
var ModeNames = []string{"plain", "pretty", "json", "ndjson"}

type Options struct {
	Mode       Mode
	JSONIndent bool
	Headers    bool
	// Theme picks the glamour style for pretty output: "light" or "dark".
	Theme string
}

// ParseMode parses "plain", "pretty", "json" or "ndjson".
func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "plain", "":
		return ModePlain, true
	case "pretty":
		return ModePretty, true
	case "json":
		return ModeJSON, true
	case "ndjson":
		return ModeNDJSON, true
	default:
		return ModePlain, false
	}
}

// RenderEntries renders a list of entries according to options.
func RenderEntries(w io.Writer, entries []api.Entry, opts Options) error {
	sw := NewStreamWriter(w, opts)
	if err := sw.WriteEntries(entries); err != nil {
		return err
	}
	return sw.Close()
}

// RenderEntry renders a single entry according to options.
func RenderEntry(w io.Writer, e api.Entry, opts Options) error {
	switch opts.Mode {
	case ModeJSON:
		return format.WriteJSON(w, e, opts.JSONIndent)
	case ModeNDJSON:
		return format.WriteNDJSON(w, []api.Entry{e})
	case ModePretty:
		return format.WritePrettyEntry(w, e, opts.Theme)
	default:
		return format.WritePlainEntry(w, e, opts.Headers)
	}
}

// RenderTags renders tag statistics; pretty mode draws a table.
func RenderTags(w io.Writer, stats []api.TagStat, opts Options) error {
	if stats == nil {
		stats = []api.TagStat{}
	}
	switch opts.Mode {
	case ModeJSON:
		return format.WriteJSON(w, stats, opts.JSONIndent)
	case ModeNDJSON:
		return format.WriteNDJSON(w, stats)
	case ModePretty:
		return format.WriteTagTable(w, stats)
	default:
		return format.WritePlainTags(w, stats, opts.Headers)
	}
}

// StreamWriter receives pages of entries and finishes the output on Close.
type StreamWriter interface {
	WriteEntries([]api.Entry) error
	Close() error
}

// NewStreamWriter picks the page writer for opts.Mode. Pretty listings use
// the plain columns.
func NewStreamWriter(w io.Writer, opts Options) StreamWriter {
	switch opts.Mode {
	case ModeJSON:
		return format.NewJSONStreamWriter(w, opts.JSONIndent)
	case ModeNDJSON:
		return format.NewNDJSONStreamWriter(w)
	default:
		return format.NewPlainStreamWriter(w, opts.Headers)
	}
}

// ModeError reports an unknown --output value.
func ModeError(s string) error {
	return fmt.Errorf("invalid --output %q (want one of %s)", s, strings.Join(ModeNames, ", "))
}
