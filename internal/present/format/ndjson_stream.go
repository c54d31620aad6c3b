package format

import (
	"io"

	"github.com/mithrel/notemark/pkg/api"
)

// NDJSONStreamWriter writes pages of entries as NDJSON lines.
type NDJSONStreamWriter struct {
	w io.Writer
}

func NewNDJSONStreamWriter(w io.Writer) *NDJSONStreamWriter {
	return &NDJSONStreamWriter{w: w}
}

func (nw *NDJSONStreamWriter) WriteEntries(entries []api.Entry) error {
	return WriteNDJSON(nw.w, entries)
}

func (nw *NDJSONStreamWriter) Close() error { return nil }
