package format

import (
	"io"
	"text/tabwriter"

	"github.com/mithrel/notemark/pkg/api"
)

// PlainStreamWriter writes pages of entries in the plain column format.
// Column widths are settled per page.
type PlainStreamWriter struct {
	tw          *tabwriter.Writer
	headers     bool
	wroteHeader bool
}

func NewPlainStreamWriter(w io.Writer, headers bool) *PlainStreamWriter {
	return &PlainStreamWriter{tw: newTabWriter(w), headers: headers}
}

// WriteEntries writes a batch of entries and flushes.
func (pw *PlainStreamWriter) WriteEntries(entries []api.Entry) error {
	if pw.headers && !pw.wroteHeader {
		if _, err := io.WriteString(pw.tw, headerLine); err != nil {
			return err
		}
		pw.wroteHeader = true
	}
	for _, e := range entries {
		if _, err := io.WriteString(pw.tw, plainRow(e)); err != nil {
			return err
		}
	}
	return pw.tw.Flush()
}

func (pw *PlainStreamWriter) Close() error {
	return pw.tw.Flush()
}
