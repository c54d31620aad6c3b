package format

import (
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mithrel/notemark/pkg/api"
)

// Plain columns: id, title, tags, updated.
const headerLine = "ID\tTITLE\tTAGS\tUPDATED\n"

const plainTime = "2006-01-02 15:04"

func esc(field string) string {
	field = strings.ReplaceAll(field, "\t", "\\t")
	field = strings.ReplaceAll(field, "\n", "\\n")
	return field
}

func joinTags(tags []string) string {
	return strings.Join(tags, ",")
}

func plainRow(e api.Entry) string {
	updated := ""
	if !e.UpdatedAt.IsZero() {
		updated = e.UpdatedAt.Local().Format(plainTime)
	}
	return esc(e.ID) + "\t" + esc(e.Title) + "\t" + esc(joinTags(e.Tags)) + "\t" + updated + "\n"
}

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// WritePlainEntries writes entries as aligned columns.
func WritePlainEntries(w io.Writer, entries []api.Entry, headers bool) error {
	pw := NewPlainStreamWriter(w, headers)
	if err := pw.WriteEntries(entries); err != nil {
		return err
	}
	return pw.Close()
}

// WritePlainEntry writes one entry's header line followed by its raw body.
func WritePlainEntry(w io.Writer, e api.Entry, headers bool) error {
	if err := WritePlainEntries(w, []api.Entry{e}, headers); err != nil {
		return err
	}
	body := strings.TrimRight(e.Body, "\n")
	if body == "" {
		return nil
	}
	_, err := io.WriteString(w, "\n"+body+"\n")
	return err
}
