package format

import (
	"encoding/json"
	"io"

	"github.com/mithrel/notemark/pkg/api"
)

// JSONStreamWriter writes pages of entries into one JSON array, so paged
// listings still produce a single document.
type JSONStreamWriter struct {
	w      io.Writer
	indent bool
	n      int
}

func NewJSONStreamWriter(w io.Writer, indent bool) *JSONStreamWriter {
	return &JSONStreamWriter{w: w, indent: indent}
}

func (jw *JSONStreamWriter) WriteEntries(entries []api.Entry) error {
	for _, e := range entries {
		b, err := jw.marshal(e)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(jw.w, jw.sep()); err != nil {
			return err
		}
		if _, err := jw.w.Write(b); err != nil {
			return err
		}
		jw.n++
	}
	return nil
}

func (jw *JSONStreamWriter) marshal(e api.Entry) ([]byte, error) {
	if jw.indent {
		return json.MarshalIndent(e, "  ", "  ")
	}
	return json.Marshal(e)
}

func (jw *JSONStreamWriter) sep() string {
	switch {
	case jw.n == 0 && jw.indent:
		return "[\n  "
	case jw.n == 0:
		return "["
	case jw.indent:
		return ",\n  "
	default:
		return ","
	}
}

// Close terminates the array; an empty stream yields [].
func (jw *JSONStreamWriter) Close() error {
	end := "]\n"
	switch {
	case jw.n == 0:
		end = "[]\n"
	case jw.indent:
		end = "\n]\n"
	}
	_, err := io.WriteString(jw.w, end)
	return err
}
