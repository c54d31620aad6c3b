package format

import (
	"encoding/json"
	"io"
)

// WriteJSON encodes v as a single JSON document. Entries, tag stats and
// render results all go through here.
func WriteJSON(w io.Writer, v any, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
