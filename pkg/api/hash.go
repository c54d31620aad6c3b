package api

import (
	"encoding/hex"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/zeebo/blake3"
)

// Hash returns a BLAKE3 digest of the note content: id, title, body,
// lower-cased sorted tags, namespace and UTC timestamps, NUL separated.
func (e Entry) Hash() string {
	h := blake3.New()
	writeField(h, e.ID)
	writeField(h, e.Title)
	writeField(h, e.Body)

	tags := make([]string, 0, len(e.Tags))
	for _, t := range e.Tags {
		tags = append(tags, strings.ToLower(t))
	}
	sort.Strings(tags)
	for _, t := range tags {
		writeField(h, t)
	}
	writeField(h, "")

	writeField(h, e.Namespace)
	writeField(h, formatTime(e.CreatedAt))
	_, _ = io.WriteString(h, formatTime(e.UpdatedAt))
	return hex.EncodeToString(h.Sum(nil))
}

// ContentKey hashes arbitrary rendered output for ETags.
func ContentKey(b []byte) string {
	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:16])
}

func writeField(w io.Writer, s string) {
	_, _ = io.WriteString(w, s)
	_, _ = w.Write([]byte{0})
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
