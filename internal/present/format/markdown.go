package format

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/mithrel/notemark/pkg/api"
)

// DefaultWidth is the wrap width for terminal Markdown.
const DefaultWidth = 80

// GlamourStyle maps a page theme ("light" or "dark") to a glamour style.
func GlamourStyle(theme string) string {
	if strings.EqualFold(strings.TrimSpace(theme), "dark") {
		return "dark"
	}
	return "light"
}

// WriteTerminalMarkdown renders Markdown source for a terminal.
func WriteTerminalMarkdown(w io.Writer, md, theme string, width int) error {
	if width <= 0 {
		width = DefaultWidth
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(GlamourStyle(theme)),
		glamour.WithWordWrap(width),
		glamour.WithEmoji(),
	)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

// WritePrettyEntry renders a single entry with a metadata quote above its body.
func WritePrettyEntry(w io.Writer, e api.Entry, theme string) error {
	ts := e.CreatedAt.Local().Format(time.RFC3339)
	tags := "_none_"
	if len(e.Tags) > 0 {
		tags = "#" + strings.Join(e.Tags, " #")
	}

	md := fmt.Sprintf(`# %s

> **ID:** %s | **Created:** %s | **v%d**
>
> **Tags:** %s

---

%s
`, e.Title, e.ID, ts, e.Version, tags, strings.TrimSpace(e.Body))

	return WriteTerminalMarkdown(w, md, theme, DefaultWidth)
}
