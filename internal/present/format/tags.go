package format

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/mithrel/notemark/pkg/api"
)

// barWidth is the length of the longest count bar in the tag table.
const barWidth = 24

var (
	tagHeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	tagCellStyle   = lipgloss.NewStyle().Padding(0, 1)
	tagNameStyle   = tagCellStyle.Foreground(lipgloss.Color("63"))
	tagBarStyle    = tagCellStyle.Foreground(lipgloss.Color("240"))
)

// WritePlainTags writes "tag<TAB>count" lines.
func WritePlainTags(w io.Writer, stats []api.TagStat, headers bool) error {
	tw := newTabWriter(w)
	if headers {
		_, _ = io.WriteString(tw, "TAG\tNOTES\n")
	}
	for _, s := range stats {
		_, _ = fmt.Fprintf(tw, "%s\t%d\n", esc(s.Tag), s.Count)
	}
	return tw.Flush()
}

// WriteTagTable draws tag stats as a bordered table with a relative count bar.
func WriteTagTable(w io.Writer, stats []api.TagStat) error {
	if len(stats) == 0 {
		_, err := io.WriteString(w, "(no tags)\n")
		return err
	}
	maxCount := 0
	for _, s := range stats {
		maxCount = max(maxCount, s.Count)
	}
	rows := make([][]string, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, []string{"#" + s.Tag, strconv.Itoa(s.Count), bar(s.Count, maxCount)})
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers("TAG", "NOTES", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return tagHeaderStyle
			case col == 0:
				return tagNameStyle
			case col == 2:
				return tagBarStyle
			default:
				return tagCellStyle
			}
		})
	_, err := io.WriteString(w, t.String()+"\n")
	return err
}

func bar(n, maxCount int) string {
	if maxCount <= 0 || n <= 0 {
		return ""
	}
	width := n * barWidth / maxCount
	if width == 0 {
		width = 1
	}
	return strings.Repeat("█", width)
}
