package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mithrel/notemark/internal/notes"
	"github.com/mithrel/notemark/internal/wire"
)

func newNoteImportCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "import <path|->...",
		Short: "Import Markdown files (YAML front matter) or JSON/NDJSON exports",
		Long: `Import notes. Directories are walked for *.md files. JSON input is an
array of notes or one note per line. "-" reads stdin, which needs --format.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			var total notes.ImportStats
			for _, arg := range args {
				st, err := importPath(cmd, app, arg, format)
				if err != nil {
					return err
				}
				total.Imported += st.Imported
				total.Skipped += st.Skipped
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d notes, skipped %d.\n", total.Imported, total.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "auto", "input format: auto|md|json")
	return cmd
}

func importPath(cmd *cobra.Command, app *wire.App, path, format string) (notes.ImportStats, error) {
	if path == "-" {
		switch format {
		case "md":
			return importMarkdown(cmd, app, "stdin", cmd.InOrStdin())
		case "json":
			return app.Notes.ImportJSON(cmd.Context(), cmd.InOrStdin())
		default:
			return notes.ImportStats{}, fmt.Errorf("reading stdin needs --format md or --format json")
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return notes.ImportStats{}, err
	}
	if info.IsDir() {
		var total notes.ImportStats
		err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.EqualFold(filepath.Ext(p), ".md") {
				return nil
			}
			st, err := importFile(cmd, app, p, "md")
			total.Imported += st.Imported
			total.Skipped += st.Skipped
			return err
		})
		return total, err
	}
	return importFile(cmd, app, path, format)
}

func importFile(cmd *cobra.Command, app *wire.App, path, format string) (notes.ImportStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return notes.ImportStats{}, err
	}
	defer f.Close()

	if format == "auto" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json", ".ndjson", ".jsonl":
			format = "json"
		default:
			format = "md"
		}
	}
	if format == "json" {
		return app.Notes.ImportJSON(cmd.Context(), f)
	}
	return importMarkdown(cmd, app, filepath.Base(path), f)
}

// importMarkdown imports one document; an empty one is skipped, not fatal.
func importMarkdown(cmd *cobra.Command, app *wire.App, name string, r io.Reader) (notes.ImportStats, error) {
	e, err := app.Notes.ImportMarkdown(cmd.Context(), name, r)
	if errors.Is(err, notes.ErrEmptyNote) {
		app.Log.Warn("skipping empty note", "file", name)
		return notes.ImportStats{Skipped: 1}, nil
	}
	if err != nil {
		return notes.ImportStats{}, fmt.Errorf("import %s: %w", name, err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", e.ID, e.Title)
	return notes.ImportStats{Imported: 1}, nil
}
