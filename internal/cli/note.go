package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mithrel/notemark/internal/editor"
	"github.com/mithrel/notemark/internal/notes"
	"github.com/mithrel/notemark/internal/present"
	"github.com/mithrel/notemark/pkg/api"
)

// newNoteCmd defines the parent "note" command.
// Running "notemark note <title>" without a subcommand adds a note.
func newNoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note [title]",
		Short: "Work with notes (default: add)",
		Args:  cobra.ArbitraryArgs,
		RunE:  runNoteAdd,
	}
	addNoteAddFlags(cmd)

	cmd.AddCommand(newNoteAddCmd())
	cmd.AddCommand(newNoteShowCmd())
	cmd.AddCommand(newNoteListCmd())
	cmd.AddCommand(newNoteSearchCmd())
	cmd.AddCommand(newNoteEditCmd())
	cmd.AddCommand(newNoteToggleCmd())
	cmd.AddCommand(newNoteDeleteCmd())
	cmd.AddCommand(newNoteImportCmd())
	return cmd
}

func newNoteAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Add a note; without a title or --body the editor opens",
		Args:  cobra.ArbitraryArgs,
		RunE:  runNoteAdd,
	}
	addNoteAddFlags(cmd)
	return cmd
}

func addNoteAddFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceP("tags", "t", nil, "tags (comma-separated or repeated)")
	cmd.Flags().StringP("body", "b", "", `Markdown body; "-" reads stdin`)
	_ = cmd.RegisterFlagCompletionFunc("tags", completeTags)
}

// runNoteAdd is shared by "note" and "note add".
func runNoteAdd(cmd *cobra.Command, args []string) error {
	app := getApp(cmd)
	tags, _ := cmd.Flags().GetStringSlice("tags")
	body, _ := cmd.Flags().GetString("body")
	if body == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return err
		}
		body = string(b)
	}
	if len(tags) == 0 {
		tags = app.Cfg.GetStringSlice("default_tags")
	}
	title := strings.TrimSpace(strings.Join(args, " "))

	if title == "" && body == "" {
		return addWithEditor(cmd, tags)
	}
	e, err := app.Notes.Create(cmd.Context(), notes.Draft{Title: title, Body: body, Tags: tags})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", e.ID, e.Title)
	return nil
}

func addWithEditor(cmd *cobra.Command, tags []string) error {
	app := getApp(cmd)
	id := api.NewID()
	path, err := editor.PathForID(id, app.Notes.Namespace())
	if err != nil {
		return err
	}
	defer os.Remove(path)

	out, changed, err := editor.OpenAt(path, []byte(editor.ComposeContent("", tags, "")))
	if err != nil {
		return err
	}
	if !changed {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No edits; nothing saved.")
		return nil
	}
	fm, body, err := notes.SplitFrontMatter(out)
	if err != nil {
		return err
	}
	e, err := app.Notes.Create(cmd.Context(), notes.Draft{Title: fm.Title, Body: body, Tags: fm.Tags})
	if errors.Is(err, notes.ErrEmptyNote) && app.Cfg.GetBool("editor.delete_empty") {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Note aborted: empty content.")
		return nil
	}
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", e.ID, e.Title)
	return nil
}

// outputFlags are the --output/--noheaders pair of listing commands.
type outputFlags struct {
	mode      string
	noHeaders bool
}

func addOutputFlags(cmd *cobra.Command, o *outputFlags, def string) {
	cmd.Flags().StringVarP(&o.mode, "output", "o", def, "output mode: "+strings.Join(present.ModeNames, "|"))
	cmd.Flags().BoolVar(&o.noHeaders, "noheaders", false, "hide column headers (plain)")
	_ = cmd.RegisterFlagCompletionFunc("output", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return present.ModeNames, cobra.ShellCompDirectiveNoFileComp
	})
}

func (o outputFlags) options(cmd *cobra.Command) (present.Options, error) {
	mode, ok := present.ParseMode(o.mode)
	if !ok {
		return present.Options{}, present.ModeError(o.mode)
	}
	return present.Options{
		Mode:    mode,
		Headers: !o.noHeaders,
		Theme:   getConfig(cmd).GetString("render.theme"),
	}, nil
}
