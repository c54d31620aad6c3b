package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mithrel/notemark/internal/db"
	"github.com/mithrel/notemark/internal/editor"
	"github.com/mithrel/notemark/internal/notes"
)

func newNoteEditCmd() *cobra.Command {
	var keepTmp bool
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a note in $EDITOR, or set fields with flags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			cur, err := app.Notes.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("note %s: %w", args[0], err)
			}

			patch, ok, err := patchFromFlags(cmd)
			if err != nil {
				return err
			}
			if !ok {
				path, err := editor.PathForID(cur.ID, cur.Namespace)
				if err != nil {
					return err
				}
				out, changed, err := editor.OpenAt(path, []byte(editor.ComposeContent(cur.Title, cur.Tags, cur.Body)))
				if err != nil {
					return err
				}
				if !changed {
					_ = os.Remove(path)
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No edits; note unchanged.")
					return nil
				}
				fm, body, err := notes.SplitFrontMatter(out)
				if err != nil {
					return fmt.Errorf("%w (edits kept in %s)", err, path)
				}
				tags := append([]string{}, fm.Tags...)
				patch = notes.Patch{Title: &fm.Title, Body: &body, Tags: tags}
				if !keepTmp {
					defer os.Remove(path)
				}
			}
			patch.IfVersion = cur.Version

			e, err := app.Notes.Update(cmd.Context(), cur.ID, patch)
			if errors.Is(err, db.ErrConflict) {
				return fmt.Errorf("note %s changed while editing; reopen it and try again: %w", cur.ID, err)
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tv%d\n", e.ID, e.Title, e.Version)
			return nil
		},
	}
	cmd.Flags().BoolVar(&keepTmp, "keep-tmp", false, "keep the scratch file after saving")
	cmd.Flags().String("title", "", "set the title without opening the editor")
	cmd.Flags().String("body", "", `set the body without opening the editor; "-" reads stdin`)
	cmd.Flags().StringSlice("tags", nil, "replace the tags without opening the editor")
	_ = cmd.RegisterFlagCompletionFunc("tags", completeTags)
	return cmd
}

// patchFromFlags builds a patch from --title/--body/--tags. ok is false
// when none was given.
func patchFromFlags(cmd *cobra.Command) (notes.Patch, bool, error) {
	var p notes.Patch
	f := cmd.Flags()
	if f.Changed("title") {
		t, _ := f.GetString("title")
		p.Title = &t
	}
	if f.Changed("body") {
		b, _ := f.GetString("body")
		if b == "-" {
			raw, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return p, false, err
			}
			b = string(raw)
		}
		p.Body = &b
	}
	if f.Changed("tags") {
		tags, _ := f.GetStringSlice("tags")
		p.Tags = append([]string{}, tags...)
	}
	return p, p.Title != nil || p.Body != nil || p.Tags != nil, nil
}

func newNoteToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id> <task-index>",
		Short: "Check or uncheck the n-th task item (0-based, document order)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			idx, err := strconv.Atoi(args[1])
			if err != nil || idx < 0 {
				return fmt.Errorf("invalid task index %q", args[1])
			}
			e, err := app.Notes.ToggleTask(cmd.Context(), args[0], idx)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\tv%d\n", e.ID, e.Version)
			return nil
		},
	}
}
