package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mithrel/notemark/internal/present"
	"github.com/mithrel/notemark/pkg/api"
)

func newNoteDeleteCmd() *cobra.Command {
	var yes bool
	var dry bool
	var filters FilterOpts
	cmd := &cobra.Command{
		Use:   "delete [id...]",
		Short: "Delete notes by id or by filter",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			if len(args) > 0 && !filters.empty() {
				return fmt.Errorf("ids cannot be combined with filters")
			}
			if len(args) == 0 && filters.empty() {
				return fmt.Errorf("give note ids or at least one filter")
			}

			var entries []api.Entry
			if len(args) > 0 {
				for _, id := range args {
					e, err := app.Notes.Get(cmd.Context(), id)
					if err != nil {
						return fmt.Errorf("note %s: %w", id, err)
					}
					entries = append(entries, e)
				}
			} else {
				base, err := filters.listQuery()
				if err != nil {
					return err
				}
				entries, err = fetchAllEntries(cmd.Context(), app.Cfg.GetInt("export.page_size"),
					func(ctx context.Context, cursor string, n int) ([]api.Entry, api.Page, error) {
						q := base
						q.Cursor, q.Limit = cursor, n
						return app.Notes.List(ctx, q)
					})
				if err != nil {
					return err
				}
			}

			if dry {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Would delete %d notes:\n", len(entries))
				return present.RenderEntries(cmd.OutOrStdout(), entries, present.Options{Mode: present.ModePlain})
			}
			if len(entries) > 1 && !yes {
				ok, err := confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), fmt.Sprintf("Delete %d notes?", len(entries)))
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("aborted")
				}
			}
			for _, e := range entries {
				if err := app.Notes.Delete(cmd.Context(), e.ID); err != nil {
					return fmt.Errorf("delete %s: %w", e.ID, err)
				}
			}
			if len(entries) == 1 {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s.\n", entries[0].ID)
			} else {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d notes.\n", len(entries))
			}
			return nil
		},
	}
	addFilterFlags(cmd, &filters)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt for bulk deletes")
	cmd.Flags().BoolVar(&dry, "dry", false, "show what would be deleted without deleting")
	return cmd
}

// confirm asks a y/N question. A non-interactive stdin needs --yes.
func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	if !isTerminalReader(in) {
		return false, fmt.Errorf("confirmation required; rerun with --yes")
	}
	_, _ = fmt.Fprintf(out, "%s [y/N] ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
