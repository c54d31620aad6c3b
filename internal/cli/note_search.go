package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/mithrel/notemark/internal/present"
)

func newNoteSearchCmd() *cobra.Command {
	var out outputFlags
	var limit int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search notes; #tag words filter by tag, the rest is full text",
		Example: `  notemark note search '#work' standup
  notemark note search "release notes"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			opts, err := out.options(cmd)
			if err != nil {
				return err
			}
			query := strings.Join(args, " ")
			entries, err := app.Notes.SearchText(cmd.Context(), query, limit)
			if err != nil {
				return err
			}
			app.Log.Searched(query, len(entries), app.State.ForceQuery())
			return present.RenderEntries(cmd.OutOrStdout(), entries, opts)
		},
	}
	addOutputFlags(cmd, &out, "plain")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of results")
	return cmd
}
