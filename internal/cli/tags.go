package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mithrel/notemark/internal/present"
)

func newTagsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Inspect hashtags",
	}
	cmd.AddCommand(newTagsListCmd())
	cmd.AddCommand(newTagsSuggestCmd())
	return cmd
}

func newTagsListCmd() *cobra.Command {
	var out outputFlags
	var prefix string
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tags with note counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			opts, err := out.options(cmd)
			if err != nil {
				return err
			}
			stats, err := app.Notes.Tags(cmd.Context(), prefix, limit)
			if err != nil {
				return err
			}
			return present.RenderTags(cmd.OutOrStdout(), stats, opts)
		},
	}
	addOutputFlags(cmd, &out, "plain")
	cmd.Flags().StringVar(&prefix, "prefix", "", "only tags starting with this prefix")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of tags (0 for all)")
	return cmd
}

func newTagsSuggestCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "suggest [input]",
		Short: "Suggest known tags for partial input (fuzzy, then closest spelling)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			input := ""
			if len(args) > 0 {
				input = args[0]
			}
			tags, err := app.Notes.SuggestTags(cmd.Context(), input, limit)
			if err != nil {
				return err
			}
			for _, t := range tags {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), t)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of suggestions")
	return cmd
}
