package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/mithrel/notemark/internal/present"
	"github.com/mithrel/notemark/pkg/api"
)

func newNoteListCmd() *cobra.Command {
	var filters FilterOpts
	var out outputFlags
	var pageSize int
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			base, err := filters.listQuery()
			if err != nil {
				return err
			}
			opts, err := out.options(cmd)
			if err != nil {
				return err
			}
			if pageSize <= 0 {
				pageSize = app.Cfg.GetInt("export.page_size")
			}
			fetch := func(ctx context.Context, cursor string, n int) ([]api.Entry, api.Page, error) {
				q := base
				q.Cursor = cursor
				q.Limit = n
				return app.Notes.List(ctx, q)
			}
			return withPager(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), func(w io.Writer) error {
				return streamEntries(cmd.Context(), pageSize, limit, fetch, present.NewStreamWriter(w, opts))
			})
		},
	}
	addFilterFlags(cmd, &filters)
	addOutputFlags(cmd, &out, "plain")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "page size for paging (0 uses export.page_size)")
	cmd.Flags().IntVar(&limit, "limit", 0, "stop after this many notes (0 for all)")
	return cmd
}
