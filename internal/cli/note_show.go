package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mithrel/notemark/internal/present"
)

func newNoteShowCmd() *cobra.Command {
	var out outputFlags
	var html bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Display a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			e, err := app.Notes.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("note %s: %w", args[0], err)
			}
			if html {
				res, err := app.Renderer.Render(cmd.Context(), e.Body)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), res.HTML)
				return err
			}
			opts, err := out.options(cmd)
			if err != nil {
				return err
			}
			if opts.Mode == present.ModePretty {
				return withPager(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), func(w io.Writer) error {
					return present.RenderEntry(w, e, opts)
				})
			}
			return present.RenderEntry(cmd.OutOrStdout(), e, opts)
		},
	}
	addOutputFlags(cmd, &out, "pretty")
	cmd.Flags().BoolVar(&html, "html", false, "print the rendered HTML instead")
	return cmd
}
