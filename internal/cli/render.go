package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mithrel/notemark/internal/markdown"
	"github.com/mithrel/notemark/internal/present/format"
)

func newRenderCmd() *cobra.Command {
	var (
		stream   bool
		terminal bool
		theme    string
		prefetch bool
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "render [file|-]",
		Short: "Render Markdown to HTML (or to the terminal)",
		Long: `Render a Markdown document with hashtag links, diagram and chart widgets,
math, link previews and task checkboxes. Reads stdin when no file or "-" is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			src, err := readSource(cmd, args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if theme == "" {
				theme = app.Cfg.GetString("render.theme")
			}

			if terminal {
				return format.WriteTerminalMarkdown(out, src, theme, terminalWidth(out))
			}
			if stream {
				html, err := app.Renderer.RenderStreaming(src)
				if err != nil {
					return err
				}
				_, err = io.WriteString(out, html)
				return err
			}

			if prefetch {
				if !app.Cfg.GetBool("preview.enabled") {
					return errors.New("--prefetch needs preview.enabled")
				}
				links := markdown.ExtractLinks(src)
				n := app.Previews.Prefetch(cmd.Context(), links)
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "prefetched %d/%d link previews\n", n, len(links))
			}
			res, err := app.Renderer.Render(cmd.Context(), src, markdown.ForTheme(markdown.ParseTheme(theme)))
			if err != nil {
				return err
			}
			if asJSON {
				if res.Assets == nil {
					res.Assets = []markdown.Asset{}
				}
				if res.Tags == nil {
					res.Tags = []string{}
				}
				return format.WriteJSON(out, res, true)
			}
			_, err = fmt.Fprintln(out, res.HTML)
			return err
		},
	}
	cmd.Flags().BoolVar(&stream, "stream", false, "use the reduced path for partial (streamed) Markdown")
	cmd.Flags().BoolVar(&terminal, "terminal", false, "render for the terminal instead of HTML")
	cmd.Flags().StringVar(&theme, "theme", "", "light or dark (default render.theme)")
	cmd.Flags().BoolVar(&prefetch, "prefetch", false, "fetch link previews before rendering so cards are filled")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result (html, assets, tags, tasks) as JSON")
	cmd.MarkFlagsMutuallyExclusive("stream", "terminal", "json")
	_ = cmd.RegisterFlagCompletionFunc("theme", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"light", "dark"}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func readSource(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		return string(b), err
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(b), nil
}
