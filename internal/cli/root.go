// Package cli is the notemark command line: rendering, note management,
// tags, the HTTP server and config tooling.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mithrel/notemark/internal/config"
	"github.com/mithrel/notemark/internal/wire"
)

type ctxKey string

const (
	appKey ctxKey = "app"
	cfgKey ctxKey = "cfg"

	// annotNoApp marks commands that only need the loaded config, not the
	// database-backed app.
	annotNoApp = "notemark/no-app"
)

// Execute builds the root command and runs it.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd constructs the root command and wires dependencies.
func NewRootCmd() *cobra.Command {
	var cfgPath string
	var namespace string

	cmd := &cobra.Command{
		Use:           "notemark",
		Short:         "Markdown notes with hashtags, widgets and live previews",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			if cfgPath != "" {
				v.SetConfigFile(cfgPath)
			}
			if err := config.Load(cmd.Context(), v); err != nil {
				return err
			}
			if namespace != "" {
				v.Set("namespace", namespace)
			}
			ctx := context.WithValue(cmd.Context(), cfgKey, v)
			if cmd.Annotations[annotNoApp] == "" {
				app, err := wire.BuildApp(ctx, v)
				if err != nil {
					return err
				}
				ctx = context.WithValue(ctx, appKey, app)
			}
			cmd.SetContext(ctx)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if app, ok := cmd.Context().Value(appKey).(*wire.App); ok {
				return app.Close()
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (toml|yaml)")
	cmd.PersistentFlags().StringVarP(&namespace, "namespace", "n", "", "namespace to work in (overrides config)")

	cmd.AddCommand(newRenderCmd())
	cmd.AddCommand(newNoteCmd())
	cmd.AddCommand(newTagsCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newCompletionCmd())

	cmd.Run = func(cmd *cobra.Command, args []string) { _ = cmd.Help() }

	return cmd
}

func getApp(cmd *cobra.Command) *wire.App {
	v := cmd.Context().Value(appKey)
	if v == nil {
		fmt.Fprintln(os.Stderr, "internal error: app not initialized")
		os.Exit(1)
	}
	return v.(*wire.App)
}

func getConfig(cmd *cobra.Command) *viper.Viper {
	if v, ok := cmd.Context().Value(cfgKey).(*viper.Viper); ok {
		return v
	}
	return config.Defaults()
}

func noApp(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[annotNoApp] = "true"
	return cmd
}
