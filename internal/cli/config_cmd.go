package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mithrel/notemark/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}
	cmd.AddCommand(newConfigGenerateCmd())
	cmd.AddCommand(newConfigCheckCmd())
	return cmd
}

// writeMode says what config generate does with an existing file.
type writeMode int

const (
	writeNew writeMode = iota
	writeReplace
	writeMerge
)

func newConfigGenerateCmd() *cobra.Command {
	var (
		out               string
		overwrite, update bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a commented config.toml",
		Long: "Writes every option with its default and description. --update keeps your\n" +
			"values and only appends options the file does not mention yet.",
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := writeNew
			switch {
			case overwrite && update:
				return fmt.Errorf("--overwrite and --update are mutually exclusive")
			case overwrite:
				mode = writeReplace
			case update:
				mode = writeMerge
			}
			if out == "" {
				out = config.DefaultConfigPath()
			}
			return writeConfigFile(cmd, out, mode)
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "destination file (default: the user config path)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace an existing file, keeping a .bak copy")
	cmd.Flags().BoolVar(&update, "update", false, "add missing options to an existing file, keeping a .bak copy")
	return noApp(cmd)
}

func newConfigCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := getConfig(cmd)
			if err := config.CheckConfigValidity(v); err != nil {
				return fmt.Errorf("invalid configuration:\n%w", err)
			}
			src := v.ConfigFileUsed()
			if src == "" {
				src = "defaults"
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Config OK (%s)\n", src)
			return nil
		},
	}
	return noApp(cmd)
}

func writeConfigFile(cmd *cobra.Command, path string, mode writeMode) error {
	stdout := cmd.OutOrStdout()
	current, err := os.ReadFile(path)
	exists := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	var content string
	switch {
	case !exists:
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return err
		}
		content = config.RenderDefaultTOML()
	case mode == writeReplace:
		content = config.RenderDefaultTOML()
	case mode == writeMerge:
		merged, changed := config.UpdateTOML(string(current))
		if !changed {
			fmt.Fprintf(stdout, "Config already up to date: %s\n", path)
			return nil
		}
		content = merged
	default:
		return fmt.Errorf("%s already exists; pass --overwrite to replace it or --update to add new options", path)
	}

	var backup string
	if exists {
		if backup, err = backupConfig(path, current); err != nil {
			return fmt.Errorf("backup %s: %w", path, err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %s\n", path)
	if backup != "" {
		fmt.Fprintf(stdout, "Backup: %s\n", backup)
	}
	return nil
}

// backupConfig saves data next to path as path.bak, or under a
// timestamped name when a .bak is already there.
func backupConfig(path string, data []byte) (string, error) {
	backup := path + ".bak"
	if _, err := os.Stat(backup); err == nil {
		backup = path + ".bak-" + time.Now().Format("20060102-150405")
	}
	return backup, os.WriteFile(backup, data, 0o600)
}
