package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type ConfigOption struct {
	Key     string
	Default any
	Comment string
}

// GetConfigOptions returns every known option with its default and meaning.
// It drives both viper defaults and the generated config.toml.
func GetConfigOptions() []ConfigOption {
	return []ConfigOption{
		{Key: "data_dir", Default: defaultDataDir(), Comment: "Directory for local state; DB is data_dir/notemark.db"},
		{Key: "namespace", Default: "default", Comment: "Namespace used for notes when none is specified"},
		{Key: "default_tags", Default: []string{}, Comment: "Tags applied when creating a note without explicit tags"},

		{Key: "db.dsn", Default: "", Comment: "Database DSN (sqlite:///path, a bare path or memory://); empty uses data_dir"},

		{Key: "log.level", Default: "info", Comment: "Log level: debug, info, warn, error"},
		{Key: "log.format", Default: "text", Comment: "Log format: text, json or logfmt"},

		{Key: "render.theme", Default: "light", Comment: "Markdown theme: light or dark"},
		{Key: "render.code_style", Default: "", Comment: "Chroma style for code blocks; empty follows the theme"},
		{Key: "render.search_path", Default: "/all", Comment: "Path hashtag links point to"},
		{Key: "render.locale", Default: "en", Comment: "Fallback locale for labels (en, zh, de)"},
		{Key: "render.hard_wraps", Default: false, Comment: "Render single newlines as <br>"},
		{Key: "render.emoji", Default: true, Comment: "Replace :shortcode: emoji"},
		{Key: "render.sanitize", Default: false, Comment: "Strip unsafe HTML from rendered output"},

		{Key: "preview.enabled", Default: true, Comment: "Fetch link previews for note links"},
		{Key: "preview.timeout", Default: "5s", Comment: "Timeout for one preview fetch"},
		{Key: "preview.ttl", Default: "168h", Comment: "How long a fetched preview stays fresh"},
		{Key: "preview.max_bytes", Default: 1 << 20, Comment: "Maximum bytes read from a previewed page"},
		{Key: "preview.concurrency", Default: 4, Comment: "Parallel preview fetches"},
		{Key: "preview.user_agent", Default: "notemark-preview/1.0", Comment: "User-Agent sent when fetching previews"},

		{Key: "server.listen", Default: "127.0.0.1:7465", Comment: "HTTP listen address for notemark serve"},
		{Key: "server.read_timeout", Default: "15s", Comment: "HTTP read timeout"},
		{Key: "auth.token", Default: "", Comment: "Bearer token required by mutating HTTP routes; empty disables auth"},

		{Key: "export.page_size", Default: 200, Comment: "Batch size for list/search paging"},
		{Key: "editor.delete_empty", Default: true, Comment: "Discard a new note if the editor exits with no content"},
	}
}

// defaultDataDir resolves $XDG_DATA_HOME/notemark or ~/.local/share/notemark.
func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "notemark")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "notemark")
}

// DefaultConfigPath resolves the standard config.toml location.
func DefaultConfigPath() string {
	xdg := os.Getenv("XDG_CONFIG_HOME")
	if xdg == "" {
		home, _ := os.UserHomeDir()
		xdg = filepath.Join(home, ".config")
	}
	return filepath.Join(xdg, "notemark", "config.toml")
}

// ResolveDSN returns db.dsn when set, else the sqlite file under data_dir.
func ResolveDSN(v *viper.Viper) string {
	if dsn := strings.TrimSpace(v.GetString("db.dsn")); dsn != "" {
		return dsn
	}
	dir := v.GetString("data_dir")
	if dir == "" {
		dir = defaultDataDir()
	}
	// Expand ~ for convenience
	if strings.HasPrefix(dir, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, dir[1:])
		}
	}
	return filepath.Join(dir, "notemark.db")
}

// Defaults returns a viper instance holding only the option defaults.
func Defaults() *viper.Viper {
	v := viper.New()
	applyDefaults(v)
	return v
}
