package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2/styles"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/text/language"

	"github.com/mithrel/notemark/internal/logger"
)

// EnvPrefix namespaces environment overrides: render.theme is read from
// NOTEMARK_RENDER_THEME.
const EnvPrefix = "notemark"

// applyDefaults seeds Viper with defaults defined in GetConfigOptions.
func applyDefaults(v *viper.Viper) {
	for _, o := range GetConfigOptions() {
		v.SetDefault(o.Key, o.Default)
	}
}

// Load resolves configuration with precedence: defaults < file < .env < env.
// The provided Viper instance is mutated with defaults, file contents, and env.
func Load(ctx context.Context, v *viper.Viper) error {
	// If SetConfigFile was provided upstream it takes precedence; these
	// paths are fallbacks.
	explicit := v.ConfigFileUsed() != ""
	if !explicit {
		v.SetConfigName("config")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, "notemark"))
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "notemark"))
		}
		v.AddConfigPath(".")
	}

	applyDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &nf) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	// .env never overrides variables already present in the environment.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return fmt.Errorf("load .env: %w", err)
		}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if v.GetString("data_dir") == "" {
		v.Set("data_dir", defaultDataDir())
	}
	if strings.TrimSpace(v.GetString("namespace")) == "" {
		v.Set("namespace", "default")
	}

	// Allow comma-separated env override for default_tags
	if s := strings.TrimSpace(os.Getenv("NOTEMARK_DEFAULT_TAGS")); s != "" {
		v.Set("default_tags", splitList(s))
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// CheckConfigValidity reports every problem of the merged configuration at
// once. Unset keys are checked against their defaults.
func CheckConfigValidity(v *viper.Viper) error {
	applyDefaults(v)
	var errs []error
	add := func(format string, args ...any) { errs = append(errs, fmt.Errorf(format, args...)) }

	if strings.TrimSpace(v.GetString("namespace")) == "" {
		add("namespace is required")
	}
	if strings.TrimSpace(v.GetString("data_dir")) == "" && strings.TrimSpace(v.GetString("db.dsn")) == "" {
		add("data_dir is required")
	}

	if _, err := logger.ParseLevel(v.GetString("log.level")); err != nil {
		add("log.level: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(v.GetString("log.format"))) {
	case "", "text", "json", "logfmt":
	default:
		add("log.format must be text, json or logfmt")
	}

	switch theme := v.GetString("render.theme"); theme {
	case "", "light", "dark":
	default:
		add("render.theme must be light or dark, got %q", theme)
	}
	if cs := v.GetString("render.code_style"); cs != "" {
		if _, ok := styles.Registry[strings.ToLower(cs)]; !ok {
			add("render.code_style %q is not a known chroma style", cs)
		}
	}
	if loc := strings.TrimSpace(v.GetString("render.locale")); loc != "" {
		if _, err := language.Parse(loc); err != nil {
			add("render.locale: %w", err)
		}
	}
	if p := v.GetString("render.search_path"); p != "" && !strings.HasPrefix(p, "/") {
		add("render.search_path must start with /")
	}

	checkDuration(v, "preview.timeout", false, add)
	checkDuration(v, "preview.ttl", true, add)
	checkDuration(v, "server.read_timeout", true, add)
	if v.GetInt64("preview.max_bytes") <= 0 {
		add("preview.max_bytes must be greater than 0")
	}
	if v.GetInt("preview.concurrency") <= 0 {
		add("preview.concurrency must be greater than 0")
	}

	if strings.TrimSpace(v.GetString("server.listen")) == "" {
		add("server.listen is required")
	}
	if v.GetInt("export.page_size") <= 0 {
		add("export.page_size must be greater than 0")
	}
	return errors.Join(errs...)
}

func checkDuration(v *viper.Viper, key string, zeroOK bool, add func(string, ...any)) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		if !zeroOK {
			add("%s is required", key)
		}
		return
	}
	d, err := time.ParseDuration(raw)
	switch {
	case err != nil:
		add("%s: invalid duration %q", key, raw)
	case d < 0 || (d == 0 && !zeroOK):
		add("%s must be greater than 0", key)
	}
}
