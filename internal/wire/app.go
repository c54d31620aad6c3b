package wire

import (
	"context"
	"net/http"
	"time"

	"github.com/spf13/viper"

	"github.com/mithrel/notemark/internal/appstate"
	"github.com/mithrel/notemark/internal/config"
	"github.com/mithrel/notemark/internal/db"
	"github.com/mithrel/notemark/internal/i18n"
	"github.com/mithrel/notemark/internal/logger"
	"github.com/mithrel/notemark/internal/markdown"
	"github.com/mithrel/notemark/internal/notes"
	"github.com/mithrel/notemark/internal/preview"
)

// App aggregates the major services for easy injection.
type App struct {
	Cfg      *viper.Viper
	Log      *logger.Logger
	Store    *db.Store
	Notes    *notes.Service
	Renderer *markdown.Renderer
	Previews *preview.Service
	State    *appstate.State
	Catalog  *i18n.Catalog
}

// BuildApp wires dependencies from a loaded config.
func BuildApp(ctx context.Context, v *viper.Viper) (*App, error) {
	log, err := logger.FromConfig(v.GetString("log.level"), v.GetString("log.format"))
	if err != nil {
		return nil, err
	}
	dsn := config.ResolveDSN(v)
	store, err := db.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	log.ConfigLoaded(v.ConfigFileUsed(), dsn)
	return Assemble(v, log, store), nil
}

// Assemble builds the services over an open store.
func Assemble(v *viper.Viper, log *logger.Logger, store *db.Store) *App {
	previews := preview.New(
		preview.WithRepo(store.Previews),
		preview.WithLogger(log),
		preview.WithClient(&http.Client{Timeout: durationOr(v, "preview.timeout", preview.DefaultTimeout)}),
		preview.WithTTL(durationOr(v, "preview.ttl", preview.DefaultTTL)),
		preview.WithMaxBytes(v.GetInt64("preview.max_bytes")),
		preview.WithConcurrency(v.GetInt("preview.concurrency")),
		preview.WithUserAgent(v.GetString("preview.user_agent")),
	)
	catalog := i18n.New(v.GetString("render.locale"))

	opts := []markdown.Option{
		markdown.WithTheme(markdown.ParseTheme(v.GetString("render.theme"))),
		markdown.WithSearchPath(v.GetString("render.search_path")),
		markdown.WithHardWraps(v.GetBool("render.hard_wraps")),
		markdown.WithSanitize(v.GetBool("render.sanitize")),
		markdown.WithEmoji(v.GetBool("render.emoji")),
		markdown.WithCodeStyle(v.GetString("render.code_style")),
		markdown.WithLocalizer(catalog.Localizer(catalog.Match(""))),
	}
	if v.GetBool("preview.enabled") {
		opts = append(opts, markdown.WithPreviews(previews))
	}

	return &App{
		Cfg:      v,
		Log:      log,
		Store:    store,
		Notes:    notes.New(store, log, v.GetString("namespace")),
		Renderer: markdown.New(opts...),
		Previews: previews,
		State:    appstate.New(),
		Catalog:  catalog,
	}
}

// Close releases the store.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	return a.Store.Close()
}

func durationOr(v *viper.Viper, key string, def time.Duration) time.Duration {
	if d := v.GetDuration(key); d > 0 {
		return d
	}
	return def
}
