package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Logger wraps charm/log for structured logging
type Logger struct {
	*log.Logger
}

// New creates a new logger with the given output
func New(w io.Writer) *Logger {
	return NewWithLevel(w, log.InfoLevel)
}

// NewWithLevel creates a logger with a specific level
func NewWithLevel(w io.Writer, level log.Level) *Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           level,
		Prefix:          "notemark",
	})
	return &Logger{Logger: l}
}

// FromConfig builds a stderr logger from the log.level and log.format
// settings. format is "text" (default), "json" or "logfmt".
func FromConfig(level, format string) (*Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	l := NewWithLevel(os.Stderr, lvl)
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
	case "json":
		l.SetFormatter(log.JSONFormatter)
	case "logfmt":
		l.SetFormatter(log.LogfmtFormatter)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	return l, nil
}

// ParseLevel accepts debug, info, warn, error and fatal; empty means info.
func ParseLevel(s string) (log.Level, error) {
	if strings.TrimSpace(s) == "" {
		return log.InfoLevel, nil
	}
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return log.InfoLevel, fmt.Errorf("log level %q: %w", s, err)
	}
	return lvl, nil
}

// Discard returns a logger that discards all output
func Discard() *Logger {
	return New(io.Discard)
}

// Rendered logs a finished document render.
func (l *Logger) Rendered(id string, bytes int, assets []string, d time.Duration) {
	l.Debug("note rendered",
		"id", id,
		"bytes", bytes,
		"assets", strings.Join(assets, ","),
		"duration", d.Round(time.Microsecond))
}

// Searched logs a search view query.
func (l *Logger) Searched(query string, results int, forceQuery int64) {
	l.Info("search",
		"query", query,
		"results", results,
		"force_query", forceQuery)
}

// PreviewFetched logs a link preview download.
func (l *Logger) PreviewFetched(url string, d time.Duration) {
	l.Debug("preview fetched",
		"url", url,
		"duration", d.Round(time.Millisecond))
}

// PreviewError logs a failed link preview download.
func (l *Logger) PreviewError(url string, err error) {
	l.Warn("preview failed",
		"url", url,
		"error", err)
}

// NoteSaved logs a stored note.
func (l *Logger) NoteSaved(id string, version int64, tags []string) {
	l.Info("note saved",
		"id", id,
		"version", version,
		"tags", strings.Join(tags, ","))
}

// TaskToggled logs a checkbox flip persisted to a note.
func (l *Logger) TaskToggled(id string, index int, version int64) {
	l.Info("task toggled",
		"id", id,
		"index", index,
		"version", version)
}

// ConfigLoaded logs successful config loading
func (l *Logger) ConfigLoaded(file, dsn string) {
	l.Debug("config loaded",
		"file", file,
		"db", dsn)
}

// RequestError logs a failed HTTP request.
func (l *Logger) RequestError(method, path string, status int, err error) {
	l.Error("request failed",
		"method", method,
		"path", path,
		"status", status,
		"error", err)
}
