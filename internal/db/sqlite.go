package db

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

type sqliteStore struct{ db *sql.DB }

func (s *sqliteStore) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, nil)
}

func openSQLite(ctx context.Context, dsn string) (*Store, io.Closer, error) {
	path, memory := sqlitePath(dsn)
	if !memory {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	dbh, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, nil, err
	}
	if memory {
		// Every connection would see its own empty database.
		dbh.SetMaxOpenConns(1)
	} else if _, err := dbh.ExecContext(ctx, `PRAGMA journal_mode=WAL`); err != nil {
		_ = dbh.Close()
		return nil, nil, err
	}
	if err := migrate(ctx, dbh); err != nil {
		_ = dbh.Close()
		return nil, nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	s := &sqliteStore{db: dbh}
	return &Store{Entries: s, Previews: s, tx: s}, dbh, nil
}

func sqlitePath(dsn string) (path string, memory bool) {
	switch dsn = strings.TrimSpace(dsn); dsn {
	case "", "memory://", ":memory:", "sqlite://:memory:":
		return ":memory:", true
	}
	path = strings.TrimPrefix(dsn, "sqlite://")
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, rest)
		}
	}
	return path, false
}

// schema is applied in order on every open; each statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS entries (
		id         TEXT PRIMARY KEY,
		version    INTEGER NOT NULL,
		title      TEXT NOT NULL,
		body       TEXT NOT NULL,
		tags       TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		namespace  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS entries_by_ns_time ON entries(namespace, created_at DESC, id)`,
	`CREATE TABLE IF NOT EXISTS tags (
		tag         TEXT PRIMARY KEY COLLATE NOCASE,
		description TEXT DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS note_tags (
		note_id TEXT NOT NULL REFERENCES entries(id) ON DELETE CASCADE,
		tag     TEXT NOT NULL COLLATE NOCASE,
		PRIMARY KEY (note_id, tag)
	)`,
	`CREATE INDEX IF NOT EXISTS note_tags_by_tag ON note_tags(tag, note_id)`,
	`CREATE VIRTUAL TABLE IF NOT EXISTS entries_fts USING fts5(
		title, body, tags,
		namespace UNINDEXED,
		id UNINDEXED,
		tokenize = 'unicode61'
	)`,
	`CREATE TABLE IF NOT EXISTS link_previews (
		url         TEXT PRIMARY KEY,
		title       TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		image       TEXT NOT NULL DEFAULT '',
		site_name   TEXT NOT NULL DEFAULT '',
		favicon     TEXT NOT NULL DEFAULT '',
		fetched_at  TIMESTAMP NOT NULL
	)`,
}

func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
