// Package db is the SQLite-backed notes store: entries with a tag
// projection and an FTS5 index, plus the link preview cache.
package db

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/mithrel/notemark/pkg/api"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("version conflict")
)

// EntryRepo stores notes.
type EntryRepo interface {
	CreateEntry(ctx context.Context, e api.Entry) (api.Entry, error)
	GetEntry(ctx context.Context, id string) (api.Entry, error)
	// UpdateEntryCAS writes e only when the stored version equals ifVersion.
	UpdateEntryCAS(ctx context.Context, e api.Entry, ifVersion int64) (api.Entry, error)
	DeleteEntry(ctx context.Context, id string) error
	ListEntries(ctx context.Context, q api.ListQuery) ([]api.Entry, api.Page, error)
	Search(ctx context.Context, q api.SearchQuery) ([]api.Entry, api.Page, error)
	ListTags(ctx context.Context, q api.TagsQuery) ([]api.TagStat, error)
}

// PreviewRepo caches fetched link previews keyed by URL.
type PreviewRepo interface {
	GetPreview(ctx context.Context, url string) (api.LinkPreview, error)
	PutPreview(ctx context.Context, p api.LinkPreview) error
	PrunePreviews(ctx context.Context, before time.Time) (int64, error)
}

// Store groups the repositories sharing one database handle.
type Store struct {
	Entries  EntryRepo
	Previews PreviewRepo

	tx     TxProvider
	closer io.Closer
}

// Open connects to the database named by dsn ("sqlite:///path/notes.db",
// a bare path, or "memory://" for a throwaway database).
func Open(ctx context.Context, dsn string) (*Store, error) {
	st, closer, err := openSQLite(ctx, dsn)
	if err != nil {
		return nil, err
	}
	st.closer = closer
	return st, nil
}

// WithinTx runs fn in one transaction. Repository calls made with the
// context passed to fn join it.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if TxFromContext(ctx) != nil || s.tx == nil {
		return fn(ctx)
	}
	tx, err := s.tx.BeginTx(ctx)
	if err != nil {
		return err
	}
	if err := fn(WithTx(ctx, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *Store) Close() error {
	if s == nil || s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
