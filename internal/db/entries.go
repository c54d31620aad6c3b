package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mithrel/notemark/pkg/api"
)

const entryColumns = `id, version, title, body, tags, created_at, updated_at, namespace`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(r rowScanner) (api.Entry, error) {
	var (
		e    api.Entry
		tags string
	)
	if err := r.Scan(&e.ID, &e.Version, &e.Title, &e.Body, &tags, &e.CreatedAt, &e.UpdatedAt, &e.Namespace); err != nil {
		return api.Entry{}, err
	}
	_ = json.Unmarshal([]byte(tags), &e.Tags)
	return e, nil
}

// normalizeTags lower-cases, strips a leading '#', and drops blanks and
// duplicates while keeping first-seen order.
func normalizeTags(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.TrimSpace(t)
		t = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(t, "#")))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func tagsJSON(tags []string) string {
	b, _ := json.Marshal(tags)
	return string(b)
}

func (s *sqliteStore) GetEntry(ctx context.Context, id string) (api.Entry, error) {
	e, err := scanEntry(conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return api.Entry{}, ErrNotFound
	}
	return e, err
}

func (s *sqliteStore) CreateEntry(ctx context.Context, e api.Entry) (_ api.Entry, err error) {
	if e.ID == "" {
		return api.Entry{}, fmt.Errorf("create entry: empty id: %w", ErrConflict)
	}
	if e.Version == 0 {
		e.Version = 1
	}
	e.Tags = normalizeTags(e.Tags)

	tx, finish, err := begin(ctx, s.db)
	if err != nil {
		return api.Entry{}, err
	}
	defer finish(&err)

	_, err = tx.ExecContext(ctx, `INSERT INTO entries (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Version, e.Title, e.Body, tagsJSON(e.Tags), e.CreatedAt.UTC(), e.UpdatedAt.UTC(), e.Namespace)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			err = fmt.Errorf("create entry %s: %w", e.ID, ErrConflict)
		}
		return api.Entry{}, err
	}
	if err = reindex(ctx, tx, e, false); err != nil {
		return api.Entry{}, err
	}
	return e, nil
}

func (s *sqliteStore) UpdateEntryCAS(ctx context.Context, e api.Entry, ifVersion int64) (_ api.Entry, err error) {
	e.Tags = normalizeTags(e.Tags)

	tx, finish, err := begin(ctx, s.db)
	if err != nil {
		return api.Entry{}, err
	}
	defer finish(&err)

	res, err := tx.ExecContext(ctx, `UPDATE entries
		SET version = ?, title = ?, body = ?, tags = ?, updated_at = ?, namespace = ?
		WHERE id = ? AND version = ?`,
		e.Version, e.Title, e.Body, tagsJSON(e.Tags), e.UpdatedAt.UTC(), e.Namespace, e.ID, ifVersion)
	if err != nil {
		return api.Entry{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrConflict
		return api.Entry{}, err
	}

	stored, err := scanEntry(tx.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE id = ?`, e.ID))
	if err != nil {
		return api.Entry{}, err
	}
	if err = reindex(ctx, tx, stored, true); err != nil {
		return api.Entry{}, err
	}
	return stored, nil
}

func (s *sqliteStore) DeleteEntry(ctx context.Context, id string) (err error) {
	tx, finish, err := begin(ctx, s.db)
	if err != nil {
		return err
	}
	defer finish(&err)

	res, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrNotFound
		return err
	}
	return dropIndex(ctx, tx, id)
}

// reindex rebuilds the tag projection and the full-text row of e. replace
// clears the previous rows first.
func reindex(ctx context.Context, tx *sql.Tx, e api.Entry, replace bool) error {
	if replace {
		if err := dropIndex(ctx, tx, e.ID); err != nil {
			return err
		}
	}
	for _, tag := range e.Tags {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO tags (tag) VALUES (?)`, tag); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO note_tags (note_id, tag) VALUES (?, ?)`, e.ID, tag); err != nil {
			return err
		}
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO entries_fts (rowid, title, body, tags, namespace, id)
		VALUES ((SELECT rowid FROM entries WHERE id = ?), ?, ?, ?, ?, ?)`,
		e.ID, e.Title, e.Body, strings.Join(e.Tags, " "), e.Namespace, e.ID)
	return err
}

func dropIndex(ctx context.Context, tx *sql.Tx, id string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM entries_fts WHERE id = ?`, id); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `DELETE FROM note_tags WHERE note_id = ?`, id)
	return err
}
