package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/mithrel/notemark/pkg/api"
)

func (s *sqliteStore) GetPreview(ctx context.Context, url string) (api.LinkPreview, error) {
	var p api.LinkPreview
	row := conn(ctx, s.db).QueryRowContext(ctx, `SELECT url, title, description, image, site_name, favicon, fetched_at FROM link_previews WHERE url=?`, url)
	if err := row.Scan(&p.URL, &p.Title, &p.Description, &p.Image, &p.SiteName, &p.Favicon, &p.FetchedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return api.LinkPreview{}, ErrNotFound
		}
		return api.LinkPreview{}, err
	}
	return p, nil
}

// PutPreview inserts or replaces the cached preview for p.URL.
func (s *sqliteStore) PutPreview(ctx context.Context, p api.LinkPreview) error {
	if strings.TrimSpace(p.URL) == "" {
		return errors.New("put preview: empty url")
	}
	if p.FetchedAt.IsZero() {
		p.FetchedAt = time.Now()
	}
	_, err := conn(ctx, s.db).ExecContext(ctx, `INSERT INTO link_previews(url, title, description, image, site_name, favicon, fetched_at)
VALUES(?,?,?,?,?,?,?)
ON CONFLICT(url) DO UPDATE SET title=excluded.title, description=excluded.description, image=excluded.image,
  site_name=excluded.site_name, favicon=excluded.favicon, fetched_at=excluded.fetched_at`,
		p.URL, p.Title, p.Description, p.Image, p.SiteName, p.Favicon, p.FetchedAt.UTC())
	return err
}

// PrunePreviews drops previews fetched before the given time.
func (s *sqliteStore) PrunePreviews(ctx context.Context, before time.Time) (int64, error) {
	res, err := conn(ctx, s.db).ExecContext(ctx, `DELETE FROM link_previews WHERE fetched_at < ?`, before.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
