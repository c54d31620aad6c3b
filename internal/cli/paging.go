package cli

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mithrel/notemark/internal/present"
	"github.com/mithrel/notemark/internal/util"
	"github.com/mithrel/notemark/pkg/api"
)

// defaultPageSize is used when neither --page-size nor export.page_size is set.
const defaultPageSize = 200

// pageFunc fetches the page starting at cursor.
type pageFunc func(ctx context.Context, cursor string, limit int) ([]api.Entry, api.Page, error)

// streamEntries walks every page and hands each to w. limit caps the total
// number of entries; 0 means all.
func streamEntries(ctx context.Context, pageSize, limit int, fetch pageFunc, w present.StreamWriter) error {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	cursor := ""
	seen := 0
	for {
		n := pageSize
		if limit > 0 && limit-seen < n {
			n = limit - seen
		}
		entries, page, err := fetch(ctx, cursor, n)
		if err != nil {
			return err
		}
		if err := w.WriteEntries(entries); err != nil {
			return err
		}
		seen += len(entries)
		if len(entries) == 0 || page.Next == "" || page.Next == cursor || (limit > 0 && seen >= limit) {
			break
		}
		cursor = page.Next
	}
	return w.Close()
}

type collector struct{ entries []api.Entry }

func (c *collector) WriteEntries(es []api.Entry) error {
	c.entries = append(c.entries, es...)
	return nil
}

func (c *collector) Close() error { return nil }

// fetchAllEntries collects every page into memory.
func fetchAllEntries(ctx context.Context, pageSize int, fetch pageFunc) ([]api.Entry, error) {
	var c collector
	if err := streamEntries(ctx, pageSize, 0, fetch, &c); err != nil {
		return nil, err
	}
	return c.entries, nil
}

// FilterOpts are the tag and time filters shared by list style commands.
type FilterOpts struct {
	TagsAny string
	TagsAll string
	Since   string
	Until   string
}

func addFilterFlags(cmd *cobra.Command, f *FilterOpts) {
	cmd.Flags().StringVar(&f.TagsAny, "tags-any", "", "comma-separated tags; match notes with any of them")
	cmd.Flags().StringVar(&f.TagsAll, "tags-all", "", "comma-separated tags; match notes with all of them")
	cmd.Flags().StringVar(&f.Since, "since", "", "only notes created after (e.g. 3d, 2w, 2026-01-02)")
	cmd.Flags().StringVar(&f.Until, "until", "", "only notes created before (same forms as --since)")
	_ = cmd.RegisterFlagCompletionFunc("tags-any", completeTags)
	_ = cmd.RegisterFlagCompletionFunc("tags-all", completeTags)
}

func (f FilterOpts) empty() bool {
	return f.TagsAny == "" && f.TagsAll == "" && f.Since == "" && f.Until == ""
}

// listQuery turns the filters into a store query.
func (f FilterOpts) listQuery() (api.ListQuery, error) {
	since, until, err := util.NormalizeTimeRange(f.Since, f.Until, time.Now())
	if err != nil {
		return api.ListQuery{}, err
	}
	return api.ListQuery{
		Any:   splitCSV(f.TagsAny),
		All:   splitCSV(f.TagsAll),
		Since: since,
		Until: until,
	}, nil
}

// splitCSV splits a comma-separated list into trimmed non-empty strings.
func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
