package db

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/mithrel/notemark/pkg/api"
)

// scope narrows a listing to a namespace, a creation window and tag sets.
type scope struct {
	namespace    string
	since, until time.Time
	any, all     []string
}

// cte renders scope as a "filtered" CTE yielding (id, c_at) rows.
func (sc scope) cte() (string, []any) {
	var (
		b     strings.Builder
		args  []any
		conds []string
	)
	anyOf, allOf := normalizeTags(sc.any), normalizeTags(sc.all)
	b.WriteString("WITH filtered AS (SELECT e.id, e.created_at AS c_at FROM entries e")
	if len(anyOf)+len(allOf) > 0 {
		b.WriteString(" JOIN note_tags nt ON nt.note_id = e.id")
	}
	if sc.namespace != "" {
		conds = append(conds, "e.namespace = ?")
		args = append(args, sc.namespace)
	}
	if !sc.since.IsZero() {
		conds = append(conds, "e.created_at >= ?")
		args = append(args, sc.since.UTC())
	}
	if !sc.until.IsZero() {
		conds = append(conds, "e.created_at <= ?")
		args = append(args, sc.until.UTC())
	}
	if len(conds) > 0 {
		b.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	b.WriteString(" GROUP BY e.id")

	var having []string
	if n := len(allOf); n > 0 {
		having = append(having, tagCount(n)+" = "+strconv.Itoa(n))
		args = appendStrings(args, allOf)
	}
	if n := len(anyOf); n > 0 {
		having = append(having, tagCount(n)+" > 0")
		args = appendStrings(args, anyOf)
	}
	if len(having) > 0 {
		b.WriteString(" HAVING " + strings.Join(having, " AND "))
	}
	b.WriteString(") ")
	return b.String(), args
}

// tagCount counts the joined note_tags rows matching n bound tags.
func tagCount(n int) string {
	marks := strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
	return "COUNT(CASE WHEN nt.tag IN (" + marks + ") THEN 1 END)"
}

func appendStrings(args []any, ss []string) []any {
	for _, s := range ss {
		args = append(args, s)
	}
	return args
}

type pageQuery struct {
	scope
	match    string
	withBody bool
	cursor   string
	reverse  bool
	limit    int
}

// page runs one keyset-paginated query. Entries always come back newest
// first; reverse walks towards newer entries from the cursor.
func (s *sqliteStore) page(ctx context.Context, q pageQuery) ([]api.Entry, api.Page, error) {
	cte, args := q.cte()
	body := "'' AS body"
	if q.withBody {
		body = "e.body"
	}
	sqlq := cte + "SELECT e.id, e.version, e.title, " + body +
		", e.tags, e.created_at, e.updated_at, e.namespace FROM filtered f JOIN entries e ON e.id = f.id"

	var where []string
	if q.match != "" {
		sqlq += " JOIN entries_fts x ON x.id = e.id"
		where = append(where, "x.entries_fts MATCH ?")
		args = append(args, q.match)
	}
	if c, ok := decodeCursor(q.cursor); ok {
		cond, cargs := c.beyond(q.reverse)
		where = append(where, cond)
		args = append(args, cargs...)
	}
	if len(where) > 0 {
		sqlq += " WHERE " + strings.Join(where, " AND ")
	}
	sqlq += " " + keysetOrder(q.reverse) + " LIMIT ?"
	args = append(args, q.limit+1)

	rows, err := conn(ctx, s.db).QueryContext(ctx, sqlq, args...)
	if err != nil {
		return nil, api.Page{}, err
	}
	defer rows.Close()
	var out []api.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, api.Page{}, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, api.Page{}, err
	}

	more := len(out) > q.limit
	if more {
		out = out[:q.limit]
	}
	if q.reverse {
		slices.Reverse(out)
	}
	return out, pageOf(out, more, q.reverse, q.cursor != ""), nil
}

// ListEntries returns one page of notes. Bodies are left empty unless
// q.IncludeBody is set.
func (s *sqliteStore) ListEntries(ctx context.Context, q api.ListQuery) ([]api.Entry, api.Page, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 1000
	}
	return s.page(ctx, pageQuery{
		scope:    scope{namespace: q.Namespace, since: q.Since, until: q.Until, any: q.Any, all: q.All},
		withBody: q.IncludeBody,
		cursor:   q.Cursor,
		reverse:  q.Reverse,
		limit:    limit,
	})
}

// Search matches q.Query against title, body and tags. Results carry bodies.
func (s *sqliteStore) Search(ctx context.Context, q api.SearchQuery) ([]api.Entry, api.Page, error) {
	match := ftsQuery(q.Query)
	if match == "" {
		return nil, api.Page{}, nil
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 500
	}
	es, page, err := s.page(ctx, pageQuery{
		scope:    scope{namespace: q.Namespace, since: q.Since, until: q.Until, any: q.Any, all: q.All},
		match:    match,
		withBody: true,
		cursor:   q.Cursor,
		reverse:  q.Reverse,
		limit:    limit,
	})
	if err != nil {
		return nil, api.Page{}, fmt.Errorf("search %q: %w", q.Query, err)
	}
	return es, page, nil
}

// ListTags counts notes per tag, most used first.
func (s *sqliteStore) ListTags(ctx context.Context, q api.TagsQuery) ([]api.TagStat, error) {
	var (
		conds []string
		args  []any
	)
	if q.Namespace != "" {
		conds = append(conds, "e.namespace = ?")
		args = append(args, q.Namespace)
	}
	if p := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(q.Prefix), "#")); p != "" {
		conds = append(conds, `nt.tag LIKE ? ESCAPE '\'`)
		args = append(args, likeEscaper.Replace(p)+"%")
	}
	sqlq := `SELECT nt.tag, COUNT(DISTINCT nt.note_id) AS n, COALESCE(t.description, '')
		FROM note_tags nt
		JOIN entries e ON e.id = nt.note_id
		LEFT JOIN tags t ON t.tag = nt.tag`
	if len(conds) > 0 {
		sqlq += " WHERE " + strings.Join(conds, " AND ")
	}
	sqlq += " GROUP BY nt.tag ORDER BY n DESC, nt.tag"
	if q.Limit > 0 {
		sqlq += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := conn(ctx, s.db).QueryContext(ctx, sqlq, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var stats []api.TagStat
	for rows.Next() {
		var st api.TagStat
		if err := rows.Scan(&st.Tag, &st.Count, &st.Description); err != nil {
			return nil, err
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
