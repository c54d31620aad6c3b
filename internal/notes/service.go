// Package notes is the note-level API over the store: tags are derived
// from the Markdown body, searches understand #tag tokens, and task
// toggles are persisted with optimistic versioning.
package notes

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mithrel/notemark/internal/db"
	"github.com/mithrel/notemark/internal/editor"
	"github.com/mithrel/notemark/internal/logger"
	"github.com/mithrel/notemark/internal/markdown"
	"github.com/mithrel/notemark/pkg/api"
)

var ErrEmptyNote = errors.New("note has no title and no body")

// maxToggleRetries bounds how often a task toggle is retried after a
// concurrent update.
const maxToggleRetries = 3

type Service struct {
	store     *db.Store
	log       *logger.Logger
	namespace string
	now       func() time.Time
}

// New returns a service over store. namespace is used whenever a call
// does not name one.
func New(store *db.Store, log *logger.Logger, namespace string) *Service {
	if log == nil {
		log = logger.Discard()
	}
	if strings.TrimSpace(namespace) == "" {
		namespace = "default"
	}
	return &Service{store: store, log: log, namespace: namespace, now: time.Now}
}

func (s *Service) Namespace() string { return s.namespace }

func (s *Service) ns(n string) string {
	if strings.TrimSpace(n) == "" {
		return s.namespace
	}
	return n
}

// Draft is a note that has not been stored yet.
type Draft struct {
	Title     string
	Body      string
	Tags      []string
	Namespace string
	CreatedAt time.Time
}

// Patch changes selected fields of a stored note. Nil fields are kept.
// IfVersion 0 means "whatever is stored now".
type Patch struct {
	Title     *string
	Body      *string
	Tags      []string
	IfVersion int64
}

// Create stores d as a new note. Tags written in the body are merged into
// the explicit ones.
func (s *Service) Create(ctx context.Context, d Draft) (api.Entry, error) {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		title = titleFrom(d.Body)
	}
	if title == "" && strings.TrimSpace(d.Body) == "" {
		return api.Entry{}, ErrEmptyNote
	}
	now := s.now().UTC()
	created := d.CreatedAt
	if created.IsZero() {
		created = now
	}
	e := api.Entry{
		ID:        api.NewID(),
		Version:   1,
		Title:     title,
		Body:      d.Body,
		Tags:      normalizeTags(append(append([]string{}, d.Tags...), markdown.ExtractTags(d.Body)...)),
		CreatedAt: created.UTC(),
		UpdatedAt: now,
		Namespace: s.ns(d.Namespace),
	}
	e, err := s.store.Entries.CreateEntry(ctx, e)
	if err != nil {
		return api.Entry{}, fmt.Errorf("create note: %w", err)
	}
	s.log.NoteSaved(e.ID, e.Version, e.Tags)
	return e, nil
}

// Get returns the note with id. Notes of other namespaces are reported as
// not found.
func (s *Service) Get(ctx context.Context, id string) (api.Entry, error) {
	e, err := s.store.Entries.GetEntry(ctx, id)
	if err != nil {
		return api.Entry{}, err
	}
	if e.Namespace != s.namespace {
		return api.Entry{}, db.ErrNotFound
	}
	return e, nil
}

// Update applies p with a compare-and-swap on the note version. A changed
// body re-derives the body tags; explicit tags not written in the old body
// are kept. A patch that changes nothing leaves the version alone.
func (s *Service) Update(ctx context.Context, id string, p Patch) (api.Entry, error) {
	cur, err := s.Get(ctx, id)
	if err != nil {
		return api.Entry{}, err
	}
	if p.IfVersion != 0 && p.IfVersion != cur.Version {
		return api.Entry{}, fmt.Errorf("update note %s: %w", id, db.ErrConflict)
	}
	before, oldBody := cur.Hash(), cur.Body
	if p.Title != nil {
		cur.Title = strings.TrimSpace(*p.Title)
	}
	if p.Body != nil {
		cur.Body = *p.Body
	}
	switch {
	case p.Tags != nil:
		cur.Tags = normalizeTags(append(append([]string{}, p.Tags...), markdown.ExtractTags(cur.Body)...))
	case p.Body != nil:
		cur.Tags = retag(cur.Tags, oldBody, cur.Body)
	}
	if cur.Hash() == before {
		return cur, nil
	}
	return s.save(ctx, cur, cur.Version)
}

func (s *Service) save(ctx context.Context, e api.Entry, ifVersion int64) (api.Entry, error) {
	e.Version = ifVersion + 1
	e.Touch(s.now())
	out, err := s.store.Entries.UpdateEntryCAS(ctx, e, ifVersion)
	if err != nil {
		return api.Entry{}, fmt.Errorf("update note %s: %w", e.ID, err)
	}
	s.log.NoteSaved(out.ID, out.Version, out.Tags)
	return out, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.store.Entries.DeleteEntry(ctx, id)
}

// List returns notes of the service namespace. Bodies are included.
func (s *Service) List(ctx context.Context, q api.ListQuery) ([]api.Entry, api.Page, error) {
	q.Namespace = s.namespace
	q.IncludeBody = true
	return s.store.Entries.ListEntries(ctx, q)
}

// ToggleTask flips the index-th task checkbox of the note body and saves
// the result. A concurrent update is retried against the fresh body.
func (s *Service) ToggleTask(ctx context.Context, id string, index int) (api.Entry, error) {
	for attempt := 0; ; attempt++ {
		cur, err := s.Get(ctx, id)
		if err != nil {
			return api.Entry{}, err
		}
		ed := &markdown.TaskEditor{Content: cur.Body, OnChange: func(c string) { cur.Body = c }}
		if err := ed.Toggle(index); err != nil {
			return api.Entry{}, err
		}
		out, err := s.save(ctx, cur, cur.Version)
		if errors.Is(err, db.ErrConflict) && attempt < maxToggleRetries {
			continue
		}
		if err != nil {
			return api.Entry{}, err
		}
		s.log.TaskToggled(out.ID, index, out.Version)
		return out, nil
	}
}

// Tags lists tag counts of the namespace, optionally by prefix.
func (s *Service) Tags(ctx context.Context, prefix string, limit int) ([]api.TagStat, error) {
	return s.store.Entries.ListTags(ctx, api.TagsQuery{Namespace: s.namespace, Prefix: prefix, Limit: limit})
}

// normalizeTags lowercases and trims tags, removing a leading "#", empties
// and duplicates while preserving first-seen order.
func normalizeTags(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		tt := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(t), "#")))
		if tt == "" {
			continue
		}
		if _, ok := seen[tt]; ok {
			continue
		}
		seen[tt] = struct{}{}
		out = append(out, tt)
	}
	return out
}

// retag drops the tags that came from oldBody and adds those of newBody.
func retag(tags []string, oldBody, newBody string) []string {
	stale := map[string]bool{}
	for _, t := range normalizeTags(markdown.ExtractTags(oldBody)) {
		stale[t] = true
	}
	var kept []string
	for _, t := range tags {
		if !stale[strings.ToLower(t)] {
			kept = append(kept, t)
		}
	}
	return normalizeTags(append(kept, markdown.ExtractTags(newBody)...))
}

var headingPrefix = regexp.MustCompile(`^#{1,6}[ \t]+`)

// titleFrom derives a title from the first line of a Markdown body. An
// ATX heading marker is dropped; a lone hashtag line stays as written.
func titleFrom(body string) string {
	line := editor.FirstLine(body)
	return strings.TrimSpace(headingPrefix.ReplaceAllString(line, ""))
}
