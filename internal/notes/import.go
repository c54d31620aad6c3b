package notes

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mithrel/notemark/pkg/api"
)

// FrontMatter is the YAML header accepted at the top of imported files.
type FrontMatter struct {
	Title     string    `yaml:"title"`
	Tags      TagList   `yaml:"tags"`
	Namespace string    `yaml:"namespace"`
	Created   time.Time `yaml:"created"`
}

// TagList decodes either a YAML sequence or a comma-separated string.
type TagList []string

func (t *TagList) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		var out []string
		for _, p := range strings.Split(n.Value, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		*t = out
		return nil
	case yaml.SequenceNode:
		var out []string
		if err := n.Decode(&out); err != nil {
			return err
		}
		*t = out
		return nil
	}
	return fmt.Errorf("tags: line %d: expected list or string", n.Line)
}

// SplitFrontMatter separates a leading "---" YAML block from the body.
// Content without one is returned as the body.
func SplitFrontMatter(content []byte) (FrontMatter, string, error) {
	var fm FrontMatter
	src := strings.TrimPrefix(string(content), "\ufeff")
	if !strings.HasPrefix(src, "---\n") && !strings.HasPrefix(src, "---\r\n") {
		return fm, src, nil
	}
	lines := strings.SplitAfter(src, "\n")
	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], "\r\n") != "---" {
			continue
		}
		if err := yaml.Unmarshal([]byte(strings.Join(lines[1:i], "")), &fm); err != nil {
			return fm, "", fmt.Errorf("front matter: %w", err)
		}
		return fm, strings.Join(lines[i+1:], ""), nil
	}
	return fm, src, nil
}

// ImportMarkdown stores one Markdown file. name is only used to derive a
// title when neither the front matter nor the body supplies one.
func (s *Service) ImportMarkdown(ctx context.Context, name string, r io.Reader) (api.Entry, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return api.Entry{}, err
	}
	fm, body, err := SplitFrontMatter(raw)
	if err != nil {
		return api.Entry{}, fmt.Errorf("%s: %w", name, err)
	}
	title := strings.TrimSpace(fm.Title)
	if title == "" {
		title = titleFrom(body)
	}
	if title == "" && strings.TrimSpace(body) == "" {
		return api.Entry{}, fmt.Errorf("%s: %w", name, ErrEmptyNote)
	}
	if title == "" && name != "" {
		title = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}
	return s.Create(ctx, Draft{
		Title:     title,
		Body:      body,
		Tags:      fm.Tags,
		Namespace: fm.Namespace,
		CreatedAt: fm.Created,
	})
}

// ImportStats counts the outcome of a bulk import.
type ImportStats struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// ImportJSON reads entries as a JSON array or as NDJSON. Each entry is
// created anew; its ID and version are ignored. Entries that fail to store
// are logged and counted as skipped. A malformed stream stops the import.
func (s *Service) ImportJSON(ctx context.Context, r io.Reader) (ImportStats, error) {
	var st ImportStats
	br := bufio.NewReader(r)
	first, err := peekFirstNonSpace(br)
	if errors.Is(err, io.EOF) {
		return st, nil
	}
	if err != nil {
		return st, err
	}

	one := func(e api.Entry) {
		_, err := s.Create(ctx, Draft{
			Title:     e.Title,
			Body:      e.Body,
			Tags:      e.Tags,
			Namespace: e.Namespace,
			CreatedAt: e.CreatedAt,
		})
		if err != nil {
			s.log.Warn("import skipped", "title", e.Title, "error", err)
			st.Skipped++
			return
		}
		st.Imported++
	}

	dec := json.NewDecoder(br)
	if first == '[' {
		var arr []api.Entry
		if err := dec.Decode(&arr); err != nil {
			return st, err
		}
		for _, e := range arr {
			one(e)
		}
		return st, nil
	}
	for {
		var e api.Entry
		if err := dec.Decode(&e); err != nil {
			if errors.Is(err, io.EOF) {
				return st, nil
			}
			return st, err
		}
		one(e)
	}
}

func peekFirstNonSpace(r *bufio.Reader) (byte, error) {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		if b == ' ' || b == '\n' || b == '\r' || b == '\t' {
			continue
		}
		// put it back for the decoder
		if err := r.UnreadByte(); err != nil {
			return 0, err
		}
		return b, nil
	}
}
