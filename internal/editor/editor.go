// Package editor hands a note to $VISUAL/$EDITOR as a Markdown file with a
// YAML front matter header, and reads it back.
package editor

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// header is the front matter block shown above the body.
type header struct {
	Title string   `yaml:"title"`
	Tags  []string `yaml:"tags,flow"`
}

// ComposeContent renders title, tags and body as a front matter document.
// The result parses with notes.SplitFrontMatter.
func ComposeContent(title string, tags []string, body string) string {
	if tags == nil {
		tags = []string{}
	}
	meta, err := yaml.Marshal(header{Title: title, Tags: tags})
	if err != nil {
		// Only strings and string slices are marshalled.
		meta = []byte("title: \"\"\ntags: []\n")
	}
	doc := "---\n" + string(meta) + "---\n"
	if body == "" {
		return doc
	}
	if !strings.HasSuffix(body, "\n") {
		body += "\n"
	}
	return doc + body
}

// fallbackEditors are tried in order when neither $VISUAL nor $EDITOR is set.
var fallbackEditors = []string{"nvim", "vim", "vi", "nano"}

// PreferredEditor returns $VISUAL, then $EDITOR, then the first fallback
// editor found on $PATH.
func PreferredEditor() (string, error) {
	for _, env := range []string{"VISUAL", "EDITOR"} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return v, nil
		}
	}
	for _, name := range fallbackEditors {
		if p, err := exec.LookPath(name); err == nil {
			return p, nil
		}
	}
	return "", errors.New("no editor found; set $EDITOR or $VISUAL")
}

// PathForID returns the scratch file used while editing note id.
func PathForID(id, namespace string) (string, error) {
	name := id + ".md"
	if ns := sanitizeNamespace(namespace); ns != "" {
		name = ns + "." + name
	}
	if xdg := os.Getenv("XDG_RUNTIME_DIR"); xdg != "" {
		return filepath.Join(xdg, "notemark", name), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", "notemark", "edit", name), nil
}

func sanitizeNamespace(namespace string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, strings.TrimSpace(namespace))
}

// OpenAt writes initial to path, runs the editor on it and returns the
// saved bytes and whether they differ from initial.
func OpenAt(path string, initial []byte) (final []byte, changed bool, err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, false, err
	}
	if err := os.WriteFile(path, initial, 0o600); err != nil {
		return nil, false, err
	}
	ed, err := PreferredEditor()
	if err != nil {
		return nil, false, err
	}
	// Run through sh so editor settings with flags ("code -w") work.
	cmd := exec.Command("sh", "-c", `$EDITORCMD "$FILEPATH"`)
	cmd.Env = append(os.Environ(), "EDITORCMD="+ed, "FILEPATH="+path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return nil, false, err
	}
	out, err := os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}
	return out, !bytes.Equal(out, initial), nil
}

const maxTitleRunes = 120

// FirstLine returns the first non-blank line of s with inner whitespace
// squashed, cut to a title-sized length.
func FirstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	line = strings.Join(strings.Fields(line), " ")
	if r := []rune(line); len(r) > maxTitleRunes {
		line = string(r[:maxTitleRunes])
	}
	return line
}
