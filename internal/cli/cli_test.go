package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/notemark/internal/markdown"
	"github.com/mithrel/notemark/pkg/api"
)

// writeConfigTOML writes a config pointing data_dir at a temp dir.
func writeConfigTOML(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.toml")
	content := `data_dir = "` + strings.ReplaceAll(dir, "\\", "\\\\") + `"
namespace = "testcli"

[log]
level = "error"

[preview]
enabled = false
` + extra
	require.NoError(t, os.WriteFile(cfg, []byte(content), 0o600))
	return cfg
}

// run executes the root command with args and returns combined output.
func run(t *testing.T, cfg string, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	if stdin != nil {
		root.SetIn(stdin)
	}
	root.SetArgs(append([]string{"--config", cfg}, args...))
	err := root.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, cfg string, args ...string) string {
	t.Helper()
	out, err := run(t, cfg, nil, args...)
	require.NoError(t, err, out)
	return out
}

// addNote creates a note and returns its id.
func addNote(t *testing.T, cfg string, args ...string) string {
	t.Helper()
	out := mustRun(t, cfg, append([]string{"note", "add"}, args...)...)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	id, _, ok := strings.Cut(lines[len(lines)-1], "\t")
	require.True(t, ok, "unexpected add output %q", out)
	require.NotEmpty(t, id)
	return id
}

func showJSON(t *testing.T, cfg, id string) api.Entry {
	t.Helper()
	out := mustRun(t, cfg, "note", "show", id, "--output", "json")
	var e api.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &e), out)
	return e
}

func TestCLIAddShowDelete(t *testing.T) {
	cfg := writeConfigTOML(t, "")

	id := addNote(t, cfg, "CLI Title", "-t", "Work,personal", "--body", "plan the #release")
	e := showJSON(t, cfg, id)
	assert.Equal(t, id, e.ID)
	assert.Equal(t, "CLI Title", e.Title)
	assert.Equal(t, "testcli", e.Namespace)
	assert.ElementsMatch(t, []string{"work", "personal", "release"}, e.Tags)

	out := mustRun(t, cfg, "note", "delete", id)
	assert.Contains(t, out, "Deleted "+id)

	_, err := run(t, cfg, nil, "note", "show", id)
	assert.Error(t, err)
}

func TestCLINoteShortcutAndDefaultTags(t *testing.T) {
	cfg := writeConfigTOML(t, "")
	cfg2 := cfg + ".with-tags.toml"
	data, err := os.ReadFile(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfg2, []byte(`default_tags = ["inbox"]`+"\n"+string(data)), 0o600))

	out := mustRun(t, cfg2, "note", "quick", "thought")
	id, title, _ := strings.Cut(strings.TrimSpace(out), "\t")
	assert.Equal(t, "quick thought", title)
	assert.Equal(t, []string{"inbox"}, showJSON(t, cfg2, id).Tags)
}

func TestCLIAddBodyFromStdin(t *testing.T) {
	cfg := writeConfigTOML(t, "")
	out, err := run(t, cfg, strings.NewReader("# Heading title\n\ntext #stdin\n"), "note", "add", "--body", "-")
	require.NoError(t, err, out)
	id, title, _ := strings.Cut(strings.TrimSpace(out), "\t")
	assert.Equal(t, "Heading title", title)
	assert.Equal(t, []string{"stdin"}, showJSON(t, cfg, id).Tags)
}

func TestCLIShowHTML(t *testing.T) {
	cfg := writeConfigTOML(t, "")
	id := addNote(t, cfg, "Tasks", "--body", "- [ ] one\n- [x] two #home\n")
	out := mustRun(t, cfg, "note", "show", id, "--html")
	assert.Contains(t, out, `class="markdown-body"`)
	assert.Contains(t, out, `data-tag="home"`)
}

func TestCLIEditWithFlags(t *testing.T) {
	cfg := writeConfigTOML(t, "")
	id := addNote(t, cfg, "Before", "--body", "old #draft")

	out := mustRun(t, cfg, "note", "edit", id, "--title", "After", "--body", "new #final")
	assert.Contains(t, out, "v2")

	e := showJSON(t, cfg, id)
	assert.Equal(t, "After", e.Title)
	assert.Equal(t, "new #final", e.Body)
	assert.Equal(t, []string{"final"}, e.Tags)
	assert.Equal(t, int64(2), e.Version)
}

func TestCLIToggle(t *testing.T) {
	cfg := writeConfigTOML(t, "")
	id := addNote(t, cfg, "Chores", "--body", "- [ ] dishes\n- [ ] laundry\n")

	mustRun(t, cfg, "note", "toggle", id, "1")
	assert.Equal(t, "- [ ] dishes\n- [x] laundry\n", showJSON(t, cfg, id).Body)

	_, err := run(t, cfg, nil, "note", "toggle", id, "7")
	assert.ErrorIs(t, err, markdown.ErrTaskNotFound)

	_, err = run(t, cfg, nil, "note", "toggle", id, "x")
	assert.ErrorContains(t, err, "invalid task index")
}

func TestCLISearch(t *testing.T) {
	cfg := writeConfigTOML(t, "")
	addNote(t, cfg, "Standup", "--body", "daily sync #work")
	addNote(t, cfg, "Bread", "--body", "flour and water #recipes")

	out := mustRun(t, cfg, "note", "search", "#work", "--output", "json")
	var got []api.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &got), out)
	require.Len(t, got, 1)
	assert.Equal(t, "Standup", got[0].Title)

	out = mustRun(t, cfg, "note", "search", "flour", "--noheaders")
	assert.Contains(t, out, "Bread")
	assert.NotContains(t, out, "Standup")
}

func TestCLIDeleteByFilter(t *testing.T) {
	cfg := writeConfigTOML(t, "")
	addNote(t, cfg, "keep", "-t", "keep")
	addNote(t, cfg, "drop one", "-t", "tmp")
	addNote(t, cfg, "drop two", "-t", "tmp")

	out := mustRun(t, cfg, "note", "delete", "--tags-any", "tmp", "--dry")
	assert.Contains(t, out, "Would delete 2 notes")

	// stdin is not a terminal, so a bulk delete needs --yes
	_, err := run(t, cfg, nil, "note", "delete", "--tags-any", "tmp")
	assert.ErrorContains(t, err, "--yes")

	out = mustRun(t, cfg, "note", "delete", "--tags-any", "tmp", "--yes")
	assert.Contains(t, out, "Deleted 2 notes")

	_, err = run(t, cfg, nil, "note", "delete")
	assert.Error(t, err)
	_, err = run(t, cfg, nil, "note", "delete", "some-id", "--tags-any", "x")
	assert.ErrorContains(t, err, "cannot be combined")
}

func TestCLIImport(t *testing.T) {
	cfg := writeConfigTOML(t, "")
	dir := t.TempDir()

	md := "---\ntitle: Trip plan\ntags: travel, summer\n---\nBook the #train\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "trip.md"), []byte(md), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.md"), []byte(""), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.txt"), []byte("not markdown"), 0o600))

	out := mustRun(t, cfg, "note", "import", dir)
	assert.Contains(t, out, "Imported 1 notes, skipped 1.")

	ndjson := `{"title":"One","body":"first #json"}` + "\n" + `{"title":"Two","body":"second"}` + "\n"
	out, err := run(t, cfg, strings.NewReader(ndjson), "note", "import", "--format", "json", "-")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Imported 2 notes, skipped 0.")

	_, err = run(t, cfg, strings.NewReader("x"), "note", "import", "-")
	assert.ErrorContains(t, err, "--format")

	out = mustRun(t, cfg, "note", "list", "--output", "json")
	var all []api.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &all), out)
	require.Len(t, all, 3)

	out = mustRun(t, cfg, "note", "list", "--tags-all", "travel,train", "--output", "json")
	var trip []api.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &trip), out)
	require.Len(t, trip, 1)
	assert.Equal(t, "Trip plan", trip[0].Title)
}

func TestCLITags(t *testing.T) {
	cfg := writeConfigTOML(t, "")
	addNote(t, cfg, "a", "--body", "#golang #go")
	addNote(t, cfg, "b", "--body", "#golang")

	out := mustRun(t, cfg, "tags", "list", "--noheaders")
	assert.Contains(t, out, "golang  2")
	assert.Contains(t, out, "go      1")

	out = mustRun(t, cfg, "tags", "list", "--output", "pretty")
	assert.Contains(t, out, "#golang")

	out = mustRun(t, cfg, "tags", "suggest", "glng")
	assert.Equal(t, "golang", strings.Split(strings.TrimSpace(out), "\n")[0])
}

func TestCLIOutputValidation(t *testing.T) {
	cfg := writeConfigTOML(t, "")
	_, err := run(t, cfg, nil, "note", "list", "--output", "tui")
	assert.ErrorContains(t, err, "invalid --output")

	_, err = run(t, cfg, nil, "note", "list", "--since", "someday")
	assert.ErrorContains(t, err, "--since")
}
