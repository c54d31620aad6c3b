package logger

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, log.InfoLevel, lvl)

	lvl, err = ParseLevel(" DEBUG ")
	require.NoError(t, err)
	assert.Equal(t, log.DebugLevel, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestFromConfigFormat(t *testing.T) {
	_, err := FromConfig("info", "xml")
	assert.Error(t, err)

	l, err := FromConfig("warn", "json")
	require.NoError(t, err)
	assert.Equal(t, log.WarnLevel, l.GetLevel())
}

func TestDomainHelpers(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithLevel(&buf, log.DebugLevel)
	l.SetFormatter(log.LogfmtFormatter)

	l.Searched("#work", 3, 7)
	l.PreviewError("https://x.example", errors.New("timeout"))
	l.Rendered("n1", 120, []string{"mermaid", "katex"}, time.Millisecond)

	out := buf.String()
	assert.Contains(t, out, `query=#work`)
	assert.Contains(t, out, "force_query=7")
	assert.Contains(t, out, "error=timeout")
	assert.Contains(t, out, "assets=mermaid,katex")
}
