package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)

func TestParseTimeExpr(t *testing.T) {
	cases := map[string]time.Time{
		"90m":              now.Add(-90 * time.Minute),
		"2h":               now.Add(-2 * time.Hour),
		"3d":               now.AddDate(0, 0, -3),
		"2w":               now.AddDate(0, 0, -14),
		"1mo":              now.AddDate(0, -1, 0),
		"2026-01-02":       time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		"2026-01-02T08:30": time.Date(2026, 1, 2, 8, 30, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, err := ParseTimeExpr(in, now)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), "%s: got %v want %v", in, got, want)
	}

	for _, bad := range []string{"", "xd", "yesterday", "-1w"} {
		_, err := ParseTimeExpr(bad, now)
		assert.Error(t, err, bad)
	}
}

func TestNormalizeTimeRange(t *testing.T) {
	s, u, err := NormalizeTimeRange("", "", now)
	require.NoError(t, err)
	assert.True(t, s.IsZero())
	assert.True(t, u.IsZero())

	// until older than since gets swapped
	s, u, err = NormalizeTimeRange("1d", "1w", now)
	require.NoError(t, err)
	assert.True(t, s.Before(u))
	assert.Equal(t, now.AddDate(0, 0, -7), s)

	_, _, err = NormalizeTimeRange("nope", "", now)
	assert.ErrorContains(t, err, "--since")
}
