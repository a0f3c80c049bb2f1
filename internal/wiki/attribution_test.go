package wiki

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttribute(t *testing.T) {
	payload := Attribute("some value", []string{
		"https://example.org/a",
		"https://example.org/b",
		"https://example.org/a", // duplicate
		"",                      // empty entries are dropped
	})

	assert.Equal(t, "some value", payload.Value)
	assert.Equal(t, []string{"https://example.org/a", "https://example.org/b"}, payload.SourceURLs)
	assert.Equal(t, "Sources:\n  - https://example.org/a\n  - https://example.org/b\n", payload.Attribution)
}

func TestAttribute_NoSources(t *testing.T) {
	payload := Attribute(42, nil)
	assert.Empty(t, payload.SourceURLs)
	assert.Empty(t, payload.Attribution)
}

func TestAttributionTracker_UsageStats(t *testing.T) {
	tracker := NewAttributionTracker(t.TempDir())

	require.NoError(t, tracker.RecordUsage("genre-folk", "https://example.org/a", "map_traits_to_genres"))
	require.NoError(t, tracker.RecordUsage("genre-folk", "https://example.org/a", ""))
	require.NoError(t, tracker.RecordUsage("tag-intro", "https://example.org/b", ""))

	stats, err := tracker.UsageStats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats["https://example.org/a"])
	assert.Equal(t, 1, stats["https://example.org/b"])
}

func TestAttributionTracker_EmptyLog(t *testing.T) {
	tracker := NewAttributionTracker(t.TempDir())
	stats, err := tracker.UsageStats()
	require.NoError(t, err)
	assert.Empty(t, stats)
}
