package mcp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolError(t *testing.T) {
	result := ToolError(ErrWikiUnavailable, "no data",
		WithDetails(map[string]any{"kind": "genre"}),
		WithSuggestion("refresh the cache"))

	assert.True(t, result.IsError)
	require.Len(t, result.Content, 1)

	var payload ErrorPayload
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &payload))
	assert.Equal(t, "wiki_unavailable", payload.Kind)
	assert.Equal(t, "no data", payload.Message)
	assert.Equal(t, "refresh the cache", payload.Suggestion)
	assert.NotNil(t, payload.Details)
}

func TestJSONResult(t *testing.T) {
	result, err := JSONResult(map[string]any{"ok": true})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, result.Content[0].Text, `"ok": true`)
}
