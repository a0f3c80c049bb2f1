// Package genres exposes the enhanced genre mapper as MCP tools.
package genres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/versebound/musemcp/internal/genre"
	"github.com/versebound/musemcp/internal/mcp"
	"github.com/versebound/musemcp/internal/wiki"
)

// --- map_traits_to_genres ---

type mapParams struct {
	Traits          []string `json:"traits"`
	MaxResults      int      `json:"max_results,omitempty"`
	UseHierarchical *bool    `json:"use_hierarchical,omitempty"`
}

// MapTraits ranks genres for a trait list.
type MapTraits struct {
	knowledge *wiki.Manager
}

func NewMapTraits(knowledge *wiki.Manager) *MapTraits {
	return &MapTraits{knowledge: knowledge}
}

func (t *MapTraits) Name() string { return "map_traits_to_genres" }
func (t *MapTraits) Description() string {
	return "Map psychological or musical traits to ranked genre matches with confidence scores and matching reasons. Uses wiki-derived genre data with semantic expansion and hardcoded fallbacks."
}
func (t *MapTraits) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "traits": {
      "type": "array",
      "items": {"type": "string"},
      "description": "Traits to map (e.g. ['melancholic', 'acoustic', 'storytelling'])"
    },
    "max_results": {
      "type": "integer",
      "description": "Maximum matches to return (default: 5)",
      "default": 5
    },
    "use_hierarchical": {
      "type": "boolean",
      "description": "Apply the subgenre/parent hierarchy boost (default: true)",
      "default": true
    }
  },
  "required": ["traits"]
}`)
}

func (t *MapTraits) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p mapParams
	if err := json.Unmarshal(params, &p); err != nil {
		return mcp.ToolError(mcp.ErrInvalidInput, fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if len(p.Traits) == 0 {
		return mcp.ToolError(mcp.ErrInvalidInput, "traits is required and must be non-empty"), nil
	}

	genres := t.knowledge.GetGenres()
	if len(genres) == 0 {
		return mcp.ToolError(mcp.ErrWikiUnavailable,
			"no genre data available: wiki cache is empty and fallbacks are disabled",
			mcp.WithSuggestion("enable fallback_to_hardcoded or refresh the wiki cache")), nil
	}

	opts := genre.Options{MaxResults: p.MaxResults, UseHierarchical: true}
	if p.UseHierarchical != nil {
		opts.UseHierarchical = *p.UseHierarchical
	}

	matches := genre.NewMapper(genres).Map(p.Traits, opts)
	sources := t.knowledge.SourceURLsFor(wiki.KindGenre)
	return mcp.JSONResult(wiki.Attribute(map[string]any{
		"matches": matches,
		"count":   len(matches),
		"traits":  p.Traits,
	}, sources))
}

// --- find_similar_genres ---

type similarParams struct {
	Genre      string `json:"genre"`
	MaxResults int    `json:"max_results,omitempty"`
}

// FindSimilar ranks genres similar to a named genre.
type FindSimilar struct {
	knowledge *wiki.Manager
}

func NewFindSimilar(knowledge *wiki.Manager) *FindSimilar {
	return &FindSimilar{knowledge: knowledge}
}

func (t *FindSimilar) Name() string { return "find_similar_genres" }
func (t *FindSimilar) Description() string {
	return "Find genres similar to a named genre, ranked by the same matching machinery used for trait mapping."
}
func (t *FindSimilar) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "genre": {
      "type": "string",
      "description": "The genre to find neighbors of (e.g. 'Folk')"
    },
    "max_results": {
      "type": "integer",
      "description": "Maximum matches to return (default: 5)",
      "default": 5
    }
  },
  "required": ["genre"]
}`)
}

func (t *FindSimilar) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p similarParams
	if err := json.Unmarshal(params, &p); err != nil {
		return mcp.ToolError(mcp.ErrInvalidInput, fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if p.Genre == "" {
		return mcp.ToolError(mcp.ErrInvalidInput, "genre is required"), nil
	}

	genres := t.knowledge.GetGenres()
	if len(genres) == 0 {
		return mcp.ToolError(mcp.ErrWikiUnavailable,
			"no genre data available: wiki cache is empty and fallbacks are disabled",
			mcp.WithSuggestion("enable fallback_to_hardcoded or refresh the wiki cache")), nil
	}

	maxResults := p.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	matches, err := genre.NewMapper(genres).FindSimilar(p.Genre, genre.Options{MaxResults: maxResults, UseHierarchical: true})
	if err != nil {
		return mcp.ToolError(mcp.ErrInvalidInput, err.Error(),
			mcp.WithSuggestion("check the genre name against map_traits_to_genres output")), nil
	}
	return mcp.JSONResult(map[string]any{
		"genre":   p.Genre,
		"similar": matches,
		"count":   len(matches),
	})
}

// --- get_genre_hierarchy ---

type hierarchyParams struct {
	Genre string `json:"genre"`
}

// Hierarchy reports a genre's parents, children, and siblings.
type Hierarchy struct {
	knowledge *wiki.Manager
}

func NewHierarchy(knowledge *wiki.Manager) *Hierarchy {
	return &Hierarchy{knowledge: knowledge}
}

func (t *Hierarchy) Name() string { return "get_genre_hierarchy" }
func (t *Hierarchy) Description() string {
	return "Get a genre's place in the genre graph: parents, children, and siblings, inferred from subgenre listings and compound-name parsing (e.g. 'folk rock' descends from folk and rock)."
}
func (t *Hierarchy) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "genre": {
      "type": "string",
      "description": "The genre to look up"
    }
  },
  "required": ["genre"]
}`)
}

func (t *Hierarchy) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p hierarchyParams
	if err := json.Unmarshal(params, &p); err != nil {
		return mcp.ToolError(mcp.ErrInvalidInput, fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if p.Genre == "" {
		return mcp.ToolError(mcp.ErrInvalidInput, "genre is required"), nil
	}

	genres := t.knowledge.GetGenres()
	if len(genres) == 0 {
		return mcp.ToolError(mcp.ErrWikiUnavailable,
			"no genre data available: wiki cache is empty and fallbacks are disabled",
			mcp.WithSuggestion("enable fallback_to_hardcoded or refresh the wiki cache")), nil
	}

	h := genre.NewMapper(genres).HierarchyOf(p.Genre)
	return mcp.JSONResult(h)
}
