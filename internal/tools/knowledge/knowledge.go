// Package knowledge exposes the wiki subsystem as MCP tools: best-practice
// retrieval with attribution, refresh triggering, and cache status.
package knowledge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/versebound/musemcp/internal/mcp"
	"github.com/versebound/musemcp/internal/wiki"
)

// --- get_music_best_practices ---

type bestPracticesParams struct {
	TechniqueType string `json:"technique_type,omitempty"`
	TagCategory   string `json:"tag_category,omitempty"`
}

// BestPractices serves techniques and meta tags from the knowledge cache,
// with source attribution and usage logging.
type BestPractices struct {
	knowledge *wiki.Manager
}

func NewBestPractices(knowledge *wiki.Manager) *BestPractices {
	return &BestPractices{knowledge: knowledge}
}

func (t *BestPractices) Name() string { return "get_music_best_practices" }
func (t *BestPractices) Description() string {
	return "Retrieve prompt-writing techniques and meta tags from the wiki knowledge cache, with source attribution. Optionally filter techniques by type and tags by category."
}
func (t *BestPractices) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "technique_type": {
      "type": "string",
      "description": "Filter techniques: prompt_structure, vocal_style, production, lyrics, other"
    },
    "tag_category": {
      "type": "string",
      "description": "Filter meta tags: structural, emotional, vocal, instrumental, effect, other"
    }
  }
}`)
}

func (t *BestPractices) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p bestPracticesParams
	if err := json.Unmarshal(params, &p); err != nil {
		return mcp.ToolError(mcp.ErrInvalidInput, fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	techniques := t.knowledge.GetTechniques(p.TechniqueType)
	tags := t.knowledge.GetMetaTags(p.TagCategory)
	if len(techniques) == 0 && len(tags) == 0 {
		return mcp.ToolError(mcp.ErrWikiUnavailable,
			"no best-practice data available: wiki cache is empty and fallbacks are disabled",
			mcp.WithSuggestion("enable fallback_to_hardcoded or run refresh_wiki_data")), nil
	}

	var sources []string
	sources = append(sources, t.knowledge.SourceURLsFor(wiki.KindTechnique)...)
	sources = append(sources, t.knowledge.SourceURLsFor(wiki.KindMetaTag)...)

	// Best-effort usage log; retrieval never fails on logging.
	for _, src := range sources {
		_ = t.knowledge.Tracker().RecordUsage("best_practices", src, "get_music_best_practices")
	}

	return mcp.JSONResult(wiki.Attribute(map[string]any{
		"techniques": techniques,
		"meta_tags":  tags,
	}, sources))
}

// --- refresh_wiki_data ---

type refreshParams struct {
	Force bool `json:"force,omitempty"`
}

// Refresh triggers a wiki refresh cycle.
type Refresh struct {
	knowledge *wiki.Manager
}

func NewRefresh(knowledge *wiki.Manager) *Refresh {
	return &Refresh{knowledge: knowledge}
}

func (t *Refresh) Name() string { return "refresh_wiki_data" }
func (t *Refresh) Description() string {
	return "Fetch and reparse configured wiki pages. A concurrent refresh joins the in-flight one; failed pages keep their previous cached data."
}
func (t *Refresh) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "force": {
      "type": "boolean",
      "description": "Refetch pages even if they are still fresh (default: false)",
      "default": false
    }
  }
}`)
}

func (t *Refresh) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p refreshParams
	if err := json.Unmarshal(params, &p); err != nil {
		return mcp.ToolError(mcp.ErrInvalidInput, fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	result, err := t.knowledge.Refresh(ctx, p.Force)
	if err != nil {
		return mcp.ToolError(mcp.ErrRefreshFailed, err.Error(),
			mcp.WithSuggestion("check that the wiki subsystem is enabled and the configured URLs are reachable")), nil
	}
	return mcp.JSONResult(result)
}

// --- get_wiki_status ---

// Status reports per-URL cache freshness and snapshot counts.
type Status struct {
	knowledge *wiki.Manager
}

func NewStatus(knowledge *wiki.Manager) *Status {
	return &Status{knowledge: knowledge}
}

func (t *Status) Name() string { return "get_wiki_status" }
func (t *Status) Description() string {
	return "Report the wiki cache state: snapshot record counts, per-URL freshness, last fetch status, and recorded failures."
}
func (t *Status) InputSchema() json.RawMessage {
	return json.RawMessage(`{"type": "object", "properties": {}}`)
}

func (t *Status) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	return mcp.JSONResult(t.knowledge.Status())
}
