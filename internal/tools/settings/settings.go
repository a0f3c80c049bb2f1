// Package settings exposes the dynamic configuration surface as MCP tools.
// Every mutation validates before applying; an invalid update leaves the
// prior config intact.
package settings

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/versebound/musemcp/internal/config"
	"github.com/versebound/musemcp/internal/mcp"
	"github.com/versebound/musemcp/internal/wiki"
)

// --- update_wiki_config ---

type updateParams struct {
	Updates map[string]any `json:"updates"`
	Persist bool           `json:"persist,omitempty"`
}

// Update applies a partial config update.
type Update struct {
	cfg *config.Manager
}

func NewUpdate(cfg *config.Manager) *Update {
	return &Update{cfg: cfg}
}

func (t *Update) Name() string { return "update_wiki_config" }
func (t *Update) Description() string {
	return "Update wiki configuration fields (enabled, refresh_interval_hours, fallback_to_hardcoded, request_timeout, max_retries, retry_delay, page lists). Unknown fields are rejected; invalid updates leave the prior config intact."
}
func (t *Update) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "updates": {
      "type": "object",
      "description": "Partial config document; only recognized fields are allowed."
    },
    "persist": {
      "type": "boolean",
      "description": "Also write the merged config back to the config file (default: false)",
      "default": false
    }
  },
  "required": ["updates"]
}`)
}

func (t *Update) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p updateParams
	if err := json.Unmarshal(params, &p); err != nil {
		return mcp.ToolError(mcp.ErrInvalidInput, fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if len(p.Updates) == 0 {
		return mcp.ToolError(mcp.ErrInvalidInput, "updates must contain at least one field"), nil
	}

	if err := t.cfg.Update(p.Updates, true); err != nil {
		return mcp.ToolError(mcp.ErrInvalidInput, err.Error(),
			mcp.WithDetails(p.Updates),
			mcp.WithSuggestion("only the documented config fields are accepted; check field names and bounds")), nil
	}
	if p.Persist {
		if err := t.cfg.Save(); err != nil {
			return mcp.ToolError(mcp.ErrInternal, fmt.Sprintf("config applied but not persisted: %v", err)), nil
		}
	}
	return mcp.JSONResult(map[string]any{
		"applied": true,
		"config":  t.cfg.Current(),
	})
}

// --- add_wiki_urls / remove_wiki_urls ---

type urlsParams struct {
	Kind string   `json:"kind"`
	URLs []string `json:"urls"`
}

func parseKind(s string) (wiki.Kind, bool) {
	switch s {
	case "genre", "genres":
		return wiki.KindGenre, true
	case "metatag", "metatags", "meta_tag":
		return wiki.KindMetaTag, true
	case "technique", "techniques", "tip", "tips":
		return wiki.KindTechnique, true
	}
	return "", false
}

// AddURLs appends pages to a kind's URL list.
type AddURLs struct {
	cfg *config.Manager
}

func NewAddURLs(cfg *config.Manager) *AddURLs {
	return &AddURLs{cfg: cfg}
}

func (t *AddURLs) Name() string { return "add_wiki_urls" }
func (t *AddURLs) Description() string {
	return "Add wiki page URLs to a parser kind (genre, metatag, or technique). New pages are picked up by the next refresh."
}
func (t *AddURLs) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "kind": {
      "type": "string",
      "description": "Which page list to modify: genre, metatag, or technique"
    },
    "urls": {
      "type": "array",
      "items": {"type": "string"},
      "description": "Well-formed http(s) URLs to add"
    }
  },
  "required": ["kind", "urls"]
}`)
}

func (t *AddURLs) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p urlsParams
	if err := json.Unmarshal(params, &p); err != nil {
		return mcp.ToolError(mcp.ErrInvalidInput, fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	kind, ok := parseKind(p.Kind)
	if !ok {
		return mcp.ToolError(mcp.ErrInvalidInput, fmt.Sprintf("unknown kind %q", p.Kind),
			mcp.WithSuggestion("use genre, metatag, or technique")), nil
	}
	if len(p.URLs) == 0 {
		return mcp.ToolError(mcp.ErrInvalidInput, "urls must be non-empty"), nil
	}

	if err := t.cfg.AddURLs(kind, p.URLs); err != nil {
		return mcp.ToolError(mcp.ErrInvalidInput, err.Error()), nil
	}
	return mcp.JSONResult(map[string]any{
		"added":  p.URLs,
		"config": t.cfg.Current(),
	})
}

// RemoveURLs removes pages from a kind's URL list.
type RemoveURLs struct {
	cfg *config.Manager
}

func NewRemoveURLs(cfg *config.Manager) *RemoveURLs {
	return &RemoveURLs{cfg: cfg}
}

func (t *RemoveURLs) Name() string { return "remove_wiki_urls" }
func (t *RemoveURLs) Description() string {
	return "Remove wiki page URLs from a parser kind (genre, metatag, or technique). Cached data for removed pages stays on disk but leaves the snapshot on the next rebuild."
}
func (t *RemoveURLs) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "kind": {
      "type": "string",
      "description": "Which page list to modify: genre, metatag, or technique"
    },
    "urls": {
      "type": "array",
      "items": {"type": "string"},
      "description": "URLs to remove"
    }
  },
  "required": ["kind", "urls"]
}`)
}

func (t *RemoveURLs) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p urlsParams
	if err := json.Unmarshal(params, &p); err != nil {
		return mcp.ToolError(mcp.ErrInvalidInput, fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	kind, ok := parseKind(p.Kind)
	if !ok {
		return mcp.ToolError(mcp.ErrInvalidInput, fmt.Sprintf("unknown kind %q", p.Kind),
			mcp.WithSuggestion("use genre, metatag, or technique")), nil
	}
	if len(p.URLs) == 0 {
		return mcp.ToolError(mcp.ErrInvalidInput, "urls must be non-empty"), nil
	}

	if err := t.cfg.RemoveURLs(kind, p.URLs); err != nil {
		return mcp.ToolError(mcp.ErrInvalidInput, err.Error()), nil
	}
	return mcp.JSONResult(map[string]any{
		"removed": p.URLs,
		"config":  t.cfg.Current(),
	})
}
