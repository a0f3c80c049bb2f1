package narrative

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/versebound/musemcp/internal/analysis"
	"github.com/versebound/musemcp/internal/mcp"
	"github.com/versebound/musemcp/internal/profile"
	"github.com/versebound/musemcp/internal/workflow"
)

// --- generate_artist_personas ---

type personasParams struct {
	Characters []map[string]any `json:"characters,omitempty"`
	Analysis   *struct {
		Characters []map[string]any `json:"characters"`
	} `json:"analysis,omitempty"`
}

// Personas derives artist personas from character profiles.
type Personas struct {
	orch *workflow.Orchestrator
}

func NewPersonas(orch *workflow.Orchestrator) *Personas {
	return &Personas{orch: orch}
}

func (t *Personas) Name() string { return "generate_artist_personas" }
func (t *Personas) Description() string {
	return "Generate artist personas (genre, vocal style, lyrical themes, production preferences) from character profiles produced by analyze_character_text."
}
func (t *Personas) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "characters": {
      "type": "array",
      "items": {"type": "object"},
      "description": "Character profiles in the canonical shape (or a known legacy shape)."
    },
    "analysis": {
      "type": "object",
      "description": "Alternatively, the full result object from analyze_character_text."
    }
  }
}`)
}

func (t *Personas) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p personasParams
	if err := json.Unmarshal(params, &p); err != nil {
		return mcp.ToolError(mcp.ErrInvalidInput, fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	mappings := p.Characters
	if len(mappings) == 0 && p.Analysis != nil {
		mappings = p.Analysis.Characters
	}
	if len(mappings) == 0 {
		return mcp.ToolError(mcp.ErrInvalidInput, "characters (or analysis.characters) is required",
			mcp.WithSuggestion("run analyze_character_text first and pass its characters here")), nil
	}

	characters, errResult := charactersFromMappings(mappings)
	if errResult != nil {
		return errResult, nil
	}

	res := &analysis.Result{Characters: characters}
	personas, stageErrors := t.orch.Personas(ctx, res)
	return mcp.JSONResult(map[string]any{
		"personas": personas,
		"count":    len(personas),
		"errors":   stageErrors,
	})
}

// charactersFromMappings canonicalizes untyped character mappings, turning
// the only hard failure (a missing name) into a structured payload.
func charactersFromMappings(mappings []map[string]any) ([]*profile.Character, *mcp.ToolsCallResult) {
	characters := make([]*profile.Character, 0, len(mappings))
	for i, m := range mappings {
		c, err := profile.FromMapping(m)
		if err != nil {
			if errors.Is(err, profile.ErrMissingName) {
				return nil, mcp.ToolError(mcp.ErrMissingName,
					fmt.Sprintf("character %d has no name", i),
					mcp.WithSuggestion("every character profile needs a non-empty name field"))
			}
			return nil, mcp.ToolError(mcp.ErrInvalidInput, err.Error())
		}
		characters = append(characters, c)
	}
	return characters, nil
}
