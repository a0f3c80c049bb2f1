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

// --- analyze_artist_psychology ---

type psychologyParams struct {
	Text       string           `json:"text,omitempty"`
	Characters []map[string]any `json:"characters,omitempty"`
}

// Psychology restructures the psychology layer of extracted characters with
// derived labels (dominant drive, core vulnerability, inner tension) and
// musical implications.
type Psychology struct {
	orch *workflow.Orchestrator
}

func NewPsychology(orch *workflow.Orchestrator) *Psychology {
	return &Psychology{orch: orch}
}

func (t *Psychology) Name() string { return "analyze_artist_psychology" }
func (t *Psychology) Description() string {
	return "Analyze the psychology of characters for artist development. Accepts raw narrative text or previously extracted character profiles and returns derived psychological labels with musical implications."
}
func (t *Psychology) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "text": {
      "type": "string",
      "description": "Narrative text to analyze. Mutually exclusive with characters."
    },
    "characters": {
      "type": "array",
      "items": {"type": "object"},
      "description": "Previously extracted character profiles (canonical shape or a known legacy shape)."
    }
  }
}`)
}

func (t *Psychology) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p psychologyParams
	if err := json.Unmarshal(params, &p); err != nil {
		return mcp.ToolError(mcp.ErrInvalidInput, fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	var characters []*profile.Character
	switch {
	case len(p.Characters) > 0:
		for i, m := range p.Characters {
			c, err := profile.FromMapping(m)
			if err != nil {
				if errors.Is(err, profile.ErrMissingName) {
					return mcp.ToolError(mcp.ErrMissingName,
						fmt.Sprintf("character %d has no name", i),
						mcp.WithSuggestion("every character profile needs a non-empty name field")), nil
				}
				return mcp.ToolError(mcp.ErrInvalidInput, err.Error()), nil
			}
			characters = append(characters, c)
		}
	case p.Text != "":
		res, err := t.orch.Analyze(ctx, p.Text)
		if err != nil {
			return analysisError(err), nil
		}
		characters = res.Characters
	default:
		return mcp.ToolError(mcp.ErrInvalidInput, "either text or characters is required"), nil
	}

	if len(characters) == 0 {
		return mcp.ToolError(mcp.ErrNoCharacters, "no characters to analyze",
			mcp.WithSuggestion("provide a narrative with named characters")), nil
	}

	views := make([]analysis.PsychologyView, 0, len(characters))
	for _, c := range characters {
		views = append(views, analysis.PsychologyOf(c))
	}
	return mcp.JSONResult(map[string]any{
		"profiles": views,
		"count":    len(views),
	})
}
