package narrative

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/versebound/musemcp/internal/analysis"
	"github.com/versebound/musemcp/internal/mcp"
	"github.com/versebound/musemcp/internal/persona"
	"github.com/versebound/musemcp/internal/workflow"
)

// --- create_music_commands ---

type commandsParams struct {
	Personas   []persona.ArtistPersona `json:"personas"`
	Characters []map[string]any        `json:"characters,omitempty"`
}

// Commands builds scored prompt-command variants for personas.
type Commands struct {
	orch *workflow.Orchestrator
}

func NewCommands(orch *workflow.Orchestrator) *Commands {
	return &Commands{orch: orch}
}

func (t *Commands) Name() string { return "create_music_commands" }
func (t *Commands) Description() string {
	return "Create prompt command variants (simple, structured, tagged) for artist personas, scored for effectiveness and traced back to the character traits that produced them."
}
func (t *Commands) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "personas": {
      "type": "array",
      "items": {"type": "object"},
      "description": "Artist personas from generate_artist_personas."
    },
    "characters": {
      "type": "array",
      "items": {"type": "object"},
      "description": "The source character profiles; improves trait grounding in the generated prompts."
    }
  },
  "required": ["personas"]
}`)
}

func (t *Commands) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p commandsParams
	if err := json.Unmarshal(params, &p); err != nil {
		return mcp.ToolError(mcp.ErrInvalidInput, fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if len(p.Personas) == 0 {
		return mcp.ToolError(mcp.ErrInvalidInput, "personas is required",
			mcp.WithSuggestion("run generate_artist_personas first and pass its personas here")), nil
	}

	characters, errResult := charactersFromMappings(p.Characters)
	if errResult != nil {
		return errResult, nil
	}

	res := &analysis.Result{Characters: characters}
	commands, stageErrors := t.orch.Commands(ctx, p.Personas, res)
	return mcp.JSONResult(map[string]any{
		"commands": commands,
		"count":    len(commands),
		"errors":   stageErrors,
	})
}
