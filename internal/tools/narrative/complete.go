package narrative

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/versebound/musemcp/internal/mcp"
	"github.com/versebound/musemcp/internal/workflow"
)

// --- complete_workflow ---

type completeParams struct {
	Text string `json:"text"`
}

// Complete runs the whole pipeline in one call: analysis, personas, prompt
// commands, with the orchestrator's partial-failure policy.
type Complete struct {
	orch *workflow.Orchestrator
}

func NewComplete(orch *workflow.Orchestrator) *Complete {
	return &Complete{orch: orch}
}

func (t *Complete) Name() string { return "complete_workflow" }
func (t *Complete) Description() string {
	return "Run the complete narrative-to-music workflow: extract characters, derive artist personas, and build prompt commands. Partial failures degrade gracefully and are reported in the errors array."
}
func (t *Complete) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "text": {
      "type": "string",
      "description": "The narrative text to run through the full pipeline."
    }
  },
  "required": ["text"]
}`)
}

func (t *Complete) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p completeParams
	if err := json.Unmarshal(params, &p); err != nil {
		return mcp.ToolError(mcp.ErrInvalidInput, fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	result := t.orch.Complete(ctx, p.Text)
	return mcp.JSONResult(result)
}
