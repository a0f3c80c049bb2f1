// Package narrative exposes the character-to-music pipeline as MCP tools:
// character analysis, psychology views, persona generation, prompt commands,
// and the complete workflow.
package narrative

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/versebound/musemcp/internal/mcp"
	"github.com/versebound/musemcp/internal/workflow"
)

// --- analyze_character_text ---

type analyzeParams struct {
	Text string `json:"text"`
}

// Analyze runs the three-layer character extractor over a narrative.
type Analyze struct {
	orch *workflow.Orchestrator
}

func NewAnalyze(orch *workflow.Orchestrator) *Analyze {
	return &Analyze{orch: orch}
}

func (t *Analyze) Name() string { return "analyze_character_text" }
func (t *Analyze) Description() string {
	return "Analyze narrative text and extract ranked character profiles along observable, background, and psychological layers, plus narrative themes and the emotional arc."
}
func (t *Analyze) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "text": {
      "type": "string",
      "description": "The narrative text to analyze. May be arbitrarily long."
    }
  },
  "required": ["text"]
}`)
}

func (t *Analyze) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p analyzeParams
	if err := json.Unmarshal(params, &p); err != nil {
		return mcp.ToolError(mcp.ErrInvalidInput, fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	res, err := t.orch.Analyze(ctx, p.Text)
	if err != nil {
		return analysisError(err), nil
	}
	return mcp.JSONResult(res)
}

// analysisError maps extractor failures onto structured payloads.
func analysisError(err error) *mcp.ToolsCallResult {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return mcp.ToolError(mcp.ErrTimeout, "character analysis timed out",
			mcp.WithSuggestion("split very long narratives into chapters and analyze them separately"))
	case errors.Is(err, context.Canceled):
		return mcp.ToolError(mcp.ErrCancelled, "character analysis was cancelled")
	default:
		return mcp.ToolError(mcp.ErrInternal, err.Error())
	}
}
