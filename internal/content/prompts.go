// Package content provides MCP prompts and resources for the musemcp server.
package content

import "github.com/versebound/musemcp/internal/mcp"

// --- narrative-to-music prompt ---

// WorkflowPrompt walks a client through chaining the analysis tools.
type WorkflowPrompt struct{}

func (p *WorkflowPrompt) Definition() mcp.PromptDefinition {
	return mcp.PromptDefinition{
		Name:        "narrative-to-music",
		Description: "Guide for turning a narrative into music prompts: analyze characters, derive personas, build commands.",
		Arguments:   []mcp.PromptArgument{},
	}
}

func (p *WorkflowPrompt) Get(arguments map[string]string) (*mcp.PromptsGetResult, error) {
	return &mcp.PromptsGetResult{
		Description: "Guide for the narrative-to-music workflow",
		Messages: []mcp.PromptMessage{
			{
				Role:    "user",
				Content: mcp.TextContent(workflowGuide),
			},
		},
	}, nil
}

const workflowGuide = `# Narrative to Music Workflow

You are helping a user turn narrative prose into prompts for a generative
music service. The server does the analysis; you orchestrate the tools.

## The pipeline

1. **analyze_character_text** — pass the full narrative. You get ranked
   character profiles (observable / background / psychology layers),
   narrative themes, and an emotional arc. Characters come back ordered by
   importance.

2. **generate_artist_personas** — pass the characters from step 1. Each
   character becomes an artist persona: primary genre, secondary influences,
   vocal characteristics, lyrical themes, production preferences.

3. **create_music_commands** — pass the personas (and the characters, for
   better trait grounding). You get prompt variants in three formats:
   simple (one sentence), structured (labeled fields), and tagged
   (bracket notation). Each carries an effectiveness score and a rationale.

Or run everything at once with **complete_workflow**.

## When to use the other tools

- **map_traits_to_genres** — the user has traits but no narrative.
- **find_similar_genres** / **get_genre_hierarchy** — explore alternatives
  around a genre the user likes.
- **analyze_artist_psychology** — the user wants the psychological reading
  itself, not just the music output.
- **get_music_best_practices** — fetch prompt-writing techniques and meta
  tags before hand-editing a command.

## Interpreting results

- An empty characters list is not an error: the text had no detectable
  characters. Suggest the user add named characters or use
  map_traits_to_genres directly.
- A "partial" workflow status means a non-critical stage degraded; the
  errors array says which. The populated fields are still usable.
- matching_reasons on every genre match names the data path that produced
  it (wiki data, semantic expansion, or fallback table).

## Honest limits

The extractor is cue-pattern based, not a language model. It will not infer
psychology that the prose never states. The server also never calls the
music generator itself; it only writes prompts.`
