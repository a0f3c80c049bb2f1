package content

import (
	"encoding/json"
	"fmt"

	"github.com/versebound/musemcp/internal/genre"
	"github.com/versebound/musemcp/internal/mcp"
)

// --- tool reference resource ---

// ToolReferenceResource is a compact tool catalog clients can read instead
// of scrolling tools/list descriptions.
type ToolReferenceResource struct{}

func (r *ToolReferenceResource) Definition() mcp.ResourceDefinition {
	return mcp.ResourceDefinition{
		URI:         "musemcp://reference/tools",
		Name:        "Tool Reference",
		Description: "Compact reference for all musemcp tools, grouped by workflow stage.",
		MimeType:    "text/markdown",
	}
}

func (r *ToolReferenceResource) Read() (*mcp.ResourcesReadResult, error) {
	return &mcp.ResourcesReadResult{
		Contents: []mcp.ResourceContent{
			{
				URI:      "musemcp://reference/tools",
				MimeType: "text/markdown",
				Text:     toolReference,
			},
		},
	}, nil
}

const toolReference = `# musemcp Tool Reference

## Pipeline
| Tool | In | Out |
|---|---|---|
| analyze_character_text | text | ranked character profiles, themes, emotional arc |
| generate_artist_personas | characters | artist personas ordered by character importance |
| create_music_commands | personas (+characters) | scored prompt variants: simple, structured, tagged |
| complete_workflow | text | all of the above with partial-failure status |
| analyze_artist_psychology | text or characters | psychology views with derived labels |

## Genre mapping
| Tool | In | Out |
|---|---|---|
| map_traits_to_genres | traits | ranked genre matches with reasons and source markers |
| find_similar_genres | genre | neighbors ranked by the same machinery |
| get_genre_hierarchy | genre | parents, children, siblings |

## Knowledge and configuration
| Tool | In | Out |
|---|---|---|
| get_music_best_practices | filters | techniques + meta tags with attribution |
| refresh_wiki_data | force? | refresh summary (downloaded/failed/errors) |
| get_wiki_status | - | per-URL cache freshness and failures |
| update_wiki_config | partial config | applied config |
| add_wiki_urls / remove_wiki_urls | kind + urls | updated page lists |
`

// --- emotion vocabulary resource ---

// EmotionVocabularyResource documents the emotional-arc label set.
type EmotionVocabularyResource struct{}

func (r *EmotionVocabularyResource) Definition() mcp.ResourceDefinition {
	return mcp.ResourceDefinition{
		URI:         "musemcp://reference/emotions",
		Name:        "Emotional Arc Vocabulary",
		Description: "The labels the emotional-arc chooser selects from, with the evidence that votes for each.",
		MimeType:    "text/markdown",
	}
}

func (r *EmotionVocabularyResource) Read() (*mcp.ResourcesReadResult, error) {
	return &mcp.ResourcesReadResult{
		Contents: []mcp.ResourceContent{
			{
				URI:      "musemcp://reference/emotions",
				MimeType: "text/markdown",
				Text:     emotionVocabulary,
			},
		},
	}, nil
}

const emotionVocabulary = `# Emotional Arc Vocabulary

Each third of a narrative (beginning / middle / end) is labeled with the
emotion whose cue words appear most often in that third. A third with no
emotional evidence at all is labeled "neutral"; neutral is never a default
for ambiguous evidence, only for absent evidence.

Labels: joyful, melancholic, tense, hopeful, angry, fearful, serene,
triumphant, neutral.

Cues are surface words ("laughed", "dread", "calm", "triumph", ...); the
chooser counts matches, it does not interpret. Ties go to the label listed
first above.`

// --- semantic groups resource ---

// SemanticGroupsResource exposes the trait expansion table the genre mapper
// uses for its semantic fallback.
type SemanticGroupsResource struct{}

func (r *SemanticGroupsResource) Definition() mcp.ResourceDefinition {
	return mcp.ResourceDefinition{
		URI:         "musemcp://reference/semantic-groups",
		Name:        "Semantic Group Table",
		Description: "The fixed mapping from abstract character traits to concrete musical descriptors used in genre matching.",
		MimeType:    "application/json",
	}
}

func (r *SemanticGroupsResource) Read() (*mcp.ResourcesReadResult, error) {
	data, err := json.MarshalIndent(genre.SemanticGroups(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding semantic groups: %w", err)
	}
	return &mcp.ResourcesReadResult{
		Contents: []mcp.ResourceContent{
			{
				URI:      "musemcp://reference/semantic-groups",
				MimeType: "application/json",
				Text:     string(data),
			},
		},
	}, nil
}
