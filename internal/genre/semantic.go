// Package genre maps psychological traits to ranked musical genres using
// wiki-derived knowledge with semantic expansion and hardcoded fallbacks.
package genre

// semanticGroups is the fixed lookup from abstract character traits to
// concrete musical descriptors. It powers the semantic-group partial match
// during normal scoring and the expansion fallback when nothing clears the
// confidence floor.
var semanticGroups = map[string][]string{
	"melancholic":   {"sad", "wistful", "minor", "slow", "mournful", "nostalgic"},
	"nostalgic":     {"warm", "vintage", "reflective", "acoustic", "faded"},
	"rebellious":    {"raw", "loud", "defiant", "distorted", "aggressive", "anthemic"},
	"confident":     {"bold", "driving", "swagger", "punchy", "assertive"},
	"introspective": {"quiet", "intimate", "sparse", "contemplative", "inward"},
	"energetic":     {"fast", "upbeat", "danceable", "pulsing", "lively"},
	"sophisticated": {"complex", "refined", "harmonic", "polished", "elegant"},
	"playful":       {"bouncy", "light", "quirky", "bright", "whimsical"},
	"dark":          {"brooding", "heavy", "ominous", "shadowy", "haunting"},
	"romantic":      {"tender", "lush", "sweeping", "passionate", "soft"},
	"resilient":     {"steady", "grounded", "weathered", "enduring", "stoic"},
	"dreamy":        {"ethereal", "floating", "ambient", "hazy", "spacious"},
	"anxious":       {"tense", "restless", "jittery", "dissonant", "urgent"},
	"hopeful":       {"rising", "bright", "open", "major", "uplifting"},
	"lonely":        {"sparse", "distant", "echoing", "solitary", "empty"},
	"storytelling":  {"narrative", "lyrical", "ballad", "folk", "verse-driven"},
	"spiritual":     {"transcendent", "choral", "meditative", "sacred", "soaring"},
	"gritty":        {"rough", "urban", "street", "unpolished", "hard-edged"},
}

// ExpandTrait returns the concrete descriptors for a trait, or nil when the
// trait has no semantic group.
func ExpandTrait(trait string) []string {
	return semanticGroups[normalizeTrait(trait)]
}

// SemanticGroups exposes the table for content resources.
func SemanticGroups() map[string][]string {
	out := make(map[string][]string, len(semanticGroups))
	for k, v := range semanticGroups {
		out[k] = append([]string(nil), v...)
	}
	return out
}
