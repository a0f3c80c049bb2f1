// Package profile defines the canonical character model shared by every
// analysis stage. All components construct characters through FromMapping so
// the same shape flows across tool boundaries.
package profile

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMissingName is the only hard validation failure: a character mapping
// without a non-empty name cannot be canonicalized.
var ErrMissingName = errors.New("missing_name")

// TextReference marks a source span inside the analyzed narrative.
type TextReference struct {
	Passage int `json:"passage"`
	Start   int `json:"start"`
	End     int `json:"end"`
}

// Character is the canonical profile. Field groups follow the
// observable / background / psychology layering.
type Character struct {
	// Identity
	Name    string   `json:"name"`
	Aliases []string `json:"aliases"`

	// Observable layer
	PhysicalDescription string   `json:"physical_description"`
	Mannerisms          []string `json:"mannerisms"`
	SpeechPatterns      []string `json:"speech_patterns"`
	BehavioralTraits    []string `json:"behavioral_traits"`

	// Background layer
	Backstory            string   `json:"backstory"`
	Relationships        []string `json:"relationships"`
	FormativeExperiences []string `json:"formative_experiences"`
	SocialConnections    []string `json:"social_connections"`

	// Psychology layer
	Motivations        []string `json:"motivations"`
	Fears              []string `json:"fears"`
	Desires            []string `json:"desires"`
	Conflicts          []string `json:"conflicts"`
	PersonalityDrivers []string `json:"personality_drivers"`

	// Metadata
	ConfidenceScore float64         `json:"confidence_score"`
	ImportanceScore float64         `json:"importance_score"`
	TextReferences  []TextReference `json:"text_references"`
	FirstAppearance string          `json:"first_appearance"`
}

// FromMapping builds a Character from an untyped mapping. Missing fields get
// empty defaults, single strings are promoted to one-element sequences,
// comma-separated strings are split, numeric strings are parsed and clamped,
// and unknown keys are ignored. Registered legacy adapters run first so older
// shapes land on the canonical keys.
func FromMapping(m map[string]any) (*Character, error) {
	if m == nil {
		return nil, fmt.Errorf("canonicalizing character: %w", ErrMissingName)
	}

	m = applyAdapters(m)

	name := strings.TrimSpace(stringField(m, "name"))
	if name == "" {
		return nil, fmt.Errorf("canonicalizing character: %w", ErrMissingName)
	}

	c := &Character{
		Name:                 name,
		Aliases:              seqField(m, "aliases"),
		PhysicalDescription:  stringField(m, "physical_description"),
		Mannerisms:           seqField(m, "mannerisms"),
		SpeechPatterns:       seqField(m, "speech_patterns"),
		BehavioralTraits:     seqField(m, "behavioral_traits"),
		Backstory:            stringField(m, "backstory"),
		Relationships:        seqField(m, "relationships"),
		FormativeExperiences: seqField(m, "formative_experiences"),
		SocialConnections:    seqField(m, "social_connections"),
		Motivations:          seqField(m, "motivations"),
		Fears:                seqField(m, "fears"),
		Desires:              seqField(m, "desires"),
		Conflicts:            seqField(m, "conflicts"),
		PersonalityDrivers:   seqField(m, "personality_drivers"),
		ConfidenceScore:      scoreField(m, "confidence_score"),
		ImportanceScore:      scoreField(m, "importance_score"),
		TextReferences:       refsField(m, "text_references"),
		FirstAppearance:      stringField(m, "first_appearance"),
	}
	return c, nil
}

// ToMapping converts a Character back to an untyped mapping. Every recognized
// field is present, so FromMapping(ToMapping(c)) round-trips.
func (c *Character) ToMapping() map[string]any {
	refs := make([]any, 0, len(c.TextReferences))
	for _, r := range c.TextReferences {
		refs = append(refs, map[string]any{
			"passage": r.Passage,
			"start":   r.Start,
			"end":     r.End,
		})
	}
	return map[string]any{
		"name":                  c.Name,
		"aliases":               anySlice(c.Aliases),
		"physical_description":  c.PhysicalDescription,
		"mannerisms":            anySlice(c.Mannerisms),
		"speech_patterns":       anySlice(c.SpeechPatterns),
		"behavioral_traits":     anySlice(c.BehavioralTraits),
		"backstory":             c.Backstory,
		"relationships":         anySlice(c.Relationships),
		"formative_experiences": anySlice(c.FormativeExperiences),
		"social_connections":    anySlice(c.SocialConnections),
		"motivations":           anySlice(c.Motivations),
		"fears":                 anySlice(c.Fears),
		"desires":               anySlice(c.Desires),
		"conflicts":             anySlice(c.Conflicts),
		"personality_drivers":   anySlice(c.PersonalityDrivers),
		"confidence_score":      c.ConfidenceScore,
		"importance_score":      c.ImportanceScore,
		"text_references":       refs,
		"first_appearance":      c.FirstAppearance,
	}
}

// Merge combines two profiles for the same entity. Sequence fields are
// unioned with order-preserving dedup (a's entries first), score fields take
// the maximum, and scalar fields keep a's value unless it is empty.
func Merge(a, b *Character) *Character {
	out := *a
	out.Aliases = unionSeq(a.Aliases, b.Aliases)
	out.Mannerisms = unionSeq(a.Mannerisms, b.Mannerisms)
	out.SpeechPatterns = unionSeq(a.SpeechPatterns, b.SpeechPatterns)
	out.BehavioralTraits = unionSeq(a.BehavioralTraits, b.BehavioralTraits)
	out.Relationships = unionSeq(a.Relationships, b.Relationships)
	out.FormativeExperiences = unionSeq(a.FormativeExperiences, b.FormativeExperiences)
	out.SocialConnections = unionSeq(a.SocialConnections, b.SocialConnections)
	out.Motivations = unionSeq(a.Motivations, b.Motivations)
	out.Fears = unionSeq(a.Fears, b.Fears)
	out.Desires = unionSeq(a.Desires, b.Desires)
	out.Conflicts = unionSeq(a.Conflicts, b.Conflicts)
	out.PersonalityDrivers = unionSeq(a.PersonalityDrivers, b.PersonalityDrivers)
	if out.PhysicalDescription == "" {
		out.PhysicalDescription = b.PhysicalDescription
	}
	if out.Backstory == "" {
		out.Backstory = b.Backstory
	}
	if out.FirstAppearance == "" {
		out.FirstAppearance = b.FirstAppearance
	}
	out.ConfidenceScore = max(a.ConfidenceScore, b.ConfidenceScore)
	out.ImportanceScore = max(a.ImportanceScore, b.ImportanceScore)
	out.TextReferences = unionRefs(a.TextReferences, b.TextReferences)
	return &out
}

// IsComplete reports whether at least one field in each of the observable,
// background, and psychology groups is populated.
func (c *Character) IsComplete() bool {
	observable := c.PhysicalDescription != "" ||
		len(c.Mannerisms) > 0 || len(c.SpeechPatterns) > 0 || len(c.BehavioralTraits) > 0
	background := c.Backstory != "" ||
		len(c.Relationships) > 0 || len(c.FormativeExperiences) > 0 || len(c.SocialConnections) > 0
	psychology := len(c.Motivations) > 0 || len(c.Fears) > 0 ||
		len(c.Desires) > 0 || len(c.Conflicts) > 0 || len(c.PersonalityDrivers) > 0
	return observable && background && psychology
}

// --- untyped field coercion helpers ---

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case []any:
		// A sequence where prose is expected: join it.
		parts := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	default:
		return ""
	}
}

// seqField coerces the value under key into a string sequence. Single strings
// become one-element sequences; comma-separated strings are split.
func seqField(m map[string]any, key string) []string {
	switch v := m[key].(type) {
	case nil:
		return []string{}
	case string:
		return splitList(v)
	case []string:
		out := make([]string, 0, len(v))
		for _, s := range v {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
		return out
	default:
		return []string{}
	}
}

func splitList(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{}
	}
	if !strings.Contains(s, ",") {
		return []string{s}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// scoreField coerces numbers and numeric strings, clamping to [0,1].
func scoreField(m map[string]any, key string) float64 {
	var f float64
	switch v := m[key].(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	return clamp01(f)
}

func refsField(m map[string]any, key string) []TextReference {
	raw, ok := m[key].([]any)
	if !ok {
		return []TextReference{}
	}
	out := make([]TextReference, 0, len(raw))
	for _, e := range raw {
		rm, ok := e.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, TextReference{
			Passage: intField(rm, "passage"),
			Start:   intField(rm, "start"),
			End:     intField(rm, "end"),
		})
	}
	return out
}

func intField(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func anySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func unionSeq(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range a {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range b {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func unionRefs(a, b []TextReference) []TextReference {
	seen := make(map[TextReference]bool, len(a)+len(b))
	out := make([]TextReference, 0, len(a)+len(b))
	for _, r := range a {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	for _, r := range b {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}
