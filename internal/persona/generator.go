// Package persona derives artist personas from canonical character profiles
// and their genre matches.
package persona

import (
	"fmt"
	"math"
	"strings"

	"github.com/versebound/musemcp/internal/genre"
	"github.com/versebound/musemcp/internal/profile"
)

// ArtistPersona is the musical identity derived from one character.
type ArtistPersona struct {
	Name                  string   `json:"name"`
	Genre                 string   `json:"genre"`
	SecondaryInfluences   []string `json:"secondary_influences"`
	StyleDescription      string   `json:"style_description"`
	VocalCharacteristics  []string `json:"vocal_characteristics"`
	LyricalThemes         []string `json:"lyrical_themes"`
	ProductionPreferences []string `json:"production_preferences"`
	CharacterInspiration  string   `json:"character_inspiration"`
	MappingConfidence     float64  `json:"mapping_confidence"`
}

// vocalPrototypes supplies genre-default vocal color when the character's
// speech patterns are thin.
var vocalPrototypes = map[string][]string{
	"folk":       {"warm", "conversational", "unhurried"},
	"jazz":       {"smoky", "phrasing-led", "improvisational"},
	"hip hop":    {"rhythmic", "confident", "percussive delivery"},
	"electronic": {"processed", "airy", "layered"},
	"rock":       {"full-throated", "urgent", "raspy edge"},
	"classical":  {"trained", "controlled", "wide dynamic range"},
	"blues":      {"weathered", "bent notes", "call-and-response"},
	"pop":        {"bright", "polished", "hook-forward"},
	"country":    {"plainspoken", "twang", "storyteller's cadence"},
	"ambient":    {"breathy", "distant", "wordless at times"},
}

// Generate builds one persona per character. The mapper must be built over
// the request's knowledge snapshot so output is deterministic for that
// snapshot. Characters arrive ranked by importance and personas keep that
// order.
func Generate(characters []*profile.Character, mapper *genre.Mapper) []ArtistPersona {
	personas := make([]ArtistPersona, 0, len(characters))
	for _, c := range characters {
		personas = append(personas, FromCharacter(c, mapper))
	}
	return personas
}

// FromCharacter derives a single persona.
func FromCharacter(c *profile.Character, mapper *genre.Mapper) ArtistPersona {
	traits := TraitsOf(c)
	matches := mapper.Map(traits, genre.Options{MaxResults: 4, UseHierarchical: true})

	p := ArtistPersona{
		Name:                  stageName(c),
		CharacterInspiration:  c.Name,
		SecondaryInfluences:   []string{},
		VocalCharacteristics:  []string{},
		LyricalThemes:         []string{},
		ProductionPreferences: []string{},
	}

	var topConfidence float64
	if len(matches) > 0 {
		primary := matches[0]
		p.Genre = primary.Genre.Name
		topConfidence = primary.Confidence
		for _, m := range matches[1:] {
			p.SecondaryInfluences = append(p.SecondaryInfluences, m.Genre.Name)
		}
		p.ProductionPreferences = productionFromMoods(primary.Genre.MoodAssociations)
		p.StyleDescription = styleDescription(c, primary)
	} else {
		p.Genre = ""
		p.StyleDescription = fmt.Sprintf("An unclassified style shaped by %s's story.", c.Name)
	}

	p.VocalCharacteristics = vocalCharacteristics(c, p.Genre)
	p.LyricalThemes = lyricalThemes(c)
	p.MappingConfidence = round3(geometricMean(c.ConfidenceScore, topConfidence))
	return p
}

// TraitsOf collects the psychology fields, behavioral traits, and speech
// pattern adjectives that drive genre matching for a character.
func TraitsOf(c *profile.Character) []string {
	var bag []string
	bag = append(bag, c.Motivations...)
	bag = append(bag, c.Fears...)
	bag = append(bag, c.Desires...)
	bag = append(bag, c.Conflicts...)
	bag = append(bag, c.PersonalityDrivers...)
	bag = append(bag, c.BehavioralTraits...)
	for _, sp := range c.SpeechPatterns {
		bag = append(bag, adjectivesOf(sp)...)
	}
	return bag
}

// adjectivesOf pulls lowercase descriptor words out of a speech-pattern
// phrase ("in a low, deliberate voice" -> low, deliberate).
func adjectivesOf(phrase string) []string {
	var out []string
	for _, w := range strings.FieldsFunc(strings.ToLower(phrase), func(r rune) bool {
		return !('a' <= r && r <= 'z') && r != '-'
	}) {
		switch w {
		case "in", "a", "an", "the", "with", "voice", "tone", "of", "and", "his", "her", "their":
			continue
		}
		if len(w) >= 3 {
			out = append(out, w)
		}
	}
	return out
}

func stageName(c *profile.Character) string {
	if len(c.Aliases) > 0 {
		return c.Aliases[0]
	}
	return c.Name
}

func vocalCharacteristics(c *profile.Character, genreName string) []string {
	var out []string
	for _, sp := range c.SpeechPatterns {
		out = appendDistinct(out, sp)
	}
	// When several prototypes fit ("folk rock"), the alphabetically first
	// wins so the choice does not depend on map iteration order.
	best := ""
	for proto := range vocalPrototypes {
		if strings.Contains(strings.ToLower(genreName), proto) && (best == "" || proto < best) {
			best = proto
		}
	}
	for _, v := range vocalPrototypes[best] {
		out = appendDistinct(out, v)
	}
	if len(out) == 0 {
		out = append(out, "natural", "unadorned")
	}
	return out
}

func lyricalThemes(c *profile.Character) []string {
	var out []string
	for _, m := range c.Motivations {
		out = appendDistinct(out, m)
	}
	for _, f := range c.Fears {
		out = appendDistinct(out, f)
	}
	for _, d := range c.Desires {
		out = appendDistinct(out, d)
	}
	for _, fe := range c.FormativeExperiences {
		out = appendDistinct(out, fe)
	}
	if len(out) == 0 {
		out = append(out, "observations of daily life")
	}
	return out
}

func productionFromMoods(moods []string) []string {
	if len(moods) == 0 {
		return []string{"clean, uncluttered production"}
	}
	out := make([]string, 0, len(moods))
	for _, mood := range moods {
		out = append(out, fmt.Sprintf("%s-leaning arrangement", mood))
	}
	return out
}

func styleDescription(c *profile.Character, primary genre.Match) string {
	mood := "lived-in"
	if len(primary.Genre.MoodAssociations) > 0 {
		mood = primary.Genre.MoodAssociations[0]
	}
	return fmt.Sprintf("%s filtered through %s's story: %s, with songs that return to what drives them.",
		primary.Genre.Name, c.Name, mood)
}

// geometricMean of the character confidence and top genre confidence; when
// one side is zero the other alone cannot carry it.
func geometricMean(a, b float64) float64 {
	if a < 0 {
		a = 0
	}
	if b < 0 {
		b = 0
	}
	return math.Sqrt(a * b)
}

func appendDistinct(dst []string, s string) []string {
	for _, existing := range dst {
		if strings.EqualFold(existing, s) {
			return dst
		}
	}
	return append(dst, s)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
