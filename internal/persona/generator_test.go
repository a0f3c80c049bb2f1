package persona

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/versebound/musemcp/internal/genre"
	"github.com/versebound/musemcp/internal/profile"
	"github.com/versebound/musemcp/internal/wiki"
)

func testCharacter(t *testing.T) *profile.Character {
	t.Helper()
	c, err := profile.FromMapping(map[string]any{
		"name":                  "Elena Rodriguez",
		"behavioral_traits":     []any{"sophisticated", "contemplative"},
		"speech_patterns":       []any{"in a low, unhurried voice"},
		"backstory":             "former jazz musician turned music teacher",
		"formative_experiences": []any{"twenty years on stages from Havana to Chicago"},
		"motivations":           []any{"pass on what the stage taught her"},
		"fears":                 []any{"improvisation lost to digital perfection"},
		"confidence_score":      0.9,
	})
	require.NoError(t, err)
	return c
}

func testMapper() *genre.Mapper {
	return genre.NewMapper([]wiki.Genre{
		{
			Name:               "Jazz",
			Description:        "Improvisational music with complex harmony.",
			Characteristics:    []string{"improvisational", "sophisticated", "swing", "expressive"},
			MoodAssociations:   []string{"smooth", "contemplative", "late-night"},
			TypicalInstruments: []string{"piano", "saxophone"},
			SourceURL:          "https://example.org/wiki/genres",
		},
		{
			Name:             "Techno",
			Description:      "Machine rhythms for the dance floor.",
			Characteristics:  []string{"synthetic", "repetitive", "danceable"},
			MoodAssociations: []string{"hypnotic", "dark"},
			SourceURL:        "https://example.org/wiki/genres",
		},
	})
}

func TestFromCharacter(t *testing.T) {
	c := testCharacter(t)
	p := FromCharacter(c, testMapper())

	assert.Equal(t, "Jazz", p.Genre)
	assert.Equal(t, "Elena Rodriguez", p.CharacterInspiration)
	assert.NotEmpty(t, p.VocalCharacteristics)
	assert.NotEmpty(t, p.LyricalThemes)
	assert.NotEmpty(t, p.StyleDescription)

	// Lyrical themes draw on psychology and formative experiences.
	assert.Contains(t, p.LyricalThemes, "pass on what the stage taught her")
	assert.Contains(t, p.LyricalThemes, "twenty years on stages from Havana to Chicago")

	// Geometric mean of 0.9 and the top match confidence stays in (0,1).
	assert.Greater(t, p.MappingConfidence, 0.0)
	assert.Less(t, p.MappingConfidence, 1.0)
}

func TestFromCharacter_SpeechAdjectivesReachTraitBag(t *testing.T) {
	c := testCharacter(t)
	traits := TraitsOf(c)
	assert.Contains(t, traits, "low")
	assert.Contains(t, traits, "unhurried")
}

func TestGenerate_PreservesOrder(t *testing.T) {
	a := testCharacter(t)
	b, err := profile.FromMapping(map[string]any{
		"name":              "Marcus Thompson",
		"behavioral_traits": []any{"danceable", "dark"},
		"confidence_score":  0.6,
	})
	require.NoError(t, err)

	personas := Generate([]*profile.Character{a, b}, testMapper())
	require.Len(t, personas, 2)
	assert.Equal(t, "Elena Rodriguez", personas[0].CharacterInspiration)
	assert.Equal(t, "Marcus Thompson", personas[1].CharacterInspiration)
}

func TestFromCharacter_NoMatches(t *testing.T) {
	c, err := profile.FromMapping(map[string]any{
		"name":              "Nameless Wanderer",
		"behavioral_traits": []any{"zzz-unmatchable"},
	})
	require.NoError(t, err)

	p := FromCharacter(c, genre.NewMapper(nil))
	assert.Empty(t, p.Genre)
	assert.Zero(t, p.MappingConfidence)
	assert.NotEmpty(t, p.VocalCharacteristics)
	assert.NotNil(t, p.SecondaryInfluences)
}
