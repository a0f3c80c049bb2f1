package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/versebound/musemcp/internal/genre"
	"github.com/versebound/musemcp/internal/persona"
	"github.com/versebound/musemcp/internal/profile"
	"github.com/versebound/musemcp/internal/wiki"
)

func jazzSetup(t *testing.T) (persona.ArtistPersona, *profile.Character, []genre.Match) {
	t.Helper()
	c, err := profile.FromMapping(map[string]any{
		"name":               "Elena Rodriguez",
		"behavioral_traits":  []any{"sophisticated", "contemplative"},
		"speech_patterns":    []any{"unhurried"},
		"fears":              []any{"improvisation lost to digital perfection"},
		"motivations":        []any{"one last true recording"},
		"personality_drivers": []any{"devotion to the stage"},
		"confidence_score":   0.9,
	})
	require.NoError(t, err)

	jazz := wiki.Genre{
		Name:               "Jazz",
		Characteristics:    []string{"improvisational", "sophisticated"},
		MoodAssociations:   []string{"contemplative", "smooth"},
		TypicalInstruments: []string{"piano", "saxophone"},
		SourceURL:          "https://example.org/wiki/genres",
	}
	matches := []genre.Match{{
		Genre:           jazz,
		Confidence:      0.8,
		MatchingTraits:  []string{"sophisticated", "contemplative"},
		MatchingReasons: []string{`trait "sophisticated" matches "sophisticated" (exact)`, "source: wiki data"},
	}}

	p := persona.ArtistPersona{
		Name:                 "Elena Rodriguez",
		Genre:                "Jazz",
		VocalCharacteristics: []string{"smoky", "unhurried"},
		LyricalThemes:        []string{"one last true recording"},
		CharacterInspiration: "Elena Rodriguez",
		MappingConfidence:    0.85,
	}
	return p, c, matches
}

func testTags() []wiki.MetaTag {
	return []wiki.MetaTag{
		{Tag: "intro", Category: "structural", CompatibleGenres: []string{"Jazz", "Folk"}},
		{Tag: "verse", Category: "structural", CompatibleGenres: []string{"Jazz"}},
		{Tag: "melancholic", Category: "emotional", CompatibleGenres: []string{"Jazz", "Blues"}},
		{Tag: "female vocals", Category: "vocal", CompatibleGenres: []string{"Jazz"}},
		{Tag: "piano", Category: "instrumental", CompatibleGenres: []string{"Jazz", "Classical"}},
		{Tag: "heavy bass", Category: "instrumental", CompatibleGenres: []string{"Hip Hop"}},
	}
}

func TestBuild_ProducesThreeFormats(t *testing.T) {
	p, c, matches := jazzSetup(t)
	commands := NewBuilder(testTags()).Build(p, c, matches)

	require.NotEmpty(t, commands)
	formats := map[string]bool{}
	for _, cmd := range commands {
		formats[cmd.Format] = true
		assert.GreaterOrEqual(t, cmd.EffectivenessScore, 0.0)
		assert.LessOrEqual(t, cmd.EffectivenessScore, 1.0)
		assert.NotEmpty(t, cmd.Rationale)
		assert.NotNil(t, cmd.MetaTagsUsed)
	}
	assert.True(t, formats["simple"])
	assert.True(t, formats["structured"])
	assert.True(t, formats["tagged"])
}

func TestBuild_SimpleMentionsGenreAndInstrument(t *testing.T) {
	p, c, matches := jazzSetup(t)
	commands := NewBuilder(testTags()).Build(p, c, matches)

	var simple *Command
	for i := range commands {
		if commands[i].Format == "simple" {
			simple = &commands[i]
		}
	}
	require.NotNil(t, simple)
	lower := strings.ToLower(simple.Text)
	assert.Contains(t, lower, "jazz")
	assert.Contains(t, lower, "piano")
}

func TestBuild_TaggedUsesOnlyCompatibleTags(t *testing.T) {
	p, c, matches := jazzSetup(t)
	commands := NewBuilder(testTags()).Build(p, c, matches)

	for _, cmd := range commands {
		if cmd.Format != "tagged" {
			continue
		}
		assert.NotContains(t, cmd.MetaTagsUsed, "heavy bass",
			"tags incompatible with the persona genre must not appear")
		for _, tag := range cmd.MetaTagsUsed {
			assert.Contains(t, cmd.Text, "["+tag+"]")
		}
	}
}

func TestBuild_NoTagsSkipsTaggedVariant(t *testing.T) {
	p, c, matches := jazzSetup(t)
	commands := NewBuilder(nil).Build(p, c, matches)

	for _, cmd := range commands {
		assert.NotEqual(t, "tagged", cmd.Format,
			"without meta tags the tagged variant must be omitted")
	}
	// The simple and structured variants still come through.
	assert.NotEmpty(t, commands)
}

func TestBuild_KeepsTopThreeWhenScoresAreLow(t *testing.T) {
	// A persona with nothing to say scores poorly everywhere, but the
	// builder still returns its best variants rather than an empty set.
	p := persona.ArtistPersona{
		Name:                 "Nameless",
		CharacterInspiration: "Nameless",
	}
	c := &profile.Character{Name: "Nameless"}
	commands := NewBuilder(testTags()).Build(p, c, nil)
	assert.NotEmpty(t, commands)
	assert.LessOrEqual(t, len(commands), 3)
}

func TestBuild_Deterministic(t *testing.T) {
	p, c, matches := jazzSetup(t)
	b := NewBuilder(testTags())
	assert.Equal(t, b.Build(p, c, matches), b.Build(p, c, matches))
}

func TestBuild_RationaleCitesTraitsAndReasons(t *testing.T) {
	p, c, matches := jazzSetup(t)
	commands := NewBuilder(testTags()).Build(p, c, matches)

	require.NotEmpty(t, commands)
	for _, cmd := range commands {
		assert.Contains(t, cmd.Rationale, "Elena Rodriguez")
		assert.Contains(t, cmd.Rationale, "Jazz")
	}
}

func TestSpecificityScore(t *testing.T) {
	specific := specificityScore("melancholic folk, fingerpicked acoustic guitar, warm female vocals")
	generic := specificityScore("a very nice good song with some great music")
	assert.Greater(t, specific, generic)
}
