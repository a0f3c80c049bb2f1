package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromMapping_Coercions(t *testing.T) {
	tests := []struct {
		name  string
		input map[string]any
		check func(t *testing.T, c *Character)
	}{
		{
			name:  "missing fields get empty defaults",
			input: map[string]any{"name": "Elena"},
			check: func(t *testing.T, c *Character) {
				assert.Equal(t, "Elena", c.Name)
				assert.Empty(t, c.Aliases)
				assert.Empty(t, c.Fears)
				assert.Zero(t, c.ConfidenceScore)
			},
		},
		{
			name: "single string promoted to sequence",
			input: map[string]any{
				"name":  "Elena",
				"fears": "losing improvisation",
			},
			check: func(t *testing.T, c *Character) {
				assert.Equal(t, []string{"losing improvisation"}, c.Fears)
			},
		},
		{
			name: "comma separated string split into sequence",
			input: map[string]any{
				"name":              "Elena",
				"behavioral_traits": "patient, disciplined, warm",
			},
			check: func(t *testing.T, c *Character) {
				assert.Equal(t, []string{"patient", "disciplined", "warm"}, c.BehavioralTraits)
			},
		},
		{
			name: "unknown keys ignored",
			input: map[string]any{
				"name":        "Elena",
				"shoe_size":   42,
				"zodiac_sign": "libra",
			},
			check: func(t *testing.T, c *Character) {
				assert.Equal(t, "Elena", c.Name)
			},
		},
		{
			name: "numeric string scores parsed and clamped",
			input: map[string]any{
				"name":             "Elena",
				"confidence_score": "0.85",
				"importance_score": "3.2",
			},
			check: func(t *testing.T, c *Character) {
				assert.InDelta(t, 0.85, c.ConfidenceScore, 1e-9)
				assert.Equal(t, 1.0, c.ImportanceScore)
			},
		},
		{
			name: "negative score clamps to zero",
			input: map[string]any{
				"name":             "Elena",
				"confidence_score": -0.3,
			},
			check: func(t *testing.T, c *Character) {
				assert.Zero(t, c.ConfidenceScore)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := FromMapping(tt.input)
			require.NoError(t, err)
			tt.check(t, c)
		})
	}
}

func TestFromMapping_MissingName(t *testing.T) {
	for _, m := range []map[string]any{
		nil,
		{},
		{"name": ""},
		{"name": "   "},
		{"aliases": []any{"El"}},
	} {
		_, err := FromMapping(m)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMissingName)
	}
}

func TestRoundTrip(t *testing.T) {
	in := map[string]any{
		"name":                 "Old Tom",
		"aliases":              []any{"Tom", "the keeper"},
		"physical_description": "weathered hands, salt-gray beard",
		"mannerisms":           []any{"taps his pipe"},
		"speech_patterns":      []any{"slow", "deliberate"},
		"behavioral_traits":    []any{"solitary"},
		"backstory":            "kept the light for forty years",
		"relationships":        []any{"Emma (granddaughter)"},
		"formative_experiences": []any{
			"lost his brother to the sea",
		},
		"social_connections":  []any{"harbor folk"},
		"motivations":         []any{"keep sailors safe"},
		"fears":               []any{"the light going dark"},
		"desires":             []any{"one calm season"},
		"conflicts":           []any{"duty against age"},
		"personality_drivers": []any{"guilt"},
		"confidence_score":    0.8,
		"importance_score":    0.6,
		"text_references": []any{
			map[string]any{"passage": 2, "start": 10, "end": 84},
		},
		"first_appearance": "paragraph 2",
	}

	c, err := FromMapping(in)
	require.NoError(t, err)

	out := c.ToMapping()
	c2, err := FromMapping(out)
	require.NoError(t, err)
	assert.Equal(t, c, c2)

	// Order is preserved through the round-trip.
	assert.Equal(t, []string{"Tom", "the keeper"}, c2.Aliases)
	assert.Equal(t, []TextReference{{Passage: 2, Start: 10, End: 84}}, c2.TextReferences)
}

func TestMerge(t *testing.T) {
	a, err := FromMapping(map[string]any{
		"name":             "Marcus",
		"fears":            []any{"obscurity", "silence"},
		"motivations":      []any{"recognition"},
		"confidence_score": 0.4,
		"importance_score": 0.9,
	})
	require.NoError(t, err)

	b, err := FromMapping(map[string]any{
		"name":             "Marcus Thompson",
		"fears":            []any{"silence", "stagnation"},
		"backstory":        "grew up around warehouse studios",
		"confidence_score": 0.7,
		"importance_score": 0.5,
	})
	require.NoError(t, err)

	m := Merge(a, b)
	assert.Equal(t, "Marcus", m.Name, "name comes from the first argument")
	assert.Equal(t, []string{"obscurity", "silence", "stagnation"}, m.Fears)
	assert.Equal(t, "grew up around warehouse studios", m.Backstory)
	assert.Equal(t, 0.7, m.ConfidenceScore)
	assert.Equal(t, 0.9, m.ImportanceScore)
}

func TestIsComplete(t *testing.T) {
	c, err := FromMapping(map[string]any{"name": "Elena"})
	require.NoError(t, err)
	assert.False(t, c.IsComplete())

	c, err = FromMapping(map[string]any{
		"name":              "Elena",
		"behavioral_traits": []any{"patient"},
		"backstory":         "former jazz musician",
		"fears":             []any{"digital perfection"},
	})
	require.NoError(t, err)
	assert.True(t, c.IsComplete())
}

func TestLegacyAdapters(t *testing.T) {
	t.Run("background block", func(t *testing.T) {
		c, err := FromMapping(map[string]any{
			"name":       "Elena",
			"background": "former jazz musician turned teacher",
		})
		require.NoError(t, err)
		assert.Equal(t, "former jazz musician turned teacher", c.Backstory)
	})

	t.Run("nested background block", func(t *testing.T) {
		c, err := FromMapping(map[string]any{
			"name": "Elena",
			"background": map[string]any{
				"backstory":     "conservatory dropout",
				"relationships": []any{"her students"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "conservatory dropout", c.Backstory)
		assert.Equal(t, []string{"her students"}, c.Relationships)
	})

	t.Run("nicknames map onto aliases", func(t *testing.T) {
		c, err := FromMapping(map[string]any{
			"name":      "Elena Rodriguez",
			"nicknames": []any{"El", "Professor"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"El", "Professor"}, c.Aliases)
	})

	t.Run("canonical aliases win over nicknames", func(t *testing.T) {
		c, err := FromMapping(map[string]any{
			"name":      "Elena Rodriguez",
			"aliases":   []any{"El"},
			"nicknames": []any{"Professor"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"El"}, c.Aliases)
	})

	t.Run("flat psychology singulars", func(t *testing.T) {
		c, err := FromMapping(map[string]any{
			"name":       "Marcus",
			"motivation": "recognition",
			"fear":       "obscurity",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"recognition"}, c.Motivations)
		assert.Equal(t, []string{"obscurity"}, c.Fears)
	})
}
