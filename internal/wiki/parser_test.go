package wiki

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var parseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

const genrePage = `<html><body>
<h1>List of Music Genres</h1>
<h2>Folk</h2>
<p>Acoustic storytelling music rooted in oral tradition.</p>
<ul>
  <li>Subgenres: Indie Folk, Folk Rock</li>
  <li>Instruments: acoustic guitar, banjo</li>
  <li>Mood: melancholic, nostalgic</li>
  <li>intimate and narrative songwriting</li>
</ul>
<h2>Techno</h2>
<p>Machine rhythms built for the dance floor.</p>
<ul>
  <li>Subgenres: Minimal Techno</li>
  <li>pulsing and repetitive</li>
</ul>
<h2>See also</h2>
<p>Other lists.</p>
</body></html>`

func TestParseGenres(t *testing.T) {
	genres, stats := ParseGenres([]byte(genrePage), "https://example.org/genres", parseTime)

	require.Len(t, genres, 2)
	folk := genres[0]
	assert.Equal(t, "Folk", folk.Name)
	assert.Equal(t, "Acoustic storytelling music rooted in oral tradition.", folk.Description)
	assert.Equal(t, []string{"Indie Folk", "Folk Rock"}, folk.Subgenres)
	assert.Equal(t, []string{"acoustic guitar", "banjo"}, folk.TypicalInstruments)
	assert.Equal(t, []string{"melancholic", "nostalgic"}, folk.MoodAssociations)
	assert.Contains(t, folk.Characteristics, "intimate and narrative songwriting")
	assert.Equal(t, "https://example.org/genres", folk.SourceURL)
	assert.Equal(t, parseTime, folk.FetchedAt)
	assert.Greater(t, folk.ConfidenceScore, 0.5)

	assert.Equal(t, "Techno", genres[1].Name)
	// The boilerplate "See also" section is skipped, not parsed as a genre.
	assert.GreaterOrEqual(t, stats.Skipped, 1)
}

func TestParseGenres_MalformedMarkup(t *testing.T) {
	// Unclosed tags and stray brackets must not panic, only degrade.
	mangled := `<html><h2>Folk<p>Acoustic music<ul><li>warm`
	genres, _ := ParseGenres([]byte(mangled), "https://example.org/x", parseTime)
	for _, g := range genres {
		assert.NotEmpty(t, g.Name)
	}
}

func TestParseGenres_EmptyPage(t *testing.T) {
	genres, stats := ParseGenres([]byte("<html><body><p>nothing here</p></body></html>"), "https://example.org/x", parseTime)
	assert.Empty(t, genres)
	assert.Zero(t, stats.Sections)
}

const metaTagPage = `<html><body>
<h2>Structural Tags</h2>
<ul>
  <li>[intro] — opens the track before the first verse</li>
  <li>[chorus] repeated hook section</li>
  <li>verse — narrative section that carries the story</li>
</ul>
<h2>Vocal Tags</h2>
<ul>
  <li>[female vocals] — female lead vocal</li>
  <li>[spoken word] spoken delivery instead of singing</li>
</ul>
</body></html>`

func TestParseMetaTags(t *testing.T) {
	tags, _ := ParseMetaTags([]byte(metaTagPage), "https://example.org/tags", parseTime)

	require.Len(t, tags, 5)
	byTag := map[string]MetaTag{}
	for _, tag := range tags {
		byTag[tag.Tag] = tag
	}

	intro, ok := byTag["intro"]
	require.True(t, ok)
	assert.Equal(t, "structural", intro.Category)
	assert.Equal(t, "opens the track before the first verse", intro.Description)

	vocals, ok := byTag["female vocals"]
	require.True(t, ok)
	assert.Equal(t, "vocal", vocals.Category)

	// Both "[tag] gloss" and "tag — gloss" shapes parse.
	_, ok = byTag["verse"]
	assert.True(t, ok)
}

func TestParseMetaTags_DuplicatesCollapse(t *testing.T) {
	page := `<html><h2>Tags</h2><ul><li>[intro] first</li><li>[intro] second</li></ul></html>`
	tags, _ := ParseMetaTags([]byte(page), "https://example.org/tags", parseTime)
	require.Len(t, tags, 1)
	assert.Equal(t, "first", tags[0].Description)
}

const techniquePage = `<html><body>
<h2>Genre-first prompt ordering</h2>
<p>Lead the prompt with the genre, then mood, then arrangement details.</p>
<ul>
  <li>Example: "melancholic folk, fingerpicked guitar, warm vocals"</li>
  <li>Use when: genre identity matters most</li>
</ul>
<h2>Section Without Substance</h2>
<p>Only prose, no examples.</p>
</body></html>`

func TestParseTechniques(t *testing.T) {
	techniques, stats := ParseTechniques([]byte(techniquePage), "https://example.org/tips", parseTime)

	require.Len(t, techniques, 1)
	tech := techniques[0]
	assert.Equal(t, "Genre-first prompt ordering", tech.Name)
	assert.Equal(t, "prompt_structure", tech.TechniqueType)
	assert.NotEmpty(t, tech.Examples)
	assert.NotEmpty(t, tech.ApplicableScenarios)

	// The substance-free section counts as skipped.
	assert.GreaterOrEqual(t, stats.Skipped, 1)
}

func TestClassifyTechnique(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Layer the vocal harmony with a falsetto double", "vocal_style"},
		{"Compress the mix and pull the reverb back before mastering", "production"},
		{"Write the verse lyric around one concrete image and a rhyme", "lyrics"},
		{"Order the prompt keywords by weight and bracket the tags", "prompt_structure"},
		{"Nothing musical at all", "other"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyTechnique(tt.text), "text %q", tt.text)
	}
}

func TestParsersArePure(t *testing.T) {
	data := []byte(genrePage)
	a, _ := ParseGenres(data, "https://example.org/genres", parseTime)
	b, _ := ParseGenres(data, "https://example.org/genres", parseTime)
	assert.Equal(t, a, b)
}
