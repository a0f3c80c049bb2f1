package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const elenaText = `Elena Rodriguez stood at the piano in the empty conservatory hall, her fingers resting on the keys without pressing them. She was patient and deliberate, a former jazz musician turned music teacher who spoke in a low, unhurried voice. Elena had spent twenty years on stages from Havana to Chicago before she traded the spotlight for a classroom.

Her students adored her, though they never saw her play the way she once had. Elena wanted to pass on what the stage had taught her. She dreamed of one last recording, something true. Her greatest fear was that improvisation would be lost to digital perfection, that the machines would smooth away everything human.

At night Elena Rodriguez returned to the piano. She was torn between the safety of teaching and the pull of the stage, and the conflict followed her home like smoke.`

const marcusText = `Marcus Thompson had converted the old warehouse on Dalton Street into a studio, and the hum of the city came through its high windows like a bassline. He was restless and ambitious, a producer who spoke quickly and moved faster. Marcus wanted to build something the neighborhood would claim as its own.

He had grown up three blocks away, back when the block parties ran until dawn. Marcus was driven by the memory of those nights. He feared that the city would forget its own sound, that the new towers would bury the beat under glass. He was determined to press the urban pulse into every track, and his beats carried the rattle of trains and the cadence of the corner.

By winter Marcus Thompson had filled the warehouse with drum machines and salvaged speakers. He struggled with the rent and the doubt, but the studio stayed open.`

const twoCharacterText = `Emma arrived at the lighthouse in late September, when the sea had already turned the color of slate. Emma was curious and stubborn, and she filled her notebooks with questions about the ocean. She wanted to understand why her grandfather had never left this coast. Emma dreamed of writing it all down, the waves and the silence both.

Old Tom was the lighthouse keeper, and he had kept the light for forty years. He was weathered and quiet, and spoke in a slow, salt-cracked voice. Old Tom feared that the light would go automatic and the coast would lose its keeper. He was driven by duty to the sailors he would never meet.

Emma asked him about the storms, and Old Tom told her about the wreck of the Marianne. Emma wrote it down. The sea kept its own time beneath them.

When Emma left in the spring, Old Tom walked her to the ferry. Emma promised to send the book. The ocean carried the ferry south, and the light swept the water behind her.`

func TestAnalyze_ElenaScenario(t *testing.T) {
	res := Analyze(elenaText)

	require.NotEmpty(t, res.Characters)
	elena := res.Characters[0]
	assert.Equal(t, "Elena Rodriguez", elena.Name)

	// The fear cue must surface improvisation / digital perfection.
	require.NotEmpty(t, elena.Fears)
	joined := strings.ToLower(strings.Join(elena.Fears, " "))
	assert.True(t,
		strings.Contains(joined, "improvisation") || strings.Contains(joined, "digital perfection"),
		"fears should reference improvisation or digital perfection, got %q", joined)

	// Backstory from the "former jazz musician" cue.
	assert.Contains(t, strings.ToLower(elena.Backstory), "former jazz musician")

	// Psychology populated: conflicts from "torn between".
	assert.NotEmpty(t, elena.Conflicts)
	assert.NotEmpty(t, elena.Desires)

	// Three populated layers and plenty of references puts confidence high.
	assert.GreaterOrEqual(t, elena.ConfidenceScore, 0.7)
	assert.True(t, elena.IsComplete())
}

func TestAnalyze_NoCharacters(t *testing.T) {
	res := Analyze("The music was beautiful.")

	assert.Empty(t, res.Characters)
	assert.NotEmpty(t, res.Warnings)
	// Emotional arc is still populated (no error, valid shape).
	assert.NotEmpty(t, res.EmotionalArc.Beginning)
	assert.NotEmpty(t, res.EmotionalArc.Middle)
	assert.NotEmpty(t, res.EmotionalArc.End)
}

func TestAnalyze_EmptyText(t *testing.T) {
	res := Analyze("")

	assert.Empty(t, res.Characters)
	assert.Empty(t, res.NarrativeThemes)
	assert.Equal(t, Arc{Beginning: "neutral", Middle: "neutral", End: "neutral"}, res.EmotionalArc)
}

func TestAnalyze_MarcusScenario(t *testing.T) {
	res := Analyze(marcusText)

	require.NotEmpty(t, res.Characters)
	marcus := res.Characters[0]
	assert.Equal(t, "Marcus Thompson", marcus.Name)
	assert.NotEmpty(t, marcus.Fears)
	assert.NotEmpty(t, marcus.Motivations)

	// No injected unrelated locations: everything referenced must come from
	// the input text.
	for _, c := range res.Characters {
		for _, conn := range c.SocialConnections {
			assert.Contains(t, marcusText, conn)
		}
	}
}

func TestAnalyze_TwoCharacters(t *testing.T) {
	res := Analyze(twoCharacterText)

	require.Len(t, res.Characters, 2)
	names := []string{res.Characters[0].Name, res.Characters[1].Name}
	assert.Contains(t, names, "Emma")
	assert.Contains(t, names, "Old Tom")

	// Emma has more references, so she ranks first.
	var emma, tom int
	for _, c := range res.Characters {
		if c.Name == "Emma" {
			emma = len(c.TextReferences)
		} else {
			tom = len(c.TextReferences)
		}
	}
	if emma > tom {
		assert.Equal(t, "Emma", res.Characters[0].Name)
	}

	assert.Contains(t, res.NarrativeThemes, "the sea")
}

func TestAnalyze_TextReferencesAreValidSpans(t *testing.T) {
	for _, text := range []string{elenaText, marcusText, twoCharacterText} {
		res := Analyze(text)
		for _, c := range res.Characters {
			for _, ref := range c.TextReferences {
				require.GreaterOrEqual(t, ref.Start, 0)
				require.LessOrEqual(t, ref.End, len(text))
				require.Less(t, ref.Start, ref.End)
				span := text[ref.Start:ref.End]
				assert.NotEmpty(t, strings.TrimSpace(span))
			}
		}
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	a := Analyze(twoCharacterText)
	b := Analyze(twoCharacterText)
	assert.Equal(t, a, b)
}

func TestAnalyze_NoPsychologyCapsConfidence(t *testing.T) {
	text := `Hannah Lee walked to the market every morning. Hannah Lee carried a red umbrella. Hannah Lee waved to the baker. Hannah Lee counted the pigeons on the wire.`
	res := Analyze(text)
	require.NotEmpty(t, res.Characters)
	c := res.Characters[0]
	assert.Empty(t, c.Fears)
	assert.Empty(t, c.Motivations)
	assert.LessOrEqual(t, c.ConfidenceScore, 0.5)
}

func TestAnalyze_MoreEvidenceNeverLowersConfidence(t *testing.T) {
	base := `Nora Quinn lived by the river. Nora Quinn was quiet and careful. Nora Quinn watched the water.`
	richer := base + ` Nora Quinn was a former cartographer and had spent years mapping the delta. She feared that the floods would take the village. She wanted to finish the map before winter.`

	a := Analyze(base)
	b := Analyze(richer)
	require.NotEmpty(t, a.Characters)
	require.NotEmpty(t, b.Characters)
	assert.GreaterOrEqual(t, b.Characters[0].ConfidenceScore, a.Characters[0].ConfidenceScore)
}

func TestSegment_OffsetsRoundTrip(t *testing.T) {
	text := "First paragraph here.\n\nSecond paragraph follows.\n\nThird."
	passages := Segment(text)
	require.Len(t, passages, 3)
	for _, p := range passages {
		assert.Equal(t, p.Text, text[p.Start:p.End])
	}
}

func TestEmotionalArc_EvidenceDriven(t *testing.T) {
	text := strings.Join([]string{
		strings.Repeat("They laughed and smiled in the bright morning. ", 4),
		strings.Repeat("The storm brought dread and fear to everyone. ", 4),
		strings.Repeat("At last came triumph and victory, they finally won. ", 4),
	}, "")
	arc := emotionalArc(text)
	assert.Equal(t, "joyful", arc.Beginning)
	assert.Equal(t, "tense", arc.Middle)
	assert.Equal(t, "triumphant", arc.End)
}
