package workflow

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/versebound/musemcp/internal/wiki"
)

const narrativeText = `Elena Rodriguez stood at the piano in the empty conservatory hall. She was patient and deliberate, a former jazz musician turned music teacher who spoke in a low, unhurried voice. Elena wanted to pass on what the stage had taught her.

Her students never saw her play the way she once had. Elena dreamed of one last recording. Her greatest fear was that improvisation would be lost to digital perfection.

At night Elena Rodriguez returned to the piano and played for no one.`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOrchestrator(t *testing.T, enabled, fallbacks bool) *Orchestrator {
	t.Helper()
	store, err := wiki.NewStore(t.TempDir())
	require.NoError(t, err)

	knowledge := wiki.NewManager(store, func() wiki.Settings {
		return wiki.Settings{
			Enabled:             enabled,
			FallbackToHardcoded: fallbacks,
			RefreshTTL:          time.Hour,
		}
	}, testLogger())
	return New(knowledge, Options{}, testLogger())
}

func TestComplete_FullPipeline(t *testing.T) {
	orch := testOrchestrator(t, true, true)
	result := orch.Complete(context.Background(), narrativeText)

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Empty(t, result.Errors)

	require.NotEmpty(t, result.Analysis.Characters)
	assert.Equal(t, "Elena Rodriguez", result.Analysis.Characters[0].Name)

	require.Len(t, result.Personas, len(result.Analysis.Characters))
	assert.Equal(t, "Elena Rodriguez", result.Personas[0].CharacterInspiration)

	assert.NotEmpty(t, result.Commands)
}

func TestComplete_EmptyText(t *testing.T) {
	orch := testOrchestrator(t, true, true)
	result := orch.Complete(context.Background(), "")

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Analysis.Characters)
	assert.Empty(t, result.Personas)
	assert.Empty(t, result.Commands)
	// Every field is present even when empty; nothing is nil in transport.
	assert.NotNil(t, result.Personas)
	assert.NotNil(t, result.Commands)
	assert.NotNil(t, result.Errors)
}

func TestComplete_ErrorsMatchStatus(t *testing.T) {
	orch := testOrchestrator(t, true, true)
	result := orch.Complete(context.Background(), narrativeText)
	if len(result.Errors) == 0 {
		assert.Equal(t, StatusSuccess, result.Status)
	} else {
		assert.NotEqual(t, StatusSuccess, result.Status)
	}
}

func TestComplete_Cancelled(t *testing.T) {
	orch := testOrchestrator(t, true, true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := orch.Complete(ctx, narrativeText)
	assert.Equal(t, StatusFailedCritical, result.Status)
	require.NotEmpty(t, result.Errors)
	assert.Equal(t, "cancelled", result.Errors[0].Kind)
	// The shape is still complete.
	assert.NotNil(t, result.Analysis)
	assert.NotNil(t, result.Personas)
	assert.NotNil(t, result.Commands)
}

func TestComplete_NoTaggedCommandsWithoutKnowledge(t *testing.T) {
	// Wiki disabled and fallbacks disabled: personas lose genre data and
	// commands lose the tagged variant, but the pipeline still succeeds.
	orch := testOrchestrator(t, false, false)
	result := orch.Complete(context.Background(), narrativeText)

	assert.Equal(t, StatusSuccess, result.Status)
	for _, cmd := range result.Commands {
		assert.NotEqual(t, "tagged", cmd.Format)
	}
}

func TestComplete_DeterministicForFixedSnapshot(t *testing.T) {
	orch := testOrchestrator(t, true, true)
	a := orch.Complete(context.Background(), narrativeText)
	b := orch.Complete(context.Background(), narrativeText)
	assert.Equal(t, a, b)
}

func TestPersonas_OrderFollowsImportance(t *testing.T) {
	orch := testOrchestrator(t, true, true)
	res, err := orch.Analyze(context.Background(), narrativeText)
	require.NoError(t, err)

	personas, stageErrors := orch.Personas(context.Background(), res)
	assert.Empty(t, stageErrors)
	require.Len(t, personas, len(res.Characters))
	for i, c := range res.Characters {
		assert.Equal(t, c.Name, personas[i].CharacterInspiration)
	}
}
