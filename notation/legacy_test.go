package notation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamjmurray/producer-pal-sub014/models"
)

func interpretLegacy(t *testing.T, source string) *Result {
	t.Helper()
	result, err := InterpretLegacy(source, models.CommonTime)
	require.NoError(t, err)
	return result
}

func TestInterpretLegacy_Sequence(t *testing.T) {
	result := interpretLegacy(t, "C3 D3 E3")

	require.Len(t, result.Events, 3)
	for i, ev := range result.Events {
		assert.Equal(t, float64(i), ev.StartBeats)
		assert.Equal(t, LegacyVelocity, ev.Velocity)
		assert.Equal(t, LegacyDuration, ev.DurationBeats)
	}
	assert.Equal(t, 60, result.Events[0].Pitch)
	assert.Equal(t, 62, result.Events[1].Pitch)
	assert.Equal(t, 64, result.Events[2].Pitch)
}

func TestInterpretLegacy_Rest(t *testing.T) {
	result := interpretLegacy(t, "C3 r D3")

	require.Len(t, result.Events, 2)
	assert.Equal(t, 0.0, result.Events[0].StartBeats)
	assert.Equal(t, 2.0, result.Events[1].StartBeats)
}

func TestInterpretLegacy_Chord(t *testing.T) {
	result := interpretLegacy(t, "[C3 E3 G3] C4")

	require.Len(t, result.Events, 4)
	// All chord tones share one cursor position.
	assert.Equal(t, 0.0, result.Events[0].StartBeats)
	assert.Equal(t, 0.0, result.Events[1].StartBeats)
	assert.Equal(t, 0.0, result.Events[2].StartBeats)
	// The cursor advances once past the chord.
	assert.Equal(t, 1.0, result.Events[3].StartBeats)
	assert.Equal(t, 72, result.Events[3].Pitch)
}

func TestInterpretLegacy_StateSetters(t *testing.T) {
	result := interpretLegacy(t, "v100 t2 p0.5 C3 D3")

	require.Len(t, result.Events, 2)
	assert.Equal(t, 100, result.Events[0].Velocity)
	assert.Equal(t, 2.0, result.Events[0].DurationBeats)
	assert.Equal(t, 0.5, result.Events[0].Probability)
	// t2 also drives the cursor advance.
	assert.Equal(t, 2.0, result.Events[1].StartBeats)
}

func TestInterpretLegacy_VelocityRange(t *testing.T) {
	result := interpretLegacy(t, "v60-80 C3")

	require.Len(t, result.Events, 1)
	assert.Equal(t, 70, result.Events[0].Velocity)
	assert.Equal(t, 10, result.Events[0].VelocityDeviation)
}

func TestInterpretLegacy_DeletionVelocitySuppresses(t *testing.T) {
	result := interpretLegacy(t, "v0 C3 v64 D3")

	require.Len(t, result.Events, 1)
	assert.Equal(t, 62, result.Events[0].Pitch)
	// The suppressed note still advanced the cursor.
	assert.Equal(t, 1.0, result.Events[0].StartBeats)
}

func TestInterpretLegacy_BarQualifiedDuration(t *testing.T) {
	result := interpretLegacy(t, "t1:0 C3 D3")

	require.Len(t, result.Events, 2)
	assert.Equal(t, 4.0, result.Events[0].DurationBeats)
	assert.Equal(t, 4.0, result.Events[1].StartBeats)
}

func TestInterpretLegacy_Errors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{name: "unterminated chord", source: "[C3 E3"},
		{name: "unmatched close", source: "C3]"},
		{name: "nested chord", source: "[C3 [E3]]"},
		{name: "rest inside chord", source: "[C3 r]"},
		{name: "unknown token", source: "C3 x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := InterpretLegacy(tt.source, models.CommonTime)
			assert.Error(t, err)
		})
	}
}
