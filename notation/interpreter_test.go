package notation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamjmurray/producer-pal-sub014/models"
)

func interpret(t *testing.T, source string) *Result {
	t.Helper()
	result, err := Interpret(source, models.CommonTime)
	require.NoError(t, err)
	return result
}

func TestInterpret_PitchGroup(t *testing.T) {
	result := interpret(t, "C3 D3 E3 1|1")

	require.Len(t, result.Events, 3)
	assert.Equal(t, 60, result.Events[0].Pitch)
	assert.Equal(t, 62, result.Events[1].Pitch)
	assert.Equal(t, 64, result.Events[2].Pitch)
	for _, ev := range result.Events {
		assert.Equal(t, 0.0, ev.StartBeats)
		assert.Equal(t, 1.0, ev.DurationBeats)
		assert.Equal(t, DefaultVelocity, ev.Velocity)
		assert.Equal(t, DefaultProbability, ev.Probability)
	}
	assert.Empty(t, result.Diagnostics)
}

func TestInterpret_BeatList(t *testing.T) {
	result := interpret(t, "C1 1|1,2,3,4")

	require.Len(t, result.Events, 4)
	for i, ev := range result.Events {
		assert.Equal(t, 36, ev.Pitch)
		assert.Equal(t, float64(i), ev.StartBeats)
	}
}

func TestInterpret_BufferClearedAfterBeatList(t *testing.T) {
	// The beat list consumes the buffer, so a later time position with no new
	// pitches emits nothing.
	result := interpret(t, "C1 1|1,2 2|1")

	require.Len(t, result.Events, 2)
	require.Len(t, result.Diagnostics, 1)
	assert.Contains(t, result.Diagnostics[0].Message, "no pitches")
}

func TestInterpret_BufferPersistsAfterTimePosition(t *testing.T) {
	// A single time position re-emits the buffered group: the drum idiom
	// "C1 1|1 2|1 3|1" plays the kick in every bar.
	result := interpret(t, "C1 1|1 2|1 3|1")

	require.Len(t, result.Events, 3)
	assert.Equal(t, 0.0, result.Events[0].StartBeats)
	assert.Equal(t, 4.0, result.Events[1].StartBeats)
	assert.Equal(t, 8.0, result.Events[2].StartBeats)
}

func TestInterpret_ReEmitUnderNewState(t *testing.T) {
	// State setters between re-emissions affect the later emissions.
	result := interpret(t, "C1 1|1 v60 2|1")

	require.Len(t, result.Events, 2)
	assert.Equal(t, 100, result.Events[0].Velocity)
	assert.Equal(t, 60, result.Events[1].Velocity)
	assert.Empty(t, result.Diagnostics)
}

func TestInterpret_NewPitchReplacesEmittedGroup(t *testing.T) {
	result := interpret(t, "C3 1|1 D3 2|1")

	require.Len(t, result.Events, 2)
	assert.Equal(t, 60, result.Events[0].Pitch)
	assert.Equal(t, 62, result.Events[1].Pitch)
	assert.Equal(t, 4.0, result.Events[1].StartBeats)
}

func TestInterpret_PerPitchStateOverride(t *testing.T) {
	// A setter between two pitches of one group freezes the earlier pitch at
	// the old value.
	result := interpret(t, "C3 v80 D3 1|1")

	require.Len(t, result.Events, 2)
	assert.Equal(t, 100, result.Events[0].Velocity)
	assert.Equal(t, 80, result.Events[1].Velocity)
	assert.Empty(t, result.Diagnostics)
}

func TestInterpret_StateChangeBeforeTimePositionWarns(t *testing.T) {
	// A setter after the last pitch of a group cannot affect that group.
	result := interpret(t, "C3 v80 1|1")

	require.Len(t, result.Events, 1)
	assert.Equal(t, 100, result.Events[0].Velocity)
	require.Len(t, result.Diagnostics, 1)
	assert.Contains(t, result.Diagnostics[0].Message, "won't affect this group")
}

func TestInterpret_VelocityRange(t *testing.T) {
	result := interpret(t, "v60-80 C3 1|1")

	require.Len(t, result.Events, 1)
	assert.Equal(t, 70, result.Events[0].Velocity)
	assert.Equal(t, 10, result.Events[0].VelocityDeviation)
}

func TestInterpret_DeletionMarkers(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{name: "v0 suppresses the group", source: "v0 C3 D3 E3 1|1"},
		{name: "range with min 0 suppresses", source: "v0-20 C3 1|1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := interpret(t, tt.source)
			assert.Empty(t, result.Events)
		})
	}
}

func TestInterpret_DurationAndProbability(t *testing.T) {
	result := interpret(t, "t1/2 p0.5 C3 1|1")

	require.Len(t, result.Events, 1)
	assert.Equal(t, 0.5, result.Events[0].DurationBeats)
	assert.Equal(t, 0.5, result.Events[0].Probability)
}

func TestInterpret_BarRelativePosition(t *testing.T) {
	result := interpret(t, "C3 2|1 |3")

	require.Len(t, result.Events, 2)
	assert.Equal(t, 4.0, result.Events[0].StartBeats)
	assert.Equal(t, 6.0, result.Events[1].StartBeats)
}

func TestInterpret_TimeSignature(t *testing.T) {
	result, err := Interpret("C3 2|1", models.TimeSignature{Numerator: 3, Denominator: 4})
	require.NoError(t, err)

	require.Len(t, result.Events, 1)
	assert.Equal(t, 3.0, result.Events[0].StartBeats)
}

func TestInterpret_Voices(t *testing.T) {
	result := interpret(t, "C1 1|1 ; D1 1|2")

	require.Len(t, result.Events, 2)
	assert.Equal(t, 36, result.Events[0].Pitch)
	assert.Equal(t, 0.0, result.Events[0].StartBeats)
	assert.Equal(t, 38, result.Events[1].Pitch)
	assert.Equal(t, 1.0, result.Events[1].StartBeats)
}

func TestInterpret_VoiceResetsState(t *testing.T) {
	result := interpret(t, "v30 C3 2|1 ; D3 1|1")

	require.Len(t, result.Events, 2)
	// Second voice starts over: default velocity, default bar.
	assert.Equal(t, 100, result.Events[1].Velocity)
	assert.Equal(t, 0.0, result.Events[1].StartBeats)
}

func TestInterpret_Copy(t *testing.T) {
	result := interpret(t, "C3 1|1 E3 |3 @2=")

	require.Len(t, result.Events, 4)
	assert.Equal(t, 0.0, result.Events[0].StartBeats)
	assert.Equal(t, 2.0, result.Events[1].StartBeats)
	assert.Equal(t, 4.0, result.Events[2].StartBeats)
	assert.Equal(t, 6.0, result.Events[3].StartBeats)
	assert.Equal(t, 60, result.Events[2].Pitch)
	assert.Equal(t, 64, result.Events[3].Pitch)
}

func TestInterpret_CopyRangeWithExplicitSource(t *testing.T) {
	result := interpret(t, "C3 1|1 @3-4=1")

	require.Len(t, result.Events, 3)
	assert.Equal(t, 0.0, result.Events[0].StartBeats)
	assert.Equal(t, 8.0, result.Events[1].StartBeats)
	assert.Equal(t, 12.0, result.Events[2].StartBeats)
}

func TestInterpret_CopiesCascade(t *testing.T) {
	// The second copy reads bar 2, which the first copy populated.
	result := interpret(t, "C3 1|1 @2=1 @3=2")

	require.Len(t, result.Events, 3)
	assert.Equal(t, 0.0, result.Events[0].StartBeats)
	assert.Equal(t, 4.0, result.Events[1].StartBeats)
	assert.Equal(t, 8.0, result.Events[2].StartBeats)
}

func TestInterpret_Diagnostics(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		events   int
		contains string
	}{
		{
			name:     "time position without pitches",
			source:   "1|1",
			events:   0,
			contains: "has no pitches",
		},
		{
			name:     "orphan pitches",
			source:   "C3 D3",
			events:   0,
			contains: "no time position",
		},
		{
			name:     "orphans counted per voice",
			source:   "C3 1|1 ; D3",
			events:   1,
			contains: "1 pitch(es) buffered",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := interpret(t, tt.source)
			assert.Len(t, result.Events, tt.events)
			require.NotEmpty(t, result.Diagnostics)
			assert.Contains(t, result.Diagnostics[len(result.Diagnostics)-1].Message, tt.contains)
		})
	}
}

func TestInterpret_EmptySource(t *testing.T) {
	result := interpret(t, "")
	assert.Empty(t, result.Events)
	assert.Empty(t, result.Diagnostics)
}
