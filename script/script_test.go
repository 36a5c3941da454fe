package script

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptParser_ParseClip(t *testing.T) {
	parser, err := NewScriptParser()
	require.NoError(t, err)

	tests := []struct {
		name            string
		dsl             string
		expectedNotes   string
		expectedDialect string
	}{
		{
			name:            "barbeat clip",
			dsl:             `clip(notes="C3 E3 G3 1|1")`,
			expectedNotes:   "C3 E3 G3 1|1",
			expectedDialect: "barbeat",
		},
		{
			name:            "legacy clip",
			dsl:             `clip(notes="C3 D3 E3", dialect=legacy)`,
			expectedNotes:   "C3 D3 E3",
			expectedDialect: "legacy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actions, err := parser.ParseDSL(tt.dsl)
			require.NoError(t, err)
			require.Len(t, actions, 1)

			action := actions[0]
			assert.Equal(t, "compile_clip", action["type"])
			assert.Equal(t, tt.expectedNotes, action["notes"])
			assert.Equal(t, tt.expectedDialect, action["dialect"])
		})
	}
}

func TestScriptParser_ParseTransform(t *testing.T) {
	parser, err := NewScriptParser()
	require.NoError(t, err)

	actions, err := parser.ParseDSL(`transform(statements="velocity = 100")`)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "transform_clip", actions[0]["type"])
	assert.Equal(t, "velocity = 100", actions[0]["statements"])
}

func TestScriptParser_ParseTimeSig(t *testing.T) {
	parser, err := NewScriptParser()
	require.NoError(t, err)

	actions, err := parser.ParseDSL(`time_sig(numerator=6, denominator=8)`)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "set_time_sig", actions[0]["type"])
	assert.Equal(t, 6, actions[0]["numerator"])
	assert.Equal(t, 8, actions[0]["denominator"])
}

func TestScriptParser_EmptyCode(t *testing.T) {
	parser, err := NewScriptParser()
	require.NoError(t, err)

	_, err = parser.ParseDSL("")
	assert.Error(t, err)
}

func TestCompileActions_Clip(t *testing.T) {
	actions := []map[string]any{
		{"type": "compile_clip", "notes": "C3 E3 G3 1|1", "dialect": "barbeat"},
	}

	result, err := CompileActions(actions, nil)
	require.NoError(t, err)
	require.Len(t, result.Events, 3)
	assert.Equal(t, 60, result.Events[0].Pitch)
	assert.Equal(t, 64, result.Events[1].Pitch)
	assert.Equal(t, 67, result.Events[2].Pitch)
	for _, ev := range result.Events {
		assert.Equal(t, 0.0, ev.StartBeats)
	}
}

func TestCompileActions_LegacyClip(t *testing.T) {
	actions := []map[string]any{
		{"type": "compile_clip", "notes": "C3 D3 E3", "dialect": "legacy"},
	}

	result, err := CompileActions(actions, nil)
	require.NoError(t, err)
	require.Len(t, result.Events, 3)
	assert.Equal(t, 64, result.Events[0].Velocity)
	assert.Equal(t, 2.0, result.Events[2].StartBeats)
}

func TestCompileActions_TimeSigAffectsLaterClips(t *testing.T) {
	actions := []map[string]any{
		{"type": "set_time_sig", "numerator": 3, "denominator": 4},
		{"type": "compile_clip", "notes": "C3 2|1", "dialect": "barbeat"},
	}

	result, err := CompileActions(actions, nil)
	require.NoError(t, err)
	require.Len(t, result.Events, 1)
	assert.Equal(t, 3.0, result.Events[0].StartBeats)
}

func TestCompileActions_Transform(t *testing.T) {
	actions := []map[string]any{
		{"type": "compile_clip", "notes": "C3 1|1,2,3,4", "dialect": "barbeat"},
		{"type": "transform_clip", "statements": "velocity = ramp(0, 127)"},
	}

	result, err := CompileActions(actions, nil)
	require.NoError(t, err)
	require.Len(t, result.Events, 4)
	// ramp traverses the one-bar clip extent: 0, 32, 64, 95.
	assert.Equal(t, 0, result.Events[0].Velocity)
	assert.Equal(t, 32, result.Events[1].Velocity)
	assert.Equal(t, 64, result.Events[2].Velocity)
	assert.Equal(t, 95, result.Events[3].Velocity)
}

func TestCompileActions_SeededTransform(t *testing.T) {
	run := func() []int {
		actions := []map[string]any{
			{"type": "compile_clip", "notes": "C3 1|1,2,3,4", "dialect": "barbeat"},
			{"type": "transform_clip", "statements": "velocity = rand(0, 127)"},
		}
		result, err := CompileActions(actions, rand.New(rand.NewSource(5)))
		require.NoError(t, err)
		velocities := make([]int, len(result.Events))
		for i, ev := range result.Events {
			velocities[i] = ev.Velocity
		}
		return velocities
	}

	assert.Equal(t, run(), run())
}

func TestCompileActions_Errors(t *testing.T) {
	tests := []struct {
		name    string
		actions []map[string]any
	}{
		{
			name:    "unknown action type",
			actions: []map[string]any{{"type": "mystery"}},
		},
		{
			name:    "bad notation",
			actions: []map[string]any{{"type": "compile_clip", "notes": "X9", "dialect": "barbeat"}},
		},
		{
			name: "bad transform",
			actions: []map[string]any{
				{"type": "compile_clip", "notes": "C3 1|1", "dialect": "barbeat"},
				{"type": "transform_clip", "statements": "velocity : 10"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileActions(tt.actions, nil)
			assert.Error(t, err)
		})
	}
}
