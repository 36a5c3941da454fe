package music

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		letter     string
		accidental string
		octave     int
		expected   int
	}{
		{name: "lowest note", letter: "C", accidental: "", octave: -2, expected: 0},
		{name: "C-1", letter: "C", accidental: "", octave: -1, expected: 12},
		{name: "C0", letter: "C", accidental: "", octave: 0, expected: 24},
		{name: "middle C", letter: "C", accidental: "", octave: 3, expected: 60},
		{name: "highest note", letter: "G", accidental: "", octave: 8, expected: 127},
		{name: "sharp", letter: "F", accidental: "#", octave: 3, expected: 66},
		{name: "flat", letter: "G", accidental: "b", octave: 3, expected: 66},
		{name: "concert A", letter: "A", accidental: "", octave: 2, expected: 57},
		{name: "B below middle C", letter: "B", accidental: "", octave: 2, expected: 59},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			midi, err := Resolve(tt.letter, tt.accidental, tt.octave)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, midi)
		})
	}
}

func TestResolve_OutOfRange(t *testing.T) {
	tests := []struct {
		name       string
		letter     string
		accidental string
		octave     int
	}{
		{name: "below MIDI 0", letter: "B", accidental: "", octave: -3},
		{name: "above MIDI 127", letter: "G", accidental: "#", octave: 8},
		{name: "way too high", letter: "C", accidental: "", octave: 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.letter, tt.accidental, tt.octave)
			require.Error(t, err)
			assert.IsType(t, &RangeError{}, err)
		})
	}
}

func TestNoteNameToMIDI(t *testing.T) {
	tests := []struct {
		token    string
		expected int
	}{
		{"C3", 60},
		{"C-2", 0},
		{"G8", 127},
		{"F#-1", 18},
		{"Bb0", 34},
		{"D#4", 75},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			midi, err := NoteNameToMIDI(tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, midi)
		})
	}
}

func TestNoteNameToMIDI_Invalid(t *testing.T) {
	for _, token := range []string{"", "H3", "C", "C#", "Cx3", "3"} {
		t.Run(token, func(t *testing.T) {
			_, err := NoteNameToMIDI(token)
			assert.Error(t, err)
		})
	}
}

func TestMIDIToNoteName(t *testing.T) {
	tests := []struct {
		midi     int
		expected string
	}{
		{0, "C-2"},
		{60, "C3"},
		{127, "G8"},
		{66, "F#3"},
		{57, "A2"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, MIDIToNoteName(tt.midi))
		})
	}
}

func TestMIDIToNoteName_RoundTrip(t *testing.T) {
	for midi := 0; midi <= 127; midi++ {
		name := MIDIToNoteName(midi)
		back, err := NoteNameToMIDI(name)
		require.NoError(t, err, "note name %s", name)
		assert.Equal(t, midi, back)
	}
}
