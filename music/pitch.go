// Package music holds the leaf utilities of the notation pipeline: note name
// to MIDI pitch resolution and bar/beat time conversion.
package music

import (
	"fmt"
	"strconv"
)

// Note name to semitone offset from C. Enharmonic names (C# / Db) map to the
// same pitch class.
var pitchClasses = map[string]int{
	"C":  0,
	"C#": 1, "Db": 1,
	"D":  2,
	"D#": 3, "Eb": 3,
	"E":  4,
	"F":  5,
	"F#": 6, "Gb": 6,
	"G":  7,
	"G#": 8, "Ab": 8,
	"A":  9,
	"A#": 10, "Bb": 10,
	"B": 11,
}

var pitchNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// RangeError reports a musically out-of-domain value (pitch, velocity,
// probability, bar, beat) and names the offending token.
type RangeError struct {
	Token string
	Value float64
	Min   float64
	Max   float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s out of range: %g is not within [%g, %g]", e.Token, e.Value, e.Min, e.Max)
}

// Resolve converts a note letter, optional accidental ("#" or "b") and octave
// into a MIDI pitch. C-2 is MIDI 0, C3 is middle C (60), G8 is 127.
func Resolve(letter string, accidental string, octave int) (int, error) {
	class, ok := pitchClasses[letter+accidental]
	if !ok {
		return 0, fmt.Errorf("invalid note name: %s%s", letter, accidental)
	}
	midi := (octave+2)*12 + class
	if midi < 0 || midi > 127 {
		token := fmt.Sprintf("%s%s%d", letter, accidental, octave)
		return 0, &RangeError{Token: token, Value: float64(midi), Min: 0, Max: 127}
	}
	return midi, nil
}

// NoteNameToMIDI parses a full note token like "C3", "F#-1" or "Bb0".
func NoteNameToMIDI(token string) (int, error) {
	if token == "" {
		return 0, fmt.Errorf("empty note name")
	}
	letter := token[:1]
	rest := token[1:]
	accidental := ""
	if len(rest) > 0 && (rest[0] == '#' || rest[0] == 'b') {
		accidental = rest[:1]
		rest = rest[1:]
	}
	octave, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("invalid note name %q: bad octave %q", token, rest)
	}
	return Resolve(letter, accidental, octave)
}

// MIDIToNoteName renders a pitch using sharp names, e.g. 60 -> "C3".
func MIDIToNoteName(midi int) string {
	if midi < 0 || midi > 127 {
		return strconv.Itoa(midi)
	}
	return fmt.Sprintf("%s%d", pitchNames[midi%12], midi/12-2)
}
