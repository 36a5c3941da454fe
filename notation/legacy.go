package notation

import (
	"math"
	"strconv"
	"strings"

	"github.com/adamjmurray/producer-pal-sub014/models"
	"github.com/adamjmurray/producer-pal-sub014/music"
)

// Legacy flat-sequence dialect defaults.
const (
	LegacyVelocity    = 64
	LegacyDuration    = 1.0
	LegacyProbability = 1.0
)

// InterpretLegacy interprets the legacy flat-sequence dialect: there are no
// bar|beat addresses, each pitch sounds at the time cursor and advances it by
// the current duration. `r` is a rest (advances only), `[C3 E3 G3]` groups a
// chord at one cursor position, and the v/t/p state setters work as in the
// bar|beat dialect.
func InterpretLegacy(source string, ts models.TimeSignature) (*Result, error) {
	st := legacyState{
		ts:          ts,
		velocity:    velocityCapture{value: LegacyVelocity},
		duration:    LegacyDuration,
		probability: LegacyProbability,
	}
	res := &Result{}
	var chord []int
	inChord := false

	for _, tok := range scan(source) {
		text := tok.text
		if text == ";" {
			continue // the legacy dialect has no voices
		}
		if strings.HasPrefix(text, "[") {
			if inChord {
				return nil, syntaxErrorf(tok, "nested chord bracket in %q", text)
			}
			inChord = true
			text = text[1:]
		}
		closes := false
		if strings.HasSuffix(text, "]") {
			if !inChord {
				return nil, syntaxErrorf(tok, "unmatched ']' in %q", tok.text)
			}
			closes = true
			text = text[:len(text)-1]
		}
		if text != "" {
			if err := st.apply(tok, text, inChord, &chord, res); err != nil {
				return nil, err
			}
		}
		if closes {
			st.emitChord(chord, res)
			chord = nil
			inChord = false
		}
	}
	if inChord {
		return nil, &SyntaxError{Offset: len(source), Line: 0, Column: 0, Message: "unterminated chord bracket"}
	}
	return res, nil
}

type legacyState struct {
	ts          models.TimeSignature
	cursor      float64
	velocity    velocityCapture
	duration    float64
	probability float64
}

func (st *legacyState) apply(tok token, text string, inChord bool, chord *[]int, res *Result) error {
	switch {
	case text == "r":
		if inChord {
			return syntaxErrorf(tok, "rest inside chord bracket")
		}
		st.cursor += st.duration
	case len(text) > 1 && text[0] == 'v':
		d, err := parseVelocity(token{text: text, offset: tok.offset, line: tok.line, column: tok.column})
		if err != nil {
			return err
		}
		switch d := d.(type) {
		case VelocityState:
			st.velocity = velocityCapture{value: d.Value, deletion: d.Value == 0}
		case VelocityRangeState:
			st.velocity = velocityCapture{
				value:     int(math.Round(float64(d.Min+d.Max) / 2)),
				deviation: int(math.Round(float64(d.Max-d.Min) / 2)),
				deletion:  d.Min == 0,
			}
		}
	case len(text) > 1 && text[0] == 't':
		beats, err := music.DurationToBeats(text[1:], st.ts.BeatsPerBar())
		if err != nil || beats <= 0 {
			return syntaxErrorf(tok, "invalid duration %q", text)
		}
		st.duration = beats
	case len(text) > 1 && text[0] == 'p':
		v, err := strconv.ParseFloat(text[1:], 64)
		if err != nil {
			return syntaxErrorf(tok, "invalid probability %q", text)
		}
		if v < 0 || v > 1 {
			return &music.RangeError{Token: text, Value: v, Min: 0, Max: 1}
		}
		st.probability = v
	case text[0] >= 'A' && text[0] <= 'G':
		midi, err := music.NoteNameToMIDI(text)
		if err != nil {
			return err
		}
		if inChord {
			*chord = append(*chord, midi)
			return nil
		}
		st.emit(midi, res)
		st.cursor += st.duration
	default:
		return syntaxErrorf(tok, "unexpected token %q", text)
	}
	return nil
}

func (st *legacyState) emit(pitch int, res *Result) {
	if st.velocity.deletion || st.velocity.value == 0 {
		return
	}
	res.Events = append(res.Events, models.NoteEvent{
		Pitch:             pitch,
		StartBeats:        st.cursor,
		DurationBeats:     st.duration,
		Velocity:          st.velocity.value,
		VelocityDeviation: st.velocity.deviation,
		Probability:       st.probability,
	})
}

// emitChord places every chord pitch at the current cursor, then advances the
// cursor once.
func (st *legacyState) emitChord(pitches []int, res *Result) {
	for _, p := range pitches {
		st.emit(p, res)
	}
	st.cursor += st.duration
}
