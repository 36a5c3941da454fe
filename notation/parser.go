// Package notation compiles bar|beat note notation into timestamped note
// events. Parsing and interpretation are separate passes: the parser turns
// text into an ordered directive stream (all range validation happens here),
// the interpreter folds persistent playback state over that stream.
package notation

import (
	"errors"
	"strconv"
	"strings"

	"github.com/adamjmurray/producer-pal-sub014/models"
	"github.com/adamjmurray/producer-pal-sub014/music"
)

// Directive is one element of the parsed token stream. Directives are
// immutable once produced.
type Directive interface{ directive() }

// TimePosition addresses a single bar/beat point. Bar may be omitted in the
// source (`|3`), in which case the interpreter reuses the last bar.
type TimePosition struct {
	Bar    int
	HasBar bool
	Beat   float64
}

// TimeList is a comma-separated beat list sharing one bar (`1|1,2,3,4`).
type TimeList struct {
	Bar    int
	HasBar bool
	Beats  []float64
}

// VelocityState sets the persistent velocity (`v100`).
type VelocityState struct {
	Value int
}

// VelocityRangeState sets a velocity range (`v60-80`), order-normalized.
// A normalized minimum of 0 marks a deletion group.
type VelocityRangeState struct {
	Min int
	Max int
}

// DurationState sets the persistent note duration in beats (`t1/2`, `t2:0`).
type DurationState struct {
	Beats float64
}

// ProbabilityState sets the persistent note probability (`p0.5`).
type ProbabilityState struct {
	Value float64
}

// Pitch buffers one note (`C3`, `F#-1`).
type Pitch struct {
	MIDI int
}

// CopyRange re-emits the source bar's events into each destination bar
// (`@5-8=`, `@5=4`). SourceBar 0 means "most recently completed bar".
type CopyRange struct {
	DestStart int
	DestEnd   int
	SourceBar int
	HasSource bool
}

// VoiceBreak separates voices (`;` or newline). Each voice restarts the
// interpreter state.
type VoiceBreak struct{}

func (TimePosition) directive()       {}
func (TimeList) directive()           {}
func (VelocityState) directive()      {}
func (VelocityRangeState) directive() {}
func (DurationState) directive()      {}
func (ProbabilityState) directive()   {}
func (Pitch) directive()              {}
func (CopyRange) directive()          {}
func (VoiceBreak) directive()         {}

type token struct {
	text   string
	offset int
	line   int
	column int
}

// scan splits the source into whitespace-separated tokens, keeping byte
// offsets and 1-based line/column for error reporting. Semicolons and
// newlines become voice-break tokens.
func scan(source string) []token {
	var toks []token
	line, column := 1, 1
	start := -1
	startLine, startCol := 0, 0
	flush := func(end int) {
		if start >= 0 {
			toks = append(toks, token{text: source[start:end], offset: start, line: startLine, column: startCol})
			start = -1
		}
	}
	for i := 0; i < len(source); i++ {
		c := source[i]
		switch c {
		case ' ', '\t', '\r':
			flush(i)
		case '\n', ';':
			flush(i)
			toks = append(toks, token{text: ";", offset: i, line: line, column: column})
		default:
			if start < 0 {
				start = i
				startLine, startCol = line, column
			}
		}
		if c == '\n' {
			line++
			column = 1
		} else {
			column++
		}
	}
	flush(len(source))
	return toks
}

// Parse converts notation text into an ordered directive stream. The time
// signature is needed to resolve bar-qualified durations (`t2:1`). All
// domain validation (pitch, velocity, probability, bar and beat bounds)
// happens here; the first error aborts the parse.
func Parse(source string, ts models.TimeSignature) ([]Directive, error) {
	var directives []Directive
	for _, tok := range scan(source) {
		d, err := parseToken(tok, ts)
		if err != nil {
			return nil, err
		}
		if d != nil {
			directives = append(directives, d)
		}
	}
	return directives, nil
}

func parseToken(tok token, ts models.TimeSignature) (Directive, error) {
	text := tok.text
	switch {
	case text == ";":
		return VoiceBreak{}, nil
	case strings.HasPrefix(text, "@"):
		return parseCopyRange(tok)
	case strings.ContainsRune(text, '|'):
		return parseTimeToken(tok)
	case len(text) > 1 && text[0] == 'v':
		return parseVelocity(tok)
	case len(text) > 1 && text[0] == 't':
		return parseDuration(tok, ts)
	case len(text) > 1 && text[0] == 'p':
		return parseProbability(tok)
	case text[0] >= 'A' && text[0] <= 'G':
		return parsePitch(tok)
	default:
		return nil, syntaxErrorf(tok, "unexpected token %q", text)
	}
}

func parsePitch(tok token) (Directive, error) {
	midi, err := music.NoteNameToMIDI(tok.text)
	if err != nil {
		var rangeErr *music.RangeError
		if errors.As(err, &rangeErr) {
			return nil, err // range errors keep their own type
		}
		return nil, syntaxErrorf(tok, "invalid pitch %q", tok.text)
	}
	return Pitch{MIDI: midi}, nil
}

func parseVelocity(tok token) (Directive, error) {
	body := tok.text[1:]
	if lo, hi, isRange := strings.Cut(body, "-"); isRange {
		minV, err1 := strconv.Atoi(lo)
		maxV, err2 := strconv.Atoi(hi)
		if err1 != nil || err2 != nil {
			return nil, syntaxErrorf(tok, "invalid velocity range %q", tok.text)
		}
		if minV > maxV {
			minV, maxV = maxV, minV
		}
		if err := checkVelocity(tok.text, minV); err != nil {
			return nil, err
		}
		if err := checkVelocity(tok.text, maxV); err != nil {
			return nil, err
		}
		return VelocityRangeState{Min: minV, Max: maxV}, nil
	}
	v, err := strconv.Atoi(body)
	if err != nil {
		return nil, syntaxErrorf(tok, "invalid velocity %q", tok.text)
	}
	if err := checkVelocity(tok.text, v); err != nil {
		return nil, err
	}
	return VelocityState{Value: v}, nil
}

func checkVelocity(token string, v int) error {
	if v < 0 || v > 127 {
		return &music.RangeError{Token: token, Value: float64(v), Min: 0, Max: 127}
	}
	return nil
}

func parseDuration(tok token, ts models.TimeSignature) (Directive, error) {
	beats, err := music.DurationToBeats(tok.text[1:], ts.BeatsPerBar())
	if err != nil {
		return nil, syntaxErrorf(tok, "invalid duration %q: %v", tok.text, err)
	}
	if beats <= 0 {
		return nil, &music.RangeError{Token: tok.text, Value: beats, Min: 0, Max: float64(1<<31 - 1)}
	}
	return DurationState{Beats: beats}, nil
}

func parseProbability(tok token) (Directive, error) {
	v, err := strconv.ParseFloat(tok.text[1:], 64)
	if err != nil {
		return nil, syntaxErrorf(tok, "invalid probability %q", tok.text)
	}
	if v < 0 || v > 1 {
		return nil, &music.RangeError{Token: tok.text, Value: v, Min: 0, Max: 1}
	}
	return ProbabilityState{Value: v}, nil
}

func parseTimeToken(tok token) (Directive, error) {
	barPart, beatPart, _ := strings.Cut(tok.text, "|")
	bar, hasBar := 0, false
	if barPart != "" {
		b, err := strconv.Atoi(barPart)
		if err != nil {
			return nil, syntaxErrorf(tok, "invalid bar number in %q", tok.text)
		}
		if b < 1 {
			return nil, &music.RangeError{Token: tok.text, Value: float64(b), Min: 1, Max: float64(1<<31 - 1)}
		}
		bar, hasBar = b, true
	}
	if beatPart == "" {
		return nil, syntaxErrorf(tok, "time position %q is missing a beat", tok.text)
	}
	parts := strings.Split(beatPart, ",")
	beats := make([]float64, 0, len(parts))
	for _, part := range parts {
		beat, err := music.ParseBeatValue(part)
		if err != nil {
			return nil, syntaxErrorf(tok, "invalid beat in %q: %v", tok.text, err)
		}
		if beat < 1 {
			return nil, &music.RangeError{Token: tok.text, Value: beat, Min: 1, Max: float64(1<<31 - 1)}
		}
		beats = append(beats, beat)
	}
	if len(beats) == 1 && !strings.Contains(beatPart, ",") {
		return TimePosition{Bar: bar, HasBar: hasBar, Beat: beats[0]}, nil
	}
	return TimeList{Bar: bar, HasBar: hasBar, Beats: beats}, nil
}

func parseCopyRange(tok token) (Directive, error) {
	destPart, srcPart, hasEq := strings.Cut(tok.text[1:], "=")
	if !hasEq {
		return nil, syntaxErrorf(tok, "copy directive %q is missing '='", tok.text)
	}
	lo, hi, isRange := strings.Cut(destPart, "-")
	destStart, err := strconv.Atoi(lo)
	if err != nil {
		return nil, syntaxErrorf(tok, "invalid destination bar in %q", tok.text)
	}
	destEnd := destStart
	if isRange {
		destEnd, err = strconv.Atoi(hi)
		if err != nil {
			return nil, syntaxErrorf(tok, "invalid destination bar in %q", tok.text)
		}
	}
	if destStart < 1 || destEnd < 1 {
		return nil, &music.RangeError{Token: tok.text, Value: float64(min(destStart, destEnd)), Min: 1, Max: float64(1<<31 - 1)}
	}
	if destStart > destEnd {
		return nil, syntaxErrorf(tok, "copy destination range %q is reversed", tok.text)
	}
	cr := CopyRange{DestStart: destStart, DestEnd: destEnd}
	if srcPart != "" {
		src, err := strconv.Atoi(srcPart)
		if err != nil {
			return nil, syntaxErrorf(tok, "invalid source bar in %q", tok.text)
		}
		if src < 1 {
			return nil, &music.RangeError{Token: tok.text, Value: float64(src), Min: 1, Max: float64(1<<31 - 1)}
		}
		cr.SourceBar, cr.HasSource = src, true
	}
	return cr, nil
}
