package music

import (
	"fmt"
	"strconv"
	"strings"
)

// PositionToBeats converts a 1-based bar/beat position into an absolute beat
// offset. Bars and beats are linear in the time-signature numerator; the
// denominator only defines what one beat means.
func PositionToBeats(bar int, beat float64, beatsPerBar float64) float64 {
	return (float64(bar)-1)*beatsPerBar + (beat - 1)
}

// ParseBeatValue parses a beat quantity: a bare number ("1.5"), a fraction
// ("3/4"), or a mixed number ("2+1/3"). Negative values are rejected; beat
// quantities are magnitudes, signs belong to the surrounding grammar.
func ParseBeatValue(text string) (float64, error) {
	if text == "" {
		return 0, fmt.Errorf("empty beat value")
	}
	total := 0.0
	for _, part := range strings.Split(text, "+") {
		v, err := parseNumberOrFraction(part)
		if err != nil {
			return 0, fmt.Errorf("invalid beat value %q: %w", text, err)
		}
		total += v
	}
	if total < 0 {
		return 0, fmt.Errorf("invalid beat value %q: negative", text)
	}
	return total, nil
}

// DurationToBeats parses a duration token. Accepted forms:
//
//	"2"       bare number of beats
//	"3/4"     fraction of a beat
//	"2+1/3"   mixed number
//	"2:1.5"   bars:beats, result = bars*beatsPerBar + beats
//	"1:3/4"   bar:beat with fractional beats
func DurationToBeats(text string, beatsPerBar float64) (float64, error) {
	barPart, beatPart, hasBars := strings.Cut(text, ":")
	if !hasBars {
		return ParseBeatValue(text)
	}
	bars, err := parseNumberOrFraction(barPart)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: bad bar count: %w", text, err)
	}
	beats, err := ParseBeatValue(beatPart)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", text, err)
	}
	if bars < 0 {
		return 0, fmt.Errorf("invalid duration %q: negative bar count", text)
	}
	return bars*beatsPerBar + beats, nil
}

func parseNumberOrFraction(text string) (float64, error) {
	num, den, isFraction := strings.Cut(text, "/")
	if !isFraction {
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", text)
		}
		return v, nil
	}
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("bad fraction numerator: %q", num)
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil {
		return 0, fmt.Errorf("bad fraction denominator: %q", den)
	}
	if d == 0 {
		return 0, fmt.Errorf("fraction %q has zero denominator", text)
	}
	return n / d, nil
}
