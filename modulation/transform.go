package modulation

import (
	"math"

	"github.com/adamjmurray/producer-pal-sub014/models"
	"github.com/adamjmurray/producer-pal-sub014/music"
)

// Apply runs transform assignments over a note-event slice in place.
// Assignments apply in document order; each one visits every event, skipping
// events outside its pitch/time ranges, evaluates its expression at the
// event's start time with note.* variables bound to that event, and applies
// the result. Out-of-domain results are clamped with a diagnostic. A failing
// evaluation skips that parameter for that note and processing continues.
func Apply(events []models.NoteEvent, assignments []Assignment, ctx *EvaluationContext) []models.Diagnostic {
	var diags []models.Diagnostic
	bpb := ctx.TimeSig.BeatsPerBar()
	for _, a := range assignments {
		for i := range events {
			ev := &events[i]
			if !matchesPitch(a.PitchRange, ev.Pitch) || !matchesTime(a.TimeRange, ev.StartBeats, bpb) {
				continue
			}
			noteCtx := *ctx
			noteCtx.Position = ev.StartBeats
			noteCtx.NoteVars = noteVars(*ev)
			value, err := Evaluate(a.Expression, &noteCtx)
			if err != nil {
				diags = append(diags, models.Warningf(
					"skipping %s for note %s at %g: %v",
					a.Parameter, music.MIDIToNoteName(ev.Pitch), ev.StartBeats, err))
				continue
			}
			diags = append(diags, applyChange(ev, a.Parameter, a.Operator, value)...)
		}
	}
	return diags
}

func matchesPitch(r *PitchRange, pitch int) bool {
	return r == nil || (pitch >= r.StartPitch && pitch <= r.EndPitch)
}

func matchesTime(r *TimeRange, start, beatsPerBar float64) bool {
	if r == nil {
		return true
	}
	lo := music.PositionToBeats(r.StartBar, r.StartBeat, beatsPerBar)
	hi := music.PositionToBeats(r.EndBar, r.EndBeat, beatsPerBar)
	return start >= lo && start <= hi
}

func noteVars(ev models.NoteEvent) map[string]float64 {
	return map[string]float64{
		"pitch":              float64(ev.Pitch),
		"start_time":         ev.StartBeats,
		"duration":           ev.DurationBeats,
		"velocity":           float64(ev.Velocity),
		"velocity_deviation": float64(ev.VelocityDeviation),
		"probability":        ev.Probability,
	}
}

func applyChange(ev *models.NoteEvent, parameter, operator string, value float64) []models.Diagnostic {
	var diags []models.Diagnostic
	switch parameter {
	case ParamVelocity:
		current := float64(ev.Velocity)
		if operator == OpAdd {
			value += current
		}
		clamped := math.Min(math.Max(value, 0), 127)
		if clamped != value {
			diags = append(diags, models.Infof(
				"velocity %g clamped to %g for note %s at %g",
				value, clamped, music.MIDIToNoteName(ev.Pitch), ev.StartBeats))
		}
		ev.Velocity = int(math.Round(clamped))

	case ParamTiming:
		if operator == OpAdd {
			ev.StartBeats += value
		} else {
			ev.StartBeats = value
		}

	case ParamDuration:
		if operator == OpAdd {
			value += ev.DurationBeats
		}
		// durations must stay positive
		const minDuration = 0.001
		if value < minDuration {
			diags = append(diags, models.Infof(
				"duration %g clamped to %g for note %s at %g",
				value, minDuration, music.MIDIToNoteName(ev.Pitch), ev.StartBeats))
			value = minDuration
		}
		ev.DurationBeats = value

	case ParamProbability:
		if operator == OpAdd {
			value += ev.Probability
		}
		clamped := math.Min(math.Max(value, 0), 1)
		if clamped != value {
			diags = append(diags, models.Infof(
				"probability %g clamped to %g for note %s at %g",
				value, clamped, music.MIDIToNoteName(ev.Pitch), ev.StartBeats))
		}
		ev.Probability = clamped
	}
	return diags
}

// ApplyString parses transform statements and applies them to the events.
func ApplyString(events []models.NoteEvent, source string, ctx *EvaluationContext) ([]models.Diagnostic, error) {
	assignments, err := Parse(source)
	if err != nil {
		return nil, err
	}
	return Apply(events, assignments, ctx), nil
}
