package notation

import (
	"fmt"
	"math"

	"github.com/adamjmurray/producer-pal-sub014/models"
	"github.com/adamjmurray/producer-pal-sub014/music"
)

// Dialect defaults for the bar|beat notation.
const (
	DefaultVelocity    = 100
	DefaultDuration    = 1.0
	DefaultProbability = 1.0
)

// Result is the outcome of an interpretation: the emitted events in document
// order plus any non-fatal diagnostics. Start times are not required to be
// monotonic; layered patterns intentionally revisit earlier times.
type Result struct {
	Events      []models.NoteEvent
	Diagnostics []models.Diagnostic
}

// Interpret parses and interprets bar|beat notation in one call.
func Interpret(source string, ts models.TimeSignature) (*Result, error) {
	directives, err := Parse(source, ts)
	if err != nil {
		return nil, err
	}
	return InterpretDirectives(directives, ts), nil
}

// InterpretDirectives folds a fresh interpreter state over the directive
// stream and returns the emitted note events. State never leaks across
// calls; each call starts from the dialect defaults.
func InterpretDirectives(directives []Directive, ts models.TimeSignature) *Result {
	in := &interpreter{ts: ts}
	in.resetVoice()
	for _, d := range directives {
		in.process(d)
	}
	in.endVoice()
	in.applyCopies()
	return &Result{Events: in.events, Diagnostics: in.diags}
}

// velocityCapture bundles the three values a velocity token sets at once.
type velocityCapture struct {
	value     int
	deviation int
	deletion  bool
}

// bufferEntry is one buffered pitch. Nil fields read the persistent state at
// emission time; non-nil fields are per-note overrides frozen when a state
// setter arrived after this pitch within the same unemitted group.
type bufferEntry struct {
	pitch       int
	velocity    *velocityCapture
	duration    *float64
	probability *float64
}

type pendingCopy struct {
	destStart int
	destEnd   int
	sourceBar int
}

type interpreter struct {
	ts     models.TimeSignature
	events []models.NoteEvent
	diags  []models.Diagnostic
	copies []pendingCopy

	// per-voice playback state
	bar         int
	currentTime float64
	velocity    velocityCapture
	duration    float64
	probability float64

	buffer        []bufferEntry
	groupEmitted  bool
	pendingChange bool
}

func (in *interpreter) resetVoice() {
	in.bar = 1
	in.currentTime = 0
	in.velocity = velocityCapture{value: DefaultVelocity}
	in.duration = DefaultDuration
	in.probability = DefaultProbability
	in.buffer = nil
	in.groupEmitted = false
	in.pendingChange = false
}

func (in *interpreter) process(d Directive) {
	switch d := d.(type) {
	case Pitch:
		if in.groupEmitted {
			in.buffer = nil
			in.groupEmitted = false
		}
		// A state change followed by another pitch is a per-pitch override,
		// not a mistake.
		in.pendingChange = false
		in.buffer = append(in.buffer, bufferEntry{pitch: d.MIDI})

	case VelocityState:
		in.freezeVelocity()
		in.velocity = velocityCapture{value: d.Value, deletion: d.Value == 0}
		in.markChange()

	case VelocityRangeState:
		in.freezeVelocity()
		in.velocity = velocityCapture{
			value:     int(math.Round(float64(d.Min+d.Max) / 2)),
			deviation: int(math.Round(float64(d.Max-d.Min) / 2)),
			deletion:  d.Min == 0,
		}
		in.markChange()

	case DurationState:
		in.freezeDuration()
		in.duration = d.Beats
		in.markChange()

	case ProbabilityState:
		in.freezeProbability()
		in.probability = d.Value
		in.markChange()

	case TimePosition:
		bar := in.resolveBar(d.Bar, d.HasBar)
		t := positionBeats(bar, d.Beat, in.ts)
		in.currentTime = t
		in.emitGroup(t, formatPosition(bar, d.Beat))
		if len(in.buffer) > 0 {
			in.groupEmitted = true
		}

	case TimeList:
		bar := in.resolveBar(d.Bar, d.HasBar)
		if len(in.buffer) == 0 {
			in.diags = append(in.diags, models.Warningf(
				"Time position %s has no pitches", formatPosition(bar, d.Beats[0])))
		}
		// One snapshot of the buffer serves every beat in the list; the
		// buffer is cleared once the whole list is consumed.
		for _, beat := range d.Beats {
			t := positionBeats(bar, beat, in.ts)
			in.currentTime = t
			in.emitGroup(t, "")
		}
		in.buffer = nil
		in.groupEmitted = false
		in.pendingChange = false

	case CopyRange:
		src := in.bar
		if d.HasSource {
			src = d.SourceBar
		}
		in.copies = append(in.copies, pendingCopy{
			destStart: d.DestStart,
			destEnd:   d.DestEnd,
			sourceBar: src,
		})

	case VoiceBreak:
		in.endVoice()
		in.resetVoice()
	}
}

func (in *interpreter) resolveBar(bar int, hasBar bool) int {
	if hasBar {
		in.bar = bar
	}
	return in.bar
}

// emitGroup emits one NoteEvent per buffered entry at time t. Deletion-marked
// entries yield no note. position is only used for the no-pitches diagnostic
// and is empty for beat-list emissions, which report once for the list.
func (in *interpreter) emitGroup(t float64, position string) {
	if len(in.buffer) == 0 {
		if position != "" {
			in.diags = append(in.diags, models.Warningf("Time position %s has no pitches", position))
		}
		return
	}
	if in.pendingChange && !in.groupEmitted {
		in.diags = append(in.diags, models.Warningf(
			"state change after pitch(es) but before time position won't affect this group"))
		in.pendingChange = false
	}
	for _, entry := range in.buffer {
		vel := in.velocity
		if entry.velocity != nil {
			vel = *entry.velocity
		}
		if vel.deletion || vel.value == 0 {
			continue
		}
		dur := in.duration
		if entry.duration != nil {
			dur = *entry.duration
		}
		prob := in.probability
		if entry.probability != nil {
			prob = *entry.probability
		}
		in.events = append(in.events, models.NoteEvent{
			Pitch:             entry.pitch,
			StartBeats:        t,
			DurationBeats:     dur,
			Velocity:          vel.value,
			VelocityDeviation: vel.deviation,
			Probability:       prob,
		})
	}
}

// freezeVelocity pins the current velocity onto buffered entries that have no
// per-note value yet. Only a group that has not emitted is frozen: once a
// group has sounded, later setters apply to its re-emissions.
func (in *interpreter) freezeVelocity() {
	if len(in.buffer) == 0 || in.groupEmitted {
		return
	}
	for i := range in.buffer {
		if in.buffer[i].velocity == nil {
			v := in.velocity
			in.buffer[i].velocity = &v
		}
	}
}

func (in *interpreter) freezeDuration() {
	if len(in.buffer) == 0 || in.groupEmitted {
		return
	}
	for i := range in.buffer {
		if in.buffer[i].duration == nil {
			d := in.duration
			in.buffer[i].duration = &d
		}
	}
}

func (in *interpreter) freezeProbability() {
	if len(in.buffer) == 0 || in.groupEmitted {
		return
	}
	for i := range in.buffer {
		if in.buffer[i].probability == nil {
			p := in.probability
			in.buffer[i].probability = &p
		}
	}
}

func (in *interpreter) markChange() {
	if len(in.buffer) > 0 && !in.groupEmitted {
		in.pendingChange = true
	}
}

func (in *interpreter) endVoice() {
	if len(in.buffer) > 0 && !in.groupEmitted {
		if in.pendingChange {
			in.diags = append(in.diags, models.Warningf(
				"state change after pitch(es) but before time position won't affect this group"))
		}
		in.diags = append(in.diags, models.Warningf(
			"%d pitch(es) buffered but no time position", len(in.buffer)))
	}
	in.buffer = nil
	in.groupEmitted = false
	in.pendingChange = false
}

// applyCopies runs the bar-copy directives as a post-pass in document order.
// Each directive sees the events produced by earlier ones, so copies can
// themselves be copied.
func (in *interpreter) applyCopies() {
	bpb := in.ts.BeatsPerBar()
	for _, op := range in.copies {
		srcLo := (float64(op.sourceBar) - 1) * bpb
		srcHi := srcLo + bpb
		snapshot := make([]models.NoteEvent, 0)
		for _, ev := range in.events {
			if ev.StartBeats >= srcLo && ev.StartBeats < srcHi {
				snapshot = append(snapshot, ev)
			}
		}
		for dest := op.destStart; dest <= op.destEnd; dest++ {
			shift := float64(dest-op.sourceBar) * bpb
			for _, ev := range snapshot {
				copied := ev
				copied.StartBeats += shift
				in.events = append(in.events, copied)
			}
		}
	}
}

func positionBeats(bar int, beat float64, ts models.TimeSignature) float64 {
	return music.PositionToBeats(bar, beat, ts.BeatsPerBar())
}

func formatPosition(bar int, beat float64) string {
	return fmt.Sprintf("%d|%s", bar, formatBeat(beat))
}

func formatBeat(beat float64) string {
	return fmt.Sprintf("%g", beat)
}
