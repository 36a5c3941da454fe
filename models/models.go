package models

import "fmt"

// NoteEvent is a single concrete note produced by the notation pipeline.
// Velocity 0 is a deletion marker: the event stands for "remove the note at
// this pitch/time", never for a playable note at velocity zero.
type NoteEvent struct {
	Pitch             int     `json:"pitch" yaml:"pitch"`
	StartBeats        float64 `json:"startBeats" yaml:"startBeats"`
	DurationBeats     float64 `json:"durationBeats" yaml:"durationBeats"`
	Velocity          int     `json:"velocity" yaml:"velocity"`
	VelocityDeviation int     `json:"velocityDeviation,omitempty" yaml:"velocityDeviation,omitempty"`
	Probability       float64 `json:"probability" yaml:"probability"`
}

// IsDeletion reports whether the event is a velocity-0 deletion marker.
func (e NoteEvent) IsDeletion() bool { return e.Velocity == 0 }

// TimeSignature is the musical meter supplied by the host. The numerator is
// the number of beats per bar; the denominator defines what one beat means
// but does not enter the linear bar/beat math.
type TimeSignature struct {
	Numerator   int `json:"numerator" yaml:"numerator"`
	Denominator int `json:"denominator" yaml:"denominator"`
}

// BeatsPerBar returns the linear scale factor between bars and beats.
func (ts TimeSignature) BeatsPerBar() float64 { return float64(ts.Numerator) }

func (ts TimeSignature) String() string {
	return fmt.Sprintf("%d/%d", ts.Numerator, ts.Denominator)
}

// CommonTime is the 4/4 default used when the host supplies no meter.
var CommonTime = TimeSignature{Numerator: 4, Denominator: 4}

// ClipRange is the absolute beat span of the clip an evaluation runs inside.
// ramp/curve traverse this range once.
type ClipRange struct {
	StartBeats float64 `json:"startBeats" yaml:"startBeats"`
	EndBeats   float64 `json:"endBeats" yaml:"endBeats"`
}

// Length returns the span in beats.
func (r ClipRange) Length() float64 { return r.EndBeats - r.StartBeats }

// DiagnosticSeverity classifies non-fatal diagnostics.
type DiagnosticSeverity string

const (
	SeverityWarning DiagnosticSeverity = "warning"
	SeverityInfo    DiagnosticSeverity = "info"
)

// Diagnostic is a non-fatal finding reported alongside a best-effort result:
// orphan pitch buffers, time positions without pitches, ineffective state
// changes, clamped values, skipped parameters.
type Diagnostic struct {
	Severity DiagnosticSeverity `json:"severity" yaml:"severity"`
	Message  string             `json:"message" yaml:"message"`
}

func (d Diagnostic) String() string { return fmt.Sprintf("%s: %s", d.Severity, d.Message) }

// Warningf builds a warning diagnostic.
func Warningf(format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)}
}

// Infof builds an info diagnostic.
func Infof(format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityInfo, Message: fmt.Sprintf(format, args...)}
}

// ParameterChange is one evaluated modulation result: how a single parameter
// should be changed (set or add) and by what value.
type ParameterChange struct {
	Operator string  `json:"operator" yaml:"operator"` // "set" or "add"
	Value    float64 `json:"value" yaml:"value"`
}
