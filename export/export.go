package export

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
	"gopkg.in/yaml.v3"

	"github.com/adamjmurray/producer-pal-sub014/models"
)

// TicksPerQuarter is the SMF resolution used for exported files.
const TicksPerQuarter = 960

// Document is the serializable form of a compile run.
type Document struct {
	TimeSig     string              `json:"time_sig" yaml:"time_sig"`
	Events      []models.NoteEvent  `json:"events" yaml:"events"`
	Diagnostics []models.Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// WriteJSON writes the document as indented JSON.
func WriteJSON(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// WriteYAML writes the document as YAML.
func WriteYAML(w io.Writer, doc *Document) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(doc)
}

// midiEvent is a single on or off message with an absolute tick time.
type midiEvent struct {
	ticks uint32
	off   bool // note-offs sort before note-ons at the same tick
	key   uint8
	vel   uint8
}

// WriteSMF writes the events as a single-track standard MIDI file. Beats map
// to quarter notes at TicksPerQuarter resolution. Deletion markers (velocity
// zero) are skipped. Velocity deviation and probability have no SMF
// representation and are dropped.
func WriteSMF(w io.Writer, doc *Document, ts models.TimeSignature) error {
	var evs []midiEvent
	for _, ev := range doc.Events {
		if ev.IsDeletion() {
			continue
		}
		if ev.Pitch < 0 || ev.Pitch > 127 {
			return fmt.Errorf("pitch %d out of MIDI range", ev.Pitch)
		}
		on := uint32(ev.StartBeats * TicksPerQuarter)
		off := uint32((ev.StartBeats + ev.DurationBeats) * TicksPerQuarter)
		if off <= on {
			off = on + 1
		}
		vel := ev.Velocity
		if vel > 127 {
			vel = 127
		}
		evs = append(evs, midiEvent{ticks: on, key: uint8(ev.Pitch), vel: uint8(vel)})
		evs = append(evs, midiEvent{ticks: off, off: true, key: uint8(ev.Pitch)})
	}

	sort.SliceStable(evs, func(i, j int) bool {
		if evs[i].ticks != evs[j].ticks {
			return evs[i].ticks < evs[j].ticks
		}
		return evs[i].off && !evs[j].off
	})

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(TicksPerQuarter)

	var tr smf.Track
	tr.Add(0, smf.MetaMeter(uint8(ts.Numerator), uint8(ts.Denominator)))
	tr.Add(0, smf.MetaTempo(120))

	var prev uint32
	for _, ev := range evs {
		delta := ev.ticks - prev
		prev = ev.ticks
		if ev.off {
			tr.Add(delta, midi.NoteOff(0, ev.key))
		} else {
			tr.Add(delta, midi.NoteOn(0, ev.key, ev.vel))
		}
	}
	tr.Close(0)

	if err := s.Add(tr); err != nil {
		return fmt.Errorf("failed to add track: %w", err)
	}
	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write SMF: %w", err)
	}
	return nil
}
