package audio

import "math"

const (
	pitchStep = iota
	pitchOffset
)

var pitchParams = []paramSpec{
	{"step", 69},
	{"offset", 0},
}

// MidiPitch converts a MIDI note number into a frequency in hertz. The offset
// transposes in semitones and may be fractional.
type MidiPitch struct {
	handle
}

type MidiPitchBuilder struct {
	controls []Control
}

func NewMidiPitch() *MidiPitchBuilder {
	return &MidiPitchBuilder{controls: defaults(pitchParams)}
}

func (b *MidiPitchBuilder) Step(c Control) *MidiPitchBuilder {
	b.controls[pitchStep] = c
	return b
}

func (b *MidiPitchBuilder) Offset(c Control) *MidiPitchBuilder {
	b.controls[pitchOffset] = c
	return b
}

func (b *MidiPitchBuilder) Rack(r *Rack) (*MidiPitch, error) {
	var p *MidiPitch
	_, err := r.add(layout{controls: b.controls}, func(h handle) Module {
		p = &MidiPitch{handle: h}
		return p
	})
	return p, err
}

func (p *MidiPitch) Step() Param   { return p.param(pitchStep) }
func (p *MidiPitch) Offset() Param { return p.param(pitchOffset) }

func (p *MidiPitch) params() []paramSpec { return pitchParams }

func (p *MidiPitch) Signal(t *Tables, _ float64) {
	t.Outputs[p.tag][0] = midiToFreq(t.Control(p.tag, pitchStep) + t.Control(p.tag, pitchOffset))
}

func midiToFreq(note float64) float64 {
	return math.Pow(2, (note-69)/12.0) * 440
}
