package audio

import "math"

const twoPi = 2 * math.Pi

// WaveFunc maps a phase in cycles, in [0, 1), to a sample in [-1, 1]. arg is a
// shape parameter such as the duty cycle of a square wave.
type WaveFunc func(phase, arg float64) float64

func Sine(phase, _ float64) float64 { return math.Sin(twoPi * phase) }

func Saw(phase, _ float64) float64 { return 2*phase - 1 }

func Square(phase, duty float64) float64 {
	if phase < duty {
		return 1
	}
	return -1
}

func Triangle(phase, _ float64) float64 { return 1 - 4*math.Abs(phase-0.5) }

// Waveforms maps the names accepted by the REPL and presets to wave functions.
var Waveforms = map[string]WaveFunc{
	"sine":     Sine,
	"saw":      Saw,
	"square":   Square,
	"triangle": Triangle,
}

const (
	oscHz = iota
	oscAmplitude
	oscArg
)

var oscParams = []paramSpec{
	{"hz", 440},
	{"amplitude", 1},
	{"arg", 0.5},
}

// Osc is a periodic oscillator. Its phase is kept in cycles so it never needs
// more than a single wrap per sample.
type Osc struct {
	handle
	wave WaveFunc
}

type OscBuilder struct {
	wave     WaveFunc
	controls []Control
}

func NewOsc(wave WaveFunc) *OscBuilder {
	return &OscBuilder{wave: wave, controls: defaults(oscParams)}
}

func (b *OscBuilder) Hz(c Control) *OscBuilder {
	b.controls[oscHz] = c
	return b
}

func (b *OscBuilder) Amplitude(c Control) *OscBuilder {
	b.controls[oscAmplitude] = c
	return b
}

func (b *OscBuilder) Arg(c Control) *OscBuilder {
	b.controls[oscArg] = c
	return b
}

func (b *OscBuilder) Rack(r *Rack) (*Osc, error) {
	var osc *Osc
	_, err := r.add(layout{
		controls: b.controls,
		state:    []float64{0},
	}, func(h handle) Module {
		osc = &Osc{handle: h, wave: b.wave}
		return osc
	})
	return osc, err
}

func (o *Osc) Hz() Param        { return o.param(oscHz) }
func (o *Osc) Amplitude() Param { return o.param(oscAmplitude) }
func (o *Osc) Arg() Param       { return o.param(oscArg) }

func (o *Osc) params() []paramSpec { return oscParams }

func (o *Osc) Signal(t *Tables, sampleRate float64) {
	st := t.State[o.tag]
	phase := st[0]
	amp := t.Control(o.tag, oscAmplitude)
	t.Outputs[o.tag][0] = amp * o.wave(phase, t.Control(o.tag, oscArg))

	phase += t.Control(o.tag, oscHz) / sampleRate
	phase -= math.Floor(phase)
	st[0] = phase
}

const noiseSeed = 2463534242

var noiseParams = []paramSpec{
	{"amplitude", 1},
}

// Noise is white noise from a 32 bit xorshift generator. The generator state
// is an integer kept exactly in a float64 state slot.
type Noise struct {
	handle
}

type NoiseBuilder struct {
	seed     uint32
	controls []Control
}

func NewNoise() *NoiseBuilder {
	return &NoiseBuilder{seed: noiseSeed, controls: defaults(noiseParams)}
}

func (b *NoiseBuilder) Amplitude(c Control) *NoiseBuilder {
	b.controls[0] = c
	return b
}

// Seed sets the generator seed. Zero is replaced by the default seed.
func (b *NoiseBuilder) Seed(seed uint32) *NoiseBuilder {
	if seed == 0 {
		seed = noiseSeed
	}
	b.seed = seed
	return b
}

func (b *NoiseBuilder) Rack(r *Rack) (*Noise, error) {
	var n *Noise
	_, err := r.add(layout{
		controls: b.controls,
		state:    []float64{float64(b.seed)},
	}, func(h handle) Module {
		n = &Noise{handle: h}
		return n
	})
	return n, err
}

func (n *Noise) Amplitude() Param { return n.param(0) }

func (n *Noise) params() []paramSpec { return noiseParams }

func (n *Noise) Signal(t *Tables, _ float64) {
	st := t.State[n.tag]
	x := uint32(st[0])
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	st[0] = float64(x)
	t.Outputs[n.tag][0] = t.Control(n.tag, 0) * (float64(x)/(1<<31) - 1)
}
