package audio

import "math"

// Coefficients of a biquad section. B1 and B2 weigh the output history, A0..A2
// the input history:
//
//	y = A0·x + A1·x1 + A2·x2 − B1·y1 − B2·y2
type Coefficients struct {
	B1, B2     float64
	A0, A1, A2 float64
}

// Design functions after Creasy, "Audio Processes", 2017, pp. 164-183.

func LowPass(sampleRate, cutoff, q float64) Coefficients {
	b1, b2 := poles(sampleRate, cutoff, q)
	a0 := 0.25 * (1 + b1 + b2)
	return Coefficients{B1: b1, B2: b2, A0: a0, A1: 2 * a0, A2: a0}
}

func HighPass(sampleRate, cutoff, q float64) Coefficients {
	b1, b2 := poles(sampleRate, cutoff, q)
	a0 := 0.25 * (1 - b1 + b2)
	return Coefficients{B1: b1, B2: b2, A0: a0, A1: -2 * a0, A2: a0}
}

// LowHighPass blends the zeros of a low pass and a high pass over shared poles.
// t = 1 is a pure low pass, t = 0 a pure high pass.
func LowHighPass(sampleRate, cutoff, q, t float64) Coefficients {
	lp := LowPass(sampleRate, cutoff, q)
	hp := HighPass(sampleRate, cutoff, q)
	return Coefficients{
		B1: lp.B1,
		B2: lp.B2,
		A0: t*lp.A0 + (1-t)*hp.A0,
		A1: t*lp.A1 + (1-t)*hp.A1,
		A2: t*lp.A2 + (1-t)*hp.A2,
	}
}

func BandPass(sampleRate, cutoff, q float64) Coefficients {
	b1, b2 := bandPoles(sampleRate, cutoff, q)
	a0 := 0.5 * (1 - b2)
	return Coefficients{B1: b1, B2: b2, A0: a0, A1: 0, A2: -a0}
}

func Notch(sampleRate, cutoff, q float64) Coefficients {
	b1, b2 := bandPoles(sampleRate, cutoff, q)
	a0 := 0.5 * (1 + b2)
	return Coefficients{B1: b1, B2: b2, A0: a0, A1: b1, A2: a0}
}

func poles(sampleRate, cutoff, q float64) (b1, b2 float64) {
	phi := twoPi * cutoff / sampleRate
	sin := math.Sin(phi)
	b2 = (2*q - sin) / (2*q + sin)
	b1 = -(1 + b2) * math.Cos(phi)
	return b1, b2
}

func bandPoles(sampleRate, cutoff, q float64) (b1, b2 float64) {
	phi := twoPi * cutoff / sampleRate
	b2 = math.Tan(math.Pi/4 - phi/(2*q))
	b1 = -(1 + b2) * math.Cos(phi)
	return b1, b2
}

// FilterKind selects the response of a Biquad.
type FilterKind int

const (
	Lpf FilterKind = iota
	Hpf
	LpHp
	Bpf
	BandStop
)

func (k FilterKind) String() string {
	switch k {
	case Lpf:
		return "lpf"
	case Hpf:
		return "hpf"
	case LpHp:
		return "lphpf"
	case Bpf:
		return "bpf"
	case BandStop:
		return "notch"
	default:
		return "unknown"
	}
}

func (k FilterKind) design(sampleRate, cutoff, q, t float64) Coefficients {
	switch k {
	case Hpf:
		return HighPass(sampleRate, cutoff, q)
	case LpHp:
		return LowHighPass(sampleRate, cutoff, q, t)
	case Bpf:
		return BandPass(sampleRate, cutoff, q)
	case BandStop:
		return Notch(sampleRate, cutoff, q)
	default:
		return LowPass(sampleRate, cutoff, q)
	}
}

const (
	biquadCutoff = iota
	biquadQ
	biquadT
	biquadOff
)

var biquadParams = []paramSpec{
	{"cutoff", 1000},
	{"q", 0.707},
	{"t", 1},
	{"off", 0},
}

// biquad state slots
const (
	bqB1 = iota
	bqB2
	bqA0
	bqA1
	bqA2
	bqX1
	bqX2
	bqY1
	bqY2
	bqCutoff // parameters the coefficients were designed for
	bqQ
	bqT
	bqRate
	bqStateSize
)

// Biquad is a second order IIR filter on the output of another module. The
// coefficients are redesigned whenever cutoff, q, t or the sample rate change.
type Biquad struct {
	handle
	kind FilterKind
	wave Tag
}

type BiquadBuilder struct {
	kind     FilterKind
	wave     Tag
	controls []Control
}

func NewBiquad(kind FilterKind, wave Tag) *BiquadBuilder {
	return &BiquadBuilder{kind: kind, wave: wave, controls: defaults(biquadParams)}
}

func (b *BiquadBuilder) Cutoff(c Control) *BiquadBuilder {
	b.controls[biquadCutoff] = c
	return b
}

func (b *BiquadBuilder) Q(c Control) *BiquadBuilder {
	b.controls[biquadQ] = c
	return b
}

// T sets the low/high blend of an LpHp filter.
func (b *BiquadBuilder) T(c Control) *BiquadBuilder {
	b.controls[biquadT] = c
	return b
}

// Off sets the bypass control. Values above 0.5 pass the input through.
func (b *BiquadBuilder) Off(c Control) *BiquadBuilder {
	b.controls[biquadOff] = c
	return b
}

func (b *BiquadBuilder) Rack(r *Rack) (*Biquad, error) {
	st := make([]float64, bqStateSize)
	st[bqRate] = math.NaN()
	var f *Biquad
	_, err := r.add(layout{
		inputs:   []Tag{b.wave},
		controls: b.controls,
		state:    st,
	}, func(h handle) Module {
		f = &Biquad{handle: h, kind: b.kind, wave: b.wave}
		return f
	})
	return f, err
}

func (f *Biquad) Cutoff() Param { return f.param(biquadCutoff) }
func (f *Biquad) Q() Param      { return f.param(biquadQ) }
func (f *Biquad) T() Param      { return f.param(biquadT) }
func (f *Biquad) Off() Param    { return f.param(biquadOff) }

func (f *Biquad) Kind() FilterKind { return f.kind }

func (f *Biquad) params() []paramSpec { return biquadParams }

func (f *Biquad) Signal(t *Tables, sampleRate float64) {
	x := t.Output(f.wave)
	if t.Control(f.tag, biquadOff) > 0.5 {
		t.Outputs[f.tag][0] = x
		return
	}
	st := t.State[f.tag]
	cutoff := t.Control(f.tag, biquadCutoff)
	q := t.Control(f.tag, biquadQ)
	blend := t.Control(f.tag, biquadT)
	if cutoff != st[bqCutoff] || q != st[bqQ] || blend != st[bqT] || sampleRate != st[bqRate] {
		c := f.kind.design(sampleRate, cutoff, q, blend)
		st[bqB1], st[bqB2] = c.B1, c.B2
		st[bqA0], st[bqA1], st[bqA2] = c.A0, c.A1, c.A2
		st[bqCutoff], st[bqQ], st[bqT], st[bqRate] = cutoff, q, blend, sampleRate
	}

	y := st[bqA0]*x + st[bqA1]*st[bqX1] + st[bqA2]*st[bqX2] - st[bqB1]*st[bqY1] - st[bqB2]*st[bqY2]
	st[bqX2] = st[bqX1]
	st[bqX1] = x
	st[bqY2] = st[bqY1]
	st[bqY1] = y
	t.Outputs[f.tag][0] = y
}

const (
	combFeedback = iota
	combDampening
)

var combParams = []paramSpec{
	{"feedback", 0.5},
	{"dampening", 0.5},
}

// comb and all-pass state: the write index followed by the delay line.
const (
	combFilterState = iota
	combIndex
	combLine
)

const allPassLine = 1

// Comb is a feedback comb with a one pole low pass in the loop. The delay line
// has a fixed length and lives in the module's state.
type Comb struct {
	handle
	wave Tag
}

type CombBuilder struct {
	wave     Tag
	length   int
	controls []Control
}

func NewComb(wave Tag, length int) *CombBuilder {
	if length < 1 {
		length = 1
	}
	return &CombBuilder{wave: wave, length: length, controls: defaults(combParams)}
}

func (b *CombBuilder) Feedback(c Control) *CombBuilder {
	b.controls[combFeedback] = c
	return b
}

func (b *CombBuilder) Dampening(c Control) *CombBuilder {
	b.controls[combDampening] = c
	return b
}

func (b *CombBuilder) Rack(r *Rack) (*Comb, error) {
	var f *Comb
	_, err := r.add(layout{
		inputs:   []Tag{b.wave},
		controls: b.controls,
		state:    make([]float64, combLine+b.length),
	}, func(h handle) Module {
		f = &Comb{handle: h, wave: b.wave}
		return f
	})
	return f, err
}

func (f *Comb) Feedback() Param  { return f.param(combFeedback) }
func (f *Comb) Dampening() Param { return f.param(combDampening) }

func (f *Comb) params() []paramSpec { return combParams }

func (f *Comb) Signal(t *Tables, _ float64) {
	st := t.State[f.tag]
	line := st[combLine:]
	i := int(st[combIndex])
	damp := t.Control(f.tag, combDampening)

	out := line[i]
	st[combFilterState] = out*(1-damp) + st[combFilterState]*damp
	line[i] = t.Output(f.wave) + st[combFilterState]*t.Control(f.tag, combFeedback)
	if i++; i == len(line) {
		i = 0
	}
	st[combIndex] = float64(i)
	t.Outputs[f.tag][0] = out
}

// AllPass is a Schroeder all-pass section with a fixed feedback of one half.
type AllPass struct {
	handle
	wave Tag
}

func NewAllPass(wave Tag, length int) *AllPassBuilder {
	if length < 1 {
		length = 1
	}
	return &AllPassBuilder{wave: wave, length: length}
}

type AllPassBuilder struct {
	wave   Tag
	length int
}

func (b *AllPassBuilder) Rack(r *Rack) (*AllPass, error) {
	var f *AllPass
	_, err := r.add(layout{
		inputs: []Tag{b.wave},
		state:  make([]float64, allPassLine+b.length),
	}, func(h handle) Module {
		f = &AllPass{handle: h, wave: b.wave}
		return f
	})
	return f, err
}

func (f *AllPass) Signal(t *Tables, _ float64) {
	st := t.State[f.tag]
	line := st[allPassLine:]
	i := int(st[0])
	x := t.Output(f.wave)

	delayed := line[i]
	line[i] = x + 0.5*delayed
	if i++; i == len(line) {
		i = 0
	}
	st[0] = float64(i)
	t.Outputs[f.tag][0] = delayed - x
}
