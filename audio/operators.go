package audio

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

var (
	// ErrNotInUnion is returned when a Union is asked to select a wave it was
	// not built with.
	ErrNotInUnion = errors.New("wave is not part of the union")
	// ErrOtherRack is returned when a module is wired to a module of another rack.
	ErrOtherRack = errors.New("module belongs to another rack")
)

// Mixer sums its waves, each scaled by its own level, and scales the sum by an
// overall level. Control slot 0 is the overall level, slot i+1 the level of
// wave i.
type Mixer struct {
	handle
	waves []Tag
	specs []paramSpec
}

type MixerBuilder struct {
	waves    []Tag
	specs    []paramSpec
	controls []Control
}

func NewMixer(waves ...Tag) *MixerBuilder {
	specs := []paramSpec{{"level", 1}}
	for i := range waves {
		specs = append(specs, paramSpec{"level." + strconv.Itoa(i), 1})
	}
	return &MixerBuilder{waves: waves, specs: specs, controls: defaults(specs)}
}

func (b *MixerBuilder) Level(c Control) *MixerBuilder {
	b.controls[0] = c
	return b
}

// Levels sets the per wave levels in order. Extra controls are ignored.
func (b *MixerBuilder) Levels(cs ...Control) *MixerBuilder {
	for i, c := range cs {
		if i < len(b.waves) {
			b.controls[i+1] = c
		}
	}
	return b
}

func (b *MixerBuilder) Rack(r *Rack) (*Mixer, error) {
	var m *Mixer
	_, err := r.add(layout{
		inputs:   b.waves,
		controls: b.controls,
	}, func(h handle) Module {
		m = &Mixer{handle: h, waves: b.waves, specs: b.specs}
		return m
	})
	return m, err
}

func (m *Mixer) Level() Param { return m.param(0) }

// WaveLevel returns the level of the i-th wave.
func (m *Mixer) WaveLevel(i int) Param { return m.param(i + 1) }

func (m *Mixer) params() []paramSpec { return m.specs }

func (m *Mixer) Signal(t *Tables, _ float64) {
	var sum float64
	for i, w := range m.waves {
		sum += t.Control(m.tag, i+1) * t.Output(w)
	}
	t.Outputs[m.tag][0] = sum * t.Control(m.tag, 0)
}

// Product multiplies its waves.
type Product struct {
	handle
	waves []Tag
}

type ProductBuilder struct {
	waves []Tag
}

func NewProduct(waves ...Tag) *ProductBuilder {
	return &ProductBuilder{waves: waves}
}

func (b *ProductBuilder) Rack(r *Rack) (*Product, error) {
	var p *Product
	_, err := r.add(layout{inputs: b.waves}, func(h handle) Module {
		p = &Product{handle: h, waves: b.waves}
		return p
	})
	return p, err
}

func (p *Product) Signal(t *Tables, _ float64) {
	v := 1.0
	for _, w := range p.waves {
		v *= t.Output(w)
	}
	t.Outputs[p.tag][0] = v
}

const (
	unionActive = iota
	unionLevel
)

var unionParams = []paramSpec{
	{"active", 0},
	{"level", 1},
}

// Union outputs one of its waves, selected by the index in its active control.
// Indices out of range are clamped.
type Union struct {
	handle
	waves []Tag
}

type UnionBuilder struct {
	waves    []Tag
	controls []Control
}

func NewUnion(waves ...Tag) *UnionBuilder {
	return &UnionBuilder{waves: waves, controls: defaults(unionParams)}
}

func (b *UnionBuilder) Level(c Control) *UnionBuilder {
	b.controls[unionLevel] = c
	return b
}

func (b *UnionBuilder) Active(c Control) *UnionBuilder {
	b.controls[unionActive] = c
	return b
}

func (b *UnionBuilder) Rack(r *Rack) (*Union, error) {
	if len(b.waves) == 0 {
		return nil, fmt.Errorf("union needs at least one wave")
	}
	var u *Union
	_, err := r.add(layout{
		inputs:   b.waves,
		controls: b.controls,
	}, func(h handle) Module {
		u = &Union{handle: h, waves: b.waves}
		return u
	})
	return u, err
}

func (u *Union) Active() Param { return u.param(unionActive) }
func (u *Union) Level() Param  { return u.param(unionLevel) }

// SetActive selects the wave with the given tag.
func (u *Union) SetActive(wave Tag) error {
	for i, w := range u.waves {
		if w == wave {
			u.Active().SetValue(float64(i))
			return nil
		}
	}
	return fmt.Errorf("select %d in union %d: %w", wave, u.tag, ErrNotInUnion)
}

func (u *Union) params() []paramSpec { return unionParams }

func (u *Union) Signal(t *Tables, _ float64) {
	i := int(t.Control(u.tag, unionActive))
	if i < 0 {
		i = 0
	}
	if i >= len(u.waves) {
		i = len(u.waves) - 1
	}
	t.Outputs[u.tag][0] = t.Control(u.tag, unionLevel) * t.Output(u.waves[i])
}

var crossFadeParams = []paramSpec{
	{"alpha", 0.5},
}

// CrossFade blends two waves. An alpha of 0 outputs only the first wave, 1
// only the second.
type CrossFade struct {
	handle
	wave1, wave2 Tag
}

type CrossFadeBuilder struct {
	wave1, wave2 Tag
	controls     []Control
}

func NewCrossFade(wave1, wave2 Tag) *CrossFadeBuilder {
	return &CrossFadeBuilder{wave1: wave1, wave2: wave2, controls: defaults(crossFadeParams)}
}

func (b *CrossFadeBuilder) Alpha(c Control) *CrossFadeBuilder {
	b.controls[0] = c
	return b
}

func (b *CrossFadeBuilder) Rack(r *Rack) (*CrossFade, error) {
	var x *CrossFade
	_, err := r.add(layout{
		inputs:   []Tag{b.wave1, b.wave2},
		controls: b.controls,
	}, func(h handle) Module {
		x = &CrossFade{handle: h, wave1: b.wave1, wave2: b.wave2}
		return x
	})
	return x, err
}

func (x *CrossFade) Alpha() Param { return x.param(0) }

func (x *CrossFade) params() []paramSpec { return crossFadeParams }

func (x *CrossFade) Signal(t *Tables, _ float64) {
	alpha := t.Control(x.tag, 0)
	t.Outputs[x.tag][0] = (1-alpha)*t.Output(x.wave1) + alpha*t.Output(x.wave2)
}

const (
	modBaseHz = iota
	modHz
	modRatio
	modIndex
)

var modulatorParams = []paramSpec{
	{"base_hz", 440},
	{"hz", 440},
	{"ratio", 1},
	{"index", 1},
}

// Modulator turns a modulating wave into a frequency: base_hz plus
// index·hz·ratio times the wave. Its output is meant to drive an Osc's hz.
type Modulator struct {
	handle
	wave Tag
}

type ModulatorBuilder struct {
	wave     Tag
	controls []Control
}

func NewModulator(wave Tag) *ModulatorBuilder {
	return &ModulatorBuilder{wave: wave, controls: defaults(modulatorParams)}
}

func (b *ModulatorBuilder) BaseHz(c Control) *ModulatorBuilder {
	b.controls[modBaseHz] = c
	return b
}

func (b *ModulatorBuilder) Hz(c Control) *ModulatorBuilder {
	b.controls[modHz] = c
	return b
}

func (b *ModulatorBuilder) Ratio(c Control) *ModulatorBuilder {
	b.controls[modRatio] = c
	return b
}

func (b *ModulatorBuilder) Index(c Control) *ModulatorBuilder {
	b.controls[modIndex] = c
	return b
}

func (b *ModulatorBuilder) Rack(r *Rack) (*Modulator, error) {
	var m *Modulator
	_, err := r.add(layout{
		inputs:   []Tag{b.wave},
		controls: b.controls,
	}, func(h handle) Module {
		m = &Modulator{handle: h, wave: b.wave}
		return m
	})
	return m, err
}

func (m *Modulator) BaseHz() Param { return m.param(modBaseHz) }
func (m *Modulator) Hz() Param     { return m.param(modHz) }
func (m *Modulator) Ratio() Param  { return m.param(modRatio) }
func (m *Modulator) Index() Param  { return m.param(modIndex) }

func (m *Modulator) params() []paramSpec { return modulatorParams }

func (m *Modulator) Signal(t *Tables, _ float64) {
	base := t.Control(m.tag, modBaseHz)
	hz := t.Control(m.tag, modHz)
	ratio := t.Control(m.tag, modRatio)
	index := t.Control(m.tag, modIndex)
	t.Outputs[m.tag][0] = base + index*hz*ratio*t.Output(m.wave)
}

var gainParams = []paramSpec{
	{"gain", 1},
}

// Vca scales a wave by its gain control.
type Vca struct {
	handle
	wave Tag
}

type VcaBuilder struct {
	wave     Tag
	controls []Control
}

func NewVca(wave Tag) *VcaBuilder {
	return &VcaBuilder{wave: wave, controls: defaults(gainParams)}
}

func (b *VcaBuilder) Gain(c Control) *VcaBuilder {
	b.controls[0] = c
	return b
}

func (b *VcaBuilder) Rack(r *Rack) (*Vca, error) {
	var v *Vca
	_, err := r.add(layout{
		inputs:   []Tag{b.wave},
		controls: b.controls,
	}, func(h handle) Module {
		v = &Vca{handle: h, wave: b.wave}
		return v
	})
	return v, err
}

func (v *Vca) Gain() Param { return v.param(0) }

func (v *Vca) params() []paramSpec { return gainParams }

func (v *Vca) Signal(t *Tables, _ float64) {
	t.Outputs[v.tag][0] = t.Control(v.tag, 0) * t.Output(v.wave)
}

const (
	inverseValue = iota
	inverseFloor
)

var inverseParams = []paramSpec{
	{"value", 1},
	{"floor", 1e-6},
}

// Inverse outputs 1/value. Values below floor are raised to it, so a frequency
// of zero gives a long but finite period.
type Inverse struct {
	handle
}

type InverseBuilder struct {
	controls []Control
}

func NewInverse(value Control) *InverseBuilder {
	b := &InverseBuilder{controls: defaults(inverseParams)}
	b.controls[inverseValue] = value
	return b
}

func (b *InverseBuilder) Floor(c Control) *InverseBuilder {
	b.controls[inverseFloor] = c
	return b
}

func (b *InverseBuilder) Rack(r *Rack) (*Inverse, error) {
	var inv *Inverse
	_, err := r.add(layout{controls: b.controls}, func(h handle) Module {
		inv = &Inverse{handle: h}
		return inv
	})
	return inv, err
}

func (inv *Inverse) Value() Param { return inv.param(inverseValue) }
func (inv *Inverse) Floor() Param { return inv.param(inverseFloor) }

func (inv *Inverse) params() []paramSpec { return inverseParams }

func (inv *Inverse) Signal(t *Tables, _ float64) {
	v := math.Max(t.Control(inv.tag, inverseValue), t.Control(inv.tag, inverseFloor))
	t.Outputs[inv.tag][0] = 1 / v
}

var driveParams = []paramSpec{
	{"drive", 1},
}

// SineFold folds a wave back on itself through a sine. Drive values above one
// add harmonics.
type SineFold struct {
	handle
	wave Tag
}

type SineFoldBuilder struct {
	wave     Tag
	controls []Control
}

func NewSineFold(wave Tag) *SineFoldBuilder {
	return &SineFoldBuilder{wave: wave, controls: defaults(driveParams)}
}

func (b *SineFoldBuilder) Drive(c Control) *SineFoldBuilder {
	b.controls[0] = c
	return b
}

func (b *SineFoldBuilder) Rack(r *Rack) (*SineFold, error) {
	var f *SineFold
	_, err := r.add(layout{
		inputs:   []Tag{b.wave},
		controls: b.controls,
	}, func(h handle) Module {
		f = &SineFold{handle: h, wave: b.wave}
		return f
	})
	return f, err
}

func (f *SineFold) Drive() Param        { return f.param(0) }
func (f *SineFold) params() []paramSpec { return driveParams }

func (f *SineFold) Signal(t *Tables, _ float64) {
	t.Outputs[f.tag][0] = math.Sin(math.Pi / 2 * t.Control(f.tag, 0) * t.Output(f.wave))
}

// Tanh saturates a wave.
type Tanh struct {
	handle
	wave Tag
}

type TanhBuilder struct {
	wave     Tag
	controls []Control
}

func NewTanh(wave Tag) *TanhBuilder {
	return &TanhBuilder{wave: wave, controls: defaults(driveParams)}
}

func (b *TanhBuilder) Drive(c Control) *TanhBuilder {
	b.controls[0] = c
	return b
}

func (b *TanhBuilder) Rack(r *Rack) (*Tanh, error) {
	var s *Tanh
	_, err := r.add(layout{
		inputs:   []Tag{b.wave},
		controls: b.controls,
	}, func(h handle) Module {
		s = &Tanh{handle: h, wave: b.wave}
		return s
	})
	return s, err
}

func (s *Tanh) Drive() Param        { return s.param(0) }
func (s *Tanh) params() []paramSpec { return driveParams }

func (s *Tanh) Signal(t *Tables, _ float64) {
	t.Outputs[s.tag][0] = math.Tanh(t.Control(s.tag, 0) * t.Output(s.wave))
}

var delayParams = []paramSpec{
	{"delay_time", 0.1},
}

// Delay reads its input back after delay_time seconds with cubic
// interpolation. The ring buffer grows when the delay outgrows it.
type Delay struct {
	handle
	wave Tag
}

type DelayBuilder struct {
	wave     Tag
	capacity int
	controls []Control
}

func NewDelay(wave Tag) *DelayBuilder {
	return &DelayBuilder{wave: wave, capacity: interpMargin + 1, controls: defaults(delayParams)}
}

func (b *DelayBuilder) Time(c Control) *DelayBuilder {
	b.controls[0] = c
	return b
}

// Capacity preallocates the ring buffer for delays up to n samples so it does
// not have to grow while audio runs.
func (b *DelayBuilder) Capacity(n int) *DelayBuilder {
	b.capacity = n + interpMargin
	return b
}

func (b *DelayBuilder) Rack(r *Rack) (*Delay, error) {
	var d *Delay
	_, err := r.add(layout{
		inputs:   []Tag{b.wave},
		controls: b.controls,
		buffer:   NewRingBuffer(b.capacity),
	}, func(h handle) Module {
		d = &Delay{handle: h, wave: b.wave}
		return d
	})
	return d, err
}

func (d *Delay) Time() Param { return d.param(0) }

func (d *Delay) params() []paramSpec { return delayParams }

func (d *Delay) Signal(t *Tables, sampleRate float64) {
	buf := t.Buffers[d.tag]
	delay := t.Control(d.tag, 0) * sampleRate
	buf.Reserve(delay)
	buf.Push(t.Output(d.wave))
	t.Outputs[d.tag][0] = buf.ReadCubic(delay)
}

// Feedback outputs the value a FeedbackSend stored in it during the previous
// sample. It is how a loop is closed without a forward reference.
type Feedback struct {
	handle
}

func NewFeedback() *FeedbackBuilder { return &FeedbackBuilder{} }

type FeedbackBuilder struct{}

func (b *FeedbackBuilder) Rack(r *Rack) (*Feedback, error) {
	var f *Feedback
	_, err := r.add(layout{state: []float64{0}}, func(h handle) Module {
		f = &Feedback{handle: h}
		return f
	})
	return f, err
}

func (f *Feedback) Signal(t *Tables, _ float64) {
	t.Outputs[f.tag][0] = t.State[f.tag][0]
}

// FeedbackSend copies the output of a module into an earlier Feedback, which
// emits it one sample later. It also passes the value through.
type FeedbackSend struct {
	handle
	from Tag
	to   Tag
}

type FeedbackSendBuilder struct {
	from Tag
	to   *Feedback
}

func NewFeedbackSend(from Tag, to *Feedback) *FeedbackSendBuilder {
	return &FeedbackSendBuilder{from: from, to: to}
}

func (b *FeedbackSendBuilder) Rack(r *Rack) (*FeedbackSend, error) {
	if b.to == nil || b.to.rack != r {
		return nil, fmt.Errorf("feedback send from %d: %w", b.from, ErrOtherRack)
	}
	var s *FeedbackSend
	_, err := r.add(layout{inputs: []Tag{b.from}}, func(h handle) Module {
		s = &FeedbackSend{handle: h, from: b.from, to: b.to.tag}
		return s
	})
	return s, err
}

func (s *FeedbackSend) Signal(t *Tables, _ float64) {
	v := t.Output(s.from)
	t.State[s.to][0] = v
	t.Outputs[s.tag][0] = v
}
