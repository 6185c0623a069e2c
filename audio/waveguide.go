package audio

// defaultGuideCapacity covers strings down to about 11Hz at 44.1kHz without
// growing the delay line.
const defaultGuideCapacity = 4096

// WaveGuide is a Karplus-Strong string. The exciter, gated by an envelope, is
// fed into a loop of delay, low pass and attenuation. The delay is one period
// of hz, so the loop rings at that pitch while the filter darkens the tone.
//
// Only the envelope reacts to On and Off. Everything else keeps running, so a
// released string rings out on its own.
type WaveGuide struct {
	env   *Adsr
	gate  *Product
	loop  *Mixer
	inv   *Inverse
	delay *Delay
	lpf   *Biquad
	out   *Mixer
}

type WaveGuideBuilder struct {
	exciter  Tag
	capacity int

	hz, cutoff, decay        Control
	attack, sustain, release Control
}

// NewWaveGuide returns a builder for a string excited by the output of exciter.
func NewWaveGuide(exciter Tag) *WaveGuideBuilder {
	return &WaveGuideBuilder{
		exciter:  exciter,
		capacity: defaultGuideCapacity,
		hz:       Fixed(440),
		cutoff:   Fixed(2000),
		decay:    Fixed(0.95),
		attack:   Fixed(0.001),
		sustain:  Fixed(0),
		release:  Fixed(0.001),
	}
}

func (b *WaveGuideBuilder) Hz(c Control) *WaveGuideBuilder {
	b.hz = c
	return b
}

func (b *WaveGuideBuilder) Cutoff(c Control) *WaveGuideBuilder {
	b.cutoff = c
	return b
}

// Decay sets the attenuation applied once per trip round the loop.
func (b *WaveGuideBuilder) Decay(c Control) *WaveGuideBuilder {
	b.decay = c
	return b
}

func (b *WaveGuideBuilder) Attack(c Control) *WaveGuideBuilder {
	b.attack = c
	return b
}

func (b *WaveGuideBuilder) Sustain(c Control) *WaveGuideBuilder {
	b.sustain = c
	return b
}

func (b *WaveGuideBuilder) Release(c Control) *WaveGuideBuilder {
	b.release = c
	return b
}

// Capacity preallocates the delay line for periods up to n samples.
func (b *WaveGuideBuilder) Capacity(n int) *WaveGuideBuilder {
	b.capacity = n
	return b
}

// Rack appends the modules of the string to r. The string's output is the last
// module appended.
func (b *WaveGuideBuilder) Rack(r *Rack) (*WaveGuide, error) {
	var (
		g   WaveGuide
		err error
	)
	g.env, err = Exp20Adsr().
		Attack(b.attack).
		Decay(Fixed(0)).
		Sustain(b.sustain).
		Release(b.release).
		Rack(r)
	if err != nil {
		return nil, err
	}
	if g.gate, err = NewProduct(b.exciter, g.env.Tag()).Rack(r); err != nil {
		return nil, err
	}
	fb, err := NewFeedback().Rack(r)
	if err != nil {
		return nil, err
	}
	g.loop, err = NewMixer(g.gate.Tag(), fb.Tag()).
		Levels(Fixed(1), b.decay).
		Rack(r)
	if err != nil {
		return nil, err
	}
	if g.inv, err = NewInverse(b.hz).Floor(Fixed(1)).Rack(r); err != nil {
		return nil, err
	}
	g.delay, err = NewDelay(g.loop.Tag()).
		Time(Out(g.inv.Tag())).
		Capacity(b.capacity).
		Rack(r)
	if err != nil {
		return nil, err
	}
	if g.lpf, err = NewBiquad(Lpf, g.delay.Tag()).Cutoff(b.cutoff).Rack(r); err != nil {
		return nil, err
	}
	if _, err = NewFeedbackSend(g.lpf.Tag(), fb).Rack(r); err != nil {
		return nil, err
	}
	if g.out, err = NewMixer(g.gate.Tag(), g.lpf.Tag()).Rack(r); err != nil {
		return nil, err
	}
	return &g, nil
}

// Tag returns the tag of the string's output.
func (g *WaveGuide) Tag() Tag { return g.out.Tag() }

func (g *WaveGuide) Hz() Param      { return g.inv.Value() }
func (g *WaveGuide) Cutoff() Param  { return g.lpf.Cutoff() }
func (g *WaveGuide) Decay() Param   { return g.loop.WaveLevel(1) }
func (g *WaveGuide) Attack() Param  { return g.env.Attack() }
func (g *WaveGuide) Sustain() Param { return g.env.Sustain() }
func (g *WaveGuide) Release() Param { return g.env.Release() }

// On plucks the string.
func (g *WaveGuide) On() { g.env.On() }

// Off closes the exciter gate.
func (g *WaveGuide) Off() { g.env.Off() }
