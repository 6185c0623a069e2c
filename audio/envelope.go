package audio

type envelopeState int

const (
	stateAttack envelopeState = iota
	stateDecay
	stateSustain
	stateRelease
	stateOff
)

func (s envelopeState) String() string {
	switch s {
	case stateAttack:
		return "attack"
	case stateDecay:
		return "decay"
	case stateSustain:
		return "sustain"
	case stateRelease:
		return "release"
	default:
		return "off"
	}
}

// minDuration keeps segment lengths away from zero.
const minDuration = 0.01

const (
	adsrAttack = iota
	adsrDecay
	adsrSustain
	adsrRelease
)

var adsrParams = []paramSpec{
	{"attack", 0.01},
	{"decay", 0},
	{"sustain", 1},
	{"release", 0.1},
}

// envelope state slots
const (
	envClock = iota
	envSustainTime
	envTriggered
	envLevel
	envReleaseAt
	envReleaseLevel
	envStateSize
)

// Adsr is an attack/decay/sustain/release envelope. Its state is re-derived
// every sample from a clock, so durations and sustain level can be modulated
// while it runs.
type Adsr struct {
	handle
	aBias, dBias, rBias float64
}

// AdsrBuilder configures an Adsr.
type AdsrBuilder struct {
	aBias, dBias, rBias float64
	controls            []Control
}

// NewAdsr returns a builder for an envelope with the given segment shapes. A
// bias of 0.5 gives straight segments; lower values bend attack upwards and
// decay and release downwards.
func NewAdsr(aBias, dBias, rBias float64) *AdsrBuilder {
	return &AdsrBuilder{
		aBias:    aBias,
		dBias:    dBias,
		rBias:    rBias,
		controls: defaults(adsrParams),
	}
}

// LinearAdsr returns a builder for an envelope with straight segments.
func LinearAdsr() *AdsrBuilder { return NewAdsr(0.5, 0.5, 0.5) }

// Exp20Adsr returns a builder for an envelope with exponential segments.
func Exp20Adsr() *AdsrBuilder { return NewAdsr(0.2, 0.2, 0.2) }

func (b *AdsrBuilder) Attack(c Control) *AdsrBuilder {
	b.controls[adsrAttack] = c
	return b
}

func (b *AdsrBuilder) Decay(c Control) *AdsrBuilder {
	b.controls[adsrDecay] = c
	return b
}

func (b *AdsrBuilder) Sustain(c Control) *AdsrBuilder {
	b.controls[adsrSustain] = c
	return b
}

func (b *AdsrBuilder) Release(c Control) *AdsrBuilder {
	b.controls[adsrRelease] = c
	return b
}

// Rack appends the envelope to r.
func (b *AdsrBuilder) Rack(r *Rack) (*Adsr, error) {
	var env *Adsr
	_, err := r.add(layout{
		controls: b.controls,
		state:    make([]float64, envStateSize),
	}, func(h handle) Module {
		env = &Adsr{handle: h, aBias: b.aBias, dBias: b.dBias, rBias: b.rBias}
		return env
	})
	return env, err
}

func (e *Adsr) Attack() Param  { return e.param(adsrAttack) }
func (e *Adsr) Decay() Param   { return e.param(adsrDecay) }
func (e *Adsr) Sustain() Param { return e.param(adsrSustain) }
func (e *Adsr) Release() Param { return e.param(adsrRelease) }

// On queues a note on.
func (e *Adsr) On() { e.on() }

// Off queues a note off.
func (e *Adsr) Off() { e.off() }

func (e *Adsr) params() []paramSpec { return adsrParams }

func (e *Adsr) durations(t *Tables) (a, d, s, r float64) {
	a = atLeast(t.Control(e.tag, adsrAttack), minDuration)
	d = atLeast(t.Control(e.tag, adsrDecay), minDuration)
	s = t.Control(e.tag, adsrSustain)
	r = atLeast(t.Control(e.tag, adsrRelease), minDuration)
	return a, d, s, r
}

func (e *Adsr) attackCurve() curve { return newCurve(0, 1-e.aBias, 1) }

func (e *Adsr) state(st []float64, a, d, r float64) envelopeState {
	clock := st[envClock]
	if st[envTriggered] > 0 {
		switch {
		case clock < a:
			return stateAttack
		case clock < a+d:
			return stateDecay
		default:
			return stateSustain
		}
	}
	if clock < st[envReleaseAt]+r {
		return stateRelease
	}
	return stateOff
}

func (e *Adsr) Signal(t *Tables, sampleRate float64) {
	st := t.State[e.tag]
	a, d, s, r := e.durations(t)
	clock := st[envClock]

	var level float64
	switch e.state(st, a, d, r) {
	case stateAttack:
		level = e.attackCurve().at(clock / a)
	case stateDecay:
		level = newCurve(1, s+e.dBias*(1-s), s).at((clock - a) / d)
	case stateSustain:
		st[envSustainTime] = clock - a - d
		level = s
	case stateRelease:
		from := st[envReleaseLevel]
		level = newCurve(from, e.rBias*from, 0).at((clock - st[envReleaseAt]) / r)
	case stateOff:
		level = 0
	}

	st[envLevel] = level
	t.Outputs[e.tag][0] = level
	st[envClock] += 1 / sampleRate
}

// gateOn restarts the attack from the current level so a retrigger during
// release does not click.
func (e *Adsr) gateOn(t *Tables) {
	st := t.State[e.tag]
	a, _, _, _ := e.durations(t)
	st[envTriggered] = 1
	st[envSustainTime] = 0
	st[envClock] = e.attackCurve().inverse(st[envLevel]) * a
}

// gateOff freezes the clock and starts the release from the current level.
func (e *Adsr) gateOff(t *Tables) {
	st := t.State[e.tag]
	if st[envTriggered] == 0 {
		return
	}
	st[envTriggered] = 0
	st[envReleaseAt] = st[envClock]
	st[envReleaseLevel] = st[envLevel]
}

func atLeast(v, floor float64) float64 {
	if v > floor {
		return v
	}
	return floor
}
