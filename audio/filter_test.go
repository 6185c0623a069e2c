package audio

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// response evaluates the filter's transfer function at hz.
func (c Coefficients) response(sampleRate, hz float64) float64 {
	z1 := cmplx.Exp(complex(0, -2*math.Pi*hz/sampleRate))
	z2 := z1 * z1
	num := complex(c.A0, 0) + complex(c.A1, 0)*z1 + complex(c.A2, 0)*z2
	den := 1 + complex(c.B1, 0)*z1 + complex(c.B2, 0)*z2
	return cmplx.Abs(num / den)
}

func TestFilterDesign(t *testing.T) {
	const (
		sampleRate = 44100
		cutoff     = 1000
		q          = 0.707
		nyquist    = sampleRate / 2
	)
	tests := []struct {
		name   string
		c      Coefficients
		hz     float64
		expect float64
	}{
		{"low pass at dc", LowPass(sampleRate, cutoff, q), 0, 1},
		{"low pass at nyquist", LowPass(sampleRate, cutoff, q), nyquist, 0},
		{"low pass at cutoff", LowPass(sampleRate, cutoff, q), cutoff, q},
		{"low pass near nyquist at dc", LowPass(sampleRate, 0.45*sampleRate, q), 0, 1},
		{"low pass closer to nyquist at dc", LowPass(sampleRate, 0.499*sampleRate, q), 0, 1},
		{"high pass at dc", HighPass(sampleRate, cutoff, q), 0, 0},
		{"high pass at nyquist", HighPass(sampleRate, cutoff, q), nyquist, 1},
		{"band pass at centre", BandPass(sampleRate, cutoff, q), cutoff, 1},
		{"band pass at dc", BandPass(sampleRate, cutoff, q), 0, 0},
		{"notch at centre", Notch(sampleRate, cutoff, q), cutoff, 0},
		{"notch at dc", Notch(sampleRate, cutoff, q), 0, 1},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.InDelta(t, test.expect, test.c.response(sampleRate, test.hz), 1e-3)
		})
	}
}

func TestLowHighPassBlend(t *testing.T) {
	assert.Equal(t, LowPass(44100, 500, 1), LowHighPass(44100, 500, 1, 1))
	assert.Equal(t, HighPass(44100, 500, 1), LowHighPass(44100, 500, 1, 0))
}

func TestFilterKind(t *testing.T) {
	for kind, name := range map[FilterKind]string{
		Lpf: "lpf", Hpf: "hpf", LpHp: "lphpf", Bpf: "bpf", BandStop: "notch", FilterKind(9): "unknown",
	} {
		assert.Equal(t, name, kind.String())
	}
	assert.Equal(t, Notch(48000, 100, 2), BandStop.design(48000, 100, 2, 0))
}

func TestBiquadSettles(t *testing.T) {
	r := NewRack()
	in := addConstant(t, r, 1)
	lpf, err := NewBiquad(Lpf, in.Tag()).Cutoff(Fixed(500)).Rack(r)
	require.NoError(t, err)
	hpf, err := NewBiquad(Hpf, in.Tag()).Cutoff(Fixed(500)).Rack(r)
	require.NoError(t, err)
	wide, err := NewBiquad(Lpf, in.Tag()).Cutoff(Fixed(22000)).Rack(r)
	require.NoError(t, err)

	render(r, hpf.Tag(), 4410, 44100)
	tables := r.Tables()
	assert.InDelta(t, 1, tables.Output(lpf.Tag()), 1e-6)
	assert.InDelta(t, 1, tables.Output(wide.Tag()), 1e-6, "unity dc gain with the cutoff at nyquist")
	assert.InDelta(t, 0, tables.Output(hpf.Tag()), 1e-6)
	assert.Equal(t, Lpf, lpf.Kind())
}

func TestBiquadRedesign(t *testing.T) {
	r := NewRack()
	in := addImpulse(t, r)
	f, err := NewBiquad(Lpf, in.Tag()).Rack(r)
	require.NoError(t, err)

	render(r, f.Tag(), 1, 44100)
	st := r.Tables().State[f.Tag()]
	assert.Equal(t, 1000.0, st[bqCutoff])
	assert.Equal(t, LowPass(44100, 1000, 0.707).B1, st[bqB1])

	f.Cutoff().SetValue(2000)
	render(r, f.Tag(), 1, 44100)
	assert.Equal(t, 2000.0, st[bqCutoff])
	assert.Equal(t, LowPass(44100, 2000, 0.707).B1, st[bqB1])

	render(r, f.Tag(), 1, 48000)
	assert.Equal(t, LowPass(48000, 2000, 0.707).B1, st[bqB1])
}

func TestBiquadBypass(t *testing.T) {
	r := NewRack()
	in := addSequence(t, r, 1, -0.5, 0.25, 0.75)
	f, err := NewBiquad(Lpf, in.Tag()).Off(Fixed(1)).Rack(r)
	require.NoError(t, err)

	assert.Equal(t, []float64{1, -0.5, 0.25, 0.75}, render(r, f.Tag(), 4, 44100))
	for i, v := range r.Tables().State[f.Tag()][bqX1 : bqY2+1] {
		assert.Equal(t, 0.0, v, "history slot %d", i)
	}

	f.Off().SetValue(0)
	out := render(r, f.Tag(), 1, 44100)
	assert.NotEqual(t, 0.75, out[0])
}

func TestComb(t *testing.T) {
	r := NewRack()
	in := addImpulse(t, r)
	comb, err := NewComb(in.Tag(), 4).Dampening(Fixed(0)).Rack(r)
	require.NoError(t, err)

	want := []float64{0, 0, 0, 0, 1, 0, 0, 0, 0.5, 0, 0, 0, 0.25}
	assert.InDeltaSlice(t, want, render(r, comb.Tag(), len(want), 44100), 1e-12)
	assert.Equal(t, []string{"feedback", "dampening"}, ParamNames(comb))
}

func TestCombDampening(t *testing.T) {
	r := NewRack()
	in := addImpulse(t, r)
	comb, err := NewComb(in.Tag(), 2).Feedback(Fixed(1)).Dampening(Fixed(0.5)).Rack(r)
	require.NoError(t, err)

	out := render(r, comb.Tag(), 5, 44100)
	// the loop filter halves the first echo before it is fed back
	assert.InDeltaSlice(t, []float64{0, 0, 1, 0, 0.5}, out, 1e-12)
}

func TestAllPassImpulse(t *testing.T) {
	r := NewRack()
	in := addImpulse(t, r)
	ap, err := NewAllPass(in.Tag(), 3).Rack(r)
	require.NoError(t, err)

	want := []float64{-1, 0, 0, 1, 0, 0, 0.5, 0, 0, 0.25}
	assert.InDeltaSlice(t, want, render(r, ap.Tag(), len(want), 44100), 1e-12)
}
