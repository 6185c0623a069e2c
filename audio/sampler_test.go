package audio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/youpy/go-wav"
)

func writeWav(t *testing.T, sampleRate int, values []float64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pluck.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	samples := make([]wav.Sample, len(values))
	for i, v := range values {
		samples[i].Values[0] = int(v * 0x7FFF)
	}
	w := wav.NewWriter(f, uint32(len(samples)), 1, uint32(sampleRate), 16)
	require.NoError(t, w.WriteSamples(samples))
	return path
}

func TestLoadSound(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = 0.5
		if i >= 50 {
			values[i] = -0.5
		}
	}
	path := writeWav(t, 22050, values)

	snd, err := LoadSound(path)
	require.NoError(t, err)
	assert.Equal(t, 100, snd.Len())
	assert.Equal(t, 22050.0, snd.SampleRate())
	assert.Equal(t, path, snd.File())
	assert.InDelta(t, 100.0/22050, snd.Duration(), 1e-12)
	assert.InDelta(t, 0.5, snd.At(0), 1e-3)
	assert.InDelta(t, -0.5, snd.At(99), 1e-3)

	_, err = LoadSound(filepath.Join(t.TempDir(), "missing.wav"))
	assert.Error(t, err)
}

func TestSampler(t *testing.T) {
	snd := &Sound{buf: []float64{0, 1, 0}, sampleRate: 22050}
	r := NewRack()
	s, err := NewSampler(snd).Rack(r)
	require.NoError(t, err)
	assert.Same(t, snd, s.Sound())

	assert.Equal(t, []float64{0, 0}, render(r, s.Tag(), 2, 44100), "silent until triggered")

	s.On()
	// half speed through the sound, so every other sample is interpolated
	want := []float64{0, 0.5, 1, 0.5, 0, 0, 0, 0}
	assert.InDeltaSlice(t, want, render(r, s.Tag(), len(want), 44100), 1e-12)
	assert.Equal(t, 0.0, r.Tables().State[s.Tag()][smpPlaying])

	s.Level().SetValue(0.5)
	s.Rate().SetValue(2)
	s.On()
	want = []float64{0, 0.5, 0, 0}
	assert.InDeltaSlice(t, want, render(r, s.Tag(), len(want), 44100), 1e-12)
}

func TestSamplerReverse(t *testing.T) {
	snd := &Sound{buf: []float64{0.5, 1, 0}, sampleRate: 44100}
	r := NewRack()
	s, err := NewSampler(snd).Rate(Fixed(-2)).Rack(r)
	require.NoError(t, err)

	s.On()
	want := []float64{0.5, 0, 0, 0}
	assert.InDeltaSlice(t, want, render(r, s.Tag(), len(want), 44100), 1e-12)
	assert.Equal(t, 0.0, r.Tables().State[s.Tag()][smpPlaying], "stopped at the start of the sound")
}

func TestSamplerNeedsSound(t *testing.T) {
	r := NewRack()
	_, err := NewSampler(nil).Rack(r)
	assert.Error(t, err)
	_, err = NewSampler(&Sound{sampleRate: 44100}).Rack(r)
	assert.Error(t, err)
	assert.Equal(t, 0, r.Len())
}
