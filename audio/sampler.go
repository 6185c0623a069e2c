package audio

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/youpy/go-wav"
)

// Sound is a mono sample loaded into memory. It is never modified after
// loading, so modules may share it.
type Sound struct {
	buf        []float64
	sampleRate float64
	file       string
}

func (s *Sound) Len() int            { return len(s.buf) }
func (s *Sound) SampleRate() float64 { return s.sampleRate }
func (s *Sound) File() string        { return s.file }
func (s *Sound) At(n int) float64    { return s.buf[n] }
func (s *Sound) Duration() float64   { return float64(len(s.buf)) / s.sampleRate }

// LoadSound reads the first channel of a wav file.
func LoadSound(file string) (*Sound, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := wav.NewReader(f)
	format, err := r.Format()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	snd := Sound{file: file, sampleRate: float64(format.SampleRate)}
	for {
		samples, err := r.ReadSamples()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		for _, sample := range samples {
			snd.buf = append(snd.buf, r.FloatValue(sample, 0))
		}
	}
	return &snd, nil
}

const (
	samplerRate = iota
	samplerLevel
)

var samplerParams = []paramSpec{
	{"rate", 1},
	{"level", 1},
}

// sampler state slots
const (
	smpPosition = iota
	smpPlaying
)

// Sampler plays a sound once from the start every time it is gated on. The
// rate control scales playback speed on top of the sound's own sample rate.
type Sampler struct {
	handle
	sound *Sound
}

type SamplerBuilder struct {
	sound    *Sound
	controls []Control
}

func NewSampler(sound *Sound) *SamplerBuilder {
	return &SamplerBuilder{sound: sound, controls: defaults(samplerParams)}
}

func (b *SamplerBuilder) Rate(c Control) *SamplerBuilder {
	b.controls[samplerRate] = c
	return b
}

func (b *SamplerBuilder) Level(c Control) *SamplerBuilder {
	b.controls[samplerLevel] = c
	return b
}

func (b *SamplerBuilder) Rack(r *Rack) (*Sampler, error) {
	if b.sound == nil || b.sound.Len() == 0 {
		return nil, fmt.Errorf("sampler needs a sound with at least one sample")
	}
	var s *Sampler
	_, err := r.add(layout{
		controls: b.controls,
		state:    []float64{0, 0},
	}, func(h handle) Module {
		s = &Sampler{handle: h, sound: b.sound}
		return s
	})
	return s, err
}

func (s *Sampler) Rate() Param  { return s.param(samplerRate) }
func (s *Sampler) Level() Param { return s.param(samplerLevel) }

// On restarts the sound.
func (s *Sampler) On() { s.on() }

func (s *Sampler) Sound() *Sound { return s.sound }

func (s *Sampler) params() []paramSpec { return samplerParams }

func (s *Sampler) Signal(t *Tables, sampleRate float64) {
	st := t.State[s.tag]
	if st[smpPlaying] == 0 {
		t.Outputs[s.tag][0] = 0
		return
	}
	pos := st[smpPosition]
	i := int(pos)
	// a negative rate plays backwards until the start of the sound
	if pos < 0 || i >= s.sound.Len() {
		st[smpPlaying] = 0
		t.Outputs[s.tag][0] = 0
		return
	}
	x0 := s.sound.At(i)
	x1 := x0
	if i+1 < s.sound.Len() {
		x1 = s.sound.At(i + 1)
	}
	f := pos - math.Floor(pos)
	t.Outputs[s.tag][0] = t.Control(s.tag, samplerLevel) * (x0 + f*(x1-x0))
	st[smpPosition] = pos + t.Control(s.tag, samplerRate)*s.sound.SampleRate()/sampleRate
}

func (s *Sampler) gateOn(t *Tables) {
	st := t.State[s.tag]
	st[smpPosition] = 0
	st[smpPlaying] = 1
}

// gateOff lets a playing sound finish.
func (s *Sampler) gateOff(*Tables) {}
