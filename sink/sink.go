package sink

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Source adds its output to a buffer of samples, one slice per channel.
type Source interface {
	Process([][]float32)
}

// Ticker is told how many samples are about to be rendered, before any source
// runs. Sequencers use it to schedule notes for the coming buffer.
type Ticker interface {
	Tick(numSamples int)
}

// Bus clears a buffer and lets every ticker and source have a go at it.
type Bus struct {
	sources []Source
	tickers []Ticker
}

func (b *Bus) AddSources(sources ...Source) {
	b.sources = append(b.sources, sources...)
}

func (b *Bus) AddTicker(ticker Ticker) {
	b.tickers = append(b.tickers, ticker)
}

func (b *Bus) Process(samples [][]float32) {
	for i := range samples {
		for j := range samples[i] {
			samples[i][j] = 0.
		}
	}
	if len(samples) == 0 {
		return
	}
	for _, ticker := range b.tickers {
		ticker.Tick(len(samples[0]))
	}
	for _, source := range b.sources {
		source.Process(samples)
	}
}

// Sink plays a Bus on the default output device.
type Sink struct {
	Bus
	stream *portaudio.Stream
}

// New opens a stereo stream on the default device. Sources and tickers may be
// added until Start is called.
func New(sampleRate float64, bufferSize int) (*Sink, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}
	var s Sink
	stream, err := portaudio.OpenDefaultStream(0, 2, sampleRate, bufferSize, s.Process)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("open stream: %w", err)
	}
	s.stream = stream
	return &s, nil
}

func (s *Sink) Start() error {
	return s.stream.Start()
}

// Stop closes the stream and releases portaudio.
func (s *Sink) Stop() error {
	if err := s.stream.Close(); err != nil {
		portaudio.Terminate()
		return err
	}
	return portaudio.Terminate()
}
