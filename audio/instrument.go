package audio

import (
	"fmt"
	"math"
)

const (
	blockSize = 16 // this gives about 0.35ms accuracy for sequenced events

	DefaultSampleRate = 44100
	DefaultBufferSize = 512
	DefaultVoices     = 8
)

const noteQueueSize = 256

type voiceState int

const (
	stateFree voiceState = iota
	stateActive
	stateReleased
)

// Logger is what the synth logs to. It is satisfied by *logrus.Logger.
type Logger interface {
	Debug(...interface{})
	Info(...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(...interface{}) {}
func (nopLogger) Info(...interface{})  {}

const (
	propLevel     = "level"
	propCutoff    = "cutoff"
	propDecay     = "decay"
	propAttack    = "env.attack"
	propSustain   = "env.sustain"
	propRelease   = "env.release"
	propExciter   = "exciter"
	propTranspose = "transpose"
	propDrive     = "drive"
)

// exciters in the order of the union inputs of a voice
var exciters = []string{"noise", "sine", "saw", "square", "sound"}

type voice struct {
	pitch   *MidiPitch
	union   *Union
	sampler *Sampler
	guide   *WaveGuide
	gain    *Vca

	state     voiceState
	note      int
	remaining int // samples until the note is released, -1 while held
}

// Synth is a polyphonic plucked string instrument. Every voice is a waveguide
// with its own exciter and pitch, all summed by a master mixer in one rack.
type Synth struct {
	*Props
	rack       *Rack
	voices     []*voice
	notes      *eventBuffer
	scheduled  []event // notes from the audio goroutine, ordered by offset
	blockStart int     // first sample of the block being rendered, -1 between blocks
	master     *Mixer
	shaper     *Tanh
	sampleRate float64
	sound      *Sound
	numVoices  int
	steal      int
	log        Logger
}

type Option func(*Synth)

func WithVoices(n int) Option {
	return func(s *Synth) {
		if n > 0 {
			s.numVoices = n
		}
	}
}

func WithSampleRate(sr float64) Option {
	return func(s *Synth) {
		if sr > 0 {
			s.sampleRate = sr
		}
	}
}

// WithSound makes sound available as the "sound" exciter.
func WithSound(snd *Sound) Option {
	return func(s *Synth) { s.sound = snd }
}

func WithLogger(l Logger) Option {
	return func(s *Synth) { s.log = l }
}

// NewSynth registers the synth's properties on props and builds its rack.
func NewSynth(props *Props, opts ...Option) (*Synth, error) {
	s := &Synth{
		Props:      props,
		rack:       NewRack(),
		notes:      newEventBuffer(noteQueueSize),
		scheduled:  make([]event, 0, noteQueueSize),
		blockStart: -1,
		sampleRate: DefaultSampleRate,
		numVoices:  DefaultVoices,
		log:        nopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	choices := exciters[:4]
	if s.sound != nil {
		choices = exciters
	}
	var (
		level     = props.MustRegister(propLevel, setLevel, 0.)
		cutoff    = props.MustRegister(propCutoff, setFloat64(20, 20_000), 2000.)
		decay     = props.MustRegister(propDecay, setFloat64(0, 0.999), 0.95)
		attack    = props.MustRegister(propAttack, setEnvParam, 0.001)
		sustain   = props.MustRegister(propSustain, setFloat64(0, 1), 0.)
		release   = props.MustRegister(propRelease, setEnvParam, 0.001)
		exciter   = props.MustRegister(propExciter, setChoice(choices...), "noise")
		transpose = props.MustRegister(propTranspose, setInt, 0)
		drive     = props.MustRegister(propDrive, setFloat64(0.1, 10), 1.)
	)

	outs := make([]Tag, 0, s.numVoices)
	for n := 0; n < s.numVoices; n++ {
		v, err := s.addVoice(n, voiceConfig{
			cutoff:    cutoff.Load().(float64),
			decay:     decay.Load().(float64),
			attack:    attack.Load().(float64),
			sustain:   sustain.Load().(float64),
			release:   release.Load().(float64),
			exciter:   exciterIndex(exciter.Load().(string)),
			transpose: float64(transpose.Load().(int)),
		})
		if err != nil {
			return nil, fmt.Errorf("build voice %d: %w", n, err)
		}
		s.voices = append(s.voices, v)
		outs = append(outs, v.gain.Tag())
	}
	var err error
	s.master, err = NewMixer(outs...).Level(Fixed(dbToGain(level.Load().(float64)))).Rack(s.rack)
	if err != nil {
		return nil, err
	}
	s.shaper, err = NewTanh(s.master.Tag()).Drive(Fixed(drive.Load().(float64))).Rack(s.rack)
	if err != nil {
		return nil, err
	}

	props.WatchFloat(propLevel, func(db float64) { s.master.Level().SetValue(dbToGain(db)) })
	props.WatchFloat(propDrive, s.shaper.Drive().SetValue)
	props.WatchFloat(propCutoff, s.each(func(v *voice) Param { return v.guide.Cutoff() }))
	props.WatchFloat(propDecay, s.each(func(v *voice) Param { return v.guide.Decay() }))
	props.WatchFloat(propAttack, s.each(func(v *voice) Param { return v.guide.Attack() }))
	props.WatchFloat(propSustain, s.each(func(v *voice) Param { return v.guide.Sustain() }))
	props.WatchFloat(propRelease, s.each(func(v *voice) Param { return v.guide.Release() }))
	props.MustWatch(propExciter, func(val interface{}) {
		s.each(func(v *voice) Param { return v.union.Active() })(exciterIndex(val.(string)))
	})
	props.MustWatch(propTranspose, func(val interface{}) {
		s.each(func(v *voice) Param { return v.pitch.Offset() })(float64(val.(int)))
	})

	s.log.Info(fmt.Sprintf("synth: rack %s with %d voices and %d modules", s.rack.ID(), len(s.voices), s.rack.Len()))
	return s, nil
}

type voiceConfig struct {
	cutoff, decay            float64
	attack, sustain, release float64
	exciter                  float64
	transpose                float64
}

func (s *Synth) addVoice(n int, cfg voiceConfig) (*voice, error) {
	r := s.rack
	v := &voice{state: stateFree, remaining: -1}
	var err error
	if v.pitch, err = NewMidiPitch().Offset(Fixed(cfg.transpose)).Rack(r); err != nil {
		return nil, err
	}
	noise, err := NewNoise().Seed(noiseSeed + uint32(n)*7919).Rack(r)
	if err != nil {
		return nil, err
	}
	waves := []Tag{noise.Tag()}
	for _, name := range exciters[1:4] {
		osc, err := NewOsc(Waveforms[name]).Hz(Out(v.pitch.Tag())).Rack(r)
		if err != nil {
			return nil, err
		}
		waves = append(waves, osc.Tag())
	}
	if s.sound != nil {
		if v.sampler, err = NewSampler(s.sound).Rack(r); err != nil {
			return nil, err
		}
		waves = append(waves, v.sampler.Tag())
	}
	if v.union, err = NewUnion(waves...).Active(Fixed(cfg.exciter)).Rack(r); err != nil {
		return nil, err
	}
	v.guide, err = NewWaveGuide(v.union.Tag()).
		Hz(Out(v.pitch.Tag())).
		Cutoff(Fixed(cfg.cutoff)).
		Decay(Fixed(cfg.decay)).
		Attack(Fixed(cfg.attack)).
		Sustain(Fixed(cfg.sustain)).
		Release(Fixed(cfg.release)).
		Rack(r)
	if err != nil {
		return nil, err
	}
	if v.gain, err = NewVca(v.guide.Tag()).Rack(r); err != nil {
		return nil, err
	}
	return v, nil
}

// each returns a function that sets the param picked from every voice.
func (s *Synth) each(pick func(v *voice) Param) func(float64) {
	return func(val float64) {
		for _, v := range s.voices {
			pick(v).SetValue(val)
		}
	}
}

// Rack returns the rack the synth runs.
func (s *Synth) Rack() *Rack { return s.rack }

func (s *Synth) SampleRate() float64 { return s.sampleRate }

// PlayNote schedules a note offset samples into the next buffer. A duration of
// zero holds the note until Stop is called.
func (s *Synth) PlayNote(offset, pitch, velocity, duration int) {
	s.notes.push(event{
		kind:     eventNoteOn,
		offset:   offset,
		pitch:    pitch,
		velocity: velocity,
		duration: duration,
	})
}

// ScheduleNote is PlayNote for the goroutine that calls Process, such as a
// sequencer ticked by the same audio callback. It never locks or waits: notes
// beyond the queue's capacity are dropped.
func (s *Synth) ScheduleNote(offset, pitch, velocity, duration int) {
	if len(s.scheduled) == cap(s.scheduled) {
		s.log.Debug("synth: note queue full, dropping note ", pitch)
		return
	}
	i := len(s.scheduled)
	s.scheduled = s.scheduled[:i+1]
	for ; i > 0 && s.scheduled[i-1].offset > offset; i-- {
		s.scheduled[i] = s.scheduled[i-1]
	}
	s.scheduled[i] = event{
		kind:     eventNoteOn,
		offset:   offset,
		pitch:    pitch,
		velocity: velocity,
		duration: duration,
	}
}

// Stop releases every voice playing pitch.
func (s *Synth) Stop(pitch int) {
	s.notes.push(event{kind: eventNoteOff, pitch: pitch})
}

const (
	midiNoteOn  = 144
	midiNoteOff = 128
)

// HandleMidi plays a three byte MIDI message. Note on and note off on the first
// channel are understood, everything else is ignored. A note on with zero
// velocity is a note off.
func (s *Synth) HandleMidi(msg []byte) {
	if len(msg) != 3 {
		return
	}
	pitch, velocity := int(msg[1]), int(msg[2])
	switch msg[0] {
	case midiNoteOn:
		if velocity == 0 {
			s.Stop(pitch)
			return
		}
		s.PlayNote(0, pitch, velocity, 0)
	case midiNoteOff:
		s.Stop(pitch)
	}
}

// Process renders the rack into every channel of samples, adding to what is
// already there.
func (s *Synth) Process(samples [][]float32) {
	if len(samples) == 0 {
		return
	}
	s.rack.Flush()
	n := len(samples[0])
	next := 0
	for off := 0; off < n; off += blockSize {
		s.blockStart = off
		s.notes.drainUntil(off+blockSize, s.handleNote)
		for ; next < len(s.scheduled) && s.scheduled[next].offset < off+blockSize; next++ {
			s.handleNote(s.scheduled[next])
		}
		end := off + blockSize
		if end > n {
			end = n
		}
		for i := off; i < end; i++ {
			v := float32(s.rack.Mono(s.sampleRate))
			for c := range samples {
				samples[c][i] += v
			}
		}
		s.countdown(end - off)
	}
	s.blockStart = -1
	s.notes.drainUntil(-1, s.handleNote)
	for _, ev := range s.scheduled[next:] {
		s.handleNote(ev)
	}
	s.scheduled = s.scheduled[:0]
}

func (s *Synth) handleNote(ev event) {
	switch ev.kind {
	case eventNoteOn:
		v := s.allocate(ev.pitch)
		s.noteOn(v, ev)
	case eventNoteOff:
		for _, v := range s.voices {
			if v.note == ev.pitch && v.state == stateActive {
				s.noteOff(v)
			}
		}
	}
}

// allocate picks the voice for a new note: the voice already playing the
// pitch, else a free one, else a released one, else the next in turn.
func (s *Synth) allocate(pitch int) *voice {
	for _, v := range s.voices {
		if v.state != stateFree && v.note == pitch {
			return v
		}
	}
	for _, state := range []voiceState{stateFree, stateReleased} {
		for _, v := range s.voices {
			if v.state == state {
				return v
			}
		}
	}
	v := s.voices[s.steal]
	s.steal = (s.steal + 1) % len(s.voices)
	s.log.Debug("synth: no free voice, stealing voice playing ", v.note)
	return v
}

func (s *Synth) noteOn(v *voice, ev event) {
	v.state = stateActive
	v.note = ev.pitch
	v.remaining = -1
	if ev.duration > 0 {
		// countdown takes whole blocks, including the samples before the note
		v.remaining = ev.duration
		if s.blockStart >= 0 && ev.offset > s.blockStart {
			v.remaining += ev.offset - s.blockStart
		}
	}
	s.rack.apply(event{kind: eventControl, tag: v.pitch.Tag(), slot: pitchStep, control: Fixed(float64(ev.pitch))})
	s.rack.apply(event{kind: eventControl, tag: v.gain.Tag(), control: Fixed(velocityGain(ev.velocity))})
	s.rack.apply(event{kind: eventOn, tag: v.guide.env.Tag()})
	if v.sampler != nil {
		s.rack.apply(event{kind: eventOn, tag: v.sampler.Tag()})
	}
}

func (s *Synth) noteOff(v *voice) {
	v.state = stateReleased
	v.remaining = -1
	s.rack.apply(event{kind: eventOff, tag: v.guide.env.Tag()})
}

func (s *Synth) countdown(samples int) {
	for _, v := range s.voices {
		if v.state != stateActive || v.remaining < 0 {
			continue
		}
		v.remaining -= samples
		if v.remaining <= 0 {
			s.noteOff(v)
		}
	}
}

func exciterIndex(name string) float64 {
	for i, e := range exciters {
		if e == name {
			return float64(i)
		}
	}
	return 0
}

func velocityGain(velocity int) float64 {
	if velocity <= 0 || velocity > 127 {
		return 1
	}
	return float64(velocity) / 127
}

func dbToGain(db float64) float64 {
	return math.Pow(10, db/20.0)
}
