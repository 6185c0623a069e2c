package audio

import (
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSynth(t *testing.T, opts ...Option) *Synth {
	t.Helper()
	s, err := NewSynth(NewProps(), opts...)
	require.NoError(t, err)
	return s
}

// pending drains the note queue of s.
func pending(s *Synth) []event {
	var events []event
	s.notes.drainUntil(-1, func(ev event) { events = append(events, ev) })
	return events
}

func TestHandleMidi(t *testing.T) {
	s := newTestSynth(t, WithVoices(1))
	tests := []struct {
		name string
		msg  []byte
		want []event
	}{
		{"note on", []byte{144, 60, 100}, []event{{kind: eventNoteOn, pitch: 60, velocity: 100}}},
		{"note off", []byte{128, 60, 0}, []event{{kind: eventNoteOff, pitch: 60}}},
		{"note on without velocity", []byte{144, 61, 0}, []event{{kind: eventNoteOff, pitch: 61}}},
		{"other channel", []byte{145, 60, 100}, nil},
		{"control change", []byte{176, 1, 64}, nil},
		{"too short", []byte{144, 60}, nil},
		{"too long", []byte{144, 60, 100, 0}, nil},
		{"empty", nil, nil},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s.HandleMidi(test.msg)
			assert.Equal(t, test.want, pending(s))
		})
	}
}

func TestVoiceAllocation(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	s := newTestSynth(t, WithVoices(2), WithLogger(logger))
	require.NotNil(t, hook.LastEntry())
	assert.Contains(t, hook.LastEntry().Message, s.Rack().ID())

	noteOn := func(pitch int) *voice {
		v := s.allocate(pitch)
		s.noteOn(v, event{kind: eventNoteOn, pitch: pitch, velocity: 127})
		return v
	}
	a := noteOn(60)
	b := noteOn(62)
	assert.NotSame(t, a, b)
	assert.Same(t, a, noteOn(60), "a playing pitch is retriggered on its own voice")

	s.handleNote(event{kind: eventNoteOff, pitch: 62})
	assert.Equal(t, stateReleased, b.state)
	assert.Same(t, b, noteOn(64), "released voices are reused before stealing")

	hook.Reset()
	stolen := noteOn(65)
	assert.Same(t, a, stolen)
	assert.Equal(t, logrus.DebugLevel, hook.LastEntry().Level)
	assert.Equal(t, 65, stolen.note)
	assert.Equal(t, 65.0, stolen.pitch.Step().Value())
	assert.Equal(t, 1.0, stolen.gain.Gain().Value())
}

func TestNoteDuration(t *testing.T) {
	s := newTestSynth(t, WithVoices(1))
	s.PlayNote(0, 60, 64, 40)

	buf := [][]float32{make([]float32, 32), make([]float32, 32)}
	s.Process(buf)
	v := s.voices[0]
	assert.Equal(t, stateActive, v.state)
	assert.Equal(t, 64.0/127, v.gain.Gain().Value())

	s.Process(buf)
	assert.Equal(t, stateReleased, v.state)
}

func TestNoteDurationFromOffset(t *testing.T) {
	tests := []struct {
		blockStart, offset, duration int
		remaining                    int
	}{
		{0, 0, 40, 40},
		{0, 12, 8, 20},
		{32, 40, 8, 16},
		{32, 0, 8, 8},   // queued late, starts with the block
		{-1, 100, 8, 8}, // due after the buffer, starts with the next one
	}
	for _, test := range tests {
		s := newTestSynth(t, WithVoices(1))
		s.blockStart = test.blockStart
		v := s.voices[0]
		s.noteOn(v, event{kind: eventNoteOn, offset: test.offset, pitch: 60, velocity: 100, duration: test.duration})
		assert.Equal(t, test.remaining, v.remaining, "%+v", test)
	}

	s := newTestSynth(t, WithVoices(1))
	s.PlayNote(12, 60, 100, 8)
	block := [][]float32{make([]float32, blockSize)}
	s.Process(block)
	assert.Equal(t, stateActive, s.voices[0].state, "the note ends four samples into the next block")
	s.Process(block)
	assert.Equal(t, stateReleased, s.voices[0].state)
}

func TestScheduleNoteNeverBlocks(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	s := newTestSynth(t, WithVoices(2), WithLogger(logger))
	seq := NewSequencer(NewProps(), s.SampleRate())
	clip := NewClip(4, s)
	for i := 0; i < noteQueueSize+44; i++ {
		clip.AddNote(0, 60+i%12, 0.25)
	}
	seq.AddClip("cluster", clip)
	hook.Reset()

	done := make(chan struct{})
	go func() {
		defer close(done)
		seq.Tick(512)
		s.Process([][]float32{make([]float32, 512)})
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("tick and process did not return with more notes than the queue holds")
	}

	dropped := 0
	for _, entry := range hook.AllEntries() {
		if strings.Contains(entry.Message, "dropping note") {
			dropped++
		}
	}
	assert.Equal(t, 44, dropped)
	assert.Empty(t, s.scheduled)
	assert.Equal(t, noteQueueSize, cap(s.scheduled), "the queue is reused")
	for _, v := range s.voices {
		assert.Equal(t, stateActive, v.state)
	}

	// the queue shared with other goroutines is untouched
	s.PlayNote(0, 72, 100, 0)
	assert.Len(t, pending(s), 1)
}

func TestScheduleNoteOrder(t *testing.T) {
	s := newTestSynth(t, WithVoices(1))
	s.ScheduleNote(40, 62, 100, 0)
	s.ScheduleNote(0, 60, 100, 0)
	s.ScheduleNote(20, 61, 100, 0)

	var offsets []int
	for _, ev := range s.scheduled {
		offsets = append(offsets, ev.offset)
	}
	assert.Equal(t, []int{0, 20, 40}, offsets)

	s.Process([][]float32{make([]float32, 64)})
	assert.Equal(t, 62, s.voices[0].note, "the latest note takes the only voice")
}

func TestHeldNote(t *testing.T) {
	s := newTestSynth(t, WithVoices(1))
	s.PlayNote(0, 60, 100, 0)
	buf := [][]float32{make([]float32, 512)}
	s.Process(buf)
	s.Process(buf)
	assert.Equal(t, stateActive, s.voices[0].state)

	s.Stop(60)
	s.Process(buf)
	assert.Equal(t, stateReleased, s.voices[0].state)
}

func TestProcess(t *testing.T) {
	s := newTestSynth(t, WithVoices(2))
	s.Process(nil)

	left, right := make([]float32, 256), make([]float32, 256)
	s.Process([][]float32{left, right})
	for i := range left {
		require.Equal(t, float32(0), left[i], "silent without notes")
	}

	s.HandleMidi([]byte{144, 57, 127})
	s.Process([][]float32{left, right})
	var energy float64
	for i := range left {
		require.Equal(t, left[i], right[i], "every channel gets the same sample")
		energy += float64(left[i] * left[i])
	}
	assert.Greater(t, energy, 0.0)

	// sources add to what is already in the buffer
	for i := range left {
		left[i] = 1
	}
	s.Process([][]float32{left})
	assert.NotEqual(t, float32(1), left[len(left)/2])
}

func TestNoteOffset(t *testing.T) {
	s := newTestSynth(t, WithVoices(1))
	s.PlayNote(40, 60, 100, 0)
	left := make([]float32, 64)
	s.Process([][]float32{left})
	assert.Equal(t, stateActive, s.voices[0].state)
	for i := 0; i < 32; i++ {
		require.Equal(t, float32(0), left[i], "silent before the note's block")
	}

	// notes due after the end of the buffer start when the buffer is done
	s.PlayNote(100, 62, 100, 0)
	s.Process([][]float32{left})
	assert.Equal(t, 62, s.voices[0].note)
}

func TestSynthProps(t *testing.T) {
	s := newTestSynth(t, WithVoices(2))

	require.NoError(t, s.Set(propCutoff, 500.))
	require.NoError(t, s.Set(propDecay, 0.5))
	require.NoError(t, s.Set(propAttack, 0.2))
	require.NoError(t, s.Set(propSustain, 0.3))
	require.NoError(t, s.Set(propRelease, 0.4))
	require.NoError(t, s.Set(propExciter, "saw"))
	require.NoError(t, s.Set(propTranspose, -12.))
	require.NoError(t, s.Set(propLevel, -6.))
	require.NoError(t, s.Set(propDrive, 2.))
	s.Rack().Flush()

	for _, v := range s.voices {
		assert.Equal(t, 500.0, v.guide.Cutoff().Value())
		assert.Equal(t, 0.5, v.guide.Decay().Value())
		assert.Equal(t, 0.2, v.guide.Attack().Value())
		assert.Equal(t, 0.3, v.guide.Sustain().Value())
		assert.Equal(t, 0.4, v.guide.Release().Value())
		assert.Equal(t, 2.0, v.union.Active().Value())
		assert.Equal(t, -12.0, v.pitch.Offset().Value())
	}
	assert.InDelta(t, 0.501, s.master.Level().Value(), 1e-3)
	assert.Equal(t, 2.0, s.shaper.Drive().Value())

	assert.Error(t, s.Set(propExciter, "sound"), "no sound loaded")
	assert.Error(t, s.Set(propCutoff, 10.))
	assert.Error(t, s.Set("nope", 1.))
}

func TestSynthWithSound(t *testing.T) {
	snd := &Sound{buf: []float64{1, 0.5, 0.25}, sampleRate: 44100}
	s := newTestSynth(t, WithVoices(1), WithSound(snd))
	require.NotNil(t, s.voices[0].sampler)
	require.NoError(t, s.Set(propExciter, "sound"))
	s.Rack().Flush()
	assert.Equal(t, 4.0, s.voices[0].union.Active().Value())
}
