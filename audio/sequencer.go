package audio

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
)

// Pulses per quarter note
const PPQN = 960.

const defaultVelocity = 100

// Clip is a loop of notes for one instrument. Its length and note positions
// are in beats.
type Clip struct {
	Length     int
	instrument Playable
	notes      []note
}

func NewClip(length float64, p Playable) *Clip {
	return &Clip{
		Length:     int(length * PPQN),
		instrument: p,
	}
}

// Playable is an instrument the sequencer can drive. ScheduleNote is called
// from the audio callback and must not block.
type Playable interface {
	ScheduleNote(offset, pitch, velocity, duration int)
}

// AddNote adds a note at the default velocity.
func (c *Clip) AddNote(position float64, pitch int, length float64) {
	c.AddNoteVelocity(position, pitch, defaultVelocity, length)
}

// AddNoteVelocity adds a note. Pitches outside the MIDI range are dropped.
func (c *Clip) AddNoteVelocity(position float64, pitch, velocity int, length float64) {
	if pitch < 1 || pitch > 127 {
		return
	}
	c.notes = append(c.notes, note{
		pos:      int(position * PPQN),
		pitch:    pitch,
		velocity: velocity,
		length:   length,
	})
}

// Len returns the number of notes in the clip.
func (c *Clip) Len() int { return len(c.notes) }

type note struct {
	pos      int // position of the note measured in PPQN from the start of a clip
	pitch    int // pitch as a midi note number
	velocity int
	length   float64 // note length in beats
}

// Sequencer schedules the notes of its clips on every audio buffer. Clips are
// replaced as a whole map so the audio goroutine never sees a partial update.
type Sequencer struct {
	*Props
	bpm         *atomic.Value
	clips       *atomic.Value
	mu          sync.Mutex // serialises AddClip and RemoveClip
	sampleRate  float64
	totalPulses uint64
}

func NewSequencer(props *Props, sampleRate float64) *Sequencer {
	clips := make(map[string]*Clip)
	seq := &Sequencer{
		Props:      props,
		sampleRate: sampleRate,
		clips:      props.MustRegister("clips", setClips, clips),
		bpm:        props.MustRegister("bpm", setFloat64(1, 500), 120.0),
	}
	return seq
}

// AddClip adds or replaces the clip with the given name.
func (s *Sequencer) AddClip(name string, clip *Clip) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.clips.Load().(map[string]*Clip)
	clips := make(map[string]*Clip, len(old)+1)
	for k, v := range old {
		clips[k] = v
	}
	clips[name] = clip
	s.clips.Store(clips)
}

// RemoveClip removes the named clip and reports whether it existed.
func (s *Sequencer) RemoveClip(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.clips.Load().(map[string]*Clip)
	if _, ok := old[name]; !ok {
		return false
	}
	clips := make(map[string]*Clip, len(old))
	for k, v := range old {
		if k != name {
			clips[k] = v
		}
	}
	s.clips.Store(clips)
	return true
}

// Clips returns the clip names in sorted order.
func (s *Sequencer) Clips() []string {
	clips := s.clips.Load().(map[string]*Clip)
	names := make([]string, 0, len(clips))
	for name := range clips {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Sequencer) Tick(numSamples int) {
	bpm := s.bpm.Load().(float64)
	clips := s.clips.Load().(map[string]*Clip)

	// The number of pulses to schedule for each buffer will be fractional,
	// because the PPQN is not a multiple of the buffer size. Truncating it
	// causes the next pulse to be a few samples early, but it's not noticeable.
	numPulses := int(math.Floor(PPQN * (bpm / 60.) / (s.sampleRate / float64(numSamples))))
	samplesPerPulse := s.sampleRate / ((bpm * PPQN) / 60.)

	for _, clip := range clips {
		if clip.Length <= 0 {
			continue
		}
		pos := int(s.totalPulses % uint64(clip.Length)) // current position within the clip
		nextPos := pos + numPulses                      // next position within the clip

		for _, note := range clip.notes {
			duration := int(note.length * s.sampleRate / (bpm / 60.))

			if nextPos > clip.Length {
				// The buffer wraps past the end of the clip, so notes at the
				// start of the clip are due as well.
				switch {
				case note.pos >= pos:
					offset := int(math.Round(float64(note.pos-pos) * samplesPerPulse))
					clip.instrument.ScheduleNote(offset, note.pitch, note.velocity, duration)
				case note.pos < nextPos-clip.Length:
					offset := int(math.Round(float64(clip.Length-pos+note.pos) * samplesPerPulse))
					clip.instrument.ScheduleNote(offset, note.pitch, note.velocity, duration)
				}
			} else if note.pos >= pos && note.pos < nextPos {
				offset := int(math.Round(float64(note.pos-pos) * samplesPerPulse))
				clip.instrument.ScheduleNote(offset, note.pitch, note.velocity, duration)
			}
		}
	}
	s.totalPulses += uint64(numPulses)
}

func setClips(v interface{}, dest *atomic.Value) error {
	if c, ok := v.(map[string]*Clip); ok {
		dest.Store(c)
		return nil
	}
	return fmt.Errorf("value is not a map of clips: %v", v)
}
