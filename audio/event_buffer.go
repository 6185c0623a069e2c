package audio

import (
	"runtime"
	"sync"
	"sync/atomic"
)

type eventKind uint8

const (
	eventControl eventKind = iota
	eventOn
	eventOff
	eventNoteOn
	eventNoteOff
	eventSnapshot
)

type event struct {
	kind    eventKind
	offset  int
	tag     Tag
	slot    int
	control Control

	pitch    int
	velocity int
	duration int

	snapshot Controls
	reply    chan<- Controls
}

// eventBuffer is a bounded ring of events with a single lock-free consumer,
// the goroutine driving a rack. Producers share a mutex so that the MIDI and
// REPL goroutines can push at the same time. It is not for the audio thread.
type eventBuffer struct {
	mu   sync.Mutex
	ring []event
	mask uint32
	head atomic.Uint32 // next event to consume
	tail atomic.Uint32 // next free slot
}

func newEventBuffer(size int) *eventBuffer {
	if size <= 0 || size&(size-1) != 0 {
		panic("event buffer size must be a power of 2")
	}
	return &eventBuffer{ring: make([]event, size), mask: uint32(size - 1)}
}

// push adds ev, yielding to the consumer while the ring is full.
func (b *eventBuffer) push(ev event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	tail := b.tail.Load()
	for tail-b.head.Load() == uint32(len(b.ring)) {
		runtime.Gosched()
	}
	b.ring[tail&b.mask] = ev
	b.tail.Store(tail + 1)
}

// drainUntil calls f in push order for queued events with an offset below
// until. A negative until drains everything.
func (b *eventBuffer) drainUntil(until int, f func(event)) {
	head, tail := b.head.Load(), b.tail.Load()
	for ; head != tail; head++ {
		ev := b.ring[head&b.mask]
		if until >= 0 && ev.offset >= until {
			break
		}
		f(ev)
	}
	b.head.Store(head)
}
