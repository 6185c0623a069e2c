package audio

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/xid"
)

// Module is one node of a rack. Signal computes one sample: it reads upstream
// outputs and its own controls, updates its state and writes its output slots.
type Module interface {
	Tag() Tag
	Signal(t *Tables, sampleRate float64)
}

// gate is implemented by modules that react to note on and note off.
type gate interface {
	gateOn(t *Tables)
	gateOff(t *Tables)
}

var (
	// ErrForwardReference is returned when a module refers to a tag that does
	// not exist yet. Feedback must go through a Feedback module instead.
	ErrForwardReference = errors.New("reference to a module that is not in the rack yet")
	// ErrNoSuchSlot is returned when a reference names an output slot the
	// target module does not have.
	ErrNoSuchSlot = errors.New("no such output slot")
)

const eventBufferSize = 1024

// Rack owns the modules of a synthesis graph and the tables they run on.
// Modules are appended once while building; after that the rack is driven
// from a single audio goroutine and mutated only through queued events.
type Rack struct {
	id      xid.ID
	modules []Module
	tables  Tables
	events  *eventBuffer
}

// NewRack returns an empty rack.
func NewRack() *Rack {
	return &Rack{
		id:     xid.New(),
		events: newEventBuffer(eventBufferSize),
	}
}

// ID returns a unique identifier for the rack, used to tell racks apart in logs.
func (r *Rack) ID() string { return r.id.String() }

// Len returns the number of modules. It is also the tag the next module gets.
func (r *Rack) Len() int { return len(r.modules) }

// Modules returns the modules in tag order.
func (r *Rack) Modules() []Module { return r.modules }

// Tables gives direct access to the stores. Only the goroutine that drives the
// rack may use it while audio is running.
func (r *Rack) Tables() *Tables { return &r.tables }

// Evaluate runs every module once in ascending tag order and returns output
// slot 0 of the last one. Producers therefore always run before their consumers.
func Evaluate(modules []Module, t *Tables, sampleRate float64) float64 {
	for _, m := range modules {
		m.Signal(t, sampleRate)
	}
	if len(modules) == 0 {
		return 0
	}
	return t.Outputs[len(modules)-1][0]
}

// Mono computes one sample.
func (r *Rack) Mono(sampleRate float64) float64 {
	return Evaluate(r.modules, &r.tables, sampleRate)
}

// Process applies pending control events and then fills buf with samples.
func (r *Rack) Process(buf []float64, sampleRate float64) {
	r.Flush()
	for n := range buf {
		buf[n] = r.Mono(sampleRate)
	}
}

// Flush applies all queued control writes and gate changes.
func (r *Rack) Flush() {
	r.events.drainUntil(-1, r.apply)
}

func (r *Rack) apply(ev event) {
	switch ev.kind {
	case eventControl:
		r.tables.Controls[ev.tag][ev.slot] = ev.control
	case eventOn:
		if g, ok := r.modules[ev.tag].(gate); ok {
			g.gateOn(&r.tables)
		}
	case eventOff:
		if g, ok := r.modules[ev.tag].(gate); ok {
			g.gateOff(&r.tables)
		}
	case eventSnapshot:
		for i, c := range r.tables.Controls {
			if i < len(ev.snapshot) {
				copy(ev.snapshot[i], c)
			}
		}
		select {
		case ev.reply <- ev.snapshot:
		default:
		}
	}
}

// Snapshot returns a copy of all controls, taken by the goroutine driving the
// rack at its next Flush. It fails when ctx is done before that happens. The
// copy is allocated here so that Flush only fills it in.
func (r *Rack) Snapshot(ctx context.Context) (Controls, error) {
	snapshot := make(Controls, len(r.tables.Controls))
	for i, c := range r.tables.Controls {
		snapshot[i] = make([]Control, len(c))
	}
	reply := make(chan Controls, 1)
	r.send(event{kind: eventSnapshot, snapshot: snapshot, reply: reply})
	select {
	case controls := <-reply:
		return controls, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("snapshot of rack %s: %w", r.ID(), ctx.Err())
	}
}

func (r *Rack) send(ev event) {
	r.events.push(ev)
}

// layout describes the storage a new module needs.
type layout struct {
	inputs   []Tag     // modules whose output slot 0 is read directly
	controls []Control // initial control values
	outputs  int       // number of output slots, at least one
	state    []float64 // initial state
	buffer   *RingBuffer
}

// add validates l against the modules already in the rack and appends the
// module returned by build.
func (r *Rack) add(l layout, build func(h handle) Module) (Tag, error) {
	tag := Tag(len(r.modules))
	for _, in := range l.inputs {
		if err := r.checkRef(tag, Out(in)); err != nil {
			return 0, err
		}
	}
	for _, c := range l.controls {
		if err := r.checkRef(tag, c); err != nil {
			return 0, err
		}
	}
	outputs := l.outputs
	if outputs < 1 {
		outputs = 1
	}
	m := build(handle{rack: r, tag: tag})
	r.modules = append(r.modules, m)
	r.tables.Controls = append(r.tables.Controls, append([]Control(nil), l.controls...))
	r.tables.Outputs = append(r.tables.Outputs, make([]float64, outputs))
	r.tables.State = append(r.tables.State, append([]float64(nil), l.state...))
	r.tables.Buffers = append(r.tables.Buffers, l.buffer)
	return tag, nil
}

// checkRef verifies that c, used as an input of module at, only reads modules
// appended before it.
func (r *Rack) checkRef(at Tag, c Control) error {
	tag, slot, ok := c.Target()
	if !ok {
		return nil
	}
	if tag < 0 || tag >= at || int(tag) >= len(r.modules) {
		return fmt.Errorf("module %d reads %v: %w", at, c, ErrForwardReference)
	}
	if slot < 0 || slot >= len(r.tables.Outputs[tag]) {
		return fmt.Errorf("module %d reads %v: %w", at, c, ErrNoSuchSlot)
	}
	return nil
}

// handle is embedded by every module. It ties the module to its rack so that
// accessors can queue control events.
type handle struct {
	rack *Rack
	tag  Tag
}

func (h handle) Tag() Tag { return h.tag }

func (h handle) param(slot int) Param {
	return Param{rack: h.rack, tag: h.tag, slot: slot}
}

func (h handle) on()  { h.rack.send(event{kind: eventOn, tag: h.tag}) }
func (h handle) off() { h.rack.send(event{kind: eventOff, tag: h.tag}) }

// Param addresses one control slot of a module.
type Param struct {
	rack *Rack
	tag  Tag
	slot int
}

// Set queues a new control for the slot. References are checked the same way
// they are at build time, so a param can only read modules before its own.
func (p Param) Set(c Control) error {
	if err := p.rack.checkRef(p.tag, c); err != nil {
		return err
	}
	p.rack.send(event{kind: eventControl, tag: p.tag, slot: p.slot, control: c})
	return nil
}

// SetValue queues a fixed value for the slot.
func (p Param) SetValue(v float64) {
	p.rack.send(event{kind: eventControl, tag: p.tag, slot: p.slot, control: Fixed(v)})
}

// Control returns the control currently in the slot.
func (p Param) Control() Control {
	return p.rack.tables.Controls[p.tag][p.slot]
}

// Value resolves the slot against the current outputs. Like Tables it must only
// be used from the goroutine driving the rack.
func (p Param) Value() float64 {
	return p.rack.tables.Control(p.tag, p.slot)
}

// paramSpec declares one control slot of a module kind and its default.
type paramSpec struct {
	name  string
	value float64
}

// defaults returns the initial controls of a parameter list.
func defaults(specs []paramSpec) []Control {
	controls := make([]Control, len(specs))
	for i, s := range specs {
		controls[i] = Fixed(s.value)
	}
	return controls
}

// ParamNames returns the control slot names of a module, in slot order.
func ParamNames(m Module) []string {
	n, ok := m.(interface{ params() []paramSpec })
	if !ok {
		return nil
	}
	var names []string
	for _, s := range n.params() {
		names = append(names, s.name)
	}
	return names
}
