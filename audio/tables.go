package audio

// Controls holds the inputs of every module, indexed by tag then slot.
type Controls [][]Control

// Outputs holds the values every module published for the current sample.
type Outputs [][]float64

// State holds private per-module scalars such as phases and filter history.
type State [][]float64

// Buffers holds the ring buffer of each module that needs one. Entries are nil
// for modules without a buffer.
type Buffers []*RingBuffer

// Resolve returns the value of c: its constant, or the output it refers to.
func (o Outputs) Resolve(c Control) float64 {
	if c.kind == controlFixed {
		return c.value
	}
	return o[c.tag][c.slot]
}

// Tables are the four stores a rack owns. Modules read and write them during
// Signal and never keep references into them.
type Tables struct {
	Controls Controls
	Outputs  Outputs
	State    State
	Buffers  Buffers
}

// Value resolves c against the current outputs.
func (t *Tables) Value(c Control) float64 {
	return t.Outputs.Resolve(c)
}

// Control resolves control slot of the module with the given tag.
func (t *Tables) Control(tag Tag, slot int) float64 {
	return t.Outputs.Resolve(t.Controls[tag][slot])
}

// Output returns output slot 0 of the module with the given tag.
func (t *Tables) Output(tag Tag) float64 {
	return t.Outputs[tag][0]
}
