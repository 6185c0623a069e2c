package audio

import "fmt"

// Tag identifies a module within a rack. Tags are handed out in append order
// starting at zero and are never reused.
type Tag int

type controlKind uint8

const (
	controlFixed controlKind = iota
	controlRef
)

// Control is a module input. It is either a fixed value or a reference to an
// output slot of another module.
type Control struct {
	kind  controlKind
	value float64
	tag   Tag
	slot  int
}

// Fixed returns a control with a constant value.
func Fixed(v float64) Control {
	return Control{kind: controlFixed, value: v}
}

// Ref returns a control that reads output slot of the module with the given tag.
func Ref(tag Tag, slot int) Control {
	return Control{kind: controlRef, tag: tag, slot: slot}
}

// Out is shorthand for Ref(tag, 0).
func Out(tag Tag) Control {
	return Ref(tag, 0)
}

// IsFixed reports whether c holds a constant.
func (c Control) IsFixed() bool { return c.kind == controlFixed }

// Target returns the referenced tag and slot. ok is false for fixed controls.
func (c Control) Target() (tag Tag, slot int, ok bool) {
	return c.tag, c.slot, c.kind == controlRef
}

func (c Control) String() string {
	if c.kind == controlFixed {
		return fmt.Sprintf("%.4g", c.value)
	}
	if c.slot == 0 {
		return fmt.Sprintf("#%d", c.tag)
	}
	return fmt.Sprintf("#%d.%d", c.tag, c.slot)
}
