package audio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// sequence plays back fixed values, one per sample, and then holds the last.
type sequence struct {
	handle
	values []float64
}

func addSequence(t *testing.T, r *Rack, values ...float64) *sequence {
	t.Helper()
	var s *sequence
	_, err := r.add(layout{state: []float64{0}}, func(h handle) Module {
		s = &sequence{handle: h, values: values}
		return s
	})
	require.NoError(t, err)
	return s
}

func addConstant(t *testing.T, r *Rack, v float64) *sequence {
	return addSequence(t, r, v)
}

func addImpulse(t *testing.T, r *Rack) *sequence {
	return addSequence(t, r, 1, 0)
}

func (s *sequence) Signal(t *Tables, _ float64) {
	st := t.State[s.tag]
	i := int(st[0])
	if i >= len(s.values) {
		i = len(s.values) - 1
	} else {
		st[0]++
	}
	t.Outputs[s.tag][0] = s.values[i]
}

// render runs the rack for n samples and collects the output of tag.
func render(r *Rack, tag Tag, n int, sampleRate float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		r.Flush()
		r.Mono(sampleRate)
		out[i] = r.Tables().Output(tag)
	}
	return out
}
