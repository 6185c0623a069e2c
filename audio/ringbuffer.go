package audio

import "math"

// interpMargin is the number of samples a cubic read needs beyond the delay.
const interpMargin = 3

// RingBuffer is a circular sample store read at fractional delays. Delays are
// measured in samples behind the most recently pushed value.
type RingBuffer struct {
	buf   []float64
	write int // index of the latest sample
}

// NewRingBuffer returns a buffer holding n samples, all zero.
func NewRingBuffer(n int) *RingBuffer {
	if n < 1 {
		n = 1
	}
	return &RingBuffer{buf: make([]float64, n), write: n - 1}
}

// Len returns the capacity.
func (b *RingBuffer) Len() int { return len(b.buf) }

// Push appends v, overwriting the oldest sample.
func (b *RingBuffer) Push(v float64) {
	b.write++
	if b.write == len(b.buf) {
		b.write = 0
	}
	b.buf[b.write] = v
}

// Get returns the sample pushed k steps before the latest one. Negative k
// reads the latest sample.
func (b *RingBuffer) Get(k int) float64 {
	if k < 0 {
		k = 0
	}
	n := len(b.buf)
	i := (b.write - k) % n
	if i < 0 {
		i += n
	}
	return b.buf[i]
}

// ReadLinear reads at a fractional delay using two point interpolation.
func (b *RingBuffer) ReadLinear(delay float64) float64 {
	i, f := splitDelay(delay)
	x0 := b.Get(i)
	x1 := b.Get(i + 1)
	return x0 + f*(x1-x0)
}

// ReadCubic reads at a fractional delay with four point Hermite interpolation
// over the neighbours i-1, i, i+1, i+2.
func (b *RingBuffer) ReadCubic(delay float64) float64 {
	i, f := splitDelay(delay)
	xm1 := b.Get(i - 1)
	x0 := b.Get(i)
	x1 := b.Get(i + 1)
	x2 := b.Get(i + 2)
	return hermite(f, xm1, x0, x1, x2)
}

func splitDelay(delay float64) (int, float64) {
	if delay < 0 {
		delay = 0
	}
	i := math.Floor(delay)
	return int(i), delay - i
}

// hermite interpolates between x0 and x1 with Catmull-Rom tangents. The
// tangents are zero when x0 and x1 are equal, so a read between two equal
// samples returns their value whatever the outer neighbours are.
func hermite(f, xm1, x0, x1, x2 float64) float64 {
	if x0 == x1 {
		return x0
	}
	m0 := 0.5 * (x1 - xm1)
	m1 := 0.5 * (x2 - x0)
	c2 := 3*(x1-x0) - 2*m0 - m1
	c3 := 2*(x0-x1) + m0 + m1
	return ((c3*f+c2)*f+m0)*f + x0
}

// Resize grows the buffer to n samples. It never shrinks. Samples already in
// the buffer stay readable at the same delay; delays past the old capacity
// read zeros until the buffer fills up again.
func (b *RingBuffer) Resize(n int) {
	old := len(b.buf)
	if n <= old {
		return
	}
	buf := make([]float64, n)
	for k := 0; k < old; k++ {
		buf[old-1-k] = b.Get(k)
	}
	b.buf = buf
	b.write = old - 1
}

// Reserve makes sure a cubic read at delay stays inside the buffer and reports
// whether the buffer had to grow.
func (b *RingBuffer) Reserve(delay float64) bool {
	need := int(math.Ceil(delay)) + interpMargin
	if need <= len(b.buf) {
		return false
	}
	b.Resize(need)
	return true
}
