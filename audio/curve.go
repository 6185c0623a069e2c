package audio

import "math"

// curve is an exponential segment through (0, lo), (0.5, mid) and (1, hi). When
// mid is halfway between lo and hi, or the three points cannot be joined by an
// exponential, it is a straight line.
type curve struct {
	lo, hi      float64
	alpha, beta float64
	linear      bool
}

func newCurve(lo, mid, hi float64) curve {
	c := curve{lo: lo, hi: hi, linear: true}
	d1 := mid - lo
	d2 := hi - mid
	den := hi - 2*mid + lo
	if math.Abs(den) < 1e-9 || d1 == 0 || d2/d1 <= 0 {
		return c
	}
	r := d2 / d1
	c.beta = d1 * d1 / den
	c.alpha = 2 * math.Log(r)
	c.linear = false
	return c
}

// at returns the curve value at x in [0, 1].
func (c curve) at(x float64) float64 {
	if c.linear {
		return c.lo + x*(c.hi-c.lo)
	}
	return c.lo + c.beta*(math.Exp(c.alpha*x)-1)
}

// inverse returns the x in [0, 1] where the curve reaches y. Values outside the
// curve's range are clamped to its ends.
func (c curve) inverse(y float64) float64 {
	if c.hi == c.lo {
		return 0
	}
	t := (y - c.lo) / (c.hi - c.lo)
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	if c.linear {
		return t
	}
	x := math.Log((y-c.lo)/c.beta+1) / c.alpha
	return math.Max(0, math.Min(1, x))
}
