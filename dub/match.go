package dub

import "fmt"

// matchItem is one level of a match expression. Level 0 counts beats, every
// level below divides the notes of the one above in two.
type matchItem struct {
	level   int
	matcher matcher
}

// matcher reports whether a note matches. Notes are numbered from 1: beats
// within the bar at level 0, subdivisions within their beat below that.
type matcher interface {
	match(n int) bool
}

// rangeMatch matches start to end inclusive. -1 leaves a side open.
type rangeMatch struct {
	start, end int
}

func (r rangeMatch) match(n int) bool {
	return (r.start == -1 || n >= r.start) && (r.end == -1 || n <= r.end)
}

var matchAll = rangeMatch{-1, -1}

type listMatch []int

func (l listMatch) match(n int) bool {
	for _, k := range l {
		if k == n {
			return true
		}
	}
	return false
}

// Steps expands the expression over a bar of beats notes of length 1/unit,
// divided into steps of 1/stepSize notes. The result has one entry per step:
// 1 where a note of the deepest level starts and every level matches, 0
// elsewhere.
//
// In 4/4 with 16 steps '2,4/* matches every eighth note of beats two and four.
func (expr MatchExpr) Steps(beats, unit, stepSize int) ([]int, error) {
	if beats <= 0 || unit <= 0 || stepSize < unit || stepSize%unit != 0 {
		return nil, fmt.Errorf("can't divide %d/%d into steps of 1/%d", beats, unit, stepSize)
	}
	steps := make([]int, stepSize/unit*beats)
	if len(expr.matchers) == 0 {
		return steps, nil
	}

	// number of steps in one note of each level
	noteSteps := make([]int, len(expr.matchers))
	for i, item := range expr.matchers {
		notes := unit << item.level
		if notes > stepSize {
			return nil, fmt.Errorf("can't match on %d notes with step size %d", notes, stepSize)
		}
		noteSteps[i] = stepSize / notes
	}

	deepest := noteSteps[len(noteSteps)-1]
	for s := 0; s < len(steps); s += deepest {
		if expr.matches(s, noteSteps) {
			steps[s] = 1
		}
	}
	return steps, nil
}

// matches reports whether step s lies in a matching note on every level.
func (expr MatchExpr) matches(s int, noteSteps []int) bool {
	for i, item := range expr.matchers {
		note := s / noteSteps[i]
		if perBeat := 1 << item.level; perBeat > 1 {
			note %= perBeat
		}
		if !item.matcher.match(note + 1) {
			return false
		}
	}
	return true
}
