package sink

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type constantSource float32

func (c constantSource) Process(samples [][]float32) {
	for i := range samples {
		for j := range samples[i] {
			samples[i][j] += float32(c)
		}
	}
}

type tickCounter struct {
	ticks []int
	order *[]string
}

func (t *tickCounter) Tick(numSamples int) {
	t.ticks = append(t.ticks, numSamples)
	*t.order = append(*t.order, "tick")
}

type orderedSource struct {
	order *[]string
}

func (s orderedSource) Process([][]float32) {
	*s.order = append(*s.order, "source")
}

func TestBus(t *testing.T) {
	var order []string
	ticker := &tickCounter{order: &order}

	var bus Bus
	bus.AddSources(constantSource(0.25), orderedSource{&order}, constantSource(0.5))
	bus.AddTicker(ticker)

	samples := [][]float32{{9, 9, 9}, {9, 9, 9}}
	bus.Process(samples)

	assert.Equal(t, [][]float32{{0.75, 0.75, 0.75}, {0.75, 0.75, 0.75}}, samples)
	assert.Equal(t, []int{3}, ticker.ticks)
	assert.Equal(t, []string{"tick", "source"}, order)

	bus.Process(nil)
	assert.Equal(t, []int{3}, ticker.ticks, "nothing to render")
}
