package optimize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricsProfilerStartEndRoundTripDoesNotPanic(t *testing.T) {
	p := NewMetricsProfiler("vc4c/test")
	assert.NotPanics(t, func() {
		p.Start("pass-a")
		p.End("pass-a")
	})
}

func TestMetricsProfilerEndWithoutStartIsNoOp(t *testing.T) {
	p := NewMetricsProfiler("vc4c/test")
	assert.NotPanics(t, func() { p.End("never-started") })
}

func TestMetricsProfilerCounterWithPrevTracksDelta(t *testing.T) {
	p := NewMetricsProfiler("vc4c/test")
	assert.NotPanics(t, func() {
		p.Counter(0, "pass-b/before", 10)
		p.CounterWithPrev(1, "pass-b/after", 6, 0)
	})
}

func TestDiscardProfilerNeverPanics(t *testing.T) {
	var p Profiler = discardProfiler{}
	assert.NotPanics(t, func() {
		p.Start("x")
		p.Counter(0, "x", 1)
		p.CounterWithPrev(1, "x", 2, 0)
		p.End("x")
	})
}
