package optimize

import (
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/metrics"
)

// Profiler is the sink each pass action is bracketed against: Start/End
// around the action itself, plus before/after instruction-count counters
// keyed by a stable offset derived from catalog position. Grounded on
// ethdb/metrics.go's package-level metrics.NewRegisteredTimer/Counter
// convention, generalized here to named, dynamically-registered instruments
// since the pass set (and therefore the set of names) is only known once the
// catalog is built.
type Profiler interface {
	Start(name string)
	End(name string)
	Counter(key int, name string, value int64)
	CounterWithPrev(key int, name string, value int64, prevKey int)
}

// MetricsProfiler is the default Profiler sink, wrapping
// github.com/ethereum/go-ethereum/metrics. Internally thread-safe (spec §5
// requires this): go-ethereum's metrics.Timer/Counter are themselves
// concurrency-safe, and the name->instrument maps are guarded by a mutex
// since passes for different methods run concurrently on the thread pool and
// may touch the same pass name simultaneously.
type MetricsProfiler struct {
	prefix string

	mu         sync.Mutex
	starts     map[string]time.Time
	timers     map[string]metrics.Timer
	counters   map[int]metrics.Counter
	lastValues map[int]int64
}

// NewMetricsProfiler builds a profiler registering instruments under
// "<prefix>/<name>".
func NewMetricsProfiler(prefix string) *MetricsProfiler {
	return &MetricsProfiler{
		prefix:     prefix,
		starts:     make(map[string]time.Time),
		timers:     make(map[string]metrics.Timer),
		counters:   make(map[int]metrics.Counter),
		lastValues: make(map[int]int64),
	}
}

func (p *MetricsProfiler) timerFor(name string) metrics.Timer {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.timers[name]
	if !ok {
		t = metrics.NewRegisteredTimer(fmt.Sprintf("%s/%s/time", p.prefix, name), nil)
		p.timers[name] = t
	}
	return t
}

func (p *MetricsProfiler) counterFor(key int, name string) metrics.Counter {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.counters[key]
	if !ok {
		c = metrics.NewRegisteredCounter(fmt.Sprintf("%s/%s/%d", p.prefix, name, key), nil)
		p.counters[key] = c
	}
	return c
}

// Start records the wall-clock time a bracketed action began.
func (p *MetricsProfiler) Start(name string) {
	p.mu.Lock()
	p.starts[name] = time.Now()
	p.mu.Unlock()
}

// End updates the named timer with the elapsed time since the matching
// Start. A End with no matching Start is a no-op -- happens only if a caller
// mismatches bracket calls, which the pass driver itself never does.
func (p *MetricsProfiler) End(name string) {
	p.mu.Lock()
	started, ok := p.starts[name]
	if ok {
		delete(p.starts, name)
	}
	p.mu.Unlock()
	if !ok {
		return
	}
	p.timerFor(name).UpdateSince(started)
}

// Counter records a single value (e.g. the method's instruction count
// before or after a pass) and remembers it as the last value under `key`
// for a later CounterWithPrev.
func (p *MetricsProfiler) Counter(key int, name string, value int64) {
	p.mu.Lock()
	p.lastValues[key] = value
	p.mu.Unlock()
	p.counterFor(key, name).Inc(value)
}

// CounterWithPrev records `value` under `key` and additionally logs the
// delta against the last value recorded under `prevKey` -- the before/after
// instruction-count pairing every pass is bracketed with.
func (p *MetricsProfiler) CounterWithPrev(key int, name string, value int64, prevKey int) {
	p.mu.Lock()
	prev := p.lastValues[prevKey]
	p.lastValues[key] = value
	p.mu.Unlock()

	p.counterFor(key, name).Inc(value)
	p.counterFor(key, name+"/delta").Inc(value - prev)
}

// discardProfiler is used where a caller builds an Optimizer without wiring
// a Profiler.
type discardProfiler struct{}

func (discardProfiler) Start(string)                            {}
func (discardProfiler) End(string)                               {}
func (discardProfiler) Counter(int, string, int64)               {}
func (discardProfiler) CounterWithPrev(int, string, int64, int) {}
