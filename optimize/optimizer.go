package optimize

import (
	"runtime"

	"github.com/pfoof/VC4C/ir"
	"github.com/pfoof/VC4C/threadpool"
)

// Optimizer holds the three phase-ordered, level/enable/disable-resolved
// pass vectors plus the ambient sinks every pass action is bracketed
// against. Built once via New and reused across every kernel of a module --
// grounded on original_source's Optimizer, whose constructor resolves the
// same three vectors from the same Configuration shape.
type Optimizer struct {
	config Configuration

	initial []OptimizationPass
	repeat  []OptimizationPass
	final   []OptimizationPass

	logger   Logger
	profiler Profiler
	cache    *MethodCache
	pool     *threadpool.Pool
}

// New resolves Configuration against Catalog and LevelPresets into the
// three phase vectors, in catalog order within each phase (spec.md §8's
// phase-ordering invariant). Disabled always wins over level-enabled, which
// always wins over "not present anywhere" -- satisfying the disabled-
// override scenario of spec.md §8 regardless of level.
func New(config Configuration) (*Optimizer, error) {
	enabled := make(map[string]struct{})
	for name := range LevelPresets[config.OptimizationLevel] {
		enabled[name] = struct{}{}
	}
	for name := range config.AdditionalEnabledOptimizations {
		enabled[name] = struct{}{}
	}
	for name := range config.AdditionalDisabledOptimizations {
		delete(enabled, name)
	}

	o := &Optimizer{
		config:   config,
		logger:   NewEthLogger(LevelInfo),
		profiler: NewMetricsProfiler("vc4c/optimizer"),
		cache:    NewMethodCache(0),
	}

	for _, pass := range Catalog {
		if _, ok := enabled[pass.Name]; !ok {
			continue
		}
		switch pass.Phase {
		case PhaseInitial:
			o.initial = append(o.initial, pass)
		case PhaseRepeat:
			o.repeat = append(o.repeat, pass)
		case PhaseFinal:
			o.final = append(o.final, pass)
		default:
			return nil, ir.NewUnknownPassPhase(ir.StageOptimizer, pass.Phase)
		}
	}

	pool, err := threadpool.New("Optimizer", runtime.NumCPU())
	if err != nil {
		return nil, err
	}
	o.pool = pool
	return o, nil
}

// SetLogger overrides the default EthLogger sink.
func (o *Optimizer) SetLogger(l Logger) { o.logger = l }

// SetProfiler overrides the default MetricsProfiler sink.
func (o *Optimizer) SetProfiler(p Profiler) { o.profiler = p }

// SetCache replaces the method cache (tests build their own small instance).
func (o *Optimizer) SetCache(c *MethodCache) { o.cache = c }

// Release tears down the Optimizer's internal thread pool.
func (o *Optimizer) Release() {
	if o.pool != nil {
		o.pool.Release()
	}
}

// Optimize runs the pass driver over every kernel of `module`, one task per
// method dispatched onto the thread pool with barrier semantics -- it
// returns once every kernel has either finished or failed. Grounded on
// Optimizer::optimize's ThreadPool{"Optimizer"}.scheduleAll(kernels, ...).
type kernelTask struct {
	method *ir.Method
	slot   *error
}

func (o *Optimizer) Optimize(module *ir.Module) error {
	kernels := module.Kernels()
	errs := make([]error, len(kernels))
	tasks := make([]kernelTask, len(kernels))
	for i, k := range kernels {
		tasks[i] = kernelTask{method: k, slot: &errs[i]}
	}
	err := threadpool.ScheduleAll(o.pool, tasks, func(t kernelTask) {
		*t.slot = o.optimizeMethod(t.method)
	})
	if err != nil {
		return err
	}
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

// runPass brackets one pass action with profiler calls. The before/after
// counter keys are 2*i and 2*i+1, where i is the pass's position in
// Catalog; a pass not in Catalog uses `index` instead.
func (o *Optimizer) runPass(m *ir.Method, p OptimizationPass, index int) (bool, error) {
	key := index
	for ci, cp := range Catalog {
		if cp.Name == p.Name {
			key = ci
			break
		}
	}
	o.profiler.Start(p.Name)
	before := int64(m.CountInstructions())
	changed, err := p.Action(m)
	after := int64(m.CountInstructions())
	o.profiler.Counter(key*2, p.Name+"/before", before)
	o.profiler.CounterWithPrev(key*2+1, p.Name+"/after", after, key*2)
	o.profiler.End(p.Name)
	if err != nil {
		o.logger.Warn("pass failed", "pass", p.Name, "method", m.Name, "err", err)
		return false, err
	}
	o.logger.LogLazy(LevelDebug, func() (string, []any) {
		return "ran pass", []any{"pass", p.Name, "method", m.Name, "changed", changed, "instructions", after}
	})
	return changed, nil
}

// optimizeMethod runs the driver algorithm of spec.md §4.4 against one
// method: initial passes once, repeat passes to a fixed point (or the
// iteration cap), final passes once. A cache hit on the method's
// pre-optimization content hash skips the whole driver.
func (o *Optimizer) optimizeMethod(m *ir.Method) error {
	hash := o.cache.Hash(m)
	if cached, ok := o.cache.Get(hash); ok {
		o.logger.Debug("method cache hit", "method", m.Name, "instructions", cached.InstructionCount)
		return nil
	}

	trace := make([]string, 0, len(o.initial)+len(o.repeat)+len(o.final))
	record := func(name string, changed bool) {
		if changed {
			trace = append(trace, name)
		}
	}

	for i, p := range o.initial {
		changed, err := o.runPass(m, p, i)
		if err != nil {
			return err
		}
		record(p.Name, changed)
	}

	if n := len(o.repeat); n > 0 {
		cap := o.config.AdditionalOptions.MaxOptimizationIterations
		lastChanging := n - 1
		iterations := uint(0)
		for {
			if cap > 0 && iterations >= cap {
				if o.config.OptimizationLevel != LevelNone {
					o.logger.Warn("optimization iteration cap reached", "method", m.Name, "cap", cap)
				}
				break
			}
			stop := false
			for idx, p := range o.repeat {
				changed, err := o.runPass(m, p, len(o.initial)+idx)
				if err != nil {
					return err
				}
				record(p.Name, changed)
				if changed {
					lastChanging = idx
				} else if lastChanging == idx {
					stop = true
				}
				if stop {
					break
				}
			}
			iterations++
			if stop {
				break
			}
		}
	}

	for i, p := range o.final {
		changed, err := o.runPass(m, p, len(o.initial)+len(o.repeat)+i)
		if err != nil {
			return err
		}
		record(p.Name, changed)
	}

	o.cache.Store(hash, CachedResult{InstructionCount: m.CountInstructions(), Trace: trace})
	return nil
}
