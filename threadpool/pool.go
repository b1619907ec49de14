package threadpool

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
)

const minItemsPerWorker = 5

// Pool is a named goroutine pool used to dispatch one task per kernel
// method concurrently. Grounded on common/gopool/pool.go's default-pool
// wrapper over panjf2000/ants, generalized from a single package-level
// default pool to a named, independently-sized instance per caller (the
// optimizer names its pool "Optimizer", matching original_source's
// ThreadPool{"Optimizer"}).
type Pool struct {
	name string
	inner *ants.Pool
}

// New builds a pool sized for `capacity` concurrent goroutines. A capacity
// of 0 falls back to ants.DefaultAntsPoolSize.
func New(name string, capacity int) (*Pool, error) {
	opts := []ants.Option{ants.WithExpiryDuration(10 * time.Second)}
	if capacity <= 0 {
		capacity = ants.DefaultAntsPoolSize
	}
	inner, err := ants.NewPool(capacity, opts...)
	if err != nil {
		return nil, err
	}
	return &Pool{name: name, inner: inner}, nil
}

func (p *Pool) Name() string { return p.name }

// Submit schedules a single task onto the pool.
func (p *Pool) Submit(task func()) error {
	return p.inner.Submit(task)
}

// Running returns the number of currently running goroutines.
func (p *Pool) Running() int { return p.inner.Running() }

// Release closes the pool, waiting for in-flight tasks to finish.
func (p *Pool) Release() { p.inner.Release() }

// ScheduleAll runs fn once per item, spread across the pool's goroutines,
// and blocks until every invocation has returned -- the barrier semantics
// original_source's ThreadPool::scheduleAll provides.
func ScheduleAll[T any](p *Pool, items []T, fn func(T)) error {
	var wg sync.WaitGroup
	wg.Add(len(items))
	var firstErr error
	var mu sync.Mutex
	for _, item := range items {
		item := item
		err := p.inner.Submit(func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = panicError{r}
					}
					mu.Unlock()
				}
			}()
			fn(item)
		})
		if err != nil {
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
		}
	}
	wg.Wait()
	return firstErr
}

// Threads suggests a worker count for `tasks` items of work, matching
// gopool.Threads's sizing heuristic (5 items per worker, capped at
// runtime.NumCPU(), floored at 1).
func Threads(tasks int) int {
	threads := tasks / minItemsPerWorker
	if cpu := runtime.NumCPU(); threads > cpu {
		threads = cpu
	} else if threads == 0 {
		threads = 1
	}
	return threads
}

type panicError struct{ v interface{} }

func (e panicError) Error() string {
	return fmt.Sprintf("threadpool: task panicked: %v", e.v)
}
