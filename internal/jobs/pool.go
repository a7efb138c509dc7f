// Package jobs runs data-parallel tasks on a bounded set of workers and
// chains them through completion handles.
package jobs

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Pool bounds how many task bodies run at once across every job scheduled
// on it.
type Pool struct {
	workers int
	tokens  chan struct{}
}

// NewPool creates a pool of the given size; non-positive sizes use
// GOMAXPROCS.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pool{
		workers: workers,
		tokens:  make(chan struct{}, workers),
	}
}

func (p *Pool) Workers() int {
	return p.workers
}

// Handle signals completion of a scheduled job.
type Handle struct {
	done chan struct{}
}

func newHandle() *Handle {
	return &Handle{done: make(chan struct{})}
}

// Completed returns a handle that is already done.
func Completed() *Handle {
	h := newHandle()
	close(h.done)
	return h
}

// Done polls the handle without blocking.
func (h *Handle) Done() bool {
	if h == nil {
		return true
	}
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the job has finished.
func (h *Handle) Wait() {
	if h == nil {
		return
	}
	<-h.done
}

// C exposes the completion channel for select loops.
func (h *Handle) C() <-chan struct{} {
	return h.done
}

// Schedule runs fn once after every dependency has completed.
func (p *Pool) Schedule(fn func(), deps ...*Handle) *Handle {
	return p.ScheduleParallel(1, func(int) { fn() }, deps...)
}

// ScheduleParallel runs fn(worker) for worker in [0, n) after every
// dependency has completed. The returned handle completes when all n calls
// have returned.
func (p *Pool) ScheduleParallel(n int, fn func(worker int), deps ...*Handle) *Handle {
	h := newHandle()
	go func() {
		defer close(h.done)
		for _, dep := range deps {
			dep.Wait()
		}
		var g errgroup.Group
		g.SetLimit(p.workers)
		for worker := range n {
			g.Go(func() error {
				p.tokens <- struct{}{}
				defer func() { <-p.tokens }()
				fn(worker)
				return nil
			})
		}
		_ = g.Wait()
	}()
	return h
}

// Chunk splits n items into parts contiguous ranges and returns the range of
// part. The last part takes the remainder.
func Chunk(n, parts, part int) (lo, hi int) {
	if parts <= 0 {
		return 0, n
	}
	size := n / parts
	lo = part * size
	hi = lo + size
	if part == parts-1 {
		hi = n
	}
	return lo, hi
}
