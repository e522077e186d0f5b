// Package execpool provides the execution layer shared by the
// processing stages: a bounded worker pool, a reusable block memory
// pool, row-band tiled parallel execution over pixel buffers, and
// running performance counters.
package execpool

import (
	"errors"
	"runtime"
	"sync"
)

// ErrClosed is returned by any operation on a closed pool or engine.
var ErrClosed = errors.New("execpool: closed")

// Pool is a fixed set of worker goroutines consuming a shared task
// queue. Once submitted, a task always runs to completion; there is no
// cancellation. The only teardown path is Close, which drains the
// queue and joins every worker.
type Pool struct {
	mu     sync.Mutex
	tasks  chan func()
	wg     sync.WaitGroup
	closed bool
	size   int
}

// NewPool starts workers goroutines. workers <= 0 means one worker per
// logical CPU.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	p := &Pool{
		tasks: make(chan func(), workers*2),
		size:  workers,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for task := range p.tasks {
				task()
			}
		}()
	}
	return p
}

// Workers returns the worker count.
func (p *Pool) Workers() int { return p.size }

// Submit enqueues fn and returns a channel that is closed when fn has
// finished. Submitting to a closed pool fails with ErrClosed.
func (p *Pool) Submit(fn func()) (<-chan struct{}, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	done := make(chan struct{})
	p.tasks <- func() {
		defer close(done)
		fn()
	}
	p.mu.Unlock()
	return done, nil
}

// Close drains the queue and joins all workers. Idempotent.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()
	p.wg.Wait()
}
