package execpool

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Fepozopo/blurcore/pkg/pixbuf"
)

// TileFunc processes the rows [startRow, endRow) of a pixel buffer in
// place. Tiles are disjoint row bands, so implementations never write
// overlapping memory and need no per-pixel locking.
type TileFunc func(pix []byte, width, height, channels, startRow, endRow int)

// Options configures an execution engine.
type Options struct {
	// Workers is the thread-pool size; <= 0 means one per logical CPU.
	Workers int
	// MaxBlocks caps the memory pool; <= 0 uses the package default.
	MaxBlocks int
	// Logger may be nil.
	Logger *logrus.Logger
}

// Engine ties the worker pool and the memory pool together and runs
// tiled parallel work over images. Lifecycle: New → operations →
// Close; every operation on a closed engine returns ErrClosed.
type Engine struct {
	mu      sync.Mutex
	closed  bool
	pool    *Pool
	mem     *MemPool
	metrics Metrics
	log     *logrus.Logger
}

// New constructs an initialized engine.
func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	e := &Engine{
		pool: NewPool(opts.Workers),
		mem:  NewMemPool(opts.MaxBlocks),
		log:  logger,
	}
	e.log.WithFields(logrus.Fields{
		"workers": e.pool.Workers(),
	}).Debug("execution engine initialized")
	return e
}

// Workers returns the thread-pool size.
func (e *Engine) Workers() int { return e.pool.Workers() }

// ProcessTiled copies img into a working buffer, partitions its rows
// into Workers contiguous bands (the last band absorbs remainder
// rows), runs fn once per band on the pool, and blocks until every
// band completes. The result is a new image; the input is untouched.
// Output is invariant to the worker count.
func (e *Engine) ProcessTiled(img *pixbuf.Image, fn TileFunc) (*pixbuf.Image, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrClosed
	}
	pool, mem := e.pool, e.mem
	e.mu.Unlock()

	start := time.Now()
	size := len(img.Pix)

	// working buffer: pooled when available, direct otherwise
	var work []byte
	block, pooled := mem.Acquire(size)
	if pooled {
		work = block.Bytes(size)
		e.metrics.recordAllocation()
	} else {
		e.log.Debug("memory pool exhausted, using direct allocation")
		work = make([]byte, size)
	}
	copy(work, img.Pix)

	// one contiguous row band per worker
	workers := pool.Workers()
	if workers > img.Height {
		workers = img.Height
	}
	bandRows := img.Height / workers
	var dones []<-chan struct{}
	for i := 0; i < workers; i++ {
		startRow := i * bandRows
		endRow := startRow + bandRows
		if i == workers-1 {
			endRow = img.Height
		}
		done, err := pool.Submit(func() {
			fn(work, img.Width, img.Height, img.Channels, startRow, endRow)
		})
		if err != nil {
			// already-submitted bands run to completion; wait for them
			// before reporting the failure
			for _, d := range dones {
				<-d
			}
			if pooled {
				_ = mem.Release(block)
			}
			return nil, fmt.Errorf("execpool: submit band %d: %w", i, err)
		}
		dones = append(dones, done)
	}
	for _, d := range dones {
		<-d
	}

	out := &pixbuf.Image{Width: img.Width, Height: img.Height, Channels: img.Channels}
	if pooled {
		out.Pix = make([]byte, size)
		copy(out.Pix, work)
		_ = mem.Release(block)
	} else {
		out.Pix = work
	}

	e.metrics.recordOperation(uint64(time.Since(start).Milliseconds()))
	return out, nil
}

// RecordOperation counts one completed operation that ran outside
// ProcessTiled, so facade-level stages show up in the same report.
func (e *Engine) RecordOperation(durationMs uint64) {
	e.metrics.recordOperation(durationMs)
}

// RecordGPUOps adds n to the GPU-operation counter. The blur engine
// reports accelerated-path completions through this.
func (e *Engine) RecordGPUOps(n uint64) {
	if n > 0 {
		e.metrics.recordGPUOps(n)
	}
}

// Metrics returns a point-in-time copy of the performance counters.
func (e *Engine) Metrics() MetricsSnapshot {
	return e.metrics.snapshot()
}

// Report renders the counters as a human-readable string.
func (e *Engine) Report() string {
	return e.metrics.snapshot().report(e.mem.Len())
}

// Close drains the task queue, joins the workers and drops the memory
// pool. Idempotent.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()

	e.pool.Close()
	e.mem.Reset()
	e.log.WithField("report", e.Report()).Debug("execution engine closed")
}
