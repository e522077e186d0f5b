package execpool

import (
	"sync/atomic"
	"testing"
)

func TestPoolRunsSubmittedTasks(t *testing.T) {
	p := NewPool(4)
	defer p.Close()

	var n int64
	var dones []<-chan struct{}
	for i := 0; i < 20; i++ {
		done, err := p.Submit(func() { atomic.AddInt64(&n, 1) })
		if err != nil {
			t.Fatalf("submit failed: %v", err)
		}
		dones = append(dones, done)
	}
	for _, d := range dones {
		<-d
	}
	if got := atomic.LoadInt64(&n); got != 20 {
		t.Fatalf("ran %d tasks, want 20", got)
	}
}

func TestPoolDefaultsWorkerCount(t *testing.T) {
	p := NewPool(0)
	defer p.Close()
	if p.Workers() < 1 {
		t.Fatalf("worker count = %d", p.Workers())
	}
}

func TestPoolSubmitAfterClose(t *testing.T) {
	p := NewPool(2)
	p.Close()
	if _, err := p.Submit(func() {}); err != ErrClosed {
		t.Fatalf("submit after close = %v, want ErrClosed", err)
	}
	// close is idempotent
	p.Close()
}

func TestPoolCloseDrainsQueue(t *testing.T) {
	p := NewPool(1)
	var n int64
	for i := 0; i < 8; i++ {
		if _, err := p.Submit(func() { atomic.AddInt64(&n, 1) }); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}
	p.Close()
	if got := atomic.LoadInt64(&n); got != 8 {
		t.Fatalf("close lost tasks: ran %d of 8", got)
	}
}
