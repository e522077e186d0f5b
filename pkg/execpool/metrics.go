package execpool

import (
	"fmt"
	"sync/atomic"
)

// Metrics holds monotonic performance counters. All fields are updated
// atomically; read a consistent copy with Snapshot.
type Metrics struct {
	totalOperations   uint64
	totalProcessingMs uint64
	memoryAllocations uint64
	gpuOperations     uint64
}

// MetricsSnapshot is a point-in-time copy of the counters, read-only
// to callers.
type MetricsSnapshot struct {
	TotalOperations   uint64
	TotalProcessingMs uint64
	MemoryAllocations uint64
	GPUOperations     uint64
}

// AverageProcessingMs is the mean wall time per recorded operation.
func (s MetricsSnapshot) AverageProcessingMs() float64 {
	if s.TotalOperations == 0 {
		return 0
	}
	return float64(s.TotalProcessingMs) / float64(s.TotalOperations)
}

func (m *Metrics) recordOperation(durationMs uint64) {
	atomic.AddUint64(&m.totalOperations, 1)
	atomic.AddUint64(&m.totalProcessingMs, durationMs)
}

func (m *Metrics) recordAllocation() {
	atomic.AddUint64(&m.memoryAllocations, 1)
}

func (m *Metrics) recordGPUOps(n uint64) {
	atomic.AddUint64(&m.gpuOperations, n)
}

func (m *Metrics) snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		TotalOperations:   atomic.LoadUint64(&m.totalOperations),
		TotalProcessingMs: atomic.LoadUint64(&m.totalProcessingMs),
		MemoryAllocations: atomic.LoadUint64(&m.memoryAllocations),
		GPUOperations:     atomic.LoadUint64(&m.gpuOperations),
	}
}

func (s MetricsSnapshot) report(poolSize int) string {
	return fmt.Sprintf(
		"Performance Report:\n"+
			"Total Operations: %d\n"+
			"Average Processing Time: %.2fms\n"+
			"Memory Pool Size: %d\n"+
			"GPU Operations: %d\n"+
			"Memory Allocations: %d",
		s.TotalOperations, s.AverageProcessingMs(), poolSize,
		s.GPUOperations, s.MemoryAllocations)
}
