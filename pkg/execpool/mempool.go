package execpool

import (
	"errors"
	"sync"
)

const (
	// BlockSize is the default size of a pooled buffer.
	BlockSize = 4 * 1024 * 1024
	// MaxBlocks caps how many blocks the pool keeps resident. Once the
	// cap is reached and every block is busy, callers fall back to
	// direct allocation.
	MaxBlocks = 32
)

// ErrBlockReleased is returned when a block is released twice, or when
// a block that never came from this pool is handed back.
var ErrBlockReleased = errors.New("execpool: block is not acquired")

// Block is a pooled buffer. Borrowers must hand it back exactly once
// via MemPool.Release; the pool is the sole authority on reuse.
type Block struct {
	buf   []byte
	inUse bool
}

// Bytes returns the first size bytes of the block's buffer.
func (b *Block) Bytes(size int) []byte { return b.buf[:size] }

// MemPool hands out reusable fixed-size buffers to avoid per-call
// allocation churn. All state is guarded by one mutex; blocks are
// never shared between two in-flight borrowers.
type MemPool struct {
	mu        sync.Mutex
	blocks    []*Block
	maxBlocks int
}

// NewMemPool creates a pool holding at most maxBlocks blocks.
// maxBlocks <= 0 uses MaxBlocks.
func NewMemPool(maxBlocks int) *MemPool {
	if maxBlocks <= 0 {
		maxBlocks = MaxBlocks
	}
	return &MemPool{maxBlocks: maxBlocks}
}

// Acquire returns a block whose buffer holds at least size bytes, or
// (nil, false) when the pool is exhausted and the caller should
// allocate directly.
func (m *MemPool) Acquire(size int) (*Block, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, b := range m.blocks {
		if !b.inUse && len(b.buf) >= size {
			b.inUse = true
			return b, true
		}
	}
	if len(m.blocks) < m.maxBlocks {
		n := size
		if n < BlockSize {
			n = BlockSize
		}
		b := &Block{buf: make([]byte, n), inUse: true}
		m.blocks = append(m.blocks, b)
		return b, true
	}
	return nil, false
}

// Release returns a block to the pool. Releasing a block twice is a
// defined error, not undefined behavior.
func (m *MemPool) Release(b *Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, got := range m.blocks {
		if got == b {
			if !got.inUse {
				return ErrBlockReleased
			}
			got.inUse = false
			return nil
		}
	}
	return ErrBlockReleased
}

// Len returns the number of resident blocks.
func (m *MemPool) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blocks)
}

// Reset drops every block, busy or not. Only called on engine
// teardown, after the task queue has drained.
func (m *MemPool) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocks = nil
}
