package router

import "sync"

// GrowableBuffer is an unbounded FIFO shared between registry callbacks
// (producers) and archive writers (consumers). Push never blocks, so a slow
// database cannot stall a connection's event goroutine.
type GrowableBuffer[T any] struct {
	mu     sync.Mutex
	items  []T
	head   int
	closed bool
	ready  chan struct{}

	// Stats
	pushed  int64
	drained int64
	peak    int
}

// NewGrowableBuffer creates a buffer with room for initialCapacity items
// before its first reallocation.
func NewGrowableBuffer[T any](initialCapacity int) *GrowableBuffer[T] {
	if initialCapacity < 1 {
		initialCapacity = 1
	}
	return &GrowableBuffer[T]{
		items: make([]T, 0, initialCapacity),
		ready: make(chan struct{}, 1),
	}
}

// Push appends an item. It returns false if the buffer is closed.
func (b *GrowableBuffer[T]) Push(item T) bool {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return false
	}

	// Reclaim the consumed prefix before append has to grow the array.
	if len(b.items) == cap(b.items) && b.head > 0 {
		n := copy(b.items, b.items[b.head:])
		clear(b.items[n:])
		b.items = b.items[:n]
		b.head = 0
	}

	b.items = append(b.items, item)
	b.pushed++
	if n := len(b.items) - b.head; n > b.peak {
		b.peak = n
	}
	b.mu.Unlock()

	b.signal()
	return true
}

// Ready is signalled after a Push and on Close. A consumer that wakes up
// must drain until DrainTo returns nothing.
func (b *GrowableBuffer[T]) Ready() <-chan struct{} {
	return b.ready
}

func (b *GrowableBuffer[T]) signal() {
	select {
	case b.ready <- struct{}{}:
	default:
	}
}

// DrainTo removes up to max items in FIFO order. max <= 0 drains everything.
func (b *GrowableBuffer[T]) DrainTo(max int) []T {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(b.items) - b.head
	if n == 0 {
		return nil
	}
	if max > 0 && max < n {
		n = max
	}

	out := make([]T, n)
	copy(out, b.items[b.head:b.head+n])
	clear(b.items[b.head : b.head+n])
	b.head += n
	b.drained += int64(n)

	if b.head == len(b.items) {
		b.items = b.items[:0]
		b.head = 0
	}
	return out
}

// Close stops accepting items. Buffered items can still be drained.
func (b *GrowableBuffer[T]) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.signal()
}

// Closed reports whether Close has been called.
func (b *GrowableBuffer[T]) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Len returns the number of buffered items.
func (b *GrowableBuffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items) - b.head
}

// Stats returns buffer statistics.
func (b *GrowableBuffer[T]) Stats() BufferStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BufferStats{
		Count:   len(b.items) - b.head,
		Pushed:  b.pushed,
		Drained: b.drained,
		Peak:    b.peak,
	}
}

// BufferStats contains buffer statistics.
type BufferStats struct {
	Count   int
	Pushed  int64
	Drained int64
	Peak    int
}
