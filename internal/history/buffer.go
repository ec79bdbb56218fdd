// internal/history/buffer.go

// Package history provides a fixed-capacity, thread-safe ring buffer used to
// cap memory for captured console and network history. Once full, appending
// overwrites the oldest entry.
package history

import "sync"

// Buffer is a bounded ring buffer of T. The capacity is fixed at
// construction; Append never blocks and never grows the buffer.
type Buffer[T any] struct {
	mu    sync.Mutex
	items []T
	head  int // index of the oldest entry
	count int
}

// NewBuffer creates a buffer holding at most capacity entries.
// A non-positive capacity panics; the callers decide capacity at wiring
// time and a zero-capacity history buffer is always a programming error.
func NewBuffer[T any](capacity int) *Buffer[T] {
	if capacity <= 0 {
		panic("history: capacity must be positive")
	}
	return &Buffer[T]{items: make([]T, capacity)}
}

// Append inserts v, evicting the oldest entry when the buffer is full.
func (b *Buffer[T]) Append(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count < len(b.items) {
		b.items[(b.head+b.count)%len(b.items)] = v
		b.count++
		return
	}
	// Full: overwrite the oldest slot and advance the head.
	b.items[b.head] = v
	b.head = (b.head + 1) % len(b.items)
}

// Snapshot returns the buffered entries in chronological insertion order,
// oldest first, regardless of the internal wrap position. The returned
// slice is a copy and safe to retain.
func (b *Buffer[T]) Snapshot() []T {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]T, b.count)
	for i := 0; i < b.count; i++ {
		out[i] = b.items[(b.head+i)%len(b.items)]
	}
	return out
}

// Len reports the number of entries currently held.
func (b *Buffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Cap reports the fixed capacity.
func (b *Buffer[T]) Cap() int {
	return len(b.items)
}

// Clear discards all entries without changing the capacity.
func (b *Buffer[T]) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.head = 0
	b.count = 0
	var zero T
	for i := range b.items {
		b.items[i] = zero
	}
}
