// internal/pending/table.go

// Package pending implements the in-flight request table shared by both
// protocol clients. Every outstanding command is represented by a Handle
// with a single-assignment completion slot; whichever of {matching
// response, timeout, connection teardown} fires first wins, and any later
// attempt to resolve the same handle is a no-op.
package pending

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTimeout is returned by Handle.Wait when no reply arrived within the
// deadline given to Register. The connection itself is still usable.
var ErrTimeout = errors.New("pending: command timed out waiting for reply")

type outcome[V any] struct {
	val V
	err error
}

// Handle is the completion slot for one outstanding command. It is
// created by Table.Register and resolved exactly once.
type Handle[V any] struct {
	once  sync.Once
	done  chan outcome[V]
	timer *time.Timer
}

func (h *Handle[V]) complete(v V, err error) {
	h.once.Do(func() {
		if h.timer != nil {
			h.timer.Stop()
		}
		h.done <- outcome[V]{val: v, err: err}
	})
}

// Wait blocks until the handle resolves or ctx is done. A handle always
// resolves eventually: the registration deadline guarantees an ErrTimeout
// even if the peer never answers.
func (h *Handle[V]) Wait(ctx context.Context) (V, error) {
	select {
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	case o := <-h.done:
		return o.val, o.err
	}
}

// Table maps in-flight request keys to their completion handles. A single
// handle may be reachable under several keys (the actor protocol registers
// a fallback key for replies that omit their type field); resolving through
// any key purges every key pointing at the same handle.
type Table[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*Handle[V]
}

// NewTable creates an empty table.
func NewTable[K comparable, V any]() *Table[K, V] {
	return &Table[K, V]{entries: make(map[K]*Handle[V])}
}

// Register creates a handle reachable under key. When timeout elapses
// before the handle resolves, it is failed with ErrTimeout and removed.
// Registration must happen before the request bytes are written so a
// fast reply cannot race the bookkeeping.
//
// The timer is assigned under the table lock, before the key is
// published: every path that can complete the handle (Resolve, Fail,
// FailAll, the timeout callback via fail) goes through the same lock
// first, so none can observe a half-initialized handle.
func (t *Table[K, V]) Register(key K, timeout time.Duration) *Handle[V] {
	h := &Handle[V]{done: make(chan outcome[V], 1)}

	t.mu.Lock()
	h.timer = time.AfterFunc(timeout, func() {
		t.fail(h, ErrTimeout)
	})
	t.entries[key] = h
	t.mu.Unlock()
	return h
}

// Alias makes an already registered handle reachable under an additional
// key. The alias shares the original deadline.
func (t *Table[K, V]) Alias(key K, h *Handle[V]) {
	t.mu.Lock()
	t.entries[key] = h
	t.mu.Unlock()
}

// Resolve completes the handle registered under key with a success value.
// It reports whether a matching entry existed.
func (t *Table[K, V]) Resolve(key K, v V) bool {
	h := t.take(key)
	if h == nil {
		return false
	}
	h.complete(v, nil)
	return true
}

// Fail completes the handle registered under key with an error.
func (t *Table[K, V]) Fail(key K, err error) bool {
	h := t.take(key)
	if h == nil {
		return false
	}
	var zero V
	h.complete(zero, err)
	return true
}

// ResolveMatch scans the pending keys for the first one accepted by pred
// and resolves its handle with v. Key iteration order is unspecified, so
// pred must identify its target by content, not position.
func (t *Table[K, V]) ResolveMatch(pred func(K) bool, v V) bool {
	t.mu.Lock()
	var h *Handle[V]
	for k, cand := range t.entries {
		if pred(k) {
			h = cand
			break
		}
	}
	if h != nil {
		t.purgeLocked(h)
	}
	t.mu.Unlock()

	if h == nil {
		return false
	}
	h.complete(v, nil)
	return true
}

// FailAll completes every pending handle with err and empties the table.
// Used at connection teardown so no caller is ever left blocked.
func (t *Table[K, V]) FailAll(err error) {
	t.mu.Lock()
	seen := make(map[*Handle[V]]struct{}, len(t.entries))
	for _, h := range t.entries {
		seen[h] = struct{}{}
	}
	t.entries = make(map[K]*Handle[V])
	t.mu.Unlock()

	var zero V
	for h := range seen {
		h.complete(zero, err)
	}
}

// Len reports the number of keys currently registered. Aliased handles
// count once per key.
func (t *Table[K, V]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// take removes key and every alias of its handle, returning the handle.
func (t *Table[K, V]) take(key K) *Handle[V] {
	t.mu.Lock()
	defer t.mu.Unlock()

	h, ok := t.entries[key]
	if !ok {
		return nil
	}
	t.purgeLocked(h)
	return h
}

func (t *Table[K, V]) purgeLocked(h *Handle[V]) {
	for k, cand := range t.entries {
		if cand == h {
			delete(t.entries, k)
		}
	}
}

// fail is the timeout path: the handle may already be resolved and gone,
// in which case purging finds nothing and complete is a no-op.
func (t *Table[K, V]) fail(h *Handle[V], err error) {
	t.mu.Lock()
	t.purgeLocked(h)
	t.mu.Unlock()

	var zero V
	h.complete(zero, err)
}
