package service

import "sync"

// Collection is a store-owned snapshot of one entity collection. Every fetch
// takes a sequence number from Begin; Apply only replaces the items when that
// number is higher than the last one applied, so an older response that
// resolves late never overwrites fresher data.
type Collection[T any] struct {
	mu       sync.RWMutex
	items    []T
	issued   uint64
	applied  uint64
	inflight int
}

// Begin reserves the next sequence number and marks a fetch in flight.
func (c *Collection[T]) Begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issued++
	c.inflight++
	return c.issued
}

// Apply installs items fetched under seq. It reports false, leaving the
// collection untouched, when a later fetch has already been applied.
func (c *Collection[T]) Apply(seq uint64, items []T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq <= c.applied {
		return false
	}
	c.applied = seq
	c.items = items
	return true
}

// Done ends the fetch started by Begin, whatever its outcome.
func (c *Collection[T]) Done() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight > 0 {
		c.inflight--
	}
}

// Loading reports whether any fetch is in flight.
func (c *Collection[T]) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.inflight > 0
}

// Applied returns the sequence number of the installed snapshot, zero before
// the first successful fetch.
func (c *Collection[T]) Applied() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.applied
}

// Snapshot returns a copy of the current items.
func (c *Collection[T]) Snapshot() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of items.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
