package ids

import "sync"

// SymbolCounter issues monotonically increasing SymbolIds. During an open
// batch, allocations are served from a pending shadow value so that
// multiple adds within the same batch observe consistent successors
// before commit. On commit the pending value becomes authoritative; on
// abort it is discarded and the next batch resumes from the last
// persisted value (§4.1).
type SymbolCounter struct {
	mu        sync.Mutex
	persisted uint32
	pending   uint32
	inBatch   bool
}

// NewSymbolCounter creates a counter seeded from a previously persisted
// high-water mark (0 if the index is empty).
func NewSymbolCounter(persisted uint32) *SymbolCounter {
	return &SymbolCounter{persisted: persisted, pending: persisted}
}

// BeginBatch opens the pending shadow at the current persisted value.
// Idempotent: calling it again mid-batch is a no-op.
func (c *SymbolCounter) BeginBatch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inBatch {
		return
	}
	c.inBatch = true
	c.pending = c.persisted
}

// Next allocates and returns the next SymbolId. Valid only while a batch
// is open; callers outside docindex should never call this directly.
func (c *SymbolCounter) Next() SymbolId {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending++
	return SymbolId(c.pending)
}

// Pending returns the current shadow high-water mark without allocating.
func (c *SymbolCounter) Pending() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Commit promotes the pending shadow to authoritative. Called after a
// successful commit_batch, before the caller persists the new value as a
// metadata document.
func (c *SymbolCounter) Commit() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.persisted = c.pending
	c.inBatch = false
	return c.persisted
}

// Abort discards the pending shadow, leaving the persisted value (and
// thus the next batch's starting point) untouched. No gaps are ever
// introduced by an aborted batch.
func (c *SymbolCounter) Abort() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = c.persisted
	c.inBatch = false
}

// Persisted returns the last committed high-water mark.
func (c *SymbolCounter) Persisted() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.persisted
}
