// Package embedding defines the capability surface the document index
// uses to turn symbol text into vectors, and the bounded queue that
// collects pending embedding work during a batch for draining at
// commit time. Spec.md §6 treats the embedding model as an external
// collaborator behind a narrow interface, not something this module
// implements itself.
package embedding

import (
	"context"
	"sync"

	"github.com/tokoba/codanna-go/internal/ids"
)

// Generator turns a batch of texts into equal-length float32 vectors,
// preserving input order. Implementations wrap whatever embedding
// model a caller configures; none is bundled here.
type Generator interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// Pending is one symbol awaiting an embedding, captured at AddSymbol
// time and drained at CommitBatch, per spec.md §6's "embeddings are
// generated from EmbeddingText() once the symbol's final form is known,
// not speculatively during parsing."
type Pending struct {
	SymbolId ids.SymbolId
	Text     string
}

// Queue is a bounded FIFO of Pending embedding work for the current
// batch. Every method takes the queue's own mutex, so it is safe for
// concurrent use from multiple goroutines.
type Queue struct {
	mu    sync.Mutex
	items []Pending
	cap   int
}

// NewQueue returns a Queue bounded to capacity items; 0 means
// unbounded.
func NewQueue(capacity int) *Queue {
	return &Queue{cap: capacity}
}

// Enqueue appends a pending embedding. If the queue is at capacity, the
// oldest entry is dropped to make room: spec.md §9 decides that a
// batch producing more pending embeddings than the queue can hold
// sacrifices the earliest symbols' vectors rather than failing the
// whole commit, since text search still covers them.
func (q *Queue) Enqueue(p Pending) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, p)
	if q.cap > 0 && len(q.items) > q.cap {
		q.items = q.items[len(q.items)-q.cap:]
	}
}

// Drain removes and returns every pending item, leaving the queue
// empty.
func (q *Queue) Drain() []Pending {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

// Len reports the number of pending items without draining them.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
