package docindex

import "sync/atomic"

// writerMutex serializes batch writers within this process. StartBatch
// claims it and CommitBatch releases it when it returns, so it stays
// claimed across a commit's retry backoff sleeps. Readers never take
// it, so other goroutines can still read while a commit is backing
// off.
type writerMutex struct {
	busy atomic.Bool
}

func (w *writerMutex) tryAcquire() bool {
	return w.busy.CompareAndSwap(false, true)
}

func (w *writerMutex) release() {
	w.busy.Store(false)
}

// generationCounter tracks how many successful writes have landed:
// one per CommitBatch, plus one per post-commit vector back-patch.
// Readers (the symbol cache, the cluster cache) compare against this
// to detect staleness; it is not Bleve's own internal segment
// generation, which this module does not need to reach into directly.
type generationCounter struct {
	value atomic.Uint64
}

func (g *generationCounter) current() uint64 {
	return g.value.Load()
}

func (g *generationCounter) bump() uint64 {
	return g.value.Add(1)
}
