package vectorstore

import (
	"container/heap"
	"context"
	"fmt"

	"github.com/tokoba/codanna-go/internal/ids"
)

// Search returns the topK nearest vectors to query by cosine similarity,
// scanning only the NProbe nearest clusters. Before training, it falls
// back to an exhaustive scan over every live vector, since there are no
// centroids yet to narrow the search.
func (s *Store) Search(ctx context.Context, query []float32, topK int) ([]Result, error) {
	if len(query) != s.config.Dimensions {
		return nil, ErrDimensionMismatch{Expected: s.config.Dimensions, Got: len(query)}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("vectorstore: store is closed")
	}
	if len(s.live) == 0 {
		return nil, nil
	}

	normalized := make([]float32, len(query))
	copy(normalized, query)
	normalizeInPlace(normalized)

	candidateRows := s.candidateRows(normalized)

	h := &resultHeap{}
	heap.Init(h)
	rowToID := s.rowToVectorID()

	for _, row := range candidateRows {
		score := dot(normalized, s.vectors[row])
		vid, ok := rowToID[row]
		if !ok {
			continue
		}
		if h.Len() < topK {
			heap.Push(h, Result{VectorId: vid, Score: score})
			continue
		}
		if (*h)[0].Score < score {
			heap.Pop(h)
			heap.Push(h, Result{VectorId: vid, Score: score})
		}
	}

	results := make([]Result, h.Len())
	for i := len(results) - 1; i >= 0; i-- {
		results[i] = heap.Pop(h).(Result)
	}
	return results, nil
}

// NearestClusters returns the ids of the nprobe centroids closest to
// query — the same set Search's own candidateRows would scan — so a
// caller-side cluster cache (clustercache.Cache, spec.md §4.7) can
// resolve the candidate document set itself instead of Search doing an
// independent in-process scan. Returns nil before the store is trained,
// since there are no clusters yet to name.
func (s *Store) NearestClusters(query []float32, nprobe int) []ids.ClusterId {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.trained || len(s.centroids) == 0 {
		return nil
	}
	if nprobe <= 0 || nprobe > len(s.centroids) {
		nprobe = len(s.centroids)
	}

	normalized := make([]float32, len(query))
	copy(normalized, query)
	normalizeInPlace(normalized)

	nearest := nearestCentroidIndices(normalized, s.centroids, nprobe)
	out := make([]ids.ClusterId, len(nearest))
	for i, idx := range nearest {
		out[i] = clusterIdForIndex(idx)
	}
	return out
}

// SearchAmong scores only the given candidate vector ids against
// query, instead of Search's own cluster-membership scan. This is the
// cache-restricted path: a caller resolves candidates via
// clustercache.Cache.DocIdsForClusters(NearestClusters(...)) and hands
// them here, so the store never has to walk its own cluster
// assignments to answer the query.
func (s *Store) SearchAmong(ctx context.Context, query []float32, topK int, candidates []ids.VectorId) ([]Result, error) {
	if len(query) != s.config.Dimensions {
		return nil, ErrDimensionMismatch{Expected: s.config.Dimensions, Got: len(query)}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("vectorstore: store is closed")
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	normalized := make([]float32, len(query))
	copy(normalized, query)
	normalizeInPlace(normalized)

	h := &resultHeap{}
	heap.Init(h)
	for _, vid := range candidates {
		row, ok := s.live[vid]
		if !ok {
			continue
		}
		score := dot(normalized, s.vectors[row])
		if h.Len() < topK {
			heap.Push(h, Result{VectorId: vid, Score: score})
			continue
		}
		if (*h)[0].Score < score {
			heap.Pop(h)
			heap.Push(h, Result{VectorId: vid, Score: score})
		}
	}

	results := make([]Result, h.Len())
	for i := len(results) - 1; i >= 0; i-- {
		results[i] = heap.Pop(h).(Result)
	}
	return results, nil
}

// candidateRows selects which live rows Search should score: the
// members of the NProbe nearest clusters once trained, or every live
// row before training/clustering has happened.
func (s *Store) candidateRows(query []float32) []int {
	if !s.trained || len(s.centroids) == 0 {
		rows := make([]int, 0, len(s.live))
		for _, row := range s.live {
			rows = append(rows, row)
		}
		return rows
	}

	nprobe := s.config.NProbe
	if nprobe <= 0 || nprobe > len(s.centroids) {
		nprobe = len(s.centroids)
	}
	nearest := nearestCentroidIndices(query, s.centroids, nprobe)
	wanted := make(map[ids.ClusterId]struct{}, len(nearest))
	for _, idx := range nearest {
		wanted[clusterIdForIndex(idx)] = struct{}{}
	}

	rows := make([]int, 0)
	for vid, row := range s.live {
		_ = vid
		if _, ok := wanted[s.clusters[row]]; ok {
			rows = append(rows, row)
		}
	}
	return rows
}

func (s *Store) rowToVectorID() map[int]ids.VectorId {
	m := make(map[int]ids.VectorId, len(s.live))
	for vid, row := range s.live {
		m[row] = vid
	}
	return m
}

func nearestCentroidIndices(query []float32, centroids [][]float32, n int) []int {
	type scored struct {
		idx   int
		score float32
	}
	scoredList := make([]scored, len(centroids))
	for i, c := range centroids {
		scoredList[i] = scored{idx: i, score: dot(query, c)}
	}
	for i := 0; i < n && i < len(scoredList); i++ {
		maxIdx := i
		for j := i + 1; j < len(scoredList); j++ {
			if scoredList[j].score > scoredList[maxIdx].score {
				maxIdx = j
			}
		}
		scoredList[i], scoredList[maxIdx] = scoredList[maxIdx], scoredList[i]
	}
	if n > len(scoredList) {
		n = len(scoredList)
	}
	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = scoredList[i].idx
	}
	return out
}

// resultHeap is a min-heap on Score, used to keep the top-K results
// during a linear scan without sorting the entire candidate set.
type resultHeap []Result

func (h resultHeap) Len() int            { return len(h) }
func (h resultHeap) Less(i, j int) bool  { return h[i].Score < h[j].Score }
func (h resultHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *resultHeap) Push(x interface{}) { *h = append(*h, x.(Result)) }
func (h *resultHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
