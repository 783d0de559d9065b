package vectorstore

import (
	"math/rand"

	"github.com/chewxy/math32"

	"github.com/tokoba/codanna-go/internal/ids"
)

// MaxTrainIterations bounds k-means's Lloyd iterations; in practice
// codebase-scale vector counts converge well before this.
const MaxTrainIterations = 25

// Train (re)computes IVF centroids over every live vector via k-means
// and reassigns every live vector to its nearest centroid. Spec.md §6
// treats clustering as a background/explicit maintenance step (driven
// by warm_cluster_cache or an index-wide rebuild), not something that
// happens inline on every Add, so callers invoke this after a batch of
// inserts rather than per-insert.
func (s *Store) Train() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	liveRows := make([]int, 0, len(s.live))
	for _, row := range s.live {
		liveRows = append(liveRows, row)
	}
	if len(liveRows) == 0 {
		return nil
	}

	k := s.config.NumClusters
	if k > len(liveRows) {
		k = len(liveRows)
	}
	if k == 0 {
		k = 1
	}

	centroids := initCentroids(s.vectors, liveRows, k)
	assignments := make(map[int]int, len(liveRows)) // row -> centroid index

	for iter := 0; iter < MaxTrainIterations; iter++ {
		changed := false
		for _, row := range liveRows {
			best := nearestCentroidIndex(s.vectors[row], centroids)
			if prev, ok := assignments[row]; !ok || prev != best {
				assignments[row] = best
				changed = true
			}
		}

		sums := make([][]float32, k)
		counts := make([]int, k)
		for i := range sums {
			sums[i] = make([]float32, s.config.Dimensions)
		}
		for _, row := range liveRows {
			c := assignments[row]
			counts[c]++
			for d, v := range s.vectors[row] {
				sums[c][d] += v
			}
		}
		for c := range centroids {
			if counts[c] == 0 {
				continue
			}
			for d := range centroids[c] {
				centroids[c][d] = sums[c][d] / float32(counts[c])
			}
			normalizeInPlace(centroids[c])
		}

		if !changed && iter > 0 {
			break
		}
	}

	s.centroids = centroids
	s.trained = true
	for row, c := range assignments {
		s.clusters[row] = clusterIdForIndex(c)
	}
	return nil
}

// clusterIdForIndex maps a zero-based centroid index to a ClusterId,
// reserving 0 for "unassigned" per spec.md §4.6.
func clusterIdForIndex(i int) (cid ids.ClusterId) {
	return ids.ClusterId(i + 1)
}

func initCentroids(vectors [][]float32, liveRows []int, k int) [][]float32 {
	perm := rand.Perm(len(liveRows))
	centroids := make([][]float32, k)
	for i := 0; i < k; i++ {
		row := liveRows[perm[i%len(perm)]]
		c := make([]float32, len(vectors[row]))
		copy(c, vectors[row])
		centroids[i] = c
	}
	return centroids
}

func nearestCentroidIndex(v []float32, centroids [][]float32) int {
	best := 0
	bestScore := float32(math32.Inf(-1))
	for i, c := range centroids {
		score := dot(v, c)
		if score > bestScore {
			bestScore = score
			best = i
		}
	}
	return best
}

func (s *Store) nearestCentroid(v []float32) ids.ClusterId {
	if !s.trained || len(s.centroids) == 0 {
		return 0
	}
	idx := nearestCentroidIndex(v, s.centroids)
	return clusterIdForIndex(idx)
}
