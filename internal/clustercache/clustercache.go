// Package clustercache maintains the reader-side inverted index from
// (segment, cluster) to the sorted document ids assigned to that
// cluster, per spec.md §6: semantic search narrows its scan to a
// handful of clusters by looking up this cache rather than scanning
// every symbol document. The cache is generation-tracked against the
// index's reader so a stale cache is detected and rebuilt rather than
// silently serving results from before the last commit.
package clustercache

import (
	"context"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/tokoba/codanna-go/internal/ids"
)

// SegmentSource supplies the per-segment (clusterId -> docIds) data the
// cache warms from. A real DocumentIndex reader implements this by
// walking its Bleve segments' stored cluster_id fields; tests supply a
// fake.
type SegmentSource interface {
	// Segments returns the current reader generation's segment ordinals.
	Segments(ctx context.Context) ([]ids.SegmentOrdinal, error)
	// ClusterAssignments returns every (docId, clusterId) pair stored in
	// the given segment.
	ClusterAssignments(ctx context.Context, seg ids.SegmentOrdinal) (map[uint32]ids.ClusterId, error)
}

// Cache holds, per segment, a map from cluster id to the sorted set of
// document ids assigned to it, plus the generation it was built from.
type Cache struct {
	mu         sync.RWMutex
	generation uint64
	bySegment  map[ids.SegmentOrdinal]map[ids.ClusterId]*roaring.Bitmap
}

// New returns an empty, ungenerationed cache. The first Warm call
// populates it.
func New() *Cache {
	return &Cache{bySegment: make(map[ids.SegmentOrdinal]map[ids.ClusterId]*roaring.Bitmap)}
}

// Generation returns the reader generation this cache was last warmed
// against.
func (c *Cache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// Stale reports whether the cache's generation no longer matches the
// reader's current generation, meaning a commit happened since the
// cache was last warmed.
func (c *Cache) Stale(currentGeneration uint64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation != currentGeneration
}

// Warm rebuilds the cache from src for the given generation, fetching
// each segment's assignments concurrently (one goroutine per segment,
// with no concurrency limit set). Spec.md §6 calls this the explicit "warm_cluster_cache"
// trigger, distinct from the implicit per-query staleness check.
func (c *Cache) Warm(ctx context.Context, src SegmentSource, generation uint64) error {
	segments, err := src.Segments(ctx)
	if err != nil {
		return err
	}

	built := make(map[ids.SegmentOrdinal]map[ids.ClusterId]*roaring.Bitmap, len(segments))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, seg := range segments {
		seg := seg
		g.Go(func() error {
			assignments, err := src.ClusterAssignments(gctx, seg)
			if err != nil {
				return err
			}
			perCluster := make(map[ids.ClusterId]*roaring.Bitmap)
			for docID, clusterID := range assignments {
				bm, ok := perCluster[clusterID]
				if !ok {
					bm = roaring.New()
					perCluster[clusterID] = bm
				}
				bm.Add(docID)
			}
			for _, bm := range perCluster {
				bm.RunOptimize()
			}
			mu.Lock()
			built[seg] = perCluster
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	c.mu.Lock()
	c.bySegment = built
	c.generation = generation
	c.mu.Unlock()
	return nil
}

// DocIds returns the sorted document ids assigned to cluster in
// segment, or nil if the segment/cluster pair has no members. The
// returned slice is a fresh copy safe for the caller to hold.
func (c *Cache) DocIds(seg ids.SegmentOrdinal, cluster ids.ClusterId) []uint32 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	perCluster, ok := c.bySegment[seg]
	if !ok {
		return nil
	}
	bm, ok := perCluster[cluster]
	if !ok {
		return nil
	}
	return bm.ToArray()
}

// DocIdsForClusters unions DocIds across every segment for each of the
// given clusters, which is what a nearest-centroid semantic search
// query needs: the members of the NProbe nearest clusters across the
// whole index, not one segment at a time.
func (c *Cache) DocIdsForClusters(clusters []ids.ClusterId) []uint32 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	union := roaring.New()
	wanted := make(map[ids.ClusterId]struct{}, len(clusters))
	for _, cl := range clusters {
		wanted[cl] = struct{}{}
	}
	for _, perCluster := range c.bySegment {
		for cl, bm := range perCluster {
			if _, ok := wanted[cl]; ok {
				union.Or(bm)
			}
		}
	}
	return union.ToArray()
}
