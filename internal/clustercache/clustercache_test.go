package clustercache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokoba/codanna-go/internal/ids"
)

type fakeSource struct {
	segments    []ids.SegmentOrdinal
	assignments map[ids.SegmentOrdinal]map[uint32]ids.ClusterId
}

func (f *fakeSource) Segments(ctx context.Context) ([]ids.SegmentOrdinal, error) {
	return f.segments, nil
}

func (f *fakeSource) ClusterAssignments(ctx context.Context, seg ids.SegmentOrdinal) (map[uint32]ids.ClusterId, error) {
	return f.assignments[seg], nil
}

func TestWarmBuildsPerSegmentClusters(t *testing.T) {
	src := &fakeSource{
		segments: []ids.SegmentOrdinal{1, 2},
		assignments: map[ids.SegmentOrdinal]map[uint32]ids.ClusterId{
			1: {10: 1, 11: 1, 12: 2},
			2: {20: 1},
		},
	}

	c := New()
	require.NoError(t, c.Warm(context.Background(), src, 7))
	assert.Equal(t, uint64(7), c.Generation())

	assert.ElementsMatch(t, []uint32{10, 11}, c.DocIds(1, 1))
	assert.ElementsMatch(t, []uint32{12}, c.DocIds(1, 2))
	assert.ElementsMatch(t, []uint32{20}, c.DocIds(2, 1))
	assert.Nil(t, c.DocIds(99, 1))
}

func TestStaleDetection(t *testing.T) {
	c := New()
	assert.True(t, c.Stale(1))

	src := &fakeSource{segments: nil, assignments: nil}
	require.NoError(t, c.Warm(context.Background(), src, 5))
	assert.False(t, c.Stale(5))
	assert.True(t, c.Stale(6))
}

func TestDocIdsForClustersUnionsAcrossSegments(t *testing.T) {
	src := &fakeSource{
		segments: []ids.SegmentOrdinal{1, 2},
		assignments: map[ids.SegmentOrdinal]map[uint32]ids.ClusterId{
			1: {10: 1, 11: 2},
			2: {20: 1, 21: 3},
		},
	}
	c := New()
	require.NoError(t, c.Warm(context.Background(), src, 1))

	got := c.DocIdsForClusters([]ids.ClusterId{1, 3})
	assert.ElementsMatch(t, []uint32{10, 20, 21}, got)
}
