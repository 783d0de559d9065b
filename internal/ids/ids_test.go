package ids

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymbolIdZeroRejected(t *testing.T) {
	_, ok := NewSymbolId(0)
	assert.False(t, ok)

	id, ok := NewSymbolId(42)
	require.True(t, ok)
	assert.Equal(t, uint32(42), id.Value())
}

func TestFileIdZeroRejected(t *testing.T) {
	_, ok := NewFileId(0)
	assert.False(t, ok)

	id, ok := NewFileId(100)
	require.True(t, ok)
	assert.Equal(t, uint32(100), id.Value())
}

func TestClusterIdZeroMeansUnassigned(t *testing.T) {
	unassigned := NewClusterId(0)
	assert.False(t, unassigned.IsAssigned())

	assigned := NewClusterId(7)
	assert.True(t, assigned.IsAssigned())
}

func TestRangeContains(t *testing.T) {
	r := NewRange(10, 5, 15, 20)

	assert.True(t, r.Contains(12, 10))
	assert.True(t, r.Contains(10, 5))
	assert.True(t, r.Contains(15, 20))

	assert.False(t, r.Contains(9, 10))
	assert.False(t, r.Contains(16, 10))
	assert.False(t, r.Contains(10, 4))
	assert.False(t, r.Contains(15, 21))
}

func TestSymbolCounterMonotonicWithinBatch(t *testing.T) {
	c := NewSymbolCounter(100)
	c.BeginBatch()

	first := c.Next()
	second := c.Next()
	third := c.Next()

	assert.Equal(t, SymbolId(101), first)
	assert.Equal(t, SymbolId(102), second)
	assert.Equal(t, SymbolId(103), third)

	persisted := c.Commit()
	assert.Equal(t, uint32(103), persisted)
	assert.Equal(t, uint32(103), c.Persisted())
}

func TestSymbolCounterAbortLeavesNoGap(t *testing.T) {
	c := NewSymbolCounter(100)
	c.BeginBatch()
	_ = c.Next()
	_ = c.Next()
	c.Abort()

	assert.Equal(t, uint32(100), c.Persisted())

	c.BeginBatch()
	next := c.Next()
	assert.Equal(t, SymbolId(101), next)
}
