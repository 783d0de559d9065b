package relationship

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInverse(t *testing.T) {
	assert.Equal(t, CalledBy, Calls.Inverse())
	assert.Equal(t, Calls, CalledBy.Inverse())
	assert.Equal(t, ExtendedBy, Extends.Inverse())
	assert.Equal(t, ImplementedBy, Implements.Inverse())
	assert.Equal(t, UsedBy, Uses.Inverse())
	assert.Equal(t, ReferencedBy, References.Inverse())
}

func TestClassification(t *testing.T) {
	assert.True(t, Extends.IsHierarchical())
	assert.True(t, ImplementedBy.IsHierarchical())
	assert.True(t, Calls.IsUsage())
	assert.True(t, References.IsUsage())
	assert.False(t, Defines.IsUsage())
	assert.False(t, Defines.IsHierarchical())
}

func TestIsReverseDependency(t *testing.T) {
	assert.True(t, CalledBy.IsReverseDependency())
	assert.True(t, UsedBy.IsReverseDependency())
	assert.True(t, ImplementedBy.IsReverseDependency())
	assert.True(t, ReferencedBy.IsReverseDependency())
	assert.False(t, Calls.IsReverseDependency())
}

func TestNewDefaultWeight(t *testing.T) {
	r := New(Calls)
	assert.Equal(t, Calls, r.Kind)
	assert.Equal(t, float32(1.0), r.Weight)

	r2 := r.WithWeight(0.8).WithMetadata(Metadata{}.AtPosition(10, 5).WithContext("inside main"))
	assert.Equal(t, float32(0.8), r2.Weight)
	assert.Equal(t, uint32(10), r2.Metadata.Line)
	assert.Equal(t, uint16(5), r2.Metadata.Column)
	assert.Equal(t, "inside main", r2.Metadata.Context)
}
