package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tokoba/codanna-go/internal/ids"
)

func TestQueueDrainPreservesOrder(t *testing.T) {
	q := NewQueue(0)
	q.Enqueue(Pending{SymbolId: 1, Text: "a"})
	q.Enqueue(Pending{SymbolId: 2, Text: "b"})

	drained := q.Drain()
	assert.Equal(t, []Pending{{SymbolId: 1, Text: "a"}, {SymbolId: 2, Text: "b"}}, drained)
	assert.Equal(t, 0, q.Len())
}

func TestQueueBoundedDropsOldest(t *testing.T) {
	q := NewQueue(2)
	q.Enqueue(Pending{SymbolId: 1, Text: "a"})
	q.Enqueue(Pending{SymbolId: 2, Text: "b"})
	q.Enqueue(Pending{SymbolId: 3, Text: "c"})

	drained := q.Drain()
	assert.Equal(t, []ids.SymbolId{2, 3}, []ids.SymbolId{drained[0].SymbolId, drained[1].SymbolId})
}
