package docindex

import (
	"github.com/dustin/go-humanize"
)

// Stats summarizes an index's current size, reported in both raw
// counts and human-readable form for CLI/log output.
type Stats struct {
	SymbolCount       uint64
	DocCount          uint64
	DocCountHuman     string
	HasVectorStore    bool
	VectorCount       int
	Generation        uint64
	NextSymbolCounter uint32
}

// Info reports a snapshot of the index's current size and state.
// Doc counts come straight from Bleve's own bookkeeping rather than a
// query, so this is cheap enough to call on every CLI invocation.
func (di *DocumentIndex) Info() (Stats, error) {
	docCount, err := di.bleveIndex.DocCount()
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		DocCount:          docCount,
		DocCountHuman:     humanize.Comma(int64(docCount)),
		HasVectorStore:    di.vectors != nil,
		Generation:        di.generation.current(),
		NextSymbolCounter: di.counter.Persisted(),
	}
	if di.vectors != nil {
		stats.VectorCount = di.vectors.Len()
	}
	return stats, nil
}
