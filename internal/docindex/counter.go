package docindex

import (
	"strconv"

	"github.com/tokoba/codanna-go/internal/ids"
)

// initCounter restores the persisted high-water mark from the
// metadata document written by the last successful commit, or starts
// a fresh counter at zero for a brand new index.
func (di *DocumentIndex) initCounter() error {
	v, err := di.metadataValue(metaKeySymbolCounter)
	if err != nil {
		return err
	}
	var persisted uint32
	if v != "" {
		if n, convErr := strconv.ParseUint(v, 10, 32); convErr == nil {
			persisted = uint32(n)
		}
	}
	di.counter = ids.NewSymbolCounter(persisted)
	return nil
}
