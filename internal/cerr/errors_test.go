package cerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	e1 := NotFound("symbol", "42")
	e2 := NotFound("file", "7")

	assert.True(t, errors.Is(e1, e2))
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(CodeStorageError, nil))
}

func TestRetryableClassification(t *testing.T) {
	storageErr := StorageError("commit", errors.New("boom"))
	assert.True(t, IsRetryable(storageErr))

	notFoundErr := NotFound("symbol", "1")
	assert.False(t, IsRetryable(notFoundErr))
}

func TestFatalClassification(t *testing.T) {
	killed := WriterKilled(errors.New("panic"))
	assert.True(t, IsFatal(killed))

	storageErr := StorageError("commit", errors.New("boom"))
	assert.False(t, IsFatal(storageErr))
}

func TestClassifyExitCodes(t *testing.T) {
	assert.Equal(t, ExitNotFound, Classify(NotFound("symbol", "1")))
	assert.Equal(t, ExitAmbiguous, Classify(Ambiguous("main", []uint32{1, 2})))
	assert.Equal(t, ExitGeneral, Classify(StorageError("commit", errors.New("x"))))
	assert.Equal(t, ExitOK, Classify(nil))
}

func TestAmbiguousCandidates(t *testing.T) {
	err := Ambiguous("main", []uint32{1, 2, 3})
	assert.Equal(t, []uint32{1, 2, 3}, err.Candidates)
}
