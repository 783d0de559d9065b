package retry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyWriterKilled(t *testing.T) {
	err := errors.New("worker thread panicked: writer-killed")
	assert.Equal(t, ClassFatal, Classify(err))
}

func TestClassifyAlwaysRetryCodes(t *testing.T) {
	for _, code := range []int{32, 33, 1224, 995} {
		err := fmt.Errorf("commit failed: os error %d", code)
		assert.Equal(t, ClassAlwaysRetry, Classify(err), "code %d", code)
	}
}

func TestClassifyLimitedCodes(t *testing.T) {
	for _, code := range []int{80, 183, 145} {
		err := fmt.Errorf("commit failed: os error %d", code)
		assert.Equal(t, ClassLimited, Classify(err), "code %d", code)
	}
}

func TestClassifyPermissionDeniedConditional(t *testing.T) {
	err := fmt.Errorf("commit failed: os error 5: permission denied")
	assert.Equal(t, ClassConditional, Classify(err))
}

func TestClassifyUnknownCodePropagates(t *testing.T) {
	err := fmt.Errorf("commit failed: os error 2")
	assert.Equal(t, ClassNone, Classify(err))
}

func TestClassifyByKindFallback(t *testing.T) {
	assert.Equal(t, ClassConditional, Classify(fs.ErrPermission))
	assert.Equal(t, ClassLimited, Classify(fs.ErrExist))
}

func TestMaxAttemptsFor(t *testing.T) {
	assert.Equal(t, 2, MaxAttemptsFor(ClassLimited, 6))
	assert.Equal(t, 6, MaxAttemptsFor(ClassAlwaysRetry, 6))
	assert.Equal(t, 0, MaxAttemptsFor(ClassNone, 6))
}

func TestNormalizeHeapBytesClamps(t *testing.T) {
	assert.Equal(t, MinHeapBytes, NormalizeHeapBytes(1024))
	assert.Equal(t, MaxHeapBytes, NormalizeHeapBytes(MaxHeapBytes*4))
	assert.Equal(t, 50*1024*1024, NormalizeHeapBytes(50*1024*1024))
}

func TestRunRetriesThenSucceeds(t *testing.T) {
	attempts := 0
	err := Run(context.Background(), Policy{MaxAttempts: 4}, func() error {
		attempts++
		if attempts < 3 {
			return fmt.Errorf("commit failed: os error 32")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRunStopsOnFatal(t *testing.T) {
	attempts := 0
	err := Run(context.Background(), DefaultPolicy(), func() error {
		attempts++
		return errors.New("writer-killed")
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRunExhaustsLimitedAttempts(t *testing.T) {
	attempts := 0
	err := Run(context.Background(), DefaultPolicy(), func() error {
		attempts++
		return fmt.Errorf("commit failed: os error 80")
	})
	require.Error(t, err)
	assert.Equal(t, 2, attempts)
}
