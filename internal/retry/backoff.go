package retry

import (
	"math/rand"
	"time"
)

// Policy drives the commit retry loop: how many attempts a given Class
// gets and how long to sleep between them. Grounded on the teacher's
// internal/errors.RetryConfig shape, narrowed to the fixed backoff
// schedule spec.md §4.3 names explicitly rather than a configurable
// multiplier.
type Policy struct {
	// MaxAttempts is the ceiling for ClassAlwaysRetry/ClassConditional.
	// Must be >= 4 per spec.md §4.3.
	MaxAttempts int
}

// DefaultPolicy returns the policy spec.md §4.3 describes: at least 4
// attempts for always-retry/conditional classes.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 4}
}

var baseDelaysMs = [...]int{100, 200, 400, 800}

// Backoff returns the sleep duration before retry attempt n (0-indexed:
// n=0 is the delay before the first retry, following the very first
// failed attempt). Per spec.md §4.3: attempt 0 sleeps 80-120ms
// (randomized); attempt k>=1 sleeps base(k)+rand[0,50]ms, where base
// is {100,200,400,800}ms clamped to the last entry for k beyond the
// table.
func Backoff(n int) time.Duration {
	if n <= 0 {
		return time.Duration(80+rand.Intn(41)) * time.Millisecond
	}
	idx := n - 1
	if idx >= len(baseDelaysMs) {
		idx = len(baseDelaysMs) - 1
	}
	base := baseDelaysMs[idx]
	return time.Duration(base+rand.Intn(51)) * time.Millisecond
}

const (
	// MinHeapBytes is the lower clamp for storage engine heap sizing.
	MinHeapBytes = 15 * 1024 * 1024
	// MaxHeapBytes is the upper clamp for storage engine heap sizing.
	MaxHeapBytes = 2 * 1024 * 1024 * 1024
)

// NormalizeHeapBytes clamps a requested writer heap size into
// [MinHeapBytes, MaxHeapBytes], per spec.md §4.3.
func NormalizeHeapBytes(requested int) int {
	if requested < MinHeapBytes {
		return MinHeapBytes
	}
	if requested > MaxHeapBytes {
		return MaxHeapBytes
	}
	return requested
}

// ShouldRetry reports whether another attempt is permitted for the
// given class under p after n attempts have already been made (n=1
// after the original attempt failed).
func (p Policy) ShouldRetry(class Class, n int) bool {
	max := MaxAttemptsFor(class, p.MaxAttempts)
	return n < max
}
