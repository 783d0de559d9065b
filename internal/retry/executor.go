package retry

import (
	"context"
	"time"
)

// Run executes fn, retrying per the classification of its returned
// error under p, until it succeeds, a fatal error is classified, or
// attempts are exhausted. Run takes no lock of its own; whatever the
// caller holds stays held across the backoff sleeps.
func Run(ctx context.Context, p Policy, fn func() error) error {
	attempt := 1
	for {
		err := fn()
		if err == nil {
			return nil
		}

		class := Classify(err)
		if class == ClassFatal || class == ClassNone {
			return err
		}
		if !p.ShouldRetry(class, attempt) {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(Backoff(attempt - 1)):
		}
		attempt++
	}
}
