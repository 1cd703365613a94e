package services

import (
	"context"
	"time"

	"github.com/custodia-labs/testbrain-cli/internal/logger"
)

// Retry policy for the external embedding and completion services. Both are
// blocking network calls; transient failures are retried a small fixed
// number of times with doubling backoff before the typed failure surfaces.
const (
	defaultRetryAttempts = 3
	defaultRetryBackoff  = 500 * time.Millisecond
)

// withRetry runs fn up to attempts times, backing off between failures.
// Context cancellation stops retrying immediately. The last error is
// returned when all attempts fail; callers wrap it in the appropriate
// sentinel so the failure stays typed.
func withRetry[T any](ctx context.Context, attempts int, backoff time.Duration, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == attempts {
			break
		}
		logger.Warn("attempt %d/%d failed: %v, retrying in %s", attempt, attempts, err, backoff)

		if err := ctx.Err(); err != nil {
			return zero, err
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return zero, lastErr
}
