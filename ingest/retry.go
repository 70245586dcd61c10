package ingest

import (
	"context"
	"time"

	"github.com/diagdex/diagdex"
)

// DefaultRetryDelays returns the backoff delays for external calls:
// 1s, 2s, 4s (three retries, four total attempts).
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// retryTransient runs fn with backoff, retrying only transient
// failures. Permanent failures and context cancellation return
// immediately. The final transient error is returned after the delay
// schedule is exhausted.
func retryTransient(ctx context.Context, delays []time.Duration, fn func(ctx context.Context) error) error {
	maxAttempts := len(delays) + 1 // 1 initial + N retries

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !diagdex.IsTransient(err) {
			return err
		}
		if attempt >= maxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delays[attempt]):
		}
	}

	return lastErr
}
