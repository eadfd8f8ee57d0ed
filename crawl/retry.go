package crawl

import (
	"context"
	"time"
)

// RequestFunc is the signature for a retryable request.
type RequestFunc func(ctx context.Context) error

// DefaultRetryDelays returns the backoff delays for request retries: 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// DoWithRetry attempts a request with exponential backoff retry logic.
// It retries up to 3 times (4 total attempts) with delays of 1s, 2s, 4s.
func DoWithRetry(ctx context.Context, fn RequestFunc) error {
	return DoWithRetryDelays(ctx, fn, DefaultRetryDelays())
}

// DoWithRetryDelays is like DoWithRetry but allows configurable delays.
// This is useful for testing without waiting for real delays.
func DoWithRetryDelays(ctx context.Context, fn RequestFunc, delays []time.Duration) error {
	maxAttempts := len(delays) + 1 // 1 initial + N retries

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		// Don't retry after the last attempt
		if attempt >= maxAttempts-1 {
			break
		}

		// Wait before next attempt
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delays[attempt]):
		}
	}

	return lastErr
}
