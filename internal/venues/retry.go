package venues

import (
	"context"
	"errors"
	"time"

	"github.com/sawpanic/predictmkt/internal/apperr"
)

// withRetry calls fn up to maxAttempts times, backing off 2^attempt
// seconds between attempts, bounded by ctx's deadline (callers set an
// overall ~15s deadline per spec.md §5). Returns the last error if every
// attempt failed. An *apperr.AuthError is never retried — credentials
// don't become valid between attempts, so it short-circuits immediately.
func withRetry(ctx context.Context, maxAttempts int, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		var authErr *apperr.AuthError
		if errors.As(lastErr, &authErr) {
			return lastErr
		}
		if ctx.Err() != nil {
			return lastErr
		}
	}
	return lastErr
}
