package retry

import (
	"context"
	"time"

	"github.com/spetersoncode/sage"
)

// Attempt describes a failed attempt that is about to be retried.
type Attempt struct {
	// Number is the 1-indexed attempt that failed.
	Number int

	// MaxAttempts is the total number of attempts allowed.
	MaxAttempts int

	// Err is the error returned by the failed attempt.
	Err error

	// Delay is the wait before the next attempt.
	Delay time.Duration
}

// NotifyFunc observes retries. It is called synchronously before each wait.
type NotifyFunc func(Attempt)

// effectiveDelay returns the delay to use, honoring the server's Retry-After
// if larger.
func effectiveDelay(configured time.Duration, err error) time.Duration {
	if server := sage.RetryAfterOf(err); server > configured {
		return server
	}
	return configured
}

// Do executes fn with retry logic. Only transient errors are retried.
// It respects context cancellation during backoff waits.
// Returns the result on success, or the last error if all attempts fail.
func Do[T any](ctx context.Context, cfg Config, fn func(context.Context) (T, error)) (T, error) {
	return DoNotify(ctx, cfg, nil, fn)
}

// DoNotify is like Do but calls notify before each retry.
func DoNotify[T any](ctx context.Context, cfg Config, notify NotifyFunc, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	maxAttempts := max(cfg.MaxAttempts, 1)

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !IsTransient(err) || ctx.Err() != nil {
			return zero, err
		}

		// Don't sleep after the last attempt
		if attempt == maxAttempts-1 {
			break
		}

		delay := effectiveDelay(cfg.Delay(attempt), err)
		if notify != nil {
			notify(Attempt{Number: attempt + 1, MaxAttempts: maxAttempts, Err: err, Delay: delay})
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	return zero, lastErr
}
