package httputil

import (
	"context"
	"errors"
	"time"
)

// RetryableError marks a failure as transient. The generation client wraps
// network errors, 429s, and 5xx responses in it; anything unwrapped (bad
// request, auth failure, malformed completion) fails immediately.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retry runs fn up to attempts times. The wait before each retry starts at
// delay and doubles, and is abandoned early when ctx is cancelled (a user
// quitting the viewer mid-expansion cancels the backoff wait, not just the
// request). Non-retryable errors and the final retryable one are returned
// as-is so callers keep the error code attached by the client.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)

	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
		if err = fn(); err == nil {
			return nil
		}
		if !errors.As(err, new(*RetryableError)) {
			return err
		}
	}
	return err
}

// RetryWithBackoff is [Retry] with the defaults used for completion calls:
// three attempts starting at one second, enough to ride out a rate-limit
// window without making a stuck backend feel interactive-slow.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return Retry(ctx, 3, time.Second, fn)
}
