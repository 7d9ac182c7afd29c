// Package httputil provides retry plumbing for calls to the generation
// backend.
//
// The entry point is [Retry], which executes an operation with exponential
// backoff. Only errors wrapped in [RetryableError] are retried, so the
// client decides which failures are transient (timeouts, rate limits, 5xx
// responses) and which are permanent (4xx responses, unparseable output).
package httputil
