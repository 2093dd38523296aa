// Package notify delivers outbound notifications (currently email) with
// bounded retries and records each delivery outcome. This file implements the
// generic retry helper shared by every delivery path.
package notify

import (
	"context"
	"time"
)

// RetryResult reports the outcome of a retried operation. RetryCount is the
// number of retries consumed, not the number of invocations: a first-attempt
// success reports 0, and exhaustion after maxRetries retries reports
// maxRetries.
type RetryResult[T any] struct {
	Success    bool
	Result     T
	RetryCount int
	Err        error
}

// RetryWithBackoff invokes fn up to maxRetries+1 times, sleeping between
// attempts with exponential backoff: the wait before retry n (1-based) is
// 2^n * baseDelay / 2, i.e. 1x, 2x, 4x baseDelay for three retries.
//
// maxRetries of 0 means a single invocation with no retry. The context is
// checked before each retry; cancellation stops the loop and reports the last
// error alongside the retries consumed so far.
func RetryWithBackoff[T any](ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(ctx context.Context) (T, error)) RetryResult[T] {
	if maxRetries < 0 {
		maxRetries = 0
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		res, err := fn(ctx)
		if err == nil {
			return RetryResult[T]{Success: true, Result: res, RetryCount: attempt}
		}
		lastErr = err

		if attempt >= maxRetries {
			return RetryResult[T]{Success: false, RetryCount: attempt, Err: lastErr}
		}

		delay := (1 << (attempt + 1)) * baseDelay / 2
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return RetryResult[T]{Success: false, RetryCount: attempt, Err: ctx.Err()}
		}
	}
}
