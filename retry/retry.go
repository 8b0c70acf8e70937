// Package retry runs an operation under a bounded, fixed-delay retry policy.
package retry

import (
	"context"
	"errors"
	"time"
)

// Policy bounds how an operation is retried. Attempts are strictly
// sequential.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	// Retryable classifies errors; nil means every error is retried.
	Retryable func(error) bool
	// OnRetry, when set, is called before sleeping ahead of the next attempt.
	OnRetry func(attempt int, err error)
}

// Default is two attempts two seconds apart.
func Default() Policy {
	return Policy{MaxAttempts: 2, Delay: 2 * time.Second}
}

// Do runs fn until it succeeds, returns a non-retryable error, the attempts
// are exhausted or ctx is done. It returns the number of attempts made and
// the last error.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) (int, error) {
	limit := p.MaxAttempts
	if limit < 1 {
		limit = 1
	}

	var err error
	for attempt := 1; attempt <= limit; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err == nil {
				err = ctxErr
			}
			return attempt - 1, err
		}

		err = fn(ctx, attempt)
		if err == nil {
			return attempt, nil
		}
		if attempt == limit || !p.retryable(ctx, err) {
			return attempt, err
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}
		if sleepErr := sleep(ctx, p.Delay); sleepErr != nil {
			return attempt, err
		}
	}
	return limit, err
}

func (p Policy) retryable(ctx context.Context, err error) bool {
	// The caller gave up; the failure is not the provider's.
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return false
	}
	if p.Retryable == nil {
		return true
	}
	return p.Retryable(err)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
