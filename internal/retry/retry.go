package retry

import (
	"context"
	"time"
)

// Retryer re-runs an operation with exponential backoff
type Retryer struct {
	maxRetries uint
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// NewRetryer allows maxRetries extra attempts after the first one
func NewRetryer(maxRetries uint, baseDelay, maxDelay time.Duration) *Retryer {
	return &Retryer{
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		maxDelay:   maxDelay,
	}
}

// Do calls fn until it reports shouldRetry == false, the attempts are used
// up or ctx is done. The error of the last attempt is returned.
func (r *Retryer) Do(ctx context.Context, fn func() (shouldRetry bool, err error)) error {
	var lastErr error

	for attempt := range r.maxRetries + 1 {
		if err := ctx.Err(); err != nil {
			return err
		}

		shouldRetry, err := fn()
		if !shouldRetry {
			return err
		}
		lastErr = err

		if attempt < r.maxRetries {
			select {
			case <-time.After(r.backoff(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return lastErr
}

func (r *Retryer) backoff(attempt uint) time.Duration {
	return min(r.baseDelay*(1<<attempt), r.maxDelay)
}
