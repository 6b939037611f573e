package middleware

import (
	"context"
	"math"
	"time"

	"github.com/Youmanvi/venuereserve/internal/infrastructure/observability"
	"github.com/Youmanvi/venuereserve/internal/pkg/errors"
)

// RetryPolicy defines the retry strategy
type RetryPolicy struct {
	MaxAttempts       int           // Maximum number of attempts, the first included
	InitialBackoff    time.Duration // Initial backoff duration
	MaxBackoff        time.Duration // Maximum backoff duration
	BackoffMultiplier float64       // Exponential backoff multiplier
	OnRetry           func(attempt int, err error)
}

// DefaultRetryPolicy returns a sensible default retry policy
func DefaultRetryPolicy(maxAttempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:       maxAttempts,
		InitialBackoff:    50 * time.Millisecond,
		MaxBackoff:        2 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// WithRetry re-runs the whole operation on transient errors (Busy, Conflict).
// Every attempt opens its own transaction.
func WithRetry(logger *observability.Logger, policy RetryPolicy) OperationMiddleware {
	return func(next OperationFunc) OperationFunc {
		return func(ctx context.Context) error {
			var lastErr error
			maxAttempts := policy.MaxAttempts
			if maxAttempts < 1 {
				maxAttempts = 1
			}

			for attempt := 1; attempt <= maxAttempts; attempt++ {
				err := next(ctx)
				if err == nil {
					return nil
				}
				if !errors.IsRetryable(err) {
					return err
				}

				lastErr = err

				if attempt < maxAttempts {
					if policy.OnRetry != nil {
						policy.OnRetry(attempt, err)
					}
					backoff := calculateBackoff(attempt-1, policy)
					logger.WithError(err).Logger.Debug().
						Int("attempt", attempt).
						Dur("backoff", backoff).
						Msg("retrying operation after backoff")
					select {
					case <-time.After(backoff):
					case <-ctx.Done():
						return errors.NewTimeoutError(errors.CodeTimeout, "operation cancelled while waiting to retry")
					}
				}
			}

			return lastErr
		}
	}
}

// calculateBackoff calculates exponential backoff
func calculateBackoff(attempt int, policy RetryPolicy) time.Duration {
	backoff := float64(policy.InitialBackoff) * math.Pow(policy.BackoffMultiplier, float64(attempt))

	if limit := float64(policy.MaxBackoff); policy.MaxBackoff > 0 && backoff > limit {
		backoff = limit
	}

	return time.Duration(backoff)
}
