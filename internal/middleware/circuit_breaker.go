package middleware

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/Youmanvi/venuereserve/internal/infrastructure/observability"
	"github.com/Youmanvi/venuereserve/internal/pkg/errors"
)

// WithCircuitBreaker returns a middleware that stops calling the store after
// repeated infrastructure failures. Domain outcomes such as a shortage or a
// rejected transition count as successes.
func WithCircuitBreaker(name string, threshold float64, timeout time.Duration, logger *observability.Logger) OperationMiddleware {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    timeout,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})

	return func(next OperationFunc) OperationFunc {
		return func(ctx context.Context) error {
			var outcome error
			_, err := cb.Execute(func() (interface{}, error) {
				err := next(ctx)
				if err != nil && !isInfrastructureFailure(err) {
					outcome = err
					return nil, nil
				}
				return nil, err
			})

			if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
				return errors.NewTransientError(
					errors.CodeCircuitOpen,
					fmt.Sprintf("circuit breaker open for operation: %s", name),
					err,
				)
			}
			if err != nil {
				return err
			}
			return outcome
		}
	}
}

func isInfrastructureFailure(err error) bool {
	switch errors.CodeOf(err) {
	case errors.CodeInternal, errors.CodeBusy, errors.CodeTimeout:
		return true
	}
	return false
}
