package middleware

import (
	"context"
	"time"

	"github.com/Youmanvi/venuereserve/internal/infrastructure/observability"
)

// WithMetrics counts the operation by outcome and observes its duration
func WithMetrics(metrics *observability.Metrics, operation string) OperationMiddleware {
	return func(next OperationFunc) OperationFunc {
		return func(ctx context.Context) error {
			start := time.Now()
			err := next(ctx)
			metrics.RecordOperation(operation, time.Since(start), err)
			return err
		}
	}
}
