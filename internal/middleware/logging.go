package middleware

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Youmanvi/venuereserve/internal/infrastructure/observability"
	"github.com/Youmanvi/venuereserve/internal/pkg/errors"
)

// WithLogging returns a middleware that logs operation execution. A trace id
// is taken from the context or generated and stored for inner layers.
func WithLogging(logger *observability.Logger, operation string) OperationMiddleware {
	return func(next OperationFunc) OperationFunc {
		return func(ctx context.Context) error {
			start := time.Now()

			traceID := observability.TraceIDFromContext(ctx)
			if traceID == "" {
				traceID = uuid.NewString()
				ctx = observability.ContextWithTraceID(ctx, traceID)
			}

			opLogger := logger.WithTraceID(traceID).WithOperation(operation)
			opLogger.Debug("operation started")

			err := next(ctx)
			duration := time.Since(start)

			if err != nil {
				opLogger.Logger.Error().
					Err(err).
					Str("code", errors.CodeOf(err)).
					Dur("duration_ms", duration).
					Msg("operation failed")
				return err
			}

			opLogger.Logger.Info().
				Dur("duration_ms", duration).
				Msg("operation completed")
			return nil
		}
	}
}
