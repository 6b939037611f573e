package middleware

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Youmanvi/venuereserve/internal/infrastructure/observability"
	"github.com/Youmanvi/venuereserve/internal/pkg/errors"
)

// WithTracing wraps the operation in a span and records its error code
func WithTracing(tracer trace.Tracer, operation string) OperationMiddleware {
	return func(next OperationFunc) OperationFunc {
		return func(ctx context.Context) error {
			ctx, span := tracer.Start(ctx, operation)
			defer span.End()

			if traceID := observability.TraceIDFromContext(ctx); traceID != "" {
				span.SetAttributes(attribute.String(observability.TraceIDKey, traceID))
			}

			err := next(ctx)
			if err != nil {
				span.RecordError(err)
				span.SetAttributes(attribute.String("error.code", errors.CodeOf(err)))
				span.SetStatus(codes.Error, err.Error())
				return err
			}
			span.SetStatus(codes.Ok, "")
			return nil
		}
	}
}
