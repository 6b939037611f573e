package middleware

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/Youmanvi/venuereserve/internal/pkg/errors"
)

// WithTimeout bounds the operation by timeout. The operation runs on the
// caller's goroutine and sees the deadline through its context.
func WithTimeout(timeout time.Duration) OperationMiddleware {
	return func(next OperationFunc) OperationFunc {
		return func(ctx context.Context) error {
			if timeout <= 0 {
				return next(ctx)
			}

			timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			err := next(timeoutCtx)
			if err != nil && stderrors.Is(timeoutCtx.Err(), context.DeadlineExceeded) && !errors.HasCode(err, errors.CodeTimeout) {
				return errors.NewTimeoutError(errors.CodeTimeout, "operation execution exceeded timeout")
			}
			return err
		}
	}
}
