package middleware

import "context"

// OperationFunc is one engine operation. Results are captured by the
// closure; only the error travels through the chain so every layer can
// classify it.
type OperationFunc func(ctx context.Context) error

// OperationMiddleware is a function that wraps an OperationFunc
type OperationMiddleware func(OperationFunc) OperationFunc

// ApplyMiddleware applies a chain of middleware to an operation. The first
// middleware is the outermost.
func ApplyMiddleware(op OperationFunc, middlewares ...OperationMiddleware) OperationFunc {
	// Apply middleware in reverse order so they wrap correctly
	for i := len(middlewares) - 1; i >= 0; i-- {
		op = middlewares[i](op)
	}
	return op
}

// Chain composes middlewares into one, outermost first
func Chain(middlewares ...OperationMiddleware) OperationMiddleware {
	return func(op OperationFunc) OperationFunc {
		return ApplyMiddleware(op, middlewares...)
	}
}
