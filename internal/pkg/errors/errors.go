package errors

import (
	stderrors "errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorType represents the classification of an error
type ErrorType int

const (
	// ErrorTypeTransient indicates a temporary failure that can be retried
	ErrorTypeTransient ErrorType = iota
	// ErrorTypePermanent indicates a permanent failure that should not be retried
	ErrorTypePermanent
	// ErrorTypeTimeout indicates a timeout error
	ErrorTypeTimeout
)

// Error codes shared by every engine component.
const (
	CodeValidation              = "VALIDATION_ERROR"
	CodeNotFound                = "NOT_FOUND"
	CodeInsufficientInventory   = "INSUFFICIENT_INVENTORY"
	CodeInvalidTransition       = "INVALID_TRANSITION"
	CodeDuplicateIdempotencyKey = "DUPLICATE_IDEMPOTENCY_KEY"
	CodeOverRefund              = "OVER_REFUND"
	CodeBusy                    = "BUSY"
	CodeConflict                = "CONFLICT"
	CodeTimeout                 = "OPERATION_TIMEOUT"
	CodeCircuitOpen             = "CIRCUIT_BREAKER_OPEN"
	CodeInternal                = "INTERNAL"
)

// Shortage describes a failed feasibility check.
type Shortage struct {
	Resource  string `json:"resource"`
	Available int    `json:"available"`
	Requested int    `json:"requested"`
}

// CustomError is a custom error with classification and context
type CustomError struct {
	Type     ErrorType
	Message  string
	Cause    error
	Code     string
	Shortage *Shortage
}

// NewTransientError creates a new transient error
func NewTransientError(code, message string, cause error) *CustomError {
	return &CustomError{
		Type:    ErrorTypeTransient,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewPermanentError creates a new permanent error
func NewPermanentError(code, message string, cause error) *CustomError {
	return &CustomError{
		Type:    ErrorTypePermanent,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(code, message string) *CustomError {
	return &CustomError{
		Type:    ErrorTypeTimeout,
		Code:    code,
		Message: message,
	}
}

// Validation reports malformed input. Nothing has been written when it is returned.
func Validation(format string, args ...any) *CustomError {
	return NewPermanentError(CodeValidation, fmt.Sprintf(format, args...), nil)
}

// NotFound reports a missing reservation, sale or unit.
func NotFound(kind, id string) *CustomError {
	return NewPermanentError(CodeNotFound, fmt.Sprintf("%s %s not found", kind, id), nil)
}

// InsufficientInventory reports that fewer units are free than requested.
func InsufficientInventory(resource string, available, requested int) *CustomError {
	err := NewPermanentError(
		CodeInsufficientInventory,
		fmt.Sprintf("insufficient inventory for %s: available=%d requested=%d", resource, available, requested),
		nil,
	)
	err.Shortage = &Shortage{Resource: resource, Available: available, Requested: requested}
	return err
}

// InvalidTransition reports a status change the state machine does not allow.
func InvalidTransition(from, to string) *CustomError {
	return NewPermanentError(CodeInvalidTransition, fmt.Sprintf("cannot move from %s to %s", from, to), nil)
}

// DuplicateIdempotencyKey reports a key already used by a different request.
func DuplicateIdempotencyKey(key string) *CustomError {
	return NewPermanentError(
		CodeDuplicateIdempotencyKey,
		fmt.Sprintf("idempotency key %q was already used for a different request", key),
		nil,
	)
}

// OverRefund reports a refund larger than the net amount paid.
func OverRefund(requested, refundable string) *CustomError {
	return NewPermanentError(
		CodeOverRefund,
		fmt.Sprintf("refund of %s exceeds refundable amount %s", requested, refundable),
		nil,
	)
}

// Busy reports lock contention. The whole operation is safe to retry.
func Busy(cause error) *CustomError {
	return NewTransientError(CodeBusy, "storage is busy, retry the operation", cause)
}

// Conflict reports a concurrent write that won a uniqueness race.
func Conflict(message string, cause error) *CustomError {
	return NewTransientError(CodeConflict, message, cause)
}

// Error implements the error interface
func (e *CustomError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *CustomError) Unwrap() error {
	return e.Cause
}

// IsTransient returns true if the error is transient
func (e *CustomError) IsTransient() bool {
	return e.Type == ErrorTypeTransient
}

// IsPermanent returns true if the error is permanent
func (e *CustomError) IsPermanent() bool {
	return e.Type == ErrorTypePermanent
}

// IsTimeout returns true if the error is a timeout
func (e *CustomError) IsTimeout() bool {
	return e.Type == ErrorTypeTimeout
}

var grpcCodes = map[string]codes.Code{
	CodeValidation:              codes.InvalidArgument,
	CodeNotFound:                codes.NotFound,
	CodeInsufficientInventory:   codes.ResourceExhausted,
	CodeInvalidTransition:       codes.FailedPrecondition,
	CodeDuplicateIdempotencyKey: codes.AlreadyExists,
	CodeOverRefund:              codes.OutOfRange,
	CodeBusy:                    codes.Unavailable,
	CodeConflict:                codes.Aborted,
	CodeTimeout:                 codes.DeadlineExceeded,
	CodeCircuitOpen:             codes.Unavailable,
}

// GRPCStatus lets status.FromError and status.Code read the error class.
func (e *CustomError) GRPCStatus() *status.Status {
	code, ok := grpcCodes[e.Code]
	if !ok {
		code = codes.Internal
	}
	return status.New(code, e.Error())
}

// As returns the first CustomError in err's chain.
func As(err error) (*CustomError, bool) {
	var customErr *CustomError
	if stderrors.As(err, &customErr) {
		return customErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code string) bool {
	customErr, ok := As(err)
	return ok && customErr.Code == code
}

// CodeOf returns the code of err, CodeInternal for foreign errors and "" for nil.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	if customErr, ok := As(err); ok {
		return customErr.Code
	}
	return CodeInternal
}

// IsRetryable reports whether the whole operation may be run again.
func IsRetryable(err error) bool {
	customErr, ok := As(err)
	return ok && customErr.IsTransient()
}

// ShortageOf extracts the shortage details of an INSUFFICIENT_INVENTORY error.
func ShortageOf(err error) (Shortage, bool) {
	customErr, ok := As(err)
	if !ok || customErr.Shortage == nil {
		return Shortage{}, false
	}
	return *customErr.Shortage, true
}

// ClassifyError attempts to classify a regular error
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ErrorTypePermanent
	}

	if customErr, ok := As(err); ok {
		return customErr.Type
	}

	// Default to permanent for unknown errors
	return ErrorTypePermanent
}
