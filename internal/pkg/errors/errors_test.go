package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestGRPCStatus_DistinctClasses(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"validation", Validation("bad range"), codes.InvalidArgument},
		{"not found", NotFound("reservation", "r-1"), codes.NotFound},
		{"nothing available", InsufficientInventory("ATV", 1, 2), codes.ResourceExhausted},
		{"invalid transition", InvalidTransition("cancelled", "confirmed"), codes.FailedPrecondition},
		{"already recorded", NewPermanentError(CodeDuplicateIdempotencyKey, "key reused", nil), codes.AlreadyExists},
		{"over refund", OverRefund("10", "5"), codes.OutOfRange},
		{"busy", Busy(fmt.Errorf("database is locked")), codes.Unavailable},
		{"someone else took it", Conflict("code taken", nil), codes.Aborted},
		{"timeout", NewTimeoutError(CodeTimeout, "too slow"), codes.DeadlineExceeded},
		{"unknown code", NewPermanentError("SOMETHING", "x", nil), codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, status.Code(tt.err))
		})
	}
}

func TestHelpers_SeeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("create reservation: %w", InsufficientInventory("ATV", 1, 2))

	assert.True(t, HasCode(err, CodeInsufficientInventory))
	assert.False(t, IsRetryable(err))
	assert.Equal(t, CodeInsufficientInventory, CodeOf(err))

	shortage, ok := ShortageOf(err)
	assert.True(t, ok)
	assert.Equal(t, Shortage{Resource: "ATV", Available: 1, Requested: 2}, shortage)

	busy := fmt.Errorf("commit: %w", Busy(nil))
	assert.True(t, IsRetryable(busy))
	assert.Equal(t, ErrorTypeTransient, ClassifyError(busy))
}

func TestCodeOf_ForeignAndNil(t *testing.T) {
	assert.Equal(t, "", CodeOf(nil))
	assert.Equal(t, CodeInternal, CodeOf(stderrors.New("boom")))
	assert.Equal(t, ErrorTypePermanent, ClassifyError(stderrors.New("boom")))
}

func TestCustomError_UnwrapsCause(t *testing.T) {
	cause := stderrors.New("database is locked")
	err := Busy(cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "[BUSY]")
	assert.Contains(t, err.Error(), "database is locked")
}
