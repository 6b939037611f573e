package activities

import (
	"context"

	"github.com/Youmanvi/venuereserve/internal/domain"
	"github.com/Youmanvi/venuereserve/internal/engine"
	"github.com/Youmanvi/venuereserve/internal/ledger"
)

// IssueCodeInput is the input of sequence:issue
type IssueCodeInput struct {
	Prefix string `json:"prefix"`
}

// IssueCodeOutput is the output of sequence:issue
type IssueCodeOutput struct {
	Code string `json:"code"`
}

// RecordPaymentActivity appends a payment event
func RecordPaymentActivity(eng Engine) ActivityFunc {
	return jsonActivity(engine.OpRecordPayment, func(ctx context.Context, in ledger.Request) (*ledger.Receipt, error) {
		return eng.RecordPayment(ctx, in)
	})
}

// RecordRefundActivity appends a refund event
func RecordRefundActivity(eng Engine) ActivityFunc {
	return jsonActivity(engine.OpRecordRefund, func(ctx context.Context, in ledger.Request) (*ledger.Receipt, error) {
		return eng.RecordRefund(ctx, in)
	})
}

// LedgerSummaryActivity derives the payment state of a target
func LedgerSummaryActivity(eng Engine) ActivityFunc {
	return jsonActivity(engine.OpLedgerSummary, func(ctx context.Context, in domain.Target) (domain.LedgerSummary, error) {
		return eng.LedgerSummary(ctx, in)
	})
}

// ReconcileActivity repairs the cached payment status of a target
func ReconcileActivity(eng Engine) ActivityFunc {
	return jsonActivity(engine.OpReconcile, func(ctx context.Context, in domain.Target) (*ledger.ReconcileResult, error) {
		return eng.Reconcile(ctx, in)
	})
}

// IssueCodeActivity hands out the next day-scoped code for a prefix
func IssueCodeActivity(eng Engine) ActivityFunc {
	return jsonActivity(engine.OpIssueCode, func(ctx context.Context, in IssueCodeInput) (IssueCodeOutput, error) {
		code, err := eng.IssueCode(ctx, in.Prefix)
		return IssueCodeOutput{Code: code}, err
	})
}
