package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Youmanvi/venuereserve/internal/pkg/errors"
)

// PaymentMethod represents the payment method
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodBank   PaymentMethod = "bank"
	PaymentMethodWallet PaymentMethod = "wallet"
)

// PaymentStatus is derived from the payment event stream, never set directly
type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
)

// PaymentKind distinguishes money in from money out
type PaymentKind string

const (
	KindPayment PaymentKind = "payment"
	KindRefund  PaymentKind = "refund"
)

// TargetType names the aggregate a payment event belongs to
type TargetType string

const (
	TargetReservation TargetType = "reservation"
	TargetSale        TargetType = "sale"
)

// Target identifies a reservation or sale
type Target struct {
	Type TargetType `json:"type"`
	ID   string     `json:"id"`
}

// Validate checks the target is complete
func (t Target) Validate() error {
	if t.Type != TargetReservation && t.Type != TargetSale {
		return errors.Validation("unknown payment target type %q", t.Type)
	}
	if t.ID == "" {
		return errors.Validation("payment target id is required")
	}
	return nil
}

// PaymentEvent is one append-only ledger entry. Amount is always positive.
type PaymentEvent struct {
	ID             string          `json:"id"`
	Target         Target          `json:"target"`
	Kind           PaymentKind     `json:"kind"`
	Amount         decimal.Decimal `json:"amount"`
	Method         PaymentMethod   `json:"method"`
	Reference      string          `json:"reference,omitempty"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
	Actor          string          `json:"actor,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// NewPaymentEvent validates and creates a ledger entry
func NewPaymentEvent(id string, target Target, kind PaymentKind, amount decimal.Decimal, method PaymentMethod, reference, key, actor string, now time.Time) (*PaymentEvent, error) {
	if id == "" {
		return nil, errors.Validation("payment event id cannot be empty")
	}
	if err := target.Validate(); err != nil {
		return nil, err
	}
	if kind != KindPayment && kind != KindRefund {
		return nil, errors.Validation("unknown payment kind %q", kind)
	}
	if !amount.IsPositive() {
		return nil, errors.Validation("amount must be greater than zero")
	}
	if kind == KindPayment && method == "" {
		return nil, errors.Validation("payment method is required")
	}

	return &PaymentEvent{
		ID:             id,
		Target:         target,
		Kind:           kind,
		Amount:         amount,
		Method:         method,
		Reference:      reference,
		IdempotencyKey: key,
		Actor:          actor,
		CreatedAt:      now,
	}, nil
}

// SamePayload reports whether two events describe the same request, ignoring id and time.
func (e PaymentEvent) SamePayload(other PaymentEvent) bool {
	return e.Target == other.Target && e.Kind == other.Kind && e.Amount.Equal(other.Amount)
}

// LedgerSummary is the derived state of one target's event stream
type LedgerSummary struct {
	Target             Target          `json:"target"`
	NetAmount          decimal.Decimal `json:"net_amount"`
	Paid               decimal.Decimal `json:"paid_total"`
	Refunded           decimal.Decimal `json:"refunded_total"`
	NetPaid            decimal.Decimal `json:"net_paid"`
	Balance            decimal.Decimal `json:"balance"`
	Status             PaymentStatus   `json:"payment_status"`
	MinimumDownPayment decimal.Decimal `json:"minimum_down_payment"`
	Events             int             `json:"events"`
}

// Refundable is what can still be refunded
func (s LedgerSummary) Refundable() decimal.Decimal {
	return s.NetPaid
}

// Summarize folds the event stream of one target against its net amount.
func Summarize(target Target, events []PaymentEvent, net decimal.Decimal) LedgerSummary {
	paid, refunded := decimal.Zero, decimal.Zero
	for _, ev := range events {
		switch ev.Kind {
		case KindPayment:
			paid = paid.Add(ev.Amount)
		case KindRefund:
			refunded = refunded.Add(ev.Amount)
		}
	}
	netPaid := paid.Sub(refunded)

	return LedgerSummary{
		Target:    target,
		NetAmount: net,
		Paid:      paid,
		Refunded:  refunded,
		NetPaid:   netPaid,
		Balance:   net.Sub(netPaid),
		Status:    StatusFor(netPaid, net),
		Events:    len(events),
	}
}

// DeriveStatus is the payment status of an event stream.
func DeriveStatus(events []PaymentEvent, net decimal.Decimal) PaymentStatus {
	return Summarize(Target{}, events, net).Status
}

// StatusFor maps a net paid total to unpaid, paid or partial, in that order of precedence.
func StatusFor(netPaid, net decimal.Decimal) PaymentStatus {
	switch {
	case netPaid.LessThanOrEqual(decimal.Zero):
		return PaymentUnpaid
	case netPaid.GreaterThanOrEqual(net):
		return PaymentPaid
	default:
		return PaymentPartial
	}
}
