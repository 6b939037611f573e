package domain

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Youmanvi/venuereserve/internal/pkg/errors"
)

func event(kind PaymentKind, amount int64) PaymentEvent {
	return PaymentEvent{Kind: kind, Amount: decimal.NewFromInt(amount)}
}

func TestSummarize_Scenario(t *testing.T) {
	net := decimal.NewFromInt(1_000_000)
	target := Target{Type: TargetReservation, ID: "r-1"}

	summary := Summarize(target, []PaymentEvent{event(KindPayment, 400_000)}, net)
	assert.Equal(t, PaymentPartial, summary.Status)
	assert.Equal(t, "600000", summary.Balance.String())

	summary = Summarize(target, []PaymentEvent{event(KindPayment, 400_000), event(KindPayment, 600_000)}, net)
	assert.Equal(t, PaymentPaid, summary.Status)
	assert.True(t, summary.Balance.IsZero())
	assert.Equal(t, 2, summary.Events)
}

func TestDeriveStatus(t *testing.T) {
	net := decimal.NewFromInt(1000)

	tests := []struct {
		name   string
		events []PaymentEvent
		want   PaymentStatus
	}{
		{"no events", nil, PaymentUnpaid},
		{"partial", []PaymentEvent{event(KindPayment, 10)}, PaymentPartial},
		{"exact", []PaymentEvent{event(KindPayment, 1000)}, PaymentPaid},
		{"overpaid", []PaymentEvent{event(KindPayment, 1200)}, PaymentPaid},
		{"fully refunded", []PaymentEvent{event(KindPayment, 500), event(KindRefund, 500)}, PaymentUnpaid},
		{"refund drops to partial", []PaymentEvent{event(KindPayment, 1000), event(KindRefund, 1)}, PaymentPartial},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(tt.events, net))
		})
	}
}

func TestDeriveStatus_ZeroNet(t *testing.T) {
	assert.Equal(t, PaymentUnpaid, DeriveStatus(nil, decimal.Zero))
	assert.Equal(t, PaymentPaid, DeriveStatus([]PaymentEvent{event(KindPayment, 1)}, decimal.Zero))
}

func TestDeriveStatus_IsPureOverReplayAndReorder(t *testing.T) {
	net := decimal.NewFromInt(1000)
	events := []PaymentEvent{
		event(KindPayment, 300),
		event(KindPayment, 200),
		event(KindRefund, 200),
		event(KindPayment, 200),
		event(KindRefund, 100),
	}
	want := DeriveStatus(events, net)

	// replay
	for i := 0; i < 5; i++ {
		assert.Equal(t, want, DeriveStatus(events, net))
	}

	// reorder
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]PaymentEvent(nil), events...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, DeriveStatus(shuffled, net))
	}
}

func TestNewPaymentEvent_Validation(t *testing.T) {
	target := Target{Type: TargetSale, ID: "s-1"}
	now := time.Now()

	_, err := NewPaymentEvent("e-1", target, KindPayment, decimal.Zero, PaymentMethodCash, "", "", "", now)
	assert.True(t, errors.HasCode(err, errors.CodeValidation), "zero amount")

	_, err = NewPaymentEvent("e-1", target, KindPayment, decimal.NewFromInt(-5), PaymentMethodCash, "", "", "", now)
	assert.True(t, errors.HasCode(err, errors.CodeValidation), "negative amount")

	_, err = NewPaymentEvent("e-1", target, KindPayment, decimal.NewFromInt(5), "", "", "", "", now)
	assert.True(t, errors.HasCode(err, errors.CodeValidation), "method required for payments")

	_, err = NewPaymentEvent("e-1", Target{Type: "invoice", ID: "x"}, KindPayment, decimal.NewFromInt(5), PaymentMethodCash, "", "", "", now)
	assert.True(t, errors.HasCode(err, errors.CodeValidation), "unknown target")

	ev, err := NewPaymentEvent("e-1", target, KindRefund, decimal.NewFromInt(5), "", "ref-1", "key-1", "cashier", now)
	require.NoError(t, err)
	assert.Equal(t, KindRefund, ev.Kind)
	assert.Equal(t, "key-1", ev.IdempotencyKey)
}

func TestPaymentEvent_SamePayload(t *testing.T) {
	a := PaymentEvent{ID: "1", Target: Target{Type: TargetSale, ID: "s"}, Kind: KindPayment, Amount: decimal.RequireFromString("10.00")}
	b := PaymentEvent{ID: "2", Target: Target{Type: TargetSale, ID: "s"}, Kind: KindPayment, Amount: decimal.RequireFromString("10")}
	c := b
	c.Amount = decimal.NewFromInt(11)

	assert.True(t, a.SamePayload(b))
	assert.False(t, a.SamePayload(c))
}
