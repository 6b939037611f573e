package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Youmanvi/venuereserve/internal/pkg/errors"
)

func price(qty int, unit, pct string) Pricing {
	return Pricing{
		Quantity:        qty,
		UnitPrice:       decimal.RequireFromString(unit),
		DiscountPercent: decimal.RequireFromString(pct),
	}
}

func TestReservationStatus_Transitions(t *testing.T) {
	tests := []struct {
		from, to ReservationStatus
		allowed  bool
	}{
		{ReservationDraft, ReservationPending, true},
		{ReservationPending, ReservationConfirmed, true},
		{ReservationConfirmed, ReservationCheckedIn, true},
		{ReservationCheckedIn, ReservationCheckedOut, true},
		{ReservationDraft, ReservationCancelled, true},
		{ReservationPending, ReservationCancelled, true},
		{ReservationConfirmed, ReservationCancelled, true},
		{ReservationCheckedIn, ReservationCancelled, true},
		{ReservationPending, ReservationCheckedIn, false},
		{ReservationConfirmed, ReservationPending, false},
		{ReservationCheckedOut, ReservationCancelled, false},
		{ReservationCancelled, ReservationPending, false},
		{ReservationPending, ReservationPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}

	assert.True(t, ReservationCheckedOut.IsTerminal())
	assert.True(t, ReservationCancelled.IsTerminal())
	assert.False(t, ReservationPending.IsTerminal())
}

func TestNewReservation_ComputesTotalsServerSide(t *testing.T) {
	villa, err := NewNamedLine("l-1", "villa-1", price(2, "750000", "10"))
	require.NoError(t, err)
	atv, err := NewFungibleLine("l-2", "atv", "atv-1", price(1, "250000", "0"))
	require.NoError(t, err)

	assert.Equal(t, "1500000", villa.Subtotal.String())
	assert.Equal(t, "150000", villa.Discount.String())

	res, err := NewReservation("r-1", Customer{ID: "c-1", Name: "Ayu"},
		MustDateRange("2025-12-10", "2025-12-12"), []ReservationLine{villa, atv},
		DownPaymentPolicy{Required: true, Percentage: decimal.NewFromInt(30)},
		ReservationPending, time.Now())
	require.NoError(t, err)

	assert.Equal(t, "1750000", res.Totals.Gross.String())
	assert.Equal(t, "150000", res.Totals.Discount.String())
	assert.Equal(t, "1600000", res.Totals.Net.String())
	assert.Equal(t, "480000", res.MinimumDownPayment().String())
	assert.Equal(t, PaymentUnpaid, res.PaymentStatus)
	assert.NoError(t, res.Reconcile())

	for _, line := range res.Lines {
		assert.Equal(t, "r-1", line.ReservationID)
	}

	// net = Σ subtotal − Σ discount
	sum := decimal.Zero
	for _, line := range res.Lines {
		sum = sum.Add(line.Subtotal).Sub(line.Discount)
	}
	assert.True(t, sum.Equal(res.Totals.Net))
}

func TestNewReservation_Validation(t *testing.T) {
	line, err := NewNamedLine("l-1", "villa-1", price(1, "100", "0"))
	require.NoError(t, err)
	r := MustDateRange("2025-12-10", "2025-12-12")

	_, err = NewReservation("r-1", Customer{ID: "c-1"}, r, []ReservationLine{line}, DownPaymentPolicy{}, ReservationPending, time.Now())
	assert.True(t, errors.HasCode(err, errors.CodeValidation), "customer name required")

	_, err = NewReservation("r-1", Customer{ID: "c-1", Name: "A"}, r, nil, DownPaymentPolicy{}, ReservationPending, time.Now())
	assert.True(t, errors.HasCode(err, errors.CodeValidation), "lines required")

	_, err = NewReservation("r-1", Customer{ID: "c-1", Name: "A"}, r, []ReservationLine{line}, DownPaymentPolicy{}, ReservationConfirmed, time.Now())
	assert.True(t, errors.HasCode(err, errors.CodeValidation), "must start pending or draft")

	_, err = NewNamedLine("l-2", "villa-1", price(0, "100", "0"))
	assert.True(t, errors.HasCode(err, errors.CodeValidation), "zero quantity")

	_, err = NewNamedLine("l-2", "villa-1", price(1, "100", "120"))
	assert.True(t, errors.HasCode(err, errors.CodeValidation), "discount above 100")
}

func TestReservation_TransitionTo(t *testing.T) {
	res := &Reservation{Status: ReservationPending}
	now := time.Now()

	require.NoError(t, res.TransitionTo(ReservationConfirmed, now))
	assert.Equal(t, ReservationConfirmed, res.Status)
	assert.Equal(t, now, res.UpdatedAt)

	err := res.TransitionTo(ReservationPending, now)
	assert.True(t, errors.HasCode(err, errors.CodeInvalidTransition))
	assert.Equal(t, ReservationConfirmed, res.Status)
}

func TestDownPaymentPolicy_Minimum(t *testing.T) {
	net := decimal.NewFromInt(1_000_000)

	assert.True(t, DownPaymentPolicy{}.Minimum(net).IsZero())
	assert.Equal(t, "250000", DownPaymentPolicy{Required: true, Percentage: decimal.NewFromInt(25)}.Minimum(net).String())
	assert.Equal(t, "300000", DownPaymentPolicy{Required: true, FixedAmount: decimal.NewFromInt(300_000)}.Minimum(net).String())
}

func TestReservation_ProductIDs(t *testing.T) {
	res := &Reservation{Lines: []ReservationLine{
		{FungibleUnitID: "atv-1", ProductID: "atv"},
		{FungibleUnitID: "atv-2", ProductID: "atv"},
		{NamedUnitID: "villa-1"},
		{FungibleUnitID: "slot-9", ProductID: "parking"},
	}}

	assert.Equal(t, []string{"atv", "parking"}, res.ProductIDs())
}
