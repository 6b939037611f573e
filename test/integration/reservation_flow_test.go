package integration

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Youmanvi/venuereserve/internal/domain"
	"github.com/Youmanvi/venuereserve/internal/engine"
	"github.com/Youmanvi/venuereserve/internal/infrastructure/observability"
	"github.com/Youmanvi/venuereserve/internal/ledger"
	"github.com/Youmanvi/venuereserve/internal/pkg/errors"
	"github.com/Youmanvi/venuereserve/test/fixtures"
)

type obj = map[string]any

func stay(lines ...obj) obj {
	return obj{
		"customer":     obj{"id": "CUST-001", "name": "Ayu Lestari"},
		"checkin":      "2025-12-20",
		"checkout":     "2025-12-23",
		"lines":        lines,
		"down_payment": obj{"dp_required": true, "dp_percentage": "30"},
	}
}

func pay(id, amount, key string) obj {
	return obj{
		"target":          obj{"type": "reservation", "id": id},
		"amount":          amount,
		"method":          "bank",
		"idempotency_key": key,
	}
}

func TestStayFromBookingToCheckout(t *testing.T) {
	h := NewTestHarness(t)
	h.Call(engine.OpAddNamedUnit, obj{"id": "villa-1", "group": "villa", "name": "Villa Kenanga", "code": "VK-1", "capacity": 4}, nil)

	var res domain.Reservation
	h.Call(engine.OpCreateReservation, stay(obj{
		"resource":   obj{"kind": "named", "id": "villa-1"},
		"quantity":   3,
		"unit_price": "1200000",
	}), &res)
	assert.Equal(t, domain.ReservationPending, res.Status)
	assert.True(t, res.Totals.Net.Equal(fixtures.Money("3600000")))

	var receipt ledger.Receipt
	h.Call(engine.OpRecordPayment, pay(res.ID, "1080000", "dp-1"), &receipt)
	assert.Equal(t, domain.PaymentPartial, receipt.Summary.Status)
	assert.Equal(t, domain.ReservationPending, receipt.ReservationStatus)

	h.Call(engine.OpRecordPayment, pay(res.ID, "2520000", "settle-1"), &receipt)
	assert.Equal(t, domain.PaymentPaid, receipt.Summary.Status)
	assert.Equal(t, domain.ReservationConfirmed, receipt.ReservationStatus)

	for _, status := range []domain.ReservationStatus{domain.ReservationCheckedIn, domain.ReservationCheckedOut} {
		h.Call(engine.OpUpdateReservationStatus, obj{"id": res.ID, "status": status}, &res)
		assert.Equal(t, status, res.Status)
	}

	resp := h.Send(engine.OpCancelReservation, obj{"id": res.ID})
	require.NotNil(t, resp.Error)
	assert.Equal(t, errors.CodeInvalidTransition, resp.Error.Code)
	assert.Equal(t, "FailedPrecondition", resp.Error.GRPCCode)

	var avail domain.Availability
	h.Call(engine.OpCheckAvailability, obj{
		"resource": obj{"kind": "named", "id": "villa-1"},
		"checkin":  "2025-12-21", "checkout": "2025-12-22", "quantity": 1,
	}, &avail)
	assert.False(t, avail.Feasible, "only cancelled stays give their dates back")
}

func TestDoubleSubmittedPayment(t *testing.T) {
	h := NewTestHarness(t)
	h.Call(engine.OpAddNamedUnit, obj{"id": "villa-1", "group": "villa", "code": "VK-1", "capacity": 2}, nil)

	var res domain.Reservation
	h.Call(engine.OpCreateReservation, stay(obj{
		"resource": obj{"kind": "named", "id": "villa-1"}, "quantity": 1, "unit_price": "500000",
	}), &res)

	var first, second ledger.Receipt
	h.Call(engine.OpRecordPayment, pay(res.ID, "150000", "form-42"), &first)
	h.Call(engine.OpRecordPayment, pay(res.ID, "150000", "form-42"), &second)
	assert.False(t, first.Duplicate)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.Event.ID, second.Event.ID)
	assert.Equal(t, 1, second.Summary.Events)

	resp := h.Send(engine.OpRecordPayment, pay(res.ID, "200000", "form-42"))
	require.NotNil(t, resp.Error)
	assert.Equal(t, errors.CodeDuplicateIdempotencyKey, resp.Error.Code)
	assert.Equal(t, "AlreadyExists", resp.Error.GRPCCode)
	require.NotNil(t, resp.Error.ExistingEvent)
	assert.Equal(t, first.Event.ID, resp.Error.ExistingEvent.ID)

	assert.Equal(t, float64(1), testutil.ToFloat64(h.Metrics.DuplicatePayments))
	assert.Equal(t, float64(150000), testutil.ToFloat64(h.Metrics.LedgerAmount.WithLabelValues("reservation", "payment")))
}

func TestCancellationFreesPoolAndAllowsRefund(t *testing.T) {
	h := NewTestHarness(t)
	h.Call(engine.OpAddFungibleUnit, obj{"id": "boat-1", "product_id": "boat", "code": "BOAT-01"}, nil)

	line := obj{"resource": obj{"kind": "fungible", "id": "boat"}, "quantity": 1, "unit_price": "750000"}

	var first domain.Reservation
	h.Call(engine.OpCreateReservation, stay(line), &first)

	resp := h.Send(engine.OpCreateReservation, stay(line))
	require.NotNil(t, resp.Error)
	assert.Equal(t, errors.CodeInsufficientInventory, resp.Error.Code)
	require.NotNil(t, resp.Error.Shortage)
	assert.Equal(t, errors.Shortage{Resource: "fungible:boat", Available: 0, Requested: 1}, *resp.Error.Shortage)
	assert.Equal(t, float64(1), testutil.ToFloat64(h.Metrics.InventoryShortages.WithLabelValues(engine.OpCreateReservation)))

	h.Call(engine.OpRecordPayment, pay(first.ID, "225000", "dp-boat"), nil)
	h.Call(engine.OpCancelReservation, obj{"id": first.ID}, nil)

	resp = h.Send(engine.OpRecordPayment, pay(first.ID, "100000", "late"))
	require.NotNil(t, resp.Error)
	assert.Equal(t, errors.CodeValidation, resp.Error.Code, "no payments against cancelled stays")

	resp = h.Send(engine.OpRecordRefund, pay(first.ID, "300000", "refund-too-much"))
	require.NotNil(t, resp.Error)
	assert.Equal(t, errors.CodeOverRefund, resp.Error.Code)
	assert.Equal(t, "OutOfRange", resp.Error.GRPCCode)

	var refund ledger.Receipt
	h.Call(engine.OpRecordRefund, pay(first.ID, "225000", "refund-boat"), &refund)
	assert.True(t, refund.Summary.NetPaid.IsZero())
	assert.Equal(t, domain.ReservationCancelled, refund.ReservationStatus)

	var second domain.Reservation
	h.Call(engine.OpCreateReservation, stay(line), &second)
	assert.Equal(t, "RSV-20251101-0002", second.Code, "the failed attempt consumed no code")
}

func TestOperationsAreTracedAndLogged(t *testing.T) {
	h := NewTestHarness(t)
	h.Call(engine.OpAddNamedUnit, obj{"id": "villa-1", "group": "villa", "code": "VK-1", "capacity": 2}, nil)
	resp := h.Send(engine.OpGetReservation, obj{"id": "missing"})
	require.NotNil(t, resp.Error)

	spans := h.Spans.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, engine.OpAddNamedUnit, spans[0].Name())
	assert.Equal(t, engine.OpGetReservation, spans[1].Name())

	var traceIDs []string
	for _, span := range spans {
		for _, attr := range span.Attributes() {
			if string(attr.Key) == observability.TraceIDKey {
				traceIDs = append(traceIDs, attr.Value.AsString())
			}
		}
	}
	assert.Equal(t, []string{"it-0001", "it-0002"}, traceIDs)

	logs := h.Logs.String()
	assert.True(t, strings.Contains(logs, `"trace_id":"it-0002"`))
	assert.True(t, strings.Contains(logs, errors.CodeNotFound))
	assert.Equal(t, float64(1), testutil.ToFloat64(h.Metrics.OperationsTotal.WithLabelValues(engine.OpGetReservation, errors.CodeNotFound)))
}
