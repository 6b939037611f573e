package engine

import (
	"context"

	"github.com/Youmanvi/venuereserve/internal/domain"
	"github.com/Youmanvi/venuereserve/internal/infrastructure/store"
	"github.com/Youmanvi/venuereserve/internal/ledger"
	"github.com/Youmanvi/venuereserve/internal/pkg/errors"
	"github.com/Youmanvi/venuereserve/internal/reservation"
	"github.com/Youmanvi/venuereserve/internal/sales"
	"github.com/Youmanvi/venuereserve/internal/sequence"
)

// CheckAvailability reports whether quantity units of ref are free over r.
// The answer is advisory; CreateReservation re-checks under the write lock.
func (e *Engine) CheckAvailability(ctx context.Context, ref domain.ResourceRef, r domain.DateRange, quantity int) (domain.Availability, error) {
	var avail domain.Availability
	err := e.run(ctx, OpCheckAvailability, func(ctx context.Context) error {
		var err error
		avail, err = e.catalog.Availability(ctx, ref, r, quantity)
		return err
	})
	return avail, err
}

// CreateReservation allocates units and commits the reservation atomically
func (e *Engine) CreateReservation(ctx context.Context, req reservation.CreateRequest) (*domain.Reservation, error) {
	var res *domain.Reservation
	err := e.run(ctx, OpCreateReservation, func(ctx context.Context) error {
		var err error
		res, err = e.reservations.Create(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	e.metrics.RecordReservationCreated()
	e.invalidate(ctx, res.ProductIDs()...)
	return res, nil
}

// UpdateReservationStatus applies one lifecycle transition
func (e *Engine) UpdateReservationStatus(ctx context.Context, id string, status domain.ReservationStatus) (*domain.Reservation, error) {
	return e.transition(ctx, OpUpdateReservationStatus, id, status)
}

// CancelReservation cancels a reservation and releases its units
func (e *Engine) CancelReservation(ctx context.Context, id string) (*domain.Reservation, error) {
	return e.transition(ctx, OpCancelReservation, id, domain.ReservationCancelled)
}

func (e *Engine) transition(ctx context.Context, op, id string, status domain.ReservationStatus) (*domain.Reservation, error) {
	var res *domain.Reservation
	err := e.run(ctx, op, func(ctx context.Context) error {
		var err error
		res, err = e.reservations.UpdateStatus(ctx, id, status)
		return err
	})
	if err != nil {
		return nil, err
	}
	if status == domain.ReservationCancelled {
		e.invalidate(ctx, res.ProductIDs()...)
	}
	return res, nil
}

// GetReservation reads a reservation by id, or by code when id is empty
func (e *Engine) GetReservation(ctx context.Context, id, code string) (*domain.Reservation, error) {
	var res *domain.Reservation
	err := e.run(ctx, OpGetReservation, func(ctx context.Context) error {
		var err error
		switch {
		case id != "":
			res, err = e.reservations.Get(ctx, id)
		case code != "":
			res, err = e.reservations.GetByCode(ctx, code)
		default:
			err = errors.Validation("reservation id or code is required")
		}
		return err
	})
	return res, err
}

// RecordPayment appends a payment and returns the event with the new status
func (e *Engine) RecordPayment(ctx context.Context, req ledger.Request) (*ledger.Receipt, error) {
	return e.record(ctx, OpRecordPayment, req, e.ledger.RecordPayment)
}

// RecordRefund appends a refund and returns the event with the new status
func (e *Engine) RecordRefund(ctx context.Context, req ledger.Request) (*ledger.Receipt, error) {
	return e.record(ctx, OpRecordRefund, req, e.ledger.RecordRefund)
}

func (e *Engine) record(ctx context.Context, op string, req ledger.Request,
	fn func(context.Context, ledger.Request) (*ledger.Receipt, error)) (*ledger.Receipt, error) {
	var receipt *ledger.Receipt
	err := e.run(ctx, op, func(ctx context.Context) error {
		var err error
		receipt, err = fn(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	if receipt.Duplicate {
		e.metrics.RecordDuplicatePayment()
	} else {
		e.metrics.RecordLedgerEvent(string(receipt.Event.Target.Type), string(receipt.Event.Kind), receipt.Event.Amount)
	}
	return receipt, nil
}

// CreateSale records an over-the-counter sale
func (e *Engine) CreateSale(ctx context.Context, req sales.CreateRequest) (*domain.Sale, error) {
	var sale *domain.Sale
	err := e.run(ctx, OpCreateSale, func(ctx context.Context) error {
		var err error
		sale, err = e.sales.Create(ctx, req)
		return err
	})
	return sale, err
}

// CancelSale voids a sale
func (e *Engine) CancelSale(ctx context.Context, id string) (*domain.Sale, error) {
	var sale *domain.Sale
	err := e.run(ctx, OpCancelSale, func(ctx context.Context) error {
		var err error
		sale, err = e.sales.Cancel(ctx, id)
		return err
	})
	return sale, err
}

// GetSale reads a sale with its lines
func (e *Engine) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	var sale *domain.Sale
	err := e.run(ctx, OpGetSale, func(ctx context.Context) error {
		var err error
		sale, err = e.sales.Get(ctx, id)
		return err
	})
	return sale, err
}

// LedgerSummary derives the payment state of a target
func (e *Engine) LedgerSummary(ctx context.Context, target domain.Target) (domain.LedgerSummary, error) {
	var summary domain.LedgerSummary
	err := e.run(ctx, OpLedgerSummary, func(ctx context.Context) error {
		var err error
		summary, err = e.ledger.Summary(ctx, target)
		return err
	})
	return summary, err
}

// Reconcile repairs the cached payment status of a target
func (e *Engine) Reconcile(ctx context.Context, target domain.Target) (*ledger.ReconcileResult, error) {
	var result *ledger.ReconcileResult
	err := e.run(ctx, OpReconcile, func(ctx context.Context) error {
		var err error
		result, err = e.ledger.Reconcile(ctx, target)
		return err
	})
	if err != nil {
		return nil, err
	}
	if result.Repaired {
		e.logger.Logger.Warn().
			Str("target", string(target.Type)+":"+target.ID).
			Str("previous", string(result.Previous)).
			Str("derived", string(result.Summary.Status)).
			Msg("cached payment status repaired")
	}
	return result, nil
}

// IssueCode hands out the next code for prefix on today's date, e.g. an
// invoice number.
func (e *Engine) IssueCode(ctx context.Context, prefix string) (string, error) {
	var code string
	err := e.run(ctx, OpIssueCode, func(ctx context.Context) error {
		return e.store.WithTx(ctx, func(q *store.Queries) error {
			var err error
			code, err = sequence.Next(ctx, q, prefix, domain.Day(e.now(), e.loc))
			return err
		})
	})
	return code, err
}
