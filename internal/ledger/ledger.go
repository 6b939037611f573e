// Package ledger records payments and refunds against reservations and sales
// and keeps their cached payment status in step with the event stream.
package ledger

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Youmanvi/venuereserve/internal/domain"
	"github.com/Youmanvi/venuereserve/internal/infrastructure/store"
	"github.com/Youmanvi/venuereserve/internal/pkg/errors"
)

// Request is the input of RecordPayment and RecordRefund. Method is
// required for payments only.
type Request struct {
	Target         domain.Target        `json:"target"`
	Amount         decimal.Decimal      `json:"amount"`
	Method         domain.PaymentMethod `json:"method,omitempty"`
	Reference      string               `json:"reference,omitempty"`
	IdempotencyKey string               `json:"idempotency_key,omitempty"`
	Actor          string               `json:"actor,omitempty"`
}

// Receipt is the outcome of a ledger write
type Receipt struct {
	Event             *domain.PaymentEvent     `json:"event"`
	Summary           domain.LedgerSummary     `json:"summary"`
	Duplicate         bool                     `json:"duplicate"`
	ReservationStatus domain.ReservationStatus `json:"reservation_status,omitempty"`
	SaleStatus        domain.SaleStatus        `json:"sale_status,omitempty"`
}

// KeyReuseError is returned when an idempotency key is presented again with
// a different target, kind or amount. It unwraps to DUPLICATE_IDEMPOTENCY_KEY.
type KeyReuseError struct {
	Key      string
	Existing *domain.PaymentEvent
}

func (e *KeyReuseError) Error() string {
	return errors.DuplicateIdempotencyKey(e.Key).Error()
}

func (e *KeyReuseError) Unwrap() error {
	return errors.DuplicateIdempotencyKey(e.Key)
}

// ReconcileResult reports what Reconcile found
type ReconcileResult struct {
	Summary  domain.LedgerSummary `json:"summary"`
	Previous domain.PaymentStatus `json:"previous_status"`
	Repaired bool                 `json:"repaired"`
}

// Options tune the ledger. Zero values fall back to time.Now and uuid.
type Options struct {
	Now   func() time.Time
	NewID func() string
}

// Ledger is the append-only payment event log
type Ledger struct {
	store *store.Store
	now   func() time.Time
	newID func() string
}

// New creates a ledger over s
func New(s *store.Store, opts Options) *Ledger {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Ledger{store: s, now: opts.Now, newID: opts.NewID}
}

// RecordPayment appends a payment. A repeated idempotency key returns the
// original event with Duplicate set and writes nothing.
func (l *Ledger) RecordPayment(ctx context.Context, req Request) (*Receipt, error) {
	return l.record(ctx, domain.KindPayment, req)
}

// RecordRefund appends a refund of at most the net amount paid so far.
func (l *Ledger) RecordRefund(ctx context.Context, req Request) (*Receipt, error) {
	return l.record(ctx, domain.KindRefund, req)
}

func (l *Ledger) record(ctx context.Context, kind domain.PaymentKind, req Request) (*Receipt, error) {
	now := l.now()
	ev, err := domain.NewPaymentEvent(l.newID(), req.Target, kind, req.Amount, req.Method,
		req.Reference, req.IdempotencyKey, req.Actor, now)
	if err != nil {
		return nil, err
	}

	var receipt *Receipt
	err = l.store.WithTx(ctx, func(q *store.Queries) error {
		if ev.IdempotencyKey != "" {
			existing, found, err := q.PaymentEventByKey(ctx, ev.IdempotencyKey)
			if err != nil {
				return err
			}
			if found {
				if !existing.SamePayload(*ev) {
					return &KeyReuseError{Key: ev.IdempotencyKey, Existing: existing}
				}
				receipt, err = replay(ctx, q, existing)
				return err
			}
		}

		acct, err := loadAccount(ctx, q, ev.Target)
		if err != nil {
			return err
		}
		if kind == domain.KindPayment && acct.released() {
			return errors.Validation("cannot record a payment against cancelled %s %s", ev.Target.Type, ev.Target.ID)
		}

		events, err := q.PaymentEvents(ctx, ev.Target)
		if err != nil {
			return err
		}
		if kind == domain.KindRefund {
			before := acct.summarize(events)
			if ev.Amount.GreaterThan(before.Refundable()) {
				return errors.OverRefund(ev.Amount.String(), before.Refundable().String())
			}
		}

		if err := q.InsertPaymentEvent(ctx, ev); err != nil {
			if stderrors.Is(err, store.ErrIdempotencyKeyTaken) {
				return errors.Conflict(fmt.Sprintf("idempotency key %q recorded concurrently", ev.IdempotencyKey), err)
			}
			return err
		}

		summary := acct.summarize(append(events, *ev))
		if _, err := acct.apply(ctx, q, summary.Status, now); err != nil {
			return err
		}
		receipt = acct.receipt(ev, summary)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// replay answers a repeated submission with the current state of its target
func replay(ctx context.Context, q *store.Queries, existing *domain.PaymentEvent) (*Receipt, error) {
	acct, err := loadAccount(ctx, q, existing.Target)
	if err != nil {
		return nil, err
	}
	events, err := q.PaymentEvents(ctx, existing.Target)
	if err != nil {
		return nil, err
	}
	receipt := acct.receipt(existing, acct.summarize(events))
	receipt.Duplicate = true
	return receipt, nil
}

// Summary derives the payment state of a target from its full event stream
func (l *Ledger) Summary(ctx context.Context, target domain.Target) (domain.LedgerSummary, error) {
	if err := target.Validate(); err != nil {
		return domain.LedgerSummary{}, err
	}
	q := l.store.Queries()
	acct, err := loadAccount(ctx, q, target)
	if err != nil {
		return domain.LedgerSummary{}, err
	}
	events, err := q.PaymentEvents(ctx, target)
	if err != nil {
		return domain.LedgerSummary{}, err
	}
	return acct.summarize(events), nil
}

// Reconcile re-derives the payment status and rewrites the cached column
// when it drifted. Reservation totals are checked against their lines too.
func (l *Ledger) Reconcile(ctx context.Context, target domain.Target) (*ReconcileResult, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}

	var result *ReconcileResult
	err := l.store.WithTx(ctx, func(q *store.Queries) error {
		acct, err := loadAccount(ctx, q, target)
		if err != nil {
			return err
		}
		if acct.reservation != nil {
			if err := acct.reservation.Reconcile(); err != nil {
				return err
			}
		}
		events, err := q.PaymentEvents(ctx, target)
		if err != nil {
			return err
		}

		summary := acct.summarize(events)
		previous := acct.cachedStatus()
		repaired, err := acct.apply(ctx, q, summary.Status, l.now())
		if err != nil {
			return err
		}
		result = &ReconcileResult{Summary: summary, Previous: previous, Repaired: repaired}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
