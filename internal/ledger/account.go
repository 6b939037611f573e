package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Youmanvi/venuereserve/internal/domain"
	"github.com/Youmanvi/venuereserve/internal/infrastructure/store"
)

// account is the target of a ledger write, loaded inside the transaction.
// Exactly one of reservation and sale is set.
type account struct {
	target      domain.Target
	reservation *domain.Reservation
	sale        *domain.Sale
}

func loadAccount(ctx context.Context, q *store.Queries, target domain.Target) (*account, error) {
	acct := &account{target: target}
	var err error
	switch target.Type {
	case domain.TargetReservation:
		acct.reservation, err = q.Reservation(ctx, target.ID)
	case domain.TargetSale:
		acct.sale, err = q.Sale(ctx, target.ID)
	default:
		err = target.Validate()
	}
	if err != nil {
		return nil, err
	}
	return acct, nil
}

func (a *account) net() decimal.Decimal {
	if a.reservation != nil {
		return a.reservation.Totals.Net
	}
	return a.sale.Totals.Net
}

// released reports whether the target no longer accepts payments
func (a *account) released() bool {
	if a.reservation != nil {
		for _, s := range domain.ReleasedStatuses {
			if a.reservation.Status == s {
				return true
			}
		}
		return false
	}
	return a.sale.IsCancelled()
}

// cachedStatus is the stored payment status. Cancelled sales keep none.
func (a *account) cachedStatus() domain.PaymentStatus {
	if a.reservation != nil {
		return a.reservation.PaymentStatus
	}
	if a.sale.IsCancelled() {
		return ""
	}
	return domain.PaymentStatus(a.sale.Status)
}

func (a *account) summarize(events []domain.PaymentEvent) domain.LedgerSummary {
	summary := domain.Summarize(a.target, events, a.net())
	if a.reservation != nil {
		summary.MinimumDownPayment = a.reservation.MinimumDownPayment()
	} else {
		summary.MinimumDownPayment = decimal.Zero
	}
	return summary
}

// apply writes the derived status to the cached column and confirms a
// pending reservation once it is paid. It reports whether the cached value
// changed.
func (a *account) apply(ctx context.Context, q *store.Queries, status domain.PaymentStatus, now time.Time) (bool, error) {
	changed := a.cachedStatus() != status

	if a.sale != nil {
		if a.sale.IsCancelled() {
			return false, nil
		}
		a.sale.ApplyPaymentStatus(status, now)
		return changed, q.UpdateSaleStatus(ctx, a.sale)
	}

	res := a.reservation
	res.PaymentStatus = status
	res.UpdatedAt = now
	if err := q.UpdateReservationPaymentStatus(ctx, res.ID, status, now); err != nil {
		return false, err
	}
	if status == domain.PaymentPaid && res.Status == domain.ReservationPending {
		if err := res.TransitionTo(domain.ReservationConfirmed, now); err != nil {
			return false, err
		}
		if err := q.UpdateReservationStatus(ctx, res.ID, res.Status, now); err != nil {
			return false, err
		}
	}
	return changed, nil
}

func (a *account) receipt(ev *domain.PaymentEvent, summary domain.LedgerSummary) *Receipt {
	r := &Receipt{Event: ev, Summary: summary}
	if a.reservation != nil {
		r.ReservationStatus = a.reservation.Status
	} else {
		r.SaleStatus = a.sale.Status
	}
	return r
}
