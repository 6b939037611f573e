// Package reservation owns the reservation lifecycle: creation with
// in-transaction allocation, status transitions and reads.
package reservation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Youmanvi/venuereserve/internal/allocation"
	"github.com/Youmanvi/venuereserve/internal/domain"
	"github.com/Youmanvi/venuereserve/internal/infrastructure/store"
	"github.com/Youmanvi/venuereserve/internal/pkg/errors"
	"github.com/Youmanvi/venuereserve/internal/sequence"
)

// LineRequest asks for one resource. For a fungible product Quantity is the
// number of units and each unit becomes its own line. For a named unit
// Quantity only multiplies the price (nights, persons).
type LineRequest struct {
	Resource        domain.ResourceRef `json:"resource"`
	Quantity        int                `json:"quantity"`
	UnitPrice       decimal.Decimal    `json:"unit_price"`
	DiscountPercent decimal.Decimal    `json:"discount_percent"`
}

// CreateRequest is the input of Create
type CreateRequest struct {
	Customer    domain.Customer          `json:"customer"`
	Range       domain.DateRange         `json:"range"`
	Lines       []LineRequest            `json:"lines"`
	DownPayment domain.DownPaymentPolicy `json:"down_payment"`
	Draft       bool                     `json:"draft"`
	Notes       string                   `json:"notes"`
	CreatedBy   string                   `json:"created_by"`
}

// Options tune the manager. Zero values fall back to UTC, time.Now and uuid.
type Options struct {
	Location         *time.Location
	AllowPastCheckin bool
	Now              func() time.Time
	NewID            func() string
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	return o
}

// Manager creates reservations and moves them through their lifecycle
type Manager struct {
	store *store.Store
	opts  Options
}

// NewManager creates a lifecycle manager over s
func NewManager(s *store.Store, opts Options) *Manager {
	return &Manager{store: s, opts: opts.withDefaults()}
}

// Create validates the request, allocates units and persists the header,
// lines and code in one write transaction. Nothing is written on error.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (*domain.Reservation, error) {
	now := m.opts.Now()
	if err := m.validate(&req, now); err != nil {
		return nil, err
	}

	status := domain.ReservationPending
	if req.Draft {
		status = domain.ReservationDraft
	}

	var res *domain.Reservation
	err := m.store.WithTx(ctx, func(q *store.Queries) error {
		lines, err := m.allocate(ctx, allocation.New(q), req)
		if err != nil {
			return err
		}

		res, err = domain.NewReservation(m.opts.NewID(), req.Customer, req.Range, lines, req.DownPayment, status, now)
		if err != nil {
			return err
		}
		res.Notes = req.Notes
		res.CreatedBy = req.CreatedBy

		res.Code, err = sequence.Next(ctx, q, sequence.PrefixReservation, domain.Day(now, m.opts.Location))
		if err != nil {
			return err
		}
		return q.InsertReservation(ctx, res)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// validate checks req and replaces its range with the whole-day range that
// is checked for conflicts and stored.
func (m *Manager) validate(req *CreateRequest, now time.Time) error {
	if err := req.Customer.Validate(); err != nil {
		return err
	}
	r, err := domain.NewDateRange(req.Range.CheckIn, req.Range.CheckOut)
	if err != nil {
		return err
	}
	req.Range = r
	if !m.opts.AllowPastCheckin {
		today := domain.Day(now, m.opts.Location)
		if req.Range.CheckIn.Before(today) {
			return errors.Validation("checkin %s is in the past", req.Range.CheckIn.Format(domain.DateLayout))
		}
	}
	if err := req.DownPayment.Validate(); err != nil {
		return err
	}
	if len(req.Lines) == 0 {
		return errors.Validation("reservation must contain at least one line")
	}
	for _, line := range req.Lines {
		if err := line.Resource.Validate(); err != nil {
			return err
		}
		if err := line.pricing().Validate(); err != nil {
			return err
		}
	}
	return nil
}

// allocate re-runs every feasibility check under the write lock and turns
// requests into priced lines.
func (m *Manager) allocate(ctx context.Context, alloc *allocation.Allocator, req CreateRequest) ([]domain.ReservationLine, error) {
	var lines []domain.ReservationLine
	for _, lr := range req.Lines {
		switch lr.Resource.Kind {
		case domain.ResourceNamed:
			if err := alloc.ClaimNamedUnit(ctx, lr.Resource.ID, req.Range); err != nil {
				return nil, err
			}
			line, err := domain.NewNamedLine(m.opts.NewID(), lr.Resource.ID, lr.pricing())
			if err != nil {
				return nil, err
			}
			lines = append(lines, line)

		case domain.ResourceFungible:
			unitIDs, err := alloc.ReserveFungible(ctx, lr.Resource.ID, req.Range, lr.Quantity)
			if err != nil {
				return nil, err
			}
			single := lr.pricing()
			single.Quantity = 1
			for _, unitID := range unitIDs {
				line, err := domain.NewFungibleLine(m.opts.NewID(), lr.Resource.ID, unitID, single)
				if err != nil {
					return nil, err
				}
				lines = append(lines, line)
			}
		}
	}
	return lines, nil
}

func (lr LineRequest) pricing() domain.Pricing {
	return domain.Pricing{Quantity: lr.Quantity, UnitPrice: lr.UnitPrice, DiscountPercent: lr.DiscountPercent}
}

// UpdateStatus applies one lifecycle transition
func (m *Manager) UpdateStatus(ctx context.Context, id string, next domain.ReservationStatus) (*domain.Reservation, error) {
	if !next.Valid() {
		return nil, errors.Validation("unknown reservation status %q", next)
	}

	var res *domain.Reservation
	err := m.store.WithTx(ctx, func(q *store.Queries) error {
		var err error
		res, err = q.Reservation(ctx, id)
		if err != nil {
			return err
		}
		if err := res.TransitionTo(next, m.opts.Now()); err != nil {
			return err
		}
		return q.UpdateReservationStatus(ctx, res.ID, res.Status, res.UpdatedAt)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Cancel moves the reservation to cancelled. Its units stop counting as
// booked because conflict scans skip cancelled reservations.
func (m *Manager) Cancel(ctx context.Context, id string) (*domain.Reservation, error) {
	return m.UpdateStatus(ctx, id, domain.ReservationCancelled)
}

// Get reads a reservation with its lines
func (m *Manager) Get(ctx context.Context, id string) (*domain.Reservation, error) {
	return m.store.Queries().Reservation(ctx, id)
}

// GetByCode reads a reservation by its human code
func (m *Manager) GetByCode(ctx context.Context, code string) (*domain.Reservation, error) {
	return m.store.Queries().ReservationByCode(ctx, code)
}
