// Package sales handles over-the-counter sales. They share the payment
// ledger with reservations but hold no inventory.
package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Youmanvi/venuereserve/internal/domain"
	"github.com/Youmanvi/venuereserve/internal/infrastructure/store"
	"github.com/Youmanvi/venuereserve/internal/pkg/errors"
	"github.com/Youmanvi/venuereserve/internal/sequence"
)

// LineRequest is one item of a sale
type LineRequest struct {
	SKU             string          `json:"sku"`
	Description     string          `json:"description"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// CreateRequest is the input of Create
type CreateRequest struct {
	Customer  domain.Customer `json:"customer"`
	Lines     []LineRequest   `json:"lines"`
	Notes     string          `json:"notes"`
	CreatedBy string          `json:"created_by"`
}

// Options tune the manager. Zero values fall back to UTC, time.Now and uuid.
type Options struct {
	Location *time.Location
	Now      func() time.Time
	NewID    func() string
}

// Manager creates and cancels sales
type Manager struct {
	store *store.Store
	loc   *time.Location
	now   func() time.Time
	newID func() string
}

// NewManager creates a sales manager over s
func NewManager(s *store.Store, opts Options) *Manager {
	m := &Manager{store: s, loc: opts.Location, now: opts.Now, newID: opts.NewID}
	if m.loc == nil {
		m.loc = time.UTC
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.newID == nil {
		m.newID = uuid.NewString
	}
	return m
}

// Create prices the lines and stores the sale with a SAL code
func (m *Manager) Create(ctx context.Context, req CreateRequest) (*domain.Sale, error) {
	if len(req.Lines) == 0 {
		return nil, errors.Validation("sale must contain at least one line")
	}
	lines := make([]domain.SaleLine, 0, len(req.Lines))
	for _, lr := range req.Lines {
		line, err := domain.NewSaleLine(m.newID(), lr.SKU, lr.Description, domain.Pricing{
			Quantity:        lr.Quantity,
			UnitPrice:       lr.UnitPrice,
			DiscountPercent: lr.DiscountPercent,
		})
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	now := m.now()
	sale, err := domain.NewSale(m.newID(), req.Customer, lines, now)
	if err != nil {
		return nil, err
	}
	sale.Notes = req.Notes
	sale.CreatedBy = req.CreatedBy

	err = m.store.WithTx(ctx, func(q *store.Queries) error {
		code, err := sequence.Next(ctx, q, sequence.PrefixSale, domain.Day(now, m.loc))
		if err != nil {
			return err
		}
		sale.Code = code
		return q.InsertSale(ctx, sale)
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// Cancel voids a sale. Collected money stays in the ledger until refunded.
func (m *Manager) Cancel(ctx context.Context, id string) (*domain.Sale, error) {
	var sale *domain.Sale
	err := m.store.WithTx(ctx, func(q *store.Queries) error {
		var err error
		sale, err = q.Sale(ctx, id)
		if err != nil {
			return err
		}
		if err := sale.Cancel(m.now()); err != nil {
			return err
		}
		return q.UpdateSaleStatus(ctx, sale)
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// Get reads a sale with its lines
func (m *Manager) Get(ctx context.Context, id string) (*domain.Sale, error) {
	return m.store.Queries().Sale(ctx, id)
}
