package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Youmanvi/venuereserve/internal/pkg/errors"
)

// SaleStatus is the payment status of a sale, or cancelled once voided
type SaleStatus string

const (
	SaleUnpaid    SaleStatus = SaleStatus(PaymentUnpaid)
	SalePartial   SaleStatus = SaleStatus(PaymentPartial)
	SalePaid      SaleStatus = SaleStatus(PaymentPaid)
	SaleCancelled SaleStatus = "cancelled"
)

// SaleLine represents a single item sold over the counter
type SaleLine struct {
	ID              string          `json:"id"`
	SaleID          string          `json:"sale_id"`
	SKU             string          `json:"sku"`
	Description     string          `json:"description,omitempty"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Discount        decimal.Decimal `json:"discount"`
}

// NewSaleLine prices a sale line
func NewSaleLine(id, sku, description string, pricing Pricing) (SaleLine, error) {
	if sku == "" {
		return SaleLine{}, errors.Validation("sku is required")
	}
	if err := pricing.Validate(); err != nil {
		return SaleLine{}, err
	}
	subtotal, discount := pricing.Amounts()
	return SaleLine{
		ID:              id,
		SKU:             sku,
		Description:     description,
		Quantity:        pricing.Quantity,
		UnitPrice:       pricing.UnitPrice,
		DiscountPercent: pricing.DiscountPercent,
		Subtotal:        subtotal,
		Discount:        discount,
	}, nil
}

// Sale is a point-of-sale transaction without a date range
type Sale struct {
	ID          string     `json:"id"`
	Code        string     `json:"code"`
	Customer    Customer   `json:"customer"`
	Status      SaleStatus `json:"status"`
	Totals      Totals     `json:"totals"`
	Notes       string     `json:"notes,omitempty"`
	CreatedBy   string     `json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	Lines       []SaleLine `json:"lines"`
}

// NewSale creates an unpaid sale and computes its totals
func NewSale(id string, customer Customer, lines []SaleLine, now time.Time) (*Sale, error) {
	if id == "" {
		return nil, errors.Validation("sale id cannot be empty")
	}
	if err := customer.Validate(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, errors.Validation("sale must contain at least one line")
	}

	owned := make([]SaleLine, len(lines))
	subtotals := make([]decimal.Decimal, len(lines))
	discounts := make([]decimal.Decimal, len(lines))
	for i, line := range lines {
		line.SaleID = id
		owned[i] = line
		subtotals[i] = line.Subtotal
		discounts[i] = line.Discount
	}

	return &Sale{
		ID:        id,
		Customer:  customer,
		Status:    SaleUnpaid,
		Totals:    SumTotals(subtotals, discounts),
		CreatedAt: now,
		UpdatedAt: now,
		Lines:     owned,
	}, nil
}

// IsCancelled reports whether the sale has been voided
func (s *Sale) IsCancelled() bool {
	return s.Status == SaleCancelled
}

// Cancel voids the sale. Payments stay in the ledger and must be refunded explicitly.
func (s *Sale) Cancel(now time.Time) error {
	if s.IsCancelled() {
		return errors.InvalidTransition(string(s.Status), string(SaleCancelled))
	}
	s.Status = SaleCancelled
	s.UpdatedAt = now
	s.CancelledAt = &now
	return nil
}

// ApplyPaymentStatus records a derived payment status unless the sale is voided
func (s *Sale) ApplyPaymentStatus(status PaymentStatus, now time.Time) {
	if s.IsCancelled() {
		return
	}
	s.Status = SaleStatus(status)
	s.UpdatedAt = now
}
