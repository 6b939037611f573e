package domain

import (
	"github.com/shopspring/decimal"

	"github.com/Youmanvi/venuereserve/internal/pkg/errors"
)

var hundred = decimal.NewFromInt(100)

// Customer identifies who a reservation or sale belongs to
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// Validate checks the customer identity is usable
func (c Customer) Validate() error {
	if c.ID == "" {
		return errors.Validation("customer id is required")
	}
	if c.Name == "" {
		return errors.Validation("customer name is required")
	}
	return nil
}

// Totals are the server-computed monetary totals of an aggregate
type Totals struct {
	Gross    decimal.Decimal `json:"gross_amount"`
	Discount decimal.Decimal `json:"discount_amount"`
	Net      decimal.Decimal `json:"net_amount"`
}

// Pricing is the caller-supplied price of one line
type Pricing struct {
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// Validate rejects non-positive quantities, negative prices and discounts outside 0..100.
func (p Pricing) Validate() error {
	if p.Quantity <= 0 {
		return errors.Validation("quantity must be greater than zero")
	}
	if p.UnitPrice.IsNegative() {
		return errors.Validation("unit price must not be negative")
	}
	if p.DiscountPercent.IsNegative() || p.DiscountPercent.GreaterThan(hundred) {
		return errors.Validation("discount percent must be between 0 and 100")
	}
	return nil
}

// Amounts returns quantity × unit price and the discount on it, rounded to cents.
func (p Pricing) Amounts() (subtotal, discount decimal.Decimal) {
	subtotal = p.UnitPrice.Mul(decimal.NewFromInt(int64(p.Quantity))).Round(2)
	discount = subtotal.Mul(p.DiscountPercent).Div(hundred).Round(2)
	return subtotal, discount
}

// SumTotals adds line subtotals and discounts into header totals
func SumTotals(subtotals, discounts []decimal.Decimal) Totals {
	gross := decimal.Sum(decimal.Zero, subtotals...)
	discount := decimal.Sum(decimal.Zero, discounts...)
	return Totals{Gross: gross, Discount: discount, Net: gross.Sub(discount)}
}

// DownPaymentPolicy is the advisory minimum first payment of a reservation
type DownPaymentPolicy struct {
	Required    bool            `json:"dp_required"`
	FixedAmount decimal.Decimal `json:"dp_fixed_amount"`
	Percentage  decimal.Decimal `json:"dp_percentage"`
}

// Validate rejects negative amounts and percentages above 100
func (p DownPaymentPolicy) Validate() error {
	if p.FixedAmount.IsNegative() {
		return errors.Validation("down payment amount must not be negative")
	}
	if p.Percentage.IsNegative() || p.Percentage.GreaterThan(hundred) {
		return errors.Validation("down payment percentage must be between 0 and 100")
	}
	return nil
}

// Minimum returns the minimum acceptable first payment for net. It never blocks ledger writes.
func (p DownPaymentPolicy) Minimum(net decimal.Decimal) decimal.Decimal {
	if !p.Required {
		return decimal.Zero
	}
	if p.Percentage.IsPositive() {
		return net.Mul(p.Percentage).Div(hundred).Round(2)
	}
	return p.FixedAmount
}
