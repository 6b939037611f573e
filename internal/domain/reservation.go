package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Youmanvi/venuereserve/internal/pkg/errors"
)

// ReservationStatus represents the lifecycle status of a reservation
type ReservationStatus string

const (
	ReservationDraft      ReservationStatus = "draft"
	ReservationPending    ReservationStatus = "pending"
	ReservationConfirmed  ReservationStatus = "confirmed"
	ReservationCheckedIn  ReservationStatus = "checked_in"
	ReservationCheckedOut ReservationStatus = "checked_out"
	ReservationCancelled  ReservationStatus = "cancelled"
	// ReservationRejected only appears on imported rows; no transition produces it.
	ReservationRejected ReservationStatus = "rejected"
)

// ReleasedStatuses are the statuses whose lines no longer hold inventory.
var ReleasedStatuses = []ReservationStatus{ReservationCancelled, ReservationRejected}

var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationDraft:     {ReservationPending, ReservationCancelled},
	ReservationPending:   {ReservationConfirmed, ReservationCancelled},
	ReservationConfirmed: {ReservationCheckedIn, ReservationCancelled},
	ReservationCheckedIn: {ReservationCheckedOut, ReservationCancelled},
}

// Valid reports whether s is a known status
func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationDraft, ReservationPending, ReservationConfirmed,
		ReservationCheckedIn, ReservationCheckedOut, ReservationCancelled, ReservationRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s ReservationStatus) IsTerminal() bool {
	return len(reservationTransitions[s]) == 0
}

// CanTransitionTo reports whether next is reachable from s in one step
func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	for _, allowed := range reservationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ReservationLine is one resource held by a reservation. Exactly one of
// NamedUnitID and FungibleUnitID is set.
type ReservationLine struct {
	ID              string          `json:"id"`
	ReservationID   string          `json:"reservation_id"`
	NamedUnitID     string          `json:"named_unit_id,omitempty"`
	FungibleUnitID  string          `json:"fungible_unit_id,omitempty"`
	ProductID       string          `json:"product_id,omitempty"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Discount        decimal.Decimal `json:"discount"`
}

// NewNamedLine prices a line holding a named unit
func NewNamedLine(id, unitID string, pricing Pricing) (ReservationLine, error) {
	if unitID == "" {
		return ReservationLine{}, errors.Validation("named unit id is required")
	}
	return newLine(ReservationLine{ID: id, NamedUnitID: unitID}, pricing)
}

// NewFungibleLine prices a line holding one unit of a product pool
func NewFungibleLine(id, productID, unitID string, pricing Pricing) (ReservationLine, error) {
	if productID == "" || unitID == "" {
		return ReservationLine{}, errors.Validation("product and fungible unit id are required")
	}
	return newLine(ReservationLine{ID: id, ProductID: productID, FungibleUnitID: unitID}, pricing)
}

func newLine(line ReservationLine, pricing Pricing) (ReservationLine, error) {
	if err := pricing.Validate(); err != nil {
		return ReservationLine{}, err
	}
	line.Quantity = pricing.Quantity
	line.UnitPrice = pricing.UnitPrice
	line.DiscountPercent = pricing.DiscountPercent
	line.Subtotal, line.Discount = pricing.Amounts()
	return line, nil
}

// Net is the line subtotal minus its discount
func (l ReservationLine) Net() decimal.Decimal {
	return l.Subtotal.Sub(l.Discount)
}

// UnitID returns whichever unit the line references
func (l ReservationLine) UnitID() string {
	if l.NamedUnitID != "" {
		return l.NamedUnitID
	}
	return l.FungibleUnitID
}

// Reservation is the aggregate root: header plus lines
type Reservation struct {
	ID            string            `json:"id"`
	Code          string            `json:"code"`
	Customer      Customer          `json:"customer"`
	Range         DateRange         `json:"range"`
	Status        ReservationStatus `json:"status"`
	Totals        Totals            `json:"totals"`
	DownPayment   DownPaymentPolicy `json:"down_payment"`
	PaymentStatus PaymentStatus     `json:"payment_status"`
	Notes         string            `json:"notes,omitempty"`
	CreatedBy     string            `json:"created_by,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	Lines         []ReservationLine `json:"lines"`
}

// NewReservation creates an unpaid reservation and computes its totals from the lines
func NewReservation(id string, customer Customer, r DateRange, lines []ReservationLine, dp DownPaymentPolicy, status ReservationStatus, now time.Time) (*Reservation, error) {
	if id == "" {
		return nil, errors.Validation("reservation id cannot be empty")
	}
	if err := customer.Validate(); err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, errors.Validation("reservation must contain at least one line")
	}
	if err := dp.Validate(); err != nil {
		return nil, err
	}
	if status != ReservationDraft && status != ReservationPending {
		return nil, errors.Validation("reservation must start as draft or pending, not %s", status)
	}

	owned := make([]ReservationLine, len(lines))
	for i, line := range lines {
		line.ReservationID = id
		owned[i] = line
	}

	res := &Reservation{
		ID:            id,
		Customer:      customer,
		Range:         r,
		Status:        status,
		DownPayment:   dp,
		PaymentStatus: PaymentUnpaid,
		CreatedAt:     now,
		UpdatedAt:     now,
		Lines:         owned,
	}
	res.Totals = res.ComputeTotals()
	return res, nil
}

// ComputeTotals recomputes header totals from the lines
func (r *Reservation) ComputeTotals() Totals {
	subtotals := make([]decimal.Decimal, len(r.Lines))
	discounts := make([]decimal.Decimal, len(r.Lines))
	for i, line := range r.Lines {
		subtotals[i] = line.Subtotal
		discounts[i] = line.Discount
	}
	return SumTotals(subtotals, discounts)
}

// Reconcile checks the stored totals against the lines
func (r *Reservation) Reconcile() error {
	computed := r.ComputeTotals()
	if !computed.Net.Equal(r.Totals.Net) || !computed.Gross.Equal(r.Totals.Gross) || !computed.Discount.Equal(r.Totals.Discount) {
		return errors.NewPermanentError(errors.CodeInternal,
			"reservation "+r.Code+" totals do not reconcile with its lines", nil)
	}
	return nil
}

// TransitionTo moves the reservation to next or returns INVALID_TRANSITION
func (r *Reservation) TransitionTo(next ReservationStatus, now time.Time) error {
	if !r.Status.CanTransitionTo(next) {
		return errors.InvalidTransition(string(r.Status), string(next))
	}
	r.Status = next
	r.UpdatedAt = now
	return nil
}

// ProductIDs returns the distinct fungible products held by the reservation
func (r *Reservation) ProductIDs() []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, line := range r.Lines {
		if line.ProductID == "" {
			continue
		}
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}
	return ids
}

// MinimumDownPayment is the advisory first payment for this reservation
func (r *Reservation) MinimumDownPayment() decimal.Decimal {
	return r.DownPayment.Minimum(r.Totals.Net)
}
