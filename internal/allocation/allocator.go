// Package allocation answers feasibility questions against the catalog and
// the reservations already holding units.
package allocation

import (
	"context"

	"github.com/Youmanvi/venuereserve/internal/domain"
	"github.com/Youmanvi/venuereserve/internal/pkg/errors"
)

// Inventory is the read surface the allocator needs. *store.Queries
// implements it both inside and outside a transaction.
type Inventory interface {
	NamedUnit(ctx context.Context, id string) (*domain.NamedUnit, error)
	FungibleUnitsByProduct(ctx context.Context, productID string) ([]domain.FungibleUnit, error)
	NamedUnitBookings(ctx context.Context, unitID string, exclude []domain.ReservationStatus) ([]domain.UnitBooking, error)
	ProductBookings(ctx context.Context, productID string, exclude []domain.ReservationStatus) ([]domain.UnitBooking, error)
}

// Allocator is scoped to one request. Units it hands out are remembered so
// two lines of the same request never receive the same unit.
type Allocator struct {
	inv     Inventory
	claimed map[string]struct{}
}

// New creates an allocator over inv
func New(inv Inventory) *Allocator {
	return &Allocator{inv: inv, claimed: make(map[string]struct{})}
}

// Check answers checkAvailability for either resource kind
func (a *Allocator) Check(ctx context.Context, ref domain.ResourceRef, r domain.DateRange, quantity int) (domain.Availability, error) {
	if err := ref.Validate(); err != nil {
		return domain.Availability{}, err
	}
	if quantity <= 0 {
		return domain.Availability{}, errors.Validation("quantity must be greater than zero")
	}
	r, err := domain.NewDateRange(r.CheckIn, r.CheckOut)
	if err != nil {
		return domain.Availability{}, err
	}

	var count int
	switch ref.Kind {
	case domain.ResourceNamed:
		ok, err := a.CheckNamedUnit(ctx, ref.ID, r)
		if err != nil {
			return domain.Availability{}, err
		}
		if ok {
			count = 1
		}
	case domain.ResourceFungible:
		n, err := a.CountAvailableFungible(ctx, ref.ID, r, domain.ReleasedStatuses)
		if err != nil {
			return domain.Availability{}, err
		}
		count = n
	}

	return domain.Availability{Feasible: count >= quantity, AvailableCount: count}, nil
}

// CheckNamedUnit reports whether the unit is available and free over r
func (a *Allocator) CheckNamedUnit(ctx context.Context, unitID string, r domain.DateRange) (bool, error) {
	if err := r.Validate(); err != nil {
		return false, err
	}

	unit, err := a.inv.NamedUnit(ctx, unitID)
	if err != nil {
		return false, err
	}
	if unit.Status != domain.UnitAvailable {
		return false, nil
	}
	if _, taken := a.claimed[unitID]; taken {
		return false, nil
	}

	bookings, err := a.inv.NamedUnitBookings(ctx, unitID, domain.ReleasedStatuses)
	if err != nil {
		return false, err
	}
	for _, b := range bookings {
		if b.Range.Overlaps(r) {
			return false, nil
		}
	}
	return true, nil
}

// ClaimNamedUnit checks the unit and reserves it for this request
func (a *Allocator) ClaimNamedUnit(ctx context.Context, unitID string, r domain.DateRange) error {
	ok, err := a.CheckNamedUnit(ctx, unitID, r)
	if err != nil {
		return err
	}
	if !ok {
		return errors.InsufficientInventory(domain.ResourceRef{Kind: domain.ResourceNamed, ID: unitID}.String(), 0, 1)
	}
	a.claimed[unitID] = struct{}{}
	return nil
}

// CountAvailableFungible counts distinct available units of the product not
// held by a line whose reservation status is outside exclude.
func (a *Allocator) CountAvailableFungible(ctx context.Context, productID string, r domain.DateRange, exclude []domain.ReservationStatus) (int, error) {
	free, err := a.freeFungible(ctx, productID, r, exclude)
	if err != nil {
		return 0, err
	}
	return len(free), nil
}

// ReserveFungible picks quantity free units in ascending code order. Nothing
// is written; the caller persists the lines in its own transaction.
func (a *Allocator) ReserveFungible(ctx context.Context, productID string, r domain.DateRange, quantity int) ([]string, error) {
	if quantity <= 0 {
		return nil, errors.Validation("quantity must be greater than zero")
	}

	free, err := a.freeFungible(ctx, productID, r, domain.ReleasedStatuses)
	if err != nil {
		return nil, err
	}
	if len(free) < quantity {
		return nil, errors.InsufficientInventory(
			domain.ResourceRef{Kind: domain.ResourceFungible, ID: productID}.String(), len(free), quantity)
	}

	ids := make([]string, quantity)
	for i := range ids {
		ids[i] = free[i].ID
		a.claimed[free[i].ID] = struct{}{}
	}
	return ids, nil
}

func (a *Allocator) freeFungible(ctx context.Context, productID string, r domain.DateRange, exclude []domain.ReservationStatus) ([]domain.FungibleUnit, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	units, err := a.inv.FungibleUnitsByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if len(units) == 0 {
		return nil, errors.NotFound("product", productID)
	}

	bookings, err := a.inv.ProductBookings(ctx, productID, exclude)
	if err != nil {
		return nil, err
	}
	busy := make(map[string]struct{}, len(bookings))
	for _, b := range bookings {
		if b.Range.Overlaps(r) {
			busy[b.UnitID] = struct{}{}
		}
	}

	free := make([]domain.FungibleUnit, 0, len(units))
	for _, u := range units {
		if u.Status != domain.UnitAvailable {
			continue
		}
		if _, ok := busy[u.ID]; ok {
			continue
		}
		if _, ok := a.claimed[u.ID]; ok {
			continue
		}
		free = append(free, u)
	}
	return free, nil
}
