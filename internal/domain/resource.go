package domain

import (
	"fmt"

	"github.com/Youmanvi/venuereserve/internal/pkg/errors"
)

// UnitStatus is the lifecycle status of a bookable unit
type UnitStatus string

const (
	UnitAvailable   UnitStatus = "available"
	UnitUnavailable UnitStatus = "unavailable"
	UnitMaintenance UnitStatus = "maintenance"
)

// Valid reports whether s is a known unit status
func (s UnitStatus) Valid() bool {
	switch s {
	case UnitAvailable, UnitUnavailable, UnitMaintenance:
		return true
	}
	return false
}

// NamedUnit is a unique, individually identified resource such as a villa room.
type NamedUnit struct {
	ID       string     `json:"id"`
	Group    string     `json:"group"`
	Name     string     `json:"name"`
	Code     string     `json:"code"`
	Capacity int        `json:"capacity"`
	Status   UnitStatus `json:"status"`
}

// FungibleUnit is one interchangeable instance of a product pool, e.g. ATV #3.
type FungibleUnit struct {
	ID        string     `json:"id"`
	ProductID string     `json:"product_id"`
	Code      string     `json:"code"`
	Status    UnitStatus `json:"status"`
}

// NewNamedUnit validates and creates a named unit
func NewNamedUnit(id, group, name, code string, capacity int, status UnitStatus) (*NamedUnit, error) {
	if id == "" || code == "" {
		return nil, errors.Validation("named unit id and code are required")
	}
	if capacity <= 0 {
		return nil, errors.Validation("named unit %s capacity must be positive", code)
	}
	if !status.Valid() {
		return nil, errors.Validation("unknown unit status %q", status)
	}
	return &NamedUnit{ID: id, Group: group, Name: name, Code: code, Capacity: capacity, Status: status}, nil
}

// NewFungibleUnit validates and creates a fungible unit
func NewFungibleUnit(id, productID, code string, status UnitStatus) (*FungibleUnit, error) {
	if id == "" || productID == "" || code == "" {
		return nil, errors.Validation("fungible unit id, product and code are required")
	}
	if !status.Valid() {
		return nil, errors.Validation("unknown unit status %q", status)
	}
	return &FungibleUnit{ID: id, ProductID: productID, Code: code, Status: status}, nil
}

// ResourceKind distinguishes the two inventory styles
type ResourceKind string

const (
	ResourceNamed    ResourceKind = "named"
	ResourceFungible ResourceKind = "fungible"
)

// ResourceRef points at a named unit (by unit id) or a fungible product (by product id).
type ResourceRef struct {
	Kind ResourceKind `json:"kind"`
	ID   string       `json:"id"`
}

// Validate checks the reference is complete
func (r ResourceRef) Validate() error {
	if r.ID == "" {
		return errors.Validation("resource id is required")
	}
	if r.Kind != ResourceNamed && r.Kind != ResourceFungible {
		return errors.Validation("unknown resource kind %q", r.Kind)
	}
	return nil
}

func (r ResourceRef) String() string {
	return fmt.Sprintf("%s:%s", r.Kind, r.ID)
}

// UnitBooking is one reservation line holding a unit over a range.
type UnitBooking struct {
	ReservationID string
	LineID        string
	UnitID        string
	Range         DateRange
	Status        ReservationStatus
}

// Availability is the answer to a feasibility question
type Availability struct {
	Feasible       bool `json:"feasible"`
	AvailableCount int  `json:"available_count"`
}
