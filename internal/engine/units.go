package engine

import (
	"context"

	"github.com/Youmanvi/venuereserve/internal/domain"
	"github.com/Youmanvi/venuereserve/internal/pkg/errors"
)

// UnitStatusRequest changes the status of one named or fungible unit
type UnitStatusRequest struct {
	Kind   domain.ResourceKind `json:"kind"`
	UnitID string              `json:"unit_id"`
	Status domain.UnitStatus   `json:"status"`
}

// UnitQuery selects units to list: named units by group, or the pool of a
// fungible product.
type UnitQuery struct {
	Kind      domain.ResourceKind `json:"kind"`
	Group     string              `json:"group,omitempty"`
	ProductID string              `json:"product_id,omitempty"`
}

// UnitList is the answer to ListUnits
type UnitList struct {
	Named    []domain.NamedUnit    `json:"named,omitempty"`
	Fungible []domain.FungibleUnit `json:"fungible,omitempty"`
}

// AddNamedUnit registers a named unit
func (e *Engine) AddNamedUnit(ctx context.Context, u domain.NamedUnit) (*domain.NamedUnit, error) {
	var unit *domain.NamedUnit
	err := e.run(ctx, OpAddNamedUnit, func(ctx context.Context) error {
		var err error
		unit, err = e.catalog.AddNamedUnit(ctx, u)
		return err
	})
	return unit, err
}

// AddFungibleUnit registers one unit of a product pool
func (e *Engine) AddFungibleUnit(ctx context.Context, u domain.FungibleUnit) (*domain.FungibleUnit, error) {
	var unit *domain.FungibleUnit
	err := e.run(ctx, OpAddFungibleUnit, func(ctx context.Context) error {
		var err error
		unit, err = e.catalog.AddFungibleUnit(ctx, u)
		return err
	})
	return unit, err
}

// SetUnitStatus marks a unit available, unavailable or under maintenance
func (e *Engine) SetUnitStatus(ctx context.Context, req UnitStatusRequest) error {
	return e.run(ctx, OpSetUnitStatus, func(ctx context.Context) error {
		switch req.Kind {
		case domain.ResourceNamed:
			return e.catalog.SetNamedUnitStatus(ctx, req.UnitID, req.Status)
		case domain.ResourceFungible:
			return e.catalog.SetFungibleUnitStatus(ctx, req.UnitID, req.Status)
		}
		return errors.Validation("unknown resource kind %q", req.Kind)
	})
}

// ListUnits lists named units of a group or the units of a product
func (e *Engine) ListUnits(ctx context.Context, query UnitQuery) (*UnitList, error) {
	list := &UnitList{}
	err := e.run(ctx, OpListUnits, func(ctx context.Context) error {
		var err error
		switch query.Kind {
		case domain.ResourceNamed:
			list.Named, err = e.catalog.ListNamedUnits(ctx, query.Group)
		case domain.ResourceFungible:
			if query.ProductID == "" {
				return errors.Validation("product id is required")
			}
			list.Fungible, err = e.catalog.FungibleUnits(ctx, query.ProductID)
		default:
			err = errors.Validation("unknown resource kind %q", query.Kind)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}
