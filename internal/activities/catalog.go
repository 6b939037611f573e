package activities

import (
	"context"

	"github.com/Youmanvi/venuereserve/internal/domain"
	"github.com/Youmanvi/venuereserve/internal/engine"
)

// StatusOutput acknowledges a write with no payload of its own
type StatusOutput struct {
	Status string `json:"status"`
}

// AddNamedUnitActivity registers a named unit
func AddNamedUnitActivity(eng Engine) ActivityFunc {
	return jsonActivity(engine.OpAddNamedUnit, func(ctx context.Context, in domain.NamedUnit) (*domain.NamedUnit, error) {
		if in.Status == "" {
			in.Status = domain.UnitAvailable
		}
		return eng.AddNamedUnit(ctx, in)
	})
}

// AddFungibleUnitActivity registers a unit of a product pool
func AddFungibleUnitActivity(eng Engine) ActivityFunc {
	return jsonActivity(engine.OpAddFungibleUnit, func(ctx context.Context, in domain.FungibleUnit) (*domain.FungibleUnit, error) {
		if in.Status == "" {
			in.Status = domain.UnitAvailable
		}
		return eng.AddFungibleUnit(ctx, in)
	})
}

// SetUnitStatusActivity changes the status of a unit
func SetUnitStatusActivity(eng Engine) ActivityFunc {
	return jsonActivity(engine.OpSetUnitStatus, func(ctx context.Context, in engine.UnitStatusRequest) (StatusOutput, error) {
		if err := eng.SetUnitStatus(ctx, in); err != nil {
			return StatusOutput{}, err
		}
		return StatusOutput{Status: string(in.Status)}, nil
	})
}

// ListUnitsActivity lists named units of a group or a product pool
func ListUnitsActivity(eng Engine) ActivityFunc {
	return jsonActivity(engine.OpListUnits, func(ctx context.Context, in engine.UnitQuery) (*engine.UnitList, error) {
		return eng.ListUnits(ctx, in)
	})
}
