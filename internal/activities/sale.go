package activities

import (
	"context"

	"github.com/Youmanvi/venuereserve/internal/domain"
	"github.com/Youmanvi/venuereserve/internal/engine"
	"github.com/Youmanvi/venuereserve/internal/sales"
)

// CreateSaleActivity records an over-the-counter sale
func CreateSaleActivity(eng Engine) ActivityFunc {
	return jsonActivity(engine.OpCreateSale, func(ctx context.Context, in sales.CreateRequest) (*domain.Sale, error) {
		return eng.CreateSale(ctx, in)
	})
}

// CancelSaleActivity voids a sale
func CancelSaleActivity(eng Engine) ActivityFunc {
	return jsonActivity(engine.OpCancelSale, func(ctx context.Context, in LookupInput) (*domain.Sale, error) {
		return eng.CancelSale(ctx, in.ID)
	})
}

// GetSaleActivity reads a sale
func GetSaleActivity(eng Engine) ActivityFunc {
	return jsonActivity(engine.OpGetSale, func(ctx context.Context, in LookupInput) (*domain.Sale, error) {
		return eng.GetSale(ctx, in.ID)
	})
}
