// Package activities exposes engine operations as JSON-in/JSON-out
// activities so collaborators in any language can drive the engine.
package activities

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Youmanvi/venuereserve/internal/domain"
	"github.com/Youmanvi/venuereserve/internal/engine"
	"github.com/Youmanvi/venuereserve/internal/ledger"
	"github.com/Youmanvi/venuereserve/internal/pkg/errors"
	"github.com/Youmanvi/venuereserve/internal/reservation"
	"github.com/Youmanvi/venuereserve/internal/sales"
)

// ActivityFunc is the signature of an activity function
type ActivityFunc func(ctx context.Context, input []byte) ([]byte, error)

// Engine is the operation surface the activities call. *engine.Engine
// implements it.
type Engine interface {
	CheckAvailability(ctx context.Context, ref domain.ResourceRef, r domain.DateRange, quantity int) (domain.Availability, error)
	CreateReservation(ctx context.Context, req reservation.CreateRequest) (*domain.Reservation, error)
	UpdateReservationStatus(ctx context.Context, id string, status domain.ReservationStatus) (*domain.Reservation, error)
	CancelReservation(ctx context.Context, id string) (*domain.Reservation, error)
	GetReservation(ctx context.Context, id, code string) (*domain.Reservation, error)
	RecordPayment(ctx context.Context, req ledger.Request) (*ledger.Receipt, error)
	RecordRefund(ctx context.Context, req ledger.Request) (*ledger.Receipt, error)
	CreateSale(ctx context.Context, req sales.CreateRequest) (*domain.Sale, error)
	CancelSale(ctx context.Context, id string) (*domain.Sale, error)
	GetSale(ctx context.Context, id string) (*domain.Sale, error)
	LedgerSummary(ctx context.Context, target domain.Target) (domain.LedgerSummary, error)
	Reconcile(ctx context.Context, target domain.Target) (*ledger.ReconcileResult, error)
	IssueCode(ctx context.Context, prefix string) (string, error)
	AddNamedUnit(ctx context.Context, u domain.NamedUnit) (*domain.NamedUnit, error)
	AddFungibleUnit(ctx context.Context, u domain.FungibleUnit) (*domain.FungibleUnit, error)
	SetUnitStatus(ctx context.Context, req engine.UnitStatusRequest) error
	ListUnits(ctx context.Context, query engine.UnitQuery) (*engine.UnitList, error)
}

var _ Engine = (*engine.Engine)(nil)

// Registry maps activity names to their functions
type Registry struct {
	activities map[string]ActivityFunc
}

// NewActivityRegistry creates and registers all activities
func NewActivityRegistry(eng Engine) *Registry {
	r := &Registry{activities: make(map[string]ActivityFunc)}

	// Availability and reservations
	r.register(engine.OpCheckAvailability, CheckAvailabilityActivity(eng))
	r.register(engine.OpCreateReservation, CreateReservationActivity(eng))
	r.register(engine.OpUpdateReservationStatus, UpdateReservationStatusActivity(eng))
	r.register(engine.OpCancelReservation, CancelReservationActivity(eng))
	r.register(engine.OpGetReservation, GetReservationActivity(eng))

	// Ledger
	r.register(engine.OpRecordPayment, RecordPaymentActivity(eng))
	r.register(engine.OpRecordRefund, RecordRefundActivity(eng))
	r.register(engine.OpLedgerSummary, LedgerSummaryActivity(eng))
	r.register(engine.OpReconcile, ReconcileActivity(eng))
	r.register(engine.OpIssueCode, IssueCodeActivity(eng))

	// Sales
	r.register(engine.OpCreateSale, CreateSaleActivity(eng))
	r.register(engine.OpCancelSale, CancelSaleActivity(eng))
	r.register(engine.OpGetSale, GetSaleActivity(eng))

	// Catalog
	r.register(engine.OpAddNamedUnit, AddNamedUnitActivity(eng))
	r.register(engine.OpAddFungibleUnit, AddFungibleUnitActivity(eng))
	r.register(engine.OpSetUnitStatus, SetUnitStatusActivity(eng))
	r.register(engine.OpListUnits, ListUnitsActivity(eng))

	return r
}

func (r *Registry) register(name string, activity ActivityFunc) {
	r.activities[name] = activity
}

// Names lists the registered activities in sorted order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.activities))
	for name := range r.activities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs the named activity
func (r *Registry) Execute(ctx context.Context, name string, input []byte) ([]byte, error) {
	activity, ok := r.activities[name]
	if !ok {
		return nil, errors.NotFound("activity", name)
	}
	return activity(ctx, input)
}

// jsonActivity adapts a typed function to the JSON activity signature
func jsonActivity[In, Out any](name string, fn func(context.Context, In) (Out, error)) ActivityFunc {
	return func(ctx context.Context, input []byte) ([]byte, error) {
		var in In
		if len(input) > 0 {
			if err := json.Unmarshal(input, &in); err != nil {
				return nil, errors.NewPermanentError(errors.CodeValidation,
					fmt.Sprintf("failed to unmarshal %s input", name), err)
			}
		}

		out, err := fn(ctx, in)
		if err != nil {
			return nil, err
		}

		result, err := json.Marshal(out)
		if err != nil {
			return nil, errors.NewPermanentError(errors.CodeInternal,
				fmt.Sprintf("failed to marshal %s output", name), err)
		}
		return result, nil
	}
}
