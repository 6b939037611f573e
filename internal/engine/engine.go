// Package engine is the typed operation surface of the reservation engine.
// Every operation runs through the same middleware chain: logging, tracing,
// metrics, circuit breaker, retry and timeout, outermost first.
package engine

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/Youmanvi/venuereserve/internal/catalog"
	"github.com/Youmanvi/venuereserve/internal/infrastructure/cache"
	"github.com/Youmanvi/venuereserve/internal/infrastructure/config"
	"github.com/Youmanvi/venuereserve/internal/infrastructure/observability"
	"github.com/Youmanvi/venuereserve/internal/infrastructure/store"
	"github.com/Youmanvi/venuereserve/internal/ledger"
	"github.com/Youmanvi/venuereserve/internal/middleware"
	"github.com/Youmanvi/venuereserve/internal/reservation"
	"github.com/Youmanvi/venuereserve/internal/sales"
)

// Operation names, shared with the activity registry
const (
	OpCheckAvailability       = "availability:check"
	OpCreateReservation       = "reservation:create"
	OpUpdateReservationStatus = "reservation:update_status"
	OpCancelReservation       = "reservation:cancel"
	OpGetReservation          = "reservation:get"
	OpRecordPayment           = "payment:record"
	OpRecordRefund            = "payment:refund"
	OpCreateSale              = "sale:create"
	OpCancelSale              = "sale:cancel"
	OpGetSale                 = "sale:get"
	OpLedgerSummary           = "ledger:summary"
	OpReconcile               = "ledger:reconcile"
	OpIssueCode               = "sequence:issue"
	OpAddNamedUnit            = "unit:add_named"
	OpAddFungibleUnit         = "unit:add_fungible"
	OpSetUnitStatus           = "unit:set_status"
	OpListUnits               = "unit:list"
)

// Operations lists every operation name
var Operations = []string{
	OpCheckAvailability, OpCreateReservation, OpUpdateReservationStatus, OpCancelReservation,
	OpGetReservation, OpRecordPayment, OpRecordRefund, OpCreateSale, OpCancelSale, OpGetSale,
	OpLedgerSummary, OpReconcile, OpIssueCode, OpAddNamedUnit, OpAddFungibleUnit,
	OpSetUnitStatus, OpListUnits,
}

// Options carry the engine's collaborators. Nil fields get quiet defaults.
type Options struct {
	Logger  *observability.Logger
	Metrics *observability.Metrics
	Tracer  trace.Tracer
	Cache   cache.AvailabilityCache
	Now     func() time.Time
	NewID   func() string
}

// Engine wires the catalog, allocator, lifecycle manager, ledger and
// sequencer behind one API.
type Engine struct {
	store        *store.Store
	catalog      *catalog.Catalog
	reservations *reservation.Manager
	ledger       *ledger.Ledger
	sales        *sales.Manager
	logger       *observability.Logger
	metrics      *observability.Metrics
	loc          *time.Location
	now          func() time.Time
	chains       map[string]middleware.OperationMiddleware
}

// New builds an engine over an open store
func New(s *store.Store, cfg *config.EngineConfig, opts Options) (*Engine, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = observability.NewNopLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.NewMetrics(prometheus.NewRegistry())
	}
	if opts.Tracer == nil {
		opts.Tracer = noop.NewTracerProvider().Tracer("venuereserve")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	e := &Engine{
		store: s,
		catalog: catalog.New(s, catalog.Options{
			Cache:         opts.Cache,
			OnCacheLookup: opts.Metrics.RecordCacheLookup,
		}),
		reservations: reservation.NewManager(s, reservation.Options{
			Location:         loc,
			AllowPastCheckin: cfg.AllowPastCheckin,
			Now:              opts.Now,
			NewID:            opts.NewID,
		}),
		ledger:  ledger.New(s, ledger.Options{Now: opts.Now, NewID: opts.NewID}),
		sales:   sales.NewManager(s, sales.Options{Location: loc, Now: opts.Now, NewID: opts.NewID}),
		logger:  opts.Logger,
		metrics: opts.Metrics,
		loc:     loc,
		now:     opts.Now,
		chains:  make(map[string]middleware.OperationMiddleware, len(Operations)),
	}

	for _, op := range Operations {
		e.chains[op] = e.chain(op, cfg, opts.Tracer)
	}
	return e, nil
}

func (e *Engine) chain(op string, cfg *config.EngineConfig, tracer trace.Tracer) middleware.OperationMiddleware {
	policy := middleware.DefaultRetryPolicy(cfg.RetryMaxAttempts)
	if cfg.RetryBackoff > 0 {
		policy.InitialBackoff = cfg.RetryBackoff
	}
	policy.OnRetry = func(int, error) { e.metrics.RecordRetry(op) }

	return middleware.Chain(
		middleware.WithLogging(e.logger, op),
		middleware.WithTracing(tracer, op),
		middleware.WithMetrics(e.metrics, op),
		middleware.WithCircuitBreaker(op, cfg.CircuitBreakerThreshold, cfg.CircuitBreakerTimeout, e.logger),
		middleware.WithRetry(e.logger, policy),
		middleware.WithTimeout(cfg.OperationTimeout),
	)
}

func (e *Engine) run(ctx context.Context, op string, fn middleware.OperationFunc) error {
	return e.chains[op](fn)(ctx)
}

// invalidate drops cached availability after a commit. The commit stands
// even when the cache cannot be reached.
func (e *Engine) invalidate(ctx context.Context, productIDs ...string) {
	if len(productIDs) == 0 {
		return
	}
	if err := e.catalog.Invalidate(ctx, productIDs...); err != nil {
		e.metrics.RecordCacheLookup(catalog.CacheError)
		e.logger.Logger.Warn().Err(err).Strs("products", productIDs).Msg("availability cache invalidation failed")
	}
}
