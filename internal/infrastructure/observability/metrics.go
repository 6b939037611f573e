package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"github.com/Youmanvi/venuereserve/internal/pkg/errors"
)

const namespace = "venuereserve"

type Metrics struct {
	OperationsTotal     *prometheus.CounterVec
	OperationDuration   *prometheus.HistogramVec
	OperationRetries    *prometheus.CounterVec
	InventoryShortages  *prometheus.CounterVec
	DuplicatePayments   prometheus.Counter
	ReservationsCreated prometheus.Counter
	LedgerAmount        *prometheus.CounterVec
	CacheLookups        *prometheus.CounterVec
}

// NewMetrics registers the engine collectors on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		OperationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Total number of engine operations by outcome (ok or error code)",
		}, []string{"operation", "outcome"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Engine operation duration in seconds",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}, []string{"operation"}),
		OperationRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_retries_total",
			Help:      "Total number of retries after busy or conflict errors",
		}, []string{"operation"}),
		InventoryShortages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inventory_shortages_total",
			Help:      "Total number of requests rejected for insufficient inventory",
		}, []string{"operation"}),
		DuplicatePayments: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_payment_submissions_total",
			Help:      "Total number of payment submissions answered from an existing idempotency key",
		}),
		ReservationsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_created_total",
			Help:      "Total number of reservations committed",
		}),
		LedgerAmount: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_amount_total",
			Help:      "Sum of recorded ledger amounts by target type and kind",
		}, []string{"target_type", "kind"}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "availability_cache_lookups_total",
			Help:      "Availability cache lookups by result",
		}, []string{"result"}),
	}
}

// RecordOperation records one finished engine operation
func (m *Metrics) RecordOperation(operation string, duration time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = errors.CodeOf(err)
	}
	m.OperationsTotal.WithLabelValues(operation, outcome).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if errors.HasCode(err, errors.CodeInsufficientInventory) {
		m.InventoryShortages.WithLabelValues(operation).Inc()
	}
}

// RecordRetry records a retried attempt
func (m *Metrics) RecordRetry(operation string) {
	m.OperationRetries.WithLabelValues(operation).Inc()
}

// RecordDuplicatePayment records an idempotent replay
func (m *Metrics) RecordDuplicatePayment() {
	m.DuplicatePayments.Inc()
}

// RecordReservationCreated records a committed reservation
func (m *Metrics) RecordReservationCreated() {
	m.ReservationsCreated.Inc()
}

// RecordLedgerEvent adds a recorded amount
func (m *Metrics) RecordLedgerEvent(targetType, kind string, amount decimal.Decimal) {
	m.LedgerAmount.WithLabelValues(targetType, kind).Add(amount.InexactFloat64())
}

// RecordCacheLookup records hit, miss or error
func (m *Metrics) RecordCacheLookup(result string) {
	m.CacheLookups.WithLabelValues(result).Inc()
}
