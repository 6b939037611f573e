package store

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/Youmanvi/venuereserve/internal/domain"
)

// ErrIdempotencyKeyTaken is returned by InsertPaymentEvent when another
// event already holds the key. Nothing has been written.
var ErrIdempotencyKeyTaken = stderrors.New("idempotency key already recorded")

const paymentEventColumns = `
	id, target_type, target_id, kind, amount, method, reference,
	COALESCE(idempotency_key, ''), actor, created_at
`

// InsertPaymentEvent appends one event to the ledger
func (q *Queries) InsertPaymentEvent(ctx context.Context, ev *domain.PaymentEvent) error {
	query := `
	INSERT INTO payment_events (id, target_type, target_id, kind, amount, method, reference,
		idempotency_key, actor, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.db.ExecContext(ctx, query, ev.ID, ev.Target.Type, ev.Target.ID, ev.Kind, ev.Amount,
		ev.Method, ev.Reference, nullString(ev.IdempotencyKey), ev.Actor, formatTime(ev.CreatedAt))
	if err != nil {
		if ev.IdempotencyKey != "" && isUniqueViolation(err, "idempotency_key") {
			return ErrIdempotencyKeyTaken
		}
		return mapError(err, "failed to insert payment event")
	}
	return nil
}

// PaymentEventByKey looks up the event recorded under an idempotency key
func (q *Queries) PaymentEventByKey(ctx context.Context, key string) (*domain.PaymentEvent, bool, error) {
	query := `SELECT ` + paymentEventColumns + ` FROM payment_events WHERE idempotency_key = ?`

	ev, err := scanPaymentEvent(q.db.QueryRowContext(ctx, query, key))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, mapError(err, "failed to read payment event")
	}
	return ev, true, nil
}

// PaymentEvents returns the full event stream of a target in insertion order
func (q *Queries) PaymentEvents(ctx context.Context, target domain.Target) ([]domain.PaymentEvent, error) {
	query := `SELECT ` + paymentEventColumns + `
	FROM payment_events
	WHERE target_type = ? AND target_id = ?
	ORDER BY seq
	`
	rows, err := q.db.QueryContext(ctx, query, target.Type, target.ID)
	if err != nil {
		return nil, mapError(err, "failed to read payment events")
	}
	defer rows.Close()

	var events []domain.PaymentEvent
	for rows.Next() {
		ev, err := scanPaymentEvent(rows)
		if err != nil {
			return nil, mapError(err, "failed to scan payment event")
		}
		events = append(events, *ev)
	}
	return events, mapError(rows.Err(), "failed to read payment events")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPaymentEvent(row rowScanner) (*domain.PaymentEvent, error) {
	var ev domain.PaymentEvent
	var created string
	err := row.Scan(&ev.ID, &ev.Target.Type, &ev.Target.ID, &ev.Kind, &ev.Amount, &ev.Method,
		&ev.Reference, &ev.IdempotencyKey, &ev.Actor, &created)
	if err != nil {
		return nil, err
	}
	if ev.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &ev, nil
}
