package store

import (
	"context"
	"fmt"
)

// NextSequence increments and returns the counter for (prefix, scopeDate).
// It must run inside the write transaction that uses the value.
func (q *Queries) NextSequence(ctx context.Context, prefix, scopeDate string) (int, error) {
	query := `
	INSERT INTO code_sequences (prefix, scope_date, last_value)
	VALUES (?, ?, 1)
	ON CONFLICT (prefix, scope_date) DO UPDATE SET last_value = last_value + 1
	RETURNING last_value
	`
	var next int
	if err := q.db.QueryRowContext(ctx, query, prefix, scopeDate).Scan(&next); err != nil {
		return 0, mapError(err, fmt.Sprintf("failed to advance sequence %s/%s", prefix, scopeDate))
	}
	return next, nil
}
