package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/Youmanvi/venuereserve/internal/domain"
	"github.com/Youmanvi/venuereserve/internal/pkg/errors"
)

const reservationColumns = `
	id, code, customer_id, customer_name, customer_phone, customer_email,
	checkin, checkout, status, gross_amount, discount_amount, net_amount,
	dp_required, dp_fixed_amount, dp_percentage, payment_status,
	notes, created_by, created_at, updated_at
`

// InsertReservation writes the header and all of its lines
func (q *Queries) InsertReservation(ctx context.Context, res *domain.Reservation) error {
	queryHeader := `
	INSERT INTO reservations (` + reservationColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.db.ExecContext(ctx, queryHeader,
		res.ID, res.Code, res.Customer.ID, res.Customer.Name, res.Customer.Phone, res.Customer.Email,
		res.Range.CheckIn.Format(domain.DateLayout), res.Range.CheckOut.Format(domain.DateLayout),
		res.Status, res.Totals.Gross, res.Totals.Discount, res.Totals.Net,
		res.DownPayment.Required, res.DownPayment.FixedAmount, res.DownPayment.Percentage, res.PaymentStatus,
		res.Notes, res.CreatedBy, formatTime(res.CreatedAt), formatTime(res.UpdatedAt),
	)
	if err != nil {
		return mapError(err, "failed to insert reservation header")
	}

	queryLine := `
	INSERT INTO reservation_lines (id, reservation_id, named_unit_id, fungible_unit_id, product_id,
		quantity, unit_price, discount_percent, subtotal, discount)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	stmt, err := q.db.PrepareContext(ctx, queryLine)
	if err != nil {
		return mapError(err, "failed to prepare reservation line statement")
	}
	defer stmt.Close()

	for _, line := range res.Lines {
		_, err := stmt.ExecContext(ctx, line.ID, res.ID, nullString(line.NamedUnitID), nullString(line.FungibleUnitID),
			line.ProductID, line.Quantity, line.UnitPrice, line.DiscountPercent, line.Subtotal, line.Discount)
		if err != nil {
			return mapError(err, fmt.Sprintf("failed to insert reservation line for unit %s", line.UnitID()))
		}
	}
	return nil
}

// Reservation reads a reservation and its lines by id
func (q *Queries) Reservation(ctx context.Context, id string) (*domain.Reservation, error) {
	return q.reservationWhere(ctx, "id = ?", id)
}

// ReservationByCode reads a reservation and its lines by its human code
func (q *Queries) ReservationByCode(ctx context.Context, code string) (*domain.Reservation, error) {
	return q.reservationWhere(ctx, "code = ?", code)
}

func (q *Queries) reservationWhere(ctx context.Context, where string, arg string) (*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE ` + where

	var res domain.Reservation
	var checkIn, checkOut, created, updated string
	err := q.db.QueryRowContext(ctx, query, arg).Scan(
		&res.ID, &res.Code, &res.Customer.ID, &res.Customer.Name, &res.Customer.Phone, &res.Customer.Email,
		&checkIn, &checkOut, &res.Status, &res.Totals.Gross, &res.Totals.Discount, &res.Totals.Net,
		&res.DownPayment.Required, &res.DownPayment.FixedAmount, &res.DownPayment.Percentage, &res.PaymentStatus,
		&res.Notes, &res.CreatedBy, &created, &updated,
	)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("reservation", arg)
	}
	if err != nil {
		return nil, mapError(err, "failed to read reservation")
	}

	if res.Range, err = parseRange(checkIn, checkOut); err != nil {
		return nil, err
	}
	if res.CreatedAt, err = parseTime(created); err != nil {
		return nil, mapError(err, "corrupt reservation timestamp")
	}
	if res.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, mapError(err, "corrupt reservation timestamp")
	}

	if res.Lines, err = q.reservationLines(ctx, res.ID); err != nil {
		return nil, err
	}
	return &res, nil
}

func (q *Queries) reservationLines(ctx context.Context, reservationID string) ([]domain.ReservationLine, error) {
	query := `
	SELECT id, reservation_id, COALESCE(named_unit_id, ''), COALESCE(fungible_unit_id, ''), product_id,
		quantity, unit_price, discount_percent, subtotal, discount
	FROM reservation_lines
	WHERE reservation_id = ?
	ORDER BY rowid
	`
	rows, err := q.db.QueryContext(ctx, query, reservationID)
	if err != nil {
		return nil, mapError(err, "failed to read reservation lines")
	}
	defer rows.Close()

	var lines []domain.ReservationLine
	for rows.Next() {
		var l domain.ReservationLine
		if err := rows.Scan(&l.ID, &l.ReservationID, &l.NamedUnitID, &l.FungibleUnitID, &l.ProductID,
			&l.Quantity, &l.UnitPrice, &l.DiscountPercent, &l.Subtotal, &l.Discount); err != nil {
			return nil, mapError(err, "failed to scan reservation line")
		}
		lines = append(lines, l)
	}
	return lines, mapError(rows.Err(), "failed to read reservation lines")
}

// UpdateReservationStatus stores a lifecycle transition
func (q *Queries) UpdateReservationStatus(ctx context.Context, id string, status domain.ReservationStatus, updatedAt time.Time) error {
	res, err := q.db.ExecContext(ctx, `UPDATE reservations SET status = ?, updated_at = ? WHERE id = ?`,
		status, formatTime(updatedAt), id)
	if err != nil {
		return mapError(err, "failed to update reservation status")
	}
	return expectOne(res, "reservation", id)
}

// UpdateReservationPaymentStatus rewrites the cached payment status column
func (q *Queries) UpdateReservationPaymentStatus(ctx context.Context, id string, status domain.PaymentStatus, updatedAt time.Time) error {
	res, err := q.db.ExecContext(ctx, `UPDATE reservations SET payment_status = ?, updated_at = ? WHERE id = ?`,
		status, formatTime(updatedAt), id)
	if err != nil {
		return mapError(err, "failed to update reservation payment status")
	}
	return expectOne(res, "reservation", id)
}

// DeleteReservation removes a reservation. Triggers refuse when payment events reference it.
func (q *Queries) DeleteReservation(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return mapError(err, "failed to delete reservation")
	}
	return expectOne(res, "reservation", id)
}
