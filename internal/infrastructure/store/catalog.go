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

// InsertNamedUnit adds a named unit to the catalog
func (q *Queries) InsertNamedUnit(ctx context.Context, u *domain.NamedUnit) error {
	query := `
	INSERT INTO named_units (id, unit_group, name, code, capacity, status)
	VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := q.db.ExecContext(ctx, query, u.ID, u.Group, u.Name, u.Code, u.Capacity, u.Status)
	return mapError(err, fmt.Sprintf("failed to insert named unit %s", u.Code))
}

// InsertFungibleUnit adds one unit to a product pool
func (q *Queries) InsertFungibleUnit(ctx context.Context, u *domain.FungibleUnit) error {
	query := `
	INSERT INTO fungible_units (id, product_id, code, status)
	VALUES (?, ?, ?, ?)
	`
	_, err := q.db.ExecContext(ctx, query, u.ID, u.ProductID, u.Code, u.Status)
	return mapError(err, fmt.Sprintf("failed to insert fungible unit %s", u.Code))
}

// SetNamedUnitStatus changes the status of a named unit
func (q *Queries) SetNamedUnitStatus(ctx context.Context, id string, status domain.UnitStatus) error {
	res, err := q.db.ExecContext(ctx, `UPDATE named_units SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return mapError(err, "failed to update named unit status")
	}
	return expectOne(res, "named unit", id)
}

// SetFungibleUnitStatus changes the status of one pool unit
func (q *Queries) SetFungibleUnitStatus(ctx context.Context, id string, status domain.UnitStatus) error {
	res, err := q.db.ExecContext(ctx, `UPDATE fungible_units SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return mapError(err, "failed to update fungible unit status")
	}
	return expectOne(res, "fungible unit", id)
}

// NamedUnit reads one named unit
func (q *Queries) NamedUnit(ctx context.Context, id string) (*domain.NamedUnit, error) {
	query := `
	SELECT id, unit_group, name, code, capacity, status
	FROM named_units WHERE id = ?
	`
	var u domain.NamedUnit
	err := q.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Group, &u.Name, &u.Code, &u.Capacity, &u.Status)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("named unit", id)
	}
	if err != nil {
		return nil, mapError(err, "failed to read named unit")
	}
	return &u, nil
}

// FungibleUnit reads one pool unit
func (q *Queries) FungibleUnit(ctx context.Context, id string) (*domain.FungibleUnit, error) {
	var u domain.FungibleUnit
	err := q.db.QueryRowContext(ctx, `SELECT id, product_id, code, status FROM fungible_units WHERE id = ?`, id).
		Scan(&u.ID, &u.ProductID, &u.Code, &u.Status)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("fungible unit", id)
	}
	if err != nil {
		return nil, mapError(err, "failed to read fungible unit")
	}
	return &u, nil
}

// ListNamedUnits lists named units ordered by code, optionally within one group
func (q *Queries) ListNamedUnits(ctx context.Context, group string) ([]domain.NamedUnit, error) {
	query := `
	SELECT id, unit_group, name, code, capacity, status
	FROM named_units
	WHERE (? = '' OR unit_group = ?)
	ORDER BY code
	`
	rows, err := q.db.QueryContext(ctx, query, group, group)
	if err != nil {
		return nil, mapError(err, "failed to list named units")
	}
	defer rows.Close()

	var units []domain.NamedUnit
	for rows.Next() {
		var u domain.NamedUnit
		if err := rows.Scan(&u.ID, &u.Group, &u.Name, &u.Code, &u.Capacity, &u.Status); err != nil {
			return nil, mapError(err, "failed to scan named unit")
		}
		units = append(units, u)
	}
	return units, mapError(rows.Err(), "failed to list named units")
}

// FungibleUnitsByProduct lists every unit of a product pool in ascending code order
func (q *Queries) FungibleUnitsByProduct(ctx context.Context, productID string) ([]domain.FungibleUnit, error) {
	query := `
	SELECT id, product_id, code, status
	FROM fungible_units
	WHERE product_id = ?
	ORDER BY code
	`
	rows, err := q.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, mapError(err, "failed to list fungible units")
	}
	defer rows.Close()

	var units []domain.FungibleUnit
	for rows.Next() {
		var u domain.FungibleUnit
		if err := rows.Scan(&u.ID, &u.ProductID, &u.Code, &u.Status); err != nil {
			return nil, mapError(err, "failed to scan fungible unit")
		}
		units = append(units, u)
	}
	return units, mapError(rows.Err(), "failed to list fungible units")
}

// NamedUnitBookings returns every line holding the unit whose reservation
// status is not in exclude. Date filtering is left to the caller.
func (q *Queries) NamedUnitBookings(ctx context.Context, unitID string, exclude []domain.ReservationStatus) ([]domain.UnitBooking, error) {
	query := `
	SELECT l.reservation_id, l.id, l.named_unit_id, r.checkin, r.checkout, r.status
	FROM reservation_lines l
	JOIN reservations r ON r.id = l.reservation_id
	WHERE l.named_unit_id = ?` + excludeClause(exclude)

	return q.bookings(ctx, query, unitArgs(unitID, exclude)...)
}

// ProductBookings returns every line holding any unit of the product whose
// reservation status is not in exclude.
func (q *Queries) ProductBookings(ctx context.Context, productID string, exclude []domain.ReservationStatus) ([]domain.UnitBooking, error) {
	query := `
	SELECT l.reservation_id, l.id, l.fungible_unit_id, r.checkin, r.checkout, r.status
	FROM reservation_lines l
	JOIN reservations r ON r.id = l.reservation_id
	JOIN fungible_units u ON u.id = l.fungible_unit_id
	WHERE u.product_id = ?` + excludeClause(exclude)

	return q.bookings(ctx, query, unitArgs(productID, exclude)...)
}

func (q *Queries) bookings(ctx context.Context, query string, args ...any) ([]domain.UnitBooking, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "failed to query bookings")
	}
	defer rows.Close()

	var bookings []domain.UnitBooking
	for rows.Next() {
		var (
			b                 domain.UnitBooking
			checkIn, checkOut string
		)
		if err := rows.Scan(&b.ReservationID, &b.LineID, &b.UnitID, &checkIn, &checkOut, &b.Status); err != nil {
			return nil, mapError(err, "failed to scan booking")
		}
		if b.Range, err = parseRange(checkIn, checkOut); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, mapError(rows.Err(), "failed to query bookings")
}

func excludeClause(exclude []domain.ReservationStatus) string {
	if len(exclude) == 0 {
		return ""
	}
	return " AND r.status NOT IN (" + placeholders(len(exclude)) + ")"
}

func unitArgs(id string, exclude []domain.ReservationStatus) []any {
	args := make([]any, 0, len(exclude)+1)
	args = append(args, id)
	for _, s := range exclude {
		args = append(args, string(s))
	}
	return args
}

func parseRange(checkIn, checkOut string) (domain.DateRange, error) {
	in, err := time.Parse(domain.DateLayout, checkIn)
	if err != nil {
		return domain.DateRange{}, mapError(err, "corrupt checkin date")
	}
	out, err := time.Parse(domain.DateLayout, checkOut)
	if err != nil {
		return domain.DateRange{}, mapError(err, "corrupt checkout date")
	}
	return domain.DateRange{CheckIn: in, CheckOut: out}, nil
}

func expectOne(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return mapError(err, "failed to read affected rows")
	}
	if n == 0 {
		return errors.NotFound(kind, id)
	}
	return nil
}
