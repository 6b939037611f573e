package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"github.com/Youmanvi/venuereserve/internal/domain"
	"github.com/Youmanvi/venuereserve/internal/pkg/errors"
)

// InsertSale writes the sale header and its lines
func (q *Queries) InsertSale(ctx context.Context, sale *domain.Sale) error {
	queryHeader := `
	INSERT INTO sales (id, code, customer_id, customer_name, customer_phone, customer_email,
		status, gross_amount, discount_amount, net_amount, notes, created_by, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.db.ExecContext(ctx, queryHeader,
		sale.ID, sale.Code, sale.Customer.ID, sale.Customer.Name, sale.Customer.Phone, sale.Customer.Email,
		sale.Status, sale.Totals.Gross, sale.Totals.Discount, sale.Totals.Net,
		sale.Notes, sale.CreatedBy, formatTime(sale.CreatedAt), formatTime(sale.UpdatedAt),
	)
	if err != nil {
		return mapError(err, "failed to insert sale header")
	}

	queryLine := `
	INSERT INTO sale_lines (id, sale_id, sku, description, quantity, unit_price, discount_percent, subtotal, discount)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	stmt, err := q.db.PrepareContext(ctx, queryLine)
	if err != nil {
		return mapError(err, "failed to prepare sale line statement")
	}
	defer stmt.Close()

	for _, line := range sale.Lines {
		_, err := stmt.ExecContext(ctx, line.ID, sale.ID, line.SKU, line.Description, line.Quantity,
			line.UnitPrice, line.DiscountPercent, line.Subtotal, line.Discount)
		if err != nil {
			return mapError(err, fmt.Sprintf("failed to insert sale line %s", line.SKU))
		}
	}
	return nil
}

// Sale reads a sale and its lines
func (q *Queries) Sale(ctx context.Context, id string) (*domain.Sale, error) {
	query := `
	SELECT id, code, customer_id, customer_name, customer_phone, customer_email,
		status, gross_amount, discount_amount, net_amount, notes, created_by,
		created_at, updated_at, cancelled_at
	FROM sales WHERE id = ?
	`
	var sale domain.Sale
	var created, updated string
	var cancelled sql.NullString
	err := q.db.QueryRowContext(ctx, query, id).Scan(
		&sale.ID, &sale.Code, &sale.Customer.ID, &sale.Customer.Name, &sale.Customer.Phone, &sale.Customer.Email,
		&sale.Status, &sale.Totals.Gross, &sale.Totals.Discount, &sale.Totals.Net, &sale.Notes, &sale.CreatedBy,
		&created, &updated, &cancelled,
	)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("sale", id)
	}
	if err != nil {
		return nil, mapError(err, "failed to read sale")
	}

	if sale.CreatedAt, err = parseTime(created); err != nil {
		return nil, mapError(err, "corrupt sale timestamp")
	}
	if sale.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, mapError(err, "corrupt sale timestamp")
	}
	if cancelled.Valid {
		at, err := parseTime(cancelled.String)
		if err != nil {
			return nil, mapError(err, "corrupt sale timestamp")
		}
		sale.CancelledAt = &at
	}

	if sale.Lines, err = q.saleLines(ctx, sale.ID); err != nil {
		return nil, err
	}
	return &sale, nil
}

func (q *Queries) saleLines(ctx context.Context, saleID string) ([]domain.SaleLine, error) {
	query := `
	SELECT id, sale_id, sku, description, quantity, unit_price, discount_percent, subtotal, discount
	FROM sale_lines
	WHERE sale_id = ?
	ORDER BY rowid
	`
	rows, err := q.db.QueryContext(ctx, query, saleID)
	if err != nil {
		return nil, mapError(err, "failed to read sale lines")
	}
	defer rows.Close()

	var lines []domain.SaleLine
	for rows.Next() {
		var l domain.SaleLine
		if err := rows.Scan(&l.ID, &l.SaleID, &l.SKU, &l.Description, &l.Quantity,
			&l.UnitPrice, &l.DiscountPercent, &l.Subtotal, &l.Discount); err != nil {
			return nil, mapError(err, "failed to scan sale line")
		}
		lines = append(lines, l)
	}
	return lines, mapError(rows.Err(), "failed to read sale lines")
}

// UpdateSaleStatus stores a derived payment status or the cancellation
func (q *Queries) UpdateSaleStatus(ctx context.Context, sale *domain.Sale) error {
	var cancelledAt sql.NullString
	if sale.CancelledAt != nil {
		cancelledAt = sql.NullString{String: formatTime(*sale.CancelledAt), Valid: true}
	}
	res, err := q.db.ExecContext(ctx, `UPDATE sales SET status = ?, updated_at = ?, cancelled_at = ? WHERE id = ?`,
		sale.Status, formatTime(sale.UpdatedAt), cancelledAt, sale.ID)
	if err != nil {
		return mapError(err, "failed to update sale status")
	}
	return expectOne(res, "sale", sale.ID)
}

// DeleteSale removes a sale. Triggers refuse when payment events reference it.
func (q *Queries) DeleteSale(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM sales WHERE id = ?`, id)
	if err != nil {
		return mapError(err, "failed to delete sale")
	}
	return expectOne(res, "sale", id)
}
