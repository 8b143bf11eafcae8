package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jcmexdev/nutrition-store/internal/pkg/money"
	"github.com/jcmexdev/nutrition-store/internal/store-service/domain"
)

const orderColumns = `id, user_id, total_cents, status, shipping_address, payment_method, created_at, updated_at`

func scanOrder(s scanner) (*domain.Order, error) {
	var (
		o                    domain.Order
		totalCents           int64
		createdAt, updatedAt string
	)
	err := s.Scan(&o.ID, &o.UserID, &totalCents, &o.Status, &o.ShippingAddress, &o.PaymentMethod, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	o.TotalAmount = money.FromCents(totalCents)
	if o.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if o.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

// InsertOrder writes the header and every line. Call it inside WithTx.
func (q *queries) InsertOrder(ctx context.Context, o *domain.Order) error {
	const header = `
		INSERT INTO orders (id, user_id, total_cents, status, shipping_address, payment_method, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	const line = `
		INSERT INTO order_lines (order_id, line_no, product_id, product_name, quantity, unit_price_cents)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := q.q.ExecContext(ctx, header,
		o.ID, o.UserID, money.ToCents(o.TotalAmount), string(o.Status),
		o.ShippingAddress, o.PaymentMethod, formatTime(o.CreatedAt), formatTime(o.UpdatedAt))
	if err != nil {
		return fmt.Errorf("sqlstore: insert order %q: %w", o.ID, err)
	}

	for i, l := range o.Lines {
		_, err := q.q.ExecContext(ctx, line,
			o.ID, i+1, l.ProductID, l.ProductName, l.Quantity, money.ToCents(l.UnitPrice))
		if err != nil {
			return fmt.Errorf("sqlstore: insert order %q line %d: %w", o.ID, i+1, err)
		}
	}
	return nil
}

func (q *queries) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	o, err := scanOrder(q.q.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %q: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: get order %q: %w", id, err)
	}
	if o.Lines, err = q.orderLines(ctx, id); err != nil {
		return nil, err
	}
	return o, nil
}

// ListOrders returns the newest orders first, each with its lines.
func (q *queries) ListOrders(ctx context.Context, f domain.OrderFilter) ([]domain.Order, error) {
	var (
		where []string
		args  []any
	)
	if f.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	orders, err := q.scanOrders(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	// Lines are loaded after the header cursor is closed: the SQLite pool has
	// a single connection and a second query would wait on it forever.
	for i := range orders {
		if orders[i].Lines, err = q.orderLines(ctx, orders[i].ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (q *queries) scanOrders(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list orders: %w", err)
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: scan order: %w", err)
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (q *queries) orderLines(ctx context.Context, orderID string) ([]domain.OrderLine, error) {
	const query = `
		SELECT product_id, product_name, quantity, unit_price_cents
		FROM   order_lines
		WHERE  order_id = ?
		ORDER  BY line_no`

	rows, err := q.q.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: order %q lines: %w", orderID, err)
	}
	defer rows.Close()

	var out []domain.OrderLine
	for rows.Next() {
		var (
			l          domain.OrderLine
			priceCents int64
		)
		if err := rows.Scan(&l.ProductID, &l.ProductName, &l.Quantity, &priceCents); err != nil {
			return nil, fmt.Errorf("sqlstore: scan order line: %w", err)
		}
		l.UnitPrice = money.FromCents(priceCents)
		out = append(out, l)
	}
	return out, rows.Err()
}

func (q *queries) UpdateOrderStatusIf(ctx context.Context, id string, from, to domain.OrderStatus) (bool, error) {
	const stmt = `UPDATE orders SET status = ?, updated_at = ? WHERE id = ? AND status = ?`

	res, err := q.q.ExecContext(ctx, stmt, string(to), formatTime(q.now()), id, string(from))
	if err != nil {
		return false, fmt.Errorf("sqlstore: order %q %s -> %s: %w", id, from, to, err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (q *queries) CountOrdersByStatus(ctx context.Context) (map[domain.OrderStatus]int, error) {
	rows, err := q.q.QueryContext(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: count orders: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.OrderStatus]int)
	for rows.Next() {
		var (
			status domain.OrderStatus
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("sqlstore: scan order count: %w", err)
		}
		out[status] = n
	}
	return out, rows.Err()
}
