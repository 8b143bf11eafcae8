package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jcmexdev/nutrition-store/internal/store-service/domain"
)

const cartColumns = `id, user_id, product_id, quantity, added_at`

func scanCartLine(s scanner) (*domain.CartLine, error) {
	var (
		l       domain.CartLine
		addedAt string
	)
	if err := s.Scan(&l.ID, &l.UserID, &l.ProductID, &l.Quantity, &addedAt); err != nil {
		return nil, err
	}
	var err error
	if l.AddedAt, err = parseTime(addedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

func (q *queries) getCartLine(ctx context.Context, what, query string, args ...any) (*domain.CartLine, error) {
	l, err := scanCartLine(q.q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("cart line %s: %w", what, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: get cart line %s: %w", what, err)
	}
	return l, nil
}

func (q *queries) GetCartLine(ctx context.Context, id string) (*domain.CartLine, error) {
	return q.getCartLine(ctx, fmt.Sprintf("%q", id),
		`SELECT `+cartColumns+` FROM cart_lines WHERE id = ?`, id)
}

func (q *queries) FindCartLine(ctx context.Context, userID, productID string) (*domain.CartLine, error) {
	return q.getCartLine(ctx, fmt.Sprintf("%q/%q", userID, productID),
		`SELECT `+cartColumns+` FROM cart_lines WHERE user_id = ? AND product_id = ?`, userID, productID)
}

// ListCartLines returns lines in the order they were added; checkout builds
// order lines in this order.
func (q *queries) ListCartLines(ctx context.Context, userID string) ([]domain.CartLine, error) {
	rows, err := q.q.QueryContext(ctx,
		`SELECT `+cartColumns+` FROM cart_lines WHERE user_id = ? ORDER BY added_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list cart %q: %w", userID, err)
	}
	defer rows.Close()

	var out []domain.CartLine
	for rows.Next() {
		l, err := scanCartLine(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: scan cart line: %w", err)
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func (q *queries) InsertCartLine(ctx context.Context, l *domain.CartLine) error {
	const stmt = `INSERT INTO cart_lines (id, user_id, product_id, quantity, added_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := q.q.ExecContext(ctx, stmt, l.ID, l.UserID, l.ProductID, l.Quantity, formatTime(l.AddedAt)); err != nil {
		return fmt.Errorf("sqlstore: insert cart line: %w", err)
	}
	return nil
}

func (q *queries) UpdateCartLineQuantity(ctx context.Context, id string, qty int) error {
	if _, err := q.q.ExecContext(ctx, `UPDATE cart_lines SET quantity = ? WHERE id = ?`, qty, id); err != nil {
		return fmt.Errorf("sqlstore: update cart line %q: %w", id, err)
	}
	return nil
}

func (q *queries) DeleteCartLine(ctx context.Context, id string) error {
	if _, err := q.q.ExecContext(ctx, `DELETE FROM cart_lines WHERE id = ?`, id); err != nil {
		return fmt.Errorf("sqlstore: delete cart line %q: %w", id, err)
	}
	return nil
}

func (q *queries) DeleteCartLines(ctx context.Context, userID string) error {
	if _, err := q.q.ExecContext(ctx, `DELETE FROM cart_lines WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("sqlstore: clear cart %q: %w", userID, err)
	}
	return nil
}
