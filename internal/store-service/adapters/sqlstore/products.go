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

const productColumns = `id, name, price_cents, category_id, stock_quantity, is_active, created_at`

// scanProduct reads productColumns followed by any extra columns.
func scanProduct(s scanner, extra ...any) (*domain.Product, error) {
	var (
		p          domain.Product
		priceCents int64
		createdAt  string
	)
	dest := append([]any{&p.ID, &p.Name, &priceCents, &p.CategoryID, &p.StockQuantity, &p.IsActive, &createdAt}, extra...)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	p.Price = money.FromCents(priceCents)
	var err error
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (q *queries) InsertProduct(ctx context.Context, p *domain.Product) error {
	const stmt = `
		INSERT INTO products (id, name, price_cents, category_id, stock_quantity, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := q.q.ExecContext(ctx, stmt,
		p.ID, p.Name, money.ToCents(p.Price), p.CategoryID, p.StockQuantity, p.IsActive, formatTime(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("sqlstore: insert product %q: %w", p.ID, err)
	}
	return nil
}

func (q *queries) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	row := q.q.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product %q: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: get product %q: %w", id, err)
	}
	return p, nil
}

func productWhere(f domain.ProductFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.ActiveOnly {
		conds = append(conds, `is_active = 1`)
	}
	if f.CategoryID != "" {
		conds = append(conds, `category_id = ?`)
		args = append(args, f.CategoryID)
	}
	if f.Search != "" {
		conds = append(conds, `name LIKE ?`)
		args = append(args, "%"+f.Search+"%")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return ` WHERE ` + strings.Join(conds, ` AND `), args
}

func (q *queries) ListProducts(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	where, args := productWhere(f)
	query := `SELECT ` + productColumns + ` FROM products` + where + ` ORDER BY name, id`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list products: %w", err)
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: scan product: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// CountProducts counts the products matching f, ignoring Limit and Offset.
func (q *queries) CountProducts(ctx context.Context, f domain.ProductFilter) (int, error) {
	where, args := productWhere(f)
	var n int
	if err := q.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlstore: count products: %w", err)
	}
	return n, nil
}

func (q *queries) UpdateProduct(ctx context.Context, p *domain.Product) error {
	const stmt = `UPDATE products SET name = ?, price_cents = ?, category_id = ?, is_active = ? WHERE id = ?`
	if _, err := q.q.ExecContext(ctx, stmt, p.Name, money.ToCents(p.Price), p.CategoryID, p.IsActive, p.ID); err != nil {
		return fmt.Errorf("sqlstore: update product %q: %w", p.ID, err)
	}
	return nil
}

func (q *queries) ReserveStock(ctx context.Context, productID string, qty int) (bool, error) {
	const stmt = `
		UPDATE products
		SET    stock_quantity = stock_quantity - ?
		WHERE  id = ? AND stock_quantity >= ?`

	res, err := q.q.ExecContext(ctx, stmt, qty, productID, qty)
	if err != nil {
		return false, fmt.Errorf("sqlstore: reserve %d of %q: %w", qty, productID, err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (q *queries) ReleaseStock(ctx context.Context, productID string, qty int) error {
	const stmt = `UPDATE products SET stock_quantity = stock_quantity + ? WHERE id = ?`
	res, err := q.q.ExecContext(ctx, stmt, qty, productID)
	if err != nil {
		return fmt.Errorf("sqlstore: release %d of %q: %w", qty, productID, err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("product %q: %w", productID, domain.ErrNotFound)
	}
	return nil
}

func (q *queries) ListLowStock(ctx context.Context, threshold int) ([]domain.LowStockItem, error) {
	const query = `
		SELECT id, name, stock_quantity
		FROM   products
		WHERE  is_active = 1 AND stock_quantity <= ?
		ORDER  BY stock_quantity, name`

	rows, err := q.q.QueryContext(ctx, query, threshold)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list low stock: %w", err)
	}
	defer rows.Close()

	var out []domain.LowStockItem
	for rows.Next() {
		var it domain.LowStockItem
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Stock); err != nil {
			return nil, fmt.Errorf("sqlstore: scan low stock: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
