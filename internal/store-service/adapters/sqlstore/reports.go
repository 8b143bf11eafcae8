package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jcmexdev/nutrition-store/internal/pkg/money"
	"github.com/jcmexdev/nutrition-store/internal/store-service/domain"
)

func salesArgs(from, to time.Time, statuses []domain.OrderStatus) []any {
	args := make([]any, 0, len(statuses)+2)
	for _, s := range statuses {
		args = append(args, string(s))
	}
	return append(args, formatTime(from), formatTime(to))
}

// SalesByDay aggregates order lines per UTC day in [from, to).
func (q *queries) SalesByDay(ctx context.Context, from, to time.Time, statuses []domain.OrderStatus) ([]domain.DailySales, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	query := `
		SELECT SUBSTR(o.created_at, 1, 10) AS sales_day,
		       SUM(l.quantity),
		       SUM(l.quantity * l.unit_price_cents)
		FROM   order_lines l
		JOIN   orders o ON o.id = l.order_id
		WHERE  o.status IN (` + placeholders(len(statuses)) + `)
		  AND  o.created_at >= ? AND o.created_at < ?
		GROUP  BY SUBSTR(o.created_at, 1, 10)
		ORDER  BY sales_day`

	rows, err := q.q.QueryContext(ctx, query, salesArgs(from, to, statuses)...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: sales by day: %w", err)
	}
	defer rows.Close()

	var out []domain.DailySales
	for rows.Next() {
		var (
			d     domain.DailySales
			cents int64
		)
		if err := rows.Scan(&d.Day, &d.Quantity, &cents); err != nil {
			return nil, fmt.Errorf("sqlstore: scan daily sales: %w", err)
		}
		d.Sales = money.FromCents(cents)
		out = append(out, d)
	}
	return out, rows.Err()
}

// SalesByProduct aggregates order lines per product in [from, to), best
// sellers first.
func (q *queries) SalesByProduct(ctx context.Context, from, to time.Time, statuses []domain.OrderStatus) ([]domain.ProductSales, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	query := `
		SELECT l.product_id,
		       MAX(l.product_name),
		       SUM(l.quantity),
		       SUM(l.quantity * l.unit_price_cents) AS sales
		FROM   order_lines l
		JOIN   orders o ON o.id = l.order_id
		WHERE  o.status IN (` + placeholders(len(statuses)) + `)
		  AND  o.created_at >= ? AND o.created_at < ?
		GROUP  BY l.product_id
		ORDER  BY sales DESC, l.product_id`

	rows, err := q.q.QueryContext(ctx, query, salesArgs(from, to, statuses)...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: sales by product: %w", err)
	}
	defer rows.Close()

	var out []domain.ProductSales
	for rows.Next() {
		var (
			p     domain.ProductSales
			cents int64
		)
		if err := rows.Scan(&p.ProductID, &p.Name, &p.Quantity, &cents); err != nil {
			return nil, fmt.Errorf("sqlstore: scan product sales: %w", err)
		}
		p.Sales = money.FromCents(cents)
		out = append(out, p)
	}
	return out, rows.Err()
}

// SalesByCategory aggregates order lines in [from, to) by the product's
// current category. Uncategorized sales share the empty category id.
func (q *queries) SalesByCategory(ctx context.Context, from, to time.Time, statuses []domain.OrderStatus) ([]domain.CategorySales, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	query := `
		SELECT COALESCE(p.category_id, '') AS cat_id,
		       COALESCE(MAX(c.name), ''),
		       SUM(l.quantity),
		       SUM(l.quantity * l.unit_price_cents) AS sales
		FROM   order_lines l
		JOIN   orders o ON o.id = l.order_id
		LEFT   JOIN products p ON p.id = l.product_id
		LEFT   JOIN categories c ON c.id = p.category_id
		WHERE  o.status IN (` + placeholders(len(statuses)) + `)
		  AND  o.created_at >= ? AND o.created_at < ?
		GROUP  BY COALESCE(p.category_id, '')
		ORDER  BY sales DESC, cat_id`

	rows, err := q.q.QueryContext(ctx, query, salesArgs(from, to, statuses)...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: sales by category: %w", err)
	}
	defer rows.Close()

	var out []domain.CategorySales
	for rows.Next() {
		var (
			c     domain.CategorySales
			cents int64
		)
		if err := rows.Scan(&c.CategoryID, &c.Name, &c.Quantity, &cents); err != nil {
			return nil, fmt.Errorf("sqlstore: scan category sales: %w", err)
		}
		c.Sales = money.FromCents(cents)
		out = append(out, c)
	}
	return out, rows.Err()
}

// ProductRanking lists active products by units sold in orders with one of
// statuses, then by average rating, both counting zero when absent.
func (q *queries) ProductRanking(ctx context.Context, statuses []domain.OrderStatus, limit int) ([]domain.ProductRank, error) {
	if len(statuses) == 0 {
		return nil, fmt.Errorf("sqlstore: product ranking without statuses: %w", domain.ErrInvalidArgument)
	}
	query := `
		SELECT ` + productColumns + `,
		       COALESCE(s.units, 0) AS units,
		       COALESCE(r.avg_rating, 0) AS avg_rating
		FROM   products
		LEFT   JOIN (
		       SELECT l.product_id, SUM(l.quantity) AS units
		       FROM   order_lines l
		       JOIN   orders o ON o.id = l.order_id
		       WHERE  o.status IN (` + placeholders(len(statuses)) + `)
		       GROUP  BY l.product_id
		) s ON s.product_id = products.id
		LEFT   JOIN (
		       SELECT product_id, AVG(rating) AS avg_rating
		       FROM   reviews
		       GROUP  BY product_id
		) r ON r.product_id = products.id
		WHERE  products.is_active = 1
		ORDER  BY units DESC, avg_rating DESC, products.name, products.id
		LIMIT  ?`

	args := make([]any, 0, len(statuses)+1)
	for _, st := range statuses {
		args = append(args, string(st))
	}
	args = append(args, limit)

	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: product ranking: %w", err)
	}
	defer rows.Close()

	var out []domain.ProductRank
	for rows.Next() {
		var rank domain.ProductRank
		p, err := scanProduct(rows, &rank.UnitsSold, &rank.AverageRating)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: scan ranking: %w", err)
		}
		rank.Product = *p
		out = append(out, rank)
	}
	return out, rows.Err()
}
