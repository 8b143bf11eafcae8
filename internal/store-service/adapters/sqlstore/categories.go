package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jcmexdev/nutrition-store/internal/store-service/domain"
)

const categoryColumns = `id, name, description, created_at`

func scanCategory(s scanner) (*domain.Category, error) {
	var (
		c         domain.Category
		createdAt string
	)
	if err := s.Scan(&c.ID, &c.Name, &c.Description, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// InsertCategory returns domain.ErrDuplicateCategory when the name is taken.
func (q *queries) InsertCategory(ctx context.Context, c *domain.Category) error {
	const stmt = `INSERT INTO categories (id, name, description, created_at) VALUES (?, ?, ?, ?)`
	_, err := q.q.ExecContext(ctx, stmt, c.ID, c.Name, c.Description, formatTime(c.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("category %q: %w", c.Name, domain.ErrDuplicateCategory)
		}
		return fmt.Errorf("sqlstore: insert category %q: %w", c.Name, err)
	}
	return nil
}

func (q *queries) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	c, err := scanCategory(q.q.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %q: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: get category %q: %w", id, err)
	}
	return c, nil
}

func (q *queries) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := q.q.QueryContext(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list categories: %w", err)
	}
	defer rows.Close()

	var out []domain.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: scan category: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}
