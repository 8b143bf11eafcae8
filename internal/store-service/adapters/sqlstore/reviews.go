package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jcmexdev/nutrition-store/internal/store-service/domain"
)

const reviewColumns = `id, user_id, product_id, order_id, rating, title, content, is_verified, created_at, updated_at`

func scanReview(s scanner) (*domain.Review, error) {
	var (
		r                    domain.Review
		createdAt, updatedAt string
	)
	err := s.Scan(&r.ID, &r.UserID, &r.ProductID, &r.OrderID, &r.Rating,
		&r.Title, &r.Content, &r.IsVerified, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func (q *queries) InsertReview(ctx context.Context, r *domain.Review) error {
	const stmt = `
		INSERT INTO reviews (id, user_id, product_id, order_id, rating, title, content, is_verified, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := q.q.ExecContext(ctx, stmt,
		r.ID, r.UserID, r.ProductID, r.OrderID, r.Rating, r.Title, r.Content, r.IsVerified,
		formatTime(r.CreatedAt), formatTime(r.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("review by %q of %q in %q: %w", r.UserID, r.ProductID, r.OrderID, domain.ErrDuplicateReview)
		}
		return fmt.Errorf("sqlstore: insert review: %w", err)
	}
	return nil
}

func (q *queries) GetReview(ctx context.Context, id string) (*domain.Review, error) {
	r, err := scanReview(q.q.QueryRowContext(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("review %q: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: get review %q: %w", id, err)
	}
	return r, nil
}

func (q *queries) ReviewExists(ctx context.Context, userID, orderID, productID string) (bool, error) {
	const query = `SELECT COUNT(*) FROM reviews WHERE user_id = ? AND order_id = ? AND product_id = ?`
	var n int
	if err := q.q.QueryRowContext(ctx, query, userID, orderID, productID).Scan(&n); err != nil {
		return false, fmt.Errorf("sqlstore: review exists: %w", err)
	}
	return n > 0, nil
}

func (q *queries) UpdateReview(ctx context.Context, r *domain.Review) error {
	const stmt = `UPDATE reviews SET rating = ?, title = ?, content = ?, updated_at = ? WHERE id = ?`
	if _, err := q.q.ExecContext(ctx, stmt, r.Rating, r.Title, r.Content, formatTime(r.UpdatedAt), r.ID); err != nil {
		return fmt.Errorf("sqlstore: update review %q: %w", r.ID, err)
	}
	return nil
}

func (q *queries) DeleteReview(ctx context.Context, id string) error {
	res, err := q.q.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlstore: delete review %q: %w", id, err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("review %q: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ListProductReviews returns the newest reviews first.
func (q *queries) ListProductReviews(ctx context.Context, productID string, limit, offset int) ([]domain.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE product_id = ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`

	rows, err := q.q.QueryContext(ctx, query, productID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list reviews of %q: %w", productID, err)
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: scan review: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// ListReviews returns reviews of every product, newest first. A zero limit
// returns all of them.
func (q *queries) ListReviews(ctx context.Context, limit int) ([]domain.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews ORDER BY created_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list reviews: %w", err)
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: scan review: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// ProductRatingCounts maps rating to number of reviews.
func (q *queries) ProductRatingCounts(ctx context.Context, productID string) (map[int]int, error) {
	rows, err := q.q.QueryContext(ctx,
		`SELECT rating, COUNT(*) FROM reviews WHERE product_id = ? GROUP BY rating`, productID)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: rating counts of %q: %w", productID, err)
	}
	defer rows.Close()

	out := make(map[int]int)
	for rows.Next() {
		var rating, n int
		if err := rows.Scan(&rating, &n); err != nil {
			return nil, fmt.Errorf("sqlstore: scan rating count: %w", err)
		}
		out[rating] = n
	}
	return out, rows.Err()
}

// FindReviewableOrder returns the newest delivered order of userID that
// contains productID and has not been reviewed for it yet.
func (q *queries) FindReviewableOrder(ctx context.Context, userID, productID string) (string, error) {
	const query = `
		SELECT o.id
		FROM   orders o
		JOIN   order_lines l ON l.order_id = o.id
		WHERE  o.user_id = ? AND l.product_id = ? AND o.status = ?
		  AND  NOT EXISTS (
		         SELECT 1 FROM reviews r
		         WHERE  r.user_id = o.user_id AND r.order_id = o.id AND r.product_id = l.product_id)
		ORDER  BY o.created_at DESC, o.id DESC
		LIMIT  1`

	var id string
	err := q.q.QueryRowContext(ctx, query, userID, productID, string(domain.StatusDelivered)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("reviewable order of %q for %q: %w", productID, userID, domain.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("sqlstore: find reviewable order: %w", err)
	}
	return id, nil
}
