package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/nutrition-store/internal/pkg/money"
	"github.com/jcmexdev/nutrition-store/internal/store-service/domain"
)

func (q *queries) GetWallet(ctx context.Context, userID string) (*domain.Wallet, error) {
	var (
		w            domain.Wallet
		balanceCents int64
		updatedAt    string
	)
	err := q.q.QueryRowContext(ctx,
		`SELECT user_id, balance_cents, updated_at FROM wallets WHERE user_id = ?`, userID).
		Scan(&w.UserID, &balanceCents, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("wallet %q: %w", userID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: get wallet %q: %w", userID, err)
	}
	w.Balance = money.FromCents(balanceCents)
	if w.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &w, nil
}

// CreateWalletIfAbsent is a no-op when the user already has a wallet.
func (q *queries) CreateWalletIfAbsent(ctx context.Context, userID string, balance decimal.Decimal) error {
	stmt := q.dialect.insertIgnore + ` INTO wallets (user_id, balance_cents, updated_at) VALUES (?, ?, ?)`
	if _, err := q.q.ExecContext(ctx, stmt, userID, money.ToCents(balance), formatTime(q.now())); err != nil {
		return fmt.Errorf("sqlstore: create wallet %q: %w", userID, err)
	}
	return nil
}

func (q *queries) DebitWallet(ctx context.Context, userID string, amount decimal.Decimal) (bool, error) {
	const stmt = `
		UPDATE wallets
		SET    balance_cents = balance_cents - ?, updated_at = ?
		WHERE  user_id = ? AND balance_cents >= ?`

	cents := money.ToCents(amount)
	res, err := q.q.ExecContext(ctx, stmt, cents, formatTime(q.now()), userID, cents)
	if err != nil {
		return false, fmt.Errorf("sqlstore: debit wallet %q: %w", userID, err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (q *queries) CreditWallet(ctx context.Context, userID string, amount decimal.Decimal) error {
	const stmt = `UPDATE wallets SET balance_cents = balance_cents + ?, updated_at = ? WHERE user_id = ?`

	res, err := q.q.ExecContext(ctx, stmt, money.ToCents(amount), formatTime(q.now()), userID)
	if err != nil {
		return fmt.Errorf("sqlstore: credit wallet %q: %w", userID, err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("wallet %q: %w", userID, domain.ErrNotFound)
	}
	return nil
}
