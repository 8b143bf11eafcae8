package app

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/nutrition-store/internal/pkg/money"
	"github.com/jcmexdev/nutrition-store/internal/store-service/domain"
	"github.com/jcmexdev/nutrition-store/internal/store-service/ports"
)

// Wallet returns a user's balance, provisioning the wallet on first use.
func (s *Service) Wallet(ctx context.Context, actor domain.Actor, userID string) (*domain.Wallet, error) {
	if !actor.CanAccess(userID) {
		return nil, fmt.Errorf("wallet of %q: %w", userID, domain.ErrForbidden)
	}

	var w *domain.Wallet
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx ports.Queries) error {
		var err error
		w, err = s.ensureWallet(ctx, tx, userID)
		return err
	})
	return w, err
}

func (s *Service) ensureWallet(ctx context.Context, tx ports.Queries, userID string) (*domain.Wallet, error) {
	if err := tx.CreateWalletIfAbsent(ctx, userID, s.initialBalance); err != nil {
		return nil, err
	}
	return tx.GetWallet(ctx, userID)
}

// debit subtracts amount from the user's wallet inside tx.
func (s *Service) debit(ctx context.Context, tx ports.Queries, userID string, amount decimal.Decimal) (*domain.Wallet, error) {
	w, err := s.ensureWallet(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	ok, err := tx.DebitWallet(ctx, userID, amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("balance %s below %s: %w",
			money.Format(w.Balance), money.Format(amount), domain.ErrInsufficientBalance)
	}
	return tx.GetWallet(ctx, userID)
}

func (s *Service) credit(ctx context.Context, tx ports.Queries, userID string, amount decimal.Decimal) error {
	if _, err := s.ensureWallet(ctx, tx, userID); err != nil {
		return err
	}
	return tx.CreditWallet(ctx, userID, amount)
}
