package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jcmexdev/nutrition-store/internal/orderlog"
	"github.com/jcmexdev/nutrition-store/internal/pkg/metrics"
	"github.com/jcmexdev/nutrition-store/internal/store-service/domain"
	"github.com/jcmexdev/nutrition-store/internal/store-service/ports"
)

type PaymentResult struct {
	Order   *domain.Order
	Balance *domain.Wallet
}

// Pay settles a pending order from the owner's wallet. The debit, the status
// change and its log entry commit together.
func (s *Service) Pay(ctx context.Context, actor domain.Actor, orderID string) (res *PaymentResult, err error) {
	ctx, end := s.startSpan(ctx, "Pay", attribute.String("order_id", orderID))
	defer func() {
		metrics.Payments.WithLabelValues(paymentResult(err)).Inc()
		end(err)
	}()

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx ports.Queries) error {
		o, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if o.UserID != actor.ID {
			return fmt.Errorf("order %q: %w", orderID, domain.ErrForbidden)
		}
		if err := checkPayable(o.Status); err != nil {
			return err
		}

		// Status first: a concurrent payment of the same order loses here,
		// before touching the wallet.
		if err := casStatus(ctx, tx, o.ID, domain.StatusPending, domain.StatusPaid); err != nil {
			var te *domain.TransitionError
			if errors.As(err, &te) {
				if perr := checkPayable(te.From); perr != nil {
					return perr
				}
			}
			return err
		}

		w, err := s.debit(ctx, tx, o.UserID, o.TotalAmount)
		if err != nil {
			return err
		}

		note := "wallet debit " + o.TotalAmount.StringFixed(2)
		if err := tx.AppendStatusLog(ctx, orderlog.NewEntry(ctx, o.ID, domain.StatusPending, domain.StatusPaid, actor.ID, note)); err != nil {
			return err
		}

		o.Status = domain.StatusPaid
		o.UpdatedAt = s.now()
		res = &PaymentResult{Order: o, Balance: w}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.OrderTransitions.WithLabelValues(string(domain.StatusPending), string(domain.StatusPaid)).Inc()
	slog.InfoContext(ctx, "order paid",
		"order_id", orderID, "amount", res.Order.TotalAmount.StringFixed(2), "balance", res.Balance.Balance.StringFixed(2))
	return res, nil
}

func checkPayable(status domain.OrderStatus) error {
	switch status {
	case domain.StatusPending:
		return nil
	case domain.StatusPaid:
		return domain.ErrAlreadyPaid
	default:
		return &domain.TransitionError{From: status, To: domain.StatusPaid}
	}
}

func paymentResult(err error) string {
	switch {
	case err == nil:
		return metrics.PaymentSuccess
	case errors.Is(err, domain.ErrInsufficientBalance):
		return metrics.PaymentInsufficientBalance
	case errors.Is(err, domain.ErrAlreadyPaid),
		errors.Is(err, domain.ErrIllegalTransition),
		errors.Is(err, domain.ErrForbidden),
		errors.Is(err, domain.ErrNotFound):
		return metrics.PaymentRejected
	default:
		return metrics.PaymentError
	}
}
