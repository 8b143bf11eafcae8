package notify

import (
	"context"
	"errors"

	"github.com/jcmexdev/nutrition-store/internal/store-service/domain"
	"github.com/jcmexdev/nutrition-store/internal/store-service/ports"
)

// Fanout delivers to every sink even when some fail, and returns the joined
// errors.
type Fanout []ports.Notifier

var _ ports.Notifier = Fanout(nil)

func (f Fanout) NotifyLowStock(ctx context.Context, items []domain.LowStockItem) error {
	var errs []error
	for _, n := range f {
		if err := n.NotifyLowStock(ctx, items); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) NotifyOrderConfirmed(ctx context.Context, c domain.OrderConfirmation) error {
	var errs []error
	for _, n := range f {
		if err := n.NotifyOrderConfirmed(ctx, c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
