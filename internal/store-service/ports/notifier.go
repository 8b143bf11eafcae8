package ports

import (
	"context"

	"github.com/jcmexdev/nutrition-store/internal/store-service/domain"
)

// Notifier delivers store notifications. Implementations may block on I/O;
// the core always calls them from a detached goroutine and only logs errors.
type Notifier interface {
	NotifyLowStock(ctx context.Context, items []domain.LowStockItem) error
	NotifyOrderConfirmed(ctx context.Context, c domain.OrderConfirmation) error
}
