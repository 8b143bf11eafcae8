package notify

import (
	"context"
	"log/slog"

	"github.com/jcmexdev/nutrition-store/internal/store-service/domain"
)

// LogNotifier writes notifications to the structured log. It is the sink
// used when no broker is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyLowStock(ctx context.Context, items []domain.LowStockItem) error {
	attrs := make([]any, 0, len(items))
	for _, it := range items {
		attrs = append(attrs, slog.Group(it.ProductID, "name", it.Name, "stock", it.Stock))
	}
	n.logger.WarnContext(ctx, "low stock", slog.Group("products", attrs...))
	return nil
}

func (n *LogNotifier) NotifyOrderConfirmed(ctx context.Context, c domain.OrderConfirmation) error {
	n.logger.InfoContext(ctx, "order confirmed",
		"order_id", c.OrderID,
		"user_id", c.UserID,
		"total", c.TotalAmount.StringFixed(2),
		"lines", len(c.Lines),
	)
	return nil
}
