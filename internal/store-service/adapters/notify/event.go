// Package notify implements ports.Notifier on top of slog, RabbitMQ, Kafka
// and a websocket hub. Every transport carries the same JSON Event.
package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jcmexdev/nutrition-store/internal/store-service/domain"
)

// Event types double as RabbitMQ routing keys.
const (
	TypeLowStock       = "inventory.low_stock"
	TypeOrderConfirmed = "order.confirmed"
)

type Event struct {
	Type       string                    `json:"type"`
	OccurredAt time.Time                 `json:"occurred_at"`
	LowStock   []domain.LowStockItem     `json:"low_stock,omitempty"`
	Order      *domain.OrderConfirmation `json:"order,omitempty"`
}

func lowStockEvent(items []domain.LowStockItem) Event {
	return Event{Type: TypeLowStock, OccurredAt: time.Now().UTC(), LowStock: items}
}

func orderConfirmedEvent(c domain.OrderConfirmation) Event {
	return Event{Type: TypeOrderConfirmed, OccurredAt: time.Now().UTC(), Order: &c}
}

// key partitions Kafka messages: one partition key per order, a fixed one
// for low-stock alerts.
func (e Event) key() string {
	if e.Order != nil {
		return e.Order.OrderID
	}
	return "low_stock"
}

func (e Event) encode() ([]byte, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("notify: marshal %s: %w", e.Type, err)
	}
	return body, nil
}
