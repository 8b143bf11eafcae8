package notify

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jcmexdev/nutrition-store/internal/store-service/domain"
)

const DefaultExchange = "store.notifications"

// publisher is the part of *amqp.Channel the notifier uses.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// RabbitNotifier publishes events to a durable topic exchange using the
// event type as routing key. Consumers bind their own queues.
type RabbitNotifier struct {
	mu       sync.Mutex
	ch       publisher
	exchange string
}

// NewRabbitNotifier declares the exchange once at startup.
func NewRabbitNotifier(ch *amqp.Channel, exchange string) (*RabbitNotifier, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return nil, fmt.Errorf("notify: declare exchange %q: %w", exchange, err)
	}
	return &RabbitNotifier{ch: ch, exchange: exchange}, nil
}

// DialRabbit opens a connection and a channel; close the connection on
// shutdown.
func DialRabbit(url string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("notify: dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("notify: open channel: %w", err)
	}
	return conn, ch, nil
}

func (n *RabbitNotifier) NotifyLowStock(ctx context.Context, items []domain.LowStockItem) error {
	return n.publish(ctx, lowStockEvent(items))
}

func (n *RabbitNotifier) NotifyOrderConfirmed(ctx context.Context, c domain.OrderConfirmation) error {
	return n.publish(ctx, orderConfirmedEvent(c))
}

func (n *RabbitNotifier) publish(ctx context.Context, e Event) error {
	body, err := e.encode()
	if err != nil {
		return err
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    e.OccurredAt,
		Type:         e.Type,
		Body:         body,
	}

	// A channel must not be used by two publishers at once.
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.ch.PublishWithContext(ctx, n.exchange, e.Type, false, false, msg); err != nil {
		return fmt.Errorf("notify: publish %s: %w", e.Type, err)
	}
	return nil
}
