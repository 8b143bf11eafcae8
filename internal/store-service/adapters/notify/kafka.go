package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/jcmexdev/nutrition-store/internal/store-service/domain"
)

const DefaultTopic = "store.notifications"

// KafkaNotifier writes events to one topic through a synchronous producer.
type KafkaNotifier struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaProducer(brokers []string) (sarama.SyncProducer, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_6_0_0
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Return.Successes = true
	cfg.Net.DialTimeout = 5 * time.Second

	p, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("notify: kafka producer: %w", err)
	}
	return p, nil
}

func NewKafkaNotifier(producer sarama.SyncProducer, topic string) *KafkaNotifier {
	if topic == "" {
		topic = DefaultTopic
	}
	return &KafkaNotifier{producer: producer, topic: topic}
}

func (n *KafkaNotifier) NotifyLowStock(ctx context.Context, items []domain.LowStockItem) error {
	return n.send(ctx, lowStockEvent(items))
}

func (n *KafkaNotifier) NotifyOrderConfirmed(ctx context.Context, c domain.OrderConfirmation) error {
	return n.send(ctx, orderConfirmedEvent(c))
}

func (n *KafkaNotifier) send(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := e.encode()
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic:     n.topic,
		Key:       sarama.StringEncoder(e.key()),
		Value:     sarama.ByteEncoder(body),
		Timestamp: e.OccurredAt,
		Headers: []sarama.RecordHeader{
			{Key: []byte("type"), Value: []byte(e.Type)},
		},
	}
	if _, _, err := n.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("notify: kafka send %s: %w", e.Type, err)
	}
	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.producer.Close()
}
