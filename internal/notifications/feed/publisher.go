package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"ticketly-client/internal/logger"
	"ticketly-client/internal/models"
)

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher announces notifications on the feed topic, in the same
// shape the notification service publishes them.
type KafkaPublisher struct {
	writer MessageWriter
	logger *logger.Logger
}

func NewKafkaPublisher(brokers []string, topic string, log *logger.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return NewKafkaPublisherWithWriter(writer, log)
}

func NewKafkaPublisherWithWriter(writer MessageWriter, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, logger: log}
}

// Publish sends ev keyed by its receiver so one user's events stay ordered.
func (p *KafkaPublisher) Publish(ctx context.Context, ev models.NotificationEvent) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal notification event: %w", err)
	}

	key := ev.Receiver.String()
	if ev.IsBroadcast() {
		key = "todos"
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: value}); err != nil {
		return fmt.Errorf("failed to publish notification event: %w", err)
	}
	p.logger.LogFeed("kafka", fmt.Sprintf("Published %s notification for %s", ev.Kind, key))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
