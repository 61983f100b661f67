package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"ticketly-client/internal/logger"
)

// MessageReader is the part of *kafka.Reader the feed uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type KafkaFeed struct {
	reader  MessageReader
	handler *Handler
	logger  *logger.Logger
}

// NewKafkaFeed creates a consumer for the given topic and group.
func NewKafkaFeed(brokers []string, topic, groupID string, handler *Handler, log *logger.Logger) *KafkaFeed {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
		MaxWait:  time.Second,
	})
	return NewKafkaFeedWithReader(reader, handler, log)
}

func NewKafkaFeedWithReader(reader MessageReader, handler *Handler, log *logger.Logger) *KafkaFeed {
	return &KafkaFeed{reader: reader, handler: handler, logger: log}
}

// Run consumes messages until ctx is cancelled. Malformed messages are
// logged and skipped.
func (f *KafkaFeed) Run(ctx context.Context) error {
	f.logger.LogFeed("kafka", "Notification consumer started")

	for {
		msg, err := f.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				f.logger.LogFeed("kafka", "Notification consumer stopped")
				return nil
			}
			f.logger.Error("FEED", fmt.Sprintf("[kafka] Error reading message: %v", err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		if _, err := f.handler.Handle("kafka", msg.Value); err != nil {
			f.logger.Warn("FEED", fmt.Sprintf("[kafka] Skipping message at offset %d: %v", msg.Offset, err))
			continue
		}
	}
}

func (f *KafkaFeed) Close() error {
	return f.reader.Close()
}
