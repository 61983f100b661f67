package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"ticketly-client/internal/logger"
)

const maxBackoff = 30 * time.Second

var errDeliveriesClosed = errors.New("deliveries channel closed")

type AMQPFeed struct {
	url     string
	queue   string
	handler *Handler
	logger  *logger.Logger
}

func NewAMQPFeed(url, queue string, handler *Handler, log *logger.Logger) *AMQPFeed {
	return &AMQPFeed{url: url, queue: queue, handler: handler, logger: log}
}

// Run dials the broker, declares the durable queue and consumes it,
// reconnecting with backoff until ctx is cancelled.
func (f *AMQPFeed) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(f.url)
		if err != nil {
			f.logger.Warn("FEED", fmt.Sprintf("[amqp] Failed to dial broker: %v; retrying in %s", err, backoff))
			if !sleep(ctx, backoff) {
				return nil
			}
			if backoff < maxBackoff {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = f.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			f.logger.LogFeed("amqp", "Notification consumer stopped")
			return nil
		}
		f.logger.Warn("FEED", fmt.Sprintf("[amqp] Consume loop ended: %v; reconnecting", err))
		if !sleep(ctx, 2*time.Second) {
			return nil
		}
	}
}

func (f *AMQPFeed) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		f.logger.Warn("FEED", fmt.Sprintf("[amqp] Set QoS failed: %v", err))
	}
	if _, err := ch.QueueDeclare(f.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(f.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	f.logger.LogFeed("amqp", fmt.Sprintf("Consuming queue %s", f.queue))
	return f.Deliver(ctx, msgs)
}

// Deliver handles deliveries until the channel closes or ctx is done.
// Malformed messages are rejected without requeue.
func (f *AMQPFeed) Deliver(ctx context.Context, msgs <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errDeliveriesClosed
			}
			if _, err := f.handler.Handle("amqp", d.Body); err != nil {
				f.logger.Warn("FEED", fmt.Sprintf("[amqp] Rejecting message: %v", err))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
