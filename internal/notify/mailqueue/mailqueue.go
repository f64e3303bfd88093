// Package mailqueue provides a durable RabbitMQ queue for outbound
// SMTP delivery, adapted from the teacher's pkg/broker/rabbitmq
// connection helper into a publisher/consumer pair. Nothing in this
// tree calls Publish: the dispatcher sends mail directly through
// mail.Sender, and cmd/worker only runs the consumer. There is no
// reconnect: on a broken AMQP connection Consume returns an error,
// which cmd/worker logs while the process keeps running.
package mailqueue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"wodbooker-go/internal/config"
	"wodbooker-go/internal/notify/mail"
)

// Queue wraps a single AMQP channel used for both publishing and
// consuming wodbooker's outbound mail queue.
type Queue struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	name    string
	logger  *zap.Logger
}

// Connect dials RabbitMQ and declares the durable outbound mail queue.
func Connect(cfg config.RabbitMQConfig, logger *zap.Logger) (*Queue, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", cfg.Queue, err)
	}

	return &Queue{conn: conn, channel: ch, name: cfg.Queue, logger: logger}, nil
}

// Close releases the channel and connection.
func (q *Queue) Close() {
	if q == nil {
		return
	}
	q.channel.Close()
	q.conn.Close()
}

// Publish enqueues msg for asynchronous delivery by a Consumer.
func (q *Queue) Publish(ctx context.Context, msg mail.Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal mail message: %w", err)
	}

	return q.channel.PublishWithContext(ctx, "", q.name, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

// Consume runs a blocking delivery loop, sending each queued message
// through sender and acking only on success so a transient SMTP
// outage redelivers rather than drops mail. Returns when ctx is
// cancelled or the channel's delivery stream closes.
func (q *Queue) Consume(ctx context.Context, sender *mail.Sender) error {
	deliveries, err := q.channel.Consume(q.name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming %s: %w", q.name, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("mail queue delivery channel closed")
			}
			q.handle(d, sender)
		}
	}
}

func (q *Queue) handle(d amqp.Delivery, sender *mail.Sender) {
	var msg mail.Message
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		q.logger.Error("failed to decode queued mail, dropping", zap.Error(err))
		_ = d.Reject(false)
		return
	}

	if err := sender.Send(msg); err != nil {
		q.logger.Warn("mail delivery failed, requeuing", zap.Error(err), zap.String("to", msg.To))
		_ = d.Nack(false, true)
		return
	}

	_ = d.Ack(false)
}
