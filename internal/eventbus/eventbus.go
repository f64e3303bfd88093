// Package eventbus decouples the booking worker from the notification
// dispatcher through a durable NATS JetStream stream: a worker
// publishes a BookingOutcome the instant it resolves a claim attempt,
// and the dispatcher subscribes as a durable consumer so a dispatcher
// restart never drops a pending notification. Adapted from the
// teacher's pkg/broker/nats/jetstream package, narrowed from a
// generic typed-event bus to wodbooker's single outcome message.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"wodbooker-go/internal/config"
	"wodbooker-go/internal/domain/reservation"
)

const connectTimeout = 5 * time.Second

// Subject is the fixed JetStream subject every BookingOutcome is
// published and subscribed on.
const Subject = "wodbooker.booking.outcome"

// BookingOutcome is the message the worker publishes after every
// resolved claim attempt; the dispatcher is the sole subscriber.
type BookingOutcome struct {
	ReservationID string    `json:"reservation_id"`
	UserID        string    `json:"user_id"`
	Success       bool      `json:"success"`
	Recovered     bool      `json:"recovered"`
	Reason        string    `json:"reason,omitempty"`
	ClassDateTime time.Time `json:"class_date_time"`
	WeekdayLabel  string    `json:"weekday_label"`
	LocalTime     string    `json:"local_time"`
}

// Bus wraps a JetStream connection scoped to wodbooker's single
// outcome stream.
type Bus struct {
	nc *nats.Conn
	js jetstream.JetStream
	cfg config.NATSConfig
}

// Connect dials NATS and ensures the booking-outcome stream exists.
func Connect(ctx context.Context, cfg config.NATSConfig) (*Bus, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.ReconnectWait(5*time.Second),
		nats.MaxReconnects(10),
	)
	if err != nil {
		return nil, fmt.Errorf("eventbus: nats.Connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("eventbus: jetstream.New: %w", err)
	}

	createCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	streamConfig := jetstream.StreamConfig{
		Name:      cfg.StreamName,
		Subjects:  []string{Subject},
		MaxAge:    7 * 24 * time.Hour,
		Storage:   jetstream.FileStorage,
		Retention: jetstream.WorkQueuePolicy,
	}
	if _, err := js.CreateStream(createCtx, streamConfig); err != nil {
		if _, err := js.UpdateStream(createCtx, streamConfig); err != nil {
			nc.Close()
			return nil, fmt.Errorf("eventbus: create/update stream %s: %w", cfg.StreamName, err)
		}
	}

	return &Bus{nc: nc, js: js, cfg: cfg}, nil
}

// Close disconnects from NATS.
func (b *Bus) Close() {
	if b == nil || b.nc == nil {
		return
	}
	b.nc.Close()
}

// Publish sends a BookingOutcome. Called from the worker's hot path;
// errors are returned for the caller to log, never retried inline.
func (b *Bus) Publish(ctx context.Context, outcome BookingOutcome) error {
	data, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("eventbus: marshal outcome: %w", err)
	}
	if _, err := b.js.Publish(ctx, Subject, data); err != nil {
		return fmt.Errorf("eventbus: publish: %w", err)
	}
	return nil
}

// Subscribe creates (or reattaches to) a durable consumer and
// delivers every BookingOutcome to handler until ctx is cancelled.
// handler errors Nak the message for redelivery rather than losing
// the notification.
func (b *Bus) Subscribe(ctx context.Context, consumerName string, logger *zap.Logger, handler func(context.Context, BookingOutcome) error) error {
	consumer, err := b.js.CreateOrUpdateConsumer(ctx, b.cfg.StreamName, jetstream.ConsumerConfig{
		Name:          consumerName,
		Durable:       consumerName,
		FilterSubject: Subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    5,
		AckWait:       30 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("eventbus: create consumer %s: %w", consumerName, err)
	}

	consumeCtx, err := consumer.Consume(func(msg jetstream.Msg) {
		var outcome BookingOutcome
		if err := json.Unmarshal(msg.Data(), &outcome); err != nil {
			logger.Error("eventbus: failed to decode booking outcome, dropping", zap.Error(err))
			_ = msg.Term()
			return
		}
		if err := handler(ctx, outcome); err != nil {
			logger.Warn("eventbus: handler failed, redelivering", zap.Error(err), zap.String("reservation_id", outcome.ReservationID))
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("eventbus: consume: %w", err)
	}
	defer consumeCtx.Stop()

	<-ctx.Done()
	return ctx.Err()
}

// WorkerNotifier publishes a worker's booking outcomes onto the bus
// instead of delivering push/mail directly. It satisfies the booking
// worker's Notifier interface structurally (same method set) without
// eventbus importing the worker package, keeping the dependency
// one-directional: worker -> eventbus -> dispatcher.
type WorkerNotifier struct {
	Bus *Bus
}

// NotifyBookingSuccess publishes a successful BookingOutcome.
func (n WorkerNotifier) NotifyBookingSuccess(ctx context.Context, res reservation.Reservation, recoveredFromError bool) error {
	return n.Bus.Publish(ctx, BookingOutcome{
		ReservationID: res.ID,
		UserID:        res.UserID,
		Success:       true,
		Recovered:     recoveredFromError,
		ClassDateTime: *res.BookedAt,
		WeekdayLabel:  res.WeekdayLabel(),
		LocalTime:     res.LocalTime,
	})
}

// NotifyBookingFailure publishes a failed BookingOutcome.
func (n WorkerNotifier) NotifyBookingFailure(ctx context.Context, res reservation.Reservation, reason string) error {
	return n.Bus.Publish(ctx, BookingOutcome{
		ReservationID: res.ID,
		UserID:        res.UserID,
		Success:       false,
		Reason:        reason,
		WeekdayLabel:  res.WeekdayLabel(),
		LocalTime:     res.LocalTime,
	})
}
