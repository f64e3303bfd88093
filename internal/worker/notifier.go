package worker

import (
	"context"

	"wodbooker-go/internal/domain/reservation"
)

// Notifier is the seam into the notification dispatcher. The worker
// depends only on this narrow interface so it can be tested without a
// real push/mail stack, and so the dispatcher package can depend on
// worker's types without an import cycle.
type Notifier interface {
	NotifyBookingSuccess(ctx context.Context, res reservation.Reservation, recoveredFromError bool) error
	NotifyBookingFailure(ctx context.Context, res reservation.Reservation, reason string) error
}

// NoopNotifier drops every notification, used where no dispatcher is
// wired (tests, or a deployment with push/mail disabled).
type NoopNotifier struct{}

// NotifyBookingSuccess does nothing.
func (NoopNotifier) NotifyBookingSuccess(ctx context.Context, res reservation.Reservation, recoveredFromError bool) error {
	return nil
}

// NotifyBookingFailure does nothing.
func (NoopNotifier) NotifyBookingFailure(ctx context.Context, res reservation.Reservation, reason string) error {
	return nil
}
