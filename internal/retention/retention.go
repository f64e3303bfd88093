// Package retention runs the periodic sweep that keeps the Event and
// NotificationSent tables from growing unbounded (SPEC_FULL §4.9):
// every Reservation's Events older than the retention window are
// purged except its single most recent row, and NotificationSent rows
// older than their own window are purged outright.
package retention

import (
	"context"
	"time"

	"go.uber.org/zap"

	"wodbooker-go/internal/clock"
	"wodbooker-go/internal/config"
	"wodbooker-go/internal/store/postgres"
)

// Sweeper periodically purges old Event and NotificationSent rows.
type Sweeper struct {
	Reservations  *postgres.ReservationRepository
	Events        *postgres.EventRepository
	Notifications *postgres.NotificationRepository
	Clock         clock.Clock
	Config        config.RetentionConfig
	Logger        *zap.Logger
}

// Run ticks at Config.SweepInterval until ctx is cancelled, sweeping
// once immediately on start.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweep(ctx)

	interval := s.Config.SweepInterval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	now := s.Clock.Now()

	s.sweepEvents(ctx, now)
	s.sweepNotifications(ctx, now)
}

// sweepEvents deletes each reservation's events older than the
// retention window, one reservation (one commit) at a time, logging
// and continuing past individual failures rather than aborting the
// whole sweep.
func (s *Sweeper) sweepEvents(ctx context.Context, now time.Time) {
	reservations, err := s.Reservations.List(ctx)
	if err != nil {
		s.Logger.Error("retention: failed to list reservations", zap.Error(err))
		return
	}

	before := now.Add(-s.Config.EventRetention)
	var deleted int64
	for _, res := range reservations {
		n, err := s.Events.DeleteOlderThanExceptLast(ctx, res.ID, before)
		if err != nil {
			s.Logger.Warn("retention: event sweep failed for reservation", zap.Error(err), zap.String("reservation_id", res.ID))
			continue
		}
		deleted += n
	}
	if deleted > 0 {
		s.Logger.Info("retention: event sweep complete", zap.Int64("deleted", deleted))
	}
}

func (s *Sweeper) sweepNotifications(ctx context.Context, now time.Time) {
	before := now.Add(-s.Config.NotificationRetention)
	n, err := s.Notifications.DeleteOlderThan(ctx, before)
	if err != nil {
		s.Logger.Error("retention: notification sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.Logger.Info("retention: notification sweep complete", zap.Int64("deleted", n))
	}
}
