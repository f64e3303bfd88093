// Package sync implements the on-demand observed-booking
// synchronizer (SPEC_FULL §4.8): for a user's current Madrid week, it
// asks the portal what it shows as already booked and reconciles that
// against the PortalBooking table, so the calendar view reflects
// bookings made outside our own workers (another device, the
// portal's own UI) and notices cancellations the same way.
package sync

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"wodbooker-go/internal/clock"
	"wodbooker-go/internal/domain/event"
	"wodbooker-go/internal/domain/portalbooking"
	"wodbooker-go/internal/domain/reservation"
	"wodbooker-go/internal/domain/user"
	"wodbooker-go/internal/eventlog"
	"wodbooker-go/internal/portal"
	"wodbooker-go/internal/store/postgres"
)

// DateError records a single date's sync failure without aborting the
// rest of the week - §4.8 reports "per-date errors" rather than
// failing the whole pass.
type DateError struct {
	Date time.Time `json:"date"`
	Err  string    `json:"error"`
}

// Summary reports what a SyncWeek pass did, the shape returned to the
// "sync now" HTTP endpoint.
type Summary struct {
	New       int         `json:"new"`
	Updated   int         `json:"updated"`
	Cancelled int         `json:"cancelled"`
	Errors    []DateError `json:"errors,omitempty"`
}

func (s Summary) message() string {
	return fmt.Sprintf("Sincronización completada: %d nuevas, %d actualizadas, %d canceladas.", s.New, s.Updated, s.Cancelled)
}

// Synchronizer runs the weekly reconciliation pass for one user at a
// time, invoked on "sync now" and on calendar-view load.
type Synchronizer struct {
	Users          *postgres.UserRepository
	Reservations   *postgres.ReservationRepository
	PortalBookings *postgres.PortalBookingRepository
	Events         *eventlog.Writer
	NewClient      func(ctx context.Context, u user.User) (*portal.Client, error)
	Clock          clock.Clock
	Logger         *zap.Logger
}

// SyncWeek reconciles userID's PortalBooking rows against the portal
// for the current Europe/Madrid week (Monday..Sunday).
func (s *Synchronizer) SyncWeek(ctx context.Context, userID string) (Summary, error) {
	u, err := s.Users.Get(ctx, userID)
	if err != nil {
		return Summary{}, fmt.Errorf("sync: load user %s: %w", userID, err)
	}

	reservations, err := s.Reservations.ListByUser(ctx, userID)
	if err != nil {
		return Summary{}, fmt.Errorf("sync: list reservations for %s: %w", userID, err)
	}

	client, err := s.NewClient(ctx, u)
	if err != nil {
		return Summary{}, fmt.Errorf("sync: build portal client: %w", err)
	}

	boxURL, err := resolveBoxURL(ctx, client, reservations)
	if err != nil {
		return Summary{}, fmt.Errorf("sync: resolve box url: %w", err)
	}

	weekStart := clock.WeekStart(s.Clock.Now())
	var summary Summary
	for i := 0; i < 7; i++ {
		date := weekStart.AddDate(0, 0, i)
		if err := s.syncDate(ctx, client, u.ID, boxURL, date, &summary); err != nil {
			s.Logger.Warn("sync: date failed", zap.Error(err), zap.String("user_id", userID), zap.Time("date", date))
			summary.Errors = append(summary.Errors, DateError{Date: date, Err: err.Error()})
		}
	}

	s.recordSummary(ctx, reservations, summary)
	return summary, nil
}

// resolveBoxURL prefers a box URL already known from one of the
// user's reservations; only a user with none yet configured falls
// through to the portal's own roadtobox.aspx redirect.
func resolveBoxURL(ctx context.Context, client *portal.Client, reservations []reservation.Reservation) (string, error) {
	for _, res := range reservations {
		if res.URL != "" {
			return res.URL, nil
		}
	}
	return client.BoxURL(ctx)
}

func (s *Synchronizer) syncDate(ctx context.Context, client *portal.Client, userID, boxURL string, date time.Time, summary *Summary) error {
	observed, err := client.SyncObservedBookings(ctx, boxURL, date)
	if err != nil {
		return err
	}

	existing, err := s.PortalBookings.ListForDate(ctx, userID, date)
	if err != nil {
		return err
	}
	existingByClassID := make(map[int64]portalbooking.PortalBooking, len(existing))
	for _, row := range existing {
		if !row.IsCancelled {
			existingByClassID[row.PortalClassID] = row
		}
	}

	reported := make(map[int64]struct{}, len(observed))
	for _, ob := range observed {
		reported[ob.ClassID] = struct{}{}

		if err := s.PortalBookings.Upsert(ctx, portalbooking.PortalBooking{
			UserID:        userID,
			PortalClassID: ob.ClassID,
			ClassDate:     date,
			ClassTime:     ob.ClassTime,
			BoxURL:        boxURL,
		}); err != nil {
			return err
		}

		if _, wasBooked := existingByClassID[ob.ClassID]; wasBooked {
			summary.Updated++
		} else {
			summary.New++
		}
	}

	for classID, row := range existingByClassID {
		if _, stillReported := reported[classID]; stillReported {
			continue
		}
		if err := s.PortalBookings.MarkCancelled(ctx, row.ID); err != nil {
			return err
		}
		summary.Cancelled++
	}

	return nil
}

// recordSummary appends a SYNC_SUMMARY event to every reservation
// owned by the user: Events are reservation-scoped, so a user-level
// sync pass is logged against each of their reservations' timelines.
func (s *Synchronizer) recordSummary(ctx context.Context, reservations []reservation.Reservation, summary Summary) {
	now := s.Clock.Now()
	message := summary.message()
	for _, res := range reservations {
		if err := s.Events.Append(ctx, res.ID, now, event.KindSyncSummary, message); err != nil {
			s.Logger.Warn("sync: failed to append summary event", zap.Error(err), zap.String("reservation_id", res.ID))
		}
	}
}
