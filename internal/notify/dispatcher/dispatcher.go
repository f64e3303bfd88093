// Package dispatcher is the single place booking outcomes turn into
// user-visible notifications: it subscribes to the booking worker's
// event bus and gates delivery through each user's push/mail
// preferences (SPEC_FULL §4.6), and separately runs the reminder
// scanner that warns users 60/30/15 minutes before an observed
// booking.
package dispatcher

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"wodbooker-go/internal/clock"
	"wodbooker-go/internal/domain/portalbooking"
	"wodbooker-go/internal/eventbus"
	"wodbooker-go/internal/notify/mail"
	"wodbooker-go/internal/notify/push"
	"wodbooker-go/internal/store/postgres"
)

// reminderWindow is how far a sweep tolerates the scanner's own 60s
// tick drifting from the exact offset before a class.
const reminderWindow = 1 * time.Minute

// reminderOffsets is the fixed set of reminder lead times, in minutes
// before class start.
var reminderOffsets = [3]int{60, 30, 15}

// Dispatcher delivers push and mail notifications for booking
// outcomes, and runs the reminder scanner.
type Dispatcher struct {
	Users          *postgres.UserRepository
	PortalBookings *postgres.PortalBookingRepository
	Notifications  *postgres.NotificationRepository
	Push           *push.Sender
	Mail           *mail.Sender
	Clock          clock.Clock
	Logger         *zap.Logger
}

// HandleOutcome is the eventbus subscription handler: gates delivery
// through the owning user's preferences and sends push/mail.
func (d *Dispatcher) HandleOutcome(ctx context.Context, outcome eventbus.BookingOutcome) error {
	u, err := d.Users.Get(ctx, outcome.UserID)
	if err != nil {
		return fmt.Errorf("dispatcher: load user %s: %w", outcome.UserID, err)
	}

	if u.WantsPush(outcome.Success) {
		if err := d.Push.SendToUser(ctx, u.ID, pushMessageFor(outcome)); err != nil {
			d.Logger.Warn("dispatcher: push delivery failed", zap.Error(err), zap.String("user_id", u.ID))
		}
	}

	if u.WantsMail(outcome.Success) {
		if err := d.sendMail(u.Email, outcome); err != nil {
			d.Logger.Warn("dispatcher: mail delivery failed", zap.Error(err), zap.String("user_id", u.ID))
		}
	}

	return nil
}

func (d *Dispatcher) sendMail(to string, outcome eventbus.BookingOutcome) error {
	templateName := "booking_success"
	subject := "Reserva confirmada"
	if !outcome.Success {
		templateName = "booking_failure"
		subject = "Reserva fallida"
	}

	body, err := mail.RenderBookingOutcome(templateName, mail.BookingOutcomeData{
		WeekdayLabel: outcome.WeekdayLabel,
		LocalTime:    outcome.LocalTime,
		Success:      outcome.Success,
		Reason:       outcome.Reason,
	})
	if err != nil {
		return err
	}

	return d.Mail.Send(mail.Message{To: to, Subject: subject, Body: body, IsHTML: true})
}

func pushMessageFor(outcome eventbus.BookingOutcome) push.Message {
	title := "¡Reserva realizada!"
	body := fmt.Sprintf("Clase del %s a las %s reservada.", outcome.WeekdayLabel, outcome.LocalTime)
	if !outcome.Success {
		title = "No se pudo reservar"
		body = fmt.Sprintf("Clase del %s a las %s: %s", outcome.WeekdayLabel, outcome.LocalTime, outcome.Reason)
	}
	return push.Message{
		Title: title,
		Body:  body,
		Tag:   "booking-outcome",
		Data: map[string]any{
			"reservation_id": outcome.ReservationID,
			"weekday_label":  outcome.WeekdayLabel,
			"local_time":     outcome.LocalTime,
			"success":        outcome.Success,
		},
	}
}

// RunReminderScanner ticks every minute, sweeping for observed
// bookings crossing a 60/30/15-minute reminder boundary, until ctx is
// cancelled.
func (d *Dispatcher) RunReminderScanner(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.sweepReminders(ctx)
		}
	}
}

func (d *Dispatcher) sweepReminders(ctx context.Context) {
	now := d.Clock.Now()
	today := clock.StartOfDay(now)
	tomorrow := today.AddDate(0, 0, 1)

	bookings, err := d.PortalBookings.ListBookedOn(ctx, []time.Time{today, tomorrow})
	if err != nil {
		d.Logger.Error("reminder sweep: failed to list bookings", zap.Error(err))
		return
	}

	for _, b := range bookings {
		classDateTime, ok := combineDateTime(b)
		if !ok {
			continue
		}
		for _, m := range reminderOffsets {
			d.maybeSendReminder(ctx, now, b, classDateTime, m)
		}
	}
}

func (d *Dispatcher) maybeSendReminder(ctx context.Context, now time.Time, b portalbooking.PortalBooking, classDateTime time.Time, minutes int) {
	due := classDateTime.Add(-time.Duration(minutes) * time.Minute)
	if now.Before(due.Add(-reminderWindow)) || now.After(due.Add(reminderWindow)) {
		return
	}

	sent, err := d.Notifications.WasSent(ctx, b.ID, minutes)
	if err != nil {
		d.Logger.Error("reminder sweep: WasSent check failed", zap.Error(err), zap.String("portal_booking_id", b.ID))
		return
	}
	if sent {
		return
	}

	u, err := d.Users.Get(ctx, b.UserID)
	if err != nil {
		d.Logger.Error("reminder sweep: failed to load user", zap.Error(err), zap.String("user_id", b.UserID))
		return
	}
	if !u.WantsPushReminder(minutes) {
		return
	}

	msg := push.Message{
		Title: fmt.Sprintf("Clase en %d minutos", minutes),
		Body:  fmt.Sprintf("Tu clase de las %s está a punto de empezar.", b.ClassTime),
		Tag:   fmt.Sprintf("reminder-%d", minutes),
		Data: map[string]any{
			"portal_booking_id": b.ID,
			"class_time":        b.ClassTime,
			"minutes":           minutes,
		},
	}
	if err := d.Push.SendToUser(ctx, u.ID, msg); err != nil {
		d.Logger.Warn("reminder sweep: push delivery failed", zap.Error(err), zap.String("user_id", u.ID))
		return
	}

	if _, err := d.Notifications.MarkSent(ctx, b.ID, minutes); err != nil {
		d.Logger.Error("reminder sweep: failed to mark sent", zap.Error(err), zap.String("portal_booking_id", b.ID))
	}
}

func combineDateTime(b portalbooking.PortalBooking) (time.Time, bool) {
	var hour, minute int
	if _, err := fmt.Sscanf(b.ClassTime, "%d:%d", &hour, &minute); err != nil {
		return time.Time{}, false
	}
	return clock.DateTimeToBook(b.ClassDate, hour, minute), true
}
