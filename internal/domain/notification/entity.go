// Package notification records which reminder notifications have
// already been sent, so the reminder scanner doesn't double-send
// across sweeps or process restarts.
package notification

import "time"

// Sent is the idempotency record: one row per (portal booking,
// reminder offset) combination that has already gone out.
type Sent struct {
	ID              string    `db:"id" json:"id"`
	PortalBookingID string    `db:"portal_booking_id" json:"portal_booking_id"`
	ReminderMinutes int       `db:"reminder_minutes" json:"reminder_minutes"`
	SentAt          time.Time `db:"sent_at" json:"sent_at"`
}
