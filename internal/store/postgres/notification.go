package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"wodbooker-go/internal/domain/notification"
)

// NotificationRepository persists the idempotency record of sent
// reminder notifications.
type NotificationRepository struct {
	BaseRepository[notification.Sent]
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{BaseRepository: NewBaseRepository[notification.Sent](db, "notifications_sent")}
}

// MarkSent records that a reminder offset has fired for a portal
// booking. The unique constraint on (portal_booking_id,
// reminder_minutes) makes this the dedup point the reminder scanner
// relies on: a concurrent or repeated insert writes nothing and, since
// RETURNING then yields no row, returns store.ErrorNotFound.
func (r *NotificationRepository) MarkSent(ctx context.Context, portalBookingID string, reminderMinutes int) (string, error) {
	id := r.GenerateID()
	query := `
		INSERT INTO notifications_sent (id, portal_booking_id, reminder_minutes, sent_at)
		VALUES ($1,$2,$3,NOW())
		ON CONFLICT (portal_booking_id, reminder_minutes) DO NOTHING
		RETURNING id
	`
	err := r.GetDB().QueryRowContext(ctx, query, id, portalBookingID, reminderMinutes).Scan(&id)
	return id, HandleSQLError(err)
}

// WasSent reports whether a reminder offset has already fired for
// this portal booking.
func (r *NotificationRepository) WasSent(ctx context.Context, portalBookingID string, reminderMinutes int) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM notifications_sent
			WHERE portal_booking_id=$1 AND reminder_minutes=$2
		)
	`
	var exists bool
	err := r.GetDB().GetContext(ctx, &exists, query, portalBookingID, reminderMinutes)
	return exists, err
}

// DeleteOlderThan deletes sent-notification records before the given
// instant, used by the retention sweeper.
func (r *NotificationRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM notifications_sent WHERE sent_at < $1`
	res, err := r.GetDB().ExecContext(ctx, query, before)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}
