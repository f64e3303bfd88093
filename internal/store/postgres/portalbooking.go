package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"wodbooker-go/internal/domain/portalbooking"
)

// PortalBookingRepository persists what the synchronizer has observed
// directly on the portal's calendar.
type PortalBookingRepository struct {
	BaseRepository[portalbooking.PortalBooking]
}

// NewPortalBookingRepository creates a new PortalBookingRepository.
func NewPortalBookingRepository(db *sqlx.DB) *PortalBookingRepository {
	return &PortalBookingRepository{BaseRepository: NewBaseRepository[portalbooking.PortalBooking](db, "portal_bookings")}
}

// Upsert records (or refreshes) an observed booking, keyed on (user,
// portal class, date) - the identity the synchronizer reconciles on.
// A conflicting row has its name/kind/box/fetchedAt refreshed and is
// unmarked cancelled, since the portal is reporting it again.
func (r *PortalBookingRepository) Upsert(ctx context.Context, b portalbooking.PortalBooking) error {
	query := `
		INSERT INTO portal_bookings
			(id, user_id, portal_class_id, class_date, class_time, class_name, class_kind, box_url, fetched_at, is_cancelled)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW(),FALSE)
		ON CONFLICT (user_id, portal_class_id, class_date)
		DO UPDATE SET
			class_time=EXCLUDED.class_time,
			class_name=EXCLUDED.class_name,
			class_kind=EXCLUDED.class_kind,
			box_url=EXCLUDED.box_url,
			fetched_at=NOW(),
			is_cancelled=FALSE
	`
	_, err := r.GetDB().ExecContext(ctx, query, r.GenerateID(),
		b.UserID, b.PortalClassID, b.ClassDate, b.ClassTime, b.ClassName, b.ClassKind, b.BoxURL)
	return err
}

// MarkCancelled flags a previously observed booking as no longer
// present on the portal, refreshing fetchedAt to record when the
// absence was noticed.
func (r *PortalBookingRepository) MarkCancelled(ctx context.Context, id string) error {
	query := `UPDATE portal_bookings SET is_cancelled=TRUE, fetched_at=NOW() WHERE id=$1`
	_, err := r.GetDB().ExecContext(ctx, query, id)
	return err
}

// ListForDate returns a user's observed bookings (cancelled and not)
// for a single class_date - the synchronizer's per-date diff baseline.
func (r *PortalBookingRepository) ListForDate(ctx context.Context, userID string, date time.Time) ([]portalbooking.PortalBooking, error) {
	var out []portalbooking.PortalBooking
	query := `SELECT * FROM portal_bookings WHERE user_id=$1 AND class_date=$2`
	err := r.GetDB().SelectContext(ctx, &out, query, userID, date)
	return out, err
}

// ListForWeek returns a user's observed bookings within [weekStart,
// weekStart+7d), used by the calendar view.
func (r *PortalBookingRepository) ListForWeek(ctx context.Context, userID string, weekStart time.Time) ([]portalbooking.PortalBooking, error) {
	var out []portalbooking.PortalBooking
	query := `
		SELECT * FROM portal_bookings
		WHERE user_id=$1 AND class_date >= $2 AND class_date < $3
		ORDER BY class_date ASC
	`
	err := r.GetDB().SelectContext(ctx, &out, query, userID, weekStart, weekStart.AddDate(0, 0, 7))
	return out, err
}

// ListBookedOn returns every still-booked observation whose class_date
// falls on one of the given calendar dates - the reminder scanner's
// candidate set for a sweep, narrowed to "today and tomorrow" so a
// class just after midnight is never missed.
func (r *PortalBookingRepository) ListBookedOn(ctx context.Context, dates []time.Time) ([]portalbooking.PortalBooking, error) {
	if len(dates) == 0 {
		return nil, nil
	}
	var out []portalbooking.PortalBooking
	query := `
		SELECT * FROM portal_bookings
		WHERE is_cancelled = FALSE AND class_date = ANY($1)
		ORDER BY class_date ASC, class_time ASC
	`
	err := r.GetDB().SelectContext(ctx, &out, query, pq.Array(dates))
	return out, err
}
