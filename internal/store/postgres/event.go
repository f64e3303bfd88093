package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"wodbooker-go/internal/domain/event"
	"wodbooker-go/internal/store"
)

// EventRepository handles the append-only Event log.
type EventRepository struct {
	BaseRepository[event.Event]
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{BaseRepository: NewBaseRepository[event.Event](db, "events")}
}

// Append inserts a new event.
func (r *EventRepository) Append(ctx context.Context, e event.Event) (string, error) {
	id := r.GenerateID()
	query := `
		INSERT INTO events (id, reservation_id, booking_date, kind, message, created_at)
		VALUES ($1,$2,$3,$4,$5,NOW())
		RETURNING id
	`
	err := r.GetDB().QueryRowContext(ctx, query, id, e.ReservationID, e.BookingDate, e.Kind, e.Message).Scan(&id)
	return id, HandleSQLError(err)
}

// Last returns the most recently appended event for a reservation, or
// nil if none exist yet - used by the dedup check before Append.
func (r *EventRepository) Last(ctx context.Context, reservationID string) (*event.Event, error) {
	var e event.Event
	query := `
		SELECT * FROM events WHERE reservation_id=$1
		ORDER BY created_at DESC LIMIT 1
	`
	err := r.GetDB().GetContext(ctx, &e, query, reservationID)
	if err != nil {
		wrapped := HandleSQLError(err)
		if errors.Is(wrapped, store.ErrorNotFound) {
			return nil, nil
		}
		return nil, wrapped
	}
	return &e, nil
}

// ListByReservation returns a reservation's events, newest first.
func (r *EventRepository) ListByReservation(ctx context.Context, reservationID string, limit int) ([]event.Event, error) {
	var out []event.Event
	query := `
		SELECT * FROM events WHERE reservation_id=$1
		ORDER BY created_at DESC LIMIT $2
	`
	err := r.GetDB().SelectContext(ctx, &out, query, reservationID, limit)
	return out, err
}

// DeleteOlderThanExceptLast deletes a reservation's events created
// before the given instant, always preserving its single most recent
// row regardless of age - the original's `events[:-1]` retention
// rule, so a reservation's activity log never goes fully empty.
func (r *EventRepository) DeleteOlderThanExceptLast(ctx context.Context, reservationID string, before time.Time) (int64, error) {
	query := `
		DELETE FROM events
		WHERE reservation_id = $1
		  AND created_at < $2
		  AND id <> (
			SELECT id FROM events
			WHERE reservation_id = $1
			ORDER BY created_at DESC LIMIT 1
		  )
	`
	res, err := r.GetDB().ExecContext(ctx, query, reservationID, before)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}
