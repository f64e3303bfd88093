package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"wodbooker-go/internal/domain/reservation"
)

// ReservationRepository handles CRUD operations for reservations.
type ReservationRepository struct {
	BaseRepository[reservation.Reservation]
}

// NewReservationRepository creates a new ReservationRepository.
func NewReservationRepository(db *sqlx.DB) *ReservationRepository {
	return &ReservationRepository{BaseRepository: NewBaseRepository[reservation.Reservation](db, "reservations")}
}

// Create inserts a new reservation and returns its generated ID.
func (r *ReservationRepository) Create(ctx context.Context, res reservation.Reservation) (string, error) {
	id := r.GenerateID()
	query := `
		INSERT INTO reservations (
			id, user_id, url, dow, local_time, class_kind,
			window_open_offset_days, window_open_local_time, is_active,
			last_booked_date, booked_at, error_count, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,NOW(),NOW())
		RETURNING id
	`
	err := r.GetDB().QueryRowContext(ctx, query,
		id, res.UserID, res.URL, int(res.DOW), res.LocalTime, res.ClassKind,
		res.WindowOpenOffsetDays, res.WindowOpenLocalTime, res.IsActive,
		res.LastBookedDate, res.BookedAt, res.ErrorCount,
	).Scan(&id)
	return id, HandleSQLError(err)
}

// Update persists the mutable fields of a reservation: activation
// state, booking progress, and the error counter.
func (r *ReservationRepository) Update(ctx context.Context, res reservation.Reservation) error {
	query := `
		UPDATE reservations
		SET is_active=$1, last_booked_date=$2, booked_at=$3, error_count=$4, updated_at=NOW()
		WHERE id=$5
		RETURNING id
	`
	var id string
	err := r.GetDB().QueryRowContext(ctx, query,
		res.IsActive, res.LastBookedDate, res.BookedAt, res.ErrorCount, res.ID,
	).Scan(&id)
	return HandleSQLError(err)
}

// ListActive returns every reservation the Supervisor should be
// running a worker for.
func (r *ReservationRepository) ListActive(ctx context.Context) ([]reservation.Reservation, error) {
	var out []reservation.Reservation
	query := `SELECT * FROM reservations WHERE is_active=true ORDER BY created_at ASC`
	err := r.GetDB().SelectContext(ctx, &out, query)
	return out, err
}

// ListByUser returns every reservation belonging to a user, active or not.
func (r *ReservationRepository) ListByUser(ctx context.Context, userID string) ([]reservation.Reservation, error) {
	var out []reservation.Reservation
	query := `SELECT * FROM reservations WHERE user_id=$1 ORDER BY created_at ASC`
	err := r.GetDB().SelectContext(ctx, &out, query, userID)
	return out, err
}
