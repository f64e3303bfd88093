// Package reservation holds the Reservation entity: a standing
// instruction to keep trying to book a specific weekly class slot
// until cancelled.
package reservation

import "time"

// weekdayLabels gives the Spanish day-of-week label the original
// portal's notification text uses, indexed by Weekday (0=Monday).
var weekdayLabels = [7]string{
	"lunes", "martes", "miércoles", "jueves", "viernes", "sábado", "domingo",
}

// Weekday is a day-of-week index using the portal's own convention:
// Monday=0 .. Sunday=6 (wodbuster's schedule picker lists Monday
// first; see original_source/wodbooker/views.py's choices list). This
// is NOT Go's native time.Weekday, which is Sunday=0 - the two only
// meet at ToTime, the clock package boundary.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// ToTime converts w to Go's native time.Weekday, for passing to the
// clock package's date arithmetic.
func (w Weekday) ToTime() time.Weekday {
	return time.Weekday((int(w) + 1) % 7)
}

// ClassKind distinguishes the two booking surfaces the portal exposes.
// A Class reservation books into a scheduled session; a TimeSlot
// reservation claims an open-gym time slot. The worker's attempt/retry
// semantics are identical between them - only the portal endpoint the
// client calls and the error vocabulary it maps back differ.
type ClassKind string

const (
	ClassKindClass    ClassKind = "class"
	ClassKindTimeSlot ClassKind = "timeslot"
)

// Reservation is a standing instruction: every week, on weekday DOW at
// LocalTime, try to book this user into a class at URL.
//
// FIELD DESIGN:
//   - UserID is a foreign key, not an embedded User - the worker loads
//     the User fresh at the top of each run so a credential refresh
//     from the admin API is picked up without restarting the worker.
//   - WindowOpenOffsetDays/WindowOpenLocalTime describe when the
//     portal opens booking for this slot (e.g. "7 days before, at
//     08:00") - the worker uses this to sleep until the window is
//     plausibly open instead of hammering the portal early.
//   - LastBookedDate is the calendar date (Europe/Madrid) of the most
//     recent successful booking; once a date is booked the worker
//     advances its target to the following week's occurrence of DOW.
//   - IsActive is the only mutable on/off switch a user has. Setting
//     it false tells the Supervisor to stop (not delete) the worker.
type Reservation struct {
	ID                   string        `db:"id" json:"id"`
	UserID               string        `db:"user_id" json:"user_id"`
	URL                  string        `db:"url" json:"url"`
	DOW                  Weekday       `db:"dow" json:"dow"`
	LocalTime            string        `db:"local_time" json:"local_time"` // "HH:MM"
	ClassKind            ClassKind     `db:"class_kind" json:"class_kind"`
	WindowOpenOffsetDays int           `db:"window_open_offset_days" json:"window_open_offset_days"`
	WindowOpenLocalTime  string        `db:"window_open_local_time" json:"window_open_local_time"`
	IsActive             bool          `db:"is_active" json:"is_active"`
	LastBookedDate       *time.Time    `db:"last_booked_date" json:"last_booked_date,omitempty"`
	BookedAt             *time.Time    `db:"booked_at" json:"booked_at,omitempty"`
	ErrorCount           int           `db:"error_count" json:"error_count"`
	CreatedAt            time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time     `db:"updated_at" json:"updated_at"`
}

// WeekdayLabel returns the Spanish day-of-week label for r.DOW, used
// verbatim in push/email notification bodies.
func (r Reservation) WeekdayLabel() string {
	return weekdayLabels[int(r.DOW)%7]
}

// MarkBooked returns a copy of r recording a successful booking on
// date and resets the consecutive error counter.
func (r Reservation) MarkBooked(date, bookedAt time.Time) Reservation {
	r.LastBookedDate = &date
	r.BookedAt = &bookedAt
	r.ErrorCount = 0
	return r
}

// IncrementErrors returns a copy of r with its error counter bumped,
// used by the worker's backoff schedule ((errors+1)*60s).
func (r Reservation) IncrementErrors() Reservation {
	r.ErrorCount++
	return r
}

// ResetErrors clears the consecutive-error counter, used whenever the
// worker reaches a state (success or a recognized non-error outcome)
// that should forgive prior transient failures.
func (r Reservation) ResetErrors() Reservation {
	r.ErrorCount = 0
	return r
}

// AlreadyBookedFor reports whether LastBookedDate already covers the
// given target date, so the worker doesn't attempt a duplicate booking
// within the same week after a restart.
func (r Reservation) AlreadyBookedFor(target time.Time) bool {
	if r.LastBookedDate == nil {
		return false
	}
	y1, m1, d1 := r.LastBookedDate.Date()
	y2, m2, d2 := target.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
