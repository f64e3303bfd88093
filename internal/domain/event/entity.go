// Package event is the append-only, deduplicated activity log attached
// to each Reservation - what the worker tells the user happened.
package event

import "time"

// Kind enumerates the catalog of messages the worker, dispatcher, and
// synchronizer can append. The values are stable English identifiers;
// the Spanish-language text for each kind lives in Messages.
type Kind string

const (
	KindBookingSuccess Kind = "BOOKING_SUCCESS"
	KindClassNotFound  Kind = "CLASS_NOT_FOUND"

	// KindWaitUntilBookingOpen is used when the worker knows the exact
	// instant the booking window opens (BookingWindowNotOpen carrying
	// an "at" time) and is simply waiting for it.
	KindWaitUntilBookingOpen Kind = "WAIT_UNTIL_BOOKING_OPEN"
	// KindWaitClassLoaded is used when the portal hasn't even published
	// the schedule yet (BookingWindowNotOpen with no "at" time), so the
	// worker waits on the portal's own "schedule changed" event instead
	// of a known instant.
	KindWaitClassLoaded Kind = "WAIT_CLASS_LOADED"

	KindClassFull         Kind = "CLASS_FULL"
	KindBookingPenalty    Kind = "BOOKING_PENALTY"
	KindBookingError      Kind = "BOOKING_ERROR"
	KindLoginError        Kind = "LOGIN_ERROR"
	KindPasswordRequired  Kind = "PASSWORD_REQUIRED"
	KindInvalidBox        Kind = "INVALID_BOX"
	KindWhitelistRejected Kind = "WHITELIST_REJECTED"
	KindSyncSummary       Kind = "SYNC_SUMMARY"
	KindPaused            Kind = "PAUSED"

	// KindTooManyErrors marks the terminal transition when a
	// reservation's consecutive-error budget (MaxErrors) is exhausted.
	KindTooManyErrors Kind = "TOO_MANY_ERRORS"
	// KindClassWaitingOver marks a non-error transition: the class this
	// worker was waiting on has passed, and it has moved on to the
	// following week's occurrence.
	KindClassWaitingOver Kind = "CLASS_WAITING_OVER"
)

// Messages is the Spanish-language catalog, grounded on the original
// application's constants.py EventMessage enum. The _IGNORE_WEEK
// suffix is appended by the worker (not baked in here) whenever a
// class-not-found/booking-error outcome also advances the target date
// to next week.
var Messages = map[Kind]string{
	KindBookingSuccess:       "¡Reserva realizada con éxito!",
	KindClassNotFound:        "No se ha encontrado ninguna clase para el día y hora indicados.",
	KindWaitUntilBookingOpen: "Esperando hasta que se abra el periodo de reserva para esta clase.",
	KindWaitClassLoaded:      "Esperando a que se publique el horario de esta clase.",
	KindClassFull:            "La clase está completa.",
	KindBookingPenalty:       "No se puede reservar: el usuario tiene una penalización activa.",
	KindBookingError:         "Se ha producido un error al intentar realizar la reserva.",
	KindLoginError:           "No se ha podido iniciar sesión en el portal.",
	KindPasswordRequired:     "La sesión ha caducado, es necesario volver a introducir la contraseña.",
	KindInvalidBox:           "El box configurado no es válido.",
	KindWhitelistRejected:    "Intento de reserva fallido.",
	KindSyncSummary:          "Sincronización de reservas completada.",
	KindPaused:               "La reserva se ha pausado.",
	KindTooManyErrors:        "Se han producido demasiados errores al intentar reservar. Reserva parada.",
	KindClassWaitingOver:     "La clase anterior ya ha pasado, comenzando la reserva para la siguiente semana.",
}

const ignoreWeekSuffix = " Se reintentará la próxima semana."

// IgnoreWeekMessage appends the original app's fixed suffix used when
// CLASS_NOT_FOUND or BOOKING_ERROR also causes the target date to skip
// forward seven days.
func IgnoreWeekMessage(k Kind) string {
	return Messages[k] + ignoreWeekSuffix
}

// Event is one entry in a Reservation's activity log.
type Event struct {
	ID            string    `db:"id" json:"id"`
	ReservationID string    `db:"reservation_id" json:"reservation_id"`
	BookingDate   time.Time `db:"booking_date" json:"booking_date"`
	Kind          Kind      `db:"kind" json:"kind"`
	Message       string    `db:"message" json:"message"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// New builds an Event with its message resolved from the catalog.
func New(reservationID string, bookingDate time.Time, kind Kind, message string) Event {
	if message == "" {
		message = Messages[kind]
	}
	return Event{
		ReservationID: reservationID,
		BookingDate:   bookingDate,
		Kind:          kind,
		Message:       message,
	}
}

// DuplicatesLast reports whether appending this event would be a
// no-op duplicate of the reservation's most recent event: an
// identical message. The event log writer uses this to skip the
// append rather than growing the log on every identical poll outcome
// in a retry loop.
func (e Event) DuplicatesLast(last *Event) bool {
	if last == nil {
		return false
	}
	return last.Message == e.Message
}
