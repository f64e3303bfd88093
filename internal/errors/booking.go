package errors

import "net/http"

// Sentinel errors returned by the portal client and consumed by the
// booking worker's dispatch table. Each is classified below into the
// retry category the worker applies when it sees that sentinel:
//
//	transient         - transport/5xx noise, retry after a short delay
//	retryable-logical - the portal rejected the attempt for a reason
//	                    that may clear on its own (locked, penalized,
//	                    window not open yet); retry on a schedule
//	skip-week         - nothing to do this week, move the target date
//	                    forward seven days and try again next cycle
//	fatal             - the reservation cannot make progress without
//	                    operator intervention; the worker stops
//	configuration     - the Reservation or User record itself is wrong
var (
	// ErrInvalidCredentials means the portal rejected the stored
	// cookie/credentials outright. Classification: fatal.
	ErrInvalidCredentials = &Error{
		Code:       "INVALID_CREDENTIALS",
		Message:    "the portal rejected the stored credentials",
		HTTPStatus: http.StatusUnauthorized,
	}

	// ErrPasswordRequired means the cached cookie expired and a fresh
	// username/password login is required. Classification: fatal.
	ErrPasswordRequired = &Error{
		Code:       "PASSWORD_REQUIRED",
		Message:    "session expired, a password login is required",
		HTTPStatus: http.StatusUnauthorized,
	}

	// ErrUnparseableResponse means the portal returned something the
	// client couldn't parse (layout change, maintenance page).
	// Classification: transient.
	ErrUnparseableResponse = &Error{
		Code:       "UNPARSEABLE_RESPONSE",
		Message:    "could not parse the portal's response",
		HTTPStatus: http.StatusBadGateway,
	}

	// ErrTransientPortal covers network failures, timeouts, and 5xx
	// responses from the portal. Classification: transient.
	ErrTransientPortal = &Error{
		Code:       "TRANSIENT_PORTAL_ERROR",
		Message:    "the portal is temporarily unreachable",
		HTTPStatus: http.StatusBadGateway,
	}

	// ErrInvalidBox means the configured box URL does not resolve to a
	// real box on the portal. Classification: fatal.
	ErrInvalidBox = &Error{
		Code:       "INVALID_BOX",
		Message:    "the configured box could not be found",
		HTTPStatus: http.StatusBadRequest,
	}

	// ErrClassNotFound means no class exists at the reservation's
	// weekday/time on the target date. Classification: skip-week.
	ErrClassNotFound = &Error{
		Code:       "CLASS_NOT_FOUND",
		Message:    "no class scheduled at that day and time",
		HTTPStatus: http.StatusNotFound,
	}

	// ErrBookingWindowNotOpen means the class exists but its booking
	// window has not opened yet. Classification: retryable-logical.
	ErrBookingWindowNotOpen = &Error{
		Code:       "BOOKING_WINDOW_NOT_OPEN",
		Message:    "the booking window has not opened yet",
		HTTPStatus: http.StatusForbidden,
	}

	// ErrClassFull means the class is already at capacity.
	// Classification: retryable-logical.
	ErrClassFull = &Error{
		Code:       "CLASS_FULL",
		Message:    "the class is full",
		HTTPStatus: http.StatusConflict,
	}

	// ErrBookingLocked means another booking operation is in progress
	// on the portal side for this user/class. Classification:
	// retryable-logical, short fixed retry delay.
	ErrBookingLocked = &Error{
		Code:       "BOOKING_LOCKED",
		Message:    "the portal has this booking locked",
		HTTPStatus: http.StatusLocked,
	}

	// ErrBookingPenalty means the user is serving a no-show penalty
	// that blocks new bookings. Classification: retryable-logical.
	ErrBookingPenalty = &Error{
		Code:       "BOOKING_PENALTY",
		Message:    "the user has an active booking penalty",
		HTTPStatus: http.StatusForbidden,
	}

	// ErrBookingFailed is a catch-all booking rejection that doesn't
	// match a more specific case. Classification: skip-week.
	ErrBookingFailed = &Error{
		Code:       "BOOKING_FAILED",
		Message:    "the booking attempt failed",
		HTTPStatus: http.StatusUnprocessableEntity,
	}

	// ErrLoginFailed wraps any failure during the login handshake
	// not already covered above. Classification: fatal.
	ErrLoginFailed = &Error{
		Code:       "LOGIN_FAILED",
		Message:    "login to the portal failed",
		HTTPStatus: http.StatusUnauthorized,
	}
)
