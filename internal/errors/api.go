package errors

import "net/http"

// Sentinels used by the admin HTTP API (SPEC_FULL §6), distinct from
// the portal-facing ones in booking.go: these classify requester
// mistakes rather than portal/booking outcomes.
var (
	// ErrInvalidInput means the request body or parameters failed
	// validation.
	ErrInvalidInput = &Error{
		Code:       "INVALID_INPUT",
		Message:    "the request was malformed",
		HTTPStatus: http.StatusBadRequest,
	}

	// ErrNotFound means the referenced resource does not exist.
	ErrNotFound = &Error{
		Code:       "NOT_FOUND",
		Message:    "resource not found",
		HTTPStatus: http.StatusNotFound,
	}

	// ErrUnauthorized means the request lacked valid credentials.
	ErrUnauthorized = &Error{
		Code:       "UNAUTHORIZED",
		Message:    "authentication required",
		HTTPStatus: http.StatusUnauthorized,
	}
)
