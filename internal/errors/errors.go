// Package errors provides a tagged domain error type used across the
// booking worker subsystem so callers can dispatch on error identity
// with errors.Is instead of parsing message strings.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a domain error with additional context.
type Error struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	HTTPStatus int                    `json:"-"`
	Err        error                  `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap implements the unwrap interface for error chaining.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements error comparison for errors.Is, matching by Code so a
// wrapped sentinel still compares equal to the bare sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetails returns a copy of e with the given detail set, leaving e
// itself untouched. Callers frequently invoke this directly on a
// package-level sentinel (e.g. ErrInvalidInput.WithDetails(...)), so
// mutating in place would race across concurrent requests and leak
// details from one call site into another.
func (e *Error) WithDetails(key string, value interface{}) *Error {
	details := make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &Error{
		Code:       e.Code,
		Message:    e.Message,
		HTTPStatus: e.HTTPStatus,
		Err:        e.Err,
		Details:    details,
	}
}

// Wrap returns a copy of this sentinel carrying the given underlying
// error, preserving Code/Message/HTTPStatus so errors.Is(result, e)
// still holds.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		Code:       e.Code,
		Message:    e.Message,
		HTTPStatus: e.HTTPStatus,
		Err:        err,
		Details:    e.Details,
	}
}

// New creates a new domain error.
func New(code, message string, httpStatus int) *Error {
	return &Error{Code: code, Message: message, HTTPStatus: httpStatus}
}

// Is delegates to the standard library.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As delegates to the standard library.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// GetHTTPStatus extracts the HTTP status from err, defaulting to 500.
func GetHTTPStatus(err error) int {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.HTTPStatus
	}
	return http.StatusInternalServerError
}
