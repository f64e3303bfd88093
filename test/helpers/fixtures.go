package helpers

import "time"

// Common test IDs
const (
	TestUserID        = "test-user-123"
	TestReservationID = "test-reservation-123"
	TestPortalBookingID = "test-portal-booking-123"
)

// Common test emails
const (
	TestUserEmail  = "athlete@example.com"
	TestAdminEmail = "admin@example.com"
)

// TestBoxURL returns a stable portal class URL for testing.
func TestBoxURL() string {
	return "https://wodbuster.com/box/crossfit-example/clases.aspx"
}

// FutureTime returns a time in the future
func FutureTime(days int) time.Time {
	return time.Now().Add(time.Duration(days) * 24 * time.Hour)
}

// PastTime returns a time in the past
func PastTime(days int) time.Time {
	return time.Now().Add(-time.Duration(days) * 24 * time.Hour)
}

// StringPtr returns a pointer to a string
func StringPtr(s string) *string {
	return &s
}

// IntPtr returns a pointer to an int
func IntPtr(i int) *int {
	return &i
}

// Int64Ptr returns a pointer to an int64
func Int64Ptr(i int64) *int64 {
	return &i
}

// TimePtr returns a pointer to a time
func TimePtr(t time.Time) *time.Time {
	return &t
}

// BoolPtr returns a pointer to a bool
func BoolPtr(b bool) *bool {
	return &b
}
