package worker

import (
	"strconv"
	"strings"
	"time"

	"wodbooker-go/internal/clock"
	"wodbooker-go/internal/domain/reservation"
)

// Target is the resolved (candidate class datetime, booking window
// open instant) pair a worker iteration is currently driving toward.
type Target struct {
	ClassDateTime time.Time
	WindowOpen    time.Time
}

// ComputeTarget implements the target-date selection rule: the next
// occurrence of the reservation's weekday on/after lastBookedDate+1 (or
// today, if never booked), rolled forward a week if that occurrence's
// local time has already passed.
func ComputeTarget(now time.Time, res reservation.Reservation) Target {
	base := now
	if res.LastBookedDate != nil {
		base = res.LastBookedDate.AddDate(0, 0, 1)
	}

	candidate := clock.NextDateForWeekday(base, res.DOW.ToTime())
	hour, minute := parseHHMM(res.LocalTime)
	classDateTime := clock.DateTimeToBook(candidate, hour, minute)

	if clock.IsExpired(now, classDateTime) {
		candidate = clock.NextDateForWeekday(now.AddDate(0, 0, 1), res.DOW.ToTime())
		classDateTime = clock.DateTimeToBook(candidate, hour, minute)
	}

	windowDate := candidate.AddDate(0, 0, -res.WindowOpenOffsetDays)
	wHour, wMinute := parseHHMM(res.WindowOpenLocalTime)
	windowOpen := clock.DateTimeToBook(windowDate, wHour, wMinute)

	return Target{ClassDateTime: classDateTime, WindowOpen: windowOpen}
}

// parseHHMM parses a "HH:MM" string, defaulting to midnight on any
// malformed input rather than panicking - reservation rows are
// validated at write time by the store layer.
func parseHHMM(s string) (hour, minute int) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	hour, _ = strconv.Atoi(parts[0])
	minute, _ = strconv.Atoi(parts[1])
	return hour, minute
}
