package worker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"wodbooker-go/internal/clock"
	"wodbooker-go/internal/domain/reservation"
)

func TestComputeTarget_NeverBooked(t *testing.T) {
	// 2024-01-01 is a Monday.
	now := time.Date(2024, 1, 1, 8, 0, 0, 0, clock.Location)
	res := reservation.Reservation{
		DOW:                  reservation.Wednesday,
		LocalTime:            "18:00",
		WindowOpenOffsetDays: 7,
		WindowOpenLocalTime:  "08:00",
	}

	target := ComputeTarget(now, res)

	want := time.Date(2024, 1, 3, 18, 0, 0, 0, clock.Location)
	assert.True(t, want.Equal(target.ClassDateTime))

	wantWindow := time.Date(2023, 12, 27, 8, 0, 0, 0, clock.Location)
	assert.True(t, wantWindow.Equal(target.WindowOpen))
}

func TestComputeTarget_RollsForwardOncePassed(t *testing.T) {
	// Wednesday 19:00, after the 18:00 class that day has already happened.
	now := time.Date(2024, 1, 3, 19, 0, 0, 0, clock.Location)
	res := reservation.Reservation{
		DOW:       reservation.Wednesday,
		LocalTime: "18:00",
	}

	target := ComputeTarget(now, res)

	want := time.Date(2024, 1, 10, 18, 0, 0, 0, clock.Location)
	assert.True(t, want.Equal(target.ClassDateTime))
}

func TestComputeTarget_AdvancesFromLastBookedDate(t *testing.T) {
	now := time.Date(2024, 1, 2, 8, 0, 0, 0, clock.Location)
	lastBooked := time.Date(2024, 1, 3, 0, 0, 0, 0, clock.Location)
	res := reservation.Reservation{
		DOW:            reservation.Wednesday,
		LocalTime:      "18:00",
		LastBookedDate: &lastBooked,
	}

	target := ComputeTarget(now, res)

	want := time.Date(2024, 1, 10, 18, 0, 0, 0, clock.Location)
	assert.True(t, want.Equal(target.ClassDateTime))
}

func TestComputeTarget_MalformedTimeDefaultsToMidnight(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, clock.Location)
	res := reservation.Reservation{
		DOW:       reservation.Monday,
		LocalTime: "garbage",
	}

	target := ComputeTarget(now, res)
	assert.Equal(t, 0, target.ClassDateTime.Hour())
	assert.Equal(t, 0, target.ClassDateTime.Minute())
}
