package reservation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWeekdayLabel(t *testing.T) {
	tests := []struct {
		dow  Weekday
		want string
	}{
		{Sunday, "domingo"},
		{Monday, "lunes"},
		{Saturday, "sábado"},
	}

	for _, tt := range tests {
		r := Reservation{DOW: tt.dow}
		assert.Equal(t, tt.want, r.WeekdayLabel())
	}
}

func TestWeekdayToTime(t *testing.T) {
	tests := []struct {
		dow  Weekday
		want time.Weekday
	}{
		{Monday, time.Monday},
		{Tuesday, time.Tuesday},
		{Wednesday, time.Wednesday},
		{Thursday, time.Thursday},
		{Friday, time.Friday},
		{Saturday, time.Saturday},
		{Sunday, time.Sunday},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.dow.ToTime())
	}
}

func TestMarkBooked(t *testing.T) {
	r := Reservation{ErrorCount: 3}
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bookedAt := date.Add(time.Hour)

	got := r.MarkBooked(date, bookedAt)

	assert.Equal(t, 0, got.ErrorCount)
	assert.True(t, got.LastBookedDate.Equal(date))
	assert.True(t, got.BookedAt.Equal(bookedAt))
	// original is untouched
	assert.Equal(t, 3, r.ErrorCount)
	assert.Nil(t, r.LastBookedDate)
}

func TestIncrementAndResetErrors(t *testing.T) {
	r := Reservation{}
	r = r.IncrementErrors()
	r = r.IncrementErrors()
	assert.Equal(t, 2, r.ErrorCount)

	r = r.ResetErrors()
	assert.Equal(t, 0, r.ErrorCount)
}

func TestAlreadyBookedFor(t *testing.T) {
	target := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("nil LastBookedDate is never already booked", func(t *testing.T) {
		r := Reservation{}
		assert.False(t, r.AlreadyBookedFor(target))
	})

	t.Run("same calendar date matches regardless of time-of-day", func(t *testing.T) {
		booked := target.Add(18 * time.Hour)
		r := Reservation{LastBookedDate: &booked}
		assert.True(t, r.AlreadyBookedFor(target))
	})

	t.Run("different date does not match", func(t *testing.T) {
		booked := target.AddDate(0, 0, -7)
		r := Reservation{LastBookedDate: &booked}
		assert.False(t, r.AlreadyBookedFor(target))
	})
}
