package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextDateForWeekday(t *testing.T) {
	// 2024-01-01 is a Monday.
	monday := time.Date(2024, 1, 1, 10, 0, 0, 0, Location)

	tests := []struct {
		name string
		from time.Time
		dow  time.Weekday
		want time.Time
	}{
		{"same weekday returns from's own date", monday, time.Monday, time.Date(2024, 1, 1, 0, 0, 0, 0, Location)},
		{"later in the week", monday, time.Wednesday, time.Date(2024, 1, 3, 0, 0, 0, 0, Location)},
		{"wraps to next week", monday, time.Sunday, time.Date(2024, 1, 7, 0, 0, 0, 0, Location)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextDateForWeekday(tt.from, tt.dow)
			assert.True(t, tt.want.Equal(got), "want %v, got %v", tt.want, got)
		})
	}
}

func TestDateTimeToBook(t *testing.T) {
	date := time.Date(2024, 3, 15, 23, 59, 0, 0, Location)
	got := DateTimeToBook(date, 18, 30)
	want := time.Date(2024, 3, 15, 18, 30, 0, 0, Location)
	assert.True(t, want.Equal(got))
}

func TestStartOfDay(t *testing.T) {
	at := time.Date(2024, 6, 10, 14, 23, 5, 0, Location)
	got := StartOfDay(at)
	want := time.Date(2024, 6, 10, 0, 0, 0, 0, Location)
	assert.True(t, want.Equal(got))
}

func TestIsExpired(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, Location)
	assert.True(t, IsExpired(now, now.Add(-time.Minute)))
	assert.False(t, IsExpired(now, now.Add(time.Minute)))
	assert.False(t, IsExpired(now, now))
}

func TestWeekStart(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want time.Time
	}{
		{"monday is its own week start", time.Date(2024, 1, 1, 9, 0, 0, 0, Location), time.Date(2024, 1, 1, 0, 0, 0, 0, Location)},
		{"wednesday rolls back to monday", time.Date(2024, 1, 3, 9, 0, 0, 0, Location), time.Date(2024, 1, 1, 0, 0, 0, 0, Location)},
		{"sunday rolls back to monday", time.Date(2024, 1, 7, 23, 0, 0, 0, Location), time.Date(2024, 1, 1, 0, 0, 0, 0, Location)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WeekStart(tt.at)
			assert.True(t, tt.want.Equal(got), "want %v, got %v", tt.want, got)
		})
	}
}

func TestUTCMidnightEpoch(t *testing.T) {
	at := time.Date(2024, 1, 1, 15, 0, 0, 0, Location)
	got := UTCMidnightEpoch(at)
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Unix()
	assert.Equal(t, want, got)
}

func TestFixedClock(t *testing.T) {
	at := time.Date(2024, 5, 5, 5, 5, 0, 0, time.UTC)
	f := Fixed{At: at}
	assert.True(t, f.Now().Equal(at))
}
