package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_DefaultsMessageFromCatalog(t *testing.T) {
	e := New("res-1", time.Now(), KindBookingSuccess, "")
	assert.Equal(t, Messages[KindBookingSuccess], e.Message)
	assert.Equal(t, KindBookingSuccess, e.Kind)
	assert.Equal(t, "res-1", e.ReservationID)
}

func TestNew_KeepsExplicitMessage(t *testing.T) {
	e := New("res-1", time.Now(), KindBookingError, "custom message")
	assert.Equal(t, "custom message", e.Message)
}

func TestIgnoreWeekMessage(t *testing.T) {
	got := IgnoreWeekMessage(KindClassNotFound)
	assert.Equal(t, Messages[KindClassNotFound]+" Se reintentará la próxima semana.", got)
}

func TestEvent_DuplicatesLast(t *testing.T) {
	tests := []struct {
		name string
		last *Event
		this Event
		want bool
	}{
		{"nil last is never a duplicate", nil, Event{Message: "x"}, false},
		{"same message duplicates", &Event{Message: "x"}, Event{Message: "x"}, true},
		{"different message is not a duplicate", &Event{Message: "x"}, Event{Message: "y"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.this.DuplicatesLast(tt.last))
		})
	}
}
