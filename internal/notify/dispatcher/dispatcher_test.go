package dispatcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"wodbooker-go/internal/clock"
	"wodbooker-go/internal/domain/portalbooking"
	"wodbooker-go/internal/eventbus"
)

func TestPushMessageFor(t *testing.T) {
	t.Run("success outcome", func(t *testing.T) {
		msg := pushMessageFor(eventbus.BookingOutcome{
			ReservationID: "res-1",
			Success:       true,
			WeekdayLabel:  "lunes",
			LocalTime:     "18:00",
		})
		assert.Equal(t, "¡Reserva realizada!", msg.Title)
		assert.Contains(t, msg.Body, "lunes")
		assert.Contains(t, msg.Body, "18:00")
		assert.Equal(t, true, msg.Data["success"])
	})

	t.Run("failure outcome includes reason", func(t *testing.T) {
		msg := pushMessageFor(eventbus.BookingOutcome{
			Success:      false,
			WeekdayLabel: "martes",
			LocalTime:    "09:00",
			Reason:       "class full",
		})
		assert.Equal(t, "No se pudo reservar", msg.Title)
		assert.Contains(t, msg.Body, "class full")
		assert.Equal(t, false, msg.Data["success"])
	})
}

func TestCombineDateTime(t *testing.T) {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, clock.Location)

	t.Run("valid HH:MM parses", func(t *testing.T) {
		got, ok := combineDateTime(portalbooking.PortalBooking{ClassDate: date, ClassTime: "18:30"})
		assert.True(t, ok)
		want := time.Date(2024, 3, 1, 18, 30, 0, 0, clock.Location)
		assert.True(t, want.Equal(got))
	})

	t.Run("malformed time is rejected", func(t *testing.T) {
		_, ok := combineDateTime(portalbooking.PortalBooking{ClassDate: date, ClassTime: "not-a-time"})
		assert.False(t, ok)
	})
}
