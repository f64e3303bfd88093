package portal

import (
	"context"
	"time"

	errorspkg "wodbooker-go/internal/errors"
)

// ObservedBooking is one class the portal reports as already claimed
// for the athlete on a given day.
type ObservedBooking struct {
	ClassID   int64
	ClassTime string
}

// SyncObservedBookings lists the classes the portal shows as booked
// for boxURL on date, used by the weekly reconciliation synchronizer.
// It reuses LoadDaySchedule and filters to entries in the "Borrable"
// (already-booked) state, the same signal Book uses to short-circuit.
func (c *Client) SyncObservedBookings(ctx context.Context, boxURL string, date time.Time) ([]ObservedBooking, error) {
	if err := c.Login(ctx); err != nil {
		return nil, err
	}

	sched, _, err := c.LoadDaySchedule(ctx, boxURL, date)
	if err != nil {
		return nil, err
	}

	var out []ObservedBooking
	for _, entry := range sched.Data {
		for _, slot := range entry.Valores {
			if slot.TipoEstado != classStatusBorrable {
				continue
			}
			out = append(out, ObservedBooking{
				ClassID:   slot.Valor.ID,
				ClassTime: entry.Hora,
			})
		}
	}
	return out, nil
}

// BoxURL resolves the single box URL associated with the logged-in
// user via the same roadtobox.aspx redirect login() uses to detect
// session expiry. Used by the synchronizer's box-discovery fallback
// when none of the user's Reservations carries a box URL.
func (c *Client) BoxURL(ctx context.Context) (string, error) {
	if err := c.Login(ctx); err != nil {
		return "", err
	}

	req, err := c.newRequest(ctx, "GET", portalRoot+"/account/roadtobox.aspx")
	if err != nil {
		return "", errorspkg.ErrTransientPortal.Wrap(err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errorspkg.ErrTransientPortal.Wrap(err)
	}
	defer resp.Body.Close()

	location := resp.Header.Get("Location")
	if location == "" {
		return "", errorspkg.ErrUnparseableResponse
	}
	if idx := indexOf(location, "/user"); idx >= 0 {
		return location[:idx], nil
	}
	return "", errorspkg.ErrUnparseableResponse
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
