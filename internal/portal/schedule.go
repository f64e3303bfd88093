package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"wodbooker-go/internal/clock"
	errorspkg "wodbooker-go/internal/errors"
)

// LoadDaySchedule fetches the class list for boxURL on the given date
// and returns the raw schedule plus the UTC-midnight epoch the portal
// keys it by. Results pass through the box cache first.
func (c *Client) LoadDaySchedule(ctx context.Context, boxURL string, date time.Time) (scheduleResponse, int64, error) {
	epoch := clock.UTCMidnightEpoch(date)

	if c.boxes != nil {
		if raw, ok := c.boxes.GetSchedule(ctx, boxURL, epoch); ok {
			var sched scheduleResponse
			if err := json.Unmarshal(raw, &sched); err == nil {
				return sched, epoch, nil
			}
		}
	}

	if err := c.Login(ctx); err != nil {
		return scheduleResponse{}, epoch, err
	}

	raw, err := c.boxRequest(ctx, fmt.Sprintf("%s/athlete/handlers/LoadClass.ashx?ticks=%d", boxURL, epoch))
	if err != nil {
		return scheduleResponse{}, epoch, err
	}

	var sched scheduleResponse
	if err := json.Unmarshal(raw, &sched); err != nil {
		return scheduleResponse{}, epoch, errorspkg.ErrUnparseableResponse.Wrap(err)
	}

	if c.boxes != nil {
		c.boxes.SetSchedule(ctx, boxURL, epoch, raw)
	}

	return sched, epoch, nil
}

// Book attempts to claim the seat whose displayed Hora matches
// whenDateTime's HH:MM:SS, following the edge-case ordering the portal
// requires: unpublished window, already booked, full, claim, not found.
func (c *Client) Book(ctx context.Context, boxURL string, whenDateTime time.Time) error {
	if err := c.Login(ctx); err != nil {
		return err
	}

	sched, epoch, err := c.LoadDaySchedule(ctx, boxURL, whenDateTime)
	if err != nil {
		return err
	}

	hour := whenDateTime.In(clock.Location).Format("15:04:05")

	if len(sched.Data) == 0 {
		return windowNotOpenError(sched.PrimeraHoraPublicacion)
	}

	for _, entry := range sched.Data {
		if entry.Hora != hour {
			continue
		}
		if len(entry.Valores) == 0 {
			return errorspkg.ErrUnparseableResponse
		}
		slot := entry.Valores[0]

		if slot.TipoEstado == classStatusBorrable {
			return nil
		}

		if len(slot.Valor.AtletasEntrenando) >= slot.Valor.Plazas {
			return errorspkg.ErrClassFull
		}

		endpoint := "Calendario_Inscribir.ashx"
		if slot.TipoEstado == classStatusCambiable {
			endpoint = "Calendario_Mover.ashx"
		}

		result, status, err := c.claimSeat(ctx, boxURL, endpoint, slot.Valor.ID, epoch)
		if err != nil {
			return err
		}
		if status >= 400 && status < 500 && !result.Res.EsCorrecto && result.Res.ErrorMsg == "" {
			return errorspkg.ErrBookingLocked
		}
		if result.Res.EsCorrecto {
			if c.boxes != nil {
				c.boxes.InvalidateSchedule(ctx, boxURL, epoch)
			}
			return nil
		}
		if strings.Contains(strings.ToLower(result.Res.ErrorMsg), penaltyMarker) {
			e := *errorspkg.ErrBookingPenalty
			e.Details = map[string]interface{}{"reason": result.Res.ErrorMsg}
			return &e
		}
		e := *errorspkg.ErrBookingFailed
		e.Details = map[string]interface{}{"reason": result.Res.ErrorMsg}
		return &e
	}

	return errorspkg.ErrClassNotFound
}

func windowNotOpenError(primeraHora string) error {
	e := *errorspkg.ErrBookingWindowNotOpen
	if primeraHora == "" {
		return &e
	}
	at, err := time.ParseInLocation("01/02/2006 15:04:05", primeraHora, clock.Location)
	if err != nil {
		return &e
	}
	e.Details = map[string]interface{}{"at": at}
	return &e
}

func (c *Client) claimSeat(ctx context.Context, boxURL, endpoint string, classID, epoch int64) (bookResponse, int, error) {
	url := fmt.Sprintf("%s/athlete/handlers/%s?id=%d&ticks=%d", boxURL, endpoint, classID, epoch)

	req, err := c.newRequest(ctx, http.MethodGet, url)
	if err != nil {
		return bookResponse{}, 0, errorspkg.ErrTransientPortal.Wrap(err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return bookResponse{}, 0, errorspkg.ErrTransientPortal.Wrap(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return bookResponse{}, resp.StatusCode, errorspkg.ErrTransientPortal.Wrap(err)
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 && strings.Contains(strings.ToLower(string(data)), bookingLockedMarker) {
		return bookResponse{}, resp.StatusCode, nil
	}

	var result bookResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return bookResponse{}, resp.StatusCode, errorspkg.ErrUnparseableResponse.Wrap(err)
	}
	return result, resp.StatusCode, nil
}

// boxRequest performs the GET-with-302-detection dance used by
// LoadClass.ashx (claimSeat builds its own request): a redirect to a
// login URL means the user lacks access to this box.
func (c *Client) boxRequest(ctx context.Context, url string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, url)
	if err != nil {
		return nil, errorspkg.ErrTransientPortal.Wrap(err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errorspkg.ErrTransientPortal.Wrap(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusFound && strings.Contains(resp.Header.Get("Location"), "login") {
		return nil, errorspkg.ErrInvalidBox
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errorspkg.ErrUnparseableResponse
	}

	return io.ReadAll(resp.Body)
}
