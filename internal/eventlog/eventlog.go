// Package eventlog wraps the Event repository with the
// dedup-against-previous rule so every call site gets it for free
// instead of re-checking the last row itself.
package eventlog

import (
	"context"
	"time"

	"wodbooker-go/internal/domain/event"
	"wodbooker-go/internal/store/postgres"
)

// mirror is the subset of analytics.Mirror the event log depends on,
// kept as a local interface so eventlog never imports the analytics
// package (and its ClickHouse driver) when the mirror is disabled.
type mirror interface {
	RecordEvent(ctx context.Context, e event.Event)
}

// Writer appends Events, skipping inserts that would duplicate the
// immediately previous row for the same reservation.
type Writer struct {
	repo   *postgres.EventRepository
	mirror mirror
}

// New creates a Writer over the given repository.
func New(repo *postgres.EventRepository) *Writer {
	return &Writer{repo: repo}
}

// WithMirror attaches an analytics mirror: every successful append is
// also fire-and-forgotten into ClickHouse. Pass nil to disable.
func (w *Writer) WithMirror(m mirror) *Writer {
	w.mirror = m
	return w
}

// Append inserts a new event for reservationID unless it is an exact
// repeat of the most recent one. The commit happens synchronously so a
// UI reader sees the row before the caller moves on to any blocking
// wait.
func (w *Writer) Append(ctx context.Context, reservationID string, bookingDate time.Time, kind event.Kind, message string) error {
	last, err := w.repo.Last(ctx, reservationID)
	if err != nil {
		return err
	}

	e := event.New(reservationID, bookingDate, kind, message)
	if e.DuplicatesLast(last) {
		return nil
	}

	id, err := w.repo.Append(ctx, e)
	if err != nil {
		return err
	}

	if w.mirror != nil {
		e.ID = id
		e.CreatedAt = time.Now()
		w.mirror.RecordEvent(ctx, e)
	}
	return nil
}
