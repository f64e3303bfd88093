package worker

import (
	"context"
	"time"

	"wodbooker-go/internal/clock"
	"wodbooker-go/internal/portal"
)

// WaitOutcome is what a Waiter's blocking wait resolved to.
type WaitOutcome int

const (
	// WaitDone means the wait is over: the clock reached its target, or
	// the awaited portal event fired. EventWaiter also returns WaitDone
	// when its deadline passes without a matching event; no separate
	// outcome tells the two apart.
	WaitDone WaitOutcome = iota
	// WaitCancelled means the wait ended early: the worker's stop signal
	// fired mid-wait, or (for EventWaiter) the portal returned an error,
	// which is returned alongside.
	WaitCancelled
)

// Waiter encapsulates one blocking wait the worker can be in. Emit is
// called exactly once, before the first blocking Wait call, so the
// event log shows progress before the worker goes quiet.
type Waiter interface {
	Emit(ctx context.Context) error
	Wait(ctx context.Context) (WaitOutcome, error)
}

// NullWaiter is the "nothing to wait for" state: Wait returns
// immediately. It exists so the worker's loop never needs a nil check
// for "no waiter set".
type NullWaiter struct{}

// Emit is a no-op.
func (NullWaiter) Emit(ctx context.Context) error { return nil }

// Wait returns immediately.
func (NullWaiter) Wait(ctx context.Context) (WaitOutcome, error) { return WaitDone, nil }

// TimeWaiter blocks until a fixed instant in Europe/Madrid time.
type TimeWaiter struct {
	Until   time.Time
	Message string
	emit    func(ctx context.Context, message string) error
}

// NewTimeWaiter creates a TimeWaiter that reports through emit.
func NewTimeWaiter(until time.Time, message string, emit func(ctx context.Context, message string) error) *TimeWaiter {
	return &TimeWaiter{Until: until, Message: message, emit: emit}
}

// Emit logs the waiter's message once.
func (w *TimeWaiter) Emit(ctx context.Context) error {
	return w.emit(ctx, w.Message)
}

// Wait sleeps until w.Until, or returns WaitCancelled if ctx ends first.
func (w *TimeWaiter) Wait(ctx context.Context) (WaitOutcome, error) {
	d := w.Until.Sub(time.Now().In(clock.Location))
	if d <= 0 {
		return WaitDone, nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return WaitDone, nil
	case <-ctx.Done():
		return WaitCancelled, ctx.Err()
	}
}

// EventWaiter blocks on the portal's live-event SSE stream until one of
// a set of named events arrives or a deadline passes.
type EventWaiter struct {
	Client     *portal.Client
	BoxURL     string
	ClassDate  time.Time
	EventNames map[string]struct{}
	Deadline   time.Time
	Message    string
	emit       func(ctx context.Context, message string) error
}

// NewEventWaiter creates an EventWaiter that reports through emit.
func NewEventWaiter(client *portal.Client, boxURL string, classDate time.Time, eventNames []string, deadline time.Time, message string, emit func(ctx context.Context, message string) error) *EventWaiter {
	set := make(map[string]struct{}, len(eventNames))
	for _, n := range eventNames {
		set[n] = struct{}{}
	}
	return &EventWaiter{
		Client:     client,
		BoxURL:     boxURL,
		ClassDate:  classDate,
		EventNames: set,
		Deadline:   deadline,
		Message:    message,
		emit:       emit,
	}
}

// Emit logs the waiter's message once.
func (w *EventWaiter) Emit(ctx context.Context) error {
	return w.emit(ctx, w.Message)
}

// Wait opens the SSE stream and blocks until a matching event or the
// deadline, deferring the connection/reconnection mechanics to the
// portal client.
func (w *EventWaiter) Wait(ctx context.Context) (WaitOutcome, error) {
	outcome, err := w.Client.WaitForEvent(ctx, w.BoxURL, w.ClassDate, w.EventNames, w.Deadline)
	if err != nil {
		return WaitCancelled, err
	}
	if outcome == portal.WaitMatched {
		return WaitDone, nil
	}
	return WaitDone, nil
}
