// Package worker drives the per-Reservation booking state machine: it
// waits for the booking window, claims the seat, classifies failures
// into the retry categories defined by the portal's error taxonomy,
// and logs every state transition through the event writer.
package worker

import (
	"context"
	goerrors "errors"
	"time"

	"go.uber.org/zap"

	"wodbooker-go/internal/clock"
	"wodbooker-go/internal/domain/event"
	"wodbooker-go/internal/domain/reservation"
	"wodbooker-go/internal/domain/user"
	errorspkg "wodbooker-go/internal/errors"
	"wodbooker-go/internal/eventlog"
	"wodbooker-go/internal/portal"
	"wodbooker-go/internal/ratelimit"
	"wodbooker-go/internal/store/postgres"
)

const (
	// MaxErrors is the consecutive-transient-error budget before a
	// worker gives up entirely. Kept generous deliberately: a run of
	// penalizations or schedule-not-published windows shouldn't look
	// like a failing worker.
	MaxErrors = 500

	// MaxBookingAttempts bounds how many times ClassNotFound is retried
	// on a single target before the worker gives up on this week.
	MaxBookingAttempts = 20

	bookingRetryDelay  = 1 * time.Second
	bookingLockedDelay = 200 * time.Millisecond
	penaltySleep       = 10 * time.Second
)

// Deps bundles a Worker's collaborators so construction sites don't
// need a dozen positional arguments.
type Deps struct {
	Reservations *postgres.ReservationRepository
	Users        *postgres.UserRepository
	Events       *eventlog.Writer
	Limiter      *ratelimit.Coordinator
	Notifier     Notifier
	NewClient    func(ctx context.Context, u user.User) (*portal.Client, error)
	Clock        clock.Clock
	Logger       *zap.Logger
}

// Worker runs the booking loop for exactly one Reservation for as long
// as it is invoked; the Supervisor is responsible for the goroutine and
// cancellation lifecycle around Run.
type Worker struct {
	reservationID string
	deps          Deps
}

// New creates a Worker for the given reservation ID.
func New(reservationID string, deps Deps) *Worker {
	if deps.Clock == nil {
		deps.Clock = clock.Real{}
	}
	if deps.Notifier == nil {
		deps.Notifier = NoopNotifier{}
	}
	return &Worker{reservationID: reservationID, deps: deps}
}

// runState is the mutable state threaded through loop iterations -
// the Go equivalent of the original scraper's local variables captured
// across the body of its while loop.
type runState struct {
	waiter            Waiter
	target            *Target
	skipCurrentWeek   bool
	classFullNotified bool
	bookingAttempts   int
	client            *portal.Client

	// jitter is rolled once per worker run and reused at every
	// pre-portal-contact sleep, matching the original scraper's
	// sleep_milliseconds computed once before its while loop
	// (original_source/wodbooker/booker.py) rather than re-rolled on
	// each pass.
	jitter time.Duration
}

// Run executes the booking loop until ctx is cancelled, the reservation
// hits a fatal error, or MaxErrors consecutive transient failures
// accumulate. It never panics out to the caller: an unexpected error
// is logged and treated as the loop's terminal condition, so one
// reservation's bug cannot take down the Supervisor.
func (w *Worker) Run(ctx context.Context) {
	logger := w.deps.Logger.With(zap.String("reservation_id", w.reservationID))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("worker panicked, exiting", zap.Any("recover", r))
		}
	}()

	st := &runState{waiter: NullWaiter{}, jitter: ratelimit.Jitter(1 * time.Second)}

	for {
		if ctx.Err() != nil {
			return
		}

		res, err := w.deps.Reservations.Get(ctx, w.reservationID)
		if err != nil {
			logger.Error("failed to load reservation, exiting", zap.Error(err))
			return
		}
		if !res.IsActive {
			return
		}
		if res.ErrorCount >= MaxErrors {
			w.appendEvent(ctx, res, event.KindTooManyErrors, event.Messages[event.KindTooManyErrors])
			return
		}

		u, err := w.deps.Users.Get(ctx, res.UserID)
		if err != nil {
			logger.Error("failed to load user, exiting", zap.Error(err))
			return
		}

		fatal := w.runIteration(ctx, logger, st, res, u)
		if fatal {
			return
		}
	}
}

// runIteration runs one pass of the loop body: compute target, wait,
// attempt a claim, classify the result. Returns true when the worker
// should stop entirely.
func (w *Worker) runIteration(ctx context.Context, logger *zap.Logger, st *runState, res reservation.Reservation, u user.User) (fatal bool) {
	now := w.deps.Clock.Now()
	target := ComputeTarget(now, res)

	if st.target != nil && !st.target.ClassDateTime.Equal(target.ClassDateTime) {
		if _, ok := st.waiter.(NullWaiter); !ok {
			w.appendEvent(ctx, res, event.KindClassWaitingOver, event.Messages[event.KindClassWaitingOver])
		}
		st.waiter = NullWaiter{}
		st.classFullNotified = false
		st.bookingAttempts = 0
	} else if st.target != nil && st.target.ClassDateTime.Equal(target.ClassDateTime) && st.skipCurrentWeek {
		target.ClassDateTime = target.ClassDateTime.AddDate(0, 0, 7)
		target.WindowOpen = target.WindowOpen.AddDate(0, 0, 7)
		st.skipCurrentWeek = false
	}
	st.target = &target

	if _, ok := st.waiter.(NullWaiter); ok {
		st.waiter = NewTimeWaiter(target.WindowOpen, event.Messages[event.KindWaitUntilBookingOpen], w.emitWith(res, event.KindWaitUntilBookingOpen))
	}

	if err := st.waiter.Emit(ctx); err != nil {
		logger.Warn("failed to emit waiter event", zap.Error(err))
	}
	if outcome, err := st.waiter.Wait(ctx); err != nil || outcome == WaitCancelled {
		if ctx.Err() != nil || err == nil {
			return true
		}
		// A portal error while waiting on the event stream is classified
		// like a booking error; the waiter is kept and resumed next pass.
		return w.handleOutcome(ctx, logger, st, res, u, target, err)
	}
	st.waiter = NullWaiter{}

	time.Sleep(st.jitter)

	client, err := w.deps.NewClient(ctx, u)
	if err != nil {
		logger.Error("failed to build portal client, exiting", zap.Error(err))
		return true
	}
	st.client = client

	if err := w.deps.Limiter.AwaitClaimSlot(ctx, u.Email); err != nil {
		return true
	}

	bookErr := client.Book(ctx, res.URL, target.ClassDateTime)
	w.persistCookie(ctx, client, res.UserID)

	return w.handleOutcome(ctx, logger, st, res, u, target, bookErr)
}

func (w *Worker) handleOutcome(ctx context.Context, logger *zap.Logger, st *runState, res reservation.Reservation, u user.User, target Target, bookErr error) (fatal bool) {
	if bookErr == nil {
		w.handleSuccess(ctx, res, target, st)
		return false
	}

	var domainErr *errorspkg.Error
	if !goerrors.As(bookErr, &domainErr) {
		return w.handleTransient(ctx, res, bookErr)
	}

	switch domainErr.Code {
	case errorspkg.ErrBookingLocked.Code:
		time.Sleep(bookingLockedDelay)
		return false

	case errorspkg.ErrClassNotFound.Code:
		st.bookingAttempts++
		if st.bookingAttempts >= MaxBookingAttempts {
			st.skipCurrentWeek = true
			w.appendEvent(ctx, res, event.KindClassNotFound, event.IgnoreWeekMessage(event.KindClassNotFound))
		} else {
			time.Sleep(bookingRetryDelay)
		}
		return false

	case errorspkg.ErrBookingPenalty.Code:
		time.Sleep(penaltySleep + st.jitter)
		st.waiter = NewEventWaiter(st.client, res.URL, target.ClassDateTime, []string{"changedBooking"}, target.ClassDateTime, event.Messages[event.KindBookingPenalty], w.emitWith(res, event.KindBookingPenalty))
		return false

	case errorspkg.ErrBookingFailed.Code:
		st.skipCurrentWeek = true
		w.appendEvent(ctx, res, event.KindBookingError, event.IgnoreWeekMessage(event.KindBookingError))
		_ = w.deps.Notifier.NotifyBookingFailure(ctx, res, domainErr.Message)
		return false

	case errorspkg.ErrClassFull.Code:
		st.waiter = NewEventWaiter(st.client, res.URL, target.ClassDateTime, []string{"changedBooking"}, target.ClassDateTime, event.Messages[event.KindClassFull], w.emitWith(res, event.KindClassFull))
		st.classFullNotified = true
		return false

	case errorspkg.ErrBookingWindowNotOpen.Code:
		if at, ok := domainErr.Details["at"].(time.Time); ok {
			st.waiter = NewTimeWaiter(at, event.Messages[event.KindWaitUntilBookingOpen], w.emitWith(res, event.KindWaitUntilBookingOpen))
		} else {
			st.waiter = NewEventWaiter(st.client, res.URL, target.ClassDateTime, []string{"changedPizarra", "changedBooking"}, target.ClassDateTime, event.Messages[event.KindWaitClassLoaded], w.emitWith(res, event.KindWaitClassLoaded))
		}
		return false

	case errorspkg.ErrPasswordRequired.Code, errorspkg.ErrInvalidCredentials.Code:
		_ = w.deps.Users.RequirePassword(ctx, res.UserID)
		kind := event.KindPasswordRequired
		if domainErr.Code == errorspkg.ErrInvalidCredentials.Code {
			kind = event.KindLoginError
		}
		w.appendEvent(ctx, res, kind, "")
		return true

	case errorspkg.ErrInvalidBox.Code:
		w.appendEvent(ctx, res, event.KindInvalidBox, "")
		return true

	default:
		return w.handleTransient(ctx, res, bookErr)
	}
}

func (w *Worker) handleTransient(ctx context.Context, res reservation.Reservation, err error) (fatal bool) {
	updated := res.IncrementErrors()
	_ = w.deps.Reservations.Update(ctx, updated)

	sleepFor := time.Duration(updated.ErrorCount) * 60 * time.Second
	until := w.deps.Clock.Now().Add(sleepFor)

	if updated.ErrorCount == 1 {
		w.appendEvent(ctx, res, event.KindBookingError, event.Messages[event.KindBookingError])
		_ = w.deps.Notifier.NotifyBookingFailure(ctx, res, err.Error())
	}

	sleepCtx(ctx, sleepableUntil(until))
	return false
}

func (w *Worker) handleSuccess(ctx context.Context, res reservation.Reservation, target Target, st *runState) {
	now := w.deps.Clock.Now()
	wasRecovery := res.ErrorCount > 0 || st.classFullNotified

	updated := res.MarkBooked(target.ClassDateTime, now)
	if err := w.deps.Reservations.Update(ctx, updated); err != nil {
		w.deps.Logger.Error("failed to persist booking success", zap.Error(err))
	}

	w.appendEvent(ctx, res, event.KindBookingSuccess, "")
	_ = w.deps.Notifier.NotifyBookingSuccess(ctx, updated, wasRecovery)

	st.classFullNotified = false
	st.bookingAttempts = 0
}

func (w *Worker) persistCookie(ctx context.Context, client *portal.Client, userID string) {
	blob, err := client.Cookies()
	if err != nil {
		return
	}
	_ = w.deps.Users.UpdateCookie(ctx, userID, string(blob))
}

func (w *Worker) appendEvent(ctx context.Context, res reservation.Reservation, kind event.Kind, message string) {
	if err := w.deps.Events.Append(ctx, res.ID, w.deps.Clock.Now(), kind, message); err != nil {
		w.deps.Logger.Warn("failed to append event", zap.Error(err), zap.String("kind", string(kind)))
	}
}

func (w *Worker) emitWith(res reservation.Reservation, kind event.Kind) func(context.Context, string) error {
	return func(ctx context.Context, message string) error {
		return w.deps.Events.Append(ctx, res.ID, w.deps.Clock.Now(), kind, message)
	}
}

func sleepableUntil(until time.Time) time.Duration {
	d := until.Sub(time.Now())
	if d < 0 {
		return 0
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
