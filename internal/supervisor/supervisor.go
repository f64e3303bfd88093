// Package supervisor owns the booking worker lifecycle: one goroutine
// per active Reservation, started at process boot and whenever a
// Reservation is created or (re)activated, stopped on deactivation,
// update, or delete (SPEC_FULL §4.7).
package supervisor

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"wodbooker-go/internal/clock"
	"wodbooker-go/internal/domain/event"
	"wodbooker-go/internal/domain/reservation"
	"wodbooker-go/internal/eventlog"
	"wodbooker-go/internal/ratelimit"
	"wodbooker-go/internal/store/postgres"
	"wodbooker-go/internal/worker"
)

// runningWorker bundles a worker's cancellation and completion
// signal so Stop can wait for the goroutine to actually exit before
// returning.
type runningWorker struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Supervisor tracks the set of running workers, keyed by reservation
// ID, and starts/stops them in response to Reservation lifecycle
// events.
type Supervisor struct {
	deps    worker.Deps
	limiter *ratelimit.Coordinator
	users   *postgres.UserRepository
	events  *eventlog.Writer
	logger  *zap.Logger

	mu      sync.Mutex
	workers map[string]*runningWorker
}

// New creates a Supervisor. deps is the template Deps passed to every
// worker.New call; only the reservation ID varies per worker.
func New(deps worker.Deps, limiter *ratelimit.Coordinator, users *postgres.UserRepository, events *eventlog.Writer, logger *zap.Logger) *Supervisor {
	if deps.Clock == nil {
		deps.Clock = clock.Real{}
	}
	return &Supervisor{
		deps:    deps,
		limiter: limiter,
		users:   users,
		events:  events,
		logger:  logger,
		workers: make(map[string]*runningWorker),
	}
}

// StartAll loads every active Reservation and starts a worker for
// each, called once at process boot.
func (s *Supervisor) StartAll(ctx context.Context, reservations []reservation.Reservation, emails map[string]string) {
	for _, res := range reservations {
		s.Start(ctx, res, emails[res.UserID])
	}
}

// Start begins a worker for res unless one is already running or the
// owning user is excluded by a configured whitelist, in which case it
// records a WHITELIST_REJECTED event and returns without starting
// anything.
func (s *Supervisor) Start(ctx context.Context, res reservation.Reservation, userEmail string) {
	if !res.IsActive {
		return
	}

	if !s.limiter.IsWhitelisted(userEmail) {
		s.appendEvent(ctx, res.ID, event.KindWhitelistRejected, "")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, running := s.workers[res.ID]; running {
		return
	}

	workerCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.workers[res.ID] = &runningWorker{cancel: cancel, done: done}

	w := worker.New(res.ID, s.deps)
	go func() {
		defer close(done)
		w.Run(workerCtx)
	}()
}

// Stop cancels the worker for reservationID, if one is running, and
// blocks until it has exited. Safe to call when no worker is running.
func (s *Supervisor) Stop(reservationID string) {
	s.mu.Lock()
	rw, running := s.workers[reservationID]
	if running {
		delete(s.workers, reservationID)
	}
	s.mu.Unlock()

	if !running {
		return
	}
	rw.cancel()
	<-rw.done
}

// Restart stops the current worker for res (if any) and starts a new
// one if res is still active - the response to a Reservation update.
func (s *Supervisor) Restart(ctx context.Context, res reservation.Reservation, userEmail string) {
	s.Stop(res.ID)
	if res.IsActive {
		s.Start(ctx, res, userEmail)
	}
}

// Pause stops the worker for reservationID and records a PAUSED
// event - the response to a Reservation deactivation.
func (s *Supervisor) Pause(ctx context.Context, reservationID string) {
	s.Stop(reservationID)
	s.appendEvent(ctx, reservationID, event.KindPaused, "")
}

// Remove stops the worker for reservationID - the response to a
// Reservation delete. Event cascade-delete is handled by the store's
// foreign key, not here.
func (s *Supervisor) Remove(reservationID string) {
	s.Stop(reservationID)
}

// ShutdownAll stops every running worker, used during graceful
// process shutdown.
func (s *Supervisor) ShutdownAll() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.workers))
	for id := range s.workers {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.Stop(id)
	}
}

func (s *Supervisor) appendEvent(ctx context.Context, reservationID string, kind event.Kind, message string) {
	if err := s.events.Append(ctx, reservationID, s.deps.Clock.Now(), kind, message); err != nil {
		s.logger.Warn("supervisor: failed to append event", zap.Error(err), zap.String("reservation_id", reservationID))
	}
}
