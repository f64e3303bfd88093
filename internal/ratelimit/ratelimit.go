// Package ratelimit gates every seat-claim submission across all
// workers in the process through a single minimum-interval mutex, and
// applies the priority/whitelist policy configured for the deployment.
package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

const (
	// defaultInterval is the minimum spacing enforced between any two
	// book() calls anywhere in the process.
	defaultInterval = 500 * time.Millisecond

	// nonPriorityPreBookDelay is the extra per-worker sleep a
	// non-priority user's worker takes before entering the global gate.
	nonPriorityPreBookDelay = 1 * time.Second
)

// Coordinator enforces the cross-worker claim-rate limit and the
// priority/whitelist policy. One instance is shared by every worker in
// the process.
type Coordinator struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time

	priority  map[string]struct{}
	whitelist map[string]struct{}
	whitelistEnabled bool
}

// New creates a Coordinator. interval <= 0 falls back to the 500ms
// default. priorityEmails and whitelistEmails are the configured
// space-separated sets, already split.
func New(interval time.Duration, priorityEmails, whitelistEmails []string) *Coordinator {
	if interval <= 0 {
		interval = defaultInterval
	}

	c := &Coordinator{
		interval:  interval,
		priority:  toSet(priorityEmails),
		whitelist: toSet(whitelistEmails),
	}
	c.whitelistEnabled = len(whitelistEmails) > 0
	return c
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

// IsWhitelisted reports whether email is allowed to run a worker at
// all. When no whitelist is configured, every user is allowed.
func (c *Coordinator) IsWhitelisted(email string) bool {
	if !c.whitelistEnabled {
		return true
	}
	_, ok := c.whitelist[email]
	return ok
}

// IsPriority reports whether email is exempt from the extra
// pre-book delay.
func (c *Coordinator) IsPriority(email string) bool {
	_, ok := c.priority[email]
	return ok
}

// AwaitClaimSlot blocks the caller until it is safe to perform a
// book() call: non-priority users sleep their fixed pre-book delay
// first, then every caller queues on the shared interval gate so no
// two claims anywhere in the process land closer than interval apart.
func (c *Coordinator) AwaitClaimSlot(ctx context.Context, email string) error {
	if !c.IsPriority(email) {
		if err := sleepCtx(ctx, nonPriorityPreBookDelay); err != nil {
			return err
		}
	}

	return c.enterGate(ctx)
}

func (c *Coordinator) enterGate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for {
		wait := c.interval - time.Since(c.last)
		if wait <= 0 {
			break
		}
		c.mu.Unlock()
		err := sleepCtx(ctx, wait)
		c.mu.Lock()
		if err != nil {
			return err
		}
	}

	c.last = time.Now()
	return nil
}

// Jitter returns a random duration in [0, max), used before contacting
// the portal so a burst of workers targeting the same window don't all
// fire in lockstep.
func Jitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(max)))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
