package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsWhitelisted(t *testing.T) {
	t.Run("no whitelist configured allows everyone", func(t *testing.T) {
		c := New(time.Millisecond, nil, nil)
		assert.True(t, c.IsWhitelisted("anyone@example.com"))
	})

	t.Run("whitelist configured only allows listed emails", func(t *testing.T) {
		c := New(time.Millisecond, nil, []string{"allowed@example.com"})
		assert.True(t, c.IsWhitelisted("allowed@example.com"))
		assert.False(t, c.IsWhitelisted("other@example.com"))
	})
}

func TestIsPriority(t *testing.T) {
	c := New(time.Millisecond, []string{"vip@example.com"}, nil)
	assert.True(t, c.IsPriority("vip@example.com"))
	assert.False(t, c.IsPriority("regular@example.com"))
}

func TestNewFallsBackToDefaultInterval(t *testing.T) {
	c := New(0, nil, nil)
	assert.Equal(t, defaultInterval, c.interval)
}

func TestAwaitClaimSlot_EnforcesMinimumSpacing(t *testing.T) {
	c := New(30*time.Millisecond, []string{"vip@example.com"}, nil)
	ctx := context.Background()

	start := time.Now()
	assert.NoError(t, c.AwaitClaimSlot(ctx, "vip@example.com"))
	assert.NoError(t, c.AwaitClaimSlot(ctx, "vip@example.com"))
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
}

func TestAwaitClaimSlot_RespectsContextCancellation(t *testing.T) {
	c := New(time.Hour, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.AwaitClaimSlot(ctx, "non-priority@example.com")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJitter(t *testing.T) {
	assert.Equal(t, time.Duration(0), Jitter(0))

	for i := 0; i < 20; i++ {
		got := Jitter(100 * time.Millisecond)
		assert.GreaterOrEqual(t, got, time.Duration(0))
		assert.Less(t, got, 100*time.Millisecond)
	}
}
