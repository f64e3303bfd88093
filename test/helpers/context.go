package helpers

import (
	"context"
	"testing"
	"time"
)

// TestContext creates a context with timeout for tests
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// TestContextWithTimeout creates a context with custom timeout
func TestContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

// TestContextWithCancel creates a cancellable context
func TestContextWithCancel(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx, cancel
}

type contextKey string

// TestContextWithValue adds a value to test context
func TestContextWithValue(t *testing.T, key, value interface{}) context.Context {
	t.Helper()
	ctx := TestContext(t)
	return context.WithValue(ctx, key, value)
}

// TestContextWithRequestID adds a request ID to context
func TestContextWithRequestID(t *testing.T, requestID string) context.Context {
	t.Helper()
	return TestContextWithValue(t, contextKey("request-id"), requestID)
}
