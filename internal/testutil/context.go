package testutil

import (
	"context"
	"testing"
	"time"
)

// DefaultTimeout bounds every context handed out by Context
const DefaultTimeout = 10 * time.Second

// Context returns a context that expires after DefaultTimeout and is
// cancelled when the test finishes, so no test can hang on a stuck call.
func Context(t testing.TB) context.Context {
	t.Helper()
	return ContextWithTimeout(t, DefaultTimeout)
}

// ContextWithTimeout is Context with an explicit deadline
func ContextWithTimeout(t testing.TB, timeout time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}
