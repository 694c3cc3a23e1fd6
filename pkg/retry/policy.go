package retry

import (
	"time"

	"github.com/cecil-the-coder/edge-function-kit/pkg/types"
)

// RetryPolicy defines how many attempts a call gets and the base delay between them
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first one
	MaxAttempts int

	// Delay is the base delay; the wait after attempt n is Delay*n
	Delay time.Duration
}

// PolicyFromConfig derives a policy from the router configuration
func PolicyFromConfig(cfg types.RouterConfig) *RetryPolicy {
	attempts := cfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}
	delay := time.Duration(cfg.RetryDelayMs) * time.Millisecond
	if delay < 0 {
		delay = 0
	}
	return &RetryPolicy{
		MaxAttempts: attempts,
		Delay:       delay,
	}
}

// IsFinal reports whether the given 1-indexed attempt is the last one allowed
func (p *RetryPolicy) IsFinal(attempt int) bool {
	return attempt >= p.MaxAttempts
}

// Strategy returns the linear backoff strategy matching this policy
func (p *RetryPolicy) Strategy() BackoffStrategy {
	return NewLinearBackoffStrategy(p.Delay, p.Delay)
}
