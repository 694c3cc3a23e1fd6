package retry

import (
	"context"
	"time"
)

// BackoffStrategy is the interface that all backoff strategies must implement
type BackoffStrategy interface {
	// NextDelay calculates the wait after the given 1-indexed failed attempt
	NextDelay(attempt int) time.Duration
}

// LinearBackoffStrategy implements a linear increase in delay
type LinearBackoffStrategy struct {
	initialDelay time.Duration
	increment    time.Duration
}

// NewLinearBackoffStrategy creates a new linear backoff strategy
func NewLinearBackoffStrategy(initialDelay, increment time.Duration) *LinearBackoffStrategy {
	return &LinearBackoffStrategy{
		initialDelay: initialDelay,
		increment:    increment,
	}
}

// NextDelay calculates the next delay using linear backoff:
// initialDelay + increment*(attempt-1)
func (s *LinearBackoffStrategy) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := s.initialDelay + time.Duration(attempt-1)*s.increment
	if delay < 0 {
		return 0
	}
	return delay
}

// Sleep waits for d or until ctx is done, whichever comes first.
// It returns ctx.Err() when the wait was cut short.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
