package router

import (
	"context"
	"fmt"
	"time"

	"github.com/cecil-the-coder/edge-function-kit/pkg/notify"
	"github.com/cecil-the-coder/edge-function-kit/pkg/retry"
	"github.com/cecil-the-coder/edge-function-kit/pkg/types"
)

// Invoke performs one logical call to endpoint.
//
// A successful fallback substitution is returned as a normal response with
// Fallback metadata set. Errors are one of:
//   - *types.TransportError when every attempt failed and auto-fallback is off
//   - *types.TotalFailureError when every attempt failed and so did the fallback
//   - the fallback error itself when a fast-fail substitution could not be made
//   - the context error, wrapped with the last TransportError, when ctx ends
//     during the retry loop
func (r *Router) Invoke(ctx context.Context, endpoint string, req types.Envelope) (*types.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := r.configs.Current()
	r.metrics.RecordInvocation(endpoint)

	if cfg.EnableMockMode {
		return r.substitute(ctx, cfg, endpoint, req, types.FallbackReasonMockMode)
	}

	if status, ok := r.tracker.Get(endpoint); ok && !status.IsHealthy && cfg.EnableAutoFallback {
		return r.substitute(ctx, cfg, endpoint, req, types.FallbackReasonUnhealthy)
	}

	policy := retry.PolicyFromConfig(cfg)
	strategy := policy.Strategy()

	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, r.cancelled(endpoint, attempts, lastErr, err)
		}

		resp, elapsed, err := r.attempt(ctx, endpoint, req)
		attempts = attempt
		if err != nil && ctx.Err() != nil {
			// an aborted call says nothing about the endpoint
			return nil, r.cancelled(endpoint, attempts, err, ctx.Err())
		}

		success := err == nil
		r.tracker.Record(endpoint, success, durationMs(elapsed))
		r.metrics.RecordAttempt(endpoint, attempt, success, elapsed)
		if success {
			return resp, nil
		}
		lastErr = err

		if policy.IsFinal(attempt) {
			break
		}

		delay := strategy.NextDelay(attempt)
		r.logger.Printf("[Router] Attempt %d/%d for %s failed: %v, retrying in %v",
			attempt, policy.MaxAttempts, endpoint, err, delay)
		if err := retry.Sleep(ctx, delay); err != nil {
			return nil, r.cancelled(endpoint, attempts, lastErr, err)
		}
	}

	transportErr := &types.TransportError{Endpoint: endpoint, Attempts: attempts, Err: lastErr}
	r.logger.Printf("[Router] All %d attempts for %s failed: %v", attempts, endpoint, lastErr)

	if !cfg.EnableAutoFallback {
		r.metrics.RecordTransportError()
		return nil, transportErr
	}

	resp, err := r.substitute(ctx, cfg, endpoint, req, types.FallbackReasonAttemptsFailed)
	if err != nil {
		r.metrics.RecordTotalFailure()
		return nil, &types.TotalFailureError{
			Endpoint:     endpoint,
			TransportErr: transportErr,
			FallbackErr:  err,
		}
	}
	return resp, nil
}

// attempt makes a single timed call. A response carrying an error counts as
// a failed attempt and a panicking Caller is converted into an error.
func (r *Router) attempt(ctx context.Context, endpoint string, req types.Envelope) (resp *types.Response, elapsed time.Duration, err error) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			resp = nil
			err = fmt.Errorf("caller panicked: %v", p)
		}
		elapsed = time.Since(start)
	}()

	resp, err = r.caller.Call(ctx, endpoint, req)
	if err != nil {
		return nil, 0, err
	}
	if resp == nil {
		return &types.Response{}, 0, nil
	}
	if resp.Error != nil {
		return nil, 0, resp.Error
	}
	return resp, 0, nil
}

// substitute resolves a synthetic response and annotates it
func (r *Router) substitute(ctx context.Context, cfg types.RouterConfig, endpoint string, req types.Envelope, reason types.FallbackReason) (*types.Response, error) {
	resp, err := r.fallbacks.Resolve(ctx, endpoint, req)
	if err != nil {
		r.logger.Printf("[Router] Fallback for %s (%s) failed: %v", endpoint, reason, err)
		return nil, err
	}
	if resp == nil {
		resp = &types.Response{}
	}
	// a synthetic response that reports an error is not a usable substitute
	if resp.Error != nil {
		r.logger.Printf("[Router] Fallback for %s (%s) returned an error: %v", endpoint, reason, resp.Error)
		return nil, resp.Error
	}

	at := r.now()
	annotated := *resp
	annotated.Fallback = &types.FallbackMetadata{
		Used:      true,
		Reason:    reason,
		Timestamp: at,
	}

	r.metrics.RecordFallback(endpoint, reason)
	r.logger.Printf("[Router] Served %s from fallback (%s)", endpoint, reason)
	if cfg.NotifyOnFallback {
		r.notifier.Notify(notify.NewFallbackNotification(endpoint, reason, at))
	}
	return &annotated, nil
}

func (r *Router) cancelled(endpoint string, attempts int, lastErr, ctxErr error) error {
	if lastErr == nil {
		return fmt.Errorf("invoke %s: %w", endpoint, ctxErr)
	}
	transportErr := &types.TransportError{Endpoint: endpoint, Attempts: attempts, Err: lastErr}
	return fmt.Errorf("invoke %s: %w: %w", endpoint, ctxErr, transportErr)
}

func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
