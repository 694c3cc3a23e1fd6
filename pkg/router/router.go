package router

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/cecil-the-coder/edge-function-kit/pkg/config"
	"github.com/cecil-the-coder/edge-function-kit/pkg/fallback"
	"github.com/cecil-the-coder/edge-function-kit/pkg/health"
	"github.com/cecil-the-coder/edge-function-kit/pkg/metrics"
	"github.com/cecil-the-coder/edge-function-kit/pkg/notify"
	"github.com/cecil-the-coder/edge-function-kit/pkg/types"
)

// ErrNilCaller is returned by New when no Caller is supplied
var ErrNilCaller = errors.New("router: caller is required")

// Resolver produces a synthetic response for an endpoint.
// *fallback.Provider is the standard implementation.
type Resolver interface {
	Resolve(ctx context.Context, endpoint string, req types.Envelope) (*types.Response, error)
}

// ResolverFunc adapts a function to the Resolver interface
type ResolverFunc func(ctx context.Context, endpoint string, req types.Envelope) (*types.Response, error)

// Resolve implements Resolver
func (f ResolverFunc) Resolve(ctx context.Context, endpoint string, req types.Envelope) (*types.Response, error) {
	return f(ctx, endpoint, req)
}

// Router routes invocations to a Caller with health tracking, retries and
// fallback substitution. It is safe for concurrent use.
type Router struct {
	caller    types.Caller
	configs   *config.ConfigStore
	tracker   *health.Tracker
	scheduler *health.ProbeScheduler
	fallbacks Resolver
	notifier  notify.Notifier
	metrics   *metrics.Collector
	logger    *log.Logger
	now       func() time.Time
	probeOpts []health.SchedulerOption

	lifecycleMu sync.Mutex
	started     bool
}

// New creates a router around caller and loads the persisted configuration.
// The probe scheduler does not run until Start is called.
func New(ctx context.Context, caller types.Caller, opts ...Option) (*Router, error) {
	if caller == nil {
		return nil, ErrNilCaller
	}

	r := &Router{
		caller:  caller,
		tracker: health.NewTracker(),
		metrics: metrics.NewCollector(),
		logger:  log.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.configs == nil {
		r.configs = config.NewConfigStore(nil, config.WithLogger(r.logger))
	}
	if r.fallbacks == nil {
		r.fallbacks = fallback.NewDefaultProvider()
	}
	if r.notifier == nil {
		r.notifier = notify.NewLogNotifier(r.logger)
	}

	probeOpts := append([]health.SchedulerOption{health.WithLogger(r.logger)}, r.probeOpts...)
	r.scheduler = health.NewProbeScheduler(caller, r.tracker, probeOpts...)

	r.tracker.OnTransition(func(endpoint string, healthy bool) {
		if healthy {
			r.logger.Printf("[Router] %s recovered, circuit closed", endpoint)
		} else {
			r.logger.Printf("[Router] %s marked unhealthy after %d consecutive failures, circuit open",
				endpoint, health.UnhealthyThreshold)
		}
	})

	r.configs.Load(ctx)
	r.configs.OnChange(func(_, _ types.RouterConfig) {
		r.reconcile()
	})
	r.reconcile()

	return r, nil
}

// Start begins background probing when status tracking is enabled. It first
// reloads the configuration so out-of-band edits to the store take effect.
func (r *Router) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := r.configs.Reload(ctx); err != nil {
		r.logger.Printf("[Router] Reload on start failed, keeping current config: %v", err)
	}

	r.lifecycleMu.Lock()
	r.started = true
	r.lifecycleMu.Unlock()

	r.reconcile()
	return nil
}

// Stop halts background probing. It is safe to call more than once.
func (r *Router) Stop() {
	r.lifecycleMu.Lock()
	r.started = false
	r.lifecycleMu.Unlock()

	r.reconcile()
}

// reconcile brings the tracker and scheduler in line with the current config.
// It reads Current rather than a hook argument so racing updates converge.
func (r *Router) reconcile() {
	r.lifecycleMu.Lock()
	defer r.lifecycleMu.Unlock()

	cfg := r.configs.Current()
	r.tracker.SetEnabled(cfg.EnableStatusTracking)

	if r.started && cfg.EnableStatusTracking {
		if !r.scheduler.Running() {
			r.scheduler.Start()
			r.logger.Printf("[Router] Probe scheduler started for %v", r.scheduler.Endpoints())
		}
		return
	}
	if r.scheduler.Running() {
		r.scheduler.Stop()
		r.logger.Printf("[Router] Probe scheduler stopped")
	}
}

// SchedulerRunning reports whether background probing is active
func (r *Router) SchedulerRunning() bool {
	return r.scheduler.Running()
}

// ProbeNow runs one probe round synchronously
func (r *Router) ProbeNow(ctx context.Context) map[string]error {
	return r.scheduler.ProbeNow(ctx)
}

// ProbeEndpoints returns the critical endpoint set watched by the scheduler
func (r *Router) ProbeEndpoints() []string {
	return r.scheduler.Endpoints()
}

// Fallbacks returns the resolver used for substitutions
func (r *Router) Fallbacks() Resolver {
	return r.fallbacks
}

// Stats returns a snapshot of router activity
func (r *Router) Stats() metrics.Snapshot {
	return r.metrics.Snapshot()
}
