package router

import (
	"log"
	"time"

	"github.com/cecil-the-coder/edge-function-kit/pkg/config"
	"github.com/cecil-the-coder/edge-function-kit/pkg/health"
	"github.com/cecil-the-coder/edge-function-kit/pkg/metrics"
	"github.com/cecil-the-coder/edge-function-kit/pkg/notify"
)

// Option configures a Router
type Option func(*Router)

// WithConfigStore sets the configuration store. Defaults to an in-memory store.
func WithConfigStore(store *config.ConfigStore) Option {
	return func(r *Router) {
		if store != nil {
			r.configs = store
		}
	}
}

// WithTracker sets the health tracker
func WithTracker(tracker *health.Tracker) Option {
	return func(r *Router) {
		if tracker != nil {
			r.tracker = tracker
		}
	}
}

// WithFallbacks sets the source of synthetic responses.
// Defaults to fallback.NewDefaultProvider().
func WithFallbacks(resolver Resolver) Option {
	return func(r *Router) {
		if resolver != nil {
			r.fallbacks = resolver
		}
	}
}

// WithNotifier sets where fallback notifications are delivered.
// Defaults to a log notifier on the router's logger.
func WithNotifier(notifier notify.Notifier) Option {
	return func(r *Router) {
		if notifier != nil {
			r.notifier = notifier
		}
	}
}

// WithMetrics sets the metrics collector
func WithMetrics(collector *metrics.Collector) Option {
	return func(r *Router) {
		if collector != nil {
			r.metrics = collector
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *log.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithProbeOptions configures the background probe scheduler
func WithProbeOptions(opts ...health.SchedulerOption) Option {
	return func(r *Router) {
		r.probeOpts = append(r.probeOpts, opts...)
	}
}

// WithClock overrides the time source used for fallback timestamps
func WithClock(now func() time.Time) Option {
	return func(r *Router) {
		if now != nil {
			r.now = now
		}
	}
}
