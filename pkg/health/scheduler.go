package health

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cecil-the-coder/edge-function-kit/pkg/types"
)

const (
	// DefaultProbeInterval is how often critical endpoints are probed
	DefaultProbeInterval = 30 * time.Second

	// DefaultProbeTimeout bounds a single probe call
	DefaultProbeTimeout = 5 * time.Second

	// HealthCheckHeader marks a request as a probe rather than user traffic
	HealthCheckHeader = "x-health-check"
)

// DefaultCriticalEndpoints are probed when no explicit set is configured
var DefaultCriticalEndpoints = []string{
	"create-payment-intent",
	"create-order",
	"get-courses",
}

// ProbeScheduler periodically calls a fixed set of critical endpoints through
// a Caller and feeds the outcomes into a Tracker.
type ProbeScheduler struct {
	caller    types.Caller
	tracker   *Tracker
	endpoints []string
	interval  time.Duration
	timeout   time.Duration
	logger    *log.Logger

	mu       sync.Mutex
	running  bool
	ticker   *time.Ticker
	stopChan chan struct{}
	cancel   context.CancelFunc
	done     chan struct{}

	rounds atomic.Int64
}

// SchedulerOption configures a ProbeScheduler
type SchedulerOption func(*ProbeScheduler)

// WithInterval sets the probe interval
func WithInterval(interval time.Duration) SchedulerOption {
	return func(s *ProbeScheduler) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithProbeTimeout sets the per-probe timeout
func WithProbeTimeout(timeout time.Duration) SchedulerOption {
	return func(s *ProbeScheduler) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithEndpoints replaces the critical endpoint set
func WithEndpoints(endpoints ...string) SchedulerOption {
	return func(s *ProbeScheduler) {
		s.endpoints = append([]string(nil), endpoints...)
	}
}

// WithLogger sets the logger used for probe failures
func WithLogger(logger *log.Logger) SchedulerOption {
	return func(s *ProbeScheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewProbeScheduler creates a stopped scheduler
func NewProbeScheduler(caller types.Caller, tracker *Tracker, opts ...SchedulerOption) *ProbeScheduler {
	s := &ProbeScheduler{
		caller:    caller,
		tracker:   tracker,
		endpoints: append([]string(nil), DefaultCriticalEndpoints...),
		interval:  DefaultProbeInterval,
		timeout:   DefaultProbeTimeout,
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins periodic probing. Calling Start on a running scheduler is a no-op.
func (s *ProbeScheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.ticker = time.NewTicker(s.interval)
	s.stopChan = make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	ticker := s.ticker
	stopChan := s.stopChan
	// each run owns its done channel so a Stop never waits on a later run
	done := make(chan struct{})
	s.done = done
	s.mu.Unlock()

	go func() {
		defer close(done)
		for {
			select {
			case <-ticker.C:
				s.probeAll(ctx)
			case <-stopChan:
				return
			}
		}
	}()
}

// Stop halts probing, releases the ticker and waits for an in-flight round to
// finish. Calling Stop on a stopped scheduler is a no-op.
func (s *ProbeScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	ticker := s.ticker
	stopChan := s.stopChan
	cancel := s.cancel
	done := s.done
	s.ticker = nil
	s.stopChan = nil
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	ticker.Stop()
	cancel()
	close(stopChan)
	<-done
}

// Running reports whether the scheduler is started
func (s *ProbeScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Rounds returns the number of probe rounds executed so far
func (s *ProbeScheduler) Rounds() int64 {
	return s.rounds.Load()
}

// Endpoints returns the critical endpoint set
func (s *ProbeScheduler) Endpoints() []string {
	return append([]string(nil), s.endpoints...)
}

// ProbeNow runs one probe round synchronously and returns the per-endpoint
// outcome (nil means the probe succeeded).
func (s *ProbeScheduler) ProbeNow(ctx context.Context) map[string]error {
	return s.probeAll(ctx)
}

func (s *ProbeScheduler) probeAll(ctx context.Context) map[string]error {
	s.rounds.Add(1)
	results := make(map[string]error, len(s.endpoints))
	for _, endpoint := range s.endpoints {
		if ctx.Err() != nil {
			break
		}
		results[endpoint] = s.probe(ctx, endpoint)
	}
	return results
}

func (s *ProbeScheduler) probe(parent context.Context, endpoint string) (err error) {
	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("probe panicked: %v", r)
		}
		// an aborted round says nothing about the endpoint
		if parent.Err() != nil {
			return
		}
		elapsed := float64(time.Since(start)) / float64(time.Millisecond)
		s.tracker.Record(endpoint, err == nil, elapsed)
		if err != nil {
			s.logger.Printf("[ProbeScheduler] Probe of %s failed: %v", endpoint, err)
		}
	}()

	resp, err := s.caller.Call(ctx, endpoint, HealthCheckEnvelope())
	if err != nil {
		return err
	}
	if resp != nil && resp.Error != nil {
		return resp.Error
	}
	return nil
}

// HealthCheckEnvelope builds the lightweight request sent by probes
func HealthCheckEnvelope() types.Envelope {
	return types.Envelope{
		Method:  "POST",
		Headers: map[string]string{HealthCheckHeader: "true"},
		Body:    map[string]any{"healthCheck": true},
	}
}
