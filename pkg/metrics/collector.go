package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cecil-the-coder/edge-function-kit/pkg/types"
)

// Snapshot is a point-in-time copy of the collector
type Snapshot struct {
	Invocations   int64                          `json:"invocations"`
	Attempts      int64                          `json:"attempts"`
	Successes     int64                          `json:"successes"`
	Retries       int64                          `json:"retries"`
	TransportErrs int64                          `json:"transportErrors"`
	TotalFailures int64                          `json:"totalFailures"`
	Fallbacks     map[types.FallbackReason]int64 `json:"fallbacks"`
	SuccessRate   float64                        `json:"successRate"`
	Latency       LatencyMetrics                 `json:"latency"`
	Endpoints     map[string]EndpointSnapshot    `json:"endpoints"`
	StartedAt     time.Time                      `json:"startedAt"`
}

// EndpointSnapshot holds per-endpoint counters
type EndpointSnapshot struct {
	Invocations int64 `json:"invocations"`
	Attempts    int64 `json:"attempts"`
	Failures    int64 `json:"failures"`
	Fallbacks   int64 `json:"fallbacks"`
}

// FallbackTotal sums fallbacks across reasons
func (s Snapshot) FallbackTotal() int64 {
	var total int64
	for _, n := range s.Fallbacks {
		total += n
	}
	return total
}

// EndpointNames returns the endpoints seen so far in sorted order
func (s Snapshot) EndpointNames() []string {
	names := make([]string, 0, len(s.Endpoints))
	for name := range s.Endpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type endpointMetrics struct {
	invocations atomic.Int64
	attempts    atomic.Int64
	failures    atomic.Int64
	fallbacks   atomic.Int64
}

// Collector records router activity
type Collector struct {
	invocations   atomic.Int64
	attempts      atomic.Int64
	successes     atomic.Int64
	retries       atomic.Int64
	transportErrs atomic.Int64
	totalFailures atomic.Int64

	mu        sync.RWMutex
	fallbacks map[types.FallbackReason]*atomic.Int64
	endpoints map[string]*endpointMetrics
	latency   *Histogram
	startedAt time.Time
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{
		fallbacks: make(map[types.FallbackReason]*atomic.Int64),
		endpoints: make(map[string]*endpointMetrics),
		latency:   NewHistogram(1000),
		startedAt: time.Now(),
	}
}

// RecordInvocation counts a call to Invoke
func (c *Collector) RecordInvocation(endpoint string) {
	c.invocations.Add(1)
	c.endpoint(endpoint).invocations.Add(1)
}

// RecordAttempt counts one primary-path attempt and its outcome
func (c *Collector) RecordAttempt(endpoint string, attempt int, success bool, latency time.Duration) {
	c.attempts.Add(1)
	if attempt > 1 {
		c.retries.Add(1)
	}
	em := c.endpoint(endpoint)
	em.attempts.Add(1)
	if success {
		c.successes.Add(1)
	} else {
		em.failures.Add(1)
	}
	c.latency.Add(latency)
}

// RecordFallback counts a substitution served by the fallback provider
func (c *Collector) RecordFallback(endpoint string, reason types.FallbackReason) {
	c.mu.Lock()
	counter, ok := c.fallbacks[reason]
	if !ok {
		counter = new(atomic.Int64)
		c.fallbacks[reason] = counter
	}
	c.mu.Unlock()

	counter.Add(1)
	c.endpoint(endpoint).fallbacks.Add(1)
}

// RecordTransportError counts an invocation that surfaced a TransportError
func (c *Collector) RecordTransportError() {
	c.transportErrs.Add(1)
}

// RecordTotalFailure counts an invocation where both paths failed
func (c *Collector) RecordTotalFailure() {
	c.totalFailures.Add(1)
}

// Snapshot returns a copy of all counters
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	fallbacks := make(map[types.FallbackReason]int64, len(c.fallbacks))
	for reason, counter := range c.fallbacks {
		fallbacks[reason] = counter.Load()
	}
	endpoints := make(map[string]EndpointSnapshot, len(c.endpoints))
	for name, em := range c.endpoints {
		endpoints[name] = EndpointSnapshot{
			Invocations: em.invocations.Load(),
			Attempts:    em.attempts.Load(),
			Failures:    em.failures.Load(),
			Fallbacks:   em.fallbacks.Load(),
		}
	}
	startedAt := c.startedAt
	c.mu.RUnlock()

	attempts := c.attempts.Load()
	successes := c.successes.Load()
	return Snapshot{
		Invocations:   c.invocations.Load(),
		Attempts:      attempts,
		Successes:     successes,
		Retries:       c.retries.Load(),
		TransportErrs: c.transportErrs.Load(),
		TotalFailures: c.totalFailures.Load(),
		Fallbacks:     fallbacks,
		SuccessRate:   calculateRate(successes, attempts),
		Latency:       c.latency.Metrics(),
		Endpoints:     endpoints,
		StartedAt:     startedAt,
	}
}

// Reset zeroes every counter
func (c *Collector) Reset() {
	c.invocations.Store(0)
	c.attempts.Store(0)
	c.successes.Store(0)
	c.retries.Store(0)
	c.transportErrs.Store(0)
	c.totalFailures.Store(0)

	c.mu.Lock()
	c.fallbacks = make(map[types.FallbackReason]*atomic.Int64)
	c.endpoints = make(map[string]*endpointMetrics)
	c.startedAt = time.Now()
	c.mu.Unlock()

	c.latency.Reset()
}

func (c *Collector) endpoint(name string) *endpointMetrics {
	c.mu.RLock()
	em, ok := c.endpoints[name]
	c.mu.RUnlock()
	if ok {
		return em
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if em, ok = c.endpoints[name]; !ok {
		em = &endpointMetrics{}
		c.endpoints[name] = em
	}
	return em
}

func calculateRate(numerator, denominator int64) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(numerator) / float64(denominator)
}
