package fallback

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/cecil-the-coder/edge-function-kit/pkg/retry"
	"github.com/cecil-the-coder/edge-function-kit/pkg/types"
)

// ErrSimulatedFailure is returned when a mock's failure probability fires
var ErrSimulatedFailure = errors.New("simulated fallback failure")

// Builder assembles a complete response for a request at resolution time
type Builder func(req types.Envelope, now time.Time) (*types.Response, error)

// Mock is one registry entry
type Mock struct {
	Builder     Builder
	Latency     time.Duration // simulated latency before the builder runs
	FailureRate float64       // probability in [0,1] of returning ErrSimulatedFailure
}

// MockOption configures a Mock at registration
type MockOption func(*Mock)

// WithLatency adds simulated latency to a mock
func WithLatency(latency time.Duration) MockOption {
	return func(m *Mock) {
		if latency > 0 {
			m.Latency = latency
		}
	}
}

// WithFailureRate makes a mock fail with the given probability
func WithFailureRate(rate float64) MockOption {
	return func(m *Mock) {
		switch {
		case rate < 0:
			m.FailureRate = 0
		case rate > 1:
			m.FailureRate = 1
		default:
			m.FailureRate = rate
		}
	}
}

// Provider is the registry of mocks keyed by endpoint name
type Provider struct {
	mu    sync.RWMutex
	mocks map[string]Mock

	rngMu sync.Mutex
	rng   *rand.Rand
	now   func() time.Time
}

// Option configures a Provider
type Option func(*Provider)

// WithRandSource makes simulated failures deterministic
func WithRandSource(src rand.Source) Option {
	return func(p *Provider) {
		p.rng = rand.New(src) //nolint:gosec // G404: math/rand is sufficient for failure simulation
	}
}

// WithClock replaces the clock passed to builders
func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		if now != nil {
			p.now = now
		}
	}
}

// NewProvider creates an empty provider
func NewProvider(opts ...Option) *Provider {
	p := &Provider{
		mocks: make(map[string]Mock),
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // G404: math/rand is sufficient for failure simulation
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewDefaultProvider creates a provider pre-loaded with the storefront mocks
func NewDefaultProvider(opts ...Option) *Provider {
	p := NewProvider(opts...)
	RegisterDefaults(p)
	return p
}

// Register adds or replaces the mock for an endpoint
func (p *Provider) Register(endpoint string, builder Builder, opts ...MockOption) error {
	if endpoint == "" {
		return fmt.Errorf("endpoint name cannot be empty")
	}
	if builder == nil {
		return fmt.Errorf("builder for %q cannot be nil", endpoint)
	}

	mock := Mock{Builder: builder}
	for _, opt := range opts {
		opt(&mock)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.mocks[endpoint] = mock
	return nil
}

// RegisterStatic registers a mock that always returns the same data
func (p *Provider) RegisterStatic(endpoint string, data any, opts ...MockOption) error {
	return p.Register(endpoint, func(types.Envelope, time.Time) (*types.Response, error) {
		return &types.Response{Data: data}, nil
	}, opts...)
}

// Unregister removes the mock for an endpoint
func (p *Provider) Unregister(endpoint string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.mocks, endpoint)
}

// Has reports whether a mock is registered for the endpoint
func (p *Provider) Has(endpoint string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.mocks[endpoint]
	return ok
}

// Endpoints returns the registered endpoint names, sorted
func (p *Provider) Endpoints() []string {
	p.mu.RLock()
	names := make([]string, 0, len(p.mocks))
	for name := range p.mocks {
		names = append(names, name)
	}
	p.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Resolve builds the synthetic response for an endpoint
func (p *Provider) Resolve(ctx context.Context, endpoint string, req types.Envelope) (*types.Response, error) {
	p.mu.RLock()
	mock, ok := p.mocks[endpoint]
	p.mu.RUnlock()
	if !ok {
		return nil, &types.MockNotConfiguredError{Endpoint: endpoint}
	}

	if err := retry.Sleep(ctx, mock.Latency); err != nil {
		return nil, fmt.Errorf("fallback for %q interrupted: %w", endpoint, err)
	}

	if mock.FailureRate > 0 && p.roll() < mock.FailureRate {
		return nil, fmt.Errorf("fallback for %q: %w", endpoint, ErrSimulatedFailure)
	}

	resp, err := mock.Builder(req, p.now())
	if err != nil {
		return nil, fmt.Errorf("fallback for %q: %w", endpoint, err)
	}
	if resp == nil {
		resp = &types.Response{}
	}
	return resp, nil
}

func (p *Provider) roll() float64 {
	p.rngMu.Lock()
	defer p.rngMu.Unlock()
	return p.rng.Float64()
}
