package router

import (
	"context"

	"github.com/cecil-the-coder/edge-function-kit/pkg/types"
)

// GetConfig returns the active configuration
func (r *Router) GetConfig() types.RouterConfig {
	return r.configs.Current()
}

// UpdateConfig merges a partial update into the configuration, persists it and
// applies side effects such as starting or stopping the probe scheduler.
// An invalid update is rejected and leaves the configuration unchanged.
func (r *Router) UpdateConfig(ctx context.Context, update types.ConfigUpdate) (types.RouterConfig, error) {
	return r.configs.Update(ctx, update)
}

// EnableMockMode routes every invocation to the fallback provider
func (r *Router) EnableMockMode(ctx context.Context) error {
	_, err := r.UpdateConfig(ctx, types.ConfigUpdate{EnableMockMode: types.Bool(true)})
	return err
}

// DisableMockMode restores real transport calls
func (r *Router) DisableMockMode(ctx context.Context) error {
	_, err := r.UpdateConfig(ctx, types.ConfigUpdate{EnableMockMode: types.Bool(false)})
	return err
}

// EnableAutoFallback allows substitution for unhealthy or failing endpoints
func (r *Router) EnableAutoFallback(ctx context.Context) error {
	_, err := r.UpdateConfig(ctx, types.ConfigUpdate{EnableAutoFallback: types.Bool(true)})
	return err
}

// DisableAutoFallback surfaces transport errors instead of substituting
func (r *Router) DisableAutoFallback(ctx context.Context) error {
	_, err := r.UpdateConfig(ctx, types.ConfigUpdate{EnableAutoFallback: types.Bool(false)})
	return err
}

// GetFunctionStatus returns the tracked status of an endpoint
func (r *Router) GetFunctionStatus(endpoint string) (types.FunctionStatus, bool) {
	return r.tracker.Get(endpoint)
}

// GetAllFunctionStatuses returns every tracked status sorted by endpoint
func (r *Router) GetAllFunctionStatuses() []types.FunctionStatus {
	return r.tracker.GetAll()
}

// GetHealthSummary aggregates all tracked statuses
func (r *Router) GetHealthSummary() types.HealthSummary {
	return r.tracker.Summary()
}

// ResetStatuses forgets all health statistics, closing every circuit
func (r *Router) ResetStatuses() {
	r.tracker.Reset()
}
