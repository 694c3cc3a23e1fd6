package health

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cecil-the-coder/edge-function-kit/pkg/types"
)

const (
	// UnhealthyThreshold is the number of consecutive failures that opens the circuit
	UnhealthyThreshold = 3

	// SuccessRateWindow bounds the number of recent calls the success rate is smoothed over
	SuccessRateWindow = 10
)

// TransitionCallback is called when an endpoint flips between healthy and unhealthy
type TransitionCallback func(endpoint string, healthy bool)

// Tracker owns the per-endpoint FunctionStatus map
type Tracker struct {
	mu        sync.Mutex
	statuses  map[string]*types.FunctionStatus
	enabled   atomic.Bool
	callbacks []TransitionCallback
	now       func() time.Time
}

// NewTracker creates an enabled tracker
func NewTracker() *Tracker {
	t := &Tracker{
		statuses: make(map[string]*types.FunctionStatus),
		now:      time.Now,
	}
	t.enabled.Store(true)
	return t
}

// SetEnabled turns recording on or off. Existing statistics are kept.
func (t *Tracker) SetEnabled(enabled bool) {
	t.enabled.Store(enabled)
}

// Enabled reports whether Record currently updates statistics
func (t *Tracker) Enabled() bool {
	return t.enabled.Load()
}

// OnTransition registers a callback fired after an endpoint changes health
func (t *Tracker) OnTransition(cb TransitionCallback) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.callbacks = append(t.callbacks, cb)
}

// Record folds one call outcome into the endpoint's statistics
func (t *Tracker) Record(endpoint string, success bool, responseTimeMs float64) {
	if !t.enabled.Load() {
		return
	}
	if responseTimeMs < 0 {
		responseTimeMs = 0
	}

	t.mu.Lock()
	status, exists := t.statuses[endpoint]
	if !exists {
		status = &types.FunctionStatus{
			Endpoint:  endpoint,
			IsHealthy: true,
		}
		t.statuses[endpoint] = status
	}
	wasHealthy := status.IsHealthy
	now := t.now()

	status.TotalCalls++
	n := float64(status.TotalCalls)
	status.AvgResponseTimeMs = (status.AvgResponseTimeMs*(n-1) + responseTimeMs) / n

	outcome := 0.0
	if success {
		outcome = 1.0
	}
	window := status.TotalCalls
	if window > SuccessRateWindow {
		window = SuccessRateWindow
	}
	w := float64(window)
	status.SuccessRate = clamp01((status.SuccessRate*(w-1) + outcome) / w)

	if success {
		status.ConsecutiveFailures = 0
		status.LastSuccessAt = &now
		status.IsHealthy = true
	} else {
		status.ConsecutiveFailures++
		status.LastFailureAt = &now
		status.IsHealthy = status.ConsecutiveFailures < UnhealthyThreshold
	}

	healthy := status.IsHealthy
	var callbacks []TransitionCallback
	if healthy != wasHealthy {
		callbacks = make([]TransitionCallback, len(t.callbacks))
		copy(callbacks, t.callbacks)
	}
	t.mu.Unlock()

	for _, cb := range callbacks {
		cb(endpoint, healthy)
	}
}

// Get returns a copy of the endpoint's status
func (t *Tracker) Get(endpoint string) (types.FunctionStatus, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	status, exists := t.statuses[endpoint]
	if !exists {
		return types.FunctionStatus{}, false
	}
	return copyStatus(status), true
}

// GetAll returns copies of every tracked status, sorted by endpoint
func (t *Tracker) GetAll() []types.FunctionStatus {
	t.mu.Lock()
	all := make([]types.FunctionStatus, 0, len(t.statuses))
	for _, status := range t.statuses {
		all = append(all, copyStatus(status))
	}
	t.mu.Unlock()

	sort.Slice(all, func(i, j int) bool { return all[i].Endpoint < all[j].Endpoint })
	return all
}

// IsHealthy reports the endpoint's classification. Unknown endpoints are healthy.
func (t *Tracker) IsHealthy(endpoint string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	status, exists := t.statuses[endpoint]
	return !exists || status.IsHealthy
}

// Reset clears all tracked state
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.statuses = make(map[string]*types.FunctionStatus)
}

// Summary aggregates the current statuses
func (t *Tracker) Summary() types.HealthSummary {
	all := t.GetAll()

	summary := types.HealthSummary{TotalFunctions: len(all)}
	if len(all) == 0 {
		return summary
	}

	var totalResponse, totalRate float64
	for _, status := range all {
		if status.IsHealthy {
			summary.HealthyFunctions++
		} else {
			summary.UnhealthyFunctions++
		}
		totalResponse += status.AvgResponseTimeMs
		totalRate += status.SuccessRate
	}
	summary.AvgResponseTimeMs = totalResponse / float64(len(all))
	summary.OverallSuccessRate = clamp01(totalRate / float64(len(all)))

	return summary
}

func copyStatus(status *types.FunctionStatus) types.FunctionStatus {
	c := *status
	if status.LastSuccessAt != nil {
		ts := *status.LastSuccessAt
		c.LastSuccessAt = &ts
	}
	if status.LastFailureAt != nil {
		ts := *status.LastFailureAt
		c.LastFailureAt = &ts
	}
	return c
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
