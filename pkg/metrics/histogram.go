package metrics

import (
	"sort"
	"sync"
	"time"
)

// LatencyMetrics summarizes recorded call durations
type LatencyMetrics struct {
	Count          int64         `json:"count"`
	TotalLatency   time.Duration `json:"totalLatency"`
	AverageLatency time.Duration `json:"averageLatency"`
	MinLatency     time.Duration `json:"minLatency"`
	MaxLatency     time.Duration `json:"maxLatency"`
	P50Latency     time.Duration `json:"p50Latency"`
	P90Latency     time.Duration `json:"p90Latency"`
	P99Latency     time.Duration `json:"p99Latency"`
	LastUpdated    time.Time     `json:"lastUpdated"`
}

// Histogram is a circular buffer of latency samples
type Histogram struct {
	mu          sync.RWMutex
	samples     []time.Duration
	capacity    int
	index       int
	count       int64
	total       time.Duration
	min         time.Duration
	max         time.Duration
	lastUpdated time.Time
}

// NewHistogram creates a new histogram with the given sample size
func NewHistogram(sampleSize int) *Histogram {
	if sampleSize <= 0 {
		sampleSize = 1000
	}
	return &Histogram{
		samples:  make([]time.Duration, sampleSize),
		capacity: sampleSize,
	}
}

// Add adds a latency sample to the histogram
func (h *Histogram) Add(latency time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.samples[h.index] = latency
	h.index = (h.index + 1) % h.capacity
	h.count++
	h.total += latency

	if h.count == 1 || latency < h.min {
		h.min = latency
	}
	if latency > h.max {
		h.max = latency
	}
	h.lastUpdated = time.Now()
}

// Metrics returns the current latency summary including percentiles
func (h *Histogram) Metrics() LatencyMetrics {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.count == 0 {
		return LatencyMetrics{LastUpdated: h.lastUpdated}
	}

	n := h.capacity
	if h.count < int64(h.capacity) {
		n = int(h.count)
	}
	sorted := make([]time.Duration, n)
	copy(sorted, h.samples[:n])
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	return LatencyMetrics{
		Count:          h.count,
		TotalLatency:   h.total,
		AverageLatency: h.total / time.Duration(h.count),
		MinLatency:     h.min,
		MaxLatency:     h.max,
		P50Latency:     percentile(sorted, 50),
		P90Latency:     percentile(sorted, 90),
		P99Latency:     percentile(sorted, 99),
		LastUpdated:    h.lastUpdated,
	}
}

// percentile interpolates linearly between the closest ranks
func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	if p <= 0 {
		return sorted[0]
	}

	rank := float64(p) / 100.0 * float64(len(sorted)-1)
	lower := int(rank)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	fraction := rank - float64(lower)
	return time.Duration(float64(sorted[lower]) + fraction*float64(sorted[upper]-sorted[lower]))
}

// Reset clears all samples from the histogram
func (h *Histogram) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.samples = make([]time.Duration, h.capacity)
	h.index = 0
	h.count = 0
	h.total = 0
	h.min = 0
	h.max = 0
	h.lastUpdated = time.Time{}
}
