package types

import "fmt"

// RouterConfig is the policy record governing retries, fallback and tracking
type RouterConfig struct {
	EnableAutoFallback   bool `json:"enableAutoFallback" yaml:"enable_auto_fallback"`
	EnableMockMode       bool `json:"enableMockMode" yaml:"enable_mock_mode"`
	EnableStatusTracking bool `json:"enableStatusTracking" yaml:"enable_status_tracking"`
	NotifyOnFallback     bool `json:"notifyOnFallback" yaml:"notify_on_fallback"`
	MaxRetries           int  `json:"maxRetries" yaml:"max_retries"`
	RetryDelayMs         int  `json:"retryDelayMs" yaml:"retry_delay_ms"`
}

// DefaultRouterConfig returns the configuration used when nothing is persisted
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		EnableAutoFallback:   true,
		EnableMockMode:       false,
		EnableStatusTracking: true,
		NotifyOnFallback:     true,
		MaxRetries:           2,
		RetryDelayMs:         1000,
	}
}

// Validate checks the numeric bounds of the configuration
func (c RouterConfig) Validate() error {
	if c.MaxRetries < 1 {
		return fmt.Errorf("maxRetries must be at least 1, got %d", c.MaxRetries)
	}
	if c.RetryDelayMs < 0 {
		return fmt.Errorf("retryDelayMs must not be negative, got %d", c.RetryDelayMs)
	}
	return nil
}

// ConfigUpdate is a partial RouterConfig. Nil fields keep their prior value.
type ConfigUpdate struct {
	EnableAutoFallback   *bool `json:"enableAutoFallback,omitempty" yaml:"enable_auto_fallback,omitempty"`
	EnableMockMode       *bool `json:"enableMockMode,omitempty" yaml:"enable_mock_mode,omitempty"`
	EnableStatusTracking *bool `json:"enableStatusTracking,omitempty" yaml:"enable_status_tracking,omitempty"`
	NotifyOnFallback     *bool `json:"notifyOnFallback,omitempty" yaml:"notify_on_fallback,omitempty"`
	MaxRetries           *int  `json:"maxRetries,omitempty" yaml:"max_retries,omitempty"`
	RetryDelayMs         *int  `json:"retryDelayMs,omitempty" yaml:"retry_delay_ms,omitempty"`
}

// Apply merges the update into cfg and returns the result
func (u ConfigUpdate) Apply(cfg RouterConfig) RouterConfig {
	if u.EnableAutoFallback != nil {
		cfg.EnableAutoFallback = *u.EnableAutoFallback
	}
	if u.EnableMockMode != nil {
		cfg.EnableMockMode = *u.EnableMockMode
	}
	if u.EnableStatusTracking != nil {
		cfg.EnableStatusTracking = *u.EnableStatusTracking
	}
	if u.NotifyOnFallback != nil {
		cfg.NotifyOnFallback = *u.NotifyOnFallback
	}
	if u.MaxRetries != nil {
		cfg.MaxRetries = *u.MaxRetries
	}
	if u.RetryDelayMs != nil {
		cfg.RetryDelayMs = *u.RetryDelayMs
	}
	return cfg
}

// IsEmpty reports whether the update changes nothing
func (u ConfigUpdate) IsEmpty() bool {
	return u.EnableAutoFallback == nil && u.EnableMockMode == nil &&
		u.EnableStatusTracking == nil && u.NotifyOnFallback == nil &&
		u.MaxRetries == nil && u.RetryDelayMs == nil
}

// Bool returns a pointer to b, for building a ConfigUpdate
func Bool(b bool) *bool { return &b }

// Int returns a pointer to i, for building a ConfigUpdate
func Int(i int) *int { return &i }
