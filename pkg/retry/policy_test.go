package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cecil-the-coder/edge-function-kit/pkg/types"
)

func TestPolicyFromDefaultConfig(t *testing.T) {
	policy := PolicyFromConfig(types.DefaultRouterConfig())

	assert.Equal(t, 2, policy.MaxAttempts)
	assert.Equal(t, 1*time.Second, policy.Delay)
}

func TestPolicyFromConfig(t *testing.T) {
	cfg := types.DefaultRouterConfig()
	cfg.MaxRetries = 4
	cfg.RetryDelayMs = 250

	policy := PolicyFromConfig(cfg)
	assert.Equal(t, 4, policy.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, policy.Delay)

	cfg.MaxRetries = 0
	cfg.RetryDelayMs = -5
	policy = PolicyFromConfig(cfg)
	assert.Equal(t, 1, policy.MaxAttempts, "at least one attempt is always made")
	assert.Equal(t, time.Duration(0), policy.Delay)
}

func TestRetryPolicy_IsFinal(t *testing.T) {
	policy := &RetryPolicy{MaxAttempts: 3}

	assert.False(t, policy.IsFinal(1))
	assert.False(t, policy.IsFinal(2))
	assert.True(t, policy.IsFinal(3))
}

func TestRetryPolicy_StrategyIsLinear(t *testing.T) {
	policy := &RetryPolicy{MaxAttempts: 3, Delay: 100 * time.Millisecond}
	strategy := policy.Strategy()

	assert.Equal(t, 100*time.Millisecond, strategy.NextDelay(1))
	assert.Equal(t, 200*time.Millisecond, strategy.NextDelay(2))
}
