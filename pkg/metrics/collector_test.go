package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cecil-the-coder/edge-function-kit/pkg/types"
)

func TestCollector_RecordsInvocationLifecycle(t *testing.T) {
	c := NewCollector()

	c.RecordInvocation("create-order")
	c.RecordAttempt("create-order", 1, false, 10*time.Millisecond)
	c.RecordAttempt("create-order", 2, false, 20*time.Millisecond)
	c.RecordFallback("create-order", types.FallbackReasonAttemptsFailed)

	c.RecordInvocation("get-courses")
	c.RecordAttempt("get-courses", 1, true, 5*time.Millisecond)

	c.RecordInvocation("confirm-payment")
	c.RecordFallback("confirm-payment", types.FallbackReasonMockMode)
	c.RecordTransportError()
	c.RecordTotalFailure()

	snap := c.Snapshot()
	assert.Equal(t, int64(3), snap.Invocations)
	assert.Equal(t, int64(3), snap.Attempts)
	assert.Equal(t, int64(1), snap.Successes)
	assert.Equal(t, int64(1), snap.Retries)
	assert.Equal(t, int64(1), snap.TransportErrs)
	assert.Equal(t, int64(1), snap.TotalFailures)
	assert.InDelta(t, 1.0/3.0, snap.SuccessRate, 0.0001)
	assert.Equal(t, int64(2), snap.FallbackTotal())
	assert.Equal(t, int64(1), snap.Fallbacks[types.FallbackReasonAttemptsFailed])
	assert.Equal(t, int64(1), snap.Fallbacks[types.FallbackReasonMockMode])
	assert.Equal(t, int64(3), snap.Latency.Count)

	require.Equal(t, []string{"confirm-payment", "create-order", "get-courses"}, snap.EndpointNames())
	order := snap.Endpoints["create-order"]
	assert.Equal(t, EndpointSnapshot{Invocations: 1, Attempts: 2, Failures: 2, Fallbacks: 1}, order)
}

func TestCollector_EmptySnapshot(t *testing.T) {
	snap := NewCollector().Snapshot()

	assert.Zero(t, snap.Invocations)
	assert.Zero(t, snap.SuccessRate)
	assert.Empty(t, snap.Fallbacks)
	assert.Empty(t, snap.Endpoints)
	assert.False(t, snap.StartedAt.IsZero())
}

func TestCollector_Reset(t *testing.T) {
	c := NewCollector()
	c.RecordInvocation("x")
	c.RecordAttempt("x", 1, true, time.Millisecond)
	c.RecordFallback("x", types.FallbackReasonUnhealthy)

	c.Reset()

	snap := c.Snapshot()
	assert.Zero(t, snap.Invocations)
	assert.Zero(t, snap.Attempts)
	assert.Zero(t, snap.FallbackTotal())
	assert.Empty(t, snap.Endpoints)
	assert.Zero(t, snap.Latency.Count)
}

func TestCollector_Concurrent(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				c.RecordInvocation("ep")
				c.RecordAttempt("ep", 1, j%2 == 0, time.Microsecond)
				c.RecordFallback("ep", types.FallbackReasonUnhealthy)
				_ = c.Snapshot()
			}
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	assert.Equal(t, int64(1000), snap.Invocations)
	assert.Equal(t, int64(1000), snap.Attempts)
	assert.Equal(t, int64(500), snap.Successes)
	assert.Equal(t, int64(1000), snap.Fallbacks[types.FallbackReasonUnhealthy])
	assert.Equal(t, int64(1000), snap.Endpoints["ep"].Fallbacks)
}
