package health

import (
	"bytes"
	"context"
	"log"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cecil-the-coder/edge-function-kit/internal/testutil"
	"github.com/cecil-the-coder/edge-function-kit/pkg/types"
)

func quietLogger() *log.Logger {
	return log.New(&bytes.Buffer{}, "", 0)
}

func TestNewProbeScheduler_Defaults(t *testing.T) {
	s := NewProbeScheduler(testutil.NewScriptedCaller(), NewTracker())

	assert.Equal(t, DefaultProbeInterval, s.interval)
	assert.Equal(t, DefaultProbeTimeout, s.timeout)
	assert.Equal(t, DefaultCriticalEndpoints, s.Endpoints())
	assert.False(t, s.Running())
}

func TestProbeScheduler_Options(t *testing.T) {
	s := NewProbeScheduler(testutil.NewScriptedCaller(), NewTracker(),
		WithInterval(time.Second),
		WithProbeTimeout(200*time.Millisecond),
		WithEndpoints("a", "b"),
		WithInterval(0), // ignored
	)

	assert.Equal(t, time.Second, s.interval)
	assert.Equal(t, 200*time.Millisecond, s.timeout)
	assert.Equal(t, []string{"a", "b"}, s.Endpoints())
}

func TestProbeScheduler_ProbeNowFeedsTracker(t *testing.T) {
	caller := testutil.NewScriptedCaller().
		Script("create-order", testutil.Fail()).
		Script("get-courses", testutil.LogicalError("http_503", "unavailable"))
	tracker := NewTracker()
	s := NewProbeScheduler(caller, tracker, WithLogger(quietLogger()))

	results := s.ProbeNow(testutil.Context(t))

	require.Len(t, results, 3)
	assert.NoError(t, results["create-payment-intent"])
	assert.Error(t, results["create-order"])
	assert.Error(t, results["get-courses"])

	status, ok := tracker.Get("create-payment-intent")
	require.True(t, ok)
	assert.Equal(t, 1, status.TotalCalls)
	assert.True(t, status.IsHealthy)

	status, _ = tracker.Get("create-order")
	assert.Equal(t, 1, status.ConsecutiveFailures)
	status, _ = tracker.Get("get-courses")
	assert.Equal(t, 1, status.ConsecutiveFailures)

	for _, call := range caller.Calls() {
		assert.Equal(t, "true", call.Request.Header(HealthCheckHeader))
	}
	assert.Equal(t, int64(1), s.Rounds())
}

func TestProbeScheduler_ProbeRecoversUnhealthyEndpoint(t *testing.T) {
	tracker := NewTracker()
	for i := 0; i < UnhealthyThreshold; i++ {
		tracker.Record("create-order", false, 10)
	}
	require.False(t, tracker.IsHealthy("create-order"))

	s := NewProbeScheduler(testutil.NewScriptedCaller(), tracker, WithEndpoints("create-order"))
	s.ProbeNow(testutil.Context(t))

	status, _ := tracker.Get("create-order")
	assert.True(t, status.IsHealthy)
	assert.Equal(t, 0, status.ConsecutiveFailures)
}

func TestProbeScheduler_PanickingCallerCountsAsFailure(t *testing.T) {
	caller := testutil.NewScriptedCaller().Script("a", testutil.Panic("boom"))
	tracker := NewTracker()
	s := NewProbeScheduler(caller, tracker, WithEndpoints("a"), WithLogger(quietLogger()))

	results := s.ProbeNow(testutil.Context(t))

	assert.ErrorContains(t, results["a"], "panicked")
	status, _ := tracker.Get("a")
	assert.Equal(t, 1, status.ConsecutiveFailures)
}

func TestProbeScheduler_ProbeTimeout(t *testing.T) {
	caller := testutil.NewScriptedCaller().Script("slow", testutil.Outcome{Delay: time.Second})
	tracker := NewTracker()
	s := NewProbeScheduler(caller, tracker,
		WithEndpoints("slow"),
		WithProbeTimeout(20*time.Millisecond),
		WithLogger(quietLogger()),
	)

	results := s.ProbeNow(testutil.Context(t))

	assert.ErrorIs(t, results["slow"], context.DeadlineExceeded)
	status, ok := tracker.Get("slow")
	require.True(t, ok)
	assert.Equal(t, 1, status.ConsecutiveFailures)
}

func TestProbeScheduler_CancelledRoundIsNotRecorded(t *testing.T) {
	tracker := NewTracker()
	s := NewProbeScheduler(testutil.NewScriptedCaller(), tracker)

	ctx, cancel := context.WithCancel(testutil.Context(t))
	cancel()
	results := s.ProbeNow(ctx)

	assert.Empty(t, results)
	assert.Empty(t, tracker.GetAll())
}

func TestProbeScheduler_StartStop(t *testing.T) {
	caller := testutil.NewScriptedCaller()
	s := NewProbeScheduler(caller, NewTracker(), WithInterval(20*time.Millisecond), WithEndpoints("a"))

	s.Start()
	assert.True(t, s.Running())

	// Starting again should be idempotent
	s.Start()

	assert.Eventually(t, func() bool { return s.Rounds() >= 2 }, 2*time.Second, 5*time.Millisecond)

	s.Stop()
	assert.False(t, s.Running())

	// Stopping again should be idempotent
	s.Stop()

	rounds := s.Rounds()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, rounds, s.Rounds(), "no probes after Stop")
}

func TestProbeScheduler_DoubleStartDoesNotDuplicateTimers(t *testing.T) {
	caller := testutil.NewScriptedCaller()
	interval := 50 * time.Millisecond
	s := NewProbeScheduler(caller, NewTracker(), WithInterval(interval), WithEndpoints("a"))

	s.Start()
	s.Start()
	s.Start()
	time.Sleep(10*interval + interval/2)
	s.Stop()

	// one ticker yields about ten rounds in the window; three would yield ~30
	calls := caller.CallsTo("a")
	assert.GreaterOrEqual(t, calls, 5)
	assert.LessOrEqual(t, calls, 11)
}

func TestProbeScheduler_Restart(t *testing.T) {
	s := NewProbeScheduler(testutil.NewScriptedCaller(), NewTracker(), WithInterval(10*time.Millisecond))

	s.Start()
	s.Stop()
	s.Start()
	assert.True(t, s.Running())
	s.Stop()
	assert.False(t, s.Running())
}

func TestProbeScheduler_StopReturnsWhenRestartedDuringShutdown(t *testing.T) {
	var calls atomic.Int32
	// ignores ctx so the in-flight round outlives Stop's cancel
	slow := types.CallerFunc(func(ctx context.Context, endpoint string, req types.Envelope) (*types.Response, error) {
		calls.Add(1)
		time.Sleep(300 * time.Millisecond)
		return &types.Response{}, nil
	})
	s := NewProbeScheduler(slow, NewTracker(),
		WithInterval(10*time.Millisecond), WithEndpoints("a"), WithLogger(quietLogger()))

	s.Start()
	require.Eventually(t, func() bool { return calls.Load() >= 1 }, time.Second, time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()
	require.Eventually(t, func() bool { return !s.Running() }, time.Second, time.Millisecond)

	s.Start()
	defer s.Stop()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked on the run started after it")
	}
	assert.True(t, s.Running())
}
