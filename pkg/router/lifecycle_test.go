package router

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cecil-the-coder/edge-function-kit/internal/testutil"
	"github.com/cecil-the-coder/edge-function-kit/pkg/config"
	"github.com/cecil-the-coder/edge-function-kit/pkg/health"
	"github.com/cecil-the-coder/edge-function-kit/pkg/types"
)

const probeInterval = 40 * time.Millisecond

func probeFixture(t *testing.T, caller *testutil.ScriptedCaller, update types.ConfigUpdate) *routerFixture {
	t.Helper()
	return newFixture(t, caller, update, WithProbeOptions(
		health.WithInterval(probeInterval),
		health.WithProbeTimeout(time.Second),
		health.WithEndpoints("probe-target"),
	))
}

func TestStart_RunsSchedulerWhenTrackingEnabled(t *testing.T) {
	caller := testutil.NewScriptedCaller()
	f := probeFixture(t, caller, types.ConfigUpdate{})
	assert.False(t, f.router.SchedulerRunning())

	require.NoError(t, f.router.Start(testutil.Context(t)))
	assert.True(t, f.router.SchedulerRunning())

	assert.Eventually(t, func() bool {
		return caller.CallsTo("probe-target") >= 2
	}, 2*time.Second, 10*time.Millisecond)

	f.router.Stop()
	f.router.Stop()
	assert.False(t, f.router.SchedulerRunning())
}

func TestStart_TrackingDisabledKeepsSchedulerIdle(t *testing.T) {
	caller := testutil.NewScriptedCaller()
	f := probeFixture(t, caller, types.ConfigUpdate{EnableStatusTracking: types.Bool(false)})

	require.NoError(t, f.router.Start(testutil.Context(t)))
	assert.False(t, f.router.SchedulerRunning())
	assert.False(t, f.router.tracker.Enabled())

	time.Sleep(3 * probeInterval)
	assert.Equal(t, 0, caller.CallCount())
}

func TestStart_CancelledContext(t *testing.T) {
	f := probeFixture(t, testutil.NewScriptedCaller(), types.ConfigUpdate{})
	ctx, cancel := context.WithCancel(testutil.Context(t))
	cancel()

	assert.ErrorIs(t, f.router.Start(ctx), context.Canceled)
	assert.False(t, f.router.SchedulerRunning())
}

func TestStart_ReloadsPersistedConfig(t *testing.T) {
	backing := config.NewMemoryStore()
	writer := config.NewConfigStore(backing, config.WithLogger(quietLogger))
	configs := config.NewConfigStore(backing, config.WithLogger(quietLogger))

	r, err := New(testutil.Context(t), testutil.NewScriptedCaller(),
		WithConfigStore(configs), WithLogger(quietLogger),
		WithProbeOptions(health.WithInterval(time.Hour)))
	require.NoError(t, err)
	defer r.Stop()

	_, err = writer.Update(testutil.Context(t), types.ConfigUpdate{EnableMockMode: types.Bool(true)})
	require.NoError(t, err)
	assert.False(t, r.GetConfig().EnableMockMode)

	require.NoError(t, r.Start(testutil.Context(t)))
	assert.True(t, r.GetConfig().EnableMockMode)
}

// Scenario C: toggling tracking leaves exactly one scheduler behind
func TestUpdateConfig_TrackingToggleLeavesSingleScheduler(t *testing.T) {
	caller := testutil.NewScriptedCaller()
	f := probeFixture(t, caller, types.ConfigUpdate{})
	ctx := testutil.Context(t)
	require.NoError(t, f.router.Start(ctx))

	_, err := f.router.UpdateConfig(ctx, types.ConfigUpdate{EnableStatusTracking: types.Bool(false)})
	require.NoError(t, err)
	assert.False(t, f.router.SchedulerRunning())
	assert.False(t, f.router.tracker.Enabled())

	_, err = f.router.UpdateConfig(ctx, types.ConfigUpdate{EnableStatusTracking: types.Bool(true)})
	require.NoError(t, err)
	assert.True(t, f.router.SchedulerRunning())

	// enabling again while enabled must not add a timer
	_, err = f.router.UpdateConfig(ctx, types.ConfigUpdate{EnableStatusTracking: types.Bool(true)})
	require.NoError(t, err)

	caller.Reset()
	window := 10 * probeInterval
	time.Sleep(window)
	probes := caller.CallsTo("probe-target")

	// one ticker yields about window/interval probes; a duplicate would double it
	assert.GreaterOrEqual(t, probes, 3)
	assert.LessOrEqual(t, probes, 13)
}

func TestUpdateConfig_DisableTrackingStopsProbes(t *testing.T) {
	caller := testutil.NewScriptedCaller()
	f := probeFixture(t, caller, types.ConfigUpdate{})
	ctx := testutil.Context(t)
	require.NoError(t, f.router.Start(ctx))

	assert.Eventually(t, func() bool { return caller.CallCount() > 0 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, func() error {
		_, err := f.router.UpdateConfig(ctx, types.ConfigUpdate{EnableStatusTracking: types.Bool(false)})
		return err
	}())

	caller.Reset()
	time.Sleep(4 * probeInterval)
	assert.Equal(t, 0, caller.CallCount())
}

func TestStop_ThenConfigChangeDoesNotRestart(t *testing.T) {
	f := probeFixture(t, testutil.NewScriptedCaller(), types.ConfigUpdate{})
	ctx := testutil.Context(t)
	require.NoError(t, f.router.Start(ctx))
	f.router.Stop()

	_, err := f.router.UpdateConfig(ctx, types.ConfigUpdate{EnableStatusTracking: types.Bool(false)})
	require.NoError(t, err)
	_, err = f.router.UpdateConfig(ctx, types.ConfigUpdate{EnableStatusTracking: types.Bool(true)})
	require.NoError(t, err)

	assert.False(t, f.router.SchedulerRunning())
}

func TestProbe_RecoversOpenCircuit(t *testing.T) {
	caller := testutil.NewScriptedCaller()
	f := probeFixture(t, caller, types.ConfigUpdate{})

	for i := 0; i < 3; i++ {
		f.router.tracker.Record("probe-target", false, 1)
	}
	status, _ := f.router.GetFunctionStatus("probe-target")
	require.False(t, status.IsHealthy)

	results := f.router.ProbeNow(testutil.Context(t))
	assert.NoError(t, results["probe-target"])

	status, _ = f.router.GetFunctionStatus("probe-target")
	assert.True(t, status.IsHealthy)
	assert.Equal(t, 0, status.ConsecutiveFailures)

	calls := caller.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "true", calls[0].Request.Header(health.HealthCheckHeader))
}

func TestProbe_BackgroundRecoveryThroughScheduler(t *testing.T) {
	caller := testutil.NewScriptedCaller()
	f := probeFixture(t, caller, types.ConfigUpdate{})

	for i := 0; i < 3; i++ {
		f.router.tracker.Record("probe-target", false, 1)
	}
	require.NoError(t, f.router.Start(testutil.Context(t)))

	assert.Eventually(t, func() bool {
		status, _ := f.router.GetFunctionStatus("probe-target")
		return status.IsHealthy
	}, 2*time.Second, 10*time.Millisecond)

	resp, err := f.router.Invoke(testutil.Context(t), "probe-target", types.Envelope{})
	require.NoError(t, err)
	assert.False(t, resp.FallbackUsed())
}
