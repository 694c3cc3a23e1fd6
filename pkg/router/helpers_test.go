package router

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cecil-the-coder/edge-function-kit/internal/testutil"
	"github.com/cecil-the-coder/edge-function-kit/pkg/config"
	"github.com/cecil-the-coder/edge-function-kit/pkg/fallback"
	"github.com/cecil-the-coder/edge-function-kit/pkg/notify"
	"github.com/cecil-the-coder/edge-function-kit/pkg/types"
)

var quietLogger = log.New(io.Discard, "", 0)

// spyResolver wraps a Resolver and counts resolutions
type spyResolver struct {
	inner Resolver

	mu       sync.Mutex
	resolved []string
}

func newSpyResolver() *spyResolver {
	return &spyResolver{inner: fallback.NewDefaultProvider().WithoutLatency()}
}

func (s *spyResolver) Resolve(ctx context.Context, endpoint string, req types.Envelope) (*types.Response, error) {
	s.mu.Lock()
	s.resolved = append(s.resolved, endpoint)
	s.mu.Unlock()
	return s.inner.Resolve(ctx, endpoint, req)
}

func (s *spyResolver) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.resolved)
}

// recordingNotifier collects notifications
type recordingNotifier struct {
	mu    sync.Mutex
	notes []notify.Notification
}

func (n *recordingNotifier) Notify(note notify.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, note)
}

func (n *recordingNotifier) All() []notify.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Notification(nil), n.notes...)
}

type routerFixture struct {
	router   *Router
	resolver *spyResolver
	notifier *recordingNotifier
	configs  *config.ConfigStore
}

// newFixture builds a router with fast retries and the given config changes
func newFixture(t *testing.T, caller types.Caller, update types.ConfigUpdate, opts ...Option) *routerFixture {
	t.Helper()

	configs := config.NewConfigStore(config.NewMemoryStore(), config.WithLogger(quietLogger))
	base := types.ConfigUpdate{RetryDelayMs: types.Int(1)}
	_, err := configs.Update(testutil.Context(t), base)
	require.NoError(t, err)
	if !update.IsEmpty() {
		_, err = configs.Update(testutil.Context(t), update)
		require.NoError(t, err)
	}

	f := &routerFixture{
		resolver: newSpyResolver(),
		notifier: &recordingNotifier{},
		configs:  configs,
	}
	all := append([]Option{
		WithConfigStore(configs),
		WithFallbacks(f.resolver),
		WithNotifier(f.notifier),
		WithLogger(quietLogger),
	}, opts...)

	f.router, err = New(testutil.Context(t), caller, all...)
	require.NoError(t, err)
	t.Cleanup(f.router.Stop)
	return f
}
