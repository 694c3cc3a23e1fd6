package config

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/cecil-the-coder/edge-function-kit/pkg/types"
)

// DefaultKey is the storage key holding the serialized RouterConfig
const DefaultKey = "edge_function_router_config"

// ChangeHook is called after the effective config changed
type ChangeHook func(old, updated types.RouterConfig)

// ConfigStore holds the effective RouterConfig and persists it
type ConfigStore struct {
	store  Store
	codec  Codec
	key    string
	logger *log.Logger

	current atomic.Pointer[types.RouterConfig]

	// writeMu serializes Update/Save/Reload so merges never interleave
	writeMu sync.Mutex

	hooksMu sync.RWMutex
	hooks   []ChangeHook
}

// Option configures a ConfigStore
type Option func(*ConfigStore)

// WithCodec overrides the serialization format
func WithCodec(codec Codec) Option {
	return func(c *ConfigStore) {
		if codec != nil {
			c.codec = codec
		}
	}
}

// WithKey overrides the storage key
func WithKey(key string) Option {
	return func(c *ConfigStore) {
		if key != "" {
			c.key = key
		}
	}
}

// WithLogger sets the logger used for load and persistence problems
func WithLogger(logger *log.Logger) Option {
	return func(c *ConfigStore) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewConfigStore creates a store holding the defaults until Load is called.
// A nil Store keeps the config in memory only.
func NewConfigStore(store Store, opts ...Option) *ConfigStore {
	if store == nil {
		store = NewMemoryStore()
	}
	c := &ConfigStore{
		store:  store,
		codec:  JSONCodec{},
		key:    DefaultKey,
		logger: log.Default(),
	}
	if p, ok := store.(codecPreferrer); ok {
		c.codec = p.PreferredCodec()
	}
	for _, opt := range opts {
		opt(c)
	}

	defaults := types.DefaultRouterConfig()
	c.current.Store(&defaults)
	return c
}

// Key returns the storage key
func (c *ConfigStore) Key() string {
	return c.key
}

// Current returns the effective config without locking
func (c *ConfigStore) Current() types.RouterConfig {
	return *c.current.Load()
}

// OnChange registers a hook fired synchronously after every change
func (c *ConfigStore) OnChange(hook ChangeHook) {
	c.hooksMu.Lock()
	defer c.hooksMu.Unlock()
	c.hooks = append(c.hooks, hook)
}

// Load reads the persisted config, falling back to defaults when nothing is
// stored or the stored value cannot be used. It never fails.
func (c *ConfigStore) Load(ctx context.Context) types.RouterConfig {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	cfg, err := c.read(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.logger.Printf("[ConfigStore] Using defaults, stored config unusable: %v", err)
		}
		cfg = types.DefaultRouterConfig()
	}
	c.current.Store(&cfg)
	return cfg
}

// Save validates, persists and applies a complete config
func (c *ConfigStore) Save(ctx context.Context, cfg types.RouterConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	c.writeMu.Lock()
	old := c.Current()
	persistErr := c.write(ctx, cfg)
	c.current.Store(&cfg)
	c.writeMu.Unlock()

	c.fire(old, cfg)
	return persistErr
}

// Update merges a partial config into the effective one, persists and applies
// it. An invalid result is rejected and the prior config stays in effect. A
// persistence failure is returned, but the merged config is still applied.
func (c *ConfigStore) Update(ctx context.Context, update types.ConfigUpdate) (types.RouterConfig, error) {
	c.writeMu.Lock()
	old := c.Current()
	merged := update.Apply(old)
	if err := merged.Validate(); err != nil {
		c.writeMu.Unlock()
		return old, fmt.Errorf("invalid config update: %w", err)
	}
	persistErr := c.write(ctx, merged)
	c.current.Store(&merged)
	c.writeMu.Unlock()

	c.fire(old, merged)
	return merged, persistErr
}

// Reload re-reads the persisted config and applies it when it differs from
// the effective one. A missing record leaves the effective config untouched.
func (c *ConfigStore) Reload(ctx context.Context) (bool, error) {
	c.writeMu.Lock()
	cfg, err := c.read(ctx)
	if err != nil {
		c.writeMu.Unlock()
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	old := c.Current()
	if cfg == old {
		c.writeMu.Unlock()
		return false, nil
	}
	c.current.Store(&cfg)
	c.writeMu.Unlock()

	c.fire(old, cfg)
	return true, nil
}

func (c *ConfigStore) read(ctx context.Context) (types.RouterConfig, error) {
	data, err := c.store.Get(ctx, c.key)
	if err != nil {
		return types.RouterConfig{}, err
	}

	// start from defaults so fields missing in older records keep safe values
	cfg := types.DefaultRouterConfig()
	if err := c.codec.Unmarshal(data, &cfg); err != nil {
		return types.RouterConfig{}, fmt.Errorf("failed to parse %s config: %w", c.codec.Name(), err)
	}
	if err := cfg.Validate(); err != nil {
		return types.RouterConfig{}, err
	}
	return cfg, nil
}

func (c *ConfigStore) write(ctx context.Context, cfg types.RouterConfig) error {
	data, err := c.codec.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := c.store.Put(ctx, c.key, data); err != nil {
		c.logger.Printf("[ConfigStore] Failed to persist config: %v", err)
		return fmt.Errorf("config applied but not persisted: %w", err)
	}
	return nil
}

func (c *ConfigStore) fire(old, updated types.RouterConfig) {
	if old == updated {
		return
	}
	c.hooksMu.RLock()
	hooks := make([]ChangeHook, len(c.hooks))
	copy(hooks, c.hooks)
	c.hooksMu.RUnlock()

	for _, hook := range hooks {
		hook(old, updated)
	}
}
