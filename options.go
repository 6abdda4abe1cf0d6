package persist

import (
	"github.com/goliatone/go-persist/pkg/activity"
	"github.com/goliatone/go-persist/storage"
)

// Acquirer yields the shared backend handle for a requested variant.
// *storage.Acquirer satisfies it; tests substitute failing probes.
type Acquirer interface {
	Acquire(kind storage.Kind) (storage.Backend, error)
}

// Option configures an Engine.
type Option func(*engineConfig)

type engineConfig struct {
	acquirer Acquirer
	loaded   *LoadedKeys
	logger   SyncLogger
	hooks    activity.Hooks
	channel  string
}

func applyOptions(opts []Option) engineConfig {
	cfg := engineConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithAcquirer supplies the storage acquirer directives resolve against.
// Without it the engine only offers a session (in-memory) backend: the
// library never picks a durable location on its own.
func WithAcquirer(acquirer Acquirer) Option {
	return func(cfg *engineConfig) {
		cfg.acquirer = acquirer
	}
}

// WithLoadedKeys shares a restoration registry across engines, or injects a
// fresh one per test.
func WithLoadedKeys(loaded *LoadedKeys) Option {
	return func(cfg *engineConfig) {
		cfg.loaded = loaded
	}
}

// WithSyncLogger attaches a sync logger to the engine.
func WithSyncLogger(logger SyncLogger) Option {
	return func(cfg *engineConfig) {
		if logger == nil {
			cfg.logger = noopSyncLogger{}
			return
		}
		cfg.logger = logger
	}
}

// WithActivityHooks attaches activity hooks to the engine. Hooks are cloned
// and nil entries dropped to preserve immutability.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := cloneActivityHooks(hooks)
	return func(cfg *engineConfig) {
		cfg.hooks = normalized
	}
}

// WithActivityChannel overrides the default channel stamped on emitted
// activity events.
func WithActivityChannel(channel string) Option {
	return func(cfg *engineConfig) {
		cfg.channel = channel
	}
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]activity.Hook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return activity.Hooks(normalized)
}
