package persist

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-persist/pkg/activity"
	"github.com/goliatone/go-persist/signals"
	"github.com/goliatone/go-persist/storage"
)

// ErrStorageUnavailable indicates the requested backend failed its probe.
// The directive that asked for it stays inert for its whole lifetime; there
// is no retry and no user-visible failure beyond this diagnostic.
var ErrStorageUnavailable = errors.New("persist: storage unavailable")

// Engine performs the load-then-watch synchronization between a signal store
// and persistent storage. One engine serves every directive on a page; each
// directive contributes its own Config and watch.
type Engine struct {
	store    *signals.Store
	acquirer Acquirer
	loaded   *LoadedKeys
	logger   SyncLogger
	emitter  *activity.Emitter
}

// New constructs an Engine over store. Without WithAcquirer only the session
// variant is available, backed by process memory.
func New(store *signals.Store, opts ...Option) *Engine {
	cfg := applyOptions(opts)
	acquirer := cfg.acquirer
	if acquirer == nil {
		acquirer = storage.NewAcquirer(nil, storage.NewMemoryBackend())
	}
	loaded := cfg.loaded
	if loaded == nil {
		loaded = NewLoadedKeys()
	}
	logger := cfg.logger
	if logger == nil {
		logger = noopSyncLogger{}
	}
	return &Engine{
		store:    store,
		acquirer: acquirer,
		loaded:   loaded,
		logger:   logger,
		emitter: activity.NewEmitter(cfg.hooks, activity.Config{
			Enabled: len(cfg.hooks) > 0,
			Channel: cfg.channel,
		}),
	}
}

// Resolve turns a directive's declared parameters into an immutable Config.
// A nil Config with ErrStorageUnavailable means the directive is inert: the
// caller should not activate and should not surface an error to the page.
func (e *Engine) Resolve(customKey, rawValue string, modifiers []string) (*Config, error) {
	if e == nil {
		return nil, ErrStorageUnavailable
	}
	start := time.Now()
	kind := storage.KindDurable
	if hasModifier(modifiers, SessionModifier) {
		kind = storage.KindSession
	}
	key := storageKeyFor(customKey)

	backend, err := e.acquirer.Acquire(kind)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		e.logger.LogSync(SyncLogEvent{
			Op:         SyncOpResolve,
			StorageKey: key,
			Backend:    kind,
			Duration:   time.Since(start),
			Err:        err,
		})
		e.emit(activity.BuildUnavailableEvent(activity.SyncEventInput{
			StorageKey: key,
			Backend:    kind.String(),
		}))
		return nil, err
	}

	names := splitSignalList(rawValue)
	cfg := &Config{
		id:          uuid.NewString(),
		backend:     backend,
		kind:        kind,
		storageKey:  key,
		signalNames: names,
		wildcard:    len(names) == 0,
	}
	e.logger.LogSync(SyncLogEvent{
		Op:          SyncOpResolve,
		DirectiveID: cfg.id,
		StorageKey:  key,
		Backend:     kind,
		Signals:     names,
		Duration:    time.Since(start),
	})
	return cfg, nil
}

func storageKeyFor(customKey string) string {
	if customKey == "" {
		return DefaultStorageKey
	}
	return storageKeyPrefix + customKey
}

// A value of only commas and whitespace filters down to nothing, which
// deliberately degrades to wildcard "persist everything" semantics.
func splitSignalList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	if len(names) == 0 {
		return nil
	}
	return names
}

func hasModifier(modifiers []string, want string) bool {
	for _, modifier := range modifiers {
		if strings.EqualFold(strings.TrimSpace(modifier), want) {
			return true
		}
	}
	return false
}
