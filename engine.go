package persist

import (
	"context"
	"sort"
	"time"

	"github.com/goliatone/go-persist/internal/blob"
	"github.com/goliatone/go-persist/pkg/activity"
	"github.com/goliatone/go-persist/storage"
)

// Activate performs the one-time restoration for cfg and installs the
// standing watch that persists future changes. Restoration always completes,
// including its batched apply, before the watch exists, so the first change
// the watch observes reflects post-restoration state.
//
// The returned DetachFunc unregisters the watch; the engine holds no other
// per-directive resources.
func (e *Engine) Activate(cfg *Config, scope ElementScope) DetachFunc {
	if e == nil || e.store == nil || cfg == nil || cfg.backend == nil {
		return func() {}
	}
	e.restore(cfg)
	detach := e.store.Watch(func() {
		e.persistCurrent(cfg, scope)
	})
	return DetachFunc(detach)
}

// Preload restores the given storage keys ahead of directive discovery.
// Hosts whose dispatch mechanism processes markup after signals initialize
// can call it to beat that race; with the per-directive load-before-watch
// ordering it is otherwise unnecessary.
func (e *Engine) Preload(kind storage.Kind, keys ...string) {
	if e == nil || e.store == nil {
		return
	}
	backend, err := e.acquirer.Acquire(kind)
	if err != nil {
		return
	}
	for _, key := range keys {
		e.restore(&Config{backend: backend, kind: kind, storageKey: key, wildcard: true})
	}
}

// restore loads the persisted blob into the signal store once. Absent or
// malformed data is not an error: first-ever page load has no prior blob.
func (e *Engine) restore(cfg *Config) {
	if !e.loaded.MarkLoaded(cfg.kind, cfg.storageKey) {
		return
	}
	start := time.Now()
	text, ok := cfg.backend.Get(cfg.storageKey)
	if !ok {
		return
	}
	values, ok := blob.Decode(text)
	if !ok {
		return
	}
	payload := values
	if !cfg.wildcard {
		payload = blob.Subset(values, cfg.signalNames)
	}
	if len(payload) == 0 {
		return
	}

	// The batch boundary is what makes restoring N signals observably
	// atomic to every other computation on the page.
	e.store.BeginBatch()
	e.store.ApplyPatch(payload)
	e.store.EndBatch()

	restored := payloadNames(payload)
	e.logger.LogSync(SyncLogEvent{
		Op:          SyncOpRestore,
		DirectiveID: cfg.id,
		StorageKey:  cfg.storageKey,
		Backend:     cfg.kind,
		Signals:     restored,
		Duration:    time.Since(start),
	})
	e.emit(activity.BuildRestoredEvent(activity.SyncEventInput{
		StorageKey: cfg.storageKey,
		Backend:    cfg.kind.String(),
		Signals:    restored,
	}))
}

// persistCurrent recomputes the selected value set and merges it into
// storage. It runs on every watch firing, including the initial one that
// captures dependencies.
func (e *Engine) persistCurrent(cfg *Config, scope ElementScope) {
	start := time.Now()
	names := cfg.signalNames
	if cfg.wildcard {
		if scope == nil {
			return
		}
		// Re-derived per firing: signals declared on the element after
		// activation must join the persisted set.
		names = scope.SignalNames()
	}

	values := make(map[string]any, len(names))
	for _, name := range names {
		// A name with no current value is skipped, never aborts the write.
		if value, ok := e.store.Get(name); ok {
			values[name] = value
		}
	}
	if len(values) == 0 {
		return
	}

	existing := map[string]any{}
	if text, ok := cfg.backend.Get(cfg.storageKey); ok {
		if decoded, ok := blob.Decode(text); ok {
			existing = decoded
		}
	}
	merged := blob.Merge(existing, values)
	if len(merged) == 0 {
		return
	}
	text, err := blob.Encode(merged)
	if err == nil {
		err = cfg.backend.Set(cfg.storageKey, text)
	}

	written := payloadNames(values)
	e.logger.LogSync(SyncLogEvent{
		Op:          SyncOpPersist,
		DirectiveID: cfg.id,
		StorageKey:  cfg.storageKey,
		Backend:     cfg.kind,
		Signals:     written,
		Duration:    time.Since(start),
		Err:         err,
	})
	if err != nil {
		// The write is dropped; reactive state is untouched and the next
		// change gets a fresh attempt.
		return
	}
	e.emit(activity.BuildPersistedEvent(activity.SyncEventInput{
		StorageKey: cfg.storageKey,
		Backend:    cfg.kind.String(),
		Signals:    written,
	}))
}

func (e *Engine) emit(event activity.Event) {
	if e.emitter.Enabled() {
		_ = e.emitter.Emit(context.Background(), event)
	}
}

func payloadNames(values map[string]any) []string {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
