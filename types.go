package persist

import (
	"github.com/goliatone/go-persist/storage"
)

const (
	// DefaultStorageKey namespaces every persisted blob. Directives with a
	// custom key store under DefaultStorageKey + "-" + key instead.
	DefaultStorageKey = "datastar"

	storageKeyPrefix = DefaultStorageKey + "-"

	// SessionModifier switches a directive to the session backend variant.
	SessionModifier = "session"
)

// DetachFunc removes the reactive watch installed by Activate. Detaching
// never rolls back storage writes already committed.
type DetachFunc func()

// ElementScope exposes the declared signal set of the element owning a
// directive. Wildcard directives re-derive their selection through it on
// every watch firing, so implementations must reflect live element state on
// each call rather than a snapshot taken at activation.
type ElementScope interface {
	SignalNames() []string
}

// ElementScopeFunc adapts a function to ElementScope.
type ElementScopeFunc func() []string

// SignalNames implements ElementScope.
func (f ElementScopeFunc) SignalNames() []string {
	if f == nil {
		return nil
	}
	return f()
}

// Config is the immutable result of resolving one persistence directive.
// Two configs sharing a storage key and backend share one serialized blob;
// the engine's read-merge-write discipline keeps their writes from clobbering
// each other.
type Config struct {
	id          string
	backend     storage.Backend
	kind        storage.Kind
	storageKey  string
	signalNames []string
	wildcard    bool
}

// ID returns the unique identifier assigned when the directive resolved.
func (c *Config) ID() string {
	if c == nil {
		return ""
	}
	return c.id
}

// Backend returns the storage handle the directive resolved to.
func (c *Config) Backend() storage.Backend {
	if c == nil {
		return nil
	}
	return c.backend
}

// Kind reports which backend variant the directive resolved to.
func (c *Config) Kind() storage.Kind {
	if c == nil {
		return storage.KindDurable
	}
	return c.kind
}

// StorageKey returns the namespaced key the blob is stored under.
func (c *Config) StorageKey() string {
	if c == nil {
		return ""
	}
	return c.storageKey
}

// SignalNames returns a copy of the explicit signal list. Empty iff the
// directive is in wildcard mode.
func (c *Config) SignalNames() []string {
	if c == nil || len(c.signalNames) == 0 {
		return nil
	}
	return append([]string(nil), c.signalNames...)
}

// Wildcard reports whether the selection is derived from the owning element
// instead of a fixed list.
func (c *Config) Wildcard() bool {
	return c != nil && c.wildcard
}
