package persist

import (
	"fmt"
	"sync"

	"github.com/goliatone/go-persist/storage"
)

// LoadedKeys remembers which storage keys have already been restored so
// directives sharing a key do not repeat the work. Restoration is idempotent
// without it; the registry only trims redundant loads. Its lifetime matches
// the hosting page: construct one per page, or one per test case.
type LoadedKeys struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

// NewLoadedKeys constructs an empty registry.
func NewLoadedKeys() *LoadedKeys {
	return &LoadedKeys{keys: make(map[string]struct{})}
}

// MarkLoaded records the key for the given backend kind, reporting whether
// this was its first restoration.
func (l *LoadedKeys) MarkLoaded(kind storage.Kind, key string) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.keys == nil {
		l.keys = make(map[string]struct{})
	}
	entry := registryEntry(kind, key)
	if _, ok := l.keys[entry]; ok {
		return false
	}
	l.keys[entry] = struct{}{}
	return true
}

// Loaded reports whether the key has been restored for the given kind.
func (l *LoadedKeys) Loaded(kind storage.Kind, key string) bool {
	if l == nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.keys[registryEntry(kind, key)]
	return ok
}

// Len reports how many keys have been restored.
func (l *LoadedKeys) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.keys)
}

// Blobs under the same key but different backend variants are distinct, so
// entries carry the kind.
func registryEntry(kind storage.Kind, key string) string {
	return fmt.Sprintf("%s:%s", kind, key)
}
