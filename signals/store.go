package signals

import (
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-persist/internal/clone"
)

// DetachFunc removes a previously installed watch.
type DetachFunc func()

// Store holds named reactive values. All mutations funnel through merge
// patches so watchers observe one notification per logical change, and
// batches collapse many key updates into a single cycle.
//
// The store is designed for the page model it mirrors: a single cooperative
// goroutine driving activations and change notifications. The internal mutex
// guards map state, not watcher ordering.
type Store struct {
	mu       sync.Mutex
	values   map[string]any
	watchers map[int]*watcher
	order    []int
	nextID   int
	batch    int
	dirty    map[string]struct{}
	running  *watcher
}

type watcher struct {
	id   int
	fn   func()
	deps map[string]struct{}
}

func (w *watcher) depends(names []string) bool {
	for _, name := range names {
		if _, ok := w.deps[name]; ok {
			return true
		}
	}
	return false
}

// NewStore constructs an empty signal store.
func NewStore() *Store {
	return &Store{
		values:   make(map[string]any),
		watchers: make(map[int]*watcher),
		dirty:    make(map[string]struct{}),
	}
}

// Get resolves a signal by name or dotted path. Reads performed while a
// watch computation is running are recorded as dependencies of that
// computation, whether or not the signal currently resolves.
func (s *Store) Get(path string) (any, bool) {
	root, rest, _ := strings.Cut(path, ".")
	s.track(root)
	s.mu.Lock()
	value, ok := s.values[root]
	s.mu.Unlock()
	if !ok {
		return nil, false
	}
	if rest == "" {
		return clone.Value(value), true
	}
	for _, segment := range strings.Split(rest, ".") {
		nested, ok := value.(map[string]any)
		if !ok {
			return nil, false
		}
		if value, ok = nested[segment]; !ok {
			return nil, false
		}
	}
	return clone.Value(value), true
}

// Set assigns one signal, notifying dependent watchers unless a batch is
// open.
func (s *Store) Set(name string, value any) {
	s.ApplyPatch(map[string]any{name: value})
}

// ApplyPatch merges the named values into the store. Map values merge
// recursively with existing map values; everything else replaces. Keys whose
// value is unchanged produce no notification, which keeps repeated
// restoration of the same blob a no-op.
func (s *Store) ApplyPatch(values map[string]any) {
	if len(values) == 0 {
		return
	}
	s.mu.Lock()
	changed := make([]string, 0, len(values))
	for name, incoming := range values {
		next := clone.Value(incoming)
		if existing, ok := s.values[name]; ok {
			if existingMap, ok := existing.(map[string]any); ok {
				if incomingMap, ok := next.(map[string]any); ok {
					next = mergeMaps(clone.Map(existingMap), incomingMap)
				}
			}
			if reflect.DeepEqual(existing, next) {
				continue
			}
		}
		s.values[name] = next
		changed = append(changed, name)
	}
	if len(changed) == 0 {
		s.mu.Unlock()
		return
	}
	if s.batch > 0 {
		for _, name := range changed {
			s.dirty[name] = struct{}{}
		}
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.notify(changed)
}

// BeginBatch suspends change notifications until the matching EndBatch.
// Batches nest; only the outermost EndBatch flushes.
func (s *Store) BeginBatch() {
	s.mu.Lock()
	s.batch++
	s.mu.Unlock()
}

// EndBatch closes the current batch and, when it is the outermost one,
// delivers a single notification cycle covering every signal the batch
// touched.
func (s *Store) EndBatch() {
	s.mu.Lock()
	if s.batch == 0 {
		s.mu.Unlock()
		return
	}
	s.batch--
	if s.batch > 0 || len(s.dirty) == 0 {
		s.mu.Unlock()
		return
	}
	names := make([]string, 0, len(s.dirty))
	for name := range s.dirty {
		names = append(names, name)
	}
	s.dirty = make(map[string]struct{})
	s.mu.Unlock()
	s.notify(names)
}

// Watch installs fn as a reactive computation. It runs once immediately to
// capture its dependencies, then re-runs whenever any signal it read during
// its last run changes. Dependencies are re-captured on every run.
func (s *Store) Watch(fn func()) DetachFunc {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	s.nextID++
	w := &watcher{id: s.nextID, fn: fn, deps: make(map[string]struct{})}
	s.watchers[w.id] = w
	s.order = append(s.order, w.id)
	s.mu.Unlock()

	s.run(w)
	return func() {
		s.mu.Lock()
		delete(s.watchers, w.id)
		s.mu.Unlock()
	}
}

// Names returns every top-level signal name, sorted.
func (s *Store) Names() []string {
	s.mu.Lock()
	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	s.mu.Unlock()
	sort.Strings(names)
	return names
}

// Snapshot returns a deep copy of the current value set.
func (s *Store) Snapshot() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone.Map(s.values)
}

func (s *Store) track(name string) {
	s.mu.Lock()
	if s.running != nil {
		s.running.deps[name] = struct{}{}
	}
	s.mu.Unlock()
}

func (s *Store) notify(names []string) {
	s.mu.Lock()
	pending := make([]*watcher, 0, len(s.watchers))
	for _, id := range s.order {
		if w, ok := s.watchers[id]; ok && w.depends(names) {
			pending = append(pending, w)
		}
	}
	s.mu.Unlock()

	for _, w := range pending {
		s.mu.Lock()
		_, attached := s.watchers[w.id]
		s.mu.Unlock()
		if attached {
			s.run(w)
		}
	}
}

func (s *Store) run(w *watcher) {
	s.mu.Lock()
	w.deps = make(map[string]struct{})
	prev := s.running
	s.running = w
	s.mu.Unlock()

	w.fn()

	s.mu.Lock()
	s.running = prev
	s.mu.Unlock()
}

func mergeMaps(dst, src map[string]any) map[string]any {
	for key, value := range src {
		if srcMap, ok := value.(map[string]any); ok {
			if dstMap, ok := dst[key].(map[string]any); ok {
				dst[key] = mergeMaps(dstMap, srcMap)
				continue
			}
		}
		dst[key] = value
	}
	return dst
}
