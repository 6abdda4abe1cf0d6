package signals

import (
	"reflect"
	"testing"
)

func TestGetResolvesDottedPaths(t *testing.T) {
	store := NewStore()
	store.Set("user", map[string]any{
		"name": "john",
		"prefs": map[string]any{
			"theme": "dark",
		},
	})

	cases := []struct {
		path  string
		want  any
		found bool
	}{
		{path: "user.name", want: "john", found: true},
		{path: "user.prefs.theme", want: "dark", found: true},
		{path: "user.prefs.missing", found: false},
		{path: "user.name.deeper", found: false},
		{path: "missing", found: false},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			got, ok := store.Get(tc.path)
			if ok != tc.found {
				t.Fatalf("found=%v, want %v", ok, tc.found)
			}
			if tc.found && !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestGetReturnsDetachedCopies(t *testing.T) {
	store := NewStore()
	store.Set("prefs", map[string]any{"theme": "dark"})

	value, ok := store.Get("prefs")
	if !ok {
		t.Fatal("expected prefs to resolve")
	}
	value.(map[string]any)["theme"] = "light"

	current, _ := store.Get("prefs")
	if current.(map[string]any)["theme"] != "dark" {
		t.Fatal("mutating a read value leaked into the store")
	}
}

func TestWatchRunsImmediatelyAndOnChange(t *testing.T) {
	store := NewStore()
	store.Set("count", 1)

	runs := 0
	var seen any
	detach := store.Watch(func() {
		runs++
		seen, _ = store.Get("count")
	})
	if runs != 1 {
		t.Fatalf("expected immediate run, got %d", runs)
	}

	store.Set("count", 2)
	if runs != 2 || seen != 2 {
		t.Fatalf("expected re-run with new value, runs=%d seen=%v", runs, seen)
	}

	store.Set("other", "x")
	if runs != 2 {
		t.Fatalf("unrelated signal triggered watch, runs=%d", runs)
	}

	detach()
	store.Set("count", 3)
	if runs != 2 {
		t.Fatalf("detached watch still ran, runs=%d", runs)
	}
}

func TestWatchTracksMissingSignals(t *testing.T) {
	store := NewStore()

	runs := 0
	store.Watch(func() {
		runs++
		store.Get("later")
	})
	if runs != 1 {
		t.Fatalf("expected immediate run, got %d", runs)
	}

	// Reading an undefined signal still registers a dependency, so the
	// watch fires once the signal is defined.
	store.Set("later", true)
	if runs != 2 {
		t.Fatalf("expected watch to fire on late definition, runs=%d", runs)
	}
}

func TestWatchRetracksDependenciesEachRun(t *testing.T) {
	store := NewStore()
	store.Set("mode", "a")
	store.Set("a", 1)
	store.Set("b", 2)

	runs := 0
	store.Watch(func() {
		runs++
		mode, _ := store.Get("mode")
		if mode == "a" {
			store.Get("a")
		} else {
			store.Get("b")
		}
	})

	store.Set("mode", "b") // run 2: now depends on b, not a
	store.Set("a", 10)
	if runs != 2 {
		t.Fatalf("stale dependency on a still fires, runs=%d", runs)
	}
	store.Set("b", 20)
	if runs != 3 {
		t.Fatalf("expected dependency on b, runs=%d", runs)
	}
}

func TestBatchCoalescesNotifications(t *testing.T) {
	store := NewStore()
	store.Set("a", 0)
	store.Set("b", 0)

	runs := 0
	store.Watch(func() {
		runs++
		store.Get("a")
		store.Get("b")
	})

	store.BeginBatch()
	store.ApplyPatch(map[string]any{"a": 1})
	store.ApplyPatch(map[string]any{"b": 2})
	if runs != 1 {
		t.Fatalf("batch leaked notifications, runs=%d", runs)
	}
	store.EndBatch()
	if runs != 2 {
		t.Fatalf("expected exactly one post-batch cycle, runs=%d", runs)
	}

	a, _ := store.Get("a")
	b, _ := store.Get("b")
	if a != 1 || b != 2 {
		t.Fatalf("batched values not applied: a=%v b=%v", a, b)
	}
}

func TestNestedBatchesFlushOnce(t *testing.T) {
	store := NewStore()
	store.Set("x", 0)

	runs := 0
	store.Watch(func() {
		runs++
		store.Get("x")
	})

	store.BeginBatch()
	store.BeginBatch()
	store.Set("x", 1)
	store.EndBatch()
	if runs != 1 {
		t.Fatalf("inner EndBatch flushed early, runs=%d", runs)
	}
	store.EndBatch()
	if runs != 2 {
		t.Fatalf("expected one flush from outer EndBatch, runs=%d", runs)
	}
}

func TestApplyPatchSkipsUnchangedValues(t *testing.T) {
	store := NewStore()
	store.Set("theme", "dark")

	runs := 0
	store.Watch(func() {
		runs++
		store.Get("theme")
	})

	store.ApplyPatch(map[string]any{"theme": "dark"})
	if runs != 1 {
		t.Fatalf("identical value produced a notification, runs=%d", runs)
	}
}

func TestApplyPatchMergesNestedMaps(t *testing.T) {
	store := NewStore()
	store.Set("user", map[string]any{"name": "john", "theme": "dark"})
	store.ApplyPatch(map[string]any{"user": map[string]any{"theme": "light"}})

	name, _ := store.Get("user.name")
	theme, _ := store.Get("user.theme")
	if name != "john" || theme != "light" {
		t.Fatalf("merge lost sibling keys: name=%v theme=%v", name, theme)
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	store := NewStore()
	store.Set("prefs", map[string]any{"theme": "dark"})

	snapshot := store.Snapshot()
	snapshot["prefs"].(map[string]any)["theme"] = "light"

	theme, _ := store.Get("prefs.theme")
	if theme != "dark" {
		t.Fatal("snapshot mutation leaked into the store")
	}
}

func TestNamesSorted(t *testing.T) {
	store := NewStore()
	store.Set("b", 1)
	store.Set("a", 2)
	store.Set("c", 3)

	if got := store.Names(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("unexpected names %v", got)
	}
}
