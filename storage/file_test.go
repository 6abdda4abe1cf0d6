package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileBackendRoundTrip(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := backend.Get("datastar"); ok {
		t.Fatal("expected missing key")
	}
	if err := backend.Set("datastar", `{"theme":"dark"}`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value, ok := backend.Get("datastar"); !ok || value != `{"theme":"dark"}` {
		t.Fatalf("unexpected value %q found=%v", value, ok)
	}

	if err := backend.Set("datastar", `{"theme":"light"}`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value, _ := backend.Get("datastar"); value != `{"theme":"light"}` {
		t.Fatalf("expected overwrite, got %q", value)
	}

	if err := backend.Remove("datastar"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := backend.Get("datastar"); ok {
		t.Fatal("expected key removed")
	}
	if err := backend.Remove("datastar"); err != nil {
		t.Fatalf("removing a missing key should be silent, got %v", err)
	}
}

func TestFileBackendSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewFileBackend(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := backend.Set("datastar-prefs", `{"a":1}`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reopened, err := NewFileBackend(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value, ok := reopened.Get("datastar-prefs"); !ok || value != `{"a":1}` {
		t.Fatalf("expected entry to survive reopen, got %q found=%v", value, ok)
	}
}

func TestFileBackendEscapesKeys(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewFileBackend(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := backend.Set("datastar-a/b", "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	if filepath.Dir(filepath.Join(dir, entries[0].Name())) != dir {
		t.Fatalf("key escaped the base directory: %q", entries[0].Name())
	}
	if value, ok := backend.Get("datastar-a/b"); !ok || value != "x" {
		t.Fatalf("unexpected value %q found=%v", value, ok)
	}
}

func TestFileBackendLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewFileBackend(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 10; i++ {
		if err := backend.Set("datastar", `{"n":1}`); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected a single document, found %d entries", len(entries))
	}
}

func TestNewFileBackendRequiresDir(t *testing.T) {
	if _, err := NewFileBackend(""); err == nil {
		t.Fatal("expected error for empty directory")
	}
}
