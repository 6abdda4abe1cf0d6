package storage

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

// FileBackend persists one document per key under a base directory. It backs
// the durable variant: entries survive restarts and are visible to every
// process pointed at the same directory.
type FileBackend struct {
	dir string
}

// NewFileBackend ensures dir exists and returns a backend rooted there.
func NewFileBackend(dir string) (*FileBackend, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage: directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", dir, err)
	}
	return &FileBackend{dir: dir}, nil
}

// Dir returns the base directory entries are stored under.
func (b *FileBackend) Dir() string {
	if b == nil {
		return ""
	}
	return b.dir
}

// Get returns the document stored under key.
func (b *FileBackend) Get(key string) (string, bool) {
	if b == nil {
		return "", false
	}
	data, err := os.ReadFile(b.path(key))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// Set writes value under key. The write goes through a temporary file and a
// rename so concurrent readers never observe a partial document.
func (b *FileBackend) Set(key, value string) error {
	if b == nil {
		return ErrUnavailable
	}
	target := b.path(key)
	tmp, err := os.CreateTemp(b.dir, ".write-*")
	if err != nil {
		return fmt.Errorf("storage: write %q: %w", key, err)
	}
	name := tmp.Name()
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("storage: write %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("storage: write %q: %w", key, err)
	}
	if err := os.Rename(name, target); err != nil {
		os.Remove(name)
		return fmt.Errorf("storage: write %q: %w", key, err)
	}
	return nil
}

// Remove deletes the document under key. Missing keys are ignored.
func (b *FileBackend) Remove(key string) error {
	if b == nil {
		return ErrUnavailable
	}
	if err := os.Remove(b.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: remove %q: %w", key, err)
	}
	return nil
}

func (b *FileBackend) path(key string) string {
	return filepath.Join(b.dir, url.PathEscape(key)+".json")
}

func keyFromFilename(name string) (string, bool) {
	base := filepath.Base(name)
	ext := filepath.Ext(base)
	if ext != ".json" {
		return "", false
	}
	key, err := url.PathUnescape(base[:len(base)-len(ext)])
	if err != nil {
		return "", false
	}
	return key, true
}
