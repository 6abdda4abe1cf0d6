package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Event reports an external mutation observed on a durable backend: another
// process rewrote or removed the blob stored under Key.
type Event struct {
	Key     string
	Removed bool
}

// Watch emits the affected storage key whenever another process mutates an
// entry under the backend's directory. Delivery is advisory only: consumers
// get a hint to re-read, never ordering or conflict resolution. The channel
// closes when ctx is cancelled.
func (b *FileBackend) Watch(ctx context.Context) (<-chan Event, error) {
	if b == nil {
		return nil, ErrUnavailable
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("storage: watch %s: %w", b.dir, err)
	}
	if err := watcher.Add(b.dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("storage: watch %s: %w", b.dir, err)
	}

	events := make(chan Event)
	go func() {
		defer close(events)
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				// Temporary files from in-flight atomic writes are skipped;
				// only the final rename surfaces as an event.
				if strings.HasPrefix(filepath.Base(ev.Name), ".write-") {
					continue
				}
				key, ok := keyFromFilename(ev.Name)
				if !ok {
					continue
				}
				if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) && !ev.Op.Has(fsnotify.Remove) {
					continue
				}
				select {
				case events <- Event{Key: key, Removed: ev.Op.Has(fsnotify.Remove)}:
				case <-ctx.Done():
					return
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return events, nil
}
