package persist

import (
	"time"

	"github.com/goliatone/go-persist/storage"
)

// SyncOp identifies the phase a log event originates from.
type SyncOp string

const (
	SyncOpResolve SyncOp = "resolve"
	SyncOpRestore SyncOp = "restore"
	SyncOpPersist SyncOp = "persist"
)

// SyncLogEvent describes one synchronization attempt for logging. Err is nil
// for successful operations; every failure recorded here was recovered from,
// the engine never propagates them.
type SyncLogEvent struct {
	Op          SyncOp
	DirectiveID string
	StorageKey  string
	Backend     storage.Kind
	Signals     []string
	Duration    time.Duration
	Err         error
}

// SyncLogger records sync events.
type SyncLogger interface {
	LogSync(SyncLogEvent)
}

// SyncLoggerFunc adapts a function to SyncLogger.
type SyncLoggerFunc func(SyncLogEvent)

// LogSync implements SyncLogger.
func (f SyncLoggerFunc) LogSync(event SyncLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopSyncLogger struct{}

func (noopSyncLogger) LogSync(SyncLogEvent) {}
