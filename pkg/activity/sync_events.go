package activity

import (
	"strings"
	"time"
)

// SyncEventInput describes the common fields for persistence lifecycle
// events.
type SyncEventInput struct {
	ActorID    string
	UserID     string
	Channel    string
	StorageKey string
	Backend    string
	Signals    []string
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildRestoredEvent constructs a normalized activity event for a completed
// restoration (storage into the reactive store).
func BuildRestoredEvent(input SyncEventInput) Event {
	return buildSyncEvent("signals.restored", input)
}

// BuildPersistedEvent constructs a normalized activity event for a completed
// persistence write (reactive store into storage).
func BuildPersistedEvent(input SyncEventInput) Event {
	return buildSyncEvent("signals.persisted", input)
}

// BuildUnavailableEvent constructs an activity event recording that a
// directive resolved to an unavailable backend and went inert.
func BuildUnavailableEvent(input SyncEventInput) Event {
	return buildSyncEvent("persist.unavailable", input)
}

func buildSyncEvent(verb string, input SyncEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if input.Backend != "" {
		metadata = ensureMetadata(metadata)
		metadata["backend"] = input.Backend
	}
	if len(input.Signals) > 0 {
		metadata = ensureMetadata(metadata)
		metadata["signals"] = append([]string{}, input.Signals...)
	}

	objectID := strings.TrimSpace(input.StorageKey)
	if objectID == "" {
		objectID = "storage"
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		ObjectType: "storage",
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
