package storage

import (
	"errors"
	"fmt"
)

// Kind selects which backend variant a directive resolves to.
type Kind int

const (
	// KindDurable survives restarts and is shared by every consumer pointed
	// at the same location.
	KindDurable Kind = iota
	// KindSession lives in process memory and disappears with its owner.
	KindSession
)

func (k Kind) String() string {
	switch k {
	case KindDurable:
		return "durable"
	case KindSession:
		return "session"
	default:
		return "unknown"
	}
}

// Backend is the minimal key/value surface the sync engine needs. Get reports
// absence through its second return rather than an error so call sites can
// treat "no prior data" as a normal outcome.
type Backend interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) error
}

// ErrUnavailable indicates a backend failed its write probe. Directives that
// resolve to an unavailable backend become inert; there is no retry.
var ErrUnavailable = errors.New("storage: backend unavailable")

const sentinelKey = "__storage_probe__"

// Probe verifies the backend accepts writes by storing and immediately
// removing a sentinel entry. Availability cannot be queried declaratively;
// a real write is the only reliable test.
func Probe(backend Backend) error {
	if backend == nil {
		return ErrUnavailable
	}
	if err := backend.Set(sentinelKey, "1"); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := backend.Remove(sentinelKey); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Acquirer hands out the shared backend for each kind after probing it.
// Backends are process wide: every directive that resolves to the same kind
// receives the same handle, which is what lets their writes share one blob.
type Acquirer struct {
	durable Backend
	session Backend
}

// NewAcquirer constructs an Acquirer over the supplied backends. Either may
// be nil, in which case directives requesting that kind resolve to
// ErrUnavailable.
func NewAcquirer(durable, session Backend) *Acquirer {
	return &Acquirer{durable: durable, session: session}
}

// Acquire returns the backend for kind after a successful probe.
func (a *Acquirer) Acquire(kind Kind) (Backend, error) {
	if a == nil {
		return nil, ErrUnavailable
	}
	var backend Backend
	switch kind {
	case KindDurable:
		backend = a.durable
	case KindSession:
		backend = a.session
	default:
		return nil, fmt.Errorf("%w: unknown kind %d", ErrUnavailable, kind)
	}
	if err := Probe(backend); err != nil {
		return nil, err
	}
	return backend, nil
}
