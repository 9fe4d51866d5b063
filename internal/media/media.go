package media

import (
	"github.com/aria-player/aria/internal/models"
)

// BackendEventKind enumerates the asynchronous signals a Backend emits.
type BackendEventKind int

const (
	// EventReady signals that the backend finished its asynchronous
	// initialization and accepts commands.
	EventReady BackendEventKind = iota
	// EventStateChange carries a playback state transition.
	EventStateChange
	// EventLoadFailed signals that a load could not complete.
	EventLoadFailed
)

// BackendEvent is one asynchronous signal from the embedded player.
type BackendEvent struct {
	Kind  BackendEventKind
	State models.PlayerState // valid for EventStateChange
	Ref   string             // valid for EventLoadFailed
	Err   error              // valid for EventLoadFailed
}

// Backend is the low-level contract of the embedded media player.
//
// Implementations are unreliable, asynchronously-initializing external
// resources: commands may fail before EventReady has been observed.
type Backend interface {
	Load(ref string) error
	Play() error
	Pause() error
	Seek(seconds float64) error
	SetVolume(v float64) error // v in [0, 1]
	Position() (float64, error)
	Duration() (float64, error)
	Events() <-chan BackendEvent
	Close() error
}

// Events holds the consumer-facing adapter callbacks. All fields are
// optional; nil callbacks are skipped.
//
// The gen argument is the generation token returned by the Load call the
// event belongs to. Callbacks are invoked without any adapter lock held,
// so they may issue adapter commands.
type Events struct {
	OnReady         func(gen uint64)
	OnStateChange   func(gen uint64, state models.PlayerState)
	OnTimeTick      func(gen uint64, seconds float64)
	OnDurationKnown func(gen uint64, seconds float64)
	OnLoadError     func(gen uint64, ref string, err error)
}
