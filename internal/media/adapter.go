package media

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/aria-player/aria/internal/shared"
)

// pollInterval is how often the adapter samples the backend position while a
// track is loaded.
const pollInterval = 100 * time.Millisecond

// Adapter mediates between the playback engine and an asynchronously
// initializing Backend.
//
// Commands issued before the backend reports ready are never fatal: loads
// are deferred and re-issued on readiness, and the desired play/pause and
// volume state is re-applied once ready. Position polling starts when a
// load succeeds and stops when the track is unloaded or the adapter is
// closed, so no timers leak.
type Adapter struct {
	mu      sync.Mutex
	backend Backend
	events  Events
	logger  *log.Logger

	ready     bool
	readySeen bool
	gen       uint64 // generation of the most recent Load

	loadedRef  string // ref currently loaded ("" when none)
	pendingRef string // load deferred until readiness

	wantPlaying bool
	wantVolume  float64
	haveVolume  bool

	durationKnown bool
	pollStop      chan struct{} // non-nil while the poller runs

	done   chan struct{}
	closed bool
}

// NewAdapter creates an Adapter over the given backend and starts consuming
// its event stream. Callbacks are registered afterwards with Bind, breaking
// the construction cycle between the adapter and its consumer.
func NewAdapter(backend Backend, logger *log.Logger) *Adapter {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	a := &Adapter{
		backend: backend,
		logger:  logger,
		done:    make(chan struct{}),
	}
	go a.pump()
	return a
}

// Bind registers the consumer callbacks. If the backend became ready before
// Bind, readiness is re-delivered so the consumer can assert its desired
// state.
func (a *Adapter) Bind(events Events) {
	a.mu.Lock()
	a.events = events
	readySeen := a.readySeen
	gen := a.gen
	a.mu.Unlock()

	if readySeen && events.OnReady != nil {
		events.OnReady(gen)
	}
}

// callbacks returns the bound callbacks for invocation outside the lock.
func (a *Adapter) callbacks() Events {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.events
}

// Load asks the backend to load the given source reference and returns the
// generation token for this load. If the backend is not ready yet the load
// is deferred and re-issued on readiness under the same token.
//
// Load failures are reported asynchronously through Events.OnLoadError,
// never as a synchronous error, so a caller may hold its own lock across
// Load and cannot hang waiting on a broken load.
func (a *Adapter) Load(ref string) uint64 {
	a.mu.Lock()
	a.gen++
	gen := a.gen
	a.durationKnown = false

	if !a.ready {
		a.pendingRef = ref
		a.mu.Unlock()
		return gen
	}

	err := a.backend.Load(ref)
	if err != nil {
		a.loadedRef = ""
		a.stopPollLocked()
		a.mu.Unlock()
		a.logger.Warn("media load failed", "ref", ref, "err", err)
		go a.emitLoadError(gen, ref, err)
		return gen
	}

	a.loadedRef = ref
	a.startPollLocked(gen)
	a.mu.Unlock()
	return gen
}

// Play resumes playback. A no-op before readiness; the desired state is
// re-applied when the backend becomes ready.
func (a *Adapter) Play() {
	a.mu.Lock()
	a.wantPlaying = true
	ready := a.ready
	a.mu.Unlock()

	if !ready {
		return
	}
	if err := a.backend.Play(); err != nil {
		a.logger.Warn("media play failed", "err", err)
	}
}

// Pause pauses playback. A no-op before readiness.
func (a *Adapter) Pause() {
	a.mu.Lock()
	a.wantPlaying = false
	ready := a.ready
	a.mu.Unlock()

	if !ready {
		return
	}
	if err := a.backend.Pause(); err != nil {
		a.logger.Warn("media pause failed", "err", err)
	}
}

// Seek moves the playback position. Dropped before readiness; the engine
// already reports the seek target optimistically.
func (a *Adapter) Seek(seconds float64) {
	a.mu.Lock()
	ready := a.ready
	a.mu.Unlock()

	if !ready {
		return
	}
	if err := a.backend.Seek(seconds); err != nil {
		a.logger.Warn("media seek failed", "seconds", seconds, "err", err)
	}
}

// SetVolume clamps v to [0, 1] and applies it, remembering the value for
// re-application if the backend is not ready yet.
func (a *Adapter) SetVolume(v float64) {
	v = shared.Clamp01(v)

	a.mu.Lock()
	a.wantVolume = v
	a.haveVolume = true
	ready := a.ready
	a.mu.Unlock()

	if !ready {
		return
	}
	if err := a.backend.SetVolume(v); err != nil {
		a.logger.Warn("media set volume failed", "volume", v, "err", err)
	}
}

// Unload drops the current track and stops position polling.
func (a *Adapter) Unload() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loadedRef = ""
	a.pendingRef = ""
	a.stopPollLocked()
}

// Close tears the adapter down: polling stops, the event pump exits and the
// backend is closed. Safe to call more than once.
func (a *Adapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.stopPollLocked()
	close(a.done)
	a.mu.Unlock()

	return a.backend.Close()
}

// pump consumes backend events and translates them into adapter callbacks.
func (a *Adapter) pump() {
	for {
		select {
		case <-a.done:
			return
		case ev, ok := <-a.backend.Events():
			if !ok {
				return
			}
			a.handle(ev)
		}
	}
}

func (a *Adapter) handle(ev BackendEvent) {
	switch ev.Kind {
	case EventReady:
		a.handleReady()
	case EventStateChange:
		a.mu.Lock()
		gen := a.gen
		a.mu.Unlock()
		if cb := a.callbacks(); cb.OnStateChange != nil {
			cb.OnStateChange(gen, ev.State)
		}
	case EventLoadFailed:
		a.mu.Lock()
		gen := a.gen
		a.loadedRef = ""
		a.stopPollLocked()
		a.mu.Unlock()
		a.emitLoadError(gen, ev.Ref, ev.Err)
	}
}

// handleReady replays the remembered desired state: deferred load first,
// then volume, then transport.
func (a *Adapter) handleReady() {
	a.mu.Lock()
	a.ready = true
	a.readySeen = true
	gen := a.gen
	ref := a.pendingRef
	a.pendingRef = ""
	volume, haveVolume := a.wantVolume, a.haveVolume
	playing := a.wantPlaying
	a.mu.Unlock()

	if ref != "" {
		if err := a.backend.Load(ref); err != nil {
			a.logger.Warn("media deferred load failed", "ref", ref, "err", err)
			a.emitLoadError(gen, ref, err)
			ref = ""
		}
	}

	a.mu.Lock()
	if ref != "" {
		if a.gen == gen {
			a.loadedRef = ref
			a.startPollLocked(gen)
		} else {
			// A newer Load arrived while the deferred load was re-issued;
			// its own path owns the poller now.
			ref = ""
		}
	}
	a.mu.Unlock()

	if haveVolume {
		if err := a.backend.SetVolume(volume); err != nil {
			a.logger.Warn("media set volume failed", "volume", volume, "err", err)
		}
	}
	if ref != "" && playing {
		if err := a.backend.Play(); err != nil {
			a.logger.Warn("media play failed", "err", err)
		}
	}

	if cb := a.callbacks(); cb.OnReady != nil {
		cb.OnReady(gen)
	}
}

// startPollLocked starts the position poller for the given generation.
// Any previous poller is stopped first. Caller holds mu.
func (a *Adapter) startPollLocked(gen uint64) {
	a.stopPollLocked()
	stop := make(chan struct{})
	a.pollStop = stop
	go a.poll(gen, stop)
}

// stopPollLocked stops the position poller if one is running. Caller holds mu.
func (a *Adapter) stopPollLocked() {
	if a.pollStop != nil {
		close(a.pollStop)
		a.pollStop = nil
	}
}

// poll samples the backend position every pollInterval and reports ticks and
// the duration once it becomes known.
func (a *Adapter) poll(gen uint64, stop chan struct{}) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-a.done:
			return
		case <-ticker.C:
		}

		pos, err := a.backend.Position()
		if err != nil {
			continue
		}
		if cb := a.callbacks(); cb.OnTimeTick != nil {
			cb.OnTimeTick(gen, pos)
		}

		a.mu.Lock()
		known := a.durationKnown
		a.mu.Unlock()
		if known {
			continue
		}

		dur, err := a.backend.Duration()
		if err != nil || dur <= 0 {
			continue
		}
		a.mu.Lock()
		a.durationKnown = true
		a.mu.Unlock()
		if cb := a.callbacks(); cb.OnDurationKnown != nil {
			cb.OnDurationKnown(gen, dur)
		}
	}
}

func (a *Adapter) emitLoadError(gen uint64, ref string, err error) {
	if cb := a.callbacks(); cb.OnLoadError != nil {
		cb.OnLoadError(gen, ref, err)
	}
}
