package player

import (
	"math/rand/v2"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/aria-player/aria/internal/models"
	"github.com/aria-player/aria/internal/shared"
)

// MediaPort is the adapter contract the engine drives. Satisfied by
// *media.Adapter; tests substitute a fake.
type MediaPort interface {
	Load(ref string) uint64
	Play()
	Pause()
	Seek(seconds float64)
	SetVolume(v float64)
	Unload()
	Close() error
}

// Engine is the centralized playback state machine.
//
// It owns the queue and all transport state and is the only component that
// issues commands to the media adapter. Queue operations against an empty
// queue are defined no-ops, never errors.
type Engine struct {
	mu      sync.Mutex
	adapter MediaPort
	logger  *log.Logger

	queue    []models.Track
	current  *models.Track
	playing  bool
	position float64
	duration float64
	volume   float64
	shuffle  bool
	repeat   models.RepeatMode

	// gen is the generation token of the load whose callbacks we accept.
	gen uint64

	// failStreak counts consecutive automatic load failures, so a queue of
	// unplayable tracks cannot auto-skip forever.
	failStreak int

	// randIntN picks shuffle indexes; replaced in tests.
	randIntN func(n int) int

	onChange func()
}

// EngineOpts contains construction options for an Engine.
type EngineOpts struct {
	Adapter  MediaPort
	Logger   *log.Logger
	Volume   float64       // initial volume, clamped to [0, 1]
	OnChange func()        // invoked after every externally visible state change
	RandIntN func(int) int // shuffle source, defaults to math/rand/v2
}

// NewEngine creates an Engine driving the given adapter.
func NewEngine(opts EngineOpts) *Engine {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.RandIntN == nil {
		opts.RandIntN = rand.IntN
	}
	e := &Engine{
		adapter:  opts.Adapter,
		logger:   opts.Logger,
		volume:   shared.Clamp01(opts.Volume),
		randIntN: opts.RandIntN,
		onChange: opts.OnChange,
	}
	e.adapter.SetVolume(e.volume)
	return e
}

// PlayTrack plays the given track. If it is already the current track this
// is equivalent to TogglePlay. Otherwise the track becomes current, playback
// starts, and the track is appended to the queue unless a track with the
// same ID is already queued.
func (e *Engine) PlayTrack(track models.Track) {
	e.mu.Lock()

	if e.current != nil && e.current.ID == track.ID {
		e.mu.Unlock()
		e.TogglePlay()
		return
	}

	if e.indexOfLocked(track.ID) < 0 {
		e.queue = append(e.queue, track)
	}

	e.failStreak = 0
	e.startLocked(track)
	e.mu.Unlock()
	e.notify()
}

// TogglePlay flips the playing flag. A no-op when no track is selected.
func (e *Engine) TogglePlay() {
	e.mu.Lock()
	if e.current == nil {
		e.mu.Unlock()
		return
	}
	e.playing = !e.playing
	playing := e.playing
	if playing {
		e.adapter.Play()
	} else {
		e.adapter.Pause()
	}
	e.mu.Unlock()
	e.notify()
}

// Next advances to the next track according to the shuffle and repeat
// policy. A no-op on an empty queue.
//
// With shuffle off and repeat off, calling Next from the last queue index
// stops playback instead of wrapping; repeat all wraps to index 0.
func (e *Engine) Next() {
	e.mu.Lock()
	e.failStreak = 0
	e.nextLocked()
	e.mu.Unlock()
	e.notify()
}

// nextLocked implements Next. Caller holds mu.
func (e *Engine) nextLocked() {
	n := len(e.queue)
	if n == 0 {
		return
	}

	currentIdx := -1
	if e.current != nil {
		currentIdx = e.indexOfLocked(e.current.ID)
	}

	var idx int
	if e.shuffle {
		idx = e.randIntN(n)
		// Deterministic de-duplication: never replay the same index when
		// another track exists, without re-rolling.
		if n > 1 && idx == currentIdx {
			idx = (idx + 1) % n
		}
	} else {
		if currentIdx == n-1 && e.repeat == models.RepeatOff {
			e.playing = false
			e.adapter.Pause()
			return
		}
		idx = (currentIdx + 1) % n
	}

	e.startLocked(e.queue[idx])
}

// Previous moves to the previous track. Always wraps, ignoring shuffle and
// repeat. A no-op on an empty queue.
func (e *Engine) Previous() {
	e.mu.Lock()
	n := len(e.queue)
	if n == 0 {
		e.mu.Unlock()
		return
	}

	currentIdx := -1
	if e.current != nil {
		currentIdx = e.indexOfLocked(e.current.ID)
	}
	idx := (currentIdx - 1 + n) % n

	e.failStreak = 0
	e.startLocked(e.queue[idx])
	e.mu.Unlock()
	e.notify()
}

// Seek forwards to the adapter and updates the reported position
// immediately rather than waiting for the next time tick. A no-op when no
// track is selected.
func (e *Engine) Seek(seconds float64) {
	e.mu.Lock()
	if e.current == nil {
		e.mu.Unlock()
		return
	}
	if seconds < 0 {
		seconds = 0
	}
	if e.duration > 0 && seconds > e.duration {
		seconds = e.duration
	}
	e.position = seconds
	e.adapter.Seek(seconds)
	e.mu.Unlock()
	e.notify()
}

// SetVolume clamps v to [0, 1], stores it and forwards it to the adapter.
func (e *Engine) SetVolume(v float64) {
	e.mu.Lock()
	e.volume = shared.Clamp01(v)
	e.adapter.SetVolume(e.volume)
	e.mu.Unlock()
	e.notify()
}

// ToggleShuffle flips the shuffle flag. Pure policy; current playback is
// unaffected.
func (e *Engine) ToggleShuffle() {
	e.mu.Lock()
	e.shuffle = !e.shuffle
	e.mu.Unlock()
	e.notify()
}

// CycleRepeatMode rotates off → all → one → off.
func (e *Engine) CycleRepeatMode() {
	e.mu.Lock()
	e.repeat = e.repeat.Cycle()
	e.mu.Unlock()
	e.notify()
}

// Enqueue appends a track unconditionally; duplicates are permitted here,
// unlike PlayTrack's dedupe-on-append.
func (e *Engine) Enqueue(track models.Track) {
	e.mu.Lock()
	e.queue = append(e.queue, track)
	e.mu.Unlock()
	e.notify()
}

// ReplaceQueue replaces the queue wholesale. The current track and playing
// state are left untouched.
func (e *Engine) ReplaceQueue(tracks []models.Track) {
	e.mu.Lock()
	e.queue = make([]models.Track, len(tracks))
	copy(e.queue, tracks)
	e.mu.Unlock()
	e.notify()
}

// Queue returns a copy of the queue.
func (e *Engine) Queue() []models.Track {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.Track, len(e.queue))
	copy(out, e.queue)
	return out
}

// Close disposes the engine and tears down the adapter, stopping its
// polling timer.
func (e *Engine) Close() error {
	e.mu.Lock()
	e.playing = false
	e.current = nil
	e.mu.Unlock()
	return e.adapter.Close()
}

// HandleReady re-asserts the desired volume and transport state once the
// adapter reports readiness.
func (e *Engine) HandleReady(gen uint64) {
	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		return
	}
	e.adapter.SetVolume(e.volume)
	if e.current != nil && e.playing {
		e.adapter.Play()
	}
	e.mu.Unlock()
}

// HandleStateChange applies an adapter state transition. The ended state is
// the sole terminal signal: with repeat one the current track replays,
// otherwise the queue advances through the same policy as Next.
func (e *Engine) HandleStateChange(gen uint64, state models.PlayerState) {
	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		return
	}

	switch state {
	case models.StateEnded:
		if e.repeat == models.RepeatOne && e.current != nil {
			// Repeat-one bypasses queue advancement entirely.
			e.startLocked(*e.current)
		} else {
			e.nextLocked()
		}
	case models.StatePlaying:
		e.playing = true
	case models.StatePaused:
		e.playing = false
	}
	e.mu.Unlock()
	e.notify()
}

// HandleTimeTick records the polled position, keeping it within the known
// duration.
func (e *Engine) HandleTimeTick(gen uint64, seconds float64) {
	e.mu.Lock()
	if gen != e.gen || e.current == nil {
		e.mu.Unlock()
		return
	}
	if e.duration > 0 && seconds > e.duration {
		seconds = e.duration
	}
	e.position = seconds
	e.mu.Unlock()
	e.notify()
}

// HandleDurationKnown records the authoritative duration from the adapter.
func (e *Engine) HandleDurationKnown(gen uint64, seconds float64) {
	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		return
	}
	e.duration = seconds
	if e.position > e.duration && e.duration > 0 {
		e.position = e.duration
	}
	e.mu.Unlock()
	e.notify()
}

// HandleLoadError reacts to a failed load: the track cannot be advanced to
// automatically, so the engine skips to the next queue entry instead of
// stalling. After a full cycle of consecutive failures playback stops.
func (e *Engine) HandleLoadError(gen uint64, ref string, err error) {
	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		return
	}

	e.logger.Warn("track load failed, skipping", "ref", ref, "err", err)

	e.failStreak++
	if e.failStreak >= len(e.queue) {
		e.playing = false
		e.adapter.Pause()
		e.mu.Unlock()
		e.notify()
		return
	}

	e.nextLocked()
	e.mu.Unlock()
	e.notify()
}

// startLocked makes track current and starts playback: position resets,
// duration becomes unknown until the adapter reports it, and a fresh load
// generation is opened. Caller holds mu.
func (e *Engine) startLocked(track models.Track) {
	t := track
	e.current = &t
	e.playing = true
	e.position = 0
	e.duration = 0
	e.gen = e.adapter.Load(track.SourceRef)
	e.adapter.Play()
}

// indexOfLocked returns the queue index of the given track ID, -1 when
// absent. Caller holds mu.
func (e *Engine) indexOfLocked(id string) int {
	for i := range e.queue {
		if e.queue[i].ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) notify() {
	if e.onChange != nil {
		e.onChange()
	}
}
