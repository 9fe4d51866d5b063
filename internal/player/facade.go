package player

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/aria-player/aria/internal/library"
	"github.com/aria-player/aria/internal/models"
	"github.com/aria-player/aria/internal/shared"
)

// Snapshot is a single consistent view of the playback state. All fields
// are read under one lock acquisition, so a snapshot never shows a playing
// transport with no current track.
type Snapshot struct {
	Current    *models.Track
	QueueIndex int // index of Current in Queue by ID, -1 when absent
	Queue      []models.Track
	Playing    bool
	Position   float64
	Duration   float64
	Volume     float64
	Shuffle    bool
	Repeat     models.RepeatMode
}

// Facade is the single entry point the UI talks to. It composes the engine,
// the liked-track set and the listening-time accumulator, and drives the
// accumulator from a once-per-second tick while a track is actually playing.
type Facade struct {
	engine    *Engine
	likes     *library.LikeStore
	listening *library.Accumulator
	logger    *log.Logger

	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// FacadeOpts contains construction options for a Facade.
type FacadeOpts struct {
	Engine    *Engine
	Likes     *library.LikeStore
	Listening *library.Accumulator
	Logger    *log.Logger
}

// NewFacade creates a Facade and starts the listening tick loop.
func NewFacade(opts FacadeOpts) *Facade {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	f := &Facade{
		engine:    opts.Engine,
		likes:     opts.Likes,
		listening: opts.Listening,
		logger:    opts.Logger,
		done:      make(chan struct{}),
	}
	if f.listening != nil {
		go f.tickLoop()
	}
	return f
}

// Snapshot captures the current playback state.
func (f *Facade) Snapshot() Snapshot {
	e := f.engine
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{
		QueueIndex: -1,
		Queue:      make([]models.Track, len(e.queue)),
		Playing:    e.playing,
		Position:   e.position,
		Duration:   e.duration,
		Volume:     e.volume,
		Shuffle:    e.shuffle,
		Repeat:     e.repeat,
	}
	copy(snap.Queue, e.queue)
	if e.current != nil {
		t := *e.current
		snap.Current = &t
		snap.QueueIndex = e.indexOfLocked(t.ID)
	}
	return snap
}

// PlayTrack plays the given track, see Engine.PlayTrack.
func (f *Facade) PlayTrack(track models.Track) { f.engine.PlayTrack(track) }

// TogglePlay flips the transport between playing and paused.
func (f *Facade) TogglePlay() { f.engine.TogglePlay() }

// Next advances the queue.
func (f *Facade) Next() { f.engine.Next() }

// Previous steps the queue backwards.
func (f *Facade) Previous() { f.engine.Previous() }

// Seek moves the playback position.
func (f *Facade) Seek(seconds float64) { f.engine.Seek(seconds) }

// SetVolume sets the playback volume in [0, 1].
func (f *Facade) SetVolume(v float64) { f.engine.SetVolume(v) }

// ToggleShuffle flips shuffle mode.
func (f *Facade) ToggleShuffle() { f.engine.ToggleShuffle() }

// CycleRepeatMode rotates the repeat mode.
func (f *Facade) CycleRepeatMode() { f.engine.CycleRepeatMode() }

// Enqueue appends a track to the queue.
func (f *Facade) Enqueue(track models.Track) { f.engine.Enqueue(track) }

// ReplaceQueue swaps the queue wholesale.
func (f *Facade) ReplaceQueue(tracks []models.Track) { f.engine.ReplaceQueue(tracks) }

// ToggleLike flips the liked state of a track and returns the new state.
func (f *Facade) ToggleLike(ctx context.Context, track models.Track) bool {
	return f.likes.ToggleLike(ctx, track)
}

// IsLiked reports whether the track ID is in the liked set.
func (f *Facade) IsLiked(id string) bool { return f.likes.IsLiked(id) }

// Liked returns the liked tracks in insertion order.
func (f *Facade) Liked() []models.Track { return f.likes.Liked() }

// Close stops the tick loop and tears down the engine and adapter. Safe to
// call more than once.
func (f *Facade) Close() error {
	f.closeOnce.Do(func() {
		close(f.done)
		f.closeErr = f.engine.Close()
	})
	return f.closeErr
}

// tickLoop feeds the listening accumulator one tick per elapsed second, but
// only while a track is selected and playing. Paused and idle time never
// counts.
func (f *Facade) tickLoop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-f.done:
			return
		case <-ticker.C:
		}

		e := f.engine
		e.mu.Lock()
		counting := e.playing && e.current != nil
		e.mu.Unlock()

		if counting {
			f.listening.Tick(context.Background())
		}
	}
}
