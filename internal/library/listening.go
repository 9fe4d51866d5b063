package library

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/aria-player/aria/internal/shared"
)

// flushWindow is the minimum wall-clock gap between flush attempts.
const flushWindow = 30 * time.Second

// ProfileSink receives flushed listening minutes. Nil when anonymous.
type ProfileSink interface {
	AddMinutes(ctx context.Context, minutes int) error
}

// Accumulator measures elapsed playback seconds and periodically flushes
// whole minutes to the remote profile record.
//
// The caller ticks it once per elapsed second while a track is playing.
// Flushing is best-effort telemetry: on failure or without an identity the
// accumulated seconds are retained and retried on the next qualifying tick,
// so transient failures lose nothing; a session end may.
type Accumulator struct {
	mu        sync.Mutex
	seconds   int
	lastFlush time.Time
	sink      ProfileSink
	logger    *log.Logger
	now       func() time.Time
}

// NewAccumulator creates an Accumulator flushing into sink (may be nil).
func NewAccumulator(sink ProfileSink, logger *log.Logger) *Accumulator {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	a := &Accumulator{
		sink:   sink,
		logger: logger,
		now:    time.Now,
	}
	a.lastFlush = a.now()
	return a
}

// Tick records one elapsed playback second, then attempts a flush if the
// window has passed.
func (a *Accumulator) Tick(ctx context.Context) {
	a.mu.Lock()
	a.seconds++
	a.mu.Unlock()
	a.maybeFlush(ctx)
}

// Seconds returns the seconds accumulated since the last successful flush.
func (a *Accumulator) Seconds() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.seconds
}

// LastFlush returns the timestamp of the last successful flush.
func (a *Accumulator) LastFlush() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastFlush
}

// maybeFlush flushes floor(seconds/60) minutes when at least one whole
// minute has accumulated and the flush window has elapsed. On success the
// counter keeps its sub-minute remainder; on failure or without a sink
// everything is retained for retry.
func (a *Accumulator) maybeFlush(ctx context.Context) {
	a.mu.Lock()
	minutes := a.seconds / 60
	due := a.seconds > 0 && a.now().Sub(a.lastFlush) >= flushWindow
	a.mu.Unlock()

	if !due || minutes == 0 || a.sink == nil {
		return
	}

	if err := a.sink.AddMinutes(ctx, minutes); err != nil {
		a.logger.Warn("listening time flush failed, retaining", "minutes", minutes, "err", err)
		return
	}

	a.mu.Lock()
	a.seconds -= minutes * 60
	a.lastFlush = a.now()
	a.mu.Unlock()
}
