package library

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type stubSink struct {
	mu      sync.Mutex
	flushes []int
	err     error
}

func (s *stubSink) AddMinutes(ctx context.Context, minutes int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.flushes = append(s.flushes, minutes)
	return nil
}

func (s *stubSink) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := 0
	for _, m := range s.flushes {
		sum += m
	}
	return sum
}

// tick advances the fake clock by a second and ticks the accumulator.
func tick(a *Accumulator, clock *time.Time) {
	*clock = clock.Add(time.Second)
	a.Tick(context.Background())
}

func newTestAccumulator(sink ProfileSink) (*Accumulator, *time.Time) {
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	a := NewAccumulator(sink, nil)
	a.now = func() time.Time { return clock }
	a.lastFlush = clock
	return a, &clock
}

func TestAccumulatorFlush(t *testing.T) {
	t.Run("Flushes Whole Minutes After Window", func(t *testing.T) {
		sink := &stubSink{}
		a, clock := newTestAccumulator(sink)

		// 90 seconds of playback: a minute and a half.
		for range 90 {
			tick(a, clock)
		}

		if got := sink.total(); got != 1 {
			t.Fatalf("expected 1 minute flushed, got %d", got)
		}
		if got := a.Seconds(); got != 30 {
			t.Errorf("expected 30 second remainder, got %d", got)
		}
	})

	t.Run("No Flush Below A Minute", func(t *testing.T) {
		sink := &stubSink{}
		a, clock := newTestAccumulator(sink)

		for range 45 {
			tick(a, clock)
		}

		if len(sink.flushes) != 0 {
			t.Error("expected no flush below one whole minute")
		}
		if got := a.Seconds(); got != 45 {
			t.Errorf("expected 45 seconds retained, got %d", got)
		}
	})

	t.Run("Respects Flush Window", func(t *testing.T) {
		sink := &stubSink{}
		a, clock := newTestAccumulator(sink)

		for range 90 {
			tick(a, clock)
		}
		// 29 more seconds: under two minutes accumulated, window not due.
		for range 29 {
			tick(a, clock)
		}

		if len(sink.flushes) != 1 {
			t.Errorf("expected a single flush inside the window, got %d", len(sink.flushes))
		}
	})

	t.Run("Failure Retains Seconds", func(t *testing.T) {
		sink := &stubSink{err: errors.New("offline")}
		a, clock := newTestAccumulator(sink)

		for range 90 {
			tick(a, clock)
		}

		if got := a.Seconds(); got != 90 {
			t.Errorf("expected all 90 seconds retained on failure, got %d", got)
		}

		// Recovery: the retained seconds flush on the next qualifying tick.
		sink.mu.Lock()
		sink.err = nil
		sink.mu.Unlock()
		tick(a, clock)

		if got := sink.total(); got != 1 {
			t.Errorf("expected retained minute flushed after recovery, got %d", got)
		}
		if got := a.Seconds(); got != 31 {
			t.Errorf("expected 31 second remainder, got %d", got)
		}
	})

	t.Run("Nil Sink Accumulates Only", func(t *testing.T) {
		a, clock := newTestAccumulator(nil)

		for range 120 {
			tick(a, clock)
		}

		if got := a.Seconds(); got != 120 {
			t.Errorf("expected 120 seconds retained without a sink, got %d", got)
		}
	})

	t.Run("Timestamp Updates Only On Success", func(t *testing.T) {
		sink := &stubSink{err: errors.New("offline")}
		a, clock := newTestAccumulator(sink)
		start := a.LastFlush()

		for range 90 {
			tick(a, clock)
		}
		if !a.LastFlush().Equal(start) {
			t.Error("failed flush must not move the flush timestamp")
		}

		sink.mu.Lock()
		sink.err = nil
		sink.mu.Unlock()
		tick(a, clock)

		if a.LastFlush().Equal(start) {
			t.Error("successful flush must move the flush timestamp")
		}
	})
}
