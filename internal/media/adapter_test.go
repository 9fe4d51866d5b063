package media

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aria-player/aria/internal/models"
)

const waitTimeout = 2 * time.Second

// fakeBackend is a scriptable Backend for adapter tests.
type fakeBackend struct {
	mu       sync.Mutex
	events   chan BackendEvent
	loads    []string
	loadErr  error
	plays    int
	pauses   int
	seeks    []float64
	volumes  []float64
	position float64
	duration float64
	closed   bool

	loadGate    chan struct{} // when non-nil the next Load blocks until it closes
	loadEntered chan string   // receives the ref when a gated Load begins
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{events: make(chan BackendEvent, 16)}
}

func (b *fakeBackend) Load(ref string) error {
	b.mu.Lock()
	gate := b.loadGate
	entered := b.loadEntered
	b.loadGate = nil
	b.mu.Unlock()
	if gate != nil {
		if entered != nil {
			entered <- ref
		}
		<-gate
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loadErr != nil {
		return b.loadErr
	}
	b.loads = append(b.loads, ref)
	return nil
}

func (b *fakeBackend) Play() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.plays++
	return nil
}

func (b *fakeBackend) Pause() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pauses++
	return nil
}

func (b *fakeBackend) Seek(seconds float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seeks = append(b.seeks, seconds)
	return nil
}

func (b *fakeBackend) SetVolume(v float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.volumes = append(b.volumes, v)
	return nil
}

func (b *fakeBackend) Position() (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.position, nil
}

func (b *fakeBackend) Duration() (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.duration, nil
}

func (b *fakeBackend) Events() <-chan BackendEvent {
	return b.events
}

func (b *fakeBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

type backendCalls struct {
	loads   []string
	plays   int
	pauses  int
	volumes []float64
}

func (b *fakeBackend) snapshot() backendCalls {
	b.mu.Lock()
	defer b.mu.Unlock()
	return backendCalls{
		loads:   append([]string(nil), b.loads...),
		plays:   b.plays,
		pauses:  b.pauses,
		volumes: append([]float64(nil), b.volumes...),
	}
}

func waitSignal(t *testing.T, ch <-chan uint64, what string) uint64 {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(waitTimeout):
		t.Fatalf("timed out waiting for %s", what)
		return 0
	}
}

func TestAdapterReadiness(t *testing.T) {
	t.Run("Defers Commands Until Ready", func(t *testing.T) {
		backend := newFakeBackend()
		adapter := NewAdapter(backend, nil)
		defer adapter.Close()

		ready := make(chan uint64, 1)
		adapter.Bind(Events{OnReady: func(gen uint64) { ready <- gen }})

		gen := adapter.Load("track-1")
		adapter.SetVolume(0.5)
		adapter.Play()

		if got := backend.snapshot(); len(got.loads) != 0 || got.plays != 0 {
			t.Fatal("expected no backend commands before readiness")
		}

		backend.events <- BackendEvent{Kind: EventReady}

		if got := waitSignal(t, ready, "readiness"); got != gen {
			t.Errorf("expected ready gen %d, got %d", gen, got)
		}

		got := backend.snapshot()
		if len(got.loads) != 1 || got.loads[0] != "track-1" {
			t.Errorf("expected deferred load replayed, got %v", got.loads)
		}
		if len(got.volumes) != 1 || got.volumes[0] != 0.5 {
			t.Errorf("expected deferred volume replayed, got %v", got.volumes)
		}
		if got.plays != 1 {
			t.Errorf("expected deferred play replayed, got %d", got.plays)
		}
	})

	t.Run("Ready Redelivered After Late Bind", func(t *testing.T) {
		backend := newFakeBackend()
		adapter := NewAdapter(backend, nil)
		defer adapter.Close()

		backend.events <- BackendEvent{Kind: EventReady}

		// Give the pump time to consume readiness before binding.
		deadline := time.Now().Add(waitTimeout)
		for {
			adapter.mu.Lock()
			seen := adapter.readySeen
			adapter.mu.Unlock()
			if seen {
				break
			}
			if time.Now().After(deadline) {
				t.Fatal("timed out waiting for readiness")
			}
			time.Sleep(time.Millisecond)
		}

		ready := make(chan uint64, 1)
		adapter.Bind(Events{OnReady: func(gen uint64) { ready <- gen }})
		waitSignal(t, ready, "redelivered readiness")
	})

	t.Run("Commands Pass Through When Ready", func(t *testing.T) {
		backend := newFakeBackend()
		adapter := NewAdapter(backend, nil)
		defer adapter.Close()

		ready := make(chan uint64, 1)
		adapter.Bind(Events{OnReady: func(gen uint64) { ready <- gen }})
		backend.events <- BackendEvent{Kind: EventReady}
		waitSignal(t, ready, "readiness")

		adapter.Load("track-2")
		adapter.Play()
		adapter.Pause()
		adapter.Seek(10)
		adapter.SetVolume(0.7)

		got := backend.snapshot()
		if len(got.loads) != 1 || got.loads[0] != "track-2" {
			t.Errorf("expected direct load, got %v", got.loads)
		}
		if got.plays != 1 || got.pauses != 1 {
			t.Errorf("expected play and pause forwarded, got %d/%d", got.plays, got.pauses)
		}
	})
}

func TestAdapterGenerations(t *testing.T) {
	t.Run("Each Load Advances The Token", func(t *testing.T) {
		backend := newFakeBackend()
		adapter := NewAdapter(backend, nil)
		defer adapter.Close()
		adapter.Bind(Events{})

		first := adapter.Load("track-1")
		second := adapter.Load("track-2")

		if second <= first {
			t.Errorf("expected monotonically increasing tokens, got %d then %d", first, second)
		}
	})

	t.Run("Deferred Load Superseded Before Completion", func(t *testing.T) {
		backend := newFakeBackend()
		backend.position = 1.0
		adapter := NewAdapter(backend, nil)
		defer adapter.Close()

		ready := make(chan uint64, 1)
		ticks := make(chan uint64, 16)
		adapter.Bind(Events{
			OnReady:    func(gen uint64) { ready <- gen },
			OnTimeTick: func(gen uint64, seconds float64) { ticks <- gen },
		})

		adapter.Load("track-1")

		gate := make(chan struct{})
		entered := make(chan string, 1)
		backend.mu.Lock()
		backend.loadGate = gate
		backend.loadEntered = entered
		backend.mu.Unlock()

		backend.events <- BackendEvent{Kind: EventReady}

		// Wait until the deferred load is in flight, then supersede it.
		select {
		case ref := <-entered:
			if ref != "track-1" {
				t.Fatalf("expected deferred load of track-1, got %s", ref)
			}
		case <-time.After(waitTimeout):
			t.Fatal("timed out waiting for deferred load")
		}

		latest := adapter.Load("track-2")
		close(gate)
		waitSignal(t, ready, "readiness")

		// The poller must stay with the superseding load: a restart under
		// the stale token would silence ticks for track-2.
		for i := 0; i < 5; i++ {
			if got := waitSignal(t, ticks, "time tick"); got != latest {
				t.Fatalf("expected ticks under gen %d, got %d", latest, got)
			}
		}
	})

	t.Run("State Changes Carry Latest Token", func(t *testing.T) {
		backend := newFakeBackend()
		adapter := NewAdapter(backend, nil)
		defer adapter.Close()

		ready := make(chan uint64, 1)
		states := make(chan uint64, 1)
		adapter.Bind(Events{
			OnReady:       func(gen uint64) { ready <- gen },
			OnStateChange: func(gen uint64, state models.PlayerState) { states <- gen },
		})
		backend.events <- BackendEvent{Kind: EventReady}
		waitSignal(t, ready, "readiness")

		adapter.Load("track-1")
		latest := adapter.Load("track-2")

		backend.events <- BackendEvent{Kind: EventStateChange, State: models.StatePlaying}

		if got := waitSignal(t, states, "state change"); got != latest {
			t.Errorf("expected state change under gen %d, got %d", latest, got)
		}
	})
}

func TestAdapterLoadFailure(t *testing.T) {
	t.Run("Reported Asynchronously", func(t *testing.T) {
		backend := newFakeBackend()
		backend.loadErr = errors.New("no such file")
		adapter := NewAdapter(backend, nil)
		defer adapter.Close()

		ready := make(chan uint64, 1)
		failures := make(chan uint64, 1)
		adapter.Bind(Events{
			OnReady:     func(gen uint64) { ready <- gen },
			OnLoadError: func(gen uint64, ref string, err error) { failures <- gen },
		})
		backend.events <- BackendEvent{Kind: EventReady}
		waitSignal(t, ready, "readiness")

		gen := adapter.Load("broken")

		if got := waitSignal(t, failures, "load failure"); got != gen {
			t.Errorf("expected failure under gen %d, got %d", gen, got)
		}
	})

	t.Run("Backend Failure Event Forwarded", func(t *testing.T) {
		backend := newFakeBackend()
		adapter := NewAdapter(backend, nil)
		defer adapter.Close()

		ready := make(chan uint64, 1)
		failures := make(chan uint64, 1)
		adapter.Bind(Events{
			OnReady:     func(gen uint64) { ready <- gen },
			OnLoadError: func(gen uint64, ref string, err error) { failures <- gen },
		})
		backend.events <- BackendEvent{Kind: EventReady}
		waitSignal(t, ready, "readiness")

		gen := adapter.Load("track-1")
		backend.events <- BackendEvent{Kind: EventLoadFailed, Ref: "track-1", Err: errors.New("decode error")}

		if got := waitSignal(t, failures, "load failure"); got != gen {
			t.Errorf("expected failure under gen %d, got %d", gen, got)
		}
	})
}

func TestAdapterPolling(t *testing.T) {
	backend := newFakeBackend()
	backend.position = 3.5
	backend.duration = 180
	adapter := NewAdapter(backend, nil)
	defer adapter.Close()

	ready := make(chan uint64, 1)
	ticks := make(chan uint64, 16)
	durations := make(chan uint64, 16)
	adapter.Bind(Events{
		OnReady:         func(gen uint64) { ready <- gen },
		OnTimeTick:      func(gen uint64, seconds float64) { ticks <- gen },
		OnDurationKnown: func(gen uint64, seconds float64) { durations <- gen },
	})
	backend.events <- BackendEvent{Kind: EventReady}
	waitSignal(t, ready, "readiness")

	gen := adapter.Load("track-1")

	if got := waitSignal(t, ticks, "time tick"); got != gen {
		t.Errorf("expected tick under gen %d, got %d", gen, got)
	}
	if got := waitSignal(t, durations, "duration"); got != gen {
		t.Errorf("expected duration under gen %d, got %d", gen, got)
	}

	// Duration is reported once per load.
	waitSignal(t, ticks, "second tick")
	select {
	case <-durations:
		t.Error("expected no second duration report")
	default:
	}

	adapter.Unload()
}
