package media

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/aria-player/aria/internal/models"
	"github.com/aria-player/aria/internal/shared"
)

const (
	commandTimeout = 2 * time.Second
	eventBuffer    = 32
)

// bridgeRequest is the JSON structure sent to the embedded player's IPC socket.
type bridgeRequest struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
}

// bridgeResponse is the JSON structure received for a command.
type bridgeResponse struct {
	Error     string `json:"error"`
	Data      any    `json:"data"`
	RequestID int64  `json:"request_id"`
}

// bridgeEvent is an unsolicited event line from the player.
type bridgeEvent struct {
	Event  string `json:"event"`
	Name   string `json:"name"`
	Data   any    `json:"data"`
	Reason string `json:"reason"`
}

// Bridge implements Backend over the embedded player's newline-delimited
// JSON IPC socket (mpv protocol).
//
// A single persistent connection carries both command responses, matched by
// request_id, and property-change events, translated into BackendEvents.
type Bridge struct {
	conn   net.Conn
	logger *log.Logger

	mu      sync.Mutex
	reqID   int64
	pending map[int64]chan bridgeResponse
	ref     string // most recently requested load, for failure events
	paused  bool
	closed  bool

	events chan BackendEvent
	done   chan struct{}
}

// Compile-time check that Bridge satisfies Backend.
var _ Backend = (*Bridge)(nil)

// DialBridge connects to the embedded player's IPC socket. Initialization
// completes asynchronously: property observers are registered in the
// background and EventReady is emitted once they are accepted.
func DialBridge(socket string, logger *log.Logger) (*Bridge, error) {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	conn, err := net.Dial("unix", socket)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to media backend: %w", err)
	}

	b := &Bridge{
		conn:    conn,
		logger:  logger,
		pending: make(map[int64]chan bridgeResponse),
		events:  make(chan BackendEvent, eventBuffer),
		done:    make(chan struct{}),
	}

	go b.readLoop()
	go b.initialize()

	return b, nil
}

// initialize registers property observers and announces readiness.
func (b *Bridge) initialize() {
	for _, prop := range []string{"pause", "paused-for-cache"} {
		if _, err := b.command("observe_property", 0, prop); err != nil {
			b.logger.Warn("media backend observe failed", "property", prop, "err", err)
		}
	}
	b.emit(BackendEvent{Kind: EventReady})
}

// Events returns the asynchronous event stream. The channel is closed when
// the bridge shuts down.
func (b *Bridge) Events() <-chan BackendEvent {
	return b.events
}

// Load replaces the current track with the given source reference.
func (b *Bridge) Load(ref string) error {
	b.mu.Lock()
	b.ref = ref
	b.mu.Unlock()

	_, err := b.command("loadfile", ref, "replace")
	return err
}

// Play resumes playback.
func (b *Bridge) Play() error {
	_, err := b.command("set_property", "pause", false)
	return err
}

// Pause pauses playback.
func (b *Bridge) Pause() error {
	_, err := b.command("set_property", "pause", true)
	return err
}

// Seek moves to an absolute position in seconds.
func (b *Bridge) Seek(seconds float64) error {
	_, err := b.command("seek", seconds, "absolute")
	return err
}

// SetVolume applies a volume in [0, 1]. The player speaks percent.
func (b *Bridge) SetVolume(v float64) error {
	_, err := b.command("set_property", "volume", shared.Clamp01(v)*100)
	return err
}

// Position reports the current playback position in seconds.
func (b *Bridge) Position() (float64, error) {
	return b.number("playback-time")
}

// Duration reports the current track duration in seconds, 0 until known.
func (b *Bridge) Duration() (float64, error) {
	return b.number("duration")
}

// Close shuts the bridge down and closes the IPC connection.
func (b *Bridge) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.done)
	b.mu.Unlock()

	return b.conn.Close()
}

func (b *Bridge) number(property string) (float64, error) {
	data, err := b.command("get_property", property)
	if err != nil {
		return 0, err
	}
	n, ok := data.(float64)
	if !ok {
		return 0, fmt.Errorf("%w: property %s is not a number", shared.ErrInvalidInput, property)
	}
	return n, nil
}

// command sends one request and waits for its matching response.
func (b *Bridge) command(args ...any) (any, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, shared.ErrBackendClosed
	}
	b.reqID++
	id := b.reqID
	ch := make(chan bridgeResponse, 1)
	b.pending[id] = ch

	payload, err := json.Marshal(bridgeRequest{Command: args, RequestID: id})
	if err != nil {
		delete(b.pending, id)
		b.mu.Unlock()
		return nil, fmt.Errorf("failed to marshal command: %w", err)
	}
	_, err = b.conn.Write(append(payload, '\n'))
	if err != nil {
		delete(b.pending, id)
		b.mu.Unlock()
		return nil, fmt.Errorf("failed to write command: %w", err)
	}
	b.mu.Unlock()

	select {
	case resp := <-ch:
		if resp.Error != "" && resp.Error != "success" {
			return nil, fmt.Errorf("%w: %s", shared.ErrAPIRequest, resp.Error)
		}
		return resp.Data, nil
	case <-time.After(commandTimeout):
		b.mu.Lock()
		delete(b.pending, id)
		b.mu.Unlock()
		return nil, shared.ErrTimeout
	case <-b.done:
		return nil, shared.ErrBackendClosed
	}
}

// readLoop consumes newline-delimited JSON from the socket, routing command
// responses to their waiters and translating events.
func (b *Bridge) readLoop() {
	defer close(b.events)

	scanner := bufio.NewScanner(b.conn)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var resp bridgeResponse
		if err := json.Unmarshal(line, &resp); err == nil && resp.RequestID != 0 {
			b.mu.Lock()
			ch, ok := b.pending[resp.RequestID]
			if ok {
				delete(b.pending, resp.RequestID)
			}
			b.mu.Unlock()
			if ok {
				ch <- resp
			}
			continue
		}

		var ev bridgeEvent
		if err := json.Unmarshal(line, &ev); err != nil || ev.Event == "" {
			continue
		}
		b.translate(ev)
	}

	if err := scanner.Err(); err != nil {
		select {
		case <-b.done:
		default:
			b.logger.Warn("media backend read error", "err", err)
		}
	}
}

// translate maps a player event line onto the Backend event model.
func (b *Bridge) translate(ev bridgeEvent) {
	switch ev.Event {
	case "file-loaded":
		b.emit(BackendEvent{Kind: EventStateChange, State: models.StateCued})
	case "playback-restart":
		b.mu.Lock()
		paused := b.paused
		b.mu.Unlock()
		if !paused {
			b.emit(BackendEvent{Kind: EventStateChange, State: models.StatePlaying})
		}
	case "idle":
		b.emit(BackendEvent{Kind: EventStateChange, State: models.StateUnstarted})
	case "end-file":
		// Only a natural end may advance the queue. "stop" and "redirect"
		// mean the file was replaced by a newer load, "quit" means the
		// player is shutting down; none of those are track ends.
		switch ev.Reason {
		case "eof":
			b.emit(BackendEvent{Kind: EventStateChange, State: models.StateEnded})
		case "error":
			b.mu.Lock()
			ref := b.ref
			b.mu.Unlock()
			b.emit(BackendEvent{Kind: EventLoadFailed, Ref: ref, Err: shared.ErrLoadFailed})
		}
	case "property-change":
		b.translateProperty(ev)
	}
}

func (b *Bridge) translateProperty(ev bridgeEvent) {
	switch ev.Name {
	case "pause":
		paused, ok := ev.Data.(bool)
		if !ok {
			return
		}
		b.mu.Lock()
		b.paused = paused
		b.mu.Unlock()
		state := models.StatePlaying
		if paused {
			state = models.StatePaused
		}
		b.emit(BackendEvent{Kind: EventStateChange, State: state})
	case "paused-for-cache":
		if buffering, ok := ev.Data.(bool); ok && buffering {
			b.emit(BackendEvent{Kind: EventStateChange, State: models.StateBuffering})
		}
	}
}

// emit delivers an event without ever blocking the read loop.
func (b *Bridge) emit(ev BackendEvent) {
	select {
	case b.events <- ev:
	case <-b.done:
	default:
		b.logger.Debug("media backend event dropped", "kind", ev.Kind)
	}
}
