package stream

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"loom/config"
)

// State is the lifecycle position of an exchange. Finalized, Errored and
// Cancelled are terminal.
type State int

const (
	StateIdle State = iota
	StateSending
	StateStreaming
	StateFinalized
	StateErrored
	StateCancelled
)

// String returns the state name for diagnostics.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	case StateFinalized:
		return "finalized"
	case StateErrored:
		return "errored"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ProtocolError is an explicit error event from the backend: the exchange
// failed server-side and the message is meant for the user.
type ProtocolError struct {
	Message string
}

func (e *ProtocolError) Error() string {
	return e.Message
}

// View is one published snapshot of the exchange: the composed segments and
// the raw accumulated text behind them.
type View struct {
	Segments []Segment
	FullText string
}

// Hooks are the callbacks an exchange invokes as it processes the stream.
// They are called synchronously from the frame loop; nil hooks are skipped.
type Hooks struct {
	// OnUpdate is invoked with a freshly composed view after every mutation
	// (token or tool-call event).
	OnUpdate func(View)

	// OnSessionID is invoked when the session identifier for this exchange
	// is learned or corrected by the stream. Callers must adopt the value
	// so subsequent exchanges reuse the right session.
	OnSessionID func(string)

	// OnTitle is invoked for advisory session-title suggestions. They have
	// no effect on the exchange itself.
	OnTitle func(string)
}

// Exchange is the unit of work for one request/response cycle: it owns the
// state store, the cancellation flag and the eventual session identifier,
// and drives the frame-processing loop over one response stream.
//
// All state mutation happens synchronously inside Run. Cancel is the only
// method safe to call concurrently with an active Run.
type Exchange struct {
	store *Store

	state             State
	sessionID         string
	sessionFromStream bool

	cancelled atomic.Bool

	mu     sync.Mutex
	closer io.Closer
}

// NewExchange creates an exchange. sessionID is the caller's pre-created
// session identifier, or empty when the backend is expected to assign one.
func NewExchange(sessionID string) *Exchange {
	return &Exchange{
		store:     NewStore(),
		state:     StateIdle,
		sessionID: sessionID,
	}
}

// Store exposes the exchange's state store, primarily for tests and for
// finalization (reading the completed message out of a finished exchange).
func (e *Exchange) Store() *Store {
	return e.store
}

// State returns the exchange's current lifecycle state.
func (e *Exchange) State() State {
	return e.state
}

// SessionID returns the session identifier as currently reconciled: the
// caller-supplied value until the stream reports one, then the stream's.
func (e *Exchange) SessionID() string {
	return e.sessionID
}

// Cancelled reports whether Cancel has been called.
func (e *Exchange) Cancelled() bool {
	return e.cancelled.Load()
}

// Begin marks the outbound request as sent. The exchange moves to the
// streaming state when Run observes the first frame.
func (e *Exchange) Begin() {
	if e.state == StateIdle {
		e.state = StateSending
	}
}

// Cancel requests cooperative cancellation. It is idempotent and never an
// error: the flag stops further state mutation at the next loop iteration,
// and the transport is closed so a read blocked on the network unblocks
// promptly instead of waiting out a server-side timeout.
func (e *Exchange) Cancel() {
	if e.cancelled.Swap(true) {
		return
	}
	e.mu.Lock()
	closer := e.closer
	e.mu.Unlock()
	if closer != nil {
		_ = closer.Close()
	}
	// No session id in this line: Cancel runs on the UI goroutine while the
	// frame loop may still be reconciling e.sessionID.
	if config.Debug && config.DebugLog != nil {
		config.DebugLog.Printf("[Exchange] cancelled")
	}
}

// Run consumes the response stream until an end event, an error or
// cancellation, dispatching each decoded event into the store and
// republishing the composed view after every mutation.
//
// Run returns nil when the exchange finalized cleanly or was cancelled;
// check State to distinguish. It returns a *ProtocolError for an explicit
// error event from the backend, and a transport error when the stream
// breaks before an end frame. In both failure cases the partial state in
// the store is preserved for display.
func (e *Exchange) Run(body io.ReadCloser, h Hooks) error {
	e.mu.Lock()
	e.closer = body
	e.mu.Unlock()
	defer body.Close()

	if e.state == StateIdle {
		e.state = StateSending
	}

	reader := NewFrameReader(body)
	for {
		// Cancellation boundary: nothing mutates state past this check.
		if e.cancelled.Load() {
			e.state = StateCancelled
			return nil
		}

		frame, err := reader.Next()
		if err != nil {
			if e.cancelled.Load() {
				// The closed transport surfaces as a read error; that is
				// the cancellation unblocking, not a failure.
				e.state = StateCancelled
				return nil
			}
			if errors.Is(err, io.EOF) {
				// Clean close without an end frame still finalizes; the
				// backend hung up after its last event.
				e.state = StateFinalized
				return nil
			}
			e.state = StateErrored
			return fmt.Errorf("exchange stream broke: %w", err)
		}

		if e.state == StateSending {
			e.state = StateStreaming
		}

		ev, ok, err := DecodeFrame(frame)
		if err != nil {
			// One malformed frame is recovered locally: log, skip, go on.
			if config.Debug && config.DebugLog != nil {
				config.DebugLog.Printf("[Exchange] skipping bad frame: %v", err)
			}
			continue
		}
		if !ok {
			continue // keep-alive or comment frame
		}

		if e.cancelled.Load() {
			e.state = StateCancelled
			return nil
		}

		done, err := e.dispatch(ev, h)
		if err != nil {
			e.state = StateErrored
			return err
		}
		if done {
			e.state = StateFinalized
			return nil
		}
	}
}

// dispatch applies one decoded event to the exchange. It returns done=true
// for the end event and an error for the protocol error event.
func (e *Exchange) dispatch(ev Event, h Hooks) (bool, error) {
	switch ev.Type {
	case EventToken:
		e.store.AppendToken(ev.Content)
		e.publish(h)

	case EventToolCallStart:
		e.store.StartToolCall(ev.ToolID, ev.ToolName)
		e.publish(h)

	case EventToolCallArgs:
		e.store.SetToolCallArgs(ev.ToolID, ev.Arguments)
		e.publish(h)

	case EventToolCallComplete:
		success := ev.Success != nil && *ev.Success
		e.store.CompleteToolCall(ev.ToolID, ev.Response, success)
		e.publish(h)

	case EventSessionID:
		e.adoptSessionID(ev.Content, h)

	case EventTitleUpdate:
		if h.OnTitle != nil && ev.Title != "" {
			h.OnTitle(ev.Title)
		}

	case EventEnd:
		return true, nil

	case EventError:
		return false, &ProtocolError{Message: ev.Content}

	case EventUnhandled:
		// Forward compatibility: newer event kinds are a logged no-op.
		if config.Debug && config.DebugLog != nil {
			config.DebugLog.Printf("[Exchange] ignoring unhandled event type %q", ev.RawType)
		}
	}

	return false, nil
}

// adoptSessionID reconciles the exchange's session identifier with a
// session_id event. The stream's value is authoritative over a caller
// pre-created one (session creation can race with stream start), but once
// the stream has spoken, a conflicting later value never overwrites it.
func (e *Exchange) adoptSessionID(id string, h Hooks) {
	if id == "" {
		return
	}
	if e.sessionFromStream {
		if id != e.sessionID && config.Debug && config.DebugLog != nil {
			config.DebugLog.Printf("[Exchange] ignoring conflicting session_id %q (have %q)", id, e.sessionID)
		}
		return
	}

	changed := id != e.sessionID
	e.sessionID = id
	e.sessionFromStream = true
	if changed && config.Debug && config.DebugLog != nil {
		config.DebugLog.Printf("[Exchange] session identifier reconciled to %q", id)
	}
	if h.OnSessionID != nil {
		h.OnSessionID(id)
	}
}

// Snapshot composes a view from the exchange's current store state. Safe to
// call after Run has returned; callers inspecting a live exchange should use
// the OnUpdate hook instead.
func (e *Exchange) Snapshot() View {
	return View{
		Segments: Compose(e.store.Log(), e.store.CompletedToolCalls(), e.store.FullText()),
		FullText: e.store.FullText(),
	}
}

// publish recomposes the view from the current store state and hands it to
// the update hook. Recomposing per mutation is O(log length) per update; at
// conversation scale that is far cheaper than the rendering it feeds.
func (e *Exchange) publish(h Hooks) {
	if h.OnUpdate == nil {
		return
	}
	h.OnUpdate(e.Snapshot())
}
