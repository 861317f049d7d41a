package model

import (
	"context"
	"errors"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"loom/backend"
	"loom/config"
	"loom/stream"
)

var (
	// ErrBusy is returned when a new exchange is requested while one is
	// still streaming.
	ErrBusy = errors.New("an exchange is already in progress")

	// ErrEmptyInput is returned when the user submits a blank message.
	ErrEmptyInput = errors.New("message is empty")
)

// BeginExchange starts a new exchange for the given user input. It appends
// the user message and an empty assistant placeholder to m.Messages, marks
// the model as streaming, and returns the command that opens the stream.
//
// The returned command starts a goroutine that drives the exchange and
// feeds messages through m.exchangeCh; the caller must follow up with
// WaitForExchange to receive them.
func (m *Model) BeginExchange(input string) (tea.Cmd, error) {
	if m.Streaming {
		return nil, ErrBusy
	}
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, ErrEmptyInput
	}

	m.Messages = append(m.Messages,
		Message{ID: uuid.New().String(), Role: "user", Content: trimmed, Timestamp: time.Now()},
		Message{ID: uuid.New().String(), Role: "assistant", Timestamp: time.Now()},
	)
	m.Streaming = true
	m.SessionDirty = true

	ex := stream.NewExchange(m.RemoteSessionID())
	ch := make(chan tea.Msg)
	m.Exchange = ex
	m.exchangeCh = ch

	// Capture dependencies so the goroutine never touches the Model.
	client := m.Backend
	req := backend.ChatRequest{
		Message:   trimmed,
		SessionID: ex.SessionID(),
		ModelKey:  client.GetModel(),
	}

	cmd := func() tea.Msg {
		go runExchange(ex, client, req, ch)
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
	return cmd, nil
}

// runExchange drives one exchange to completion, sending progress messages
// into ch. It always closes ch when done so WaitForExchange can drain.
func runExchange(ex *stream.Exchange, client Backend, req backend.ChatRequest, ch chan<- tea.Msg) {
	defer close(ch)

	ex.Begin()
	body, err := client.SendMessage(context.Background(), req)
	if err != nil {
		ch <- ExchangeErrorMsg{Err: err, Partial: ex.Snapshot()}
		return
	}

	hooks := stream.Hooks{
		OnUpdate: func(v stream.View) {
			ch <- ExchangeUpdateMsg{View: v}
		},
		OnSessionID: func(id string) {
			ch <- ExchangeSessionMsg{ID: id}
		},
		OnTitle: func(title string) {
			ch <- TitleSuggestedMsg{Title: title}
		},
	}

	runErr := ex.Run(body, hooks)
	final := ex.Snapshot()

	switch {
	case ex.Cancelled():
		ch <- ExchangeCancelledMsg{Partial: final}
	case runErr != nil:
		ch <- ExchangeErrorMsg{Err: runErr, Partial: final}
	default:
		store := ex.Store()
		// Copy the records out; completed records are never mutated again,
		// so the values are safe to hand across goroutines.
		var toolCalls []stream.ToolCallRecord
		for _, rec := range store.CompletedToolCalls() {
			toolCalls = append(toolCalls, *rec)
		}
		ch <- ExchangeDoneMsg{
			FullText:  store.FullText(),
			Segments:  final.Segments,
			ToolCalls: toolCalls,
			SessionID: ex.SessionID(),
		}
	}
}

// WaitForExchange returns a command that delivers the next message from the
// running exchange. The UI re-arms it after every non-terminal message; when
// the channel closes the command returns nil and bubbletea drops it.
func (m *Model) WaitForExchange() tea.Cmd {
	ch := m.exchangeCh
	return func() tea.Msg {
		if ch == nil {
			return nil
		}
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

// CancelExchange requests cancellation of the in-flight exchange. It is a
// no-op when nothing is streaming; the exchange goroutine will still emit
// its terminal message, which FinishExchange handles.
func (m *Model) CancelExchange() {
	if !m.Streaming || m.Exchange == nil {
		return
	}
	m.Exchange.Cancel()
	if config.Debug && config.DebugLog != nil {
		config.DebugLog.Printf("[Model] Exchange cancelled by user")
	}
}

// FinishExchange clears the streaming state after a terminal exchange
// message has been handled.
func (m *Model) FinishExchange() {
	m.Streaming = false
	m.Exchange = nil
	m.exchangeCh = nil
}

// AdoptSessionID records the backend session identifier reported by the
// stream on the current session.
func (m *Model) AdoptSessionID(id string) {
	if id == "" || m.CurrentSession == nil {
		return
	}
	if m.CurrentSession.RemoteID != id {
		m.CurrentSession.RemoteID = id
		m.SessionDirty = true
	}
}

// PingBackend checks backend reachability for the status line.
func (m *Model) PingBackend() tea.Cmd {
	client := m.Backend
	return func() tea.Msg {
		err := client.Ping(context.Background())
		return BackendStatusMsg{Reachable: err == nil, Err: err}
	}
}

// FetchModels retrieves the backend's model catalog.
// showSelector: whether to auto-show the model selector after the fetch.
func (m *Model) FetchModels(showSelector bool) tea.Cmd {
	client := m.Backend
	return func() tea.Msg {
		models, err := client.ListModels(context.Background())
		return ModelsListMsg{Models: models, Err: err, ShowSelector: showSelector}
	}
}

// SwitchModel changes the model used for new requests and records the
// choice on the current session.
func (m *Model) SwitchModel(info backend.ModelInfo) {
	m.Backend.SetModel(info.Key)
	if m.CurrentSession != nil {
		m.CurrentSession.ModelKey = info.Key
		m.SessionDirty = true
	}
	if config.Debug && config.DebugLog != nil {
		config.DebugLog.Printf("[Model] Switched to model '%s'", info.Key)
	}
}
