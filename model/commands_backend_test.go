package model_test

import (
	"context"
	"errors"
	"io"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"loom/backend"
	"loom/backend/testutil"
	"loom/config"
	"loom/model"
	"loom/stream"
)

func newTestModel(t *testing.T, mock *testutil.MockBackend) *model.Model {
	t.Helper()
	cfg := &config.Config{DefaultModel: "standard"}
	return model.NewModel(cfg, mock, nil, nil, nil, "test", "test")
}

// driveExchange runs the exchange command and collects every message until
// the stream closes.
func driveExchange(t *testing.T, m *model.Model, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	var msgs []tea.Msg
	msg := cmd()
	for msg != nil {
		msgs = append(msgs, msg)
		msg = m.WaitForExchange()()
	}
	if len(msgs) == 0 {
		t.Fatal("exchange produced no messages")
	}
	return msgs
}

func TestBeginExchangeRejectsWhenStreaming(t *testing.T) {
	m := newTestModel(t, testutil.NewMockBackend("standard"))
	m.Streaming = true

	if _, err := m.BeginExchange("hello"); !errors.Is(err, model.ErrBusy) {
		t.Errorf("BeginExchange() error = %v, want ErrBusy", err)
	}
}

func TestBeginExchangeRejectsEmptyInput(t *testing.T) {
	m := newTestModel(t, testutil.NewMockBackend("standard"))

	if _, err := m.BeginExchange("   \n "); !errors.Is(err, model.ErrEmptyInput) {
		t.Errorf("BeginExchange() error = %v, want ErrEmptyInput", err)
	}
	if len(m.Messages) != 0 {
		t.Errorf("got %d messages after rejected input, want 0", len(m.Messages))
	}
}

func TestBeginExchangeAppendsMessagesAndSendsRequest(t *testing.T) {
	mock := testutil.NewMockBackend("standard")
	m := newTestModel(t, mock)

	cmd, err := m.BeginExchange("  hello there  ")
	if err != nil {
		t.Fatalf("BeginExchange() error = %v", err)
	}
	if !m.Streaming {
		t.Error("Streaming = false after BeginExchange")
	}
	if len(m.Messages) != 2 {
		t.Fatalf("got %d messages, want user + assistant placeholder", len(m.Messages))
	}
	if m.Messages[0].Role != "user" || m.Messages[0].Content != "hello there" {
		t.Errorf("user message = %+v", m.Messages[0])
	}
	if m.Messages[1].Role != "assistant" || m.Messages[1].Content != "" {
		t.Errorf("assistant placeholder = %+v", m.Messages[1])
	}

	driveExchange(t, m, cmd)

	req := mock.LastRequest()
	if req == nil {
		t.Fatal("SendMessage was never called")
	}
	if req.Message != "hello there" || req.ModelKey != "standard" {
		t.Errorf("request = %+v", req)
	}
}

func TestExchangeDeliversUpdatesAndDone(t *testing.T) {
	mock := testutil.NewMockBackend("standard")
	mock.SendMessageFunc = func(ctx context.Context, req backend.ChatRequest) (io.ReadCloser, error) {
		return testutil.FrameStream(
			`{"type":"session_id","content":"srv-9"}`,
			`{"type":"token","content":"Searching"}`,
			`{"type":"tool_call_start","tool_id":"t1","tool_name":"flight_search"}`,
			`{"type":"tool_call_complete","tool_id":"t1","response":{"n":3},"success":true}`,
			`{"type":"token","content":" done."}`,
			`{"type":"end"}`,
		), nil
	}
	m := newTestModel(t, mock)

	cmd, err := m.BeginExchange("find flights")
	if err != nil {
		t.Fatalf("BeginExchange() error = %v", err)
	}
	msgs := driveExchange(t, m, cmd)

	var sessionID string
	var updates int
	var done *model.ExchangeDoneMsg
	for _, msg := range msgs {
		switch v := msg.(type) {
		case model.ExchangeSessionMsg:
			sessionID = v.ID
		case model.ExchangeUpdateMsg:
			updates++
		case model.ExchangeDoneMsg:
			d := v
			done = &d
		case model.ExchangeErrorMsg:
			t.Fatalf("unexpected error message: %v", v.Err)
		}
	}

	if sessionID != "srv-9" {
		t.Errorf("session id = %q, want srv-9", sessionID)
	}
	if updates == 0 {
		t.Error("no update messages before done")
	}
	if done == nil {
		t.Fatal("no done message")
	}
	if done.FullText != "Searching done." {
		t.Errorf("FullText = %q", done.FullText)
	}
	if done.SessionID != "srv-9" {
		t.Errorf("done.SessionID = %q", done.SessionID)
	}
	if len(done.ToolCalls) != 1 || done.ToolCalls[0].Name != "flight_search" {
		t.Errorf("ToolCalls = %+v", done.ToolCalls)
	}
	if len(done.Segments) != 3 {
		t.Errorf("got %d segments, want text + tool call + text", len(done.Segments))
	}
}

func TestExchangeReportsProtocolError(t *testing.T) {
	mock := testutil.NewMockBackend("standard")
	mock.SendMessageFunc = func(ctx context.Context, req backend.ChatRequest) (io.ReadCloser, error) {
		return testutil.FrameStream(
			`{"type":"token","content":"partial"}`,
			`{"type":"error","content":"model overloaded"}`,
		), nil
	}
	m := newTestModel(t, mock)

	cmd, err := m.BeginExchange("hi")
	if err != nil {
		t.Fatalf("BeginExchange() error = %v", err)
	}
	msgs := driveExchange(t, m, cmd)

	last := msgs[len(msgs)-1]
	errMsg, ok := last.(model.ExchangeErrorMsg)
	if !ok {
		t.Fatalf("last message = %T, want ExchangeErrorMsg", last)
	}
	var protoErr *stream.ProtocolError
	if !errors.As(errMsg.Err, &protoErr) {
		t.Fatalf("err = %v, want ProtocolError", errMsg.Err)
	}
	if protoErr.Message != "model overloaded" {
		t.Errorf("message = %q", protoErr.Message)
	}
	if errMsg.Partial.FullText != "partial" {
		t.Errorf("partial = %q, want streamed text preserved", errMsg.Partial.FullText)
	}
}

func TestExchangeReportsTransportFailure(t *testing.T) {
	mock := testutil.NewMockBackend("standard")
	mock.SendMessageFunc = func(ctx context.Context, req backend.ChatRequest) (io.ReadCloser, error) {
		return nil, errors.New("connection refused")
	}
	m := newTestModel(t, mock)

	cmd, err := m.BeginExchange("hi")
	if err != nil {
		t.Fatalf("BeginExchange() error = %v", err)
	}
	msgs := driveExchange(t, m, cmd)

	if _, ok := msgs[len(msgs)-1].(model.ExchangeErrorMsg); !ok {
		t.Fatalf("last message = %T, want ExchangeErrorMsg", msgs[len(msgs)-1])
	}
}

func TestCancelExchangeProducesCancelledMsg(t *testing.T) {
	mock := testutil.NewMockBackend("standard")
	blocker := newBlockingBody("data: {\"type\":\"token\",\"content\":\"some\"}\n\n")
	mock.SendMessageFunc = func(ctx context.Context, req backend.ChatRequest) (io.ReadCloser, error) {
		return blocker, nil
	}
	m := newTestModel(t, mock)

	cmd, err := m.BeginExchange("hi")
	if err != nil {
		t.Fatalf("BeginExchange() error = %v", err)
	}

	// First message is the token update; cancel afterwards. The blocked
	// read is unblocked by Cancel closing the body.
	msg := cmd()
	if _, ok := msg.(model.ExchangeUpdateMsg); !ok {
		t.Fatalf("first message = %T, want ExchangeUpdateMsg", msg)
	}
	m.CancelExchange()

	var last tea.Msg
	for next := m.WaitForExchange()(); next != nil; next = m.WaitForExchange()() {
		last = next
	}
	cancelled, ok := last.(model.ExchangeCancelledMsg)
	if !ok {
		t.Fatalf("terminal message = %T, want ExchangeCancelledMsg", last)
	}
	if cancelled.Partial.FullText != "some" {
		t.Errorf("partial = %q, want streamed text preserved", cancelled.Partial.FullText)
	}

	m.FinishExchange()
	if m.Streaming || m.Exchange != nil {
		t.Error("FinishExchange did not clear streaming state")
	}
}

func TestFinishExchangeClearsState(t *testing.T) {
	m := newTestModel(t, testutil.NewMockBackend("standard"))

	cmd, err := m.BeginExchange("hi")
	if err != nil {
		t.Fatalf("BeginExchange() error = %v", err)
	}
	driveExchange(t, m, cmd)

	m.FinishExchange()
	if m.Streaming {
		t.Error("Streaming = true after FinishExchange")
	}
	if _, err := m.BeginExchange("again"); err != nil {
		t.Errorf("BeginExchange() after finish error = %v", err)
	}
}

// blockingBody serves its preloaded data, then blocks reads until closed.
type blockingBody struct {
	data   []byte
	closed chan struct{}
}

func newBlockingBody(data string) *blockingBody {
	return &blockingBody{data: []byte(data), closed: make(chan struct{})}
}

func (b *blockingBody) Read(p []byte) (int, error) {
	if len(b.data) > 0 {
		n := copy(p, b.data)
		b.data = b.data[n:]
		return n, nil
	}
	<-b.closed
	return 0, errors.New("use of closed connection")
}

func (b *blockingBody) Close() error {
	select {
	case <-b.closed:
	default:
		close(b.closed)
	}
	return nil
}
