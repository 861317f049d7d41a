// Package testutil provides a scriptable backend mock for testing the
// business logic without a live reasoning service.
package testutil

import (
	"context"
	"io"
	"strings"
	"sync"

	"loom/backend"
	"loom/model"
)

// MockBackend implements model.Backend for testing
type MockBackend struct {
	// Configurable responses
	SendMessageFunc func(ctx context.Context, req backend.ChatRequest) (io.ReadCloser, error)
	ListModelsFunc  func(ctx context.Context) ([]backend.ModelInfo, error)
	PingFunc        func(ctx context.Context) error

	// State
	mu           sync.Mutex
	currentModel string
	lastRequest  *backend.ChatRequest
}

var _ model.Backend = (*MockBackend)(nil)

// NewMockBackend creates a mock backend with default implementations
func NewMockBackend(modelKey string) *MockBackend {
	mock := &MockBackend{
		currentModel: modelKey,
	}
	mock.SendMessageFunc = mock.defaultSendMessage
	mock.ListModelsFunc = mock.defaultListModels
	mock.PingFunc = mock.defaultPing
	return mock
}

func (m *MockBackend) defaultSendMessage(ctx context.Context, req backend.ChatRequest) (io.ReadCloser, error) {
	return FrameStream(
		`{"type":"token","content":"Mock response"}`,
		`{"type":"end"}`,
	), nil
}

func (m *MockBackend) defaultListModels(ctx context.Context) ([]backend.ModelInfo, error) {
	return []backend.ModelInfo{
		{Key: "mock-model-1", Name: "Mock Model 1"},
		{Key: "mock-model-2", Name: "Mock Model 2"},
	}, nil
}

func (m *MockBackend) defaultPing(ctx context.Context) error {
	return nil
}

func (m *MockBackend) SendMessage(ctx context.Context, req backend.ChatRequest) (io.ReadCloser, error) {
	m.mu.Lock()
	reqCopy := req
	m.lastRequest = &reqCopy
	m.mu.Unlock()
	return m.SendMessageFunc(ctx, req)
}

func (m *MockBackend) ListModels(ctx context.Context) ([]backend.ModelInfo, error) {
	return m.ListModelsFunc(ctx)
}

func (m *MockBackend) Ping(ctx context.Context) error {
	return m.PingFunc(ctx)
}

func (m *MockBackend) GetModel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentModel
}

func (m *MockBackend) SetModel(modelKey string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentModel = modelKey
}

// LastRequest returns the most recent request passed to SendMessage, or nil.
func (m *MockBackend) LastRequest() *backend.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRequest
}

// FrameStream builds an event-stream body from raw JSON payloads, framing
// each one the way the backend does.
func FrameStream(payloads ...string) io.ReadCloser {
	var b strings.Builder
	for _, p := range payloads {
		b.WriteString("data: ")
		b.WriteString(p)
		b.WriteString("\n\n")
	}
	return io.NopCloser(strings.NewReader(b.String()))
}
