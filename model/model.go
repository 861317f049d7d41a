package model

import (
	tea "github.com/charmbracelet/bubbletea"

	"loom/config"
	"loom/storage"
	"loom/stream"
)

// Model holds the core application data and business logic state
type Model struct {
	// Core dependencies
	Config         *config.Config
	Backend        Backend
	SessionStorage *storage.SessionStorage
	SearchIndex    *storage.SearchIndex

	// Application data
	Messages       []Message
	CurrentSession *storage.Session

	// Runtime state (not UI)
	Streaming          bool
	SessionDirty       bool
	NeedsInitialRender bool
	Quitting           bool

	// Exchange state: set while Streaming, cleared by FinishExchange.
	Exchange   *stream.Exchange
	exchangeCh chan tea.Msg

	// Application metadata
	Version string
	License string
}

// NewModel creates a new Model with the given configuration
func NewModel(cfg *config.Config, client Backend, sessionStorage *storage.SessionStorage, searchIndex *storage.SearchIndex, lastSession *storage.Session, version, license string) *Model {
	// Set model from last session if available
	if client != nil && lastSession != nil && lastSession.ModelKey != "" {
		client.SetModel(lastSession.ModelKey)
	}

	// Load messages from last session if available
	var messages []Message
	needsRender := false
	if lastSession != nil {
		for _, sMsg := range lastSession.Messages {
			messages = append(messages, Message{
				ID:        sMsg.ID,
				Role:      sMsg.Role,
				Content:   sMsg.Content,
				Rendered:  sMsg.Rendered,
				ToolCalls: sMsg.ToolCalls,
				Timestamp: sMsg.Timestamp,
			})
		}
		needsRender = len(messages) > 0
	}

	return &Model{
		Config:             cfg,
		Backend:            client,
		SessionStorage:     sessionStorage,
		SearchIndex:        searchIndex,
		Messages:           messages,
		CurrentSession:     lastSession,
		Streaming:          false,
		SessionDirty:       false,
		NeedsInitialRender: needsRender,
		Quitting:           false,
		Version:            version,
		License:            license,
	}
}

// RemoteSessionID returns the backend session identifier to send with the
// next request, or "" when the conversation has no backend session yet.
func (m *Model) RemoteSessionID() string {
	if m.CurrentSession == nil {
		return ""
	}
	return m.CurrentSession.RemoteID
}
