package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"loom/config"
	"loom/storage"
)

// FetchSessionList retrieves the list of saved sessions
func (m *Model) FetchSessionList() tea.Cmd {
	if m.SessionStorage == nil {
		return nil
	}
	store := m.SessionStorage
	return func() tea.Msg {
		sessions, err := store.List()
		return SessionsListMsg{
			Sessions: sessions,
			Err:      err,
		}
	}
}

// LoadSession loads a session by ID
func (m *Model) LoadSession(sessionID string) tea.Cmd {
	if m.SessionStorage == nil {
		return nil
	}

	// Already loaded, just report it back
	if m.CurrentSession != nil && m.CurrentSession.ID == sessionID {
		current := m.CurrentSession
		return func() tea.Msg {
			return SessionLoadedMsg{Session: current}
		}
	}

	store := m.SessionStorage
	return func() tea.Msg {
		session, err := store.Load(sessionID)
		if err != nil {
			return SessionLoadedMsg{Session: nil, Err: err}
		}
		return SessionLoadedMsg{Session: session}
	}
}

// ApplyLoadedSession replaces the in-memory conversation with a loaded
// session and points the backend at its model.
func (m *Model) ApplyLoadedSession(session *storage.Session) {
	m.CurrentSession = session
	m.Messages = nil
	for _, sMsg := range session.Messages {
		m.Messages = append(m.Messages, Message{
			ID:        sMsg.ID,
			Role:      sMsg.Role,
			Content:   sMsg.Content,
			Rendered:  sMsg.Rendered,
			ToolCalls: sMsg.ToolCalls,
			Timestamp: sMsg.Timestamp,
		})
	}
	if m.Backend != nil && session.ModelKey != "" {
		m.Backend.SetModel(session.ModelKey)
	}
	m.SessionDirty = false
	m.NeedsInitialRender = len(m.Messages) > 0
}

// SaveCurrentSession saves the current session to storage and reindexes it
// for full-text search.
func (m *Model) SaveCurrentSession() tea.Cmd {
	if m.SessionStorage == nil || m.CurrentSession == nil {
		return nil
	}

	// Convert business messages to storage messages
	var sessionMessages []storage.Message
	for _, msg := range m.Messages {
		if msg.Role == "user" || msg.Role == "assistant" {
			sessionMessages = append(sessionMessages, storage.Message{
				ID:        msg.ID,
				Role:      msg.Role,
				Content:   msg.Content,
				Rendered:  msg.Rendered,
				ToolCalls: msg.ToolCalls,
				Timestamp: msg.Timestamp,
			})
		}
	}

	m.CurrentSession.Messages = sessionMessages
	m.CurrentSession.UpdatedAt = time.Now()
	if m.Backend != nil {
		m.CurrentSession.ModelKey = m.Backend.GetModel()
	}

	session := m.CurrentSession
	store := m.SessionStorage
	index := m.SearchIndex

	return func() tea.Msg {
		err := store.Save(session)
		if err == nil {
			store.SaveCurrentSessionID(session.ID)
			if index != nil {
				if ierr := index.IndexSession(session); ierr != nil && config.DebugLog != nil {
					config.DebugLog.Printf("[Model] Search indexing failed for session %s: %v", session.ID, ierr)
				}
			}
		}
		return SessionSavedMsg{Err: err}
	}
}

// AutoSaveSession saves the conversation after an exchange, creating and
// naming the session on first save.
func (m *Model) AutoSaveSession() tea.Cmd {
	if m.SessionStorage == nil {
		return nil
	}

	if m.CurrentSession == nil {
		m.CurrentSession = &storage.Session{
			Name:      storage.GenerateSessionName(m.firstUserMessage()),
			ModelKey:  m.Config.DefaultModel,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
			AutoNamed: true,
		}
	} else if m.CurrentSession.Name == "New Session" && len(m.Messages) > 0 {
		if first := m.firstUserMessage(); first != "" {
			m.CurrentSession.Name = storage.GenerateSessionName(first)
			m.CurrentSession.AutoNamed = true
		}
	}

	return m.SaveCurrentSession()
}

func (m *Model) firstUserMessage() string {
	for _, msg := range m.Messages {
		if msg.Role == "user" {
			return msg.Content
		}
	}
	return ""
}

// ApplyTitleSuggestion adopts a backend title suggestion for the current
// session. Suggestions never override a name the user typed themselves.
func (m *Model) ApplyTitleSuggestion(title string) {
	title = strings.TrimSpace(title)
	if title == "" || m.CurrentSession == nil {
		return
	}
	if !m.CurrentSession.AutoNamed && m.CurrentSession.Name != "New Session" && m.CurrentSession.Name != "" {
		if config.Debug && config.DebugLog != nil {
			config.DebugLog.Printf("[Model] Ignoring title suggestion %q: session named by user", title)
		}
		return
	}
	m.CurrentSession.Name = title
	m.CurrentSession.AutoNamed = true
	m.SessionDirty = true
}

// NewSession starts a fresh conversation, saving it immediately so it shows
// up in the session list.
func (m *Model) NewSession() (*storage.Session, error) {
	session := &storage.Session{
		Name:      "New Session",
		ModelKey:  m.Config.DefaultModel,
		Messages:  []storage.Message{},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if m.Backend != nil {
		m.Backend.SetModel(m.Config.DefaultModel)
	}

	if m.SessionStorage != nil {
		if err := m.SessionStorage.Save(session); err != nil {
			return nil, fmt.Errorf("failed to save new session: %w", err)
		}
		if err := m.SessionStorage.SaveCurrentSessionID(session.ID); err != nil {
			return nil, fmt.Errorf("failed to save current session ID: %w", err)
		}
	}

	m.CurrentSession = session
	m.Messages = nil
	m.SessionDirty = false
	m.NeedsInitialRender = false

	return session, nil
}

// RenameSessionCmd renames a session and refreshes the session list
func (m *Model) RenameSessionCmd(sessionID, newName string) tea.Cmd {
	store := m.SessionStorage
	index := m.SearchIndex
	current := m.CurrentSession
	return func() tea.Msg {
		if store == nil {
			return SessionRenamedMsg{Err: fmt.Errorf("session storage not initialized")}
		}

		if err := store.Rename(sessionID, newName); err != nil {
			return SessionRenamedMsg{Err: err}
		}
		if current != nil && current.ID == sessionID {
			current.Name = newName
			current.AutoNamed = false
		}
		if index != nil {
			if session, err := store.Load(sessionID); err == nil {
				_ = index.IndexSession(session)
			}
		}

		sessions, err := store.List()
		if err != nil {
			return SessionRenamedMsg{Err: err}
		}
		return SessionsListMsg{Sessions: sessions}
	}
}

// DeleteSessionCmd removes a session from storage and the search index.
func (m *Model) DeleteSessionCmd(sessionID string) tea.Cmd {
	store := m.SessionStorage
	index := m.SearchIndex
	return func() tea.Msg {
		if store == nil {
			return SessionDeletedMsg{ID: sessionID, Err: fmt.Errorf("session storage not initialized")}
		}
		if err := store.Delete(sessionID); err != nil {
			return SessionDeletedMsg{ID: sessionID, Err: err}
		}
		if index != nil {
			if err := index.RemoveSession(sessionID); err != nil && config.DebugLog != nil {
				config.DebugLog.Printf("[Model] Search index removal failed for session %s: %v", sessionID, err)
			}
		}
		return SessionDeletedMsg{ID: sessionID}
	}
}

// ExportSessionCmd exports a session as a markdown transcript.
func (m *Model) ExportSessionCmd(sessionID, exportPath string) tea.Cmd {
	store := m.SessionStorage
	return func() tea.Msg {
		if store == nil {
			return SessionExportedMsg{Err: fmt.Errorf("session storage not initialized")}
		}

		session, err := store.Load(sessionID)
		if err != nil {
			return SessionExportedMsg{Err: err}
		}

		data := formatSessionMarkdown(session)

		// 0700 - user-only access
		if err := os.MkdirAll(filepath.Dir(exportPath), 0700); err != nil {
			return SessionExportedMsg{Err: err}
		}
		// 0600 - exports contain conversation data
		if err := os.WriteFile(exportPath, []byte(data), 0600); err != nil {
			return SessionExportedMsg{Err: err}
		}

		return SessionExportedMsg{Path: exportPath}
	}
}

// formatSessionMarkdown renders a stored session as a markdown transcript.
func formatSessionMarkdown(session *storage.Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", session.Name)
	fmt.Fprintf(&b, "Exported %s\n\n", time.Now().Format("2006-01-02 15:04"))
	for _, msg := range session.Messages {
		switch msg.Role {
		case "user":
			b.WriteString("## You\n\n")
		case "assistant":
			b.WriteString("## Assistant\n\n")
		default:
			continue
		}
		b.WriteString(msg.Content)
		b.WriteString("\n\n")
		for _, tc := range msg.ToolCalls {
			fmt.Fprintf(&b, "> Tool `%s` (%s)\n\n", tc.Name, tc.ID)
		}
	}
	return b.String()
}

// SearchMessages runs a full-text search across all stored sessions.
func (m *Model) SearchMessages(query string) tea.Cmd {
	index := m.SearchIndex
	return func() tea.Msg {
		if index == nil {
			return SearchResultsMsg{Query: query, Err: fmt.Errorf("search index not initialized")}
		}
		matches, err := index.Search(query)
		return SearchResultsMsg{Query: query, Matches: matches, Err: err}
	}
}
