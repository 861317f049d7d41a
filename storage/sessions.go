package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"loom/stream"
)

// Message represents one persisted conversation turn. ToolCalls carries the
// completed tool invocations the assistant made while producing the turn.
type Message struct {
	ID        string                  `json:"id,omitempty"`
	Role      string                  `json:"role"`
	Content   string                  `json:"content"`
	Rendered  string                  `json:"rendered,omitempty"` // Cached markdown rendering
	ToolCalls []stream.ToolCallRecord `json:"tool_calls,omitempty"`
	Timestamp time.Time               `json:"timestamp"`
}

// Session represents a chat session. ID is the local identifier; RemoteID
// is the backend's session identifier, learned from the stream on the first
// exchange and reused so the backend keeps the conversation context.
type Session struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	RemoteID  string    `json:"remote_id,omitempty"`
	ModelKey  string    `json:"model_key"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  []Message `json:"messages"`

	// AutoNamed marks sessions whose name came from a backend title
	// suggestion rather than the user; those may be renamed again by
	// later suggestions.
	AutoNamed bool `json:"auto_named,omitempty"`
}

// SessionMetadata is a lightweight version of Session for listing.
type SessionMetadata struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ModelKey     string    `json:"model_key"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
}

// SessionStorage handles session persistence as one JSON file per session.
type SessionStorage struct {
	sessionsDir string
}

// NewSessionStorage creates a new session storage under dataDir.
func NewSessionStorage(dataDir string) (*SessionStorage, error) {
	sessionsDir := filepath.Join(dataDir, "sessions")

	// 0700 - user-only access
	if err := os.MkdirAll(sessionsDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}

	return &SessionStorage{sessionsDir: sessionsDir}, nil
}

// Save saves a session to disk, assigning an ID on first save.
func (s *SessionStorage) Save(session *Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}

	session.UpdatedAt = time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = session.UpdatedAt
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	path := filepath.Join(s.sessionsDir, session.ID+".json")
	// 0600 - session files contain conversation history
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	return nil
}

// Load loads a session from disk.
func (s *SessionStorage) Load(id string) (*Session, error) {
	path := filepath.Join(s.sessionsDir, id+".json")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &session, nil
}

// List returns metadata for all sessions, sorted by update time (newest first).
func (s *SessionStorage) List() ([]SessionMetadata, error) {
	entries, err := os.ReadDir(s.sessionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	var sessions []SessionMetadata

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.sessionsDir, entry.Name()))
		if err != nil {
			continue // Skip corrupted files
		}

		var session Session
		if err := json.Unmarshal(data, &session); err != nil {
			continue // Skip corrupted files
		}

		sessions = append(sessions, SessionMetadata{
			ID:           session.ID,
			Name:         session.Name,
			ModelKey:     session.ModelKey,
			CreatedAt:    session.CreatedAt,
			UpdatedAt:    session.UpdatedAt,
			MessageCount: len(session.Messages),
		})
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})

	return sessions, nil
}

// Delete deletes a session from disk.
func (s *SessionStorage) Delete(id string) error {
	if err := os.Remove(filepath.Join(s.sessionsDir, id+".json")); err != nil {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}

// SaveCurrentSessionID records the last active session for auto-restore.
func (s *SessionStorage) SaveCurrentSessionID(id string) error {
	path := filepath.Join(filepath.Dir(s.sessionsDir), "current_session.id")
	return os.WriteFile(path, []byte(id), 0600)
}

// LoadCurrentSessionID returns the ID of the last active session.
func (s *SessionStorage) LoadCurrentSessionID() (string, error) {
	path := filepath.Join(filepath.Dir(s.sessionsDir), "current_session.id")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Rename updates the name of a stored session.
func (s *SessionStorage) Rename(id string, newName string) error {
	session, err := s.Load(id)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	session.Name = newName
	session.AutoNamed = false

	if err := s.Save(session); err != nil {
		return fmt.Errorf("failed to save renamed session: %w", err)
	}

	return nil
}

// GenerateSessionName derives a session name from the first user message.
func GenerateSessionName(firstMessage string) string {
	name := firstMessage
	// Truncate on rune boundaries so a multi-byte character is never split.
	if runes := []rune(name); len(runes) > 30 {
		name = string(runes[:30]) + "..."
	}
	name = strings.ReplaceAll(name, "\n", " ")
	name = strings.ReplaceAll(name, "\r", " ")
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Sprintf("Session %s", time.Now().Format("Jan 2, 3:04 PM"))
	}
	return name
}

// SanitizeFilename makes a session name safe to use as an export filename.
func SanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "-", "\\", "-", ":", "-", "*", "-",
		"?", "-", "\"", "-", "<", "-", ">", "-", "|", "-",
	)
	sanitized := strings.TrimSpace(replacer.Replace(name))
	if sanitized == "" {
		sanitized = "untitled"
	}
	return sanitized
}
