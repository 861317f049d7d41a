package storage

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"loom/stream"
)

func boolPtr(b bool) *bool { return &b }

func TestSessionSaveLoadRoundtrip(t *testing.T) {
	s, err := NewSessionStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewSessionStorage() error = %v", err)
	}

	session := &Session{
		Name:     "Trip planning",
		RemoteID: "srv-42",
		ModelKey: "standard",
		Messages: []Message{
			{Role: "user", Content: "Find flights", Timestamp: time.Now()},
			{
				Role:    "assistant",
				Content: "Found 3 options.",
				ToolCalls: []stream.ToolCallRecord{
					{
						ID:        "t1",
						Name:      "flight_search",
						Arguments: json.RawMessage(`{"to":"LIS"}`),
						Response:  json.RawMessage(`{"n":3}`),
						Success:   boolPtr(true),
					},
				},
				Timestamp: time.Now(),
			},
		},
	}

	if err := s.Save(session); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if session.ID == "" {
		t.Fatal("Save() did not assign an ID")
	}

	loaded, err := s.Load(session.ID)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Name != "Trip planning" || loaded.RemoteID != "srv-42" {
		t.Errorf("loaded = %+v", loaded)
	}
	if len(loaded.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(loaded.Messages))
	}
	tc := loaded.Messages[1].ToolCalls
	if len(tc) != 1 || tc[0].Name != "flight_search" || tc[0].Success == nil || !*tc[0].Success {
		t.Errorf("tool calls = %+v", tc)
	}
}

func TestSessionListSortsByUpdateTime(t *testing.T) {
	s, err := NewSessionStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewSessionStorage() error = %v", err)
	}

	old := &Session{Name: "old"}
	if err := s.Save(old); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	recent := &Session{Name: "recent"}
	if err := s.Save(recent); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	list, err := s.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d sessions, want 2", len(list))
	}
	if list[0].Name != "recent" {
		t.Errorf("list[0] = %q, want newest first", list[0].Name)
	}
}

func TestSessionDelete(t *testing.T) {
	s, err := NewSessionStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewSessionStorage() error = %v", err)
	}

	session := &Session{Name: "doomed"}
	if err := s.Save(session); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := s.Delete(session.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Load(session.ID); err == nil {
		t.Error("Load() succeeded after Delete()")
	}
}

func TestCurrentSessionIDRoundtrip(t *testing.T) {
	s, err := NewSessionStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewSessionStorage() error = %v", err)
	}

	if err := s.SaveCurrentSessionID("abc-123"); err != nil {
		t.Fatalf("SaveCurrentSessionID() error = %v", err)
	}
	id, err := s.LoadCurrentSessionID()
	if err != nil {
		t.Fatalf("LoadCurrentSessionID() error = %v", err)
	}
	if id != "abc-123" {
		t.Errorf("id = %q", id)
	}
}

func TestRenameClearsAutoNamed(t *testing.T) {
	s, err := NewSessionStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewSessionStorage() error = %v", err)
	}

	session := &Session{Name: "Suggested title", AutoNamed: true}
	if err := s.Save(session); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := s.Rename(session.ID, "My name"); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}

	loaded, err := s.Load(session.ID)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Name != "My name" || loaded.AutoNamed {
		t.Errorf("loaded = %+v, want user rename to stick", loaded)
	}
}

func TestGenerateSessionNameTruncatesOnRuneBoundary(t *testing.T) {
	short := GenerateSessionName("plan a trip")
	if short != "plan a trip" {
		t.Errorf("GenerateSessionName() = %q, want input unchanged", short)
	}

	long := strings.Repeat("日", 40)
	got := GenerateSessionName(long)
	if !utf8.ValidString(got) {
		t.Fatalf("GenerateSessionName() = %q is not valid UTF-8", got)
	}
	if got != strings.Repeat("日", 30)+"..." {
		t.Errorf("GenerateSessionName() = %q, want 30 runes plus ellipsis", got)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain name", "plain name"},
		{"a/b\\c:d", "a-b-c-d"},
		{"  ", "untitled"},
		{`what? "quotes" <ok>`, `what- -quotes- -ok-`},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
