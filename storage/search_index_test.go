package storage

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func newIndexedSession(t *testing.T, si *SearchIndex, id, name string, contents ...string) *Session {
	t.Helper()
	session := &Session{ID: id, Name: name}
	for i, content := range contents {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		session.Messages = append(session.Messages, Message{
			Role:      role,
			Content:   content,
			Timestamp: time.Now(),
		})
	}
	if err := si.IndexSession(session); err != nil {
		t.Fatalf("IndexSession() error = %v", err)
	}
	return session
}

func TestSearchFindsMessagesAcrossSessions(t *testing.T) {
	si, err := NewSearchIndex(t.TempDir())
	if err != nil {
		t.Fatalf("NewSearchIndex() error = %v", err)
	}
	defer si.Close()

	newIndexedSession(t, si, "s1", "Cooking", "how do I make sourdough bread", "You need a starter.")
	newIndexedSession(t, si, "s2", "Travel", "cheap flights to lisbon", "Here are some options.")

	matches, err := si.Search("sourdough")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	if matches[0].SessionID != "s1" || matches[0].MessageIndex != 0 {
		t.Errorf("match = %+v", matches[0])
	}
}

func TestSearchSkipsSystemMessages(t *testing.T) {
	si, err := NewSearchIndex(t.TempDir())
	if err != nil {
		t.Fatalf("NewSearchIndex() error = %v", err)
	}
	defer si.Close()

	session := &Session{
		ID:   "s1",
		Name: "Errors",
		Messages: []Message{
			{Role: "system", Content: "connection zebra failed", Timestamp: time.Now()},
			{Role: "user", Content: "hello there", Timestamp: time.Now()},
		},
	}
	if err := si.IndexSession(session); err != nil {
		t.Fatalf("IndexSession() error = %v", err)
	}

	matches, err := si.Search("zebra")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("got %d matches for system message content, want 0", len(matches))
	}
}

func TestReindexReplacesOldContent(t *testing.T) {
	si, err := NewSearchIndex(t.TempDir())
	if err != nil {
		t.Fatalf("NewSearchIndex() error = %v", err)
	}
	defer si.Close()

	session := newIndexedSession(t, si, "s1", "Draft", "original wording here")
	session.Messages[0].Content = "revised wording here"
	if err := si.IndexSession(session); err != nil {
		t.Fatalf("IndexSession() error = %v", err)
	}

	if matches, _ := si.Search("original"); len(matches) != 0 {
		t.Errorf("stale content still indexed: %d matches", len(matches))
	}
	if matches, _ := si.Search("revised"); len(matches) != 1 {
		t.Errorf("got %d matches for revised content, want 1", len(matches))
	}
}

func TestRemoveSession(t *testing.T) {
	si, err := NewSearchIndex(t.TempDir())
	if err != nil {
		t.Fatalf("NewSearchIndex() error = %v", err)
	}
	defer si.Close()

	newIndexedSession(t, si, "s1", "Gone", "findable phrase")
	if err := si.RemoveSession("s1"); err != nil {
		t.Fatalf("RemoveSession() error = %v", err)
	}

	matches, err := si.Search("findable")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("got %d matches after removal, want 0", len(matches))
	}
}

func TestSearchQuotingNeutralizesOperators(t *testing.T) {
	si, err := NewSearchIndex(t.TempDir())
	if err != nil {
		t.Fatalf("NewSearchIndex() error = %v", err)
	}
	defer si.Close()

	newIndexedSession(t, si, "s1", "Ops", "plain text message")

	// Raw FTS operators in user input must not produce a syntax error.
	if _, err := si.Search(`AND NOT "broken`); err != nil {
		t.Errorf("Search() error = %v, want operators neutralized", err)
	}
}

func TestMakePreviewTruncatesOnRuneBoundary(t *testing.T) {
	long := "検索 " + strings.Repeat("語", 120)
	got := makePreview(long)
	if !utf8.ValidString(got) {
		t.Fatalf("makePreview() = %q is not valid UTF-8", got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("makePreview() = %q, want ellipsis suffix", got)
	}
	if n := utf8.RuneCountInString(strings.TrimSuffix(got, "...")); n != 100 {
		t.Errorf("preview has %d runes before the ellipsis, want 100", n)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	si, err := NewSearchIndex(t.TempDir())
	if err != nil {
		t.Fatalf("NewSearchIndex() error = %v", err)
	}
	defer si.Close()

	matches, err := si.Search("   ")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("got %d matches for empty query, want 0", len(matches))
	}
}
