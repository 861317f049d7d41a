package stream

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

// newTestStore returns a store whose clock ticks one millisecond per call,
// so log entries get distinct, strictly increasing timestamps.
func newTestStore() *Store {
	s := NewStore()
	base := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Millisecond)
	}
	return s
}

func TestStoreAppendTokenGrowsMonotonically(t *testing.T) {
	s := newTestStore()
	tokens := []string{"Hel", "lo", ", ", "world"}

	prev := ""
	for _, tok := range tokens {
		s.AppendToken(tok)
		got := s.FullText()
		if !strings.HasPrefix(got, prev) {
			t.Fatalf("FullText() = %q is not a prefix-extension of %q", got, prev)
		}
		prev = got
	}
	if prev != "Hello, world" {
		t.Errorf("FullText() = %q, want %q", prev, "Hello, world")
	}
	if len(s.Log()) != len(tokens) {
		t.Errorf("log has %d entries, want %d", len(s.Log()), len(tokens))
	}
}

func TestStoreToolCallLifecycle(t *testing.T) {
	s := newTestStore()
	s.StartToolCall("t1", "search")
	s.SetToolCallArgs("t1", json.RawMessage(`{"q":"go"}`))

	if len(s.CompletedToolCalls()) != 0 {
		t.Fatal("tool call completed before complete event")
	}

	s.CompleteToolCall("t1", json.RawMessage(`{"n":3}`), true)

	completed := s.CompletedToolCalls()
	if len(completed) != 1 {
		t.Fatalf("got %d completed tool calls, want 1", len(completed))
	}
	rec := completed[0]
	if rec.ID != "t1" || rec.Name != "search" {
		t.Errorf("record = (%q, %q)", rec.ID, rec.Name)
	}
	if string(rec.Arguments) != `{"q":"go"}` {
		t.Errorf("Arguments = %s", rec.Arguments)
	}
	if !rec.Completed() || rec.Success == nil || !*rec.Success {
		t.Error("record not marked completed/successful")
	}
}

func TestStoreRestartOverwritesRecord(t *testing.T) {
	s := newTestStore()
	s.StartToolCall("t1", "search")
	s.SetToolCallArgs("t1", json.RawMessage(`{"q":"old"}`))
	s.StartToolCall("t1", "lookup")

	s.CompleteToolCall("t1", json.RawMessage(`{}`), true)
	rec := s.CompletedToolCalls()[0]
	if rec.Name != "lookup" {
		t.Errorf("Name = %q, want last start to win", rec.Name)
	}
	if rec.Arguments != nil {
		t.Errorf("Arguments = %s, want reset by re-start", rec.Arguments)
	}
}

func TestStoreRestartAfterCompletionDropsStaleOutcome(t *testing.T) {
	s := newTestStore()
	s.StartToolCall("t1", "search")
	s.CompleteToolCall("t1", json.RawMessage(`{"n":1}`), true)
	s.StartToolCall("t1", "search")

	if got := s.CompletedToolCalls(); len(got) != 0 {
		t.Fatalf("got %d completed tool calls after re-start, want 0 (old outcome is superseded)", len(got))
	}

	s.CompleteToolCall("t1", json.RawMessage(`{"n":2}`), false)
	completed := s.CompletedToolCalls()
	if len(completed) != 1 {
		t.Fatalf("got %d completed tool calls, want 1", len(completed))
	}
	if string(completed[0].Response) != `{"n":2}` {
		t.Errorf("Response = %s, want the re-started call's outcome", completed[0].Response)
	}
}

func TestStoreUnknownToolIDIsNoOp(t *testing.T) {
	s := newTestStore()
	s.AppendToken("hi")

	s.SetToolCallArgs("ghost", json.RawMessage(`{}`))
	s.CompleteToolCall("ghost", json.RawMessage(`{}`), true)

	if len(s.CompletedToolCalls()) != 0 {
		t.Error("completion of unknown tool_id mutated the ledger")
	}
	if len(s.Log()) != 1 {
		t.Errorf("log has %d entries, want 1 (no-ops must not log)", len(s.Log()))
	}
}

func TestStoreLogPreservesArrivalOrder(t *testing.T) {
	s := newTestStore()
	s.StartToolCall("t1", "search")
	s.AppendToken("Found ")
	s.CompleteToolCall("t1", nil, true)
	s.AppendToken("3 results.")

	kinds := []EntryKind{EntryToolStart, EntryText, EntryToolComplete, EntryText}
	log := s.Log()
	if len(log) != len(kinds) {
		t.Fatalf("log has %d entries, want %d", len(log), len(kinds))
	}
	for i, want := range kinds {
		if log[i].Kind != want {
			t.Errorf("entry %d kind = %d, want %d", i, log[i].Kind, want)
		}
		if i > 0 && log[i].At.Before(log[i-1].At) {
			t.Errorf("entry %d timestamp precedes entry %d", i, i-1)
		}
	}
}
