package stream

import (
	"encoding/json"
	"strings"
	"time"

	"loom/config"
)

// ToolCallRecord tracks one tool invocation through its lifecycle:
// started (Arguments/Response/Success nil), arguments-known, completed.
// Records are created on tool_call_start, mutated in place afterwards and
// never deleted during the exchange.
type ToolCallRecord struct {
	ID        string          `json:"tool_id"`
	Name      string          `json:"tool_name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
	Response  json.RawMessage `json:"response,omitempty"`
	Success   *bool           `json:"success,omitempty"`
}

// Completed reports whether the tool call reached its completion event.
func (t *ToolCallRecord) Completed() bool {
	return t.Success != nil
}

// EntryKind identifies what a log entry records.
type EntryKind int

const (
	EntryText EntryKind = iota
	EntryToolStart
	EntryToolComplete
)

// LogEntry is one timestamped record in the exchange's intermediate event
// log. Entries are appended in arrival order; the log is the sole source
// used to reconstruct chronological view order.
type LogEntry struct {
	Kind   EntryKind
	Text   string // EntryText only
	ToolID string // tool entries only
	At     time.Time
}

// Store is the authoritative mutable state for one in-flight exchange:
// the accumulated response text, the tool-call ledger and the append-only
// event log. Exactly one exchange loop drives one store, so mutations are
// single-threaded and need no locking.
type Store struct {
	fullText  strings.Builder
	toolCalls map[string]*ToolCallRecord
	completed []*ToolCallRecord
	log       []LogEntry

	now func() time.Time // test seam
}

// NewStore creates an empty store for one exchange.
func NewStore() *Store {
	return &Store{
		toolCalls: make(map[string]*ToolCallRecord),
		now:       time.Now,
	}
}

// AppendToken concatenates one text increment onto the accumulated response
// and records it in the event log. Text only ever grows while streaming.
func (s *Store) AppendToken(text string) {
	s.fullText.WriteString(text)
	s.log = append(s.log, LogEntry{Kind: EntryText, Text: text, At: s.now()})
}

// StartToolCall registers a new tool invocation in the ledger and records
// the start in the event log. Re-starting an existing tool_id overwrites
// the record (last-start-wins); the backend has not confirmed whether a
// re-start is a retry signal or a protocol bug, so the overwrite is logged
// rather than silently ignored or rejected.
func (s *Store) StartToolCall(toolID, toolName string) {
	if prev, exists := s.toolCalls[toolID]; exists {
		if config.Debug && config.DebugLog != nil {
			config.DebugLog.Printf("[Store] tool call %q re-started, overwriting previous record", toolID)
		}
		// A re-start after completion supersedes the old outcome too;
		// keeping it in the completed sequence would render a stale block.
		if prev.Completed() {
			for i, rec := range s.completed {
				if rec == prev {
					s.completed = append(s.completed[:i], s.completed[i+1:]...)
					break
				}
			}
		}
	}
	s.toolCalls[toolID] = &ToolCallRecord{ID: toolID, Name: toolName}
	s.log = append(s.log, LogEntry{Kind: EntryToolStart, ToolID: toolID, At: s.now()})
}

// SetToolCallArgs fills in the resolved arguments for a started tool call.
// An unknown tool_id is a no-op: args events may race ahead of an
// as-yet-unprocessed start under pathological reordering.
func (s *Store) SetToolCallArgs(toolID string, args json.RawMessage) {
	rec, ok := s.toolCalls[toolID]
	if !ok {
		return
	}
	rec.Arguments = args
}

// CompleteToolCall fills in the outcome of a tool call, moves the record
// into the completed sequence and records the completion in the event log.
// An unknown tool_id is a no-op.
func (s *Store) CompleteToolCall(toolID string, response json.RawMessage, success bool) {
	rec, ok := s.toolCalls[toolID]
	if !ok {
		return
	}
	rec.Response = response
	rec.Success = &success
	s.completed = append(s.completed, rec)
	s.log = append(s.log, LogEntry{Kind: EntryToolComplete, ToolID: toolID, At: s.now()})
}

// FullText returns the accumulated response text so far.
func (s *Store) FullText() string {
	return s.fullText.String()
}

// CompletedToolCalls returns the tool calls that reached completion, in
// completion order. The returned slice is shared; callers must not mutate it.
func (s *Store) CompletedToolCalls() []*ToolCallRecord {
	return s.completed
}

// Log returns the intermediate event log in arrival order. The returned
// slice is shared; callers must not mutate it.
func (s *Store) Log() []LogEntry {
	return s.log
}
