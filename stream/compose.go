package stream

import (
	"sort"
	"strings"
)

// SegmentKind identifies what a view segment renders.
type SegmentKind int

const (
	SegmentText SegmentKind = iota
	SegmentToolCall
)

// Segment is one renderable unit of the assistant's reply in chronological
// order: either a run of text or a completed tool-call block.
type Segment struct {
	Kind     SegmentKind
	Text     string          // SegmentText only
	ToolCall *ToolCallRecord // SegmentToolCall only
}

// Compose derives the ordered sequence of renderable segments from the
// exchange's event log and completed tool calls.
//
// The log is sorted by timestamp with a stable sort; ties keep arrival
// order. Arrival order is itself time-monotonic by construction, so the
// sort is a safety net rather than a real reordering. Consecutive text
// entries merge into one segment; a tool-call start flushes the pending
// text (dropped when whitespace-only) and emits the completed record for
// that tool_id. A re-started tool_id has several start entries; the block
// is anchored at the last one, matching the last-start-wins ledger, so
// each tool call renders exactly once. A tool call that never completed
// (the exchange ended abnormally) is omitted entirely rather than
// rendered as a broken block.
//
// fullText is the store's accumulated response text. If it extends past the
// text represented in the log (state rebuilt from a non-streaming source),
// the remainder is appended as a trailing text segment.
//
// Compose is pure: it mutates nothing and always yields the same output for
// the same inputs.
func Compose(log []LogEntry, completed []*ToolCallRecord, fullText string) []Segment {
	sorted := make([]LogEntry, len(log))
	copy(sorted, log)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].At.Before(sorted[j].At)
	})

	completedByID := make(map[string]*ToolCallRecord, len(completed))
	for _, rec := range completed {
		completedByID[rec.ID] = rec
	}

	lastStart := make(map[string]int)
	for i, entry := range sorted {
		if entry.Kind == EntryToolStart {
			lastStart[entry.ToolID] = i
		}
	}

	var segments []Segment
	var pending strings.Builder
	var logged strings.Builder // all text entries, for the trailing check

	flush := func() {
		text := pending.String()
		pending.Reset()
		if strings.TrimSpace(text) == "" {
			return
		}
		segments = append(segments, Segment{Kind: SegmentText, Text: text})
	}

	for i, entry := range sorted {
		switch entry.Kind {
		case EntryText:
			pending.WriteString(entry.Text)
			logged.WriteString(entry.Text)
		case EntryToolStart:
			flush()
			if lastStart[entry.ToolID] != i {
				// Superseded by a later re-start of the same id; the block
				// renders there instead.
				continue
			}
			if rec, ok := completedByID[entry.ToolID]; ok {
				segments = append(segments, Segment{Kind: SegmentToolCall, ToolCall: rec})
			}
		case EntryToolComplete:
			// Ordering only; the block is emitted at its start position.
		}
	}
	flush()

	// Reconciliation: text present in fullText but not in any log entry
	// (state rebuilt from a snapshot rather than a live stream) trails the
	// composed view so no content is lost.
	if rest, ok := strings.CutPrefix(fullText, logged.String()); ok {
		if strings.TrimSpace(rest) != "" {
			segments = append(segments, Segment{Kind: SegmentText, Text: rest})
		}
	}

	return segments
}
