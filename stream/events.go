package stream

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EventType identifies the kind of a decoded stream event.
type EventType string

const (
	EventSessionID        EventType = "session_id"
	EventToken            EventType = "token"
	EventToolCallStart    EventType = "tool_call_start"
	EventToolCallArgs     EventType = "tool_call_args"
	EventToolCallComplete EventType = "tool_call_complete"
	EventTitleUpdate      EventType = "title_update"
	EventEnd              EventType = "end"
	EventError            EventType = "error"

	// EventUnhandled is the passthrough variant for event types this client
	// does not know about. Newer backends may emit new kinds; one unknown
	// type must not abort an otherwise healthy exchange.
	EventUnhandled EventType = "unhandled"
)

// knownEventTypes is the set of wire types this client understands.
var knownEventTypes = map[EventType]bool{
	EventSessionID:        true,
	EventToken:            true,
	EventToolCallStart:    true,
	EventToolCallArgs:     true,
	EventToolCallComplete: true,
	EventTitleUpdate:      true,
	EventEnd:              true,
	EventError:            true,
}

// Event is one decoded unit of meaning from the wire. Which fields are
// populated depends on Type; the decoder normalizes the payload once so
// downstream code never branches on wire shape again.
type Event struct {
	Type EventType `json:"type"`

	// Content carries the payload for session_id, token and error events.
	Content string `json:"content,omitempty"`

	// Tool-call lifecycle fields.
	ToolID    string          `json:"tool_id,omitempty"`
	ToolName  string          `json:"tool_name,omitempty"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
	Response  json.RawMessage `json:"response,omitempty"`
	Success   *bool           `json:"success,omitempty"`

	// Title carries the payload for title_update events.
	Title string `json:"title,omitempty"`

	// RawType preserves the wire type for unhandled events.
	RawType string `json:"-"`
}

// dataPrefix marks data-bearing frames on the wire. Anything else on the
// stream (keep-alives, comment lines) carries no event.
const dataPrefix = "data:"

// DecodeFrame decodes one wire frame into an Event.
//
// Frames without the data prefix are not events: they decode to ok=false
// with no error (keep-alive and comment frames are dropped silently, per
// the protocol). A data frame whose payload is not a JSON object returns an
// error; callers log it, skip the single frame and keep reading, since one
// bad frame must not abort the stream. An unknown type decodes to an
// EventUnhandled passthrough rather than an error.
func DecodeFrame(frame string) (Event, bool, error) {
	payload, isData := strings.CutPrefix(frame, dataPrefix)
	if !isData {
		return Event{}, false, nil
	}
	payload = strings.TrimSpace(payload)

	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return Event{}, false, fmt.Errorf("malformed event frame: %w", err)
	}
	if ev.Type == "" {
		return Event{}, false, fmt.Errorf("event frame has no type field")
	}

	if !knownEventTypes[ev.Type] {
		ev.RawType = string(ev.Type)
		ev.Type = EventUnhandled
	}

	return ev, true, nil
}
