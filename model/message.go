package model

import (
	"time"

	"loom/stream"
)

// Message represents a chat message in the conversation. ID is an opaque
// stable identifier assigned at creation. Content grows as the assistant
// streams and is frozen when the exchange finalizes; Rendered caches the
// markdown rendering of the finished content.
type Message struct {
	ID        string
	Role      string
	Content   string
	Rendered  string
	ToolCalls []stream.ToolCallRecord
	Timestamp time.Time
}
