package model

import (
	"loom/backend"
	"loom/storage"
	"loom/stream"
)

// Messages produced by the exchange loop. The UI re-arms WaitForExchange
// after every non-terminal message; Done, Error and Cancelled are terminal.

// ExchangeUpdateMsg carries a freshly composed view of the in-flight reply.
type ExchangeUpdateMsg struct {
	View stream.View
}

// ExchangeSessionMsg reports the reconciled backend session identifier.
type ExchangeSessionMsg struct {
	ID string
}

// TitleSuggestedMsg carries an advisory session-title suggestion.
type TitleSuggestedMsg struct {
	Title string
}

// ExchangeDoneMsg finalizes the exchange: the completed reply and the
// session identifier it belongs to.
type ExchangeDoneMsg struct {
	FullText  string
	Segments  []stream.Segment
	ToolCalls []stream.ToolCallRecord
	SessionID string
}

// ExchangeErrorMsg ends the exchange in failure. Partial holds whatever had
// streamed before the failure so it can stay on screen.
type ExchangeErrorMsg struct {
	Err     error
	Partial stream.View
}

// ExchangeCancelledMsg ends the exchange after a user cancellation. Partial
// holds the content streamed before the cancel.
type ExchangeCancelledMsg struct {
	Partial stream.View
}

// Session management messages.

type SessionsListMsg struct {
	Sessions []storage.SessionMetadata
	Err      error
}

type SessionLoadedMsg struct {
	Session *storage.Session
	Err     error
}

type SessionSavedMsg struct {
	Err error
}

type SessionRenamedMsg struct {
	Err error
}

type SessionDeletedMsg struct {
	ID  string
	Err error
}

type SessionExportedMsg struct {
	Path string
	Err  error
}

// SearchResultsMsg carries full-text search hits across stored sessions.
type SearchResultsMsg struct {
	Query   string
	Matches []storage.SessionMessageMatch
	Err     error
}

// ModelsListMsg carries the backend's model catalog.
type ModelsListMsg struct {
	Models       []backend.ModelInfo
	Err          error
	ShowSelector bool
}

// BackendStatusMsg reports backend reachability for the status line.
type BackendStatusMsg struct {
	Reachable bool
	Err       error
}

// MarkdownRenderedMsg delivers an async markdown rendering for a message.
type MarkdownRenderedMsg struct {
	MessageIndex int
	Rendered     string
}
