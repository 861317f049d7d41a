package ui

import (
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"loom/config"
	"loom/stream"
)

// handleExchangeMessage handles every message produced by a running
// exchange. Non-terminal messages re-arm WaitForExchange so the next one is
// delivered; terminal messages finalize the assistant reply.
func (a AppView) handleExchangeMessage(msg tea.Msg) (AppView, tea.Cmd) {
	// The user switched conversations while this exchange was running: drain
	// its remaining messages without writing anything into the new
	// conversation.
	if a.discardExchangeOutcome {
		switch msg.(type) {
		case exchangeDoneMsg, exchangeErrorMsg, exchangeCancelledMsg:
			a.dataModel.FinishExchange()
			a.streamView = stream.View{}
			a.discardExchangeOutcome = false
			return a, nil
		default:
			return a, a.dataModel.WaitForExchange()
		}
	}

	switch msg := msg.(type) {
	case exchangeUpdateMsg:
		a.streamView = msg.View
		a.updateStreamingMessage()
		return a, a.dataModel.WaitForExchange()

	case exchangeSessionMsg:
		a.dataModel.AdoptSessionID(msg.ID)
		return a, a.dataModel.WaitForExchange()

	case titleSuggestedMsg:
		a.dataModel.ApplyTitleSuggestion(msg.Title)
		return a, a.dataModel.WaitForExchange()

	case exchangeDoneMsg:
		if config.DebugLog != nil {
			config.DebugLog.Printf("[UI] Exchange done - %d chars, %d tool calls", len(msg.FullText), len(msg.ToolCalls))
		}

		a.dataModel.FinishExchange()
		a.dataModel.AdoptSessionID(msg.SessionID)
		a.streamView = stream.View{}

		idx := a.finalizeAssistantMessage(msg.FullText, msg.ToolCalls)
		a.updateViewportContent(true)
		a.dataModel.SessionDirty = true

		cmds := []tea.Cmd{a.dataModel.AutoSaveSession()}
		if idx >= 0 && msg.FullText != "" {
			cmds = append(cmds, a.renderMarkdownAsync(idx, msg.FullText))
		}
		return a, tea.Batch(cmds...)

	case exchangeErrorMsg:
		if config.DebugLog != nil {
			config.DebugLog.Printf("[UI] Exchange error: %v", msg.Err)
		}

		a.dataModel.FinishExchange()
		a.streamView = stream.View{}

		var protoErr *stream.ProtocolError
		if errors.As(msg.Err, &protoErr) {
			// Server-side failure: the error message replaces the reply.
			display := fmt.Sprintf("❌ Error: %s", protoErr.Message)
			a.replaceAssistantMessage(display)
		} else {
			// Transport failure: keep whatever streamed, then explain.
			a.finalizeAssistantMessage(msg.Partial.FullText, nil)
			a.appendSystemMessage(fmt.Sprintf("❌ Connection error: %v\n\nMake sure LOOM_BACKEND_URL is set correctly.", msg.Err))
		}
		a.updateViewportContent(true)
		return a, a.dataModel.AutoSaveSession()

	case exchangeCancelledMsg:
		if config.DebugLog != nil {
			config.DebugLog.Printf("[UI] Exchange cancelled - keeping %d chars of partial reply", len(msg.Partial.FullText))
		}

		a.dataModel.FinishExchange()
		a.streamView = stream.View{}

		if msg.Partial.FullText != "" {
			a.finalizeAssistantMessage(msg.Partial.FullText+"\n\n⚠️ Response cancelled", nil)
		} else {
			a.replaceAssistantMessage("⚠️ Request cancelled")
		}
		a.updateViewportContent(true)
		return a, a.dataModel.AutoSaveSession()
	}

	return a, nil
}

// finalizeAssistantMessage writes the finished reply into the placeholder
// appended by BeginExchange, returning its index.
func (a *AppView) finalizeAssistantMessage(fullText string, toolCalls []stream.ToolCallRecord) int {
	idx := a.lastAssistantIndex()
	if idx < 0 {
		return -1
	}
	a.dataModel.Messages[idx].Content = fullText
	a.dataModel.Messages[idx].Rendered = fullText
	a.dataModel.Messages[idx].ToolCalls = toolCalls
	a.dataModel.Messages[idx].Timestamp = time.Now()
	return idx
}

// replaceAssistantMessage turns the placeholder into a system notice.
func (a *AppView) replaceAssistantMessage(display string) {
	idx := a.lastAssistantIndex()
	if idx < 0 {
		a.appendSystemMessage(display)
		return
	}
	a.dataModel.Messages[idx].Role = "system"
	a.dataModel.Messages[idx].Content = display
	a.dataModel.Messages[idx].Rendered = display
	a.dataModel.Messages[idx].Timestamp = time.Now()
}

func (a *AppView) appendSystemMessage(text string) {
	a.dataModel.Messages = append(a.dataModel.Messages, Message{
		Role:      "system",
		Content:   text,
		Rendered:  text,
		Timestamp: time.Now(),
	})
}

func (a *AppView) lastAssistantIndex() int {
	for i := len(a.dataModel.Messages) - 1; i >= 0; i-- {
		if a.dataModel.Messages[i].Role == "assistant" {
			return i
		}
	}
	return -1
}
