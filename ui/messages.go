package ui

import (
	"loom/model"
)

// Message is the conversation message type shared with the model package.
type Message = model.Message

// Message type aliases - these are defined in the model package
type exchangeUpdateMsg = model.ExchangeUpdateMsg
type exchangeSessionMsg = model.ExchangeSessionMsg
type exchangeDoneMsg = model.ExchangeDoneMsg
type exchangeErrorMsg = model.ExchangeErrorMsg
type exchangeCancelledMsg = model.ExchangeCancelledMsg
type titleSuggestedMsg = model.TitleSuggestedMsg
type markdownRenderedMsg = model.MarkdownRenderedMsg
type modelsListMsg = model.ModelsListMsg
type backendStatusMsg = model.BackendStatusMsg
type sessionsListMsg = model.SessionsListMsg
type sessionLoadedMsg = model.SessionLoadedMsg
type sessionSavedMsg = model.SessionSavedMsg
type sessionRenamedMsg = model.SessionRenamedMsg
type sessionDeletedMsg = model.SessionDeletedMsg
type sessionExportedMsg = model.SessionExportedMsg
type searchResultsMsg = model.SearchResultsMsg
