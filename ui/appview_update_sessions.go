package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"loom/config"
)

// handleSessionMessage handles messages produced by session storage and
// search commands.
func (a AppView) handleSessionMessage(msg tea.Msg) (AppView, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionsListMsg:
		if msg.Err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[UI] Error fetching sessions: %v", msg.Err)
			}
			return a, nil
		}

		a.sessionList = msg.Sessions
		if a.selectedSessionIdx >= len(msg.Sessions) {
			a.selectedSessionIdx = 0
		}

		// Select current session when the manager opens
		if a.showSessionManager && a.dataModel.CurrentSession != nil {
			for i, session := range msg.Sessions {
				if session.ID == a.dataModel.CurrentSession.ID {
					a.selectedSessionIdx = i
					break
				}
			}
		}

		// The current session was just deleted: fall back to the newest one
		if a.dataModel.CurrentSession == nil && len(msg.Sessions) > 0 {
			a.cancelExchangeForSwitch()
			return a, a.dataModel.LoadSession(msg.Sessions[0].ID)
		}
		return a, nil

	case sessionLoadedMsg:
		if msg.Err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[UI] Error loading session: %v", msg.Err)
			}
			a.showInfoModal = true
			a.infoModalTitle = "⚠ Load Failed"
			a.infoModalMsg = msg.Err.Error()
			return a, nil
		}

		a.dataModel.ApplyLoadedSession(msg.Session)
		a.showSessionManager = false
		if a.dataModel.SessionStorage != nil {
			a.dataModel.SessionStorage.SaveCurrentSessionID(msg.Session.ID)
		}
		a.updateViewportContent(true)

		// Render loaded messages that have no cached markdown
		var renderCmds []tea.Cmd
		for i, m := range a.dataModel.Messages {
			if m.Role != "assistant" && m.Role != "user" {
				continue
			}
			if m.Rendered != "" && m.Rendered != m.Content {
				continue
			}
			renderCmds = append(renderCmds, a.renderMarkdownAsync(i, m.Content))
		}
		a.dataModel.NeedsInitialRender = false
		return a, tea.Batch(renderCmds...)

	case sessionSavedMsg:
		if msg.Err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[UI] Error saving session: %v", msg.Err)
			}
			return a, nil
		}
		a.dataModel.SessionDirty = false
		return a, nil

	case sessionRenamedMsg:
		if msg.Err != nil && config.DebugLog != nil {
			config.DebugLog.Printf("[UI] Error renaming session: %v", msg.Err)
		}
		return a, nil

	case sessionDeletedMsg:
		if msg.Err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[UI] Error deleting session: %v", msg.Err)
			}
			return a, nil
		}
		if a.dataModel.CurrentSession != nil && a.dataModel.CurrentSession.ID == msg.ID {
			a.dataModel.CurrentSession = nil
			a.dataModel.Messages = nil
			a.updateViewportContent(true)
		}
		return a, a.dataModel.FetchSessionList()

	case sessionExportedMsg:
		if msg.Err != nil {
			a.showInfoModal = true
			a.infoModalTitle = "⚠ Export Failed"
			a.infoModalMsg = msg.Err.Error()
			return a, nil
		}
		a.exportNotice = "Exported to " + msg.Path
		return a, nil

	case searchResultsMsg:
		if msg.Err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[UI] Search failed: %v", msg.Err)
			}
			return a, nil
		}
		// Ignore stale results from an earlier keystroke
		if msg.Query != a.globalSearchInput.Value() {
			return a, nil
		}
		a.globalResults = msg.Matches
		a.selectedGlobalIdx = 0
		return a, nil
	}

	return a, nil
}

// handleModelSelectorUpdate drives the model picker.
func (a AppView) handleModelSelectorUpdate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		a.showModelSelector = false
		return a, nil

	case "j", "down":
		if a.selectedModelIdx < len(a.modelList)-1 {
			a.selectedModelIdx++
		}
		return a, nil

	case "k", "up":
		if a.selectedModelIdx > 0 {
			a.selectedModelIdx--
		}
		return a, nil

	case "enter":
		if a.selectedModelIdx >= 0 && a.selectedModelIdx < len(a.modelList) {
			a.dataModel.SwitchModel(a.modelList[a.selectedModelIdx])
			a.showModelSelector = false
		}
		return a, nil
	}

	return a, nil
}
