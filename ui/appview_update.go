package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"loom/config"
	"loom/storage"
	"loom/stream"
)

func (a AppView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	// Update spinner FIRST so TickMsg animates it while waiting for the
	// first token of a reply.
	if a.dataModel.Streaming && a.streamView.FullText == "" && len(a.streamView.Segments) == 0 {
		a.loadingSpinner, cmd = a.loadingSpinner.Update(msg)
		cmds = append(cmds, cmd)
		a.updateViewportContent(true)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

		// Reserve space for title (1), separator (1), textarea (3) and status bar (1)
		a.viewport.Width = a.width
		a.viewport.Height = a.height - 6
		a.textarea.SetWidth(a.width)

		a.ready = true
		a.updateViewportContent(true)

		// Trigger initial rendering if needed (after we have width)
		if a.dataModel.NeedsInitialRender {
			a.dataModel.NeedsInitialRender = false
			var renderCmds []tea.Cmd
			for i := len(a.dataModel.Messages) - 1; i >= 0; i-- {
				m := a.dataModel.Messages[i]
				if m.Role != "assistant" && m.Role != "user" {
					continue
				}
				// Skip if already rendered (cached from disk)
				if m.Rendered != "" && m.Rendered != m.Content {
					continue
				}
				renderCmds = append(renderCmds, a.renderMarkdownAsync(i, m.Content))
			}
			return a, tea.Batch(renderCmds...)
		}

		return a, nil

	case tea.KeyMsg:
		// PRIORITY 0: always-global shortcuts
		switch msg.String() {
		case "alt+q":
			if a.dataModel.Streaming {
				a.dataModel.CancelExchange()
			}
			a.dataModel.Quitting = true
			return a, tea.Quit

		case "alt+h":
			a.showHelp = !a.showHelp
			return a, nil

		case "alt+n":
			a.closeAllModals()
			a.cancelExchangeForSwitch()
			_, err := a.dataModel.NewSession()
			if err != nil {
				if config.DebugLog != nil {
					config.DebugLog.Printf("[UI] Failed to create new session: %v", err)
				}
				return a, nil
			}
			a.textarea.Reset()
			a.updateViewportContent(true)
			return a, nil

		case "alt+s":
			wasOpen := a.showSessionManager
			a.closeAllModals()
			a.showSessionManager = !wasOpen
			if a.showSessionManager {
				return a, a.dataModel.FetchSessionList()
			}
			return a, nil

		case "alt+m":
			wasOpen := a.showModelSelector
			a.closeAllModals()
			a.showModelSelector = !wasOpen
			if a.showModelSelector {
				if len(a.modelList) == 0 {
					return a, a.dataModel.FetchModels(true)
				}
				currentModel := a.dataModel.Backend.GetModel()
				for i, info := range a.modelList {
					if info.Key == currentModel {
						a.selectedModelIdx = i
						break
					}
				}
			}
			return a, nil

		case "alt+f":
			wasOpen := a.showGlobalSearch
			a.closeAllModals()
			a.showGlobalSearch = !wasOpen
			if a.showGlobalSearch {
				a.globalSearchInput.Focus()
				a.globalSearchInput.SetValue("")
				a.globalResults = []storage.SessionMessageMatch{}
				a.selectedGlobalIdx = 0
				return a, textinput.Blink
			}
			return a, nil

		case "alt+a":
			wasOpen := a.showAbout
			a.closeAllModals()
			a.showAbout = !wasOpen
			return a, nil
		}

		// PRIORITY 1: modal-specific key handling
		if a.showInfoModal {
			a.showInfoModal = false
			a.infoModalTitle = ""
			a.infoModalMsg = ""
			return a, nil
		}

		if a.showHelp {
			if msg.String() == "esc" {
				a.showHelp = false
			}
			return a, nil
		}

		if a.showModelSelector {
			return a.handleModelSelectorUpdate(msg)
		}

		if a.showSessionManager {
			return a.handleSessionManagerUpdate(msg)
		}

		if a.showGlobalSearch {
			return a.handleGlobalSearchUpdate(msg)
		}

		if a.showAbout {
			if msg.String() == "esc" || msg.String() == "enter" {
				a.showAbout = false
			}
			return a, nil
		}

		// PRIORITY 2: streaming cancellation
		if msg.String() == "esc" && a.dataModel.Streaming {
			a.dataModel.CancelExchange()
			// The terminal cancelled message finishes the cleanup.
			return a, nil
		}

		// Enter sends; Alt+Enter inserts a newline via the textarea keymap.
		if msg.Type == tea.KeyEnter && !msg.Alt && !a.dataModel.Streaming {
			if strings.TrimSpace(a.textarea.Value()) == "" {
				return a, nil
			}
			userMsg := a.textarea.Value()

			sendCmd, err := a.dataModel.BeginExchange(userMsg)
			if err != nil {
				if config.DebugLog != nil {
					config.DebugLog.Printf("[UI] BeginExchange rejected: %v", err)
				}
				return a, nil
			}
			a.textarea.Reset()
			a.streamView = stream.View{}

			userMessageIndex := len(a.dataModel.Messages) - 2
			a.updateViewportContent(true)

			return a, tea.Batch(
				a.renderMarkdownAsync(userMessageIndex, userMsg),
				sendCmd,
				a.loadingSpinner.Tick,
			)
		}

		switch msg.String() {
		case "alt+y":
			// Copy last assistant message
			for i := len(a.dataModel.Messages) - 1; i >= 0; i-- {
				if a.dataModel.Messages[i].Role == "assistant" {
					clipboard.WriteAll(a.dataModel.Messages[i].Content)
					return a, nil
				}
			}
			return a, nil

		case "alt+c":
			// Copy whole conversation
			var allText strings.Builder
			for _, m := range a.dataModel.Messages {
				role := m.Role
				switch role {
				case "user":
					role = "You"
				case "assistant":
					role = "Assistant"
				}
				allText.WriteString(fmt.Sprintf("[%s] %s:\n%s\n\n",
					m.Timestamp.Format("15:04"), role, m.Content))
			}
			clipboard.WriteAll(allText.String())
			return a, nil

		case "alt+j", "alt+down":
			a.viewport.HalfViewDown()
			return a, nil

		case "alt+k", "alt+up":
			a.viewport.HalfViewUp()
			return a, nil

		case "pgdown":
			a.viewport.ViewDown()
			return a, nil

		case "pgup":
			a.viewport.ViewUp()
			return a, nil

		case "alt+g":
			a.viewport.GotoTop()
			return a, nil

		case "alt+G":
			a.viewport.GotoBottom()
			return a, nil
		}

	case exchangeUpdateMsg, exchangeSessionMsg, titleSuggestedMsg,
		exchangeDoneMsg, exchangeErrorMsg, exchangeCancelledMsg:
		return a.handleExchangeMessage(msg)

	case markdownRenderedMsg:
		if msg.MessageIndex >= 0 && msg.MessageIndex < len(a.dataModel.Messages) {
			a.dataModel.Messages[msg.MessageIndex].Rendered = msg.Rendered
			a.updateViewportContent(true)
		}
		return a, nil

	case modelsListMsg:
		if msg.Err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[UI] Error fetching models: %v", msg.Err)
			}
			return a, nil
		}
		a.modelList = msg.Models
		if msg.ShowSelector {
			a.showModelSelector = true
			a.selectedModelIdx = 0
		}
		return a, nil

	case backendStatusMsg:
		a.backendChecked = true
		a.backendReachable = msg.Reachable
		if !msg.Reachable && config.DebugLog != nil {
			config.DebugLog.Printf("[UI] Backend unreachable: %v", msg.Err)
		}
		return a, nil

	case sessionsListMsg, sessionLoadedMsg, sessionSavedMsg,
		sessionRenamedMsg, sessionDeletedMsg, sessionExportedMsg,
		searchResultsMsg:
		return a.handleSessionMessage(msg)
	}

	// Forward remaining messages to the focused components
	if !a.showSessionManager && !a.showGlobalSearch && !a.showModelSelector {
		a.textarea, cmd = a.textarea.Update(msg)
		cmds = append(cmds, cmd)
	}
	a.viewport, cmd = a.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return a, tea.Batch(cmds...)
}

// exportTimestamp names session export files uniquely.
func exportTimestamp() string {
	return time.Now().Format("20060102-150405")
}
