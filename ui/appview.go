package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"loom/backend"
	appmodel "loom/model"
	"loom/storage"
	"loom/stream"
)

type AppView struct {
	// Reference to core data model
	dataModel *appmodel.Model

	// UI Components
	viewport viewport.Model
	textarea textarea.Model

	// Window state
	width  int
	height int
	ready  bool

	// Streaming UI state: the most recent composed view of the reply
	streamView     stream.View
	loadingSpinner spinner.Model

	// Set when the user switches conversations mid-stream: the cancelled
	// exchange's remaining messages are drained and dropped instead of
	// being written into the newly loaded conversation.
	discardExchangeOutcome bool

	showHelp  bool
	showAbout bool

	// Backend status for the title bar
	backendReachable bool
	backendChecked   bool

	// Model selector
	showModelSelector bool
	modelList         []backend.ModelInfo
	selectedModelIdx  int

	// Session management UI
	showSessionManager  bool
	sessionList         []storage.SessionMetadata
	selectedSessionIdx  int
	sessionRenameMode   bool
	sessionRenameInput  textinput.Model
	sessionFilterMode   bool
	sessionFilterInput  textinput.Model
	filteredSessionList []storage.SessionMetadata
	confirmDeleteID     string
	exportNotice        string

	// Global message search
	showGlobalSearch  bool
	globalSearchInput textinput.Model
	globalResults     []storage.SessionMessageMatch
	selectedGlobalIdx int

	// Info modal state (for simple notifications/errors)
	showInfoModal  bool
	infoModalTitle string
	infoModalMsg   string
}

func NewAppView(dataModel *appmodel.Model) AppView {
	ta := textarea.New()
	ta.Placeholder = "Type your message here..."
	ta.Focus()
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.SetWidth(80)

	// Alt+Enter for newline, Enter sends (handled separately)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter"))

	ta.SetPromptFunc(2, func(lineIdx int) string {
		if lineIdx == 0 {
			return "> "
		}
		return "| "
	})

	vp := viewport.New(0, 0)

	sessionFilterInput := textinput.New()
	sessionFilterInput.Prompt = "Filter: "
	sessionFilterInput.CharLimit = 64

	sessionRenameInput := textinput.New()
	sessionRenameInput.Prompt = "Name: "
	sessionRenameInput.CharLimit = 100

	globalSearchInput := textinput.New()
	globalSearchInput.Prompt = "Search all: "
	globalSearchInput.CharLimit = 100

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))

	return AppView{
		dataModel:          dataModel,
		textarea:           ta,
		viewport:           vp,
		loadingSpinner:     sp,
		sessionFilterInput: sessionFilterInput,
		sessionRenameInput: sessionRenameInput,
		globalSearchInput:  globalSearchInput,
	}
}

func (a AppView) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		a.dataModel.FetchModels(false),
		a.dataModel.PingBackend(),
	)
}

func (a AppView) View() string {
	if !a.ready {
		return "Loading Loom..."
	}

	// Modal rendering order (top to bottom layers)
	if a.showInfoModal {
		return renderInfoModal(a.infoModalTitle, a.infoModalMsg, a.width, a.height)
	}

	if a.showHelp {
		return renderHelpModal(a.width, a.height)
	}

	if a.showModelSelector {
		return renderModelSelector(a.modelList, a.selectedModelIdx, a.dataModel.Backend.GetModel(), a.width, a.height)
	}

	if a.showSessionManager {
		currentSessionID := ""
		if a.dataModel.CurrentSession != nil {
			currentSessionID = a.dataModel.CurrentSession.ID
		}
		return renderSessionManager(a.getSessionList(), a.selectedSessionIdx, currentSessionID,
			a.sessionRenameMode, a.sessionRenameInput,
			a.sessionFilterMode, a.sessionFilterInput,
			a.confirmDeleteID, a.exportNotice, a.width, a.height)
	}

	if a.showGlobalSearch {
		return renderGlobalSearch(a.globalSearchInput, a.globalResults, a.selectedGlobalIdx, a.width, a.height)
	}

	if a.showAbout {
		return renderAboutModal(a.width, a.height, a.dataModel.Version, a.dataModel.License)
	}

	// Title bar - "Loom - model - session name"
	loomText := AssistantStyle.Render("Loom")
	modelText := TitleStyle.Render(fmt.Sprintf(" - %s", a.dataModel.Backend.GetModel()))
	sessionName := "New Session"
	if a.dataModel.CurrentSession != nil && a.dataModel.CurrentSession.Name != "" {
		sessionName = a.dataModel.CurrentSession.Name
	}
	sessionText := UserStyle.Render(fmt.Sprintf(" - %s", sessionName))

	statusText := ""
	if a.backendChecked && !a.backendReachable {
		statusText = ErrorStyle.Render(" | backend unreachable")
	}

	title := loomText + modelText + sessionText + statusText

	descStyle := lipgloss.NewStyle().Foreground(successColor).Bold(true)
	statusBar := fmt.Sprintf("Alt+Q %s  Alt+S %s  Alt+M %s  Alt+F %s  Alt+N %s  Enter %s  Esc %s  Alt+Y %s",
		descStyle.Render("Quit"),
		descStyle.Render("Sessions"),
		descStyle.Render("Models"),
		descStyle.Render("Search"),
		descStyle.Render("New"),
		descStyle.Render("Send"),
		descStyle.Render("Cancel"),
		descStyle.Render("Copy"),
	)
	statusBar = StatusStyle.Render(statusBar)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		"",
		a.viewport.View(),
		a.textarea.View(),
		statusBar,
	)
}

// cancelExchangeForSwitch cancels any in-flight exchange before the
// conversation is replaced, so a stale stream cannot mutate state the user
// has moved away from.
func (a *AppView) cancelExchangeForSwitch() {
	if a.dataModel.Streaming {
		a.dataModel.CancelExchange()
		a.discardExchangeOutcome = true
	}
}

func (a AppView) getSessionList() []storage.SessionMetadata {
	if a.sessionFilterMode && len(a.filteredSessionList) > 0 {
		return a.filteredSessionList
	}
	return a.sessionList
}

func (a *AppView) closeAllModals() {
	a.showInfoModal = false
	a.showHelp = false
	a.showSessionManager = false
	a.showModelSelector = false
	a.showGlobalSearch = false
	a.showAbout = false

	a.sessionRenameMode = false
	a.sessionFilterMode = false
	a.confirmDeleteID = ""
	a.exportNotice = ""

	if a.sessionRenameInput.Focused() {
		a.sessionRenameInput.Blur()
	}
	if a.sessionFilterInput.Focused() {
		a.sessionFilterInput.Blur()
	}
	if a.globalSearchInput.Focused() {
		a.globalSearchInput.Blur()
	}
}
