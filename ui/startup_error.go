package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrorModal is a standalone program model for errors that happen before the
// main UI can start (bad config, unreadable data dir). Enter or Esc quits.
type ErrorModal struct {
	title   string
	message string
	width   int
	height  int
}

func NewErrorModal(title, message string) ErrorModal {
	return ErrorModal{title: title, message: message}
}

func (m ErrorModal) Init() tea.Cmd {
	return nil
}

func (m ErrorModal) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "esc", "q", "ctrl+c":
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m ErrorModal) View() string {
	if m.width < 20 || m.height < 10 {
		return "Terminal too small"
	}

	modalWidth := 60
	if modalWidth > m.width-10 {
		modalWidth = m.width - 10
	}

	titleSection := lipgloss.NewStyle().
		Bold(true).
		Foreground(dangerColor).
		Align(lipgloss.Center).
		Width(modalWidth).
		Render(m.title)

	messageSection := lipgloss.NewStyle().
		Width(modalWidth).
		Padding(1, 0).
		Render(m.message)

	footer := DimStyle.
		Align(lipgloss.Center).
		Width(modalWidth).
		Render("Press Enter to quit")

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dangerColor).
		Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Left, titleSection, messageSection, footer))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}
