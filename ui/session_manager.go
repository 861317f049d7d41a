package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"loom/config"
	"loom/storage"
)

func renderSessionManager(sessions []storage.SessionMetadata, selectedIdx int, currentSessionID string, renameMode bool, renameInput textinput.Model, filterMode bool, filterInput textinput.Model, confirmDeleteID string, exportNotice string, width, height int) string {
	modalWidth := width - 10
	if modalWidth > 110 {
		modalWidth = 110
	}
	modalHeight := height - 6

	if confirmDeleteID != "" {
		name := confirmDeleteID
		for _, s := range sessions {
			if s.ID == confirmDeleteID {
				name = s.Name
				break
			}
		}
		warningText := lipgloss.NewStyle().Foreground(dangerColor).Render("This action cannot be undone.")
		return renderInfoModal("⚠ Delete Session",
			fmt.Sprintf("Are you sure you want to delete:\n\n\"%s\"\n\n%s\n\ny: delete  n/Esc: keep", name, warningText),
			width, height)
	}

	titleSection := lipgloss.NewStyle().
		Bold(true).
		Align(lipgloss.Center).
		Width(modalWidth).
		Render("Session Manager")

	var header string
	if filterMode {
		header = filterInput.View()
	} else if exportNotice != "" {
		header = UserStyle.Render(exportNotice)
	} else {
		header = fmt.Sprintf("%d sessions", len(sessions))
	}

	headerSection := lipgloss.NewStyle().
		Foreground(dimColor).
		Align(lipgloss.Center).
		Width(modalWidth).
		BorderTop(true).
		BorderBottom(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Render(header)

	var sessionLines []string
	maxLines := modalHeight - 8

	if len(sessions) == 0 {
		emptyMsg := "No sessions yet. Start chatting to create one!"
		if filterMode {
			emptyMsg = "No matches found"
		}
		sessionLines = append(sessionLines, lipgloss.NewStyle().
			Foreground(dimColor).
			Italic(true).
			Align(lipgloss.Center).
			Width(modalWidth).
			Render(emptyMsg))
	} else {
		startIdx := 0
		endIdx := len(sessions)
		if len(sessions) > maxLines {
			if selectedIdx < maxLines/2 {
				endIdx = maxLines
			} else if selectedIdx >= len(sessions)-maxLines/2 {
				startIdx = len(sessions) - maxLines
			} else {
				startIdx = selectedIdx - maxLines/2
				endIdx = startIdx + maxLines
			}
		}

		for i := startIdx; i < endIdx && i < len(sessions); i++ {
			session := sessions[i]

			indicator := "  "
			if i == selectedIdx {
				indicator = "▶ "
			}

			var nameDisplay string
			if renameMode && i == selectedIdx {
				nameDisplay = lipgloss.NewStyle().
					Foreground(accentColor).
					Bold(true).
					Render(renameInput.View())
			} else {
				nameDisplay = truncateLine(session.Name, modalWidth-40)
			}

			msgCount := fmt.Sprintf("%d msgs", session.MessageCount)
			if session.MessageCount == 1 {
				msgCount = "1 msg"
			}

			modelKey := session.ModelKey
			if len(modelKey) > 10 {
				modelKey = modelKey[:10]
			}

			nameStyled := nameDisplay
			if i == selectedIdx {
				nameStyled = lipgloss.NewStyle().Foreground(successColor).Bold(true).Render(nameDisplay)
			} else if session.ID == currentSessionID {
				nameStyled = lipgloss.NewStyle().Foreground(accentColor).Bold(true).Render(nameDisplay)
			}

			rightSide := fmt.Sprintf("%s  %10s  %8s", msgCount, modelKey, formatTimeAgo(session.UpdatedAt))
			spacing := modalWidth - 4 - len(indicator) - lipgloss.Width(nameDisplay) - len(rightSide)
			if spacing < 1 {
				spacing = 1
			}

			sessionLines = append(sessionLines, fmt.Sprintf("%s%s%s%s",
				indicator, nameStyled, strings.Repeat(" ", spacing), DimStyle.Render(rightSide)))
		}
	}

	footer := FormatFooter(
		"j/k", "Navigate",
		"Enter", "Open",
		"/", "Filter",
		"r", "Rename",
		"x", "Export",
		"d", "Delete",
		"Esc", "Close",
	)
	footerSection := lipgloss.NewStyle().
		Align(lipgloss.Center).
		Width(modalWidth).
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Render(footer)

	body := lipgloss.JoinVertical(lipgloss.Left,
		titleSection,
		headerSection,
		strings.Join(sessionLines, "\n"),
		footerSection,
	)

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dimColor).
		Padding(0, 1).
		Width(modalWidth).
		Render(body)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, modal)
}

func formatTimeAgo(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("Jan 2")
	}
}

func (a AppView) handleSessionManagerUpdate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Delete confirmation intercepts everything
	if a.confirmDeleteID != "" {
		switch msg.String() {
		case "y":
			id := a.confirmDeleteID
			a.confirmDeleteID = ""
			return a, a.dataModel.DeleteSessionCmd(id)
		default:
			a.confirmDeleteID = ""
			return a, nil
		}
	}

	if a.sessionRenameMode {
		switch msg.String() {
		case "esc":
			a.sessionRenameMode = false
			a.sessionRenameInput.Blur()
			return a, nil
		case "enter":
			list := a.getSessionList()
			newName := strings.TrimSpace(a.sessionRenameInput.Value())
			a.sessionRenameMode = false
			a.sessionRenameInput.Blur()
			if newName == "" || a.selectedSessionIdx >= len(list) {
				return a, nil
			}
			return a, a.dataModel.RenameSessionCmd(list[a.selectedSessionIdx].ID, newName)
		}
		var cmd tea.Cmd
		a.sessionRenameInput, cmd = a.sessionRenameInput.Update(msg)
		return a, cmd
	}

	if a.sessionFilterMode {
		switch msg.String() {
		case "esc":
			a.sessionFilterMode = false
			a.sessionFilterInput.Blur()
			a.sessionFilterInput.SetValue("")
			a.filteredSessionList = []storage.SessionMetadata{}
			a.selectedSessionIdx = 0
			return a, nil

		case "enter":
			list := a.getSessionList()
			if a.selectedSessionIdx >= 0 && a.selectedSessionIdx < len(list) {
				selected := list[a.selectedSessionIdx]
				a.showSessionManager = false
				a.sessionFilterMode = false
				a.cancelExchangeForSwitch()
				return a, a.dataModel.LoadSession(selected.ID)
			}
			return a, nil

		case "down", "alt+j":
			if a.selectedSessionIdx < len(a.getSessionList())-1 {
				a.selectedSessionIdx++
			}
			return a, nil

		case "up", "alt+k":
			if a.selectedSessionIdx > 0 {
				a.selectedSessionIdx--
			}
			return a, nil
		}

		var cmd tea.Cmd
		a.sessionFilterInput, cmd = a.sessionFilterInput.Update(msg)

		filterValue := a.sessionFilterInput.Value()
		if filterValue == "" {
			a.filteredSessionList = a.sessionList
		} else {
			targets := make([]string, len(a.sessionList))
			for i, s := range a.sessionList {
				targets[i] = s.Name
			}
			matches := fuzzy.Find(filterValue, targets)
			a.filteredSessionList = make([]storage.SessionMetadata, len(matches))
			for i, match := range matches {
				a.filteredSessionList[i] = a.sessionList[match.Index]
			}
		}

		if list := a.getSessionList(); a.selectedSessionIdx >= len(list) && len(list) > 0 {
			a.selectedSessionIdx = len(list) - 1
		}
		return a, cmd
	}

	switch msg.String() {
	case "/":
		a.sessionFilterMode = true
		a.sessionFilterInput.Focus()
		a.sessionFilterInput.SetValue("")
		a.filteredSessionList = a.sessionList
		return a, textinput.Blink

	case "esc", "q":
		a.showSessionManager = false
		a.exportNotice = ""
		return a, nil

	case "j", "down":
		if a.selectedSessionIdx < len(a.getSessionList())-1 {
			a.selectedSessionIdx++
		}
		return a, nil

	case "k", "up":
		if a.selectedSessionIdx > 0 {
			a.selectedSessionIdx--
		}
		return a, nil

	case "enter":
		list := a.getSessionList()
		if a.selectedSessionIdx >= 0 && a.selectedSessionIdx < len(list) {
			a.cancelExchangeForSwitch()
			return a, a.dataModel.LoadSession(list[a.selectedSessionIdx].ID)
		}
		return a, nil

	case "r":
		list := a.getSessionList()
		if a.selectedSessionIdx < len(list) {
			a.sessionRenameMode = true
			a.sessionRenameInput.SetValue(list[a.selectedSessionIdx].Name)
			a.sessionRenameInput.Focus()
			return a, textinput.Blink
		}
		return a, nil

	case "x":
		list := a.getSessionList()
		if a.selectedSessionIdx < len(list) {
			selected := list[a.selectedSessionIdx]
			exportPath := filepath.Join(
				config.ExpandPath("~/Documents"),
				fmt.Sprintf("%s-%s.md", storage.SanitizeFilename(selected.Name), exportTimestamp()),
			)
			return a, a.dataModel.ExportSessionCmd(selected.ID, exportPath)
		}
		return a, nil

	case "d":
		list := a.getSessionList()
		if a.selectedSessionIdx < len(list) {
			a.confirmDeleteID = list[a.selectedSessionIdx].ID
		}
		return a, nil
	}

	return a, nil
}
