package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"loom/storage"
)

func renderGlobalSearch(input textinput.Model, results []storage.SessionMessageMatch, selectedIdx int, width, height int) string {
	modalWidth := width - 10
	if modalWidth > 100 {
		modalWidth = 100
	}
	maxResults := height - 12
	if maxResults < 3 {
		maxResults = 3
	}

	titleSection := lipgloss.NewStyle().
		Bold(true).
		Align(lipgloss.Center).
		Width(modalWidth).
		Render("Search All Sessions")

	inputSection := lipgloss.NewStyle().
		Width(modalWidth).
		BorderTop(true).
		BorderBottom(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Render(input.View())

	var resultLines []string
	if len(results) == 0 {
		hint := "Type to search your conversation history"
		if input.Value() != "" {
			hint = "No matches"
		}
		resultLines = append(resultLines, lipgloss.NewStyle().
			Foreground(dimColor).
			Italic(true).
			Align(lipgloss.Center).
			Width(modalWidth).
			Render(hint))
	} else {
		startIdx := 0
		if selectedIdx >= maxResults {
			startIdx = selectedIdx - maxResults + 1
		}
		for i := startIdx; i < len(results) && i < startIdx+maxResults; i++ {
			match := results[i]

			indicator := "  "
			if i == selectedIdx {
				indicator = "▶ "
			}

			role := "You"
			if match.Role == "assistant" {
				role = "Assistant"
			}

			line := fmt.Sprintf("%s%s %s %s",
				indicator,
				UserStyle.Render(truncateLine(match.SessionName, 24)),
				DimStyle.Render("["+role+"]"),
				truncateLine(match.Preview, modalWidth-34),
			)
			if i == selectedIdx {
				line = SelectedStyle.Render(stripStyles(line))
			}
			resultLines = append(resultLines, line)
		}
	}

	footer := FormatFooter("j/k", "Navigate", "Enter", "Open session", "Esc", "Close")
	footerSection := lipgloss.NewStyle().
		Align(lipgloss.Center).
		Width(modalWidth).
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Render(footer)

	body := lipgloss.JoinVertical(lipgloss.Left,
		titleSection,
		inputSection,
		strings.Join(resultLines, "\n"),
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

// stripStyles drops ANSI sequences so a whole line can be restyled.
func stripStyles(s string) string {
	var b strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEscape = true
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (a AppView) handleGlobalSearchUpdate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.showGlobalSearch = false
		a.globalSearchInput.Blur()
		return a, nil

	case "down", "ctrl+n":
		if a.selectedGlobalIdx < len(a.globalResults)-1 {
			a.selectedGlobalIdx++
		}
		return a, nil

	case "up", "ctrl+p":
		if a.selectedGlobalIdx > 0 {
			a.selectedGlobalIdx--
		}
		return a, nil

	case "enter":
		if a.selectedGlobalIdx >= 0 && a.selectedGlobalIdx < len(a.globalResults) {
			match := a.globalResults[a.selectedGlobalIdx]
			a.showGlobalSearch = false
			a.globalSearchInput.Blur()
			a.cancelExchangeForSwitch()
			return a, a.dataModel.LoadSession(match.SessionID)
		}
		return a, nil
	}

	var cmd tea.Cmd
	a.globalSearchInput, cmd = a.globalSearchInput.Update(msg)

	query := strings.TrimSpace(a.globalSearchInput.Value())
	if query == "" {
		a.globalResults = nil
		a.selectedGlobalIdx = 0
		return a, cmd
	}
	return a, tea.Batch(cmd, a.dataModel.SearchMessages(a.globalSearchInput.Value()))
}
