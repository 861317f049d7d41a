package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func renderHelpModal(width, height int) string {
	modalWidth := 64
	if modalWidth > width-4 {
		modalWidth = width - 4
	}

	title := lipgloss.NewStyle().
		Bold(true).
		Align(lipgloss.Center).
		Width(modalWidth).
		Render("Keyboard Shortcuts")

	sections := []struct {
		heading string
		keys    [][2]string
	}{
		{"Chat", [][2]string{
			{"Enter", "Send message"},
			{"Alt+Enter", "Insert newline"},
			{"Esc", "Cancel streaming reply"},
			{"Alt+Y", "Copy last reply"},
			{"Alt+C", "Copy whole conversation"},
		}},
		{"Sessions", [][2]string{
			{"Alt+N", "New session"},
			{"Alt+S", "Session manager"},
			{"Alt+F", "Search all sessions"},
		}},
		{"Other", [][2]string{
			{"Alt+M", "Model selector"},
			{"Alt+J/K", "Scroll half page"},
			{"Alt+G/Shift+G", "Scroll to top/bottom"},
			{"Alt+A", "About"},
			{"Alt+H", "Toggle this help"},
			{"Alt+Q", "Quit"},
		}},
	}

	var lines []string
	keyStyle := lipgloss.NewStyle().Foreground(warningColor).Bold(true)
	for _, section := range sections {
		lines = append(lines, "", TitleStyle.Render(section.heading))
		for _, kv := range section.keys {
			padding := strings.Repeat(" ", 16-len(kv[0]))
			lines = append(lines, "  "+keyStyle.Render(kv[0])+padding+kv[1])
		}
	}

	footer := DimStyle.
		Align(lipgloss.Center).
		Width(modalWidth).
		Render("Esc to close")

	body := lipgloss.JoinVertical(lipgloss.Left,
		title,
		strings.Join(lines, "\n"),
		"",
		footer,
	)

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dimColor).
		Padding(0, 2).
		Width(modalWidth).
		Render(body)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, modal)
}
