package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"loom/backend"
)

func renderModelSelector(models []backend.ModelInfo, selectedIdx int, currentModel string, width, height int) string {
	modalWidth := 70
	if modalWidth > width-4 {
		modalWidth = width - 4
	}

	title := lipgloss.NewStyle().
		Bold(true).
		Align(lipgloss.Center).
		Width(modalWidth).
		Render("Select Model")

	var lines []string
	if len(models) == 0 {
		lines = append(lines, lipgloss.NewStyle().
			Foreground(dimColor).
			Italic(true).
			Align(lipgloss.Center).
			Width(modalWidth).
			Render("Fetching models..."))
	}
	for i, info := range models {
		indicator := "  "
		if i == selectedIdx {
			indicator = "▶ "
		}

		marker := "  "
		if info.Key == currentModel {
			marker = UserStyle.Render("● ")
		}

		name := info.Name
		if name == "" {
			name = info.Key
		}
		line := fmt.Sprintf("%s%s%-20s %s", indicator, marker, name, DimStyle.Render(truncateLine(info.Description, modalWidth-30)))
		if i == selectedIdx {
			line = SelectedStyle.Render(stripStyles(line))
		}
		lines = append(lines, line)
	}

	footer := FormatFooter("j/k", "Navigate", "Enter", "Select", "Esc", "Close")
	footerSection := lipgloss.NewStyle().
		Align(lipgloss.Center).
		Width(modalWidth).
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Render(footer)

	body := lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		strings.Join(lines, "\n"),
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
