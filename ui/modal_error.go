package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// renderInfoModal draws a simple centered notification; any key dismisses it.
func renderInfoModal(title, message string, width, height int) string {
	modalWidth := 60
	if modalWidth > width-4 {
		modalWidth = width - 4
	}

	titleSection := lipgloss.NewStyle().
		Bold(true).
		Align(lipgloss.Center).
		Width(modalWidth).
		Render(title)

	messageSection := lipgloss.NewStyle().
		Width(modalWidth).
		Padding(1, 0).
		Render(message)

	footer := DimStyle.
		Align(lipgloss.Center).
		Width(modalWidth).
		Render("Press any key to continue")

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dimColor).
		Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Left, titleSection, messageSection, footer))

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, modal)
}
