package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func renderAboutModal(width, height int, version, license string) string {
	modalWidth := 50
	if modalWidth > width-4 {
		modalWidth = width - 4
	}

	title := lipgloss.NewStyle().
		Bold(true).
		Align(lipgloss.Center).
		Width(modalWidth).
		Render("Loom")

	body := lipgloss.NewStyle().
		Align(lipgloss.Center).
		Width(modalWidth).
		Render(fmt.Sprintf("\nA terminal client for streaming\nassistant conversations\n\nVersion: %s\nLicense: %s\n", version, license))

	footer := DimStyle.
		Align(lipgloss.Center).
		Width(modalWidth).
		Render("Esc to close")

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dimColor).
		Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, body, footer))

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, modal)
}
