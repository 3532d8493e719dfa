// ABOUTME: Lipgloss styles shared by the TUI views
// ABOUTME: One palette so every pane renders the same way
package ui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("220"))

	faintStyle = lipgloss.NewStyle().Faint(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("208"))
)
