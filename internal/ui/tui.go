// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program for the player UI
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// NewProgram builds the TUI program. The session starts it with Run and
// pushes state updates in with Send.
func NewProgram(controls *Controls, skipSeconds float64) *tea.Program {
	return tea.NewProgram(NewModel(controls, skipSeconds), tea.WithAltScreen())
}
