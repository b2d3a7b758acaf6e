package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazysheet/internal/ui/theme"
)

// ErrorOverlay shows a dismissable error box
type ErrorOverlay struct {
	Title   string
	Message string
	Width   int
	Theme   theme.Theme
	Visible bool
}

// NewErrorOverlay creates a hidden overlay
func NewErrorOverlay(th theme.Theme) *ErrorOverlay {
	return &ErrorOverlay{Theme: th, Width: 60}
}

// SetError makes the overlay visible with title and message
func (e *ErrorOverlay) SetError(title, message string) {
	e.Title = title
	e.Message = message
	e.Visible = true
}

// Hide dismisses the overlay
func (e *ErrorOverlay) Hide() {
	e.Visible = false
}

// View renders the overlay
func (e *ErrorOverlay) View() string {
	if !e.Visible {
		return ""
	}
	title := lipgloss.NewStyle().
		Foreground(e.Theme.Error).
		Bold(true).
		Render("✗ " + e.Title)
	body := lipgloss.NewStyle().
		Foreground(e.Theme.Foreground).
		Width(e.Width - 4).
		Render(e.Message)
	help := lipgloss.NewStyle().
		Foreground(e.Theme.Muted).
		Italic(true).
		Render("Press Esc or Enter to dismiss")

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(e.Theme.Error).
		Padding(1, 1).
		Width(e.Width).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", help))
}
