package components

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazysheet/internal/ui/theme"
)

// SelectSheetMsg is sent when a sheet was picked
type SelectSheetMsg struct {
	Sheet string
}

// CloseSheetSelectorMsg is sent when sheet selection was cancelled
type CloseSheetSelectorMsg struct{}

// SheetSelector lists the sheets of a workbook
type SheetSelector struct {
	Sheets []string
	Theme  theme.Theme
	Width  int
	Height int

	cursor int
}

// NewSheetSelector creates a sheet selector
func NewSheetSelector(th theme.Theme) *SheetSelector {
	return &SheetSelector{Theme: th, Width: 40, Height: 20}
}

// SetSheets replaces the sheet list and moves the cursor to current
func (s *SheetSelector) SetSheets(sheets []string, current string) {
	s.Sheets = sheets
	s.cursor = 0
	for i, name := range sheets {
		if name == current {
			s.cursor = i
			break
		}
	}
}

// Selected returns the sheet under the cursor
func (s *SheetSelector) Selected() string {
	if s.cursor < 0 || s.cursor >= len(s.Sheets) {
		return ""
	}
	return s.Sheets[s.cursor]
}

// Update handles keyboard input
func (s *SheetSelector) Update(msg tea.KeyMsg) (*SheetSelector, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
		}
	case "down", "j":
		if s.cursor < len(s.Sheets)-1 {
			s.cursor++
		}
	case "g", "home":
		s.cursor = 0
	case "G", "end":
		if len(s.Sheets) > 0 {
			s.cursor = len(s.Sheets) - 1
		}
	case "enter":
		sheet := s.Selected()
		if sheet == "" {
			return s, nil
		}
		return s, func() tea.Msg { return SelectSheetMsg{Sheet: sheet} }
	case "esc":
		return s, func() tea.Msg { return CloseSheetSelectorMsg{} }
	}
	return s, nil
}

// View renders the selector
func (s *SheetSelector) View() string {
	titleStyle := lipgloss.NewStyle().
		Foreground(s.Theme.Background).
		Background(s.Theme.Info).
		Padding(0, 1).
		Bold(true)

	lines := []string{titleStyle.Render("Select sheet"), ""}
	if len(s.Sheets) == 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(s.Theme.Muted).Render("  Workbook has no sheets"))
	}

	start, end := window(s.cursor, len(s.Sheets), max(s.Height-6, 3))
	for i := start; i < end; i++ {
		style := lipgloss.NewStyle().Foreground(s.Theme.Foreground).Padding(0, 1)
		prefix := "  "
		if i == s.cursor {
			style = style.Background(s.Theme.Selection).Bold(true)
			prefix = "▸ "
		}
		lines = append(lines, style.Render(prefix+s.Sheets[i]))
	}

	lines = append(lines, "", lipgloss.NewStyle().Foreground(s.Theme.Muted).Italic(true).Render("Enter: load │ Esc: back"))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(s.Theme.BorderFocused).
		Padding(0, 1).
		Width(s.Width).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
