package help

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazysheet/internal/ui/theme"
)

// KeyBinding represents a keyboard shortcut
type KeyBinding struct {
	Key         string
	Description string
}

// Section groups key bindings under a heading
type Section struct {
	Title string
	Keys  []KeyBinding
}

// GetGlobalKeys returns global key bindings
func GetGlobalKeys() []KeyBinding {
	return []KeyBinding{
		{"?", "Toggle help"},
		{"q, Ctrl+C", "Quit application"},
		{"Esc/Enter", "Dismiss error"},
		{"o", "Open another file"},
		{"s", "Choose another sheet"},
	}
}

// GetPreviewKeys returns data preview key bindings
func GetPreviewKeys() []KeyBinding {
	return []KeyBinding{
		{"↑/k ↓/j", "Move between rows"},
		{"←/h →/l", "Move between columns"},
		{"n / p", "Next / previous page"},
		{"g / G", "First / last page"},
		{"+ / -", "Larger / smaller pages"},
		{"c", "Copy cell"},
		{"Shift+C", "Copy row"},
		{"v", "Show full cell text"},
		{"J / K", "Scroll cell text"},
		{"f", "Open filter builder"},
		{"e", "Export filtered rows"},
		{"t", "Toggle original / filtered rows"},
	}
}

// GetFilterKeys returns filter builder key bindings
func GetFilterKeys() []KeyBinding {
	return []KeyBinding{
		{"a", "Add rule"},
		{"Tab", "Next field while adding"},
		{"↑/↓", "Pick column or operator"},
		{"d, Delete", "Delete selected rule"},
		{"l", "Toggle AND / OR"},
		{"Enter", "Apply filters"},
		{"x", "Clear all rules"},
		{"Esc", "Back to preview"},
	}
}

// Sections returns every help section in display order
func Sections() []Section {
	return []Section{
		{"Global", GetGlobalKeys()},
		{"Preview", GetPreviewKeys()},
		{"Filter Builder", GetFilterKeys()},
	}
}

// Render creates the help view
func Render(width, height int, th theme.Theme) string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(th.BorderFocused).
		Padding(1, 0)

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(th.Info).
		Padding(0, 0, 0, 2)

	keyStyle := lipgloss.NewStyle().
		Foreground(th.Warning).
		Width(20)

	descStyle := lipgloss.NewStyle().
		Foreground(th.Foreground)

	var b strings.Builder

	b.WriteString(titleStyle.Render("lazysheet - Keyboard Shortcuts"))
	b.WriteString("\n\n")

	for _, s := range Sections() {
		b.WriteString(sectionStyle.Render(s.Title))
		b.WriteString("\n")
		for _, kb := range s.Keys {
			b.WriteString("  ")
			b.WriteString(keyStyle.Render(kb.Key))
			b.WriteString(descStyle.Render(kb.Description))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(lipgloss.NewStyle().Faint(true).Render("Press '?' or Esc to close help"))

	// Wrap in a box
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(th.BorderFocused).
		Padding(1, 2).
		Width(max(width-4, 20)).
		Height(max(height-4, 10))

	return boxStyle.Render(b.String())
}
