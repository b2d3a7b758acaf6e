package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/rebeliceyang/lazysheet/internal/ui/theme"
)

// Panel frames the sheet grid. Title sits on the left of the first line and
// Badge on the right.
type Panel struct {
	Title   string
	Badge   string
	Content string
	Width   int
	Height  int
	Theme   theme.Theme
}

// View renders the panel
func (p *Panel) View() string {
	if p.Width <= 0 || p.Height <= 0 {
		return ""
	}

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Theme.BorderFocused).
		Width(p.Width).
		MaxWidth(p.Width + 2).
		Height(p.Height)

	if p.Title == "" && p.Badge == "" {
		return style.Render(p.Content)
	}
	return style.Render(p.header() + "\n" + p.Content)
}

func (p *Panel) header() string {
	title := runewidth.Truncate(p.Title, max(p.Width-2, 1), "…")
	badge := p.Badge
	gap := p.Width - 2 - runewidth.StringWidth(title) - runewidth.StringWidth(badge)
	if gap < 1 {
		badge, gap = "", max(p.Width-2-runewidth.StringWidth(title), 0)
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(p.Theme.TableHeader)
	badgeStyle := lipgloss.NewStyle().Foreground(p.Theme.Muted)
	return " " + titleStyle.Render(title) + strings.Repeat(" ", gap) + badgeStyle.Render(badge) + " "
}
