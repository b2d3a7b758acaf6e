package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/rebeliceyang/lazysheet/internal/ui/theme"
)

// OpenFileMsg is sent when a workbook path was chosen
type OpenFileMsg struct {
	Path string
}

// ClosePathInputMsg is sent when the path input should be closed
type ClosePathInputMsg struct{}

// RecentEntry is a previously opened file offered below the input
type RecentEntry struct {
	Path  string
	Sheet string
}

// PathInput asks for the workbook to open and lists recent files
type PathInput struct {
	Input  textinput.Model
	Theme  theme.Theme
	Width  int
	Recent []RecentEntry

	selected int
}

// NewPathInput creates a new path input
func NewPathInput(th theme.Theme) *PathInput {
	ti := textinput.New()
	ti.Placeholder = "path/to/workbook.xlsx"
	ti.Focus()
	ti.CharLimit = 1024
	ti.Width = 60

	return &PathInput{
		Input:    ti,
		Theme:    th,
		Width:    80,
		selected: -1,
	}
}

// SetRecent replaces the recent file list
func (p *PathInput) SetRecent(recent []RecentEntry) {
	p.Recent = recent
	p.selected = -1
}

// Reset clears the input
func (p *PathInput) Reset() {
	p.Input.SetValue("")
	p.selected = -1
}

// Update handles messages
func (p *PathInput) Update(msg tea.Msg) (*PathInput, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up":
			if p.selected > 0 {
				p.selected--
			} else if p.selected == -1 && len(p.Recent) > 0 {
				p.selected = len(p.Recent) - 1
			}
			p.fillSelected()
			return p, nil
		case "down":
			if p.selected < len(p.Recent)-1 {
				p.selected++
			}
			p.fillSelected()
			return p, nil
		case "enter":
			path := strings.TrimSpace(p.Input.Value())
			if path == "" {
				return p, nil
			}
			return p, func() tea.Msg {
				return OpenFileMsg{Path: path}
			}
		case "esc":
			return p, func() tea.Msg {
				return ClosePathInputMsg{}
			}
		}
	}

	var cmd tea.Cmd
	p.Input, cmd = p.Input.Update(msg)
	return p, cmd
}

func (p *PathInput) fillSelected() {
	if p.selected >= 0 && p.selected < len(p.Recent) {
		p.Input.SetValue(p.Recent[p.selected].Path)
		p.Input.CursorEnd()
	}
}

// View renders the path input
func (p *PathInput) View() string {
	inputWidth := p.Width - 14
	if inputWidth < 20 {
		inputWidth = 20
	}
	p.Input.Width = inputWidth

	labelStyle := lipgloss.NewStyle().
		Foreground(p.Theme.Info).
		Bold(true)

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Theme.BorderFocused).
		Padding(0, 1).
		Width(p.Width)

	helpStyle := lipgloss.NewStyle().
		Foreground(p.Theme.Muted).
		Italic(true)

	lines := []string{labelStyle.Render("Open:") + " " + p.Input.View()}

	if len(p.Recent) > 0 {
		lines = append(lines, "", labelStyle.Render("Recent files"))
		width := max(p.Width-6, 10)
		for i, r := range p.Recent {
			text := r.Path
			if r.Sheet != "" {
				text = fmt.Sprintf("%s [%s]", r.Path, r.Sheet)
			}
			text = runewidth.Truncate(text, width, "…")
			style := lipgloss.NewStyle().Foreground(p.Theme.Foreground)
			if i == p.selected {
				style = style.Background(p.Theme.Selection)
			}
			lines = append(lines, style.Render("  "+text))
		}
	}

	lines = append(lines, "", helpStyle.Render("Enter: open │ ↑↓: recent files │ Esc: cancel"))
	return boxStyle.Render(strings.Join(lines, "\n"))
}
