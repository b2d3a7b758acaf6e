package components

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/rebeliceyang/lazysheet/internal/ui/theme"
)

// PreviewPane shows the full text of the selected cell under the grid
type PreviewPane struct {
	Width     int
	MaxHeight int
	Theme     theme.Theme

	Content string
	Title   string // column name
	// IsTruncated is set when the grid cut the cell
	IsTruncated bool
	Visible     bool

	offset int
	lines  []string
}

// NewPreviewPane creates a hidden pane
func NewPreviewPane(th theme.Theme) *PreviewPane {
	return &PreviewPane{Width: 80, MaxHeight: 10, Theme: th}
}

func (p *PreviewPane) frame() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Theme.Border).
		Padding(0, 1)
}

// SetContent sets the cell to display; the scroll position resets when the
// cell changes
func (p *PreviewPane) SetContent(content, title string, isTruncated bool) {
	if p.Content == content && p.Title == title {
		return
	}
	p.Content, p.Title, p.IsTruncated = content, title, isTruncated
	p.offset = 0
	p.lines = nil
}

// Toggle shows or hides the pane. An empty cell cannot be shown.
func (p *PreviewPane) Toggle() {
	if p.Visible {
		p.Visible = false
		return
	}
	if p.Content != "" {
		p.Visible = true
	}
}

// Height returns the rendered height, 0 when hidden
func (p *PreviewPane) Height() int {
	if !p.Visible {
		return 0
	}
	return p.MaxHeight
}

// bodyHeight is the number of text lines between the title and the footer
func (p *PreviewPane) bodyHeight() int {
	return max(p.MaxHeight-p.frame().GetVerticalFrameSize()-2, 1)
}

func (p *PreviewPane) textWidth() int {
	return max(p.Width-p.frame().GetHorizontalFrameSize(), 10)
}

func (p *PreviewPane) layout() []string {
	if p.lines == nil {
		text := p.Content
		if pretty, ok := prettyJSON(text); ok {
			text = pretty
		}
		p.lines = wrapText(text, p.textWidth())
	}
	return p.lines
}

// Scroll moves the visible window by delta lines, clamped to the content
func (p *PreviewPane) Scroll(delta int) {
	limit := max(len(p.layout())-p.bodyHeight(), 0)
	p.offset = min(max(p.offset+delta, 0), limit)
}

// View renders the pane
func (p *PreviewPane) View() string {
	if !p.Visible {
		return ""
	}
	lines := p.layout()
	width := p.textWidth()

	title := "Preview"
	if p.Title != "" {
		title += ": " + p.Title
	}
	if p.IsTruncated {
		title += " (truncated in grid)"
	}
	parts := []string{lipgloss.NewStyle().Foreground(p.Theme.Info).Bold(true).
		Render(runewidth.Truncate(title, width, "…"))}

	body := lipgloss.NewStyle().Foreground(p.Theme.Foreground)
	end := min(p.offset+p.bodyHeight(), len(lines))
	for _, line := range lines[p.offset:end] {
		parts = append(parts, body.Render(runewidth.Truncate(line, width, "…")))
	}

	hint := "v: hide"
	if len(lines) > p.bodyHeight() {
		hint = "J/K: scroll │ " + hint
	}
	hint = runewidth.FillLeft(hint, width)
	parts = append(parts, lipgloss.NewStyle().Foreground(p.Theme.Muted).Italic(true).Render(hint))

	inner := max(p.MaxHeight-p.frame().GetVerticalFrameSize(), 3)
	return p.frame().
		Width(p.Width - p.frame().GetHorizontalFrameSize()).
		Height(inner).
		MaxHeight(inner).
		Render(strings.Join(parts, "\n"))
}

// wrapText breaks text into lines no wider than maxWidth cells
func wrapText(text string, maxWidth int) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if runewidth.StringWidth(line) <= maxWidth {
			out = append(out, line)
			continue
		}
		var cur strings.Builder
		w := 0
		for _, r := range line {
			rw := runewidth.RuneWidth(r)
			if w+rw > maxWidth {
				out = append(out, cur.String())
				cur.Reset()
				w = 0
			}
			cur.WriteRune(r)
			w += rw
		}
		if cur.Len() > 0 {
			out = append(out, cur.String())
		}
	}
	return out
}

// prettyJSON indents cells holding a JSON object or array. Key order is kept.
func prettyJSON(s string) (string, bool) {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) < 2 {
		return "", false
	}
	first, last := trimmed[0], trimmed[len(trimmed)-1]
	if !(first == '{' && last == '}') && !(first == '[' && last == ']') {
		return "", false
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(trimmed), "", "  "); err != nil {
		return "", false
	}
	return buf.String(), true
}
