package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazysheet/internal/ui/theme"
)

// ExportTarget is where the filtered rows are written
type ExportTarget int

const (
	TargetFile ExportTarget = iota
	TargetPostgres
)

func (t ExportTarget) String() string {
	if t == TargetPostgres {
		return "PostgreSQL table"
	}
	return "File"
}

// ExportMsg is sent when the export should run
type ExportMsg struct {
	Target      ExportTarget
	Destination string
	Replace     bool
}

// CloseExportDialogMsg is sent when the export dialog is dismissed
type CloseExportDialogMsg struct{}

// ExportDialog asks where to write the filtered rows
type ExportDialog struct {
	Input textinput.Model
	Theme theme.Theme
	Width int

	Target          ExportTarget
	Replace         bool
	PostgresEnabled bool
	RowCount        int

	defaultPath  string
	defaultTable string
	err          string
}

// NewExportDialog creates an export dialog
func NewExportDialog(th theme.Theme) *ExportDialog {
	ti := textinput.New()
	ti.CharLimit = 1024
	ti.Width = 50

	return &ExportDialog{
		Input: ti,
		Theme: th,
		Width: 70,
	}
}

// Open prepares the dialog with suggested destinations
func (d *ExportDialog) Open(defaultPath, defaultTable string, rows int) tea.Cmd {
	d.defaultPath = defaultPath
	d.defaultTable = defaultTable
	d.RowCount = rows
	d.Target = TargetFile
	d.Replace = false
	d.err = ""
	d.Input.SetValue(defaultPath)
	d.Input.CursorEnd()
	return d.Input.Focus()
}

// SetError shows a message under the input
func (d *ExportDialog) SetError(msg string) {
	d.err = msg
}

func (d *ExportDialog) switchTarget() {
	if !d.PostgresEnabled {
		return
	}
	if d.Target == TargetFile {
		d.Target = TargetPostgres
		d.Input.SetValue(d.defaultTable)
	} else {
		d.Target = TargetFile
		d.Input.SetValue(d.defaultPath)
	}
	d.Input.CursorEnd()
	d.err = ""
}

// Update handles messages
func (d *ExportDialog) Update(msg tea.Msg) (*ExportDialog, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "tab":
			d.switchTarget()
			return d, nil
		case "ctrl+r":
			if d.Target == TargetPostgres {
				d.Replace = !d.Replace
			}
			return d, nil
		case "enter":
			dest := strings.TrimSpace(d.Input.Value())
			if dest == "" {
				d.err = "Destination is required"
				return d, nil
			}
			out := ExportMsg{Target: d.Target, Destination: dest, Replace: d.Replace}
			return d, func() tea.Msg { return out }
		case "esc":
			d.Input.Blur()
			return d, func() tea.Msg { return CloseExportDialogMsg{} }
		}
	}

	var cmd tea.Cmd
	d.Input, cmd = d.Input.Update(msg)
	return d, cmd
}

// View renders the dialog
func (d *ExportDialog) View() string {
	d.Input.Width = max(d.Width-16, 20)

	titleStyle := lipgloss.NewStyle().
		Foreground(d.Theme.Background).
		Background(d.Theme.Info).
		Padding(0, 1).
		Bold(true)
	label := lipgloss.NewStyle().Foreground(d.Theme.Info).Bold(true)
	muted := lipgloss.NewStyle().Foreground(d.Theme.Muted)

	dest := "Path:"
	if d.Target == TargetPostgres {
		dest = "Table:"
	}

	lines := []string{
		titleStyle.Render("Export filtered rows"),
		"",
		label.Render("Target:") + " " + d.Target.String(),
		label.Render(dest) + " " + d.Input.View(),
		muted.Render(pluralRows(d.RowCount)),
	}
	if d.Target == TargetPostgres {
		replace := "no"
		if d.Replace {
			replace = "yes"
		}
		lines = append(lines, label.Render("Replace existing table:")+" "+replace)
	} else {
		lines = append(lines, muted.Render("Format follows the extension: .xlsx .csv .json"))
	}

	if d.err != "" {
		lines = append(lines, "", lipgloss.NewStyle().Foreground(d.Theme.Error).Bold(true).Render("Error: "+d.err))
	}

	help := "Enter: export │ Esc: cancel"
	if d.PostgresEnabled {
		help = "Enter: export │ Tab: file/table │ Ctrl+R: replace │ Esc: cancel"
	}
	lines = append(lines, "", muted.Italic(true).Render(help))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(d.Theme.BorderFocused).
		Padding(0, 1).
		Width(d.Width).
		Render(strings.Join(lines, "\n"))
}

func pluralRows(n int) string {
	if n == 1 {
		return "1 row"
	}
	return fmt.Sprintf("%d rows", n)
}
