package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazysheet/internal/filter"
	"github.com/rebeliceyang/lazysheet/internal/models"
	"github.com/rebeliceyang/lazysheet/internal/ui/theme"
)

// ApplyFilterMsg is sent when the rules should be evaluated
type ApplyFilterMsg struct {
	Rules      []models.FilterRule
	Combinator models.Combinator
}

// ClearFilterMsg is sent when every rule was removed
type ClearFilterMsg struct{}

// CloseFilterBuilderMsg is sent when the filter builder should close
type CloseFilterBuilderMsg struct{}

type editMode int

const (
	editNone editMode = iota
	editColumn
	editOperator
	editValue
)

// FilterBuilder provides an interactive UI for building filter rules
type FilterBuilder struct {
	Width  int
	Height int
	Theme  theme.Theme
	engine *filter.Engine

	// State
	columns         []models.ColumnInfo
	currentIndex    int
	mode            editMode
	columnIndex     int
	operatorIndex   int
	valueInput      textinput.Model
	validationError string

	selectedColumn models.ColumnInfo
	availableOps   []models.FilterOperator

	// Outcome of the last evaluation
	stats   *models.FilterStatistics
	skipped []string
}

// NewFilterBuilder creates a filter builder editing engine's rules
func NewFilterBuilder(th theme.Theme, engine *filter.Engine) *FilterBuilder {
	ti := textinput.New()
	ti.Placeholder = "value"
	ti.CharLimit = 256
	ti.Width = 40

	return &FilterBuilder{
		Width:      80,
		Height:     30,
		Theme:      th,
		engine:     engine,
		valueInput: ti,
	}
}

// SetEngine switches to another engine, e.g. after a new sheet is loaded
func (fb *FilterBuilder) SetEngine(engine *filter.Engine) {
	fb.engine = engine
	fb.currentIndex = 0
	fb.mode = editNone
	fb.stats = nil
	fb.skipped = nil
	fb.validationError = ""
}

// SetColumns updates the available columns for filtering
func (fb *FilterBuilder) SetColumns(columns []models.ColumnInfo) {
	fb.columns = columns
	fb.columnIndex = 0
}

// SetResult shows the statistics and skipped rules of an evaluation
func (fb *FilterBuilder) SetResult(stats models.FilterStatistics, skipped []filter.SkippedRule) {
	fb.stats = &stats
	fb.skipped = fb.skipped[:0]
	for _, s := range skipped {
		fb.skipped = append(fb.skipped, s.String())
	}
}

// Editing reports whether a rule is being entered
func (fb *FilterBuilder) Editing() bool {
	return fb.mode != editNone
}

func (fb *FilterBuilder) rules() []models.FilterRule {
	if fb.engine == nil {
		return nil
	}
	return fb.engine.Rules()
}

// Update handles keyboard input
func (fb *FilterBuilder) Update(msg tea.KeyMsg) (*FilterBuilder, tea.Cmd) {
	switch fb.mode {
	case editColumn:
		return fb.handleColumnMode(msg)
	case editOperator:
		return fb.handleOperatorMode(msg)
	case editValue:
		return fb.handleValueMode(msg)
	}
	return fb.handleNavigationMode(msg)
}

func (fb *FilterBuilder) handleNavigationMode(msg tea.KeyMsg) (*FilterBuilder, tea.Cmd) {
	rules := fb.rules()
	switch msg.String() {
	case "up", "k":
		if fb.currentIndex > 0 {
			fb.currentIndex--
		}
	case "down", "j":
		if fb.currentIndex < len(rules)-1 {
			fb.currentIndex++
		}
	case "a", "n":
		if len(fb.columns) == 0 {
			fb.validationError = "No columns to filter"
			return fb, nil
		}
		fb.mode = editColumn
		fb.validationError = ""
	case "d", "delete":
		if fb.engine != nil && fb.currentIndex < len(rules) {
			if err := fb.engine.RemoveRule(fb.currentIndex); err != nil {
				fb.validationError = err.Error()
				return fb, nil
			}
			if fb.currentIndex > 0 && fb.currentIndex >= len(rules)-1 {
				fb.currentIndex--
			}
		}
	case "l":
		if fb.engine != nil {
			fb.engine.SetCombinator(fb.engine.Combinator().Toggle())
		}
	case "x":
		if fb.engine != nil {
			fb.engine.ClearRules()
			fb.currentIndex = 0
			return fb, func() tea.Msg { return ClearFilterMsg{} }
		}
	case "enter":
		if fb.engine == nil {
			return fb, nil
		}
		fb.validationError = ""
		apply := ApplyFilterMsg{Rules: rules, Combinator: fb.engine.Combinator()}
		return fb, func() tea.Msg { return apply }
	case "esc":
		return fb, func() tea.Msg { return CloseFilterBuilderMsg{} }
	}
	return fb, nil
}

func (fb *FilterBuilder) handleColumnMode(msg tea.KeyMsg) (*FilterBuilder, tea.Cmd) {
	switch msg.String() {
	case "esc":
		fb.mode = editNone
		fb.validationError = ""
	case "up", "k":
		if fb.columnIndex > 0 {
			fb.columnIndex--
		}
	case "down", "j":
		if fb.columnIndex < len(fb.columns)-1 {
			fb.columnIndex++
		}
	case "enter", "tab":
		fb.selectedColumn = fb.columns[fb.columnIndex]
		class := filter.ClassTextual
		if fb.selectedColumn.Numeric {
			class = filter.ClassNumeric
		}
		fb.availableOps = filter.OperatorsFor(class)
		fb.operatorIndex = 0
		fb.mode = editOperator
	}
	return fb, nil
}

func (fb *FilterBuilder) handleOperatorMode(msg tea.KeyMsg) (*FilterBuilder, tea.Cmd) {
	switch msg.String() {
	case "esc":
		fb.mode = editColumn
	case "up", "k":
		if fb.operatorIndex > 0 {
			fb.operatorIndex--
		}
	case "down", "j":
		if fb.operatorIndex < len(fb.availableOps)-1 {
			fb.operatorIndex++
		}
	case "enter", "tab":
		fb.mode = editValue
		fb.valueInput.SetValue("")
		fb.valueInput.Placeholder = "value"
		if fb.availableOps[fb.operatorIndex] == models.OpBetween {
			fb.valueInput.Placeholder = "min,max"
		}
		return fb, fb.valueInput.Focus()
	}
	return fb, nil
}

func (fb *FilterBuilder) handleValueMode(msg tea.KeyMsg) (*FilterBuilder, tea.Cmd) {
	switch msg.String() {
	case "esc":
		fb.valueInput.Blur()
		fb.mode = editOperator
		return fb, nil
	case "enter":
		rule := models.FilterRule{
			Column:   fb.selectedColumn.Name,
			Operator: fb.availableOps[fb.operatorIndex],
			Value:    fb.valueInput.Value(),
		}
		if err := fb.engine.AddRule(rule); err != nil {
			fb.validationError = err.Error()
			return fb, nil
		}
		fb.valueInput.Blur()
		fb.mode = editNone
		fb.validationError = ""
		fb.currentIndex = len(fb.engine.Rules()) - 1
		return fb, nil
	}

	var cmd tea.Cmd
	fb.valueInput, cmd = fb.valueInput.Update(msg)
	return fb, cmd
}

// View renders the filter builder
func (fb *FilterBuilder) View() string {
	var sections []string

	titleStyle := lipgloss.NewStyle().
		Foreground(fb.Theme.Background).
		Background(fb.Theme.Info).
		Padding(0, 1).
		Bold(true)
	sections = append(sections, titleStyle.Render("Filter Builder"))

	instructionStyle := lipgloss.NewStyle().
		Foreground(fb.Theme.Muted).
		Padding(0, 1)

	var instructions string
	switch fb.mode {
	case editColumn:
		instructions = "↑↓ Select column, Enter to confirm, Esc to cancel"
	case editOperator:
		instructions = "↑↓ Select operator, Enter to confirm, Esc to go back"
	case editValue:
		instructions = "Type value, Enter to add rule, Esc to go back"
	default:
		instructions = "a=Add d=Delete l=AND/OR x=Clear Enter=Apply Esc=Close"
	}
	sections = append(sections, instructionStyle.Render(instructions))

	if fb.validationError != "" {
		errorStyle := lipgloss.NewStyle().
			Foreground(fb.Theme.Error).
			Padding(0, 1).
			Bold(true)
		sections = append(sections, errorStyle.Render("Error: "+fb.validationError))
	}

	sections = append(sections, fb.renderRules()...)

	if fb.mode != editNone {
		sections = append(sections, "")
		sections = append(sections, fb.renderEditor()...)
	}

	if fb.stats != nil {
		sections = append(sections, "", fb.renderStats())
	}

	containerStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(fb.Theme.BorderFocused).
		Foreground(fb.Theme.Foreground).
		Width(fb.Width).
		Height(fb.Height).
		Padding(1)

	return containerStyle.Render(strings.Join(sections, "\n"))
}

func (fb *FilterBuilder) renderRules() []string {
	rules := fb.rules()
	if len(rules) == 0 {
		return []string{"", lipgloss.NewStyle().Foreground(fb.Theme.Muted).Italic(true).Render(" No rules: every row is shown")}
	}

	logic := lipgloss.NewStyle().Foreground(fb.Theme.Combinator).Bold(true).Render(string(fb.engine.Combinator()))
	out := []string{"", "Rules (" + logic + "):"}

	colStyle := lipgloss.NewStyle().Foreground(fb.Theme.RuleColumn)
	opStyle := lipgloss.NewStyle().Foreground(fb.Theme.RuleOperator)
	valStyle := lipgloss.NewStyle().Foreground(fb.Theme.RuleValue)

	for i, r := range rules {
		text := fmt.Sprintf(" %d. %s %s %s", i+1,
			colStyle.Render(r.Column), opStyle.Render(r.Operator.Label()), valStyle.Render(fmt.Sprintf("%q", r.Value)))
		style := lipgloss.NewStyle().Padding(0, 1)
		if i == fb.currentIndex && fb.mode == editNone {
			style = style.Background(fb.Theme.Selection)
		}
		out = append(out, style.Render(text))
	}
	return out
}

func (fb *FilterBuilder) renderEditor() []string {
	selected := lipgloss.NewStyle().Padding(0, 1).Background(fb.Theme.Selection).Foreground(fb.Theme.Foreground)
	plain := lipgloss.NewStyle().Padding(0, 1)

	switch fb.mode {
	case editColumn:
		out := []string{"Select column:"}
		start, end := window(fb.columnIndex, len(fb.columns), max(fb.Height-14, 5))
		for i := start; i < end; i++ {
			c := fb.columns[i]
			kind := "text"
			if c.Numeric {
				kind = "numeric"
			}
			line := fmt.Sprintf("  %s (%s)", c.Name, kind)
			if i == fb.columnIndex {
				out = append(out, selected.Render(line))
			} else {
				out = append(out, plain.Render(line))
			}
		}
		return out
	case editOperator:
		out := []string{fmt.Sprintf("Column: %s", fb.selectedColumn.Name), "Select operator:"}
		for i, op := range fb.availableOps {
			line := "  " + op.Label()
			if i == fb.operatorIndex {
				out = append(out, selected.Render(line))
			} else {
				out = append(out, plain.Render(line))
			}
		}
		return out
	case editValue:
		return []string{
			fmt.Sprintf("Column: %s %s", fb.selectedColumn.Name, fb.availableOps[fb.operatorIndex].Label()),
			"Value: " + fb.valueInput.View(),
		}
	}
	return nil
}

func (fb *FilterBuilder) renderStats() string {
	s := fb.stats
	line := fmt.Sprintf("Last apply: %d of %d rows kept (%.1f%% removed)", s.FilteredCount, s.OriginalCount, s.ReductionPercent)
	out := lipgloss.NewStyle().Foreground(fb.Theme.Success).Render(line)
	warn := lipgloss.NewStyle().Foreground(fb.Theme.Warning)
	for _, sk := range fb.skipped {
		out += "\n" + warn.Render("skipped: "+sk)
	}
	return out
}

// window returns the slice bounds of a scrolling list of n items of which
// size are visible and cursor must be one
func window(cursor, n, size int) (int, int) {
	if n <= size {
		return 0, n
	}
	start := max(cursor-size/2, 0)
	end := start + size
	if end > n {
		end = n
		start = n - size
	}
	return start, end
}
