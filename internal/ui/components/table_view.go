package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/rebeliceyang/lazysheet/internal/models"
	"github.com/rebeliceyang/lazysheet/internal/ui/theme"
)

const (
	maxColumnWidth = 40
	minColumnWidth = 6
)

// TableView displays one page of a dataset
type TableView struct {
	Columns []string
	Kinds   []models.ColumnKind
	Rows    [][]string
	Width   int
	Height  int
	Theme   theme.Theme

	// Scrolling state within the page
	TopRow      int
	VisibleRows int
	SelectedRow int
	SelectedCol int
	LeftCol     int

	// Page position in the whole dataset
	Offset    int
	TotalRows int
	Page      int
	PageCount int
	Label     string

	// Column widths (calculated)
	ColumnWidths []int
}

// NewTableView creates a new table view
func NewTableView(th theme.Theme) *TableView {
	return &TableView{
		Columns:      []string{},
		Rows:         [][]string{},
		ColumnWidths: []int{},
		Theme:        th,
	}
}

// SetData replaces the page being shown. offset is the dataset index of the
// first row in rows.
func (tv *TableView) SetData(columns []string, kinds []models.ColumnKind, rows [][]string, offset, totalRows int) {
	tv.Columns = columns
	tv.Kinds = kinds
	tv.Rows = rows
	tv.Offset = offset
	tv.TotalRows = totalRows
	tv.TopRow = 0
	tv.SelectedRow = 0
	if tv.SelectedCol >= len(columns) {
		tv.SelectedCol = 0
		tv.LeftCol = 0
	}
	tv.calculateColumnWidths()
}

// calculateColumnWidths sizes each column to its widest value on the page
func (tv *TableView) calculateColumnWidths() {
	tv.ColumnWidths = make([]int, len(tv.Columns))

	for i, col := range tv.Columns {
		tv.ColumnWidths[i] = runewidth.StringWidth(col)
	}

	for _, row := range tv.Rows {
		for i, cell := range row {
			if i < len(tv.ColumnWidths) {
				if w := runewidth.StringWidth(cell); w > tv.ColumnWidths[i] {
					tv.ColumnWidths[i] = w
				}
			}
		}
	}

	for i := range tv.ColumnWidths {
		tv.ColumnWidths[i] = min(max(tv.ColumnWidths[i], minColumnWidth), maxColumnWidth)
	}
}

// visibleColumns returns the column range that fits in the width, starting
// at LeftCol
func (tv *TableView) visibleColumns() (int, int) {
	if len(tv.Columns) == 0 {
		return 0, 0
	}
	avail := tv.Width - 2
	end := tv.LeftCol
	used := 0
	for end < len(tv.Columns) {
		w := tv.ColumnWidths[end] + 3
		if used+w > avail && end > tv.LeftCol {
			break
		}
		used += w
		end++
	}
	return tv.LeftCol, end
}

// View renders the table
func (tv *TableView) View() string {
	if len(tv.Columns) == 0 {
		return lipgloss.NewStyle().Foreground(tv.Theme.Muted).Render("No data")
	}

	start, end := tv.visibleColumns()

	var b strings.Builder
	b.WriteString(tv.renderHeader(start, end))
	b.WriteString("\n")
	b.WriteString(tv.renderSeparator(start, end))
	b.WriteString("\n")

	// Header + separator + status
	tv.VisibleRows = max(tv.Height-3, 1)

	endRow := min(tv.TopRow+tv.VisibleRows, len(tv.Rows))
	for i := tv.TopRow; i < endRow; i++ {
		b.WriteString(tv.renderRow(i, start, end))
		b.WriteString("\n")
	}
	if len(tv.Rows) == 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(tv.Theme.Muted).Italic(true).Render(" No rows match"))
		b.WriteString("\n")
	}

	b.WriteString(tv.renderStatus())
	return b.String()
}

func (tv *TableView) renderHeader(start, end int) string {
	var parts []string
	for i := start; i < end; i++ {
		parts = append(parts, pad(tv.Columns[i], tv.ColumnWidths[i], false))
	}
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(tv.Theme.TableHeader).
		Background(tv.Theme.Selection)
	return headerStyle.Render(" " + strings.Join(parts, " │ ") + " ")
}

func (tv *TableView) renderSeparator(start, end int) string {
	var parts []string
	for i := start; i < end; i++ {
		parts = append(parts, strings.Repeat("─", tv.ColumnWidths[i]))
	}
	return lipgloss.NewStyle().Foreground(tv.Theme.Border).Render("─" + strings.Join(parts, "─┼─") + "─")
}

func (tv *TableView) renderRow(r, start, end int) string {
	row := tv.Rows[r]
	selected := r == tv.SelectedRow

	var parts []string
	for i := start; i < end; i++ {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		numeric := i < len(tv.Kinds) && tv.Kinds[i] == models.KindNumeric
		text := pad(cell, tv.ColumnWidths[i], numeric)

		style := lipgloss.NewStyle()
		switch {
		case selected && i == tv.SelectedCol:
			style = style.Reverse(true)
		case cell == "":
			style = style.Foreground(tv.Theme.NullCell)
		case numeric:
			style = style.Foreground(tv.Theme.NumberCell)
		}
		parts = append(parts, style.Render(text))
	}

	line := " " + strings.Join(parts, " │ ") + " "
	if selected {
		return lipgloss.NewStyle().Background(tv.Theme.TableRowSelected).Bold(true).Render(line)
	}
	return line
}

func (tv *TableView) renderStatus() string {
	var showing string
	if tv.TotalRows == 0 {
		showing = " 0 rows"
	} else {
		first := tv.Offset + 1
		last := tv.Offset + len(tv.Rows)
		showing = fmt.Sprintf(" rows %d-%d of %d │ page %d/%d", first, last, tv.TotalRows, tv.Page+1, max(tv.PageCount, 1))
	}
	if tv.Label != "" {
		showing += " │ " + tv.Label
	}
	return lipgloss.NewStyle().
		Foreground(tv.Theme.Muted).
		Italic(true).
		Render(showing)
}

// pad fits s into width display cells, truncating with an ellipsis.
// Numbers are right-aligned.
func pad(s string, width int, right bool) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if runewidth.StringWidth(s) > width {
		return runewidth.Truncate(s, width, "…")
	}
	if right {
		return runewidth.FillLeft(s, width)
	}
	return runewidth.FillRight(s, width)
}

// MoveSelection moves the selection up or down within the page
func (tv *TableView) MoveSelection(delta int) {
	if len(tv.Rows) == 0 {
		return
	}
	tv.SelectedRow = min(max(tv.SelectedRow+delta, 0), len(tv.Rows)-1)

	if tv.VisibleRows <= 0 {
		tv.VisibleRows = max(tv.Height-3, 1)
	}
	if tv.SelectedRow < tv.TopRow {
		tv.TopRow = tv.SelectedRow
	}
	if tv.SelectedRow >= tv.TopRow+tv.VisibleRows {
		tv.TopRow = tv.SelectedRow - tv.VisibleRows + 1
	}
}

// MoveColumn moves the cell cursor left or right, scrolling horizontally
func (tv *TableView) MoveColumn(delta int) {
	if len(tv.Columns) == 0 {
		return
	}
	tv.SelectedCol = min(max(tv.SelectedCol+delta, 0), len(tv.Columns)-1)
	if tv.SelectedCol < tv.LeftCol {
		tv.LeftCol = tv.SelectedCol
	}
	for {
		_, end := tv.visibleColumns()
		if tv.SelectedCol < end || tv.LeftCol >= tv.SelectedCol {
			break
		}
		tv.LeftCol++
	}
}

// SelectedCell returns the column name and text under the cursor
func (tv *TableView) SelectedCell() (string, string, bool) {
	if tv.SelectedRow >= len(tv.Rows) || tv.SelectedCol >= len(tv.Columns) {
		return "", "", false
	}
	row := tv.Rows[tv.SelectedRow]
	if tv.SelectedCol >= len(row) {
		return tv.Columns[tv.SelectedCol], "", true
	}
	return tv.Columns[tv.SelectedCol], row[tv.SelectedCol], true
}

// SelectedRowValues returns the row under the cursor
func (tv *TableView) SelectedRowValues() ([]string, bool) {
	if tv.SelectedRow >= len(tv.Rows) {
		return nil, false
	}
	return tv.Rows[tv.SelectedRow], true
}
