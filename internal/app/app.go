package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"go.uber.org/zap"

	"github.com/rebeliceyang/lazysheet/internal/filter"
	"github.com/rebeliceyang/lazysheet/internal/models"
	"github.com/rebeliceyang/lazysheet/internal/session"
	"github.com/rebeliceyang/lazysheet/internal/table"
	"github.com/rebeliceyang/lazysheet/internal/ui/components"
	"github.com/rebeliceyang/lazysheet/internal/ui/help"
	"github.com/rebeliceyang/lazysheet/internal/ui/theme"
)

const (
	minPageSize   = 10
	maxPageSize   = 5000
	recentLimit   = 10
	exportTimeout = 5 * time.Minute
)

// writeClipboard is replaced in tests
var writeClipboard = clipboard.WriteAll

// App is the main application model
type App struct {
	state   models.AppState
	session *session.Session
	theme   theme.Theme
	logger  *zap.Logger

	initialPath string

	// Loaded sheet and the last filter result; filtered is nil until a
	// filter has been applied
	source       *table.Table
	filtered     models.Dataset
	showOriginal bool
	filterLabel  string
	engine       *filter.Engine

	mainPanel     components.Panel
	pathInput     *components.PathInput
	sheetSelector *components.SheetSelector
	tableView     *components.TableView
	previewPane   *components.PreviewPane
	filterBuilder *components.FilterBuilder
	exportDialog  *components.ExportDialog
	errorOverlay  *components.ErrorOverlay

	status string
}

// ErrorMsg is sent when an error occurs
type ErrorMsg struct {
	Title   string
	Message string
}

// sheetsListedMsg carries the sheet names of a workbook
type sheetsListedMsg struct {
	token  int
	path   string
	sheets []string
	err    error
}

// sheetLoadedMsg carries a loaded sheet
type sheetLoadedMsg struct {
	token int
	path  string
	sheet string
	table *table.Table
	err   error
}

// filterAppliedMsg carries the outcome of an apply
type filterAppliedMsg struct {
	token  int
	label  string
	result *filter.Result
	err    error
}

// exportDoneMsg reports a finished export
type exportDoneMsg struct {
	destination string
	rows        int64
	err         error
}

// New creates a new App. path, when set, is opened on start.
func New(sess *session.Session, path string) *App {
	cfg := sess.Config()
	state := models.NewAppState()
	if cfg.UI.PageSize > 0 {
		state.PageSize = cfg.UI.PageSize
	}

	th, ok := theme.Lookup(cfg.UI.Theme)
	if !ok {
		sess.Logger().Warn("Unknown theme, using default",
			zap.String("theme", cfg.UI.Theme),
			zap.Strings("available", theme.Names()))
		th = theme.DefaultTheme()
	}

	a := &App{
		state:         state,
		session:       sess,
		theme:         th,
		logger:        sess.Logger(),
		initialPath:   path,
		pathInput:     components.NewPathInput(th),
		sheetSelector: components.NewSheetSelector(th),
		tableView:     components.NewTableView(th),
		previewPane:   components.NewPreviewPane(th),
		filterBuilder: components.NewFilterBuilder(th, nil),
		exportDialog:  components.NewExportDialog(th),
		errorOverlay:  components.NewErrorOverlay(th),
		mainPanel:     components.Panel{Theme: th},
	}
	a.exportDialog.PostgresEnabled = sess.PostgresEnabled()
	a.pathInput.SetRecent(a.recentEntries())
	a.updateDimensions()
	return a
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	if a.initialPath == "" {
		return nil
	}
	return a.openFile(a.initialPath)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ErrorMsg:
		a.ShowError(msg.Title, msg.Message)
		return a, nil

	case tea.WindowSizeMsg:
		a.state.Width = msg.Width
		a.state.Height = msg.Height
		a.updateDimensions()
		return a, nil

	case tea.MouseMsg:
		if a.state.Screen == models.ScreenPreview && a.source != nil {
			switch msg.Button {
			case tea.MouseButtonWheelUp:
				a.tableView.MoveSelection(-1)
			case tea.MouseButtonWheelDown:
				a.tableView.MoveSelection(1)
			}
		}
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case components.OpenFileMsg:
		return a, a.openFile(msg.Path)

	case components.ClosePathInputMsg:
		if a.source != nil {
			a.state.Screen = models.ScreenPreview
		}
		return a, nil

	case sheetsListedMsg:
		return a.handleSheetsListed(msg)

	case components.SelectSheetMsg:
		return a, a.loadSheet(a.state.FilePath, msg.Sheet)

	case components.CloseSheetSelectorMsg:
		if a.source != nil {
			a.state.Screen = models.ScreenPreview
		} else {
			a.state.Screen = models.ScreenOpen
		}
		return a, nil

	case sheetLoadedMsg:
		return a.handleSheetLoaded(msg)

	case components.ApplyFilterMsg:
		return a, a.applyFilter(msg.Rules, msg.Combinator)

	case filterAppliedMsg:
		return a.handleFilterApplied(msg)

	case components.ClearFilterMsg:
		// Invalidate any apply still running
		a.state.ApplyToken++
		a.setFiltered(nil)
		a.status = "Filters cleared"
		a.refreshTable()
		return a, nil

	case components.CloseFilterBuilderMsg:
		a.state.Screen = models.ScreenPreview
		return a, nil

	case components.ExportMsg:
		return a, a.export(msg)

	case exportDoneMsg:
		if msg.err != nil {
			a.exportDialog.SetError(msg.err.Error())
			a.logger.Error("Export failed", zap.String("destination", msg.destination), zap.Error(msg.err))
			return a, nil
		}
		a.status = fmt.Sprintf("Exported %d rows to %s", msg.rows, msg.destination)
		a.state.Screen = models.ScreenPreview
		return a, nil

	case components.CloseExportDialogMsg:
		a.state.Screen = models.ScreenPreview
		return a, nil
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Error overlay consumes everything but quit
	if a.errorOverlay.Visible {
		switch key {
		case "esc", "enter":
			a.DismissError()
		case "ctrl+c":
			return a, tea.Quit
		}
		return a, nil
	}

	if key == "ctrl+c" {
		return a, tea.Quit
	}

	if a.state.ViewMode == models.HelpMode {
		switch key {
		case "?", "esc", "q":
			a.state.ViewMode = models.NormalMode
		}
		return a, nil
	}

	var cmd tea.Cmd
	switch a.state.Screen {
	case models.ScreenOpen:
		a.pathInput, cmd = a.pathInput.Update(msg)
		return a, cmd
	case models.ScreenExport:
		a.exportDialog, cmd = a.exportDialog.Update(msg)
		return a, cmd
	case models.ScreenFilter:
		if !a.filterBuilder.Editing() {
			switch key {
			case "q":
				return a, tea.Quit
			case "?":
				a.state.ViewMode = models.HelpMode
				return a, nil
			}
		}
		a.filterBuilder, cmd = a.filterBuilder.Update(msg)
		return a, cmd
	case models.ScreenSheets:
		switch key {
		case "q":
			return a, tea.Quit
		case "?":
			a.state.ViewMode = models.HelpMode
			return a, nil
		}
		a.sheetSelector, cmd = a.sheetSelector.Update(msg)
		return a, cmd
	}

	return a.handlePreviewKey(key)
}

func (a *App) handlePreviewKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q":
		return a, tea.Quit
	case "?":
		a.state.ViewMode = models.HelpMode
		return a, nil
	case "o":
		a.pathInput.Reset()
		a.pathInput.SetRecent(a.recentEntries())
		a.state.Screen = models.ScreenOpen
		return a, nil
	case "s":
		if len(a.state.Sheets) > 1 {
			a.sheetSelector.SetSheets(a.state.Sheets, a.state.Sheet)
			a.state.Screen = models.ScreenSheets
		}
		return a, nil
	}

	if a.source == nil {
		return a, nil
	}

	switch key {
	case "up", "k":
		a.tableView.MoveSelection(-1)
	case "down", "j":
		a.tableView.MoveSelection(1)
	case "left", "h":
		a.tableView.MoveColumn(-1)
	case "right", "l":
		a.tableView.MoveColumn(1)
	case "pgup", "ctrl+u":
		a.tableView.MoveSelection(-a.tableView.VisibleRows)
	case "pgdown", "ctrl+d":
		a.tableView.MoveSelection(a.tableView.VisibleRows)
	case "n":
		a.setPage(a.state.Page + 1)
	case "p":
		a.setPage(a.state.Page - 1)
	case "g":
		a.setPage(0)
	case "G":
		a.setPage(a.state.PageCount(a.current().NumRows()) - 1)
	case "+", "=":
		a.setPageSize(a.state.PageSize * 2)
	case "-", "_":
		a.setPageSize(a.state.PageSize / 2)
	case "c":
		if _, text, ok := a.tableView.SelectedCell(); ok {
			a.copy(text, "cell")
		}
	case "C":
		if row, ok := a.tableView.SelectedRowValues(); ok {
			a.copy(strings.Join(row, "\t"), "row")
		}
	case "v":
		a.syncPreview()
		a.previewPane.Toggle()
		a.updateDimensions()
	case "J":
		a.previewPane.Scroll(1)
	case "K":
		a.previewPane.Scroll(-1)
	case "t":
		if a.filtered != nil {
			a.showOriginal = !a.showOriginal
			a.state.Page = 0
			a.refreshTable()
		}
	case "f":
		a.filterBuilder.SetColumns(a.columnInfo())
		a.state.Screen = models.ScreenFilter
	case "e":
		ds := a.current()
		a.state.Screen = models.ScreenExport
		return a, a.exportDialog.Open(
			a.session.DefaultExportPath(a.state.FilePath),
			session.DefaultTableName(a.state.FilePath, a.state.Sheet),
			ds.NumRows())
	}
	return a, nil
}

// openFile lists the sheets of path in the background
func (a *App) openFile(path string) tea.Cmd {
	a.state.LoadToken++
	token := a.state.LoadToken
	a.status = "Opening " + path
	sess := a.session
	return func() tea.Msg {
		sheets, err := sess.SheetNames(path)
		return sheetsListedMsg{token: token, path: path, sheets: sheets, err: err}
	}
}

func (a *App) handleSheetsListed(msg sheetsListedMsg) (tea.Model, tea.Cmd) {
	if msg.token != a.state.LoadToken {
		return a, nil
	}
	if msg.err != nil {
		a.ShowError("Cannot open file", fmt.Sprintf("%s\n\n%v", msg.path, msg.err))
		return a, nil
	}
	if len(msg.sheets) == 0 {
		a.ShowError("Cannot open file", msg.path+" has no sheets")
		return a, nil
	}

	a.state.FilePath = msg.path
	a.state.Sheets = msg.sheets
	if len(msg.sheets) == 1 {
		return a, a.loadSheet(msg.path, msg.sheets[0])
	}
	a.sheetSelector.SetSheets(msg.sheets, "")
	a.state.Screen = models.ScreenSheets
	return a, nil
}

// loadSheet reads a sheet in the background
func (a *App) loadSheet(path, sheet string) tea.Cmd {
	a.state.LoadToken++
	token := a.state.LoadToken
	a.status = fmt.Sprintf("Loading %s [%s]", filepath.Base(path), sheet)
	sess := a.session
	return func() tea.Msg {
		tbl, err := sess.Load(path, sheet)
		return sheetLoadedMsg{token: token, path: path, sheet: sheet, table: tbl, err: err}
	}
}

func (a *App) handleSheetLoaded(msg sheetLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.token != a.state.LoadToken {
		if msg.table != nil {
			msg.table.Release()
		}
		return a, nil
	}
	if msg.err != nil {
		a.ShowError("Cannot load sheet", fmt.Sprintf("%s [%s]\n\n%v", msg.path, msg.sheet, msg.err))
		return a, nil
	}

	// Results of applies against the previous sheet are no longer wanted
	a.state.ApplyToken++
	a.setFiltered(nil)
	if a.source != nil {
		a.source.Release()
	}
	a.source = msg.table
	a.state.FilePath = msg.path
	a.state.Sheet = msg.sheet
	a.state.Page = 0

	if a.engine == nil {
		a.engine = a.session.NewEngine(a.source)
		a.status = fmt.Sprintf("Loaded %d rows", a.source.NumRows())
	} else {
		dropped := a.engine.SetDataset(a.source)
		a.status = fmt.Sprintf("Loaded %d rows", a.source.NumRows())
		if len(dropped) > 0 {
			a.status += fmt.Sprintf(", dropped %d rule(s) for missing columns", len(dropped))
		}
	}
	a.filterBuilder.SetEngine(a.engine)
	a.filterBuilder.SetColumns(a.columnInfo())

	a.state.Screen = models.ScreenPreview
	a.refreshTable()
	return a, nil
}

// applyFilter evaluates rules in the background against the loaded sheet
func (a *App) applyFilter(rules []models.FilterRule, combinator models.Combinator) tea.Cmd {
	if a.source == nil {
		return nil
	}
	a.state.ApplyToken++
	token := a.state.ApplyToken
	a.status = "Applying filters..."

	src := a.source
	src.Retain()
	sess := a.session
	path, sheet := a.state.FilePath, a.state.Sheet
	label := filter.Describe(rules, combinator)
	return func() tea.Msg {
		defer src.Release()
		res, err := sess.Filter(path, sheet, src, rules, combinator)
		return filterAppliedMsg{token: token, label: label, result: res, err: err}
	}
}

func (a *App) handleFilterApplied(msg filterAppliedMsg) (tea.Model, tea.Cmd) {
	if msg.token != a.state.ApplyToken {
		if msg.result != nil {
			table.Release(msg.result.Dataset)
		}
		return a, nil
	}
	if msg.err != nil {
		a.ShowError("Filter failed", msg.err.Error())
		return a, nil
	}

	res := msg.result
	a.setFiltered(res.Dataset)
	a.filterLabel = msg.label
	a.showOriginal = false
	a.state.Page = 0
	a.filterBuilder.SetResult(res.Statistics, res.Skipped)

	st := res.Statistics
	a.status = fmt.Sprintf("%d of %d rows match (%.1f%% removed)", st.FilteredCount, st.OriginalCount, st.ReductionPercent)
	if st.SkippedCount > 0 {
		a.status += fmt.Sprintf(", %d rule(s) skipped", st.SkippedCount)
		// Stay on the builder so the skipped rules are visible
		a.refreshTable()
		return a, nil
	}
	a.state.Screen = models.ScreenPreview
	a.refreshTable()
	return a, nil
}

// export writes the rows on screen in the background
func (a *App) export(msg components.ExportMsg) tea.Cmd {
	ds := a.current()
	if ds == nil {
		return nil
	}
	t, _ := ds.(*table.Table)
	t.Retain()
	sess := a.session
	return func() tea.Msg {
		defer t.Release()

		if msg.Target == components.TargetPostgres {
			ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
			defer cancel()
			n, err := sess.ExportPostgres(ctx, ds, msg.Destination, msg.Replace)
			return exportDoneMsg{destination: msg.Destination, rows: n, err: err}
		}

		path, err := sess.ExportFile(ds, msg.Destination)
		return exportDoneMsg{destination: path, rows: int64(ds.NumRows()), err: err}
	}
}

// current returns the dataset being viewed
func (a *App) current() models.Dataset {
	if a.filtered != nil && !a.showOriginal {
		return a.filtered
	}
	if a.source == nil {
		return nil
	}
	return a.source
}

func (a *App) setFiltered(ds models.Dataset) {
	if a.filtered != nil {
		table.Release(a.filtered)
	}
	a.filtered = ds
	if ds == nil {
		a.showOriginal = false
	}
}

func (a *App) setPage(page int) {
	ds := a.current()
	if ds == nil {
		return
	}
	page = min(max(page, 0), a.state.PageCount(ds.NumRows())-1)
	if page == a.state.Page {
		return
	}
	a.state.Page = page
	a.refreshTable()
}

func (a *App) setPageSize(size int) {
	size = min(max(size, minPageSize), maxPageSize)
	if size == a.state.PageSize {
		return
	}
	// Keep the first row of the current page visible
	first := a.state.Page * a.state.PageSize
	a.state.PageSize = size
	a.state.Page = first / size
	a.refreshTable()
}

// refreshTable copies the current page into the table view
func (a *App) refreshTable() {
	ds := a.current()
	if ds == nil {
		return
	}
	total := ds.NumRows()
	pages := a.state.PageCount(total)
	a.state.Page = min(max(a.state.Page, 0), pages-1)

	names := ds.Columns()
	kinds := make([]models.ColumnKind, len(names))
	for i, name := range names {
		if col, ok := ds.Column(name); ok {
			kinds[i] = col.Kind()
		}
	}

	offset := a.state.Page * a.state.PageSize
	a.tableView.Page = a.state.Page
	a.tableView.PageCount = pages
	a.tableView.SetData(names, kinds, table.Rows(ds, offset, a.state.PageSize), offset, total)

	switch {
	case a.filtered == nil:
		a.tableView.Label = "unfiltered"
	case a.showOriginal:
		a.tableView.Label = "original (t: filtered)"
	default:
		a.tableView.Label = "filtered: " + a.filterLabel
	}
}

// columnInfo classifies every column of the loaded sheet
func (a *App) columnInfo() []models.ColumnInfo {
	if a.source == nil || a.engine == nil {
		return nil
	}
	names := a.source.Columns()
	out := make([]models.ColumnInfo, 0, len(names))
	for _, name := range names {
		class, err := a.engine.ClassifyColumn(name)
		if err != nil {
			continue
		}
		out = append(out, models.ColumnInfo{
			Name:    name,
			Kind:    a.source.ColumnKind(name),
			Numeric: class == filter.ClassNumeric,
		})
	}
	return out
}

func (a *App) recentEntries() []components.RecentEntry {
	recent, err := a.session.Recent(recentLimit)
	if err != nil {
		a.logger.Warn("Failed to read recent files", zap.Error(err))
		return nil
	}
	out := make([]components.RecentEntry, 0, len(recent))
	for _, r := range recent {
		out = append(out, components.RecentEntry{Path: r.Path, Sheet: r.Sheet})
	}
	return out
}

func (a *App) copy(text, what string) {
	if err := writeClipboard(text); err != nil {
		a.ShowError("Clipboard", fmt.Sprintf("Failed to copy %s: %v", what, err))
		return
	}
	a.status = "Copied " + what
}

// syncPreview shows the selected cell in the preview pane
func (a *App) syncPreview() {
	col, text, ok := a.tableView.SelectedCell()
	if !ok {
		return
	}
	width := 0
	if a.tableView.SelectedCol < len(a.tableView.ColumnWidths) {
		width = a.tableView.ColumnWidths[a.tableView.SelectedCol]
	}
	a.previewPane.SetContent(text, col, runewidth.StringWidth(text) > width)
}

// View implements tea.Model
func (a *App) View() string {
	if a.errorOverlay.Visible {
		return lipgloss.Place(
			a.state.Width, a.state.Height,
			lipgloss.Center, lipgloss.Center,
			a.errorOverlay.View(),
		)
	}

	if a.state.ViewMode == models.HelpMode {
		return help.Render(a.state.Width, a.state.Height, a.theme)
	}

	var body string
	switch a.state.Screen {
	case models.ScreenOpen:
		body = a.center(a.pathInput.View())
	case models.ScreenSheets:
		body = a.center(a.sheetSelector.View())
	case models.ScreenExport:
		body = a.center(a.exportDialog.View())
	case models.ScreenFilter:
		body = a.filterBuilder.View()
	default:
		body = a.renderPreview()
	}

	return lipgloss.JoinVertical(lipgloss.Left, a.renderTopBar(), body, a.renderBottomBar())
}

func (a *App) center(s string) string {
	return lipgloss.Place(a.state.Width, a.contentHeight(), lipgloss.Center, lipgloss.Center, s)
}

func (a *App) renderPreview() string {
	if a.source == nil {
		return a.center(lipgloss.NewStyle().Foreground(a.theme.Muted).Render("Press o to open a workbook"))
	}
	a.mainPanel.Title = a.state.Sheet
	a.mainPanel.Badge = filepath.Base(a.state.FilePath)
	a.mainPanel.Content = a.tableView.View()
	if !a.previewPane.Visible {
		return a.mainPanel.View()
	}
	a.syncPreview()
	return lipgloss.JoinVertical(lipgloss.Left, a.mainPanel.View(), a.previewPane.View())
}

func (a *App) renderTopBar() string {
	left := "lazysheet"
	if a.state.FilePath != "" {
		left += " │ " + filepath.Base(a.state.FilePath)
		if a.state.Sheet != "" {
			left += " [" + a.state.Sheet + "]"
		}
	}
	right := ""
	if a.engine != nil {
		right = string(a.engine.Combinator())
	}

	return lipgloss.NewStyle().
		Width(a.state.Width).
		Background(a.theme.BorderFocused).
		Foreground(a.theme.Background).
		Padding(0, 2).
		Render(a.formatStatusBar(left, right))
}

func (a *App) renderBottomBar() string {
	right := "[?] Help │ [q] Quit"
	if a.state.Screen == models.ScreenPreview {
		right = "[f] Filter │ [e] Export │ [o] Open │ " + right
	}
	return lipgloss.NewStyle().
		Width(a.state.Width).
		Background(a.theme.Selection).
		Foreground(a.theme.Foreground).
		Padding(0, 2).
		Render(a.formatStatusBar(a.status, right))
}

// formatStatusBar formats a status bar with left and right aligned content
func (a *App) formatStatusBar(left, right string) string {
	availableWidth := max(a.state.Width-4, 0)
	rightLen := runewidth.StringWidth(right)

	if runewidth.StringWidth(left)+rightLen > availableWidth {
		if availableWidth > rightLen+1 {
			left = runewidth.Truncate(left, availableWidth-rightLen-1, "…")
		} else {
			return runewidth.Truncate(left, availableWidth, "…")
		}
	}
	spacing := max(availableWidth-runewidth.StringWidth(left)-rightLen, 0)
	return left + strings.Repeat(" ", spacing) + right
}

func (a *App) contentHeight() int {
	// Top and bottom bar
	return max(a.state.Height-2, 5)
}

// updateDimensions sizes the components from the window size
func (a *App) updateDimensions() {
	if a.state.Width <= 0 || a.state.Height <= 0 {
		return
	}
	h := a.contentHeight()
	w := max(a.state.Width-2, 20)

	a.previewPane.Width = a.state.Width
	a.previewPane.MaxHeight = max(h/3, 5)

	// Panel border takes two lines, the title one more
	a.mainPanel.Width = w
	a.mainPanel.Height = max(h-2-a.previewPane.Height(), 5)
	a.tableView.Width = w
	a.tableView.Height = max(a.mainPanel.Height-1, 4)

	a.filterBuilder.Width = max(a.state.Width-4, 20)
	a.filterBuilder.Height = max(h-4, 10)
	a.pathInput.Width = min(max(a.state.Width-10, 30), 100)
	a.sheetSelector.Width = min(max(a.state.Width/2, 30), 60)
	a.sheetSelector.Height = max(h-4, 8)
	a.exportDialog.Width = min(max(a.state.Width-10, 40), 90)
	a.errorOverlay.Width = min(max(a.state.Width-10, 30), 70)
}

// ShowError displays an error overlay
func (a *App) ShowError(title, message string) {
	a.errorOverlay.SetError(title, message)
	a.logger.Warn("Showing error", zap.String("title", title), zap.String("message", message))
}

// DismissError hides the error overlay
func (a *App) DismissError() {
	a.errorOverlay.Hide()
}

// Close releases the loaded tables
func (a *App) Close() {
	a.setFiltered(nil)
	if a.source != nil {
		a.source.Release()
		a.source = nil
	}
}
