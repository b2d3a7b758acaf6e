package models

// AppState holds the application state
type AppState struct {
	Width    int
	Height   int
	Screen   Screen
	ViewMode ViewMode

	// Loaded workbook
	FilePath string
	Sheets   []string
	Sheet    string

	// Preview pagination
	Page     int
	PageSize int

	// Generation tokens; a result carrying an older token is discarded
	LoadToken  int
	ApplyToken int
}

// Screen identifies the active screen
type Screen int

const (
	ScreenOpen Screen = iota
	ScreenSheets
	ScreenPreview
	ScreenFilter
	ScreenExport
)

// ViewMode identifies the current view
type ViewMode int

const (
	NormalMode ViewMode = iota
	HelpMode
)

// NewAppState creates a new AppState with defaults
func NewAppState() AppState {
	return AppState{
		Width:    80,
		Height:   24,
		Screen:   ScreenOpen,
		ViewMode: NormalMode,
		PageSize: 100,
	}
}

// PageCount returns the number of pages needed for total rows
func (s AppState) PageCount(total int) int {
	if s.PageSize <= 0 || total <= 0 {
		return 1
	}
	return (total + s.PageSize - 1) / s.PageSize
}

// ColumnInfo describes a column for the filter builder
type ColumnInfo struct {
	Name    string
	Kind    ColumnKind
	Numeric bool
}
