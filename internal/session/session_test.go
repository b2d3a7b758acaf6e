package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazysheet/internal/config"
	"github.com/rebeliceyang/lazysheet/internal/history"
	"github.com/rebeliceyang/lazysheet/internal/models"
	"github.com/rebeliceyang/lazysheet/internal/presets"
)

func newSession(t *testing.T) (*Session, string) {
	t.Helper()
	dir := t.TempDir()

	store, err := history.NewStore(filepath.Join(dir, "history.db"), 10, 10)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	pm, err := presets.NewManager(dir)
	require.NoError(t, err)

	cfg := config.GetDefaults()
	cfg.General.DefaultExportDir = filepath.Join(dir, "out")
	return New(cfg, nil, store, pm), dir
}

func writeCSV(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "people.csv")
	data := "Name,City,Age\nAsha,Kurnool,31\nRavi,Hyderabad,24\nMeena,kurnool,45\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

func TestSession_LoadFilterExport(t *testing.T) {
	s, dir := newSession(t)
	path := writeCSV(t, dir)

	tbl, err := s.Load(path, "")
	require.NoError(t, err)
	defer tbl.Release()
	assert.Equal(t, 3, tbl.NumRows())

	recent, err := s.Recent(0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, path, recent[0].Path)

	res, err := s.Filter(path, "people", tbl, []models.FilterRule{
		{Column: "City", Operator: models.OpEquals, Value: "KURNOOL"},
		{Column: "Age", Operator: models.OpGreaterThan, Value: "40"},
	}, models.CombineAnd)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Statistics.FilteredCount)
	assert.Equal(t, 2, res.Statistics.RuleCount)

	runs, err := s.Runs(0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, `City equals "KURNOOL" AND Age > 40`, runs[0].Expression)
	assert.Equal(t, 3, runs[0].OriginalRows)
	assert.Equal(t, 1, runs[0].FilteredRows)

	out, err := s.ExportFile(res.Dataset, s.DefaultExportPath(path))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out", "people_filtered.xlsx"), out)
	_, err = os.Stat(out)
	assert.NoError(t, err)
}

func TestSession_FilterRejectsUnknownColumn(t *testing.T) {
	s, dir := newSession(t)
	tbl, err := s.Load(writeCSV(t, dir), "")
	require.NoError(t, err)
	defer tbl.Release()

	_, err = s.Filter("", "", tbl, []models.FilterRule{
		{Column: "Missing", Operator: models.OpEquals, Value: "x"},
	}, "")
	assert.Error(t, err)
}

func TestSession_ExportFileAddsConfiguredExtension(t *testing.T) {
	s, dir := newSession(t)
	s.cfg.General.ExportFormat = "csv"
	tbl, err := s.Load(writeCSV(t, dir), "")
	require.NoError(t, err)
	defer tbl.Release()

	out, err := s.ExportFile(tbl, filepath.Join(dir, "plain"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "plain.csv"), out)
}

func TestSession_DefaultCombinator(t *testing.T) {
	s := New(nil, nil, nil, nil)
	assert.Equal(t, models.CombineAnd, s.DefaultCombinator())
	s.cfg.Filter.DefaultLogic = "or"
	assert.Equal(t, models.CombineOr, s.DefaultCombinator())
	assert.Equal(t, models.CombineOr, s.NewEngine(nil).Combinator())

	recent, err := s.Recent(5)
	assert.NoError(t, err)
	assert.Nil(t, recent)
	assert.False(t, s.PostgresEnabled())
}

func TestDefaultTableName(t *testing.T) {
	tests := []struct {
		source, sheet, want string
	}{
		{"/data/Sales Report.xlsx", "Q1 2024", "sales_report_q1_2024"},
		{"people.csv", "people", "people"},
		{"2024.csv", "", "t_2024"},
		{"---.csv", "", "filtered"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DefaultTableName(tt.source, tt.sheet), tt.source)
	}
}
