package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tealeg/xlsx"

	"github.com/rebeliceyang/lazysheet/internal/models"
	"github.com/rebeliceyang/lazysheet/internal/table"
)

func sampleTable(t *testing.T) *table.Table {
	t.Helper()
	b := table.NewBuilder([]string{"City", "Age", "Note"})
	b.AppendRow([]string{"Kurnool", "25", "has, comma"})
	b.AppendRow([]string{"Hyderabad", "", `say "hi"`})
	b.AppendRow([]string{"A very long city name that goes past the cap of fifty characters", "41", ""})
	tbl, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(tbl.Release)
	return tbl
}

func checkPerm(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Failed to stat file: %v", err)
	}
	if info.Mode().Perm() != 0644 {
		t.Errorf("Expected file permissions 0644, got %o", info.Mode().Perm())
	}
}

func TestToCSV(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "nested", "out.csv")

	if err := ToCSV(sampleTable(t), csvPath); err != nil {
		t.Fatalf("ToCSV failed: %v", err)
	}
	checkPerm(t, csvPath)

	file, err := os.Open(csvPath)
	if err != nil {
		t.Fatalf("Failed to open CSV: %v", err)
	}
	defer func() { _ = file.Close() }()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}
	if len(records) != 4 { // header + 3 rows
		t.Fatalf("Expected 4 records, got %d", len(records))
	}
	if !slicesEqual(records[0], []string{"City", "Age", "Note"}) {
		t.Errorf("Header mismatch: %v", records[0])
	}
	if !slicesEqual(records[2], []string{"Hyderabad", "", `say "hi"`}) {
		t.Errorf("Row mismatch: %v", records[2])
	}
	if records[1][2] != "has, comma" {
		t.Errorf("Expected quoted comma to survive, got '%s'", records[1][2])
	}
}

func TestToJSON(t *testing.T) {
	jsonPath := filepath.Join(t.TempDir(), "out.json")

	if err := ToJSON(sampleTable(t), jsonPath); err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}
	checkPerm(t, jsonPath)

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("Failed to read JSON: %v", err)
	}

	var parsed []map[string]any
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}
	if len(parsed) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(parsed))
	}
	if parsed[0]["Age"] != 25.0 {
		t.Errorf("Expected numeric age 25, got %v", parsed[0]["Age"])
	}
	if v, ok := parsed[1]["Age"]; !ok || v != nil {
		t.Errorf("Expected null age, got %v", v)
	}
	if parsed[1]["Note"] != `say "hi"` {
		t.Errorf("Unexpected note %v", parsed[1]["Note"])
	}

	// Keys keep column order
	first := string(data)
	if strings.Index(first, `"City"`) > strings.Index(first, `"Age"`) {
		t.Error("Expected City before Age in output")
	}
}

func TestToXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")

	if err := ToXLSX(sampleTable(t), path, DefaultXLSXOptions()); err != nil {
		t.Fatalf("ToXLSX failed: %v", err)
	}
	checkPerm(t, path)

	f, err := xlsx.OpenFile(path)
	if err != nil {
		t.Fatalf("Failed to open workbook: %v", err)
	}
	sheet, ok := f.Sheet["Filtered Data"]
	if !ok {
		t.Fatalf("Expected sheet 'Filtered Data', got %d sheets", len(f.Sheets))
	}
	if len(sheet.Rows) != 4 {
		t.Fatalf("Expected 4 rows, got %d", len(sheet.Rows))
	}
	if got := sheet.Rows[0].Cells[0].String(); got != "City" {
		t.Errorf("Expected header 'City', got '%s'", got)
	}
	if got, err := sheet.Rows[1].Cells[1].Float(); err != nil || got != 25 {
		t.Errorf("Expected numeric age 25, got %v (%v)", got, err)
	}
}

func TestExportKeepsLargeIntegers(t *testing.T) {
	b := table.NewBuilder([]string{"ID", "Ratio"})
	b.AppendRow([]string{"9007199254740993", "0.1"})
	b.AppendRow([]string{"-9223372036854775807", "2.25"})
	tbl, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer tbl.Release()

	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "ids.json")
	if err := ToJSON(tbl, jsonPath); err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("Failed to read JSON: %v", err)
	}
	for _, want := range []string{`"ID": 9007199254740993`, `"ID": -9223372036854775807`, `"Ratio": 0.1`, `"Ratio": 2.25`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("Expected %s in output:\n%s", want, data)
		}
	}

	xlsxPath := filepath.Join(dir, "ids.xlsx")
	if err := ToXLSX(tbl, xlsxPath, DefaultXLSXOptions()); err != nil {
		t.Fatalf("ToXLSX failed: %v", err)
	}
	f, err := xlsx.OpenFile(xlsxPath)
	if err != nil {
		t.Fatalf("Failed to open workbook: %v", err)
	}
	got, err := f.Sheets[0].Rows[1].Cells[0].Int64()
	if err != nil || got != 9007199254740993 {
		t.Errorf("Expected exact ID, got %d (%v)", got, err)
	}
}

func TestColumnWidth(t *testing.T) {
	tests := []struct {
		longest, max, want int
	}{
		{4, 50, 6},
		{48, 50, 50},
		{70, 50, 50},
		{0, 50, 2},
	}
	for _, tt := range tests {
		if got := ColumnWidth(tt.longest, tt.max); got != tt.want {
			t.Errorf("ColumnWidth(%d, %d) = %d, want %d", tt.longest, tt.max, got, tt.want)
		}
	}
}

func TestToFileDispatch(t *testing.T) {
	dir := t.TempDir()
	tbl := sampleTable(t)

	for _, name := range []string{"a.csv", "b.json", "c.xlsx"} {
		if err := ToFile(tbl, filepath.Join(dir, name), DefaultXLSXOptions()); err != nil {
			t.Errorf("ToFile(%s) failed: %v", name, err)
		}
	}

	err := ToFile(tbl, filepath.Join(dir, "d.ods"), DefaultXLSXOptions())
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestExportEmptyDataset(t *testing.T) {
	b := table.NewBuilder([]string{"City"})
	tbl, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer tbl.Release()

	jsonPath := filepath.Join(t.TempDir(), "empty.json")
	if err := ToJSON(tbl, jsonPath); err != nil {
		t.Fatalf("ToJSON with empty dataset failed: %v", err)
	}
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("Failed to read JSON: %v", err)
	}
	var parsed []map[string]any
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}
	if len(parsed) != 0 {
		t.Errorf("Expected 0 rows, got %d", len(parsed))
	}
}

func TestPresetsToCSV(t *testing.T) {
	presets := []models.Preset{
		{
			ID:          "test-1",
			Name:        "Adults in Kurnool",
			Description: "A preset with commas, quotes \"and\" special chars",
			Rules: []models.FilterRule{
				{Column: "City", Operator: models.OpEquals, Value: "Kurnool"},
				{Column: "Age", Operator: models.OpGreaterOrEqual, Value: "18"},
			},
			Combinator: models.CombineAnd,
			Tags:       []string{"census", "ap"},
			CreatedAt:  time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
			UpdatedAt:  time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC),
			LastUsed:   time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC),
			UsageCount: 5,
		},
		{
			ID:         "test-2",
			Name:       "Empty",
			Combinator: models.CombineOr,
			CreatedAt:  time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC),
			UpdatedAt:  time.Date(2024, 1, 2, 13, 0, 0, 0, time.UTC),
		},
	}

	csvPath := filepath.Join(t.TempDir(), "presets.csv")
	if err := PresetsToCSV(presets, csvPath); err != nil {
		t.Fatalf("PresetsToCSV failed: %v", err)
	}
	checkPerm(t, csvPath)

	file, err := os.Open(csvPath)
	if err != nil {
		t.Fatalf("Failed to open CSV: %v", err)
	}
	defer func() { _ = file.Close() }()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}

	row1 := records[1]
	if row1[2] != `City equals "Kurnool" AND Age >= 18` {
		t.Errorf("Unexpected rules column '%s'", row1[2])
	}
	if row1[4] != "census, ap" {
		t.Errorf("Expected tags 'census, ap', got '%s'", row1[4])
	}
	if row1[8] != "5" {
		t.Errorf("Expected usage count '5', got '%s'", row1[8])
	}
	if records[2][7] != "" {
		t.Errorf("Expected empty last used, got '%s'", records[2][7])
	}
}

func TestPresetsToJSON(t *testing.T) {
	presets := []models.Preset{{
		ID:         "test-1",
		Name:       "Adults",
		Rules:      []models.FilterRule{{Column: "Age", Operator: models.OpGreaterThan, Value: "17"}},
		Combinator: models.CombineAnd,
		CreatedAt:  time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		UpdatedAt:  time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC),
	}}

	jsonPath := filepath.Join(t.TempDir(), "presets.json")
	if err := PresetsToJSON(presets, jsonPath); err != nil {
		t.Fatalf("PresetsToJSON failed: %v", err)
	}
	checkPerm(t, jsonPath)

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("Failed to read JSON: %v", err)
	}
	var parsed []models.Preset
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}
	if len(parsed) != 1 || parsed[0].Rules[0].Operator != models.OpGreaterThan {
		t.Errorf("Unexpected round trip: %+v", parsed)
	}
	if !strings.Contains(string(data), "\n  ") {
		t.Error("JSON should be indented")
	}
}

// Helper function to compare slices
func slicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
