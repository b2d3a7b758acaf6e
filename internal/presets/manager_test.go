package presets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rebeliceyang/lazysheet/internal/models"
)

var adults = []models.FilterRule{{Column: "Age", Operator: models.OpGreaterOrEqual, Value: "18"}}

func newManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

func TestAddAndReload(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	p, err := m.Add("  Adults ", "people of age", adults, models.CombineAnd, []string{"census"})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if p.ID == "" || p.Name != "Adults" {
		t.Errorf("Unexpected preset %+v", p)
	}

	info, err := os.Stat(filepath.Join(dir, "presets.yaml"))
	if err != nil {
		t.Fatalf("Expected presets file: %v", err)
	}
	if info.Mode().Perm() != 0644 {
		t.Errorf("Expected file permissions 0644, got %o", info.Mode().Perm())
	}

	reloaded, err := NewManager(dir)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	got, err := reloaded.Get(p.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got.Rules) != 1 || got.Rules[0] != adults[0] || got.Combinator != models.CombineAnd {
		t.Errorf("Rules did not survive reload: %+v", got)
	}
}

func TestAddValidation(t *testing.T) {
	m := newManager(t)

	if _, err := m.Add("", "", adults, models.CombineAnd, nil); err == nil {
		t.Error("Expected error for empty name")
	}
	if _, err := m.Add("x", "", nil, models.CombineAnd, nil); err == nil {
		t.Error("Expected error for empty rules")
	}
	if _, err := m.Add("x", "", adults, "XOR", nil); err == nil {
		t.Error("Expected error for bad logic")
	}
	bad := []models.FilterRule{{Column: "Age", Operator: "approx", Value: "1"}}
	if _, err := m.Add("x", "", bad, models.CombineAnd, nil); err == nil {
		t.Error("Expected error for unknown operator")
	}

	if _, err := m.Add("Adults", "", adults, models.CombineAnd, nil); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := m.Add("ADULTS", "", adults, models.CombineOr, nil); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("Expected ErrDuplicateName, got %v", err)
	}
}

func TestUpdateDeleteAndUsage(t *testing.T) {
	m := newManager(t)
	clock := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	a, _ := m.Add("A", "", adults, models.CombineAnd, nil)
	b, _ := m.Add("B", "", adults, models.CombineAnd, nil)

	if err := m.Update(b.ID, "a", "", adults, models.CombineOr, nil); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("Expected ErrDuplicateName, got %v", err)
	}
	if err := m.Update(b.ID, "B2", "renamed", adults, models.CombineOr, []string{"t"}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	got, _ := m.Get(b.ID)
	if got.Name != "B2" || got.Combinator != models.CombineOr {
		t.Errorf("Update not applied: %+v", got)
	}
	if err := m.Update("missing", "C", "", adults, models.CombineAnd, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	clock = clock.Add(time.Hour)
	if err := m.MarkUsed(b.ID); err != nil {
		t.Fatalf("MarkUsed failed: %v", err)
	}
	if err := m.MarkUsed(b.ID); err != nil {
		t.Fatalf("MarkUsed failed: %v", err)
	}
	got, _ = m.Get(b.ID)
	if got.UsageCount != 2 || !got.LastUsed.Equal(clock) {
		t.Errorf("Unexpected usage %d at %v", got.UsageCount, got.LastUsed)
	}
	if top := m.MostUsed(1); len(top) != 1 || top[0].ID != b.ID {
		t.Errorf("Expected B2 to be most used, got %+v", top)
	}

	if err := m.Delete(a.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := m.Get(a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
	if err := m.Delete(a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
	if len(m.List()) != 1 {
		t.Errorf("Expected 1 preset left, got %d", len(m.List()))
	}
}

func TestSearch(t *testing.T) {
	m := newManager(t)
	_, _ = m.Add("Adults", "", adults, models.CombineAnd, []string{"census"})
	_, _ = m.Add("Southern cities", "Kurnool and Guntur",
		[]models.FilterRule{{Column: "City", Operator: models.OpEquals, Value: "Kurnool"}}, models.CombineOr, nil)

	tests := []struct {
		query string
		want  int
	}{
		{"", 2},
		{"adult", 1},
		{"GUNTUR", 1},
		{"census", 1},
		{"city", 1},
		{"nothing", 0},
	}
	for _, tt := range tests {
		if got := len(m.Search(tt.query)); got != tt.want {
			t.Errorf("Search(%q) returned %d results, want %d", tt.query, got, tt.want)
		}
	}

	p, err := m.GetByName("adults")
	if err != nil || p.Name != "Adults" {
		t.Errorf("GetByName failed: %v", err)
	}
}

func TestExport(t *testing.T) {
	m := newManager(t)
	if _, err := m.ExportToCSV(); err == nil {
		t.Error("Expected error exporting empty presets")
	}

	_, _ = m.Add("Adults", "", adults, models.CombineAnd, nil)
	path, err := m.ExportToJSON(filepath.Join(t.TempDir(), "p.json"))
	if err != nil {
		t.Fatalf("ExportToJSON failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected exported file: %v", err)
	}
	path, err = m.ExportToCSV()
	if err != nil {
		t.Fatalf("ExportToCSV failed: %v", err)
	}
	if filepath.Base(path) != "presets.csv" {
		t.Errorf("Unexpected default path %s", path)
	}
}
