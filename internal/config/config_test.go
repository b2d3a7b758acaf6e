package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFileDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected error for explicit missing file, got config %+v", cfg)
	}

	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := GetDefaults()
	if cfg.UI.PageSize != want.UI.PageSize {
		t.Errorf("Expected page size %d, got %d", want.UI.PageSize, cfg.UI.PageSize)
	}
	if cfg.Export.SheetName != "Filtered Data" {
		t.Errorf("Expected sheet name 'Filtered Data', got '%s'", cfg.Export.SheetName)
	}
	if cfg.Filter.SampleSize != 200 || cfg.Filter.NumericThreshold != 0.8 {
		t.Errorf("Unexpected filter defaults: %+v", cfg.Filter)
	}
	if !cfg.Postgres.UseKeyring || cfg.Postgres.MaxConns != 4 {
		t.Errorf("Unexpected postgres defaults: %+v", cfg.Postgres)
	}
}

func TestLoadFileOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "config.yaml")
	content := "ui:\n  page_size: 25\nfilter:\n  default_logic: or\nexport:\n  max_column_width: 30\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	t.Setenv("LAZYSHEET_POSTGRES_DSN", "postgres://u@localhost/db")
	t.Setenv("LAZYSHEET_EXPORT_MAX_COLUMN_WIDTH", "40")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.UI.PageSize != 25 {
		t.Errorf("Expected page size 25, got %d", cfg.UI.PageSize)
	}
	if cfg.Filter.DefaultLogic != "or" {
		t.Errorf("Expected logic 'or', got '%s'", cfg.Filter.DefaultLogic)
	}
	if cfg.Postgres.DSN != "postgres://u@localhost/db" {
		t.Errorf("Expected DSN from environment, got '%s'", cfg.Postgres.DSN)
	}
	if cfg.Export.MaxColumnWidth != 40 {
		t.Errorf("Expected env to override file width, got %d", cfg.Export.MaxColumnWidth)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("LAZYSHEET_LOG_LEVEL=debug\n"), 0644); err != nil {
		t.Fatalf("Failed to write .env: %v", err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("LAZYSHEET_LOG_LEVEL") })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected log level from .env, got '%s'", cfg.Log.Level)
	}
}

func TestValidate(t *testing.T) {
	cfg := GetDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	cfg.UI.PageSize = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for zero page size")
	}

	cfg = GetDefaults()
	cfg.Filter.DefaultLogic = "xor"
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for unknown logic")
	}
}
