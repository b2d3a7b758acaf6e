package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazysheet/internal/filter"
	"github.com/rebeliceyang/lazysheet/internal/models"
	"github.com/rebeliceyang/lazysheet/internal/reader"
)

const peopleCSV = `Name,City,Age
Asha,Kurnool,31
Ravi,Hyderabad,24
Meena,kurnool,45
Arjun,Guntur,38
Lakshmi,,52
`

// sandbox points the user config directory at a temp dir and writes the
// sample sheet
func sandbox(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("HOME", dir)
	path := filepath.Join(dir, "people.csv")
	require.NoError(t, os.WriteFile(path, []byte(peopleCSV), 0644))
	return path
}

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestFilterCommand_WritesExport(t *testing.T) {
	path := sandbox(t)
	out := filepath.Join(filepath.Dir(path), "kurnool.csv")

	code, stdout, stderr := run(t, "filter", path, "--rule", "City equals kurnool", "--out", out)
	require.Equal(t, ExitSuccess, code, stderr)

	assert.Contains(t, stdout, `Filter:   City equals "kurnool"`)
	assert.Contains(t, stdout, "2 of 5 kept, 3 removed (60.0%)")
	assert.Contains(t, stdout, "Wrote 2 rows to "+out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "Name,City,Age\nAsha,Kurnool,31\nMeena,kurnool,45\n", string(data))
}

func TestFilterCommand_OrLogicAndSkippedRule(t *testing.T) {
	path := sandbox(t)

	code, stdout, stderr := run(t, "filter", path,
		"--logic", "or",
		"--rule", "City equals guntur",
		"--rule", "Age > fifty")
	require.Equal(t, ExitSuccess, code, stderr)

	assert.Contains(t, stdout, "1 of 5 kept")
	assert.Contains(t, stdout, "Skipped 1 rule(s)")
}

func TestFilterCommand_Errors(t *testing.T) {
	path := sandbox(t)

	code, _, stderr := run(t, "filter", path, "--rule", "Town equals x")
	assert.Equal(t, ExitValidationError, code)
	assert.Contains(t, stderr, "column not found")

	code, _, _ = run(t, "filter", path, "--rule", "City resembles x")
	assert.Equal(t, ExitValidationError, code)

	code, _, _ = run(t, "filter", path, "--logic", "xor")
	assert.Equal(t, ExitValidationError, code)

	code, _, _ = run(t, "filter", filepath.Join(filepath.Dir(path), "missing.csv"))
	assert.Equal(t, ExitLoadError, code)

	code, _, _ = run(t, "filter", path, "--out", filepath.Join(filepath.Dir(path), "out.parquet"))
	assert.Equal(t, ExitRuntimeError, code)

	code, _, stderr = run(t, "filter", path, "--pg-table", "people")
	assert.Equal(t, ExitValidationError, code)
	assert.Contains(t, stderr, "postgres.dsn")
}

func TestPresets_SaveAndApply(t *testing.T) {
	path := sandbox(t)

	code, stdout, stderr := run(t, "presets", "save", "elders", "--rule", "Age >= 45", "--description", "45 and over")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, stdout, `Saved preset "elders"`)

	code, stdout, stderr = run(t, "filter", path, "--preset", "ELDERS")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "2 of 5 kept")

	code, stdout, _ = run(t, "presets", "list")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "elders (AND, used 1 times)")
	assert.Contains(t, stdout, "1. Age >= 45")

	exported := filepath.Join(filepath.Dir(path), "presets.json")
	code, _, stderr = run(t, "presets", "export", exported)
	require.Equal(t, ExitSuccess, code, stderr)
	_, err := os.Stat(exported)
	assert.NoError(t, err)

	code, _, _ = run(t, "presets", "delete", "elders")
	require.Equal(t, ExitSuccess, code)
	code, stdout, _ = run(t, "presets", "list")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "No presets")
}

func TestFilterCommand_SavePreset(t *testing.T) {
	path := sandbox(t)

	code, _, stderr := run(t, "filter", path, "--rule", "Name starts_with a", "--save-preset", "a-names", "--quiet")
	require.Equal(t, ExitSuccess, code, stderr)

	code, stdout, _ := run(t, "presets", "list", "--search", "name")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "a-names")
}

func TestSheetsAndHistory(t *testing.T) {
	path := sandbox(t)

	code, stdout, stderr := run(t, "sheets", path)
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, "people\n", stdout)

	code, _, stderr = run(t, "filter", path, "--rule", "Age < 30", "--quiet")
	require.Equal(t, ExitSuccess, code, stderr)

	code, stdout, _ = run(t, "history")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, path)

	code, stdout, _ = run(t, "history", "--runs")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "1/5 rows")
	assert.Contains(t, stdout, "Age < 30")
}

func TestVersionCommand(t *testing.T) {
	code, stdout, _ := run(t, "version")
	assert.Equal(t, ExitSuccess, code)
	assert.True(t, strings.HasPrefix(stdout, "lazysheet dev"))
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitSuccess},
		{withCode(ExitLoadError, errors.New("x")), ExitLoadError},
		{&filter.ValidationError{Err: filter.ErrColumnNotFound}, ExitValidationError},
		{fmt.Errorf("wrap: %w", reader.ErrSheetNotFound), ExitLoadError},
		{errors.New("boom"), ExitRuntimeError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, exitCode(tt.err), fmt.Sprint(tt.err))
	}
}

func TestCollectRules(t *testing.T) {
	rules, combinator, err := collectRules(nil, &filterFlags{
		rules: []string{"Full Name contains \"van der\"", "Age between 20,30"},
		logic: "OR",
	})
	require.NoError(t, err)
	assert.Equal(t, models.CombineOr, combinator)
	assert.Equal(t, []models.FilterRule{
		{Column: "Full Name", Operator: models.OpContains, Value: "van der"},
		{Column: "Age", Operator: models.OpBetween, Value: "20,30"},
	}, rules)

	_, _, err = collectRules(nil, &filterFlags{preset: "x"})
	assert.Error(t, err)
}
