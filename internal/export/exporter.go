// Package export writes datasets and presets to files.
package export

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/tealeg/xlsx"

	"github.com/rebeliceyang/lazysheet/internal/models"
)

// ErrUnsupportedFormat is returned by ToFile for unknown extensions
var ErrUnsupportedFormat = errors.New("unsupported export format")

// XLSXOptions controls spreadsheet output
type XLSXOptions struct {
	SheetName      string
	AutoFormat     bool
	MaxColumnWidth int
}

// DefaultXLSXOptions names the sheet "Filtered Data" and caps columns at 50
func DefaultXLSXOptions() XLSXOptions {
	return XLSXOptions{
		SheetName:      "Filtered Data",
		AutoFormat:     true,
		MaxColumnWidth: 50,
	}
}

// ToFile picks the writer from the path extension
func ToFile(ds models.Dataset, path string, opts XLSXOptions) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return ToXLSX(ds, path, opts)
	case ".csv":
		return ToCSV(ds, path)
	case ".json":
		return ToJSON(ds, path)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

func columns(ds models.Dataset) ([]string, []models.Column) {
	names := ds.Columns()
	cols := make([]models.Column, len(names))
	for j, name := range names {
		cols[j], _ = ds.Column(name)
	}
	return names, cols
}

func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	return nil
}

// ToCSV exports a dataset to a CSV file. Null cells are written empty.
func ToCSV(ds models.Dataset, path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)

	names, cols := columns(ds)
	if err := writer.Write(names); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	row := make([]string, len(cols))
	for i := 0; i < ds.NumRows(); i++ {
		for j, c := range cols {
			row[j] = c.Text(i)
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return file.Close()
}

// ToJSON exports a dataset as an array of objects. Keys keep column order,
// numeric cells are numbers and nulls are null.
func ToJSON(ds models.Dataset, path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %w", err)
	}
	defer func() { _ = file.Close() }()

	names, cols := columns(ds)
	keys := make([][]byte, len(names))
	for j, name := range names {
		if keys[j], err = json.Marshal(name); err != nil {
			return fmt.Errorf("failed to marshal column name: %w", err)
		}
	}

	w := bufio.NewWriter(file)
	_, _ = w.WriteString("[")
	for i := 0; i < ds.NumRows(); i++ {
		if i > 0 {
			_, _ = w.WriteString(",")
		}
		_, _ = w.WriteString("\n  {")
		for j, c := range cols {
			if j > 0 {
				_, _ = w.WriteString(", ")
			}
			_, _ = w.Write(keys[j])
			_, _ = w.WriteString(": ")
			v, err := cellJSON(c, i)
			if err != nil {
				return fmt.Errorf("failed to marshal row %d: %w", i+1, err)
			}
			_, _ = w.Write(v)
		}
		_, _ = w.WriteString("}")
	}
	if ds.NumRows() > 0 {
		_, _ = w.WriteString("\n")
	}
	_, _ = w.WriteString("]\n")

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	return file.Close()
}

func cellJSON(c models.Column, row int) ([]byte, error) {
	if c.IsNull(row) {
		return []byte("null"), nil
	}
	text := c.Text(row)
	if c.Kind() == models.KindNumeric {
		// The cell text is the exact decimal form, so large integers keep
		// every digit. NaN and infinities are not JSON numbers and fall
		// through to strings.
		if b, err := json.Marshal(json.Number(text)); err == nil {
			return b, nil
		}
	}
	return json.Marshal(text)
}

// ToXLSX exports a dataset to a single-sheet workbook. With AutoFormat the
// header row is bold on a filled background and each column is sized to
// its longest value plus two, capped at MaxColumnWidth.
func ToXLSX(ds models.Dataset, path string, opts XLSXOptions) error {
	if opts.SheetName == "" {
		opts.SheetName = DefaultXLSXOptions().SheetName
	}
	if opts.MaxColumnWidth <= 0 {
		opts.MaxColumnWidth = DefaultXLSXOptions().MaxColumnWidth
	}
	if err := ensureDir(path); err != nil {
		return err
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet(opts.SheetName)
	if err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}

	names, cols := columns(ds)
	widths := make([]int, len(names))

	header := sheet.AddRow()
	style := headerStyle()
	for j, name := range names {
		cell := header.AddCell()
		cell.SetString(name)
		if opts.AutoFormat {
			cell.SetStyle(style)
		}
		widths[j] = runewidth.StringWidth(name)
	}

	for i := 0; i < ds.NumRows(); i++ {
		row := sheet.AddRow()
		for j, c := range cols {
			cell := row.AddCell()
			if c.IsNull(i) {
				continue
			}
			text := c.Text(i)
			if c.Kind() == models.KindNumeric {
				if n, err := strconv.ParseInt(text, 10, 64); err == nil {
					cell.SetInt64(n)
				} else if f, ok := c.Number(i); ok {
					cell.SetFloat(f)
				} else {
					cell.SetString(text)
				}
			} else {
				cell.SetString(text)
			}
			if w := runewidth.StringWidth(text); w > widths[j] {
				widths[j] = w
			}
		}
	}

	if opts.AutoFormat {
		for j, w := range widths {
			if err := sheet.SetColWidth(j, j, float64(ColumnWidth(w, opts.MaxColumnWidth))); err != nil {
				return fmt.Errorf("failed to set column width: %w", err)
			}
		}
	}

	if err := file.Save(path); err != nil {
		return fmt.Errorf("failed to write XLSX file: %w", err)
	}
	return os.Chmod(path, 0644)
}

// ColumnWidth is the longest value plus two, capped at max
func ColumnWidth(longest, max int) int {
	w := longest + 2
	if w > max {
		return max
	}
	return w
}

func headerStyle() *xlsx.Style {
	style := xlsx.NewStyle()
	style.Font = *xlsx.NewFont(11, "Calibri")
	style.Font.Bold = true
	style.Font.Color = "FFFFFFFF"
	style.Fill = *xlsx.NewFill("solid", "FF366092", "FF366092")
	style.Alignment = xlsx.Alignment{Horizontal: "center", Vertical: "center"}
	style.ApplyFont = true
	style.ApplyFill = true
	style.ApplyAlignment = true
	return style
}
