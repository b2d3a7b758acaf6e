// Package reader loads spreadsheet files into tables.
package reader

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tealeg/xlsx"

	"github.com/rebeliceyang/lazysheet/internal/table"
)

var (
	// ErrUnsupportedFormat is returned for extensions other than xlsx, csv, tsv and txt
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrSheetNotFound means the requested sheet is not in the workbook
	ErrSheetNotFound = errors.New("sheet not found")
	// ErrEmptySheet means the sheet has no header row
	ErrEmptySheet = errors.New("sheet is empty")
)

// Format identifies how a file is parsed
type Format int

const (
	FormatUnknown Format = iota
	FormatXLSX
	FormatCSV
	FormatTSV
)

// DetectFormat picks a format from the file extension
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	case ".csv":
		return FormatCSV
	case ".tsv", ".txt":
		return FormatTSV
	}
	return FormatUnknown
}

// SheetNames lists the sheets of a workbook. Delimited text files have a
// single sheet named after the file.
func SheetNames(path string) ([]string, error) {
	switch DetectFormat(path) {
	case FormatXLSX:
		f, err := xlsx.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open workbook: %w", err)
		}
		names := make([]string, 0, len(f.Sheets))
		for _, s := range f.Sheets {
			names = append(names, s.Name)
		}
		return names, nil
	case FormatCSV, FormatTSV:
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("failed to open file: %w", err)
		}
		return []string{textSheetName(path)}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
}

// Load reads one sheet into a table. An empty sheet name selects the first
// sheet. The first non-blank row is the header.
func Load(path, sheet string) (*table.Table, error) {
	var (
		rows [][]string
		err  error
	)
	switch DetectFormat(path) {
	case FormatXLSX:
		rows, err = readXLSX(path, sheet)
	case FormatCSV:
		rows, err = readDelimited(path, ',')
	case FormatTSV:
		rows, err = readDelimited(path, '\t')
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	return build(rows)
}

func build(rows [][]string) (*table.Table, error) {
	var b *table.Builder
	for _, row := range rows {
		if blank(row) {
			continue
		}
		if b == nil {
			b = table.NewBuilder(row)
			continue
		}
		b.AppendRow(row)
	}
	if b == nil {
		return nil, ErrEmptySheet
	}
	t, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build table: %w", err)
	}
	return t, nil
}

func readXLSX(path, sheet string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	if len(f.Sheets) == 0 {
		return nil, ErrEmptySheet
	}

	s := f.Sheets[0]
	if sheet != "" {
		var ok bool
		if s, ok = f.Sheet[sheet]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
		}
	}

	rows := make([][]string, 0, len(s.Rows))
	for _, r := range s.Rows {
		if r == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, len(r.Cells))
		for j, c := range r.Cells {
			if c != nil {
				cells[j] = c.String()
			}
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

func readDelimited(path string, comma rune) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	br := bufio.NewReader(f)
	if bom, err := br.Peek(3); err == nil && string(bom) == "\xef\xbb\xbf" {
		_, _ = br.Discard(3)
	}

	r := csv.NewReader(br)
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

func textSheetName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
