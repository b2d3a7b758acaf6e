// Package table holds a loaded sheet as an Arrow record batch and exposes it
// through models.Dataset.
package table

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/compute"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/bits-and-blooms/bitset"

	"github.com/rebeliceyang/lazysheet/internal/models"
)

// Table is an immutable columnar table
type Table struct {
	rec     arrow.RecordBatch
	names   []string
	columns []*column
	index   map[string]int
}

// FromRecord wraps rec. Column names must be unique. The table takes its own
// reference, so the caller may release rec afterwards.
func FromRecord(rec arrow.RecordBatch) (*Table, error) {
	schema := rec.Schema()
	t := &Table{
		rec:     rec,
		names:   make([]string, schema.NumFields()),
		columns: make([]*column, schema.NumFields()),
		index:   make(map[string]int, schema.NumFields()),
	}
	for i, f := range schema.Fields() {
		if _, dup := t.index[f.Name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", f.Name)
		}
		t.names[i] = f.Name
		t.index[f.Name] = i
		t.columns[i] = newColumn(f.Name, rec.Column(i))
	}
	rec.Retain()
	return t, nil
}

// Record returns the underlying record batch
func (t *Table) Record() arrow.RecordBatch {
	return t.rec
}

// Columns returns the column names in sheet order
func (t *Table) Columns() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Column looks up a column by name
func (t *Table) Column(name string) (models.Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// ColumnKind returns the native kind of a column, KindOther when missing
func (t *Table) ColumnKind(name string) models.ColumnKind {
	if i, ok := t.index[name]; ok {
		return t.columns[i].kind
	}
	return models.KindOther
}

// NumRows returns the row count
func (t *Table) NumRows() int {
	return int(t.rec.NumRows())
}

// NumCols returns the column count
func (t *Table) NumCols() int {
	return len(t.names)
}

// Row returns the display text of row i
func (t *Table) Row(i int) []string {
	row := make([]string, len(t.columns))
	for j, c := range t.columns {
		row[j] = c.Text(i)
	}
	return row
}

// Rows returns up to limit rows starting at offset
func (t *Table) Rows(offset, limit int) [][]string {
	return Rows(t, offset, limit)
}

// Select returns a new table with the rows whose bit is set in mask. Row
// order is preserved.
func (t *Table) Select(mask *bitset.BitSet) (models.Dataset, error) {
	if mask == nil {
		return nil, fmt.Errorf("nil selection mask")
	}
	n := t.NumRows()

	mb := array.NewBooleanBuilder(memory.DefaultAllocator)
	defer mb.Release()
	mb.Reserve(n)
	kept := 0
	for i := 0; i < n; i++ {
		keep := mask.Test(uint(i))
		if keep {
			kept++
		}
		mb.Append(keep)
	}
	filter := mb.NewBooleanArray()
	defer filter.Release()

	if kept == n {
		return derive(t.rec)
	}

	out, err := compute.FilterRecordBatch(context.Background(), t.rec, filter, compute.DefaultFilterOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to filter rows: %w", err)
	}
	defer out.Release()

	return derive(out)
}

func derive(rec arrow.RecordBatch) (models.Dataset, error) {
	t, err := FromRecord(rec)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Retain adds a reference; each Retain needs a matching Release
func (t *Table) Retain() {
	if t != nil && t.rec != nil {
		t.rec.Retain()
	}
}

// Release drops the table's reference to its record batch
func (t *Table) Release() {
	if t != nil && t.rec != nil {
		t.rec.Release()
	}
}

// Release releases ds when it holds Arrow memory. nil is allowed.
func Release(ds models.Dataset) {
	if r, ok := ds.(interface{ Release() }); ok {
		r.Release()
	}
}

// Rows copies a page of display text out of any dataset
func Rows(ds models.Dataset, offset, limit int) [][]string {
	total := ds.NumRows()
	if offset < 0 {
		offset = 0
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	if offset >= end {
		return [][]string{}
	}

	names := ds.Columns()
	cols := make([]models.Column, len(names))
	for j, name := range names {
		cols[j], _ = ds.Column(name)
	}

	rows := make([][]string, 0, end-offset)
	for i := offset; i < end; i++ {
		row := make([]string, len(cols))
		for j, c := range cols {
			row[j] = c.Text(i)
		}
		rows = append(rows, row)
	}
	return rows
}
