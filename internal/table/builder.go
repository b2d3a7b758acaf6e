package table

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/rebeliceyang/lazysheet/internal/sanitize"
)

// Builder collects sanitized string cells row by row and infers a storage
// type per column when the table is built.
type Builder struct {
	mem   memory.Allocator
	names []string
	cells [][]string
	valid [][]bool
	rows  int
}

// NewBuilder creates a builder for the given header. Blank names become
// Column_N and duplicates get a numeric suffix.
func NewBuilder(header []string) *Builder {
	names := UniqueNames(header)
	return &Builder{
		mem:   memory.NewGoAllocator(),
		names: names,
		cells: make([][]string, len(names)),
		valid: make([][]bool, len(names)),
	}
}

// Columns returns the resolved column names
func (b *Builder) Columns() []string {
	return b.names
}

// NumRows returns the number of appended rows
func (b *Builder) NumRows() int {
	return b.rows
}

// AppendRow adds one row. Short rows are padded with nulls, extra cells are
// dropped. Cells are sanitized; an empty result is stored as null.
func (b *Builder) AppendRow(cells []string) {
	for j := range b.names {
		var v string
		if j < len(cells) {
			v = sanitize.Text(cells[j])
		}
		b.cells[j] = append(b.cells[j], v)
		b.valid[j] = append(b.valid[j], v != "")
	}
	b.rows++
}

// Build infers column types and assembles the record batch
func (b *Builder) Build() (*Table, error) {
	fields := make([]arrow.Field, len(b.names))
	for j, name := range b.names {
		fields[j] = arrow.Field{Name: name, Type: inferType(b.cells[j], b.valid[j]), Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	rb := array.NewRecordBuilder(b.mem, schema)
	defer rb.Release()

	for j := range b.names {
		cells, valid := b.cells[j], b.valid[j]
		switch fb := rb.Field(j).(type) {
		case *array.Int64Builder:
			fb.Reserve(len(cells))
			for i, s := range cells {
				if !valid[i] {
					fb.AppendNull()
					continue
				}
				n, err := strconv.ParseInt(s, 10, 64)
				if err != nil {
					return nil, fmt.Errorf("column %q row %d: %w", b.names[j], i+1, err)
				}
				fb.Append(n)
			}
		case *array.Float64Builder:
			fb.Reserve(len(cells))
			for i, s := range cells {
				if !valid[i] {
					fb.AppendNull()
					continue
				}
				f, err := strconv.ParseFloat(s, 64)
				if err != nil {
					return nil, fmt.Errorf("column %q row %d: %w", b.names[j], i+1, err)
				}
				fb.Append(f)
			}
		case *array.StringBuilder:
			fb.Reserve(len(cells))
			for i, s := range cells {
				if !valid[i] {
					fb.AppendNull()
					continue
				}
				fb.Append(s)
			}
		default:
			return nil, fmt.Errorf("column %q: unexpected builder %T", b.names[j], fb)
		}
	}

	rec := rb.NewRecordBatch()
	defer rec.Release()
	return FromRecord(rec)
}

// inferType picks Int64 when every non-null cell is a base-10 integer,
// Float64 when every one is a decimal, String otherwise. A cell only counts
// as a number when formatting the parsed value gives back the same text, so
// "007", "1.50", "+5", "1e3" and integers beyond int64 keep the column
// textual and the text the sheet showed is what filters and exports see.
// An all-null column is String.
func inferType(cells []string, valid []bool) arrow.DataType {
	seen, allInt, allFloat := false, true, true
	for i, s := range cells {
		if !valid[i] {
			continue
		}
		seen = true
		if allInt && !intRoundTrips(s) {
			allInt = false
		}
		if allFloat && !floatRoundTrips(s) {
			allFloat = false
		}
		if !allInt && !allFloat {
			return arrow.BinaryTypes.String
		}
	}
	switch {
	case !seen:
		return arrow.BinaryTypes.String
	case allInt:
		return arrow.PrimitiveTypes.Int64
	case allFloat:
		return arrow.PrimitiveTypes.Float64
	default:
		return arrow.BinaryTypes.String
	}
}

func intRoundTrips(s string) bool {
	n, err := strconv.ParseInt(s, 10, 64)
	return err == nil && strconv.FormatInt(n, 10) == s
}

// floatRoundTrips also rejects long integers a float64 cannot hold exactly
func floatRoundTrips(s string) bool {
	f, err := strconv.ParseFloat(s, 64)
	return err == nil && strconv.FormatFloat(f, 'f', -1, 64) == s
}

// UniqueNames fills blank header cells and de-duplicates names
func UniqueNames(header []string) []string {
	names := make([]string, len(header))
	used := make(map[string]bool, len(header))
	for i, h := range header {
		name := sanitize.Text(h)
		if name == "" {
			name = fmt.Sprintf("Column_%d", i+1)
		}
		candidate := name
		for n := 2; used[candidate]; n++ {
			candidate = fmt.Sprintf("%s_%d", name, n)
		}
		used[candidate] = true
		names[i] = candidate
	}
	return names
}
