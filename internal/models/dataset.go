package models

import "github.com/bits-and-blooms/bitset"

// ColumnKind is the native storage type tag of a column
type ColumnKind int

const (
	KindOther ColumnKind = iota
	KindNumeric
	KindText
)

func (k ColumnKind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindText:
		return "text"
	default:
		return "other"
	}
}

// Column gives per-row access to one column of a Dataset
type Column interface {
	Name() string
	Kind() ColumnKind
	Len() int
	IsNull(row int) bool
	// Text returns the sanitized cell text, "" for nulls
	Text(row int) string
	// Number returns the cell as a float; false for nulls and non-numbers
	Number(row int) (float64, bool)
}

// Dataset is an in-memory table with named, typed columns
type Dataset interface {
	Columns() []string
	Column(name string) (Column, bool)
	NumRows() int
	// Select returns a new dataset holding the rows whose bit is set, in order
	Select(mask *bitset.BitSet) (Dataset, error)
}
