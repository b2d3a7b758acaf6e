package table

import (
	"math"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/rebeliceyang/lazysheet/internal/models"
)

type stringValuer interface {
	Value(i int) string
}

// column adapts one Arrow array to models.Column
type column struct {
	name string
	kind models.ColumnKind
	arr  arrow.Array
}

func newColumn(name string, arr arrow.Array) *column {
	return &column{name: name, kind: kindOf(arr.DataType()), arr: arr}
}

func kindOf(dt arrow.DataType) models.ColumnKind {
	id := dt.ID()
	switch {
	case arrow.IsInteger(id), arrow.IsFloating(id):
		return models.KindNumeric
	case id == arrow.STRING, id == arrow.LARGE_STRING:
		return models.KindText
	default:
		return models.KindOther
	}
}

func (c *column) Name() string            { return c.name }
func (c *column) Kind() models.ColumnKind { return c.kind }
func (c *column) Len() int                { return c.arr.Len() }

func (c *column) IsNull(row int) bool {
	return c.arr.IsNull(row)
}

func (c *column) Text(row int) string {
	if c.arr.IsNull(row) {
		return ""
	}
	switch a := c.arr.(type) {
	case *array.Int64:
		return strconv.FormatInt(a.Value(row), 10)
	case *array.Int32:
		return strconv.FormatInt(int64(a.Value(row)), 10)
	case *array.Float64:
		return strconv.FormatFloat(a.Value(row), 'f', -1, 64)
	case *array.Float32:
		return strconv.FormatFloat(float64(a.Value(row)), 'f', -1, 32)
	case stringValuer:
		return a.Value(row)
	default:
		return c.arr.ValueStr(row)
	}
}

func (c *column) Number(row int) (float64, bool) {
	if c.arr.IsNull(row) {
		return 0, false
	}
	switch a := c.arr.(type) {
	case *array.Int8:
		return float64(a.Value(row)), true
	case *array.Int16:
		return float64(a.Value(row)), true
	case *array.Int32:
		return float64(a.Value(row)), true
	case *array.Int64:
		return float64(a.Value(row)), true
	case *array.Uint8:
		return float64(a.Value(row)), true
	case *array.Uint16:
		return float64(a.Value(row)), true
	case *array.Uint32:
		return float64(a.Value(row)), true
	case *array.Uint64:
		return float64(a.Value(row)), true
	case *array.Float32:
		return float64(a.Value(row)), true
	case *array.Float64:
		return a.Value(row), true
	case stringValuer:
		return ParseNumber(a.Value(row))
	}
	return 0, false
}

// ParseNumber parses s as a base-10 number. Hex, octal and binary
// literals, NaN and infinities are rejected.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if digits := strings.TrimLeft(s, "+-"); len(digits) > 1 && digits[0] == '0' &&
		strings.ContainsRune("xXoObB", rune(digits[1])) {
		return 0, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
