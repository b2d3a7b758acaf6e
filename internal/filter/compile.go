package filter

import (
	"fmt"
	"strings"

	"github.com/rebeliceyang/lazysheet/internal/models"
	"github.com/rebeliceyang/lazysheet/internal/sanitize"
	"github.com/rebeliceyang/lazysheet/internal/table"
)

// predicate reports whether a row satisfies one rule
type predicate func(row int) bool

// compile turns a rule into a predicate over col. The operator is dispatched
// once here, not per row. Null cells never match.
func compile(rule models.FilterRule, col models.Column, class ColumnClass) (predicate, error) {
	if rule.Operator.IsNumeric() {
		if class != ClassNumeric {
			return nil, fmt.Errorf("%w: %s on textual column %q", ErrOperatorMismatch, rule.Operator, rule.Column)
		}
		return compileNumeric(rule, col)
	}
	return compileText(rule, col)
}

func compileText(rule models.FilterRule, col models.Column) (predicate, error) {
	needle := strings.ToLower(sanitize.Text(rule.Value))
	cell := func(row int) (string, bool) {
		if col.IsNull(row) {
			return "", false
		}
		return strings.ToLower(col.Text(row)), true
	}

	var match func(string) bool
	negate := false
	switch rule.Operator {
	case models.OpEquals:
		match = func(s string) bool { return s == needle }
	case models.OpNotEquals:
		match, negate = func(s string) bool { return s == needle }, true
	case models.OpContains:
		match = func(s string) bool { return strings.Contains(s, needle) }
	case models.OpNotContains:
		match, negate = func(s string) bool { return strings.Contains(s, needle) }, true
	case models.OpStartsWith:
		match = func(s string) bool { return strings.HasPrefix(s, needle) }
	case models.OpEndsWith:
		match = func(s string) bool { return strings.HasSuffix(s, needle) }
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperator, rule.Operator)
	}

	return func(row int) bool {
		s, ok := cell(row)
		if !ok {
			return false
		}
		return match(s) != negate
	}, nil
}

func compileNumeric(rule models.FilterRule, col models.Column) (predicate, error) {
	if rule.Operator == models.OpBetween {
		lo, hi, err := parseRange(rule.Value)
		if err != nil {
			return nil, err
		}
		// A reversed pair is kept as entered and matches nothing.
		return func(row int) bool {
			x, ok := col.Number(row)
			return ok && lo <= x && x <= hi
		}, nil
	}

	bound, err := parseBound(rule.Value)
	if err != nil {
		return nil, err
	}

	var cmp func(x float64) bool
	switch rule.Operator {
	case models.OpGreaterThan:
		cmp = func(x float64) bool { return x > bound }
	case models.OpLessThan:
		cmp = func(x float64) bool { return x < bound }
	case models.OpGreaterOrEqual:
		cmp = func(x float64) bool { return x >= bound }
	case models.OpLessOrEqual:
		cmp = func(x float64) bool { return x <= bound }
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperator, rule.Operator)
	}

	return func(row int) bool {
		x, ok := col.Number(row)
		return ok && cmp(x)
	}, nil
}

func parseBound(value string) (float64, error) {
	v, ok := table.ParseNumber(value)
	if !ok {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, value)
	}
	return v, nil
}

// parseRange reads "min,max", splitting on the first comma
func parseRange(value string) (float64, float64, error) {
	first, second, found := strings.Cut(value, ",")
	if !found {
		return 0, 0, fmt.Errorf("%w: between needs two numbers separated by a comma, got %q", ErrInvalidValue, value)
	}
	lo, ok := table.ParseNumber(first)
	if !ok {
		return 0, 0, fmt.Errorf("%w: between lower bound %q is not a number", ErrInvalidValue, first)
	}
	hi, ok := table.ParseNumber(second)
	if !ok {
		return 0, 0, fmt.Errorf("%w: between upper bound %q is not a number", ErrInvalidValue, second)
	}
	return lo, hi, nil
}
