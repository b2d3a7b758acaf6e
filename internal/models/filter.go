package models

import (
	"fmt"
	"strings"
)

// FilterOperator represents a filter comparison operator
type FilterOperator string

const (
	OpEquals         FilterOperator = "equals"
	OpNotEquals      FilterOperator = "not_equals"
	OpContains       FilterOperator = "contains"
	OpNotContains    FilterOperator = "not_contains"
	OpStartsWith     FilterOperator = "starts_with"
	OpEndsWith       FilterOperator = "ends_with"
	OpGreaterThan    FilterOperator = "greater_than"
	OpLessThan       FilterOperator = "less_than"
	OpGreaterOrEqual FilterOperator = "greater_or_equal"
	OpLessOrEqual    FilterOperator = "less_or_equal"
	OpBetween        FilterOperator = "between"
)

// TextOperators are offered for every column
var TextOperators = []FilterOperator{
	OpEquals, OpNotEquals,
	OpContains, OpNotContains,
	OpStartsWith, OpEndsWith,
}

// NumericOperators are only offered for numeric columns
var NumericOperators = []FilterOperator{
	OpGreaterThan, OpLessThan,
	OpGreaterOrEqual, OpLessOrEqual,
	OpBetween,
}

// operatorAliases maps the short spellings accepted on the command line
var operatorAliases = map[string]FilterOperator{
	"=":   OpEquals,
	"==":  OpEquals,
	"!=":  OpNotEquals,
	"<>":  OpNotEquals,
	">":   OpGreaterThan,
	"<":   OpLessThan,
	">=":  OpGreaterOrEqual,
	"<=":  OpLessOrEqual,
	"gt":  OpGreaterThan,
	"lt":  OpLessThan,
	"gte": OpGreaterOrEqual,
	"lte": OpLessOrEqual,
	"eq":  OpEquals,
	"ne":  OpNotEquals,
}

// ParseOperator resolves an operator name or alias
func ParseOperator(s string) (FilterOperator, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if op, ok := operatorAliases[key]; ok {
		return op, nil
	}
	op := FilterOperator(strings.ReplaceAll(key, "-", "_"))
	if !op.Valid() {
		return "", fmt.Errorf("unknown operator %q", s)
	}
	return op, nil
}

// Valid reports whether op is one of the known operators
func (op FilterOperator) Valid() bool {
	switch op {
	case OpEquals, OpNotEquals, OpContains, OpNotContains, OpStartsWith, OpEndsWith,
		OpGreaterThan, OpLessThan, OpGreaterOrEqual, OpLessOrEqual, OpBetween:
		return true
	}
	return false
}

// IsNumeric reports whether op compares numbers
func (op FilterOperator) IsNumeric() bool {
	switch op {
	case OpGreaterThan, OpLessThan, OpGreaterOrEqual, OpLessOrEqual, OpBetween:
		return true
	}
	return false
}

// Label returns the text shown in the filter builder
func (op FilterOperator) Label() string {
	switch op {
	case OpEquals:
		return "equals"
	case OpNotEquals:
		return "does not equal"
	case OpContains:
		return "contains"
	case OpNotContains:
		return "does not contain"
	case OpStartsWith:
		return "starts with"
	case OpEndsWith:
		return "ends with"
	case OpGreaterThan:
		return ">"
	case OpLessThan:
		return "<"
	case OpGreaterOrEqual:
		return ">="
	case OpLessOrEqual:
		return "<="
	case OpBetween:
		return "between"
	}
	return string(op)
}

// FilterRule is a single column-level condition. Value is kept as typed by
// the user; numbers are parsed when the rule is evaluated.
type FilterRule struct {
	Column   string         `yaml:"column" json:"column"`
	Operator FilterOperator `yaml:"operator" json:"operator"`
	Value    string         `yaml:"value" json:"value"`
}

func (r FilterRule) String() string {
	return fmt.Sprintf("%s %s %q", r.Column, r.Operator, r.Value)
}

// Combinator decides how the active rules combine
type Combinator string

const (
	CombineAnd Combinator = "AND"
	CombineOr  Combinator = "OR"
)

// ParseCombinator accepts "and"/"or" in any case
func ParseCombinator(s string) (Combinator, error) {
	switch Combinator(strings.ToUpper(strings.TrimSpace(s))) {
	case CombineAnd:
		return CombineAnd, nil
	case CombineOr:
		return CombineOr, nil
	}
	return "", fmt.Errorf("unknown filter logic %q (want AND or OR)", s)
}

// Toggle flips AND to OR and back
func (c Combinator) Toggle() Combinator {
	if c == CombineOr {
		return CombineAnd
	}
	return CombineOr
}

// FilterStatistics describes the outcome of the latest evaluation
type FilterStatistics struct {
	OriginalCount    int     `json:"original_count"`
	FilteredCount    int     `json:"filtered_count"`
	RemovedCount     int     `json:"removed_count"`
	RuleCount        int     `json:"rule_count"`
	SkippedCount     int     `json:"skipped_count"`
	ReductionPercent float64 `json:"reduction_percent"`
}

// NewFilterStatistics derives the removed count and reduction percentage
func NewFilterStatistics(original, filtered int) FilterStatistics {
	stats := FilterStatistics{
		OriginalCount: original,
		FilteredCount: filtered,
		RemovedCount:  original - filtered,
	}
	if original > 0 {
		stats.ReductionPercent = float64(stats.RemovedCount) / float64(original) * 100
	}
	return stats
}
