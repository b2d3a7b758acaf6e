package filter

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/rebeliceyang/lazysheet/internal/models"
)

// Describe renders rules joined by the combinator, e.g.
// `City contains "hyd" AND Age > 25`. An empty rule set reads "no filters".
func Describe(rules []models.FilterRule, combinator models.Combinator) string {
	if len(rules) == 0 {
		return "no filters"
	}
	if combinator == "" {
		combinator = models.CombineAnd
	}

	parts := make([]string, 0, len(rules))
	for _, r := range rules {
		parts = append(parts, describeRule(r))
	}
	return strings.Join(parts, " "+string(combinator)+" ")
}

func describeRule(r models.FilterRule) string {
	if r.Operator == models.OpBetween {
		lo, hi, found := strings.Cut(r.Value, ",")
		if found {
			return fmt.Sprintf("%s between %s and %s", r.Column, strings.TrimSpace(lo), strings.TrimSpace(hi))
		}
	}
	if r.Operator.IsNumeric() {
		return fmt.Sprintf("%s %s %s", r.Column, r.Operator.Label(), r.Value)
	}
	return fmt.Sprintf("%s %s %s", r.Column, r.Operator.Label(), strconv.Quote(r.Value))
}

// Describe renders the engine's active rules
func (e *Engine) Describe() string {
	return Describe(e.rules, e.combinator)
}

// ParseRule reads the command-line form "COLUMN OPERATOR VALUE". The column
// may contain spaces; the first token after it that names an operator ends
// it. The value is the rest of the input as typed, so runs of spaces inside
// it survive, and it may be wrapped in double quotes.
func ParseRule(s string) (models.FilterRule, error) {
	spans := tokenSpans(s)
	for i := 1; i < len(spans); i++ {
		op, err := models.ParseOperator(s[spans[i][0]:spans[i][1]])
		if err != nil {
			continue
		}
		value := strings.TrimSpace(s[spans[i][1]:])
		if unq, err := strconv.Unquote(value); err == nil {
			value = unq
		}
		return models.FilterRule{
			Column:   strings.TrimSpace(s[:spans[i][0]]),
			Operator: op,
			Value:    value,
		}, nil
	}
	return models.FilterRule{}, fmt.Errorf("%w in %q: expected COLUMN OPERATOR VALUE", ErrUnknownOperator, s)
}

// tokenSpans returns the [start, end) byte offsets of the whitespace
// separated tokens of s
func tokenSpans(s string) [][2]int {
	var spans [][2]int
	start := -1
	for i, r := range s {
		if unicode.IsSpace(r) {
			if start >= 0 {
				spans = append(spans, [2]int{start, i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		spans = append(spans, [2]int{start, len(s)})
	}
	return spans
}
