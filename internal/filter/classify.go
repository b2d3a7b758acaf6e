package filter

import (
	"regexp"

	"github.com/rebeliceyang/lazysheet/internal/models"
)

const (
	// DefaultSampleSize is how many non-empty cells of a text column are examined
	DefaultSampleSize = 200
	// DefaultNumericThreshold is the share of sampled cells that must look
	// numeric for a text column to be treated as numeric
	DefaultNumericThreshold = 0.80
)

// numericLiteral is a plain signed or unsigned integer or decimal: no
// thousands separators, exponents or currency symbols.
var numericLiteral = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// ColumnClass decides which operators a column is offered
type ColumnClass int

const (
	ClassTextual ColumnClass = iota
	ClassNumeric
)

func (c ColumnClass) String() string {
	if c == ClassNumeric {
		return "numeric"
	}
	return "textual"
}

// Classifier implements the numeric-vs-text heuristic
type Classifier struct {
	SampleSize int
	Threshold  float64
}

// DefaultClassifier uses the stock sample size and threshold
var DefaultClassifier = Classifier{
	SampleSize: DefaultSampleSize,
	Threshold:  DefaultNumericThreshold,
}

// Classify reports whether col should be treated as numeric. Native integer
// and float columns are numeric; text columns are numeric when enough of the
// first SampleSize non-empty values are numeric literals.
func (c Classifier) Classify(col models.Column) ColumnClass {
	switch col.Kind() {
	case models.KindNumeric:
		return ClassNumeric
	case models.KindOther:
		return ClassTextual
	}

	limit := c.SampleSize
	if limit <= 0 {
		limit = DefaultSampleSize
	}

	sampled, matched := 0, 0
	for i := 0; i < col.Len() && sampled < limit; i++ {
		if col.IsNull(i) {
			continue
		}
		v := col.Text(i)
		if v == "" {
			continue
		}
		sampled++
		if numericLiteral.MatchString(v) {
			matched++
		}
	}
	if sampled == 0 {
		return ClassTextual
	}
	threshold := c.Threshold
	if threshold <= 0 {
		threshold = DefaultNumericThreshold
	}
	if float64(matched)/float64(sampled) >= threshold {
		return ClassNumeric
	}
	return ClassTextual
}

// OperatorsFor returns the operators offered for a column class
func OperatorsFor(class ColumnClass) []models.FilterOperator {
	ops := make([]models.FilterOperator, 0, len(models.TextOperators)+len(models.NumericOperators))
	ops = append(ops, models.TextOperators...)
	if class == ClassNumeric {
		ops = append(ops, models.NumericOperators...)
	}
	return ops
}
