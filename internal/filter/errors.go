package filter

import (
	"errors"
	"fmt"

	"github.com/rebeliceyang/lazysheet/internal/models"
)

var (
	// ErrNoDataset is returned when the engine has no dataset to work on
	ErrNoDataset = errors.New("no dataset loaded")
	// ErrColumnNotFound means a rule names a column the dataset does not have
	ErrColumnNotFound = errors.New("column not found")
	// ErrUnknownOperator means a rule carries an operator outside the fixed set
	ErrUnknownOperator = errors.New("unknown operator")
	// ErrRuleIndexOutOfRange is returned by RemoveRule
	ErrRuleIndexOutOfRange = errors.New("rule index out of range")
	// ErrInvalidValue means the rule value cannot be used with its operator
	ErrInvalidValue = errors.New("invalid filter value")
	// ErrOperatorMismatch means a numeric operator was used on a textual column
	ErrOperatorMismatch = errors.New("operator not supported for column")
)

// ValidationError rejects a rule at the time it is added
type ValidationError struct {
	Rule models.FilterRule
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid rule %s: %v", e.Rule, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// SkippedRule records a rule left out of an evaluation and why
type SkippedRule struct {
	Rule   models.FilterRule
	Reason error
}

func (s SkippedRule) String() string {
	return fmt.Sprintf("%s: %v", s.Rule, s.Reason)
}
