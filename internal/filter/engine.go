// Package filter evaluates column-level filter rules against a dataset.
//
// An Engine owns the active rules and the AND/OR combinator. Apply compiles
// each rule into a predicate once, walks the rows in a single pass and
// returns a new dataset with the matching rows in their original order.
// Rules whose value cannot be used (a bad number, a malformed between pair,
// a numeric operator on a textual column) are skipped and reported; they
// never abort the evaluation.
//
// The engine is synchronous and holds no locks. Callers running it from a
// background worker must serialize access to one engine.
package filter

import (
	"fmt"
	"time"

	"github.com/bits-and-blooms/bitset"
	"go.uber.org/zap"

	"github.com/rebeliceyang/lazysheet/internal/models"
)

// Engine holds a dataset, the active rules and the combinator
type Engine struct {
	dataset    models.Dataset
	rules      []models.FilterRule
	combinator models.Combinator
	classifier Classifier
	classes    map[string]ColumnClass
	stats      models.FilterStatistics
	logger     *zap.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the logger used for skipped rules and apply summaries
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClassifier overrides the numeric classification parameters
func WithClassifier(c Classifier) Option {
	return func(e *Engine) {
		e.classifier = c
	}
}

// WithCombinator sets the initial combinator
func WithCombinator(c models.Combinator) Option {
	return func(e *Engine) {
		e.combinator = c
	}
}

// Result is the outcome of Apply
type Result struct {
	Dataset    models.Dataset
	Statistics models.FilterStatistics
	Skipped    []SkippedRule
	Duration   time.Duration
}

// NewEngine creates an engine over ds. ds may be nil until SetDataset.
func NewEngine(ds models.Dataset, opts ...Option) *Engine {
	e := &Engine{
		dataset:    ds,
		combinator: models.CombineAnd,
		classifier: DefaultClassifier,
		classes:    make(map[string]ColumnClass),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if ds != nil {
		e.stats = models.NewFilterStatistics(ds.NumRows(), ds.NumRows())
	}
	return e
}

// Dataset returns the source dataset
func (e *Engine) Dataset() models.Dataset {
	return e.dataset
}

// SetDataset replaces the dataset and drops the rules whose column no longer
// exists. The dropped rules are returned so the caller can report them.
func (e *Engine) SetDataset(ds models.Dataset) []models.FilterRule {
	e.dataset = ds
	e.classes = make(map[string]ColumnClass)
	e.stats = models.FilterStatistics{}
	if ds != nil {
		e.stats = models.NewFilterStatistics(ds.NumRows(), ds.NumRows())
	}

	var kept, dropped []models.FilterRule
	for _, r := range e.rules {
		if ds != nil {
			if _, ok := ds.Column(r.Column); ok {
				kept = append(kept, r)
				continue
			}
		}
		dropped = append(dropped, r)
		e.logger.Warn("Dropped filter rule for missing column",
			zap.String("column", r.Column),
			zap.String("operator", string(r.Operator)))
	}
	e.rules = kept
	return dropped
}

// AddRule validates rule against the dataset's columns and appends it
func (e *Engine) AddRule(rule models.FilterRule) error {
	if e.dataset == nil {
		return &ValidationError{Rule: rule, Err: ErrNoDataset}
	}
	if !rule.Operator.Valid() {
		return &ValidationError{Rule: rule, Err: ErrUnknownOperator}
	}
	if _, ok := e.dataset.Column(rule.Column); !ok {
		return &ValidationError{Rule: rule, Err: ErrColumnNotFound}
	}
	e.rules = append(e.rules, rule)
	e.logger.Debug("Added filter rule",
		zap.String("column", rule.Column),
		zap.String("operator", string(rule.Operator)),
		zap.String("value", rule.Value))
	return nil
}

// RemoveRule removes the rule at index
func (e *Engine) RemoveRule(index int) error {
	if index < 0 || index >= len(e.rules) {
		return fmt.Errorf("%w: %d (have %d rules)", ErrRuleIndexOutOfRange, index, len(e.rules))
	}
	e.rules = append(e.rules[:index], e.rules[index+1:]...)
	return nil
}

// ClearRules removes every rule
func (e *Engine) ClearRules() {
	e.rules = nil
}

// Rules returns a copy of the active rules in display order
func (e *Engine) Rules() []models.FilterRule {
	out := make([]models.FilterRule, len(e.rules))
	copy(out, e.rules)
	return out
}

// SetCombinator sets AND or OR for the next Apply
func (e *Engine) SetCombinator(c models.Combinator) {
	e.combinator = c
}

// Combinator returns the current combinator
func (e *Engine) Combinator() models.Combinator {
	return e.combinator
}

// LastStatistics returns the statistics of the most recent Apply
func (e *Engine) LastStatistics() models.FilterStatistics {
	return e.stats
}

// ClassifyColumn reports whether a column is numeric or textual. The result
// is cached until the dataset changes.
func (e *Engine) ClassifyColumn(name string) (ColumnClass, error) {
	if e.dataset == nil {
		return ClassTextual, ErrNoDataset
	}
	if class, ok := e.classes[name]; ok {
		return class, nil
	}
	col, ok := e.dataset.Column(name)
	if !ok {
		return ClassTextual, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	class := e.classifier.Classify(col)
	e.classes[name] = class
	return class, nil
}

// Apply evaluates the active rules and returns the matching rows
func (e *Engine) Apply() (*Result, error) {
	if e.dataset == nil {
		return nil, ErrNoDataset
	}
	start := time.Now()
	n := e.dataset.NumRows()

	preds, skipped := e.compileRules()

	mask := bitset.New(uint(n))
	switch {
	case len(preds) == 0:
		// No effective predicate under either combinator: keep every row.
		for i := 0; i < n; i++ {
			mask.Set(uint(i))
		}
	case e.combinator == models.CombineOr:
		for i := 0; i < n; i++ {
			for _, p := range preds {
				if p(i) {
					mask.Set(uint(i))
					break
				}
			}
		}
	default:
		for i := 0; i < n; i++ {
			keep := true
			for _, p := range preds {
				if !p(i) {
					keep = false
					break
				}
			}
			if keep {
				mask.Set(uint(i))
			}
		}
	}

	out, err := e.dataset.Select(mask)
	if err != nil {
		return nil, fmt.Errorf("failed to select filtered rows: %w", err)
	}

	stats := models.NewFilterStatistics(n, out.NumRows())
	stats.RuleCount = len(e.rules)
	stats.SkippedCount = len(skipped)
	e.stats = stats

	res := &Result{
		Dataset:    out,
		Statistics: stats,
		Skipped:    skipped,
		Duration:   time.Since(start),
	}
	e.logger.Info("Applied filters",
		zap.Int("rules", stats.RuleCount),
		zap.Int("skipped", stats.SkippedCount),
		zap.String("logic", string(e.combinator)),
		zap.Int("original_rows", stats.OriginalCount),
		zap.Int("filtered_rows", stats.FilteredCount),
		zap.Float64("reduction_percent", stats.ReductionPercent),
		zap.Duration("duration", res.Duration))
	return res, nil
}

// compileRules builds one predicate per usable rule
func (e *Engine) compileRules() ([]predicate, []SkippedRule) {
	preds := make([]predicate, 0, len(e.rules))
	var skipped []SkippedRule

	skip := func(r models.FilterRule, reason error) {
		skipped = append(skipped, SkippedRule{Rule: r, Reason: reason})
		e.logger.Warn("Skipped filter rule",
			zap.String("column", r.Column),
			zap.String("operator", string(r.Operator)),
			zap.String("value", r.Value),
			zap.Error(reason))
	}

	for _, r := range e.rules {
		col, ok := e.dataset.Column(r.Column)
		if !ok {
			skip(r, fmt.Errorf("%w: %q", ErrColumnNotFound, r.Column))
			continue
		}
		class, err := e.ClassifyColumn(r.Column)
		if err != nil {
			skip(r, err)
			continue
		}
		p, err := compile(r, col, class)
		if err != nil {
			skip(r, err)
			continue
		}
		preds = append(preds, p)
	}
	return preds, skipped
}
