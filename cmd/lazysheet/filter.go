package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rebeliceyang/lazysheet/internal/filter"
	"github.com/rebeliceyang/lazysheet/internal/models"
	"github.com/rebeliceyang/lazysheet/internal/presets"
	"github.com/rebeliceyang/lazysheet/internal/table"
)

const pgTimeout = 10 * time.Minute

type filterFlags struct {
	sheet      string
	rules      []string
	logic      string
	out        string
	pgTable    string
	replace    bool
	preset     string
	savePreset string
	quiet      bool
}

func newFilterCmd(o *options) *cobra.Command {
	f := &filterFlags{}
	cmd := &cobra.Command{
		Use:   "filter <file>",
		Short: "Filter a sheet without the interface",
		Long: `Filter one sheet with column rules and write the matching rows.

A rule is "COLUMN OPERATOR VALUE". Operators: equals, not_equals, contains,
not_contains, starts_with, ends_with, and for numeric columns >, <, >=, <=
and between ("Age between 25,40"). Text matching ignores case. Rules that
cannot be used are reported and skipped.

Exit codes:
  0 - Rows written
  1 - Invalid rule, column or flag
  2 - The file or sheet could not be loaded
  3 - Export failed

Examples:
  lazysheet filter people.xlsx --rule "City contains hyd" --rule "Age > 25" --out out.xlsx
  lazysheet filter people.csv --logic or --rule "City equals Kurnool" --rule "City equals Guntur"
  lazysheet filter people.xlsx --preset adults --pg-table public.adults --replace`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilter(cmd.Context(), o, f, args[0], cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&f.sheet, "sheet", "s", "", "Sheet name (default: first sheet)")
	cmd.Flags().StringArrayVarP(&f.rules, "rule", "r", nil, `Filter rule "COLUMN OPERATOR VALUE" (repeatable)`)
	cmd.Flags().StringVarP(&f.logic, "logic", "l", "", "Combine rules with and|or (default from config)")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "Write matching rows to a .xlsx, .csv or .json file")
	cmd.Flags().StringVar(&f.pgTable, "pg-table", "", "Copy matching rows into this PostgreSQL table")
	cmd.Flags().BoolVar(&f.replace, "replace", false, "Drop the PostgreSQL table first")
	cmd.Flags().StringVar(&f.preset, "preset", "", "Start from the rules of a saved preset")
	cmd.Flags().StringVar(&f.savePreset, "save-preset", "", "Save the rules as a preset with this name")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "Only print errors")
	return cmd
}

func runFilter(ctx context.Context, o *options, f *filterFlags, path string, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	rules, combinator, err := collectRules(o.sess.Presets(), f)
	if err != nil {
		return withCode(ExitValidationError, err)
	}
	if f.pgTable != "" && !o.sess.PostgresEnabled() {
		return withCode(ExitValidationError, errors.New("--pg-table needs postgres.dsn or LAZYSHEET_POSTGRES_DSN"))
	}

	sheet := f.sheet
	if sheet == "" {
		names, err := o.sess.SheetNames(path)
		if err != nil {
			return withCode(ExitLoadError, err)
		}
		if len(names) == 0 {
			return withCode(ExitLoadError, fmt.Errorf("%s has no sheets", path))
		}
		sheet = names[0]
	}

	tbl, err := o.sess.Load(path, sheet)
	if err != nil {
		return withCode(ExitLoadError, err)
	}
	defer tbl.Release()

	res, err := o.sess.Filter(path, sheet, tbl, rules, combinator)
	if err != nil {
		return withCode(ExitValidationError, err)
	}
	defer table.Release(res.Dataset)

	if !f.quiet {
		printResult(w, rules, combinator, res)
	}

	if f.savePreset != "" {
		if err := savePreset(o.sess.Presets(), f.savePreset, rules, combinator); err != nil {
			return withCode(ExitValidationError, err)
		}
		if !f.quiet {
			fmt.Fprintf(w, "✓ Saved preset %q\n", f.savePreset)
		}
	}

	if f.out != "" {
		written, err := o.sess.ExportFile(res.Dataset, f.out)
		if err != nil {
			return withCode(ExitRuntimeError, err)
		}
		if !f.quiet {
			fmt.Fprintf(w, "✓ Wrote %d rows to %s\n", res.Dataset.NumRows(), written)
		}
	}

	if f.pgTable != "" {
		ctx, cancel := context.WithTimeout(ctx, pgTimeout)
		defer cancel()
		n, err := o.sess.ExportPostgres(ctx, res.Dataset, f.pgTable, f.replace)
		if err != nil {
			return withCode(ExitRuntimeError, err)
		}
		if !f.quiet {
			fmt.Fprintf(w, "✓ Copied %d rows to %s\n", n, f.pgTable)
		}
	}
	return nil
}

// collectRules merges the preset's rules with the --rule flags. An explicit
// --logic wins over the preset's combinator.
func collectRules(pm *presets.Manager, f *filterFlags) ([]models.FilterRule, models.Combinator, error) {
	var (
		rules      []models.FilterRule
		combinator models.Combinator
	)

	if f.preset != "" {
		if pm == nil {
			return nil, "", errors.New("presets are not available")
		}
		p, err := pm.GetByName(f.preset)
		if err != nil {
			return nil, "", fmt.Errorf("preset %q: %w", f.preset, err)
		}
		rules = append(rules, p.Rules...)
		combinator = p.Combinator
		if err := pm.MarkUsed(p.ID); err != nil {
			return nil, "", err
		}
	}

	for _, s := range f.rules {
		r, err := filter.ParseRule(s)
		if err != nil {
			return nil, "", err
		}
		rules = append(rules, r)
	}

	if f.logic != "" {
		c, err := models.ParseCombinator(f.logic)
		if err != nil {
			return nil, "", err
		}
		combinator = c
	}
	return rules, combinator, nil
}

func savePreset(pm *presets.Manager, name string, rules []models.FilterRule, combinator models.Combinator) error {
	if pm == nil {
		return errors.New("presets are not available")
	}
	if combinator == "" {
		combinator = models.CombineAnd
	}
	if existing, err := pm.GetByName(name); err == nil {
		return pm.Update(existing.ID, existing.Name, existing.Description, rules, combinator, existing.Tags)
	}
	_, err := pm.Add(name, "", rules, combinator, nil)
	return err
}

func printResult(w io.Writer, rules []models.FilterRule, combinator models.Combinator, res *filter.Result) {
	st := res.Statistics
	fmt.Fprintf(w, "Filter:   %s\n", filter.Describe(rules, combinator))
	fmt.Fprintf(w, "Rows:     %d of %d kept, %d removed (%.1f%%)\n",
		st.FilteredCount, st.OriginalCount, st.RemovedCount, st.ReductionPercent)
	fmt.Fprintf(w, "Duration: %s\n", res.Duration.Round(time.Microsecond))
	if len(res.Skipped) > 0 {
		fmt.Fprintf(w, "Skipped %d rule(s):\n", len(res.Skipped))
		for _, s := range res.Skipped {
			fmt.Fprintf(w, "  - %s\n", s)
		}
	}
}

// describeRules renders rules one per line, numbered
func describeRules(rules []models.FilterRule) string {
	var b strings.Builder
	for i, r := range rules {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, filter.Describe([]models.FilterRule{r}, ""))
	}
	return b.String()
}
