package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rebeliceyang/lazysheet/internal/models"
)

func newPresetsCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "Manage saved filter presets",
	}

	var query string
	var top int
	list := &cobra.Command{
		Use:   "list",
		Short: "List presets, optionally matching a search",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pm := o.sess.Presets()
			if pm == nil {
				return withCode(ExitRuntimeError, errors.New("presets are not available"))
			}
			var items []models.Preset
			if top > 0 {
				items = pm.MostUsed(top)
			} else {
				items = pm.Search(query)
			}
			w := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(w, "No presets")
				return nil
			}
			for _, p := range items {
				fmt.Fprintf(w, "%s (%s, used %d times)\n", p.Name, p.Combinator, p.UsageCount)
				if p.Description != "" {
					fmt.Fprintf(w, "  %s\n", p.Description)
				}
				fmt.Fprint(w, describeRules(p.Rules))
			}
			return nil
		},
	}
	list.Flags().StringVar(&query, "search", "", "Match name, description, tags or rule columns")
	list.Flags().IntVar(&top, "top", 0, "Show the N most used presets")

	var description, logic string
	var rules, tags []string
	save := &cobra.Command{
		Use:   "save <name>",
		Short: "Save a preset from --rule flags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pm := o.sess.Presets()
			f := &filterFlags{rules: rules, logic: logic}
			parsed, combinator, err := collectRules(pm, f)
			if err != nil {
				return withCode(ExitValidationError, err)
			}
			if combinator == "" {
				combinator = o.sess.DefaultCombinator()
			}
			p, err := pm.Add(args[0], description, parsed, combinator, tags)
			if err != nil {
				return withCode(ExitValidationError, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved preset %q (%s)\n", p.Name, p.ID)
			return nil
		},
	}
	save.Flags().StringArrayVarP(&rules, "rule", "r", nil, `Filter rule "COLUMN OPERATOR VALUE" (repeatable)`)
	save.Flags().StringVarP(&logic, "logic", "l", "", "Combine rules with and|or")
	save.Flags().StringVarP(&description, "description", "d", "", "Description")
	save.Flags().StringSliceVar(&tags, "tag", nil, "Tags (repeatable or comma separated)")

	remove := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pm := o.sess.Presets()
			p, err := pm.GetByName(args[0])
			if err != nil {
				return withCode(ExitValidationError, err)
			}
			if err := pm.Delete(p.ID); err != nil {
				return withCode(ExitRuntimeError, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted preset %q\n", p.Name)
			return nil
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export <file.csv|file.json>",
		Short: "Export every preset to CSV or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pm := o.sess.Presets()
			var (
				path string
				err  error
			)
			switch strings.ToLower(filepath.Ext(args[0])) {
			case ".csv":
				path, err = pm.ExportToCSV(args[0])
			case ".json":
				path, err = pm.ExportToJSON(args[0])
			default:
				return withCode(ExitValidationError, fmt.Errorf("unsupported preset export format %q", filepath.Ext(args[0])))
			}
			if err != nil {
				return withCode(ExitRuntimeError, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported presets to %s\n", path)
			return nil
		},
	}

	cmd.AddCommand(list, save, remove, exportCmd)
	return cmd
}

func newHistoryCmd(o *options) *cobra.Command {
	var limit int
	var runs bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently opened files or filter runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			if runs {
				items, err := o.sess.Runs(limit)
				if err != nil {
					return withCode(ExitRuntimeError, err)
				}
				for _, r := range items {
					fmt.Fprintf(w, "%s  %s [%s]  %d/%d rows  %s\n",
						r.RanAt.Format(time.DateTime), r.Path, r.Sheet,
						r.FilteredRows, r.OriginalRows, r.Expression)
				}
				return nil
			}

			items, err := o.sess.Recent(limit)
			if err != nil {
				return withCode(ExitRuntimeError, err)
			}
			for _, f := range items {
				fmt.Fprintf(w, "%s  %s [%s]\n", f.OpenedAt.Format(time.DateTime), f.Path, f.Sheet)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries")
	cmd.Flags().BoolVar(&runs, "runs", false, "Show filter runs instead of files")
	return cmd
}
