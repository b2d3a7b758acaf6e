// Package main provides the lazysheet command: an interactive spreadsheet
// filter, plus headless subcommands for scripting.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rebeliceyang/lazysheet/internal/app"
	"github.com/rebeliceyang/lazysheet/internal/config"
	"github.com/rebeliceyang/lazysheet/internal/filter"
	"github.com/rebeliceyang/lazysheet/internal/logger"
	"github.com/rebeliceyang/lazysheet/internal/reader"
	"github.com/rebeliceyang/lazysheet/internal/session"
)

// Exit codes
const (
	ExitSuccess         = 0
	ExitValidationError = 1
	ExitLoadError       = 2
	ExitRuntimeError    = 3
)

// Build information (set via ldflags during build)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// exitError carries the process exit code for an error
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// exitCode maps an error to the process exit code
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	var ve *filter.ValidationError
	switch {
	case errors.As(err, &ve):
		return ExitValidationError
	case errors.Is(err, reader.ErrUnsupportedFormat),
		errors.Is(err, reader.ErrSheetNotFound),
		errors.Is(err, reader.ErrEmptySheet):
		return ExitLoadError
	}
	return ExitRuntimeError
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the command line and returns the exit code
func execute(args []string, stdout, stderr io.Writer) int {
	root, opts := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	opts.teardown()
	if err != nil {
		fmt.Fprintf(stderr, "✗ %v\n", err)
	}
	return exitCode(err)
}

// options are the global flags
type options struct {
	configFile string
	verbose    bool

	cfg  *config.Config
	log  *zap.Logger
	sess *session.Session
}

func newRootCmd() (*cobra.Command, *options) {
	opts := &options{}

	root := &cobra.Command{
		Use:   "lazysheet [file]",
		Short: "lazysheet - filter spreadsheets from the terminal",
		Long: `lazysheet opens an Excel workbook or a CSV/TSV file, lets you build
column filters (text and numeric) combined with AND or OR, previews the
matching rows and exports them to xlsx, csv, json or a PostgreSQL table.

Examples:
  # Browse a workbook
  lazysheet sales.xlsx

  # List its sheets
  lazysheet sheets sales.xlsx

  # Filter without the interface
  lazysheet filter sales.xlsx --sheet Q1 --rule "Region equals North" --rule "Total > 1000" --out north.xlsx`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return opts.setup()
		},
		RunE: func(_ *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runUI(opts, path)
		},
	}

	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "Config file (default: user config dir, ./config.yaml)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log to stderr at debug level")

	root.AddCommand(
		newSheetsCmd(opts),
		newFilterCmd(opts),
		newPresetsCmd(opts),
		newHistoryCmd(opts),
		newPasswordCmd(opts),
		newVersionCmd(),
	)
	return root, opts
}

// setup loads the configuration, the logger and the session
func (o *options) setup() error {
	cfg, err := config.LoadFile(o.configFile)
	if err != nil {
		return withCode(ExitValidationError, err)
	}
	o.cfg = cfg

	if o.verbose {
		o.log, err = logger.Console("debug")
	} else {
		o.log, err = logger.New(cfg.Log)
	}
	if err != nil {
		return withCode(ExitRuntimeError, err)
	}

	o.sess, err = session.Open(cfg, o.log)
	if err != nil {
		return withCode(ExitRuntimeError, err)
	}
	return nil
}

func (o *options) teardown() {
	if o.sess != nil && o.log != nil {
		if err := o.sess.Close(); err != nil {
			o.log.Warn("Failed to close session", zap.Error(err))
		}
	}
	if o.log != nil {
		_ = o.log.Sync()
	}
}

func runUI(o *options, path string) error {
	a := app.New(o.sess, path)
	defer a.Close()

	programOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if o.cfg.UI.MouseEnabled {
		programOpts = append(programOpts, tea.WithMouseCellMotion())
	}

	p := tea.NewProgram(a, programOpts...)
	if _, err := p.Run(); err != nil {
		return withCode(ExitRuntimeError, fmt.Errorf("error running program: %w", err))
	}
	return nil
}

func newSheetsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sheets <file>",
		Short: "List the sheets of a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := o.sess.SheetNames(args[0])
			if err != nil {
				return withCode(ExitLoadError, err)
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// The version needs no configuration
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lazysheet %s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "  Commit: %s\n", commit)
			fmt.Fprintf(cmd.OutOrStdout(), "  Built:  %s\n", buildDate)
		},
	}
}
