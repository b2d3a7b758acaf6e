// Package session ties a loaded sheet to the filter engine, the exporters
// and the history store. The TUI and the command line both go through it.
package session

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/rebeliceyang/lazysheet/internal/config"
	"github.com/rebeliceyang/lazysheet/internal/db"
	"github.com/rebeliceyang/lazysheet/internal/export"
	"github.com/rebeliceyang/lazysheet/internal/filter"
	"github.com/rebeliceyang/lazysheet/internal/history"
	"github.com/rebeliceyang/lazysheet/internal/models"
	"github.com/rebeliceyang/lazysheet/internal/presets"
	"github.com/rebeliceyang/lazysheet/internal/reader"
	"github.com/rebeliceyang/lazysheet/internal/secrets"
	"github.com/rebeliceyang/lazysheet/internal/table"
)

const historyFile = "history.db"

// Session holds the long-lived services of one program run
type Session struct {
	cfg     *config.Config
	logger  *zap.Logger
	history *history.Store
	presets *presets.Manager

	passwords *secrets.PasswordStore
}

// New creates a session from already opened services. hist and pm may be nil.
func New(cfg *config.Config, logger *zap.Logger, hist *history.Store, pm *presets.Manager) *Session {
	if cfg == nil {
		cfg = config.GetDefaults()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		cfg:       cfg,
		logger:    logger,
		history:   hist,
		presets:   pm,
		passwords: secrets.NewPasswordStore(),
	}
}

// Open creates a session with the history store and presets under the user
// config directory. History problems are logged and history is disabled.
func Open(cfg *config.Config, logger *zap.Logger) (*Session, error) {
	s := New(cfg, logger, nil, nil)

	dir, err := config.GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config directory: %w", err)
	}
	if s.presets, err = presets.NewManager(dir); err != nil {
		return nil, err
	}

	if s.cfg.History.Enabled {
		path, err := config.DataPath(historyFile)
		if err == nil {
			s.history, err = history.NewStore(path, s.cfg.History.MaxRecent, s.cfg.History.MaxRuns)
		}
		if err != nil {
			s.logger.Warn("History disabled", zap.Error(err))
		}
	}
	return s, nil
}

// Config returns the configuration in use
func (s *Session) Config() *config.Config {
	return s.cfg
}

// Passwords returns the keyring store used for PostgreSQL passwords
func (s *Session) Passwords() *secrets.PasswordStore {
	return s.passwords
}

// Logger returns the session logger
func (s *Session) Logger() *zap.Logger {
	return s.logger
}

// Presets returns the preset manager; nil when presets are unavailable
func (s *Session) Presets() *presets.Manager {
	return s.presets
}

// Close releases the history database
func (s *Session) Close() error {
	if s.history == nil {
		return nil
	}
	return s.history.Close()
}

// SheetNames lists the sheets of the workbook at path
func (s *Session) SheetNames(path string) ([]string, error) {
	return reader.SheetNames(path)
}

// Load reads one sheet and records the file as recently opened
func (s *Session) Load(path, sheet string) (*table.Table, error) {
	tbl, err := reader.Load(path, sheet)
	if err != nil {
		s.logger.Error("Failed to load sheet",
			zap.String("path", path),
			zap.String("sheet", sheet),
			zap.Error(err))
		return nil, err
	}
	s.logger.Info("Loaded sheet",
		zap.String("path", path),
		zap.String("sheet", sheet),
		zap.Int("rows", tbl.NumRows()),
		zap.Int("columns", tbl.NumCols()))

	if s.history != nil {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		if err := s.history.AddRecent(path, sheet); err != nil {
			s.logger.Warn("Failed to record recent file", zap.Error(err))
		}
	}
	return tbl, nil
}

// Recent returns recently opened files, newest first
func (s *Session) Recent(limit int) ([]history.RecentFile, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.Recent(limit)
}

// Runs returns recent filter runs, newest first
func (s *Session) Runs(limit int) ([]history.Run, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.Runs(limit)
}

// DefaultCombinator is the configured filter logic
func (s *Session) DefaultCombinator() models.Combinator {
	c, err := models.ParseCombinator(s.cfg.Filter.DefaultLogic)
	if err != nil {
		return models.CombineAnd
	}
	return c
}

// NewEngine creates a filter engine over ds with the configured
// classification parameters and default logic
func (s *Session) NewEngine(ds models.Dataset) *filter.Engine {
	return filter.NewEngine(ds,
		filter.WithLogger(s.logger),
		filter.WithCombinator(s.DefaultCombinator()),
		filter.WithClassifier(filter.Classifier{
			SampleSize: s.cfg.Filter.SampleSize,
			Threshold:  s.cfg.Filter.NumericThreshold,
		}))
}

// Filter evaluates rules against ds with a fresh engine and records the run.
// A rule that does not name an existing column fails the whole call.
func (s *Session) Filter(path, sheet string, ds models.Dataset, rules []models.FilterRule, combinator models.Combinator) (*filter.Result, error) {
	engine := s.NewEngine(ds)
	if combinator != "" {
		engine.SetCombinator(combinator)
	}
	for _, r := range rules {
		if err := engine.AddRule(r); err != nil {
			return nil, err
		}
	}

	res, err := engine.Apply()
	if err != nil {
		return nil, err
	}

	if s.history != nil {
		run := history.Run{
			Path:         path,
			Sheet:        sheet,
			Expression:   filter.Describe(rules, engine.Combinator()),
			Combinator:   string(engine.Combinator()),
			OriginalRows: res.Statistics.OriginalCount,
			FilteredRows: res.Statistics.FilteredCount,
			SkippedRules: res.Statistics.SkippedCount,
			Duration:     res.Duration,
		}
		if err := s.history.AddRun(run); err != nil {
			s.logger.Warn("Failed to record filter run", zap.Error(err))
		}
	}
	return res, nil
}

// ExportFile writes ds to path. A path without an extension gets the
// configured export format. The written path is returned.
func (s *Session) ExportFile(ds models.Dataset, path string) (string, error) {
	if filepath.Ext(path) == "" {
		path += "." + strings.TrimPrefix(s.cfg.General.ExportFormat, ".")
	}
	opts := export.XLSXOptions{
		SheetName:      s.cfg.Export.SheetName,
		AutoFormat:     s.cfg.Export.AutoFormat,
		MaxColumnWidth: s.cfg.Export.MaxColumnWidth,
	}
	if err := export.ToFile(ds, path, opts); err != nil {
		return "", err
	}
	s.logger.Info("Exported rows",
		zap.String("path", path),
		zap.Int("rows", ds.NumRows()))
	return path, nil
}

// PostgresEnabled reports whether a PostgreSQL DSN is configured
func (s *Session) PostgresEnabled() bool {
	return s.cfg.Postgres.DSN != ""
}

// ExportPostgres copies ds into the named table
func (s *Session) ExportPostgres(ctx context.Context, ds models.Dataset, name string, replace bool) (int64, error) {
	var lookup db.PasswordLookup
	if s.cfg.Postgres.UseKeyring {
		lookup = s.passwords.Get
	}
	pool, err := db.NewPool(ctx, s.cfg.Postgres.DSN, s.cfg.Postgres.MaxConns, lookup)
	if err != nil {
		return 0, err
	}
	defer pool.Close()

	return db.ExportTable(ctx, pool, name, ds, db.ExportOptions{Replace: replace, Logger: s.logger})
}

// DefaultExportPath suggests "<export dir>/<file>_filtered.<format>"
func (s *Session) DefaultExportPath(source string) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	format := strings.TrimPrefix(s.cfg.General.ExportFormat, ".")
	return filepath.Join(s.cfg.General.DefaultExportDir, base+"_filtered."+format)
}

// DefaultTableName derives a lower-case SQL-friendly table name from a file
// name and sheet
func DefaultTableName(source, sheet string) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	if sheet != "" && sheet != base {
		base += "_" + sheet
	}
	var b strings.Builder
	for _, r := range strings.ToLower(base) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	name := strings.Trim(b.String(), "_")
	if name == "" {
		return "filtered"
	}
	if unicode.IsDigit(rune(name[0])) {
		name = "t_" + name
	}
	return name
}
