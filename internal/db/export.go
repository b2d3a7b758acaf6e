package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/rebeliceyang/lazysheet/internal/models"
)

// ExportOptions controls ExportTable
type ExportOptions struct {
	// Replace drops an existing table first; otherwise rows are appended to it
	Replace bool
	Logger  *zap.Logger
}

// TableIdentifier splits "schema.table" into a pgx identifier
func TableIdentifier(name string) (pgx.Identifier, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("table name cannot be empty")
	}
	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		return nil, fmt.Errorf("invalid table name %q", name)
	}
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("invalid table name %q", name)
		}
	}
	return pgx.Identifier(parts), nil
}

// ColumnType maps a column kind to the PostgreSQL type it is stored as
func ColumnType(kind models.ColumnKind) string {
	if kind == models.KindNumeric {
		return "double precision"
	}
	return "text"
}

// CreateTableSQL builds the CREATE TABLE statement for ds
func CreateTableSQL(table pgx.Identifier, ds models.Dataset, ifNotExists bool) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	if ifNotExists {
		b.WriteString("IF NOT EXISTS ")
	}
	b.WriteString(table.Sanitize())
	b.WriteString(" (")
	for j, name := range ds.Columns() {
		if j > 0 {
			b.WriteString(", ")
		}
		col, _ := ds.Column(name)
		b.WriteString(pgx.Identifier{name}.Sanitize())
		b.WriteString(" ")
		b.WriteString(ColumnType(col.Kind()))
	}
	b.WriteString(")")
	return b.String()
}

// rowSource feeds dataset rows to CopyFrom without materializing them
func rowSource(ds models.Dataset) pgx.CopyFromSource {
	names := ds.Columns()
	cols := make([]models.Column, len(names))
	for j, name := range names {
		cols[j], _ = ds.Column(name)
	}

	row := -1
	n := ds.NumRows()
	return pgx.CopyFromFunc(func() ([]any, error) {
		row++
		if row >= n {
			return nil, nil
		}
		return rowValues(cols, row), nil
	})
}

func rowValues(cols []models.Column, row int) []any {
	values := make([]any, len(cols))
	for j, c := range cols {
		if c.IsNull(row) {
			continue
		}
		if c.Kind() == models.KindNumeric {
			if f, ok := c.Number(row); ok {
				values[j] = f
			}
			continue
		}
		values[j] = c.Text(row)
	}
	return values
}

// ExportTable creates the target table and bulk loads ds into it in one
// transaction. It returns the number of rows copied.
func ExportTable(ctx context.Context, p *Pool, name string, ds models.Dataset, opts ExportOptions) (int64, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	table, err := TableIdentifier(name)
	if err != nil {
		return 0, err
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if opts.Replace {
		if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+table.Sanitize()); err != nil {
			return 0, fmt.Errorf("failed to drop table: %w", err)
		}
	}
	if _, err := tx.Exec(ctx, CreateTableSQL(table, ds, !opts.Replace)); err != nil {
		return 0, fmt.Errorf("failed to create table: %w", err)
	}

	copied, err := tx.CopyFrom(ctx, table, ds.Columns(), rowSource(ds))
	if err != nil {
		return 0, fmt.Errorf("failed to copy rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit export: %w", err)
	}

	logger.Info("Exported rows to PostgreSQL",
		zap.String("table", table.Sanitize()),
		zap.Int64("rows", copied),
		zap.Bool("replace", opts.Replace))
	return copied, nil
}
