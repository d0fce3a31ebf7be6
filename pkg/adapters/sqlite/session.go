// Package sqlite runs queries against a tabular dataset loaded into an
// in-memory SQLite database. Each analyzed file gets its own session; the
// data always lives in a single table named "dataset".
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/dataquill-ai/dataquill-engine/pkg/dataset"
	"github.com/dataquill-ai/dataquill-engine/pkg/models"
)

// TableName is the fixed name of the loaded table. Query plans are written
// against it regardless of the source file's name.
const TableName = "dataset"

// insertBatchSize bounds the number of rows per INSERT statement so we stay
// under SQLite's bound-parameter limit even for wide tables.
const insertBatchSize = 200

// Session wraps an in-memory database holding one loaded dataset.
type Session struct {
	db      *sql.DB
	columns []string
}

// NewSession creates an in-memory database, declares the dataset table with
// types matching the inferred column types, and bulk-loads all rows in a
// single transaction.
func NewSession(ctx context.Context, ds *dataset.Dataset) (*Session, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open in-memory database: %w", err)
	}
	// The dataset table lives in this one connection's memory.
	db.SetMaxOpenConns(1)

	if err := createTable(ctx, db, ds); err != nil {
		db.Close()
		return nil, err
	}
	if err := loadRows(ctx, db, ds); err != nil {
		db.Close()
		return nil, err
	}

	return &Session{db: db, columns: ds.Columns}, nil
}

// Columns returns the dataset's column names in file order.
func (s *Session) Columns() []string {
	return s.columns
}

// Query executes a read query and materializes the full result set. Column
// order follows the query's projection. Values come back as Go natives:
// int64, float64, string, or nil.
func (s *Session) Query(ctx context.Context, query string) ([]string, []map[string]any, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("read result columns: %w", err)
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, fmt.Errorf("scan result row: %w", err)
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = normalizeValue(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate results: %w", err)
	}
	return cols, out, nil
}

// Close releases the in-memory database.
func (s *Session) Close() error {
	return s.db.Close()
}

func createTable(ctx context.Context, db *sql.DB, ds *dataset.Dataset) error {
	defs := make([]string, len(ds.Columns))
	for i, col := range ds.Columns {
		defs[i] = fmt.Sprintf("%s %s", quoteIdent(col), sqliteType(ds.Types[i]))
	}
	stmt := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(TableName), strings.Join(defs, ", "))
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create dataset table: %w", err)
	}
	return nil
}

func loadRows(ctx context.Context, db *sql.DB, ds *dataset.Dataset) error {
	if len(ds.Rows) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin load transaction: %w", err)
	}
	defer tx.Rollback()

	quoted := make([]string, len(ds.Columns))
	for i, col := range ds.Columns {
		quoted[i] = quoteIdent(col)
	}
	rowPlaceholder := "(" + strings.TrimSuffix(strings.Repeat("?,", len(ds.Columns)), ",") + ")"

	for start := 0; start < len(ds.Rows); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(ds.Rows) {
			end = len(ds.Rows)
		}
		batch := ds.Rows[start:end]

		placeholders := make([]string, len(batch))
		args := make([]any, 0, len(batch)*len(ds.Columns))
		for i, row := range batch {
			placeholders[i] = rowPlaceholder
			for col, v := range row {
				args = append(args, bindValue(v, ds.Types[col]))
			}
		}

		stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
			quoteIdent(TableName), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return fmt.Errorf("insert rows %d-%d: %w", start+1, end, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit load transaction: %w", err)
	}
	return nil
}

// bindValue maps empty strings to NULL so aggregates and comparisons behave
// sensibly for typed columns.
func bindValue(v string, _ models.ColumnType) any {
	if v == "" {
		return nil
	}
	return v
}

func sqliteType(t models.ColumnType) string {
	switch t {
	case models.ColumnTypeInteger:
		return "INTEGER"
	case models.ColumnTypeNumeric:
		return "REAL"
	default:
		return "TEXT"
	}
}

func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// quoteIdent double-quotes an identifier, escaping embedded quotes. Column
// names come from user files and may contain anything.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
