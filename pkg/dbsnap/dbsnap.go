// Package dbsnap dumps database tables as ordered rows for gold comparison
// and restores tables from such dumps.
//
// Deletes and inserts are retried in passes so that foreign-key ordering
// between tables never has to be declared: a table that fails is retried
// after the others, and a pass that makes no progress is an error.
package dbsnap

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/AndreyAkinshin/goldtest/pkg/gold"
)

// Dialect selects the catalog queries and placeholder style.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// ParseDialect parses a dialect or driver name.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	}
	return "", fmt.Errorf("dbsnap: unsupported dialect %q (must be \"sqlite\" or \"postgres\")", s)
}

// OrderingError indicates that a full pass over the remaining tables made no
// progress.
type OrderingError struct {
	Op     string // "delete" or "insert"
	Tables []string
	Errs   []error
}

func (e *OrderingError) Error() string {
	return fmt.Sprintf("dbsnap: ran through all tables, %s still failed for %s: %v",
		e.Op, strings.Join(e.Tables, ", "), errors.Join(e.Errs...))
}

func (e *OrderingError) Unwrap() []error {
	return e.Errs
}

// Snapshotter reads and writes table contents of one database.
type Snapshotter struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

var _ gold.TableSource = (*Snapshotter)(nil)

// Option configures a Snapshotter.
type Option func(*Snapshotter)

// WithLogger sets the logger for retry diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Snapshotter) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Snapshotter over db.
func New(db *sql.DB, dialect Dialect, opts ...Option) *Snapshotter {
	s := &Snapshotter{
		db:      db,
		dialect: dialect,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dialect returns the configured dialect.
func (s *Snapshotter) Dialect() Dialect {
	return s.dialect
}

// Tables returns the user tables of the database, sorted by name.
func (s *Snapshotter) Tables(ctx context.Context) ([]string, error) {
	var query string
	switch s.dialect {
	case SQLite:
		query = `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`
	case Postgres:
		query = `SELECT tablename FROM pg_tables WHERE schemaname = current_schema() ORDER BY tablename`
	default:
		return nil, fmt.Errorf("dbsnap: unsupported dialect %q", s.dialect)
	}
	return s.queryStrings(ctx, query)
}

// Dump returns the rows of the given tables, or of every table when none are
// given. Rows are ordered by primary key; tables without one are ordered by
// all columns.
func (s *Snapshotter) Dump(ctx context.Context, tables ...string) (map[string][]map[string]any, error) {
	names, err := s.resolve(ctx, tables)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]map[string]any, len(names))
	for _, name := range names {
		rows, err := s.dumpTable(ctx, name)
		if err != nil {
			return nil, err
		}
		out[name] = rows
	}
	return out, nil
}

func (s *Snapshotter) dumpTable(ctx context.Context, table string) ([]map[string]any, error) {
	keys, err := s.primaryKeys(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("dbsnap: primary key of %s: %w", table, err)
	}

	query := "SELECT * FROM " + quoteIdent(table)
	if len(keys) > 0 {
		quoted := make([]string, len(keys))
		for i, k := range keys {
			quoted[i] = quoteIdent(k)
		}
		query += " ORDER BY " + strings.Join(quoted, ", ")
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("dbsnap: dump %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("dbsnap: dump %s: %w", table, err)
	}

	result := []map[string]any{}
	var sortKeys []string
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("dbsnap: dump %s: %w", table, err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = convert(values[i])
		}
		result = append(result, row)
		if len(keys) == 0 {
			sortKeys = append(sortKeys, rowSortKey(columns, row))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dbsnap: dump %s: %w", table, err)
	}

	if len(keys) == 0 {
		sort.Sort(byKey{rows: result, keys: sortKeys})
	}
	return result, nil
}

// Delete removes every row from the given tables, or from every table when
// none are given. Tables are tried in the given order; a table whose delete
// fails is retried in a later pass.
func (s *Snapshotter) Delete(ctx context.Context, tables ...string) error {
	names, err := s.resolve(ctx, tables)
	if err != nil {
		return err
	}

	return s.retryPasses(ctx, "delete", names, func(table string) error {
		_, err := s.db.ExecContext(ctx, "DELETE FROM "+quoteIdent(table))
		return err
	})
}

// Restore replaces the contents of the database with data: every table is
// emptied, then the rows of each table are inserted in one transaction per
// table. On postgres the sequences are moved past the restored ids.
func (s *Snapshotter) Restore(ctx context.Context, data map[string][]map[string]any) error {
	if err := s.Delete(ctx); err != nil {
		return err
	}

	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)

	err := s.retryPasses(ctx, "insert", names, func(table string) error {
		return s.insertTable(ctx, table, data[table])
	})
	if err != nil {
		return err
	}

	if s.dialect == Postgres {
		return s.fixSequences(ctx)
	}
	return nil
}

func (s *Snapshotter) insertTable(ctx context.Context, table string, rows []map[string]any) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, row := range rows {
		columns := make([]string, 0, len(row))
		for col := range row {
			columns = append(columns, col)
		}
		sort.Strings(columns)

		quoted := make([]string, len(columns))
		placeholders := make([]string, len(columns))
		args := make([]any, len(columns))
		for i, col := range columns {
			quoted[i] = quoteIdent(col)
			placeholders[i] = s.placeholder(i + 1)
			arg, convErr := sqlValue(row[col])
			if convErr != nil {
				return fmt.Errorf("column %s: %w", col, convErr)
			}
			args[i] = arg
		}

		query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			quoteIdent(table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// retryPasses runs op over tables until every table succeeded. Tables that
// fail are retried in the next pass; a pass without a single success ends
// with *OrderingError.
func (s *Snapshotter) retryPasses(ctx context.Context, op string, tables []string, fn func(table string) error) error {
	remaining := append([]string(nil), tables...)
	for pass := 1; len(remaining) > 0; pass++ {
		var failed []string
		var errs []error
		for _, table := range remaining {
			err := fn(table)
			if err == nil {
				continue
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			s.logger.Info(op+" failed, trying again", "table", table, "pass", pass, "error", err)
			failed = append(failed, table)
			errs = append(errs, fmt.Errorf("%s: %w", table, err))
		}
		if len(failed) == len(remaining) {
			return &OrderingError{Op: op, Tables: failed, Errs: errs}
		}
		remaining = failed
	}
	return nil
}

const pgSequenceQueries = `
SELECT 'SELECT SETVAL(' ||
       quote_literal(quote_ident(PGT.schemaname) || '.' || quote_ident(S.relname)) ||
       ', COALESCE(MAX(' || quote_ident(C.attname) || '), 1)) FROM ' ||
       quote_ident(PGT.schemaname) || '.' || quote_ident(T.relname)
FROM pg_class AS S,
     pg_depend AS D,
     pg_class AS T,
     pg_attribute AS C,
     pg_tables AS PGT
WHERE S.relkind = 'S'
    AND S.oid = D.objid
    AND D.refobjid = T.oid
    AND D.refobjid = C.attrelid
    AND D.refobjsubid = C.attnum
    AND T.relname = PGT.tablename
ORDER BY S.relname`

// fixSequences moves every sequence owned by a table column to the current
// maximum of that column.
func (s *Snapshotter) fixSequences(ctx context.Context) error {
	queries, err := s.queryStrings(ctx, pgSequenceQueries)
	if err != nil {
		return fmt.Errorf("dbsnap: list sequences: %w", err)
	}
	for _, q := range queries {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("dbsnap: fix sequence: %w", err)
		}
	}
	s.logger.Debug("sequences repaired", "count", len(queries))
	return nil
}

func (s *Snapshotter) primaryKeys(ctx context.Context, table string) ([]string, error) {
	switch s.dialect {
	case SQLite:
		return s.queryStrings(ctx, `SELECT name FROM pragma_table_info(?) WHERE pk > 0 ORDER BY pk`, table)
	case Postgres:
		return s.queryStrings(ctx, `
SELECT a.attname
FROM pg_index i
JOIN pg_attribute a ON a.attrelid = i.indrelid AND a.attnum = ANY(i.indkey)
WHERE i.indrelid = $1::regclass AND i.indisprimary
ORDER BY a.attnum`, quoteIdent(table))
	}
	return nil, fmt.Errorf("dbsnap: unsupported dialect %q", s.dialect)
}

// resolve returns tables, or every table when tables is empty. Unknown names
// are an error.
func (s *Snapshotter) resolve(ctx context.Context, tables []string) ([]string, error) {
	all, err := s.Tables(ctx)
	if err != nil {
		return nil, fmt.Errorf("dbsnap: list tables: %w", err)
	}
	if len(tables) == 0 {
		return all, nil
	}

	known := make(map[string]bool, len(all))
	for _, name := range all {
		known[name] = true
	}
	for _, name := range tables {
		if !known[name] {
			return nil, fmt.Errorf("dbsnap: unknown table %q", name)
		}
	}
	return tables, nil
}

func (s *Snapshotter) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Snapshotter) placeholder(n int) string {
	if s.dialect == Postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// convert turns a scanned column value into a gold-friendly value.
func convert(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case int64, float64, bool, string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	}
	return fmt.Sprint(v)
}

// sqlValue turns a decoded gold value back into a query argument.
func sqlValue(v any) (any, error) {
	switch x := v.(type) {
	case nil, string, bool, int64, float64:
		return x, nil
	case int:
		return int64(x), nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, nil
		}
		if f, err := x.Float64(); err == nil {
			return f, nil
		}
		return x.String(), nil
	case gold.WildcardMarker:
		return nil, errors.New("wildcarded value cannot be restored")
	case map[string]any, []any:
		data, err := json.Marshal(x)
		if err != nil {
			return nil, err
		}
		return string(data), nil
	}
	return nil, fmt.Errorf("unsupported value %T", v)
}

func rowSortKey(columns []string, row map[string]any) string {
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = fmt.Sprintf("%v", row[col])
	}
	return strings.Join(parts, "\x00")
}

type byKey struct {
	rows []map[string]any
	keys []string
}

func (b byKey) Len() int           { return len(b.rows) }
func (b byKey) Less(i, j int) bool { return b.keys[i] < b.keys[j] }
func (b byKey) Swap(i, j int) {
	b.rows[i], b.rows[j] = b.rows[j], b.rows[i]
	b.keys[i], b.keys[j] = b.keys[j], b.keys[i]
}

// Rows converts a decoded table gold, a list of objects, back into rows.
func Rows(v any) ([]map[string]any, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("dbsnap: table gold must be a list of rows, got %T", v)
	}
	rows := make([]map[string]any, len(list))
	for i, item := range list {
		row, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("dbsnap: row %d must be an object, got %T", i, item)
		}
		rows[i] = row
	}
	return rows, nil
}
