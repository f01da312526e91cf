package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/OMKARDESHM/self-healing-data-pipeline-agent/internal/config"
	"github.com/OMKARDESHM/self-healing-data-pipeline-agent/internal/dataset"
)

// Store is the SQLite warehouse the typed dataset is loaded into.
type Store struct {
	db *sql.DB
}

// identPattern is the only shape of table/column name accepted. Identifiers
// are interpolated into DDL, so anything else is rejected up front.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Open creates or opens the warehouse database at the given path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open warehouse: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to warehouse: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load replaces the contents of the named table with the dataset rows.
//
// The table is created if absent, with column types mapped from the declared
// column types (int -> INTEGER, float -> REAL, string -> TEXT). Replacement
// runs in one transaction: readers never observe a half-loaded table.
func (s *Store) Load(ctx context.Context, table string, ds *dataset.Dataset) (int, error) {
	if !identPattern.MatchString(table) {
		return 0, fmt.Errorf("invalid warehouse table name %q", table)
	}
	for _, col := range ds.Columns {
		if !identPattern.MatchString(col.Name) {
			return 0, fmt.Errorf("invalid warehouse column name %q", col.Name)
		}
	}
	if len(ds.Columns) == 0 {
		return 0, fmt.Errorf("dataset has no loadable columns")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("warehouse load: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, createTableDDL(table, ds.Columns)); err != nil {
		return 0, fmt.Errorf("warehouse load: create table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM "%s"`, table)); err != nil {
		return 0, fmt.Errorf("warehouse load: clear table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertSQL(table, ds.Columns))
	if err != nil {
		return 0, fmt.Errorf("warehouse load: prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range ds.Rows {
		args := make([]any, len(ds.Columns))
		for j, col := range ds.Columns {
			args[j] = sqlValue(row[col.Name], col.Type)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("warehouse load: insert row %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("warehouse load: commit: %w", err)
	}

	return len(ds.Rows), nil
}

// RowCount returns the number of rows currently in the named table.
func (s *Store) RowCount(ctx context.Context, table string) (int, error) {
	if !identPattern.MatchString(table) {
		return 0, fmt.Errorf("invalid warehouse table name %q", table)
	}
	var n int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM "%s"`, table)
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("warehouse row count: %w", err)
	}
	return n, nil
}

func createTableDDL(table string, cols []dataset.Column) string {
	defs := make([]string, len(cols))
	for i, col := range cols {
		defs[i] = fmt.Sprintf(`"%s" %s`, col.Name, sqlType(col.Type))
	}
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS "%s" (%s)`, table, strings.Join(defs, ", "))
}

func insertSQL(table string, cols []dataset.Column) string {
	names := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, col := range cols {
		names[i] = fmt.Sprintf(`"%s"`, col.Name)
		marks[i] = "?"
	}
	return fmt.Sprintf(`INSERT INTO "%s" (%s) VALUES (%s)`,
		table, strings.Join(names, ", "), strings.Join(marks, ", "))
}

func sqlType(t config.ColumnType) string {
	switch t {
	case config.TypeInt:
		return "INTEGER"
	case config.TypeFloat:
		return "REAL"
	default:
		return "TEXT"
	}
}

func sqlValue(v dataset.Value, t config.ColumnType) any {
	if v.Null {
		return nil
	}
	switch t {
	case config.TypeInt:
		return int64(v.Num)
	case config.TypeFloat:
		return v.Num
	default:
		return v.Str
	}
}
