package exporter

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// SQL driver names registered by the imported drivers
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// OpenDB opens and pings a database
func OpenDB(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}
	return db, nil
}

// SQLWriter replaces a table with the contents of an export. The drop,
// create and inserts run in one transaction.
type SQLWriter struct {
	db     *sql.DB
	driver string
	table  string
}

// NewSQLWriter creates a writer for table on db
func NewSQLWriter(db *sql.DB, driver, table string) *SQLWriter {
	return &SQLWriter{db: db, driver: driver, table: table}
}

func (s *SQLWriter) placeholder(i int) string {
	if s.driver == DriverPostgres {
		return fmt.Sprintf("$%d", i)
	}
	return "?"
}

func (s *SQLWriter) numericType() string {
	if s.driver == DriverPostgres {
		return "DOUBLE PRECISION"
	}
	return "REAL"
}

// Write stores t and returns the number of rows inserted
func (s *SQLWriter) Write(ctx context.Context, t Table) (int, error) {
	if len(t.Headers) == 0 {
		return 0, fmt.Errorf("table %q has no columns", s.table)
	}

	table := pq.QuoteIdentifier(s.table)
	numeric := numericColumns(t)

	columns := make([]string, len(t.Headers))
	defs := make([]string, len(t.Headers))
	marks := make([]string, len(t.Headers))
	for i, h := range t.Headers {
		columns[i] = pq.QuoteIdentifier(h)
		typ := "TEXT"
		if numeric[i] {
			typ = s.numericType()
		}
		defs[i] = columns[i] + " " + typ
		marks[i] = s.placeholder(i + 1)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
		return 0, fmt.Errorf("failed to drop %s: %w", s.table, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(defs, ", "))); err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", s.table, err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(t.Headers))
	for r, row := range t.Rows {
		for i := range args {
			var cell string
			if i < len(row) {
				cell = row[i]
			}
			switch {
			case cell == "":
				args[i] = nil
			case numeric[i]:
				args[i], _ = parseNumber(cell)
			default:
				args[i] = cell
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("failed to insert record %d: %w", r, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit %s: %w", s.table, err)
	}
	return len(t.Rows), nil
}
