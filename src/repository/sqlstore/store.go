// Package sqlstore implements the engine repositories on database/sql for
// PostgreSQL (lib/pq) and SQLite (mattn/go-sqlite3).
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Supported driver names, as registered with database/sql
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

var ErrUnsupportedDriver = errors.New("sqlstore: unsupported driver")

// Store is the SQL backed repository for customers, invoices, orders, debt
// configurations and credit approvals
type Store struct {
	db     *sql.DB
	driver string
	now    func() time.Time
}

// New wraps an open database handle. The driver name selects the schema
// dialect used by Migrate.
func New(db *sql.DB, driver string) (*Store, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
	return &Store{db: db, driver: driver, now: time.Now}, nil
}

// Open opens and pings the database
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach %s database: %w", driver, err)
	}

	store, err := New(db, driver)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// DB exposes the underlying handle
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// args collects positional parameters and hands out $n placeholders in
// order of first use, which both drivers accept
type args struct {
	values []interface{}
}

func (a *args) add(v interface{}) string {
	a.values = append(a.values, v)
	return fmt.Sprintf("$%d", len(a.values))
}

func (a *args) in(values []string) string {
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = a.add(v)
	}
	return "(" + strings.Join(placeholders, ", ") + ")"
}

// where joins conditions with AND, or returns an empty string
func where(conditions []string) string {
	if len(conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conditions, " AND ")
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
