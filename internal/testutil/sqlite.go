// Package testutil provides an in-memory SQLite database for executing
// compiled statements, shared by package tests and the scenario harness.
package testutil

import (
	"database/sql"
	"fmt"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// CommandSeparator splits multi-command statement text.
const CommandSeparator = ";\n"

// SQLite is an in-memory SQLite database.
//
// The pool is pinned to one connection: every connection to ":memory:"
// opens a separate database.
type SQLite struct {
	DB *sql.DB
	t  testing.TB
}

// Open opens an empty in-memory database with foreign keys enforced.
func Open() (*SQLite, error) {
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &SQLite{DB: db}, nil
}

// OpenSQLite opens an empty in-memory database, closed when the test ends.
func OpenSQLite(t testing.TB) *SQLite {
	t.Helper()
	s, err := Open()
	if err != nil {
		t.Fatal(err)
	}
	s.t = t
	t.Cleanup(func() { s.Close() })
	return s
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.DB.Close()
}

// Exec runs statement text. Multi-command text runs command by command;
// args are only allowed with a single command.
func (s *SQLite) Exec(text string, args ...any) error {
	cmds := strings.Split(text, CommandSeparator)
	if len(cmds) > 1 && len(args) > 0 {
		return fmt.Errorf("arguments given for %d commands", len(cmds))
	}
	for _, cmd := range cmds {
		if _, err := s.DB.Exec(cmd, args...); err != nil {
			return fmt.Errorf("exec %q: %w", cmd, err)
		}
	}
	return nil
}

// Query runs a query and returns its column names and raw rows. BLOB and
// TEXT values scanned as []byte are returned as strings.
func (s *SQLite) Query(text string, args ...any) ([]string, [][]any, error) {
	rows, err := s.DB.Query(text, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("query %q: %w", text, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("get columns: %w", err)
	}
	var out [][]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, fmt.Errorf("scan row: %w", err)
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		out = append(out, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return cols, out, nil
}

// MustExec is Exec failing the test on error.
func (s *SQLite) MustExec(text string, args ...any) {
	s.t.Helper()
	if err := s.Exec(text, args...); err != nil {
		s.t.Fatal(err)
	}
}

// Rows is Query failing the test on error, with every value rendered by
// fmt's %v. NULL renders as "<nil>".
func (s *SQLite) Rows(text string, args ...any) [][]string {
	s.t.Helper()
	_, rows, err := s.Query(text, args...)
	if err != nil {
		s.t.Fatal(err)
	}
	var out [][]string
	for _, r := range rows {
		row := make([]string, len(r))
		for i, v := range r {
			row[i] = fmt.Sprintf("%v", v)
		}
		out = append(out, row)
	}
	return out
}
