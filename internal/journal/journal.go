// Package journal keeps a local SQLite log of Liquibase invocations.
//
// The journal lives in its own database file and never touches the
// database Liquibase migrates.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	liquibase "github.com/bcomnes/goliquibase"
)

// Table is the name of the journal table.
const Table = "invocations"

// timeLayout is fixed width so started_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Journal records invocations into a SQLite database. It implements
// liquibase.Recorder.
type Journal struct {
	db *sql.DB
}

var _ liquibase.Recorder = (*Journal)(nil)

// Open opens (creating if needed) the journal at path and makes sure the
// invocations table has every column this version writes.
func Open(ctx context.Context, path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	j := &Journal{db: db}
	if err := j.ensureTable(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("preparing journal: %w", err)
	}
	return j, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error { return j.db.Close() }

func (j *Journal) columns(ctx context.Context) ([]string, error) {
	rows, err := j.db.QueryContext(ctx, fmt.Sprintf(`
      SELECT name AS column_name
      FROM pragma_table_info('%s');
    `, Table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

func hasColumn(columns []string, name string) bool {
	for _, col := range columns {
		if strings.EqualFold(col, name) {
			return true
		}
	}
	return false
}

// ensureTable creates the table on first use and adds columns introduced
// after the file was created.
func (j *Journal) ensureTable(ctx context.Context) error {
	columns, err := j.columns(ctx)
	if err != nil {
		return err
	}

	var queries []string
	if len(columns) == 0 {
		queries = append(queries, fmt.Sprintf(`
          CREATE TABLE %q (
            id TEXT PRIMARY KEY,
            command TEXT NOT NULL,
            started_at TEXT NOT NULL
          );`, Table))
	}
	optional := []struct{ name, ddl string }{
		{"command_line", "TEXT"},
		{"duration_ms", "INTEGER"},
		{"exit_code", "INTEGER"},
		{"error", "TEXT"},
		{"launched", "INTEGER"},
	}
	for _, col := range optional {
		if !hasColumn(columns, col.name) {
			queries = append(queries, fmt.Sprintf(`ALTER TABLE %q ADD COLUMN %s %s;`, Table, col.name, col.ddl))
		}
	}

	for _, q := range queries {
		if _, err := j.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// Record appends inv to the journal.
func (j *Journal) Record(ctx context.Context, inv liquibase.Invocation) error {
	_, err := j.db.ExecContext(ctx, fmt.Sprintf(`
      INSERT INTO %q (id, command, started_at, command_line, duration_ms, exit_code, error, launched)
      VALUES (?, ?, ?, ?, ?, ?, ?, ?);`, Table),
		inv.ID,
		string(inv.Command),
		inv.StartedAt.UTC().Format(timeLayout),
		inv.CommandLine,
		inv.Duration.Milliseconds(),
		inv.ExitCode,
		inv.Err,
		inv.Launched,
	)
	if err != nil {
		return fmt.Errorf("recording invocation %s: %w", inv.ID, err)
	}
	return nil
}

// Recent returns up to limit invocations, newest first. A limit of zero or
// less returns everything.
func (j *Journal) Recent(ctx context.Context, limit int) ([]liquibase.Invocation, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.QueryContext(ctx, fmt.Sprintf(`
      SELECT id, command, started_at,
             COALESCE(command_line, ''), COALESCE(duration_ms, 0),
             COALESCE(exit_code, 0), COALESCE(error, ''),
             COALESCE(launched, COALESCE(exit_code, 0) >= 0)
      FROM %q
      ORDER BY started_at DESC, rowid DESC
      LIMIT ?;`, Table), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []liquibase.Invocation
	for rows.Next() {
		var (
			inv        liquibase.Invocation
			command    string
			startedAt  string
			durationMS int64
		)
		if err := rows.Scan(&inv.ID, &command, &startedAt, &inv.CommandLine, &durationMS, &inv.ExitCode, &inv.Err, &inv.Launched); err != nil {
			return nil, err
		}
		inv.Command = liquibase.Command(command)
		inv.Duration = time.Duration(durationMS) * time.Millisecond
		if inv.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
			return nil, fmt.Errorf("invocation %s has a malformed start time %q: %w", inv.ID, startedAt, err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}
