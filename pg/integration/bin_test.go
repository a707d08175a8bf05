package main_test

import (
	"database/sql"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var (
	cliBinary string
	bundleDir string
	workDir   string
)

// Global variables for the test database.
var (
	testDBName = "goliquibase_cli_test"
	testSchema = "goliquibase_schema"
	// Base connection string for DSN-based connections used in TestMain.
	baseConnStr = "host=localhost port=5432 user=postgres sslmode=disable"
)

const changelog = `--liquibase formatted sql

--changeset goliquibase:1
CREATE TABLE widgets (id INT PRIMARY KEY, name TEXT);
--rollback DROP TABLE widgets;

--changeset goliquibase:2
CREATE TABLE gadgets (id INT PRIMARY KEY);
--rollback DROP TABLE gadgets;
`

// TestMain needs a local PostgreSQL and a Liquibase bundle (a directory with
// liquibase/ and drivers/) named by GOLIQUIBASE_BUNDLE_DIR. It creates the
// test database, builds the CLI binary, runs the tests and cleans up.
func TestMain(m *testing.M) {
	bundleDir = os.Getenv("GOLIQUIBASE_BUNDLE_DIR")
	if bundleDir == "" {
		fmt.Fprintln(os.Stderr, "skipping liquibase-pg integration tests: GOLIQUIBASE_BUNDLE_DIR not set")
		os.Exit(0)
	}

	// === Set up Test Database ===
	defaultConn := baseConnStr + " dbname=postgres"
	db, err := sql.Open("pgx", defaultConn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to postgres: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err = db.Ping(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to ping postgres: %v\n", err)
		os.Exit(1)
	}

	_, _ = db.Exec("DROP DATABASE IF EXISTS " + testDBName)
	if _, err = db.Exec("CREATE DATABASE " + testDBName); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create test database: %v\n", err)
		os.Exit(1)
	}

	// Wait briefly to ensure the new test database is ready.
	time.Sleep(1 * time.Second)

	testDB, err := sql.Open("pgx", baseConnStr+" dbname="+testDBName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to test database: %v\n", err)
		os.Exit(1)
	}
	if _, err = testDB.Exec("CREATE SCHEMA IF NOT EXISTS " + testSchema); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create test schema: %v\n", err)
		os.Exit(1)
	}
	testDB.Close()

	// === Changelog ===
	workDir, err = os.MkdirTemp("", "liquibase-pg-integration")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create work dir: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(filepath.Join(workDir, "changelog.sql"), []byte(changelog), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write changelog: %v\n", err)
		os.Exit(1)
	}

	// === Build CLI Binary ===
	cliBinary = filepath.Join(workDir, "liquibase-pg-integration")
	buildCmd := exec.Command("go", "build", "-o", cliBinary, "../")
	buildCmd.Stdout = os.Stdout
	buildCmd.Stderr = os.Stderr
	if err := buildCmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to build CLI binary: %v\n", err)
		os.Exit(1)
	}

	// === Run Tests ===
	code := m.Run()

	// === Tear Down Test Database ===
	_, err = db.Exec(fmt.Sprintf("SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname='%s'", testDBName))
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not terminate connections: %v\n", err)
	}
	if _, err = db.Exec("DROP DATABASE IF EXISTS " + testDBName); err != nil {
		fmt.Fprintf(os.Stderr, "failed to drop test database: %v\n", err)
	}

	os.RemoveAll(workDir)
	os.Exit(code)
}

// helperRun runs the built CLI binary from the work directory.
func helperRun(args []string, extraEnv ...string) (string, error) {
	full := append([]string{"--bundle-dir", bundleDir, "--changelog", "changelog.sql", "--log-level", "info"}, args...)
	cmd := exec.Command(cliBinary, full...)
	cmd.Dir = workDir
	cmd.Env = append(os.Environ(), extraEnv...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// makeTestConnURL constructs a URL-style DSN, for example:
//
//	postgres://postgres@localhost:5432/goliquibase_cli_test?sslmode=disable&search_path=goliquibase_schema
func makeTestConnURL() string {
	return fmt.Sprintf("postgres://postgres@localhost:5432/%s?sslmode=disable&search_path=%s", testDBName, testSchema)
}

// tableExists reports whether table exists in the test schema.
func tableExists(t *testing.T, table string) bool {
	t.Helper()
	db, err := sql.Open("pgx", baseConnStr+" dbname="+testDBName)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	defer db.Close()

	var exists bool
	q := `SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema=$1 AND table_name=$2)`
	if err := db.QueryRow(q, testSchema, table).Scan(&exists); err != nil {
		t.Fatalf("failed to query tables: %v", err)
	}
	return exists
}

// TestCLIUpdateAndRollback applies the changelog, tags it and rolls back one changeset.
func TestCLIUpdateAndRollback(t *testing.T) {
	env := "DATABASE_URL=" + makeTestConnURL()

	out, err := helperRun([]string{"update"}, env)
	if err != nil {
		t.Fatalf("CLI update command failed: %v; output: %s", err, out)
	}
	if !tableExists(t, "widgets") || !tableExists(t, "gadgets") {
		t.Fatalf("expected update to create both tables; output: %s", out)
	}

	out, err = helperRun([]string{"tag", "--tag", "v1"}, env)
	if err != nil {
		t.Fatalf("CLI tag command failed: %v; output: %s", err, out)
	}

	out, err = helperRun([]string{"rollbackCount", "--count", "1"}, env)
	if err != nil {
		t.Fatalf("CLI rollbackCount command failed: %v; output: %s", err, out)
	}
	if tableExists(t, "gadgets") {
		t.Errorf("expected rollbackCount to drop gadgets; output: %s", out)
	}
	if !tableExists(t, "widgets") {
		t.Errorf("expected widgets to survive the rollback; output: %s", out)
	}
}

// TestCLIStatus checks that status reports the pending changeset after a rollback.
func TestCLIStatus(t *testing.T) {
	out, err := helperRun([]string{"--conn", makeTestConnURL(), "status", "--verbose"})
	if err != nil {
		t.Fatalf("CLI status command failed: %v; output: %s", err, out)
	}
	if !strings.Contains(out, "changelog.sql") {
		t.Errorf("expected status to mention the changelog, got:\n%s", out)
	}
}

// TestCLIValidateFailure checks that a broken changelog surfaces Liquibase's exit code.
func TestCLIValidateFailure(t *testing.T) {
	out, err := helperRun([]string{"--conn", makeTestConnURL(), "--changelog", "missing.sql", "validate"})
	if err == nil {
		t.Fatalf("expected validate to fail for a missing changelog; output: %s", out)
	}
	if !strings.Contains(out, "exited with code") {
		t.Errorf("expected an execution error, got:\n%s", out)
	}
}
