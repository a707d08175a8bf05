package liquibase

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Dialect selects the built-in defaults a facade starts from.
type Dialect string

const (
	PostgreSQL Dialect = "postgresql"
	MSSQL      Dialect = "mssql"
	SQLite     Dialect = "sqlite"
)

// Bundled JDBC driver jars, relative to the bundle directory.
const (
	PostgreSQLDriverJar = "drivers/postgresql-42.4.2.jar"
	MSSQLDriverJar      = "drivers/mssql-jdbc-7.4.1.jre8.jar"
	SQLiteDriverJar     = "drivers/sqlite-jdbc-3.41.2.2.jar"
)

// ParseDialect accepts the dialect names plus the common aliases "pg",
// "postgres", "sqlserver" and "sqlite3".
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "postgresql", "postgres", "pg":
		return PostgreSQL, nil
	case "mssql", "sqlserver":
		return MSSQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return "", fmt.Errorf("dialect '%s' not supported. Must be one of: postgresql, mssql or sqlite", s)
	}
}

// DefaultBundleDir is the directory holding the running executable, where
// a packaged distribution keeps its liquibase/ and drivers/ folders.
func DefaultBundleDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// BundledLiquibasePath returns the Liquibase launcher inside bundleDir.
// The internal layout (bin/liquibase) is the one used by this repository's
// own test runs; distributions ship liquibase/ at the top level.
func BundledLiquibasePath(bundleDir string, internal bool) string {
	name := "liquibase"
	if runtime.GOOS == "windows" {
		name = "liquibase.bat"
	}
	if internal {
		return filepath.Join(bundleDir, "bin", "liquibase", name)
	}
	return filepath.Join(bundleDir, "liquibase", name)
}

// DefaultConfig returns the built-in configuration for a dialect. Only the
// executable, changelog, URL, username and classpath are defaulted.
func DefaultConfig(d Dialect, bundleDir string, internal bool) Config {
	cfg := Config{Liquibase: BundledLiquibasePath(bundleDir, internal)}
	switch d {
	case MSSQL:
		cfg.ChangeLogFile = "changelog/changelog.mssql.xml"
		cfg.URL = "jdbc:sqlserver://localhost:1433;database=master;"
		cfg.Username = "sa"
		cfg.Classpath = filepath.Join(bundleDir, filepath.FromSlash(MSSQLDriverJar))
	case SQLite:
		cfg.ChangeLogFile = "changelog/changelog.sqlite.xml"
		cfg.URL = "jdbc:sqlite:liquibase.db"
		cfg.Classpath = filepath.Join(bundleDir, filepath.FromSlash(SQLiteDriverJar))
	default:
		cfg.ChangeLogFile = "changelog/changelog.postgresql.xml"
		cfg.URL = "jdbc:postgresql://localhost:5432/postgres"
		cfg.Username = "postgres"
		cfg.Classpath = filepath.Join(bundleDir, filepath.FromSlash(PostgreSQLDriverJar))
	}
	return cfg
}

// SQLiteConfig returns the connection attributes for a SQLite database file.
func SQLiteConfig(path string) (Config, error) {
	path = strings.TrimPrefix(path, "file:")
	if path == "" {
		return Config{}, fmt.Errorf("sqlite database path must not be empty")
	}
	if path != ":memory:" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return Config{}, fmt.Errorf("resolving sqlite path: %w", err)
		}
		path = filepath.ToSlash(abs)
	}
	return Config{URL: "jdbc:sqlite:" + path}, nil
}
