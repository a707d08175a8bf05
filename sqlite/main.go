// Package main implements liquibase-sqlite, a SQLite-specific CLI for the
// goliquibase wrapper. It accepts a database file path via the --conn flag
// or SQLITE_URL environment variable.
package main

import (
	liquibase "github.com/bcomnes/goliquibase"
	"github.com/bcomnes/goliquibase/internal/cli"
)

var driver = &cli.Driver{
	Name:     "liquibase-sqlite",
	Dialect:  liquibase.SQLite,
	EnvVar:   "SQLITE_URL",
	ConnHelp: `SQLite database file (e.g. "./db.sqlite").`,
	Resolve:  liquibase.SQLiteConfig,
}

func main() {
	driver.Main()
}
