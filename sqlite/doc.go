// SPDX-License-Identifier: MIT

// Package main provides liquibase-sqlite, a SQLite-specific command-line
// interface for the goliquibase wrapper.
//
// # Install
//
//	go install github.com/bcomnes/goliquibase/sqlite@latest
//
// # Synopsis
//
//	liquibase-sqlite [global flags] <command> [command flags]
//
// # Commands
//
// Every Liquibase command is a subcommand; see liquibase-pg for the flag
// layout, which is identical. journal lists invocations recorded with
// --journal.
//
// # Global flags
//
//	--conn string    SQLite database file. Overrides $SQLITE_URL and the "conn"
//	                 field in --config. Relative paths are made absolute.
//	--config string  JSON (.json) or YAML file mirroring liquibase.Config plus "conn".
//
// The remaining global flags match liquibase-pg.
//
// *Precedence:* --conn flag ➜ $SQLITE_URL ➜ "conn" in --config ➜ built-in defaults
//
// # Environment
//
//	SQLITE_URL  Database file used when --conn is omitted.
//
// # Examples
//
//	liquibase-sqlite --conn ./app.db --changelog db/changelog.xml update
//	liquibase-sqlite --conn ./app.db history
//
// # Exit status
//
// The program exits with Liquibase's own exit code when Liquibase fails, and 1
// on any other error.
package main
