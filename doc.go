// SPDX-License-Identifier: MIT

// Package liquibase is a thin Go wrapper around the Liquibase command-line
// tool. It assembles a Liquibase command line from a typed configuration,
// runs the Liquibase executable as a child process and hands back what it
// printed.
//
// Nothing here parses changelogs, computes checksums or connects to the
// target database; Liquibase does all of that.
//
// # Install
//
//	go get github.com/bcomnes/goliquibase@latest
//
// # Quick start
//
//	import "github.com/bcomnes/goliquibase"
//
//	func main() {
//	    lb := liquibase.New(liquibase.Config{
//	        ChangeLogFile: "db/changelog.xml",
//	        URL:           "jdbc:postgresql://localhost:5432/app",
//	        Username:      "app",
//	        Password:      os.Getenv("DB_PASSWORD"),
//	    })
//	    out, err := lb.Status(context.Background(), liquibase.StatusParams{Verbose: true})
//	}
//
// # Configuration
//
// Config fields map one to one onto Liquibase global flags:
//
//   - Liquibase     : path to the Liquibase launcher
//   - ChangeLogFile : root changelog
//   - URL           : JDBC URL of the target database
//   - Username, Password
//   - Classpath     : JDBC driver jar(s)
//   - DefaultSchemaName, DefaultCatalogName, LogLevel,
//     LiquibaseProLicenseKey, ReferenceURL, ReferenceUsername,
//     ReferencePassword
//   - Extra         : any other global flag
//
// New merges the Config over the defaults of a dialect (PostgreSQL unless
// WithDialect says otherwise). Fields you set always win; empty fields are
// absent. PostgresConfig turns a postgres:// URL into the JDBC form.
//
// # Command lines
//
// Globals come first, sorted by key and written raw; then the command;
// then the command parameters, sorted by key and JSON encoded:
//
//	<liquibase> --changeLogFile=db/changelog.xml --url=jdbc:... status --verbose=true
//
// The process receives a discrete argument vector. No shell is involved,
// so values containing spaces or shell metacharacters are passed through
// untouched.
//
// # Results
//
// Every command method blocks until Liquibase exits and returns its
// stdout. A launcher that cannot be started yields a *LaunchError; a
// non-zero exit yields an *ExecutionError holding the captured stderr.
// Start runs a command in the background and returns an *Execution.
//
// # CLI helpers
//
//	go install github.com/bcomnes/goliquibase/cmd/liquibase@latest  # forwards args to Liquibase
//	go install github.com/bcomnes/goliquibase/pg@latest             # liquibase-pg
//	go install github.com/bcomnes/goliquibase/sqlite@latest         # liquibase-sqlite
//
// # Versioning
//
//	var Version = "vX.Y.Z"
//
// Generated documentation; update whenever public API or CLI flags change.
package liquibase
