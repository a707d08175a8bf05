// Package main implements liquibase, a thin launcher for the bundled
// Liquibase executable. Arguments are forwarded verbatim.
//
//	liquibase status --verbose           runs <bundle>/liquibase/liquibase status --verbose
//	liquibase --url=jdbc:... update      runs <bundle>/liquibase/liquibase --url=jdbc:... update
//	liquibase /usr/bin/liquibase history runs /usr/bin/liquibase history
//
// The exit status mirrors the child's. GOLIQUIBASE_LOG_LEVEL sets the log level.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	liquibase "github.com/bcomnes/goliquibase"
)

// newRunner builds the process runner; tests replace it with a spy.
var newRunner = func(logger *liquibase.Logger) liquibase.Runner {
	return &liquibase.ProcessRunner{Logger: logger}
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:                "liquibase [liquibase arguments...]",
		Short:              "Run the bundled Liquibase",
		DisableFlagParsing: true,
		SilenceErrors:      true,
		SilenceUsage:       true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := liquibase.ForwardedCommandLine(liquibase.BundledLiquibasePath(liquibase.DefaultBundleDir(), false), args)
			if err != nil {
				return err
			}
			logger := &liquibase.Logger{
				Out:   stdout,
				Err:   stderr,
				Level: liquibase.ResolveLogLevel(os.Getenv("GOLIQUIBASE_LOG_LEVEL"), false),
				Color: isTerminal(stdout),
			}
			_, err = newRunner(logger).Run(cmd.Context(), cl)
			return err
		},
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCommand(stdout, stderr)
	// cobra reads os.Args when handed nil.
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if code, ok := liquibase.ExitCode(err); ok && code > 0 {
			return code
		}
		return 1
	}
	return 0
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
