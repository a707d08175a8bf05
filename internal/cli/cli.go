// Package cli builds the command tree shared by the database-specific
// Liquibase CLIs.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"reflect"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	liquibase "github.com/bcomnes/goliquibase"
	"github.com/bcomnes/goliquibase/internal/journal"
	"github.com/bcomnes/goliquibase/internal/metrics"
)

// Driver describes one database-specific CLI.
type Driver struct {
	// Name is the binary name, e.g. "liquibase-pg".
	Name    string
	Dialect liquibase.Dialect

	// EnvVar holds the connection string when --conn is not given.
	EnvVar   string
	ConnHelp string

	// Resolve converts a native connection string into connection attributes.
	Resolve func(conn string) (liquibase.Config, error)

	// Runner replaces the process runner. Nil runs the real executable.
	Runner liquibase.Runner
}

// globals holds the persistent flags.
type globals struct {
	conn        string
	configPath  string
	envFile     string
	changelog   string
	classpath   string
	executable  string
	bundleDir   string
	logLevel    string
	quiet       bool
	logFile     string
	journalPath string
	metricsFile string
	version     bool
}

// Run executes the CLI with args (without the program name) and returns
// the process exit status. A failed Liquibase run exits with the child's
// code.
func (d *Driver) Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	root := d.rootCommand(stdout, stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	if code, ok := liquibase.ExitCode(err); ok && code > 0 {
		return code
	}
	return 1
}

// Main runs the CLI against the real process and exits.
func (d *Driver) Main() {
	os.Exit(d.Run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func (d *Driver) rootCommand(stdout, stderr io.Writer) *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:   d.Name + " [command] [flags]",
		Short: fmt.Sprintf("Run Liquibase against a %s database", d.Dialect),
		Long: fmt.Sprintf(`%s runs the bundled Liquibase against a %s database.

Connection precedence: --conn, then $%s, then "conn" in the config file,
then the built-in %s defaults.`, d.Name, d.Dialect, d.EnvVar, d.Dialect),
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if g.version {
				fmt.Fprintf(stdout, "%s version: %s\n", d.Name, liquibase.Version)
				return nil
			}
			return cmd.Help()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&g.conn, "conn", "", d.ConnHelp+" Can also be set via "+d.EnvVar+" env var.")
	pf.StringVar(&g.configPath, "config", "", "Path to a JSON (.json) or YAML configuration file")
	pf.StringVar(&g.envFile, "env-file", "", "Load environment variables from this file (default: .env when present)")
	pf.StringVar(&g.changelog, "changelog", "", "Root changelog file")
	pf.StringVar(&g.classpath, "classpath", "", "JDBC driver classpath")
	pf.StringVar(&g.executable, "liquibase", "", "Path to the Liquibase executable")
	pf.StringVar(&g.bundleDir, "bundle-dir", "", "Directory holding the bundled liquibase/ and drivers/ folders")
	pf.StringVar(&g.logLevel, "log-level", "", "Log level: off, severe, warning, info or debug")
	pf.BoolVar(&g.quiet, "quiet", false, "Silence all logging and use the internal bundle layout")
	pf.StringVar(&g.logFile, "log-file", "", "Also write log output to this file (rotated)")
	pf.StringVar(&g.journalPath, "journal", "", "Record every invocation in this SQLite file")
	pf.StringVar(&g.metricsFile, "metrics-textfile", "", "Write Prometheus metrics to this file after each run")
	root.Flags().BoolVarP(&g.version, "version", "v", false, "Show version")

	// "help" is a Liquibase command; keep cobra's own help command out of its way.
	root.SetHelpCommand(&cobra.Command{Hidden: true})
	root.AddGroup(&cobra.Group{ID: "liquibase", Title: "Liquibase Commands:"})
	for _, c := range liquibase.Commands() {
		root.AddCommand(d.liquibaseCommand(g, c, stdout))
	}
	root.AddCommand(d.journalCommand(g, stdout))
	return root
}

func (d *Driver) liquibaseCommand(g *globals, c liquibase.Command, stdout io.Writer) *cobra.Command {
	fields := liquibase.ParamFields(c)
	cmd := &cobra.Command{
		Use:     string(c),
		Short:   "Run liquibase " + string(c),
		GroupID: "liquibase",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := changedParams(cmd.Flags(), fields)
			if err != nil {
				return err
			}
			return d.withLiquibase(cmd.Context(), g, stdout, cmd.ErrOrStderr(), func(ctx context.Context, lb *liquibase.Liquibase) error {
				if !g.quiet {
					fmt.Fprintf(stdout, "[%s] Starting %s...\n", time.Now().Format(time.Kitchen), c)
				}
				out, err := lb.Exec(ctx, c, params)
				if err != nil {
					return err
				}
				// A silenced logger has not streamed stdout, so print it now.
				if lb.Logger().Level == liquibase.LogLevelOff {
					io.WriteString(stdout, out)
				}
				if !g.quiet {
					fmt.Fprintf(stdout, "[%s] %s finished.\n", time.Now().Format(time.Kitchen), c)
				}
				return nil
			})
		},
	}

	for _, f := range fields {
		switch f.Kind {
		case reflect.Bool:
			cmd.Flags().Bool(f.Name, false, f.Usage)
		case reflect.Int:
			cmd.Flags().Int(f.Name, 0, f.Usage)
		default:
			cmd.Flags().String(f.Name, "", f.Usage)
		}
		if !f.OmitEmpty {
			_ = cmd.MarkFlagRequired(f.Name)
		}
	}
	return cmd
}

// changedParams collects only the flags the user actually set.
func changedParams(fs *pflag.FlagSet, fields []liquibase.ParamField) (liquibase.ParameterSet, error) {
	params := liquibase.ParameterSet{}
	for _, f := range fields {
		if !fs.Changed(f.Name) {
			continue
		}
		var (
			v   any
			err error
		)
		switch f.Kind {
		case reflect.Bool:
			v, err = fs.GetBool(f.Name)
		case reflect.Int:
			v, err = fs.GetInt(f.Name)
		default:
			v, err = fs.GetString(f.Name)
		}
		if err != nil {
			return nil, err
		}
		params[f.Name] = v
	}
	return params, nil
}

func (d *Driver) journalCommand(g *globals, stdout io.Writer) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "List recent invocations recorded with --journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if g.journalPath == "" {
				return errors.New("--journal is required for the journal command")
			}
			j, err := journal.Open(cmd.Context(), g.journalPath)
			if err != nil {
				return err
			}
			defer j.Close()

			invs, err := j.Recent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("reading journal: %w", err)
			}
			if len(invs) == 0 {
				fmt.Fprintln(stdout, "No invocations recorded.")
				return nil
			}
			for _, inv := range invs {
				status := "ok"
				if !inv.Succeeded() {
					status = fmt.Sprintf("exit %d", inv.ExitCode)
				}
				fmt.Fprintf(stdout, "%s  %-24s %-8s %8s  %s\n",
					inv.StartedAt.Local().Format(time.DateTime),
					inv.Command,
					status,
					inv.Duration.Round(time.Millisecond),
					inv.ID)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of invocations to list (0 lists all)")
	return cmd
}

// withLiquibase resolves the configuration, opens the optional sinks and
// calls f with a ready facade.
func (d *Driver) withLiquibase(ctx context.Context, g *globals, stdout, stderr io.Writer, f func(ctx context.Context, lb *liquibase.Liquibase) error) error {
	if err := loadEnv(g.envFile); err != nil {
		return fmt.Errorf("loading env file: %w", err)
	}

	var fileCfg fileConfig
	if g.configPath != "" {
		var err error
		if fileCfg, err = loadConfig(g.configPath); err != nil {
			return fmt.Errorf("loading config file: %w", err)
		}
	}

	// Precedence: flag > env > config file > dialect defaults.
	cfg := fileCfg.Config
	if conn := firstNonEmpty(g.conn, os.Getenv(d.EnvVar), fileCfg.Conn); conn != "" {
		connCfg, err := resolveConn(d, conn)
		if err != nil {
			return err
		}
		cfg = cfg.Merge(connCfg)
	}
	cfg = cfg.Merge(liquibase.Config{
		ChangeLogFile: g.changelog,
		Classpath:     g.classpath,
		Liquibase:     g.executable,
		LogLevel:      g.logLevel,
	})

	logger, closeLog := newLogger(stdout, stderr, cfg.LogLevel, g.quiet, g.logFile)
	defer closeLog()

	opts := []liquibase.Option{
		liquibase.WithDialect(d.Dialect),
		liquibase.WithQuiet(g.quiet),
		liquibase.WithLogger(logger),
	}
	if g.bundleDir != "" {
		opts = append(opts, liquibase.WithBundleDir(g.bundleDir))
	}
	if d.Runner != nil {
		opts = append(opts, liquibase.WithRunner(d.Runner))
	}

	var recorders []liquibase.Recorder
	if g.journalPath != "" {
		j, err := journal.Open(ctx, g.journalPath)
		if err != nil {
			return err
		}
		defer j.Close()
		recorders = append(recorders, j)
	}
	var m *metrics.Metrics
	if g.metricsFile != "" {
		m = metrics.New()
		recorders = append(recorders, m)
	}
	if len(recorders) > 0 {
		opts = append(opts, liquibase.WithRecorder(liquibase.Recorders(recorders...)))
	}

	runErr := f(ctx, liquibase.New(cfg, opts...))

	if m != nil {
		if err := m.WriteTextfile(g.metricsFile); err != nil {
			logger.Warnf("%v", err)
		}
	}
	return runErr
}
