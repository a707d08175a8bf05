package liquibase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Option customises a Liquibase facade.
type Option func(*options)

type options struct {
	dialect   Dialect
	bundleDir string
	quiet     bool
	logger    *Logger
	runner    Runner
	recorder  Recorder
}

// WithDialect selects the built-in defaults. PostgreSQL is the default.
func WithDialect(d Dialect) Option { return func(o *options) { o.dialect = d } }

// WithBundleDir sets the directory holding the bundled liquibase/ and
// drivers/ folders. Defaults to DefaultBundleDir().
func WithBundleDir(dir string) Option { return func(o *options) { o.bundleDir = dir } }

// WithQuiet silences the logger and selects the internal bundled
// executable path (bin/liquibase), as used by test runs.
func WithQuiet(quiet bool) Option { return func(o *options) { o.quiet = quiet } }

// WithLogger replaces the logger built from the configured log level.
func WithLogger(l *Logger) Option { return func(o *options) { o.logger = l } }

// WithRunner replaces the process runner.
func WithRunner(r Runner) Option { return func(o *options) { o.runner = r } }

// WithRecorder registers a Recorder notified after every invocation.
func WithRecorder(r Recorder) Option { return func(o *options) { o.recorder = r } }

// Liquibase runs Liquibase commands against one merged configuration.
//
// The configuration is merged with the dialect defaults once, in New, and
// never changes afterwards. A Liquibase is safe for concurrent use; every
// call spawns its own process.
type Liquibase struct {
	cfg      Config
	logger   *Logger
	runner   Runner
	recorder Recorder
	now      func() time.Time
}

// New merges cfg over the dialect defaults and returns a facade. No
// validation happens here: a missing classpath or URL surfaces as an
// ExecutionError when Liquibase runs.
func New(cfg Config, opts ...Option) *Liquibase {
	o := options{dialect: PostgreSQL}
	for _, opt := range opts {
		opt(&o)
	}
	if o.bundleDir == "" {
		o.bundleDir = DefaultBundleDir()
	}

	merged := DefaultConfig(o.dialect, o.bundleDir, o.quiet).Merge(cfg)

	logger := o.logger
	switch {
	case logger == nil:
		logger = NewLogger(merged.LogLevel, o.quiet)
	case o.quiet:
		logger = &Logger{Out: logger.Out, Err: logger.Err, Color: logger.Color, Level: LogLevelOff}
	}

	runner := o.runner
	if runner == nil {
		runner = &ProcessRunner{Logger: logger}
	}

	return &Liquibase{
		cfg:      merged,
		logger:   logger,
		runner:   runner,
		recorder: o.recorder,
		now:      time.Now,
	}
}

// Config returns a copy of the merged configuration.
func (l *Liquibase) Config() Config { return l.cfg.clone() }

// Logger returns the facade's logger.
func (l *Liquibase) Logger() *Logger { return l.logger }

// CommandLine assembles the invocation for cmd without running it.
func (l *Liquibase) CommandLine(cmd Command, params ParameterSet) (CommandLine, error) {
	ps, err := ParseParameters(cmd, params)
	if err != nil {
		return CommandLine{}, err
	}
	return BuildCommandLine(l.cfg, cmd, ps)
}

// Exec runs cmd with params and returns Liquibase's stdout. Parameters
// the command does not accept are rejected before anything is spawned.
func (l *Liquibase) Exec(ctx context.Context, cmd Command, params ParameterSet) (string, error) {
	cl, err := l.CommandLine(cmd, params)
	if err != nil {
		return "", err
	}

	started := l.now()
	out, runErr := l.runner.Run(ctx, cl)
	l.record(ctx, cl, started, runErr)
	return out, runErr
}

// Start is the asynchronous form of Exec. It returns at once; the
// Execution completes when the child process exits.
func (l *Liquibase) Start(ctx context.Context, cmd Command, params ParameterSet) *Execution {
	return goExecution(func() (string, error) {
		return l.Exec(ctx, cmd, params)
	})
}

func (l *Liquibase) run(ctx context.Context, cmd Command, record any) (string, error) {
	return l.Exec(ctx, cmd, ParametersOf(record))
}

// record never alters the caller's result; failures are only logged.
func (l *Liquibase) record(ctx context.Context, cl CommandLine, started time.Time, runErr error) {
	if l.recorder == nil {
		return
	}
	inv := Invocation{
		ID:          uuid.NewString(),
		Command:     cl.Command,
		CommandLine: cl.Redacted(),
		StartedAt:   started,
		Duration:    l.now().Sub(started),
		Launched:    true,
	}
	if runErr != nil {
		var launchErr *LaunchError
		inv.Launched = !errors.As(runErr, &launchErr)
		inv.Err = runErr.Error()
		inv.ExitCode = -1
		if code, ok := ExitCode(runErr); ok {
			inv.ExitCode = code
		}
	}
	if err := l.recorder.Record(context.WithoutCancel(ctx), inv); err != nil {
		l.logger.Warnf("failed to record invocation %s: %v", inv.ID, err)
	}
}

// Update deploys every changeset not yet applied.
func (l *Liquibase) Update(ctx context.Context, p UpdateParams) (string, error) {
	return l.run(ctx, Update, p)
}

// UpdateSQL prints the SQL update would run.
func (l *Liquibase) UpdateSQL(ctx context.Context, p UpdateParams) (string, error) {
	return l.run(ctx, UpdateSQL, p)
}

// UpdateCount deploys the next p.Count changesets.
func (l *Liquibase) UpdateCount(ctx context.Context, p UpdateCountParams) (string, error) {
	return l.run(ctx, UpdateCount, p)
}

func (l *Liquibase) UpdateCountSQL(ctx context.Context, p UpdateCountParams) (string, error) {
	return l.run(ctx, UpdateCountSQL, p)
}

// UpdateTestingRollback updates, rolls back, then updates again.
func (l *Liquibase) UpdateTestingRollback(ctx context.Context) (string, error) {
	return l.run(ctx, UpdateTestingRollback, nil)
}

// UpdateToTag deploys changesets up to and including p.Tag.
func (l *Liquibase) UpdateToTag(ctx context.Context, p TagParams) (string, error) {
	return l.run(ctx, UpdateToTag, p)
}

func (l *Liquibase) UpdateToTagSQL(ctx context.Context, p TagParams) (string, error) {
	return l.run(ctx, UpdateToTagSQL, p)
}

// Validate checks the changelog for errors.
func (l *Liquibase) Validate(ctx context.Context) (string, error) {
	return l.run(ctx, Validate, nil)
}

// CalculateCheckSum prints the checksum of one changeset.
func (l *Liquibase) CalculateCheckSum(ctx context.Context, p CalculateCheckSumParams) (string, error) {
	return l.run(ctx, CalculateCheckSum, p)
}

// Rollback reverts changes made after p.Tag.
func (l *Liquibase) Rollback(ctx context.Context, p TagParams) (string, error) {
	return l.run(ctx, Rollback, p)
}

func (l *Liquibase) RollbackSQL(ctx context.Context, p TagParams) (string, error) {
	return l.run(ctx, RollbackSQL, p)
}

// RollbackCount reverts the last p.Count changesets.
func (l *Liquibase) RollbackCount(ctx context.Context, p CountParams) (string, error) {
	return l.run(ctx, RollbackCount, p)
}

func (l *Liquibase) RollbackCountSQL(ctx context.Context, p CountParams) (string, error) {
	return l.run(ctx, RollbackCountSQL, p)
}

// RollbackToDate reverts changes made after p.Date.
func (l *Liquibase) RollbackToDate(ctx context.Context, p DateParams) (string, error) {
	return l.run(ctx, RollbackToDate, p)
}

func (l *Liquibase) RollbackToDateSQL(ctx context.Context, p DateParams) (string, error) {
	return l.run(ctx, RollbackToDateSQL, p)
}

// Snapshot captures the current state of the target database.
func (l *Liquibase) Snapshot(ctx context.Context, p SnapshotParams) (string, error) {
	return l.run(ctx, Snapshot, p)
}

// SnapshotReference captures the current state of the reference database.
func (l *Liquibase) SnapshotReference(ctx context.Context, p SnapshotParams) (string, error) {
	return l.run(ctx, SnapshotReference, p)
}

// Status reports how many changesets are pending.
func (l *Liquibase) Status(ctx context.Context, p StatusParams) (string, error) {
	return l.run(ctx, Status, p)
}

func (l *Liquibase) SyncHub(ctx context.Context, p SyncHubParams) (string, error) {
	return l.run(ctx, SyncHub, p)
}

// Tag marks the current database state with p.Tag.
func (l *Liquibase) Tag(ctx context.Context, p TagParams) (string, error) {
	return l.run(ctx, Tag, p)
}

func (l *Liquibase) TagExists(ctx context.Context, p TagParams) (string, error) {
	return l.run(ctx, TagExists, p)
}

// UnexpectedChangeSets lists changesets applied to the database but
// missing from the changelog.
func (l *Liquibase) UnexpectedChangeSets(ctx context.Context, p StatusParams) (string, error) {
	return l.run(ctx, UnexpectedChangeSets, p)
}

// DropAll drops every database object owned by the configured user.
func (l *Liquibase) DropAll(ctx context.Context) (string, error) {
	return l.run(ctx, DropAll, nil)
}

func (l *Liquibase) FutureRollbackSQL(ctx context.Context) (string, error) {
	return l.run(ctx, FutureRollbackSQL, nil)
}

func (l *Liquibase) FutureRollbackCountSQL(ctx context.Context, p CountParams) (string, error) {
	return l.run(ctx, FutureRollbackCountSQL, p)
}

// GenerateChangeLog writes a changelog describing the current database.
func (l *Liquibase) GenerateChangeLog(ctx context.Context, p GenerateChangeLogParams) (string, error) {
	return l.run(ctx, GenerateChangeLog, p)
}

func (l *Liquibase) Help(ctx context.Context) (string, error) {
	return l.run(ctx, Help, nil)
}

// History lists deployments and their changesets.
func (l *Liquibase) History(ctx context.Context) (string, error) {
	return l.run(ctx, History, nil)
}

// ListLocks shows who holds the DATABASECHANGELOGLOCK lock.
func (l *Liquibase) ListLocks(ctx context.Context) (string, error) {
	return l.run(ctx, ListLocks, nil)
}

func (l *Liquibase) MarkNextChangeSetRan(ctx context.Context) (string, error) {
	return l.run(ctx, MarkNextChangeSetRan, nil)
}

func (l *Liquibase) MarkNextChangeSetRanSQL(ctx context.Context) (string, error) {
	return l.run(ctx, MarkNextChangeSetRanSQL, nil)
}

func (l *Liquibase) RegisterChangeLog(ctx context.Context) (string, error) {
	return l.run(ctx, RegisterChangeLog, nil)
}

// ReleaseLocks removes the Liquibase lock record.
func (l *Liquibase) ReleaseLocks(ctx context.Context) (string, error) {
	return l.run(ctx, ReleaseLocks, nil)
}

// ChangelogSync marks every changeset as applied without running it.
func (l *Liquibase) ChangelogSync(ctx context.Context) (string, error) {
	return l.run(ctx, ChangelogSync, nil)
}

func (l *Liquibase) ChangelogSyncSQL(ctx context.Context) (string, error) {
	return l.run(ctx, ChangelogSyncSQL, nil)
}

func (l *Liquibase) ChangelogSyncToTag(ctx context.Context, p TagParams) (string, error) {
	return l.run(ctx, ChangelogSyncToTag, p)
}

func (l *Liquibase) ChangelogSyncToTagSQL(ctx context.Context, p TagParams) (string, error) {
	return l.run(ctx, ChangelogSyncToTagSQL, p)
}

// ClearCheckSums removes stored checksums so they are recomputed.
func (l *Liquibase) ClearCheckSums(ctx context.Context) (string, error) {
	return l.run(ctx, ClearCheckSums, nil)
}

// DbDoc generates Javadoc-style documentation for the changelog.
func (l *Liquibase) DbDoc(ctx context.Context, p DbDocParams) (string, error) {
	return l.run(ctx, DbDoc, p)
}

func (l *Liquibase) DeactivateChangeLog(ctx context.Context) (string, error) {
	return l.run(ctx, DeactivateChangeLog, nil)
}

// Diff compares the target database with the reference database.
func (l *Liquibase) Diff(ctx context.Context, p DiffParams) (string, error) {
	return l.run(ctx, Diff, p)
}

// DiffChangelog writes the differences to the reference database as a changelog.
func (l *Liquibase) DiffChangelog(ctx context.Context, p DiffChangeLogParams) (string, error) {
	return l.run(ctx, DiffChangeLog, p)
}
