package liquibase

import (
	"fmt"
	"sort"
)

// Command is one operation of the Liquibase command-line vocabulary.
type Command string

const (
	CalculateCheckSum       Command = "calculateCheckSum"
	ChangelogSync           Command = "changelogSync"
	ChangelogSyncSQL        Command = "changelogSyncSQL"
	ChangelogSyncToTag      Command = "changelogSyncToTag"
	ChangelogSyncToTagSQL   Command = "changelogSyncToTagSQL"
	ClearCheckSums          Command = "clearCheckSums"
	DbDoc                   Command = "dbDoc"
	DeactivateChangeLog     Command = "deactivateChangeLog"
	Diff                    Command = "diff"
	DiffChangeLog           Command = "diffChangeLog"
	DropAll                 Command = "dropAll"
	FutureRollbackSQL       Command = "futureRollbackSQL"
	FutureRollbackCountSQL  Command = "futureRollbackCountSQL"
	GenerateChangeLog       Command = "generateChangeLog"
	Help                    Command = "help"
	History                 Command = "history"
	ListLocks               Command = "listLocks"
	MarkNextChangeSetRan    Command = "markNextChangeSetRan"
	MarkNextChangeSetRanSQL Command = "markNextChangeSetRanSQL"
	RegisterChangeLog       Command = "registerChangeLog"
	ReleaseLocks            Command = "releaseLocks"
	Rollback                Command = "rollback"
	RollbackCount           Command = "rollbackCount"
	RollbackCountSQL        Command = "rollbackCountSQL"
	RollbackSQL             Command = "rollbackSQL"
	RollbackToDate          Command = "rollbackToDate"
	RollbackToDateSQL       Command = "rollbackToDateSQL"
	Snapshot                Command = "snapshot"
	SnapshotReference       Command = "snapshotReference"
	Status                  Command = "status"
	SyncHub                 Command = "syncHub"
	Tag                     Command = "tag"
	TagExists               Command = "tagExists"
	UnexpectedChangeSets    Command = "unexpectedChangeSets"
	Update                  Command = "update"
	UpdateSQL               Command = "updateSQL"
	UpdateCount             Command = "updateCount"
	UpdateCountSQL          Command = "updateCountSQL"
	UpdateTestingRollback   Command = "updateTestingRollback"
	UpdateToTag             Command = "updateToTag"
	UpdateToTagSQL          Command = "updateToTagSQL"
	Validate                Command = "validate"
)

var commands = map[Command]struct{}{
	CalculateCheckSum: {}, ChangelogSync: {}, ChangelogSyncSQL: {}, ChangelogSyncToTag: {},
	ChangelogSyncToTagSQL: {}, ClearCheckSums: {}, DbDoc: {}, DeactivateChangeLog: {},
	Diff: {}, DiffChangeLog: {}, DropAll: {}, FutureRollbackSQL: {}, FutureRollbackCountSQL: {},
	GenerateChangeLog: {}, Help: {}, History: {}, ListLocks: {}, MarkNextChangeSetRan: {},
	MarkNextChangeSetRanSQL: {}, RegisterChangeLog: {}, ReleaseLocks: {}, Rollback: {},
	RollbackCount: {}, RollbackCountSQL: {}, RollbackSQL: {}, RollbackToDate: {},
	RollbackToDateSQL: {}, Snapshot: {}, SnapshotReference: {}, Status: {}, SyncHub: {},
	Tag: {}, TagExists: {}, UnexpectedChangeSets: {}, Update: {}, UpdateSQL: {},
	UpdateCount: {}, UpdateCountSQL: {}, UpdateTestingRollback: {}, UpdateToTag: {},
	UpdateToTagSQL: {}, Validate: {},
}

// Commands returns every known command in lexicographic order.
func Commands() []Command {
	out := make([]Command, 0, len(commands))
	for c := range commands {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Valid reports whether c belongs to the Liquibase vocabulary.
func (c Command) Valid() bool {
	_, ok := commands[c]
	return ok
}

func (c Command) String() string { return string(c) }

// ParseCommand validates s as a command name. Matching is exact, as on the
// Liquibase command line.
func ParseCommand(s string) (Command, error) {
	c := Command(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCommand, s)
	}
	return c, nil
}
