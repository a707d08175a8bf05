package liquibase

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ParameterSet maps command flag names to values (string, bool or integer).
type ParameterSet map[string]any

// Keys returns the parameter names in lexicographic order.
func (ps ParameterSet) Keys() []string {
	keys := make([]string, 0, len(ps))
	for k := range ps {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// UpdateParams is accepted by update and updateSQL.
type UpdateParams struct {
	Labels               string `flag:"labels,omitempty" help:"Labels expression selecting changesets"`
	Contexts             string `flag:"contexts,omitempty" help:"Contexts expression selecting changesets"`
	LiquibaseSchemaName  string `flag:"liquibaseSchemaName,omitempty" help:"Schema holding the Liquibase tracking tables"`
	LiquibaseCatalogName string `flag:"liquibaseCatalogName,omitempty" help:"Catalog holding the Liquibase tracking tables"`
}

// UpdateCountParams is accepted by updateCount and updateCountSQL.
type UpdateCountParams struct {
	Count    int    `flag:"count" help:"Number of changesets to apply"`
	Labels   string `flag:"labels,omitempty" help:"Labels expression selecting changesets"`
	Contexts string `flag:"contexts,omitempty" help:"Contexts expression selecting changesets"`
}

// TagParams carries a tag name. Accepted by tag, tagExists, rollback,
// rollbackSQL, updateToTag, updateToTagSQL, changelogSyncToTag and
// changelogSyncToTagSQL.
type TagParams struct {
	Tag string `flag:"tag" help:"Tag name"`
}

// CountParams carries a changeset count. Accepted by rollbackCount,
// rollbackCountSQL and futureRollbackCountSQL.
type CountParams struct {
	Count int `flag:"count" help:"Number of changesets"`
}

// DateParams is accepted by rollbackToDate and rollbackToDateSQL.
type DateParams struct {
	Date string `flag:"date" help:"Date/time to roll back to (YYYY-MM-DDTHH:MM:SS)"`
}

// NewDateParams formats t the way Liquibase parses rollback dates.
func NewDateParams(t time.Time) DateParams {
	return DateParams{Date: t.Format("2006-01-02T15:04:05")}
}

// SnapshotParams is accepted by snapshot and snapshotReference.
type SnapshotParams struct {
	SnapshotFormat string `flag:"snapshotFormat,omitempty" help:"Output format: txt, json or yaml"`
}

// SyncHubParams is accepted by syncHub.
type SyncHubParams struct {
	HubConnectionID string `flag:"hubConnectionId,omitempty" help:"Liquibase Hub connection id"`
	HubProjectID    string `flag:"hubProjectId,omitempty" help:"Liquibase Hub project id"`
}

// GenerateChangeLogParams is accepted by generateChangeLog.
type GenerateChangeLogParams struct {
	DiffTypes           string `flag:"diffTypes,omitempty" help:"Object types to include (tables,views,columns,...)"`
	DataOutputDirectory string `flag:"dataOutputDirectory,omitempty" help:"Directory for CSV data exports"`
	IncludeObjects      string `flag:"includeObjects,omitempty" help:"Objects to include"`
	ExcludeObjects      string `flag:"excludeObjects,omitempty" help:"Objects to exclude"`
	IncludeSchema       bool   `flag:"includeSchema,omitempty" help:"Include schema names in generated changesets"`
	IncludeCatalog      bool   `flag:"includeCatalog,omitempty" help:"Include catalog names in generated changesets"`
	IncludeTablespace   bool   `flag:"includeTablespace,omitempty" help:"Include tablespace names in generated changesets"`
	Schemas             string `flag:"schemas,omitempty" help:"Schemas to inspect"`
	OverwriteOutputFile bool   `flag:"overwriteOutputFile,omitempty" help:"Overwrite an existing changelog file"`
	ChangeSetAuthor     string `flag:"changeSetAuthor,omitempty" help:"Author written on generated changesets"`
	ChangeSetContext    string `flag:"changeSetContext,omitempty" help:"Context written on generated changesets"`
}

// CalculateCheckSumParams is accepted by calculateCheckSum.
type CalculateCheckSumParams struct {
	ChangeSetIdentifier string `flag:"changeSetIdentifier" help:"Changeset as filepath::id::author"`
}

// DbDocParams is accepted by dbDoc.
type DbDocParams struct {
	OutputDirectory string `flag:"outputDirectory" help:"Directory for the generated documentation"`
}

// DiffParams is accepted by diff.
type DiffParams struct {
	DiffTypes string `flag:"diffTypes,omitempty" help:"Object types to compare"`
	Schemas   string `flag:"schemas,omitempty" help:"Schemas to compare"`
}

// DiffChangeLogParams is accepted by diffChangeLog.
type DiffChangeLogParams struct {
	DiffTypes        string `flag:"diffTypes,omitempty" help:"Object types to compare"`
	Schemas          string `flag:"schemas,omitempty" help:"Schemas to compare"`
	ChangeSetAuthor  string `flag:"changeSetAuthor,omitempty" help:"Author written on generated changesets"`
	ChangeSetContext string `flag:"changeSetContext,omitempty" help:"Context written on generated changesets"`
}

// StatusParams is accepted by status and unexpectedChangeSets.
type StatusParams struct {
	Verbose bool `flag:"verbose,omitempty" help:"List every pending changeset"`
}

// commandParams maps each command to the record type it accepts.
// Commands missing here take no parameters.
var commandParams = map[Command]reflect.Type{
	Update:                 reflect.TypeOf(UpdateParams{}),
	UpdateSQL:              reflect.TypeOf(UpdateParams{}),
	UpdateCount:            reflect.TypeOf(UpdateCountParams{}),
	UpdateCountSQL:         reflect.TypeOf(UpdateCountParams{}),
	UpdateToTag:            reflect.TypeOf(TagParams{}),
	UpdateToTagSQL:         reflect.TypeOf(TagParams{}),
	Rollback:               reflect.TypeOf(TagParams{}),
	RollbackSQL:            reflect.TypeOf(TagParams{}),
	Tag:                    reflect.TypeOf(TagParams{}),
	TagExists:              reflect.TypeOf(TagParams{}),
	ChangelogSyncToTag:     reflect.TypeOf(TagParams{}),
	ChangelogSyncToTagSQL:  reflect.TypeOf(TagParams{}),
	RollbackCount:          reflect.TypeOf(CountParams{}),
	RollbackCountSQL:       reflect.TypeOf(CountParams{}),
	FutureRollbackCountSQL: reflect.TypeOf(CountParams{}),
	RollbackToDate:         reflect.TypeOf(DateParams{}),
	RollbackToDateSQL:      reflect.TypeOf(DateParams{}),
	Snapshot:               reflect.TypeOf(SnapshotParams{}),
	SnapshotReference:      reflect.TypeOf(SnapshotParams{}),
	SyncHub:                reflect.TypeOf(SyncHubParams{}),
	GenerateChangeLog:      reflect.TypeOf(GenerateChangeLogParams{}),
	CalculateCheckSum:      reflect.TypeOf(CalculateCheckSumParams{}),
	DbDoc:                  reflect.TypeOf(DbDocParams{}),
	Diff:                   reflect.TypeOf(DiffParams{}),
	DiffChangeLog:          reflect.TypeOf(DiffChangeLogParams{}),
	Status:                 reflect.TypeOf(StatusParams{}),
	UnexpectedChangeSets:   reflect.TypeOf(StatusParams{}),
}

// ParamField describes one flag a command accepts.
type ParamField struct {
	Name      string
	Kind      reflect.Kind
	Usage     string
	OmitEmpty bool
}

// ParamFields lists the flags accepted by cmd, sorted by name.
func ParamFields(cmd Command) []ParamField {
	rt, ok := commandParams[cmd]
	if !ok {
		return nil
	}
	fields := make([]ParamField, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		name, omit := parseFlagTag(f.Tag.Get("flag"))
		if name == "" {
			continue
		}
		fields = append(fields, ParamField{
			Name:      name,
			Kind:      f.Type.Kind(),
			Usage:     f.Tag.Get("help"),
			OmitEmpty: omit,
		})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
	return fields
}

func parseFlagTag(tag string) (name string, omitEmpty bool) {
	if tag == "" || tag == "-" {
		return "", false
	}
	parts := strings.Split(tag, ",")
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitEmpty = true
		}
	}
	return parts[0], omitEmpty
}

// ParametersOf converts a typed parameter record (or a pointer to one) into
// a ParameterSet. Fields tagged omitempty are dropped when zero.
func ParametersOf(record any) ParameterSet {
	ps := ParameterSet{}
	if record == nil {
		return ps
	}
	if set, ok := record.(ParameterSet); ok {
		for k, v := range set {
			ps[k] = v
		}
		return ps
	}
	rv := reflect.ValueOf(record)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return ps
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return ps
	}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		name, omit := parseFlagTag(rt.Field(i).Tag.Get("flag"))
		if name == "" {
			continue
		}
		fv := rv.Field(i)
		if omit && fv.IsZero() {
			continue
		}
		ps[name] = fv.Interface()
	}
	return ps
}

// ParseParameters validates raw against the flags cmd accepts and coerces
// each value to the declared kind. String values are parsed for bool and
// integer flags so input from flags, YAML or JSON can be used directly.
func ParseParameters(cmd Command, raw map[string]any) (ParameterSet, error) {
	if !cmd.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, string(cmd))
	}
	allowed := make(map[string]reflect.Kind)
	for _, f := range ParamFields(cmd) {
		allowed[f.Name] = f.Kind
	}
	ps := make(ParameterSet, len(raw))
	for key, val := range raw {
		kind, ok := allowed[key]
		if !ok {
			return nil, fmt.Errorf("%w: %s does not accept --%s", ErrUnknownParameter, cmd, key)
		}
		v, err := coerce(kind, val)
		if err != nil {
			return nil, fmt.Errorf("parameter --%s: %w", key, err)
		}
		ps[key] = v
	}
	return ps, nil
}

func coerce(kind reflect.Kind, val any) (any, error) {
	switch kind {
	case reflect.String:
		switch v := val.(type) {
		case string:
			return v, nil
		case fmt.Stringer:
			return v.String(), nil
		}
	case reflect.Bool:
		switch v := val.(type) {
		case bool:
			return v, nil
		case string:
			return strconv.ParseBool(v)
		}
	case reflect.Int, reflect.Int64, reflect.Int32:
		switch v := val.(type) {
		case int:
			return v, nil
		case int64:
			return int(v), nil
		case int32:
			return int(v), nil
		case float64:
			if v != math.Trunc(v) {
				return nil, fmt.Errorf("expected an integer, got %v", v)
			}
			return int(v), nil
		case string:
			return strconv.Atoi(v)
		}
	}
	return nil, fmt.Errorf("unsupported value %v (%T) for a %s flag", val, val, kind)
}
