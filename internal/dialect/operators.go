package dialect

import (
	"embed"
	"fmt"
	"sort"
	"sync"

	"go.starlark.net/starlark"
)

//go:embed std/*.star
var stdFS embed.FS

// OperatorDef is one entry of the dialect-keyed operator table (§4.5.2).
// Templates use positional `{0}`, `{1}`, ... holes, filled by the
// emitter with already-rendered argument strings.
type OperatorDef struct {
	Name        string
	Template    string
	Strength    int
	IsAggregate bool
	NeedsWindow bool
	Coalesce    string // "" = no coalesce wrap
}

// Unsupported reports whether this operator has no implementation for the
// dialect it was resolved against (§4.5.2 "If the operator body is Null").
func (d OperatorDef) Unsupported() bool {
	return d.Template == "" || d.Template == "NULL"
}

var (
	stdOnce  sync.Once
	stdTable map[Kind]map[string]OperatorDef
	stdErr   error
)

// operatorOverrideFiles maps a dialect kind to its override script, for
// every dialect that diverges from std/generic.star.
var operatorOverrideFiles = map[Kind]string{
	MySQL:        "std/mysql.star",
	MSSQLServer:  "std/ms_sql_server.star",
	SQLite:       "std/sqlite.star",
	BigQuery:     "std/bigquery.star",
	ClickHouse:   "std/clickhouse.star",
	Snowflake:    "std/snowflake.star",
}

// loadSTD evaluates std/generic.star exactly once (thread-safe via
// sync.Once, the "lazily-initialised ... read-only" global state required
// by §5 and §9), then layers each dialect's override script on top.
func loadSTD() (map[Kind]map[string]OperatorDef, error) {
	stdOnce.Do(func() {
		generic, err := execStarlarkOps("std/generic.star", "OPS")
		if err != nil {
			stdErr = fmt.Errorf("dialect: loading std/generic.star: %w", err)
			return
		}
		table := make(map[Kind]map[string]OperatorDef)
		for _, k := range AllKinds() {
			merged := make(map[string]OperatorDef, len(generic))
			for name, def := range generic {
				merged[name] = def
			}
			if file, ok := operatorOverrideFiles[k]; ok {
				overrides, err := execStarlarkOps(file, "OVERRIDES")
				if err != nil {
					stdErr = fmt.Errorf("dialect: loading %s: %w", file, err)
					return
				}
				for name, def := range overrides {
					merged[name] = def
				}
			}
			table[k] = merged
		}
		stdTable = table
	})
	return stdTable, stdErr
}

// execStarlarkOps runs an embedded .star script and converts the named
// top-level dict global into a name -> OperatorDef map.
func execStarlarkOps(path, global string) (map[string]OperatorDef, error) {
	src, err := stdFS.ReadFile(path)
	if err != nil {
		return nil, err
	}
	thread := &starlark.Thread{Name: "pqlc-dialect-std"}
	globals, err := starlark.ExecFile(thread, path, src, nil)
	if err != nil {
		return nil, err
	}
	val, ok := globals[global]
	if !ok {
		return nil, fmt.Errorf("%s: missing top-level %s dict", path, global)
	}
	dict, ok := val.(*starlark.Dict)
	if !ok {
		return nil, fmt.Errorf("%s: %s is not a dict", path, global)
	}
	out := make(map[string]OperatorDef, dict.Len())
	for _, item := range dict.Items() {
		nameVal, ok := starlark.AsString(item[0])
		if !ok {
			return nil, fmt.Errorf("%s: non-string operator key %v", path, item[0])
		}
		opDict, ok := item[1].(*starlark.Dict)
		if !ok {
			return nil, fmt.Errorf("%s: operator %s must map to a dict", path, nameVal)
		}
		def := OperatorDef{Name: nameVal}
		if v, found, _ := opDict.Get(starlark.String("template")); found {
			def.Template, _ = starlark.AsString(v)
		}
		if v, found, _ := opDict.Get(starlark.String("strength")); found {
			if i, ok := v.(starlark.Int); ok {
				n, _ := i.Int64()
				def.Strength = int(n)
			}
		}
		if v, found, _ := opDict.Get(starlark.String("is_aggregate")); found {
			def.IsAggregate = bool(v.Truth())
		}
		if v, found, _ := opDict.Get(starlark.String("needs_window")); found {
			def.NeedsWindow = bool(v.Truth())
		}
		if v, found, _ := opDict.Get(starlark.String("coalesce")); found {
			def.Coalesce, _ = starlark.AsString(v)
		}
		out[nameVal] = def
	}
	return out, nil
}

// Operator resolves an operator name against this dialect's table,
// falling back through the generic table (already merged in at load
// time, §4.5.2). Returns ok=false if STD failed to initialise.
func (d *Dialect) Operator(name string) (OperatorDef, bool) {
	table, err := loadSTD()
	if err != nil {
		return OperatorDef{}, false
	}
	byName, ok := table[d.Kind]
	if !ok {
		return OperatorDef{}, false
	}
	def, ok := byName[name]
	return def, ok
}

// operatorNames returns the sorted operator names known to a dialect,
// used by diagnostics that list "supported operators" in hints.
func (d *Dialect) operatorNames() []string {
	table, err := loadSTD()
	if err != nil {
		return nil
	}
	byName := table[d.Kind]
	names := make([]string, 0, len(byName))
	for n := range byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
