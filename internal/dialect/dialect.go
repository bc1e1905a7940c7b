// Package dialect provides the closed set of SQL dialects the emitter
// targets (§6.3, §4.5.5) and the dialect-keyed operator table (§4.5.2).
package dialect

import "strings"

// Kind is the closed set of dialects §6.3 names.
type Kind int

const (
	Generic Kind = iota
	Postgres
	MySQL
	MSSQLServer
	SQLite
	ClickHouse
	BigQuery
	Snowflake
	DuckDB
	GlareDB
)

// AllKinds lists every dialect in a stable order, used to pre-build the
// operator table (§4.5.2) and by CLI flag validation.
func AllKinds() []Kind {
	return []Kind{Generic, Postgres, MySQL, MSSQLServer, SQLite, ClickHouse, BigQuery, Snowflake, DuckDB, GlareDB}
}

// String returns the directive/flag spelling of the dialect (§6.4
// `target:sql.<dialect>`).
func (k Kind) String() string {
	switch k {
	case Postgres:
		return "postgres"
	case MySQL:
		return "mysql"
	case MSSQLServer:
		return "ms_sql_server"
	case SQLite:
		return "sqlite"
	case ClickHouse:
		return "clickhouse"
	case BigQuery:
		return "bigquery"
	case Snowflake:
		return "snowflake"
	case DuckDB:
		return "duckdb"
	case GlareDB:
		return "glaredb"
	default:
		return "generic"
	}
}

// Parse maps a directive/flag string to a Kind. Unknown strings return
// (Generic, false).
func Parse(s string) (Kind, bool) {
	for _, k := range AllKinds() {
		if k.String() == strings.ToLower(s) {
			return k, true
		}
	}
	return Generic, false
}

// SetOpSupport describes which ALL variants of EXCEPT/INTERSECT a dialect
// accepts (§4.5.5, §4.4.5 DialectLacksFeature).
type SetOpSupport struct {
	ExceptAll    bool
	IntersectAll bool
}

// Dialect bundles every rendering knob the emitter consults (§4.5.5).
type Dialect struct {
	Kind Kind

	IdentQuoteOpen  byte
	IdentQuoteClose byte

	HasConcatFunction       bool
	RequiresQuotesIntervals bool
	UseFetch                bool
	SetOpsDistinctKeyword   bool // UNION DISTINCT vs bare UNION
	StarsInGroup            bool
	SetOps                  SetOpSupport

	// DateTextFormat translates a chrono-style PQL format string into
	// this dialect's native date-format template (§4.5.2 std.date.to_text).
	DateTextFormat func(prqlFormat string) string

	keywords map[string]struct{}
}

// Get returns the knob bundle for a dialect kind.
func Get(k Kind) *Dialect {
	if d, ok := registry[k]; ok {
		return d
	}
	return registry[Generic]
}

var registry = buildRegistry()

func buildRegistry() map[Kind]*Dialect {
	reg := map[Kind]*Dialect{
		Generic: {
			Kind: Generic, IdentQuoteOpen: '"', IdentQuoteClose: '"',
			SetOps: SetOpSupport{ExceptAll: true, IntersectAll: true},
			DateTextFormat: translateChronoGeneric,
		},
		Postgres: {
			Kind: Postgres, IdentQuoteOpen: '"', IdentQuoteClose: '"',
			RequiresQuotesIntervals: true,
			SetOps:                  SetOpSupport{ExceptAll: true, IntersectAll: true},
			DateTextFormat:          translateChronoToChar,
		},
		MySQL: {
			Kind: MySQL, IdentQuoteOpen: '`', IdentQuoteClose: '`',
			HasConcatFunction: true,
			SetOps:            SetOpSupport{}, // MySQL lacks EXCEPT/INTERSECT ALL
			DateTextFormat:    translateChronoDateFormat,
		},
		MSSQLServer: {
			Kind: MSSQLServer, IdentQuoteOpen: '[', IdentQuoteClose: ']',
			HasConcatFunction: true, UseFetch: true,
			SetOps:         SetOpSupport{},
			DateTextFormat: translateChronoDotNet,
		},
		SQLite: {
			Kind: SQLite, IdentQuoteOpen: '"', IdentQuoteClose: '"',
			SetOps:         SetOpSupport{},
			DateTextFormat: translateChronoStrftime,
		},
		ClickHouse: {
			Kind: ClickHouse, IdentQuoteOpen: '`', IdentQuoteClose: '`',
			HasConcatFunction: true,
			SetOps:            SetOpSupport{},
			DateTextFormat:    translateChronoStrftime,
		},
		BigQuery: {
			Kind: BigQuery, IdentQuoteOpen: '`', IdentQuoteClose: '`',
			HasConcatFunction:     true,
			SetOpsDistinctKeyword: true,
			StarsInGroup:          true,
			SetOps:                SetOpSupport{},
			DateTextFormat:        translateChronoStrftime,
		},
		Snowflake: {
			Kind: Snowflake, IdentQuoteOpen: '"', IdentQuoteClose: '"',
			SetOps:         SetOpSupport{ExceptAll: true, IntersectAll: true},
			DateTextFormat: translateChronoToChar,
		},
		DuckDB: {
			Kind: DuckDB, IdentQuoteOpen: '"', IdentQuoteClose: '"',
			SetOps:         SetOpSupport{ExceptAll: true, IntersectAll: true},
			StarsInGroup:   true,
			DateTextFormat: translateChronoStrftime,
		},
		GlareDB: {
			Kind: GlareDB, IdentQuoteOpen: '"', IdentQuoteClose: '"',
			SetOps:         SetOpSupport{ExceptAll: true, IntersectAll: true},
			DateTextFormat: translateChronoGeneric,
		},
	}
	for k, d := range reg {
		d.keywords = reservedKeywords(k)
	}
	return reg
}

// IsReserved reports whether name must be quoted as an identifier because
// it collides with a reserved keyword of this dialect (§4.5.4).
func (d *Dialect) IsReserved(name string) bool {
	_, ok := d.keywords[strings.ToUpper(name)]
	return ok
}

func reservedKeywords(k Kind) map[string]struct{} {
	common := []string{
		"SELECT", "FROM", "WHERE", "GROUP", "BY", "ORDER", "HAVING", "LIMIT",
		"OFFSET", "JOIN", "INNER", "LEFT", "RIGHT", "FULL", "ON", "AS",
		"AND", "OR", "NOT", "NULL", "TRUE", "FALSE", "DISTINCT", "UNION",
		"EXCEPT", "INTERSECT", "WITH", "CASE", "WHEN", "THEN", "ELSE", "END",
		"IN", "BETWEEN", "LIKE", "IS", "TABLE", "INTO", "VALUES", "INSERT",
		"UPDATE", "DELETE", "CREATE", "DROP", "ALTER", "DEFAULT", "PRIMARY",
		"KEY", "FOREIGN", "REFERENCES", "INDEX", "VIEW", "FETCH", "FIRST",
		"OVER", "PARTITION", "ROWS", "RANGE", "UNBOUNDED", "PRECEDING",
		"FOLLOWING", "CURRENT", "ROW",
	}
	set := make(map[string]struct{}, len(common))
	for _, w := range common {
		set[w] = struct{}{}
	}
	switch k {
	case MySQL:
		for _, w := range []string{"INTERVAL", "USE", "EXPLAIN"} {
			set[w] = struct{}{}
		}
	case MSSQLServer:
		for _, w := range []string{"TOP", "IDENTITY", "OUTPUT"} {
			set[w] = struct{}{}
		}
	case BigQuery:
		for _, w := range []string{"QUALIFY", "STRUCT", "ARRAY"} {
			set[w] = struct{}{}
		}
	}
	return set
}
