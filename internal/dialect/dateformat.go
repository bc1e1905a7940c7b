package dialect

import "strings"

// chronoToken maps a chrono-style specifier (the format PQL date literals
// and std.date.to_text accept, §4.5.2) to its dialect-native spelling.
type chronoToken struct {
	chrono string
	native string
}

func translate(prqlFormat string, tokens []chronoToken) string {
	out := prqlFormat
	for _, t := range tokens {
		out = strings.ReplaceAll(out, t.chrono, t.native)
	}
	return out
}

// translateChronoToChar renders the Postgres/Snowflake TO_CHAR() format
// alphabet (YYYY-MM-DD style).
func translateChronoToChar(f string) string {
	return translate(f, []chronoToken{
		{"%Y", "YYYY"}, {"%m", "MM"}, {"%d", "DD"},
		{"%H", "HH24"}, {"%M", "MI"}, {"%S", "SS"},
	})
}

// translateChronoDateFormat renders MySQL's DATE_FORMAT() alphabet.
func translateChronoDateFormat(f string) string {
	return translate(f, []chronoToken{
		{"%Y", "%Y"}, {"%m", "%m"}, {"%d", "%d"},
		{"%H", "%H"}, {"%M", "%i"}, {"%S", "%s"},
	})
}

// translateChronoStrftime passes chrono's %-style tokens through mostly
// unchanged (SQLite/DuckDB/ClickHouse/BigQuery all accept strftime-style
// specifiers for their date-format functions).
func translateChronoStrftime(f string) string {
	return translate(f, []chronoToken{
		{"%M", "%M"}, // minute stays distinct from month (%m) already
	})
}

// translateChronoDotNet renders MS SQL FORMAT()'s .NET custom format
// alphabet.
func translateChronoDotNet(f string) string {
	return translate(f, []chronoToken{
		{"%Y", "yyyy"}, {"%m", "MM"}, {"%d", "dd"},
		{"%H", "HH"}, {"%M", "mm"}, {"%S", "ss"},
	})
}

// translateChronoGeneric leaves the PQL format untouched for dialects with
// no declared native date-format function (generic, GlareDB).
func translateChronoGeneric(f string) string { return f }
