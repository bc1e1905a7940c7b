package sqlgen

import (
	"strconv"
	"strings"

	"github.com/pqlc-dev/pqlc/internal/ast"
	"github.com/pqlc-dev/pqlc/internal/dialect"
	"github.com/pqlc-dev/pqlc/internal/sqlast"
)

// emitLiteral implements §4.5.6.
func (em *emitter) emitLiteral(lit ast.Literal) (sqlast.Expr, error) {
	switch lit.Kind {
	case ast.LitNull:
		return &sqlast.Literal{Kind: sqlast.LitNull, Value: "NULL"}, nil
	case ast.LitBool:
		v := "FALSE"
		if lit.Bool {
			v = "TRUE"
		}
		return &sqlast.Literal{Kind: sqlast.LitBool, Value: v}, nil
	case ast.LitInt:
		return &sqlast.Literal{Kind: sqlast.LitNumber, Value: strconv.FormatInt(lit.Int, 10)}, nil
	case ast.LitFloat:
		return &sqlast.Literal{Kind: sqlast.LitNumber, Value: formatFloat(lit.Float)}, nil
	case ast.LitString:
		return &sqlast.Literal{Kind: sqlast.LitString, Value: escapeStringLiteral(lit.Text)}, nil
	case ast.LitDate:
		return em.emitDateLikeLiteral(sqlast.LitDate, "DATE", lit.Text)
	case ast.LitTime:
		return em.emitDateLikeLiteral(sqlast.LitTime, "TIME", lit.Text)
	case ast.LitTimestamp:
		return em.emitDateLikeLiteral(sqlast.LitTimestamp, "DATETIME", normalizeTzOffset(lit.Text))
	case ast.LitInterval:
		return em.emitIntervalLiteral(lit)
	default:
		return nil, &UnsupportedOperatorError{Name: "literal", Dialect: em.dialect.Kind.String()}
	}
}

// emitDateLikeLiteral renders a DATE/TIME/TIMESTAMP literal. Every
// dialect except SQLite spells these as a typed literal (`DATE '...'`);
// SQLite has no such syntax and instead calls the matching constructor
// function over the text (`DATE(...)`, `TIME(...)`, `DATETIME(...)`).
func (em *emitter) emitDateLikeLiteral(kind sqlast.LiteralKind, sqliteFunc, text string) (sqlast.Expr, error) {
	if em.dialect.Kind == dialect.SQLite {
		return &sqlast.FuncCall{Name: sqliteFunc, Args: []sqlast.Expr{
			&sqlast.Literal{Kind: sqlast.LitString, Value: escapeStringLiteral(text)},
		}}, nil
	}
	return &sqlast.Literal{Kind: kind, Value: text}, nil
}

// normalizeTzOffset rewrites a trailing `+HHMM`/`-HHMM` offset to
// `+HH:MM` (§4.5.6); a timestamp with no offset, or one already
// colon-separated, passes through unchanged.
func normalizeTzOffset(text string) string {
	n := len(text)
	if n < 5 {
		return text
	}
	sign := text[n-5]
	if sign != '+' && sign != '-' {
		return text
	}
	rest := text[n-4:]
	for _, c := range rest {
		if c < '0' || c > '9' {
			return text
		}
	}
	return text[:n-5] + string(sign) + rest[:2] + ":" + rest[2:]
}

// emitIntervalLiteral implements §4.5.6: Postgres quotes the whole
// `'N UNIT'` expression; every other dialect emits the bare
// `INTERVAL n unit` form (RequiresQuotesIntervals flips this).
func (em *emitter) emitIntervalLiteral(lit ast.Literal) (sqlast.Expr, error) {
	body := strconv.FormatInt(lit.Int, 10) + " " + lit.IntervalUnit
	if em.dialect.RequiresQuotesIntervals {
		return &sqlast.Raw{Text: "INTERVAL " + escapeStringLiteral(body)}, nil
	}
	return &sqlast.Raw{Text: "INTERVAL " + body}, nil
}

// escapeStringLiteral doubles embedded single quotes, standard SQL
// string-literal escaping, then wraps the result in quotes.
func escapeStringLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// formatFloat mirrors Rust's `{:?}` float formatting closely enough for
// SQL purposes: always show a decimal point so a whole-valued float
// (e.g. 2.0) can't be mistaken for an integer literal downstream.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
