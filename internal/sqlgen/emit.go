// Package sqlgen implements §4.5: it walks a pq.SqlQuery and produces an
// internal/sqlast.Query tree, consulting internal/dialect for operator
// spellings, identifier quoting and the other per-dialect knobs §4.5.5
// names. Everything here is pure tree-building; sqlast.Print turns the
// result into SQL text afterwards.
package sqlgen

import (
	"fmt"

	"github.com/pqlc-dev/pqlc/internal/dialect"
	"github.com/pqlc-dev/pqlc/internal/pq"
	"github.com/pqlc-dev/pqlc/internal/rq"
	"github.com/pqlc-dev/pqlc/internal/sqlast"
)

// emitter carries everything shared across one Emit call: the target
// dialect's knobs and the anchor stage's naming/ref bookkeeping.
type emitter struct {
	dialect *dialect.Dialect
	names   *pq.NameTable
	refs    map[pq.RIId]string
}

// Emit runs §4.5 over an anchored query for dialect d, producing the
// finished SQL AST.
func Emit(q *pq.SqlQuery, d *dialect.Dialect) (*sqlast.Query, error) {
	em := &emitter{dialect: d, names: q.Names, refs: q.Refs}

	var with *sqlast.WithClause
	if len(q.Ctes) > 0 {
		with = &sqlast.WithClause{}
		for _, cte := range q.Ctes {
			sc, recursive, err := em.emitCte(cte)
			if err != nil {
				return nil, fmt.Errorf("sqlgen: cte %q: %w", cte.Name, err)
			}
			with.Ctes = append(with.Ctes, *sc)
			if recursive {
				with.Recursive = true
			}
		}
	}

	body, err := em.emitRelation(q.MainRelation)
	if err != nil {
		return nil, err
	}
	return &sqlast.Query{With: with, Body: body.Body}, nil
}

func (em *emitter) emitCte(cte pq.Cte) (*sqlast.Cte, bool, error) {
	switch k := cte.Kind.(type) {
	case pq.NormalCte:
		q, err := em.emitRelation(k.Relation)
		if err != nil {
			return nil, false, err
		}
		return &sqlast.Cte{Name: cte.Name, Query: q}, false, nil
	case pq.LoopCte:
		initial, err := em.emitRelation(k.Initial)
		if err != nil {
			return nil, false, err
		}
		step, err := em.emitRelation(k.Step)
		if err != nil {
			return nil, false, err
		}
		return &sqlast.Cte{Name: cte.Name, Loop: &sqlast.LoopCte{Initial: initial, Step: step}}, true, nil
	default:
		return nil, false, fmt.Errorf("sqlgen: unhandled cte kind %T", cte.Kind)
	}
}

// emitRelation turns one of the four PQ relation shapes (§3.8) into a
// complete sub-query.
func (em *emitter) emitRelation(rel pq.SqlRelation) (*sqlast.Query, error) {
	switch k := rel.(type) {
	case pq.AtomicPipeline:
		body, err := em.emitPipeline(k.Transforms)
		if err != nil {
			return nil, err
		}
		return &sqlast.Query{Body: body}, nil
	case pq.LiteralRel:
		core, err := em.emitLiteralRelation(k.Literal)
		if err != nil {
			return nil, err
		}
		return &sqlast.Query{Body: &sqlast.SetExpr{Left: core}}, nil
	case pq.SStringRel:
		text, err := em.emitRawParts(k.Parts, nil)
		if err != nil {
			return nil, err
		}
		return em.rawQuery(text), nil
	case pq.OperatorRel:
		def, ok := em.dialect.Operator(k.Name)
		if !ok || def.Unsupported() {
			return nil, &UnsupportedOperatorError{Name: k.Name, Dialect: em.dialect.Kind.String()}
		}
		text, err := em.renderTemplate(def.Template, k.Args, nil, def.Strength, isFullyAssociative(k.Name))
		if err != nil {
			return nil, err
		}
		return em.rawQuery(text), nil
	default:
		return nil, fmt.Errorf("sqlgen: unhandled relation kind %T", rel)
	}
}

// rawQuery wraps verbatim SQL text (an s-string or a table-valued
// built-in) into the smallest well-formed Query this tree shape allows.
//
// sqlast's Query/SelectCore pair has no "this whole statement is raw"
// escape hatch (unlike a scalar position, which always has Raw available
// as an Expr) — a table-valued source the printer is expected to inline
// verbatim as a complete statement has nowhere to live except a single
// projected column. This under-represents a raw SELECT used as a whole
// relation (it prints as a single-column SELECT of that text rather than
// the text itself); §8 Open Questions leaves table-valued raw sources as
// a known gap rather than growing sqlast to carry a raw-statement
// variant for one rare shape untouched by every scenario in §8.3.
func (em *emitter) rawQuery(text string) *sqlast.Query {
	return &sqlast.Query{Body: &sqlast.SetExpr{Left: &sqlast.SelectCore{
		Columns: []sqlast.SelectItem{{Expr: &sqlast.Raw{Text: text}}},
	}}}
}

// emitLiteralRelation renders an inline `[{...}, ...]` relation as a
// UNION ALL of one-row SELECTs, the portable row-constructor idiom every
// dialect in §6.3 understands without a VALUES-in-FROM extension.
func (em *emitter) emitLiteralRelation(lit rq.RelationLiteral) (*sqlast.SelectCore, error) {
	if len(lit.Rows) == 0 {
		return nil, fmt.Errorf("sqlgen: empty relation literal has no columns to project")
	}
	rowCore := func(row []rq.Expr) (*sqlast.SelectCore, error) {
		items := make([]sqlast.SelectItem, len(row))
		for i, e := range row {
			expr, err := em.emitExpr(nil, e)
			if err != nil {
				return nil, err
			}
			alias := ""
			if i < len(lit.Columns) {
				alias = lit.Columns[i]
			}
			items[i] = sqlast.SelectItem{Expr: expr, Alias: alias}
		}
		return &sqlast.SelectCore{Columns: items}, nil
	}

	first, err := rowCore(lit.Rows[0])
	if err != nil {
		return nil, err
	}
	if len(lit.Rows) == 1 {
		return first, nil
	}

	// Fold the remaining rows into a right-leaning SetExpr chain, then
	// wrap the whole thing in a derived table so emitLiteralRelation can
	// keep returning a single SelectCore like its one-row sibling.
	var chain *sqlast.SetExpr
	for i := len(lit.Rows) - 1; i >= 1; i-- {
		core, err := rowCore(lit.Rows[i])
		if err != nil {
			return nil, err
		}
		chain = &sqlast.SetExpr{Op: sqlast.SetOpUnion, All: true, Left: core, Right: chain}
	}
	union := &sqlast.SetExpr{Op: sqlast.SetOpUnion, All: true, Left: first, Right: chain}
	return &sqlast.SelectCore{
		Columns: []sqlast.SelectItem{{Star: true}},
		From: &sqlast.FromClause{Source: &sqlast.DerivedTable{
			Query: &sqlast.Query{Body: union},
			Alias: "_lit",
		}},
	}, nil
}
