package sqlgen

import (
	"fmt"

	"github.com/pqlc-dev/pqlc/internal/rq"
	"github.com/pqlc-dev/pqlc/internal/sqlast"
)

// emitExpr dispatches over rq's expression tree (§4.5.1). sc is nil when
// emitting an expression with no enclosing pipeline scope (a relation
// literal's row values), where a ColumnRef can never legally occur.
func (em *emitter) emitExpr(sc *pipelineScope, e rq.Expr) (sqlast.Expr, error) {
	switch k := e.(type) {
	case rq.ColumnRef:
		if sc == nil {
			return nil, fmt.Errorf("sqlgen: column reference outside any pipeline scope")
		}
		return em.colRef(sc, rq.CId(k))
	case rq.Literal:
		return em.emitLiteral(k.Lit)
	case rq.SString:
		text, err := em.emitRawParts(k.Parts, sc)
		if err != nil {
			return nil, err
		}
		return &sqlast.Raw{Text: text}, nil
	case rq.CaseExpr:
		return em.emitCase(sc, k)
	case rq.Operator:
		return em.emitOperator(sc, k, nil)
	case rq.ArrayExpr:
		items := make([]sqlast.Expr, len(k.Items))
		for i, it := range k.Items {
			expr, err := em.emitExpr(sc, it)
			if err != nil {
				return nil, err
			}
			items[i] = expr
		}
		return &sqlast.ArrayExpr{Items: items}, nil
	case rq.ParamExpr:
		return &sqlast.Param{Name: k.Name}, nil
	default:
		return nil, fmt.Errorf("sqlgen: unhandled expression kind %T", e)
	}
}

func (em *emitter) emitCase(sc *pipelineScope, c rq.CaseExpr) (sqlast.Expr, error) {
	whens := make([]sqlast.WhenClause, 0, len(c.Cases))
	for _, sw := range c.Cases {
		cond, err := em.emitExpr(sc, sw.Condition)
		if err != nil {
			return nil, err
		}
		val, err := em.emitExpr(sc, sw.Value)
		if err != nil {
			return nil, err
		}
		whens = append(whens, sqlast.WhenClause{Condition: cond, Result: val})
	}
	return &sqlast.CaseExpr{Whens: whens}, nil
}

// emitRawParts substitutes each embedded expression of an s-string into
// its literal text, producing the Raw SQL text §4.5.1 calls Source.
func (em *emitter) emitRawParts(parts []rq.Part, sc *pipelineScope) (string, error) {
	var out []byte
	for _, p := range parts {
		if p.Expr == nil {
			out = append(out, p.Text...)
			continue
		}
		expr, err := em.emitExpr(sc, p.Expr)
		if err != nil {
			return "", err
		}
		text, err := renderInline(expr)
		if err != nil {
			return "", err
		}
		out = append(out, text...)
	}
	return string(out), nil
}

// renderInline flattens the handful of expression shapes that can
// legally appear interpolated into an s-string back into literal text.
// Text rendering is otherwise left to sqlast.Print; an s-string's
// embedded expressions are the one place this
// package must produce text itself, since Source's contract (§4.5.1) is
// "already a string" by construction. A structured expression too
// complex to flatten this way (a CASE, a windowed call) is rejected
// rather than silently mis-rendered.
func renderInline(e sqlast.Expr) (string, error) {
	switch k := e.(type) {
	case *sqlast.ColumnRef:
		if k.Table != "" {
			return k.Table + "." + k.Column, nil
		}
		return k.Column, nil
	case *sqlast.Literal:
		return k.Value, nil
	case *sqlast.Raw:
		return k.Text, nil
	case *sqlast.Param:
		return "$" + k.Name, nil
	default:
		return "", fmt.Errorf("sqlgen: %T cannot be interpolated into an s-string", e)
	}
}

// emitComputeExpr renders one Compute's value expression, wrapping it in
// OVER(...) when windowed (§4.5.3), and wrapping the whole thing in
// COALESCE when the operator table annotates the root operator with a
// default (§4.5.2) — except inside a window function, where a COALESCE
// wrapper would need to apply outside the OVER() clause instead; callers
// needing that combination wrap emitComputeExpr's result themselves.
func (em *emitter) emitComputeExpr(sc *pipelineScope, c rq.Compute) (sqlast.Expr, error) {
	if c.Window == nil {
		return em.emitExpr(sc, c.Expr)
	}
	op, ok := c.Expr.(rq.Operator)
	if !ok {
		return em.emitExpr(sc, c.Expr)
	}
	window, err := em.emitWindow(sc, c.Window)
	if err != nil {
		return nil, err
	}
	return em.emitOperator(sc, op, window)
}
