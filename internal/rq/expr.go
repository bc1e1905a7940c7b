package rq

import (
	"fmt"

	"github.com/pqlc-dev/pqlc/internal/ast"
)

// lowerExpr strips a resolved scalar Expr down to the RQ Expr tree
// (§3.7): identifiers become ColumnRefs via nodeMapping, everything else
// is a structural translation.
func (lw *Lowerer) lowerExpr(e *ast.Expr) (Expr, error) {
	if e == nil {
		return nil, nil
	}
	switch k := e.Kind.(type) {
	case ast.IdentExpr:
		cid, ok := lw.reuseColumnRef(e)
		if !ok {
			return nil, fmt.Errorf("rq: unresolved column reference %q", k.Ident.String())
		}
		return ColumnRef(cid), nil

	case ast.Literal:
		return Literal{Lit: k}, nil

	case ast.RqOperator:
		args, err := lw.lowerExprs(k.Args)
		if err != nil {
			return nil, err
		}
		return Operator{Name: k.Name, Args: args}, nil

	case ast.SString:
		parts, err := lw.lowerStringParts(k.Parts)
		if err != nil {
			return nil, err
		}
		return SString{Parts: parts}, nil

	case ast.FString:
		// §4.2.4: f-strings resolve to a concat chain during folding in a
		// complete front end; this narrowed resolver leaves them as
		// FString nodes, so lowering renders the same interpolation shape
		// an s-string does — the emitter treats both as raw text plus
		// embedded expressions.
		parts, err := lw.lowerStringParts(k.Parts)
		if err != nil {
			return nil, err
		}
		return SString{Parts: parts}, nil

	case ast.Case:
		cases := make([]SwitchCase, 0, len(k.Cases))
		for _, sc := range k.Cases {
			cond, err := lw.lowerExpr(sc.Condition)
			if err != nil {
				return nil, err
			}
			val, err := lw.lowerExpr(sc.Value)
			if err != nil {
				return nil, err
			}
			cases = append(cases, SwitchCase{Condition: cond, Value: val})
		}
		return CaseExpr{Cases: cases}, nil

	case ast.ParamRef:
		return ParamExpr{Name: k.Name}, nil

	case ast.Array:
		items, err := lw.lowerExprs(k.Items)
		if err != nil {
			return nil, err
		}
		return ArrayExpr{Items: items}, nil

	case ast.Range:
		// A bare Range only reaches lowerExpr inside std.between's
		// desugared args (foldIn splits it before building the
		// RqOperator), so this path is unreachable in practice; kept for
		// completeness if a future caller passes one directly.
		start, err := lw.lowerExpr(k.Start)
		if err != nil {
			return nil, err
		}
		end, err := lw.lowerExpr(k.End)
		if err != nil {
			return nil, err
		}
		return Operator{Name: "std.between", Args: []Expr{start, end}}, nil

	default:
		return nil, fmt.Errorf("rq: cannot lower expression of kind %T", e.Kind)
	}
}

func (lw *Lowerer) lowerExprs(in []*ast.Expr) ([]Expr, error) {
	out := make([]Expr, len(in))
	for i, e := range in {
		lowered, err := lw.lowerExpr(e)
		if err != nil {
			return nil, err
		}
		out[i] = lowered
	}
	return out, nil
}

func (lw *Lowerer) lowerStringParts(parts []ast.StringPart) ([]Part, error) {
	out := make([]Part, len(parts))
	for i, p := range parts {
		if p.Expr == nil {
			out[i] = Part{Text: p.Text}
			continue
		}
		expr, err := lw.lowerExpr(p.Expr)
		if err != nil {
			return nil, err
		}
		out[i] = Part{Expr: expr}
	}
	return out, nil
}

// lowerRelationLiteral lowers an inline `[{...}, ...]` relation literal
// (§3.3's Array of Tuple literals) into its columns-and-rows shape.
func (lw *Lowerer) lowerRelationLiteral(arr ast.Array) (RelationLiteral, error) {
	var lit RelationLiteral
	for rowIdx, item := range arr.Items {
		tup, ok := item.Kind.(ast.Tuple)
		if !ok {
			return RelationLiteral{}, fmt.Errorf("rq: relation literal row %d is not a tuple", rowIdx)
		}
		row := make([]Expr, len(tup.Fields))
		for i, f := range tup.Fields {
			if rowIdx == 0 {
				lit.Columns = append(lit.Columns, f.Alias)
			}
			val, err := lw.lowerExpr(f.Value)
			if err != nil {
				return RelationLiteral{}, err
			}
			row[i] = val
		}
		lit.Rows = append(lit.Rows, row)
	}
	return lit, nil
}
