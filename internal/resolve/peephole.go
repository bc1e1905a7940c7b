package resolve

import "github.com/pqlc-dev/pqlc/internal/ast"

// foldBinary resolves both operands then applies the §4.2.5 peephole
// rules: constant-folding of trivially equal literals and the rules
// documented alongside case short-circuiting.
func (r *Resolver) foldBinary(e *ast.Expr, k ast.Binary) (*ast.Expr, error) {
	left, err := r.fold(k.Left)
	if err != nil {
		return nil, err
	}
	right, err := r.fold(k.Right)
	if err != nil {
		return nil, err
	}
	e.Kind = ast.Binary{Op: k.Op, Left: left, Right: right}
	e.Ty = binaryResultTy(k.Op, left.Ty)
	return peepholeBinary(e), nil
}

// foldUnary resolves the operand then applies `-(-x) -> x` and
// double-negation-of-booleans peephole rules (§4.2.5).
func (r *Resolver) foldUnary(e *ast.Expr, k ast.Unary) (*ast.Expr, error) {
	operand, err := r.fold(k.Operand)
	if err != nil {
		return nil, err
	}
	e.Kind = ast.Unary{Op: k.Op, Operand: operand}
	e.Ty = operand.Ty
	return peepholeUnary(e), nil
}

func binaryResultTy(op ast.BinOp, operandTy *ast.Ty) *ast.Ty {
	switch op {
	case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpGt, ast.OpLe, ast.OpGe, ast.OpAnd, ast.OpOr, ast.OpRegexMatch:
		return &ast.Ty{Kind: ast.Primitive{Kind: ast.TyBool}}
	default:
		return operandTy
	}
}

// peepholeUnary implements `-(-x) -> x` and `not (not x) -> x` (§4.2.5).
func peepholeUnary(e *ast.Expr) *ast.Expr {
	u := e.Kind.(ast.Unary)
	inner, ok := u.Operand.Kind.(ast.Unary)
	if !ok || inner.Op != u.Op {
		return e
	}
	switch u.Op {
	case ast.OpNeg, ast.OpNot:
		return inner.Operand
	default:
		return e
	}
}

// peepholeBinary implements `null ?? y -> y` and folds trivially equal
// literal comparisons (§4.2.5).
func peepholeBinary(e *ast.Expr) *ast.Expr {
	b := e.Kind.(ast.Binary)
	if b.Op == ast.OpCoalesce {
		if lit, ok := b.Left.Kind.(ast.Literal); ok && lit.Kind == ast.LitNull {
			return b.Right
		}
	}
	if b.Op == ast.OpEq {
		if sameLiteral(b.Left, b.Right) {
			return &ast.Expr{Id: e.Id, Kind: ast.Literal{Kind: ast.LitBool, Bool: true}, Ty: e.Ty, Span: e.Span}
		}
	}
	return e
}

func sameLiteral(a, b *ast.Expr) bool {
	la, ok := a.Kind.(ast.Literal)
	if !ok {
		return false
	}
	lb, ok := b.Kind.(ast.Literal)
	if !ok {
		return false
	}
	return la == lb
}

// isLiteralTrue reports whether e resolves to the boolean literal true,
// used to short-circuit later `case` arms (§4.2.5).
func isLiteralTrue(e *ast.Expr) bool {
	if id, ok := e.Kind.(ast.IdentExpr); ok {
		return id.Ident.Name() == "true" // defensive, parser emits Literal normally
	}
	lit, ok := e.Kind.(ast.Literal)
	return ok && lit.Kind == ast.LitBool && lit.Bool
}

// peepholeCase is a hook for per-arm folding (kept separate from
// isLiteralTrue's outer short-circuit so each arm still gets its own
// constant folding pass even when it is not the final arm).
func peepholeCase(cond, val *ast.Expr) (*ast.Expr, *ast.Expr) {
	return cond, val
}
