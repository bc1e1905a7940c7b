package sqlgen

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/pqlc-dev/pqlc/internal/ast"
	"github.com/pqlc-dev/pqlc/internal/dialect"
	"github.com/pqlc-dev/pqlc/internal/rq"
	"github.com/pqlc-dev/pqlc/internal/sqlast"
)

// atomicStrength is the binding strength assigned to anything that is not
// itself rendered through the generic template path (a column, a literal,
// a structured construct like IS NULL/BETWEEN/IN/CASE): self-delimiting
// constructs never need an enclosing ParenExpr.
const atomicStrength = 1000

// fullyAssociative is §4.5.1's set of operators where an equal-strength
// child never needs parens regardless of which side it sits on.
var fullyAssociative = map[string]bool{
	"std.and": true,
	"std.or":  true,
	"std.add": true,
	"std.mul": true,
}

func isFullyAssociative(name string) bool { return fullyAssociative[name] }

// emitOperator implements §4.5.2. window is non-nil only when the caller
// (emitComputeExpr) already knows this operator sits under an OVER(...).
func (em *emitter) emitOperator(sc *pipelineScope, op rq.Operator, window *sqlast.WindowSpec) (sqlast.Expr, error) {
	expr, _, err := em.buildOperator(sc, op, window)
	return expr, err
}

// buildOperator is emitOperator's recursive core: it also returns the
// binding strength the RESULT should be treated with when it becomes a
// {i} argument of an enclosing generic-template operator.
func (em *emitter) buildOperator(sc *pipelineScope, op rq.Operator, window *sqlast.WindowSpec) (sqlast.Expr, int, error) {
	if expr, ok, err := em.trySpecialOperator(sc, op); ok || err != nil {
		return expr, atomicStrength, err
	}

	def, ok := em.dialect.Operator(op.Name)
	if !ok || def.Unsupported() {
		return nil, 0, &UnsupportedOperatorError{Name: op.Name, Dialect: em.dialect.Kind.String()}
	}

	if def.NeedsWindow {
		if window == nil {
			return nil, 0, fmt.Errorf("sqlgen: %s must be called inside a window", op.Name)
		}
		fc, err := em.buildWindowFuncCall(sc, op, def.Template, window)
		if err != nil {
			return nil, 0, err
		}
		expr, err := em.wrapCoalesce(def, fc, true)
		return expr, atomicStrength, err
	}

	if op.Name == "std.date.to_text" {
		expr, err := em.buildDateToText(sc, op, def)
		return expr, atomicStrength, err
	}

	if op.Name == "std.concat" && em.dialect.HasConcatFunction {
		expr, err := em.buildConcatFunction(sc, op)
		return expr, atomicStrength, err
	}

	text, err := em.renderTemplate(def.Template, op.Args, sc, def.Strength, isFullyAssociative(op.Name))
	if err != nil {
		return nil, 0, err
	}
	expr, err := em.wrapCoalesce(def, &sqlast.Raw{Text: text}, false)
	return expr, def.Strength, err
}

// trySpecialOperator handles the §4.5.2 cases that produce a structured
// sqlast node directly instead of going through the dialect template.
func (em *emitter) trySpecialOperator(sc *pipelineScope, op rq.Operator) (sqlast.Expr, bool, error) {
	switch op.Name {
	case "std.eq", "std.ne":
		if len(op.Args) == 2 {
			if other, ok := nullOperand(op.Args); ok {
				operand, err := em.emitExpr(sc, other)
				if err != nil {
					return nil, true, err
				}
				return &sqlast.IsNullExpr{Expr: operand, Not: op.Name == "std.ne"}, true, nil
			}
		}
	case "std.between":
		if len(op.Args) == 3 {
			expr, err := em.emitExpr(sc, op.Args[0])
			if err != nil {
				return nil, true, err
			}
			low, err := em.emitExpr(sc, op.Args[1])
			if err != nil {
				return nil, true, err
			}
			high, err := em.emitExpr(sc, op.Args[2])
			if err != nil {
				return nil, true, err
			}
			return &sqlast.BetweenExpr{Expr: expr, Low: low, High: high}, true, nil
		}
	case "std.array_in":
		if len(op.Args) == 2 {
			if arr, ok := op.Args[1].(rq.ArrayExpr); ok {
				if len(arr.Items) == 0 {
					return &sqlast.Literal{Kind: sqlast.LitBool, Value: "FALSE"}, true, nil
				}
				expr, err := em.emitExpr(sc, op.Args[0])
				if err != nil {
					return nil, true, err
				}
				values := make([]sqlast.Expr, len(arr.Items))
				for i, it := range arr.Items {
					v, err := em.emitExpr(sc, it)
					if err != nil {
						return nil, true, err
					}
					values[i] = v
				}
				return &sqlast.InExpr{Expr: expr, Values: values}, true, nil
			}
		}
	case "std.and":
		if len(op.Args) == 2 {
			if between, ok, err := em.tryBetweenCollapse(sc, op.Args[0], op.Args[1]); ok || err != nil {
				return between, true, err
			}
		}
	}
	return nil, false, nil
}

// mayBeSpecialOperator is a pure, non-emitting predicate mirroring
// trySpecialOperator's structural conditions, used by renderExprText to
// decide whether an operand must be routed through the full (possibly
// structure-producing) build path rather than treated as a plain
// generic-template node, without running any emission as a side effect.
func mayBeSpecialOperator(op rq.Operator) bool {
	switch op.Name {
	case "std.eq", "std.ne":
		if len(op.Args) != 2 {
			return false
		}
		_, ok := nullOperand(op.Args)
		return ok
	case "std.between":
		return len(op.Args) == 3
	case "std.array_in":
		if len(op.Args) != 2 {
			return false
		}
		_, ok := op.Args[1].(rq.ArrayExpr)
		return ok
	case "std.and":
		if len(op.Args) != 2 {
			return false
		}
		return matchesBetweenCollapse(op.Args[0], op.Args[1])
	}
	return false
}

// matchesBetweenCollapse is tryBetweenCollapse's structural condition with
// no emission performed.
func matchesBetweenCollapse(a, b rq.Expr) bool {
	lowOp, ok := a.(rq.Operator)
	if !ok || lowOp.Name != "std.gte" || len(lowOp.Args) != 2 {
		return false
	}
	highOp, ok := b.(rq.Operator)
	if !ok || highOp.Name != "std.lte" || len(highOp.Args) != 2 {
		return false
	}
	return reflect.DeepEqual(lowOp.Args[0], highOp.Args[0])
}

// nullOperand reports whether one of eq/ne's two operands is the null
// literal, returning the other operand so it can become IsNullExpr.Expr.
func nullOperand(args []rq.Expr) (other rq.Expr, ok bool) {
	isLitNull := func(e rq.Expr) bool {
		lit, ok := e.(rq.Literal)
		return ok && lit.Lit.Kind == ast.LitNull
	}
	if isLitNull(args[1]) {
		return args[0], true
	}
	if isLitNull(args[0]) {
		return args[1], true
	}
	return nil, false
}

// tryBetweenCollapse implements §4.5.2's AND-of-two-comparisons fold:
// `x >= lo AND x <= hi` becomes `x BETWEEN lo AND hi` when both sides of
// the AND compare the exact same column expression.
func (em *emitter) tryBetweenCollapse(sc *pipelineScope, a, b rq.Expr) (sqlast.Expr, bool, error) {
	if !matchesBetweenCollapse(a, b) {
		return nil, false, nil
	}
	lowOp := a.(rq.Operator)
	highOp := b.(rq.Operator)
	expr, err := em.emitExpr(sc, lowOp.Args[0])
	if err != nil {
		return nil, true, err
	}
	low, err := em.emitExpr(sc, lowOp.Args[1])
	if err != nil {
		return nil, true, err
	}
	high, err := em.emitExpr(sc, highOp.Args[1])
	if err != nil {
		return nil, true, err
	}
	return &sqlast.BetweenExpr{Expr: expr, Low: low, High: high}, true, nil
}

// buildWindowFuncCall handles the std.window.* templates, which §4.5.2's
// generic table always spells as either "NAME()" or "NAME({0})".
func (em *emitter) buildWindowFuncCall(sc *pipelineScope, op rq.Operator, template string, window *sqlast.WindowSpec) (sqlast.Expr, error) {
	open := strings.IndexByte(template, '(')
	if open < 0 {
		return nil, fmt.Errorf("sqlgen: malformed window template %q", template)
	}
	name := template[:open]
	inner := template[open+1 : len(template)-1]
	var args []sqlast.Expr
	if inner != "" {
		if len(op.Args) == 0 {
			return nil, fmt.Errorf("sqlgen: %s expects an argument", op.Name)
		}
		arg, err := em.emitExpr(sc, op.Args[0])
		if err != nil {
			return nil, err
		}
		args = []sqlast.Expr{arg}
	}
	return &sqlast.FuncCall{Name: name, Args: args, Window: window}, nil
}

// buildDateToText implements §4.5.2's date.to_text translation: the format
// argument must be a literal string known ahead of time so it can be run
// through the dialect's chrono-format table before substitution.
func (em *emitter) buildDateToText(sc *pipelineScope, op rq.Operator, def dialect.OperatorDef) (sqlast.Expr, error) {
	if len(op.Args) != 2 {
		return nil, fmt.Errorf("sqlgen: std.date.to_text expects 2 arguments, got %d", len(op.Args))
	}
	lit, ok := op.Args[0].(rq.Literal)
	if !ok || lit.Lit.Kind != ast.LitString {
		return nil, &NonLiteralFormatError{Operator: "date.to_text"}
	}
	format := lit.Lit.Text
	if em.dialect.DateTextFormat != nil {
		format = em.dialect.DateTextFormat(format)
	}
	translatedLit := lit.Lit
	translatedLit.Text = format
	translated := rq.Literal{Lit: translatedLit}
	text, err := em.renderTemplate(def.Template, []rq.Expr{translated, op.Args[1]}, sc, def.Strength, false)
	if err != nil {
		return nil, err
	}
	return &sqlast.Raw{Text: text}, nil
}

// buildConcatFunction renders a dialect's native CONCAT() for std.concat,
// flattening any nested std.concat chain into one flat argument list
// instead of nesting CONCAT(CONCAT(a, b), c).
func (em *emitter) buildConcatFunction(sc *pipelineScope, op rq.Operator) (sqlast.Expr, error) {
	var flat []rq.Expr
	var walk func(rq.Expr)
	walk = func(e rq.Expr) {
		if inner, ok := e.(rq.Operator); ok && inner.Name == "std.concat" {
			for _, a := range inner.Args {
				walk(a)
			}
			return
		}
		flat = append(flat, e)
	}
	for _, a := range op.Args {
		walk(a)
	}
	args := make([]sqlast.Expr, len(flat))
	for i, e := range flat {
		expr, err := em.emitExpr(sc, e)
		if err != nil {
			return nil, err
		}
		args[i] = expr
	}
	return &sqlast.FuncCall{Name: "CONCAT", Args: args}, nil
}

// wrapCoalesce applies §4.5.2's default-value annotation, except when the
// expression is itself the window function body (the wrapper belongs
// outside the OVER() clause, which callers needing that combination have
// to build themselves; none of the current window operators carry one).
func (em *emitter) wrapCoalesce(def dialect.OperatorDef, expr sqlast.Expr, isWindowed bool) (sqlast.Expr, error) {
	if def.Coalesce == "" || isWindowed {
		return expr, nil
	}
	return &sqlast.FuncCall{Name: "COALESCE", Args: []sqlast.Expr{expr, &sqlast.Raw{Text: def.Coalesce}}}, nil
}

// renderTemplate substitutes each {i} hole in template with its argument,
// parenthesizing an argument whenever §4.5.1's strength/associativity
// rules require it.
func (em *emitter) renderTemplate(template string, args []rq.Expr, sc *pipelineScope, parentStrength int, parentFullyAssoc bool) (string, error) {
	placeholders := countPlaceholders(template)
	var b strings.Builder
	i := 0
	for i < len(template) {
		c := template[i]
		if c == '{' {
			j := strings.IndexByte(template[i:], '}')
			if j < 0 {
				return "", fmt.Errorf("sqlgen: malformed template %q", template)
			}
			idxStr := template[i+1 : i+j]
			idx := 0
			for _, d := range idxStr {
				idx = idx*10 + int(d-'0')
			}
			if idx >= len(args) {
				return "", fmt.Errorf("sqlgen: template %q references argument %d, only %d given", template, idx, len(args))
			}
			isRightSide := idx == placeholders[len(placeholders)-1] && len(placeholders) > 1
			text, strength, err := em.renderExprText(sc, args[idx])
			if err != nil {
				return "", err
			}
			if needsParens(strength, parentStrength, isRightSide, parentFullyAssoc) {
				b.WriteByte('(')
				b.WriteString(text)
				b.WriteByte(')')
			} else {
				b.WriteString(text)
			}
			i += j + 1
			continue
		}
		b.WriteByte(c)
		i++
	}
	return b.String(), nil
}

func countPlaceholders(template string) []int {
	var out []int
	for i := 0; i < len(template); i++ {
		if template[i] == '{' {
			j := strings.IndexByte(template[i:], '}')
			if j < 0 {
				break
			}
			idx := 0
			for _, d := range template[i+1 : i+j] {
				idx = idx*10 + int(d-'0')
			}
			out = append(out, idx)
			i += j
		}
	}
	return out
}

// needsParens implements §4.5.1's strength/associativity comparison.
func needsParens(childStrength, parentStrength int, isRightSide, parentFullyAssoc bool) bool {
	if childStrength > parentStrength {
		return false
	}
	if childStrength < parentStrength {
		return true
	}
	if parentFullyAssoc {
		return false
	}
	return isRightSide
}

// renderExprText flattens an argument to text for embedding into a
// template hole, along with the binding strength to use when deciding
// whether IT needs parenthesizing. Only a nested generic-template operator
// carries a meaningful (non-atomic) strength; everything else — columns,
// literals, and the structured special-cased constructs — is atomic.
func (em *emitter) renderExprText(sc *pipelineScope, e rq.Expr) (string, int, error) {
	if op, ok := e.(rq.Operator); ok && !mayBeSpecialOperator(op) {
		if def, ok := em.dialect.Operator(op.Name); ok && !def.Unsupported() && !def.NeedsWindow &&
			op.Name != "std.date.to_text" && !(op.Name == "std.concat" && em.dialect.HasConcatFunction) {
			text, err := em.renderTemplate(def.Template, op.Args, sc, def.Strength, isFullyAssociative(op.Name))
			if err != nil {
				return "", 0, err
			}
			return text, def.Strength, nil
		}
	}
	expr, err := em.emitExpr(sc, e)
	if err != nil {
		return "", 0, err
	}
	text, err := nodeText(expr)
	if err != nil {
		return "", 0, err
	}
	return text, atomicStrength, nil
}
