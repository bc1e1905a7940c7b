package resolve

import (
	"fmt"

	"github.com/pqlc-dev/pqlc/internal/ast"
	"github.com/pqlc-dev/pqlc/internal/module"
)

// builtinTransforms are the eleven standard pipeline stages plus the two
// desugared-at-resolution forms Group and Window (§3.5, §4.2.3). They are
// never bound in the module tree, so foldFuncCall intercepts them by name
// before attempting identifier resolution.
var builtinTransforms = map[string]struct{}{
	"from": {}, "filter": {}, "derive": {}, "select": {}, "group": {},
	"aggregate": {}, "sort": {}, "take": {}, "join": {}, "append": {},
	"loop": {}, "window": {}, "distinct": {},
}

func isBuiltinTransform(name string) bool {
	_, ok := builtinTransforms[name]
	return ok
}

// builtinScalarOps maps a PQL-level function name straight onto a
// dialect-indexed operator table entry (internal/dialect), bypassing the
// module system entirely. This is a deliberate narrowing: a full engine
// ships `std` as a real module of PQL function declarations that happen
// to have an Internal{} body (§3.3); this front end does not parse or
// load such a module, so the common `std.*` names are treated as
// reserved words that resolve directly to an RqOperator (documented in
// DESIGN.md).
var builtinScalarOps = map[string]string{
	"average":         "std.aggregate.average",
	"sum":              "std.aggregate.sum",
	"min":              "std.aggregate.min",
	"max":              "std.aggregate.max",
	"count":            "std.aggregate.count",
	"count_distinct":   "std.aggregate.count_distinct",
	"stddev":           "std.aggregate.stddev",
	"row_number":       "std.window.row_number",
	"rank":             "std.window.rank",
	"dense_rank":       "std.window.dense_rank",
	"lag":              "std.window.lag",
	"lead":             "std.window.lead",
	"lower":            "std.text.lower",
	"upper":            "std.text.upper",
	"trim":             "std.text.trim",
	"length":           "std.text.length",
	"starts_with":      "std.text.starts_with",
	"contains":         "std.text.contains",
	"abs":              "std.math.abs",
	"round":            "std.math.round",
	"sqrt":             "std.math.sqrt",
	"floor":            "std.math.floor",
	"ceil":             "std.math.ceil",
	"concat":           "std.concat",
	"coalesce":         "std.coalesce",
	"as_text":          "std.as_text",
	"as_int":           "std.as_int",
	"as_float":         "std.as_float",
	"to_text":          "std.date.to_text",
	"in":               "", // special-cased in foldBuiltinScalar
}

// windowOps names which builtins need a window frame; foldBuiltinScalar
// copies it onto the Expr's NeedsWindow flag, which lowering reads to
// attach a Window to the Compute (internal/dialect carries the
// authoritative NeedsWindow flag per operator; this mirrors it at the
// Expr level so lowering doesn't consult the dialect table).
var windowOps = map[string]bool{
	"row_number": true, "rank": true, "dense_rank": true, "lag": true, "lead": true,
}

// foldBuiltinScalar resolves a call to one of builtinScalarOps directly
// into an RqOperator node (§3.3), skipping function lookup/application.
func (r *Resolver) foldBuiltinScalar(e *ast.Expr, name string, k ast.FuncCall) (*ast.Expr, error) {
	args := make([]*ast.Expr, len(k.Args))
	for i, a := range k.Args {
		resolved, err := r.fold(a)
		if err != nil {
			return nil, err
		}
		args[i] = resolved
	}

	if name == "in" {
		return r.foldIn(e, args)
	}

	e.Kind = ast.RqOperator{Name: builtinScalarOps[name], Args: args}
	e.NeedsWindow = windowOps[name]
	e.Ty = &ast.Ty{Kind: ast.AnyTy{}}
	return e, nil
}

// foldIn desugars `value | in range` into a BETWEEN operator when the
// right side is a Range, or an IN-list otherwise (§4.5.2 special cases).
func (r *Resolver) foldIn(e *ast.Expr, args []*ast.Expr) (*ast.Expr, error) {
	if len(args) != 2 {
		return nil, &BadTransformError{baseErr{e.Span}, "in: expected a value and a range or array"}
	}
	value, bound := args[1], args[0]
	e.Ty = &ast.Ty{Kind: ast.Primitive{Kind: ast.TyBool}}
	if rng, ok := bound.Kind.(ast.Range); ok {
		e.Kind = ast.RqOperator{Name: "std.between", Args: []*ast.Expr{value, rng.Start, rng.End}}
		return e, nil
	}
	e.Kind = ast.RqOperator{Name: "std.array_in", Args: []*ast.Expr{value, bound}}
	return e, nil
}

// foldTransform dispatches a builtin transform call to its handler
// (§4.2.3), assigning the freshly-built TransformCall's lineage and type.
func (r *Resolver) foldTransform(e *ast.Expr, name string, k ast.FuncCall) (*ast.Expr, error) {
	switch name {
	case "from":
		return r.foldFrom(e, k.Args)
	case "filter":
		return r.foldFilter(e, k.Args)
	case "derive":
		return r.foldDeriveOrSelect(e, k.Args, false)
	case "select":
		return r.foldDeriveOrSelect(e, k.Args, true)
	case "aggregate":
		return r.foldAggregate(e, k.Args)
	case "sort":
		return r.foldSort(e, k.Args)
	case "take":
		return r.foldTake(e, k.Args)
	case "join":
		return r.foldJoin(e, k.Args, k.NamedArgs)
	case "append":
		return r.foldAppend(e, k.Args)
	case "loop":
		return r.foldLoop(e, k.Args)
	case "distinct":
		return r.foldDistinct(e, k.Args)
	case "group":
		return r.foldGroup(e, k.Args)
	case "window":
		return r.foldWindow(e, k.Args, k.NamedArgs)
	default:
		return nil, fmt.Errorf("resolve: unhandled transform %q", name)
	}
}

// splitArgs peels the trailing positional "upstream input" argument
// composeStage appends to every mid-pipeline stage (see internal/parser's
// parser_expr.go). A stage at the head of a parenthesised sub-pipeline
// (a group/window body's first call) has no such argument; base supplies
// the ambient input in that case (§4.2.3).
func splitArgs(args []*ast.Expr, contentCount int, base *ast.Expr) ([]*ast.Expr, *ast.Expr, error) {
	switch len(args) {
	case contentCount:
		if base == nil {
			return nil, nil, fmt.Errorf("missing input relation")
		}
		return args, base, nil
	case contentCount + 1:
		return args[:contentCount], args[contentCount], nil
	default:
		return nil, nil, fmt.Errorf("wrong number of arguments (got %d, want %d or %d)", len(args), contentCount, contentCount+1)
	}
}

// finishTransform builds the resolved TransformCall node, stamping the
// ambient group/window context (§3.5) that was active when this
// transform was built onto it.
func (r *Resolver) finishTransform(e *ast.Expr, input *ast.Expr, kind ast.TransformKind, lineage *ast.Lineage, ty *ast.Ty) *ast.Expr {
	c := r.ctx()
	e.Kind = ast.TransformCall{
		Input: input, Kind: kind,
		Partition: c.partition, Frame: c.frame, Sort: c.sort,
	}
	e.Lineage = lineage
	e.Ty = ty
	return e
}

func fieldsFromLineage(l *ast.Lineage) []ast.TyTupleField {
	if l == nil {
		return nil
	}
	fields := make([]ast.TyTupleField, 0, len(l.Columns))
	for _, c := range l.Columns {
		if c.IsAll {
			fields = append(fields, ast.TyTupleField{IsWild: true})
			continue
		}
		fields = append(fields, ast.TyTupleField{Name: c.Name})
	}
	return fields
}

type namedLineage struct {
	name    string // "" registers columns unqualified
	lineage *ast.Lineage
}

// buildScope turns one or more in-scope lineages into a Module of
// ColumnD entries the ident resolver consults ahead of the module tree
// (§4.2.1 extended for §4.2.4's column scoping). A named frame (used by
// join's `this`/`that`) is reachable both as `this.col` and, as a
// fallback when no earlier frame already bound the name, bare `col`.
func buildScope(frames ...namedLineage) *module.Module {
	scope := module.NewModule()
	register := func(m *module.Module, lineage *ast.Lineage) {
		if lineage == nil {
			return
		}
		for _, c := range lineage.Columns {
			if c.IsAll || !c.HasName {
				continue
			}
			if _, exists := m.Get(c.Name); exists {
				continue
			}
			_ = m.Set(c.Name, &module.Decl{Kind: module.ColumnD{TargetId: c.TargetId}})
		}
	}
	for _, f := range frames {
		if f.name == "" {
			register(scope, f.lineage)
			if _, exists := scope.Get("this"); !exists {
				sub := module.NewModule()
				register(sub, f.lineage)
				_ = scope.Set("this", &module.Decl{Kind: module.ModuleD{Module: sub}})
			}
			continue
		}
		sub := module.NewModule()
		register(sub, f.lineage)
		_ = scope.Set(f.name, &module.Decl{Kind: module.ModuleD{Module: sub}})
		register(scope, f.lineage)
	}
	return scope
}

// foldFrom resolves the `from <relation>` transform (§4.2.3): its single
// argument is the relation ident or subquery itself, never an upstream
// input, since `from` always starts a pipeline.
func (r *Resolver) foldFrom(e *ast.Expr, args []*ast.Expr) (*ast.Expr, error) {
	if len(args) != 1 {
		return nil, &BadTransformError{baseErr{e.Span}, "from: expected exactly one relation"}
	}
	prev := r.inFuncCallName
	r.inFuncCallName = true
	resolved, err := r.fold(args[0])
	r.inFuncCallName = prev
	if err != nil {
		return nil, err
	}
	return r.finishTransform(e, nil, ast.FromT{Relation: resolved}, resolved.Lineage, resolved.Ty), nil
}

// foldFilter resolves `filter <condition>` (§4.2.3): the condition is
// folded with the upstream lineage in scope; lineage/type pass through.
func (r *Resolver) foldFilter(e *ast.Expr, args []*ast.Expr) (*ast.Expr, error) {
	content, inputArg, err := splitArgs(args, 1, r.ctx().base)
	if err != nil {
		return nil, &BadTransformError{baseErr{e.Span}, "filter: " + err.Error()}
	}
	input, err := r.fold(inputArg)
	if err != nil {
		return nil, err
	}
	r.pushScope(buildScope(namedLineage{lineage: input.Lineage}))
	cond, err := r.fold(content[0])
	r.popScope()
	if err != nil {
		return nil, err
	}
	return r.finishTransform(e, input, ast.FilterT{Filter: cond}, input.Lineage, input.Ty), nil
}

// assignsFromContent turns a derive/select/aggregate content expression
// (a Tuple literal, an All wildcard, or a single bare value) into its
// Assign list (§4.2.3/§4.2.4).
func assignsFromContent(content *ast.Expr) []ast.Assign {
	if tup, ok := content.Kind.(ast.Tuple); ok {
		out := make([]ast.Assign, len(tup.Fields))
		for i, f := range tup.Fields {
			out[i] = ast.Assign{Alias: f.Alias, Value: f.Value}
		}
		return out
	}
	return []ast.Assign{{Alias: inferAlias(content), Value: content}}
}

func lineageColumnForAssign(a ast.Assign) ast.LineageColumn {
	if all, ok := a.Value.Kind.(ast.All); ok {
		exceptSet := map[string]struct{}{}
		for _, n := range all.Except {
			exceptSet[n] = struct{}{}
		}
		inputID := 0
		if a.Value.Lineage != nil && len(a.Value.Lineage.Inputs) > 0 {
			inputID = a.Value.Lineage.Inputs[0].Id
		}
		return ast.LineageColumn{IsAll: true, InputId: inputID, Except: exceptSet}
	}
	id := 0
	if a.Value.Id != nil {
		id = *a.Value.Id
	}
	return ast.LineageColumn{Name: a.Alias, HasName: a.Alias != "", TargetId: id, TargetName: a.Alias}
}

// foldDeriveOrSelect implements both `derive` (append columns, §4.2.4)
// and `select` (replace the column list, keeping Inputs) since they
// share everything but what happens to the existing lineage.
func (r *Resolver) foldDeriveOrSelect(e *ast.Expr, args []*ast.Expr, isSelect bool) (*ast.Expr, error) {
	label := "derive"
	if isSelect {
		label = "select"
	}
	contentArgs, inputArg, err := splitArgs(args, 1, r.ctx().base)
	if err != nil {
		return nil, &BadTransformError{baseErr{e.Span}, label + ": " + err.Error()}
	}
	input, err := r.fold(inputArg)
	if err != nil {
		return nil, err
	}
	r.pushScope(buildScope(namedLineage{lineage: input.Lineage}))
	content, err := r.fold(contentArgs[0])
	r.popScope()
	if err != nil {
		return nil, err
	}

	assigns := assignsFromContent(content)
	newCols := make([]ast.LineageColumn, len(assigns))
	for i, a := range assigns {
		newCols[i] = lineageColumnForAssign(a)
	}

	var lineage *ast.Lineage
	if isSelect {
		inputs := input.Lineage.Inputs
		lineage = &ast.Lineage{Inputs: inputs, Columns: newCols}
	} else {
		lineage = input.Lineage.Clone()
		lineage.Columns = append(lineage.Columns, newCols...)
	}
	ty := ast.Relation(fieldsFromLineage(lineage)...)

	var kind ast.TransformKind
	if isSelect {
		kind = ast.SelectT{Assigns: assigns}
	} else {
		kind = ast.DeriveT{Assigns: assigns}
	}
	return r.finishTransform(e, input, kind, lineage, ty), nil
}

// foldAggregate implements `aggregate <assigns>` (§4.2.3/§4.2.4): the
// resulting lineage leads with the active group-by partition columns (if
// any, carried via the pipelineCtx left by an enclosing `group`) and
// follows with the aggregated assigns.
func (r *Resolver) foldAggregate(e *ast.Expr, args []*ast.Expr) (*ast.Expr, error) {
	contentArgs, inputArg, err := splitArgs(args, 1, r.ctx().base)
	if err != nil {
		return nil, &BadTransformError{baseErr{e.Span}, "aggregate: " + err.Error()}
	}
	input, err := r.fold(inputArg)
	if err != nil {
		return nil, err
	}
	r.pushScope(buildScope(namedLineage{lineage: input.Lineage}))
	content, err := r.fold(contentArgs[0])
	r.popScope()
	if err != nil {
		return nil, err
	}

	assigns := assignsFromContent(content)
	var cols []ast.LineageColumn
	if part := r.ctx().partition; part != nil {
		for _, a := range assignsFromContent(part) {
			cols = append(cols, lineageColumnForAssign(a))
		}
	}
	for _, a := range assigns {
		cols = append(cols, lineageColumnForAssign(a))
	}
	lineage := &ast.Lineage{Inputs: input.Lineage.Inputs, Columns: cols}
	ty := ast.Relation(fieldsFromLineage(lineage)...)
	return r.finishTransform(e, input, ast.AggregateT{Assigns: assigns}, lineage, ty), nil
}

// sortSpecFromContent extracts ColumnSort entries from a Tuple, Array,
// or single value, honouring a leading unary `-` as descending (§4.2.3).
func sortSpecFromContent(content *ast.Expr) []ast.ColumnSort {
	extract := func(it *ast.Expr) ast.ColumnSort {
		if u, ok := it.Kind.(ast.Unary); ok && u.Op == ast.OpNeg {
			return ast.ColumnSort{By: u.Operand, Desc: true}
		}
		return ast.ColumnSort{By: it}
	}
	switch k := content.Kind.(type) {
	case ast.Tuple:
		out := make([]ast.ColumnSort, len(k.Fields))
		for i, f := range k.Fields {
			out[i] = extract(f.Value)
		}
		return out
	case ast.Array:
		out := make([]ast.ColumnSort, len(k.Items))
		for i, it := range k.Items {
			out[i] = extract(it)
		}
		return out
	default:
		return []ast.ColumnSort{extract(content)}
	}
}

// foldSort implements `sort <keys>` (§4.2.3); lineage/type pass through.
func (r *Resolver) foldSort(e *ast.Expr, args []*ast.Expr) (*ast.Expr, error) {
	contentArgs, inputArg, err := splitArgs(args, 1, r.ctx().base)
	if err != nil {
		return nil, &BadTransformError{baseErr{e.Span}, "sort: " + err.Error()}
	}
	input, err := r.fold(inputArg)
	if err != nil {
		return nil, err
	}
	r.pushScope(buildScope(namedLineage{lineage: input.Lineage}))
	content, err := r.fold(contentArgs[0])
	r.popScope()
	if err != nil {
		return nil, err
	}
	by := sortSpecFromContent(content)
	// A sort's ordering becomes the ambient frame order for any window
	// function appearing later in the same group/window body (§4.2.3).
	r.ctx().sort = by
	return r.finishTransform(e, input, ast.SortT{By: by}, input.Lineage, input.Ty), nil
}

// foldTake implements `take <range-or-count>` (§4.2.3); lineage/type
// pass through. A bare count `take 5` means "rows 1..5".
func (r *Resolver) foldTake(e *ast.Expr, args []*ast.Expr) (*ast.Expr, error) {
	contentArgs, inputArg, err := splitArgs(args, 1, r.ctx().base)
	if err != nil {
		return nil, &BadTransformError{baseErr{e.Span}, "take: " + err.Error()}
	}
	input, err := r.fold(inputArg)
	if err != nil {
		return nil, err
	}
	content, err := r.fold(contentArgs[0])
	if err != nil {
		return nil, err
	}
	var rng ast.Range
	if rv, ok := content.Kind.(ast.Range); ok {
		rng = rv
	} else {
		rng = ast.Range{End: content}
	}
	return r.finishTransform(e, input, ast.TakeT{Range: rng}, input.Lineage, input.Ty), nil
}

// foldDistinct implements `distinct` (§4.2.3): no content arguments.
func (r *Resolver) foldDistinct(e *ast.Expr, args []*ast.Expr) (*ast.Expr, error) {
	_, inputArg, err := splitArgs(args, 0, r.ctx().base)
	if err != nil {
		return nil, &BadTransformError{baseErr{e.Span}, "distinct: " + err.Error()}
	}
	input, err := r.fold(inputArg)
	if err != nil {
		return nil, err
	}
	return r.finishTransform(e, input, ast.DistinctT{}, input.Lineage, input.Ty), nil
}

// foldAppend implements `append <relation>` (§4.2.3): lineage is taken
// from the upstream input, assuming (as PQL requires) the two relations
// share shape.
func (r *Resolver) foldAppend(e *ast.Expr, args []*ast.Expr) (*ast.Expr, error) {
	contentArgs, inputArg, err := splitArgs(args, 1, r.ctx().base)
	if err != nil {
		return nil, &BadTransformError{baseErr{e.Span}, "append: " + err.Error()}
	}
	input, err := r.fold(inputArg)
	if err != nil {
		return nil, err
	}
	prev := r.inFuncCallName
	r.inFuncCallName = true
	bottom, err := r.fold(contentArgs[0])
	r.inFuncCallName = prev
	if err != nil {
		return nil, err
	}
	return r.finishTransform(e, input, ast.AppendT{Bottom: bottom}, input.Lineage, input.Ty), nil
}

// foldLoop implements `loop <body>` (§4.2.3): the body pipeline resolves
// with the upstream input as its ambient base, so a from-less body
// continues the same relation (recursive refinement).
func (r *Resolver) foldLoop(e *ast.Expr, args []*ast.Expr) (*ast.Expr, error) {
	contentArgs, inputArg, err := splitArgs(args, 1, r.ctx().base)
	if err != nil {
		return nil, &BadTransformError{baseErr{e.Span}, "loop: " + err.Error()}
	}
	input, err := r.fold(inputArg)
	if err != nil {
		return nil, err
	}
	r.pushCtx(pipelineCtx{base: input})
	body, err := r.fold(contentArgs[0])
	r.popCtx()
	if err != nil {
		return nil, err
	}
	return r.finishTransform(e, input, ast.LoopT{Body: body}, input.Lineage, input.Ty), nil
}

// namedArgIdent reads a `name:bareword` named argument's identifier text
// without folding it (join's `side:left` is not a column reference).
func namedArgIdent(named []ast.NamedArg, key string) (string, bool) {
	for _, na := range named {
		if na.Name != key {
			continue
		}
		if id, ok := na.Value.Kind.(ast.IdentExpr); ok {
			return id.Ident.Name(), true
		}
		if lit, ok := na.Value.Kind.(ast.Literal); ok && lit.Kind == ast.LitString {
			return lit.Text, true
		}
	}
	return "", false
}

func joinSideFromName(s string) ast.JoinSide {
	switch s {
	case "left":
		return ast.JoinLeft
	case "right":
		return ast.JoinRight
	case "full":
		return ast.JoinFull
	default:
		return ast.JoinInner
	}
}

// foldJoin implements `join side:<kind> <relation> <condition>`
// (§4.2.3): the condition resolves against a scope exposing both sides,
// reachable unqualified or through the `this`/`that` namespaces (§4.2.1).
func (r *Resolver) foldJoin(e *ast.Expr, args []*ast.Expr, named []ast.NamedArg) (*ast.Expr, error) {
	contentArgs, inputArg, err := splitArgs(args, 2, r.ctx().base)
	if err != nil {
		return nil, &BadTransformError{baseErr{e.Span}, "join: " + err.Error()}
	}
	input, err := r.fold(inputArg)
	if err != nil {
		return nil, err
	}
	prev := r.inFuncCallName
	r.inFuncCallName = true
	with, err := r.fold(contentArgs[0])
	r.inFuncCallName = prev
	if err != nil {
		return nil, err
	}

	r.pushScope(buildScope(
		namedLineage{name: "this", lineage: input.Lineage},
		namedLineage{name: "that", lineage: with.Lineage},
	))
	cond, err := r.fold(contentArgs[1])
	r.popScope()
	if err != nil {
		return nil, err
	}

	side := ast.JoinInner
	if s, ok := namedArgIdent(named, "side"); ok {
		side = joinSideFromName(s)
	}

	lineage := &ast.Lineage{
		Inputs:  append(append([]ast.LineageInput{}, input.Lineage.Inputs...), with.Lineage.Inputs...),
		Columns: append(append([]ast.LineageColumn{}, input.Lineage.Columns...), with.Lineage.Columns...),
	}
	ty := ast.Relation(fieldsFromLineage(lineage)...)
	return r.finishTransform(e, input, ast.JoinT{Side: side, With: with, Filter: cond}, lineage, ty), nil
}

// foldGroup implements `group <by> (<pipeline>)` (§4.2.3): it never
// survives resolution. The partition keys become the ambient
// pipelineCtx for the body, and the body's own resolved node (already a
// TransformCall with Partition stamped via finishTransform) is inlined
// in place of the Group node itself.
func (r *Resolver) foldGroup(e *ast.Expr, args []*ast.Expr) (*ast.Expr, error) {
	contentArgs, inputArg, err := splitArgs(args, 2, r.ctx().base)
	if err != nil {
		return nil, &BadTransformError{baseErr{e.Span}, "group: " + err.Error()}
	}
	input, err := r.fold(inputArg)
	if err != nil {
		return nil, err
	}
	r.pushScope(buildScope(namedLineage{lineage: input.Lineage}))
	partition, err := r.fold(contentArgs[0])
	r.popScope()
	if err != nil {
		return nil, err
	}

	r.pushCtx(pipelineCtx{base: input, partition: partition, sort: r.ctx().sort})
	body, err := r.fold(contentArgs[1])
	r.popCtx()
	if err != nil {
		return nil, err
	}
	*e = *body
	return e, nil
}

// parseWindowFrame reads the `rows:`/`range:` named argument (a
// two-element array, null meaning unbounded) into a WindowFrame (§4.2.3).
func parseWindowFrame(named []ast.NamedArg) ast.WindowFrame {
	frame := ast.WindowFrame{Kind: ast.FrameRows}
	bounds := func(arr ast.Array) (*int, *int) {
		var start, end *int
		if len(arr.Items) > 0 {
			if lit, ok := arr.Items[0].Kind.(ast.Literal); ok && lit.Kind == ast.LitInt {
				v := int(lit.Int)
				start = &v
			}
		}
		if len(arr.Items) > 1 {
			if lit, ok := arr.Items[1].Kind.(ast.Literal); ok && lit.Kind == ast.LitInt {
				v := int(lit.Int)
				end = &v
			}
		}
		return start, end
	}
	for _, na := range named {
		arr, ok := na.Value.Kind.(ast.Array)
		if !ok {
			continue
		}
		switch na.Name {
		case "rows":
			frame.Kind = ast.FrameRows
			frame.Start, frame.End = bounds(arr)
		case "range":
			frame.Kind = ast.FrameRange
			frame.Start, frame.End = bounds(arr)
		}
	}
	return frame
}

// foldWindow implements `window rows:[..] (<pipeline>)` (§4.2.3): like
// group, it never survives resolution, inlining its (now windowed) body.
func (r *Resolver) foldWindow(e *ast.Expr, args []*ast.Expr, named []ast.NamedArg) (*ast.Expr, error) {
	contentArgs, inputArg, err := splitArgs(args, 1, r.ctx().base)
	if err != nil {
		return nil, &BadTransformError{baseErr{e.Span}, "window: " + err.Error()}
	}
	input, err := r.fold(inputArg)
	if err != nil {
		return nil, err
	}
	frame := parseWindowFrame(named)
	r.pushCtx(pipelineCtx{base: input, partition: r.ctx().partition, frame: frame, sort: r.ctx().sort})
	body, err := r.fold(contentArgs[0])
	r.popCtx()
	if err != nil {
		return nil, err
	}
	*e = *body
	return e, nil
}
