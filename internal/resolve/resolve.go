package resolve

import (
	"fmt"
	"strings"

	"github.com/pqlc-dev/pqlc/internal/ast"
	"github.com/pqlc-dev/pqlc/internal/module"
)

// Options mirrors the query-level directives of §6.4, seeded from the
// CLI's compile Options (§6.3) and overridable by an in-source `prql`
// statement.
type Options struct {
	Target  string
	Version string
}

// CompilerVersion is the semver this resolver enforces `prql version:`
// ranges against (§4.3.7 VersionMismatch).
const CompilerVersion = "0.11.0"

// Result is everything the lowerer (internal/rq) needs from resolution.
type Result struct {
	Root    *module.Module
	Main    *ast.Expr
	Options Options
}

// pipelineCtx is the ambient "current group-by context" (§3.5) threaded
// while resolving a pipeline: Base supplies the implicit input for a
// transform call that omits its last positional argument (only happens
// inside a `group`/`window` body, §4.2.3); Partition/Frame/Sort are
// copied onto every TransformCall built while this context is active.
type pipelineCtx struct {
	base      *ast.Expr
	partition *ast.Expr
	frame     ast.WindowFrame
	sort      []ast.ColumnSort
}

// Resolver holds the mutable state threaded through §4.2's resolution
// walk: current module path, default namespace, id generator, and the
// small ambient pipeline context stack used to desugar group/window.
type Resolver struct {
	root    *module.Module
	spans   module.SpanMap
	nextID  int
	options Options

	modulePath       []string
	defaultNamespace ast.Ident
	inFuncCallName   bool

	ctxStack []pipelineCtx
	resolving map[*module.Decl]bool

	scopes []*module.Module

	errs []error
}

func newResolver(root *module.Module, spans module.SpanMap, opts Options) *Resolver {
	return &Resolver{
		root:      root,
		spans:     spans,
		options:   opts,
		resolving: map[*module.Decl]bool{},
		ctxStack:  []pipelineCtx{{}},
	}
}

func (r *Resolver) ctx() *pipelineCtx { return &r.ctxStack[len(r.ctxStack)-1] }

func (r *Resolver) pushCtx(c pipelineCtx) { r.ctxStack = append(r.ctxStack, c) }

func (r *Resolver) popCtx() { r.ctxStack = r.ctxStack[:len(r.ctxStack)-1] }

func (r *Resolver) pushScope(m *module.Module) { r.scopes = append(r.scopes, m) }

func (r *Resolver) popScope() { r.scopes = r.scopes[:len(r.scopes)-1] }

func (r *Resolver) freshID() *int {
	id := r.nextID
	r.nextID++
	return &id
}

func (r *Resolver) fail(err error) { r.errs = append(r.errs, err) }

// Resolve walks root looking for the `prql` directive and the `main`
// decl, resolving main's pipeline to a fully-typed, lineage-annotated
// Expr (§4.1, §4.2). Non-fatal resolver errors accumulate; the first
// fatal error during main's resolution aborts early (§7 propagation
// policy).
func Resolve(root *module.Module, spans module.SpanMap, opts Options) (*Result, []error) {
	r := newResolver(root, spans, opts)

	if d, ok := root.Get("prql"); ok {
		if qd, ok := d.Kind.(module.QueryDefD); ok {
			if qd.Target != "" {
				r.options.Target = qd.Target
			}
			if qd.Version != "" {
				r.options.Version = qd.Version
				if err := checkVersion(qd.Version); err != nil {
					r.fail(&VersionMismatchError{baseErr{d.Span}, qd.Version, CompilerVersion})
				}
			}
		}
	}

	mainDecl, ok := root.Get("main")
	if !ok {
		r.fail(&MainNotFoundError{})
		return nil, r.errs
	}

	mainExpr, err := r.resolveDeclExpr(root, "main", mainDecl)
	if err != nil {
		r.fail(err)
		return nil, r.errs
	}
	if !ast.IsRelation(mainExpr.Ty) {
		r.fail(&TypeMismatchError{baseErr{mainExpr.Span}, "relation", tyName(mainExpr.Ty), "main"})
		return nil, r.errs
	}

	if len(r.errs) > 0 {
		return nil, r.errs
	}
	return &Result{Root: root, Main: mainExpr, Options: r.options}, nil
}

// checkVersion does a loose semver-range check, stripping any
// pre-release suffix per §4.3.7.
func checkVersion(declared string) error {
	declared = strings.SplitN(declared, "-", 2)[0]
	declared = strings.TrimPrefix(declared, "^")
	declared = strings.TrimPrefix(declared, "~")
	declared = strings.TrimPrefix(declared, ">=")
	major := strings.SplitN(declared, ".", 2)[0]
	compilerMajor := strings.SplitN(CompilerVersion, ".", 2)[0]
	if major != "" && major != compilerMajor {
		return fmt.Errorf("major version mismatch")
	}
	return nil
}

// resolveDeclExpr resolves the Unresolved decl `name` in module `m`
// in place, caching the resolved Expr as an ExprD/TableD so repeated
// lookups (and idempotent re-resolution, §8.1) are cheap.
func (r *Resolver) resolveDeclExpr(m *module.Module, name string, d *module.Decl) (*ast.Expr, error) {
	switch k := d.Kind.(type) {
	case module.ExprD:
		return k.Expr, nil
	case module.TableD:
		if rv, ok := k.Expr.(module.RelationVar); ok {
			return rv.Body, nil
		}
		// LocalTable/Param/None have no body expr to return directly;
		// synthesize a lightweight relation-ident placeholder.
		return &ast.Expr{Kind: ast.IdentExpr{Ident: ast.NewIdent(name)}, Ty: k.Ty}, nil
	case module.UnresolvedD:
		if r.resolving[d] {
			return nil, fmt.Errorf("resolve: cyclic reference resolving %q", name)
		}
		r.resolving[d] = true
		defer delete(r.resolving, d)

		vd, ok := k.Stmt.Kind.(ast.VarDefS)
		if !ok {
			// TypeDefS and others don't produce a value expr.
			return nil, fmt.Errorf("resolve: %q is not a value binding", name)
		}
		resolved, err := r.fold(vd.Value)
		if err != nil {
			return nil, err
		}
		if name == "main" && vd.Ty == nil && !ast.IsRelation(resolved.Ty) {
			return nil, &TypeMismatchError{baseErr{resolved.Span}, "relation", tyName(resolved.Ty), "main"}
		}
		if ast.IsRelation(resolved.Ty) {
			m.Replace(name, &module.Decl{
				Kind: module.TableD{Ty: resolved.Ty, Expr: module.RelationVar{Body: resolved}},
				Span: d.Span, Order: d.Order, Annotations: d.Annotations,
			})
		} else {
			m.Replace(name, &module.Decl{
				Kind: module.ExprD{Expr: resolved},
				Span: d.Span, Order: d.Order, Annotations: d.Annotations,
			})
		}
		return resolved, nil
	default:
		return nil, fmt.Errorf("resolve: %q has no resolvable value (kind %T)", name, d.Kind)
	}
}

func tyName(t *ast.Ty) string {
	if t == nil {
		return "unknown"
	}
	if t.DisplayName != "" {
		return t.DisplayName
	}
	switch k := t.Kind.(type) {
	case ast.Primitive:
		return [...]string{"int", "float", "bool", "text", "date", "time", "timestamp"}[k.Kind]
	case ast.ArrayTy:
		return "array"
	case ast.TupleTy:
		return "tuple"
	case ast.FunctionTy:
		return "function"
	default:
		return "any"
	}
}

// fold is the central dispatcher of §4.2: resolve one AST node in place,
// assigning a fresh id on first resolution (§3.9) and recursing into
// children. Idempotent: a node that already has an Id is a no-op on the
// id/target fields it already carries (§8.1).
func (r *Resolver) fold(e *ast.Expr) (*ast.Expr, error) {
	if e == nil {
		return nil, nil
	}
	if e.Id == nil {
		e.Id = r.freshID()
	}

	switch k := e.Kind.(type) {
	case ast.Literal:
		e.Ty = literalTy(k)
		return e, nil

	case ast.IdentExpr:
		return r.foldIdent(e, k)

	case ast.All:
		return r.foldAll(e, k)

	case ast.Tuple:
		return r.foldTuple(e, k)

	case ast.Array:
		return r.foldArray(e, k)

	case ast.Range:
		start, err := r.fold(k.Start)
		if err != nil {
			return nil, err
		}
		end, err := r.fold(k.End)
		if err != nil {
			return nil, err
		}
		e.Kind = ast.Range{Start: start, End: end}
		return e, nil

	case ast.Binary:
		return r.foldBinary(e, k)

	case ast.Unary:
		return r.foldUnary(e, k)

	case ast.FuncCall:
		return r.foldFuncCall(e, k)

	case ast.Func:
		return e, nil // function values resolve lazily on application

	case ast.SString:
		return r.foldStringParts(e, k.Parts, func(p []ast.StringPart) ast.ExprKind { return ast.SString{Parts: p} })

	case ast.FString:
		return r.foldStringParts(e, k.Parts, func(p []ast.StringPart) ast.ExprKind { return ast.FString{Parts: p} })

	case ast.Case:
		return r.foldCase(e, k)

	case ast.ParamRef:
		return e, nil

	case ast.RqOperator:
		for i, a := range k.Args {
			resolved, err := r.fold(a)
			if err != nil {
				return nil, err
			}
			k.Args[i] = resolved
		}
		e.Kind = k
		return e, nil

	default:
		return e, nil
	}
}

func literalTy(l ast.Literal) *ast.Ty {
	switch l.Kind {
	case ast.LitNull:
		return &ast.Ty{Kind: ast.AnyTy{}}
	case ast.LitBool:
		return &ast.Ty{Kind: ast.Primitive{Kind: ast.TyBool}}
	case ast.LitInt:
		return &ast.Ty{Kind: ast.Primitive{Kind: ast.TyInt}}
	case ast.LitFloat:
		return &ast.Ty{Kind: ast.Primitive{Kind: ast.TyFloat}}
	case ast.LitString:
		return &ast.Ty{Kind: ast.Primitive{Kind: ast.TyText}}
	case ast.LitDate:
		return &ast.Ty{Kind: ast.Primitive{Kind: ast.TyDate}}
	case ast.LitTime:
		return &ast.Ty{Kind: ast.Primitive{Kind: ast.TyTime}}
	case ast.LitTimestamp:
		return &ast.Ty{Kind: ast.Primitive{Kind: ast.TyTimestamp}}
	default:
		return &ast.Ty{Kind: ast.AnyTy{}}
	}
}

func (r *Resolver) foldStringParts(e *ast.Expr, parts []ast.StringPart, rebuild func([]ast.StringPart) ast.ExprKind) (*ast.Expr, error) {
	out := make([]ast.StringPart, len(parts))
	for i, p := range parts {
		if p.Expr == nil {
			out[i] = p
			continue
		}
		resolved, err := r.fold(p.Expr)
		if err != nil {
			return nil, err
		}
		out[i] = ast.StringPart{Expr: resolved}
	}
	e.Kind = rebuild(out)
	e.Ty = &ast.Ty{Kind: ast.Primitive{Kind: ast.TyText}}
	return e, nil
}

func (r *Resolver) foldCase(e *ast.Expr, k ast.Case) (*ast.Expr, error) {
	out := make([]ast.SwitchCase, 0, len(k.Cases))
	for _, sc := range k.Cases {
		cond, err := r.fold(sc.Condition)
		if err != nil {
			return nil, err
		}
		val, err := r.fold(sc.Value)
		if err != nil {
			return nil, err
		}
		cond, val = peepholeCase(cond, val)
		out = append(out, ast.SwitchCase{Condition: cond, Value: val})
		// §4.2.5: a literal-true condition short-circuits; later arms
		// are dead but kept in source order for error reporting.
		if isLiteralTrue(cond) {
			break
		}
	}
	e.Kind = ast.Case{Cases: out}
	if len(out) > 0 {
		e.Ty = out[len(out)-1].Value.Ty
	}
	return e, nil
}
