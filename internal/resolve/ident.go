package resolve

import (
	"errors"
	"strings"

	"github.com/pqlc-dev/pqlc/internal/ast"
	"github.com/pqlc-dev/pqlc/internal/module"
)

// resolveIdentToDecl implements §4.2.1's three-step search: default
// namespace first, then current_module_path prefixes from longest to
// empty, then redirects on failure.
func (r *Resolver) resolveIdentToDecl(id ast.Ident) (*module.Decl, ast.Ident, error) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if d, ok := lookupPath(r.scopes[i], id); ok {
			return d, id, nil
		}
	}

	if len(r.defaultNamespace) > 0 {
		full := id.Prepend(r.defaultNamespace)
		if d, ok := lookupPath(r.root, full); ok {
			return d, full, nil
		}
	}

	for i := len(r.modulePath); i >= 0; i-- {
		prefix := ast.Ident(append([]string{}, r.modulePath[:i]...))
		full := id.Prepend(prefix)
		if d, ok := lookupPath(r.root, full); ok {
			return d, full, nil
		}
	}

	if d, full, ok := r.followRedirects(r.root, id); ok {
		return d, full, nil
	}

	return nil, nil, &NameNotFoundError{Ident: id, Hint: r.inScopeNames()}
}

// lookupPath walks dotted segments through nested ModuleD namespaces.
func lookupPath(root *module.Module, path ast.Ident) (*module.Decl, bool) {
	if len(path) == 0 {
		return nil, false
	}
	cur := root
	var d *module.Decl
	for i, seg := range path {
		dd, ok := cur.Get(seg)
		if !ok {
			return nil, false
		}
		d = dd
		if i < len(path)-1 {
			md, ok := d.Kind.(module.ModuleD)
			if !ok {
				return nil, false
			}
			cur = md.Module
		}
	}
	return d, true
}

// followRedirects tries every redirect of the root module (and, one
// level down, of any module along the path) appended with id, failing
// with AmbiguousName if more than one matches (§4.2.1).
func (r *Resolver) followRedirects(m *module.Module, id ast.Ident) (*module.Decl, ast.Ident, bool) {
	var found *module.Decl
	var foundPath ast.Ident
	var candidates []ast.Ident
	for _, redirect := range m.Redirects {
		full := id.Prepend(redirect)
		if d, ok := lookupPath(r.root, full); ok {
			found = d
			foundPath = full
			candidates = append(candidates, full)
		}
	}
	if len(candidates) > 1 {
		r.fail(&AmbiguousNameError{Ident: id, Candidates: candidates})
	}
	return found, foundPath, found != nil
}

// inScopeNames is a best-effort hint list for NameNotFoundError.
func (r *Resolver) inScopeNames() []string {
	names := make([]string, 0, len(r.root.Order))
	names = append(names, r.root.Order...)
	return names
}

// foldIdent resolves an identifier reference (§4.2.1), assigning
// TargetId and, when the target is a relational declaration, forcing
// that declaration's resolution first so lineage is available.
func (r *Resolver) foldIdent(e *ast.Expr, k ast.IdentExpr) (*ast.Expr, error) {
	d, full, err := r.resolveIdentToDecl(k.Ident)
	if err != nil {
		var notFound *NameNotFoundError
		if r.inFuncCallName && errors.As(err, &notFound) {
			return r.foldLocalTable(e, k.Ident)
		}
		return nil, err
	}

	switch kind := d.Kind.(type) {
	case module.UnresolvedD:
		parentModule, name := r.ownerModule(full)
		resolved, err := r.resolveDeclExpr(parentModule, name, d)
		if err != nil {
			return nil, err
		}
		e.TargetId = resolved.Id
		e.Ty = resolved.Ty
		e.Lineage = resolved.Lineage
		if ast.IsRelation(resolved.Ty) {
			return r.foldFromTable(e, full, resolved)
		}
		return resolved, nil

	case module.TableD:
		if !r.inFuncCallName {
			return nil, &RelationInstanceUsedAsValueError{Ident: full}
		}
		target := tableDeclTarget(d, kind)
		e.Ty = kind.Ty
		return r.foldFromTable(e, full, target)

	case module.ExprD:
		e.TargetId = kind.Expr.Id
		e.Ty = kind.Expr.Ty
		e.Lineage = kind.Expr.Lineage
		if ast.IsRelation(kind.Expr.Ty) {
			return r.foldFromTable(e, full, kind.Expr)
		}
		if fn, ok := kind.Expr.Kind.(ast.Func); ok && !r.inFuncCallName {
			// A bare reference to a func value outside call position
			// yields the (possibly partial) function value itself.
			_ = fn
			return kind.Expr, nil
		}
		return kind.Expr, nil

	case module.ColumnD:
		e.TargetId = &kind.TargetId
		return e, nil

	case module.InstanceOfD:
		if !r.inFuncCallName {
			return nil, &RelationInstanceUsedAsValueError{Ident: kind.Ident}
		}
		return e, nil

	default:
		return e, nil
	}
}

// tableDeclTarget extracts the expression foldFromTable needs to read
// fields off of: a RelationVar's body carries its own inferred Ty
// directly, while LocalTable/ParamTable/NoneTable have no body of their
// own, so a lightweight placeholder is synthesised, mirroring
// resolveDeclExpr's TableD branch so a second reference to a named
// relation gets the same lineage shape as the first.
func tableDeclTarget(d *module.Decl, kind module.TableD) *ast.Expr {
	if rv, ok := kind.Expr.(module.RelationVar); ok {
		return rv.Body
	}
	return &ast.Expr{Ty: kind.Ty}
}

// foldLocalTable resolves a bare identifier referenced in table position
// (from/join/append) that matched no declaration at all, treating it as
// an implicit physical table name (§3.2's LocalTable) rather than
// failing with NameNotFound. The schema is unknown statically, so its
// relation type is a single wildcard field; lineage exposes it the same
// way foldFromTable does for a declared table.
func (r *Resolver) foldLocalTable(e *ast.Expr, ident ast.Ident) (*ast.Expr, error) {
	ty := ast.Relation(ast.TyTupleField{IsWild: true})
	e.Ty = ty
	return r.foldFromTable(e, ident, &ast.Expr{Ty: ty})
}

// foldFromTable builds the `from`-flavoured lineage an ident referring
// to a relation exposes to its caller (§4.2.4): one LineageInput plus
// one LineageColumn per tuple field (wildcard fields become All).
func (r *Resolver) foldFromTable(e *ast.Expr, full ast.Ident, target *ast.Expr) (*ast.Expr, error) {
	if e.Lineage != nil {
		return e, nil
	}
	fields := ast.TupleFields(target.Ty)
	lineage := &ast.Lineage{Inputs: []ast.LineageInput{{Id: *e.Id, Name: full.Name(), Table: full}}}
	for _, f := range fields {
		if f.IsWild {
			lineage.Columns = append(lineage.Columns, ast.LineageColumn{IsAll: true, InputId: *e.Id, Except: map[string]struct{}{}})
			continue
		}
		lineage.Columns = append(lineage.Columns, ast.LineageColumn{Name: f.Name, HasName: f.Name != "", TargetId: *e.Id, TargetName: f.Name})
	}
	e.Lineage = lineage
	e.Ty = target.Ty
	return e, nil
}

// ownerModule finds the Module directly containing `full`, so a resolved
// decl can be written back with Module.Replace.
func (r *Resolver) ownerModule(full ast.Ident) (*module.Module, string) {
	path := full.Path()
	cur := r.root
	for _, seg := range path {
		d, ok := cur.Get(seg)
		if !ok {
			return cur, full.Name()
		}
		md, ok := d.Kind.(module.ModuleD)
		if !ok {
			return cur, full.Name()
		}
		cur = md.Module
	}
	return cur, full.Name()
}

// foldAll resolves an `All{within, except}` wildcard (§4.2.4): Within
// defaults to an implicit `this` reference when omitted.
func (r *Resolver) foldAll(e *ast.Expr, k ast.All) (*ast.Expr, error) {
	within := k.Within
	if within == nil {
		within = &ast.Expr{Kind: ast.IdentExpr{Ident: ast.NewIdent("this")}, Span: e.Span}
	}
	resolvedWithin, err := r.fold(within)
	if err != nil {
		return nil, err
	}
	e.Kind = ast.All{Within: resolvedWithin, Except: k.Except}
	e.Ty = resolvedWithin.Ty
	if resolvedWithin.Lineage != nil && len(resolvedWithin.Lineage.Inputs) > 0 {
		exceptSet := map[string]struct{}{}
		for _, n := range k.Except {
			exceptSet[n] = struct{}{}
		}
		e.Lineage = &ast.Lineage{
			Inputs: resolvedWithin.Lineage.Inputs,
			Columns: []ast.LineageColumn{{
				IsAll: true, InputId: resolvedWithin.Lineage.Inputs[0].Id, Except: exceptSet,
			}},
		}
	}
	return e, nil
}

func (r *Resolver) foldTuple(e *ast.Expr, k ast.Tuple) (*ast.Expr, error) {
	out := make([]ast.TupleField, len(k.Fields))
	fields := make([]ast.TyTupleField, 0, len(k.Fields))
	for i, f := range k.Fields {
		val, err := r.fold(f.Value)
		if err != nil {
			return nil, err
		}
		alias := f.Alias
		if alias == "" {
			alias = inferAlias(val)
		}
		out[i] = ast.TupleField{Alias: alias, Value: val}
		fields = append(fields, ast.TyTupleField{Name: alias, Ty: val.Ty})
	}
	e.Kind = ast.Tuple{Fields: out}
	e.Ty = &ast.Ty{Kind: ast.TupleTy{Fields: fields}}
	return e, nil
}

// inferAlias picks the trailing ident segment as an implicit alias for
// a bare `col` field of a tuple, matching common PQL usage in
// select/derive assignment lists. An unaliased builtin operator call
// (e.g. `average salary`) infers the operator's own short name instead,
// so `aggregate {average salary}` still produces a named column.
func inferAlias(e *ast.Expr) string {
	switch k := e.Kind.(type) {
	case ast.IdentExpr:
		return k.Ident.Name()
	case ast.RqOperator:
		parts := strings.Split(k.Name, ".")
		return parts[len(parts)-1]
	default:
		return ""
	}
}

func (r *Resolver) foldArray(e *ast.Expr, k ast.Array) (*ast.Expr, error) {
	items := make([]*ast.Expr, len(k.Items))
	for i, it := range k.Items {
		resolved, err := r.fold(it)
		if err != nil {
			return nil, err
		}
		items[i] = resolved
	}
	e.Kind = ast.Array{Items: items}
	if len(items) > 0 && isTupleTy(items[0].Ty) {
		e.Ty = &ast.Ty{Kind: ast.ArrayTy{Elem: items[0].Ty}}
	} else if len(items) > 0 {
		e.Ty = &ast.Ty{Kind: ast.ArrayTy{Elem: items[0].Ty}}
	}
	return e, nil
}

func isTupleTy(t *ast.Ty) bool {
	if t == nil {
		return false
	}
	_, ok := t.Kind.(ast.TupleTy)
	return ok
}
