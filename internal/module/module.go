// Package module builds the mutable root module tree (§4.1, §3.2) that
// the resolver (internal/resolve) walks. Declarations start out as
// Unresolved placeholders; the resolver replaces them in place.
package module

import (
	"fmt"

	"github.com/pqlc-dev/pqlc/internal/ast"
	"github.com/pqlc-dev/pqlc/internal/token"
)

// Module is a simple-name -> Decl mapping plus redirects (§3.2).
type Module struct {
	Entries   map[string]*Decl
	Order     []string // declaration order, used for stable All{} expansion
	Redirects []ast.Ident
	Shadowed  *Decl
}

// NewModule returns an empty module.
func NewModule() *Module {
	return &Module{Entries: map[string]*Decl{}}
}

// Get looks up a simple name in this module only (no redirects, no
// parent walk — that's §4.2.1's job).
func (m *Module) Get(name string) (*Decl, bool) {
	d, ok := m.Entries[name]
	return d, ok
}

// Set inserts name -> decl, recording insertion order. Returns an error
// if name is already bound (§4.1 "duplicate declaration").
func (m *Module) Set(name string, d *Decl) error {
	if _, exists := m.Entries[name]; exists {
		return &DuplicateDeclError{Name: name}
	}
	m.Entries[name] = d
	m.Order = append(m.Order, name)
	return nil
}

// Replace overwrites an existing binding (used by the resolver once it
// has turned an Unresolved decl into its resolved form).
func (m *Module) Replace(name string, d *Decl) {
	if _, exists := m.Entries[name]; !exists {
		m.Order = append(m.Order, name)
	}
	m.Entries[name] = d
}

// Decl is one binding in a Module (§3.2). Every Decl carries a source
// span id, its declaration order, and any annotation expressions.
type Decl struct {
	Kind        DeclKind
	Span        token.Span
	Order       int
	Annotations []*ast.Expr
}

// DeclKind is implemented by every concrete Decl shape.
type DeclKind interface{ declKind() }

// ModuleD is a nested namespace.
type ModuleD struct{ Module *Module }

func (ModuleD) declKind() {}

// TableExpr is the body of a TableDecl (§3.2).
type TableExpr interface{ tableExpr() }

type RelationVar struct{ Body *ast.Expr } // CTE body
func (RelationVar) tableExpr()            {}

type LocalTable struct{ Name ast.Ident } // physical table
func (LocalTable) tableExpr()            {}

type ParamTable struct{ Name string } // query parameter
func (ParamTable) tableExpr()         {}

type NoneTable struct{} // unresolved/placeholder
func (NoneTable) tableExpr()          {}

// TableD is a relation: its inferred type plus how to materialise it.
type TableD struct {
	Ty   *ast.Ty
	Expr TableExpr
}

func (TableD) declKind() {}

// ExprD is a value binding (possibly a function).
type ExprD struct{ Expr *ast.Expr }

func (ExprD) declKind() {}

// ColumnD is a column in an in-scope relational frame; TargetId points
// at the node that introduced it.
type ColumnD struct{ TargetId int }

func (ColumnD) declKind() {}

// InferD is a template used to materialise missing names (wildcard
// columns, inferred tables).
type InferD struct{ Template *Decl }

func (InferD) declKind() {}

// InstanceOfD marks an identifier as a relation instance rather than a
// column.
type InstanceOfD struct{ Ident ast.Ident }

func (InstanceOfD) declKind() {}

// UnresolvedD is a statement not yet resolved; it carries everything the
// resolver needs to process it later.
type UnresolvedD struct {
	Stmt *ast.Stmt
}

func (UnresolvedD) declKind() {}

// QueryDefD carries global options (§6.4): target dialect, version range.
type QueryDefD struct {
	Target  string
	Version string
}

func (QueryDefD) declKind() {}

// DuplicateDeclError reports a name bound twice within one module.
type DuplicateDeclError struct{ Name string }

func (e *DuplicateDeclError) Error() string {
	return fmt.Sprintf("duplicate declaration: %q", e.Name)
}

// SpanMap is id -> Span, populated by Build for diagnostics (§4.1).
type SpanMap map[int]token.Span

// Build converts a parsed ModuleDef into a root Module of Unresolved
// placeholders (§4.1). Nested `module` blocks recurse immediately into
// their own Module; everything else waits for the resolver.
func Build(md *ast.ModuleDef) (*Module, SpanMap, error) {
	root := NewModule()
	spans := SpanMap{}
	if err := buildInto(root, md.Stmts, spans); err != nil {
		return nil, nil, err
	}
	return root, spans, nil
}

func buildInto(m *Module, stmts []*ast.Stmt, spans SpanMap) error {
	for _, stmt := range stmts {
		spans[stmt.Id] = stmt.Span
		name, decl, err := buildStmt(stmt, spans)
		if err != nil {
			return err
		}
		if name == "" {
			continue
		}
		if err := m.Set(name, decl); err != nil {
			return fmt.Errorf("%w at %v", err, stmt.Span)
		}
	}
	return nil
}

func buildStmt(stmt *ast.Stmt, spans SpanMap) (string, *Decl, error) {
	switch k := stmt.Kind.(type) {
	case ast.QueryDefS:
		return "prql", &Decl{
			Kind:        QueryDefD{Target: k.Target, Version: k.Version},
			Span:        stmt.Span,
			Order:       stmt.Id,
			Annotations: stmt.Annotations,
		}, nil

	case ast.VarDefS:
		return k.Name, &Decl{
			Kind:        UnresolvedD{Stmt: stmt},
			Span:        stmt.Span,
			Order:       stmt.Id,
			Annotations: stmt.Annotations,
		}, nil

	case ast.TypeDefS:
		return k.Name, &Decl{
			Kind:        UnresolvedD{Stmt: stmt},
			Span:        stmt.Span,
			Order:       stmt.Id,
			Annotations: stmt.Annotations,
		}, nil

	case ast.MainS:
		// Sugar for VarDefS{Name: "main", Value: expr} (§4.1).
		synthetic := &ast.Stmt{
			Id:          stmt.Id,
			Kind:        ast.VarDefS{Name: "main", Value: k.Value},
			Annotations: stmt.Annotations,
			Span:        stmt.Span,
		}
		return "main", &Decl{
			Kind:        UnresolvedD{Stmt: synthetic},
			Span:        stmt.Span,
			Order:       stmt.Id,
			Annotations: stmt.Annotations,
		}, nil

	case ast.ModuleDefS:
		nested := NewModule()
		if err := buildInto(nested, k.Stmts, spans); err != nil {
			return "", nil, err
		}
		return k.Name, &Decl{
			Kind:  ModuleD{Module: nested},
			Span:  stmt.Span,
			Order: stmt.Id,
		}, nil

	default:
		return "", nil, fmt.Errorf("module: unknown statement kind %T at %v", stmt.Kind, stmt.Span)
	}
}
