package ast

import "github.com/pqlc-dev/pqlc/internal/token"

// Stmt is one top-level or module-level statement (§4.1, §6.1).
type Stmt struct {
	Id          int
	Kind        StmtKind
	Annotations []*Expr
	Span        token.Span
}

// StmtKind enumerates the shapes the module-tree builder accepts.
type StmtKind interface {
	stmtKind()
}

// QueryDef sets global compile options from an in-source `prql` directive
// (§6.4): `prql target:sql.postgres version:"0.1"`.
type QueryDefS struct {
	Target  string // "" if unset
	Version string // "" if unset
}

func (QueryDefS) stmtKind() {}

// VarDef is `let name = value` or `let name <ty> = value`. A VarDef named
// "main" with no declared type implicitly has type std.relation (§4.1).
type VarDefS struct {
	Name  string
	Value *Expr
	Ty    *Ty
}

func (VarDefS) stmtKind() {}

// TypeDef is `type name = value`.
type TypeDefS struct {
	Name  string
	Value *Ty
}

func (TypeDefS) stmtKind() {}

// ModuleDefS is a nested `module name { ... }` block.
type ModuleDefS struct {
	Name  string
	Stmts []*Stmt
}

func (ModuleDefS) stmtKind() {}

// MainS is an anonymous top-level pipeline expression, sugar for
// VarDefS{Name: "main", Value: expr} (§4.1).
type MainS struct {
	Value *Expr
}

func (MainS) stmtKind() {}

// ModuleDef is the parser's top-level output: an ordered list of
// statements, the root module-tree builder input (§6.1).
type ModuleDef struct {
	Stmts []*Stmt
}
