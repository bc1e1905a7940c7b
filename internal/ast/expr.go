// Package ast holds the PQL syntax tree. A single Expr struct plays both
// roles the spec describes for §3.3: before resolution most annotation
// fields are nil/zero (the parser only fills Kind and Span); the resolver
// mutates nodes in place, assigning Id, TargetID, Ty and Lineage as it
// walks, so that resolving an already-resolved tree is a fixed point
// (§8.1 "Idempotence of resolution"). Ownership is a root *Module during
// resolution (§3.10); there is no ownership cycle because references
// across nodes are plain ids (TargetID), resolved later through lookup
// tables, not pointers into other nodes' subtrees.
package ast

import "github.com/pqlc-dev/pqlc/internal/token"

// Expr is one node of the expression tree.
type Expr struct {
	Kind ExprKind

	// Id is assigned once, at first resolution of this node (§3.9).
	Id *int
	// Alias is the binding name this expression was assigned under,
	// e.g. `avg = average salary` binds Alias="avg".
	Alias string
	// TargetId back-references the Decl this ident/wildcard resolved to.
	TargetId *int
	// TargetIds is used by All{} wildcards that may expand to several decls.
	TargetIds []int
	// Ty is the inferred type, attached by the resolver.
	Ty *Ty
	// Lineage is attached to relational expressions only.
	Lineage *Lineage
	NeedsWindow bool
	Flatten     bool

	Span token.Span
}

// ExprKind is implemented by every concrete expression shape (§3.3).
type ExprKind interface {
	exprKind()
}

// ---- Pre-resolution / always-present shapes ----

type Literal struct {
	Kind  LiteralKind
	Bool  bool
	Int   int64
	Float float64
	Text  string
	// IntervalUnit is set when Kind == LitInterval.
	IntervalUnit string
}

func (Literal) exprKind() {}

// LiteralKind enumerates the literal value shapes of §3.3.
type LiteralKind int

const (
	LitNull LiteralKind = iota
	LitBool
	LitInt
	LitFloat
	LitString
	LitDate
	LitTime
	LitTimestamp
	LitInterval
)

// IdentExpr is a name reference, resolved to TargetId at resolution time.
type IdentExpr struct {
	Ident Ident
}

func (IdentExpr) exprKind() {}

// All is a wildcard: all columns within `Within`, minus `Except`.
type All struct {
	Within *Expr
	Except []string
}

func (All) exprKind() {}

// TupleField is one field of a Tuple literal.
type TupleField struct {
	Alias string
	Value *Expr
}

type Tuple struct {
	Fields []TupleField
}

func (Tuple) exprKind() {}

type Array struct {
	Items []*Expr
}

func (Array) exprKind() {}

type Range struct {
	Start *Expr
	End   *Expr
}

func (Range) exprKind() {}

// BinOp enumerates binary operators recognised by the front end.
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNe
	OpLt
	OpGt
	OpLe
	OpGe
	OpAnd
	OpOr
	OpCoalesce
	OpRegexMatch
)

type Binary struct {
	Op    BinOp
	Left  *Expr
	Right *Expr
}

func (Binary) exprKind() {}

type UnOp int

const (
	OpNeg UnOp = iota
	OpNot
)

type Unary struct {
	Op      UnOp
	Operand *Expr
}

func (Unary) exprKind() {}

// NamedArg is a `name:value` call argument.
type NamedArg struct {
	Name  string
	Value *Expr
}

// FuncCall is the pre-resolution call form; `name` is itself an Expr so
// that pipeline position (`a | f b`, sugar for `f b a`) composes uniformly.
type FuncCall struct {
	Name     *Expr
	Args     []*Expr
	NamedArgs []NamedArg
}

func (FuncCall) exprKind() {}

// Param is a positional or named function parameter declaration.
type Param struct {
	Name    string
	Ty      *Ty
	Default *Expr
}

// Func is a first-class function value (§3.4).
type Func struct {
	Params      []Param
	NamedParams []Param
	Body        *Expr
	ReturnTy    *Ty
	// Env captures name -> expression bindings for partial application.
	Env map[string]*Expr
	NameHint string
	// Args already bound (partial application).
	Args []*Expr
}

func (Func) exprKind() {}

// TransformCall is a resolved pipeline stage (§3.5); it only appears in
// the tree after the resolver has dispatched a FuncCall to a transform.
type TransformCall struct {
	Input     *Expr
	Kind      TransformKind
	Partition *Expr
	Frame     WindowFrame
	Sort      []ColumnSort
}

func (TransformCall) exprKind() {}

// ColumnSort pairs a sort key with direction; By is an Expr pre-lowering
// and a CId post-lowering (the rq package defines its own ColumnSort[CId]).
type ColumnSort struct {
	By   *Expr
	Desc bool
}

// FrameKind distinguishes ROWS and RANGE window frames.
type FrameKind int

const (
	FrameRows FrameKind = iota
	FrameRange
)

// WindowFrame is the (kind, start, end) triple attached to a TransformCall.
type WindowFrame struct {
	Kind  FrameKind
	Start *int // nil = unbounded
	End   *int // nil = unbounded / current row depending on Kind
}

// StringPart is one piece of an SString or FString: either a
// literal Text run, or an embedded Expr.
type StringPart struct {
	Text string
	Expr *Expr
}

type SString struct {
	Parts []StringPart
}

func (SString) exprKind() {}

type FString struct {
	Parts []StringPart
}

func (FString) exprKind() {}

type SwitchCase struct {
	Condition *Expr
	Value     *Expr
}

type Case struct {
	Cases []SwitchCase
}

func (Case) exprKind() {}

// ParamRef is a `$name` query parameter placeholder.
type ParamRef struct {
	Name string
}

func (ParamRef) exprKind() {}

// ---- Post-resolution-only shapes ----

// Internal is a compiler-internal built-in; its body must be evaluated by
// the resolver rather than substituted (§3.3).
type Internal struct {
	Op string
}

func (Internal) exprKind() {}

// RqOperator is a post-resolution built-in operator call, e.g. `std.eq`.
type RqOperator struct {
	Name string
	Args []*Expr
}

func (RqOperator) exprKind() {}

// TypeVal wraps a Ty used as a value, e.g. in a type annotation position.
type TypeVal struct {
	Ty *Ty
}

func (TypeVal) exprKind() {}

// Pipeline is sugar-stage-only: `a | f b | g` before it is reduced
// left-to-right into nested FuncCalls by the parser/resolver.
type Pipeline struct {
	Exprs []*Expr
}

func (Pipeline) exprKind() {}
