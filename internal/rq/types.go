// Package rq implements §3.7's relational IR and §4.3's lowering pass:
// a normalised form where every column and table is identified by an
// opaque id and every transform is flat (no nested pipelines, save for
// Loop's recursive arm).
package rq

import "github.com/pqlc-dev/pqlc/internal/ast"

// TId identifies a table declaration; CId identifies a column. Both are
// arena indices minted by monotonic counters owned by the Lowerer (§9
// "Arena vs per-node ownership") — never reused, never reset within a
// compilation (§5 "Resource discipline").
type TId int

// CId identifies a column produced somewhere in the query.
type CId int

// Def carries the query-level options resolved from `prql` (§6.4).
type Def struct {
	Target  string
	Version string
}

// RelationalQuery is the output of lowering (§3.7): every table reachable
// from main, toposorted, plus the main relation itself.
type RelationalQuery struct {
	Def      Def
	Tables   []*TableDecl
	Relation *Relation
}

// TableDecl is a named relation (§3.7). Name is nil for a relation that
// is never referenced by more than one instance and therefore never
// needs a CTE name of its own until the PQ stage decides otherwise.
type TableDecl struct {
	Id       TId
	Name     *string
	Relation *Relation
}

// Relation pairs a RelationKind with the declared shape of its output
// columns (§3.7); Columns is built from the lineage of whatever resolved
// expression produced this relation, in lineage order.
type Relation struct {
	Kind    RelationKind
	Columns []RelationColumn
}

// RelationColumn is either a named output slot or a wildcard (§3.7).
type RelationColumn struct {
	Wildcard bool
	Name     string // "" when Wildcard or genuinely unnamed
}

// RelationKind is implemented by each of the four relation shapes §3.7
// lists.
type RelationKind interface{ relationKind() }

// PipelineR is a flat sequence of Transforms (the common case).
type PipelineR struct{ Transforms []Transform }

func (PipelineR) relationKind() {}

// ExternRefR is a physical table, named by its source-level ident.
type ExternRefR struct{ Name ast.Ident }

func (ExternRefR) relationKind() {}

// LiteralR is an inline `[{...}, ...]` relation literal.
type LiteralR struct{ Literal RelationLiteral }

func (LiteralR) relationKind() {}

// RelationLiteral is the columns+rows shape of an inline relation value.
type RelationLiteral struct {
	Columns []string
	Rows    [][]Expr
}

// SStringR is a table-valued `s"SELECT ..."` expression.
type SStringR struct{ Parts []Part }

func (SStringR) relationKind() {}

// BuiltInFunctionR is a table-valued compiler built-in call.
type BuiltInFunctionR struct {
	Name string
	Args []Expr
}

func (BuiltInFunctionR) relationKind() {}

// Part is one piece of an interpolated s-string/f-string: either literal
// text or an embedded Expr.
type Part struct {
	Text string
	Expr Expr
}

// Transform mirrors TransformKind over opaque ids (§3.7).
type Transform interface{ transform() }

// FromT seeds a pipeline from a table instance. Table is a pointer
// because a wildcard-schema source (§4.3.3) discovers its columns
// lazily as later stages reference them by name.
type FromT struct{ Table *TableRef }

func (FromT) transform() {}

// Compute is one computed column, optionally windowed (§3.5, §3.7).
type Compute struct {
	Id            CId
	Expr          Expr
	Window        *Window
	IsAggregation bool
}

// Window is the (frame, partition, sort) triple rendered as OVER(...).
type Window struct {
	Frame     ast.WindowFrame
	Partition []CId
	Sort      []ColumnSort
}

// ComputeT appends one computed column as a side effect of Derive/Select.
type ComputeT struct{ Compute Compute }

func (ComputeT) transform() {}

// SelectT projects exactly these columns, in this order.
type SelectT struct{ Columns []CId }

func (SelectT) transform() {}

// FilterT is a WHERE/HAVING-shaped predicate.
type FilterT struct{ Filter Expr }

func (FilterT) transform() {}

// AggregateT groups by Partition and computes Compute under that group.
type AggregateT struct {
	Partition []CId
	Compute   []CId
}

func (AggregateT) transform() {}

// ColumnSort pairs a sort key with direction, over an opaque CId.
type ColumnSort struct {
	By   CId
	Desc bool
}

// SortT is an ORDER BY.
type SortT struct{ By []ColumnSort }

func (SortT) transform() {}

// RangeInt is a literal integer range (§3.9: Take.range carries only
// literal bounds). Nil means unbounded on that side.
type RangeInt struct {
	Start *int
	End   *int
}

// Take is a LIMIT/OFFSET, or a ROW_NUMBER()-based windowed take when
// Partition is non-empty (handled at the PQ stage, §4.4.1).
type Take struct {
	Range     RangeInt
	Partition []CId
	Sort      []ColumnSort
}

// TakeT is `take` lowered.
type TakeT struct{ Take Take }

func (TakeT) transform() {}

// JoinT is one JOIN clause.
type JoinT struct {
	Side   ast.JoinSide
	With   *TableRef
	Filter Expr
}

func (JoinT) transform() {}

// AppendT is a set-union-shaped transform (UNION ALL at the PQ stage).
type AppendT struct{ With *TableRef }

func (AppendT) transform() {}

// DistinctT is an explicit `distinct` transform; it maps straight to
// SqlTransform::Distinct at the PQ stage with no preprocessing needed,
// unlike the implicit `take 1..1` pattern §4.4.1 also recognises.
type DistinctT struct{}

func (DistinctT) transform() {}

// LoopT holds the recursive arm's flat transform list; its anchor in the
// main pipeline (the non-recursive seed) is the Transform preceding it.
type LoopT struct{ Body []Transform }

func (LoopT) transform() {}

// TableRef is one instance of a table (§3.7): every textual occurrence
// of a table reference mints fresh CIds, so a self-join has two disjoint
// column id sets over the same TId.
type TableRef struct {
	Source  TId
	Name    string // "" until the PQ stage assigns one, for inline instances
	Columns []TableRefColumn
}

// TableRefColumn pairs a declared RelationColumn with this instance's
// fresh CId for it.
type TableRefColumn struct {
	Column RelationColumn
	Id     CId
}

// Expr is the RQ expression tree (§3.7): no identifiers, no functions,
// no transform calls — only column refs, literals and operator calls.
type Expr interface{ rqExpr() }

// ColumnRef is a reference to a column produced elsewhere in the query.
type ColumnRef CId

func (ColumnRef) rqExpr() {}

// Literal is a scalar constant.
type Literal struct{ Lit ast.Literal }

func (Literal) rqExpr() {}

// SString is an interpolated raw-SQL expression.
type SString struct{ Parts []Part }

func (SString) rqExpr() {}

// CaseExpr is an ordered list of (condition, value) arms; the resolver
// has already ensured the default arm (`true => ...`) is last if present.
type CaseExpr struct{ Cases []SwitchCase }

func (CaseExpr) rqExpr() {}

// SwitchCase is one arm of a CaseExpr.
type SwitchCase struct {
	Condition Expr
	Value     Expr
}

// Operator is a call to a dialect-indexed built-in (§4.5.2), e.g.
// "std.eq", resolved from an ast.RqOperator.
type Operator struct {
	Name string
	Args []Expr
}

func (Operator) rqExpr() {}

// ArrayExpr is a homogeneous literal sequence, e.g. the right side of
// `std.array_in`.
type ArrayExpr struct{ Items []Expr }

func (ArrayExpr) rqExpr() {}

// ParamExpr is a `$name` query parameter, surviving lowering verbatim
// (§6.5).
type ParamExpr struct{ Name string }

func (ParamExpr) rqExpr() {}
