// Package pq implements §3.8's physical IR and §4.4's anchor/PQ builder:
// it turns a flat rq.RelationalQuery into a tree of SQL-SELECT-shaped
// atomic pipelines plus the CTEs they reference, ready for internal/sqlgen
// to render.
package pq

import (
	"github.com/pqlc-dev/pqlc/internal/ast"
	"github.com/pqlc-dev/pqlc/internal/rq"
)

// RIId identifies one relation instance in the anchor context (§4.4.3):
// either an rq.TableDecl promoted to a CTE, or a fresh intermediate table
// a split introduced. Distinct from rq.TId, which names a declaration,
// not a particular SQL-visible occurrence of it.
type RIId int

// SqlQuery is the finished PQ tree (§3.8): a main relation plus every CTE
// it (transitively) depends on, in the order they were first compiled —
// already a topological order, since a CTE is only appended the first
// time something reaches it (§4.4.4).
type SqlQuery struct {
	MainRelation SqlRelation
	Ctes         []Cte
	Names        *NameTable

	// Refs maps every RIId a TableSource can point at back to the Cte
	// name it was compiled under, so internal/sqlgen can build a
	// TableName without re-deriving the anchor context's bookkeeping.
	Refs map[RIId]string
}

// TableDeclStatus tracks whether a table_decls entry has been compiled
// into a Cte yet (§4.4.3). ensureCompiled registers a decl as
// NotYetDefined before compiling its body and marks it Defined after; a
// reference reached mid-compilation of that body finds the decl still
// NotYetDefined and reuses its RIId, so the recursion terminates.
type TableDeclStatus int

const (
	NotYetDefined TableDeclStatus = iota
	Defined
)

// Cte is one named common table expression (§4.4.4).
type Cte struct {
	Name string
	Kind CteKind
}

// CteKind distinguishes a plain relation from a recursive loop's two arms.
type CteKind interface{ cteKind() }

// NormalCte is an ordinary `name AS (relation)` CTE.
type NormalCte struct{ Relation SqlRelation }

func (NormalCte) cteKind() {}

// LoopCte renders as `name AS (initial UNION ALL step)` under
// WITH RECURSIVE (§4.4.4).
type LoopCte struct{ Initial, Step SqlRelation }

func (LoopCte) cteKind() {}

// SqlRelation is one of the four relation shapes a PQ node can be (§3.8).
type SqlRelation interface{ sqlRelation() }

// AtomicPipeline is a sequence of SqlTransforms a single SELECT can host.
type AtomicPipeline struct{ Transforms []SqlTransform }

func (AtomicPipeline) sqlRelation() {}

// LiteralRel is an inline `[{...}, ...]` relation, carried through from rq
// unchanged.
type LiteralRel struct{ Literal rq.RelationLiteral }

func (LiteralRel) sqlRelation() {}

// SStringRel is a table-valued `s"..."` expression.
type SStringRel struct{ Parts []rq.Part }

func (SStringRel) sqlRelation() {}

// OperatorRel is a table-valued compiler built-in call.
type OperatorRel struct {
	Name string
	Args []rq.Expr
}

func (OperatorRel) sqlRelation() {}

// TableSource is what a From/Join/set-operator attaches to: either a
// physical table referenced directly by name (no CTE involved, §4.4.4's
// "relation is emitted in place" case extended to extern tables that
// never needed compiling at all), or a reference to a Cte compiled
// elsewhere in this query.
type TableSource struct {
	Physical string // non-"" => a bare physical table name
	Ref      RIId
	IsRef    bool
	Alias    string

	// Columns lists the CIds (with their declared name / wildcard-ness)
	// this particular table-ref instance exposes, carried through from
	// rq.TableRef.Columns unchanged. Left nil for a synthetic source a
	// split introduced (a cut's implicit From, or a Loop's recursive
	// self-reference): such a source is always the sole source of the
	// pipeline it starts, so internal/sqlgen never needs to qualify a
	// column against it, and it is always treated as exposing "*".
	Columns []rq.TableRefColumn
}

// SqlTransform is the operator set a single SELECT can host, plus the
// set-operation and loop combinators (§3.8).
type SqlTransform interface{ sqlTransform() }

type From struct{ Source TableSource }

func (From) sqlTransform() {}

type Join struct {
	Side   ast.JoinSide
	With   TableSource
	Filter rq.Expr
}

func (Join) sqlTransform() {}

// ComputeT appends one computed column, mirroring rq.ComputeT; window
// frames have already been defaulted per §4.4.1 by the time this is built.
type ComputeT struct{ Compute rq.Compute }

func (ComputeT) sqlTransform() {}

type Select struct{ Columns []rq.CId }

func (Select) sqlTransform() {}

// Filter is a WHERE or HAVING predicate; which one it renders as depends
// on whether an Aggregate already appears earlier in the same atomic
// pipeline (internal/sqlgen's concern, not anchoring's).
type Filter struct{ Filter rq.Expr }

func (Filter) sqlTransform() {}

type Aggregate struct{ Partition, Compute []rq.CId }

func (Aggregate) sqlTransform() {}

type Sort struct{ By []rq.ColumnSort }

func (Sort) sqlTransform() {}

// Take is a LIMIT/OFFSET; the partitioned-window variants are rewritten
// away during anchoring (§4.4.1) and never reach this shape.
type Take struct{ Range rq.RangeInt }

func (Take) sqlTransform() {}

type Distinct struct{}

func (Distinct) sqlTransform() {}

// DistinctOn is Postgres/DuckDB-style `SELECT DISTINCT ON (...)`, the
// preprocessed form of `take 1..1` under a partition (§4.4.1).
type DistinctOn struct {
	By   []rq.CId
	Sort []rq.ColumnSort
}

func (DistinctOn) sqlTransform() {}

type Union struct {
	Distinct bool
	Bottom   TableSource
}

func (Union) sqlTransform() {}

type Except struct {
	Distinct bool
	Bottom   TableSource
}

func (Except) sqlTransform() {}

type Intersect struct {
	Distinct bool
	Bottom   TableSource
}

func (Intersect) sqlTransform() {}

// Super carries an rq.Transform anchoring found no PQ-level translation
// for, verbatim — the escape hatch §3.8 names for forward compatibility;
// nothing this builder produces today needs it, but sqlgen must still
// reject it explicitly rather than silently drop a transform.
type Super struct{ Original rq.Transform }

func (Super) sqlTransform() {}
