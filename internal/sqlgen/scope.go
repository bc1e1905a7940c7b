package sqlgen

import (
	"fmt"

	"github.com/pqlc-dev/pqlc/internal/pq"
	"github.com/pqlc-dev/pqlc/internal/rq"
	"github.com/pqlc-dev/pqlc/internal/sqlast"
)

// pipelineScope is the per-atomic-pipeline column resolution table
// (§4.5.3): every CId a From/Join source exposes, or a ComputeT
// introduces, resolves to a ready-to-use sqlast.Expr by the time a later
// transform in the same pipeline needs to reference it.
type pipelineScope struct {
	// tableCol holds a qualified (or bare, single-source) ColumnRef for
	// every CId a table/CTE source in this pipeline exposes by name.
	tableCol map[rq.CId]sqlast.Expr

	// computedExpr holds the already-rendered expression for every CId a
	// ComputeT in THIS pipeline introduced. A later transform in the
	// same SELECT (Filter, Sort, a following Compute's own expression,
	// Aggregate's Partition/Compute) cannot reference a SELECT-list
	// alias at the same query level, so it inlines this expression
	// instead of emitting a bare name — always correct, since a cut is
	// forced whenever a Filter follows a windowed Compute (§4.4.2),
	// which is the one case inlining would produce invalid SQL for.
	computedExpr map[rq.CId]sqlast.Expr
}

func newPipelineScope() *pipelineScope {
	return &pipelineScope{tableCol: map[rq.CId]sqlast.Expr{}, computedExpr: map[rq.CId]sqlast.Expr{}}
}

// colRef resolves a CId to the expression that refers to it from
// anywhere else in the same pipeline (§4.5.3). A CId neither computed
// nor table-sourced here falls back to a bare reference by its declared
// (or generated) name — the shape a column coming from an enclosing
// split's synthetic From takes, since that source's Columns are
// deliberately left empty (see pq.TableSource.Columns).
func (em *emitter) colRef(sc *pipelineScope, cid rq.CId) (sqlast.Expr, error) {
	if e, ok := sc.computedExpr[cid]; ok {
		return e, nil
	}
	if e, ok := sc.tableCol[cid]; ok {
		return e, nil
	}
	return &sqlast.ColumnRef{Column: em.names.EnsureColumnName(cid)}, nil
}

// sourceIdentities returns one key per From/Join source a flat transform
// list puts into scope, decided once up front so the first source doesn't
// need to be retroactively re-aliased when a later Join turns out to
// share the scope with it. Two sources compare equal exactly when they'd
// refer to the same FROM-clause name (same physical table, or the same
// compiled CTE referenced twice).
func sourceIdentities(transforms []pq.SqlTransform) []string {
	key := func(src pq.TableSource) string {
		if src.IsRef {
			return fmt.Sprintf("ref:%d", src.Ref)
		}
		return "phys:" + src.Physical
	}
	var ids []string
	for _, t := range transforms {
		switch k := t.(type) {
		case pq.From:
			ids = append(ids, key(k.Source))
		case pq.Join:
			ids = append(ids, key(k.With))
		}
	}
	return ids
}

// hasDuplicate reports whether the same source identity occurs more than
// once, the only case (a self-join) where §4.5.3 needs a synthetic alias
// rather than qualifying by the source's own name.
func hasDuplicate(ids []string) bool {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return true
		}
		seen[id] = true
	}
	return false
}

// tableRefFor turns a PQ table source into its SQL AST counterpart. alias
// is only non-"" when the caller already determined a synthetic alias is
// needed (a self-join); otherwise the source's own name is what §4.5.3's
// qualification falls back to.
func (em *emitter) tableRefFor(src pq.TableSource, alias string) (*sqlast.TableName, error) {
	name := src.Physical
	if src.IsRef {
		var ok bool
		name, ok = em.refs[src.Ref]
		if !ok {
			return nil, fmt.Errorf("sqlgen: reference to unresolved relation instance %d", src.Ref)
		}
	}
	return &sqlast.TableName{Name: name, Alias: alias}, nil
}

// bindSource registers every column a source exposes into sc.tableCol,
// qualified by alias when non-"". A source with no known Columns (a
// split's synthetic From, or a Loop's recursive self-reference) exposes
// nothing here; whatever references it by CId falls through to colRef's
// bare-name fallback instead.
func (em *emitter) bindSource(sc *pipelineScope, src pq.TableSource, alias string) {
	for _, c := range src.Columns {
		if c.Column.Wildcard {
			continue
		}
		sc.tableCol[c.Id] = &sqlast.ColumnRef{Table: alias, Column: em.names.EnsureColumnName(c.Id)}
	}
}
