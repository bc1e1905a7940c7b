package sqlgen

import (
	"fmt"

	"github.com/pqlc-dev/pqlc/internal/ast"
	"github.com/pqlc-dev/pqlc/internal/pq"
	"github.com/pqlc-dev/pqlc/internal/rq"
	"github.com/pqlc-dev/pqlc/internal/sqlast"
)

// pipelineBuilder walks one atomic pipeline's flat transform list in order
// and accumulates a (possibly set-op-chained) SetExpr (§4.5.7).
type pipelineBuilder struct {
	em *emitter
	sc *pipelineScope

	multiSource bool // >1 source in scope this segment: qualify columns
	needsAlias  bool // a source identity repeats (self-join): synthesize t0, t1, ...

	root *sqlast.SetExpr
	tail *sqlast.SetExpr // node whose Left is the live SelectCore
	core *sqlast.SelectCore

	grouped bool // an Aggregate has been seen: Filter now means HAVING

	explicit   bool // a Select/Aggregate replaced the implicit projection
	projection []sqlast.SelectItem

	sawWildcard   bool
	named         []sqlast.SelectItem
	computedOrder []rq.CId

	nextAliasN int
}

// emitPipeline implements §4.5.7.
func (em *emitter) emitPipeline(transforms []pq.SqlTransform) (*sqlast.SetExpr, error) {
	ids := sourceIdentities(transforms)
	pb := newPipelineBuilder(em, len(ids) > 1, hasDuplicate(ids))
	for _, t := range transforms {
		if err := pb.apply(t); err != nil {
			return nil, err
		}
	}
	pb.finish()
	return pb.root, nil
}

func newPipelineBuilder(em *emitter, multiSource, needsAlias bool) *pipelineBuilder {
	core := &sqlast.SelectCore{}
	root := &sqlast.SetExpr{Left: core}
	return &pipelineBuilder{
		em: em, sc: newPipelineScope(),
		multiSource: multiSource, needsAlias: needsAlias,
		root: root, tail: root, core: core,
	}
}

func (pb *pipelineBuilder) nextAlias() string {
	n := fmt.Sprintf("t%d", pb.nextAliasN)
	pb.nextAliasN++
	return n
}

func (pb *pipelineBuilder) apply(t pq.SqlTransform) error {
	switch k := t.(type) {
	case pq.From:
		return pb.applySource(k.Source, nil)
	case pq.Join:
		return pb.applySource(k.With, &k)
	case pq.ComputeT:
		return pb.applyCompute(k)
	case pq.Select:
		pb.explicit = true
		proj, err := pb.buildExplicitProjection(k.Columns)
		if err != nil {
			return err
		}
		pb.projection = proj
		return nil
	case pq.Aggregate:
		pb.explicit = true
		pb.grouped = true
		ids := append(append([]rq.CId{}, k.Partition...), k.Compute...)
		proj, err := pb.buildExplicitProjection(ids)
		if err != nil {
			return err
		}
		pb.projection = proj
		for _, pid := range k.Partition {
			expr, err := pb.em.colRef(pb.sc, pid)
			if err != nil {
				return err
			}
			pb.core.GroupBy = append(pb.core.GroupBy, expr)
		}
		return nil
	case pq.Filter:
		expr, err := pb.em.emitExpr(pb.sc, k.Filter)
		if err != nil {
			return err
		}
		if pb.grouped {
			pb.core.Having = andExpr(pb.core.Having, expr)
		} else {
			pb.core.Where = andExpr(pb.core.Where, expr)
		}
		return nil
	case pq.Sort:
		items := make([]sqlast.OrderByItem, len(k.By))
		for i, s := range k.By {
			expr, err := pb.em.colRef(pb.sc, s.By)
			if err != nil {
				return err
			}
			items[i] = sqlast.OrderByItem{Expr: expr, Desc: s.Desc}
		}
		pb.core.OrderBy = items
		return nil
	case pq.Take:
		return pb.applyTake(k.Range)
	case pq.Distinct:
		pb.core.Distinct = true
		return nil
	case pq.DistinctOn:
		exprs := make([]sqlast.Expr, len(k.By))
		for i, cid := range k.By {
			expr, err := pb.em.colRef(pb.sc, cid)
			if err != nil {
				return err
			}
			exprs[i] = expr
		}
		pb.core.DistinctOn = exprs
		items := make([]sqlast.OrderByItem, len(k.Sort))
		for i, s := range k.Sort {
			expr, err := pb.em.colRef(pb.sc, s.By)
			if err != nil {
				return err
			}
			items[i] = sqlast.OrderByItem{Expr: expr, Desc: s.Desc}
		}
		pb.core.OrderBy = items
		return nil
	case pq.Union:
		return pb.applySetOp(sqlast.SetOpUnion, !k.Distinct, k.Bottom)
	case pq.Except:
		return pb.applySetOp(sqlast.SetOpExcept, !k.Distinct, k.Bottom)
	case pq.Intersect:
		return pb.applySetOp(sqlast.SetOpIntersect, !k.Distinct, k.Bottom)
	case pq.Super:
		return fmt.Errorf("sqlgen: unhandled transform %T carried through as Super", k.Original)
	default:
		return fmt.Errorf("sqlgen: unhandled transform kind %T", t)
	}
}

// applySource binds one From/Join source, qualifying its columns per
// §4.5.3: unqualified with exactly one source in scope, qualified by the
// source's own FROM-clause name when more than one, and by a synthesized
// t0/t1/... alias only when that name collides with another source in
// the same pipeline (a self-join).
func (pb *pipelineBuilder) applySource(src pq.TableSource, join *pq.Join) error {
	alias := ""
	if pb.needsAlias {
		alias = pb.nextAlias()
	}
	ref, err := pb.em.tableRefFor(src, alias)
	if err != nil {
		return err
	}
	qualifier := alias
	if qualifier == "" && pb.multiSource {
		qualifier = ref.Name
	}
	pb.em.bindSource(pb.sc, src, qualifier)
	pb.trackProjection(src, qualifier)

	if join == nil {
		pb.core.From = &sqlast.FromClause{Source: ref}
		return nil
	}
	cond, err := pb.em.emitExpr(pb.sc, join.Filter)
	if err != nil {
		return err
	}
	if pb.core.From == nil {
		return fmt.Errorf("sqlgen: join with no preceding source")
	}
	pb.core.From.Joins = append(pb.core.From.Joins, sqlast.Join{
		Type:      joinTypeFor(join.Side),
		Right:     ref,
		Condition: cond,
	})
	return nil
}

// trackProjection records what applySource's bound source contributes to
// the implicit (no explicit Select/Aggregate) projection: §4.5.3's rule
// that a wildcard or synthetic source makes the whole pipeline `SELECT *`.
func (pb *pipelineBuilder) trackProjection(src pq.TableSource, alias string) {
	if src.Columns == nil {
		pb.sawWildcard = true
		return
	}
	for _, c := range src.Columns {
		if c.Column.Wildcard {
			pb.sawWildcard = true
			continue
		}
		name := pb.em.names.EnsureColumnName(c.Id)
		pb.named = append(pb.named, sqlast.SelectItem{
			Expr:  &sqlast.ColumnRef{Table: alias, Column: name},
			Alias: name,
		})
	}
}

func (pb *pipelineBuilder) applyCompute(c pq.ComputeT) error {
	expr, err := pb.em.emitComputeExpr(pb.sc, c.Compute)
	if err != nil {
		return err
	}
	pb.sc.computedExpr[c.Compute.Id] = expr
	pb.computedOrder = append(pb.computedOrder, c.Compute.Id)
	return nil
}

func (pb *pipelineBuilder) buildExplicitProjection(cids []rq.CId) ([]sqlast.SelectItem, error) {
	items := make([]sqlast.SelectItem, len(cids))
	for i, cid := range cids {
		expr, err := pb.em.colRef(pb.sc, cid)
		if err != nil {
			return nil, err
		}
		items[i] = sqlast.SelectItem{Expr: expr, Alias: pb.em.names.EnsureColumnName(cid)}
	}
	return items, nil
}

func (pb *pipelineBuilder) applyTake(r rq.RangeInt) error {
	start := 1
	if r.Start != nil {
		start = *r.Start
	}
	if start > 1 {
		pb.core.Offset = intLit(start - 1)
	}
	if r.End != nil {
		pb.core.Limit = intLit(*r.End - start + 1)
	}
	if pb.em.dialect.UseFetch {
		pb.core.UseFetch = true
		if pb.core.Offset == nil {
			pb.core.Offset = intLit(0)
		}
		if len(pb.core.OrderBy) == 0 {
			pb.core.OrderBy = []sqlast.OrderByItem{{Expr: &sqlast.Raw{Text: "(SELECT NULL)"}}}
		}
	}
	return nil
}

// applySetOp closes out the current core's implicit projection (if it
// never got an explicit Select/Aggregate), then starts a fresh core for
// Bottom, rendered as `SELECT * FROM <bottom>` per the wildcard
// convention used throughout this package, chained onto the SetExpr tail.
func (pb *pipelineBuilder) applySetOp(op sqlast.SetOp, all bool, bottom pq.TableSource) error {
	pb.finalizeCore()

	alias := ""
	ref, err := pb.em.tableRefFor(bottom, alias)
	if err != nil {
		return err
	}
	next := &sqlast.SelectCore{
		Columns: []sqlast.SelectItem{{Star: true}},
		From:    &sqlast.FromClause{Source: ref},
	}
	node := &sqlast.SetExpr{Left: next, Op: op, All: all}
	pb.tail.Op, pb.tail.All, pb.tail.Right = op, all, node
	pb.tail = node
	pb.core = next

	pb.sc = newPipelineScope()
	pb.em.bindSource(pb.sc, bottom, alias)
	pb.multiSource = false
	pb.needsAlias = false
	pb.explicit = false
	pb.sawWildcard = true
	pb.named = nil
	pb.computedOrder = nil
	pb.grouped = false
	return nil
}

// finish finalizes whichever core is still open when the transform list
// ends (the common case: no trailing set operation).
func (pb *pipelineBuilder) finish() { pb.finalizeCore() }

// finalizeCore assigns pb.core.Columns per §4.5.3's projection rule, if
// nothing has done so yet (an explicit Select/Aggregate already set
// pb.projection directly onto the core as it was applied; a set-op's
// bottom core is already fully formed and carries no pending state).
func (pb *pipelineBuilder) finalizeCore() {
	if pb.core.Columns != nil {
		return
	}
	if pb.explicit {
		pb.core.Columns = pb.projection
		return
	}
	var items []sqlast.SelectItem
	if pb.sawWildcard {
		items = append(items, sqlast.SelectItem{Star: true})
	} else {
		items = append(items, pb.named...)
	}
	for _, cid := range pb.computedOrder {
		items = append(items, sqlast.SelectItem{
			Expr:  pb.sc.computedExpr[cid],
			Alias: pb.em.names.EnsureColumnName(cid),
		})
	}
	pb.core.Columns = items
}

func joinTypeFor(side ast.JoinSide) sqlast.JoinType {
	switch side {
	case ast.JoinLeft:
		return sqlast.JoinLeft
	case ast.JoinRight:
		return sqlast.JoinRight
	case ast.JoinFull:
		return sqlast.JoinFull
	default:
		return sqlast.JoinInner
	}
}

// andExpr folds a new predicate onto an existing WHERE/HAVING accumulator
// with AND; multiple Filter transforms in the same atomic pipeline combine
// this way rather than overwriting each other.
func andExpr(existing, next sqlast.Expr) sqlast.Expr {
	if existing == nil {
		return next
	}
	return &sqlast.BinaryExpr{Left: existing, Op: "AND", Right: next}
}

func intLit(n int) *sqlast.Literal {
	return &sqlast.Literal{Kind: sqlast.LitNumber, Value: fmt.Sprintf("%d", n)}
}
