package rq

import (
	"fmt"

	"github.com/pqlc-dev/pqlc/internal/ast"
	"github.com/pqlc-dev/pqlc/internal/module"
)

// Lowerer implements §4.3: it walks the resolved PL tree once, producing
// a flat RelationalQuery. Every table reference instance mints fresh
// CIds (§4.3.3); named relations are lowered once and cached by their
// dotted ident string so two references to the same `let` table share a
// TableDecl but never share column ids.
type Lowerer struct {
	root *module.Module

	nextCId int
	nextTId int

	tables       []*TableDecl
	tableByIdent map[string]TId

	// nodeMapping tracks what a resolved Expr's id lowers to, mirroring
	// §4.3.2's `node_mapping: ExprId -> LoweredTarget`.
	nodeMapping map[int]*loweredTarget
}

// loweredTarget is either a single computed column, or an input frame
// (a from/join table-ref instance) whose member columns are looked up
// by name — because, per internal/resolve/ident.go's foldFromTable, every
// column a single from/table-ref introduces shares one TargetId and is
// only distinguished by name.
type loweredTarget struct {
	compute *CId
	input   *inputFrame
}

type inputFrame struct {
	ref      *TableRef
	byName   map[string]CId
	wildcard bool
}

// Lower runs §4.3 over a resolved main expression, returning the
// finished RelationalQuery.
func Lower(root *module.Module, main *ast.Expr, def Def) (*RelationalQuery, error) {
	lw := &Lowerer{
		root:         root,
		tableByIdent: map[string]TId{},
		nodeMapping:  map[int]*loweredTarget{},
	}
	transforms, err := lw.lowerPipeline(main)
	if err != nil {
		return nil, err
	}
	columns, err := lw.columnsFromLineage(main.Lineage)
	if err != nil {
		return nil, err
	}
	return &RelationalQuery{
		Def:    def,
		Tables: lw.tables,
		Relation: &Relation{
			Kind:    PipelineR{Transforms: transforms},
			Columns: columns,
		},
	}, nil
}

func (lw *Lowerer) freshCId() CId {
	id := CId(lw.nextCId)
	lw.nextCId++
	return id
}

func (lw *Lowerer) freshTId() TId {
	id := TId(lw.nextTId)
	lw.nextTId++
	return id
}

// lowerPipeline walks a TransformCall chain from its innermost `from`
// outward, accumulating the flat Transform list §3.7 expects. A bare
// relation reference with no further stages (e.g. `main = employees`) is
// treated as an implicit single-stage From.
func (lw *Lowerer) lowerPipeline(e *ast.Expr) ([]Transform, error) {
	tc, ok := e.Kind.(ast.TransformCall)
	if !ok {
		ref, err := lw.lowerTableRef(e)
		if err != nil {
			return nil, err
		}
		return []Transform{FromT{Table: ref}}, nil
	}

	var transforms []Transform
	if tc.Input != nil {
		var err error
		transforms, err = lw.lowerPipeline(tc.Input)
		if err != nil {
			return nil, err
		}
	}

	switch k := tc.Kind.(type) {
	case ast.FromT:
		ref, err := lw.lowerTableRef(k.Relation)
		if err != nil {
			return nil, err
		}
		transforms = append(transforms, FromT{Table: ref})

	case ast.SelectT:
		computes, cids, err := lw.lowerAssigns(tc, k.Assigns)
		if err != nil {
			return nil, err
		}
		transforms = append(transforms, computes...)
		transforms = append(transforms, SelectT{Columns: cids})

	case ast.DeriveT:
		computes, _, err := lw.lowerAssigns(tc, k.Assigns)
		if err != nil {
			return nil, err
		}
		transforms = append(transforms, computes...)

	case ast.FilterT:
		expr, err := lw.lowerExpr(k.Filter)
		if err != nil {
			return nil, err
		}
		transforms = append(transforms, FilterT{Filter: expr})

	case ast.AggregateT:
		partition, err := lw.lowerPartitionKeys(tc.Partition)
		if err != nil {
			return nil, err
		}
		computes, cids, err := lw.lowerAssigns(tc, k.Assigns)
		if err != nil {
			return nil, err
		}
		for i := range computes {
			if c, ok := computes[i].(ComputeT); ok {
				c.Compute.IsAggregation = true
				computes[i] = c
			}
		}
		transforms = append(transforms, computes...)
		transforms = append(transforms, AggregateT{Partition: partition, Compute: cids})

	case ast.SortT:
		by, err := lw.lowerColumnSorts(k.By)
		if err != nil {
			return nil, err
		}
		transforms = append(transforms, SortT{By: by})

	case ast.TakeT:
		rng, err := lw.lowerRange(k.Range)
		if err != nil {
			return nil, err
		}
		take := Take{Range: rng}
		if tc.Partition != nil {
			part, err := lw.lowerPartitionKeys(tc.Partition)
			if err != nil {
				return nil, err
			}
			take.Partition = part
			take.Sort, err = lw.lowerColumnSorts(tc.Sort)
			if err != nil {
				return nil, err
			}
		}
		transforms = append(transforms, TakeT{Take: take})

	case ast.JoinT:
		withRef, err := lw.lowerTableRef(k.With)
		if err != nil {
			return nil, err
		}
		cond, err := lw.lowerExpr(k.Filter)
		if err != nil {
			return nil, err
		}
		transforms = append(transforms, JoinT{Side: k.Side, With: withRef, Filter: cond})

	case ast.AppendT:
		bottomRef, err := lw.lowerTableRef(k.Bottom)
		if err != nil {
			return nil, err
		}
		transforms = append(transforms, AppendT{With: bottomRef})

	case ast.LoopT:
		body, err := lw.lowerPipeline(k.Body)
		if err != nil {
			return nil, err
		}
		transforms = append(transforms, LoopT{Body: body})

	case ast.DistinctT:
		transforms = append(transforms, DistinctT{})

	default:
		return nil, fmt.Errorf("rq: unhandled transform %T", tc.Kind)
	}
	return transforms, nil
}

// lowerAssigns lowers one derive/select/aggregate assignment list into
// ComputeT transforms plus the resulting CId list, in order. A bare
// passthrough assign (the value is already a column reference) reuses
// the existing CId rather than minting a redundant compute (§4.3.5's
// "renaming needs no new column").
func (lw *Lowerer) lowerAssigns(tc ast.TransformCall, assigns []ast.Assign) ([]Transform, []CId, error) {
	var transforms []Transform
	cids := make([]CId, 0, len(assigns))
	for _, a := range assigns {
		if all, ok := a.Value.Kind.(ast.All); ok {
			expanded, err := lw.expandWildcard(all)
			if err != nil {
				return nil, nil, err
			}
			cids = append(cids, expanded...)
			continue
		}

		if passthrough, ok := lw.reuseColumnRef(a.Value); ok {
			lw.nodeMapping[*a.Value.Id] = &loweredTarget{compute: &passthrough}
			cids = append(cids, passthrough)
			continue
		}

		expr, err := lw.lowerExpr(a.Value)
		if err != nil {
			return nil, nil, err
		}
		cid := lw.freshCId()
		compute := Compute{Id: cid, Expr: expr}
		if a.Value.NeedsWindow {
			win, err := lw.buildWindow(tc)
			if err != nil {
				return nil, nil, err
			}
			compute.Window = win
		}
		lw.nodeMapping[*a.Value.Id] = &loweredTarget{compute: &cid}
		transforms = append(transforms, ComputeT{Compute: compute})
		cids = append(cids, cid)
	}
	return transforms, cids, nil
}

// reuseColumnRef reports whether e is a bare reference to a column
// already bound in nodeMapping, returning its existing CId.
func (lw *Lowerer) reuseColumnRef(e *ast.Expr) (CId, bool) {
	id, ok := e.Kind.(ast.IdentExpr)
	if !ok || e.TargetId == nil {
		return 0, false
	}
	target, ok := lw.nodeMapping[*e.TargetId]
	if !ok {
		return 0, false
	}
	if target.compute != nil {
		return *target.compute, true
	}
	if target.input != nil {
		if cid, ok := lw.resolveInputColumn(target.input, id.Ident.Name()); ok {
			return cid, true
		}
	}
	return 0, false
}

// expandWildcard resolves an `All{within}` used directly as a select
// assign into the full list of CIds it currently stands for.
func (lw *Lowerer) expandWildcard(all ast.All) ([]CId, error) {
	if all.Within == nil || all.Within.Lineage == nil {
		return nil, fmt.Errorf("rq: wildcard with no lineage")
	}
	var out []CId
	for _, input := range all.Within.Lineage.Inputs {
		target, ok := lw.nodeMapping[input.Id]
		if !ok || target.input == nil {
			continue
		}
		for name, cid := range target.input.byName {
			if _, excluded := all.Except[name]; excluded {
				continue
			}
			out = append(out, cid)
		}
	}
	return out, nil
}

// buildWindow lowers the ambient (partition, frame, sort) a windowed
// scalar (row_number, lag, a moving average, ...) was resolved under
// (§3.5, stamped onto the enclosing TransformCall by finishTransform).
func (lw *Lowerer) buildWindow(tc ast.TransformCall) (*Window, error) {
	w := &Window{Frame: tc.Frame}
	if tc.Partition != nil {
		part, err := lw.lowerPartitionKeys(tc.Partition)
		if err != nil {
			return nil, err
		}
		w.Partition = part
	}
	sort, err := lw.lowerColumnSorts(tc.Sort)
	if err != nil {
		return nil, err
	}
	w.Sort = sort
	return w, nil
}

// lowerPartitionKeys lowers a `group`-style partition key expression
// (always a Tuple of plain column references, or a single one) into
// CIds by looking up each key's existing binding. A partition key passes
// its column straight through GROUP BY unchanged, but foldAggregate's
// lineage names it via the key node's own id (not its TargetId, see
// internal/resolve/transforms.go's lineageColumnForAssign), so a
// reference to that same node is also registered here — otherwise a
// later `sort`/`select` naming the group key would find nothing.
func (lw *Lowerer) lowerPartitionKeys(e *ast.Expr) ([]CId, error) {
	if e == nil {
		return nil, nil
	}
	var keys []*ast.Expr
	if tup, ok := e.Kind.(ast.Tuple); ok {
		for _, f := range tup.Fields {
			keys = append(keys, f.Value)
		}
	} else {
		keys = append(keys, e)
	}
	out := make([]CId, 0, len(keys))
	for _, k := range keys {
		cid, ok := lw.reuseColumnRef(k)
		if !ok {
			return nil, fmt.Errorf("rq: partition key is not a plain column reference")
		}
		if k.Id != nil {
			lw.nodeMapping[*k.Id] = &loweredTarget{compute: &cid}
		}
		out = append(out, cid)
	}
	return out, nil
}

func (lw *Lowerer) lowerColumnSorts(by []ast.ColumnSort) ([]ColumnSort, error) {
	out := make([]ColumnSort, 0, len(by))
	for _, s := range by {
		cid, ok := lw.reuseColumnRef(s.By)
		if !ok {
			return nil, fmt.Errorf("rq: sort key is not a plain column reference")
		}
		out = append(out, ColumnSort{By: cid, Desc: s.Desc})
	}
	return out, nil
}

func (lw *Lowerer) lowerRange(r ast.Range) (RangeInt, error) {
	toInt := func(e *ast.Expr) (*int, error) {
		if e == nil {
			return nil, nil
		}
		lit, ok := e.Kind.(ast.Literal)
		if !ok || lit.Kind != ast.LitInt {
			return nil, fmt.Errorf("rq: take range bound must be a literal integer (§3.9)")
		}
		v := int(lit.Int)
		return &v, nil
	}
	start, err := toInt(r.Start)
	if err != nil {
		return RangeInt{}, err
	}
	end, err := toInt(r.End)
	if err != nil {
		return RangeInt{}, err
	}
	return RangeInt{Start: start, End: end}, nil
}

// columnsFromLineage builds a Relation's declared output columns from
// its final lineage, in lineage order.
func (lw *Lowerer) columnsFromLineage(l *ast.Lineage) ([]RelationColumn, error) {
	if l == nil {
		return nil, nil
	}
	out := make([]RelationColumn, 0, len(l.Columns))
	for _, c := range l.Columns {
		if c.IsAll {
			out = append(out, RelationColumn{Wildcard: true})
			continue
		}
		out = append(out, RelationColumn{Name: c.Name})
	}
	return out, nil
}
