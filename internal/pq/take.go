package pq

import (
	"github.com/pqlc-dev/pqlc/internal/ast"
	"github.com/pqlc-dev/pqlc/internal/rq"
)

// anchorTake implements §4.4.1's three Take-to-SQL-idiom rewrites. A plain
// (unpartitioned) take always falls through to the ordinary LIMIT/OFFSET
// shape.
func (an *Anchorer) anchorTake(t rq.Take) ([]SqlTransform, error) {
	if len(t.Partition) == 0 {
		return []SqlTransform{Take{Range: t.Range}}, nil
	}

	if isUnitRange(t.Range) {
		return []SqlTransform{DistinctOn{By: t.Partition, Sort: t.Sort}}, nil
	}

	if t.Range.Start == nil || t.Range.End == nil {
		// A partitioned take with an open-ended bound has no DISTINCT ON
		// or BETWEEN equivalent; fall back to a plain Take and let the
		// emitter treat the partition as an ordinary sort-free LIMIT.
		// This under-translates genuinely unbounded partitioned windows,
		// which §8 Open Questions leaves to a future pass.
		return []SqlTransform{Take{Range: t.Range}}, nil
	}

	rn := an.freshCId()
	window := &rq.Window{Partition: t.Partition, Sort: t.Sort}
	defaultFrame(window)
	compute := ComputeT{Compute: rq.Compute{
		Id:     rn,
		Expr:   rq.Operator{Name: "std.window.row_number"},
		Window: window,
	}}
	filter := Filter{Filter: rq.Operator{
		Name: "std.between",
		Args: []rq.Expr{
			rq.ColumnRef(rn),
			rq.Literal{Lit: ast.Literal{Kind: ast.LitInt, Int: int64(*t.Range.Start)}},
			rq.Literal{Lit: ast.Literal{Kind: ast.LitInt, Int: int64(*t.Range.End)}},
		},
	}}
	return []SqlTransform{compute, filter}, nil
}

func isUnitRange(r rq.RangeInt) bool {
	return r.Start != nil && r.End != nil && *r.Start == 1 && *r.End == 1
}

// defaultFrame applies §4.4.1's window-frame default: Range ..0 when the
// window carries a sort, Rows (unbounded both ways) otherwise — only when
// both frame bounds are nil, so a frame with an explicit bound is never
// overwritten. Kind is not consulted: a frame with nil bounds counts as
// unset whatever its Kind.
func defaultFrame(w *rq.Window) {
	if w == nil || w.Frame.Start != nil || w.Frame.End != nil {
		return
	}
	if len(w.Sort) > 0 {
		zero := 0
		w.Frame = ast.WindowFrame{Kind: ast.FrameRange, End: &zero}
		return
	}
	w.Frame = ast.WindowFrame{Kind: ast.FrameRows}
}
