package sqlgen

import (
	"strconv"

	"github.com/pqlc-dev/pqlc/internal/ast"
	"github.com/pqlc-dev/pqlc/internal/rq"
	"github.com/pqlc-dev/pqlc/internal/sqlast"
)

// emitWindow builds the OVER(...) clause for a windowed Compute (§4.5.3).
// The frame is omitted whenever it equals defaultFrame's choice for this
// window's sort state, since every dialect already applies that default
// implicitly when no frame is written.
func (em *emitter) emitWindow(sc *pipelineScope, w *rq.Window) (*sqlast.WindowSpec, error) {
	spec := &sqlast.WindowSpec{}
	for _, p := range w.Partition {
		expr, err := em.colRef(sc, p)
		if err != nil {
			return nil, err
		}
		spec.PartitionBy = append(spec.PartitionBy, expr)
	}
	for _, s := range w.Sort {
		expr, err := em.colRef(sc, s.By)
		if err != nil {
			return nil, err
		}
		spec.OrderBy = append(spec.OrderBy, sqlast.OrderByItem{Expr: expr, Desc: s.Desc})
	}
	if !isDefaultFrame(w) {
		spec.Frame = buildFrameSpec(w.Frame)
	}
	return spec, nil
}

// isDefaultFrame reports whether w.Frame is exactly what take.go's
// defaultFrame would have assigned for this window's sort state.
func isDefaultFrame(w *rq.Window) bool {
	if len(w.Sort) > 0 {
		return w.Frame.Kind == ast.FrameRange && w.Frame.Start == nil && w.Frame.End != nil && *w.Frame.End == 0
	}
	return w.Frame.Kind == ast.FrameRows && w.Frame.Start == nil && w.Frame.End == nil
}

func buildFrameSpec(f ast.WindowFrame) *sqlast.FrameSpec {
	kind := sqlast.FrameRows
	if f.Kind == ast.FrameRange {
		kind = sqlast.FrameRange
	}
	return &sqlast.FrameSpec{
		Kind:  kind,
		Start: frameBound(f.Start, true),
		End:   frameBound(f.End, false),
	}
}

// frameBound turns one of ast.WindowFrame's *int offsets into a
// FrameBound: nil means unbounded, 0 means CURRENT ROW, anything else is
// an explicit preceding/following offset.
func frameBound(offset *int, preceding bool) sqlast.FrameBound {
	if offset == nil {
		if preceding {
			return sqlast.FrameBound{Kind: sqlast.FrameUnboundedPreceding}
		}
		return sqlast.FrameBound{Kind: sqlast.FrameUnboundedFollowing}
	}
	if *offset == 0 {
		return sqlast.FrameBound{Kind: sqlast.FrameCurrentRow}
	}
	n := *offset
	if n < 0 {
		n = -n
	}
	lit := &sqlast.Literal{Kind: sqlast.LitNumber, Value: strconv.Itoa(n)}
	if preceding {
		return sqlast.FrameBound{Kind: sqlast.FrameExprPreceding, Offset: lit}
	}
	return sqlast.FrameBound{Kind: sqlast.FrameExprFollowing, Offset: lit}
}
