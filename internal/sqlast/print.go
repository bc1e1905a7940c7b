package sqlast

import (
	"fmt"
	"strings"
)

const indentSize = 2

// printer renders a Query to SQL text (§6.2's "final string-formatting
// pass"): depth-tracked indentation, uppercase keywords, one clause per
// line in pretty mode, everything joined with single spaces in compact
// mode. The core's own output (identifier names, operator spellings,
// literal formatting) is already dialect-correct by the time it reaches
// here; this layer only decides line breaks and indentation.
type printer struct {
	out    strings.Builder
	depth  int
	pretty bool
	atBOL  bool
}

func newPrinter(pretty bool) *printer {
	return &printer{pretty: pretty, atBOL: true}
}

func (p *printer) String() string { return strings.TrimRight(p.out.String(), " \n") }

func (p *printer) write(s string) {
	if p.atBOL && p.pretty {
		p.out.WriteString(strings.Repeat(" ", p.depth*indentSize))
	}
	p.out.WriteString(s)
	p.atBOL = false
}

func (p *printer) sp() { p.out.WriteByte(' ') }

func (p *printer) nl() {
	if !p.pretty {
		p.sp()
		return
	}
	p.out.WriteByte('\n')
	p.atBOL = true
}

func (p *printer) kw(s string) { p.write(strings.ToUpper(s)) }

func (p *printer) indent()   { p.depth++ }
func (p *printer) dedent()   { p.depth-- }

// Print formats q as a single SQL statement. pretty selects multi-line
// indented output (Options.format) vs. a single-line rendering.
func Print(q *Query, pretty bool) string {
	p := newPrinter(pretty)
	p.query(q)
	return p.String()
}

func (p *printer) query(q *Query) {
	if q.With != nil {
		p.withClause(q.With)
	}
	p.setExpr(q.Body)
}

func (p *printer) withClause(w *WithClause) {
	if w.Recursive {
		p.kw("with recursive")
	} else {
		p.kw("with")
	}
	p.sp()
	for i, cte := range w.Ctes {
		if i > 0 {
			p.write(",")
			p.nl()
		}
		p.write(cte.Name)
		p.sp()
		p.kw("as")
		p.write(" (")
		p.indent()
		p.nl()
		if cte.Loop != nil {
			p.query(cte.Loop.Initial)
			p.nl()
			p.kw("union all")
			p.nl()
			p.query(cte.Loop.Step)
		} else {
			p.query(cte.Query)
		}
		p.dedent()
		p.nl()
		p.write(")")
	}
	p.nl()
}

func (p *printer) setExpr(s *SetExpr) {
	p.selectCore(s.Left)
	for s.Op != SetOpNone {
		p.nl()
		p.setOp(s.Op, s.All)
		p.nl()
		p.selectCore(s.Right.Left)
		s = s.Right
	}
}

func (p *printer) setOp(op SetOp, all bool) {
	switch op {
	case SetOpUnion:
		p.kw("union")
	case SetOpExcept:
		p.kw("except")
	case SetOpIntersect:
		p.kw("intersect")
	}
	if all {
		p.sp()
		p.kw("all")
	}
}

func (p *printer) selectCore(c *SelectCore) {
	p.kw("select")
	if c.Distinct {
		p.sp()
		p.kw("distinct")
	}
	if len(c.DistinctOn) > 0 {
		p.sp()
		p.kw("distinct on")
		p.write(" (")
		p.exprList(c.DistinctOn)
		p.write(")")
	}
	if c.Top != nil {
		p.sp()
		p.kw("top")
		p.sp()
		p.expr(c.Top, 0)
	}
	p.indent()
	p.nl()
	for i, item := range c.Columns {
		if i > 0 {
			p.write(",")
			p.nl()
		}
		p.selectItem(item)
	}
	p.dedent()

	if c.From != nil {
		p.nl()
		p.kw("from")
		p.sp()
		p.fromClause(c.From)
	}
	if c.Where != nil {
		p.nl()
		p.kw("where")
		p.sp()
		p.expr(c.Where, 0)
	}
	if len(c.GroupBy) > 0 {
		p.nl()
		p.kw("group by")
		p.sp()
		p.exprList(c.GroupBy)
	}
	if c.Having != nil {
		p.nl()
		p.kw("having")
		p.sp()
		p.expr(c.Having, 0)
	}
	if len(c.OrderBy) > 0 {
		p.nl()
		p.kw("order by")
		p.sp()
		p.orderByList(c.OrderBy)
	}
	if c.UseFetch {
		if c.Offset != nil {
			p.nl()
			p.kw("offset")
			p.sp()
			p.expr(c.Offset, 0)
			p.sp()
			p.kw("rows")
		}
		if c.Limit != nil {
			p.nl()
			p.kw("fetch first")
			p.sp()
			p.expr(c.Limit, 0)
			p.sp()
			p.kw("rows only")
		}
		return
	}
	if c.Limit != nil {
		p.nl()
		p.kw("limit")
		p.sp()
		p.expr(c.Limit, 0)
	}
	if c.Offset != nil {
		p.nl()
		p.kw("offset")
		p.sp()
		p.expr(c.Offset, 0)
	}
}

func (p *printer) selectItem(item SelectItem) {
	switch {
	case item.Star:
		p.write("*")
		return
	case item.TableStar != "":
		p.write(item.TableStar + ".*")
		return
	}
	p.expr(item.Expr, 0)
	if item.Alias != "" {
		p.sp()
		p.kw("as")
		p.sp()
		p.write(item.Alias)
	}
}

func (p *printer) fromClause(f *FromClause) {
	p.tableRef(f.Source)
	for _, j := range f.Joins {
		p.nl()
		p.kw(string(j.Type))
		p.sp()
		p.kw("join")
		p.sp()
		p.tableRef(j.Right)
		p.sp()
		p.kw("on")
		p.sp()
		p.expr(j.Condition, 0)
	}
}

func (p *printer) tableRef(t TableRef) {
	switch k := t.(type) {
	case *TableName:
		if k.Schema != "" {
			p.write(k.Schema + ".")
		}
		p.write(k.Name)
		if k.Alias != "" {
			p.sp()
			p.write(k.Alias)
		}
	case *DerivedTable:
		p.write("(")
		p.indent()
		p.nl()
		p.query(k.Query)
		p.dedent()
		p.nl()
		p.write(")")
		if k.Alias != "" {
			p.sp()
			p.write(k.Alias)
		}
	}
}

func (p *printer) orderByList(items []OrderByItem) {
	for i, it := range items {
		if i > 0 {
			p.write(", ")
		}
		p.expr(it.Expr, 0)
		if it.Desc {
			p.sp()
			p.kw("desc")
		}
	}
}

func (p *printer) exprList(exprs []Expr) {
	for i, e := range exprs {
		if i > 0 {
			p.write(", ")
		}
		p.expr(e, 0)
	}
}

// expr renders e. Depth is unused by most nodes; Raw already carries its
// own fully-parenthesized text from internal/sqlgen (§4.5.1), so this
// layer never re-derives precedence.
func (p *printer) expr(e Expr, depth int) {
	switch k := e.(type) {
	case nil:
		return
	case *ColumnRef:
		if k.Table != "" {
			p.write(k.Table + "." + k.Column)
		} else {
			p.write(k.Column)
		}
	case *Raw:
		p.write(k.Text)
	case *Literal:
		p.literal(k)
	case *BinaryExpr:
		p.expr(k.Left, depth+1)
		p.sp()
		p.write(k.Op)
		p.sp()
		p.expr(k.Right, depth+1)
	case *UnaryExpr:
		p.write(k.Op)
		p.sp()
		p.expr(k.Expr, depth+1)
	case *FuncCall:
		p.funcCall(k)
	case *CaseExpr:
		p.kw("case")
		for _, w := range k.Whens {
			p.sp()
			p.kw("when")
			p.sp()
			p.expr(w.Condition, 0)
			p.sp()
			p.kw("then")
			p.sp()
			p.expr(w.Result, 0)
		}
		p.sp()
		p.kw("end")
	case *CastExpr:
		p.kw("cast")
		p.write("(")
		p.expr(k.Expr, 0)
		p.sp()
		p.kw("as")
		p.sp()
		p.write(k.TypeName)
		p.write(")")
	case *InExpr:
		p.expr(k.Expr, depth+1)
		if k.Not {
			p.sp()
			p.kw("not")
		}
		p.sp()
		p.kw("in")
		p.write(" (")
		p.exprList(k.Values)
		p.write(")")
	case *BetweenExpr:
		p.expr(k.Expr, depth+1)
		if k.Not {
			p.sp()
			p.kw("not")
		}
		p.sp()
		p.kw("between")
		p.sp()
		p.expr(k.Low, 0)
		p.sp()
		p.kw("and")
		p.sp()
		p.expr(k.High, 0)
	case *IsNullExpr:
		p.expr(k.Expr, depth+1)
		p.sp()
		p.kw("is")
		if k.Not {
			p.sp()
			p.kw("not")
		}
		p.sp()
		p.kw("null")
	case *ParenExpr:
		p.write("(")
		p.expr(k.Expr, 0)
		p.write(")")
	case *StarExpr:
		if k.Table != "" {
			p.write(k.Table + ".*")
		} else {
			p.write("*")
		}
	case *Param:
		p.write("$" + k.Name)
	case *ArrayExpr:
		p.write("(")
		p.exprList(k.Items)
		p.write(")")
	default:
		panic(fmt.Sprintf("sqlast: unhandled expr kind %T", e))
	}
}

func (p *printer) funcCall(f *FuncCall) {
	p.write(f.Name)
	p.write("(")
	if f.Star {
		p.write("*")
	} else {
		if f.Distinct {
			p.kw("distinct")
			p.sp()
		}
		p.exprList(f.Args)
	}
	p.write(")")
	if f.Window != nil {
		p.sp()
		p.kw("over")
		p.write(" (")
		p.windowSpec(f.Window)
		p.write(")")
	}
}

func (p *printer) windowSpec(w *WindowSpec) {
	wrote := false
	if len(w.PartitionBy) > 0 {
		p.kw("partition by")
		p.sp()
		p.exprList(w.PartitionBy)
		wrote = true
	}
	if len(w.OrderBy) > 0 {
		if wrote {
			p.sp()
		}
		p.kw("order by")
		p.sp()
		p.orderByList(w.OrderBy)
		wrote = true
	}
	if w.Frame != nil {
		if wrote {
			p.sp()
		}
		p.frameSpec(w.Frame)
	}
}

func (p *printer) frameSpec(f *FrameSpec) {
	if f.Kind == FrameRows {
		p.kw("rows")
	} else {
		p.kw("range")
	}
	p.sp()
	p.kw("between")
	p.sp()
	p.frameBound(f.Start)
	p.sp()
	p.kw("and")
	p.sp()
	p.frameBound(f.End)
}

func (p *printer) frameBound(b FrameBound) {
	switch b.Kind {
	case FrameUnboundedPreceding:
		p.kw("unbounded preceding")
	case FrameUnboundedFollowing:
		p.kw("unbounded following")
	case FrameCurrentRow:
		p.kw("current row")
	case FrameExprPreceding:
		p.expr(b.Offset, 0)
		p.sp()
		p.kw("preceding")
	case FrameExprFollowing:
		p.expr(b.Offset, 0)
		p.sp()
		p.kw("following")
	}
}

func (p *printer) literal(l *Literal) {
	switch l.Kind {
	case LitString:
		p.write("'" + strings.ReplaceAll(l.Value, "'", "''") + "'")
	case LitNull:
		p.kw("null")
	case LitBool:
		p.kw(l.Value)
	default:
		p.write(l.Value)
	}
}
