package ast

// TransformKind enumerates the eleven pipeline stages plus the sugar
// forms (Group, Window) the resolver desugars before they ever reach
// lowering (§3.5, §4.2.3).
type TransformKind interface {
	transformKind()
}

type FromT struct{ Relation *Expr }

func (FromT) transformKind() {}

// Assign is one `name = expr` (or bare `expr`, alias inferred later) entry
// of a Select/Derive/Aggregate assignment list.
type Assign struct {
	Alias string
	Value *Expr
}

type SelectT struct{ Assigns []Assign }

func (SelectT) transformKind() {}

type DeriveT struct{ Assigns []Assign }

func (DeriveT) transformKind() {}

type FilterT struct{ Filter *Expr }

func (FilterT) transformKind() {}

type AggregateT struct{ Assigns []Assign }

func (AggregateT) transformKind() {}

type SortT struct{ By []ColumnSort }

func (SortT) transformKind() {}

type TakeT struct{ Range Range }

func (TakeT) transformKind() {}

// JoinSide enumerates the four join kinds the parser accepts (§4.2.3).
type JoinSide int

const (
	JoinInner JoinSide = iota
	JoinLeft
	JoinRight
	JoinFull
)

type JoinT struct {
	Side   JoinSide
	With   *Expr
	Filter *Expr
}

func (JoinT) transformKind() {}

type AppendT struct{ Bottom *Expr }

func (AppendT) transformKind() {}

type LoopT struct{ Body *Expr }

func (LoopT) transformKind() {}

type DistinctT struct{}

func (DistinctT) transformKind() {}

// GroupT and WindowT never survive past resolution (§4.2.3): the resolver
// sets partition/frame/sort on the inner Pipeline and inlines it.
type GroupT struct {
	By       []*Expr
	Pipeline *Expr
}

func (GroupT) transformKind() {}

type WindowKind int

const (
	WindowExpanding WindowKind = iota
	WindowRolling
	WindowRange
)

type WindowT struct {
	Kind     WindowKind
	Bound    int // rolling size, or range width
	Pipeline *Expr
}

func (WindowT) transformKind() {}
