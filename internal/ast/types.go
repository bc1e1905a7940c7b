package ast

// Ty is the type of an expression (§3.6). Relations are represented as
// Array(Tuple(fields)); Ty.Relation is sugar for building that shape.
type Ty struct {
	Kind        TyKind
	DisplayName string
}

// TyKind is implemented by each concrete type shape.
type TyKind interface {
	tyKind()
}

type PrimitiveKind int

const (
	TyInt PrimitiveKind = iota
	TyFloat
	TyBool
	TyText
	TyDate
	TyTime
	TyTimestamp
)

type Primitive struct{ Kind PrimitiveKind }

func (Primitive) tyKind() {}

type Singleton struct{ Value Literal }

func (Singleton) tyKind() {}

type Union struct{ Variants []*Ty }

func (Union) tyKind() {}

// TupleField describes one field of a tuple type: either a named/typed
// single field, or a Wildcard standing for "whatever else is here",
// which always sorts after every Single field when lowered (§3.9).
type TyTupleField struct {
	Name   string // "" for Wildcard or unnamed Single
	Ty     *Ty    // nil if unknown
	IsWild bool
}

type TupleTy struct{ Fields []TyTupleField }

func (TupleTy) tyKind() {}

type ArrayTy struct{ Elem *Ty }

func (ArrayTy) tyKind() {}

type SetTy struct{}

func (SetTy) tyKind() {}

// TyFunc is the signature of a Function type.
type TyFunc struct {
	Params   []*Ty
	Return   *Ty
}

type FunctionTy struct{ Sig *TyFunc } // Sig == nil means "any function"

func (FunctionTy) tyKind() {}

type AnyTy struct{}

func (AnyTy) tyKind() {}

// Relation builds the Ty::relation(fields) shorthand: Array(Tuple(fields)).
func Relation(fields ...TyTupleField) *Ty {
	return &Ty{Kind: ArrayTy{Elem: &Ty{Kind: TupleTy{Fields: fields}}}}
}

// IsRelation reports whether t is an array-of-tuple (a relation).
func IsRelation(t *Ty) bool {
	if t == nil {
		return false
	}
	arr, ok := t.Kind.(ArrayTy)
	if !ok || arr.Elem == nil {
		return false
	}
	_, ok = arr.Elem.Kind.(TupleTy)
	return ok
}

// TupleFields returns the fields of a relation's element tuple, sorting
// Wildcard fields after every Single field per the §3.9 invariant.
func TupleFields(t *Ty) []TyTupleField {
	if !IsRelation(t) {
		return nil
	}
	tuple := t.Kind.(ArrayTy).Elem.Kind.(TupleTy)
	out := make([]TyTupleField, 0, len(tuple.Fields))
	var wild []TyTupleField
	for _, f := range tuple.Fields {
		if f.IsWild {
			wild = append(wild, f)
		} else {
			out = append(out, f)
		}
	}
	return append(out, wild...)
}
