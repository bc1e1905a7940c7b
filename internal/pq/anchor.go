package pq

import (
	"fmt"

	"github.com/pqlc-dev/pqlc/internal/rq"
)

// Anchorer implements §4.4: it walks an rq.RelationalQuery once, compiling
// each TableDecl into a Cte the first time something reaches it, and
// splitting overlong transform lists into atomic pipelines.
type Anchorer struct {
	byTId map[rq.TId]*rq.TableDecl

	decls    map[RIId]*SqlTableDecl
	tidToRI  map[rq.TId]RIId
	nextRIId int

	ctes []Cte

	names *NameTable

	nextCId rq.CId
}

// SqlTableDecl is the anchor context's bookkeeping entry for one compiled
// (or compiling) relation instance (§4.4.3).
type SqlTableDecl struct {
	Id     RIId
	Name   string
	Status TableDeclStatus
}

// Anchor runs §4.4 over a lowered query, producing the PQ tree.
func Anchor(q *rq.RelationalQuery) (*SqlQuery, error) {
	an := &Anchorer{
		byTId:   map[rq.TId]*rq.TableDecl{},
		decls:   map[RIId]*SqlTableDecl{},
		tidToRI: map[rq.TId]RIId{},
		names:   newNameTable(),
	}
	for _, t := range q.Tables {
		an.byTId[t.Id] = t
	}
	an.nextCId = an.scanMaxCId(q) + 1

	rel, err := an.anchorRelation(q.Relation)
	if err != nil {
		return nil, err
	}
	refs := make(map[RIId]string, len(an.decls))
	for ri, d := range an.decls {
		refs[ri] = d.Name
	}
	return &SqlQuery{MainRelation: rel, Ctes: an.ctes, Names: an.names, Refs: refs}, nil
}

func (an *Anchorer) freshRIId() RIId {
	id := RIId(an.nextRIId)
	an.nextRIId++
	return id
}

func (an *Anchorer) freshCId() rq.CId {
	id := an.nextCId
	an.nextCId++
	return id
}

// anchorRelation dispatches on a Relation's kind, recursing into its
// pipeline's transforms when it has one.
func (an *Anchorer) anchorRelation(rel *rq.Relation) (SqlRelation, error) {
	switch k := rel.Kind.(type) {
	case rq.PipelineR:
		if n := len(k.Transforms); n > 0 {
			if _, ok := k.Transforms[n-1].(rq.LoopT); ok {
				return an.hoistLoop(k.Transforms)
			}
		}
		an.declareOutputNames(rel.Columns, k.Transforms)
		transforms, err := an.anchorPipeline(k.Transforms)
		if err != nil {
			return nil, err
		}
		return AtomicPipeline{Transforms: transforms}, nil
	case rq.LiteralR:
		return LiteralRel{Literal: k.Literal}, nil
	case rq.SStringR:
		return SStringRel{Parts: k.Parts}, nil
	case rq.BuiltInFunctionR:
		return OperatorRel{Name: k.Name, Args: k.Args}, nil
	case rq.ExternRefR:
		return AtomicPipeline{Transforms: []SqlTransform{From{Source: TableSource{Physical: k.Name.String()}}}}, nil
	default:
		return nil, fmt.Errorf("pq: unhandled relation kind %T", rel.Kind)
	}
}

// resolveTableSource turns a table-ref instance into a PQ source: a bare
// physical name for an extern table, or a Cte reference — compiling the
// decl on first reference (§4.4.4).
func (an *Anchorer) resolveTableSource(ref *rq.TableRef) (TableSource, error) {
	decl, ok := an.byTId[ref.Source]
	if !ok {
		return TableSource{}, fmt.Errorf("pq: reference to unknown table %d", ref.Source)
	}
	an.declareColumnNames(decl, ref)
	if ext, ok := decl.Relation.Kind.(rq.ExternRefR); ok {
		return TableSource{Physical: ext.Name.String(), Columns: ref.Columns}, nil
	}
	ri, err := an.ensureCompiled(decl)
	if err != nil {
		return TableSource{}, err
	}
	return TableSource{Ref: ri, IsRef: true, Columns: ref.Columns}, nil
}

// declareColumnNames records the declared name of every column this
// table-ref instance exposes, so ensure_column_name (§4.4.3) can reuse a
// source column's own name instead of generating `_expr_N` for it.
func (an *Anchorer) declareColumnNames(decl *rq.TableDecl, ref *rq.TableRef) {
	for _, c := range ref.Columns {
		if !c.Column.Wildcard {
			an.names.declare(c.Id, c.Column.Name)
		}
	}
	for i, c := range decl.Relation.Columns {
		if !c.Wildcard && i < len(ref.Columns) {
			an.names.declare(ref.Columns[i].Id, c.Name)
		}
	}
}

// declareOutputNames zips a relation's declared output columns (built from
// lineage during lowering) against the CIds its own final projection
// exposes, so a derived column keeps its source name even when nothing
// ever references this relation as a table and declareColumnNames never
// runs for it (§4.4.3's "prefer the declared name" rule applied to a
// relation's own boundary, not just to its consumers).
func (an *Anchorer) declareOutputNames(columns []rq.RelationColumn, transforms []rq.Transform) {
	cids, wildcard := finalProjectionCIds(transforms)
	if wildcard {
		named := make([]rq.RelationColumn, 0, len(columns))
		for _, c := range columns {
			if !c.Wildcard {
				named = append(named, c)
			}
		}
		columns = named
	}
	for i, cid := range cids {
		if i >= len(columns) {
			break
		}
		an.names.declare(cid, columns[i].Name)
	}
}

// finalProjectionCIds finds the columns a flat (pre-split) transform list
// ultimately projects: a trailing SelectT's Columns, or an AggregateT's
// Partition++Compute when nothing re-selects after it. When neither ever
// appears, every ComputeT's column survives into the implicit `*, derived`
// output alongside the wildcard passthrough (wildcard=true).
func finalProjectionCIds(transforms []rq.Transform) (cids []rq.CId, wildcard bool) {
	for i := len(transforms) - 1; i >= 0; i-- {
		switch k := transforms[i].(type) {
		case rq.SelectT:
			return k.Columns, false
		case rq.AggregateT:
			return append(append([]rq.CId{}, k.Partition...), k.Compute...), false
		}
	}
	var computed []rq.CId
	for _, t := range transforms {
		if c, ok := t.(rq.ComputeT); ok {
			computed = append(computed, c.Compute.Id)
		}
	}
	return computed, true
}

// ensureCompiled compiles decl's relation into a Cte the first time it is
// reached, registering the decl as NotYetDefined before recursing so a
// self-reference inside a recursive Loop's step resolves to the same
// RIId instead of looping forever.
func (an *Anchorer) ensureCompiled(decl *rq.TableDecl) (RIId, error) {
	if ri, ok := an.tidToRI[decl.Id]; ok {
		return ri, nil
	}
	ri := an.freshRIId()
	an.tidToRI[decl.Id] = ri
	name := an.nameFor(decl)
	an.decls[ri] = &SqlTableDecl{Id: ri, Name: name, Status: NotYetDefined}

	kind, err := an.compileCteKind(decl.Relation)
	if err != nil {
		return 0, err
	}
	an.ctes = append(an.ctes, Cte{Name: name, Kind: kind})
	an.decls[ri].Status = Defined
	return ri, nil
}

// compileCteKind special-cases a relation whose pipeline ends in a Loop
// transform (§4.4.1): the transforms before it become the anchor's
// initial arm, the loop body becomes the recursive step.
func (an *Anchorer) compileCteKind(rel *rq.Relation) (CteKind, error) {
	if pipe, ok := rel.Kind.(rq.PipelineR); ok {
		if n := len(pipe.Transforms); n > 0 {
			if _, ok := pipe.Transforms[n-1].(rq.LoopT); ok {
				return an.buildLoopCte(pipe.Transforms)
			}
		}
	}
	body, err := an.anchorRelation(rel)
	if err != nil {
		return nil, err
	}
	return NormalCte{Relation: body}, nil
}

// buildLoopCte splits a pipeline ending in a Loop transform into its
// initial and step arms (§4.4.1); transforms must be non-empty and end
// in rq.LoopT.
func (an *Anchorer) buildLoopCte(transforms []rq.Transform) (CteKind, error) {
	n := len(transforms)
	loop := transforms[n-1].(rq.LoopT)
	initial, err := an.anchorPipeline(transforms[:n-1])
	if err != nil {
		return nil, err
	}
	step, err := an.anchorPipeline(loop.Body)
	if err != nil {
		return nil, err
	}
	return LoopCte{
		Initial: AtomicPipeline{Transforms: initial},
		Step:    AtomicPipeline{Transforms: step},
	}, nil
}

// hoistLoop handles a Loop-terminated pipeline that is itself the main
// relation (not reached via a named TableDecl, so compileCteKind's path
// through ensureCompiled never applies to it): it mints a fresh Cte for
// the recursive query exactly as compileCteKind would for a referenced
// decl, then returns a trivial passthrough selecting from it, matching
// the shape a `let`-bound loop would have produced.
func (an *Anchorer) hoistLoop(transforms []rq.Transform) (SqlRelation, error) {
	kind, err := an.buildLoopCte(transforms)
	if err != nil {
		return nil, err
	}
	ri := an.freshRIId()
	name := an.names.freshTableName()
	an.decls[ri] = &SqlTableDecl{Id: ri, Name: name, Status: Defined}
	an.ctes = append(an.ctes, Cte{Name: name, Kind: kind})
	return AtomicPipeline{Transforms: []SqlTransform{From{Source: TableSource{Ref: ri, IsRef: true}}}}, nil
}

func (an *Anchorer) nameFor(decl *rq.TableDecl) string {
	if decl.Name != nil {
		return *decl.Name
	}
	return an.names.freshTableName()
}

// splitState tracks which transform kinds have already appeared in the
// atomic pipeline under construction, for §4.4.2's cut rules; window
// records a Compute that carries a Window.
type splitState struct {
	join, filter, aggregate, sort, take, window bool
}

func (s *splitState) reset() { *s = splitState{} }

// anchorPipeline implements §4.4.1's preprocessing and §4.4.2's splitting
// in one pass: it walks the flat transform list, inserting a cut (a fresh
// intermediate Cte plus an implicit From) whenever the next transform
// cannot coexist with what has already been placed in the current SELECT.
func (an *Anchorer) anchorPipeline(transforms []rq.Transform) ([]SqlTransform, error) {
	var out []SqlTransform
	var st splitState

	cut := func() {
		name := an.names.freshTableName()
		ri := an.freshRIId()
		an.decls[ri] = &SqlTableDecl{Id: ri, Name: name, Status: Defined}
		an.ctes = append(an.ctes, Cte{Name: name, Kind: NormalCte{Relation: AtomicPipeline{Transforms: out}}})
		out = []SqlTransform{From{Source: TableSource{Ref: ri, IsRef: true}}}
		st.reset()
	}

	for i := 0; i < len(transforms); i++ {
		switch k := transforms[i].(type) {
		case rq.FromT:
			src, err := an.resolveTableSource(k.Table)
			if err != nil {
				return nil, err
			}
			out = append(out, From{Source: src})

		case rq.JoinT:
			if st.filter || st.aggregate || st.sort || st.take {
				cut()
			}
			src, err := an.resolveTableSource(k.With)
			if err != nil {
				return nil, err
			}
			out = append(out, Join{Side: k.Side, With: src, Filter: k.Filter})
			st.join = true

		case rq.ComputeT:
			compute := k.Compute
			defaultFrame(compute.Window)
			out = append(out, ComputeT{Compute: compute})
			if compute.Window != nil {
				st.window = true
			}

		case rq.SelectT:
			out = append(out, Select{Columns: k.Columns})

		case rq.FilterT:
			// A WHERE is applied before window functions, so a filter
			// after a windowed Compute starts a new SELECT.
			if st.take || st.window {
				cut()
			}
			out = append(out, Filter{Filter: k.Filter})
			st.filter = true

		case rq.AggregateT:
			if st.aggregate || st.sort || st.take {
				cut()
			}
			out = append(out, Aggregate{Partition: k.Partition, Compute: k.Compute})
			st.aggregate = true

		case rq.SortT:
			if st.take {
				cut()
			}
			out = append(out, Sort{By: k.By})
			st.sort = true

		case rq.TakeT:
			if st.take {
				cut()
			}
			staged, err := an.anchorTake(k.Take)
			if err != nil {
				return nil, err
			}
			out = append(out, staged...)
			st.take = true

		case rq.DistinctT:
			out = append(out, Distinct{})

		case rq.AppendT:
			bottom, err := an.resolveTableSource(k.With)
			if err != nil {
				return nil, err
			}
			distinct := false
			if i+1 < len(transforms) {
				if _, ok := transforms[i+1].(rq.DistinctT); ok {
					distinct = true
					i++
				}
			}
			out = append(out, Union{Distinct: distinct, Bottom: bottom})

		case rq.LoopT:
			return nil, fmt.Errorf("pq: loop transform must be the final stage of its own relation (§4.4.1)")

		default:
			out = append(out, Super{Original: transforms[i]})
		}
	}

	return out, nil
}

// scanMaxCId finds the largest CId anywhere in q, so the anchorer can mint
// fresh ones (for ROW_NUMBER() synthesised by Take preprocessing) that
// never collide with one the lowerer already produced.
func (an *Anchorer) scanMaxCId(q *rq.RelationalQuery) rq.CId {
	var max rq.CId
	bump := func(c rq.CId) {
		if c > max {
			max = c
		}
	}
	bumpRef := func(r *rq.TableRef) {
		if r == nil {
			return
		}
		for _, c := range r.Columns {
			bump(c.Id)
		}
	}
	var scanTransforms func(ts []rq.Transform)
	scanTransforms = func(ts []rq.Transform) {
		for _, t := range ts {
			switch k := t.(type) {
			case rq.FromT:
				bumpRef(k.Table)
			case rq.ComputeT:
				bump(k.Compute.Id)
				if k.Compute.Window != nil {
					for _, p := range k.Compute.Window.Partition {
						bump(p)
					}
					for _, s := range k.Compute.Window.Sort {
						bump(s.By)
					}
				}
			case rq.SelectT:
				for _, c := range k.Columns {
					bump(c)
				}
			case rq.AggregateT:
				for _, c := range k.Partition {
					bump(c)
				}
				for _, c := range k.Compute {
					bump(c)
				}
			case rq.SortT:
				for _, s := range k.By {
					bump(s.By)
				}
			case rq.TakeT:
				for _, c := range k.Take.Partition {
					bump(c)
				}
				for _, s := range k.Take.Sort {
					bump(s.By)
				}
			case rq.JoinT:
				bumpRef(k.With)
			case rq.AppendT:
				bumpRef(k.With)
			case rq.LoopT:
				scanTransforms(k.Body)
			}
		}
	}
	for _, t := range q.Tables {
		if pipe, ok := t.Relation.Kind.(rq.PipelineR); ok {
			scanTransforms(pipe.Transforms)
		}
	}
	if pipe, ok := q.Relation.Kind.(rq.PipelineR); ok {
		scanTransforms(pipe.Transforms)
	}
	return max
}
