package rq

import (
	"fmt"

	"github.com/pqlc-dev/pqlc/internal/ast"
	"github.com/pqlc-dev/pqlc/internal/module"
)

// lowerTableRef implements §4.3.3's four table-reference cases, minting
// fresh CIds for this particular occurrence of the table and registering
// the lineage-input id it was reached through so later column references
// resolve against it.
func (lw *Lowerer) lowerTableRef(e *ast.Expr) (*TableRef, error) {
	switch k := e.Kind.(type) {
	case ast.IdentExpr:
		tid, declared, err := lw.declareNamedTable(k.Ident)
		if err != nil {
			return nil, err
		}
		ref := lw.instantiateTableRef(tid, declared)
		lw.bindTableRefColumns(e, ref)
		return ref, nil

	case ast.TransformCall:
		sub, err := lw.lowerPipeline(e)
		if err != nil {
			return nil, err
		}
		decl := &TableDecl{
			Id:       lw.freshTId(),
			Relation: &Relation{Kind: PipelineR{Transforms: sub}},
		}
		cols, err := lw.columnsFromLineage(e.Lineage)
		if err != nil {
			return nil, err
		}
		decl.Relation.Columns = cols
		lw.tables = append(lw.tables, decl)
		ref := lw.instantiateTableRef(decl.Id, cols)
		lw.bindTableRefColumns(e, ref)
		return ref, nil

	case ast.SString:
		parts, err := lw.lowerStringParts(k.Parts)
		if err != nil {
			return nil, err
		}
		cols, err := lw.columnsFromLineage(e.Lineage)
		if err != nil {
			return nil, err
		}
		decl := &TableDecl{Id: lw.freshTId(), Relation: &Relation{Kind: SStringR{Parts: parts}, Columns: cols}}
		lw.tables = append(lw.tables, decl)
		ref := lw.instantiateTableRef(decl.Id, cols)
		lw.bindTableRefColumns(e, ref)
		return ref, nil

	case ast.RqOperator:
		args, err := lw.lowerExprs(k.Args)
		if err != nil {
			return nil, err
		}
		cols, err := lw.columnsFromLineage(e.Lineage)
		if err != nil {
			return nil, err
		}
		decl := &TableDecl{Id: lw.freshTId(), Relation: &Relation{Kind: BuiltInFunctionR{Name: k.Name, Args: args}, Columns: cols}}
		lw.tables = append(lw.tables, decl)
		ref := lw.instantiateTableRef(decl.Id, cols)
		lw.bindTableRefColumns(e, ref)
		return ref, nil

	case ast.Array:
		lit, err := lw.lowerRelationLiteral(k)
		if err != nil {
			return nil, err
		}
		cols, err := lw.columnsFromLineage(e.Lineage)
		if err != nil {
			return nil, err
		}
		decl := &TableDecl{Id: lw.freshTId(), Relation: &Relation{Kind: LiteralR{Literal: lit}, Columns: cols}}
		lw.tables = append(lw.tables, decl)
		ref := lw.instantiateTableRef(decl.Id, cols)
		lw.bindTableRefColumns(e, ref)
		return ref, nil

	default:
		return nil, fmt.Errorf("rq: %T is not a relation-valued expression", e.Kind)
	}
}

// declareNamedTable resolves an ident in table position to a shared
// TableDecl, caching by the ident's dotted string so every textual
// occurrence of the same name reuses one declaration (§4.3.1). An ident
// that names no declaration in the module tree is a physical table
// reference (internal/resolve/ident.go's foldLocalTable leaves these
// undeclared on purpose), lowered as ExternRefR with the wildcard schema
// the resolver gave it.
func (lw *Lowerer) declareNamedTable(id ast.Ident) (TId, []RelationColumn, error) {
	key := id.String()
	if tid, ok := lw.tableByIdent[key]; ok {
		for _, t := range lw.tables {
			if t.Id == tid {
				return tid, t.Relation.Columns, nil
			}
		}
	}

	decl, ok := lookupModuleDecl(lw.root, id)
	if !ok {
		name := key
		tid := lw.freshTId()
		cols := []RelationColumn{{Wildcard: true}}
		lw.tables = append(lw.tables, &TableDecl{
			Id:       tid,
			Name:     &name,
			Relation: &Relation{Kind: ExternRefR{Name: id}, Columns: cols},
		})
		lw.tableByIdent[key] = tid
		return tid, cols, nil
	}

	td, ok := decl.Kind.(module.TableD)
	if !ok {
		return 0, nil, fmt.Errorf("rq: %q is not a relation declaration", key)
	}

	tid := lw.freshTId()
	lw.tableByIdent[key] = tid
	name := id.Name()

	if rv, ok := td.Expr.(module.RelationVar); ok {
		sub, err := lw.lowerPipeline(rv.Body)
		if err != nil {
			return 0, nil, err
		}
		cols, err := lw.columnsFromLineage(rv.Body.Lineage)
		if err != nil {
			return 0, nil, err
		}
		lw.tables = append(lw.tables, &TableDecl{
			Id:       tid,
			Name:     &name,
			Relation: &Relation{Kind: PipelineR{Transforms: sub}, Columns: cols},
		})
		return tid, cols, nil
	}

	// LocalTable/ParamTable/NoneTable (§3.2): none of these are ever
	// constructed by the resolver in this front end (documented in
	// DESIGN.md), but handle them as a wildcard extern for completeness.
	cols := []RelationColumn{{Wildcard: true}}
	lw.tables = append(lw.tables, &TableDecl{
		Id:       tid,
		Name:     &name,
		Relation: &Relation{Kind: ExternRefR{Name: id}, Columns: cols},
	})
	return tid, cols, nil
}

// lookupModuleDecl walks dotted segments through nested ModuleD
// namespaces, mirroring internal/resolve/ident.go's lookupPath without
// depending on that unexported helper.
func lookupModuleDecl(root *module.Module, path ast.Ident) (*module.Decl, bool) {
	if len(path) == 0 {
		return nil, false
	}
	cur := root
	var d *module.Decl
	for i, seg := range path {
		dd, ok := cur.Get(seg)
		if !ok {
			return nil, false
		}
		d = dd
		if i < len(path)-1 {
			md, ok := d.Kind.(module.ModuleD)
			if !ok {
				return nil, false
			}
			cur = md.Module
		}
	}
	return d, true
}

// instantiateTableRef mints one fresh CId per declared column for this
// particular occurrence of tid (§4.3.3: "every textual occurrence... a
// fresh set of column ids").
func (lw *Lowerer) instantiateTableRef(tid TId, declared []RelationColumn) *TableRef {
	ref := &TableRef{Source: tid}
	for _, col := range declared {
		ref.Columns = append(ref.Columns, TableRefColumn{Column: col, Id: lw.freshCId()})
	}
	return ref
}

// bindTableRefColumns registers the lineage-input id a table reference
// was reached through (e.Id, per foldFromTable/foldLocalTable) so that
// later column references — found via their ColumnD.TargetId, which
// for a from-introduced column always equals this same id, per
// internal/ast/lineage.go's "one LineageInput, columns distinguished by
// name only" shape — resolve into this ref's CIds.
func (lw *Lowerer) bindTableRefColumns(e *ast.Expr, ref *TableRef) {
	if e.Id == nil {
		return
	}
	frame := &inputFrame{ref: ref, byName: map[string]CId{}}
	for _, c := range ref.Columns {
		if c.Column.Wildcard {
			frame.wildcard = true
			continue
		}
		frame.byName[c.Column.Name] = c.Id
	}
	lw.nodeMapping[*e.Id] = &loweredTarget{input: frame}
}

// resolveInputColumn looks a column name up in an input frame, lazily
// minting and caching a fresh CId the first time a wildcard-schema
// source's column is referenced by name.
func (lw *Lowerer) resolveInputColumn(frame *inputFrame, name string) (CId, bool) {
	if cid, ok := frame.byName[name]; ok {
		return cid, true
	}
	if !frame.wildcard {
		return 0, false
	}
	cid := lw.freshCId()
	frame.byName[name] = cid
	frame.ref.Columns = append(frame.ref.Columns, TableRefColumn{Column: RelationColumn{Name: name}, Id: cid})
	return cid, true
}
