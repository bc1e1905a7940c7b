package pq

import (
	"fmt"

	"github.com/pqlc-dev/pqlc/internal/rq"
)

// NameTable implements §4.4.3's column/table name generators:
// `ensure_column_name` is idempotent, preferring a column's declared
// source name over minting a fresh `_expr_N`.
type NameTable struct {
	columnNames   map[rq.CId]string
	nextExprName  int
	nextTableName int
}

func newNameTable() *NameTable {
	return &NameTable{columnNames: map[rq.CId]string{}}
}

// declare records cid's source-given name the first time it is seen;
// later calls (e.g. a second occurrence of the same table) are no-ops so
// the first binding wins.
func (nt *NameTable) declare(cid rq.CId, name string) {
	if name == "" {
		return
	}
	if _, ok := nt.columnNames[cid]; !ok {
		nt.columnNames[cid] = name
	}
}

// EnsureColumnName returns cid's declared name, or mints and caches the
// next `_expr_N` generated name if it has none (§4.4.3). A wildcard
// column never reaches here with a name to find, and the caller is
// responsible for rejecting that case with MissingOutputNameError before
// a position (e.g. ORDER BY) that requires one.
func (nt *NameTable) EnsureColumnName(cid rq.CId) string {
	if n, ok := nt.columnNames[cid]; ok {
		return n
	}
	n := fmt.Sprintf("_expr_%d", nt.nextExprName)
	nt.nextExprName++
	nt.columnNames[cid] = n
	return n
}

func (nt *NameTable) freshTableName() string {
	n := fmt.Sprintf("table_%d", nt.nextTableName)
	nt.nextTableName++
	return n
}
