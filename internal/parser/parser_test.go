package parser

import (
	"testing"

	"github.com/pqlc-dev/pqlc/internal/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_SimplePipeline(t *testing.T) {
	m, err := Parse(`from employees | filter age > 30 | select {name, age}`, 0)
	require.NoError(t, err)
	require.Len(t, m.Stmts, 1)

	main, ok := m.Stmts[0].Kind.(ast.MainS)
	require.True(t, ok)

	sel, ok := main.Value.Kind.(ast.FuncCall)
	require.True(t, ok)
	assert.Equal(t, "select", sel.Name.Kind.(ast.IdentExpr).Ident.Name())
	require.Len(t, sel.Args, 2)

	filter, ok := sel.Args[1].Kind.(ast.FuncCall)
	require.True(t, ok)
	assert.Equal(t, "filter", filter.Name.Kind.(ast.IdentExpr).Ident.Name())

	from, ok := filter.Args[1].Kind.(ast.FuncCall)
	require.True(t, ok)
	assert.Equal(t, "from", from.Name.Kind.(ast.IdentExpr).Ident.Name())
	require.Len(t, from.Args, 1)
	fromArg, ok := from.Args[0].Kind.(ast.IdentExpr)
	require.True(t, ok)
	assert.Equal(t, "employees", fromArg.Ident.String())
}

func TestParse_VarDef(t *testing.T) {
	m, err := Parse(`let top_customers = from customers | take 10`, 0)
	require.NoError(t, err)
	require.Len(t, m.Stmts, 1)

	def, ok := m.Stmts[0].Kind.(ast.VarDefS)
	require.True(t, ok)
	assert.Equal(t, "top_customers", def.Name)

	take, ok := def.Value.Kind.(ast.FuncCall)
	require.True(t, ok)
	assert.Equal(t, "take", take.Name.Kind.(ast.IdentExpr).Ident.Name())
}

func TestParse_ModuleBlock(t *testing.T) {
	m, err := Parse(`module staging { let orders = from raw_orders }`, 0)
	require.NoError(t, err)
	require.Len(t, m.Stmts, 1)

	mod, ok := m.Stmts[0].Kind.(ast.ModuleDefS)
	require.True(t, ok)
	assert.Equal(t, "staging", mod.Name)
	require.Len(t, mod.Stmts, 1)
}

func TestParse_QueryDef(t *testing.T) {
	m, err := Parse(`prql target:sql.postgres version:"0.1"` + "\n" + `from x`, 0)
	require.NoError(t, err)
	require.Len(t, m.Stmts, 2)

	def, ok := m.Stmts[0].Kind.(ast.QueryDefS)
	require.True(t, ok)
	assert.Equal(t, "sql.postgres", def.Target)
	assert.Equal(t, "0.1", def.Version)
}

func TestParse_TupleAndNamedArg(t *testing.T) {
	m, err := Parse(`from x | derive {doubled = price * 2}`, 0)
	require.NoError(t, err)

	main := m.Stmts[0].Kind.(ast.MainS)
	derive := main.Value.Kind.(ast.FuncCall)
	require.Len(t, derive.Args, 2)

	tuple, ok := derive.Args[0].Kind.(ast.Tuple)
	require.True(t, ok)
	require.Len(t, tuple.Fields, 1)
	assert.Equal(t, "doubled", tuple.Fields[0].Alias)

	bin, ok := tuple.Fields[0].Value.Kind.(ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.OpMul, bin.Op)
}

func TestParse_RangeInTake(t *testing.T) {
	m, err := Parse(`from x | take 5..10`, 0)
	require.NoError(t, err)

	main := m.Stmts[0].Kind.(ast.MainS)
	take := main.Value.Kind.(ast.FuncCall)
	rng, ok := take.Args[0].Kind.(ast.Range)
	require.True(t, ok)
	require.NotNil(t, rng.Start)
	require.NotNil(t, rng.End)
}

func TestParse_NegatedTupleSelect(t *testing.T) {
	m, err := Parse(`from x | select !{password}`, 0)
	require.NoError(t, err)

	main := m.Stmts[0].Kind.(ast.MainS)
	sel := main.Value.Kind.(ast.FuncCall)
	all, ok := sel.Args[0].Kind.(ast.All)
	require.True(t, ok)
	assert.Equal(t, []string{"password"}, all.Except)
}

func TestParse_SyntaxError(t *testing.T) {
	_, err := Parse(`from x | select {`, 0)
	require.Error(t, err)
	var synErr *SyntaxError
	require.ErrorAs(t, err, &synErr)
}
