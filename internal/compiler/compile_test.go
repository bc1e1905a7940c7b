package compiler_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pqlc-dev/pqlc/internal/compiler"
	"github.com/pqlc-dev/pqlc/internal/dialect"
)

func TestCompile_SimplePipeline(t *testing.T) {
	c := compiler.New(nil)
	q, diags := c.Compile(`from employees | filter age > 30 | select {name, age}`, compiler.Options{
		Target: dialect.Generic,
		Format: true,
	})
	require.Empty(t, diags)
	require.NotNil(t, q)

	sql := c.Render(q, compiler.Options{Target: dialect.Generic, Format: true})
	require.Contains(t, sql, "SELECT")
	require.Contains(t, sql, "FROM employees")
}

func TestCompile_Render_Signature(t *testing.T) {
	c := compiler.New(nil)
	q, diags := c.Compile(`from t | select {a}`, compiler.Options{Target: dialect.Postgres})
	require.Empty(t, diags)

	withSig := c.Render(q, compiler.Options{Target: dialect.Postgres, Signature: true})
	require.Contains(t, withSig, "-- generated by pqlc")

	withoutSig := c.Render(q, compiler.Options{Target: dialect.Postgres, Signature: false})
	require.NotContains(t, withoutSig, "-- generated by pqlc")
}

func TestCompile_SyntaxErrorIsClassified(t *testing.T) {
	c := compiler.New(nil)
	_, diags := c.Compile(`from`, compiler.Options{Target: dialect.Generic})
	require.NotEmpty(t, diags)
}

func TestCompile_MissingMainIsClassified(t *testing.T) {
	c := compiler.New(nil)
	_, diags := c.Compile(`let x = 5`, compiler.Options{Target: dialect.Generic})
	require.NotEmpty(t, diags)
}

func TestCompileAll_CompilesEveryFileConcurrently(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pql"), []byte(`from a | select {x}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.pql"), []byte(`from b | select {y}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.pql"), []byte(`from`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte(`not pql`), 0o644))

	c := compiler.New(nil)
	results, err := c.CompileAll(dir, compiler.Options{Target: dialect.Generic})
	require.NoError(t, err)
	require.Len(t, results, 3)

	byPath := map[string]compiler.Result{}
	for _, r := range results {
		byPath[filepath.Base(r.Path)] = r
	}

	require.Empty(t, byPath["a.pql"].Diagnostics)
	require.Empty(t, byPath["b.pql"].Diagnostics)
	require.NotEmpty(t, byPath["bad.pql"].Diagnostics)
}

func TestTables_ReportsToposortedDependencyPlan(t *testing.T) {
	c := compiler.New(nil)
	tables, diags := c.Tables(`from raw_orders | select {id}`, compiler.Options{Target: dialect.Generic})
	require.Empty(t, diags)
	require.Len(t, tables, 1)
	require.True(t, tables[0].External)
	require.Equal(t, "raw_orders", tables[0].Name)
}
