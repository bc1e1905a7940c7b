package sqlgen_test

import (
	"testing"

	"github.com/pqlc-dev/pqlc/internal/dialect"
	"github.com/pqlc-dev/pqlc/internal/module"
	"github.com/pqlc-dev/pqlc/internal/parser"
	"github.com/pqlc-dev/pqlc/internal/pq"
	"github.com/pqlc-dev/pqlc/internal/resolve"
	"github.com/pqlc-dev/pqlc/internal/rq"
	"github.com/pqlc-dev/pqlc/internal/sqlast"
	"github.com/pqlc-dev/pqlc/internal/sqlgen"
	"github.com/stretchr/testify/require"
)

func mustEmit(t *testing.T, src string, k dialect.Kind) *sqlast.Query {
	t.Helper()
	md, err := parser.Parse(src, 0)
	require.NoError(t, err)
	root, spans, err := module.Build(md)
	require.NoError(t, err)
	res, errs := resolve.Resolve(root, spans, resolve.Options{})
	require.Empty(t, errs)
	rel, err := rq.Lower(res.Root, res.Main, rq.Def{Target: res.Options.Target, Version: res.Options.Version})
	require.NoError(t, err)
	anchored, err := pq.Anchor(rel)
	require.NoError(t, err)
	q, err := sqlgen.Emit(anchored, dialect.Get(k))
	require.NoError(t, err)
	return q
}

func core(t *testing.T, q *sqlast.Query) *sqlast.SelectCore {
	t.Helper()
	c, ok := q.Body.Left.(*sqlast.SelectCore)
	require.True(t, ok)
	return c
}

// §8.3 scenario 1: a single atomic pipeline produces one SelectCore with
// WHERE, GROUP BY, ORDER BY and LIMIT all populated.
func TestEmit_SingleAtomicPipeline(t *testing.T) {
	q := mustEmit(t, `
		from employees
		filter country == "USA"
		group {title, country} (aggregate {average salary})
		sort title
		take 20
	`, dialect.Generic)

	c := core(t, q)
	require.NotNil(t, c.Where)
	require.Len(t, c.GroupBy, 2)
	require.Len(t, c.OrderBy, 1)
	require.NotNil(t, c.Limit)
	require.Nil(t, c.Offset)
}

// §8.3 scenario 3: the outer query reads from the CTE by name, with its
// own filter landing in WHERE, not HAVING (no aggregate in this pipeline).
func TestEmit_FilterAfterWindowedDeriveSplits(t *testing.T) {
	q := mustEmit(t, `
		from employees
		derive global_rank = rank country
		filter country == "USA"
		derive rank = rank country
	`, dialect.Generic)

	require.Len(t, q.With.Ctes, 1)
	c := core(t, q)
	require.NotNil(t, c.Where)
	require.Nil(t, c.Having)

	from, ok := c.From.Source.(*sqlast.TableName)
	require.True(t, ok)
	require.Equal(t, q.With.Ctes[0].Name, from.Name)
}

// std.eq/std.ne against a null literal collapse to IS [NOT] NULL (§4.5.2).
func TestEmit_EqNullBecomesIsNull(t *testing.T) {
	q := mustEmit(t, `from employees | filter middle_name == null`, dialect.Generic)
	c := core(t, q)
	isNull, ok := c.Where.(*sqlast.IsNullExpr)
	require.True(t, ok)
	require.False(t, isNull.Not)
}

func TestEmit_NeNullBecomesIsNotNull(t *testing.T) {
	q := mustEmit(t, `from employees | filter middle_name != null`, dialect.Generic)
	c := core(t, q)
	isNull, ok := c.Where.(*sqlast.IsNullExpr)
	require.True(t, ok)
	require.True(t, isNull.Not)
}

// A >= lo && x <= hi over the same column collapses to BETWEEN (§4.5.2).
func TestEmit_AndOfComparisonsCollapsesToBetween(t *testing.T) {
	q := mustEmit(t, `from employees | filter age >= 30 && age <= 40`, dialect.Generic)
	c := core(t, q)
	_, ok := c.Where.(*sqlast.BetweenExpr)
	require.True(t, ok)
}

// A literal BETWEEN operator also renders as BetweenExpr.
func TestEmit_LiteralBetween(t *testing.T) {
	q := mustEmit(t, `from employees | filter (age | in 30..40)`, dialect.Generic)
	c := core(t, q)
	_, ok := c.Where.(*sqlast.BetweenExpr)
	require.True(t, ok)
}

// Multiple Filter transforms in one pipeline combine with AND, not a
// silent overwrite (pipeline.go's andExpr).
func TestEmit_MultipleFiltersCombineWithAnd(t *testing.T) {
	q := mustEmit(t, `
		from employees
		filter age > 30
		filter country == "USA"
	`, dialect.Generic)
	c := core(t, q)
	bin, ok := c.Where.(*sqlast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, "AND", bin.Op)
}

// An Aggregate's Filter lands in HAVING instead of WHERE (§4.5.7).
func TestEmit_FilterAfterAggregateBecomesHaving(t *testing.T) {
	q := mustEmit(t, `
		from employees
		group country (aggregate {total = sum salary})
		filter total > 100000
	`, dialect.Generic)
	c := core(t, q)
	require.Nil(t, c.Where)
	require.NotNil(t, c.Having)
}

// take with a lower bound above 1 sets OFFSET, and an upper bound sets a
// LIMIT sized to the inclusive range's width (§4.5.7).
func TestEmit_TakeRangeSetsLimitAndOffset(t *testing.T) {
	q := mustEmit(t, `from employees | sort age | take 11..20`, dialect.Generic)
	c := core(t, q)
	require.NotNil(t, c.Offset)
	require.Equal(t, "10", c.Offset.(*sqlast.Literal).Value)
	require.NotNil(t, c.Limit)
	require.Equal(t, "10", c.Limit.(*sqlast.Literal).Value)
}

// A dialect with UseFetch forces an explicit OFFSET and synthesizes an
// ORDER BY when none is present (§4.5.7).
func TestEmit_FetchDialectForcesOffsetAndOrderBy(t *testing.T) {
	q := mustEmit(t, `from employees | take 10`, dialect.MSSQLServer)
	c := core(t, q)
	require.True(t, c.UseFetch)
	require.NotNil(t, c.Offset)
	require.Equal(t, "0", c.Offset.(*sqlast.Literal).Value)
	require.Len(t, c.OrderBy, 1)
}

// §8.3 scenario 4: a unit partitioned take becomes DISTINCT ON.
func TestEmit_UnitPartitionedTakeBecomesDistinctOn(t *testing.T) {
	q := mustEmit(t, `
		prql target:sql.postgres
		from employees
		group department (sort age | take 1)
	`, dialect.Postgres)
	c := core(t, q)
	require.NotEmpty(t, c.DistinctOn)
}

// A join between two distinct tables qualifies by each table's own name,
// with no synthetic alias needed (§4.5.3, §8.3 scenario 2's expected SQL).
func TestEmit_JoinOfDistinctTablesQualifiesByName(t *testing.T) {
	q := mustEmit(t, `
		from employees
		join departments (this.dept_id == that.id)
		select {name, title}
	`, dialect.Generic)
	c := core(t, q)
	from, ok := c.From.Source.(*sqlast.TableName)
	require.True(t, ok)
	require.Equal(t, "", from.Alias)
	require.Len(t, c.From.Joins, 1)
	right, ok := c.From.Joins[0].Right.(*sqlast.TableName)
	require.True(t, ok)
	require.Equal(t, "", right.Alias)
}

// A self-join collides on table name, so both occurrences get a
// synthetic alias to disambiguate (§4.5.3).
func TestEmit_SelfJoinSynthesizesAliases(t *testing.T) {
	q := mustEmit(t, `
		from employees
		join employees (this.manager_id == that.id)
	`, dialect.Generic)
	c := core(t, q)
	from, ok := c.From.Source.(*sqlast.TableName)
	require.True(t, ok)
	require.Equal(t, "t0", from.Alias)
	require.Len(t, c.From.Joins, 1)
	right, ok := c.From.Joins[0].Right.(*sqlast.TableName)
	require.True(t, ok)
	require.Equal(t, "t1", right.Alias)
}

// A single-source pipeline gets no alias at all (§4.5.3).
func TestEmit_SingleSourceGetsNoAlias(t *testing.T) {
	q := mustEmit(t, `from employees | select {name}`, dialect.Generic)
	c := core(t, q)
	from, ok := c.From.Source.(*sqlast.TableName)
	require.True(t, ok)
	require.Equal(t, "", from.Alias)
}

// §8.3 scenario 2: a named table reference and a join compile to the
// query's main select reading from two different CTE-backed refs.
func TestEmit_NamedTablesBecomeCteRefs(t *testing.T) {
	q := mustEmit(t, `
		let newest = (from employees | sort tenure | take 50)
		let avg_sal = (from salaries | group country (aggregate {avg = average salary}))
		from newest
		join avg_sal (this.country == that.country)
		select {name, salary, avg}
	`, dialect.Generic)

	require.Len(t, q.With.Ctes, 2)
	c := core(t, q)
	from, ok := c.From.Source.(*sqlast.TableName)
	require.True(t, ok)
	require.Equal(t, "newest", from.Name)
	require.Len(t, c.From.Joins, 1)
	right, ok := c.From.Joins[0].Right.(*sqlast.TableName)
	require.True(t, ok)
	require.Equal(t, "avg_sal", right.Name)
}

// §8.3 scenario 6: a relation literal followed by loop compiles to a
// recursive CTE.
func TestEmit_LoopBecomesRecursiveCte(t *testing.T) {
	q := mustEmit(t, `[{n=1}] | loop (select n = n+1 | filter n<5)`, dialect.Generic)
	require.Len(t, q.With.Ctes, 1)
	require.True(t, q.With.Recursive)
	require.NotNil(t, q.With.Ctes[0].Loop)
}

// A chain of Union transforms builds a right-leaning SetExpr, with each
// bottom source rendered as its own `SELECT *` core (§4.5.7).
func TestEmit_UnionChainsSetExpr(t *testing.T) {
	q := mustEmit(t, `
		from a_table
		select {id}
		append b_table
	`, dialect.Generic)
	require.Equal(t, sqlast.SetOpUnion, q.Body.Op)
	require.True(t, q.Body.All)
	require.NotNil(t, q.Body.Right)
	right := q.Body.Right.Left.(*sqlast.SelectCore)
	require.True(t, right.Columns[0].Star)
}

// std.concat renders as a native CONCAT() when the dialect has one, and
// flattens a chain of concatenations into one flat argument list.
func TestEmit_ConcatFunctionFlattensChain(t *testing.T) {
	q := mustEmit(t, `
		from employees
		derive full_name = concat first_name (concat " " last_name)
		select {full_name}
	`, dialect.MySQL)
	c := core(t, q)
	fc, ok := c.Columns[0].Expr.(*sqlast.FuncCall)
	require.True(t, ok)
	require.Equal(t, "CONCAT", fc.Name)
	require.Len(t, fc.Args, 3)
}

// Without a native CONCAT, std.concat falls back to the dialect's `||`
// (or equivalent) template, rendered as Raw text.
func TestEmit_ConcatWithoutFunctionUsesTemplate(t *testing.T) {
	q := mustEmit(t, `
		from employees
		derive full_name = concat first_name last_name
		select {full_name}
	`, dialect.Postgres)
	c := core(t, q)
	_, ok := c.Columns[0].Expr.(*sqlast.Raw)
	require.True(t, ok)
}

// A windowed compute (rank) renders as a FuncCall with a populated
// Window, not as Raw text (§4.5.2's needs_window operators).
func TestEmit_WindowedComputeProducesFuncCall(t *testing.T) {
	q := mustEmit(t, `
		from employees
		group department (sort age | derive r = rank age)
		select {department, r}
	`, dialect.Generic)
	c := core(t, q)
	fc, ok := c.Columns[1].Expr.(*sqlast.FuncCall)
	require.True(t, ok)
	require.NotNil(t, fc.Window)
}

// Nested arithmetic respects precedence: `(a + b) * c` parenthesizes the
// addition, `a + b * c` does not (§4.5.1).
func TestEmit_ArithmeticPrecedenceParenthesizes(t *testing.T) {
	q := mustEmit(t, `
		from t
		derive x = (a + b) * c
		derive y = a + b * c
		select {x, y}
	`, dialect.Generic)
	c := core(t, q)
	xRaw, ok := c.Columns[0].Expr.(*sqlast.Raw)
	require.True(t, ok)
	require.Contains(t, xRaw.Text, "(")

	yRaw, ok := c.Columns[1].Expr.(*sqlast.Raw)
	require.True(t, ok)
	require.NotContains(t, yRaw.Text, "(")
}

// Implicit projection with no explicit select/group falls back to `SELECT
// *` plus any derived columns appended in order (§4.5.3).
func TestEmit_ImplicitProjectionAppendsComputes(t *testing.T) {
	q := mustEmit(t, `from employees | derive bonus = salary * 0.1`, dialect.Generic)
	c := core(t, q)
	require.True(t, c.Columns[0].Star)
	require.Len(t, c.Columns, 2)
	require.Equal(t, "bonus", c.Columns[1].Alias)
}
