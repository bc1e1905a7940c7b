package rq_test

import (
	"testing"

	"github.com/pqlc-dev/pqlc/internal/module"
	"github.com/pqlc-dev/pqlc/internal/parser"
	"github.com/pqlc-dev/pqlc/internal/resolve"
	"github.com/pqlc-dev/pqlc/internal/rq"
	"github.com/stretchr/testify/require"
)

func mustLower(t *testing.T, src string) *rq.RelationalQuery {
	t.Helper()
	md, err := parser.Parse(src, 0)
	require.NoError(t, err)
	root, spans, err := module.Build(md)
	require.NoError(t, err)
	res, errs := resolve.Resolve(root, spans, resolve.Options{})
	require.Empty(t, errs)
	q, err := rq.Lower(res.Root, res.Main, rq.Def{Target: res.Options.Target, Version: res.Options.Version})
	require.NoError(t, err)
	return q
}

func TestLower_SimplePipeline(t *testing.T) {
	q := mustLower(t, `from employees | filter age > 30 | select {name, age}`)

	from, ok := q.Relation.Kind.(rq.PipelineR)
	require.True(t, ok)
	require.Len(t, from.Transforms, 3)

	_, ok = from.Transforms[0].(rq.FromT)
	require.True(t, ok)
	_, ok = from.Transforms[1].(rq.FilterT)
	require.True(t, ok)
	sel, ok := from.Transforms[2].(rq.SelectT)
	require.True(t, ok)
	require.Len(t, sel.Columns, 2)

	require.Len(t, q.Tables, 1)
	ext, ok := q.Tables[0].Relation.Kind.(rq.ExternRefR)
	require.True(t, ok)
	require.Equal(t, "employees", ext.Name.String())
}

func TestLower_DeriveReusesPassthroughColumn(t *testing.T) {
	q := mustLower(t, `from employees | derive full_name = name | select {full_name}`)

	pipe := q.Relation.Kind.(rq.PipelineR)
	// A bare rename needs no Compute transform: only From and Select.
	require.Len(t, pipe.Transforms, 2)
	_, ok := pipe.Transforms[1].(rq.SelectT)
	require.True(t, ok)
}

func TestLower_SelfJoinMintsDistinctColumnIds(t *testing.T) {
	q := mustLower(t, `
		from employees
		join employees (this.manager_id == that.id)
	`)

	pipe := q.Relation.Kind.(rq.PipelineR)
	from := pipe.Transforms[0].(rq.FromT)
	join := pipe.Transforms[1].(rq.JoinT)
	require.Equal(t, from.Table.Source, join.With.Source)
	for _, lc := range from.Table.Columns {
		for _, rc := range join.With.Columns {
			require.NotEqual(t, lc.Id, rc.Id)
		}
	}
}

func TestLower_AggregatePrependsPartitionKeys(t *testing.T) {
	q := mustLower(t, `
		from employees
		group {title, country} (aggregate {average salary})
	`)

	pipe := q.Relation.Kind.(rq.PipelineR)
	var agg rq.AggregateT
	found := false
	for _, tr := range pipe.Transforms {
		if a, ok := tr.(rq.AggregateT); ok {
			agg = a
			found = true
		}
	}
	require.True(t, found)
	require.Len(t, agg.Partition, 2)
	require.Len(t, agg.Compute, 1)
}

// §8.3 scenario 5: `age | in 18..40` desugars to BETWEEN before it ever
// reaches lowering, so rq sees a plain std.between operator.
func TestLower_InRangeDesugarsToBetween(t *testing.T) {
	q := mustLower(t, `from employees | filter (age | in 18..40)`)

	pipe := q.Relation.Kind.(rq.PipelineR)
	var filter rq.FilterT
	found := false
	for _, tr := range pipe.Transforms {
		if f, ok := tr.(rq.FilterT); ok {
			filter = f
			found = true
		}
	}
	require.True(t, found)
	op, ok := filter.Filter.(rq.Operator)
	require.True(t, ok)
	require.Equal(t, "std.between", op.Name)
	require.Len(t, op.Args, 3)
}

func TestLower_TakeRequiresLiteralBounds(t *testing.T) {
	q := mustLower(t, `from employees | sort age | take 1..10`)

	pipe := q.Relation.Kind.(rq.PipelineR)
	var take rq.TakeT
	for _, tr := range pipe.Transforms {
		if tt, ok := tr.(rq.TakeT); ok {
			take = tt
		}
	}
	require.NotNil(t, take.Take.Range.Start)
	require.Equal(t, 1, *take.Take.Range.Start)
	require.Equal(t, 10, *take.Take.Range.End)
}
