package pq_test

import (
	"testing"

	"github.com/pqlc-dev/pqlc/internal/module"
	"github.com/pqlc-dev/pqlc/internal/parser"
	"github.com/pqlc-dev/pqlc/internal/pq"
	"github.com/pqlc-dev/pqlc/internal/resolve"
	"github.com/pqlc-dev/pqlc/internal/rq"
	"github.com/stretchr/testify/require"
)

func mustAnchor(t *testing.T, src string) *pq.SqlQuery {
	t.Helper()
	md, err := parser.Parse(src, 0)
	require.NoError(t, err)
	root, spans, err := module.Build(md)
	require.NoError(t, err)
	res, errs := resolve.Resolve(root, spans, resolve.Options{})
	require.Empty(t, errs)
	rel, err := rq.Lower(res.Root, res.Main, rq.Def{Target: res.Options.Target, Version: res.Options.Version})
	require.NoError(t, err)
	q, err := pq.Anchor(rel)
	require.NoError(t, err)
	return q
}

// §8.3 scenario 1: filter + group/aggregate + sort + take all fit in one
// atomic pipeline, no splitting required.
func TestAnchor_SingleAtomicPipeline(t *testing.T) {
	q := mustAnchor(t, `
		from employees
		filter country == "USA"
		group {title, country} (aggregate {average salary})
		sort title
		take 20
	`)
	require.Empty(t, q.Ctes)

	pipe, ok := q.MainRelation.(pq.AtomicPipeline)
	require.True(t, ok)

	var kinds []string
	for _, tr := range pipe.Transforms {
		switch tr.(type) {
		case pq.From:
			kinds = append(kinds, "from")
		case pq.Filter:
			kinds = append(kinds, "filter")
		case pq.ComputeT:
			kinds = append(kinds, "compute")
		case pq.Aggregate:
			kinds = append(kinds, "aggregate")
		case pq.Sort:
			kinds = append(kinds, "sort")
		case pq.Take:
			kinds = append(kinds, "take")
		}
	}
	require.Equal(t, []string{"from", "filter", "compute", "aggregate", "sort", "take"}, kinds)
}

// §8.3 scenario 3: a second windowed derive after a filter forces a split
// into a CTE plus an outer query reading from it.
func TestAnchor_FilterAfterWindowedDeriveSplits(t *testing.T) {
	q := mustAnchor(t, `
		from employees
		derive global_rank = rank country
		filter country == "USA"
		derive rank = rank country
	`)
	require.Len(t, q.Ctes, 1)
	require.Equal(t, "table_0", q.Ctes[0].Name)

	outer, ok := q.MainRelation.(pq.AtomicPipeline)
	require.True(t, ok)
	from, ok := outer.Transforms[0].(pq.From)
	require.True(t, ok)
	require.True(t, from.Source.IsRef)
	require.Equal(t, pq.RIId(0), from.Source.Ref)
}

// §8.3 scenario 4: a windowed take of exactly one row per partition
// becomes DistinctOn rather than a row_number/filter pair.
func TestAnchor_UnitPartitionedTakeBecomesDistinctOn(t *testing.T) {
	q := mustAnchor(t, `
		prql target:sql.postgres
		from employees
		group department (sort age | take 1)
	`)
	pipe, ok := q.MainRelation.(pq.AtomicPipeline)
	require.True(t, ok)

	var sawDistinctOn bool
	for _, tr := range pipe.Transforms {
		if _, ok := tr.(pq.DistinctOn); ok {
			sawDistinctOn = true
		}
	}
	require.True(t, sawDistinctOn)
}

// §8.3 scenario 6: a relation literal followed by loop compiles to a
// recursive CTE whose Step references the same RIId as its own From.
func TestAnchor_LoopBecomesRecursiveCte(t *testing.T) {
	q := mustAnchor(t, `[{n=1}] | loop (select n = n+1 | filter n<5)`)

	require.Len(t, q.Ctes, 1)
	loop, ok := q.Ctes[0].Kind.(pq.LoopCte)
	require.True(t, ok)
	require.NotNil(t, loop.Initial)
	require.NotNil(t, loop.Step)
}

// §8.3 scenario 2: two named `let` tables each become their own CTE, in
// the order the main query first reaches them, with no cut inside either
// one (a From + Sort + Take fits in a single atomic pipeline, same for
// From + Aggregate).
func TestAnchor_NamedTablesBecomeOrderedCtes(t *testing.T) {
	q := mustAnchor(t, `
		let newest = (from employees | sort tenure | take 50)
		let avg_sal = (from salaries | group country (aggregate {avg = average salary}))
		from newest
		join avg_sal (this.country == that.country)
		select {name, salary, avg}
	`)

	require.Len(t, q.Ctes, 2)
	require.Equal(t, "newest", q.Ctes[0].Name)
	require.Equal(t, "avg_sal", q.Ctes[1].Name)

	for _, cte := range q.Ctes {
		_, ok := cte.Kind.(pq.NormalCte)
		require.True(t, ok)
	}

	outer, ok := q.MainRelation.(pq.AtomicPipeline)
	require.True(t, ok)
	from, ok := outer.Transforms[0].(pq.From)
	require.True(t, ok)
	require.True(t, from.Source.IsRef)
	join, ok := outer.Transforms[1].(pq.Join)
	require.True(t, ok)
	require.True(t, join.With.IsRef)
	require.NotEqual(t, from.Source.Ref, join.With.Ref)
}
