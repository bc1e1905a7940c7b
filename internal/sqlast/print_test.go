package sqlast_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pqlc-dev/pqlc/internal/sqlast"
)

func simpleQuery() *sqlast.Query {
	return &sqlast.Query{
		Body: &sqlast.SetExpr{
			Left: &sqlast.SelectCore{
				Columns: []sqlast.SelectItem{
					{Expr: &sqlast.ColumnRef{Column: "id"}},
					{Expr: &sqlast.ColumnRef{Column: "name"}, Alias: "n"},
				},
				From: &sqlast.FromClause{
					Source: &sqlast.TableName{Name: "orders"},
				},
				Where: &sqlast.BinaryExpr{
					Left:  &sqlast.ColumnRef{Column: "amount"},
					Op:    ">",
					Right: &sqlast.Literal{Kind: sqlast.LitNumber, Value: "100"},
				},
			},
		},
	}
}

func TestPrint_SimpleSelect(t *testing.T) {
	out := sqlast.Print(simpleQuery(), false)
	require.Contains(t, out, "SELECT")
	require.Contains(t, out, "id")
	require.Contains(t, out, "name AS n")
	require.Contains(t, out, "FROM orders")
	require.Contains(t, out, "WHERE amount > 100")
}

func TestPrint_PrettyAddsNewlines(t *testing.T) {
	out := sqlast.Print(simpleQuery(), true)
	require.Greater(t, strings.Count(out, "\n"), 0)
}

func TestPrint_JoinAndOrderByAndLimit(t *testing.T) {
	q := &sqlast.Query{
		Body: &sqlast.SetExpr{
			Left: &sqlast.SelectCore{
				Columns: []sqlast.SelectItem{{Star: true}},
				From: &sqlast.FromClause{
					Source: &sqlast.TableName{Name: "orders", Alias: "o"},
					Joins: []sqlast.Join{
						{
							Type:  sqlast.JoinLeft,
							Right: &sqlast.TableName{Name: "customers", Alias: "c"},
							Condition: &sqlast.BinaryExpr{
								Left:  &sqlast.ColumnRef{Table: "o", Column: "customer_id"},
								Op:    "=",
								Right: &sqlast.ColumnRef{Table: "c", Column: "id"},
							},
						},
					},
				},
				OrderBy: []sqlast.OrderByItem{{Expr: &sqlast.ColumnRef{Column: "id"}, Desc: true}},
				Limit:   &sqlast.Literal{Kind: sqlast.LitNumber, Value: "10"},
			},
		},
	}
	out := sqlast.Print(q, false)
	require.Contains(t, out, "LEFT JOIN customers AS c ON o.customer_id = c.id")
	require.Contains(t, out, "ORDER BY id DESC")
	require.Contains(t, out, "LIMIT 10")
}

func TestPrint_FetchInsteadOfLimit(t *testing.T) {
	q := &sqlast.Query{
		Body: &sqlast.SetExpr{
			Left: &sqlast.SelectCore{
				Columns:  []sqlast.SelectItem{{Star: true}},
				From:     &sqlast.FromClause{Source: &sqlast.TableName{Name: "t"}},
				Offset:   &sqlast.Literal{Kind: sqlast.LitNumber, Value: "5"},
				Limit:    &sqlast.Literal{Kind: sqlast.LitNumber, Value: "10"},
				UseFetch: true,
			},
		},
	}
	out := sqlast.Print(q, false)
	require.Contains(t, out, "OFFSET 5 ROWS")
	require.Contains(t, out, "FETCH FIRST 10 ROWS ONLY")
	require.NotContains(t, out, "LIMIT")
}

func TestPrint_SetOperationChain(t *testing.T) {
	q := &sqlast.Query{
		Body: &sqlast.SetExpr{
			Left: &sqlast.SelectCore{
				Columns: []sqlast.SelectItem{{Star: true}},
				From:    &sqlast.FromClause{Source: &sqlast.TableName{Name: "a"}},
			},
			Op:  sqlast.SetOpUnion,
			All: true,
			Right: &sqlast.SetExpr{
				Left: &sqlast.SelectCore{
					Columns: []sqlast.SelectItem{{Star: true}},
					From:    &sqlast.FromClause{Source: &sqlast.TableName{Name: "b"}},
				},
			},
		},
	}
	out := sqlast.Print(q, false)
	require.Contains(t, out, "UNION ALL")
}

func TestPrint_WithClauseAndRecursive(t *testing.T) {
	inner := &sqlast.Query{
		Body: &sqlast.SetExpr{Left: &sqlast.SelectCore{
			Columns: []sqlast.SelectItem{{Expr: &sqlast.Literal{Kind: sqlast.LitNumber, Value: "1"}}},
		}},
	}
	q := &sqlast.Query{
		With: &sqlast.WithClause{
			Ctes: []sqlast.Cte{{Name: "cte1", Query: inner}},
		},
		Body: &sqlast.SetExpr{Left: &sqlast.SelectCore{
			Columns: []sqlast.SelectItem{{Star: true}},
			From:    &sqlast.FromClause{Source: &sqlast.TableName{Name: "cte1"}},
		}},
	}
	out := sqlast.Print(q, false)
	require.Contains(t, out, "WITH cte1 AS")
	require.NotContains(t, out, "RECURSIVE")
}

func TestPrint_FuncCallWithWindowAndCase(t *testing.T) {
	q := &sqlast.Query{
		Body: &sqlast.SetExpr{Left: &sqlast.SelectCore{
			Columns: []sqlast.SelectItem{
				{
					Alias: "rn",
					Expr: &sqlast.FuncCall{
						Name: "ROW_NUMBER",
						Window: &sqlast.WindowSpec{
							PartitionBy: []sqlast.Expr{&sqlast.ColumnRef{Column: "customer_id"}},
							OrderBy:     []sqlast.OrderByItem{{Expr: &sqlast.ColumnRef{Column: "created_at"}}},
						},
					},
				},
				{
					Alias: "bucket",
					Expr: &sqlast.CaseExpr{Whens: []sqlast.WhenClause{
						{
							Condition: &sqlast.BinaryExpr{Left: &sqlast.ColumnRef{Column: "amount"}, Op: ">", Right: &sqlast.Literal{Kind: sqlast.LitNumber, Value: "0"}},
							Result:    &sqlast.Literal{Kind: sqlast.LitString, Value: "positive"},
						},
					}},
				},
			},
			From: &sqlast.FromClause{Source: &sqlast.TableName{Name: "t"}},
		}},
	}
	out := sqlast.Print(q, false)
	require.Contains(t, out, "ROW_NUMBER() OVER (PARTITION BY customer_id ORDER BY created_at)")
	require.Contains(t, out, "CASE WHEN amount > 0 THEN 'positive' END")
}

func TestPrint_UnhandledExprPanics(t *testing.T) {
	q := &sqlast.Query{
		Body: &sqlast.SetExpr{Left: &sqlast.SelectCore{
			Columns: []sqlast.SelectItem{{Expr: unknownExpr{}}},
			From:    &sqlast.FromClause{Source: &sqlast.TableName{Name: "t"}},
		}},
	}
	require.Panics(t, func() { sqlast.Print(q, false) })
}

type unknownExpr struct{}

func (unknownExpr) exprNode() {}
