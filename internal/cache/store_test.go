package cache

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestKey_StableAndSensitiveToInputs(t *testing.T) {
	k1 := Key("select 1", "generic", "v1")
	k2 := Key("select 1", "generic", "v1")
	require.Equal(t, k1, k2)

	require.NotEqual(t, k1, Key("select 2", "generic", "v1"))
	require.NotEqual(t, k1, Key("select 1", "postgres", "v1"))
	require.NotEqual(t, k1, Key("select 1", "generic", "v2"))
}

func TestCache_RoundTrip(t *testing.T) {
	c, err := Open(":memory:", nil)
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	key := Key("from orders select id", "generic", "v1")

	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Put(ctx, key, "SELECT id FROM orders"))

	got, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "SELECT id FROM orders", got)

	require.NoError(t, c.Put(ctx, key, "SELECT id FROM orders -- updated"))
	got, ok, err = c.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "SELECT id FROM orders -- updated", got)
}

func TestCache_Get_QueriesExpectedStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	c := &Cache{db: db}

	rows := sqlmock.NewRows([]string{"sql"}).AddRow("SELECT 1")
	mock.ExpectQuery("SELECT sql FROM compilations WHERE cache_key = ?").
		WithArgs("abc").
		WillReturnRows(rows)

	got, ok, err := c.Get(context.Background(), "abc")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "SELECT 1", got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCache_Put_ExecutesUpsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	c := &Cache{db: db}

	mock.ExpectExec("INSERT INTO compilations").
		WithArgs("abc", "SELECT 1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, c.Put(context.Background(), "abc", "SELECT 1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
