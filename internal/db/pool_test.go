package db

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Pool = (*pgxpool.Pool)(nil)
	_ Pool = pgxmock.PgxPoolIface(nil)
)

func TestConnect_InvalidConnString(t *testing.T) {
	_, err := Connect(context.Background(), "postgres://user@localhost:notaport/db", PoolOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db: parse config")
}

func TestPool_MockQuery(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	var p Pool = mock
	mock.ExpectQuery("SELECT count").WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	var n int
	require.NoError(t, p.QueryRow(context.Background(), "SELECT count(*) FROM hospitals").Scan(&n))
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
