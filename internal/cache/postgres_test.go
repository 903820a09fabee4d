package cache

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgres_Load(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT value, created_at, ttl_ms FROM cache_entries`).
		WithArgs("k").
		WillReturnRows(pgxmock.NewRows([]string{"value", "created_at", "ttl_ms"}).
			AddRow([]byte("v"), created, int64(3600000)))

	b := NewPostgres(mock)
	rec, err := b.Load(context.Background(), "k")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, []byte("v"), rec.Value)
	assert.Equal(t, time.Hour, rec.TTL)
	assert.True(t, created.Equal(rec.CreatedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_LoadMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT value, created_at, ttl_ms FROM cache_entries`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	rec, err := NewPostgres(mock).Load(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestPostgres_LoadErrorIsCacheMiss(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT value, created_at, ttl_ms FROM cache_entries`).
		WithArgs("k").
		WillReturnError(assert.AnError)

	c := New(NewPostgres(mock))
	_, ok := c.Get(context.Background(), "k")
	assert.False(t, ok)
}

func TestPostgres_Save(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(`INSERT INTO cache_entries`).
		WithArgs("k", []byte("v"), created, int64(60000)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = NewPostgres(mock).Save(context.Background(), "k", Record{Value: []byte("v"), CreatedAt: created, TTL: time.Minute})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_DeleteExpired(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(`DELETE FROM cache_entries WHERE created_at`).
		WithArgs(now).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := NewPostgres(mock).DeleteExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestPostgres_Len(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT COUNT`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(7))

	n, err := NewPostgres(mock).Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestPostgres_Migrate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS cache_entries`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, NewPostgres(mock).Migrate(context.Background()))
}
