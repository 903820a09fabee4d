package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteBackend(t *testing.T) *SQLiteBackend {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	b, err := NewSQLite(context.Background(), dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() }) //nolint:errcheck
	return b
}

func TestSQLite_SaveAndLoad(t *testing.T) {
	b := newTestSQLiteBackend(t)
	ctx := context.Background()
	created := time.Date(2025, 1, 2, 3, 4, 5, 6, time.UTC)

	require.NoError(t, b.Save(ctx, "k", Record{Value: []byte("v"), CreatedAt: created, TTL: time.Hour}))

	rec, err := b.Load(ctx, "k")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, []byte("v"), rec.Value)
	assert.True(t, created.Equal(rec.CreatedAt))
	assert.Equal(t, time.Hour, rec.TTL)
}

func TestSQLite_Missing(t *testing.T) {
	b := newTestSQLiteBackend(t)
	rec, err := b.Load(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestSQLite_Upsert(t *testing.T) {
	b := newTestSQLiteBackend(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, b.Save(ctx, "k", Record{Value: []byte("a"), CreatedAt: now, TTL: time.Hour}))
	require.NoError(t, b.Save(ctx, "k", Record{Value: []byte("b"), CreatedAt: now, TTL: time.Hour}))

	rec, err := b.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "b", string(rec.Value))

	n, err := b.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLite_DeleteExpired(t *testing.T) {
	b := newTestSQLiteBackend(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, b.Save(ctx, "old", Record{Value: []byte("1"), CreatedAt: now.Add(-2 * time.Hour), TTL: time.Hour}))
	require.NoError(t, b.Save(ctx, "new", Record{Value: []byte("2"), CreatedAt: now, TTL: time.Hour}))

	n, err := b.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rec, err := b.Load(ctx, "new")
	require.NoError(t, err)
	assert.NotNil(t, rec)
}

func TestSQLite_DeleteAndDeleteAll(t *testing.T) {
	b := newTestSQLiteBackend(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, b.Save(ctx, "a", Record{Value: []byte("1"), CreatedAt: now, TTL: time.Hour}))
	require.NoError(t, b.Save(ctx, "b", Record{Value: []byte("2"), CreatedAt: now, TTL: time.Hour}))

	require.NoError(t, b.Delete(ctx, "a"))
	n, err := b.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, b.DeleteAll(ctx))
	n, err = b.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	b, err := NewSQLite(ctx, dbPath)
	require.NoError(t, err)
	c := New(b)
	require.NoError(t, c.Put(ctx, "k", []byte("v"), time.Hour))
	require.NoError(t, c.Close())

	b, err = NewSQLite(ctx, dbPath)
	require.NoError(t, err)
	c = New(b)
	defer c.Close() //nolint:errcheck

	e, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v", string(e.Value))
}
