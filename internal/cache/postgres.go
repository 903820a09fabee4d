package cache

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool used by PostgresBackend.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresBackend persists records in a shared Postgres table.
type PostgresBackend struct {
	pool Pool
}

// NewPostgres wraps an existing pool. Call Migrate before first use.
func NewPostgres(pool Pool) *PostgresBackend {
	return &PostgresBackend{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key        TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	ttl_ms     BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cache_entries_created_at ON cache_entries(created_at);
`

// Migrate creates the cache table if needed.
func (p *PostgresBackend) Migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate cache")
}

func (p *PostgresBackend) Load(ctx context.Context, key string) (*Record, error) {
	var (
		rec   Record
		ttlMS int64
	)
	err := p.pool.QueryRow(ctx,
		`SELECT value, created_at, ttl_ms FROM cache_entries WHERE key = $1`, key,
	).Scan(&rec.Value, &rec.CreatedAt, &ttlMS)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load cache entry")
	}
	rec.TTL = time.Duration(ttlMS) * time.Millisecond
	return &rec, nil
}

func (p *PostgresBackend) Save(ctx context.Context, key string, rec Record) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO cache_entries (key, value, created_at, ttl_ms)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, created_at = EXCLUDED.created_at, ttl_ms = EXCLUDED.ttl_ms`,
		key, rec.Value, rec.CreatedAt, rec.TTL.Milliseconds(),
	)
	return eris.Wrap(err, "postgres: save cache entry")
}

func (p *PostgresBackend) Delete(ctx context.Context, key string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM cache_entries WHERE key = $1`, key)
	return eris.Wrap(err, "postgres: delete cache entry")
}

func (p *PostgresBackend) DeleteAll(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM cache_entries`)
	return eris.Wrap(err, "postgres: delete all cache entries")
}

func (p *PostgresBackend) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	tag, err := p.pool.Exec(ctx,
		`DELETE FROM cache_entries WHERE created_at + ttl_ms * interval '1 millisecond' < $1`, now)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired cache entries")
	}
	return int(tag.RowsAffected()), nil
}

func (p *PostgresBackend) Len(ctx context.Context) (int, error) {
	var n int
	err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM cache_entries`).Scan(&n)
	return n, eris.Wrap(err, "postgres: count cache entries")
}

func (p *PostgresBackend) Close() error {
	p.pool.Close()
	return nil
}
