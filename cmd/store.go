package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"github.com/sells-group/prospect-cli/internal/cache"
	"github.com/sells-group/prospect-cli/internal/metrics"
)

// initCache opens the configured cache backend.
func initCache(ctx context.Context, m *metrics.Metrics) (*cache.Cache, error) {
	var backend cache.Backend
	switch cfg.Cache.Driver {
	case "memory":
		backend = cache.NewMemory()
	case "sqlite":
		dsn := cfg.Cache.DSN
		if dsn == "" {
			dsn = "prospect-cache.db"
		}
		b, err := cache.NewSQLite(ctx, dsn)
		if err != nil {
			return nil, err
		}
		backend = b
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Cache.DatabaseURL)
		if err != nil {
			return nil, eris.Wrap(err, "connect postgres cache")
		}
		b := cache.NewPostgres(pool)
		if err := b.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		backend = b
	case "redis":
		opts, err := redis.ParseURL(cfg.Cache.RedisURL)
		if err != nil {
			return nil, eris.Wrap(err, "parse redis url")
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, eris.Wrap(err, "ping redis cache")
		}
		backend = cache.NewRedis(client, cfg.Cache.RedisPrefix)
	default:
		return nil, eris.Errorf("unsupported cache driver: %s", cfg.Cache.Driver)
	}
	return cache.New(backend, cache.WithName(cfg.Cache.Driver), cache.WithMetrics(m)), nil
}

func hours(n int) time.Duration {
	return time.Duration(n) * time.Hour
}
