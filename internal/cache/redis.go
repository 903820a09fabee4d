package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

// DefaultRedisPrefix namespaces cache keys inside a shared Redis database.
const DefaultRedisPrefix = "prospect:cache:"

// RedisBackend persists records in Redis. Keys carry no Redis expiry so stale
// entries stay until Sweep or Clear.
type RedisBackend struct {
	client *redis.Client
	prefix string
}

// NewRedis wraps a client. An empty prefix uses DefaultRedisPrefix.
func NewRedis(client *redis.Client, prefix string) *RedisBackend {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisBackend{client: client, prefix: prefix}
}

type redisRecord struct {
	Value     []byte `json:"v"`
	CreatedAt int64  `json:"c"`
	TTL       int64  `json:"t"`
}

func encodeRecord(rec Record) ([]byte, error) {
	return json.Marshal(redisRecord{
		Value:     rec.Value,
		CreatedAt: rec.CreatedAt.UnixNano(),
		TTL:       int64(rec.TTL),
	})
}

func decodeRecord(data []byte) (*Record, error) {
	var r redisRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, eris.Wrap(err, "redis: decode cache record")
	}
	if r.CreatedAt == 0 {
		return nil, eris.New("redis: cache record missing created_at")
	}
	return &Record{
		Value:     r.Value,
		CreatedAt: time.Unix(0, r.CreatedAt).UTC(),
		TTL:       time.Duration(r.TTL),
	}, nil
}

func (r *RedisBackend) Load(ctx context.Context, key string) (*Record, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "redis: load cache entry")
	}
	return decodeRecord(data)
}

func (r *RedisBackend) Save(ctx context.Context, key string, rec Record) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return eris.Wrap(err, "redis: encode cache record")
	}
	return eris.Wrap(r.client.Set(ctx, r.prefix+key, data, 0).Err(), "redis: save cache entry")
}

func (r *RedisBackend) Delete(ctx context.Context, key string) error {
	return eris.Wrap(r.client.Del(ctx, r.prefix+key).Err(), "redis: delete cache entry")
}

// scan visits every key under the prefix.
func (r *RedisBackend) scan(ctx context.Context, fn func(key string) error) error {
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 500).Iterator()
	for iter.Next(ctx) {
		if err := fn(iter.Val()); err != nil {
			return err
		}
	}
	return eris.Wrap(iter.Err(), "redis: scan cache keys")
}

func (r *RedisBackend) DeleteAll(ctx context.Context) error {
	return r.scan(ctx, func(key string) error {
		return eris.Wrap(r.client.Del(ctx, key).Err(), "redis: delete cache entry")
	})
}

func (r *RedisBackend) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	n := 0
	err := r.scan(ctx, func(key string) error {
		data, err := r.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return eris.Wrap(err, "redis: read cache entry")
		}
		rec, err := decodeRecord(data)
		// Unreadable records can never be served, so they are swept too.
		if err == nil && !rec.Expired(now) {
			return nil
		}
		if err := r.client.Del(ctx, key).Err(); err != nil {
			return eris.Wrap(err, "redis: delete expired cache entry")
		}
		n++
		return nil
	})
	return n, err
}

func (r *RedisBackend) Len(ctx context.Context) (int, error) {
	n := 0
	err := r.scan(ctx, func(string) error {
		n++
		return nil
	})
	return n, err
}

func (r *RedisBackend) Close() error {
	return r.client.Close()
}
