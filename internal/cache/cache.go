// Package cache provides the time-bound key/value store shared by the
// identification and enrichment stages.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/prospect-cli/internal/metrics"
)

// Namespaces partition keys by pipeline stage.
const (
	NamespaceIdentify = "identify"
	NamespaceEnrich   = "enrich"
)

// DefaultIdentifyTTL is how long identification results stay fresh.
const DefaultIdentifyTTL = 30 * 24 * time.Hour

// Record is the persisted form of a cache entry.
type Record struct {
	Value     []byte
	CreatedAt time.Time
	TTL       time.Duration
}

// Expired reports whether the record is stale at now.
func (r Record) Expired(now time.Time) bool {
	return now.Sub(r.CreatedAt) > r.TTL
}

// Entry is a live cache entry returned by Get.
type Entry struct {
	Value     []byte
	CreatedAt time.Time
	TTL       time.Duration
}

// Backend persists records. Implementations must be safe for concurrent use.
// Load returns (nil, nil) when the key is absent.
type Backend interface {
	Load(ctx context.Context, key string) (*Record, error)
	Save(ctx context.Context, key string, rec Record) error
	Delete(ctx context.Context, key string) error
	DeleteAll(ctx context.Context) error
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
	Len(ctx context.Context) (int, error)
	Close() error
}

// Info summarizes cache contents.
type Info struct {
	Backend string `json:"backend"`
	Entries int    `json:"entries"`
}

// Cache implements get/put/invalidate/clear over a Backend. Expired, missing
// and unreadable entries all read as a miss.
type Cache struct {
	backend Backend
	name    string
	now     func() time.Time
	metrics *metrics.Metrics
	group   singleflight.Group
}

// Option configures a Cache.
type Option func(*Cache)

// WithNow overrides the clock used for expiry checks.
func WithNow(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithMetrics records hit/miss counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// WithName sets the backend label reported by Info.
func WithName(name string) Option {
	return func(c *Cache) { c.name = name }
}

// New wraps a backend.
func New(backend Backend, opts ...Option) *Cache {
	c := &Cache{
		backend: backend,
		name:    "custom",
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Key builds a deterministic key from a namespace and request parameters.
func Key(namespace string, parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return namespace + ":" + hex.EncodeToString(h[:])
}

// Get returns the live entry for key. It never returns an error: backend
// failures are logged and reported as a miss.
func (c *Cache) Get(ctx context.Context, key string) (*Entry, bool) {
	e := c.lookup(ctx, key)
	c.metrics.CacheLookup(namespaceOf(key), e != nil)
	return e, e != nil
}

func (c *Cache) lookup(ctx context.Context, key string) *Entry {
	rec, err := c.backend.Load(ctx, key)
	if err != nil {
		zap.L().Warn("cache: unreadable entry treated as miss",
			zap.String("key", key),
			zap.Error(err),
		)
		return nil
	}
	if rec == nil || rec.Expired(c.now()) {
		return nil
	}
	return &Entry{Value: rec.Value, CreatedAt: rec.CreatedAt, TTL: rec.TTL}
}

// Put stores value under key with the given ttl. Concurrent writes to the
// same key are last-write-wins.
func (c *Cache) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return eris.Errorf("cache: non-positive ttl %s for %s", ttl, key)
	}
	rec := Record{Value: value, CreatedAt: c.now(), TTL: ttl}
	return eris.Wrap(c.backend.Save(ctx, key, rec), "cache: put")
}

// Invalidate removes a single key.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	return eris.Wrap(c.backend.Delete(ctx, key), "cache: invalidate")
}

// Clear removes every entry.
func (c *Cache) Clear(ctx context.Context) error {
	return eris.Wrap(c.backend.DeleteAll(ctx), "cache: clear")
}

// Sweep physically evicts expired entries and returns how many were removed.
func (c *Cache) Sweep(ctx context.Context) (int, error) {
	n, err := c.backend.DeleteExpired(ctx, c.now())
	if err != nil {
		return 0, eris.Wrap(err, "cache: sweep")
	}
	return n, nil
}

// Info reports the backend name and entry count, including expired entries
// not yet swept.
func (c *Cache) Info(ctx context.Context) (Info, error) {
	n, err := c.backend.Len(ctx)
	if err != nil {
		return Info{}, eris.Wrap(err, "cache: info")
	}
	return Info{Backend: c.name, Entries: n}, nil
}

// Close releases the backend.
func (c *Cache) Close() error {
	return c.backend.Close()
}

// FillFunc produces a value on a cache miss.
type FillFunc func(ctx context.Context) ([]byte, error)

// Fetch returns the cached value for key, or calls fill once per key across
// concurrent callers and stores its result. hit is true only when the value
// came from the cache. A fill error is returned and nothing is stored.
func (c *Cache) Fetch(ctx context.Context, key string, ttl time.Duration, fill FillFunc) ([]byte, bool, error) {
	if e, ok := c.Get(ctx, key); ok {
		return e.Value, true, nil
	}

	type filled struct {
		value []byte
		hit   bool
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		// A concurrent caller may have filled the key while we waited.
		if e := c.lookup(ctx, key); e != nil {
			return filled{value: e.Value, hit: true}, nil
		}
		value, err := fill(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.Put(ctx, key, value, ttl); err != nil {
			zap.L().Warn("cache: store after fill failed", zap.String("key", key), zap.Error(err))
		}
		return filled{value: value}, nil
	})
	if err != nil {
		return nil, false, err
	}
	f := v.(filled)
	return f.value, f.hit, nil
}

// GetJSON decodes a cached JSON value. A decode failure is a miss.
func GetJSON[T any](ctx context.Context, c *Cache, key string) (T, bool) {
	var out T
	e, ok := c.Get(ctx, key)
	if !ok {
		return out, false
	}
	if err := json.Unmarshal(e.Value, &out); err != nil {
		zap.L().Warn("cache: corrupt entry treated as miss", zap.String("key", key), zap.Error(err))
		var zero T
		return zero, false
	}
	return out, true
}

// PutJSON encodes v as JSON and stores it.
func PutJSON(ctx context.Context, c *Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return eris.Wrap(err, "cache: marshal value")
	}
	return c.Put(ctx, key, data, ttl)
}

func namespaceOf(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return "default"
}
