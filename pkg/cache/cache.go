// Package cache is a two-layer read-through cache: an in-process LRU in front
// of a persistent store (leveldb directory or redis).
package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pierrec/lz4/v4"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrMiss is returned by stores when a key is absent or expired
var ErrMiss = errors.New("cache miss")

// Store is the persistent second layer
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Prune drops expired entries and returns how many were removed
	Prune(ctx context.Context, now time.Time) (int, error)
	Close() error
}

// entry is what gets encoded in both layers
type entry struct {
	Value     []byte `msgpack:"v"`
	ExpiresAt int64  `msgpack:"e"` // unix nanos, 0 means never
}

func (e entry) expired(now time.Time) bool {
	return e.ExpiresAt != 0 && now.UnixNano() >= e.ExpiresAt
}

// Cache combines the LRU with an optional Store
type Cache struct {
	local      *lru.Cache
	store      Store
	defaultTTL time.Duration
	logger     zerolog.Logger
	now        func() time.Time
}

// New creates a cache; store may be nil for a memory-only cache
func New(localSize int, store Store, defaultTTL time.Duration, logger zerolog.Logger) (*Cache, error) {
	if localSize <= 0 {
		localSize = 128
	}
	local, err := lru.New(localSize)
	if err != nil {
		return nil, fmt.Errorf("could not create LRU cache: %w", err)
	}
	return &Cache{
		local:      local,
		store:      store,
		defaultTTL: defaultTTL,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// Get returns the raw value stored under key, or ErrMiss
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	now := c.now()

	if v, ok := c.local.Get(key); ok {
		e := v.(entry)
		if !e.expired(now) {
			c.logger.Debug().Str("key", key).Str("layer", "l1").Msg("Cache hit")
			return e.Value, nil
		}
		c.local.Remove(key)
	}

	if c.store == nil {
		return nil, ErrMiss
	}

	raw, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	e, err := decode(raw)
	if err != nil {
		return nil, err
	}
	if e.expired(now) {
		_ = c.store.Delete(ctx, key)
		return nil, ErrMiss
	}

	c.local.Add(key, e)
	c.logger.Debug().Str("key", key).Str("layer", "l2").Msg("Cache hit")
	return e.Value, nil
}

// Set stores value under key; ttl <= 0 falls back to the default TTL
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	e := entry{Value: value}
	if ttl > 0 {
		e.ExpiresAt = c.now().Add(ttl).UnixNano()
	}
	c.local.Add(key, e)

	if c.store == nil {
		return nil
	}
	raw, err := encode(e)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, key, raw, ttl)
}

// Delete removes key from both layers
func (c *Cache) Delete(ctx context.Context, key string) error {
	c.local.Remove(key)
	if c.store == nil {
		return nil
	}
	return c.store.Delete(ctx, key)
}

// Prune drops expired entries from the persistent layer
func (c *Cache) Prune(ctx context.Context) (int, error) {
	if c.store == nil {
		return 0, nil
	}
	return c.store.Prune(ctx, c.now())
}

// Close releases the persistent layer
func (c *Cache) Close() error {
	c.local.Purge()
	if c.store == nil {
		return nil
	}
	return c.store.Close()
}

// Remember returns the cached T for key or calls load and caches its result.
// Load errors are returned as-is and never cached.
func Remember[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var out T

	raw, err := c.Get(ctx, key)
	if err == nil {
		if err := msgpack.Unmarshal(raw, &out); err == nil {
			return out, nil
		}
		c.logger.Warn().Str("key", key).Msg("Dropping undecodable cache entry")
		_ = c.Delete(ctx, key)
	} else if !errors.Is(err, ErrMiss) {
		c.logger.Warn().Err(err).Str("key", key).Msg("Cache read failed")
	}

	out, err = load(ctx)
	if err != nil {
		return out, err
	}

	raw, err = msgpack.Marshal(out)
	if err != nil {
		return out, fmt.Errorf("could not encode cache value: %w", err)
	}
	if err := c.Set(ctx, key, raw, ttl); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
	return out, nil
}

func encode(e entry) ([]byte, error) {
	raw, err := msgpack.Marshal(e)
	if err != nil {
		return nil, err
	}
	w := &bytes.Buffer{}
	zw := lz4.NewWriter(w)
	if _, err := zw.Write(raw); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func decode(in []byte) (entry, error) {
	var e entry
	raw, err := io.ReadAll(lz4.NewReader(bytes.NewReader(in)))
	if err != nil {
		return e, fmt.Errorf("could not decompress cache entry: %w", err)
	}
	if err := msgpack.Unmarshal(raw, &e); err != nil {
		return e, fmt.Errorf("could not decode cache entry: %w", err)
	}
	return e, nil
}
