package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/artpro/wealthtrack/pkg/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct {
	Date  string
	Close float64
}

func newLevelCache(t *testing.T, dir string) (*Cache, *LevelDB) {
	t.Helper()
	store, err := NewLevelDB(dir)
	require.NoError(t, err)
	c, err := New(4, store, 0, zerolog.Nop())
	require.NoError(t, err)
	return c, store
}

func TestRemember_LoadsOnce(t *testing.T) {
	ctx := context.Background()
	c, err := New(4, nil, 0, zerolog.Nop())
	require.NoError(t, err)

	calls := 0
	load := func(context.Context) ([]point, error) {
		calls++
		return []point{{Date: "2024-01-02", Close: 10.5}}, nil
	}

	first, err := Remember(ctx, c, "historical:AAPL", 0, load)
	require.NoError(t, err)
	second, err := Remember(ctx, c, "historical:AAPL", 0, load)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestRemember_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	c, err := New(4, nil, 0, zerolog.Nop())
	require.NoError(t, err)

	boom := errors.New("upstream down")
	_, err = Remember(ctx, c, "quote:X", 0, func(context.Context) (float64, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)

	v, err := Remember(ctx, c, "quote:X", 0, func(context.Context) (float64, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42.0, v)
}

func TestCache_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	c, _ := newLevelCache(t, dir)
	require.NoError(t, c.Set(ctx, "fx:usd:eur:2024-01-02", []byte("0.91"), 0))
	require.NoError(t, c.Close())

	reopened, _ := newLevelCache(t, dir)
	defer reopened.Close()

	v, err := reopened.Get(ctx, "fx:usd:eur:2024-01-02")
	require.NoError(t, err)
	assert.Equal(t, []byte("0.91"), v)
}

func TestCache_ExpiryAndPrune(t *testing.T) {
	ctx := context.Background()
	c, _ := newLevelCache(t, t.TempDir())
	defer c.Close()

	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return start }

	require.NoError(t, c.Set(ctx, "short", []byte("a"), time.Minute))
	require.NoError(t, c.Set(ctx, "forever", []byte("b"), 0))

	c.now = func() time.Time { return start.Add(2 * time.Minute) }

	_, err := c.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.Set(ctx, "short2", []byte("c"), time.Second))
	c.now = func() time.Time { return start.Add(10 * time.Minute) }

	removed, err := c.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	v, err := c.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), v)
}

func TestOpen_DefaultTTLExpiresEntries(t *testing.T) {
	ctx := context.Background()
	t.Setenv("CACHE_DRIVER", "leveldb")
	t.Setenv("CACHE_DIR", t.TempDir())
	t.Setenv("CACHE_TTL", "")

	c, err := Open(config.Load(), zerolog.Nop())
	require.NoError(t, err)
	defer c.Close()

	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return start }
	require.NoError(t, c.Set(ctx, "quote:AAPL", []byte("stale"), 0))

	c.now = func() time.Time { return start.Add(29 * time.Minute) }
	v, err := c.Get(ctx, "quote:AAPL")
	require.NoError(t, err)
	assert.Equal(t, []byte("stale"), v)

	c.now = func() time.Time { return start.Add(31 * time.Minute) }
	removed, err := c.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = c.Get(ctx, "quote:AAPL")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestCache_L2FillsL1(t *testing.T) {
	ctx := context.Background()
	c, store := newLevelCache(t, t.TempDir())
	defer c.Close()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	c.local.Purge()

	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
	assert.True(t, c.local.Contains("k"))

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestCache_MemoryOnlyPruneIsNoop(t *testing.T) {
	c, err := New(0, nil, time.Minute, zerolog.Nop())
	require.NoError(t, err)

	n, err := c.Prune(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, c.Close())
}
