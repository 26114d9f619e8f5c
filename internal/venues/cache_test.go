package venues

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ariefcatur/go-realtime-reservations/internal/reservations"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingDirectory struct {
	calls atomic.Int32
	inner Directory
}

func (c *countingDirectory) Get(ctx context.Context, id string) (reservations.Venue, error) {
	c.calls.Add(1)
	return c.inner.Get(ctx, id)
}

// Redis is unreachable here: the cache must degrade to the upstream directory.
func TestCacheFallsThroughWhenRedisIsDown(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	upstream := &countingDirectory{inner: NewStatic(reservations.Venue{ID: "v1", Name: "Blue Door"})}
	c := NewCache(upstream, rdb, zap.NewNop())

	v, err := c.Get(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, "Blue Door", v.Name)
	assert.Equal(t, int32(1), upstream.calls.Load())

	_, err = c.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, reservations.ErrVenueNotFound)
}

func TestCacheInvalidateReportsRedisErrors(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer rdb.Close()
	c := NewCache(NewStatic(), rdb, nil)
	assert.Error(t, c.Invalidate(context.Background(), "v1"))
}

func TestCacheInvalidateDropsStaleEntry(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()
	ctx := context.Background()

	id := "cache-test-" + t.Name()
	upstream := NewStatic(reservations.Venue{ID: id, Name: "Before"})
	c := NewCache(upstream, rdb, zap.NewNop())
	t.Cleanup(func() { _ = c.Invalidate(context.Background(), id) })

	v, err := c.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Before", v.Name)

	upstream.Replace([]reservations.Venue{{ID: id, Name: "After"}})
	v, err = c.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Before", v.Name, "served from redis")

	require.NoError(t, c.Invalidate(ctx, id))
	v, err = c.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "After", v.Name)
}
