package venues

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/ariefcatur/go-realtime-reservations/internal/redisx"
	"github.com/ariefcatur/go-realtime-reservations/internal/reservations"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Cache fronts a Directory with redis. Concurrent misses for the same venue
// share one upstream lookup. Redis failures fall through to the upstream.
type Cache struct {
	next  Directory
	rdb   redis.UniversalClient
	group singleflight.Group
	log   *zap.Logger
}

func NewCache(next Directory, rdb redis.UniversalClient, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{next: next, rdb: rdb, log: log}
}

func (c *Cache) Get(ctx context.Context, id string) (reservations.Venue, error) {
	key := redisx.VenueKey(id)
	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var v reservations.Venue
		if jerr := json.Unmarshal(raw, &v); jerr == nil {
			return v, nil
		}
		c.log.Warn("venue cache entry corrupt", zap.String("venue_id", id))
	case !errors.Is(err, redis.Nil):
		c.log.Warn("venue cache read failed", zap.String("venue_id", id), zap.Error(err))
	}

	res, err, _ := c.group.Do(id, func() (any, error) {
		v, err := c.next.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if b, err := json.Marshal(v); err == nil {
			if err := c.rdb.Set(ctx, key, b, redisx.TTLVenueCache).Err(); err != nil {
				c.log.Warn("venue cache write failed", zap.String("venue_id", id), zap.Error(err))
			}
		}
		return v, nil
	})
	if err != nil {
		return reservations.Venue{}, err
	}
	return res.(reservations.Venue), nil
}

// Invalidate drops the cached copy of a venue.
func (c *Cache) Invalidate(ctx context.Context, id string) error {
	return c.rdb.Del(ctx, redisx.VenueKey(id)).Err()
}
