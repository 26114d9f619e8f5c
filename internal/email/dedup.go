package email

import (
	"context"

	"github.com/ariefcatur/go-realtime-reservations/internal/redisx"
	"github.com/redis/go-redis/v9"
)

// Deduper claims a notification id before it is sent. Claim reports false
// when the id was already claimed.
type Deduper interface {
	Claim(ctx context.Context, id string) (bool, error)
	Release(ctx context.Context, id string) error
}

type RedisDeduper struct {
	RDB redis.UniversalClient
}

func (d RedisDeduper) Claim(ctx context.Context, id string) (bool, error) {
	return redisx.Claim(ctx, d.RDB, redisx.EmailSentKey(id), redisx.TTLEmailSent)
}

func (d RedisDeduper) Release(ctx context.Context, id string) error {
	return redisx.Release(ctx, d.RDB, redisx.EmailSentKey(id))
}
