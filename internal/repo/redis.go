package repo

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

type Redis struct{ C *redis.Client }

func NewRedis(addr string) *Redis {
	return &Redis{C: redis.NewClient(&redis.Options{Addr: addr})}
}

func (r *Redis) Ping(ctx context.Context) error { return r.C.Ping(ctx).Err() }
func (r *Redis) Close() error                   { return r.C.Close() }

// Hit increments the counter at key and returns its new value. The key
// expires window after its first hit, giving a fixed-window counter.
func (r *Redis) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	n, err := r.C.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := r.C.Expire(ctx, key, window).Err(); err != nil {
			return 0, err
		}
	}
	return n, nil
}
