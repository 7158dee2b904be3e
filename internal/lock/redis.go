package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	goredislib "github.com/redis/go-redis/v9"
)

// Redis - распределённые блокировки для нескольких экземпляров сервиса.
type Redis struct {
	rs     *redsync.Redsync
	prefix string
	ttl    time.Duration
}

func NewRedis(client *goredislib.Client, prefix string, ttl time.Duration) *Redis {
	pool := goredis.NewPool(client)
	return &Redis{rs: redsync.New(pool), prefix: prefix, ttl: ttl}
}

func (r *Redis) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = normalize(keys)
	held := make([]*redsync.Mutex, 0, len(keys))

	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			// Истёкший TTL тоже освобождает ключ, поэтому ошибка здесь не фатальна.
			_, _ = held[i].UnlockContext(context.Background())
		}
	}

	for _, key := range keys {
		m := r.rs.NewMutex(r.prefix+key,
			redsync.WithExpiry(r.ttl),
			redsync.WithTries(32),
			redsync.WithRetryDelay(50*time.Millisecond),
		)
		if err := m.LockContext(ctx); err != nil {
			release()
			return nil, fmt.Errorf("lock %s: %w", key, err)
		}
		held = append(held, m)
	}
	return release, nil
}
