package infra

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ErrLockNotObtained is returned when another holder owns the key.
var ErrLockNotObtained = errors.New("lock not obtained")

// Locker hands out short-lived Redis locks. A nil *Locker is valid and
// grants every request without touching Redis.
type Locker struct {
	client *redislock.Client
}

func NewLocker(rdb *redis.Client) *Locker {
	if rdb == nil {
		return nil
	}
	return &Locker{client: redislock.New(rdb)}
}

// Obtain acquires key for at most ttl. The returned release func is always
// non-nil and safe to call once.
func (l *Locker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	if l == nil || l.client == nil {
		return func(context.Context) error { return nil }, nil
	}
	lock, err := l.client.Obtain(ctx, "lock:"+key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrLockNotObtained
	}
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context) error {
		err := lock.Release(ctx)
		if errors.Is(err, redislock.ErrLockNotHeld) {
			return nil
		}
		return err
	}, nil
}
