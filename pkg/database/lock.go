package database

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var ErrLockTimeout = errors.New("timed out waiting for lock")

// RedisLocker provides mutual exclusion scoped to a string key, backed
// by SET NX PX. Grant and revoke operations on the same (user, course)
// pair serialize through it so at most one unlocked access record can be
// produced by racing webhooks and admin actions, across all instances.
type RedisLocker struct {
	Client *redis.Client
	TTL    time.Duration
	Wait   time.Duration
	Retry  time.Duration
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{
		Client: client,
		TTL:    5 * time.Second,
		Wait:   3 * time.Second,
		Retry:  50 * time.Millisecond,
	}
}

// WithLock runs fn while holding the key. The lock token guards against
// releasing a lock that expired and was re-acquired by someone else.
func (l *RedisLocker) WithLock(ctx context.Context, key string, fn func() error) error {
	token := uuid.New().String()
	deadline := time.Now().Add(l.Wait)

	for {
		ok, err := l.Client.SetNX(ctx, key, token, l.TTL).Result()
		if err != nil {
			return err
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.Retry):
		}
	}

	defer func() {
		// Delete only if we still own the lock.
		const release = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`
		l.Client.Eval(ctx, release, []string{key}, token)
	}()

	return fn()
}
