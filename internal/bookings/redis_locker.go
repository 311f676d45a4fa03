package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/angelmondragon/shareit-backend/pkg/errors"
	"github.com/angelmondragon/shareit-backend/pkg/instance"
	"github.com/angelmondragon/shareit-backend/pkg/redis"
	"github.com/google/uuid"
)

const (
	lockScope           = "booking_item"
	defaultLockTTL      = 10 * time.Second
	defaultLockWait     = 3 * time.Second
	defaultLockRetryGap = 25 * time.Millisecond
	releaseTimeout      = 2 * time.Second
)

// RedisLockerParams configures a RedisLocker. Zero durations fall back to defaults.
type RedisLockerParams struct {
	Store    redis.LockStore
	TTL      time.Duration
	Wait     time.Duration
	RetryGap time.Duration
}

// RedisLocker is a Locker shared across API instances, built on SETNX with a TTL
// and an owner token so a holder never releases a lock it lost to expiry.
type RedisLocker struct {
	store    redis.LockStore
	ttl      time.Duration
	wait     time.Duration
	retryGap time.Duration
}

// NewRedisLocker constructs a Redis-backed locker.
func NewRedisLocker(params RedisLockerParams) (*RedisLocker, error) {
	if params.Store == nil {
		return nil, errors.New("redis store required for booking locks")
	}
	l := &RedisLocker{
		store:    params.Store,
		ttl:      params.TTL,
		wait:     params.Wait,
		retryGap: params.RetryGap,
	}
	if l.ttl <= 0 {
		l.ttl = defaultLockTTL
	}
	if l.wait <= 0 {
		l.wait = defaultLockWait
	}
	if l.retryGap <= 0 {
		l.retryGap = defaultLockRetryGap
	}
	return l, nil
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := l.store.LockKey(lockScope, key)
	owner := instance.ID() + ":" + uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.store.SetNX(ctx, redisKey, owner, l.ttl)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire booking lock")
		}
		if ok {
			break
		}
		if !time.Now().Before(deadline) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "item is busy, retry shortly")
		}
		timer := time.NewTimer(l.retryGap)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		releaseCtx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		_ = l.release(releaseCtx, redisKey, owner)
	}, nil
}

// release frees the lock only if the owner value still matches.
func (l *RedisLocker) release(ctx context.Context, key, owner string) error {
	if _, err := l.store.ReleaseLock(ctx, key, owner); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}
