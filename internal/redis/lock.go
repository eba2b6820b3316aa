package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	apperrors "github.com/hackgods/clinic-scheduling/pkg/errors"
)

const lockPrefix = "lock:"

// retryInterval is how often a busy lock is polled while waiting.
const retryInterval = 25 * time.Millisecond

// ErrLockNotAcquired is returned when the key stayed busy for the whole wait.
var ErrLockNotAcquired = apperrors.Derive(apperrors.ErrStoreUnavailable, "booking lock busy, retry later")

// BookingLocker is a distributed mutex over Redis SET NX. Each holder writes a
// random token so only the holder can release the key, and the ttl bounds how
// long a crashed holder can keep it.
type BookingLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
}

func NewBookingLocker(client *redis.Client, ttl, wait time.Duration) *BookingLocker {
	return &BookingLocker{
		client: client,
		ttl:    ttl,
		wait:   wait,
	}
}

// WithLock runs fn while holding key. fn gets a context bounded by the lock
// ttl so it cannot outlive its ownership of the key.
func (l *BookingLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	key = lockPrefix + key
	token := uuid.NewString()

	if err := l.acquire(ctx, key, token); err != nil {
		return err
	}

	defer func() {
		// The caller's ctx may already be cancelled; the key must still go.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		_ = l.release(releaseCtx, key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

func (l *BookingLocker) acquire(ctx context.Context, key, token string) error {
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrStoreUnavailable, fmt.Sprintf("acquire lock %s", key))
		}
		if ok {
			return nil
		}
		if !time.Now().Before(deadline) {
			return ErrLockNotAcquired
		}

		select {
		case <-ctx.Done():
			return apperrors.Wrap(ctx.Err(), apperrors.ErrStoreUnavailable, fmt.Sprintf("acquire lock %s", key))
		case <-time.After(retryInterval):
		}
	}
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *BookingLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release lock %s: %w", key, err)
	}
	return nil
}
