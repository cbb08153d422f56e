package userlock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/2beens/fitcoach/internal/telemetry/tracing"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrNotAcquired = errors.New("user lock not acquired")
	ErrLockLost    = errors.New("user lock expired or taken over")
)

const (
	defaultRetryInterval = 100 * time.Millisecond
	keyPrefix            = "fitcoach:lock:user"
)

// deletes the key only when it still holds our token
const releaseScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// extends the expiry only when the key still holds our token
const extendScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`

// Unlock releases a held lock.
type Unlock func(ctx context.Context) error

// RedisLocker is a per-user mutex shared by every instance using the same redis.
// A held lock is extended every RenewInterval until released, so the TTL only
// bounds how long a crashed holder blocks others. A RenewInterval <= 0 turns
// renewal off.
type RedisLocker struct {
	rdb           *redis.Client
	ttl           time.Duration
	RetryInterval time.Duration
	RenewInterval time.Duration
	NewToken      func() string
}

func NewRedisLocker(rdb *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		rdb:           rdb,
		ttl:           ttl,
		RetryInterval: defaultRetryInterval,
		RenewInterval: ttl / 3,
		NewToken:      uuid.NewString,
	}
}

func Key(userID int64) string {
	return fmt.Sprintf("%s:%d", keyPrefix, userID)
}

// Lock blocks until the user's lock is acquired or ctx is done. The lock
// expires one TTL after its holder stops extending it.
func (l *RedisLocker) Lock(ctx context.Context, userID int64) (_ Unlock, err error) {
	ctx, span := tracing.GlobalLearningTracer.Start(ctx, "userlock.redis.lock")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("user_id", userID))

	key := Key(userID)
	token := l.NewToken()

	attempts := 0
	for {
		attempts++
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis setnx [%s]: %w", key, err)
		}
		if ok {
			span.SetAttributes(attribute.Int("attempts", attempts))
			stopRenewal := l.keepAlive(key, token)
			var once sync.Once
			return func(ctx context.Context) error {
				once.Do(stopRenewal)
				return l.release(ctx, key, token)
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w [%s]: %s", ErrNotAcquired, key, ctx.Err())
		case <-time.After(l.RetryInterval):
		}
	}
}

// keepAlive extends the lock in the background until the returned stop
// func is called or the lock is found lost. stop waits for the renewal
// goroutine to exit.
func (l *RedisLocker) keepAlive(key, token string) (stop func()) {
	if l.RenewInterval <= 0 {
		return func() {}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(l.RenewInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			extended, err := l.rdb.Eval(ctx, extendScript, []string{key}, token, l.ttl.Milliseconds()).Int64()
			switch {
			case ctx.Err() != nil:
				return
			case err != nil:
				// try again on the next tick, the lock is still valid for a while
				log.Warnf("userlock: extend [%s]: %s", key, err)
			case extended == 0:
				log.Warnf("userlock: stop extending [%s]: %s", key, ErrLockLost)
				return
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

func (l *RedisLocker) release(ctx context.Context, key, token string) error {
	deleted, err := l.rdb.Eval(ctx, releaseScript, []string{key}, token).Int64()
	if err != nil {
		return fmt.Errorf("redis release [%s]: %w", key, err)
	}
	if deleted == 0 {
		return fmt.Errorf("%w [%s]", ErrLockLost, key)
	}
	return nil
}

// LocalLocker serializes work per user within a single process.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[int64]chan struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{
		locks: make(map[int64]chan struct{}),
	}
}

func (l *LocalLocker) Lock(ctx context.Context, userID int64) (Unlock, error) {
	l.mu.Lock()
	ch, ok := l.locks[userID]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[userID] = ch
	}
	l.mu.Unlock()

	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w [user %d]: %s", ErrNotAcquired, userID, ctx.Err())
	}

	var once sync.Once
	return func(context.Context) error {
		released := false
		once.Do(func() {
			<-ch
			released = true
		})
		if !released {
			return fmt.Errorf("%w [user %d]: already released", ErrLockLost, userID)
		}
		return nil
	}, nil
}
