//go:build integration_test || all_tests

package userlock_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/2beens/fitcoach/internal/userlock"
	testingpkg "github.com/2beens/fitcoach/pkg/testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLocker_RealRedis(t *testing.T) {
	ctx, rdb := testingpkg.GetRedisClientAndCtx(t)

	const userID = int64(90001)
	require.NoError(t, rdb.Del(ctx, userlock.Key(userID)).Err())

	first := userlock.NewRedisLocker(rdb, 2*time.Second)
	first.RetryInterval = 10 * time.Millisecond
	second := userlock.NewRedisLocker(rdb, 2*time.Second)
	second.RetryInterval = 10 * time.Millisecond

	unlock, err := first.Lock(ctx, userID)
	require.NoError(t, err)

	shortCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = second.Lock(shortCtx, userID)
	assert.True(t, errors.Is(err, userlock.ErrNotAcquired))

	require.NoError(t, unlock(ctx))
	assert.Equal(t, int64(0), rdb.Exists(ctx, userlock.Key(userID)).Val())

	unlockSecond, err := second.Lock(ctx, userID)
	require.NoError(t, err)
	require.NoError(t, unlockSecond(ctx))
}

func TestRedisLocker_RealRedisExpiry(t *testing.T) {
	ctx, rdb := testingpkg.GetRedisClientAndCtx(t)

	const userID = int64(90002)
	require.NoError(t, rdb.Del(ctx, userlock.Key(userID)).Err())

	locker := userlock.NewRedisLocker(rdb, 200*time.Millisecond)
	locker.RetryInterval = 10 * time.Millisecond
	// a holder that stopped extending, like a crashed process
	locker.RenewInterval = 0

	unlock, err := locker.Lock(ctx, userID)
	require.NoError(t, err)

	// the second acquisition waits out the ttl of the first
	unlockAgain, err := locker.Lock(ctx, userID)
	require.NoError(t, err)

	assert.ErrorIs(t, unlock(ctx), userlock.ErrLockLost)
	require.NoError(t, unlockAgain(ctx))
}

func TestRedisLocker_RealRedisRenewal(t *testing.T) {
	ctx, rdb := testingpkg.GetRedisClientAndCtx(t)

	const userID = int64(90003)
	require.NoError(t, rdb.Del(ctx, userlock.Key(userID)).Err())

	holder := userlock.NewRedisLocker(rdb, 200*time.Millisecond)
	other := userlock.NewRedisLocker(rdb, 200*time.Millisecond)
	other.RetryInterval = 10 * time.Millisecond

	unlock, err := holder.Lock(ctx, userID)
	require.NoError(t, err)

	// held for three ttls, still ours
	time.Sleep(600 * time.Millisecond)
	shortCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = other.Lock(shortCtx, userID)
	assert.ErrorIs(t, err, userlock.ErrNotAcquired)

	require.NoError(t, unlock(ctx))
	assert.Equal(t, int64(0), rdb.Exists(ctx, userlock.Key(userID)).Val())
}
