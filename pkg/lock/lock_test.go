package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLockerSerializesSameKey(t *testing.T) {
	locker := NewLocalLocker(Options{WaitTimeout: 2 * time.Second})
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lease, err := locker.Acquire(ctx, ShowtimeKey("s1"))
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			assert.NoError(t, lease.Release(ctx))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Empty(t, locker.entries, "entries are dropped once unreferenced")
}

func TestLocalLockerTimesOutWithBusy(t *testing.T) {
	locker := NewLocalLocker(Options{WaitTimeout: 20 * time.Millisecond})
	ctx := context.Background()

	lease, err := locker.Acquire(ctx, "k")
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "k")
	assert.ErrorIs(t, err, ErrBusy)

	other, err := locker.Acquire(ctx, "other")
	require.NoError(t, err, "different keys never contend")
	require.NoError(t, other.Release(ctx))

	require.NoError(t, lease.Release(ctx))
	require.NoError(t, lease.Release(ctx), "double release is a no-op")

	again, err := locker.Acquire(ctx, "k")
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))
}

func TestLocalLockerHonoursContext(t *testing.T) {
	locker := NewLocalLocker(Options{WaitTimeout: time.Minute})
	lease, err := locker.Acquire(context.Background(), "k")
	require.NoError(t, err)
	defer lease.Release(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = locker.Acquire(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestZeroWaitTimeoutStillWaitsForHolder(t *testing.T) {
	locker := NewLocalLocker(Options{})
	assert.Equal(t, 3*time.Second, locker.opts.WaitTimeout)

	ctx := context.Background()
	lease, err := locker.Acquire(ctx, "k")
	require.NoError(t, err)
	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = lease.Release(ctx)
	}()

	next, err := locker.Acquire(ctx, "k")
	require.NoError(t, err)
	require.NoError(t, next.Release(ctx))

	assert.Equal(t, 3*time.Second, NewRedisLocker(nil, Options{}).opts.WaitTimeout)
}

func TestRedisLockerAcquireAndRelease(t *testing.T) {
	client, mock := redismock.NewClientMock()
	locker := NewRedisLocker(client, Options{TTL: 10 * time.Second})
	locker.newToken = func() (string, error) { return "tok-1", nil }

	key := ShowtimeKey("s1")
	mock.ExpectSetNX(key, "tok-1", 10*time.Second).SetVal(true)
	mock.ExpectEvalSha(releaseScript.Hash(), []string{key}, "tok-1").SetVal(int64(1))

	lease, err := locker.Acquire(context.Background(), key)
	require.NoError(t, err)
	require.NoError(t, lease.Release(context.Background()))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLockerBusyWhenHeld(t *testing.T) {
	client, mock := redismock.NewClientMock()
	locker := NewRedisLocker(client, Options{TTL: time.Second, WaitTimeout: 20 * time.Millisecond, RetryDelay: 50 * time.Millisecond})
	locker.newToken = func() (string, error) { return "tok-2", nil }

	mock.ExpectSetNX("k", "tok-2", time.Second).SetVal(false)
	mock.ExpectSetNX("k", "tok-2", time.Second).SetVal(false)

	_, err := locker.Acquire(context.Background(), "k")
	assert.ErrorIs(t, err, ErrBusy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLockerRetriesUntilFree(t *testing.T) {
	client, mock := redismock.NewClientMock()
	locker := NewRedisLocker(client, Options{TTL: time.Second, WaitTimeout: time.Second, RetryDelay: time.Millisecond})
	locker.newToken = func() (string, error) { return "tok-3", nil }

	mock.ExpectSetNX("k", "tok-3", time.Second).SetVal(false)
	mock.ExpectSetNX("k", "tok-3", time.Second).SetVal(true)

	_, err := locker.Acquire(context.Background(), "k")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLockerSurfacesRedisErrors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	locker := NewRedisLocker(client, Options{TTL: time.Second})
	locker.newToken = func() (string, error) { return "tok-4", nil }

	mock.ExpectSetNX("k", "tok-4", time.Second).SetErr(errors.New("connection refused"))

	_, err := locker.Acquire(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrBusy)
}
