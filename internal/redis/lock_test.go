package redisclient

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T) (Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisBookingLocker(client, 5*time.Second), mr
}

func TestWithBookingLockRunsCallback(t *testing.T) {
	locker, _ := newTestLocker(t)

	called := false
	err := locker.WithBookingLock(context.Background(), uuid.New(), time.Now(), func(ctx context.Context) error {
		called = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, called)
}

func TestWithBookingLockReleasesKey(t *testing.T) {
	locker, mr := newTestLocker(t)

	doctorID := uuid.New()
	at := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	err := locker.WithBookingLock(context.Background(), doctorID, at, func(ctx context.Context) error {
		return nil
	})
	require.NoError(t, err)

	// Lock must be free again for the same doctor/instant.
	err = locker.WithBookingLock(context.Background(), doctorID, at, func(ctx context.Context) error {
		return nil
	})
	require.NoError(t, err)
	assert.Empty(t, mr.Keys())
}

func TestWithBookingLockContention(t *testing.T) {
	locker, _ := newTestLocker(t)

	doctorID := uuid.New()
	at := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	err := locker.WithBookingLock(context.Background(), doctorID, at, func(ctx context.Context) error {
		// Re-entry for the same key while held must fail.
		inner := locker.WithBookingLock(ctx, doctorID, at, func(ctx context.Context) error {
			return nil
		})
		assert.ErrorIs(t, inner, ErrLockNotAcquired)
		return nil
	})
	require.NoError(t, err)
}

func TestWithBookingLockDistinctInstantsDoNotContend(t *testing.T) {
	locker, _ := newTestLocker(t)

	doctorID := uuid.New()
	at := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	err := locker.WithBookingLock(context.Background(), doctorID, at, func(ctx context.Context) error {
		return locker.WithBookingLock(ctx, doctorID, at.Add(30*time.Minute), func(ctx context.Context) error {
			return nil
		})
	})
	require.NoError(t, err)
}
