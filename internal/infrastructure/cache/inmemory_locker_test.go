package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/erp/provisioner/internal/domain/shared"
	"github.com/erp/provisioner/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInMemoryLocker_TryLock(t *testing.T) {
	ctx := context.Background()

	t.Run("second holder is rejected", func(t *testing.T) {
		locker := NewInMemoryLocker()

		lease, err := locker.TryLock(ctx, "provisioning:apply:org:RETAIL", time.Minute)
		require.NoError(t, err)
		require.NotNil(t, lease)

		_, err = locker.TryLock(ctx, "provisioning:apply:org:RETAIL", time.Minute)
		assert.ErrorIs(t, err, shared.ErrLockHeld)

		other, err := locker.TryLock(ctx, "provisioning:apply:org:CAFE", time.Minute)
		require.NoError(t, err)
		assert.NoError(t, other.Release(ctx))
	})

	t.Run("release frees the key", func(t *testing.T) {
		locker := NewInMemoryLocker()

		lease, err := locker.TryLock(ctx, "k", time.Minute)
		require.NoError(t, err)
		require.NoError(t, lease.Release(ctx))
		assert.False(t, locker.Held("k"))

		again, err := locker.TryLock(ctx, "k", time.Minute)
		require.NoError(t, err)
		assert.True(t, locker.Held("k"))
		assert.NoError(t, again.Release(ctx))
	})

	t.Run("expired lock can be taken", func(t *testing.T) {
		locker := NewInMemoryLocker()
		now := time.Now()
		locker.now = func() time.Time { return now }

		stale, err := locker.TryLock(ctx, "k", time.Second)
		require.NoError(t, err)

		now = now.Add(2 * time.Second)
		fresh, err := locker.TryLock(ctx, "k", time.Second)
		require.NoError(t, err)

		// The stale lease must not release the new holder's lock.
		require.NoError(t, stale.Release(ctx))
		assert.True(t, locker.Held("k"))
		require.NoError(t, fresh.Release(ctx))
		assert.False(t, locker.Held("k"))
	})

	t.Run("release is idempotent", func(t *testing.T) {
		locker := NewInMemoryLocker()
		lease, err := locker.TryLock(ctx, "k", time.Minute)
		require.NoError(t, err)
		assert.NoError(t, lease.Release(ctx))
		assert.NoError(t, lease.Release(ctx))
	})
}

func TestInMemoryLocker_Concurrent(t *testing.T) {
	locker := NewInMemoryLocker()
	ctx := context.Background()

	var acquired atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := locker.TryLock(ctx, "shared", time.Minute); err == nil {
				acquired.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), acquired.Load())
}

func TestLockerFactory_CreateLocker(t *testing.T) {
	t.Run("uses in-memory locker when Redis is not configured", func(t *testing.T) {
		core, logs := observer.New(zap.InfoLevel)
		factory := NewLockerFactory(config.RedisConfig{}, WithLogger(zap.New(core)))

		locker, err := factory.CreateLocker()
		require.NoError(t, err)
		assert.IsType(t, &InMemoryLocker{}, locker)
		assert.Equal(t, 1, logs.FilterMessageSnippet("in-memory").Len())
	})

	t.Run("falls back when Redis is unreachable", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		factory := NewLockerFactory(
			config.RedisConfig{Host: "127.0.0.1", Port: 1},
			WithLogger(zap.New(core)),
		)

		locker, err := factory.CreateLocker()
		require.NoError(t, err)
		assert.IsType(t, &InMemoryLocker{}, locker)
		assert.Equal(t, 1, logs.Len())
	})

	t.Run("fails when fallback is disabled", func(t *testing.T) {
		factory := NewLockerFactory(
			config.RedisConfig{Host: "127.0.0.1", Port: 1},
			WithInMemoryFallback(false),
		)

		_, err := factory.CreateLocker()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Redis required")
	})
}
