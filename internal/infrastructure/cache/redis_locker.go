package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/provisioner/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds the caller's token,
// so an expired lease never releases a lock taken over by someone else.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements Locker using Redis SET NX PX.
// It is suitable for deployments where several instances apply templates.
type RedisLocker struct {
	client    redis.UniversalClient
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisLocker connects to Redis and creates a locker
func NewRedisLocker(cfg RedisConfig) (*RedisLocker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisLockerWithClient(client, ""), nil
}

// NewRedisLockerWithClient creates a locker on an existing client.
// keyPrefix is prepended to every lock key.
func NewRedisLockerWithClient(client redis.UniversalClient, keyPrefix string) *RedisLocker {
	return &RedisLocker{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// TryLock takes the lock if nobody holds it. It returns shared.ErrLockHeld
// when the key is taken.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (shared.Lease, error) {
	token := uuid.NewString()
	fullKey := l.keyPrefix + key

	ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, shared.ErrLockHeld
	}
	return &redisLease{client: l.client, key: fullKey, token: token}, nil
}

// Close closes the Redis client
func (l *RedisLocker) Close() error {
	return l.client.Close()
}

type redisLease struct {
	client redis.UniversalClient
	key    string
	token  string
}

// Release drops the lock if this lease still owns it
func (l *redisLease) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err(); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.key, err)
	}
	return nil
}

// Ensure RedisLocker implements Locker
var _ shared.Locker = (*RedisLocker)(nil)
