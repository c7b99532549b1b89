package cache

import (
	"context"
	"sync"
	"time"

	"github.com/erp/provisioner/internal/domain/shared"
)

type lockEntry struct {
	token     uint64
	expiresAt time.Time
}

// InMemoryLocker implements Locker with a map guarded by a mutex.
// Locks are only exclusive within one process.
type InMemoryLocker struct {
	mu      sync.Mutex
	locks   map[string]lockEntry
	nextTok uint64
	now     func() time.Time
}

// NewInMemoryLocker creates an empty in-memory locker
func NewInMemoryLocker() *InMemoryLocker {
	return &InMemoryLocker{
		locks: make(map[string]lockEntry),
		now:   time.Now,
	}
}

// TryLock takes the lock unless a live entry holds the key
func (l *InMemoryLocker) TryLock(_ context.Context, key string, ttl time.Duration) (shared.Lease, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, ok := l.locks[key]; ok && now.Before(e.expiresAt) {
		return nil, shared.ErrLockHeld
	}

	l.nextTok++
	l.locks[key] = lockEntry{token: l.nextTok, expiresAt: now.Add(ttl)}
	return &memoryLease{locker: l, key: key, token: l.nextTok}, nil
}

// Held reports whether key is locked right now (for testing/monitoring)
func (l *InMemoryLocker) Held(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.locks[key]
	return ok && l.now().Before(e.expiresAt)
}

func (l *InMemoryLocker) release(key string, token uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.locks[key]; ok && e.token == token {
		delete(l.locks, key)
	}
}

type memoryLease struct {
	locker *InMemoryLocker
	key    string
	token  uint64
}

func (l *memoryLease) Release(context.Context) error {
	l.locker.release(l.key, l.token)
	return nil
}

// Ensure InMemoryLocker implements Locker
var _ shared.Locker = (*InMemoryLocker)(nil)
