package shared

import (
	"context"
	"time"
)

// Locker hands out short-lived exclusive leases identified by a key.
// TryLock never blocks: if another holder owns the key it returns ErrLockHeld.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (Lease, error)
}

// Lease is a held lock. Release is safe to call more than once.
type Lease interface {
	Release(ctx context.Context) error
}
