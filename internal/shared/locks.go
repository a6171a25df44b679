package shared

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// OrderLockKey builds redis keys for order transition critical sections.
func OrderLockKey(orderID string) string {
	return fmt.Sprintf("orders:%s:lock", orderID)
}

// Lock is a best-effort redis mutex. It serialises status transitions on a
// single order across admin sessions; it is not a cross-document transaction.
type Lock struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLock constructs a Lock helper.
func NewLock(client *redis.Client, ttl time.Duration) *Lock {
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	return &Lock{client: client, ttl: ttl}
}

// ErrLockHeld indicates the key is already locked.
var ErrLockHeld = fmt.Errorf("lock already held")

// Acquire takes the lock or returns ErrLockHeld.
func (l *Lock) Acquire(ctx context.Context, key string) error {
	if l == nil || l.client == nil {
		return nil
	}
	ok, err := l.client.SetNX(ctx, key, "1", l.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrLockHeld
	}
	return nil
}

// Release frees the lock.
func (l *Lock) Release(ctx context.Context, key string) error {
	if l == nil || l.client == nil {
		return nil
	}
	return l.client.Del(ctx, key).Err()
}
