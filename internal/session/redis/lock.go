package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const lockPrefix = "ticketly:lock:"

// DefaultLockTTL bounds how long a crashed terminal can hold a lock.
const DefaultLockTTL = 2 * time.Minute

// ErrLocked is returned when another terminal holds the lock.
var ErrLocked = errors.New("lock held by another terminal")

// Locker guards work that must not run twice for terminals sharing a
// Redis session, such as submitting the same purchase from two shells.
type Locker struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewLocker(client *redis.Client) *Locker {
	return &Locker{Client: client, TTL: DefaultLockTTL}
}

func LockKey(profile, name string) string {
	return lockPrefix + profile + ":" + name
}

// Acquire takes key for owner, failing with ErrLocked if someone else has it.
func (l *Locker) Acquire(ctx context.Context, key, owner string) error {
	ok, err := l.Client.SetNX(ctx, key, owner, l.TTL).Result()
	if err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return ErrLocked
	}
	return nil
}

// Release drops key if owner still holds it. An expired or foreign lock is
// left alone.
func (l *Locker) Release(ctx context.Context, key, owner string) error {
	val, err := l.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read lock %s: %w", key, err)
	}
	if val != owner {
		return nil
	}
	return l.Client.Del(ctx, key).Err()
}
