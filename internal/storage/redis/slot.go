package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/velvetshop/storefront/internal/storage"
)

// Slot implements storage.Slot on Redis. Values are written with a TTL so
// abandoned carts eventually expire.
type Slot struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSlot creates a Redis-backed slot.
func NewSlot(client *redis.Client, ttl time.Duration) *Slot {
	return &Slot{client: client, ttl: ttl}
}

// Read returns the value stored under key, or storage.ErrNotFound.
func (s *Slot) Read(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", storage.ErrNotFound
		}
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, nil
}

// Write stores the value under key, refreshing the TTL.
func (s *Slot) Write(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes the key. Deleting an absent key is not an error.
func (s *Slot) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
