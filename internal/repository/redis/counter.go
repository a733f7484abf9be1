package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/coursehub/wishlist/pkg/database"
)

const counterKeyPrefix = "wishlist:count:"

// CounterRepository stores the badge count read by other surfaces.
type CounterRepository struct {
	client redis.Cmdable
}

// NewCounterRepository creates a Redis-backed counter cell.
func NewCounterRepository(client redis.Cmdable) *CounterRepository {
	return &CounterRepository{client: client}
}

// SetCount overwrites the count.
func (r *CounterRepository) SetCount(ctx context.Context, userID string, n int) (err error) {
	key := counterKeyPrefix + userID
	ctx, end := database.TraceCommand(ctx, "SET", key)
	defer func() { end(err) }()

	if err := r.client.Set(ctx, key, n, 0).Err(); err != nil {
		return fmt.Errorf("redis set wishlist count: %w", err)
	}
	return nil
}

// Count returns the last published count, 0 if none.
func (r *CounterRepository) Count(ctx context.Context, userID string) (_ int, err error) {
	key := counterKeyPrefix + userID
	ctx, end := database.TraceCommand(ctx, "GET", key)
	defer func() { end(err) }()

	n, err := r.client.Get(ctx, key).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis get wishlist count: %w", err)
	}
	return n, nil
}
