package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/coursehub/wishlist/internal/domain"
	"github.com/coursehub/wishlist/pkg/database"
)

const wishlistKeyPrefix = "wishlist:ids:"

// WishlistRepository implements repository.WishlistRepository on a Redis
// string holding a JSON array of ids. Keys never expire.
type WishlistRepository struct {
	client redis.Cmdable
}

// NewWishlistRepository creates a Redis-backed wishlist repository.
func NewWishlistRepository(client redis.Cmdable) *WishlistRepository {
	return &WishlistRepository{client: client}
}

// IDs reads the stored list. A missing key yields an empty list.
func (r *WishlistRepository) IDs(ctx context.Context, userID string) (_ domain.WishlistIDs, err error) {
	key := wishlistKeyPrefix + userID
	ctx, end := database.TraceCommand(ctx, "GET", key)
	defer func() { end(err) }()

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.WishlistIDs{}, nil
		}
		return nil, fmt.Errorf("redis get wishlist: %w", err)
	}

	var ids domain.WishlistIDs
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("unmarshal wishlist: %w", err)
	}
	if ids == nil {
		ids = domain.WishlistIDs{}
	}

	return ids, nil
}

// Save overwrites the stored list.
func (r *WishlistRepository) Save(ctx context.Context, userID string, ids domain.WishlistIDs) (err error) {
	if ids == nil {
		ids = domain.WishlistIDs{}
	}

	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshal wishlist: %w", err)
	}

	key := wishlistKeyPrefix + userID
	ctx, end := database.TraceCommand(ctx, "SET", key)
	defer func() { end(err) }()

	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set wishlist: %w", err)
	}

	return nil
}
