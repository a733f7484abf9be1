package repository

import (
	"context"

	"github.com/coursehub/wishlist/internal/domain"
)

// WishlistRepository persists the ordered course id list of each user.
type WishlistRepository interface {
	// IDs returns the stored ids. A missing list is an empty list.
	IDs(ctx context.Context, userID string) (domain.WishlistIDs, error)

	// Save overwrites the stored list.
	Save(ctx context.Context, userID string, ids domain.WishlistIDs) error
}

// CounterRepository holds the shared wishlist badge count of each user.
type CounterRepository interface {
	SetCount(ctx context.Context, userID string, n int) error

	// Count returns 0 when nothing has been published yet.
	Count(ctx context.Context, userID string) (int, error)
}
