package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/coursehub/wishlist/internal/repository"
)

// CountEvents announces badge changes to other services.
type CountEvents interface {
	PublishCountUpdated(ctx context.Context, userID string, count int) error
}

// CounterPublisher is the shared wishlist counter. The Redis cell is what
// other surfaces read; the Kafka event is a best-effort notification.
type CounterPublisher struct {
	repo   repository.CounterRepository
	events CountEvents
	logger *slog.Logger
}

// NewCounterPublisher creates a counter publisher.
func NewCounterPublisher(repo repository.CounterRepository, events CountEvents, logger *slog.Logger) *CounterPublisher {
	return &CounterPublisher{
		repo:   repo,
		events: events,
		logger: logger,
	}
}

// PublishCount stores n as the user's badge count and emits an event.
// Only the store write can fail the call.
func (c *CounterPublisher) PublishCount(ctx context.Context, userID string, n int) error {
	if err := c.repo.SetCount(ctx, userID, n); err != nil {
		return fmt.Errorf("set wishlist count: %w", err)
	}

	if err := c.events.PublishCountUpdated(ctx, userID, n); err != nil {
		c.logger.WarnContext(ctx, "failed to publish wishlist count event",
			slog.String("user_id", userID),
			slog.Int("count", n),
			slog.String("error", err.Error()),
		)
	}

	return nil
}

// Count returns the last published count for userID.
func (c *CounterPublisher) Count(ctx context.Context, userID string) (int, error) {
	n, err := c.repo.Count(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("get wishlist count: %w", err)
	}
	return n, nil
}
