package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/coursehub/wishlist/pkg/kafka"
	"github.com/coursehub/wishlist/pkg/logger"
)

// Kafka topic for wishlist badge updates.
const TopicWishlistCountUpdated = "coursehub.wishlist.count_updated"

const (
	AggregateTypeWishlist = "wishlist"
	SourceWishlistService = "wishlist-service"
)

// CountUpdatedData is the payload of a wishlist.count_updated event.
type CountUpdatedData struct {
	UserID string `json:"user_id"`
	Count  int    `json:"count"`
}

// Publisher is satisfied by *pkgkafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes wishlist domain events.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates an event producer for the wishlist service.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishCountUpdated announces the new wishlist size of userID.
func (p *Producer) PublishCountUpdated(ctx context.Context, userID string, count int) error {
	data := CountUpdatedData{UserID: userID, Count: count}

	event, err := pkgkafka.NewEvent(TopicWishlistCountUpdated, userID, AggregateTypeWishlist, SourceWishlistService, data)
	if err != nil {
		return fmt.Errorf("create wishlist.count_updated event: %w", err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event = event.WithCorrelationID(id)
	}
	event = event.WithTraceContext(ctx)

	if err := p.kafka.Publish(ctx, TopicWishlistCountUpdated, event); err != nil {
		return fmt.Errorf("publish wishlist.count_updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published wishlist.count_updated event",
		slog.String("user_id", userID),
		slog.Int("count", count),
	)

	return nil
}
