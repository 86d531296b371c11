package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/velvetshop/storefront/internal/domain"
	pkgkafka "github.com/velvetshop/storefront/pkg/kafka"
)

// Kafka topic constants for storefront domain events.
const (
	TopicCartUpdated   = "storefront.cart.updated"
	TopicCartCleared   = "storefront.cart.cleared"
	TopicProductRated  = "storefront.product.rated"
	TopicReviewCreated = "storefront.review.created"
)

// Aggregate type constants.
const (
	AggregateTypeCart    = "cart"
	AggregateTypeProduct = "product"
)

// Source identifier for events originating from this service.
const SourceStorefront = "storefront"

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	SessionID   string            `json:"session_id"`
	Items       []domain.LineItem `json:"items"`
	ItemCount   int               `json:"item_count"`
	TotalAmount int64             `json:"total_amount"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	SessionID string `json:"session_id"`
}

// ProductRatedData is the payload for a product.rated event.
type ProductRatedData struct {
	ProductID     string  `json:"product_id"`
	Value         int     `json:"value"`
	Average       float64 `json:"average"`
	CountOpinions int     `json:"count_opinions"`
}

// ReviewCreatedData is the payload for a review.created event.
type ReviewCreatedData struct {
	ReviewID  string `json:"review_id"`
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Rating    int    `json:"rating"`
}

// Producer publishes storefront domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishCartUpdated publishes a cart.updated event with the full snapshot.
func (p *Producer) PublishCartUpdated(ctx context.Context, sessionID string, state domain.CartState) error {
	data := CartUpdatedData{
		SessionID:   sessionID,
		Items:       state.Items,
		ItemCount:   state.ItemCount(),
		TotalAmount: state.TotalAmount(),
	}

	event, err := pkgkafka.NewEvent(TopicCartUpdated, sessionID, AggregateTypeCart, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create cart.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartUpdated, event); err != nil {
		return fmt.Errorf("publish cart.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.String("session_id", sessionID),
		slog.Int("item_count", state.ItemCount()),
	)

	return nil
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, sessionID string) error {
	data := CartClearedData{SessionID: sessionID}

	event, err := pkgkafka.NewEvent(TopicCartCleared, sessionID, AggregateTypeCart, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create cart.cleared event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartCleared, event); err != nil {
		return fmt.Errorf("publish cart.cleared event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.cleared event",
		slog.String("session_id", sessionID),
	)

	return nil
}

// PublishProductRated publishes a product.rated event with the fresh summary.
func (p *Producer) PublishProductRated(ctx context.Context, productID string, value int, summary domain.Punctuation) error {
	data := ProductRatedData{
		ProductID:     productID,
		Value:         value,
		Average:       summary.Average,
		CountOpinions: summary.CountOpinions,
	}

	event, err := pkgkafka.NewEvent(TopicProductRated, productID, AggregateTypeProduct, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create product.rated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicProductRated, event); err != nil {
		return fmt.Errorf("publish product.rated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published product.rated event",
		slog.String("product_id", productID),
		slog.Int("value", value),
	)

	return nil
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, review *domain.Review) error {
	data := ReviewCreatedData{
		ReviewID:  review.ID,
		ProductID: review.ProductID,
		Name:      review.Name,
		Rating:    review.Rating,
	}

	event, err := pkgkafka.NewEvent(TopicReviewCreated, review.ProductID, AggregateTypeProduct, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create review.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicReviewCreated, event); err != nil {
		return fmt.Errorf("publish review.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published review.created event",
		slog.String("review_id", review.ID),
		slog.String("product_id", review.ProductID),
	)

	return nil
}
