package repository

import (
	"context"

	"github.com/velvetshop/storefront/internal/domain"
)

// ProductRatingRepository defines persistence for the per-product vote
// buckets and their derived summary.
type ProductRatingRepository interface {
	// Exists reports whether the product is known.
	Exists(ctx context.Context, productID string) (bool, error)

	// GetPunctuation retrieves the stored rating summary for a product.
	GetPunctuation(ctx context.Context, productID string) (domain.Punctuation, error)

	// UpdatePunctuation replaces the stored rating summary for a product.
	UpdatePunctuation(ctx context.Context, productID string, p domain.Punctuation) error
}

// ReviewRepository defines the interface for review persistence operations.
type ReviewRepository interface {
	// Create inserts a new review.
	Create(ctx context.Context, review *domain.Review) error

	// ListByProductID returns paginated reviews for a product along with the
	// total count.
	ListByProductID(ctx context.Context, productID string, page, perPage int) ([]domain.Review, int, error)
}
