package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/velvetshop/storefront/internal/domain"
	"github.com/velvetshop/storefront/internal/event"
	"github.com/velvetshop/storefront/internal/repository"
	apperrors "github.com/velvetshop/storefront/pkg/errors"
)

// CreateReviewInput holds the parameters for creating a review.
type CreateReviewInput struct {
	ProductID   string `json:"-"`
	Name        string `json:"name" validate:"required,max=100"`
	Avatar      string `json:"avatar"`
	Description string `json:"description" validate:"required,max=2000"`
	Rating      int    `json:"rating" validate:"required,gte=1,lte=5"`
}

// ReviewListResult contains reviews and their aggregate summary.
type ReviewListResult struct {
	Reviews    []domain.Review    `json:"reviews"`
	Summary    domain.Punctuation `json:"summary"`
	TotalCount int                `json:"total_count"`
	Page       int                `json:"page"`
	PerPage    int                `json:"per_page"`
	TotalPages int                `json:"total_pages"`
}

// ReviewService implements the business logic for ratings and reviews.
type ReviewService struct {
	ratings  repository.ProductRatingRepository
	reviews  repository.ReviewRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(ratings repository.ProductRatingRepository, reviews repository.ReviewRepository, producer *event.Producer, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		ratings:  ratings,
		reviews:  reviews,
		producer: producer,
		logger:   logger,
	}
}

// GetPunctuation returns the aggregated rating summary of a product.
func (s *ReviewService) GetPunctuation(ctx context.Context, productID string) (domain.Punctuation, error) {
	if productID == "" {
		return domain.Punctuation{}, apperrors.InvalidInput("product id is required")
	}
	return s.ratings.GetPunctuation(ctx, productID)
}

// RecordVote adds one vote with the given star value to a product and
// persists the re-derived summary.
func (s *ReviewService) RecordVote(ctx context.Context, productID string, value int) (domain.Punctuation, error) {
	if productID == "" {
		return domain.Punctuation{}, apperrors.InvalidInput("product id is required")
	}

	current, err := s.ratings.GetPunctuation(ctx, productID)
	if err != nil {
		return domain.Punctuation{}, fmt.Errorf("load punctuation: %w", err)
	}

	updated, err := current.RecordVote(value, 1)
	if err != nil {
		return domain.Punctuation{}, err
	}

	if err := s.ratings.UpdatePunctuation(ctx, productID, updated); err != nil {
		return domain.Punctuation{}, fmt.Errorf("save punctuation: %w", err)
	}

	if s.producer != nil {
		if err := s.producer.PublishProductRated(ctx, productID, value, updated); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish product.rated event",
				slog.String("product_id", productID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "vote recorded",
		slog.String("product_id", productID),
		slog.Int("value", value),
		slog.Int("count_opinions", updated.CountOpinions),
	)

	return updated, nil
}

// CreateReview creates a product review and records its rating as a vote.
func (s *ReviewService) CreateReview(ctx context.Context, input *CreateReviewInput) (*domain.Review, error) {
	if input.ProductID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if input.Name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}
	if input.Description == "" {
		return nil, apperrors.InvalidInput("description is required")
	}
	if input.Rating < domain.MinStarValue || input.Rating > domain.MaxStarValue {
		return nil, apperrors.InvalidInput(fmt.Sprintf("rating must be between %d and %d", domain.MinStarValue, domain.MaxStarValue))
	}

	exists, err := s.ratings.Exists(ctx, input.ProductID)
	if err != nil {
		return nil, fmt.Errorf("check product: %w", err)
	}
	if !exists {
		return nil, apperrors.NotFound("product", input.ProductID)
	}

	review := &domain.Review{
		ID:          uuid.New().String(),
		ProductID:   input.ProductID,
		Name:        input.Name,
		Avatar:      input.Avatar,
		Description: input.Description,
		Rating:      input.Rating,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	// The review's rating counts as a vote. Failing to fold it in after the
	// review row landed is logged, not surfaced: the review itself exists.
	if _, err := s.RecordVote(ctx, input.ProductID, input.Rating); err != nil {
		s.logger.ErrorContext(ctx, "failed to record review vote",
			slog.String("review_id", review.ID),
			slog.String("product_id", input.ProductID),
			slog.String("error", err.Error()),
		)
	}

	if s.producer != nil {
		if err := s.producer.PublishReviewCreated(ctx, review); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish review.created event",
				slog.String("review_id", review.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "review created",
		slog.String("review_id", review.ID),
		slog.String("product_id", review.ProductID),
		slog.Int("rating", review.Rating),
	)

	return review, nil
}

// ListReviews returns paginated reviews for a product along with the summary.
func (s *ReviewService) ListReviews(ctx context.Context, productID string, page, perPage int) (*ReviewListResult, error) {
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}

	reviews, total, err := s.reviews.ListByProductID(ctx, productID, page, perPage)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	summary, err := s.ratings.GetPunctuation(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get punctuation: %w", err)
	}

	totalPages := total / perPage
	if total%perPage > 0 {
		totalPages++
	}

	return &ReviewListResult{
		Reviews:    reviews,
		Summary:    summary,
		TotalCount: total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
	}, nil
}
