package http

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/velvetshop/storefront/internal/domain"
	"github.com/velvetshop/storefront/internal/service"
	apperrors "github.com/velvetshop/storefront/pkg/errors"
)

// ============================================================================
// Mock repositories
// ============================================================================

type mockRatingRepository struct {
	mock.Mock
}

func (m *mockRatingRepository) Exists(ctx context.Context, productID string) (bool, error) {
	args := m.Called(ctx, productID)
	return args.Bool(0), args.Error(1)
}

func (m *mockRatingRepository) GetPunctuation(ctx context.Context, productID string) (domain.Punctuation, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(domain.Punctuation), args.Error(1)
}

func (m *mockRatingRepository) UpdatePunctuation(ctx context.Context, productID string, p domain.Punctuation) error {
	args := m.Called(ctx, productID, p)
	return args.Error(0)
}

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepository) ListByProductID(ctx context.Context, productID string, page, perPage int) ([]domain.Review, int, error) {
	args := m.Called(ctx, productID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

// ============================================================================
// Test helpers
// ============================================================================

func setupReviewRouter(ratings *mockRatingRepository, reviews *mockReviewRepository) *chi.Mux {
	svc := service.NewReviewService(ratings, reviews, nil, testLogger())
	handler := NewReviewHandler(svc, testLogger())

	r := chi.NewRouter()
	r.Route("/api/v1/products/{productID}", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Get("/punctuation", handler.GetPunctuation)
		r.Post("/votes", handler.RecordVote)
		r.Get("/reviews", handler.ListReviews)
		r.Post("/reviews", handler.CreateReview)
	})
	return r
}

func ratedTwoFivesOneFour() domain.Punctuation {
	return domain.Summarize([]domain.VoteBucket{
		{Value: 5, Count: 2},
		{Value: 4, Count: 1},
	})
}

// ============================================================================
// Tests
// ============================================================================

func TestReviewHandler_GetPunctuation(t *testing.T) {
	ratings := new(mockRatingRepository)
	ratings.On("GetPunctuation", mock.Anything, "prod-1").Return(ratedTwoFivesOneFour(), nil)
	router := setupReviewRouter(ratings, new(mockReviewRepository))

	rec := doJSON(t, router, http.MethodGet, "/api/v1/products/prod-1/punctuation", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data domain.Punctuation `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 3, envelope.Data.CountOpinions)
	assert.InDelta(t, 14.0/3.0, envelope.Data.Average, 1e-9)
}

func TestReviewHandler_GetPunctuation_NotFound(t *testing.T) {
	ratings := new(mockRatingRepository)
	ratings.On("GetPunctuation", mock.Anything, "missing").
		Return(domain.Punctuation{}, apperrors.NotFound("product", "missing"))
	router := setupReviewRouter(ratings, new(mockReviewRepository))

	rec := doJSON(t, router, http.MethodGet, "/api/v1/products/missing/punctuation", "", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestReviewHandler_RecordVote(t *testing.T) {
	ratings := new(mockRatingRepository)
	ratings.On("GetPunctuation", mock.Anything, "prod-1").Return(domain.Summarize(nil), nil)
	ratings.On("UpdatePunctuation", mock.Anything, "prod-1", mock.Anything).Return(nil)
	router := setupReviewRouter(ratings, new(mockReviewRepository))

	rec := doJSON(t, router, http.MethodPost, "/api/v1/products/prod-1/votes", "",
		map[string]any{"value": 5})

	assert.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data domain.Punctuation `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 1, envelope.Data.CountOpinions)
	ratings.AssertExpectations(t)
}

func TestReviewHandler_RecordVote_OutOfRange(t *testing.T) {
	ratings := new(mockRatingRepository)
	router := setupReviewRouter(ratings, new(mockReviewRepository))

	rec := doJSON(t, router, http.MethodPost, "/api/v1/products/prod-1/votes", "",
		map[string]any{"value": 6})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	ratings.AssertNotCalled(t, "UpdatePunctuation", mock.Anything, mock.Anything, mock.Anything)
}

func TestReviewHandler_RecordVote_MissingValue(t *testing.T) {
	router := setupReviewRouter(new(mockRatingRepository), new(mockReviewRepository))

	rec := doJSON(t, router, http.MethodPost, "/api/v1/products/prod-1/votes", "",
		map[string]any{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestReviewHandler_ListReviews(t *testing.T) {
	ratings := new(mockRatingRepository)
	reviews := new(mockReviewRepository)
	list := []domain.Review{{ID: "review-1", ProductID: "prod-1", Name: "Ada", Rating: 5}}
	reviews.On("ListByProductID", mock.Anything, "prod-1", 2, 10).Return(list, 25, nil)
	ratings.On("GetPunctuation", mock.Anything, "prod-1").Return(ratedTwoFivesOneFour(), nil)
	router := setupReviewRouter(ratings, reviews)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/products/prod-1/reviews?page=2&per_page=10", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data service.ReviewListResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 25, envelope.Data.TotalCount)
	assert.Equal(t, 2, envelope.Data.Page)
	assert.Equal(t, 3, envelope.Data.TotalPages)
	require.Len(t, envelope.Data.Reviews, 1)
}

func TestReviewHandler_CreateReview(t *testing.T) {
	ratings := new(mockRatingRepository)
	reviews := new(mockReviewRepository)
	ratings.On("Exists", mock.Anything, "prod-1").Return(true, nil)
	reviews.On("Create", mock.Anything, mock.Anything).Return(nil)
	ratings.On("GetPunctuation", mock.Anything, "prod-1").Return(domain.Summarize(nil), nil)
	ratings.On("UpdatePunctuation", mock.Anything, "prod-1", mock.Anything).Return(nil)
	router := setupReviewRouter(ratings, reviews)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/products/prod-1/reviews", "", map[string]any{
		"name":        "Ada",
		"description": "Fits perfectly.",
		"rating":      5,
	})

	assert.Equal(t, http.StatusCreated, rec.Code)

	var envelope struct {
		Data domain.Review `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.NotEmpty(t, envelope.Data.ID)
	assert.Equal(t, "Ada", envelope.Data.Name)
	reviews.AssertExpectations(t)
}

func TestReviewHandler_CreateReview_ValidationError(t *testing.T) {
	router := setupReviewRouter(new(mockRatingRepository), new(mockReviewRepository))

	rec := doJSON(t, router, http.MethodPost, "/api/v1/products/prod-1/reviews", "", map[string]any{
		"name":   "Ada",
		"rating": 5,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestReviewHandler_CreateReview_UnknownProduct(t *testing.T) {
	ratings := new(mockRatingRepository)
	reviews := new(mockReviewRepository)
	ratings.On("Exists", mock.Anything, "missing").Return(false, nil)
	router := setupReviewRouter(ratings, reviews)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/products/missing/reviews", "", map[string]any{
		"name":        "Ada",
		"description": "Fits perfectly.",
		"rating":      5,
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	reviews.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
