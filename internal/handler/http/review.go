package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/velvetshop/storefront/internal/service"
	"github.com/velvetshop/storefront/pkg/pagination"
	"github.com/velvetshop/storefront/pkg/validator"
)

// ReviewHandler handles HTTP requests for rating and review endpoints.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// RecordVoteRequest is the JSON request body for voting on a product.
type RecordVoteRequest struct {
	Value int `json:"value" validate:"required,gte=1,lte=5"`
}

// CreateReviewRequest is the JSON request body for creating a review.
type CreateReviewRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Avatar      string `json:"avatar"`
	Description string `json:"description" validate:"required,max=2000"`
	Rating      int    `json:"rating" validate:"required,gte=1,lte=5"`
}

// --- Handlers ---

// GetPunctuation handles GET /api/v1/products/{productID}/punctuation
func (h *ReviewHandler) GetPunctuation(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	summary, err := h.service.GetPunctuation(r.Context(), productID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: summary})
}

// RecordVote handles POST /api/v1/products/{productID}/votes
func (h *ReviewHandler) RecordVote(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	var req RecordVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	summary, err := h.service.RecordVote(r.Context(), productID, req.Value)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: summary})
}

// ListReviews handles GET /api/v1/products/{productID}/reviews
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	params := pagination.FromRequest(r)

	result, err := h.service.ListReviews(r.Context(), productID, params.Page, params.PerPage)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: result})
}

// CreateReview handles POST /api/v1/products/{productID}/reviews
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	var req CreateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	review, err := h.service.CreateReview(r.Context(), &service.CreateReviewInput{
		ProductID:   productID,
		Name:        req.Name,
		Avatar:      req.Avatar,
		Description: req.Description,
		Rating:      req.Rating,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, response{Data: review})
}
