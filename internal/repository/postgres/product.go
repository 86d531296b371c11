package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/velvetshop/storefront/internal/domain"
	"github.com/velvetshop/storefront/pkg/database"
	apperrors "github.com/velvetshop/storefront/pkg/errors"
)

// ProductRatingRepository implements repository.ProductRatingRepository using
// PostgreSQL. The vote buckets live in a punctuation JSONB column on the
// products row; the summary is recomputed in full and written back whole, so
// the stored average can never drift from its buckets.
type ProductRatingRepository struct {
	pool database.DBTX
}

// NewProductRatingRepository creates a new PostgreSQL-backed rating repository.
func NewProductRatingRepository(pool database.DBTX) *ProductRatingRepository {
	return &ProductRatingRepository{pool: pool}
}

// Exists reports whether a product row is present.
func (r *ProductRatingRepository) Exists(ctx context.Context, productID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, productID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check product exists: %w", err)
	}
	return exists, nil
}

// GetPunctuation retrieves the stored rating summary for a product.
func (r *ProductRatingRepository) GetPunctuation(ctx context.Context, productID string) (domain.Punctuation, error) {
	query := `SELECT punctuation FROM products WHERE id = $1`

	var raw []byte
	if err := r.pool.QueryRow(ctx, query, productID).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Punctuation{}, apperrors.NotFound("product", productID)
		}
		return domain.Punctuation{}, fmt.Errorf("get punctuation: %w", err)
	}

	if len(raw) == 0 {
		return domain.Summarize(nil), nil
	}

	var p domain.Punctuation
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.Punctuation{}, fmt.Errorf("unmarshal punctuation: %w", err)
	}

	// Re-derive from the buckets so a hand-edited document cannot serve a
	// stale average.
	return domain.Summarize(p.Votes), nil
}

// UpdatePunctuation replaces the stored rating summary for a product.
func (r *ProductRatingRepository) UpdatePunctuation(ctx context.Context, productID string, p domain.Punctuation) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal punctuation: %w", err)
	}

	query := `UPDATE products SET punctuation = $1, updated_at = NOW() WHERE id = $2`

	tag, err := r.pool.Exec(ctx, query, raw, productID)
	if err != nil {
		return fmt.Errorf("update punctuation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("product", productID)
	}

	return nil
}
