package domain

import "time"

// Review is a single customer review of a product. The rating it carries is
// also recorded as a vote in the product's punctuation buckets.
type Review struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"product_id"`
	Name        string    `json:"name"`
	Avatar      string    `json:"avatar,omitempty"`
	Description string    `json:"description"`
	Rating      int       `json:"rating"`
	CreatedAt   time.Time `json:"created_at"`
}
