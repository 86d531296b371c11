// Package main implements a standalone seed script that populates the
// storefront database with a catalog of demo products, each carrying a
// punctuation document and a handful of reviews.
//
// Run: go run scripts/seed_products.go
//   (from the repo root, or: cd scripts && go run seed_products.go)
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	totalProducts     = 200
	reviewsPerProduct = 4
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func dsn() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		getEnv("POSTGRES_USER", "storefront"),
		getEnv("POSTGRES_PASSWORD", "storefront_secret"),
		getEnv("POSTGRES_HOST", "localhost"),
		getEnv("POSTGRES_PORT", "5432"),
		getEnv("POSTGRES_DB_NAME", "storefront"),
		getEnv("POSTGRES_SSL_MODE", "disable"),
	)
}

// ---------------------------------------------------------------------------
// Catalog material
// ---------------------------------------------------------------------------

var productNames = []string{
	"Wool Sweater", "Linen Shirt", "Denim Jacket", "Cotton Tee",
	"Pleated Skirt", "Knit Cardigan", "Canvas Sneakers", "Leather Belt",
	"Silk Scarf", "Corduroy Trousers", "Puffer Vest", "Flannel Overshirt",
}

var reviewers = []struct {
	Name   string
	Avatar string
}{
	{"Ada", "/avatars/ada.png"},
	{"Marco", "/avatars/marco.png"},
	{"Yuki", "/avatars/yuki.png"},
	{"Priya", "/avatars/priya.png"},
	{"Tomas", "/avatars/tomas.png"},
}

var reviewTexts = []string{
	"Exactly as pictured, fits perfectly.",
	"Good quality for the price.",
	"Color is slightly different in person, still happy with it.",
	"Ordered a size up and it worked out great.",
	"Fabric feels durable, would buy again.",
}

type voteBucket struct {
	Value int `json:"value"`
	Count int `json:"count"`
}

type punctuation struct {
	Average       float64      `json:"punctuation"`
	CountOpinions int          `json:"count_opinions"`
	Votes         []voteBucket `json:"votes"`
}

// randomPunctuation builds a consistent punctuation document from random
// vote buckets, the average derived from the buckets themselves.
func randomPunctuation(rng *rand.Rand) punctuation {
	var votes []voteBucket
	var opinions, weighted int
	for value := 1; value <= 5; value++ {
		count := rng.Intn(20)
		if value >= 4 {
			count += rng.Intn(30) // skew toward happy customers
		}
		if count == 0 {
			continue
		}
		votes = append(votes, voteBucket{Value: value, Count: count})
		opinions += count
		weighted += value * count
	}
	p := punctuation{Votes: votes, CountOpinions: opinions}
	if opinions > 0 {
		p.Average = float64(weighted) / float64(opinions)
	}
	return p
}

// ---------------------------------------------------------------------------
// Seeding
// ---------------------------------------------------------------------------

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn())
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("ping: %v", err)
	}

	rng := rand.New(rand.NewSource(42)) // stable catalog across re-runs
	start := time.Now()

	for i := 1; i <= totalProducts; i++ {
		productID := fmt.Sprintf("seed-prod-%04d", i)
		name := fmt.Sprintf("%s %d", productNames[rng.Intn(len(productNames))], i)
		price := int64(1500 + rng.Intn(20000))
		p := randomPunctuation(rng)

		punctuationJSON, err := json.Marshal(p)
		if err != nil {
			log.Fatalf("marshal punctuation for %s: %v", productID, err)
		}

		_, err = pool.Exec(ctx, `
			INSERT INTO products (id, name, description, price, thumbnail, punctuation)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET punctuation = EXCLUDED.punctuation`,
			productID, name, "Seeded demo product.", price,
			fmt.Sprintf("/images/%s.jpg", productID), punctuationJSON,
		)
		if err != nil {
			log.Fatalf("insert product %s: %v", productID, err)
		}

		for j := 0; j < reviewsPerProduct; j++ {
			reviewer := reviewers[rng.Intn(len(reviewers))]
			_, err = pool.Exec(ctx, `
				INSERT INTO product_reviews (id, product_id, name, avatar, description, rating, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (id) DO NOTHING`,
				fmt.Sprintf("%s-review-%d", productID, j),
				productID,
				reviewer.Name,
				reviewer.Avatar,
				reviewTexts[rng.Intn(len(reviewTexts))],
				1+rng.Intn(5),
				time.Now().UTC().Add(-time.Duration(rng.Intn(720))*time.Hour),
			)
			if err != nil {
				log.Fatalf("insert review for %s: %v", productID, err)
			}
		}

		if i%50 == 0 {
			log.Printf("seeded %d/%d products", i, totalProducts)
		}
	}

	log.Printf("done: %d products with reviews in %s", totalProducts, time.Since(start))
}
