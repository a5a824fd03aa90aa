// Package products creates batches of sample products.
package products

import (
	"context"
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/chandanbangre/hikeonAssessment/internal/logging"
	"github.com/chandanbangre/hikeonAssessment/internal/notify"
	"github.com/chandanbangre/hikeonAssessment/internal/shopify"
)

const BatchSize = 5

var (
	adjectives = []string{"autumn", "hidden", "bitter", "misty", "silent", "empty", "dry", "dark", "summer", "icy", "delicate", "quiet", "white", "cool", "spring", "winter", "patient", "twilight", "dawn", "crimson", "wispy", "weathered", "blue", "billowing", "broken", "cold", "damp", "falling", "frosty", "green", "long"}
	nouns      = []string{"waterfall", "river", "breeze", "moon", "rain", "wind", "sea", "morning", "snow", "lake", "sunset", "pine", "shadow", "leaf", "dawn", "glitter", "forest", "hill", "cloud", "meadow", "sun", "glade", "bird", "brook", "butterfly", "bush", "dew", "dust", "field", "fire", "flower"}
)

type Creator interface {
	Shop() string
	CreateProduct(ctx context.Context, in shopify.ProductInput) (shopify.Product, error)
}

type Seeder struct {
	BatchSize int
	Notifier  *notify.Notifier
	// Title overrides the random title generator.
	Title func() string
}

// Seed creates the batch one product at a time. The first failure aborts the rest.
func (s *Seeder) Seed(ctx context.Context, api Creator) (int, error) {
	n := s.BatchSize
	if n <= 0 {
		n = BatchSize
	}
	title := s.Title
	if title == nil {
		title = RandomTitle
	}

	for i := 0; i < n; i++ {
		if _, err := api.CreateProduct(ctx, shopify.ProductInput{Title: title()}); err != nil {
			return 0, fmt.Errorf("create product %d of %d: %w", i+1, n, err)
		}
	}

	if err := s.Notifier.Publish(ctx, notify.EventProductsSeeded, api.Shop(), map[string]any{"count": n}); err != nil {
		logging.FromContext(ctx).Warn("seed event publish failed", zap.Error(err))
	}
	return n, nil
}

func RandomTitle() string {
	return fmt.Sprintf("%s %s", adjectives[rand.Intn(len(adjectives))], nouns[rand.Intn(len(nouns))])
}
