package products_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chandanbangre/hikeonAssessment/internal/products"
	"github.com/chandanbangre/hikeonAssessment/internal/shopify"
	"github.com/chandanbangre/hikeonAssessment/internal/shopify/shopifytest"
)

func TestSeedCreatesFullBatch(t *testing.T) {
	srv := shopifytest.NewServer("tok")
	defer srv.Close()
	api := shopify.NewClient("demo.myshopify.com", "2024-01", "tok", shopify.WithBaseURL(srv.URL), shopify.WithHTTPClient(srv.Client()))

	n, err := (&products.Seeder{}).Seed(context.Background(), api)
	require.NoError(t, err)
	assert.Equal(t, products.BatchSize, n)

	created := srv.Products()
	require.Len(t, created, products.BatchSize)
	for _, p := range created {
		assert.Len(t, strings.Fields(p.Title), 2)
	}
}

func TestSeedAbortsOnFirstFailure(t *testing.T) {
	srv := shopifytest.NewServer("tok")
	defer srv.Close()
	srv.FailProductAt = 3
	api := shopify.NewClient("demo.myshopify.com", "2024-01", "tok", shopify.WithBaseURL(srv.URL), shopify.WithHTTPClient(srv.Client()))

	n, err := (&products.Seeder{Title: func() string { return "fixed title" }}).Seed(context.Background(), api)
	require.Error(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 3, srv.ProductCreates(), "no calls after the failing one")

	var rse *shopify.RemoteServiceError
	require.True(t, errors.As(err, &rse))
	assert.Contains(t, rse.Message, "Title can't be blank")
}

func TestRandomTitle(t *testing.T) {
	for i := 0; i < 20; i++ {
		assert.Len(t, strings.Fields(products.RandomTitle()), 2)
	}
}
