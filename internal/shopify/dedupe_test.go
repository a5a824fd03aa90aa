package shopify_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chandanbangre/hikeonAssessment/internal/db"
	"github.com/chandanbangre/hikeonAssessment/internal/db/dbtest"
	"github.com/chandanbangre/hikeonAssessment/internal/shopify"
)

func TestDeduperClaim(t *testing.T) {
	fake := dbtest.New()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	d := &shopify.Deduper{DDB: fake, Table: "dedupe", Now: func() time.Time { return now }}
	ctx := context.Background()

	dup, err := d.Claim(ctx, "wh-1", "demo.myshopify.com", "shop/redact")
	require.NoError(t, err)
	assert.False(t, dup)

	dup, err = d.Claim(ctx, "wh-1", "demo.myshopify.com", "shop/redact")
	require.NoError(t, err)
	assert.True(t, dup)

	it := fake.Item("dedupe", db.WebhookPK("wh-1"))
	require.NotNil(t, it)
	assert.Equal(t, "shop/redact", db.AttrS(it["Topic"]))

	dup, err = d.Claim(ctx, "", "demo.myshopify.com", "shop/redact")
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestDeduperUnconfiguredAndErrors(t *testing.T) {
	var d *shopify.Deduper
	dup, err := d.Claim(context.Background(), "wh", "s", "t")
	require.NoError(t, err)
	assert.False(t, dup)

	fake := dbtest.New()
	fake.Err = errors.New("throttled")
	d = &shopify.Deduper{DDB: fake, Table: "dedupe"}
	_, err = d.Claim(context.Background(), "wh", "s", "t")
	require.Error(t, err)
}
