package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chandanbangre/hikeonAssessment/internal/db"
	"github.com/chandanbangre/hikeonAssessment/internal/session"
	"github.com/chandanbangre/hikeonAssessment/internal/shopify"
)

func webhookReq(topic, id, body, secret string) events.APIGatewayV2HTTPRequest {
	req := request(http.MethodPost, "/api/webhooks", "", body)
	req.Headers["x-shopify-topic"] = topic
	req.Headers["x-shopify-shop-domain"] = testShop
	req.Headers["x-shopify-webhook-id"] = id
	req.Headers["x-shopify-hmac-sha256"] = shopify.SignWebhook([]byte(body), secret)
	return req
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	h := newHarness(t)
	resp := h.do(t, webhookReq("app/uninstalled", "wh-1", `{}`, "wrong-secret"))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, err := h.app.Sessions.Load(context.Background(), testShop)
	assert.NoError(t, err)
}

func TestWebhookUninstallDeletesSessionOnce(t *testing.T) {
	h := newHarness(t)

	resp := h.do(t, webhookReq("app/uninstalled", "wh-1", `{"id":1}`, testSecret))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, resp.Body)

	_, err := h.app.Sessions.Load(context.Background(), testShop)
	assert.ErrorIs(t, err, session.ErrNotFound)
	assert.NotNil(t, h.ddb.Item(dedupeTable, db.WebhookPK("wh-1")))

	resp = h.do(t, webhookReq("app/uninstalled", "wh-1", `{"id":1}`, testSecret))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decode(t, resp)["duplicate"])
}

func TestWebhookPrivacyTopics(t *testing.T) {
	h := newHarness(t)

	resp := h.do(t, webhookReq("customers/data_request", "wh-2", `{"customer":{"id":9}}`, testSecret))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, err := h.app.Sessions.Load(context.Background(), testShop)
	require.NoError(t, err, "data requests keep the session")

	resp = h.do(t, webhookReq("shop/redact", "wh-3", `{"shop_id":1}`, testSecret))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, err = h.app.Sessions.Load(context.Background(), testShop)
	assert.ErrorIs(t, err, session.ErrNotFound)

	keys := h.s3.Keys()
	require.Len(t, keys, 2)
	assert.Contains(t, keys[0], "privacy/customers_data_request/")
	assert.Contains(t, keys[0], "/shop="+testShop+"/wh-2.json")
	assert.Contains(t, keys[1], "privacy/shop_redact/")
}

func TestWebhookIgnoresOtherTopics(t *testing.T) {
	h := newHarness(t)
	resp := h.do(t, webhookReq("orders/create", "wh-4", `{}`, testSecret))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decode(t, resp)["ignored"])
	assert.Empty(t, h.s3.Keys())
}
