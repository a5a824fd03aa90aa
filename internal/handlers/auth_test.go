package handlers_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chandanbangre/hikeonAssessment/internal/session"
)

func signQuery(params map[string]string) {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(strings.Join(parts, "&")))
	params["hmac"] = hex.EncodeToString(mac.Sum(nil))
}

func beginAuth(t *testing.T, h *harness, shop string) string {
	t.Helper()
	req := request(http.MethodGet, "/api/auth", "", "")
	req.QueryStringParameters = map[string]string{"shop": shop}
	resp := h.do(t, req)
	require.Equal(t, http.StatusFound, resp.StatusCode, resp.Body)

	loc, err := url.Parse(resp.Headers["location"])
	require.NoError(t, err)
	assert.Equal(t, "/admin/oauth/authorize", loc.Path)
	assert.Equal(t, testKey, loc.Query().Get("client_id"))
	assert.Equal(t, appURL+"/api/auth/callback", loc.Query().Get("redirect_uri"))
	return loc.Query().Get("state")
}

func TestInstallFlow(t *testing.T) {
	h := newHarness(t)
	const shop = "fresh.myshopify.com"

	state := beginAuth(t, h, shop)
	require.NotEmpty(t, state)

	params := map[string]string{"code": "good-code", "shop": shop, "state": state, "timestamp": "1717243200"}
	signQuery(params)
	req := request(http.MethodGet, "/api/auth/callback", "", "")
	req.QueryStringParameters = params

	resp := h.do(t, req)
	require.Equal(t, http.StatusFound, resp.StatusCode, resp.Body)
	assert.Equal(t, "https://"+shop+"/admin/apps/"+testKey, resp.Headers["location"])

	sess, err := h.app.Sessions.Load(context.Background(), shop)
	require.NoError(t, err)
	assert.Equal(t, testToken, sess.AccessToken)
	assert.Equal(t, []string{"app/uninstalled"}, h.srv.Webhooks())

	// state is single use
	resp = h.do(t, req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestInstallFlowRejections(t *testing.T) {
	h := newHarness(t)

	req := request(http.MethodGet, "/api/auth", "", "")
	req.QueryStringParameters = map[string]string{"shop": "evil.example.com"}
	assert.Equal(t, http.StatusBadRequest, h.do(t, req).StatusCode)

	state := beginAuth(t, h, "fresh.myshopify.com")

	params := map[string]string{"code": "good-code", "shop": "fresh.myshopify.com", "state": state, "timestamp": "1"}
	signQuery(params)
	params["code"] = "swapped"
	req = request(http.MethodGet, "/api/auth/callback", "", "")
	req.QueryStringParameters = params
	resp := h.do(t, req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid hmac", decode(t, resp)["error"])

	params = map[string]string{"code": "bad-code", "shop": "fresh.myshopify.com", "state": state, "timestamp": "1"}
	signQuery(params)
	req.QueryStringParameters = params
	resp = h.do(t, req)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	_, err := h.app.Sessions.Load(context.Background(), "fresh.myshopify.com")
	assert.ErrorIs(t, err, session.ErrNotFound)
}
