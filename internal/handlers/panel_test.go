package handlers_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chandanbangre/hikeonAssessment/internal/carrier"
	"github.com/chandanbangre/hikeonAssessment/internal/shopify"
)

func panelGet(query map[string]string) events.APIGatewayV2HTTPRequest {
	req := request(http.MethodGet, "/", "", "")
	req.QueryStringParameters = query
	return req
}

func panelPost(path string, form url.Values) events.APIGatewayV2HTTPRequest {
	req := request(http.MethodPost, path, "", form.Encode())
	req.Headers["content-type"] = "application/x-www-form-urlencoded"
	return req
}

func TestPanelRedirectsUninstalledShop(t *testing.T) {
	h := newHarness(t)
	resp := h.do(t, panelGet(map[string]string{"shop": "new.myshopify.com"}))
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/api/auth?shop=new.myshopify.com", resp.Headers["location"])

	resp = h.do(t, panelGet(map[string]string{"shop": "new.myshopify.com", "id_token": sessionToken(t, "new.myshopify.com")}))
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

func TestPanelRequiresSessionForInstalledShop(t *testing.T) {
	h := newHarness(t)
	resp := h.do(t, panelGet(map[string]string{"shop": testShop}))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPanelPage(t *testing.T) {
	h := newHarness(t)
	h.srv.SeedCarrierServices(shopify.CarrierService{Name: "FedEx", CallbackURL: "https://f/cb"})
	tok := sessionToken(t, testShop)

	resp := h.do(t, panelGet(map[string]string{"shop": testShop, "id_token": tok}))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Headers["content-type"], "text/html")
	assert.Contains(t, resp.Headers["content-security-policy"], "https://"+testShop)
	assert.Contains(t, resp.Body, "<td>FedEx</td>")
	assert.NotContains(t, resp.Body, `data-phase=`)

	resp = h.do(t, panelGet(map[string]string{"shop": testShop, "id_token": tok, "modal": "open"}))
	assert.Contains(t, resp.Body, `data-phase="modal_open"`)
}

func TestPanelCreateCarrier(t *testing.T) {
	h := newHarness(t)
	tok := sessionToken(t, testShop)
	form := url.Values{"id_token": {tok}, "name": {"DHL"}, "callbackUrl": {"https://x/cb"}, "action": {"submit"}}

	resp := h.do(t, panelPost("/panel/carrier-service", form))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Body, `data-tone="success"`)
	assert.Contains(t, resp.Body, "Your DHL Carrier Service is created on CallbackURL https://x/cb")
	assert.Contains(t, resp.Body, "<td>DHL</td>")
	assert.NotContains(t, resp.Body, `data-phase=`, "modal closes on success")

	resp = h.do(t, panelPost("/panel/carrier-service", form))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Body, `data-tone="critical"`)
	assert.Contains(t, resp.Body, carrier.DuplicateMessage)
	assert.Contains(t, resp.Body, `data-phase="error_shown"`)
	assert.Contains(t, resp.Body, `value="submit" disabled`)
	assert.Equal(t, 1, h.srv.CarrierCreates())
}

func TestPanelCreateCarrierRemoteFailure(t *testing.T) {
	h := newHarness(t)
	h.srv.FailCarrierCreate = "Callback url is invalid"
	form := url.Values{"id_token": {sessionToken(t, testShop)}, "name": {"DHL"}, "callbackUrl": {"https://x/cb"}}

	resp := h.do(t, panelPost("/panel/carrier-service", form))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Body, `data-tone="critical"`)
	assert.Contains(t, resp.Body, "Failed to create DHL carrier service on callback URL https://x/cb: Callback url is invalid")
	assert.NotContains(t, resp.Body, `value="submit" disabled`)
}

func TestPanelCancelAndEdit(t *testing.T) {
	h := newHarness(t)
	tok := sessionToken(t, testShop)

	resp := h.do(t, panelPost("/panel/carrier-service", url.Values{"id_token": {tok}, "action": {"cancel"}}))
	assert.NotContains(t, resp.Body, `data-phase=`)

	resp = h.do(t, panelPost("/panel/carrier-service", url.Values{"id_token": {tok}, "action": {"edit"}, "name": {"DHL 2"}}))
	assert.Contains(t, resp.Body, `data-phase="modal_open"`)
	assert.Contains(t, resp.Body, `value="DHL 2"`)
	assert.Zero(t, h.srv.CarrierCreates())
}

func TestPanelSeedProducts(t *testing.T) {
	h := newHarness(t)

	resp := h.do(t, panelPost("/panel/products", url.Values{"id_token": {sessionToken(t, testShop)}}))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Body, "5 products created")
	assert.Len(t, h.srv.Products(), 5)
}

func TestPanelSeedRefusedWhileCarrierCreateInFlight(t *testing.T) {
	h := newHarness(t)
	release, err := h.guard.Acquire(context.Background(), testShop+"#carrier-service")
	require.NoError(t, err)
	defer release()

	resp := h.do(t, panelPost("/panel/products", url.Values{"id_token": {sessionToken(t, testShop)}}))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Body, `data-tone="critical"`)
	assert.Contains(t, resp.Body, "already in progress")
	assert.Zero(t, h.srv.ProductCreates())
}

func TestPanelRejectsMissingToken(t *testing.T) {
	h := newHarness(t)
	resp := h.do(t, panelPost("/panel/products", url.Values{}))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Zero(t, h.srv.ProductCreates())
}
