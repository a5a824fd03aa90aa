package shopify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// OAuth drives the authorization-code install flow for one app.
type OAuth struct {
	APIKey    string
	APISecret string
	Scopes    string
	HTTP      *http.Client
	// ShopURL maps a shop domain to its origin. Defaults to https://<shop>.
	ShopURL func(shop string) string
}

type AccessToken struct {
	AccessToken string `json:"access_token"`
	Scope       string `json:"scope"`
}

func (o *OAuth) shopURL(shop string) string {
	if o.ShopURL != nil {
		return strings.TrimRight(o.ShopURL(shop), "/")
	}
	return "https://" + shop
}

func (o *OAuth) AuthorizeURL(shop, redirectURI, state string) string {
	u, _ := url.Parse(o.shopURL(shop) + "/admin/oauth/authorize")
	q := u.Query()
	q.Set("client_id", o.APIKey)
	q.Set("scope", o.Scopes)
	q.Set("redirect_uri", redirectURI)
	q.Set("state", state)
	u.RawQuery = q.Encode()
	return u.String()
}

// Exchange trades the callback code for an offline access token.
func (o *OAuth) Exchange(ctx context.Context, shop, code string) (AccessToken, error) {
	const op = "oauth.access_token"
	b, _ := json.Marshal(map[string]string{
		"client_id":     o.APIKey,
		"client_secret": o.APISecret,
		"code":          code,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.shopURL(shop)+"/admin/oauth/access_token", bytes.NewReader(b))
	if err != nil {
		return AccessToken{}, &RemoteServiceError{Op: op, Message: "invalid request", Err: err}
	}
	req.Header.Set("content-type", "application/json")
	req.Header.Set("accept", "application/json")

	hc := o.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	res, err := hc.Do(req)
	if err != nil {
		return AccessToken{}, &RemoteServiceError{Op: op, Message: "token exchange failed", Err: err}
	}
	defer res.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return AccessToken{}, &RemoteServiceError{Op: op, Status: res.StatusCode, Message: upstreamMessage(raw, res.StatusCode)}
	}

	var tok AccessToken
	if err := json.Unmarshal(raw, &tok); err != nil || tok.AccessToken == "" {
		return AccessToken{}, &RemoteServiceError{Op: op, Status: res.StatusCode, Message: "invalid token response"}
	}
	return tok, nil
}

// VerifyCallback checks the hmac query parameter Shopify signs every admin redirect with.
func (o *OAuth) VerifyCallback(params map[string]string) bool {
	provided := strings.TrimSpace(params["hmac"])
	if provided == "" {
		return false
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "hmac" || k == "signature" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, params[k]))
	}
	msg := strings.Join(parts, "&")

	mac := hmac.New(sha256.New, []byte(o.APISecret))
	_, _ = mac.Write([]byte(msg))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(strings.ToLower(provided)))
}

func IsValidShopDomain(shop string) bool {
	if !strings.HasSuffix(shop, ".myshopify.com") {
		return false
	}
	if len(shop) < len("a.myshopify.com") {
		return false
	}
	name := strings.TrimSuffix(shop, ".myshopify.com")
	for _, r := range name {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-') {
			return false
		}
	}
	return name[0] != '-'
}

func NormalizeShop(shop string) string {
	return strings.ToLower(strings.TrimSpace(shop))
}

func RandomState(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
