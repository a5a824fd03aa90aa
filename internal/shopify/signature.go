package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// VerifyWebhook checks X-Shopify-Hmac-Sha256: base64(HMAC-SHA256(secret, raw body)).
func VerifyWebhook(body []byte, headerB64, secret string) bool {
	provided, err := base64.StdEncoding.DecodeString(strings.TrimSpace(headerB64))
	if err != nil || len(provided) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return hmac.Equal(mac.Sum(nil), provided)
}

// SignWebhook is the inverse of VerifyWebhook.
func SignWebhook(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
