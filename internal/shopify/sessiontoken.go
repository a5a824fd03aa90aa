package shopify

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionTokenClaims are the claims App Bridge puts in an embedded app session token.
type SessionTokenClaims struct {
	Dest string `json:"dest"`
	SID  string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

type SessionTokenVerifier struct {
	APIKey    string
	APISecret string
	Leeway    time.Duration
	Now       func() time.Time
}

// Verify validates signature, audience and time claims and returns the shop domain
// taken from dest.
func (v SessionTokenVerifier) Verify(token string) (string, *SessionTokenClaims, error) {
	if token == "" {
		return "", nil, errors.New("missing session token")
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(v.APIKey),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.Leeway),
	}
	if v.Now != nil {
		opts = append(opts, jwt.WithTimeFunc(v.Now))
	}

	claims := &SessionTokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(v.APISecret), nil
	}, opts...)
	if err != nil {
		return "", nil, fmt.Errorf("session token: %w", err)
	}

	dest, err := url.Parse(claims.Dest)
	if err != nil || dest.Host == "" {
		return "", nil, errors.New("session token: invalid dest")
	}
	shop := NormalizeShop(dest.Host)
	if !IsValidShopDomain(shop) {
		return "", nil, errors.New("session token: dest is not a shop domain")
	}
	if iss, err := url.Parse(claims.Issuer); err != nil || NormalizeShop(iss.Host) != shop {
		return "", nil, errors.New("session token: issuer does not match dest")
	}
	return shop, claims, nil
}
