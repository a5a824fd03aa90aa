package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chandanbangre/hikeonAssessment/internal/shopify"
)

// UnauthenticatedError rejects a request before any core logic runs.
type UnauthenticatedError struct {
	Reason string
	Err    error
}

func (e *UnauthenticatedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unauthenticated: %s: %v", e.Reason, e.Err)
	}
	return "unauthenticated: " + e.Reason
}

func (e *UnauthenticatedError) Unwrap() error { return e.Err }

type Loader interface {
	Load(ctx context.Context, shop string) (Session, error)
}

type TokenVerifier interface {
	Verify(token string) (string, *shopify.SessionTokenClaims, error)
}

// Authenticator turns an App Bridge session token into the shop's offline session.
type Authenticator struct {
	Verifier TokenVerifier
	Sessions Loader
}

func (a *Authenticator) Authenticate(ctx context.Context, token string) (Session, error) {
	if strings.TrimSpace(token) == "" {
		return Session{}, &UnauthenticatedError{Reason: "missing session token"}
	}
	shop, _, err := a.Verifier.Verify(token)
	if err != nil {
		return Session{}, &UnauthenticatedError{Reason: "invalid session token", Err: err}
	}
	sess, err := a.Sessions.Load(ctx, shop)
	if errors.Is(err, ErrNotFound) {
		return Session{}, &UnauthenticatedError{Reason: "app not installed on " + shop, Err: err}
	}
	if err != nil {
		return Session{}, err
	}
	return sess, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(authz string) string {
	authz = strings.TrimSpace(authz)
	if len(authz) > 7 && strings.EqualFold(authz[:7], "bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	return ""
}
