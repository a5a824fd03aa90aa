package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chandanbangre/hikeonAssessment/internal/carrier"
	"github.com/chandanbangre/hikeonAssessment/internal/config"
	"github.com/chandanbangre/hikeonAssessment/internal/db/dbtest"
	"github.com/chandanbangre/hikeonAssessment/internal/guard"
	"github.com/chandanbangre/hikeonAssessment/internal/handlers"
	"github.com/chandanbangre/hikeonAssessment/internal/notify"
	"github.com/chandanbangre/hikeonAssessment/internal/privacy"
	"github.com/chandanbangre/hikeonAssessment/internal/products"
	"github.com/chandanbangre/hikeonAssessment/internal/rates"
	"github.com/chandanbangre/hikeonAssessment/internal/security"
	"github.com/chandanbangre/hikeonAssessment/internal/session"
	"github.com/chandanbangre/hikeonAssessment/internal/shopify"
	"github.com/chandanbangre/hikeonAssessment/internal/shopify/shopifytest"
)

const (
	testShop   = "demo.myshopify.com"
	testKey    = "app-key"
	testSecret = "app-secret"
	testToken  = "shpat_test"
	appURL     = "https://app.example.com"

	sessionsTable = "sessions"
	stateTable    = "oauth-state"
	dedupeTable   = "webhook-dedupe"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeS3 struct {
	mu   sync.Mutex
	keys []string
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	_, _ = io.ReadAll(in.Body)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, aws.ToString(in.Key))
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.keys...)
}

type harness struct {
	app   *handlers.App
	srv   *shopifytest.Server
	ddb   *dbtest.Fake
	s3    *fakeS3
	guard *guard.Memory
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := shopifytest.NewServer(testToken)
	t.Cleanup(srv.Close)

	fake := dbtest.New()
	cipher, err := security.NewTokenCipher(bytes.Repeat([]byte{3}, 32))
	require.NoError(t, err)
	store := session.NewStore(fake, sessionsTable, cipher)
	require.NoError(t, store.Save(context.Background(), session.Session{Shop: testShop, AccessToken: testToken}))

	cfg := config.Config{
		ShopifyAPIKey:     testKey,
		ShopifyAPISecret:  testSecret,
		ShopifyAPIVersion: config.DefaultAPIVersion,
		ShopifyScopes:     config.DefaultScopes,
		AppURL:            appURL,
	}
	g := guard.NewMemory()
	archive := &fakeS3{}

	app := &handlers.App{
		Cfg: cfg,
		Log: zap.NewNop(),
		Auth: &session.Authenticator{
			Verifier: shopify.SessionTokenVerifier{APIKey: testKey, APISecret: testSecret},
			Sessions: store,
		},
		Sessions: store,
		States:   session.NewStateStore(fake, stateTable),
		OAuth: &shopify.OAuth{
			APIKey:    testKey,
			APISecret: testSecret,
			Scopes:    cfg.ShopifyScopes,
			HTTP:      srv.Client(),
			ShopURL:   func(string) string { return srv.URL },
		},
		Dedupe:   &shopify.Deduper{DDB: fake, Table: dedupeTable},
		Carriers: &carrier.Manager{},
		Seeder:   &products.Seeder{},
		Rates:    &handlers.RatesHandler{Calc: rates.DefaultCalculator(), Now: func() time.Time { return fixedNow }},
		Guard:    g,
		Notifier: &notify.Notifier{},
		Archive:  &privacy.Archive{S3: archive, Bucket: "privacy"},
		AdminOptions: []shopify.Option{
			shopify.WithBaseURL(srv.URL),
			shopify.WithHTTPClient(srv.Client()),
		},
	}
	return &harness{app: app, srv: srv, ddb: fake, s3: archive, guard: g}
}

func sessionToken(t *testing.T, shop string) string {
	t.Helper()
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, shopify.SessionTokenClaims{
		Dest: "https://" + shop,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://" + shop + "/admin",
			Audience:  jwt.ClaimStrings{testKey},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
			NotBefore: jwt.NewNumericDate(now.Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	s, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func request(method, path, token, body string) events.APIGatewayV2HTTPRequest {
	req := events.APIGatewayV2HTTPRequest{
		RawPath: path,
		Body:    body,
		Headers: map[string]string{},
	}
	req.RequestContext.HTTP.Method = method
	if token != "" {
		req.Headers["authorization"] = "Bearer " + token
	}
	return req
}

func (h *harness) do(t *testing.T, req events.APIGatewayV2HTTPRequest) events.APIGatewayV2HTTPResponse {
	t.Helper()
	resp, err := h.app.Handle(context.Background(), req)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp events.APIGatewayV2HTTPResponse) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &out), resp.Body)
	return out
}
