package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chandanbangre/hikeonAssessment/internal/carrier"
	"github.com/chandanbangre/hikeonAssessment/internal/config"
	"github.com/chandanbangre/hikeonAssessment/internal/db"
	"github.com/chandanbangre/hikeonAssessment/internal/guard"
	"github.com/chandanbangre/hikeonAssessment/internal/logging"
	"github.com/chandanbangre/hikeonAssessment/internal/notify"
	"github.com/chandanbangre/hikeonAssessment/internal/privacy"
	"github.com/chandanbangre/hikeonAssessment/internal/products"
	"github.com/chandanbangre/hikeonAssessment/internal/rates"
	"github.com/chandanbangre/hikeonAssessment/internal/security"
	"github.com/chandanbangre/hikeonAssessment/internal/session"
	"github.com/chandanbangre/hikeonAssessment/internal/shopify"
)

// App serves every route of the embedded app.
type App struct {
	Cfg config.Config
	Log *zap.Logger

	Auth     *session.Authenticator
	Sessions *session.Store
	States   *session.StateStore
	OAuth    *shopify.OAuth
	Dedupe   *shopify.Deduper

	Carriers *carrier.Manager
	Seeder   *products.Seeder
	Rates    *RatesHandler
	Guard    guard.Guard
	Notifier *notify.Notifier
	Archive  *privacy.Archive

	Limiters     *shopify.LimiterPool
	AdminOptions []shopify.Option
}

// NewApp wires the app against AWS. Optional integrations stay disabled when their
// table, topic or bucket is not configured.
func NewApp(cfg config.Config, awsCfg aws.Config, log *zap.Logger) (*App, error) {
	if err := cfg.RequireApp(); err != nil {
		return nil, err
	}
	cipher, err := security.NewTokenCipher(cfg.TokenEncKey)
	if err != nil {
		return nil, fmt.Errorf("token cipher: %w", err)
	}

	ddb := db.NewDynamoClient(awsCfg)
	sessions := session.NewStore(ddb, cfg.SessionsTable, cipher)
	notifier := &notify.Notifier{SNS: sns.NewFromConfig(awsCfg), TopicArn: cfg.EventsTopicArn}

	var g guard.Guard = guard.NewMemory()
	if cfg.GuardTable != "" {
		g = &guard.Dynamo{DDB: ddb, Table: cfg.GuardTable, TTL: guardTTL(cfg.GuardTTL)}
	}

	return &App{
		Cfg: cfg,
		Log: log,
		Auth: &session.Authenticator{
			Verifier: shopify.SessionTokenVerifier{APIKey: cfg.ShopifyAPIKey, APISecret: cfg.ShopifyAPISecret, Leeway: 5 * time.Second},
			Sessions: sessions,
		},
		Sessions: sessions,
		States:   session.NewStateStore(ddb, cfg.OAuthStateTable),
		OAuth: &shopify.OAuth{
			APIKey:    cfg.ShopifyAPIKey,
			APISecret: cfg.ShopifyAPISecret,
			Scopes:    cfg.ShopifyScopes,
		},
		Dedupe:   &shopify.Deduper{DDB: ddb, Table: cfg.WebhookDedupeTable},
		Carriers: &carrier.Manager{Notifier: notifier},
		Seeder:   &products.Seeder{BatchSize: products.BatchSize, Notifier: notifier},
		Rates:    &RatesHandler{Calc: rates.DefaultCalculator()},
		Guard:    g,
		Notifier: notifier,
		Archive:  &privacy.Archive{S3: s3.NewFromConfig(awsCfg), Bucket: cfg.PrivacyArchiveBucket},
		Limiters: shopify.NewLimiterPool(cfg.AdminAPIRPS, cfg.AdminAPIBurst),
	}, nil
}

func (a *App) Handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	reqID := req.RequestContext.RequestID
	if reqID == "" {
		reqID = uuid.NewString()
	}
	log := a.Log
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(
		zap.String("request_id", reqID),
		zap.String("method", method(req)),
		zap.String("path", req.RawPath),
	)
	ctx = logging.WithContext(ctx, log)

	start := time.Now()
	resp, err := a.route(ctx, req)
	logging.FromContext(ctx).Info("request",
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)
	return resp, err
}

func (a *App) route(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	m := method(req)
	switch req.RawPath {
	case "/healthz":
		return Health(ctx, req)
	case "/calculate-rates":
		if m == http.MethodPost {
			return a.Rates.Handle(ctx, req)
		}
	case "/api/products/count":
		if m == http.MethodGet {
			return a.authed(ctx, req, a.productsCount)
		}
	case "/api/products/create":
		if m == http.MethodGet {
			return a.authed(ctx, req, a.productsCreate)
		}
	case "/api/carrier-service":
		switch m {
		case http.MethodGet:
			return a.authed(ctx, req, a.carrierServicesList)
		case http.MethodPost:
			return a.authed(ctx, req, a.carrierServicesCreate)
		}
	case "/api/auth":
		if m == http.MethodGet {
			return a.authBegin(ctx, req)
		}
	case "/api/auth/callback":
		if m == http.MethodGet {
			return a.authCallback(ctx, req)
		}
	case "/api/webhooks":
		if m == http.MethodPost {
			return a.webhook(ctx, req)
		}
	case "/", "":
		if m == http.MethodGet {
			return a.panelPage(ctx, req)
		}
	case "/panel/carrier-service":
		if m == http.MethodPost {
			return a.panelCreateCarrier(ctx, req)
		}
	case "/panel/products":
		if m == http.MethodPost {
			return a.panelSeedProducts(ctx, req)
		}
	default:
		return errResp(404, "not found")
	}
	return errResp(405, "method not allowed")
}

type sessionHandler func(ctx context.Context, req events.APIGatewayV2HTTPRequest, sess session.Session) (events.APIGatewayV2HTTPResponse, error)

// authed rejects the request before next runs unless it carries a valid session token.
func (a *App) authed(ctx context.Context, req events.APIGatewayV2HTTPRequest, next sessionHandler) (events.APIGatewayV2HTTPResponse, error) {
	sess, ctx, err := a.authenticate(ctx, session.BearerToken(header(req, "Authorization")))
	if err != nil {
		return a.fail(ctx, err)
	}
	return next(ctx, req, sess)
}

func (a *App) authenticate(ctx context.Context, token string) (session.Session, context.Context, error) {
	sess, err := a.Auth.Authenticate(ctx, token)
	if err != nil {
		return session.Session{}, ctx, err
	}
	ctx = logging.WithContext(ctx, logging.FromContext(ctx).With(zap.String("shop", sess.Shop)))
	return sess, ctx, nil
}

// admin returns an Admin API client for the session's shop.
func (a *App) admin(sess session.Session) *shopify.Client {
	opts := append([]shopify.Option{}, a.AdminOptions...)
	if a.Limiters != nil {
		opts = append(opts, shopify.WithLimiter(a.Limiters.For(sess.Shop)))
	}
	return shopify.NewClient(sess.Shop, a.Cfg.ShopifyAPIVersion, sess.AccessToken, opts...)
}

const (
	actionCarrierService = "carrier-service"
	actionProducts       = "products"
)

func guardKey(shop, action string) string {
	return strings.ToLower(shop) + "#" + action
}

// acquire takes the shop's guards for actions in order. If any is held, the ones
// already taken are released and guard.ErrInFlight is returned.
func (a *App) acquire(ctx context.Context, shop string, actions ...string) (func(), error) {
	releases := make([]func(), 0, len(actions))
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}
	for _, action := range actions {
		release, err := a.Guard.Acquire(ctx, guardKey(shop, action))
		if err != nil {
			releaseAll()
			return nil, err
		}
		releases = append(releases, release)
	}
	return releaseAll, nil
}

// guardTTL keeps a lease alive for a whole seed batch at the Admin client timeout.
func guardTTL(configured time.Duration) time.Duration {
	floor := time.Duration(products.BatchSize+1) * shopify.DefaultTimeout
	if configured < floor {
		return floor
	}
	return configured
}

// fail logs err and converts it to the JSON error body.
func (a *App) fail(ctx context.Context, err error) (events.APIGatewayV2HTTPResponse, error) {
	status := statusFor(err)
	log := logging.FromContext(ctx)
	msg := userMessage(err)
	switch {
	case status == http.StatusUnauthorized:
		log.Info("unauthenticated", zap.Error(err))
		msg = "unauthorized"
	case status >= 500:
		log.Error("request failed", zap.Error(err))
		if status == http.StatusInternalServerError {
			msg = "internal error"
		}
	default:
		log.Warn("request rejected", zap.Error(err))
	}
	return errResp(status, msg)
}
