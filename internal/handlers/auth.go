package handlers

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/chandanbangre/hikeonAssessment/internal/logging"
	"github.com/chandanbangre/hikeonAssessment/internal/notify"
	"github.com/chandanbangre/hikeonAssessment/internal/session"
	"github.com/chandanbangre/hikeonAssessment/internal/shopify"
)

const (
	authPath     = "/api/auth"
	callbackPath = "/api/auth/callback"
	webhookPath  = "/api/webhooks"
)

func (a *App) authBegin(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	shop := shopify.NormalizeShop(req.QueryStringParameters["shop"])
	if !shopify.IsValidShopDomain(shop) {
		return errResp(400, "invalid shop (expected like your-store.myshopify.com)")
	}

	state, err := a.States.Issue(ctx, shop)
	if err != nil {
		logging.FromContext(ctx).Error("issue oauth state", zap.Error(err))
		return errResp(500, "failed to store oauth state")
	}
	return redirect(a.OAuth.AuthorizeURL(shop, a.Cfg.AppURL+callbackPath, state))
}

func (a *App) authCallback(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	params := req.QueryStringParameters
	log := logging.FromContext(ctx)

	shop := shopify.NormalizeShop(params["shop"])
	code := strings.TrimSpace(params["code"])
	state := strings.TrimSpace(params["state"])
	if !shopify.IsValidShopDomain(shop) || code == "" || state == "" {
		return errResp(400, "missing required oauth params")
	}
	if !a.OAuth.VerifyCallback(params) {
		return errResp(400, "invalid hmac")
	}
	if err := a.States.Consume(ctx, state, shop); err != nil {
		if errors.Is(err, session.ErrInvalidState) {
			return errResp(400, "invalid or expired state")
		}
		log.Error("consume oauth state", zap.Error(err))
		return errResp(500, "failed to read oauth state")
	}

	tok, err := a.OAuth.Exchange(ctx, shop, code)
	if err != nil {
		log.Error("token exchange failed", zap.String("shop", shop), zap.Error(err))
		return errResp(502, "token exchange failed: "+userMessage(err))
	}

	sess := session.Session{Shop: shop, AccessToken: tok.AccessToken, Scope: tok.Scope}
	if err := a.Sessions.Save(ctx, sess); err != nil {
		log.Error("save session", zap.String("shop", shop), zap.Error(err))
		return errResp(500, "failed to store session")
	}

	// Subscribe this shop to the app lifecycle webhooks
	created, failed := a.admin(sess).SubscribeWebhooks(ctx, shopify.AppWebhookTopics, a.Cfg.AppURL+webhookPath)
	for topic, msg := range failed {
		log.Warn("webhook subscription failed", zap.String("shop", shop), zap.String("topic", topic), zap.String("error", msg))
	}
	log.Info("app installed", zap.String("shop", shop), zap.Strings("webhooks", created))

	if err := a.Notifier.Publish(ctx, notify.EventAppInstalled, shop, map[string]any{"scope": tok.Scope}); err != nil {
		log.Warn("install event publish failed", zap.Error(err))
	}

	return redirect("https://" + shop + "/admin/apps/" + url.PathEscape(a.Cfg.ShopifyAPIKey))
}
