package handlers

import (
	"context"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/chandanbangre/hikeonAssessment/internal/logging"
	"github.com/chandanbangre/hikeonAssessment/internal/notify"
	"github.com/chandanbangre/hikeonAssessment/internal/privacy"
	"github.com/chandanbangre/hikeonAssessment/internal/shopify"
)

const topicAppUninstalled = "app/uninstalled"

// webhook handles the mandatory privacy topics and app/uninstalled. Storage side
// effects are idempotent per webhook id; only the event publish is deduplicated.
func (a *App) webhook(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	body, err := requestBody(req)
	if err != nil {
		return errResp(400, "invalid body encoding")
	}
	if !shopify.VerifyWebhook(body, header(req, "X-Shopify-Hmac-Sha256"), a.Cfg.ShopifyAPISecret) {
		return errResp(401, "invalid hmac")
	}

	topic := strings.TrimSpace(header(req, "X-Shopify-Topic"))
	shop := shopify.NormalizeShop(header(req, "X-Shopify-Shop-Domain"))
	webhookID := strings.TrimSpace(header(req, "X-Shopify-Webhook-Id"))

	log := logging.FromContext(ctx).With(zap.String("topic", topic), zap.String("shop", shop), zap.String("webhook_id", webhookID))
	ctx = logging.WithContext(ctx, log)

	var eventType string
	switch {
	case privacy.IsPrivacyTopic(topic):
		key, err := a.Archive.Store(ctx, topic, shop, webhookID, body)
		if err != nil {
			log.Error("archive privacy payload", zap.Error(err))
			return errResp(500, "failed to archive payload")
		}
		if key != "" {
			log.Info("privacy payload archived", zap.String("key", key))
		}
		if topic == privacy.TopicShopRedact {
			if err := a.Sessions.Delete(ctx, shop); err != nil {
				log.Error("delete session", zap.Error(err))
				return errResp(500, "failed to delete shop data")
			}
		} else if err := a.Sessions.RecordEvent(ctx, shop, topic); err != nil {
			log.Warn("record webhook event", zap.Error(err))
		}
	case topic == topicAppUninstalled:
		if err := a.Sessions.Delete(ctx, shop); err != nil {
			log.Error("delete session", zap.Error(err))
			return errResp(500, "failed to delete session")
		}
		eventType = notify.EventAppUninstalled
	default:
		log.Info("ignoring webhook topic")
		return jsonResp(200, map[string]any{"ok": true, "ignored": true})
	}

	dup, err := a.Dedupe.Claim(ctx, webhookID, shop, topic)
	if err != nil {
		log.Error("webhook dedupe", zap.Error(err))
		return errResp(500, "dedupe failed")
	}
	if dup {
		return jsonResp(200, map[string]any{"ok": true, "duplicate": true})
	}

	if eventType != "" {
		if err := a.Notifier.Publish(ctx, eventType, shop, map[string]any{"webhook_id": webhookID}); err != nil {
			log.Warn("webhook event publish failed", zap.Error(err))
		}
	}
	return jsonResp(200, map[string]any{"ok": true})
}
