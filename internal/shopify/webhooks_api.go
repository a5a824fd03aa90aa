package shopify

import (
	"context"
	"net/http"
)

type webhookCreateReq struct {
	Webhook struct {
		Address string `json:"address"`
		Topic   string `json:"topic"`
		Format  string `json:"format"`
	} `json:"webhook"`
}

// AppWebhookTopics are registered on install. The privacy topics are configured on the
// app listing and never subscribed through the API.
var AppWebhookTopics = []string{"app/uninstalled"}

func (c *Client) CreateWebhook(ctx context.Context, topic, address string) error {
	var payload webhookCreateReq
	payload.Webhook.Address = address
	payload.Webhook.Topic = topic
	payload.Webhook.Format = "json"
	return c.do(ctx, "webhooks.create", http.MethodPost, "webhooks.json", payload, nil)
}

// SubscribeWebhooks registers every topic, collecting per-topic failures instead of
// stopping at the first one.
func (c *Client) SubscribeWebhooks(ctx context.Context, topics []string, address string) (created []string, failed map[string]string) {
	for _, t := range topics {
		if err := c.CreateWebhook(ctx, t, address); err != nil {
			if failed == nil {
				failed = map[string]string{}
			}
			failed[t] = err.Error()
			continue
		}
		created = append(created, t)
	}
	return created, failed
}
