// Package notify publishes app events to an SNS topic for downstream consumers.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

const (
	EventCarrierServiceCreated = "carrier_service.created"
	EventProductsSeeded        = "products.seeded"
	EventAppInstalled          = "app.installed"
	EventAppUninstalled        = "app.uninstalled"
)

type Publisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Event struct {
	Type string         `json:"type"`
	Shop string         `json:"shop"`
	At   time.Time      `json:"at"`
	Data map[string]any `json:"data,omitempty"`
}

// Notifier is a no-op when TopicArn is empty or the receiver is nil.
type Notifier struct {
	SNS      Publisher
	TopicArn string
	Now      func() time.Time
}

func (n *Notifier) Enabled() bool {
	return n != nil && n.SNS != nil && strings.TrimSpace(n.TopicArn) != ""
}

func (n *Notifier) Publish(ctx context.Context, eventType, shop string, data map[string]any) error {
	if !n.Enabled() {
		return nil
	}
	now := time.Now
	if n.Now != nil {
		now = n.Now
	}
	ev := Event{Type: eventType, Shop: shop, At: now().UTC(), Data: data}
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	_, err = n.SNS.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.TopicArn),
		Subject:  aws.String(fmt.Sprintf("%s (%s)", eventType, shop)),
		Message:  aws.String(string(b)),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"event_type": {DataType: aws.String("String"), StringValue: aws.String(eventType)},
			"shop":       {DataType: aws.String("String"), StringValue: aws.String(shop)},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish %s: %w", eventType, err)
	}
	return nil
}
