package shopify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/chandanbangre/hikeonAssessment/internal/db"
)

// Deduper records webhook ids so Shopify's at-least-once redeliveries are handled once.
type Deduper struct {
	DDB   db.Client
	Table string
	TTL   time.Duration
	Now   func() time.Time
}

// Claim returns (isDuplicate, error). If duplicate, caller should exit early.
func (d *Deduper) Claim(ctx context.Context, webhookID, shopDomain, topic string) (bool, error) {
	if d == nil || strings.TrimSpace(d.Table) == "" {
		// If not configured, don't block processing
		return false, nil
	}
	webhookID = strings.TrimSpace(webhookID)
	if webhookID == "" {
		return false, nil
	}

	now := time.Now().UTC()
	if d.Now != nil {
		now = d.Now().UTC()
	}
	ttl := d.TTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}

	_, err := d.DDB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.Table),
		Item: map[string]types.AttributeValue{
			"PK":        &types.AttributeValueMemberS{Value: db.WebhookPK(webhookID)},
			"Shop":      &types.AttributeValueMemberS{Value: shopDomain},
			"Topic":     &types.AttributeValueMemberS{Value: topic},
			"CreatedAt": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
			"ExpiresAt": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", now.Add(ttl).Unix())},
		},
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		if db.IsConditionFailed(err) {
			return true, nil
		}
		return false, err
	}
	return false, nil
}
