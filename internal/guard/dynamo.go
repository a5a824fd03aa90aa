package guard

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chandanbangre/hikeonAssessment/internal/db"
	"github.com/chandanbangre/hikeonAssessment/internal/logging"
)

// Dynamo is a lease lock shared across Lambda instances. A lease that was never
// released expires after TTL, so TTL must outlast the longest guarded action or a
// second caller can take the lease while the first is still running.
type Dynamo struct {
	DDB   db.Client
	Table string
	TTL   time.Duration
	Now   func() time.Time
}

func (d *Dynamo) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *Dynamo) Acquire(ctx context.Context, key string) (func(), error) {
	ttl := d.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	now := d.now().UTC()
	owner := uuid.NewString()
	pk := db.GuardPK(key)

	_, err := d.DDB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.Table),
		Item: map[string]types.AttributeValue{
			"PK":        &types.AttributeValueMemberS{Value: pk},
			"Owner":     &types.AttributeValueMemberS{Value: owner},
			"ExpiresAt": &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Add(ttl).Unix(), 10)},
		},
		ConditionExpression: aws.String("attribute_not_exists(PK) OR ExpiresAt < :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)},
		},
	})
	if db.IsConditionFailed(err) {
		return nil, ErrInFlight
	}
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", key, err)
	}

	release := func() {
		// the request context may already be cancelled
		rctx := context.WithoutCancel(ctx)
		_, err := d.DDB.DeleteItem(rctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(d.Table),
			Key: map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: pk},
			},
			ConditionExpression: aws.String("Owner = :o"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":o": &types.AttributeValueMemberS{Value: owner},
			},
		})
		if err != nil && !db.IsConditionFailed(err) {
			logging.FromContext(ctx).Warn("guard release failed", zap.String("key", key), zap.Error(err))
		}
	}
	return release, nil
}
