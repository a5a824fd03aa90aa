package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/chandanbangre/hikeonAssessment/internal/db"
	"github.com/chandanbangre/hikeonAssessment/internal/shopify"
)

var ErrInvalidState = errors.New("invalid or expired state")

// StateStore holds one-time OAuth state values between /api/auth and the callback.
type StateStore struct {
	ddb   db.Client
	table string
	ttl   time.Duration
	now   func() time.Time
}

func NewStateStore(ddb db.Client, table string) *StateStore {
	return &StateStore{ddb: ddb, table: table, ttl: 10 * time.Minute, now: time.Now}
}

func (s *StateStore) Issue(ctx context.Context, shop string) (string, error) {
	state, err := shopify.RandomState(24)
	if err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	exp := s.now().UTC().Add(s.ttl).Unix()

	_, err = s.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item: map[string]types.AttributeValue{
			"PK":             &types.AttributeValueMemberS{Value: db.StatePK(state)},
			"Shop":           &types.AttributeValueMemberS{Value: shop},
			"ExpiresAtEpoch": &types.AttributeValueMemberN{Value: strconv.FormatInt(exp, 10)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("store oauth state: %w", err)
	}
	return state, nil
}

// Consume validates state against shop and deletes it so it cannot be replayed.
func (s *StateStore) Consume(ctx context.Context, state, shop string) error {
	key := map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: db.StatePK(state)},
	}
	out, err := s.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       key,
	})
	if err != nil {
		return fmt.Errorf("get oauth state: %w", err)
	}
	if out.Item == nil {
		return ErrInvalidState
	}

	// one-time state cleanup
	_, _ = s.ddb.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       key,
	})

	if db.AttrS(out.Item["Shop"]) != shop {
		return ErrInvalidState
	}
	if n, ok := out.Item["ExpiresAtEpoch"].(*types.AttributeValueMemberN); ok {
		exp, err := strconv.ParseInt(n.Value, 10, 64)
		if err != nil || s.now().UTC().Unix() > exp {
			return ErrInvalidState
		}
	}
	return nil
}
