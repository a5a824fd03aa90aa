// Package session is the merchant-session boundary: the per-shop offline token store,
// OAuth state, and request authentication.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/chandanbangre/hikeonAssessment/internal/db"
	"github.com/chandanbangre/hikeonAssessment/internal/security"
)

var ErrNotFound = errors.New("session not found")

// Session is the authenticated context for one shop. It is read-only to handlers.
type Session struct {
	Shop        string
	AccessToken string
	Scope       string
	InstalledAt time.Time
}

// record mirrors the DynamoDB item.
type record struct {
	PK             string `dynamodbav:"PK"`
	Shop           string `dynamodbav:"Shop"`
	AccessTokenEnc string `dynamodbav:"AccessTokenEnc"`
	Scope          string `dynamodbav:"Scope"`
	InstalledAt    string `dynamodbav:"InstalledAt"`
	LastEventAt    string `dynamodbav:"LastEventAt,omitempty"`
	LastEventTopic string `dynamodbav:"LastEventTopic,omitempty"`
}

type Store struct {
	ddb    db.Client
	table  string
	cipher *security.TokenCipher
	now    func() time.Time
}

func NewStore(ddb db.Client, table string, cipher *security.TokenCipher) *Store {
	return &Store{ddb: ddb, table: table, cipher: cipher, now: time.Now}
}

func (s *Store) Save(ctx context.Context, sess Session) error {
	if strings.TrimSpace(sess.Shop) == "" || sess.AccessToken == "" {
		return errors.New("missing shop/access token")
	}
	enc, err := s.cipher.Seal(sess.AccessToken)
	if err != nil {
		return fmt.Errorf("encrypt token: %w", err)
	}
	installed := sess.InstalledAt
	if installed.IsZero() {
		installed = s.now()
	}

	av, err := attributevalue.MarshalMap(record{
		PK:             db.ShopPK(sess.Shop),
		Shop:           sess.Shop,
		AccessTokenEnc: enc,
		Scope:          sess.Scope,
		InstalledAt:    installed.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	_, err = s.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

// Load reads the session for shop and decrypts its token.
func (s *Store) Load(ctx context.Context, shop string) (Session, error) {
	out, err := s.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: db.ShopPK(shop)},
		},
	})
	if err != nil {
		return Session{}, fmt.Errorf("get session: %w", err)
	}
	if out.Item == nil {
		return Session{}, ErrNotFound
	}

	var rec record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return Session{}, fmt.Errorf("unmarshal session: %w", err)
	}
	if strings.TrimSpace(rec.AccessTokenEnc) == "" {
		return Session{}, errors.New("no AccessTokenEnc on record")
	}
	token, err := s.cipher.Open(rec.AccessTokenEnc)
	if err != nil {
		return Session{}, fmt.Errorf("failed to decrypt token: %w", err)
	}
	installed, _ := time.Parse(time.RFC3339, rec.InstalledAt)

	return Session{Shop: rec.Shop, AccessToken: token, Scope: rec.Scope, InstalledAt: installed}, nil
}

func (s *Store) Delete(ctx context.Context, shop string) error {
	_, err := s.ddb.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: db.ShopPK(shop)},
		},
	})
	return err
}

// RecordEvent stamps the last webhook seen for an installed shop. Missing shops are
// left alone.
func (s *Store) RecordEvent(ctx context.Context, shop, topic string) error {
	_, err := s.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: db.ShopPK(shop)},
		},
		ConditionExpression: aws.String("attribute_exists(PK)"),
		UpdateExpression:    aws.String("SET LastEventAt = :a, LastEventTopic = :t"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":a": &types.AttributeValueMemberS{Value: s.now().UTC().Format(time.RFC3339)},
			":t": &types.AttributeValueMemberS{Value: topic},
		},
	})
	if db.IsConditionFailed(err) {
		return nil
	}
	return err
}
