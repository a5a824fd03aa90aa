// Package privacy stores mandatory privacy webhook payloads in S3.
package privacy

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

const (
	TopicCustomersDataRequest = "customers/data_request"
	TopicCustomersRedact      = "customers/redact"
	TopicShopRedact           = "shop/redact"
)

var Topics = []string{TopicCustomersDataRequest, TopicCustomersRedact, TopicShopRedact}

func IsPrivacyTopic(topic string) bool {
	for _, t := range Topics {
		if t == topic {
			return true
		}
	}
	return false
}

type Putter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Archive struct {
	S3     Putter
	Bucket string
	Now    func() time.Time
}

func (a *Archive) Enabled() bool {
	return a != nil && a.S3 != nil && strings.TrimSpace(a.Bucket) != ""
}

// Key lays payloads out as privacy/<topic>/dt=YYYY-MM-DD/shop=<shop>/<id>.json.
func Key(topic, shop, webhookID string, at time.Time) string {
	if webhookID == "" {
		webhookID = uuid.NewString()
	}
	return fmt.Sprintf("privacy/%s/dt=%s/shop=%s/%s.json",
		strings.ReplaceAll(topic, "/", "_"),
		at.UTC().Format("2006-01-02"),
		shop,
		webhookID,
	)
}

// Store writes payload and returns its key. A disabled archive stores nothing.
func (a *Archive) Store(ctx context.Context, topic, shop, webhookID string, payload []byte) (string, error) {
	if !a.Enabled() {
		return "", nil
	}
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	key := Key(topic, shop, webhookID, now())

	_, err := a.S3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:               aws.String(a.Bucket),
		Key:                  aws.String(key),
		Body:                 bytes.NewReader(payload),
		ContentType:          aws.String("application/json"),
		ACL:                  s3types.ObjectCannedACLPrivate,
		ServerSideEncryption: s3types.ServerSideEncryptionAes256,
	})
	if err != nil {
		return "", fmt.Errorf("s3 putobject failed: %w", err)
	}
	return key, nil
}
