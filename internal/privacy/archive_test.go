package privacy_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chandanbangre/hikeonAssessment/internal/privacy"
)

type fakeS3 struct {
	keys   []string
	bodies [][]byte
	sse    []s3types.ServerSideEncryption
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.keys = append(f.keys, aws.ToString(in.Key))
	f.bodies = append(f.bodies, b)
	f.sse = append(f.sse, in.ServerSideEncryption)
	return &s3.PutObjectOutput{}, nil
}

func TestStore(t *testing.T) {
	f := &fakeS3{}
	a := &privacy.Archive{S3: f, Bucket: "privacy-bucket", Now: func() time.Time {
		return time.Date(2024, 2, 3, 23, 0, 0, 0, time.UTC)
	}}

	key, err := a.Store(context.Background(), privacy.TopicShopRedact, "demo.myshopify.com", "wh-1", []byte(`{"shop_id":1}`))
	require.NoError(t, err)
	assert.Equal(t, "privacy/shop_redact/dt=2024-02-03/shop=demo.myshopify.com/wh-1.json", key)
	assert.Equal(t, []string{key}, f.keys)
	assert.JSONEq(t, `{"shop_id":1}`, string(f.bodies[0]))
	assert.Equal(t, s3types.ServerSideEncryptionAes256, f.sse[0])
}

func TestStoreDisabled(t *testing.T) {
	key, err := (&privacy.Archive{}).Store(context.Background(), privacy.TopicCustomersRedact, "s", "id", nil)
	require.NoError(t, err)
	assert.Empty(t, key)
}

func TestIsPrivacyTopic(t *testing.T) {
	assert.True(t, privacy.IsPrivacyTopic("customers/data_request"))
	assert.False(t, privacy.IsPrivacyTopic("app/uninstalled"))
}
