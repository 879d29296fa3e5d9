package share

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CaptShanks/tfreview/internal/settings"
)

type fakePutObject struct {
	input *s3.PutObjectInput
	err   error
}

func (f *fakePutObject) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestUpload(t *testing.T) {
	fake := &fakePutObject{}
	cfg := settings.ShareSettings{Bucket: "team-plans", Prefix: "reviews", Region: "eu-west-1"}

	url, err := upload(context.Background(), fake, cfg, "staging", []byte("<html></html>"))
	require.NoError(t, err)

	require.NotNil(t, fake.input)
	assert.Equal(t, "team-plans", *fake.input.Bucket)
	assert.True(t, strings.HasPrefix(*fake.input.Key, "reviews/staging-"), "key = %s", *fake.input.Key)
	assert.True(t, strings.HasSuffix(*fake.input.Key, ".html"))
	assert.Equal(t, "text/html; charset=utf-8", *fake.input.ContentType)

	body, err := io.ReadAll(fake.input.Body)
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(body))

	assert.True(t, strings.HasPrefix(url, "https://team-plans.s3.eu-west-1.amazonaws.com/reviews/staging-"), "url = %s", url)
}

func TestUploadNoRegionURL(t *testing.T) {
	fake := &fakePutObject{}
	cfg := settings.ShareSettings{Bucket: "b"}

	url, err := upload(context.Background(), fake, cfg, "", nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://b.s3.amazonaws.com/plan-"), "url = %s", url)
}

func TestObjectKey(t *testing.T) {
	key := objectKey("/nested/prefix/", "web.html")
	assert.True(t, strings.HasPrefix(key, "nested/prefix/web-"), "key = %s", key)
}

func TestNewRequiresBucket(t *testing.T) {
	_, err := New(context.Background(), settings.ShareSettings{})
	assert.ErrorContains(t, err, "share.bucket")
}
