// Package share uploads rendered plan reviews to S3 so they can be linked
// from pull requests and chat.
package share

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/CaptShanks/tfreview/internal/settings"
)

// Uploader pushes report documents to a configured S3 bucket.
type Uploader struct {
	client *s3.Client
	cfg    settings.ShareSettings
}

// putObjectAPI matches the single S3 call Upload needs; it lets tests swap
// the client.
type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// New builds an Uploader from share settings. The bucket must be configured;
// credentials come from the default AWS chain.
func New(ctx context.Context, cfg settings.ShareSettings) (*Uploader, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("share.bucket is not configured (see ~/.tfreview/settings.yaml)")
	}

	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config, %v", err)
	}

	return &Uploader{client: s3.NewFromConfig(awsCfg), cfg: cfg}, nil
}

// Upload stores an HTML report and returns its object URL.
func (u *Uploader) Upload(ctx context.Context, name string, report []byte) (string, error) {
	return upload(ctx, u.client, u.cfg, name, report)
}

func upload(ctx context.Context, client putObjectAPI, cfg settings.ShareSettings, name string, report []byte) (string, error) {
	key := objectKey(cfg.Prefix, name)

	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(report),
		ContentType: aws.String("text/html; charset=utf-8"),
	})
	if err != nil {
		var ae smithy.APIError
		if errors.As(err, &ae) {
			return "", fmt.Errorf("uploading to s3://%s/%s: %s: %s", cfg.Bucket, key, ae.ErrorCode(), ae.ErrorMessage())
		}
		return "", fmt.Errorf("uploading to s3://%s/%s: %w", cfg.Bucket, key, err)
	}

	region := cfg.Region
	if region == "" {
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", cfg.Bucket, key), nil
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", cfg.Bucket, region, key), nil
}

// objectKey builds a collision-resistant key from the prefix, the review
// name, and the upload time.
func objectKey(prefix, name string) string {
	name = strings.TrimSuffix(name, ".html")
	if name == "" {
		name = "plan"
	}
	stamped := fmt.Sprintf("%s-%s.html", name, time.Now().Format("2006-01-02-150405"))
	return path.Join(strings.Trim(prefix, "/"), stamped)
}
