package storage

import (
	"context"
	"fmt"
	"io"

	"bookline-api/core/config"
	"bookline-api/core/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Uploader stores user-uploaded files in an S3-compatible bucket.
type Uploader struct {
	client *s3.Client
	bucket string
	base   string
}

// NewUploader returns nil when object storage is not configured; callers
// treat a nil uploader as "feature disabled".
func NewUploader(cfg *config.Config) *Uploader {
	if cfg.S3.Bucket == "" || cfg.S3.AccessKey == "" || cfg.S3.SecretKey == "" {
		logger.Info("Storage:S3:Disabled", "reason", "bucket or credentials not configured")
		return nil
	}

	opts := s3.Options{
		Region:      cfg.S3.Region,
		Credentials: credentials.NewStaticCredentialsProvider(cfg.S3.AccessKey, cfg.S3.SecretKey, ""),
	}

	base := fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3.Bucket, cfg.S3.Region)
	if cfg.S3.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.S3.Endpoint)
		opts.UsePathStyle = true
		base = fmt.Sprintf("%s/%s", cfg.S3.Endpoint, cfg.S3.Bucket)
	}

	return &Uploader{
		client: s3.New(opts),
		bucket: cfg.S3.Bucket,
		base:   base,
	}
}

// Upload writes the object and returns its public URL.
func (u *Uploader) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		logger.Error("Storage:S3:Upload:Error", "error", err, "key", key)
		return "", err
	}

	return fmt.Sprintf("%s/%s", u.base, key), nil
}
