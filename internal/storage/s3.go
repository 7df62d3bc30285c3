package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pageza/foodgram/backend/config"
)

// ObjectAPI is the subset of the S3 client used for image storage.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Storage implements Storage for S3 and S3-compatible services.
type S3Storage struct {
	client  ObjectAPI
	bucket  string
	baseURL string
}

// NewS3Storage builds storage over an initialized S3 client config.
func NewS3Storage(cfg *config.S3Config) *S3Storage {
	return NewS3StorageWithClient(cfg.Client, cfg)
}

// NewS3StorageWithClient uses the given client with the bucket settings of cfg.
func NewS3StorageWithClient(client ObjectAPI, cfg *config.S3Config) *S3Storage {
	return &S3Storage{
		client:  client,
		bucket:  cfg.BucketName,
		baseURL: objectBaseURL(cfg),
	}
}

// objectBaseURL is the prefix public object URLs are built from.
func objectBaseURL(cfg *config.S3Config) string {
	switch {
	case cfg.PublicURL != "":
		return strings.TrimSuffix(cfg.PublicURL, "/")
	case cfg.Endpoint != "" && cfg.PathStyle:
		return strings.TrimSuffix(cfg.Endpoint, "/") + "/" + cfg.BucketName
	case cfg.Endpoint != "":
		return strings.TrimSuffix(cfg.Endpoint, "/")
	case cfg.Region != "":
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.BucketName, cfg.Region)
	default:
		return fmt.Sprintf("https://%s.s3.amazonaws.com", cfg.BucketName)
	}
}

func (s *S3Storage) Write(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   r,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}

func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object from S3: %w", err)
	}
	return nil
}

func (s *S3Storage) URL(key string) string {
	if key == "" {
		return ""
	}
	return s.baseURL + "/" + strings.TrimPrefix(key, "/")
}
