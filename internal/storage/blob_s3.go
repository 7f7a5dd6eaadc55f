// Package storage implements blob persistence for story texts and images.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// Containers are key prefixes inside the single bucket, mirroring the
// historical story/image container split.
const (
	StoryContainer = "stories"
	ImageContainer = "images"
)

// BlobStore persists blobs and issues short-lived read URLs for them.
type BlobStore interface {
	Put(ctx context.Context, data []byte, contentType, container, name string) error
	SignedURL(ctx context.Context, container, name string, ttl time.Duration) (string, error)
}

// S3Config configures the S3 blob store.
type S3Config struct {
	Endpoint        string // empty = AWS default resolution
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
}

type s3Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	logger  *zap.Logger
}

// NewS3Store creates the blob store client. The client is built once at
// process start and shared by all requests.
func NewS3Store(ctx context.Context, cfg S3Config, logger *zap.Logger) (BlobStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is not configured")
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, errors.New("s3 credentials are not configured")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &s3Store{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		logger:  logger.Named("BlobStore"),
	}, nil
}

func objectKey(container, name string) string {
	return container + "/" + name
}

func (s *s3Store) Put(ctx context.Context, data []byte, contentType, container, name string) error {
	key := objectKey(container, name)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		s.logger.Error("Blob upload failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("put blob %s: %w", key, err)
	}
	s.logger.Debug("Blob uploaded", zap.String("key", key), zap.Int("size_bytes", len(data)))
	return nil
}

func (s *s3Store) SignedURL(ctx context.Context, container, name string, ttl time.Duration) (string, error) {
	key := objectKey(container, name)
	result, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign blob %s: %w", key, err)
	}
	return result.URL, nil
}
