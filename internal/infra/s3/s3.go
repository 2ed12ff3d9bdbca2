// Package s3 is the MinIO-backed blob store used in development and
// self-hosted deployments. Unlike the hosted image API, S3 assigns no
// id of its own, so objects are keyed by a generated UUID.
package s3

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	mediasvc "github.com/chronon/photochron/internal/services/media"
)

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type Storage struct {
	client *minio.Client
	bucket string
}

func NewStorage(cfg Config) (*Storage, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}

	return &Storage{client: client, bucket: cfg.Bucket}, nil
}

func (s *Storage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	return nil
}

func (s *Storage) Upload(ctx context.Context, up mediasvc.BlobUpload) (mediasvc.BlobInfo, error) {
	if err := s.EnsureBucket(ctx); err != nil {
		return mediasvc.BlobInfo{}, fmt.Errorf("%w: %v", mediasvc.ErrBlobStoreUnavailable, err)
	}

	id := uuid.NewString()

	metadata := make(map[string]string, len(up.Metadata)+1)
	for k, v := range up.Metadata {
		metadata[k] = v
	}
	metadata["filename"] = up.Filename

	_, err := s.client.PutObject(ctx, s.bucket, id, up.Body, up.Size, minio.PutObjectOptions{
		ContentType:  up.ContentType,
		UserMetadata: metadata,
	})
	if err != nil {
		return mediasvc.BlobInfo{}, fmt.Errorf("%w: put object: %v", mediasvc.ErrBlobStoreUnavailable, err)
	}

	return mediasvc.BlobInfo{ID: id, Filename: up.Filename}, nil
}

func (s *Storage) Delete(ctx context.Context, id string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, id, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("%w: remove object: %v", mediasvc.ErrBlobStoreUnavailable, err)
	}
	return nil
}
