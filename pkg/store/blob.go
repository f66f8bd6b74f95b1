// pkg/store/blob.go
package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/datapraxis/medallion/pkg/config"
)

// BlobStore is the object storage surface the pipeline depends on. Each
// layer (sources, silver, gold) lives in its own bucket of delimited-text
// objects.
type BlobStore interface {
	// Get reads the full contents of an object
	Get(ctx context.Context, bucket, name string) ([]byte, error)

	// Put writes an object, replacing any previous version
	Put(ctx context.Context, bucket, name string, data []byte) error

	// Exists reports whether a bucket exists
	Exists(ctx context.Context, bucket string) (bool, error)

	// Create creates a bucket
	Create(ctx context.Context, bucket string) error
}

// MinioStore implements BlobStore against a MinIO (or any S3-compatible)
// endpoint
type MinioStore struct {
	client *minio.Client
	logger *zap.Logger
}

// NewMinioStore creates a MinIO-backed blob store
func NewMinioStore(cfg *config.MinioConfig, logger *zap.Logger) (*MinioStore, error) {
	if cfg == nil {
		return nil, errors.New("minio configuration cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinioStore{client: client, logger: logger}, nil
}

// Get reads the full contents of an object
func (s *MinioStore) Get(ctx context.Context, bucket, name string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s/%s: %w", bucket, name, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s/%s: %w", bucket, name, err)
	}
	return data, nil
}

// Put writes an object, replacing any previous version
func (s *MinioStore) Put(ctx context.Context, bucket, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, bucket, name, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "text/csv"})
	if err != nil {
		return fmt.Errorf("failed to put object %s/%s: %w", bucket, name, err)
	}

	s.logger.Debug("Wrote object",
		zap.String("bucket", bucket),
		zap.String("object", name),
		zap.Int("bytes", len(data)),
	)
	return nil
}

// Exists reports whether a bucket exists
func (s *MinioStore) Exists(ctx context.Context, bucket string) (bool, error) {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return false, fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}
	return exists, nil
}

// Create creates a bucket
func (s *MinioStore) Create(ctx context.Context, bucket string) error {
	if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}
	s.logger.Info("Created bucket", zap.String("bucket", bucket))
	return nil
}

// EnsureBucket creates the bucket when it does not already exist
func EnsureBucket(ctx context.Context, blobs BlobStore, bucket string) error {
	exists, err := blobs.Exists(ctx, bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return blobs.Create(ctx, bucket)
}
