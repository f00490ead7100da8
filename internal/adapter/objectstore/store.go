// Package objectstore loads the advisory document from S3-compatible storage.
package objectstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"

	"github.com/ernestobalbinse/HurriAid/internal/domain"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// defaultRegion skips the bucket location lookup on every request.
const defaultRegion = "us-east-1"

// maxAdvisoryBytes bounds how much of the object is read.
const maxAdvisoryBytes = 1 << 20

// Options configures the object store connection.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Key       string
	UseSSL    bool
	Region    string
}

// Store reads the advisory object from a bucket.
type Store struct {
	client *minio.Client
	bucket string
	key    string
	logger *slog.Logger
}

// New creates a MinIO client for the configured endpoint.
func New(opts Options, logger *slog.Logger) (*Store, error) {
	region := opts.Region
	if region == "" {
		region = defaultRegion
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &Store{client: client, bucket: opts.Bucket, key: opts.Key, logger: logger}, nil
}

// LoadAdvisory downloads and validates the advisory object.
func (s *Store) LoadAdvisory(ctx context.Context) (domain.Advisory, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key, minio.GetObjectOptions{})
	if err != nil {
		return domain.Advisory{}, fmt.Errorf("get advisory object: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(io.LimitReader(obj, maxAdvisoryBytes))
	if err != nil {
		return domain.Advisory{}, fmt.Errorf("read s3://%s/%s: %w", s.bucket, s.key, err)
	}
	sum := sha256.Sum256(data)
	s.logger.Debug("advisory object loaded",
		"bucket", s.bucket,
		"key", s.key,
		"sha256", hex.EncodeToString(sum[:]),
		"bytes", len(data),
	)

	adv, err := domain.ParseAdvisory(data)
	if err != nil {
		return domain.Advisory{}, fmt.Errorf("s3://%s/%s: %w", s.bucket, s.key, err)
	}
	return adv, nil
}
