// Package storage stores fabric images and user photos in S3 compatible object storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/fabric-fusion/fabric-fusion/pkg/config"
	"github.com/fabric-fusion/fabric-fusion/pkg/logging"
)

// ImageStore uploads images and hands out their public URLs.
type ImageStore interface {
	// Put uploads (or overwrites) the object at key and returns its public URL.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
	// KeyFromURL returns the key of an object previously served at publicURL, or "".
	KeyFromURL(publicURL string) string
}

// MinioStore implements ImageStore for MinIO/S3 compatible storage.
type MinioStore struct {
	client        *minio.Client
	bucket        string
	publicBaseURL string
	logger        *zap.Logger
}

const publicReadPolicy = `{
  "Version": "2012-10-17",
  "Statement": [{
    "Effect": "Allow",
    "Principal": {"AWS": ["*"]},
    "Action": ["s3:GetObject"],
    "Resource": ["arn:aws:s3:::%s/*"]
  }]
}`

// NewMinioStore connects to MinIO, ensures the bucket exists and makes its
// objects publicly readable.
func NewMinioStore(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
		logger.Info("Created storage bucket", zap.String("bucket", cfg.Bucket))
	}

	if err := client.SetBucketPolicy(ctx, cfg.Bucket, fmt.Sprintf(publicReadPolicy, cfg.Bucket)); err != nil {
		return nil, fmt.Errorf("set bucket policy: %w", err)
	}

	return &MinioStore{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
		logger:        logger.Named("storage"),
	}, nil
}

// Put uploads an object, replacing any existing object with the same key.
func (m *MinioStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "max-age=3600",
	})
	if err != nil {
		m.logger.Error("Failed to upload object",
			zap.String("key", key),
			zap.String("error", logging.SanitizeError(err)))
		return "", fmt.Errorf("put object: %w", err)
	}
	return m.PublicURL(key), nil
}

// Delete removes an object.
func (m *MinioStore) Delete(ctx context.Context, key string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// Ping checks that the bucket is reachable.
func (m *MinioStore) Ping(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", m.bucket)
	}
	return nil
}

// PublicURL returns the externally reachable URL of key.
func (m *MinioStore) PublicURL(key string) string {
	return PublicObjectURL(m.publicBaseURL, m.bucket, key)
}

// KeyFromURL returns the key behind a URL returned by Put, or "" for foreign URLs.
func (m *MinioStore) KeyFromURL(publicURL string) string {
	if !strings.HasPrefix(publicURL, m.publicBaseURL+"/") {
		return ""
	}
	key := KeyFromURL(publicURL, m.bucket)
	if unescaped, err := url.PathUnescape(key); err == nil {
		return unescaped
	}
	return key
}

// PublicObjectURL joins base, bucket and key into a path-style object URL.
func PublicObjectURL(base, bucket, key string) string {
	return strings.TrimSuffix(base, "/") + "/" + url.PathEscape(bucket) + "/" + escapeKey(key)
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

// Ensure MinioStore implements ImageStore at compile time.
var _ ImageStore = (*MinioStore)(nil)
