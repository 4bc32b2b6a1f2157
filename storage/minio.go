// Package storage holds the object store adapter for release binaries
// (audio masters and artwork).
package storage

import (
	"context"
	"fmt"
	"time"

	"digitalsight/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectStore is the blob storage contract the workflow core depends on.
// ListAll is one level of a folder-like namespace: direct objects under the
// prefix plus the sub-prefixes below it.
type ObjectStore interface {
	ListAll(ctx context.Context, prefix string) (items []ObjectInfo, prefixes []string, err error)
	DeleteObject(ctx context.Context, key string) error
}

// MinioStore implements ObjectStore on a MinIO bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore connects to MinIO and ensures the bucket exists.
func NewMinioStore(cfg *config.Config) (*MinioStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		err = client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{
			Region: cfg.MinioRegion,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &MinioStore{client: client, bucket: cfg.MinioBucket}, nil
}

// ListAll lists one level under prefix: objects and sub-prefixes.
func (m *MinioStore) ListAll(ctx context.Context, prefix string) ([]ObjectInfo, []string, error) {
	var items []ObjectInfo
	var prefixes []string

	objectCh := m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: false,
	})
	for object := range objectCh {
		if object.Err != nil {
			return nil, nil, fmt.Errorf("failed to list objects under %s: %w", prefix, object.Err)
		}
		// Non-recursive listings report folders as zero-size entries ending in "/".
		if len(object.Key) > 0 && object.Key[len(object.Key)-1] == '/' {
			prefixes = append(prefixes, object.Key)
			continue
		}
		items = append(items, ObjectInfo{
			Key:          object.Key,
			Size:         object.Size,
			LastModified: object.LastModified,
		})
	}

	return items, prefixes, nil
}

// DeleteObject removes a single object from the bucket.
func (m *MinioStore) DeleteObject(ctx context.Context, key string) error {
	return m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{})
}
