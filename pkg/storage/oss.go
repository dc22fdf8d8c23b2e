package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"

	"github.com/noah-isme/referral-api/pkg/config"
)

// OSSStorage stores objects in an Aliyun OSS bucket.
type OSSStorage struct {
	bucket     *oss.Bucket
	bucketName string
	endpoint   string
	publicBase string
}

// NewOSSStorage builds a bucket handle from configuration. No request is made
// until the first Put or Delete.
func NewOSSStorage(cfg config.StorageConfig) (*OSSStorage, error) {
	client, err := oss.New(cfg.OSS.Endpoint, cfg.OSS.AccessKeyID, cfg.OSS.AccessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("oss client: %w", err)
	}
	bucket, err := client.Bucket(cfg.OSS.Bucket)
	if err != nil {
		return nil, fmt.Errorf("oss bucket %s: %w", cfg.OSS.Bucket, err)
	}
	return &OSSStorage{
		bucket:     bucket,
		bucketName: cfg.OSS.Bucket,
		endpoint:   cfg.OSS.Endpoint,
		publicBase: cfg.PublicBaseURL,
	}, nil
}

// Put uploads body under key with the given content type.
func (s *OSSStorage) Put(ctx context.Context, key string, body io.Reader, _ int64, contentType string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	opts := []oss.Option{oss.WithContext(ctx)}
	if contentType != "" {
		opts = append(opts, oss.ContentType(contentType))
	}
	if err := s.bucket.PutObject(key, body, opts...); err != nil {
		return fmt.Errorf("oss put %s: %w", key, err)
	}
	return nil
}

// Delete removes the object under key.
func (s *OSSStorage) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := s.bucket.DeleteObject(key, oss.WithContext(ctx)); err != nil {
		return fmt.Errorf("oss delete %s: %w", key, err)
	}
	return nil
}

// URL returns the public object URL, preferring the configured CDN/base URL.
func (s *OSSStorage) URL(key string) string {
	if s.publicBase != "" {
		return joinURL(s.publicBase, key)
	}
	host := strings.TrimPrefix(strings.TrimPrefix(s.endpoint, "https://"), "http://")
	return joinURL(fmt.Sprintf("https://%s.%s", s.bucketName, strings.TrimRight(host, "/")), key)
}
