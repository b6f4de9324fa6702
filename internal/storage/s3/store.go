// Package s3 stores generated datasets and evaluation reports in an
// S3-compatible bucket through minio-go.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/bookrag/bookrag/internal/storage"
)

type Config struct {
	Endpoint         string
	Region           string
	Bucket           string
	AccessKeyID      string
	SecretAccessKey  string
	UseSSL           bool
	Prefix           string
	AutoCreateBucket bool
}

type objectAPI interface {
	Put(ctx context.Context, bucket, key string, body io.Reader, size int64, opts storage.PutOptions) (storage.ObjectInfo, error)
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	BucketExists(ctx context.Context, bucket string) (bool, error)
	CreateBucket(ctx context.Context, bucket, region string) error
}

type Store struct {
	api    objectAPI
	bucket string
	keys   keyspace
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	api, err := dial(cfg)
	if err != nil {
		return nil, err
	}
	store, err := NewWithClient(cfg.Bucket, cfg.Prefix, api)
	if err != nil {
		return nil, err
	}
	if cfg.AutoCreateBucket {
		if err := store.ensureBucket(ctx, strings.TrimSpace(cfg.Region)); err != nil {
			return nil, err
		}
	}
	return store, nil
}

func NewWithClient(bucket, prefix string, api objectAPI) (*Store, error) {
	if api == nil {
		return nil, fmt.Errorf("client is required")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	return &Store{api: api, bucket: bucket, keys: newKeyspace(prefix)}, nil
}

func (s *Store) Put(ctx context.Context, key string, body io.Reader, size int64, opts storage.PutOptions) (storage.ObjectInfo, error) {
	objectKey, err := s.keys.resolve(key)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	metadata, err := normalizeMetadata(opts.Metadata)
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("put object %q: %w", objectKey, err)
	}
	opts.Metadata = metadata

	info, err := s.api.Put(ctx, s.bucket, objectKey, body, size, opts)
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("put object %q: %w", objectKey, err)
	}
	info.Key = s.keys.strip(info.Key)
	return info, nil
}

func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	objectKey, err := s.keys.resolve(key)
	if err != nil {
		return nil, err
	}
	body, err := s.api.Get(ctx, s.bucket, objectKey)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, storage.ErrObjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get object %q: %w", objectKey, err)
	}
	return body, nil
}

func (s *Store) ensureBucket(ctx context.Context, region string) error {
	exists, err := s.api.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.api.CreateBucket(ctx, s.bucket, region); err != nil {
		return fmt.Errorf("create bucket %q: %w", s.bucket, err)
	}
	return nil
}

// keyspace maps logical keys such as eval/<run>/results.csv onto the
// configured bucket prefix.
type keyspace struct {
	prefix string
}

func newKeyspace(prefix string) keyspace {
	prefix = strings.TrimSpace(strings.Trim(prefix, "/"))
	if prefix == "" || path.Clean(prefix) == "." {
		return keyspace{}
	}
	return keyspace{prefix: path.Clean(prefix)}
}

func (k keyspace) resolve(key string) (string, error) {
	trimmed := strings.TrimSpace(strings.TrimPrefix(key, "/"))
	if trimmed == "" {
		return "", fmt.Errorf("object key is required")
	}
	cleaned := path.Clean(trimmed)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("invalid object key: %q", key)
	}
	if k.prefix == "" {
		return cleaned, nil
	}
	return k.prefix + "/" + cleaned, nil
}

func (k keyspace) strip(objectKey string) string {
	if k.prefix == "" {
		return objectKey
	}
	return strings.TrimPrefix(objectKey, k.prefix+"/")
}

func normalizeMetadata(in map[string]string) (map[string]string, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		name := strings.ToLower(strings.TrimSpace(key))
		if name == "" || strings.ContainsAny(name, " :\t\r\n") {
			return nil, fmt.Errorf("invalid metadata key %q", key)
		}
		out[name] = value
	}
	return out, nil
}

func dial(cfg Config) (*minioAPI, error) {
	endpoint, secure, err := parseEndpoint(cfg.Endpoint, cfg.UseSSL)
	if err != nil {
		return nil, err
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: secure,
		Region: strings.TrimSpace(cfg.Region),
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}
	return &minioAPI{client: client}, nil
}

// parseEndpoint accepts host:port or a full URL; an https scheme forces TLS.
func parseEndpoint(raw string, useSSL bool) (string, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, fmt.Errorf("endpoint is required")
	}
	if !strings.Contains(raw, "://") {
		return raw, useSSL, nil
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", false, fmt.Errorf("parse endpoint URL: %w", err)
	}
	if parsed.Host == "" {
		return "", false, fmt.Errorf("endpoint host is required")
	}
	switch parsed.Scheme {
	case "https":
		return parsed.Host, true, nil
	case "http":
		return parsed.Host, useSSL, nil
	default:
		return "", false, fmt.Errorf("unsupported endpoint scheme %q", parsed.Scheme)
	}
}

type minioAPI struct {
	client *minio.Client
}

func (m *minioAPI) Put(ctx context.Context, bucket, key string, body io.Reader, size int64, opts storage.PutOptions) (storage.ObjectInfo, error) {
	uploaded, err := m.client.PutObject(ctx, bucket, key, body, size, minio.PutObjectOptions{
		ContentType:  opts.ContentType,
		UserMetadata: opts.Metadata,
	})
	if err != nil {
		return storage.ObjectInfo{}, notFound(err)
	}
	return storage.ObjectInfo{
		Key:          uploaded.Key,
		Size:         uploaded.Size,
		ETag:         uploaded.ETag,
		LastModified: uploaded.LastModified,
	}, nil
}

func (m *minioAPI) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obj, err := m.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, notFound(err)
	}
	// GetObject is lazy; Stat surfaces a missing key before the caller reads.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, notFound(err)
	}
	return obj, nil
}

func (m *minioAPI) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return m.client.BucketExists(ctx, bucket)
}

func (m *minioAPI) CreateBucket(ctx context.Context, bucket, region string) error {
	return m.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region})
}

func notFound(err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return storage.ErrObjectNotFound
	}
	return err
}
