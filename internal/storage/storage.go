package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

var ErrObjectNotFound = errors.New("object not found")

type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	LastModified time.Time
}

type PutOptions struct {
	ContentType string
	// Metadata is stored alongside the object. Keys are lower-cased.
	Metadata map[string]string
}

// ObjectStore archives generated datasets and evaluation reports and serves
// CSV tables to the offline DuckDB database.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, opts PutOptions) (ObjectInfo, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// UploadFile copies a local file to key.
func UploadFile(ctx context.Context, store ObjectStore, key, localPath string, opts PutOptions) (ObjectInfo, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("open %q: %w", localPath, err)
	}
	defer func() { _ = file.Close() }()

	stat, err := file.Stat()
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("stat %q: %w", localPath, err)
	}
	return store.Put(ctx, key, file, stat.Size(), opts)
}

// DownloadFile writes the object at key to localPath.
func DownloadFile(ctx context.Context, store ObjectStore, key, localPath string) error {
	reader, err := store.Get(ctx, key)
	if err != nil {
		return err
	}
	defer func() { _ = reader.Close() }()

	file, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("create %q: %w", localPath, err)
	}
	if _, err := io.Copy(file, reader); err != nil {
		_ = file.Close()
		return fmt.Errorf("write %q: %w", localPath, err)
	}
	return file.Close()
}
