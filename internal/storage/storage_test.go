package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

type memoryStore struct {
	objects map[string][]byte
	types   map[string]string
}

func (m *memoryStore) Put(_ context.Context, key string, body io.Reader, size int64, opts PutOptions) (ObjectInfo, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return ObjectInfo{}, err
	}
	if m.objects == nil {
		m.objects = map[string][]byte{}
		m.types = map[string]string{}
	}
	m.objects[key] = data
	m.types[key] = opts.ContentType
	return ObjectInfo{Key: key, Size: size}, nil
}

func (m *memoryStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func TestUploadAndDownloadFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "store.csv")
	if err := os.WriteFile(src, []byte("title,price\nDune,9.5\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	store := &memoryStore{}
	info, err := UploadFile(context.Background(), store, "datasets/store.csv", src, PutOptions{ContentType: "text/csv"})
	if err != nil {
		t.Fatalf("UploadFile() error = %v", err)
	}
	if info.Size != 21 || store.types["datasets/store.csv"] != "text/csv" {
		t.Fatalf("info = %+v types = %#v", info, store.types)
	}

	dst := filepath.Join(dir, "copy.csv")
	if err := DownloadFile(context.Background(), store, "datasets/store.csv", dst); err != nil {
		t.Fatalf("DownloadFile() error = %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(got) != "title,price\nDune,9.5\n" {
		t.Fatalf("downloaded = %q", got)
	}
}

func TestDownloadFileMissingObject(t *testing.T) {
	err := DownloadFile(context.Background(), &memoryStore{}, "nope.csv", filepath.Join(t.TempDir(), "x"))
	if err != ErrObjectNotFound {
		t.Fatalf("DownloadFile() error = %v", err)
	}
}
