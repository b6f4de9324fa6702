package duckdb

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/bookrag/bookrag/internal/storage"
)

const storeOneCSV = `author_name,bookName,stars,published_by,price
Frank Herbert,Dune,4.5,Chilton,9.99
Ursula K. Le Guin,The Dispossessed,4.2,Harper,12.5
`

func TestOpenCSVExposesBaseTables(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bookstore_one.csv")
	if err := os.WriteFile(path, []byte(storeOneCSV), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	db, err := OpenCSV(context.Background(), map[string]string{"book_store_one": path})
	if err != nil {
		t.Fatalf("OpenCSV() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	var count int64
	if err := db.QueryRow(`SELECT COUNT(*) FROM book_store_one WHERE "price" > 10`).Scan(&count); err != nil {
		t.Fatalf("QueryRow() error = %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}

	var tableType string
	if err := db.QueryRow(`SELECT table_type FROM information_schema.tables WHERE table_name = 'book_store_one'`).Scan(&tableType); err != nil {
		t.Fatalf("information_schema query error = %v", err)
	}
	if tableType != "BASE TABLE" {
		t.Fatalf("table_type = %q", tableType)
	}
}

func TestOpenCSVFetchesFromObjectStore(t *testing.T) {
	store := &memoryStore{objects: map[string][]byte{"datasets/one.csv": []byte(storeOneCSV)}}
	db, err := OpenCSV(context.Background(), map[string]string{"book_store_one": ObjectScheme + "datasets/one.csv"}, WithObjectStore(store))
	if err != nil {
		t.Fatalf("OpenCSV() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	var title string
	if err := db.QueryRow(`SELECT "bookName" FROM book_store_one ORDER BY "price" LIMIT 1`).Scan(&title); err != nil {
		t.Fatalf("QueryRow() error = %v", err)
	}
	if title != "Dune" {
		t.Fatalf("title = %q", title)
	}
}

func TestOpenCSVRequiresStoreForObjectSources(t *testing.T) {
	_, err := OpenCSV(context.Background(), map[string]string{"t": ObjectScheme + "x.csv"})
	if err == nil {
		t.Fatal("expected error without object store")
	}
}

func TestOpenCSVRequiresTables(t *testing.T) {
	if _, err := OpenCSV(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty table map")
	}
}

type memoryStore struct {
	objects map[string][]byte
}

func (m *memoryStore) Put(_ context.Context, key string, body io.Reader, size int64, _ storage.PutOptions) (storage.ObjectInfo, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	m.objects[key] = data
	return storage.ObjectInfo{Key: key, Size: size}, nil
}

func (m *memoryStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
