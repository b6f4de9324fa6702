package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/bookrag/bookrag/internal/storage"
)

// ObjectScheme marks a CSV source that lives in the object store rather than
// on local disk, e.g. "store://datasets/Corner_Books/x.csv".
const ObjectScheme = "store://"

type options struct {
	store storage.ObjectStore
}

type Option func(*options)

func WithObjectStore(store storage.ObjectStore) Option {
	return func(o *options) { o.store = store }
}

// OpenCSV opens an in-memory DuckDB database with one base table per CSV file,
// so the pipeline can run without a PostgreSQL server. Column types are
// inferred by read_csv_auto.
func OpenCSV(ctx context.Context, tables map[string]string, opts ...Option) (*sql.DB, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("at least one csv table is required")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	workDir, err := os.MkdirTemp("", "bookrag-duckdb-")
	if err != nil {
		return nil, fmt.Errorf("create duckdb temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		source := tables[name]
		localPath, err := resolveSource(ctx, o.store, workDir, name, source)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		createSQL := fmt.Sprintf(`CREATE TABLE %s AS SELECT * FROM read_csv_auto(%s, header = true)`, quoteIdent(name), quoteString(localPath))
		if _, err := db.ExecContext(ctx, createSQL); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("load csv %q into table %q: %w", source, name, err)
		}
	}
	return db, nil
}

func resolveSource(ctx context.Context, store storage.ObjectStore, workDir, table, source string) (string, error) {
	if !strings.HasPrefix(source, ObjectScheme) {
		return source, nil
	}
	if store == nil {
		return "", fmt.Errorf("table %q reads from the object store but none is configured", table)
	}
	key := strings.TrimPrefix(source, ObjectScheme)
	localPath := filepath.Join(workDir, sanitizeFileComponent(table)+".csv")
	if err := storage.DownloadFile(ctx, store, key, localPath); err != nil {
		return "", fmt.Errorf("fetch csv %q for table %q: %w", key, table, err)
	}
	return localPath, nil
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

func quoteString(value string) string {
	return `'` + strings.ReplaceAll(value, `'`, `''`) + `'`
}

func sanitizeFileComponent(value string) string {
	value = strings.ReplaceAll(value, "/", "_")
	value = strings.ReplaceAll(value, "..", "_")
	if value == "" {
		return "table"
	}
	return value
}
