package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bookrag/bookrag/internal/config"
	"github.com/bookrag/bookrag/internal/database/duckdb"
	"github.com/bookrag/bookrag/internal/schema"
	"github.com/bookrag/bookrag/internal/storage"
)

// Connect opens the configured bookstore database and reports its SQL dialect.
// store may be nil when no CSV table is sourced from the object store.
func Connect(ctx context.Context, cfg config.DatabaseConfig, store storage.ObjectStore) (*sql.DB, string, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := Open(ctx, DBConfig{
			DSN:             cfg.PostgresDSN(),
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxIdleTime: cfg.ConnMaxIdleTime,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
		})
		if err != nil {
			return nil, "", err
		}
		return db, schema.DialectPostgres, nil
	case config.DriverDuckDB:
		tables, err := cfg.CSVTableMap()
		if err != nil {
			return nil, "", err
		}
		db, err := duckdb.OpenCSV(ctx, tables, duckdb.WithObjectStore(store))
		if err != nil {
			return nil, "", err
		}
		return db, schema.DialectDuckDB, nil
	default:
		return nil, "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
