// Package migrations owns the bookstore tables. Scripts are embedded and
// applied in version order, each inside its own transaction.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

//go:embed sql/*.sql
var scripts embed.FS

const migrationTable = "bookrag_schema_migrations"

var scriptName = regexp.MustCompile(`^([0-9]+)_(.+)\.(up|down)\.sql$`)

type Runner struct {
	fsys   fs.FS
	logger *slog.Logger
}

type Option func(*Runner)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

func NewRunner(opts ...Option) *Runner {
	r := &Runner{fsys: scripts}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) log() *slog.Logger {
	if r.logger == nil {
		return slog.Default()
	}
	return r.logger
}

// Status describes one known migration and whether it has been applied.
type Status struct {
	Version int64
	Name    string
	Applied bool
}

type migration struct {
	Version int64
	Name    string
	Up      string
	Down    string
}

// Up applies pending migrations. steps <= 0 applies all of them.
func (r *Runner) Up(ctx context.Context, db *sql.DB, steps int) (int, error) {
	known, err := loadMigrations(r.fsys)
	if err != nil {
		return 0, err
	}
	applied, err := r.applied(ctx, db, false)
	if err != nil {
		return 0, err
	}
	done := make(map[int64]bool, len(applied))
	for _, version := range applied {
		done[version] = true
	}

	count := 0
	for _, item := range known {
		if done[item.Version] {
			continue
		}
		if steps > 0 && count >= steps {
			break
		}
		if err := runScript(ctx, db, item.Version, item.Up, `INSERT INTO `+migrationTable+` (version) VALUES ($1)`); err != nil {
			return count, fmt.Errorf("apply migration %d: %w", item.Version, err)
		}
		r.log().Info("migration_applied", "version", item.Version, "name", item.Name)
		count++
	}
	return count, nil
}

// Down rolls back the most recent migrations. steps <= 0 rolls back one.
func (r *Runner) Down(ctx context.Context, db *sql.DB, steps int) (int, error) {
	if steps <= 0 {
		steps = 1
	}
	known, err := loadMigrations(r.fsys)
	if err != nil {
		return 0, err
	}
	applied, err := r.applied(ctx, db, true)
	if err != nil {
		return 0, err
	}
	byVersion := make(map[int64]migration, len(known))
	for _, item := range known {
		byVersion[item.Version] = item
	}

	count := 0
	for _, version := range applied {
		if count >= steps {
			break
		}
		item, ok := byVersion[version]
		if !ok {
			return count, fmt.Errorf("applied migration %d is missing from source", version)
		}
		if err := runScript(ctx, db, item.Version, item.Down, `DELETE FROM `+migrationTable+` WHERE version = $1`); err != nil {
			return count, fmt.Errorf("rollback migration %d: %w", item.Version, err)
		}
		r.log().Info("migration_rolled_back", "version", item.Version, "name", item.Name)
		count++
	}
	return count, nil
}

// Status lists every embedded migration in version order.
func (r *Runner) Status(ctx context.Context, db *sql.DB) ([]Status, error) {
	known, err := loadMigrations(r.fsys)
	if err != nil {
		return nil, err
	}
	applied, err := r.applied(ctx, db, false)
	if err != nil {
		return nil, err
	}
	done := make(map[int64]bool, len(applied))
	for _, version := range applied {
		done[version] = true
	}
	out := make([]Status, 0, len(known))
	for _, item := range known {
		out = append(out, Status{Version: item.Version, Name: item.Name, Applied: done[item.Version]})
	}
	return out, nil
}

func (r *Runner) applied(ctx context.Context, db *sql.DB, descending bool) ([]int64, error) {
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS `+migrationTable+` (
	version BIGINT PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`); err != nil {
		return nil, fmt.Errorf("ensure migration table: %w", err)
	}

	order := "ASC"
	if descending {
		order = "DESC"
	}
	rows, err := db.QueryContext(ctx, `SELECT version FROM `+migrationTable+` ORDER BY version `+order)
	if err != nil {
		return nil, fmt.Errorf("query applied versions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var versions []int64
	for rows.Next() {
		var version int64
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions = append(versions, version)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applied versions: %w", err)
	}
	return versions, nil
}

// runScript executes a migration script and its bookkeeping statement in one
// transaction.
func runScript(ctx context.Context, db *sql.DB, version int64, script, bookkeeping string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, script); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, bookkeeping, version); err != nil {
		return fmt.Errorf("record version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func loadMigrations(fsys fs.FS) ([]migration, error) {
	entries, err := fs.ReadDir(fsys, "sql")
	if err != nil {
		return nil, fmt.Errorf("read migration dir: %w", err)
	}

	byVersion := map[int64]migration{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		base := path.Base(entry.Name())
		parts := scriptName.FindStringSubmatch(base)
		if len(parts) != 4 {
			continue
		}
		version, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse migration version for %q: %w", base, err)
		}
		body, err := fs.ReadFile(fsys, path.Join("sql", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read migration %q: %w", entry.Name(), err)
		}

		item := byVersion[version]
		item.Version = version
		item.Name = parts[2]
		if parts[3] == "up" {
			item.Up = string(body)
		} else {
			item.Down = string(body)
		}
		byVersion[version] = item
	}

	out := make([]migration, 0, len(byVersion))
	for _, item := range byVersion {
		if strings.TrimSpace(item.Up) == "" {
			return nil, fmt.Errorf("migration %d missing up SQL", item.Version)
		}
		if strings.TrimSpace(item.Down) == "" {
			return nil, fmt.Errorf("migration %d missing down SQL", item.Version)
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}
