// Package bookrag holds the cobra commands of the bookrag tool binary: schema
// migrations, CSV population, synthetic data generation and evaluation runs.
package bookrag

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bookrag/bookrag/internal/config"
	"github.com/bookrag/bookrag/internal/database"
	"github.com/bookrag/bookrag/internal/observability"
)

const serviceName = "bookrag"

type Options struct {
	// Lookup resolves configuration; nil reads .env and the process environment.
	Lookup       config.LookupFunc
	Stdout       io.Writer
	Stderr       io.Writer
	OpenPostgres func(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error)
}

// runtime is populated before any subcommand runs.
type runtime struct {
	opts   Options
	cfg    config.Config
	logger *slog.Logger
}

func NewRootCommand(opts Options) *cobra.Command {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.OpenPostgres == nil {
		opts.OpenPostgres = openPostgres
	}
	rt := &runtime{opts: opts}

	root := &cobra.Command{
		Use:   "bookrag",
		Short: "Tools for the bookstore question answering service",
		Long: `bookrag prepares and evaluates the bookstore question answering service:
migrate creates the bookstore tables, populate loads CSV files into them,
generate builds synthetic bookstore datasets and eval grades the pipeline
against a question/answer dataset.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return rt.load()
		},
	}
	root.SetOut(opts.Stdout)
	root.SetErr(opts.Stderr)
	root.AddCommand(
		newMigrateCommand(rt),
		newPopulateCommand(rt),
		newGenerateCommand(rt),
		newEvalCommand(rt),
	)
	return root
}

// Execute runs the root command against the process environment.
func Execute() error {
	return NewRootCommand(Options{}).Execute()
}

func (rt *runtime) load() error {
	var (
		cfg config.Config
		err error
	)
	if rt.opts.Lookup != nil {
		cfg, err = config.Load(serviceName, rt.opts.Lookup)
	} else {
		cfg, err = config.LoadFromEnv(serviceName)
	}
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	rt.cfg = cfg
	rt.logger = observability.NewLogger(cfg, rt.opts.Stderr)
	return nil
}

func (rt *runtime) postgres(ctx context.Context) (*sql.DB, error) {
	if rt.cfg.Database.Driver != config.DriverPostgres {
		return nil, fmt.Errorf("command requires the postgres driver, got %q", rt.cfg.Database.Driver)
	}
	return rt.opts.OpenPostgres(ctx, rt.cfg.Database)
}

func openPostgres(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	return database.Open(ctx, database.DBConfig{
		DSN:             cfg.PostgresDSN(),
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
}
