// Package bootstrap assembles the question pipeline and its collaborators from
// configuration. Both the HTTP service and the tool commands build through it.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/bookrag/bookrag/internal/config"
	"github.com/bookrag/bookrag/internal/database"
	"github.com/bookrag/bookrag/internal/llm"
	"github.com/bookrag/bookrag/internal/nl2sql"
	"github.com/bookrag/bookrag/internal/pipeline"
	"github.com/bookrag/bookrag/internal/schema"
	"github.com/bookrag/bookrag/internal/sqlexec"
	"github.com/bookrag/bookrag/internal/storage"
	s3store "github.com/bookrag/bookrag/internal/storage/s3"
)

// ObjectStore returns nil without error when no store is configured.
func ObjectStore(ctx context.Context, cfg config.ObjectStoreConfig) (storage.ObjectStore, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	store, err := s3store.New(ctx, s3store.Config{
		Endpoint:         cfg.Endpoint,
		Region:           cfg.Region,
		Bucket:           cfg.Bucket,
		AccessKeyID:      cfg.AccessKeyID,
		SecretAccessKey:  cfg.SecretAccessKey,
		UseSSL:           cfg.UseSSL,
		Prefix:           cfg.Prefix,
		AutoCreateBucket: cfg.AutoCreateBucket,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize object store: %w", err)
	}
	return store, nil
}

// Models hands out provider clients that all draw from one rate limit budget.
type Models struct {
	cfg     config.AIConfig
	limiter *rate.Limiter
}

func NewModels(cfg config.AIConfig) *Models {
	models := &Models{cfg: cfg}
	if cfg.RatePerSecond > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		models.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	return models
}

// Model builds a client for name, or the configured answer model when name is empty.
func (m *Models) Model(name string) (llm.Model, error) {
	if name == "" {
		name = m.cfg.Model
	}
	model, err := llm.New(llm.Config{
		Provider:    m.cfg.Provider,
		BaseURL:     m.cfg.BaseURL,
		APIKey:      m.cfg.APIKey,
		Model:       name,
		Temperature: m.cfg.Temperature,
		Timeout:     m.cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize %s model %q: %w", m.cfg.Provider, name, err)
	}
	if m.limiter == nil {
		return model, nil
	}
	return llm.WithLimiter(model, m.limiter), nil
}

// Service is a ready to use pipeline together with the pieces the HTTP
// surface exposes directly.
type Service struct {
	DB          *sql.DB
	Dialect     string
	Inspector   *schema.Inspector
	Translator  *nl2sql.QuerySynthesizer
	Pipeline    *pipeline.Graph
	ObjectStore storage.ObjectStore
	closeDB     func() error
}

func (s *Service) Close() error {
	if s.closeDB == nil {
		return nil
	}
	return s.closeDB()
}

// NewService connects to the bookstore database and wires the three stage
// pipeline around model.
func NewService(ctx context.Context, cfg config.Config, model llm.Model, store storage.ObjectStore, logger *slog.Logger) (*Service, error) {
	db, dialect, err := database.Connect(ctx, cfg.Database, store)
	if err != nil {
		return nil, fmt.Errorf("connect %s database: %w", cfg.Database.Driver, err)
	}
	service := Assemble(db, dialect, cfg.Pipeline, model, logger)
	service.ObjectStore = store
	service.closeDB = db.Close
	return service, nil
}

// Assemble wires the pipeline over an already open database.
func Assemble(db *sql.DB, dialect string, cfg config.PipelineConfig, model llm.Model, logger *slog.Logger) *Service {
	inspector := schema.NewInspector(db, schema.Config{
		Dialect:       dialect,
		IncludeTables: cfg.IncludeTables,
		SampleRows:    sampleRows(cfg.SampleRows),
	})
	translator := &nl2sql.QuerySynthesizer{Model: model, Introspector: inspector, TopK: cfg.TopK}
	graph := pipeline.New(pipeline.Config{
		Translator: translator,
		Executor:   sqlexec.NewExecutor(db),
		Answerer:   &nl2sql.AnswerSynthesizer{Model: model, Introspector: inspector},
		Logger:     logger,
	})
	return &Service{
		DB:         db,
		Dialect:    dialect,
		Inspector:  inspector,
		Translator: translator,
		Pipeline:   graph,
	}
}

// sampleRows maps the configured count onto the inspector's convention,
// where zero means the default and a negative value disables samples.
func sampleRows(configured int) int {
	if configured <= 0 {
		return -1
	}
	return configured
}
