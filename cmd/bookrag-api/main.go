package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bookrag/bookrag/internal/api"
	"github.com/bookrag/bookrag/internal/api/uistatic"
	"github.com/bookrag/bookrag/internal/auth"
	"github.com/bookrag/bookrag/internal/bootstrap"
	"github.com/bookrag/bookrag/internal/config"
	"github.com/bookrag/bookrag/internal/observability"
)

func main() {
	cfg, err := config.LoadFromEnv("bookrag-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)
	objectStore, err := bootstrap.ObjectStore(context.Background(), cfg.ObjectStore)
	if err != nil {
		logger.Error("failed to initialize object store", slog.Any("error", err))
		os.Exit(1)
	}

	model, err := bootstrap.NewModels(cfg.AI).Model(cfg.AI.Model)
	if err != nil {
		logger.Error("failed to initialize model", slog.Any("error", err))
		os.Exit(1)
	}

	service, err := bootstrap.NewService(context.Background(), cfg, model, objectStore, logger)
	if err != nil {
		logger.Error("failed to open bookstore db", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = service.Close() }()

	deps := api.Dependencies{
		Logger:           logger,
		Pipeline:         service.Pipeline,
		QueryTranslator:  service.Translator,
		Introspector:     service.Inspector,
		UI:               uistatic.Handler(),
		Readiness:        api.CombineReadinessChecks(api.CheckDatabase(service.DB)),
		DependencyTimout: time.Second,
	}
	if cfg.Auth.Required {
		validator, err := auth.NewStaticAPIKeyValidator(cfg.Auth.StaticKeys)
		if err != nil {
			logger.Error("failed to parse static auth keys", slog.Any("error", err))
			os.Exit(1)
		}
		deps.AuthMiddleware = auth.Middleware(logger, validator)
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server",
			slog.String("addr", cfg.HTTP.Address),
			slog.String("dialect", service.Dialect),
			slog.String("provider", cfg.AI.Provider),
			slog.String("model", cfg.AI.Model),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}
