package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bookrag/bookrag/internal/auth"
	"github.com/bookrag/bookrag/internal/config"
	"github.com/bookrag/bookrag/internal/nl2sql"
	"github.com/bookrag/bookrag/internal/observability"
	"github.com/bookrag/bookrag/internal/pipeline"
	"github.com/bookrag/bookrag/internal/schema"
)

type ReadinessCheck func(ctx context.Context) error

// Asker runs one question through the pipeline; *pipeline.Graph satisfies it.
type Asker interface {
	Invoke(ctx context.Context, question string) (*pipeline.State, error)
}

type Dependencies struct {
	Logger           *slog.Logger
	Readiness        ReadinessCheck
	AuthMiddleware   func(http.Handler) http.Handler
	DependencyTimout time.Duration
	Pipeline         Asker
	QueryTranslator  nl2sql.Translator
	Introspector     schema.Introspector
	UI               http.Handler
}

func NewHandler(cfg config.Config, deps Dependencies) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "service": cfg.Service.Name})
	})

	mux.HandleFunc("GET /v1/ready", func(w http.ResponseWriter, r *http.Request) {
		if deps.Readiness == nil {
			writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
			return
		}
		timeout := deps.DependencyTimout
		if timeout <= 0 {
			timeout = 2 * time.Second
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		if err := deps.Readiness(ctx); err != nil {
			writeError(r.Context(), w, http.StatusServiceUnavailable, "NOT_READY", err.Error(), true, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	})

	mux.Handle("GET /v1/metrics", promhttp.Handler())

	authenticate := deps.AuthMiddleware
	if cfg.Auth.Required && authenticate == nil {
		if deps.Logger != nil {
			deps.Logger.Error("auth required but auth middleware missing")
		}
		authenticate = func(http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeError(r.Context(), w, http.StatusInternalServerError, "AUTH_MIDDLEWARE_MISSING", "auth middleware is required by configuration", false, nil)
			})
		}
	}
	protect := func(role string, h http.HandlerFunc) http.Handler {
		if !cfg.Auth.Required {
			return h
		}
		return authenticate(auth.RequireRole(role)(h))
	}

	mux.Handle("POST /ask", protect(auth.RoleAsker, func(w http.ResponseWriter, r *http.Request) {
		handleAsk(deps, w, r)
	}))
	mux.Handle("GET /v1/schema", protect(auth.RoleOperator, func(w http.ResponseWriter, r *http.Request) {
		handleSchema(deps, w, r)
	}))
	mux.Handle("POST /v1/query/translate", protect(auth.RoleOperator, func(w http.ResponseWriter, r *http.Request) {
		handleTranslateQuery(deps, w, r)
	}))
	if deps.UI != nil {
		mux.Handle("GET /{path...}", deps.UI)
	}

	middlewares := []func(http.Handler) http.Handler{
		observability.TraceMiddleware,
		observability.MetricsMiddleware,
	}
	if deps.Logger != nil {
		middlewares = append(middlewares, observability.LoggingMiddleware(deps.Logger))
	}
	return chain(mux, middlewares...)
}

// CheckDatabase pings the question database.
func CheckDatabase(db *sql.DB) ReadinessCheck {
	return func(ctx context.Context) error {
		return db.PingContext(ctx)
	}
}

func CombineReadinessChecks(checks ...ReadinessCheck) ReadinessCheck {
	filtered := make([]ReadinessCheck, 0, len(checks))
	for _, check := range checks {
		if check != nil {
			filtered = append(filtered, check)
		}
	}
	return func(ctx context.Context) error {
		for _, check := range filtered {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

func chain(base http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	wrapped := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}
	return wrapped
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, code, message string, retryable bool, extra map[string]any) {
	writeJSON(w, status, map[string]any{
		"error_code": code,
		"message":    message,
		"retryable":  retryable,
		"context":    extra,
		"trace_id":   observability.TraceIDFromContext(ctx),
	})
}
