package observability

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/bookrag/bookrag/internal/config"
)

type ctxKey string

const traceIDKey ctxKey = "trace_id"

const redacted = "[redacted]"

// secretAttrs are never written verbatim, whatever the level.
var secretAttrs = map[string]struct{}{
	"api_key":           {},
	"x-api-key":         {},
	"authorization":     {},
	"password":          {},
	"secret_access_key": {},
}

func NewLogger(cfg config.Config, writer io.Writer) *slog.Logger {
	if writer == nil {
		writer = io.Discard
	}
	opts := &slog.HandlerOptions{
		Level:       cfg.Observability.LogLevel,
		ReplaceAttr: redactSecrets,
	}
	var handler slog.Handler = slog.NewTextHandler(writer, opts)
	if cfg.Observability.LogJSON {
		handler = slog.NewJSONHandler(writer, opts)
	}
	return slog.New(handler).With(
		slog.String("service", cfg.Service.Name),
		slog.String("profile", string(cfg.Profile)),
	)
}

func redactSecrets(_ []string, attr slog.Attr) slog.Attr {
	if _, ok := secretAttrs[strings.ToLower(attr.Key)]; ok && attr.Value.String() != "" {
		return slog.String(attr.Key, redacted)
	}
	return attr
}

func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

func TraceIDFromContext(ctx context.Context) string {
	traceID, _ := ctx.Value(traceIDKey).(string)
	return traceID
}
