package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/bookrag/bookrag/internal/config"
)

func TestNewLoggerWritesServiceFields(t *testing.T) {
	cfg := config.Config{
		Service: config.ServiceConfig{Name: "bookrag-api"},
		Profile: config.ProfileTest,
		Observability: config.ObservabilityConfig{
			LogJSON:  true,
			LogLevel: slog.LevelInfo,
		},
	}
	var buf bytes.Buffer
	logger := NewLogger(cfg, &buf)
	logger.Debug("hidden")
	logger.Info("visible")

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("decode log line: %v (%q)", err, buf.String())
	}
	if line["msg"] != "visible" {
		t.Fatalf("msg = %v", line["msg"])
	}
	if line["service"] != "bookrag-api" || line["profile"] != "test" {
		t.Fatalf("log fields = %#v", line)
	}
}

func TestNewLoggerNilWriterDiscards(t *testing.T) {
	logger := NewLogger(config.Config{}, nil)
	logger.Error("nowhere")
}

func TestNewLoggerRedactsSecrets(t *testing.T) {
	cfg := config.Config{Observability: config.ObservabilityConfig{LogJSON: true, LogLevel: slog.LevelInfo}}
	var buf bytes.Buffer
	NewLogger(cfg, &buf).Info("model_configured",
		slog.String("provider", "gemini"),
		slog.String("api_key", "sk-live-123"),
		slog.String("Authorization", "Bearer abc"),
	)

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("decode log line: %v (%q)", err, buf.String())
	}
	if line["api_key"] != redacted || line["Authorization"] != redacted {
		t.Fatalf("secrets not redacted: %#v", line)
	}
	if line["provider"] != "gemini" {
		t.Fatalf("provider = %v", line["provider"])
	}
}
