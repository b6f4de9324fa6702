package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTraceMiddlewarePreservesIncomingTraceID(t *testing.T) {
	h := TraceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := TraceIDFromContext(r.Context()); got != "trace-1" {
			t.Fatalf("TraceIDFromContext() = %q", got)
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/ask", nil)
	req.Header.Set(traceHeader, "trace-1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get(traceHeader); got != "trace-1" {
		t.Fatalf("trace header = %q", got)
	}
}

func TestTraceMiddlewareGeneratesTraceID(t *testing.T) {
	h := TraceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if TraceIDFromContext(r.Context()) == "" {
			t.Fatal("expected generated trace id")
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ask", nil))

	if rr.Header().Get(traceHeader) == "" {
		t.Fatal("expected X-Trace-ID header")
	}
}

func TestTraceMiddlewareReplacesMalformedTraceID(t *testing.T) {
	for _, incoming := range []string{"bad id\nwith newline", strings.Repeat("a", maxTraceIDBytes+1)} {
		req := httptest.NewRequest(http.MethodGet, "/ask", nil)
		req.Header.Set(traceHeader, incoming)
		rr := httptest.NewRecorder()
		TraceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})).ServeHTTP(rr, req)

		got := rr.Header().Get(traceHeader)
		if got == incoming || !validTraceID(got) {
			t.Fatalf("trace header = %q for incoming %q", got, incoming)
		}
	}
}

func TestTraceIDContextHelpers(t *testing.T) {
	ctx := ContextWithTraceID(context.Background(), "abc123")
	if got := TraceIDFromContext(ctx); got != "abc123" {
		t.Fatalf("TraceIDFromContext() = %q", got)
	}
}

func TestLoggingMiddlewareRecordsStatusAndBytes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("queued"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("decode log line: %v (%q)", err, buf.String())
	}
	if line["msg"] != "http_request" || line["status"] != float64(http.StatusAccepted) || line["bytes"] != float64(6) {
		t.Fatalf("log line = %#v", line)
	}
	if _, ok := line["duration_ms"]; !ok {
		t.Fatalf("missing duration_ms: %#v", line)
	}
}

func TestRouteLabelCollapsesStaticPaths(t *testing.T) {
	cases := map[string]string{
		"/ask":                "/ask",
		"/v1/ready":           "/v1/ready",
		"/v1/query/translate": "/v1/query/translate",
		"/":                   "/static",
		"/script.js":          "/static",
		"/random/deep":        "/static",
	}
	for path, want := range cases {
		if got := routeLabel(path); got != want {
			t.Fatalf("routeLabel(%q) = %q, want %q", path, got, want)
		}
	}
}
