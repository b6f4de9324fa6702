package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/bookrag/bookrag/internal/bootstrap"
	"github.com/bookrag/bookrag/internal/config"
	"github.com/bookrag/bookrag/internal/llm"
	"github.com/bookrag/bookrag/internal/schema"
)

// cannedModel returns a fixed SQL statement for structured query requests and
// fails the test on any other call.
type cannedModel struct {
	t     *testing.T
	query string
}

func (m *cannedModel) Complete(_ context.Context, req llm.Request) (llm.Completion, error) {
	if req.Schema == nil {
		m.t.Fatal("answer stage must not run when the database is unreachable")
	}
	payload, err := json.Marshal(map[string]string{"query": m.query})
	if err != nil {
		return llm.Completion{}, err
	}
	return llm.Completion{Text: string(payload), Provider: "canned", Model: "canned"}, nil
}

func newAssembledHandler(t *testing.T, model llm.Model) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := bootstrap.Assemble(db, schema.DialectPostgres, config.PipelineConfig{TopK: 5}, model, logger)
	h := NewHandler(loadConfig(t, map[string]string{}), Dependencies{Pipeline: service.Pipeline})
	return h, mock
}

func decodeErrorBody(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("json decode failed: %v", err)
	}
	return out
}

func TestAskReportsDatabaseUnavailableWhenIntrospectionFails(t *testing.T) {
	h, mock := newAssembledHandler(t, &cannedModel{t: t, query: "SELECT 1"})
	mock.ExpectQuery(regexp.QuoteMeta("information_schema.tables")).
		WillReturnError(errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"))

	rr := postJSON(h, "/ask", `{"question": "Who wrote Dune?"}`)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 (body=%s)", rr.Code, rr.Body.String())
	}
	body := decodeErrorBody(t, rr.Body.Bytes())
	if body["error_code"] != "DATABASE_UNAVAILABLE" || body["retryable"] != true {
		t.Fatalf("body = %#v", body)
	}
	details, _ := body["context"].(map[string]any)
	if details["stage"] != "query_construction" {
		t.Fatalf("context = %#v", body["context"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sql expectations: %v", err)
	}
}

func TestAskReportsDatabaseUnavailableWhenExecutionLosesConnection(t *testing.T) {
	query := `SELECT "bookName" FROM book_store_one LIMIT 1`
	h, mock := newAssembledHandler(t, &cannedModel{t: t, query: query})
	mock.ExpectQuery(regexp.QuoteMeta("information_schema.tables")).
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("book_store_one"))
	mock.ExpectQuery(regexp.QuoteMeta("information_schema.columns")).
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable"}).
			AddRow("bookName", "character varying", "YES"))
	mock.ExpectQuery(regexp.QuoteMeta("information_schema.table_constraints")).
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}))
	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WillReturnError(errors.New("read tcp 127.0.0.1:5432: connection reset by peer"))

	rr := postJSON(h, "/ask", `{"question": "Name one book"}`)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 (body=%s)", rr.Code, rr.Body.String())
	}
	body := decodeErrorBody(t, rr.Body.Bytes())
	if body["error_code"] != "DATABASE_UNAVAILABLE" {
		t.Fatalf("body = %#v", body)
	}
	details, _ := body["context"].(map[string]any)
	if details["stage"] != "query_execution" {
		t.Fatalf("context = %#v", body["context"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sql expectations: %v", err)
	}
}
