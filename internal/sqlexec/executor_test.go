package sqlexec

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/marcboeker/go-duckdb/v2"
)

func TestExecuteReturnsRows(t *testing.T) {
	db, mock := newSQLMock(t)
	executor := NewExecutor(db)

	query := `SELECT "bookName", "price" FROM book_store_one ORDER BY "price" LIMIT 5`
	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WillReturnRows(sqlmock.NewRows([]string{"bookName", "price"}).
			AddRow([]byte("Dune"), 9.5).
			AddRow("It's Here", nil))

	result, err := executor.Execute(context.Background(), query)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(result.Columns) != 2 || result.Columns[0] != "bookName" {
		t.Fatalf("Columns = %#v", result.Columns)
	}
	if got := result.Text(); got != `[('Dune', 9.5), ("It's Here", None)]` {
		t.Fatalf("Text() = %s", got)
	}
	assertSQLMock(t, mock)
}

func TestExecuteEmptyResultRendersEmptyString(t *testing.T) {
	db, mock := newSQLMock(t)
	executor := NewExecutor(db)

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	result, err := executor.Execute(context.Background(), "SELECT id FROM book_store_two WHERE false")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Text() != "" {
		t.Fatalf("Text() = %q, want empty", result.Text())
	}
	assertSQLMock(t, mock)
}

func TestExecuteClassifiesPostgresStatementErrors(t *testing.T) {
	db, mock := newSQLMock(t)
	executor := NewExecutor(db)

	mock.ExpectQuery("SELECT").WillReturnError(&pgconn.PgError{
		Code:    "42703",
		Message: `column "bookname" does not exist`,
	})

	_, err := executor.Execute(context.Background(), "SELECT bookname FROM book_store_one")
	var stmtErr *StatementError
	if !errors.As(err, &stmtErr) {
		t.Fatalf("Execute() error = %v, want *StatementError", err)
	}
	if stmtErr.Code != "42703" {
		t.Fatalf("Code = %q", stmtErr.Code)
	}
	if stmtErr.Message() != `column "bookname" does not exist` {
		t.Fatalf("Message() = %q", stmtErr.Message())
	}
	assertSQLMock(t, mock)
}

func TestExecuteClassifiesDuckDBStatementErrors(t *testing.T) {
	db, mock := newSQLMock(t)
	executor := NewExecutor(db)

	mock.ExpectQuery("SELECT").WillReturnError(&duckdb.Error{Msg: "Catalog Error: Table with name nope does not exist!"})

	_, err := executor.Execute(context.Background(), "SELECT * FROM nope")
	var stmtErr *StatementError
	if !errors.As(err, &stmtErr) {
		t.Fatalf("Execute() error = %v, want *StatementError", err)
	}
	if stmtErr.Message() != "Catalog Error: Table with name nope does not exist!" {
		t.Fatalf("Message() = %q", stmtErr.Message())
	}
	assertSQLMock(t, mock)
}

func TestExecutePropagatesConnectionErrors(t *testing.T) {
	db, mock := newSQLMock(t)
	executor := NewExecutor(db)

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"))

	_, err := executor.Execute(context.Background(), "SELECT 1")
	if err == nil {
		t.Fatal("expected error")
	}
	var stmtErr *StatementError
	if errors.As(err, &stmtErr) {
		t.Fatalf("connection error classified as statement error: %v", err)
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Execute() error = %v, want ErrUnavailable", err)
	}
	assertSQLMock(t, mock)
}

func TestResultTextFormatsScalarTypes(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	result := Result{Rows: [][]any{
		{int64(3)},
		{true, 4.0, ts},
	}}
	want := `[(3,), (True, 4.0, '2024-03-01T12:00:00Z')]`
	if got := result.Text(); got != want {
		t.Fatalf("Text() = %s, want %s", got, want)
	}
}

func newSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func assertSQLMock(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sql expectations: %v", err)
	}
}

func TestQuoteStringMatchesPythonRepr(t *testing.T) {
	cases := map[string]string{
		"Dune":          `'Dune'`,
		"O'Brien":       `"O'Brien"`,
		`Say "hi"`:      `'Say "hi"'`,
		`It's "quoted"`: `'It\'s "quoted"'`,
		"line\nbreak":   `'line\nbreak'`,
		`C:\books`:      `'C:\\books'`,
	}
	for in, want := range cases {
		if got := quoteString(in); got != want {
			t.Fatalf("quoteString(%q) = %s, want %s", in, got, want)
		}
	}
}
