package sqlexec

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/marcboeker/go-duckdb/v2"
)

// Result is the tabular outcome of a statement that the database accepted.
type Result struct {
	Columns  []string
	Rows     [][]any
	Duration time.Duration
}

// ErrUnavailable wraps execution failures that are not statement rejections,
// such as a refused or dropped connection.
var ErrUnavailable = errors.New("database unavailable")

// StatementError means the database rejected the statement itself. It is
// reported to the answer stage as a failure, unlike connection errors which
// abort the request.
type StatementError struct {
	Query string
	Code  string
	Err   error
}

func (e *StatementError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("statement rejected (%s): %v", e.Code, e.Err)
	}
	return fmt.Sprintf("statement rejected: %v", e.Err)
}

func (e *StatementError) Unwrap() error { return e.Err }

// Message is the database's own wording, suitable for an LLM prompt.
func (e *StatementError) Message() string {
	var pgErr *pgconn.PgError
	if errors.As(e.Err, &pgErr) {
		return pgErr.Message
	}
	return e.Err.Error()
}

type Executor struct {
	db *sql.DB
}

func NewExecutor(db *sql.DB) *Executor {
	return &Executor{db: db}
}

// Execute runs query as-is on the connection. There is no retry, no
// transaction and no row cap beyond whatever the query itself states.
func (e *Executor) Execute(ctx context.Context, query string) (Result, error) {
	start := time.Now()
	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return Result{}, classify(query, err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return Result{}, fmt.Errorf("read result columns: %w", err)
	}

	result := Result{Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return Result{}, fmt.Errorf("scan result row: %w", err)
		}
		for i, value := range values {
			if raw, ok := value.([]byte); ok {
				values[i] = string(raw)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return Result{}, classify(query, err)
	}
	result.Duration = time.Since(start)
	return result, nil
}

func classify(query string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &StatementError{Query: query, Code: pgErr.Code, Err: err}
	}
	var duckErr *duckdb.Error
	if errors.As(err, &duckErr) {
		return &StatementError{Query: query, Code: fmt.Sprint(duckErr.Type), Err: err}
	}
	return fmt.Errorf("execute query: %w: %w", ErrUnavailable, err)
}

// Text renders rows the way Python DB-API tuples print, e.g.
// [(1, 'Dune'), (2, None)]. An empty result renders as "".
func (r Result) Text() string {
	if len(r.Rows) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteByte('[')
	for i, row := range r.Rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j, value := range row {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(literal(value))
		}
		if len(row) == 1 {
			b.WriteByte(',')
		}
		b.WriteByte(')')
	}
	b.WriteByte(']')
	return b.String()
}

func literal(value any) string {
	switch v := value.(type) {
	case nil:
		return "None"
	case string:
		return quoteString(v)
	case []byte:
		return quoteString(string(v))
	case bool:
		if v {
			return "True"
		}
		return "False"
	case time.Time:
		return "'" + v.Format(time.RFC3339) + "'"
	case float32:
		return formatFloat(float64(v))
	case float64:
		return formatFloat(v)
	default:
		return fmt.Sprint(v)
	}
}

// quoteString follows Python's str repr: single quotes unless the text holds
// a single quote and no double quote, with backslash escapes otherwise.
func quoteString(s string) string {
	quote := byte('\'')
	if strings.IndexByte(s, '\'') >= 0 && strings.IndexByte(s, '"') < 0 {
		quote = '"'
	}
	var b strings.Builder
	b.WriteByte(quote)
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == rune(quote):
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(quote)
	return b.String()
}

func formatFloat(v float64) string {
	text := fmt.Sprintf("%v", v)
	if !strings.ContainsAny(text, ".eEN") {
		text += ".0"
	}
	return text
}
