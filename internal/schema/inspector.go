package schema

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	DialectPostgres = "postgresql"
	DialectDuckDB   = "duckdb"

	defaultSampleRows = 3
	maxSampleValueLen = 100
)

// ErrUnavailable wraps failures of the catalog queries themselves. When the
// catalog cannot be read the database is usually unreachable.
var ErrUnavailable = errors.New("schema unavailable")

// Introspector describes the live database for prompt construction.
type Introspector interface {
	Dialect() string
	TableInfo(ctx context.Context) (string, error)
}

type Config struct {
	Dialect       string
	Schema        string
	IncludeTables []string
	// SampleRows is the number of rows rendered per table; negative disables samples.
	SampleRows int
}

// Inspector reads table definitions from information_schema on every call.
type Inspector struct {
	db         *sql.DB
	dialect    string
	schema     string
	include    map[string]struct{}
	sampleRows int
}

func NewInspector(db *sql.DB, cfg Config) *Inspector {
	dialect := strings.ToLower(strings.TrimSpace(cfg.Dialect))
	if dialect == "" {
		dialect = DialectPostgres
	}
	schemaName := strings.TrimSpace(cfg.Schema)
	if schemaName == "" {
		schemaName = defaultSchema(dialect)
	}
	sampleRows := cfg.SampleRows
	if sampleRows == 0 {
		sampleRows = defaultSampleRows
	}
	var include map[string]struct{}
	if len(cfg.IncludeTables) > 0 {
		include = make(map[string]struct{}, len(cfg.IncludeTables))
		for _, name := range cfg.IncludeTables {
			if name = strings.TrimSpace(name); name != "" {
				include[name] = struct{}{}
			}
		}
	}
	return &Inspector{db: db, dialect: dialect, schema: schemaName, include: include, sampleRows: sampleRows}
}

func defaultSchema(dialect string) string {
	if dialect == DialectDuckDB {
		return "main"
	}
	return "public"
}

func (i *Inspector) Dialect() string {
	return i.dialect
}

type column struct {
	Name     string
	DataType string
	Nullable bool
}

type table struct {
	Name       string
	Columns    []column
	PrimaryKey []string
}

func (i *Inspector) TableInfo(ctx context.Context) (string, error) {
	names, err := i.listTables(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	blocks := make([]string, 0, len(names))
	for _, name := range names {
		tbl, err := i.describeTable(ctx, name)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		block := renderCreateTable(tbl)
		if i.sampleRows > 0 {
			if samples, ok := i.sampleBlock(ctx, tbl); ok {
				block += "\n\n" + samples
			}
		}
		blocks = append(blocks, block)
	}
	return strings.Join(blocks, "\n\n"), nil
}

func (i *Inspector) listTables(ctx context.Context) ([]string, error) {
	rows, err := i.db.QueryContext(ctx, `
SELECT table_name
FROM information_schema.tables
WHERE table_schema = $1 AND table_type = 'BASE TABLE'
ORDER BY table_name`, i.schema)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		if i.include != nil {
			if _, ok := i.include[name]; !ok {
				continue
			}
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

func (i *Inspector) describeTable(ctx context.Context, name string) (table, error) {
	tbl := table{Name: name}
	rows, err := i.db.QueryContext(ctx, `
SELECT column_name, data_type, is_nullable
FROM information_schema.columns
WHERE table_schema = $1 AND table_name = $2
ORDER BY ordinal_position`, i.schema, name)
	if err != nil {
		return table{}, fmt.Errorf("list columns for %s: %w", name, err)
	}
	for rows.Next() {
		var col column
		var nullable string
		if err := rows.Scan(&col.Name, &col.DataType, &nullable); err != nil {
			_ = rows.Close()
			return table{}, fmt.Errorf("scan column for %s: %w", name, err)
		}
		col.Nullable = strings.EqualFold(nullable, "YES")
		tbl.Columns = append(tbl.Columns, col)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return table{}, fmt.Errorf("rows error: %w", err)
	}
	_ = rows.Close()

	pkRows, err := i.db.QueryContext(ctx, `
SELECT kcu.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON tc.constraint_name = kcu.constraint_name
 AND tc.table_schema = kcu.table_schema
 AND tc.table_name = kcu.table_name
WHERE tc.constraint_type = 'PRIMARY KEY'
  AND tc.table_schema = $1
  AND tc.table_name = $2
ORDER BY kcu.ordinal_position`, i.schema, name)
	if err != nil {
		return table{}, fmt.Errorf("list primary key for %s: %w", name, err)
	}
	defer func() { _ = pkRows.Close() }()
	for pkRows.Next() {
		var col string
		if err := pkRows.Scan(&col); err != nil {
			return table{}, fmt.Errorf("scan primary key for %s: %w", name, err)
		}
		tbl.PrimaryKey = append(tbl.PrimaryKey, col)
	}
	if err := pkRows.Err(); err != nil {
		return table{}, fmt.Errorf("rows error: %w", err)
	}
	return tbl, nil
}

// sampleBlock returns false when the sample query fails; the table definition
// is still useful without it.
func (i *Inspector) sampleBlock(ctx context.Context, tbl table) (string, bool) {
	if len(tbl.Columns) == 0 {
		return "", false
	}
	names := make([]string, 0, len(tbl.Columns))
	quoted := make([]string, 0, len(tbl.Columns))
	for _, col := range tbl.Columns {
		names = append(names, col.Name)
		quoted = append(quoted, quoteIdent(col.Name))
	}
	query := fmt.Sprintf("SELECT %s FROM %s LIMIT %d", strings.Join(quoted, ", "), quoteIdent(tbl.Name), i.sampleRows)
	rows, err := i.db.QueryContext(ctx, query)
	if err != nil {
		return "", false
	}
	defer func() { _ = rows.Close() }()

	lines := []string{strings.Join(names, "\t")}
	for rows.Next() {
		values := make([]any, len(names))
		ptrs := make([]any, len(names))
		for idx := range values {
			ptrs[idx] = &values[idx]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return "", false
		}
		cells := make([]string, len(values))
		for idx, value := range values {
			cells[idx] = sampleValue(value)
		}
		lines = append(lines, strings.Join(cells, "\t"))
	}
	if err := rows.Err(); err != nil {
		return "", false
	}
	return fmt.Sprintf("/*\n%d rows from %s table:\n%s\n*/", i.sampleRows, tbl.Name, strings.Join(lines, "\n")), true
}

func renderCreateTable(tbl table) string {
	lines := make([]string, 0, len(tbl.Columns)+1)
	for _, col := range tbl.Columns {
		line := "\t" + quoteIdentIfNeeded(col.Name) + " " + strings.ToUpper(col.DataType)
		if !col.Nullable {
			line += " NOT NULL"
		}
		lines = append(lines, line)
	}
	if len(tbl.PrimaryKey) > 0 {
		keys := make([]string, 0, len(tbl.PrimaryKey))
		for _, key := range tbl.PrimaryKey {
			keys = append(keys, quoteIdentIfNeeded(key))
		}
		lines = append(lines, fmt.Sprintf("\tCONSTRAINT %s_pkey PRIMARY KEY (%s)", tbl.Name, strings.Join(keys, ", ")))
	}
	return fmt.Sprintf("CREATE TABLE %s (\n%s\n)", quoteIdentIfNeeded(tbl.Name), strings.Join(lines, ", \n"))
}

func sampleValue(value any) string {
	var text string
	switch v := value.(type) {
	case nil:
		return "NULL"
	case []byte:
		text = string(v)
	default:
		text = fmt.Sprint(v)
	}
	if utf8.RuneCountInString(text) > maxSampleValueLen {
		runes := []rune(text)
		text = string(runes[:maxSampleValueLen]) + "..."
	}
	return strings.ReplaceAll(text, "\n", " ")
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// quoteIdentIfNeeded keeps lower-case identifiers bare so the rendered DDL
// reads like the database's own, and quotes mixed-case ones like "bookName".
func quoteIdentIfNeeded(name string) string {
	for _, r := range name {
		if !(r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
			return quoteIdent(name)
		}
	}
	return name
}
