package populate

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// LoadFile inserts every row of the CSV at path into table.
func LoadFile(ctx context.Context, db *sql.DB, table, path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %q: %w", path, err)
	}
	defer func() { _ = file.Close() }()
	return Load(ctx, db, table, file)
}

// Load inserts every CSV row into table inside one transaction. The header row
// names the columns. Rows are appended unconditionally, so loading the same
// file twice duplicates its rows.
func Load(ctx context.Context, db *sql.DB, table string, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 0

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("csv for %s has no header row", table)
		}
		return 0, fmt.Errorf("read csv header: %w", err)
	}
	columns := make([]string, 0, len(header))
	placeholders := make([]string, 0, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if name == "" {
			return 0, fmt.Errorf("csv column %d has an empty name", i+1)
		}
		columns = append(columns, quoteIdent(name))
		placeholders = append(placeholders, "$"+strconv.Itoa(i+1))
	}
	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table), strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return 0, fmt.Errorf("prepare insert into %s: %w", table, err)
	}
	defer func() { _ = stmt.Close() }()

	count := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read csv row %d: %w", count+2, err)
		}
		args := make([]any, len(record))
		for i, cell := range record {
			args[i] = AutoCast(cell)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("insert row %d into %s: %w", count+2, table, err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit %s: %w", table, err)
	}
	return count, nil
}

// AutoCast converts a CSV cell to int64, then float64, falling back to the
// string itself. Empty cells become NULL.
func AutoCast(cell string) any {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return nil
	}
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	return cell
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}
